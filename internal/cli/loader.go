package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/xbridge/internal/compiler"
	"github.com/roach88/xbridge/internal/config"
	"github.com/roach88/xbridge/internal/ifacefile"
	"github.com/roach88/xbridge/internal/ir"
)

// loadConfig resolves the project configuration: the --config file when
// given, else the first project file found in the working directory.
func loadConfig(opts *RootOptions) (config.Config, error) {
	path := opts.Config
	if path == "" {
		path = config.Find(".")
	} else if _, err := os.Stat(path); err != nil {
		return config.Config{}, fmt.Errorf("config file not found: %s", path)
	}
	return config.Load(path)
}

// loadInterfaces reads every module interface from the inputs, in order.
// Module names must be unique across inputs.
func loadInterfaces(inputs []string) ([]*ir.ModuleInterface, error) {
	var mods []*ir.ModuleInterface
	seen := make(map[string]string)
	for _, in := range inputs {
		if _, err := os.Stat(in); os.IsNotExist(err) {
			return nil, fmt.Errorf("interface file not found: %s", in)
		}
		read, err := ifacefile.Read(in)
		if err != nil {
			return nil, err
		}
		for _, m := range read {
			if prev, ok := seen[m.Name]; ok {
				return nil, fmt.Errorf("module %q defined in both %s and %s", m.Name, prev, in)
			}
			seen[m.Name] = in
			mods = append(mods, m)
		}
	}
	return mods, nil
}

// loadModule reads the single module an input defines, or the one named.
func loadModule(input, name string) (*ir.ModuleInterface, error) {
	mods, err := loadInterfaces([]string{input})
	if err != nil {
		return nil, err
	}
	if name == "" {
		if len(mods) != 1 {
			return nil, fmt.Errorf("%s defines %d modules; pick one with --module", input, len(mods))
		}
		return mods[0], nil
	}
	for _, m := range mods {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("module %q not found in %s", name, input)
}

// compileErrorLine returns the source line of a CUE compile error, or 0.
func compileErrorLine(err error) int {
	var cErr *compiler.CompileError
	if errors.As(err, &cErr) && cErr.Pos.IsValid() {
		return cErr.Pos.Line()
	}
	return 0
}
