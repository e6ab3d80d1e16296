// Package ifacefile reads and writes serialized module interfaces.
//
// Interfaces are stored as JSON, YAML, or MessagePack (".xbi"). CUE sources
// (".cue" files or directories of them) are compiled on read and may hold
// several modules.
package ifacefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/roach88/xbridge/internal/compiler"
	"github.com/roach88/xbridge/internal/ir"
)

// Format identifies an interface file encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "xbi"
	FormatCUE     Format = "cue"
)

// ErrUnknownFormat is returned for paths whose extension names no format.
var ErrUnknownFormat = errors.New("unknown interface file format")

// FormatOf returns the format implied by a path. Directories are CUE
// packages.
func FormatOf(path string) (Format, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return FormatCUE, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".xbi", ".msgpack":
		return FormatMsgpack, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Read loads every module interface at path.
func Read(path string) ([]*ir.ModuleInterface, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if format == FormatCUE {
		return readCUE(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mod, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return []*ir.ModuleInterface{mod}, nil
}

// Write stores a module interface at path in the format its extension
// names. CUE is read-only.
func Write(path string, mod *ir.ModuleInterface) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, format, mod); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Decode reads one module interface.
func Decode(r io.Reader, format Format) (*ir.ModuleInterface, error) {
	var mod ir.ModuleInterface
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&mod); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&mod); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatMsgpack:
		dec := msgpack.NewDecoder(r)
		dec.SetCustomStructTag("json")
		dec.DisallowUnknownFields(true)
		if err := dec.Decode(&mod); err != nil {
			return nil, fmt.Errorf("decode msgpack: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: cannot decode %q", ErrUnknownFormat, format)
	}
	return &mod, nil
}

// Encode writes one module interface.
func Encode(w io.Writer, format Format, mod *ir.ModuleInterface) error {
	if mod == nil {
		return errors.New("encode: nil module interface")
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(mod)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(mod); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		enc.SetOmitEmpty(true)
		return enc.Encode(mod)
	default:
		return fmt.Errorf("%w: cannot encode %q", ErrUnknownFormat, format)
	}
}

// readCUE builds a CUE file or package directory and compiles the modules
// under its "module" field.
func readCUE(path string) ([]*ir.ModuleInterface, error) {
	dir, args := path, []string{"."}
	if info, err := os.Stat(path); err != nil {
		return nil, err
	} else if !info.IsDir() {
		dir, args = filepath.Dir(path), []string{"./" + filepath.Base(path)}
	}

	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("%s: no CUE instances loaded", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building %s: %w", path, err)
	}
	mods, err := compiler.CompileModules(value)
	if err != nil {
		return nil, err
	}
	if len(mods) == 0 {
		return nil, fmt.Errorf("%s: no modules defined", path)
	}
	return mods, nil
}
