// Package emit renders a translated module as a C++ header.
package emit

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/xbridge/internal/aggregate"
	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/signature"
)

// RuntimeInclude is the support runtime header every generated header needs.
const RuntimeInclude = "xbridge/runtime.h"

var includes = []string{"<cstddef>", "<cstdint>", "<initializer_list>", "<type_traits>", `"` + RuntimeInclude + `"`}

// Render returns the header for a translated module.
func Render(out *bridge.Output) ([]byte, error) {
	var buf bytes.Buffer
	if err := Header(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Header writes the header for a translated module to w. Output is a pure
// function of out.
func Header(w io.Writer, out *bridge.Output) error {
	if out == nil {
		return fmt.Errorf("emit: nil output")
	}
	p := &printer{}

	p.line("// Generated by xbridge %s from module %s. Do not edit.", ir.GeneratorVersion, out.Module)
	p.line("// interface %s", out.InterfaceHash)
	p.line("//")
	p.line("// Not thread-safe: values and calls of this interface must not be used")
	p.line("// from several threads at once. References passed to modify callbacks")
	p.line("// are valid only until the callback returns.")
	p.line("#pragma once")
	p.blank()
	for _, inc := range includes {
		p.line("#include %s", inc)
	}

	if len(out.Protocols) > 0 {
		p.blank()
		p.line("namespace xbridge::protocol {")
		for _, proto := range out.Protocols {
			p.line("struct %s;", proto)
		}
		p.line("} // namespace xbridge::protocol")
	}

	p.blank()
	p.line("namespace %s {", out.Namespace)
	if len(out.Types) > 0 {
		p.blank()
		for _, t := range out.Types {
			p.line("class %s;", t.Name)
		}
	}
	for _, t := range out.Types {
		p.blank()
		p.class(t)
	}
	if len(out.Globals) > 0 {
		p.blank()
		for _, g := range out.Globals {
			p.property(g, false)
		}
	}
	for _, c := range out.Functions {
		p.blank()
		p.callable(c, false)
	}
	if len(out.Diagnostics) > 0 {
		p.blank()
		p.line("// Not exported:")
		for _, d := range out.Diagnostics {
			p.line("//   %s (%s)", d.Selector, d.Code)
		}
	}
	p.blank()
	p.line("} // namespace %s", out.Namespace)

	if len(out.Types) > 0 {
		p.blank()
		p.line("namespace xbridge {")
		for _, t := range out.Types {
			p.line("template <> inline constexpr bool isUsableInGenericContext<%s::%s> = true;", out.Namespace, t.Name)
		}
		for _, e := range out.Conformances {
			info, ok := out.Mapper.Aggregate(e.Type)
			if !ok {
				continue
			}
			p.line("template <> inline constexpr bool conformsTo<%s::%s, protocol::%s> = true;", out.Namespace, info.Target, e.Protocol)
		}
		p.line("} // namespace xbridge")
	}

	_, err := w.Write(p.buf.Bytes())
	return err
}

type printer struct {
	buf    bytes.Buffer
	indent int
}

func (p *printer) line(format string, args ...any) {
	p.buf.WriteString(strings.Repeat("  ", p.indent))
	fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteByte('\n')
}

func (p *printer) blank() {
	p.buf.WriteByte('\n')
}

func (p *printer) doc(doc string) {
	if doc == "" {
		return
	}
	for _, l := range strings.Split(strings.TrimSpace(doc), "\n") {
		p.line("/// %s", strings.TrimSpace(l))
	}
}

func (p *printer) class(t *aggregate.Type) {
	p.doc(t.Doc)
	p.line("class %s final {", t.Name)
	p.line("public:")
	p.indent++

	if t.DefaultConstructible {
		p.line("%s();", t.Name)
	} else {
		p.line("%s() = delete;", t.Name)
	}
	p.line("%s(const %s &other);", t.Name, t.Name)
	p.line("%s &operator=(const %s &other);", t.Name, t.Name)
	p.line("~%s();", t.Name)

	if len(t.Cases) > 0 {
		p.blank()
		for _, c := range t.Cases {
			if c.Factory != nil {
				p.callable(c.Factory, true)
			} else {
				p.line("static const %s %s;", t.Name, c.Name)
			}
		}
	}
	if len(t.Factories) > 0 {
		p.blank()
		for _, c := range t.Factories {
			p.callable(c, true)
		}
	}
	if len(t.Properties) > 0 {
		p.blank()
		for _, prop := range t.Properties {
			p.property(prop, true)
		}
	}
	for _, s := range t.Subscripts {
		p.blank()
		for _, c := range []*signature.Callable{s.Getter, s.Setter, s.Modify} {
			if c != nil {
				p.callable(c, true)
			}
		}
	}
	if len(t.Cases) > 0 {
		p.blank()
		for _, c := range t.Cases {
			p.line("bool %s() const;", c.Predicate)
			if c.Accessor != "" {
				p.line("%s %s() const;", c.PayloadType, c.Accessor)
			}
		}
	}
	if len(t.Methods) > 0 {
		p.blank()
		for _, c := range t.Methods {
			p.callable(c, true)
		}
	}

	p.indent--
	p.blank()
	p.line("private:")
	p.indent++
	if t.Resilient {
		p.line("void *_opaque;")
	} else {
		p.line("alignas(%d) unsigned char _storage[%d];", t.Layout.Align, t.Layout.Size)
	}
	p.indent--
	p.line("};")
}

func (p *printer) property(prop aggregate.Property, member bool) {
	for _, c := range []*signature.Callable{prop.Getter, prop.Setter, prop.Modify} {
		if c != nil {
			p.callable(c, member)
		}
	}
}

func (p *printer) callable(c *signature.Callable, member bool) {
	p.doc(c.Doc)
	for _, n := range c.Notes {
		p.line("// %s", n)
	}
	if len(c.Template) > 0 {
		p.line("template <%s>", strings.Join(c.Template, ", "))
		if len(c.Requires) > 0 {
			p.line("  requires %s", strings.Join(c.Requires, " && "))
		}
	}

	var b strings.Builder
	if member && c.Static {
		b.WriteString("static ")
	}
	b.WriteString(c.Result)
	if !strings.HasSuffix(c.Result, "*") && !strings.HasSuffix(c.Result, "&") {
		b.WriteByte(' ')
	}
	b.WriteString(c.Name)
	b.WriteByte('(')
	for i, param := range c.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(declarator(param))
	}
	b.WriteByte(')')
	if member && c.Const {
		b.WriteString(" const")
	}
	b.WriteByte(';')
	p.line("%s", b.String())
}

// declarator joins a parameter type and name; reference and pointer
// markers bind to the name: "const Point &p".
func declarator(param signature.Param) string {
	s := param.Type
	if strings.HasSuffix(s, "&") || strings.HasSuffix(s, "*") {
		s += param.Name
	} else {
		s += " " + param.Name
	}
	if param.Default != "" {
		s += " = " + param.Default
	}
	return s
}
