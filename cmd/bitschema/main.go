package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wippyai/bitschema/bus"
	"github.com/wippyai/bitschema/schema"
	"github.com/wippyai/bitschema/types"
	"github.com/wippyai/bitschema/value"
	"github.com/wippyai/bitschema/witgen"
)

var title = cases.Title(language.English)

func main() {
	var (
		schemaFile  = flag.String("schema", "", "Path to a declaration file (.yaml, .yml, .toml)")
		typeName    = flag.String("type", "", "Type to describe")
		list        = flag.Bool("list", false, "List declared types and constants")
		flat        = flag.Bool("flatten", false, "Flatten the reset value of -type")
		witOut      = flag.Bool("wit", false, "Print the WIT projection of -type, or of every type")
		interactive = flag.Bool("i", false, "Interactive register browser for -type, or the first file")
		verbose     = flag.Bool("v", false, "Log layout decisions")
	)
	flag.Parse()

	if *schemaFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: bitschema -schema <file> [-list]")
		fmt.Fprintln(os.Stderr, "       bitschema -schema <file> -type <name> [-flatten | -wit]")
		fmt.Fprintln(os.Stderr, "       bitschema -schema <file> [-type <file>] -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer l.Sync()
		types.SetLogger(l.Named("types"))
		schema.SetLogger(l.Named("schema"))
		bus.SetLogger(l.Named("bus"))
		witgen.SetLogger(l.Named("witgen"))
	}

	pkg, err := schema.LoadFile(*schemaFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(pkg, *typeName); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(os.Stdout, pkg, *typeName, *list, *flat, *witOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, pkg *schema.Package, typeName string, list, flat, witOut bool) error {
	if list || (typeName == "" && !witOut) {
		return listPackage(w, pkg, styled(w))
	}

	if witOut {
		return writeWIT(w, pkg, typeName)
	}

	t, ok := pkg.Lookup(typeName)
	if !ok {
		return fmt.Errorf("type %q not declared in %s", typeName, pkg.Name)
	}
	if flat {
		return flatten(w, t)
	}
	return schema.Describe(w, t)
}

// styled reports whether w is a terminal that can take colors.
func styled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var (
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	kindStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	constStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
)

func listPackage(w io.Writer, pkg *schema.Package, color bool) error {
	render := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	fmt.Fprintln(w, render(headStyle, "package "+pkg.Name))
	if pkg.Doc != "" {
		fmt.Fprintln(w, "  "+pkg.Doc)
	}

	nameWidth := 0
	for _, t := range pkg.Types() {
		nameWidth = max(nameWidth, len(t.Name()))
	}
	for _, t := range pkg.Types() {
		kind := fmt.Sprintf("%-9s", title.String(t.Kind().String()))
		fmt.Fprintf(w, "  %s %-*s  %s\n", render(kindStyle, kind), nameWidth, t.Name(), sizeOf(t))
	}

	if names := pkg.Constants(); len(names) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, render(headStyle, "constants"))
		for _, n := range names {
			v, _ := pkg.Constant(n)
			fmt.Fprintf(w, "  %s = %s\n", render(constStyle, n), v)
		}
	}
	return nil
}

func sizeOf(t types.Type) string {
	switch tt := t.(type) {
	case *types.File:
		return fmt.Sprintf("%d bytes", tt.ByteSize())
	case *types.Group:
		return fmt.Sprintf("%d bytes", tt.ByteSize())
	case *types.Register:
		return fmt.Sprintf("%d bits, %s", tt.Width(), tt.Behavior())
	}
	return fmt.Sprintf("%d bits", t.Width())
}

func flatten(w io.Writer, t types.Type) error {
	if t.Kind().IsAddressed() {
		return fmt.Errorf("%s %s has no bit encoding to flatten", t.Kind(), t.Name())
	}
	v, err := value.New(t)
	if err != nil {
		return err
	}
	spans := value.Flatten(v.(value.Bits), value.Descending)

	nameWidth := 1
	for _, s := range spans {
		nameWidth = max(nameWidth, len(s.Name))
	}
	for _, s := range spans {
		name := s.Name
		if s.Padding {
			name = "_"
		}
		fmt.Fprintf(w, "[%d:%d]\t%-*s  %#x\n", s.MSB, s.LSB, nameWidth, name, s.Value)
	}
	return nil
}

func writeWIT(w io.Writer, pkg *schema.Package, typeName string) error {
	p := witgen.NewProjector()
	targets := pkg.Types()
	if typeName != "" {
		t, ok := pkg.Lookup(typeName)
		if !ok {
			return fmt.Errorf("type %q not declared in %s", typeName, pkg.Name)
		}
		targets = []types.Type{t}
	}
	for _, t := range targets {
		if _, err := p.Project(t); err != nil {
			return err
		}
	}
	name := pkg.Name
	if name == "" {
		name = "types"
	}
	return witgen.WriteInterface(w, name, p.TypeDefs())
}
