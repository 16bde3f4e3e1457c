package witgen

import (
	"bufio"
	"io"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/bitschema/errors"
)

// WriteInterface renders named definitions as the body of a WIT interface.
// Definitions are written in the order given, so dependencies must come
// first as returned by Projector.TypeDefs.
func WriteInterface(w io.Writer, name string, defs []*wit.TypeDef) error {
	iface, err := Name(name)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("interface " + iface + " {\n")
	for i, td := range defs {
		if td.Name == nil {
			return errors.InvalidInput(errors.PhaseABI, "interface definitions must be named")
		}
		if i > 0 {
			bw.WriteString("\n")
		}
		if err := writeDef(bw, td); err != nil {
			return errors.Prefix(*td.Name, err)
		}
	}
	bw.WriteString("}\n")
	return bw.Flush()
}

func writeDef(w *bufio.Writer, td *wit.TypeDef) error {
	name := *td.Name
	switch kind := td.Kind.(type) {
	case *wit.Record:
		lines := make([]string, len(kind.Fields))
		for i, f := range kind.Fields {
			ref, err := typeRef(f.Type)
			if err != nil {
				return errors.Prefix(f.Name, err)
			}
			lines[i] = f.Name + ": " + ref
		}
		block(w, "record", name, lines)

	case *wit.Enum:
		lines := make([]string, len(kind.Cases))
		for i, c := range kind.Cases {
			lines[i] = c.Name
		}
		block(w, "enum", name, lines)

	case *wit.Flags:
		lines := make([]string, len(kind.Flags))
		for i, f := range kind.Flags {
			lines[i] = f.Name
		}
		block(w, "flags", name, lines)

	case *wit.Tuple:
		ref, err := tupleRef(kind)
		if err != nil {
			return err
		}
		w.WriteString("  type " + name + " = " + ref + ";\n")

	case wit.Type:
		ref, err := typeRef(kind)
		if err != nil {
			return err
		}
		w.WriteString("  type " + name + " = " + ref + ";\n")

	default:
		return errors.Unsupported(errors.PhaseABI, "rendering this definition kind")
	}
	return nil
}

func block(w *bufio.Writer, keyword, name string, lines []string) {
	w.WriteString("  " + keyword + " " + name + " {\n")
	for _, l := range lines {
		w.WriteString("    " + l + ",\n")
	}
	w.WriteString("  }\n")
}

func typeRef(t wit.Type) (string, error) {
	switch tt := t.(type) {
	case wit.Bool:
		return "bool", nil
	case wit.U8:
		return "u8", nil
	case wit.S8:
		return "s8", nil
	case wit.U16:
		return "u16", nil
	case wit.S16:
		return "s16", nil
	case wit.U32:
		return "u32", nil
	case wit.S32:
		return "s32", nil
	case wit.U64:
		return "u64", nil
	case wit.S64:
		return "s64", nil
	case *wit.TypeDef:
		if tt.Name != nil {
			return *tt.Name, nil
		}
		switch kind := tt.Kind.(type) {
		case *wit.Tuple:
			return tupleRef(kind)
		case wit.Type:
			return typeRef(kind)
		}
	}
	return "", errors.Unsupported(errors.PhaseABI, "anonymous definition in a type reference")
}

func tupleRef(t *wit.Tuple) (string, error) {
	refs := make([]string, len(t.Types))
	for i, el := range t.Types {
		ref, err := typeRef(el)
		if err != nil {
			return "", err
		}
		refs[i] = ref
	}
	return "tuple<" + strings.Join(refs, ", ") + ">", nil
}
