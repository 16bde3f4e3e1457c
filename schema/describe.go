package schema

import (
	"fmt"
	"io"
	"strings"

	"github.com/wippyai/bitschema/types"
)

// Describe writes a plain text layout table for t.
func Describe(w io.Writer, t types.Type) error {
	var sb strings.Builder
	switch tt := t.(type) {
	case *types.Enum:
		fmt.Fprintf(&sb, "enum %s (%d bits, %s)\n", tt.Name(), tt.Width(), tt.Mode())
		for _, e := range tt.Entries() {
			fmt.Fprintf(&sb, "  %s = %s\n", e.Name, e.Value)
		}

	case *types.Register:
		fmt.Fprintf(&sb, "register %s (%d bits, %s, align %d)\n", tt.Name(), tt.Width(), tt.Behavior(), tt.Align())
		describeFields(&sb, tt)

	case types.Assembly:
		fmt.Fprintf(&sb, "%s %s (%d bits, %s)\n", tt.Kind(), tt.Name(), tt.Width(), tt.Packing())
		describeFields(&sb, tt)

	case *types.File:
		fmt.Fprintf(&sb, "file %s (%d bytes, cadence %d, %d address bits)\n", tt.Name(), tt.ByteSize(), tt.Cadence(), tt.AddressBits())
		describeRegisters(&sb, tt.Group)

	case *types.Group:
		fmt.Fprintf(&sb, "group %s (%d bytes, cadence %d)\n", tt.Name(), tt.ByteSize(), tt.Cadence())
		describeRegisters(&sb, tt)

	default:
		fmt.Fprintf(&sb, "%s %s (%d bits)\n", t.Kind(), types.TypeName(t), t.Width())
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func describeFields(sb *strings.Builder, a types.Assembly) {
	layout := a.Layout()
	rows := make([][3]string, len(layout))
	nameW, rangeW := 1, 0
	for i, f := range layout {
		name, typ := f.Name, types.TypeName(f.Type)
		if f.Padding {
			name, typ = "_", "padding"
		}
		if f.Default != nil {
			typ += " = " + f.Default.String()
		}
		rows[i] = [3]string{fmt.Sprintf("[%d:%d]", f.MSB, f.LSB), name, typ}
		nameW = max(nameW, len(name))
		rangeW = max(rangeW, len(rows[i][0]))
	}
	for _, r := range rows {
		fmt.Fprintf(sb, "  %-*s  %-*s  %s\n", rangeW, r[0], nameW, r[1], r[2])
	}
}

func describeRegisters(sb *strings.Builder, g *types.Group) {
	regs := g.Registers(0)
	pathW := 1
	for _, r := range regs {
		pathW = max(pathW, len(r.Path))
	}
	for _, r := range regs {
		fmt.Fprintf(sb, "  0x%04x  %-*s  %s (%s, %d bits)\n",
			r.Address, pathW, r.Path, r.Register.Name(), r.Register.Behavior(), r.Register.Width())
	}
}
