package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/mitchellh/copystructure"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/exp/slices"

	"github.com/wippyai/bitschema/errors"
	"github.com/wippyai/bitschema/types"
)

// ScalarAttrs are the attributes of a scalar declaration.
type ScalarAttrs struct {
	Width  int  `mapstructure:"width" check:"positive"`
	Signed bool `mapstructure:"signed" default:"false"`
}

// EnumAttrs are the attributes of an enum declaration. A zero width is
// derived from the largest value.
type EnumAttrs struct {
	Mode  string `mapstructure:"mode" default:"indexed" allowed:"indexed,onehot,gray"`
	Width int    `mapstructure:"width" default:"0" check:"nonnegative"`
}

// StructAttrs are the attributes of a struct declaration. A zero width is
// the sum of the field widths.
type StructAttrs struct {
	Width   int    `mapstructure:"width" default:"0" check:"nonnegative"`
	Packing string `mapstructure:"packing" default:"from_lsb" allowed:"from_lsb,from_msb"`
}

// UnionAttrs are the attributes of a union declaration.
type UnionAttrs struct{}

// RegisterAttrs are the attributes of a register declaration. Level is not
// a declarable behavior.
type RegisterAttrs struct {
	Behavior string `mapstructure:"behavior" default:"data_x2i" allowed:"constant,data_x2i,data_i2x,fifo_x2i,fifo_i2x"`
	Align    int    `mapstructure:"align" default:"1" check:"pow2"`
	Width    int    `mapstructure:"width" default:"0" check:"nonnegative"`
	Depth    int    `mapstructure:"depth" default:"4" check:"positive"`
	Packing  string `mapstructure:"packing" default:"from_lsb" allowed:"from_lsb,from_msb"`
}

// GroupAttrs are the attributes of a group or file declaration. A zero
// align selects the larger of the cadence and the field alignments.
type GroupAttrs struct {
	Align int `mapstructure:"align" default:"0" check:"pow2_or_zero"`
}

// AttributeSpec describes one attribute a kind accepts.
type AttributeSpec struct {
	Name    string
	Type    string
	Default string
	Check   string
	Allowed []string
}

var checks = map[string]func(v reflect.Value) error{
	"positive": func(v reflect.Value) error {
		if v.Int() < 1 {
			return fmt.Errorf("must be at least 1, got %d", v.Int())
		}
		return nil
	},
	"nonnegative": func(v reflect.Value) error {
		if v.Int() < 0 {
			return fmt.Errorf("must not be negative, got %d", v.Int())
		}
		return nil
	},
	"pow2": func(v reflect.Value) error {
		if n := v.Int(); n < 1 || n&(n-1) != 0 {
			return fmt.Errorf("must be a power of two, got %d", n)
		}
		return nil
	},
	"pow2_or_zero": func(v reflect.Value) error {
		if n := v.Int(); n < 0 || n&(n-1) != 0 {
			return fmt.Errorf("must be zero or a power of two, got %d", n)
		}
		return nil
	},
}

func attrTarget(kind types.Kind) (any, bool) {
	switch kind {
	case types.KindScalar:
		return &ScalarAttrs{}, true
	case types.KindEnum:
		return &EnumAttrs{}, true
	case types.KindStruct:
		return &StructAttrs{}, true
	case types.KindUnion:
		return &UnionAttrs{}, true
	case types.KindRegister:
		return &RegisterAttrs{}, true
	case types.KindGroup, types.KindFile:
		return &GroupAttrs{}, true
	default:
		return nil, false
	}
}

// Attributes lists the attribute schema of a declarable kind.
func Attributes(kind types.Kind) ([]AttributeSpec, bool) {
	target, ok := attrTarget(kind)
	if !ok {
		return nil, false
	}
	return specsOf(reflect.TypeOf(target).Elem()), true
}

func specsOf(rt reflect.Type) []AttributeSpec {
	out := make([]AttributeSpec, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		s := AttributeSpec{
			Name:    f.Tag.Get("mapstructure"),
			Type:    f.Type.Kind().String(),
			Default: f.Tag.Get("default"),
			Check:   f.Tag.Get("check"),
		}
		if a := f.Tag.Get("allowed"); a != "" {
			s.Allowed = strings.Split(a, ",")
		}
		out = append(out, s)
	}
	return out
}

// decodeAttrs validates a caller's attribute bag against the schema of
// kind and returns the populated attribute struct. The bag is never
// modified.
func decodeAttrs(kind types.Kind, typeName string, bag map[string]any) (any, error) {
	target, ok := attrTarget(kind)
	if !ok {
		return nil, errors.Unsupported(errors.PhaseDeclare, "declaring a "+kind.String())
	}

	if bag == nil {
		bag = map[string]any{}
	}
	copied, err := copystructure.Copy(bag)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDeclare, errors.KindAttributeSchema, err, "copy attributes")
	}
	input, _ := copied.(map[string]any)

	if err := defaults.Set(target); err != nil {
		return nil, errors.Wrap(errors.PhaseDeclare, errors.KindAttributeSchema, err, "apply attribute defaults")
	}

	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         &md,
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDeclare, errors.KindAttributeSchema, err, "attribute decoder")
	}
	if err := dec.Decode(input); err != nil {
		return nil, errors.New(errors.PhaseDeclare, errors.KindAttributeSchema).
			Type(typeName).
			Detail("invalid attribute value").
			Cause(err).
			Build()
	}
	if len(md.Unused) > 0 {
		slices.Sort(md.Unused)
		return nil, errors.Attribute(typeName, md.Unused[0], "unsupported attribute for %s", kind)
	}

	rv := reflect.ValueOf(target).Elem()
	for i, spec := range specsOf(rv.Type()) {
		fv := rv.Field(i)
		if fv.Kind() == reflect.String {
			fv.SetString(strings.ToLower(fv.String()))
		}
		if spec.Allowed != nil && !slices.Contains(spec.Allowed, fv.String()) {
			return nil, errors.Attribute(typeName, spec.Name, "%q is not one of %s", fv.String(), strings.Join(spec.Allowed, ", "))
		}
		if spec.Check != "" {
			if err := checks[spec.Check](fv); err != nil {
				return nil, errors.Attribute(typeName, spec.Name, "%s", err)
			}
		}
	}
	return target, nil
}
