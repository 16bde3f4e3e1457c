package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDeclare Phase = "declare" // type construction
	PhaseLayout  Phase = "layout"  // bit/byte placement
	PhaseAssign  Phase = "assign"  // instance mutation
	PhaseUnpack  Phase = "unpack"  // integer to instance
	PhaseLoad    Phase = "load"    // schema file loading
	PhaseBus     Phase = "bus"     // address-space images
	PhaseABI     Phase = "abi"     // canonical ABI lowering and lifting
)

// Kind categorizes the error
type Kind string

const (
	KindWidth           Kind = "width"
	KindUnion           Kind = "union"
	KindRange           Kind = "range"
	KindEnum            Kind = "enum"
	KindAssignment      Kind = "assignment"
	KindAttributeSchema Kind = "attribute_schema"
	KindDuplicate       Kind = "duplicate"
	KindUnsupported     Kind = "unsupported"
	KindOutOfBounds     Kind = "out_of_bounds"
	KindNotFound        Kind = "not_found"
	KindInvalidInput    Kind = "invalid_input"
)

// Sentinels for errors.Is checks that only care about the category.
var (
	ErrWidth           = &Error{Kind: KindWidth}
	ErrUnion           = &Error{Kind: KindUnion}
	ErrRange           = &Error{Kind: KindRange}
	ErrEnum            = &Error{Kind: KindEnum}
	ErrAssignment      = &Error{Kind: KindAssignment}
	ErrAttributeSchema = &Error{Kind: KindAttributeSchema}
	ErrDuplicate       = &Error{Kind: KindDuplicate}
	ErrUnsupported     = &Error{Kind: KindUnsupported}
	ErrOutOfBounds     = &Error{Kind: KindOutOfBounds}
	ErrNotFound        = &Error{Kind: KindNotFound}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string
	Source string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a
// phase matches any phase. Union mismatches are width errors too.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Phase != "" && e.Phase != t.Phase {
			return false
		}
		return e.Kind == t.Kind || (e.Kind == KindUnion && t.Kind == KindWidth)
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the declared type name
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Source sets the declaration location
func (b *Builder) Source(src string) *Builder {
	b.err.Source = src
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Width creates a width error: a declared width cannot hold its contents.
func Width(typeName string, declared, required int) *Error {
	return &Error{
		Phase:  PhaseLayout,
		Kind:   KindWidth,
		Type:   typeName,
		Detail: fmt.Sprintf("declared width %d is less than the %d bits required by its fields", declared, required),
		Value:  declared,
	}
}

// UnionMismatch creates a union member width mismatch error
func UnionMismatch(typeName, member string, unionWidth, memberWidth int) *Error {
	return &Error{
		Phase:  PhaseLayout,
		Kind:   KindUnion,
		Type:   typeName,
		Path:   []string{member},
		Detail: fmt.Sprintf("member %q is %d bits wide but the union is %d bits", member, memberWidth, unionWidth),
		Value:  memberWidth,
	}
}

// Range creates a value range error
func Range(phase Phase, path []string, value any, width int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRange,
		Path:   path,
		Detail: fmt.Sprintf("value %v does not fit in %d bits", value, width),
		Value:  value,
	}
}

// Enum creates an enumeration error
func Enum(typeName, entry string, detail string, args ...any) *Error {
	e := &Error{
		Phase:  PhaseDeclare,
		Kind:   KindEnum,
		Type:   typeName,
		Detail: fmt.Sprintf(detail, args...),
	}
	if entry != "" {
		e.Path = []string{entry}
	}
	return e
}

// FieldUnknown creates an unknown field assignment error
func FieldUnknown(phase Phase, typeName, field string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAssignment,
		Type:   typeName,
		Detail: fmt.Sprintf("unknown field %q", field),
		Value:  field,
	}
}

// Arity creates an array arity error
func Arity(phase Phase, path []string, got, want int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAssignment,
		Path:   path,
		Detail: fmt.Sprintf("got %d values for an array of %d elements", got, want),
		Value:  got,
	}
}

// Attribute creates an attribute schema error
func Attribute(typeName, attr string, detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseDeclare,
		Kind:   KindAttributeSchema,
		Type:   typeName,
		Path:   []string{attr},
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Duplicate creates a duplicate name error
func Duplicate(typeName, what, name string) *Error {
	return &Error{
		Phase:  PhaseDeclare,
		Kind:   KindDuplicate,
		Type:   typeName,
		Detail: fmt.Sprintf("duplicate %s %q", what, name),
		Value:  name,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// BitIndex creates an out of bounds error for a bit range
func BitIndex(msb, lsb, width int) *Error {
	return &Error{
		Phase:  PhaseLayout,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("bit range [%d:%d] outside width %d", msb, lsb, width),
		Value:  msb,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// At returns err annotated with a declaration location. Structured errors
// keep their kind so callers can still match them; anything else is
// wrapped as invalid input.
func At(source string, err error) error {
	if err == nil || source == "" {
		return err
	}
	if e, ok := err.(*Error); ok {
		c := *e
		if c.Source == "" {
			c.Source = source
		}
		return &c
	}
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Source: source,
		Cause:  err,
	}
}

// Prefix returns err with name prepended to its path.
func Prefix(name string, err error) error {
	e, ok := err.(*Error)
	if !ok || name == "" {
		return err
	}
	c := *e
	c.Path = append([]string{name}, e.Path...)
	return &c
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

// KindOf returns the kind of the first structured error in err's chain,
// or the empty kind.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
