// Package errors provides structured error types for the bitschema module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, declared type name, source
// location and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLayout, errors.KindWidth).
//		Type("ctrl_t").
//		Path("mode").
//		Detail("declared width %d is less than %d", 8, 24).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Width("ctrl_t", 8, 24)
//	err := errors.Range(errors.PhaseAssign, path, 300, 8)
//
// Kind sentinels match any phase:
//
//	if errors.Is(err, bserrors.ErrWidth) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
