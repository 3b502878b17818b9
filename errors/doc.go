// Package errors provides structured error types for the assetlayout module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go type name, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseSwap, errors.KindMalformedCount).
//		Path("stage", "objects").
//		Type("rfl.Object").
//		Detail("count %d past end of buffer", n).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidHandle(errors.PhaseTranslate, key)
//	err := errors.OutOfBounds(errors.PhaseLoad, off, size, limit)
//
// Every kind has a sentinel that matches regardless of phase:
//
//	if errors.Is(err, errors.ErrInvalidHandle) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
