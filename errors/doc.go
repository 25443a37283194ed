// Package errors provides structured error types for nvmbuild.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: block name, layout file, field path and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindTypeConversion).
//		Path("device", "info", "serial").
//		Value("0xZZ").
//		Detail("not a number").
//		Build()
//
// Or use convenience constructors for the pipeline's taxonomy:
//
//	err := errors.MissingDefault(path, "device.info.serial")
//	err := errors.BlockOverflow(260, 256, "payload")
//
// Kind-only sentinels (ErrMissingDefault, ErrBlockOverflow, ...) match any
// phase, so callers can write errors.Is(err, errors.ErrBlockOverflow).
package errors
