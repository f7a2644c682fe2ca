// Package errors provides the classified error primitives used across mdredirect.
//
// A ClassifiedError carries a category (why it failed), a severity (how bad it
// is) and a context map of structured details. Errors are built with the
// fluent ErrorBuilder:
//
//	err := errors.NewError(errors.CategoryOffset, "destination not found in link source").
//		Warning().
//		WithContext("destination", dest).
//		WithContext("start", start).
//		Build()
//
// The CLI and HTTP adapters translate categories into exit codes and status
// codes respectively.
package errors
