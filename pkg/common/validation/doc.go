// Package validation provides common validation utilities for configuration
// parameters across the hellopool module.
//
// The helpers return *errors.ValidationError values so constructors such as
// workerpool.NewSafe and config.Validate report failures with the same shape.
package validation
