// Package validation checks queued work items before dispatch.
package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator for work items. Client values outside
// the known set are NOT rejected here: an unknown client dispatches to
// nothing but still completes the invocation.
func New() *validatorv10.Validate {
	return validatorv10.New()
}
