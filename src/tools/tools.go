// Package tools provides the warning and user-error facilities shared by the
// result-loading and plotting packages.
package tools

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Warningf logs a best-effort failure or a suspicious usage. Data loading is
// never aborted by the conditions reported here.
func Warningf(format string, args ...interface{}) {
	logrus.Warnf(format, args...)
}

// UserError marks a failure caused by the caller's configuration (a missing
// result directory, for instance) as opposed to an internal bug.
type UserError struct {
	msg string
}

func (e *UserError) Error() string { return e.msg }

// NewUserErrorf builds a user-facing error.
func NewUserErrorf(format string, args ...interface{}) error {
	return &UserError{msg: fmt.Sprintf(format, args...)}
}

// IsUserError reports whether err (or anything it wraps) is user-facing.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}
