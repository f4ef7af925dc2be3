package store

import "errors"

// ErrRecordNotFound is returned by GetByID when no record carries the
// requested local id.
var ErrRecordNotFound = errors.New("calibration record not found")
