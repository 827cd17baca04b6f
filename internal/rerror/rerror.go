// Package rerror defines the error taxonomy shared by binout, d3plot, and keyfile.
package rerror

import "errors"

// Sentinel errors, wrapped with context via fmt.Errorf("%w: ...") at the call site.
var (
	// ErrOpenFailed: root file missing, permission denied, or glob matched nothing.
	ErrOpenFailed = errors.New("open failed")

	// ErrFormatReject: header bytes outside the allowed range (endianness,
	// word widths, float format, unsupported NDIM/MATTYP/etc).
	ErrFormatReject = errors.New("format rejected")

	// ErrFileFamilyShort: a state or section straddles EOF without the
	// next family member being available.
	ErrFileFamilyShort = errors.New("file family exhausted")

	// ErrPathNotFound: a requested variable/path is absent.
	ErrPathNotFound = errors.New("the given variable has not been found")

	// ErrTypeMismatch: a typed read requested one scalar type but the
	// stored type is different.
	ErrTypeMismatch = errors.New("stored type does not match requested type")

	// ErrSkippableFile: one globbed file failed to parse; the caller can
	// continue with the remaining family members.
	ErrSkippableFile = errors.New("file skipped")
)

// Is reports whether err ultimately wraps target, shadowing errors.Is so
// callers don't need a second import for the common case.
func Is(err, target error) bool { return errors.Is(err, target) }

// LastError is embedded in every top-level handle (binout file, d3plot
// file, keyword array). It is cleared at the start of each caller-visible
// operation so a later success doesn't appear to fail (spec'd reset
// behavior for handle-carried error strings).
type LastError struct {
	err error
}

func (l *LastError) Set(err error) { l.err = err }
func (l *LastError) Clear()        { l.err = nil }
func (l *LastError) Get() error    { return l.err }
