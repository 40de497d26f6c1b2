package logic

import (
	"errors"
	"fmt"
)

// Undefined is a first-class placeholder for a value that could not be
// resolved. It records the missing key and the path leading to it; failure
// is deferred until the value is actually used (compared, combined, or
// forced into output), at which point an *UndefinedError is produced.
type Undefined struct {
	Key  any
	Path Path
}

// FullPath returns the complete missing path including the key.
func (u Undefined) FullPath() Path {
	return append(append(Path{}, u.Path...), u.Key)
}

// Pointer returns the missing path as a Pointer.
func (u Undefined) Pointer() Pointer {
	return u.FullPath().Pointer()
}

// Err converts the placeholder into the error raised when it is used.
func (u Undefined) Err() *UndefinedError {
	return &UndefinedError{Key: u.Key, Path: u.Path}
}

// IsUndefined reports whether v is an Undefined placeholder.
func IsUndefined(v any) bool {
	_, ok := v.(Undefined)
	return ok
}

// UndefinedError is raised when an Undefined value is used. It carries the
// exact pointer of the first missing lookup.
type UndefinedError struct {
	Key  any
	Path Path
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("undefined value: %s", e.FullPath().Pointer())
}

// FullPath returns the complete missing path including the key.
func (e *UndefinedError) FullPath() Path {
	return append(append(Path{}, e.Path...), e.Key)
}

// Pointer returns the missing path as a Pointer.
func (e *UndefinedError) Pointer() Pointer {
	return e.FullPath().Pointer()
}

// UndefinedPath extracts the missing path from an *UndefinedError or
// *LookupError anywhere in err's chain. These are the two recoverable error
// kinds the interview resolver can act on.
func UndefinedPath(err error) (Path, bool) {
	var ue *UndefinedError
	if errors.As(err, &ue) {
		return ue.FullPath(), true
	}
	var le *LookupError
	if errors.As(err, &le) {
		return le.FullPath(), true
	}
	return nil, false
}
