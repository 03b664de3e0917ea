package loader

import (
	"errors"
	"fmt"
)

// Sentinel kinds for load failures. Every *LoadError also matches ErrLoad.
var (
	ErrLoad          = errors.New("load table")
	ErrMissingFile   = errors.New("file not found")
	ErrUnreadable    = errors.New("file unreadable")
	ErrMalformed     = errors.New("malformed csv")
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyTable    = errors.New("no observations")
)

// LoadError describes why the base table could not be built.
type LoadError struct {
	Path string
	Line int    // 1-based CSV line, 0 when not tied to a line
	Kind error  // one of the sentinel kinds above
	Msg  string // optional detail
	Err  error  // underlying cause, may be nil
}

func (e *LoadError) Error() string {
	s := fmt.Sprintf("%s %s: %s", ErrLoad, e.Path, e.Kind)
	if e.Line > 0 {
		s += fmt.Sprintf(" at line %d", e.Line)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap exposes ErrLoad, the kind and the cause to errors.Is/As.
func (e *LoadError) Unwrap() []error {
	errs := []error{ErrLoad, e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Kind returns the sentinel kind of err, or nil if err is not a LoadError.
func Kind(err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}
	return nil
}

// kindName is the metrics label for a kind.
func kindName(kind error) string {
	switch kind {
	case ErrMissingFile:
		return "missing_file"
	case ErrUnreadable:
		return "unreadable"
	case ErrMalformed:
		return "malformed"
	case ErrMissingColumn:
		return "missing_column"
	case ErrEmptyTable:
		return "empty_table"
	default:
		return "unknown"
	}
}
