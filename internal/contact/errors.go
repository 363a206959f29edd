package contact

import (
	"context"
	"errors"
	"fmt"
)

// Kind categorizes errors returned to callers of the store.
//
// Numeric values match the error codes of the contacts device API so the
// excluded UI layer can translate them without a lookup table.
type Kind int

const (
	// Unknown is an unclassified failure.
	Unknown Kind = 0

	// InvalidArgument indicates malformed or missing call parameters, or an
	// attempt to create a record whose id already exists.
	InvalidArgument Kind = 1

	// Timeout indicates the caller's deadline expired before the storage
	// layer answered.
	Timeout Kind = 2

	// PendingOperation indicates a conflicting operation holds the storage
	// lock for the same data.
	PendingOperation Kind = 3

	// IO indicates a storage open, read, write or migration failure.
	IO Kind = 4

	// NotSupported indicates a schema version with no migration path.
	NotSupported Kind = 5

	// NotFound indicates no record exists for the requested id.
	NotFound Kind = 8

	// PermissionDenied indicates the storage location is not accessible.
	PermissionDenied Kind = 20
)

var kindNames = map[Kind]string{
	Unknown:          "UNKNOWN_ERROR",
	InvalidArgument:  "INVALID_ARGUMENT_ERROR",
	Timeout:          "TIMEOUT_ERROR",
	PendingOperation: "PENDING_OPERATION_ERROR",
	IO:               "IO_ERROR",
	NotSupported:     "NOT_SUPPORTED_ERROR",
	NotFound:         "NOT_FOUND_ERROR",
	PermissionDenied: "PERMISSION_DENIED_ERROR",
}

// String returns the wire name of the kind, e.g. "IO_ERROR".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ERROR_%d", int(k))
}

// Error is the structured error value returned by the core.
//
// Op names the operation that failed ("create", "open"); Err is the
// underlying cause and may be nil.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so the sentinel values below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// Sentinels for errors.Is.
var (
	ErrInvalidArgument  = &Error{Kind: InvalidArgument}
	ErrTimeout          = &Error{Kind: Timeout}
	ErrPendingOperation = &Error{Kind: PendingOperation}
	ErrIO               = &Error{Kind: IO}
	ErrNotSupported     = &Error{Kind: NotSupported}
	ErrNotFound         = &Error{Kind: NotFound}
	ErrPermissionDenied = &Error{Kind: PermissionDenied}
)

// E creates an *Error. If err already carries a Kind it is kept as the cause
// and the new kind wins.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf creates an *Error with a formatted cause.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain.
// Context errors map to Timeout; anything else unclassified is Unknown.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Timeout
	}
	return Unknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
