// Package failure defines the error kinds produced by the upload and extract
// steps of the generation workflow.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow error.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors not produced by this package.
	KindUnknown Kind = iota
	// KindFileNotFound: source path missing or not a regular file.
	KindFileNotFound
	// KindNetwork: the HTTP exchange failed at the transport level.
	KindNetwork
	// KindServer: the endpoint answered with an unexpected response.
	KindServer
	// KindArchiveRead: the response is not a readable ZIP archive.
	KindArchiveRead
	// KindIO: a local read or write failed.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindFileNotFound:
		return "file not found"
	case KindNetwork:
		return "network error"
	case KindServer:
		return "server error"
	case KindArchiveRead:
		return "archive read error"
	case KindIO:
		return "i/o error"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is checks. An *Error matches the sentinel of its Kind.
var (
	ErrFileNotFound = errors.New("file not found")
	ErrNetwork      = errors.New("network error")
	ErrServer       = errors.New("server error")
	ErrArchiveRead  = errors.New("archive read error")
	ErrIO           = errors.New("i/o error")
)

// Error is a classified workflow error.
type Error struct {
	Kind       Kind
	Op         string // "upload", "extract", ...
	Path       string // local path involved, if any
	StatusCode int    // HTTP status, KindServer only
	Err        error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the short form shown to users: the kind and the cause, without
// the operation prefix.
func (e *Error) Message() string {
	msg := e.Kind.String()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Message returns the user-facing text for any error: Message() for an
// *Error in the chain, err.Error() otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message()
	}
	return err.Error()
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == sentinel(e.Kind)
}

func sentinel(k Kind) error {
	switch k {
	case KindFileNotFound:
		return ErrFileNotFound
	case KindNetwork:
		return ErrNetwork
	case KindServer:
		return ErrServer
	case KindArchiveRead:
		return ErrArchiveRead
	case KindIO:
		return ErrIO
	default:
		return nil
	}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// FileNotFound builds a KindFileNotFound error for path.
func FileNotFound(op, path string, err error) *Error {
	return &Error{Kind: KindFileNotFound, Op: op, Path: path, Err: err}
}

// Network builds a KindNetwork error.
func Network(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

// Server builds a KindServer error for an HTTP status.
func Server(op string, statusCode int, err error) *Error {
	return &Error{Kind: KindServer, Op: op, StatusCode: statusCode, Err: err}
}

// ArchiveRead builds a KindArchiveRead error.
func ArchiveRead(op, path string, err error) *Error {
	return &Error{Kind: KindArchiveRead, Op: op, Path: path, Err: err}
}

// IO builds a KindIO error.
func IO(op, path string, err error) *Error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}
