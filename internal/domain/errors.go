package domain

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes the structural failures that abort an operation.
type ErrorKind string

const (
	// KindConfig marks a malformed or incomplete plan config.
	KindConfig ErrorKind = "ConfigError"
	// KindFilterSyntax marks a filter expression that is not name=~regex.
	KindFilterSyntax ErrorKind = "FilterSyntaxError"
	// KindBuildRead marks a build directory without a usable test listing.
	KindBuildRead ErrorKind = "BuildReadError"
	// KindInvalidArgument marks a call with arguments that cannot work.
	KindInvalidArgument ErrorKind = "InvalidArgument"
)

// Sentinels for errors.Is checks against *Error values.
var (
	ErrConfig          = errors.New("config error")
	ErrFilterSyntax    = errors.New("filter syntax error")
	ErrBuildRead       = errors.New("build read error")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Error is the typed error returned by loaders and catalog operations.
type Error struct {
	Kind ErrorKind
	Op   string // operation that failed, e.g. "plan.Load"
	Path string // file or directory involved, if any
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfig:
		return e.Kind == KindConfig
	case ErrFilterSyntax:
		return e.Kind == KindFilterSyntax
	case ErrBuildRead:
		return e.Kind == KindBuildRead
	case ErrInvalidArgument:
		return e.Kind == KindInvalidArgument
	}
	return false
}

// ConfigError builds a KindConfig error.
func ConfigError(op, path string, format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

// FilterSyntaxError builds a KindFilterSyntax error.
func FilterSyntaxError(op string, format string, args ...any) *Error {
	return &Error{Kind: KindFilterSyntax, Op: op, Err: fmt.Errorf(format, args...)}
}

// BuildReadError builds a KindBuildRead error.
func BuildReadError(op, path string, format string, args ...any) *Error {
	return &Error{Kind: KindBuildRead, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

// InvalidArgument builds a KindInvalidArgument error.
func InvalidArgument(op string, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Err: fmt.Errorf(format, args...)}
}

// ExtractionWarning describes a documentation block that was skipped.
// It is logged, never returned.
type ExtractionWarning struct {
	File    string
	Line    int
	Message string
}

func (w ExtractionWarning) String() string {
	return fmt.Sprintf("%s:%d: %s", w.File, w.Line, w.Message)
}
