package core

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures so callers can branch on the category
// instead of inspecting messages.
type Kind string

const (
	// KindConfiguration marks fatal setup problems such as a missing or malformed catalog.
	KindConfiguration Kind = "configuration"
	// KindSourceImage marks an unreadable raw image. It is isolated per image.
	KindSourceImage Kind = "source_image"
	// KindIntegrity marks catalog/asset drift found after a run.
	KindIntegrity Kind = "integrity"
	// KindNotFound marks an absent resource that callers may tolerate.
	KindNotFound Kind = "not_found"
)

// Common errors.
var (
	ErrCatalogMissing = errors.New("catalog file not found")
	ErrNoDimensions   = errors.New("could not read image dimensions")
	ErrIntegrity      = errors.New("integrity check reported issues")
)

// Error carries a Kind together with the operation and path that failed.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ConfigurationError wraps err as a fatal configuration failure.
func ConfigurationError(op, path string, err error) error {
	return &Error{Kind: KindConfiguration, Op: op, Path: path, Err: err}
}

// SourceImageError wraps err as a per-image failure.
func SourceImageError(op, path string, err error) error {
	return &Error{Kind: KindSourceImage, Op: op, Path: path, Err: err}
}

// IntegrityError summarizes a failed integrity report.
func IntegrityError(report IntegrityReport) error {
	return &Error{Kind: KindIntegrity, Op: "integrity", Err: fmt.Errorf("%w: %d issue(s)", ErrIntegrity, report.IssueCount())}
}

// KindOf returns the Kind of err, or "" when err is not a classified error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err (or anything it wraps) has the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
