// Package handler holds shared pieces for the web handler packages.
package handler

const (
	// RootPath is the root path for the route group.
	RootPath = "/"

	// DefaultPageSize for pagination.
	DefaultPageSize = 25
	// MaxPageSize caps caller-supplied page sizes.
	MaxPageSize = 100

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"
)
