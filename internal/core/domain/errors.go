package domain

import "errors"

var (
	// ErrInvalidInput indicates malformed input or configuration.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDecode indicates an image could not be read or decoded.
	// Grouping and materialization abort on it.
	ErrDecode = errors.New("image decode failed")

	// ErrExportFailed indicates the export capability failed for a whole document.
	ErrExportFailed = errors.New("export failed")

	// ErrEmptyGroup indicates a manifest group with no members.
	ErrEmptyGroup = errors.New("empty group")
)
