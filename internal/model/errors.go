package model

import "errors"

var (
	// ErrNotFound is returned by repositories when no record exists for
	// the requested user.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable covers network failures, timeouts and unexpected
	// statuses from an upstream provider. Transitions hitting it leave
	// the session unchanged so the user may retry the same input.
	ErrUnavailable = errors.New("upstream unavailable")
)
