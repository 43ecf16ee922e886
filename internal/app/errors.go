package service

import "errors"

// ErrNotStarted is returned when a batch arrives before Start has built the
// pipeline.
var ErrNotStarted = errors.New("service not started")
