package service

import "errors"

// Sentinel kinds for controller errors.
var (
	ErrUnknownYear = errors.New("year not in table")
	ErrNotStarted  = errors.New("service not started")
	ErrQueueClosed = errors.New("selection queue closed")
	ErrCycleFailed = errors.New("render cycle failed")
)
