package service

import "errors"

var (
	// ErrInvalidWindow is returned when a time window ends before it starts
	ErrInvalidWindow = errors.New("time window ends before it starts")
	// ErrNoValidStops is returned when an upload holds no usable stop
	ErrNoValidStops = errors.New("no valid subway stops in upload")
	// ErrExportNotReady is returned when downloading an export that has no file
	ErrExportNotReady = errors.New("export is not ready")
)
