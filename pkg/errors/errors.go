package errors

import "errors"

var (
	ErrNoFilesSelected = errors.New("no files selected")
	ErrUnknownMode     = errors.New("unknown mode")
	ErrTriggerDisabled = errors.New("an upload is already in progress")
	ErrInvalidFilename = errors.New("invalid download filename")
	ErrFileTooLarge    = errors.New("file exceeds upload size limit")
)
