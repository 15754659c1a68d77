package room

import "errors"

var (
	ErrDuplicateName   = errors.New("file already exists")
	ErrLastFile        = errors.New("cannot delete the last file")
	ErrNotFound        = errors.New("file not found")
	ErrInvalidName     = errors.New("invalid file name")
	ErrInterviewActive = errors.New("interview already in progress")
	ErrNoInterview     = errors.New("no interview in progress")
	ErrRoomNotFound    = errors.New("room not found")
)
