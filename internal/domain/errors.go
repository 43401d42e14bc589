package domain

import "errors"

var (
	ErrUnauthorized    = errors.New("no user identity assigned")
	ErrSessionNotFound = errors.New("session not found")
	ErrSpeakerNotFound = errors.New("speaker not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrNoRoomAssigned  = errors.New("session has no room assigned")
	ErrTooEarlyVote    = errors.New("voting window not open yet")
	ErrTooLateVote     = errors.New("voting window closed")
	ErrUnavailable     = errors.New("service unavailable")
)
