package domain

import "errors"

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCode        = errors.New("invalid room code")
	ErrRoomFull           = errors.New("room is full")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidMessage     = errors.New("message requires sender and content")
	ErrCodeSpaceExhausted = errors.New("could not allocate a free room code")
)
