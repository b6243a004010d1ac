package services

import (
	"errors"

	"yatube/app/repositories"
)

var (
	// ErrNotFound is returned when a user, group, post or page does not exist.
	ErrNotFound = repositories.ErrNotFound
	// ErrInvalid wraps validation failures of an entity handed to a service.
	ErrInvalid            = errors.New("invalid input")
	ErrNotAuthor          = errors.New("only the author may edit this post")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("a user with that username already exists")
)
