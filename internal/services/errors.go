package services

import "errors"

// Auth errors.
var (
	ErrEmailTaken      = errors.New("email already registered")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid token")
	ErrUserNotFound    = errors.New("user not found")
)

// Book errors.
var (
	ErrBookNotFound = errors.New("book not found")
	ErrNotBookOwner = errors.New("book belongs to another user")
	ErrImageDelete  = errors.New("failed to delete image")
)
