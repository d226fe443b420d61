package service

import "errors"

// ErrEmptyMessage is returned when a chat request carries no message text.
var ErrEmptyMessage = errors.New("message must not be empty")

// Apology renders an internal failure as the user-facing chat reply.
func Apology(err error) string {
	return "I encountered an error. Details: " + err.Error()
}
