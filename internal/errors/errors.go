package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// NotFoundError reports a referenced board, thread, post, ban or user that does not exist.
type NotFoundError struct {
	Entity string
	Id     any
}

func (e *NotFoundError) Error() string {
	if e.Id == nil {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %v not found", e.Entity, e.Id)
}

func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }

// DuplicateStartingPostError is returned when a thread would end up with
// more than one starting post.
type DuplicateStartingPostError struct {
	ThreadId int64
}

func (e *DuplicateStartingPostError) Error() string {
	return fmt.Sprintf("Multiple starting posts in thread %d", e.ThreadId)
}

func (e *DuplicateStartingPostError) StatusCode() int { return http.StatusConflict }

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Validation error: %s", e.Message)
}

func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

func NotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, Id: id}
}

// Check if err wraps an instance of T
func Is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// StatusCode maps an error chain to an HTTP status, defaulting to 500.
func StatusCode(err error) int {
	var withStatus *ErrorWithStatusCode
	if errors.As(err, &withStatus) {
		return withStatus.StatusCode
	}
	var coded interface{ StatusCode() int }
	if errors.As(err, &coded) {
		return coded.StatusCode()
	}
	return http.StatusInternalServerError
}
