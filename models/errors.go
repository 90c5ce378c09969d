package models

import "errors"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotFound         = errors.New("app not found")
	ErrIOFailure        = errors.New("i/o failure")
	ErrAuthFailure      = errors.New("authorization failed")
	ErrConfiguration    = errors.New("configuration error")

	ErrNotLocalBackend = errors.New("current provider is not local storage")
	ErrAuthInProgress  = errors.New("an authorization attempt is already in progress")
)
