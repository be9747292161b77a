package domain

import (
	"errors"
)

const (
	RoleUser = "user"

	DefaultPageSize = 6
)

var (
	MesaageUserNotAllowed       = "user not allowed"
	MessageFailedProcessRequest = "failed to process request"
	MessageFailedBodyRequest    = "failed to parse request body"
	MessageFailedGetToken       = "failed to get token"
	MessageFailedTokenInvalid   = "failed to token invalid"
	MessageInternalError        = "internal server error"

	ErrParseUUID     = errors.New("failed to parse UUID")
	ErrTokenNotFound = errors.New("failed to token not found")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("token invalid")
	ErrInternal      = errors.New("something went wrong, please try again later")

	ErrAuthenticationRequired = NewError(KindAuthenticationRequired, "authentication credentials were not provided")
	ErrAuthorizationDenied    = NewError(KindAuthorizationDenied, "only the author can modify this resource")
)

type (
	PaginatedResponse struct {
		Count    int64   `json:"count"`
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
		Results  any     `json:"results"`
	}
)
