package store

import "errors"

var (
	ErrValidation         = errors.New("validation")           // 400
	ErrInvalidCredentials = errors.New("invalid credentials")  // 401
	ErrNotAuthenticated   = errors.New("not authenticated")    // 401
	ErrForbidden          = errors.New("forbidden")            // 403
	ErrNotFound           = errors.New("not found")            // 404
	ErrEmailTaken         = errors.New("email already in use") // 409
)
