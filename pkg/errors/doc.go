// Package errors provides structured error handling with error codes.
//
// Every user-facing failure carries an ErrorCode so that HTTP handlers can
// map it to a status code without string matching:
//
//	err := errors.New(errors.ErrCodeEmailTaken, "email already registered")
//	status := errors.MapErrorCodeToHTTPStatus(errors.GetCode(err)) // 409
//
// Wrapping keeps the underlying cause available to errors.Is / errors.As:
//
//	return errors.Wrap(dbErr, errors.ErrCodeStorage, "failed to save account")
package errors
