package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *AppError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *AppError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// ConfigValidation creates a validation error for a single config field
func ConfigValidation(field, reason string) *AppError {
	return New(ErrCodeConfigValidation, fmt.Sprintf("%s: %s", field, reason)).
		WithDetail("field", field)
}

// SessionNotLoaded is returned when an identity-dependent action runs before
// the session bridge has reported a loaded state. Callers should wait, not
// treat the user as anonymous.
func SessionNotLoaded(action string) *AppError {
	return New(ErrCodeSessionNotLoaded, fmt.Sprintf("session not loaded yet, cannot %s", action)).
		WithDetail("action", action)
}

// NotAuthenticated creates an error for an action that needs a signed-in user
func NotAuthenticated(action string) *AppError {
	return New(ErrCodeNotAuthenticated, fmt.Sprintf("sign in required to %s", action)).
		WithDetail("action", action)
}

// NoAreaSelected creates an error for a trip submission without a clicked area
func NoAreaSelected() *AppError {
	return New(ErrCodeNoAreaSelected, "no area selected")
}

// InvalidArgument creates an error for a malformed input field
func InvalidArgument(field, reason string) *AppError {
	return New(ErrCodeInvalidArgument, fmt.Sprintf("invalid %s: %s", field, reason)).
		WithDetail("field", field)
}

// RemoteWriteFailed wraps a document store rejection. Phase 1 failures leave
// nothing behind; phase 2 failures leave the document at docID without its id
// field, which is reported through the "orphaned" detail.
func RemoteWriteFailed(phase int, collection, docID string, err error) *AppError {
	appErr := Wrap(err, ErrCodeRemoteWriteFailed, fmt.Sprintf("write to %s failed in phase %d", collection, phase)).
		WithDetail("phase", phase).
		WithDetail("collection", collection)
	if docID != "" {
		appErr = appErr.WithDetail("docId", docID)
	}
	if phase == 2 {
		appErr = appErr.WithDetail("orphaned", true)
	}
	return appErr
}

// DocumentNotFound creates an error for a missing document
func DocumentNotFound(collection, id string) *AppError {
	return New(ErrCodeDocumentNotFound, fmt.Sprintf("document %s/%s not found", collection, id)).
		WithDetail("collection", collection).
		WithDetail("id", id)
}

// UnknownRoute creates an error for a path with no matching route
func UnknownRoute(path string) *AppError {
	return New(ErrCodeUnknownRoute, fmt.Sprintf("no route for %s", path)).
		WithDetail("path", path)
}
