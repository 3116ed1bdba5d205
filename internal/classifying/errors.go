package classifying

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
)

var (
	// ErrInputMissing is returned when neither an image nor a description was given
	ErrInputMissing = errors.New("please provide a photo or a description")

	// ErrInvalidFileType is returned when an uploaded file is not an image
	ErrInvalidFileType = errors.New("please provide a valid image file (JPG, PNG, WEBP)")

	// ErrSchemaViolation is returned when the model answer does not match the output schema
	ErrSchemaViolation = errors.New("response does not match the analysis schema")
)

const authMessage = "Authentication error. Please check your API key (a key is required for deployment)."

// AuthenticationError reports a missing, invalid or forbidden credential
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return authMessage
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ClassificationError reports any other failure of the classification endpoint
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	if e.Err == nil {
		return "analysis failed, please try again"
	}
	return e.Err.Error()
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is an authentication failure
func IsAuthError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// MapError normalizes a backend failure into the domain error taxonomy
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var authErr *AuthenticationError
	var classErr *ClassificationError
	if errors.As(err, &authErr) || errors.As(err, &classErr) {
		return err
	}
	if errors.Is(err, ErrInputMissing) {
		return err
	}
	if isAuthFailure(err) {
		return &AuthenticationError{Err: err}
	}
	return &ClassificationError{Err: err}
}

func isAuthFailure(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && isAuthStatus(gErr.Code) {
		return true
	}
	if apiErr, ok := apierror.FromError(err); ok {
		if isAuthStatus(apiErr.HTTPCode()) {
			return true
		}
		if st := apiErr.GRPCStatus(); st != nil {
			switch st.Code() {
			case codes.Unauthenticated, codes.PermissionDenied, codes.NotFound:
				return true
			}
		}
	}
	var status *httpStatusError
	if errors.As(err, &status) && isAuthStatus(status.Code) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "api_key") ||
		strings.Contains(msg, "api key") ||
		strings.Contains(msg, "not found")
}

func isAuthStatus(code int) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// httpStatusError is returned by backends that talk plain HTTP
type httpStatusError struct {
	Backend string
	Code    int
	Body    string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Backend, e.Code, e.Body)
}
