package vision

import (
	"context"
	"errors"
	"fmt"
)

// NoDescription is returned when a successful response carries no description.
const NoDescription = "No description available."

// CheckPrompt is the text-only prompt sent by the credential check.
const CheckPrompt = "Test"

var (
	ErrMissingCredential  = errors.New("vision: missing credential")
	ErrTransport          = errors.New("vision: transport failure")
	// ErrUnexpectedResponse is a 2xx answer that is not a chat-completions
	// JSON object, as served by captive portals and misconfigured proxies.
	ErrUnexpectedResponse = errors.New("vision: unexpected response")
)

// APIError is a non-2xx answer from the vision endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("vision: status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("vision: status %d: %s", e.StatusCode, e.Message)
}

// IsAuth reports whether the endpoint rejected the credential.
func (e *APIError) IsAuth() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

type IService interface {
	// Analyze describes the image behind imageDataURL according to prompt.
	Analyze(ctx context.Context, credential, imageDataURL, prompt string) (string, error)
	// Check validates the credential with a minimal text-only request.
	Check(ctx context.Context, credential string) error
}
