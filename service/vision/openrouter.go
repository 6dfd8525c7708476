package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/khaledhikmat/vision-go/service/config"
	"github.com/khaledhikmat/vision-go/service/lgr"
)

// Error bodies are only echoed back to the operator, cap what we read.
const maxErrorBody = 64 * 1024

type openRouterService struct {
	endpoint string
	model    string
	http     *http.Client
}

// NewOpenRouter returns a client for an OpenAI-compatible chat-completions
// endpoint. OpenRouter is the default endpoint, any compatible one works.
func NewOpenRouter(cfgSvc config.IService) IService {
	return NewOpenRouterWithClient(cfgSvc, &http.Client{Timeout: cfgSvc.GetVisionTimeout()})
}

func NewOpenRouterWithClient(cfgSvc config.IService, client *http.Client) IService {
	return &openRouterService{
		endpoint: cfgSvc.GetVisionEndpoint(),
		model:    cfgSvc.GetVisionModel(),
		http:     client,
	}
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (svc *openRouterService) Analyze(ctx context.Context, credential, imageDataURL, prompt string) (string, error) {
	parts := []contentPart{{Type: "text", Text: prompt}}
	if imageDataURL != "" {
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: imageDataURL}})
	}

	body, err := svc.post(ctx, credential, parts)
	if err != nil {
		return "", err
	}

	return description(body), nil
}

func (svc *openRouterService) Check(ctx context.Context, credential string) error {
	body, err := svc.post(ctx, credential, []contentPart{{Type: "text", Text: CheckPrompt}})
	if err != nil {
		return err
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	if obj == nil {
		return fmt.Errorf("%w: empty body", ErrUnexpectedResponse)
	}
	return nil
}

// post sends one chat-completions request and returns the body of a 2xx answer.
func (svc *openRouterService) post(ctx context.Context, credential string, parts []contentPart) ([]byte, error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}

	payload, err := json.Marshal(chatRequest{
		Model:    svc.model,
		Messages: []chatMessage{{Role: "user", Content: parts}},
	})
	if err != nil {
		return nil, fmt.Errorf("vision: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("vision: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := svc.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	lgr.Logger.DebugContext(ctx,
		"vision request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
		slog.Int("bytes", len(body)),
	)

	return body, nil
}

// description extracts choices[0].message.content, falling back to
// NoDescription for any body that does not carry it.
func description(body []byte) string {
	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return NoDescription
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == nil {
		return NoDescription
	}
	return *result.Choices[0].Message.Content
}

func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var errResp struct {
		Error struct {
			Message string          `json:"message"`
			Code    json.RawMessage `json:"code"`
		} `json:"error"`
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(body),
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		// OpenRouter sends numeric codes, OpenAI sends strings.
		var code string
		if json.Unmarshal(errResp.Error.Code, &code) == nil {
			apiErr.Code = code
		} else if len(errResp.Error.Code) > 0 && string(errResp.Error.Code) != "null" {
			apiErr.Code = string(errResp.Error.Code)
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}
