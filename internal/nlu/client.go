// Package nlu provides clients for the external natural-language classifier.
// The classifier is best-effort and untrusted: absent or malformed entity
// fields decode to empty values, while infrastructure failures surface as
// ErrUnavailable, distinct from a valid "nothing recognized" bundle.
package nlu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fk1blow/haplea/internal/intent"
)

// ErrUnavailable marks a classification infrastructure failure: the call
// failed or timed out. No fallback command is synthesized and no retry is
// performed; callers report it separately from an undefined intent.
var ErrUnavailable = errors.New("classification unavailable")

// DefaultBaseURL is the hosted classifier endpoint.
const DefaultBaseURL = "https://api.wit.ai"

// DefaultVersion is the API version tag sent with every classify call.
const DefaultVersion = "20191216"

// Classifier turns a raw query into an entity bundle.
type Classifier interface {
	Classify(ctx context.Context, query string) (intent.EntityBundle, error)
}

// Client is the HTTP classify client.
type Client struct {
	baseURL    string
	token      string
	version    string
	httpClient *http.Client
}

// NewClient creates a Client for the given endpoint and bearer token. An
// empty baseURL selects the hosted endpoint.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		version:    DefaultVersion,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// classifyResponse is the wire shape of a classify call.
type classifyResponse struct {
	Entities intent.EntityBundle `json:"entities"`
}

// Classify sends the query to the classifier and returns its entity bundle.
func (c *Client) Classify(ctx context.Context, query string) (intent.EntityBundle, error) {
	params := url.Values{}
	params.Set("v", c.version)
	params.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/message?"+params.Encode(), nil)
	if err != nil {
		return intent.EntityBundle{}, fmt.Errorf("classify: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return intent.EntityBundle{}, fmt.Errorf("classify %q: %w: %w", query, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return intent.EntityBundle{}, fmt.Errorf("classify %q: read response: %w: %w", query, ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return intent.EntityBundle{}, fmt.Errorf("classify %q: status %d: %w", query, resp.StatusCode, ErrUnavailable)
	}

	var decoded classifyResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return intent.EntityBundle{}, fmt.Errorf("classify %q: decode response: %w: %w", query, ErrUnavailable, err)
	}

	return decoded.Entities, nil
}

var _ Classifier = (*Client)(nil)
