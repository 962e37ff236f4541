// Package tinify is a minimal client for the TinyPNG compression API.
package tinify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultEndpoint is the public TinyPNG API base URL.
const DefaultEndpoint = "https://api.tinify.com"

// monthlyLimit is defined on Tinify's website and may be subject to change.
const monthlyLimit = 500

// Client talks to a Tinify-compatible compression endpoint. It is not safe
// for concurrent use; the toolkit compresses one file at a time.
type Client struct {
	http *resty.Client

	// CompressionCount mirrors the Compression-Count header of the most
	// recent API response.
	CompressionCount int
}

// AuthError reports a rejected API key.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "the compression API rejected the configured key"
	}
	return "the compression API rejected the configured key: " + e.Message
}

// APIError reports a non-auth failure returned by the API.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("compression API failed with status %d", e.Status)
	}
	return fmt.Sprintf("compression API failed with status %d: %s (%s)", e.Status, e.Kind, e.Message)
}

// NewClient builds a client for the given API key. An empty endpoint selects
// the public TinyPNG API.
func NewClient(key, endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		http: resty.New().
			SetBaseURL(endpoint).
			SetBasicAuth("api", key).
			SetTimeout(60*time.Second).
			SetHeader("User-Agent", "dsv-scripts"),
	}
}

// Validate checks the API key without consuming a compression and returns the
// number of compressions left for the current month.
func (c *Client) Validate() (int, error) {
	// An empty shrink request fails with InputMissing, which still proves
	// the credentials are accepted and carries the compression counter.
	resp, err := c.http.R().Post("/shrink")
	if err != nil {
		return 0, fmt.Errorf("reaching the compression API: %w", err)
	}
	c.recordCount(resp)

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return 0, &AuthError{Message: apiMessage(resp)}
	case http.StatusBadRequest, http.StatusCreated, http.StatusOK:
		left := monthlyLimit - c.CompressionCount
		if left < 0 {
			left = 0
		}
		return left, nil
	default:
		return 0, responseError(resp)
	}
}

// Compress uploads data and downloads the compressed result.
func (c *Client) Compress(data []byte) ([]byte, error) {
	resp, err := c.http.R().
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(data).
		Post("/shrink")
	if err != nil {
		return nil, fmt.Errorf("uploading to the compression API: %w", err)
	}
	c.recordCount(resp)
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return nil, &AuthError{Message: apiMessage(resp)}
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, responseError(resp)
	}

	resultURL := resp.Header().Get("Location")
	if resultURL == "" {
		var shrink shrinkResponse
		if err := json.Unmarshal(resp.Body(), &shrink); err != nil || shrink.Output.URL == "" {
			return nil, fmt.Errorf("compression API returned no result location")
		}
		resultURL = shrink.Output.URL
	}

	dl, err := c.http.R().Get(resultURL)
	if err != nil {
		return nil, fmt.Errorf("downloading compressed result: %w", err)
	}
	if dl.StatusCode() != http.StatusOK {
		return nil, responseError(dl)
	}
	return dl.Body(), nil
}

type shrinkResponse struct {
	Output struct {
		URL  string `json:"url"`
		Size int64  `json:"size"`
	} `json:"output"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) recordCount(resp *resty.Response) {
	if v := resp.Header().Get("Compression-Count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CompressionCount = n
		}
	}
}

func apiMessage(resp *resty.Response) string {
	var body errorResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return ""
	}
	return body.Message
}

func responseError(resp *resty.Response) error {
	var body errorResponse
	_ = json.Unmarshal(resp.Body(), &body)
	return &APIError{Status: resp.StatusCode(), Kind: body.Error, Message: body.Message}
}
