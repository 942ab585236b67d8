package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Errors returned for well-known API responses. They wrap an *APIError.
var (
	ErrNotFound          = errors.New("not found")
	ErrChallengeExpired  = errors.New("challenge expired")
	ErrSignatureInvalid  = errors.New("signature verification failed")
	ErrBadRequest        = errors.New("bad request")
	ErrChainCorrupted    = errors.New("chain validation failed")
	ErrRateLimited       = errors.New("rate limited")
	ErrAdminUnauthorized = errors.New("admin secret rejected")
)

// APIError is a non-2xx response from the notary.
type APIError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notary returned HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match the well-known error for the status code.
func (e *APIError) Unwrap() error { return e.kind }

// Star is the claimed star.
type Star struct {
	RA    string `json:"ra"`
	Dec   string `json:"dec"`
	Mag   string `json:"mag,omitempty"`
	Cen   string `json:"cen,omitempty"`
	Story string `json:"story"`
}

// Claim is a decoded star claim.
type Claim struct {
	Owner string `json:"owner"`
	Star  Star   `json:"star"`
}

// Block is a chain block as returned by the API.
type Block struct {
	Height       int64  `json:"height"`
	Time         int64  `json:"time"`
	PreviousHash string `json:"previous_hash,omitempty"`
	Body         string `json:"body"`
	Hash         string `json:"hash"`
	BodyDecoded  *Claim `json:"body_decoded,omitempty"`
}

// Overview is the chain height and tip hash.
type Overview struct {
	Height int64  `json:"height"`
	Tip    string `json:"tip"`
}

// Violation is a block that failed validation.
type Violation struct {
	Block   Block    `json:"block"`
	Reasons []string `json:"reasons"`
}

// ValidationResult is returned by Validate.
type ValidationResult struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations"`
}

// Challenge is the message an address must sign.
type Challenge struct {
	Address          string    `json:"address"`
	Message          string    `json:"message"`
	RequestTimestamp int64     `json:"request_timestamp"`
	ValidationWindow int64     `json:"validation_window"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// ClaimRequest is the payload for SubmitClaim.
type ClaimRequest struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
	Star      Star   `json:"star"`
}

// Client is the star notary SDK entry point.
type Client struct {
	base        string
	httpClient  *http.Client
	adminSecret string
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("nil http client")
		}
		c.httpClient = hc
		return nil
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.httpClient = &http.Client{Timeout: d}
		return nil
	}
}

// WithAdminSecret attaches the admin secret used by AppendData.
func WithAdminSecret(secret string) Option {
	return func(c *Client) error {
		c.adminSecret = secret
		return nil
	}
}

// New creates a Client for the notary at base, e.g. "http://localhost:8000".
func New(base string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid notary URL %q: %w", base, err)
	}
	c := &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(base string, opts ...Option) *Client {
	c, err := New(base, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Overview returns the chain height and tip hash.
func (c *Client) Overview(ctx context.Context) (*Overview, error) {
	var out Overview
	if err := c.call(ctx, http.MethodGet, "/api/v1/chain", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate asks the notary to audit the whole chain.
func (c *Client) Validate(ctx context.Context) (*ValidationResult, error) {
	var out ValidationResult
	if err := c.call(ctx, http.MethodGet, "/api/v1/chain/validate", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// blockNotFound is the error message the notary sends for an absent block.
const blockNotFound = "block not found"

// BlockByHeight returns the block at height. A missing block is reported as
// (nil, nil); any other 404, such as a wrong base URL, is returned as an error.
func (c *Client) BlockByHeight(ctx context.Context, height int64) (*Block, error) {
	var out Block
	err := c.call(ctx, http.MethodGet, "/api/v1/blocks/height/"+strconv.FormatInt(height, 10), nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound && apiErr.Message == blockNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BlockByHash returns the block with the given hash, or an error wrapping
// ErrNotFound.
func (c *Client) BlockByHash(ctx context.Context, hash string) (*Block, error) {
	var out Block
	if err := c.call(ctx, http.MethodGet, "/api/v1/blocks/hash/"+url.PathEscape(hash), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestChallenge returns the message address must sign.
func (c *Client) RequestChallenge(ctx context.Context, address string) (*Challenge, error) {
	var out Challenge
	if err := c.call(ctx, http.MethodPost, "/api/v1/challenges", map[string]string{"address": address}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitClaim registers a star with a signed challenge.
func (c *Client) SubmitClaim(ctx context.Context, req ClaimRequest) (*Block, error) {
	var out Block
	if err := c.call(ctx, http.MethodPost, "/api/v1/claims", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StarsByOwner returns the stars registered to address in chain order.
func (c *Client) StarsByOwner(ctx context.Context, address string) ([]Star, error) {
	var out struct {
		Stars []Star `json:"stars"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/owners/"+url.PathEscape(address)+"/stars", nil, &out); err != nil {
		return nil, err
	}
	return out.Stars, nil
}

// AppendData appends an arbitrary payload. Requires WithAdminSecret.
func (c *Client) AppendData(ctx context.Context, data any) (*Block, error) {
	if c.adminSecret == "" {
		return nil, errors.New("AppendData requires an admin secret")
	}
	var out Block
	if err := c.call(ctx, http.MethodPost, "/api/v1/blocks", map[string]any{"data": data}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call sends reqBody as JSON (when non-nil) and decodes a 2xx response into
// respBody.
func (c *Client) call(ctx context.Context, method, path string, reqBody, respBody any) error {
	var bodyReader io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.adminSecret != "" {
		req.Header.Set("X-Admin-Secret", c.adminSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, body)
	}

	if respBody != nil && len(body) > 0 {
		if err := json.Unmarshal(body, respBody); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}

	e := &APIError{StatusCode: status, Message: msg}
	switch status {
	case http.StatusNotFound:
		e.kind = ErrNotFound
	case http.StatusGone:
		e.kind = ErrChallengeExpired
	case http.StatusUnauthorized:
		if strings.Contains(msg, "admin") {
			e.kind = ErrAdminUnauthorized
		} else {
			e.kind = ErrSignatureInvalid
		}
	case http.StatusForbidden:
		e.kind = ErrAdminUnauthorized
	case http.StatusBadRequest:
		e.kind = ErrBadRequest
	case http.StatusTooManyRequests:
		e.kind = ErrRateLimited
	case http.StatusInternalServerError:
		if msg == ErrChainCorrupted.Error() {
			e.kind = ErrChainCorrupted
		}
	}
	return e
}
