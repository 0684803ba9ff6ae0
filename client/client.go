// Package client is the typed REST client the mobile app uses against the
// marketplace API. It wraps the listing, pending-change, media and
// connection endpoints and carries the edit-session logic for listings that
// are already live.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/practicemarket/practicemarket-golang/internal/models"
)

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New("not found")

// ProgressFunc receives upload progress as bytes sent out of total.
type ProgressFunc func(sent, total int64)

// MediaFile is one file queued for upload.
type MediaFile struct {
	Name    string
	Content []byte
}

// UpdateListingRequest is the wire shape of PUT /v1/listings/:id. The
// backend wants the flat form split back into its two nested groups;
// annual_revenue and net_profit appear in both on purpose.
type UpdateListingRequest struct {
	Title           *string                 `json:"title,omitempty"`
	Description     *string                 `json:"description,omitempty"`
	BusinessType    *string                 `json:"business_type,omitempty"`
	Location        *string                 `json:"location,omitempty"`
	BusinessDetails *models.BusinessDetails `json:"business_details,omitempty"`
	FinancialData   *models.FinancialData   `json:"financial_data,omitempty"`
	MediaURLs       *[]string               `json:"media_urls,omitempty"`
	IsDraft         bool                    `json:"is_draft"`
}

// API is the backend surface the client code (and the edit session) depends
// on. Client implements it; tests substitute a mock.
type API interface {
	GetListing(ctx context.Context, listingID int64) (*models.Listing, error)
	GetPendingChanges(ctx context.Context, listingID int64) (*models.PendingChangeSet, error)
	UpdateListing(ctx context.Context, listingID int64, req UpdateListingRequest) error
	UploadMedia(ctx context.Context, listingID int64, files []MediaFile, progress ProgressFunc) ([]string, error)
	SetPrimaryMedia(ctx context.Context, listingID, mediaID int64) error
	DeleteMedia(ctx context.Context, listingID, mediaID int64) error
	GetConnectionStatus(ctx context.Context, listingID int64) (string, error)
}

// Client talks to the marketplace API over HTTPS.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

var _ API = (*Client)(nil)

// New creates a client for the given base URL ("https://api.example.com")
// and bearer token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithHTTPClient is New with a caller-supplied http.Client.
func NewWithHTTPClient(baseURL, token string, httpc *http.Client) *Client {
	return &Client{baseURL: baseURL, token: token, httpc: httpc}
}

type apiError struct {
	Error string `json:"error"`
}

// do runs one request and decodes the JSON response into out (when out is
// non-nil). GET requests are retried once on transport errors and 5xx
// responses; writes never retry.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	attempts := 1
	if method == http.MethodGet {
		attempts = 2
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		lastErr = c.doOnce(ctx, method, path, body, out)
		if lastErr == nil || errors.Is(lastErr, ErrNotFound) || !isRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

func (c *Client) doOnce(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &transientError{err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return &transientError{err: fmt.Errorf("server error: %s", resp.Status)}
	case resp.StatusCode >= 400:
		var ae apiError
		if json.NewDecoder(resp.Body).Decode(&ae) == nil && ae.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, ae.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetListing fetches the persisted listing (last approved values).
func (c *Client) GetListing(ctx context.Context, listingID int64) (*models.Listing, error) {
	var wrapper struct {
		Listing *models.Listing `json:"listing"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/listings/%d", listingID), nil, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Listing, nil
}

// GetPendingChanges fetches the listing's outstanding change set. Any
// failure (network error, 404) comes back as an empty set rather than an
// error: most listings have no pending changes and the edit form must not
// break over a lookup that only exists as a preview aid.
func (c *Client) GetPendingChanges(ctx context.Context, listingID int64) (*models.PendingChangeSet, error) {
	var set models.PendingChangeSet
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/listings/%d/pending-changes", listingID), nil, &set)
	if err != nil {
		return &models.PendingChangeSet{ListingID: listingID, Changes: []models.PendingChange{}}, nil
	}
	if set.Changes == nil {
		set.Changes = []models.PendingChange{}
	}
	set.ListingID = listingID
	return &set, nil
}

// UpdateListing submits a reconciled update. For a published listing the
// server turns the diff into a new pending-change set.
func (c *Client) UpdateListing(ctx context.Context, listingID int64, req UpdateListingRequest) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/v1/listings/%d", listingID), req, nil)
}

// UploadMedia posts files to the listing's media endpoint and returns the
// uploaded URLs. progress (optional) is called as request bytes go out.
func (c *Client) UploadMedia(ctx context.Context, listingID int64, files []MediaFile, progress ProgressFunc) ([]string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	total := int64(buf.Len())
	var body io.Reader = &buf
	if progress != nil {
		body = &progressReader{r: &buf, total: total, progress: progress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v1/listings/%d/media", c.baseURL, listingID), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.ContentLength = total

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media upload failed: %s", resp.Status)
	}

	var wrapper struct {
		URLs []string `json:"urls"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return nil, err
	}
	return wrapper.URLs, nil
}

type progressReader struct {
	r        io.Reader
	sent     int64
	total    int64
	progress ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.sent += int64(n)
		pr.progress(pr.sent, pr.total)
	}
	return n, err
}

// SetPrimaryMedia marks one media item as the listing's primary image.
func (c *Client) SetPrimaryMedia(ctx context.Context, listingID, mediaID int64) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/v1/listings/%d/media/%d/primary", listingID, mediaID), nil, nil)
}

// DeleteMedia removes one media item from the listing.
func (c *Client) DeleteMedia(ctx context.Context, listingID, mediaID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/listings/%d/media/%d", listingID, mediaID), nil, nil)
}

// GetConnectionStatus returns the caller's connection state for a listing:
// "none", "pending", "accepted" or "declined".
func (c *Client) GetConnectionStatus(ctx context.Context, listingID int64) (string, error) {
	var wrapper struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/listings/%d/connection-status", listingID), nil, &wrapper); err != nil {
		return "", err
	}
	return wrapper.Status, nil
}
