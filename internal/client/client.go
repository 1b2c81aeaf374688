// Package client is the thin REST boundary to the backend: record analysis
// and integration, source-record ingestion, user profile, and petition
// rendering. It shapes nothing; payload construction and trimming happen
// before documents reach this package.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleanslate/recordflow/internal/record"
)

// Backend endpoint paths.
const (
	pathProfile            = "/api/record/profile/"
	pathAnalysis           = "/api/record/analysis/"
	pathCases              = "/api/record/cases/"
	pathPetitions          = "/api/record/petitions/"
	pathSourceRecordsFetch = "/api/record/sourcerecords/fetch/"
	pathSearchByName       = "/api/ujs/search/name/"
)

// Client talks to the record backend.
type Client struct {
	base  *url.URL
	httpc *http.Client
	log   zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New builds a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: parsing base url: %w", err)
	}
	c := &Client{
		base:  base,
		httpc: &http.Client{Timeout: 30 * time.Second},
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchUserProfile retrieves the authenticated user's stored defaults as a
// {user, profile} document.
func (c *Client) FetchUserProfile(ctx context.Context) (record.Object, error) {
	return c.doObject(ctx, http.MethodGet, pathProfile, nil)
}

// SaveUserProfile writes the user profile back.
func (c *Client) SaveUserProfile(ctx context.Context, user record.Object) error {
	_, err := c.doObject(ctx, http.MethodPut, pathProfile, user)
	return err
}

// Analyze posts a trimmed record document and returns the server's analysis:
// an ordered decision list whose order is semantically significant.
func (c *Client) Analyze(ctx context.Context, crecord record.Object) (record.Object, error) {
	return c.doObject(ctx, http.MethodPost, pathAnalysis, crecord)
}

// IntegrateDocs sends the record and pending source records for integration
// and returns the server's {crecord, source_records} response.
func (c *Client) IntegrateDocs(ctx context.Context, crecord record.Object, sourceRecords []any) (record.Object, error) {
	body := record.Object{"crecord": crecord, "source_records": sourceRecords}
	return c.doObject(ctx, http.MethodPut, pathCases, body)
}

// FetchSourceRecords asks the server to fetch the named documents from the
// court portal and returns their updated integration statuses.
func (c *Client) FetchSourceRecords(ctx context.Context, sourceRecords []any) (record.Object, error) {
	body := record.Object{"source_records": sourceRecords}
	return c.doObject(ctx, http.MethodPost, pathSourceRecordsFetch, body)
}

// RenderPetitions posts a trimmed petition batch and returns the rendered
// documents as a zip archive.
func (c *Client) RenderPetitions(ctx context.Context, batch record.Object) ([]byte, error) {
	return c.doRaw(ctx, http.MethodPost, pathPetitions, batch)
}

// SearchByName runs a court-portal name search for candidate dockets.
func (c *Client) SearchByName(ctx context.Context, firstName, lastName, dob string) (record.Object, error) {
	body := record.Object{"first_name": firstName, "last_name": lastName, "dob": dob}
	return c.doObject(ctx, http.MethodPost, pathSearchByName, body)
}

func (c *Client) doObject(ctx context.Context, method, path string, body record.Object) (record.Object, error) {
	data, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	obj, err := record.FromJSON(data)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return obj, nil
}

func (c *Client) doRaw(ctx context.Context, method, path string, body record.Object) ([]byte, error) {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &TransportError{Op: op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	u := *c.base
	u.Path = path
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Warn().Str("op", op).Err(err).Msg("request failed")
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	c.log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request complete")

	if resp.StatusCode >= 400 {
		return nil, &TransportError{Op: op, Status: resp.StatusCode}
	}
	return data, nil
}
