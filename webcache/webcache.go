// Package webcache provides http clients backed by a disk cache whose entries
// expire every day or every month, and a helper to GET json documents.
package webcache

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Period is the lifetime of cache entries.
type Period int

const (
	// Daily entries expire at midnight UTC.
	Daily Period = iota
	// Monthly entries expire at the end of the month.
	Monthly
)

func (p Period) String() string {
	if p == Monthly {
		return "monthly"
	}
	return "daily"
}

// identifier returns the identifier of the period containing t.
func (p Period) identifier(t time.Time) string {
	if p == Monthly {
		return t.UTC().Format("2006-01")
	}
	return t.UTC().Format("2006-01-02")
}

// diskCache implements a simple disk cache for HTTP responses
type diskCache struct {
	base   http.RoundTripper
	dir    string
	period Period
	now    func() time.Time
}

// RoundTrip serves the response from disk when a fresh one exists, otherwise
// it performs the request and stores successful responses.
func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	// the key changes with the period, so old entries are never read again.
	key := fmt.Sprintf("%s %s %s", c.period.identifier(c.now()), req.Method, req.URL.String())
	key = fmt.Sprintf("depot-%s-%x", c.period, sha1.Sum([]byte(key)))

	if cached, err := c.get(key, req); err == nil {
		log.Debug().Str("url", req.URL.Redacted()).Msg("http cache hit")
		return cached, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("method", req.Method).Str("host", req.URL.Host).Str("path", req.URL.Path).Str("status", resp.Status).Msg("http")
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		log.Warn().Err(err).Msg("cache write error (ignored)")
	}
	return resp, nil
}

// get retrieves a cached response from disk
func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// put stores a response to disk cache
func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0o600)
}

// NewClient returns a client caching responses in dir for a period. An empty
// dir uses the temporary directory.
func NewClient(period Period, dir string) *http.Client {
	if dir == "" {
		dir = os.TempDir()
	}
	return &http.Client{Transport: &diskCache{base: http.DefaultTransport, dir: dir, period: period, now: time.Now}}
}

// StatusError is returned by GetJSON for non 200 responses.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot http GET %s: %s", e.URL, e.Status)
}

// GetJSON performs an HTTP GET request and unmarshals the JSON response into data.
func GetJSON(ctx context.Context, client *http.Client, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	// some providers reject requests without a user agent.
	req.Header.Set("User-Agent", "depot/1.0")
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{URL: req.URL.Host + req.URL.Path, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, data); err != nil {
		return fmt.Errorf("invalid json from %s%s: %w", req.URL.Host, req.URL.Path, err)
	}
	return nil
}
