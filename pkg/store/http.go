package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// HTTPStore reads keys by issuing GET requests under a base URL
type HTTPStore struct {
	base   string
	client *http.Client
}

// NewHTTPStore creates a store rooted at base. A zero timeout means none.
func NewHTTPStore(base string, timeout time.Duration) (*HTTPStore, error) {
	if _, err := url.Parse(base); err != nil {
		return nil, errors.Wrapf(err, "invalid store URL %v", base)
	}
	return &HTTPStore{
		base:   strings.TrimRight(base, "/") + "/",
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (s *HTTPStore) Locator() string {
	return s.base
}

func (s *HTTPStore) Get(ctx context.Context, key string) ([]byte, error) {
	target := s.base + strings.TrimLeft(key, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build request for %v", target)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %v", target)
	}
	defer resp.Body.Close()

	// Static object store hosting answers 403 for keys that do not exist
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden {
		return nil, errors.Wrap(ErrNotFound, target)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %v: unexpected status %v", target, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %v", target)
	}
	return body, nil
}
