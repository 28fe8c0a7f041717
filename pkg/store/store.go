// Package store reads raw keys out of a hierarchical array store. A store is
// addressed by a locator (http(s)://, s3:// or a local path) and every key is
// a slash separated path relative to that locator, e.g. "0/.zattrs".
//
// Backends only fetch bytes. Interpreting those bytes as zarr groups and
// arrays is done by package zarr.
package store

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// ErrNotFound is returned (possibly wrapped) when a key does not exist
var ErrNotFound = errors.New("key not found")

// Store is the read capability over one remote or local array store
type Store interface {
	// Get returns the contents of key, or an error wrapping ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Locator returns the root this store reads from
	Locator() string
}

// IsNotFound reports whether err means the key was absent
func IsNotFound(err error) bool {
	return err != nil && (errors.Is(err, ErrNotFound) || errors.Cause(err) == ErrNotFound)
}

// JoinKey joins key segments with "/" ignoring empty parts and stray slashes
func JoinKey(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, "/")
}

// Options control how Open builds a backend for a locator
type Options struct {
	// HTTPTimeout applies to every request made by an HTTP store
	HTTPTimeout time.Duration
	// S3Region is used when creating an AWS session for s3:// locators
	S3Region string
	// S3API overrides the S3 client, mostly for tests
	S3API s3iface.S3API
	// Instrument wraps the backend with prometheus fetch metrics
	Instrument bool
}

// Open picks a backend for the locator. Each call returns a new store, so
// stores are never shared between sources.
func Open(locator string, opts Options) (Store, error) {
	var (
		st      Store
		backend string
	)

	u, err := url.Parse(locator)
	switch {
	case err == nil && (u.Scheme == "http" || u.Scheme == "https"):
		backend = "http"
		st, err = NewHTTPStore(locator, opts.HTTPTimeout)
	case err == nil && u.Scheme == "s3":
		backend = "s3"
		api := opts.S3API
		if api == nil {
			sess, sessErr := session.NewSession(&aws.Config{Region: aws.String(opts.S3Region)})
			if sessErr != nil {
				return nil, errors.Wrap(sessErr, "failed to create AWS session")
			}
			api = s3.New(sess)
		}
		st = NewS3Store(api, u.Host, u.Path)
	case err == nil && u.Scheme == "file":
		backend = "local"
		st = NewLocalStore(u.Path)
	case err == nil && u.Scheme == "":
		backend = "local"
		st = NewLocalStore(locator)
	default:
		if err == nil {
			err = errors.Errorf("unsupported store scheme %q", u.Scheme)
		}
		return nil, errors.Wrapf(err, "failed to open store %v", locator)
	}

	if err != nil {
		return nil, err
	}
	if opts.Instrument {
		st = Instrument(st, backend)
	}
	return st, nil
}
