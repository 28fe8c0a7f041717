// Package zarr opens groups and arrays of a zarr store, supporting both the
// legacy (v2: .zgroup/.zattrs/.zarray) and current (v3: zarr.json) layouts.
package zarr

import (
	"context"
	"encoding/json"
	"path"
	"strings"

	"github.com/pkg/errors"

	"ngffviewer/pkg/store"
)

// Version is the zarr container format version of a store
type Version int

const (
	V2 Version = 2
	V3 Version = 3
)

// Attributes holds the raw user attributes of a node, keyed by name
type Attributes map[string]json.RawMessage

// ErrNodeNotFound is returned when no group or array exists at a path
var ErrNodeNotFound = errors.New("node not found")

// Location addresses a node inside a store
type Location struct {
	Store   store.Store
	Path    string
	Version Version
}

// Root returns the location of the store root
func Root(st store.Store, version Version) Location {
	return Location{Store: st, Version: version}
}

// Resolve returns the location of p relative to l. p may contain ".." parts.
func (l Location) Resolve(p string) Location {
	joined := path.Clean(path.Join("/", l.Path, p))
	return Location{Store: l.Store, Path: strings.TrimPrefix(joined, "/"), Version: l.Version}
}

// Key returns the store key of name inside this location
func (l Location) Key(name string) string {
	return store.JoinKey(l.Path, name)
}

// String returns a human readable address for logs and errors
func (l Location) String() string {
	return l.Store.Locator() + l.Path
}

// Group is an opened group node
type Group struct {
	Location
	Attrs Attributes
}

// v3 node document (zarr.json)
type nodeDocument struct {
	ZarrFormat int        `json:"zarr_format"`
	NodeType   string     `json:"node_type"`
	Attributes Attributes `json:"attributes"`
}

// DetectVersion probes for a version 3 root descriptor, falling back to
// version 2 only when there is none. Other fetch errors are returned.
func DetectVersion(ctx context.Context, st store.Store) (Version, error) {
	data, err := st.Get(ctx, "zarr.json")
	if store.IsNotFound(err) {
		return V2, nil
	}
	if err != nil {
		return V2, errors.Wrap(err, "failed to probe zarr.json")
	}
	var doc nodeDocument
	if json.Unmarshal(data, &doc) != nil || doc.ZarrFormat != 3 {
		return V2, nil
	}
	return V3, nil
}

// ReadDocument fetches a JSON document at key relative to the location and
// decodes it into v. Missing keys return an error wrapping store.ErrNotFound.
func ReadDocument(ctx context.Context, l Location, key string, v interface{}) error {
	data, err := l.Store.Get(ctx, l.Key(key))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "failed to parse %v", l.Key(key))
	}
	return nil
}

// OpenGroup opens the group at l
func OpenGroup(ctx context.Context, l Location) (*Group, error) {
	if l.Version == V3 {
		var doc nodeDocument
		if err := ReadDocument(ctx, l, "zarr.json", &doc); err != nil {
			return nil, notFoundOr(err, l)
		}
		if doc.NodeType != "group" {
			return nil, errors.Wrapf(ErrNodeNotFound, "%v is a %v, not a group", l, doc.NodeType)
		}
		return &Group{Location: l, Attrs: orEmpty(doc.Attributes)}, nil
	}

	var marker struct {
		ZarrFormat int `json:"zarr_format"`
	}
	groupErr := ReadDocument(ctx, l, ".zgroup", &marker)
	if groupErr != nil && !store.IsNotFound(groupErr) {
		return nil, groupErr
	}

	var attrs Attributes
	attrsErr := ReadDocument(ctx, l, ".zattrs", &attrs)
	if attrsErr != nil && !store.IsNotFound(attrsErr) {
		return nil, attrsErr
	}

	// Some writers skip .zgroup, a .zattrs alone is accepted as a group
	if groupErr != nil && attrsErr != nil {
		return nil, errors.Wrapf(ErrNodeNotFound, "no group at %v", l)
	}
	return &Group{Location: l, Attrs: orEmpty(attrs)}, nil
}

// Open opens whatever node exists at l, returning exactly one of group or array
func Open(ctx context.Context, l Location) (*Group, *Array, error) {
	arr, err := OpenArray(ctx, l)
	if err == nil {
		return nil, arr, nil
	}
	if !errors.Is(err, ErrNodeNotFound) {
		return nil, nil, err
	}
	grp, err := OpenGroup(ctx, l)
	if err != nil {
		return nil, nil, err
	}
	return grp, nil, nil
}

func notFoundOr(err error, l Location) error {
	if store.IsNotFound(err) {
		return errors.Wrapf(ErrNodeNotFound, "no node at %v", l)
	}
	return err
}

func orEmpty(a Attributes) Attributes {
	if a == nil {
		return Attributes{}
	}
	return a
}
