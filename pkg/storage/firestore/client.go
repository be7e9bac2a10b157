// Package firestore is a typed layer over the Firestore client. Collections
// carry their own converters so callers never touch raw document maps.
package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
)

// Client exposes the planner's collections.
type Client struct {
	fs *firestore.Client
}

func NewClient(fs *firestore.Client) *Client {
	return &Client{fs: fs}
}

// Collection is a typed collection. Decode turns a document into T; when it
// is nil, Firestore's struct decoding is used.
type Collection[T any] struct {
	ref    *firestore.CollectionRef
	decode func(id string, m map[string]interface{}) T
}

// Document is a typed document reference.
type Document[T any] struct {
	ref    *firestore.DocumentRef
	decode func(id string, m map[string]interface{}) T
}

func (c *Collection[T]) Doc(id string) *Document[T] {
	return &Document[T]{ref: c.ref.Doc(id), decode: c.decode}
}

// All reads every document in the collection.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	return c.query(ctx, c.ref.Query)
}

// Where runs a single-field filter.
func (c *Collection[T]) Where(ctx context.Context, path, op string, value interface{}) ([]T, error) {
	return c.query(ctx, c.ref.Where(path, op, value))
}

func (c *Collection[T]) query(ctx context.Context, q firestore.Query) ([]T, error) {
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(snaps))
	for _, snap := range snaps {
		v, err := decodeSnapshot(snap, c.decode)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ByID reads every document keyed by document id.
func (c *Collection[T]) ByID(ctx context.Context) (map[string]T, error) {
	snaps, err := c.ref.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(snaps))
	for _, snap := range snaps {
		v, err := decodeSnapshot(snap, c.decode)
		if err != nil {
			return nil, err
		}
		out[snap.Ref.ID] = v
	}
	return out, nil
}

// IDs lists document ids without decoding.
func (c *Collection[T]) IDs(ctx context.Context) ([]string, error) {
	refs, err := c.ref.DocumentRefs(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	return ids, nil
}

func (d *Document[T]) Get(ctx context.Context) (T, error) {
	snap, err := d.ref.Get(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeSnapshot(snap, d.decode)
}

func (d *Document[T]) Set(ctx context.Context, v T) error {
	_, err := d.ref.Set(ctx, v)
	return err
}

// Update merges the given fields into the document.
func (d *Document[T]) Update(ctx context.Context, data map[string]interface{}) error {
	_, err := d.ref.Set(ctx, data, firestore.MergeAll)
	return err
}

func decodeSnapshot[T any](snap *firestore.DocumentSnapshot, decode func(string, map[string]interface{}) T) (T, error) {
	if decode != nil {
		return decode(snap.Ref.ID, snap.Data()), nil
	}
	var v T
	err := snap.DataTo(&v)
	return v, err
}
