package usecase

import (
	"bytes"
	"context"
)

// QueryEngine runs an analytical query to completion and returns the
// result records, header row first, every value rendered as text.
type QueryEngine interface {
	RunQuery(ctx context.Context, query string) ([][]string, error)
}

// ObjectStore publishes and fetches extract files by key. Publish must
// fully replace any prior object at the key, readers never observe a
// partially written extract.
type ObjectStore interface {
	Publish(ctx context.Context, key string, body *bytes.Buffer) error
	Fetch(ctx context.Context, key string) ([]byte, error)
}
