package xbrl

import (
	"context"
	"fmt"

	"github.com/alitto/pond/v2"
)

// Loader parses many documents concurrently. Each document gets its own
// graph and index; nothing mutable is shared between workers.
type Loader struct {
	opts Options
	pool pond.ResultPool[*Document]
}

// NewLoader creates a loader running up to workers parses at a time.
func NewLoader(workers int, opts Options) *Loader {
	if workers <= 0 {
		workers = 1
	}
	return &Loader{
		opts: opts,
		pool: pond.NewResultPool[*Document](workers),
	}
}

// LoadFiles parses every path and returns the documents in input order.
// The first failure cancels the remaining work.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) ([]*Document, error) {
	group := l.pool.NewGroupContext(ctx)
	for _, path := range paths {
		group.SubmitErr(func() (*Document, error) {
			return ParseFile(ctx, path, l.opts)
		})
	}
	docs, err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	return docs, nil
}

// LoadRecords parses every path and concatenates the extracted value records.
func (l *Loader) LoadRecords(ctx context.Context, paths []string) ([]ValueRecord, error) {
	docs, err := l.LoadFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	var out []ValueRecord
	for _, doc := range docs {
		out = append(out, Records(doc)...)
	}
	return out, nil
}

// Close stops the worker pool after pending tasks finish.
func (l *Loader) Close() {
	l.pool.StopAndWait()
}
