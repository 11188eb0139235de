package reconciler

import (
	"context"
	"sync"

	"github.com/agentstation/pricemap/pkg/catalogs"
)

// StaticFetcher is an in-memory Fetcher for tests and dry runs.
type StaticFetcher struct {
	StorageIDs  []string
	Quotes      map[string]catalogs.Quote
	StoragesErr error
	// Fail, when set, is consulted before every FetchBatch call with the
	// 1-based call number; a non-nil result is returned as the call's error.
	Fail func(call int, keys []catalogs.Key) error

	mu    sync.Mutex
	calls [][]catalogs.Key
}

// NewStaticFetcher returns a fetcher serving quotes from every storage id.
func NewStaticFetcher(quotes map[string]catalogs.Quote, storages ...string) *StaticFetcher {
	return &StaticFetcher{StorageIDs: storages, Quotes: quotes}
}

// Storages returns StorageIDs or StoragesErr.
func (f *StaticFetcher) Storages(_ context.Context) ([]string, error) {
	if f.StoragesErr != nil {
		return nil, f.StoragesErr
	}
	return f.StorageIDs, nil
}

// FetchBatch returns the quotes of the requested articles.
func (f *StaticFetcher) FetchBatch(_ context.Context, keys []catalogs.Key, _ []string) (map[string]catalogs.Quote, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]catalogs.Key(nil), keys...))
	call := len(f.calls)
	f.mu.Unlock()

	if f.Fail != nil {
		if err := f.Fail(call, keys); err != nil {
			return nil, err
		}
	}

	out := make(map[string]catalogs.Quote, len(keys))
	for _, k := range keys {
		if q, ok := f.Quotes[k.Article]; ok {
			out[k.Article] = q
		}
	}
	return out, nil
}

// Calls returns the keys of every FetchBatch call so far.
func (f *StaticFetcher) Calls() [][]catalogs.Key {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]catalogs.Key(nil), f.calls...)
}
