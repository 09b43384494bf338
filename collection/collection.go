// Package collection keeps a paged, searchable, newest-first view over one
// remote collection, the way list screens consume it: reset on a new search
// term, append pages on demand, and report whether more rows exist.
package collection

import (
	"context"
	"time"

	"bizdocs-backend/store"
)

// DefaultPageSize is the number of rows requested per page.
const DefaultPageSize = 10

// Keyed records can be located in a loaded list by their key.
type Keyed interface {
	Key() string
}

// Source is the read side of a remote collection.
type Source[T any] interface {
	Name() string
	Select(ctx context.Context, q store.Query) (store.Result[T], error)
}

// Observer is told about every remote fetch.
type Observer interface {
	ObserveFetch(collection string, elapsed time.Duration, err error)
}

// HasMore reports whether another page may exist. When the backend reported a
// total the loaded count decides; otherwise a full last page means maybe more.
func HasMore(loaded int, total *int64, lastLen, pageSize int) bool {
	if total != nil {
		return int64(loaded) < *total
	}
	return lastLen == pageSize
}

type settings struct {
	fields   []string
	filters  map[string]any
	orderBy  string
	desc     bool
	pageSize int
	notifier Notifier
	observer Observer
}

type Option func(*settings)

func WithPageSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithSearchFields restricts the search term to the given columns. By default
// the store searches every column it marks searchable.
func WithSearchFields(fields ...string) Option {
	return func(s *settings) { s.fields = fields }
}

func WithFilters(filters map[string]any) Option {
	return func(s *settings) { s.filters = copyFilters(filters) }
}

func WithOrder(column string, desc bool) Option {
	return func(s *settings) {
		s.orderBy = column
		s.desc = desc
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *settings) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *settings) { s.observer = o }
}

func copyFilters(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
