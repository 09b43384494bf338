// Package store is the remote collection boundary: named collections of typed
// records that can be selected in pages, searched, inserted, patched and deleted.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrUnknownColumn = errors.New("unknown column")
	ErrUnsafeDelete  = errors.New("delete without filters")
	ErrDuplicate     = errors.New("duplicate value")
)

// Query describes one page request. From and To are an inclusive, zero based
// row range; To < From means no limit. An empty Search matches everything.
type Query struct {
	Search  string
	Fields  []string
	Filters map[string]any
	OrderBy string
	Desc    bool
	From    int
	To      int
	Count   bool
}

// Result carries the rows of a page and, when the query asked for it, the
// number of rows matching the query across all pages.
type Result[T any] struct {
	Rows  []T
	Total *int64
}

// Collection is implemented by every backend. Implementations are safe for
// concurrent use.
type Collection[T any] interface {
	Name() string
	Select(ctx context.Context, q Query) (Result[T], error)
	Get(ctx context.Context, id string) (T, error)
	Insert(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id string, patch map[string]any) (T, error)
	Delete(ctx context.Context, id string) error
	DeleteWhere(ctx context.Context, filters map[string]any) (int64, error)
}

// Schema names a collection and the columns callers may search, filter and
// order on. Column names are database names (snake_case). Unique columns
// mirror the table's unique indexes.
type Schema struct {
	Name    string
	Search  []string
	Filters []string
	Order   []string
	Unique  []string
}

// searchColumns resolves the columns a search runs over. No fields means every
// searchable column.
func (s Schema) searchColumns(fields []string) ([]string, error) {
	if len(fields) == 0 {
		return s.Search, nil
	}
	for _, f := range fields {
		if !slices.Contains(s.Search, f) {
			return nil, fmt.Errorf("%w: %s.%s is not searchable", ErrUnknownColumn, s.Name, f)
		}
	}
	return fields, nil
}

func (s Schema) checkFilters(filters map[string]any) ([]string, error) {
	cols := make([]string, 0, len(filters))
	for col := range filters {
		if col != "id" && !slices.Contains(s.Filters, col) {
			return nil, fmt.Errorf("%w: %s.%s is not filterable", ErrUnknownColumn, s.Name, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols, nil
}

func (s Schema) checkOrder(col string) error {
	if col == "" || col == "created_at" || slices.Contains(s.Order, col) {
		return nil
	}
	return fmt.Errorf("%w: %s.%s is not sortable", ErrUnknownColumn, s.Name, col)
}

// Page converts a zero based page index into an inclusive row range.
func Page(page, pageSize int) (from, to int) {
	if page < 0 {
		page = 0
	}
	from = page * pageSize
	return from, from + pageSize - 1
}
