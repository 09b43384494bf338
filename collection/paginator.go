package collection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bizdocs-backend/store"
)

// Paginator accumulates pages of one collection for the current search term.
// At most one fetch is outstanding. A Reset while a fetch is in flight bumps
// the generation; the in-flight call drops its response and fetches once more
// for the newest term.
type Paginator[T Keyed] struct {
	src Source[T]
	cfg settings

	mu      sync.Mutex
	items   []T
	page    int
	offset  int
	total   *int64
	lastLen int
	fetched bool
	loading bool
	term    string
	gen     uint64
}

func NewPaginator[T Keyed](src Source[T], opts ...Option) *Paginator[T] {
	cfg := settings{
		orderBy:  "created_at",
		desc:     true,
		pageSize: DefaultPageSize,
		notifier: LogNotifier{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Paginator[T]{src: src, cfg: cfg}
}

// Reset clears the list, sets the term and fetches page 0. If a fetch is
// already running it returns at once and that fetch picks up the new term.
func (p *Paginator[T]) Reset(ctx context.Context, term string) error {
	p.mu.Lock()
	p.gen++
	p.term = term
	p.items = nil
	p.page = 0
	p.offset = 0
	p.total = nil
	p.lastLen = 0
	p.fetched = false
	if p.loading {
		p.mu.Unlock()
		return nil
	}
	p.loading = true
	p.mu.Unlock()

	return p.run(ctx)
}

// LoadNextPage appends the next page. It is a no-op while a fetch is in
// flight or when no more rows exist.
func (p *Paginator[T]) LoadNextPage(ctx context.Context) error {
	p.mu.Lock()
	if p.loading || !p.hasMoreLocked() {
		p.mu.Unlock()
		return nil
	}
	p.loading = true
	p.mu.Unlock()

	return p.run(ctx)
}

// SetFilters replaces the equality filters used by the next fetch. Call Reset
// afterwards to reload.
func (p *Paginator[T]) SetFilters(filters map[string]any) {
	p.mu.Lock()
	p.cfg.filters = copyFilters(filters)
	p.mu.Unlock()
}

// run fetches until a response for the current generation arrives. The
// caller must have set loading.
func (p *Paginator[T]) run(ctx context.Context) error {
	name := p.src.Name()
	for {
		p.mu.Lock()
		gen, page := p.gen, p.page
		q := p.queryLocked()
		p.mu.Unlock()

		start := time.Now()
		res, err := p.src.Select(ctx, q)
		if p.cfg.observer != nil {
			p.cfg.observer.ObserveFetch(name, time.Since(start), err)
		}

		p.mu.Lock()
		if gen != p.gen {
			if cerr := ctx.Err(); cerr != nil {
				p.loading = false
				p.mu.Unlock()
				return cerr
			}
			p.mu.Unlock()
			continue
		}
		p.loading = false
		if err != nil {
			p.mu.Unlock()
			p.cfg.notifier.Notify(Notice{
				Title:       "Failed to load " + name,
				Description: err.Error(),
			})
			return fmt.Errorf("load %s page %d: %w", name, page, err)
		}
		p.appendLocked(res)
		p.mu.Unlock()
		return nil
	}
}

// queryLocked asks for the rows after the backend offset. The offset follows
// local prepends and removals so rows that shift never get skipped.
func (p *Paginator[T]) queryLocked() store.Query {
	from, to := p.offset, p.offset+p.cfg.pageSize-1
	return store.Query{
		Search:  p.term,
		Fields:  p.cfg.fields,
		Filters: copyFilters(p.cfg.filters),
		OrderBy: p.cfg.orderBy,
		Desc:    p.cfg.desc,
		From:    from,
		To:      to,
		Count:   true,
	}
}

// appendLocked adds a page, skipping rows already in the list. Rows shift
// between pages when records are created or deleted meanwhile.
func (p *Paginator[T]) appendLocked(res store.Result[T]) {
	seen := make(map[string]struct{}, len(p.items))
	for _, it := range p.items {
		seen[it.Key()] = struct{}{}
	}
	for _, row := range res.Rows {
		if _, dup := seen[row.Key()]; dup {
			continue
		}
		seen[row.Key()] = struct{}{}
		p.items = append(p.items, row)
	}
	p.page++
	p.offset += len(res.Rows)
	p.lastLen = len(res.Rows)
	p.total = res.Total
	p.fetched = true
}

func (p *Paginator[T]) hasMoreLocked() bool {
	if !p.fetched {
		return true
	}
	return HasMore(len(p.items), p.total, p.lastLen, p.cfg.pageSize)
}

// Items returns a copy of the loaded rows.
func (p *Paginator[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}

func (p *Paginator[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMoreLocked()
}

func (p *Paginator[T]) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

func (p *Paginator[T]) Term() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.term
}

// Total returns the backend row count from the last fetch, if it reported one.
func (p *Paginator[T]) Total() (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total == nil {
		return 0, false
	}
	return *p.total, true
}

// Page is the number of pages fetched since the last reset.
func (p *Paginator[T]) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

func (p *Paginator[T]) PageSize() int {
	return p.cfg.pageSize
}

// Prepend puts a newly created record at the top of the list.
func (p *Paginator[T]) Prepend(item T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append([]T{item}, p.items...)
	if p.fetched {
		p.offset++
	}
	if p.total != nil {
		n := *p.total + 1
		p.total = &n
	}
}

// Replace swaps the loaded record with the same key in place.
func (p *Paginator[T]) Replace(item T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		if p.items[i].Key() == item.Key() {
			p.items[i] = item
			return true
		}
	}
	return false
}

// Remove drops the loaded record with the given key.
func (p *Paginator[T]) Remove(key string) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		if p.items[i].Key() == key {
			removed := p.items[i]
			p.items = append(p.items[:i], p.items[i+1:]...)
			if p.offset > 0 {
				p.offset--
			}
			if p.total != nil && *p.total > 0 {
				n := *p.total - 1
				p.total = &n
			}
			return removed, true
		}
	}
	var zero T
	return zero, false
}
