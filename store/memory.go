package store

import (
	"cmp"
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gschema "gorm.io/gorm/schema"
)

type memEntry[T any] struct {
	rec T
	seq int64
}

// MemoryCollection is an in-process Collection kept in a go-cache map. Columns
// are resolved with gorm's naming rules so it accepts the same queries and
// patches as GormCollection. Used by STORE_DRIVER=memory and in tests.
type MemoryCollection[T any] struct {
	mu     sync.Mutex
	items  *cache.Cache
	schema Schema
	fields *gschema.Schema
	seq    int64
	now    func() time.Time
}

func NewMemoryCollection[T any](schema Schema) (*MemoryCollection[T], error) {
	parsed, err := gschema.Parse(new(T), &sync.Map{}, gschema.NamingStrategy{})
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", schema.Name, err)
	}
	return &MemoryCollection[T]{
		items:  cache.New(cache.NoExpiration, 0),
		schema: schema,
		fields: parsed,
		now:    time.Now,
	}, nil
}

func (m *MemoryCollection[T]) Name() string { return m.schema.Name }

func (m *MemoryCollection[T]) Select(ctx context.Context, q Query) (Result[T], error) {
	var out Result[T]
	if err := ctx.Err(); err != nil {
		return out, err
	}

	term := strings.ToLower(strings.TrimSpace(q.Search))
	var searchCols []string
	if term != "" {
		cols, err := m.schema.searchColumns(q.Fields)
		if err != nil {
			return out, err
		}
		searchCols = cols
	}
	filterCols, err := m.schema.checkFilters(q.Filters)
	if err != nil {
		return out, err
	}
	if err := m.schema.checkOrder(q.OrderBy); err != nil {
		return out, err
	}

	var matched []memEntry[T]
	for _, e := range m.snapshot() {
		rv := reflect.ValueOf(&e.rec).Elem()
		if term != "" && !m.containsAny(ctx, rv, searchCols, term) {
			continue
		}
		if !m.matchesFilters(ctx, rv, filterCols, q.Filters) {
			continue
		}
		matched = append(matched, e)
	}
	m.sortEntries(ctx, matched, q.OrderBy, q.Desc)

	if q.Count {
		total := int64(len(matched))
		out.Total = &total
	}

	page := window(matched, q.From, q.To)
	rows := make([]T, 0, len(page))
	for _, e := range page {
		rows = append(rows, e.rec)
	}
	if err := decodeRows(m.schema.Name, rows); err != nil {
		return out, err
	}
	out.Rows = rows
	return out, nil
}

func (m *MemoryCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	v, ok := m.items.Get(id)
	if !ok {
		return zero, ErrNotFound
	}
	rec := v.(memEntry[T]).rec
	return rec, decodeOne(m.schema.Name, &rec)
}

func (m *MemoryCollection[T]) Insert(ctx context.Context, rec T) (T, error) {
	if err := ctx.Err(); err != nil {
		return rec, err
	}
	if h, ok := any(&rec).(interface{ BeforeCreate(*gorm.DB) error }); ok {
		if err := h.BeforeCreate(nil); err != nil {
			return rec, fmt.Errorf("insert %s: %w", m.schema.Name, err)
		}
	}
	rv := reflect.ValueOf(&rec).Elem()
	if f := m.fields.LookUpField("created_at"); f != nil {
		if _, isZero := f.ValueOf(ctx, rv); isZero {
			if err := f.Set(ctx, rv, m.now()); err != nil {
				return rec, fmt.Errorf("insert %s: %w", m.schema.Name, err)
			}
		}
	}
	id, err := m.idOf(ctx, rv)
	if err != nil {
		return rec, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkUnique(ctx, rv, id); err != nil {
		return rec, err
	}
	m.seq++
	if err := m.items.Add(id, memEntry[T]{rec: rec, seq: m.seq}, cache.NoExpiration); err != nil {
		return rec, fmt.Errorf("insert %s: %w", m.schema.Name, err)
	}
	return rec, nil
}

func (m *MemoryCollection[T]) Update(ctx context.Context, id string, patch map[string]any) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.items.Get(id)
	if !ok {
		return zero, ErrNotFound
	}
	e := v.(memEntry[T])
	rv := reflect.ValueOf(&e.rec).Elem()
	for col, val := range patch {
		f := m.fields.LookUpField(col)
		if f == nil || col == "id" {
			return zero, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, m.schema.Name, col)
		}
		if err := f.Set(ctx, rv, val); err != nil {
			return zero, fmt.Errorf("update %s: %w", m.schema.Name, err)
		}
	}
	rec := e.rec
	if err := decodeOne(m.schema.Name, &rec); err != nil {
		return zero, err
	}
	if err := m.checkUnique(ctx, rv, id); err != nil {
		return zero, err
	}
	m.items.Set(id, e, cache.NoExpiration)
	return rec, nil
}

func (m *MemoryCollection[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items.Get(id); !ok {
		return ErrNotFound
	}
	m.items.Delete(id)
	return nil
}

func (m *MemoryCollection[T]) DeleteWhere(ctx context.Context, filters map[string]any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, ErrUnsafeDelete
	}
	cols, err := m.schema.checkFilters(filters)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key, item := range m.items.Items() {
		e := item.Object.(memEntry[T])
		rv := reflect.ValueOf(&e.rec).Elem()
		if m.matchesFilters(ctx, rv, cols, filters) {
			m.items.Delete(key)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored records.
func (m *MemoryCollection[T]) Len() int {
	return m.items.ItemCount()
}

func (m *MemoryCollection[T]) snapshot() []memEntry[T] {
	items := m.items.Items()
	out := make([]memEntry[T], 0, len(items))
	for _, it := range items {
		out = append(out, it.Object.(memEntry[T]))
	}
	return out
}

func (m *MemoryCollection[T]) idOf(ctx context.Context, rv reflect.Value) (string, error) {
	f := m.fields.LookUpField("id")
	if f == nil {
		return "", fmt.Errorf("%w: %s has no id column", ErrUnknownColumn, m.schema.Name)
	}
	v, _ := f.ValueOf(ctx, rv)
	id := fmt.Sprint(v)
	if id == "" {
		return "", fmt.Errorf("insert %s: empty id", m.schema.Name)
	}
	return id, nil
}

// checkUnique rejects a record whose unique columns collide with another
// stored record. The caller holds m.mu.
func (m *MemoryCollection[T]) checkUnique(ctx context.Context, rv reflect.Value, id string) error {
	for _, col := range m.schema.Unique {
		val := m.column(ctx, rv, col)
		for key, item := range m.items.Items() {
			if key == id {
				continue
			}
			e := item.Object.(memEntry[T])
			if compareValues(m.column(ctx, reflect.ValueOf(&e.rec).Elem(), col), val) == 0 {
				return fmt.Errorf("%w: %s.%s", ErrDuplicate, m.schema.Name, col)
			}
		}
	}
	return nil
}

func (m *MemoryCollection[T]) column(ctx context.Context, rv reflect.Value, col string) any {
	f := m.fields.LookUpField(col)
	if f == nil {
		return nil
	}
	v, _ := f.ValueOf(ctx, rv)
	return v
}

func (m *MemoryCollection[T]) containsAny(ctx context.Context, rv reflect.Value, cols []string, term string) bool {
	for _, col := range cols {
		v := reflect.Indirect(reflect.ValueOf(m.column(ctx, rv, col)))
		if v.IsValid() && v.Kind() == reflect.String && strings.Contains(strings.ToLower(v.String()), term) {
			return true
		}
	}
	return false
}

func (m *MemoryCollection[T]) matchesFilters(ctx context.Context, rv reflect.Value, cols []string, filters map[string]any) bool {
	for _, col := range cols {
		if compareValues(m.column(ctx, rv, col), filters[col]) != 0 {
			return false
		}
	}
	return true
}

// sortEntries orders by col, falling back to insertion order for ties.
func (m *MemoryCollection[T]) sortEntries(ctx context.Context, entries []memEntry[T], col string, desc bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		if col != "" {
			a := m.column(ctx, reflect.ValueOf(&entries[i].rec).Elem(), col)
			b := m.column(ctx, reflect.ValueOf(&entries[j].rec).Elem(), col)
			if c := compareValues(a, b); c != 0 {
				if desc {
					return c > 0
				}
				return c < 0
			}
		}
		if desc {
			return entries[i].seq > entries[j].seq
		}
		return entries[i].seq < entries[j].seq
	})
}

func window[E any](rows []E, from, to int) []E {
	if from < 0 {
		from = 0
	}
	if from >= len(rows) {
		return nil
	}
	end := len(rows)
	if to >= from && to+1 < end {
		end = to + 1
	}
	return rows[from:end]
}

var timeType = reflect.TypeOf(time.Time{})

func compareValues(a, b any) int {
	if da, ok := a.(decimal.Decimal); ok {
		if db, ok := b.(decimal.Decimal); ok {
			return da.Cmp(db)
		}
	}
	va := reflect.Indirect(reflect.ValueOf(a))
	vb := reflect.Indirect(reflect.ValueOf(b))
	if !va.IsValid() || !vb.IsValid() {
		return cmp.Compare(boolInt(va.IsValid()), boolInt(vb.IsValid()))
	}
	switch {
	case va.Kind() == reflect.Struct && va.Type().ConvertibleTo(timeType) && vb.Type().ConvertibleTo(timeType):
		ta := va.Convert(timeType).Interface().(time.Time)
		tb := vb.Convert(timeType).Interface().(time.Time)
		return ta.Compare(tb)
	case va.Kind() == reflect.String && vb.Kind() == reflect.String:
		return strings.Compare(va.String(), vb.String())
	case va.CanInt() && vb.CanInt():
		return cmp.Compare(va.Int(), vb.Int())
	case va.CanFloat() && vb.CanFloat():
		return cmp.Compare(va.Float(), vb.Float())
	}
	return strings.Compare(fmt.Sprint(va.Interface()), fmt.Sprint(vb.Interface()))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
