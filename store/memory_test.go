package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type widget struct {
	ID        string          `json:"id" gorm:"primaryKey" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Kind      string          `json:"kind"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

func (w *widget) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

func (w widget) Key() string { return w.ID }

var widgetSchema = Schema{
	Name:    "widgets",
	Search:  []string{"name", "kind"},
	Filters: []string{"kind"},
	Order:   []string{"name", "price"},
}

func newWidgets(t *testing.T) *MemoryCollection[widget] {
	t.Helper()
	m, err := NewMemoryCollection[widget](widgetSchema)
	if err != nil {
		t.Fatalf("new collection: %v", err)
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	m.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return m
}

func seedWidgets(t *testing.T, m *MemoryCollection[widget], count int) []widget {
	t.Helper()
	out := make([]widget, 0, count)
	for i := 0; i < count; i++ {
		kind := "goods"
		if i%2 == 1 {
			kind = "service"
		}
		w, err := m.Insert(context.Background(), widget{
			Name:  fmt.Sprintf("Widget %02d", i),
			Kind:  kind,
			Price: decimal.NewFromInt(int64(100 * (i + 1))),
		})
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		out = append(out, w)
	}
	return out
}

func TestMemorySelectPagesNewestFirst(t *testing.T) {
	t.Parallel()

	m := newWidgets(t)
	seeded := seedWidgets(t, m, 25)

	res, err := m.Select(context.Background(), Query{OrderBy: "created_at", Desc: true, From: 0, To: 9, Count: true})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if res.Total == nil || *res.Total != 25 {
		t.Fatalf("expected total 25, got %v", res.Total)
	}
	if len(res.Rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(res.Rows))
	}
	if res.Rows[0].ID != seeded[24].ID {
		t.Fatalf("expected newest row first, got %s", res.Rows[0].Name)
	}

	from, to := Page(2, 10)
	res, err = m.Select(context.Background(), Query{OrderBy: "created_at", Desc: true, From: from, To: to})
	if err != nil {
		t.Fatalf("select page 2: %v", err)
	}
	if len(res.Rows) != 5 || res.Total != nil {
		t.Fatalf("expected 5 rows and no total, got %d rows total=%v", len(res.Rows), res.Total)
	}
	if res.Rows[4].ID != seeded[0].ID {
		t.Fatalf("expected oldest row last, got %s", res.Rows[4].Name)
	}
}

func TestMemorySelectSearchAndFilter(t *testing.T) {
	t.Parallel()

	m := newWidgets(t)
	seedWidgets(t, m, 6)

	tests := []struct {
		name  string
		query Query
		want  int
	}{
		{name: "empty search matches all", query: Query{To: -1}, want: 6},
		{name: "case insensitive name", query: Query{Search: "wIdGeT 0", To: -1}, want: 6},
		{name: "matches kind", query: Query{Search: "SERV", To: -1}, want: 3},
		{name: "restricted fields", query: Query{Search: "serv", Fields: []string{"name"}, To: -1}, want: 0},
		{name: "filter", query: Query{Filters: map[string]any{"kind": "goods"}, To: -1}, want: 3},
		{name: "search and filter", query: Query{Search: "03", Filters: map[string]any{"kind": "service"}, To: -1}, want: 1},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res, err := m.Select(context.Background(), tc.query)
			if err != nil {
				t.Fatalf("select: %v", err)
			}
			if len(res.Rows) != tc.want {
				t.Fatalf("expected %d rows, got %d", tc.want, len(res.Rows))
			}
		})
	}
}

func TestMemorySelectRejectsUnknownColumns(t *testing.T) {
	t.Parallel()

	m := newWidgets(t)
	queries := []Query{
		{Search: "x", Fields: []string{"price"}},
		{Filters: map[string]any{"name": "x"}},
		{OrderBy: "kind"},
	}
	for _, q := range queries {
		if _, err := m.Select(context.Background(), q); !errors.Is(err, ErrUnknownColumn) {
			t.Fatalf("expected ErrUnknownColumn for %+v, got %v", q, err)
		}
	}
}

func TestMemoryOrderByDecimal(t *testing.T) {
	t.Parallel()

	m := newWidgets(t)
	seedWidgets(t, m, 4)

	res, err := m.Select(context.Background(), Query{OrderBy: "price", Desc: true, To: -1})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !res.Rows[0].Price.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("expected most expensive first, got %s", res.Rows[0].Price)
	}
}

func TestMemoryUpdate(t *testing.T) {
	t.Parallel()

	m := newWidgets(t)
	w := seedWidgets(t, m, 1)[0]

	got, err := m.Update(context.Background(), w.ID, map[string]any{
		"name":  "Renamed",
		"price": decimal.RequireFromString("12.50"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Renamed" || !got.Price.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.Kind != w.Kind || !got.CreatedAt.Equal(w.CreatedAt) {
		t.Fatalf("untouched columns changed: %+v", got)
	}

	if _, err := m.Update(context.Background(), "missing", map[string]any{"name": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := m.Update(context.Background(), w.ID, map[string]any{"bogus": 1}); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestMemoryUpdateRejectsUndecodablePatch(t *testing.T) {
	t.Parallel()

	m := newWidgets(t)
	w := seedWidgets(t, m, 3)[1]

	_, err := m.Update(context.Background(), w.ID, map[string]any{"name": "", "kind": "spare"})
	var derr *DecodeError
	if !errors.As(err, &derr) || derr.Field != "name" {
		t.Fatalf("expected DecodeError on name, got %v", err)
	}

	stored, err := m.Get(context.Background(), w.ID)
	if err != nil {
		t.Fatalf("get after rejected patch: %v", err)
	}
	if stored.Name != w.Name || stored.Kind != w.Kind {
		t.Fatalf("rejected patch was stored: %+v", stored)
	}
	if _, err := m.Select(context.Background(), Query{To: -1}); err != nil {
		t.Fatalf("select after rejected patch: %v", err)
	}
}

func TestMemoryUniqueColumns(t *testing.T) {
	t.Parallel()

	schema := widgetSchema
	schema.Unique = []string{"name"}
	m, err := NewMemoryCollection[widget](schema)
	if err != nil {
		t.Fatalf("new collection: %v", err)
	}
	ctx := context.Background()

	a, err := m.Insert(ctx, widget{Name: "Anvil"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	b, err := m.Insert(ctx, widget{Name: "Bolt"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := m.Insert(ctx, widget{Name: "Anvil"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on insert, got %v", err)
	}
	if _, err := m.Update(ctx, b.ID, map[string]any{"name": "Anvil"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on update, got %v", err)
	}
	if _, err := m.Update(ctx, a.ID, map[string]any{"name": "Anvil", "kind": "tools"}); err != nil {
		t.Fatalf("rewriting its own value must pass: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", m.Len())
	}
}

func TestMemoryConcurrentUniqueInsert(t *testing.T) {
	t.Parallel()

	schema := widgetSchema
	schema.Unique = []string{"name"}
	m, err := NewMemoryCollection[widget](schema)
	if err != nil {
		t.Fatalf("new collection: %v", err)
	}

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Insert(context.Background(), widget{Name: "same"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case !errors.Is(err, ErrDuplicate):
				t.Errorf("unexpected insert error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || m.Len() != 1 {
		t.Fatalf("expected exactly one stored record, got created=%d len=%d", created, m.Len())
	}
}

func TestMemoryDelete(t *testing.T) {
	t.Parallel()

	m := newWidgets(t)
	rows := seedWidgets(t, m, 4)

	if err := m.Delete(context.Background(), rows[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.Delete(context.Background(), rows[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	n, err := m.DeleteWhere(context.Background(), map[string]any{"kind": "service"})
	if err != nil {
		t.Fatalf("delete where: %v", err)
	}
	if n != 2 || m.Len() != 1 {
		t.Fatalf("expected 2 deleted and 1 left, got %d deleted and %d left", n, m.Len())
	}
	if _, err := m.DeleteWhere(context.Background(), nil); !errors.Is(err, ErrUnsafeDelete) {
		t.Fatalf("expected ErrUnsafeDelete, got %v", err)
	}
}

func TestMemoryDecodeError(t *testing.T) {
	t.Parallel()

	m := newWidgets(t)
	bad, err := m.Insert(context.Background(), widget{Kind: "goods"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	_, err = m.Select(context.Background(), Query{To: -1})
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if derr.Field != "name" || derr.Tag != "required" || derr.ID != bad.ID {
		t.Fatalf("unexpected decode error: %+v", derr)
	}
}

func TestEscapeLike(t *testing.T) {
	t.Parallel()

	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Fatalf("unexpected escape: %s", got)
	}
}
