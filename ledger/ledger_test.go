package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("row-%d", n)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewStartsWithBlankRow(t *testing.T) {
	t.Parallel()

	l := New(WithIDGenerator(seqIDs()))
	items := l.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 row, got %d", len(items))
	}
	it := items[0]
	if it.ID != "row-1" || it.Name != "" {
		t.Fatalf("unexpected row: %+v", it)
	}
	if !it.Quantity.Equal(decimal.NewFromInt(1)) || !it.Price.IsZero() || !it.Total.IsZero() {
		t.Fatalf("blank row should be qty 1, price 0, total 0, got %+v", it)
	}
}

func TestAddFromCatalogCopiesByValue(t *testing.T) {
	t.Parallel()

	l := New(WithIDGenerator(seqIDs()))
	entry := CatalogEntry{Name: "Konsultasi", Price: dec("2500000")}
	it := l.AddFromCatalog(entry)

	entry.Name = "changed"
	entry.Price = dec("1")

	got, ok := l.Item(it.ID)
	if !ok {
		t.Fatalf("catalog row %s not found", it.ID)
	}
	if got.Name != "Konsultasi" || !got.Price.Equal(dec("2500000")) || !got.Total.Equal(dec("2500000")) {
		t.Fatalf("catalog row should keep copied values, got %+v", got)
	}
	if !got.Quantity.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected qty 1, got %s", got.Quantity)
	}
}

func TestRemoveItemKeepsAtLeastOneRow(t *testing.T) {
	t.Parallel()

	l := New(WithIDGenerator(seqIDs()))
	only := l.Items()[0].ID
	if l.RemoveItem(only) {
		t.Fatalf("removing the only row must be a no-op")
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", l.Len())
	}

	second := l.AddItem()
	if !l.RemoveItem(only) {
		t.Fatalf("expected first row to be removed")
	}
	items := l.Items()
	if len(items) != 1 || items[0].ID != second.ID {
		t.Fatalf("unexpected rows after removal: %+v", items)
	}
}

func TestRemoveUnknownIDIsNoop(t *testing.T) {
	t.Parallel()

	l := New(WithIDGenerator(seqIDs()))
	l.AddItem()
	l.AddItem()
	before := l.Items()

	if l.RemoveItem("missing") {
		t.Fatalf("unknown id must not report a removal")
	}
	after := l.Items()
	if len(after) != len(before) {
		t.Fatalf("expected %d rows, got %d", len(before), len(after))
	}
	for i := range before {
		if before[i].ID != after[i].ID {
			t.Fatalf("row order changed at %d: %s != %s", i, before[i].ID, after[i].ID)
		}
	}
}

func TestUpdateItemKeepsTotalInvariant(t *testing.T) {
	t.Parallel()

	l := New(WithIDGenerator(seqIDs()))
	id := l.Items()[0].ID

	steps := []struct {
		field Field
		value string
	}{
		{FieldPrice, "150000"},
		{FieldQuantity, "3"},
		{FieldName, "Desain logo"},
		{FieldQuantity, "2.5"},
		{FieldPrice, ""},
		{FieldPrice, "99.99"},
		{FieldQuantity, "0"},
	}
	for _, s := range steps {
		if err := l.UpdateItem(id, s.field, s.value); err != nil {
			t.Fatalf("update %s=%q: %v", s.field, s.value, err)
		}
		for _, it := range l.Items() {
			if !it.Total.Equal(it.Quantity.Mul(it.Price)) {
				t.Fatalf("after %s=%q total %s != %s x %s", s.field, s.value, it.Total, it.Quantity, it.Price)
			}
		}
	}
}

func TestUpdateItemErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		field   Field
		value   string
		wantErr error
	}{
		{name: "unknown field", field: Field("discount"), value: "1", wantErr: ErrUnknownField},
		{name: "negative quantity", field: FieldQuantity, value: "-1", wantErr: ErrNegative},
		{name: "negative price", field: FieldPrice, value: "-0.01", wantErr: ErrNegative},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			l := New(WithIDGenerator(seqIDs()))
			id := l.Items()[0].ID
			err := l.UpdateItem(id, tc.field, tc.value)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			it, _ := l.Item(id)
			if !it.Quantity.Equal(decimal.NewFromInt(1)) || !it.Price.IsZero() {
				t.Fatalf("row must stay untouched, got %+v", it)
			}
		})
	}

	t.Run("malformed number", func(t *testing.T) {
		t.Parallel()

		l := New(WithIDGenerator(seqIDs()))
		id := l.Items()[0].ID
		if err := l.UpdateItem(id, FieldPrice, "abc"); err == nil {
			t.Fatalf("expected parse error")
		}
	})
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	t.Parallel()

	l := New(WithIDGenerator(seqIDs()))
	if err := l.UpdateItem("missing", FieldPrice, "100"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.Items()[0].Price.IsZero() {
		t.Fatalf("existing row must not change")
	}
}

func TestFromItemsRecomputesAndDedupes(t *testing.T) {
	t.Parallel()

	l := FromItems([]Item{
		{ID: "a", Name: "One", Quantity: dec("2"), Price: dec("10"), Total: dec("999")},
		{ID: "a", Name: "Two", Quantity: dec("1"), Price: dec("5")},
		{Name: "Three", Quantity: dec("1"), Price: dec("1")},
	}, WithIDGenerator(seqIDs()))

	items := l.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(items))
	}
	if !items[0].Total.Equal(dec("20")) {
		t.Fatalf("stale total not recomputed: %s", items[0].Total)
	}
	ids := map[string]bool{}
	for _, it := range items {
		if it.ID == "" || ids[it.ID] {
			t.Fatalf("ids must be unique and non-empty: %+v", items)
		}
		ids[it.ID] = true
	}

	if FromItems(nil).Len() != 1 {
		t.Fatalf("empty seed must still hold one row")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		company string
		names   []string
		wantErr bool
	}{
		{name: "complete", company: "PT Maju Jaya", names: []string{"Jasa", "Barang"}},
		{name: "empty company", company: "  ", names: []string{"Jasa"}, wantErr: true},
		{name: "unnamed row", company: "PT Maju Jaya", names: []string{"Jasa", ""}, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rows := make([]Item, 0, len(tc.names))
			for _, n := range tc.names {
				rows = append(rows, Item{Name: n, Quantity: dec("1"), Price: dec("1")})
			}
			err := FromItems(rows).Validate(tc.company)
			if tc.wantErr && !errors.Is(err, ErrIncomplete) {
				t.Fatalf("expected ErrIncomplete, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	t.Parallel()

	l := New()
	items := l.Items()
	items[0].Total = dec("42")
	if !l.Items()[0].Total.IsZero() {
		t.Fatalf("mutating the returned slice must not reach the ledger")
	}
}
