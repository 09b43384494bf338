// Package ledger holds the editable line items of a document being authored and
// derives the document totals from them.
package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field names accepted by UpdateItem.
type Field string

const (
	FieldName     Field = "name"
	FieldQuantity Field = "quantity"
	FieldPrice    Field = "price"
)

var (
	ErrIncomplete   = errors.New("incomplete data: client company and every item name are required")
	ErrUnknownField = errors.New("unknown line item field")
	ErrNegative     = errors.New("quantity and price must not be negative")
)

// Item is one billable row. Total is always Quantity * Price; callers only ever
// receive copies, so it cannot be set on its own.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
}

// CatalogEntry is the part of a catalog item that gets copied into a ledger.
type CatalogEntry struct {
	Name  string
	Price decimal.Decimal
}

// Ledger is an ordered list of line items. Insertion order is display and
// submission order. It never holds fewer than one item.
type Ledger struct {
	items []Item
	newID func() string
}

type Option func(*Ledger)

// WithIDGenerator replaces the uuid generator used for new rows.
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) {
		if fn != nil {
			l.newID = fn
		}
	}
}

// New returns a ledger holding one blank row.
func New(opts ...Option) *Ledger {
	l := &Ledger{newID: uuid.NewString}
	for _, opt := range opts {
		opt(l)
	}
	l.AddItem()
	return l
}

// FromItems seeds a ledger with existing rows, e.g. the items of a stored
// document. Totals are recomputed and missing or repeated ids are replaced.
func FromItems(items []Item, opts ...Option) *Ledger {
	l := &Ledger{newID: uuid.NewString}
	for _, opt := range opts {
		opt(l)
	}
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.ID]; it.ID == "" || dup {
			it.ID = l.newID()
		}
		seen[it.ID] = struct{}{}
		if it.Quantity.IsNegative() {
			it.Quantity = decimal.Zero
		}
		if it.Price.IsNegative() {
			it.Price = decimal.Zero
		}
		it.Total = it.Quantity.Mul(it.Price)
		l.items = append(l.items, it)
	}
	if len(l.items) == 0 {
		l.AddItem()
	}
	return l
}

// AddItem appends a blank row: quantity 1, price 0.
func (l *Ledger) AddItem() Item {
	it := Item{
		ID:       l.newID(),
		Quantity: decimal.NewFromInt(1),
		Price:    decimal.Zero,
		Total:    decimal.Zero,
	}
	l.items = append(l.items, it)
	return it
}

// AddFromCatalog appends a row pre-filled from a catalog entry. The entry is
// copied; later catalog edits do not reach the ledger.
func (l *Ledger) AddFromCatalog(entry CatalogEntry) Item {
	price := entry.Price
	if price.IsNegative() {
		price = decimal.Zero
	}
	it := Item{
		ID:       l.newID(),
		Name:     entry.Name,
		Quantity: decimal.NewFromInt(1),
		Price:    price,
		Total:    price,
	}
	l.items = append(l.items, it)
	return it
}

// RemoveItem drops the row with the given id. Removing the last remaining row,
// or an unknown id, is a no-op. It reports whether a row was removed.
func (l *Ledger) RemoveItem(id string) bool {
	if len(l.items) <= 1 {
		return false
	}
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return true
}

// SetName renames a row. Unknown ids are ignored.
func (l *Ledger) SetName(id, name string) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.items[i].Name = name
	return true
}

// SetQuantity changes a row's quantity and recomputes its total.
func (l *Ledger) SetQuantity(id string, quantity decimal.Decimal) (bool, error) {
	if quantity.IsNegative() {
		return false, ErrNegative
	}
	i := l.index(id)
	if i < 0 {
		return false, nil
	}
	l.items[i].Quantity = quantity
	l.items[i].Total = quantity.Mul(l.items[i].Price)
	return true, nil
}

// SetPrice changes a row's unit price and recomputes its total.
func (l *Ledger) SetPrice(id string, price decimal.Decimal) (bool, error) {
	if price.IsNegative() {
		return false, ErrNegative
	}
	i := l.index(id)
	if i < 0 {
		return false, nil
	}
	l.items[i].Price = price
	l.items[i].Total = l.items[i].Quantity.Mul(price)
	return true, nil
}

// UpdateItem sets one field from raw form input. An empty number counts as zero.
// Unknown ids are a no-op; malformed or negative numbers leave the row untouched.
func (l *Ledger) UpdateItem(id string, field Field, value string) error {
	switch field {
	case FieldName:
		l.SetName(id, value)
		return nil
	case FieldQuantity, FieldPrice:
		n, err := parseAmount(value)
		if err != nil {
			return fmt.Errorf("parse %s: %w", field, err)
		}
		if field == FieldQuantity {
			_, err = l.SetQuantity(id, n)
		} else {
			_, err = l.SetPrice(id, n)
		}
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// Items returns a copy of the rows in order.
func (l *Ledger) Items() []Item {
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Item returns a copy of a single row.
func (l *Ledger) Item(id string) (Item, bool) {
	i := l.index(id)
	if i < 0 {
		return Item{}, false
	}
	return l.items[i], true
}

func (l *Ledger) Len() int {
	return len(l.items)
}

// Totals derives the document aggregates from the current rows.
func (l *Ledger) Totals(discountPct, taxPct decimal.Decimal) Totals {
	return ComputeTotals(l.items, discountPct, taxPct)
}

// Validate checks the ledger can be submitted for the given client company.
// Any gap yields the single ErrIncomplete.
func (l *Ledger) Validate(company string) error {
	if strings.TrimSpace(company) == "" {
		return ErrIncomplete
	}
	for _, it := range l.items {
		if strings.TrimSpace(it.Name) == "" {
			return ErrIncomplete
		}
	}
	return nil
}

func (l *Ledger) index(id string) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
