package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bizdocs-backend/ledger"
	"bizdocs-backend/metrics"
	"bizdocs-backend/models"
	"bizdocs-backend/numbering"
	"bizdocs-backend/store"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ValidationError is a business rule violation detected before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Defaults apply when a draft leaves a value unset.
type Defaults struct {
	TaxPercent decimal.Decimal
	DueDays    int
}

// ClientSnapshot is the client data copied onto a document.
type ClientSnapshot struct {
	ID          *string
	CompanyName string
	Address     string
	Phone       string
	Email       string
}

// SnapshotOf copies a stored client by value.
func SnapshotOf(c models.Client) ClientSnapshot {
	id := c.ID
	return ClientSnapshot{
		ID:          &id,
		CompanyName: c.CompanyName,
		Address:     c.Address,
		Phone:       c.Phone,
		Email:       c.Email,
	}
}

// Draft is everything needed to write a document.
type Draft struct {
	Type            models.DocType
	Status          models.DocStatus
	Client          ClientSnapshot
	Date            time.Time
	DueDate         *time.Time
	Notes           string
	DiscountPercent decimal.Decimal
	TaxPercent      *decimal.Decimal
	Items           []ledger.Item
}

// DocumentService writes documents together with their items. Stored amounts
// are always recomputed here from the items.
type DocumentService struct {
	docs     store.Collection[models.Document]
	items    store.Collection[models.DocumentItem]
	numbers  *numbering.Allocator
	defaults Defaults
	now      func() time.Time
}

func NewDocumentService(
	docs store.Collection[models.Document],
	items store.Collection[models.DocumentItem],
	numbers *numbering.Allocator,
	defaults Defaults,
) *DocumentService {
	return &DocumentService{docs: docs, items: items, numbers: numbers, defaults: defaults, now: time.Now}
}

// NumberSeeder finds the highest number already stored under a prefix so a
// fresh counter continues after it.
func NumberSeeder(docs store.Collection[models.Document]) numbering.Seeder {
	return func(ctx context.Context, prefix string) (int64, error) {
		res, err := docs.Select(ctx, store.Query{Search: prefix, Fields: []string{"number"}, To: -1})
		if err != nil {
			return 0, err
		}
		var highest int64
		for _, d := range res.Rows {
			if n, ok := numbering.ParseSeq(d.Number, prefix); ok && n > highest {
				highest = n
			}
		}
		return highest, nil
	}
}

// Totals is the pure preview used by the composer and the totals endpoint.
func (s *DocumentService) Totals(items []ledger.Item, discountPct decimal.Decimal, taxPct *decimal.Decimal) ledger.Totals {
	return ledger.ComputeTotals(items, discountPct, s.taxOrDefault(taxPct))
}

// Create validates the draft, allocates a number and writes the document and
// its items. If an item write fails the partial document is removed again.
func (s *DocumentService) Create(ctx context.Context, d Draft) (models.DocumentWithItems, error) {
	var out models.DocumentWithItems

	if !d.Type.Valid() {
		return out, &ValidationError{Field: "type", Message: "unknown document type"}
	}
	l, doc, err := s.prepare(d)
	if err != nil {
		return out, err
	}

	number, err := s.numbers.Next(ctx, d.Type, time.Time(doc.Date))
	if err != nil {
		return out, err
	}
	doc.Number = number
	doc.Type = d.Type

	stored, err := s.docs.Insert(ctx, doc)
	if err != nil {
		return out, fmt.Errorf("create document: %w", err)
	}

	items, err := s.insertItems(ctx, stored.ID, l.Items())
	if err != nil {
		s.discard(ctx, stored.ID)
		return out, err
	}

	metrics.DocumentsCreatedTotal.WithLabelValues(string(stored.Type)).Inc()
	return models.DocumentWithItems{Document: stored, Items: items}, nil
}

// Update replaces the header and every item of an existing document. Number
// and type never change.
func (s *DocumentService) Update(ctx context.Context, id string, d Draft) (models.DocumentWithItems, error) {
	var out models.DocumentWithItems

	existing, err := s.docs.Get(ctx, id)
	if err != nil {
		return out, err
	}
	if d.Type != "" && d.Type != existing.Type {
		return out, &ValidationError{Field: "type", Message: "document type cannot change"}
	}
	d.Type = existing.Type

	l, doc, err := s.prepare(d)
	if err != nil {
		return out, err
	}

	patch := map[string]any{
		"status":           doc.Status,
		"client_id":        doc.ClientID,
		"client_name":      doc.ClientName,
		"client_address":   doc.ClientAddress,
		"client_phone":     doc.ClientPhone,
		"client_email":     doc.ClientEmail,
		"date":             doc.Date,
		"notes":            doc.Notes,
		"discount_percent": doc.DiscountPercent,
		"tax_percent":      doc.TaxPercent,
		"subtotal":         doc.Subtotal,
		"discount_amount":  doc.DiscountAmount,
		"tax_amount":       doc.TaxAmount,
		"grand_total":      doc.GrandTotal,
	}
	if doc.DueDate != nil {
		patch["due_date"] = doc.DueDate
	} else {
		patch["due_date"] = nil
	}
	if doc.ClientID == nil {
		patch["client_id"] = nil
	}

	previous, err := s.Items(ctx, id)
	if err != nil {
		return out, err
	}
	if _, err := s.items.DeleteWhere(ctx, map[string]any{"document_id": id}); err != nil {
		return out, fmt.Errorf("replace items of %s: %w", existing.Number, err)
	}
	items, err := s.insertItems(ctx, id, l.Items())
	if err != nil {
		s.restoreItems(ctx, id, previous)
		return out, err
	}
	stored, err := s.docs.Update(ctx, id, patch)
	if err != nil {
		s.restoreItems(ctx, id, previous)
		return out, fmt.Errorf("update document %s: %w", existing.Number, err)
	}
	return models.DocumentWithItems{Document: stored, Items: items}, nil
}

// restoreItems puts back the items a failed update replaced. Its own errors
// are dropped; the caller reports the update failure.
func (s *DocumentService) restoreItems(ctx context.Context, id string, previous []models.DocumentItem) {
	_, _ = s.items.DeleteWhere(ctx, map[string]any{"document_id": id})
	for _, it := range previous {
		_, _ = s.items.Insert(ctx, it)
	}
}

// SetStatus moves a document to another status.
func (s *DocumentService) SetStatus(ctx context.Context, id string, status models.DocStatus) (models.Document, error) {
	if !status.Valid() {
		return models.Document{}, &ValidationError{Field: "status", Message: "unknown status"}
	}
	return s.docs.Update(ctx, id, map[string]any{"status": status})
}

// Get returns a document with its items in position order.
func (s *DocumentService) Get(ctx context.Context, id string) (models.DocumentWithItems, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return models.DocumentWithItems{}, err
	}
	items, err := s.Items(ctx, id)
	if err != nil {
		return models.DocumentWithItems{}, err
	}
	return models.DocumentWithItems{Document: doc, Items: items}, nil
}

func (s *DocumentService) Items(ctx context.Context, documentID string) ([]models.DocumentItem, error) {
	res, err := s.items.Select(ctx, store.Query{
		Filters: map[string]any{"document_id": documentID},
		OrderBy: "position",
		To:      -1,
	})
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	return res.Rows, nil
}

// Delete removes the items first and the document second. When the items
// cannot be removed the document is left alone.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if _, err := s.items.DeleteWhere(ctx, map[string]any{"document_id": id}); err != nil {
		return fmt.Errorf("delete items of %s: %w", id, err)
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// QuotationDraft prepares an invoice draft from a stored quotation: client and
// items are copied, the invoice is dated today and due after the default term.
func (s *DocumentService) QuotationDraft(ctx context.Context, quotationID string) (Draft, error) {
	src, err := s.Get(ctx, quotationID)
	if err != nil {
		return Draft{}, err
	}
	if src.Type != models.DocQuotation {
		return Draft{}, &ValidationError{Field: "type", Message: "only quotations can be converted"}
	}

	today := s.today()
	due := today.AddDate(0, 0, s.defaults.DueDays)
	tax := src.TaxPercent

	items := make([]ledger.Item, 0, len(src.Items))
	for _, it := range src.Items {
		items = append(items, ledger.Item{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}

	return Draft{
		Type:   models.DocInvoice,
		Status: models.StatusDraft,
		Client: ClientSnapshot{
			ID:          src.ClientID,
			CompanyName: src.ClientName,
			Address:     src.ClientAddress,
			Phone:       src.ClientPhone,
			Email:       src.ClientEmail,
		},
		Date:            today,
		DueDate:         &due,
		Notes:           fmt.Sprintf("Based on quotation #%s dated %s", src.Number, time.Time(src.Date).Format("2/1/2006")),
		DiscountPercent: src.DiscountPercent,
		TaxPercent:      &tax,
		Items:           items,
	}, nil
}

// ConvertQuotation writes a new invoice from a quotation.
func (s *DocumentService) ConvertQuotation(ctx context.Context, quotationID string) (models.DocumentWithItems, error) {
	d, err := s.QuotationDraft(ctx, quotationID)
	if err != nil {
		return models.DocumentWithItems{}, err
	}
	return s.Create(ctx, d)
}

// SumGrandTotals adds up the grand totals of the given documents.
func SumGrandTotals(docs []models.Document) decimal.Decimal {
	sum := decimal.Zero
	for _, d := range docs {
		sum = sum.Add(d.GrandTotal)
	}
	return sum
}

func (s *DocumentService) prepare(d Draft) (*ledger.Ledger, models.Document, error) {
	var doc models.Document

	l := ledger.FromItems(d.Items)
	if err := l.Validate(d.Client.CompanyName); err != nil {
		return nil, doc, err
	}
	for _, it := range d.Items {
		if it.Quantity.IsNegative() || it.Price.IsNegative() {
			return nil, doc, &ValidationError{Field: "items", Message: "quantity and price must not be negative"}
		}
	}
	if !ledger.ValidPercent(d.DiscountPercent) {
		return nil, doc, &ValidationError{Field: "discount_percent", Message: "must be between 0 and 100"}
	}
	tax := s.taxOrDefault(d.TaxPercent)
	if !ledger.ValidPercent(tax) {
		return nil, doc, &ValidationError{Field: "tax_percent", Message: "must be between 0 and 100"}
	}
	status := d.Status
	if status == "" {
		status = models.StatusDraft
	}
	if !status.Valid() {
		return nil, doc, &ValidationError{Field: "status", Message: "unknown status"}
	}

	date := d.Date
	if date.IsZero() {
		date = s.today()
	}
	var due *datatypes.Date
	if d.Type.HasDueDate() && d.DueDate != nil {
		dd := datatypes.Date(truncateDay(*d.DueDate))
		due = &dd
	}

	totals := l.Totals(d.DiscountPercent, tax)
	doc = models.Document{
		Type:            d.Type,
		Status:          status,
		ClientID:        d.Client.ID,
		ClientName:      strings.TrimSpace(d.Client.CompanyName),
		ClientAddress:   strings.TrimSpace(d.Client.Address),
		ClientPhone:     strings.TrimSpace(d.Client.Phone),
		ClientEmail:     strings.TrimSpace(d.Client.Email),
		Date:            datatypes.Date(truncateDay(date)),
		DueDate:         due,
		Notes:           d.Notes,
		DiscountPercent: totals.DiscountPercent,
		TaxPercent:      totals.TaxPercent,
		Subtotal:        totals.Subtotal,
		DiscountAmount:  totals.DiscountAmount,
		TaxAmount:       totals.TaxAmount,
		GrandTotal:      totals.GrandTotal,
	}
	return l, doc, nil
}

func (s *DocumentService) insertItems(ctx context.Context, documentID string, rows []ledger.Item) ([]models.DocumentItem, error) {
	out := make([]models.DocumentItem, 0, len(rows))
	for i, it := range rows {
		stored, err := s.items.Insert(ctx, models.DocumentItem{
			DocumentID: documentID,
			Position:   i,
			Name:       strings.TrimSpace(it.Name),
			Quantity:   it.Quantity,
			Price:      it.Price,
			Total:      it.Total,
		})
		if err != nil {
			return nil, fmt.Errorf("insert item %d: %w", i+1, err)
		}
		out = append(out, stored)
	}
	return out, nil
}

// discard removes a half written document. Its own errors are dropped; the
// caller reports the first failure.
func (s *DocumentService) discard(ctx context.Context, id string) {
	_, _ = s.items.DeleteWhere(ctx, map[string]any{"document_id": id})
	_ = s.docs.Delete(ctx, id)
}

func (s *DocumentService) taxOrDefault(tax *decimal.Decimal) decimal.Decimal {
	if tax != nil {
		return *tax
	}
	return s.defaults.TaxPercent
}

func (s *DocumentService) today() time.Time {
	return truncateDay(s.now())
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
