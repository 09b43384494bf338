package screens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bizdocs-backend/collection"
	"bizdocs-backend/ledger"
	"bizdocs-backend/models"
	"bizdocs-backend/services"
	"bizdocs-backend/store"

	"github.com/shopspring/decimal"
)

// Composer authors one document: a header, the editable ledger and pickers for
// clients, catalog items and (for invoices) a source quotation.
type Composer struct {
	svc      *services.DocumentService
	notifier collection.Notifier
	ctx      context.Context

	Clients    *collection.Paginator[models.Client]
	Catalog    *collection.Paginator[models.CatalogItem]
	Quotations *collection.Paginator[models.Document]

	ledger   *ledger.Ledger
	typ      models.DocType
	client   services.ClientSnapshot
	date     time.Time
	dueDate  *time.Time
	notes    string
	discount decimal.Decimal
	tax      *decimal.Decimal
}

func NewComposer(ctx context.Context, stores StoresView, svc *services.DocumentService, notifier collection.Notifier, typ models.DocType) *Composer {
	if notifier == nil {
		notifier = collection.LogNotifier{}
	}
	return &Composer{
		svc:      svc,
		notifier: notifier,
		ctx:      ctx,
		Clients:  collection.NewPaginator[models.Client](stores.Clients, collection.WithNotifier(notifier)),
		Catalog:  collection.NewPaginator[models.CatalogItem](stores.Catalog, collection.WithNotifier(notifier)),
		Quotations: collection.NewPaginator[models.Document](stores.Documents,
			collection.WithNotifier(notifier),
			collection.WithFilters(map[string]any{"type": string(models.DocQuotation)}),
		),
		ledger:   ledger.New(),
		typ:      typ,
		discount: decimal.Zero,
	}
}

// StoresView is what the composer reads its pickers from.
type StoresView struct {
	Clients   store.Collection[models.Client]
	Catalog   store.Collection[models.CatalogItem]
	Documents store.Collection[models.Document]
}

// Open loads the first page of every picker.
func (c *Composer) Open() error {
	return errors.Join(
		c.Clients.Reset(c.ctx, ""),
		c.Catalog.Reset(c.ctx, ""),
		c.Quotations.Reset(c.ctx, ""),
	)
}

func (c *Composer) SetType(typ models.DocType) error {
	if !typ.Valid() {
		return &services.ValidationError{Field: "type", Message: fmt.Sprintf("unknown document type %q", typ)}
	}
	c.typ = typ
	return nil
}

func (c *Composer) Type() models.DocType { return c.typ }

// SelectClient copies the client's contact data into the header.
func (c *Composer) SelectClient(client models.Client) {
	c.client = services.SnapshotOf(client)
}

// SetClient fills the header by hand, detached from any stored client.
func (c *Composer) SetClient(snap services.ClientSnapshot) {
	c.client = snap
}

func (c *Composer) Client() services.ClientSnapshot { return c.client }

func (c *Composer) SetDates(date time.Time, due *time.Time) {
	c.date = date
	c.dueDate = due
}

func (c *Composer) SetNotes(notes string) { c.notes = notes }

func (c *Composer) SetDiscount(pct decimal.Decimal) error {
	if !ledger.ValidPercent(pct) {
		return &services.ValidationError{Field: "discount_percent", Message: "must be between 0 and 100"}
	}
	c.discount = pct
	return nil
}

func (c *Composer) SetTax(pct decimal.Decimal) error {
	if !ledger.ValidPercent(pct) {
		return &services.ValidationError{Field: "tax_percent", Message: "must be between 0 and 100"}
	}
	c.tax = &pct
	return nil
}

func (c *Composer) AddItem() ledger.Item { return c.ledger.AddItem() }

// AddCatalogItem appends a row holding a copy of the catalog item's name and price.
func (c *Composer) AddCatalogItem(item models.CatalogItem) ledger.Item {
	return c.ledger.AddFromCatalog(ledger.CatalogEntry{Name: item.Name, Price: item.Price})
}

func (c *Composer) RemoveItem(id string) bool { return c.ledger.RemoveItem(id) }

func (c *Composer) UpdateItem(id string, field ledger.Field, value string) error {
	return c.ledger.UpdateItem(id, field, value)
}

func (c *Composer) Items() []ledger.Item { return c.ledger.Items() }

// Totals previews the aggregates for the current rows.
func (c *Composer) Totals() ledger.Totals {
	return c.svc.Totals(c.ledger.Items(), c.discount, c.tax)
}

// FromQuotation replaces the draft with an invoice based on the quotation.
func (c *Composer) FromQuotation(ctx context.Context, quotationID string) error {
	d, err := c.svc.QuotationDraft(ctx, quotationID)
	if err != nil {
		c.notifier.Notify(collection.Notice{Title: "Failed to load quotation", Description: err.Error()})
		return err
	}
	c.typ = d.Type
	c.client = d.Client
	c.date = d.Date
	c.dueDate = d.DueDate
	c.notes = d.Notes
	c.discount = d.DiscountPercent
	c.tax = d.TaxPercent
	c.ledger = ledger.FromItems(d.Items)
	return nil
}

// Draft is the current header and rows.
func (c *Composer) Draft() services.Draft {
	return services.Draft{
		Type:            c.typ,
		Client:          c.client,
		Date:            c.date,
		DueDate:         c.dueDate,
		Notes:           c.notes,
		DiscountPercent: c.discount,
		TaxPercent:      c.tax,
		Items:           c.ledger.Items(),
	}
}

// Submit validates locally, then writes the document. Incomplete drafts never
// reach the store.
func (c *Composer) Submit(ctx context.Context) (models.DocumentWithItems, error) {
	if err := c.ledger.Validate(c.client.CompanyName); err != nil {
		c.notifier.Notify(collection.Notice{Title: "Incomplete data", Description: "Fill in the client company and every item name."})
		return models.DocumentWithItems{}, err
	}
	doc, err := c.svc.Create(ctx, c.Draft())
	if err != nil {
		c.notifier.Notify(collection.Notice{Title: "Failed to save document", Description: err.Error()})
		return doc, err
	}
	c.notifier.Notify(collection.Notice{Title: "Saved", Description: doc.Number + " was created."})
	return doc, nil
}
