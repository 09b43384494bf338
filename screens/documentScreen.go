package screens

import (
	"context"

	"bizdocs-backend/collection"
	"bizdocs-backend/models"
	"bizdocs-backend/services"
	"bizdocs-backend/store"

	"github.com/shopspring/decimal"
)

// DocumentScreen is the document history: a searchable list narrowed by type
// and status, with cascading delete through the document service.
type DocumentScreen struct {
	*EntityScreen[models.Document]
	svc    *services.DocumentService
	typ    models.DocType
	status models.DocStatus
}

func NewDocumentScreen(ctx context.Context, docs store.Collection[models.Document], svc *services.DocumentService, notifier collection.Notifier, opts ...Option[models.Document]) *DocumentScreen {
	opts = append([]Option[models.Document]{
		WithLabel[models.Document]("document"),
		WithRemover[models.Document](svc.Delete),
	}, opts...)
	return &DocumentScreen{
		EntityScreen: NewEntityScreen(ctx, docs, notifier, opts...),
		svc:          svc,
	}
}

// Filter narrows the list to a type and status and reloads it with the
// current search term. Empty values mean all.
func (s *DocumentScreen) Filter(typ models.DocType, status models.DocStatus) error {
	s.typ, s.status = typ, status
	filters := map[string]any{}
	if typ != "" {
		filters["type"] = string(typ)
	}
	if status != "" {
		filters["status"] = string(status)
	}
	s.list.SetFilters(filters)
	return s.list.Reset(s.ctx, s.list.Term())
}

func (s *DocumentScreen) Filters() (models.DocType, models.DocStatus) {
	return s.typ, s.status
}

// LoadedTotal sums the grand totals of the rows currently listed.
func (s *DocumentScreen) LoadedTotal() decimal.Decimal {
	return services.SumGrandTotals(s.Items())
}

// Convert turns a listed quotation into a new invoice and lists it on top
// when it matches the active filters.
func (s *DocumentScreen) Convert(ctx context.Context, quotationID string) (models.DocumentWithItems, error) {
	inv, err := s.svc.ConvertQuotation(ctx, quotationID)
	if err != nil {
		s.notifier.Notify(collection.Notice{Title: "Failed to convert quotation", Description: err.Error()})
		return inv, err
	}
	if (s.typ == "" || s.typ == inv.Type) && (s.status == "" || s.status == inv.Status) {
		s.list.Prepend(inv.Document)
	}
	s.notifier.Notify(collection.Notice{Title: "Invoice created", Description: inv.Number + " for " + inv.ClientName + " was created."})
	return inv, nil
}
