package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"bizdocs-backend/database"
	"bizdocs-backend/models"
	"bizdocs-backend/numbering"
	"bizdocs-backend/services"
	"bizdocs-backend/store"

	"github.com/shopspring/decimal"
)

func newComposeEnv(t *testing.T) (*database.Stores, *services.DocumentService) {
	t.Helper()
	stores := database.MustMemoryStores()
	seq := numbering.NewLocalSequencer(services.NumberSeeder(stores.Documents))
	svc := services.NewDocumentService(stores.Documents, stores.DocumentItems, numbering.NewAllocator(seq), services.Defaults{
		TaxPercent: decimal.NewFromInt(11),
		DueDays:    30,
	})
	return stores, svc
}

func TestComposeInvoice(t *testing.T) {
	t.Parallel()

	stores, svc := newComposeEnv(t)
	ctx := context.Background()
	if _, err := stores.Clients.Insert(ctx, models.Client{CompanyName: "Acme Corp", Email: "ap@acme.test"}); err != nil {
		t.Fatalf("seed client: %v", err)
	}
	if _, err := stores.Catalog.Insert(ctx, models.CatalogItem{Name: "Hosting 1 year", Type: "service", Price: decimal.NewFromInt(4000000)}); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}

	script := strings.Join([]string{
		"client acme",
		"item Website development; 2; 1500000",
		"catalog hosting",
		"discount 5",
		"save",
	}, "\n")
	var out bytes.Buffer
	if err := compose(ctx, models.DocInvoice, stores, svc, strings.NewReader(script), &out); err != nil {
		t.Fatalf("compose: %v", err)
	}

	got := out.String()
	for _, want := range []string{"client: Acme Corp", "saved INV-", "7381500.00"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}

	res, err := stores.Documents.Select(ctx, store.Query{To: -1})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].ClientEmail != "ap@acme.test" {
		t.Fatalf("unexpected documents: %+v", res.Rows)
	}
	items, err := svc.Items(ctx, res.Rows[0].ID)
	if err != nil || len(items) != 2 {
		t.Fatalf("expected 2 stored items, got %d (%v)", len(items), err)
	}
}

func TestComposeIncompleteDraftIsNotSaved(t *testing.T) {
	t.Parallel()

	stores, svc := newComposeEnv(t)
	script := "item Consulting; 1; 100\nsave\nbogus\n:q\n"
	var out bytes.Buffer
	if err := compose(context.Background(), models.DocQuotation, stores, svc, strings.NewReader(script), &out); err != nil {
		t.Fatalf("compose: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "! Incomplete data") || !strings.Contains(got, `unknown command "bogus"`) {
		t.Fatalf("unexpected output:\n%s", got)
	}
	res, err := stores.Documents.Select(context.Background(), store.Query{To: -1})
	if err != nil || len(res.Rows) != 0 {
		t.Fatalf("nothing may be stored, got %d (%v)", len(res.Rows), err)
	}
}
