package database

import (
	"fmt"

	"bizdocs-backend/models"
	"bizdocs-backend/store"

	"gorm.io/gorm"
)

// Collection schemas: which columns each list may search, filter and sort on.
var (
	ClientSchema = store.Schema{
		Name:   "clients",
		Search: []string{"company_name", "email"},
		Order:  []string{"company_name"},
	}
	CatalogSchema = store.Schema{
		Name:    "catalog_items",
		Search:  []string{"name", "type"},
		Filters: []string{"type"},
		Order:   []string{"name", "price"},
	}
	DocumentSchema = store.Schema{
		Name:    "documents",
		Search:  []string{"number", "client_name"},
		Filters: []string{"type", "status", "client_id"},
		Order:   []string{"date", "number", "grand_total"},
		Unique:  []string{"number"},
	}
	DocumentItemSchema = store.Schema{
		Name:    "document_items",
		Filters: []string{"document_id"},
		Order:   []string{"position"},
	}
	IdempotencySchema = store.Schema{
		Name:    "idempotency_keys",
		Filters: []string{"key"},
		Unique:  []string{"key"},
	}
)

// Stores bundles one collection per entity. Everything that talks to the
// backend receives its collections from here.
type Stores struct {
	Clients       store.Collection[models.Client]
	Catalog       store.Collection[models.CatalogItem]
	Documents     store.Collection[models.Document]
	DocumentItems store.Collection[models.DocumentItem]
	Idempotency   store.Collection[models.IdempotencyKey]
}

func GormStores(db *gorm.DB) *Stores {
	return &Stores{
		Clients:       store.NewGormCollection[models.Client](db, ClientSchema),
		Catalog:       store.NewGormCollection[models.CatalogItem](db, CatalogSchema),
		Documents:     store.NewGormCollection[models.Document](db, DocumentSchema),
		DocumentItems: store.NewGormCollection[models.DocumentItem](db, DocumentItemSchema),
		Idempotency:   store.NewGormCollection[models.IdempotencyKey](db, IdempotencySchema),
	}
}

// MemoryStores keeps everything in process. Data is lost on exit.
func MemoryStores() (*Stores, error) {
	clients, err := store.NewMemoryCollection[models.Client](ClientSchema)
	if err != nil {
		return nil, err
	}
	catalog, err := store.NewMemoryCollection[models.CatalogItem](CatalogSchema)
	if err != nil {
		return nil, err
	}
	docs, err := store.NewMemoryCollection[models.Document](DocumentSchema)
	if err != nil {
		return nil, err
	}
	items, err := store.NewMemoryCollection[models.DocumentItem](DocumentItemSchema)
	if err != nil {
		return nil, err
	}
	keys, err := store.NewMemoryCollection[models.IdempotencyKey](IdempotencySchema)
	if err != nil {
		return nil, err
	}
	return &Stores{
		Clients:       clients,
		Catalog:       catalog,
		Documents:     docs,
		DocumentItems: items,
		Idempotency:   keys,
	}, nil
}

// MustMemoryStores is MemoryStores for tests and tools where the model set is
// fixed at compile time.
func MustMemoryStores() *Stores {
	s, err := MemoryStores()
	if err != nil {
		panic(fmt.Sprintf("memory stores: %v", err))
	}
	return s
}
