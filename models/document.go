package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DocType string

const (
	DocInvoice   DocType = "invoice"
	DocQuotation DocType = "quotation"
	DocBAST      DocType = "bast"
	DocReceipt   DocType = "receipt"
)

var DocTypes = []DocType{DocInvoice, DocQuotation, DocBAST, DocReceipt}

func (t DocType) Valid() bool {
	switch t {
	case DocInvoice, DocQuotation, DocBAST, DocReceipt:
		return true
	}
	return false
}

// Prefix is the leading part of a document number, e.g. INV-2024-001.
func (t DocType) Prefix() string {
	switch t {
	case DocInvoice:
		return "INV"
	case DocQuotation:
		return "QUO"
	case DocBAST:
		return "BAST"
	case DocReceipt:
		return "REC"
	}
	return "DOC"
}

// HasDueDate reports whether documents of this type carry a due date.
func (t DocType) HasDueDate() bool {
	return t == DocInvoice || t == DocQuotation
}

type DocStatus string

const (
	StatusDraft     DocStatus = "draft"
	StatusPending   DocStatus = "pending"
	StatusPaid      DocStatus = "paid"
	StatusOverdue   DocStatus = "overdue"
	StatusCompleted DocStatus = "completed"
)

var DocStatuses = []DocStatus{StatusDraft, StatusPending, StatusPaid, StatusOverdue, StatusCompleted}

func (s DocStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusPaid, StatusOverdue, StatusCompleted:
		return true
	}
	return false
}

// Document is the stored header of an invoice, quotation, handover note or
// receipt. Client fields are a snapshot taken when the document was written.
// Amounts are always recomputed from the document's items before saving.
type Document struct {
	ID     string    `json:"id" gorm:"primaryKey" validate:"required"`
	Number string    `json:"number" gorm:"uniqueIndex;not null" validate:"required"`
	Type   DocType   `json:"type" gorm:"type:varchar(20);not null;index" validate:"required,oneof=invoice quotation bast receipt"`
	Status DocStatus `json:"status" gorm:"type:varchar(20);not null;default:draft;index" validate:"required,oneof=draft pending paid overdue completed"`

	// Client snapshot
	ClientID      *string `json:"client_id" gorm:"index"`
	ClientName    string  `json:"client_name" gorm:"not null;index" validate:"required"`
	ClientAddress string  `json:"client_address"`
	ClientPhone   string  `json:"client_phone"`
	ClientEmail   string  `json:"client_email"`

	Date    datatypes.Date  `json:"date" gorm:"not null"`
	DueDate *datatypes.Date `json:"due_date"`
	Notes   string          `json:"notes"`

	DiscountPercent decimal.Decimal `json:"discount_percent" gorm:"type:numeric(5,2);not null;default:0"`
	TaxPercent      decimal.Decimal `json:"tax_percent" gorm:"type:numeric(5,2);not null;default:11"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:numeric(14,2)"`
	DiscountAmount  decimal.Decimal `json:"discount_amount" gorm:"type:numeric(14,2)"`
	TaxAmount       decimal.Decimal `json:"tax_amount" gorm:"type:numeric(14,2)"`
	GrandTotal      decimal.Decimal `json:"grand_total" gorm:"type:numeric(14,2)"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (doc *Document) BeforeCreate(tx *gorm.DB) (err error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Status == "" {
		doc.Status = StatusDraft
	}
	return
}

func (doc Document) Key() string { return doc.ID }

// DocumentItem is one stored line of a document, kept in Position order.
type DocumentItem struct {
	ID         string          `json:"id" gorm:"primaryKey" validate:"required"`
	DocumentID string          `json:"document_id" gorm:"not null;index" validate:"required"`
	Position   int             `json:"position" gorm:"not null"`
	Name       string          `json:"name" gorm:"not null" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity" gorm:"type:numeric(14,3);not null"`
	Price      decimal.Decimal `json:"price" gorm:"type:numeric(14,2);not null"`
	Total      decimal.Decimal `json:"total" gorm:"type:numeric(14,2);not null"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (item *DocumentItem) BeforeCreate(tx *gorm.DB) (err error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	return
}

func (item DocumentItem) Key() string { return item.ID }

// DocumentWithItems is a document header together with its lines.
type DocumentWithItems struct {
	Document
	Items []DocumentItem `json:"items"`
}
