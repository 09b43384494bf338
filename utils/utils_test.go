package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

type patchDTO struct {
	Name  *string          `json:"name"`
	Price *decimal.Decimal `json:"price"`
	Type  *string          `json:"type,omitempty"`
	Skip  *string          `json:"-"`
}

type columnDTO struct {
	Name *string `json:"name" gorm:"not null;column:company_name"`
}

type createDTO struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Count int             `json:"count"`
}

func TestUpdatesFromPtrDTO(t *testing.T) {
	t.Parallel()

	name := "  Hosting  "
	price := decimal.RequireFromString("1999.999")
	skip := "x"
	dto := &patchDTO{Name: &name, Price: &price, Skip: &skip}
	NormalizePtrDTO(dto)

	got := UpdatesFromPtrDTO(dto, map[string]string{"name": "company_name"})
	if len(got) != 2 {
		t.Fatalf("expected two columns, got %v", got)
	}
	if got["company_name"] != "Hosting" {
		t.Fatalf("expected trimmed, renamed name, got %v", got["company_name"])
	}
	if p := got["price"].(decimal.Decimal); !p.Equal(decimal.RequireFromString("2000")) {
		t.Fatalf("expected rounded price, got %s", p)
	}
}

func TestNormalizeDTO(t *testing.T) {
	t.Parallel()

	dto := &createDTO{Name: " Acme\t", Price: decimal.RequireFromString("10.005"), Count: 3}
	NormalizeDTO(dto)
	if dto.Name != "Acme" || !dto.Price.Equal(decimal.RequireFromString("10.01")) || dto.Count != 3 {
		t.Fatalf("unexpected %+v", dto)
	}
	NormalizeDTO(createDTO{}) // not a pointer: ignored
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{" 12 ", 12},
		{"", 7},
		{"-1", 7},
		{"abc", 7},
	}
	for _, tc := range tests {
		if got := ParseIntDefault(tc.in, 7); got != tc.want {
			t.Fatalf("ParseIntDefault(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestUpdatesFromPtrDTOGormColumn(t *testing.T) {
	t.Parallel()

	name := "Acme"
	got := UpdatesFromPtrDTO(&columnDTO{Name: &name}, nil)
	if got["company_name"] != "Acme" || len(got) != 1 {
		t.Fatalf("expected gorm column name, got %v", got)
	}
	if len(UpdatesFromPtrDTO(&columnDTO{}, nil)) != 0 {
		t.Fatalf("nil fields must not be patched")
	}
}

func TestParseIntRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{"", 10},
		{"0", 10},
		{"25", 25},
		{"500", 100},
		{"-3", 10},
	}
	for _, tc := range tests {
		if got := ParseIntRange(tc.in, 10, 100); got != tc.want {
			t.Fatalf("ParseIntRange(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
