package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeTotals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		items    []Item
		discount string
		tax      string
		want     Totals
	}{
		{
			name: "discount and tax",
			items: []Item{
				{Name: "A", Quantity: dec("2"), Price: dec("1500000")},
				{Name: "B", Quantity: dec("1"), Price: dec("4000000")},
			},
			discount: "5",
			tax:      "11",
			want: Totals{
				Subtotal:       dec("7000000"),
				DiscountAmount: dec("350000"),
				AfterDiscount:  dec("6650000"),
				TaxAmount:      dec("731500"),
				GrandTotal:     dec("7381500"),
			},
		},
		{
			name:     "empty ledger",
			discount: "10",
			tax:      "11",
			want:     Totals{},
		},
		{
			name:     "zero prices",
			items:    []Item{{Name: "Free", Quantity: dec("5"), Price: decimal.Zero}},
			discount: "0",
			tax:      "0",
			want:     Totals{},
		},
		{
			name:     "zero percentages",
			items:    []Item{{Name: "A", Quantity: dec("3"), Price: dec("100")}},
			discount: "0",
			tax:      "0",
			want: Totals{
				Subtotal:      dec("300"),
				AfterDiscount: dec("300"),
				GrandTotal:    dec("300"),
			},
		},
		{
			name:     "percentages clamped",
			items:    []Item{{Name: "A", Quantity: dec("1"), Price: dec("200")}},
			discount: "150",
			tax:      "-5",
			want: Totals{
				Subtotal:       dec("200"),
				DiscountAmount: dec("200"),
			},
		},
		{
			name:     "fractional amounts rounded",
			items:    []Item{{Name: "A", Quantity: dec("3"), Price: dec("33.333")}},
			discount: "0",
			tax:      "11",
			want: Totals{
				Subtotal:      dec("100"),
				AfterDiscount: dec("100"),
				TaxAmount:     dec("11"),
				GrandTotal:    dec("111"),
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ComputeTotals(tc.items, dec(tc.discount), dec(tc.tax))
			check := []struct {
				field     string
				got, want decimal.Decimal
			}{
				{"subtotal", got.Subtotal, tc.want.Subtotal},
				{"discount amount", got.DiscountAmount, tc.want.DiscountAmount},
				{"after discount", got.AfterDiscount, tc.want.AfterDiscount},
				{"tax amount", got.TaxAmount, tc.want.TaxAmount},
				{"grand total", got.GrandTotal, tc.want.GrandTotal},
			}
			for _, c := range check {
				if !c.got.Equal(c.want) {
					t.Fatalf("%s: expected %s, got %s", c.field, c.want, c.got)
				}
			}
			identity := got.Subtotal.Sub(got.DiscountAmount).Add(got.TaxAmount)
			if !got.GrandTotal.Equal(identity) {
				t.Fatalf("grand total %s != subtotal - discount + tax (%s)", got.GrandTotal, identity)
			}
		})
	}
}

func TestComputeTotalsIsPure(t *testing.T) {
	t.Parallel()

	l := New()
	id := l.Items()[0].ID
	if err := l.UpdateItem(id, FieldPrice, "1000"); err != nil {
		t.Fatalf("update: %v", err)
	}
	first := l.Totals(dec("10"), DefaultTaxPercent)
	second := l.Totals(dec("10"), DefaultTaxPercent)
	if !first.GrandTotal.Equal(second.GrandTotal) || !first.Subtotal.Equal(second.Subtotal) {
		t.Fatalf("repeated reads differ: %+v vs %+v", first, second)
	}
	if !l.Items()[0].Total.Equal(dec("1000")) {
		t.Fatalf("computing totals must not touch rows")
	}
}

func TestValidPercent(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"11", true},
		{"100", true},
		{"100.01", false},
		{"-1", false},
	} {
		if got := ValidPercent(dec(tc.in)); got != tc.want {
			t.Fatalf("ValidPercent(%s) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
