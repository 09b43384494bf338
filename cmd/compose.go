package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bizdocs-backend/collection"
	"bizdocs-backend/database"
	"bizdocs-backend/ledger"
	"bizdocs-backend/models"
	"bizdocs-backend/screens"
	"bizdocs-backend/services"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var composeCmd = &cobra.Command{
	Use:       "compose <invoice|quotation|bast|receipt>",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"invoice", "quotation", "bast", "receipt"},
	Short:     "Write a new document line by line",
	Long: `Write a new document from commands read on stdin, one per line:

  client <search>             pick the first matching client, or type a new one
  item <name>; <qty>; <price> add a row
  catalog <search>            add the first matching catalog item
  remove <row>                drop a row by its number
  from <quotation number>     start an invoice from a stored quotation
  discount <pct>, tax <pct>   set the percentages
  notes <text>                set the notes
  show                        print the rows and totals
  save                        store the document and exit
  :q                          exit without saving`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()
		return compose(cmd.Context(), models.DocType(args[0]), rt.stores, rt.docs, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(composeCmd)
}

type composer struct {
	out *lockedWriter
	c   *screens.Composer
}

func (p *composer) Notify(n collection.Notice) {
	p.out.printf("! %s: %s\n", n.Title, n.Description)
}

func compose(ctx context.Context, typ models.DocType, stores *database.Stores, docs *services.DocumentService, in io.Reader, out io.Writer) error {
	p := &composer{out: &lockedWriter{w: out}}
	p.c = screens.NewComposer(ctx, screens.StoresView{
		Clients:   stores.Clients,
		Catalog:   stores.Catalog,
		Documents: stores.Documents,
	}, docs, p, typ)
	if err := p.c.SetType(typ); err != nil {
		return err
	}
	if err := p.c.Open(); err != nil {
		return err
	}

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		verb, arg, _ := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		arg = strings.TrimSpace(arg)
		switch verb {
		case "":
		case ":q":
			return nil
		case "save":
			// failures are reported through Notify
			if doc, err := p.c.Submit(ctx); err == nil {
				p.out.printf("saved %s %s\n", doc.Number, doc.GrandTotal.StringFixed(2))
				return nil
			}
		default:
			if err := p.apply(ctx, verb, arg); err != nil {
				p.out.printf("! %v\n", err)
			}
		}
	}
	return sc.Err()
}

func (p *composer) apply(ctx context.Context, verb, arg string) error {
	switch verb {
	case "client":
		if err := p.c.Clients.Reset(ctx, arg); err != nil {
			return err
		}
		if found := p.c.Clients.Items(); len(found) > 0 {
			p.c.SelectClient(found[0])
		} else {
			p.c.SetClient(services.ClientSnapshot{CompanyName: arg})
		}
		p.out.printf("client: %s\n", p.c.Client().CompanyName)
	case "item":
		parts := strings.Split(arg, ";")
		if len(parts) != 3 {
			return fmt.Errorf("usage: item <name>; <qty>; <price>")
		}
		row := p.c.AddItem()
		for i, field := range []ledger.Field{ledger.FieldName, ledger.FieldQuantity, ledger.FieldPrice} {
			if err := p.c.UpdateItem(row.ID, field, strings.TrimSpace(parts[i])); err != nil {
				p.c.RemoveItem(row.ID)
				return err
			}
		}
		p.dropBlank(row.ID)
		p.show()
	case "catalog":
		if err := p.c.Catalog.Reset(ctx, arg); err != nil {
			return err
		}
		found := p.c.Catalog.Items()
		if len(found) == 0 {
			return fmt.Errorf("no catalog item matches %q", arg)
		}
		row := p.c.AddCatalogItem(found[0])
		p.dropBlank(row.ID)
		p.show()
	case "remove":
		n, err := strconv.Atoi(arg)
		items := p.c.Items()
		if err != nil || n < 1 || n > len(items) {
			return fmt.Errorf("no row %q", arg)
		}
		p.c.RemoveItem(items[n-1].ID)
		p.show()
	case "from":
		if err := p.c.Quotations.Reset(ctx, arg); err != nil {
			return err
		}
		found := p.c.Quotations.Items()
		if len(found) == 0 {
			return fmt.Errorf("no quotation matches %q", arg)
		}
		if err := p.c.FromQuotation(ctx, found[0].ID); err != nil {
			return err
		}
		p.out.printf("client: %s\n", p.c.Client().CompanyName)
		p.show()
	case "discount", "tax":
		pct, err := decimal.NewFromString(arg)
		if err != nil {
			return fmt.Errorf("%s: not a number: %q", verb, arg)
		}
		if verb == "discount" {
			err = p.c.SetDiscount(pct)
		} else {
			err = p.c.SetTax(pct)
		}
		if err != nil {
			return err
		}
		p.show()
	case "notes":
		p.c.SetNotes(arg)
	case "show":
		p.show()
	default:
		return fmt.Errorf("unknown command %q", verb)
	}
	return nil
}

// dropBlank removes untouched rows, such as the one a new draft starts with.
func (p *composer) dropBlank(keep string) {
	for _, it := range p.c.Items() {
		if it.ID != keep && strings.TrimSpace(it.Name) == "" && it.Price.IsZero() {
			p.c.RemoveItem(it.ID)
		}
	}
}

func (p *composer) show() {
	var sb strings.Builder
	for i, it := range p.c.Items() {
		fmt.Fprintf(&sb, "%4d  %-40s %8s x %15s = %15s\n", i+1, it.Name, it.Quantity.String(), it.Price.StringFixed(2), it.Total.StringFixed(2))
	}
	t := p.c.Totals()
	fmt.Fprintf(&sb, "subtotal %s  discount %s  tax %s  total %s\n",
		t.Subtotal.StringFixed(2), t.DiscountAmount.StringFixed(2), t.TaxAmount.StringFixed(2), t.GrandTotal.StringFixed(2))
	p.out.printf("%s", sb.String())
}
