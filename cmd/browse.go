package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"bizdocs-backend/collection"
	"bizdocs-backend/database"
	"bizdocs-backend/metrics"
	"bizdocs-backend/models"
	"bizdocs-backend/screens"
	"bizdocs-backend/services"

	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:       "browse <clients|items|documents>",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"clients", "items", "documents"},
	Short:     "Page through a list interactively",
	Long: `Page through clients, catalog items or documents.

Type to search (applied after a short pause), press enter on an empty line
to load the next page and enter :q to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()
		return browse(cmd.Context(), args[0], rt.stores, rt.docs, rt.cfg.DebounceDelay(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func browse(ctx context.Context, kind string, stores *database.Stores, docs *services.DocumentService, delay time.Duration, in io.Reader, out io.Writer) error {
	w := &lockedWriter{w: out}
	switch kind {
	case "clients":
		b := newBrowser(w, delay, func(c models.Client) string {
			return fmt.Sprintf("%-40s %-30s %s", c.CompanyName, c.Email, c.Phone)
		})
		return b.run(in, screens.NewEntityScreen(ctx, stores.Clients, b, b.options()...))
	case "items":
		b := newBrowser(w, delay, func(it models.CatalogItem) string {
			return fmt.Sprintf("%-40s %-15s %15s", it.Name, it.Type, it.Price.StringFixed(2))
		})
		return b.run(in, screens.NewEntityScreen(ctx, stores.Catalog, b, b.options()...))
	case "documents":
		b := newBrowser(w, delay, func(d models.Document) string {
			return fmt.Sprintf("%-15s %-10s %-10s %-30s %15s", d.Number, d.Type, d.Status, d.ClientName, d.GrandTotal.StringFixed(2))
		})
		s := screens.NewDocumentScreen(ctx, stores.Documents, docs, b, b.options()...)
		return b.run(in, s.EntityScreen)
	}
	return fmt.Errorf("unknown list %q", kind)
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format, args...)
}

// browser renders one entity screen as text. Debounced searches complete on
// a timer goroutine, so every write goes through the locked writer.
type browser[T collection.Keyed] struct {
	out    *lockedWriter
	delay  time.Duration
	line   func(T) string
	screen *screens.EntityScreen[T]
	ready  chan struct{}
}

func newBrowser[T collection.Keyed](out *lockedWriter, delay time.Duration, line func(T) string) *browser[T] {
	return &browser[T]{out: out, delay: delay, line: line, ready: make(chan struct{})}
}

func (b *browser[T]) options() []screens.Option[T] {
	return []screens.Option[T]{
		screens.WithDebounce[T](b.delay),
		screens.WithSearchDone[T](b.searched),
		screens.WithListOptions[T](collection.WithObserver(metrics.FetchObserver{})),
	}
}

func (b *browser[T]) Notify(n collection.Notice) {
	b.out.printf("! %s: %s\n", n.Title, n.Description)
}

func (b *browser[T]) searched(err error) {
	<-b.ready
	if err == nil {
		b.render()
	}
}

func (b *browser[T]) run(in io.Reader, screen *screens.EntityScreen[T]) error {
	b.screen = screen
	close(b.ready)
	defer screen.Close()

	if err := screen.Open(); err != nil {
		return err
	}
	b.render()

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		input := strings.TrimSpace(sc.Text())
		switch {
		case input == ":q":
			return nil
		case input == "":
			if !screen.HasMore() {
				b.out.printf("-- end of list --\n")
				continue
			}
			// failures are reported through Notify
			if err := screen.LoadMore(); err == nil {
				b.render()
			}
		default:
			screen.Search(input)
		}
	}
	return sc.Err()
}

func (b *browser[T]) render() {
	items := b.screen.Items()
	var sb strings.Builder
	if term := b.screen.Term(); term != "" {
		fmt.Fprintf(&sb, "search: %q\n", term)
	}
	for i, it := range items {
		fmt.Fprintf(&sb, "%4d  %s\n", i+1, b.line(it))
	}
	total, known := b.screen.List().Total()
	switch {
	case known:
		fmt.Fprintf(&sb, "-- %d of %d", len(items), total)
	default:
		fmt.Fprintf(&sb, "-- %d", len(items))
	}
	if b.screen.HasMore() {
		sb.WriteString(", enter for more")
	}
	sb.WriteString(" --\n")
	b.out.printf("%s", sb.String())
}
