package numbering

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bizdocs-backend/models"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  models.DocType
		year int
		seq  int64
		want string
	}{
		{models.DocInvoice, 2024, 1, "INV-2024-001"},
		{models.DocQuotation, 2024, 42, "QUO-2024-042"},
		{models.DocBAST, 2025, 7, "BAST-2025-007"},
		{models.DocReceipt, 2024, 1234, "REC-2024-1234"},
	}
	for _, tc := range tests {
		if got := Format(tc.typ, tc.year, tc.seq); got != tc.want {
			t.Fatalf("Format(%s, %d, %d) = %s, want %s", tc.typ, tc.year, tc.seq, got, tc.want)
		}
	}
}

func TestParseSeq(t *testing.T) {
	t.Parallel()

	if n, ok := ParseSeq("INV-2024-013", "INV-2024-"); !ok || n != 13 {
		t.Fatalf("expected 13, got %d (%v)", n, ok)
	}
	for _, bad := range []string{"INV-2023-013", "INV-2024-abc", "QUO-2024-001"} {
		if _, ok := ParseSeq(bad, "INV-2024-"); ok {
			t.Fatalf("%s must not parse", bad)
		}
	}
}

func TestLocalSequencerSeedsOnce(t *testing.T) {
	t.Parallel()

	seeds := 0
	seq := NewLocalSequencer(func(ctx context.Context, prefix string) (int64, error) {
		seeds++
		if prefix == "INV-2024-" {
			return 9, nil
		}
		return 0, nil
	})
	ctx := context.Background()

	for i, want := range []int64{10, 11, 12} {
		n, err := seq.Next(ctx, "INV-2024-")
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if n != want {
			t.Fatalf("expected %d, got %d", want, n)
		}
	}
	if n, _ := seq.Next(ctx, "QUO-2024-"); n != 1 {
		t.Fatalf("new prefix must start at 1, got %d", n)
	}
	if seeds != 2 {
		t.Fatalf("expected one seed per prefix, got %d", seeds)
	}
}

func TestLocalSequencerConcurrent(t *testing.T) {
	t.Parallel()

	seq := NewLocalSequencer(nil)
	alloc := NewAllocator(seq)
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := alloc.Next(context.Background(), models.DocInvoice, date)
			if err != nil {
				t.Errorf("next: %v", err)
				return
			}
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(seen) != 50 {
		t.Fatalf("expected 50 distinct numbers, got %d", len(seen))
	}
}

func TestSeedFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("backend down")
	seq := NewLocalSequencer(func(context.Context, string) (int64, error) { return 0, boom })
	if _, err := seq.Next(context.Background(), "INV-2024-"); !errors.Is(err, boom) {
		t.Fatalf("expected seed error, got %v", err)
	}
}
