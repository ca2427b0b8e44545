package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/ruiji/internal/dataset"
	"github.com/hyperjump/ruiji/internal/embedding"
	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/internal/vector"
	"go.uber.org/multierr"
)

// flakyTarget fails Load on the listed (1-based) calls.
type flakyTarget struct {
	fail    map[int]bool
	calls   int
	sizes   []int
	resets  int
	dims    int
	records []models.Record
}

func (f *flakyTarget) CreateIndex(_ context.Context, d int) error {
	f.resets++
	f.records = nil
	return nil
}

func (f *flakyTarget) Load(_ context.Context, records []models.Record) (int, error) {
	f.calls++
	f.sizes = append(f.sizes, len(records))
	if f.fail[f.calls] {
		return 0, errors.New("upstream timeout")
	}
	f.records = append(f.records, records...)
	return len(records), nil
}

func (f *flakyTarget) Dimensions() int { return f.dims }
func (f *flakyTarget) Ready() bool     { return len(f.records) > 0 }

func makeRecords(n int) []models.Record {
	out := make([]models.Record, n)
	for i := range out {
		out[i] = models.Record{Context: fmt.Sprintf("c%d", i), Response: fmt.Sprintf("r%d", i)}
	}
	return out
}

func TestLoadRecords_Batches(t *testing.T) {
	target := &flakyTarget{}
	idx := NewIndexer(target, dataset.NewReader(""))

	report, err := idx.LoadRecords(context.Background(), makeRecords(65))
	if err != nil {
		t.Fatal(err)
	}
	if report.Batches != 3 || report.Loaded != 65 || report.Total != 65 {
		t.Errorf("report=%+v", report)
	}
	want := []int{30, 30, 5}
	for i, n := range want {
		if target.sizes[i] != n {
			t.Errorf("batch %d size=%d, want %d", i, target.sizes[i], n)
		}
	}
}

func TestLoadRecords_ContinuesAfterFailedBatch(t *testing.T) {
	target := &flakyTarget{fail: map[int]bool{1: true, 3: true}}
	idx := NewIndexer(target, dataset.NewReader(""), WithBatchSize(10))

	report, err := idx.LoadRecords(context.Background(), makeRecords(35))
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Errorf("aggregated %d errors, want 2", got)
	}
	if !strings.Contains(err.Error(), "batch 3 (rows 20-29)") {
		t.Errorf("error %q should name the failed rows", err)
	}
	if report.Batches != 4 || report.FailedBatches != 2 || report.Loaded != 15 {
		t.Errorf("report=%+v", report)
	}
	if target.calls != 4 {
		t.Errorf("calls=%d, want all 4 batches attempted", target.calls)
	}
}

func TestLoadRecords_SchemaErrorBeforeAnyBatch(t *testing.T) {
	target := &flakyTarget{}
	idx := NewIndexer(target, dataset.NewReader(""))
	records := makeRecords(40)
	records[35].Response = "  "

	_, err := idx.LoadRecords(context.Background(), records)
	if !errors.Is(err, models.ErrSchema) {
		t.Fatalf("err=%v, want ErrSchema", err)
	}
	if target.calls != 0 {
		t.Errorf("calls=%d, want 0", target.calls)
	}
}

func writeCSV(t *testing.T, dir, name string, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Context,Response\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "question %d,answer %d\n", i, i)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_FlatIndex(t *testing.T) {
	ctx := context.Background()
	flat := vector.NewFlatIndex(embedding.NewBatchEmbedder(embedding.NewMockProvider(8, 32)), nil)
	idx := NewIndexer(flat, dataset.NewReader(""))

	path := writeCSV(t, t.TempDir(), "train.csv", 45)
	report, err := idx.LoadFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if report.Loaded != 45 || report.Path != path {
		t.Errorf("report=%+v", report)
	}
	results, err := flat.Search(ctx, "question 44", 1)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Record.Response != "answer 44" || results[0].Record.ID != "44" {
		t.Errorf("top=%+v", results[0].Record)
	}
}

func TestReload_ResetsOnlyAfterCleanRead(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	target := &flakyTarget{dims: 8}
	idx := NewIndexer(target, dataset.NewReader(""))

	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("Context,Answer\na,b\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.Reload(ctx, bad); !errors.Is(err, models.ErrSchema) {
		t.Fatalf("err=%v, want ErrSchema", err)
	}
	if target.resets != 0 {
		t.Error("index reset despite unreadable dataset")
	}

	good := writeCSV(t, dir, "good.csv", 12)
	report, err := idx.Reload(ctx, good)
	if err != nil {
		t.Fatal(err)
	}
	if target.resets != 1 || report.Loaded != 12 || len(target.records) != 12 {
		t.Errorf("resets=%d report=%+v", target.resets, report)
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	idx := NewIndexer(&flakyTarget{}, dataset.NewReader(""))
	if _, err := idx.LoadFile(context.Background(), filepath.Join(t.TempDir(), "none.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLazyLoader_ToleratesPartialFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "train.csv", 40)

	partial := NewIndexer(&flakyTarget{fail: map[int]bool{2: true}}, dataset.NewReader(""))
	n, err := partial.LazyLoader(path)(context.Background())
	if err != nil || n != 30 {
		t.Errorf("partial: n=%d err=%v", n, err)
	}

	total := NewIndexer(&flakyTarget{fail: map[int]bool{1: true, 2: true}}, dataset.NewReader(""))
	if n, err := total.LazyLoader(path)(context.Background()); err == nil || n != 0 {
		t.Errorf("total failure: n=%d err=%v", n, err)
	}
}

// slowProvider stretches each embedding chunk so overlapping loads interleave.
type slowProvider struct {
	*embedding.MockProvider
}

func (p slowProvider) Embed(ctx context.Context, texts []string, in embedding.InputType) ([][]float32, error) {
	time.Sleep(5 * time.Millisecond)
	return p.MockProvider.Embed(ctx, texts, in)
}

func newSlowFlat() *vector.FlatIndex {
	p := slowProvider{embedding.NewMockProvider(8, 10)}
	return vector.NewFlatIndex(embedding.NewBatchEmbedder(p), nil)
}

func TestReload_ConcurrentCallsDoNotDuplicate(t *testing.T) {
	ctx := context.Background()
	flat := newSlowFlat()
	idx := NewIndexer(flat, dataset.NewReader(""))
	path := writeCSV(t, t.TempDir(), "train.csv", 120)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := idx.Reload(ctx, path); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	size, _ := flat.Size(ctx)
	if size != 120 {
		t.Errorf("size=%d after two overlapping reloads, want 120", size)
	}
	results, err := flat.Search(ctx, "question 119", 1)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Record.ID != "119" {
		t.Errorf("top id=%s, want positional id 119", results[0].Record.ID)
	}
}

func TestLazyLoader_SkipsAfterReload(t *testing.T) {
	ctx := context.Background()
	flat := newSlowFlat()
	idx := NewIndexer(flat, dataset.NewReader(""))
	path := writeCSV(t, t.TempDir(), "train.csv", 40)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := idx.Reload(ctx, path); err != nil {
			t.Error(err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := idx.LazyLoader(path)(ctx); err != nil {
			t.Error(err)
		}
	}()
	wg.Wait()

	if size, _ := flat.Size(ctx); size != 40 {
		t.Errorf("size=%d after reload racing a lazy load, want 40", size)
	}
	n, err := idx.LazyLoader(path)(ctx)
	if err != nil || n != 0 {
		t.Errorf("lazy load on a loaded index: n=%d err=%v", n, err)
	}
}
