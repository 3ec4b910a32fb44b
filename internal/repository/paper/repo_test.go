package paper

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/paperdex/internal/domain"
)

type fakeStore struct {
	hashes  map[string]map[string]string
	hsetErr error
	getErr  error
	scanErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{hashes: map[string]map[string]string{}}
}

func (f *fakeStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if f.hsetErr != nil {
		return f.hsetErr
	}
	h, ok := f.hashes[key]
	if !ok {
		h = map[string]string{}
		f.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (f *fakeStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := map[string]string{}
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.hashes[key]
	return ok, nil
}

func (f *fakeStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range f.hashes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func samplePaper() domain.Paper {
	return domain.Paper{
		ArxivID:    "2401.12345",
		Title:      "Reciprocal Rank Fusion Revisited",
		Abstract:   "We study rank fusion.",
		Authors:    []string{"Doe, Jane", "Roe, Riley"},
		Categories: []string{"cs.IR", "cs.CL"},
		Published:  time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC),
		PDFURL:     "http://arxiv.org/pdf/2401.12345",
	}
}

func TestUpsertGetRoundTrip(t *testing.T) {
	s := newFakeStore()
	repo := New(s)
	ctx := context.Background()

	want := samplePaper()
	if err := repo.Upsert(ctx, &want); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.Get(ctx, want.ArxivID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestUpsertValidates(t *testing.T) {
	repo := New(newFakeStore())
	p := samplePaper()
	p.ArxivID = ""

	if err := repo.Upsert(context.Background(), &p); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestGetMissingPaper(t *testing.T) {
	repo := New(newFakeStore())

	_, err := repo.Get(context.Background(), "2499.00000")
	if !errors.Is(err, domain.ErrPaperNotFound) {
		t.Errorf("err = %v, want ErrPaperNotFound", err)
	}
}

func TestAuthorsWithCommasSurvive(t *testing.T) {
	s := newFakeStore()
	repo := New(s)
	ctx := context.Background()

	p := samplePaper()
	p.Authors = []string{"Smith, John Jr.", "van der Berg, Anna"}
	if err := repo.Upsert(ctx, &p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.Get(ctx, p.ArxivID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got.Authors, p.Authors) {
		t.Errorf("authors = %v, want %v", got.Authors, p.Authors)
	}
}

func TestMarkIndexedTouchesOnlyFlagFields(t *testing.T) {
	s := newFakeStore()
	repo := New(s)
	ctx := context.Background()

	p := samplePaper()
	if err := repo.Upsert(ctx, &p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	at := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	if err := repo.MarkIndexed(ctx, p.ArxivID, at); err != nil {
		t.Fatalf("MarkIndexed: %v", err)
	}

	got, err := repo.Get(ctx, p.ArxivID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Indexed {
		t.Error("indexed flag not set")
	}
	if !got.IndexedAt.Equal(at) {
		t.Errorf("IndexedAt = %v, want %v", got.IndexedAt, at)
	}
	if got.Title != p.Title || got.Abstract != p.Abstract {
		t.Error("MarkIndexed must not disturb metadata fields")
	}
}

func TestExists(t *testing.T) {
	s := newFakeStore()
	repo := New(s)
	ctx := context.Background()

	p := samplePaper()
	if err := repo.Upsert(ctx, &p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	ok, err := repo.Exists(ctx, p.ArxivID)
	if err != nil || !ok {
		t.Errorf("Exists(%s) = %v, %v; want true, nil", p.ArxivID, ok, err)
	}
	ok, err = repo.Exists(ctx, "2499.00000")
	if err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v; want false, nil", ok, err)
	}
}

func TestStats(t *testing.T) {
	s := newFakeStore()
	repo := New(s)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		p := samplePaper()
		p.ArxivID = fmt.Sprintf("2401.0000%d", i)
		if err := repo.Upsert(ctx, &p); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		if i < 3 {
			if err := repo.MarkIndexed(ctx, p.ArxivID, time.Now()); err != nil {
				t.Fatalf("MarkIndexed: %v", err)
			}
		}
	}
	// Unrelated keyspace entries must not be counted.
	s.hashes["paperdex:qcache:deadbeef"] = map[string]string{"v": "x"}

	total, indexed, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if total != 5 || indexed != 3 {
		t.Errorf("Stats = (%d, %d), want (5, 3)", total, indexed)
	}
}

func TestStoreErrorsWrapped(t *testing.T) {
	s := newFakeStore()
	s.hsetErr = errors.New("conn reset")
	repo := New(s)
	p := samplePaper()

	if err := repo.Upsert(context.Background(), &p); err == nil || !strings.Contains(err.Error(), "conn reset") {
		t.Errorf("Upsert err = %v, want wrapped store error", err)
	}

	s2 := newFakeStore()
	s2.scanErr = errors.New("scan broke")
	if _, _, err := New(s2).Stats(context.Background()); err == nil {
		t.Error("Stats must surface scan errors")
	}
}
