package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"cfeharvest/dataset"
	"cfeharvest/harvest"
)

func candidate(t *testing.T, raw string) harvest.Candidate {
	t.Helper()
	canon, err := dataset.Canonicalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	return harvest.Candidate{URL: raw, Canonical: canon}
}

func testStore(t *testing.T) *dataset.Store {
	t.Helper()
	s := dataset.NewStore(filepath.Join(t.TempDir(), "out.xlsx"), nil)
	t.Cleanup(func() { s.Close() })
	s.LoadProcessed()
	return s
}

func appendRow(s *dataset.Store, url string) error {
	return s.Append(dataset.Record{
		Fields:    map[string]string{"razon_social": "ACME SA"},
		SourceURL: url,
	})
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	// WHAT: When candidate k fails, candidates k+1..N are still attempted and
	// their rows land in the store.
	// WHY: One broken record page must never cost the rest of the batch.
	store := testStore(t)
	e := &Extractor{
		Store: store,
		visit: func(ctx context.Context, c harvest.Candidate) error {
			if c.Canonical == "https://host/doc/2" {
				return errors.New("navigation timeout")
			}
			return appendRow(store, c.URL)
		},
	}

	st := e.Run(context.Background(), []harvest.Candidate{
		candidate(t, "https://host/doc/1"),
		candidate(t, "https://host/doc/2"),
		candidate(t, "https://host/doc/3"),
	})

	if st.Appended != 2 || st.Failed != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if !store.Seen("https://host/doc/3") {
		t.Error("candidate after the failure was not processed")
	}
}

func TestRun_SkipsAlreadyProcessed(t *testing.T) {
	// WHAT: A candidate whose canonical URL is already in the dataset is
	// skipped without any visit.
	store := testStore(t)
	if err := appendRow(store, "https://host/doc/1"); err != nil {
		t.Fatal(err)
	}

	visited := 0
	e := &Extractor{
		Store: store,
		visit: func(ctx context.Context, c harvest.Candidate) error {
			visited++
			return appendRow(store, c.URL)
		},
	}

	st := e.Run(context.Background(), []harvest.Candidate{
		candidate(t, "https://Host/doc/1/"), // same record, variant form
		candidate(t, "https://host/doc/2"),
	})

	if st.Duplicates != 1 || st.Appended != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if visited != 1 {
		t.Fatalf("visited %d candidates, want 1", visited)
	}
}

func TestRun_PanicInVisitCountsAsFailure(t *testing.T) {
	// WHAT: A panic inside one candidate's processing is converted to a failure
	// for that candidate only.
	store := testStore(t)
	e := &Extractor{
		Store: store,
		visit: func(ctx context.Context, c harvest.Candidate) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			if c.Canonical == "https://host/doc/1" {
				panic("context destroyed")
			}
			return appendRow(store, c.URL)
		},
	}

	st := e.Run(context.Background(), []harvest.Candidate{
		candidate(t, "https://host/doc/1"),
		candidate(t, "https://host/doc/2"),
	})
	if st.Failed != 1 || st.Appended != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestRun_EndToEndScenario(t *testing.T) {
	// WHAT: 3 harvested candidates, one a duplicate of a pre-existing record:
	// the final dataset holds 3 rows total, 2 of them new.
	dir := t.TempDir()
	out := filepath.Join(dir, "cfe_data.xlsx")

	// Prior run left one record behind.
	prev := dataset.NewStore(out, nil)
	if err := appendRow(prev, "https://host/ver?doc=1"); err != nil {
		t.Fatal(err)
	}
	prev.Close()

	store := dataset.NewStore(out, nil)
	defer store.Close()
	store.LoadProcessed()

	e := &Extractor{
		Store: store,
		visit: func(ctx context.Context, c harvest.Candidate) error {
			return appendRow(store, c.URL)
		},
	}
	st := e.Run(context.Background(), []harvest.Candidate{
		candidate(t, "https://Host/ver?doc=1"), // duplicate of the pre-existing row
		candidate(t, "https://host/ver?doc=2"),
		candidate(t, "https://host/ver?doc=3"),
	})

	if st.Appended != 2 || st.Duplicates != 1 {
		t.Fatalf("stats = %+v", st)
	}
	path, err := store.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if path != out {
		t.Fatalf("finalized to %q", path)
	}
	// 3 distinct records across both runs.
	check := dataset.NewStore(out, nil)
	defer check.Close()
	if got := len(check.LoadProcessed()); got != 3 {
		t.Fatalf("dataset holds %d records, want 3", got)
	}
}
