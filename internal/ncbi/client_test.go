package ncbi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, rate.NewLimiter(rate.Inf, 1), Options{
		Timeout:    2 * time.Second,
		RetryCount: 3,
		RetryBase:  time.Millisecond,
	})
	return client, srv
}

func TestLookupFound(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/genome/taxon/Homo sapiens/dataset_report" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("filters.has_annotation"); got != "true" {
			t.Errorf("Expected annotated filter, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"reports": [
				{"accession": "GCF_000001405.40", "assembly_info": {"assembly_level": "Chromosome"}, "annotation_info": {"name": "GRCh38"}},
				{"accession": "GCA_000001405.29", "assembly_info": {"assembly_level": "Chromosome"}}
			],
			"total_count": 2
		}`))
	})

	records, err := client.Lookup(context.Background(), "Homo sapiens")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Accession != "GCF_000001405.40" {
		t.Errorf("Expected accession GCF_000001405.40, got %s", records[0].Accession)
	}
	if records[0].AssemblyLevel != "Chromosome" {
		t.Errorf("Expected assembly level Chromosome, got %s", records[0].AssemblyLevel)
	}
	if !records[0].Annotated {
		t.Error("Expected first record to be annotated")
	}
	if records[1].Annotated {
		t.Error("Expected second record without annotation info")
	}
}

func TestLookupEmpty(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{
			name:   "zero reports",
			status: http.StatusOK,
			body:   `{"reports": [], "total_count": 0}`,
		},
		{
			name:   "empty object",
			status: http.StatusOK,
			body:   `{}`,
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"error": {"message": "no results"}}`,
		},
		{
			name:   "taxon not recognized",
			status: http.StatusBadRequest,
			body:   `{"error": {"message": "The taxonomy name 'Nonexistus' is not recognized"}}`,
		},
		{
			name:   "taxon valid but no data",
			status: http.StatusBadRequest,
			body:   `{"error": {"message": "The taxonomy name is valid, but no genome data is currently available"}}`,
		},
		{
			name:    "other bad request is an error",
			status:  http.StatusBadRequest,
			body:    `{"error": {"message": "malformed filter"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			records, err := client.Lookup(context.Background(), "Nonexistus")
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup failed: %v", err)
			}
			if records != nil {
				t.Errorf("Expected nil records for empty outcome, got %v", records)
			}
		})
	}
}

func TestLookupRetriesTransientErrors(t *testing.T) {
	var attempts atomic.Int32
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"reports": [{"accession": "GCF_000146045.2", "assembly_info": {"assembly_level": "Complete Genome"}}], "total_count": 1}`))
	})

	records, err := client.Lookup(context.Background(), "Saccharomyces cerevisiae")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestLookupExhaustsRetries(t *testing.T) {
	var attempts atomic.Int32
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Lookup(context.Background(), "Homo sapiens")
	if err == nil {
		t.Fatal("Expected an error after exhausting retries")
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestLookupPermanentErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"message": "api key invalid"}}`))
	})

	_, err := client.Lookup(context.Background(), "Homo sapiens")
	if err == nil {
		t.Fatal("Expected an error")
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("Expected a single attempt for a permanent error, got %d", got)
	}
}

func TestLookupSendsAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, rate.NewLimiter(rate.Inf, 1), Options{
		APIKey:     "secret",
		Timeout:    time.Second,
		RetryCount: 1,
		RetryBase:  time.Millisecond,
	})

	if _, err := client.Lookup(context.Background(), "Homo sapiens"); err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if gotKey != "secret" {
		t.Errorf("Expected api-key header to be sent, got %q", gotKey)
	}
}

func TestLookupRejectsEmptyName(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", rate.NewLimiter(rate.Inf, 1), Options{})
	if _, err := client.Lookup(context.Background(), ""); err == nil {
		t.Fatal("Expected an error for an empty name")
	}
}

// TestSharedLimiterBoundsRate drives 2x the per-second ceiling through
// concurrent callers of one shared limiter and verifies no sliding
// one-second window ever holds more grants than the ceiling.
func TestSharedLimiterBoundsRate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping rate window test in short mode")
	}

	const ceiling = 10
	const total = 2 * ceiling

	var mu sync.Mutex
	var grants []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		grants = append(grants, time.Now())
		mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	limiter := rate.NewLimiter(rate.Limit(ceiling), 1)
	client := NewClient(srv.URL, limiter, Options{
		Timeout:    5 * time.Second,
		RetryCount: 1,
		RetryBase:  time.Millisecond,
	})

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.Lookup(context.Background(), "Homo sapiens"); err != nil {
				t.Errorf("Lookup failed: %v", err)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	// 2x the ceiling must take at least about one second.
	if elapsed < 900*time.Millisecond {
		t.Errorf("Expected at least ~1s wall clock for %d requests at %d rps, got %s", total, ceiling, elapsed)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(grants) != total {
		t.Fatalf("Expected %d grants, got %d", total, len(grants))
	}
	sort.Slice(grants, func(i, j int) bool { return grants[i].Before(grants[j]) })
	for i := range grants {
		count := 1
		for j := i + 1; j < len(grants); j++ {
			if grants[j].Sub(grants[i]) < time.Second {
				count++
			}
		}
		// Allow one extra grant for timestamp jitter between limiter
		// release and the recording point.
		if count > ceiling+1 {
			t.Errorf("Window starting at grant %d holds %d grants, ceiling is %d", i, count, ceiling)
		}
	}
}
