package elevation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/paulmach/orb"
)

// elevationServer answers each location with elevation = latitude * 10.
type elevationServer struct {
	mu         sync.Mutex
	batchSizes []int
	failBatch  int
	calls      int
}

func (s *elevationServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls++
	call := s.calls
	s.batchSizes = append(s.batchSizes, len(req.Locations))
	s.mu.Unlock()

	if call == s.failBatch {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}

	var resp lookupResponse
	for _, loc := range req.Locations {
		resp.Results = append(resp.Results, struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Elevation float64 `json:"elevation"`
		}{loc.Latitude, loc.Longitude, loc.Latitude * 10})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func coordsN(n int) []orb.Point {
	coords := make([]orb.Point, n)
	for i := range coords {
		coords[i] = orb.Point{18, float64(i) / 100}
	}
	return coords
}

func TestFetchElevationsBatches(t *testing.T) {
	stub := &elevationServer{}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	client := NewClient(Config{EndpointURL: srv.URL, MaxBatchSize: 1000})
	coords := coordsN(2500)
	elevations := client.FetchElevations(context.Background(), coords)

	if len(stub.batchSizes) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(stub.batchSizes))
	}
	for i, want := range []int{1000, 1000, 500} {
		if stub.batchSizes[i] != want {
			t.Fatalf("batch %d: expected %d points, got %d", i, want, stub.batchSizes[i])
		}
	}
	if len(elevations) != 2500 {
		t.Fatalf("expected 2500 elevations, got %d", len(elevations))
	}
	for i, c := range coords {
		if elevations[i] != c.Lat()*10 {
			t.Fatalf("elevation %d out of order: %v", i, elevations[i])
		}
	}
}

func TestLookupZeroFillsFailedBatch(t *testing.T) {
	stub := &elevationServer{failBatch: 2}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	client := NewClient(Config{EndpointURL: srv.URL, MaxBatchSize: 10})
	coords := coordsN(25)
	elevations, sources := client.Lookup(context.Background(), coords)

	if len(elevations) != 25 || len(sources) != 25 {
		t.Fatalf("expected aligned output")
	}
	for i := 10; i < 20; i++ {
		if elevations[i] != 0 || sources[i] != SourceFallback {
			t.Fatalf("expected zero fallback at %d", i)
		}
	}
	if elevations[21] == 0 || sources[21] != SourceMeasured {
		t.Fatalf("expected later batch to be measured")
	}
	if CountFallback(sources) != 10 {
		t.Fatalf("expected 10 fallback points, got %d", CountFallback(sources))
	}
	if stub.calls != 3 {
		t.Fatalf("expected no retry, got %d calls", stub.calls)
	}
}

func TestLookupRetriesWhenConfigured(t *testing.T) {
	stub := &elevationServer{failBatch: 1}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	client := NewClient(Config{EndpointURL: srv.URL, MaxBatchSize: 10, MaxRetries: 1})
	_, sources := client.Lookup(context.Background(), coordsN(5))
	if CountFallback(sources) != 0 {
		t.Fatalf("expected retry to recover the batch")
	}
	if stub.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", stub.calls)
	}
}

func TestLookupTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(Config{EndpointURL: url})
	elevations, sources := client.Lookup(context.Background(), coordsN(3))
	for i := range elevations {
		if elevations[i] != 0 || sources[i] != SourceFallback {
			t.Fatalf("expected zero fill on transport failure")
		}
	}
}

func TestLookupResultCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"latitude":1,"longitude":1,"elevation":100}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{EndpointURL: srv.URL})
	_, sources := client.Lookup(context.Background(), coordsN(2))
	if CountFallback(sources) != 2 {
		t.Fatalf("expected mismatched batch to fall back")
	}
}

func TestLookupEmpty(t *testing.T) {
	client := NewClient(Config{EndpointURL: "http://127.0.0.1:1"})
	elevations, sources := client.Lookup(context.Background(), nil)
	if len(elevations) != 0 || len(sources) != 0 {
		t.Fatalf("expected empty output")
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{MaxRetries: -2})
	if client.cfg.EndpointURL != DefaultEndpointURL || client.cfg.MaxBatchSize != DefaultMaxBatchSize || client.cfg.MaxRetries != 0 {
		t.Fatalf("unexpected defaults: %+v", client.cfg)
	}
}
