package elevation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/paulmach/orb"
)

const (
	DefaultEndpointURL  = "https://api.open-elevation.com/api/v1/lookup"
	DefaultMaxBatchSize = 1000
)

// Config is passed to NewClient. MaxRetries 0 means a single attempt per batch.
type Config struct {
	EndpointURL  string
	MaxBatchSize int
	MaxRetries   int
	Timeout      time.Duration
}

// Client talks to an open-elevation compatible lookup endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.EndpointURL == "" {
		cfg.EndpointURL = DefaultEndpointURL
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// FetchElevations returns one elevation per coordinate. Failed batches come back as zeros.
func (c *Client) FetchElevations(ctx context.Context, coords []orb.Point) []float64 {
	elevations, _ := c.Lookup(ctx, coords)
	return elevations
}

// Lookup splits coords into batches of at most MaxBatchSize and requests them in order.
func (c *Client) Lookup(ctx context.Context, coords []orb.Point) ([]float64, []Source) {
	elevations := make([]float64, 0, len(coords))
	sources := make([]Source, 0, len(coords))

	for start, batch := 0, 0; start < len(coords); start, batch = start+c.cfg.MaxBatchSize, batch+1 {
		end := min(start+c.cfg.MaxBatchSize, len(coords))
		chunk := coords[start:end]

		values, err := c.fetchBatchWithRetries(ctx, chunk)
		if err != nil {
			log.Printf("elevation: batch %d (%d points) failed, using zeros: %v", batch, len(chunk), err)
			for range chunk {
				elevations = append(elevations, 0)
				sources = append(sources, SourceFallback)
			}
			continue
		}
		for _, v := range values {
			elevations = append(elevations, v)
			sources = append(sources, SourceMeasured)
		}
	}
	return elevations, sources
}

func (c *Client) fetchBatchWithRetries(ctx context.Context, chunk []orb.Point) ([]float64, error) {
	var err error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		var values []float64
		values, err = c.fetchBatch(ctx, chunk)
		if err == nil {
			return values, nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, err
}

func (c *Client) fetchBatch(ctx context.Context, chunk []orb.Point) ([]float64, error) {
	body := lookupRequest{Locations: make([]location, len(chunk))}
	for i, p := range chunk {
		body.Locations[i] = location{Latitude: p.Lat(), Longitude: p.Lon()}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.EndpointURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var decoded lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(decoded.Results) != len(chunk) {
		return nil, fmt.Errorf("expected %d results, got %d", len(chunk), len(decoded.Results))
	}

	values := make([]float64, len(decoded.Results))
	for i, r := range decoded.Results {
		values[i] = r.Elevation
	}
	return values, nil
}
