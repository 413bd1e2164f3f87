package elevation

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"

	"github.com/paulmach/orb"
	"github.com/tkrajina/go-elevations/geoelevations"
)

// SRTMProvider reads elevations from SRTM tiles, downloading missing tiles on demand.
type SRTMProvider struct {
	srtm   *geoelevations.Srtm
	client *http.Client
}

func NewSRTMProvider(client *http.Client) (*SRTMProvider, error) {
	if client == nil {
		client = http.DefaultClient
	}
	srtm, err := geoelevations.NewSrtm(client)
	if err != nil {
		return nil, fmt.Errorf("creating srtm client: %w", err)
	}
	return &SRTMProvider{srtm: srtm, client: client}, nil
}

func (p *SRTMProvider) Lookup(ctx context.Context, coords []orb.Point) ([]float64, []Source) {
	elevations := make([]float64, len(coords))
	sources := make([]Source, len(coords))
	failed := 0
	for i, c := range coords {
		if ctx.Err() != nil {
			sources[i] = SourceFallback
			failed++
			continue
		}
		ele, err := p.srtm.GetElevation(p.client, c.Lat(), c.Lon())
		if err != nil || math.IsNaN(ele) {
			sources[i] = SourceFallback
			failed++
			continue
		}
		elevations[i] = ele
		sources[i] = SourceMeasured
	}
	if failed > 0 {
		log.Printf("elevation: srtm lookup missed %d of %d points, using zeros", failed, len(coords))
	}
	return elevations, sources
}
