package server

import (
	"fmt"
	"net/http"

	"github.com/ramblingpm/raceplanner-sub001/internal/config"
	"github.com/ramblingpm/raceplanner-sub001/internal/elevation"
)

// NewElevationProvider picks the elevation source named by cfg.ElevationProvider.
func NewElevationProvider(cfg config.Config) (elevation.Provider, error) {
	switch cfg.ElevationProvider {
	case "", config.ProviderOpenElevation:
		return elevation.NewClient(elevation.Config{
			EndpointURL:  cfg.ElevationAPIURL,
			MaxBatchSize: cfg.ElevationMaxBatchSize,
			MaxRetries:   cfg.ElevationMaxRetries,
			Timeout:      cfg.ElevationTimeout,
		}), nil
	case config.ProviderSRTM:
		return elevation.NewSRTMProvider(&http.Client{Timeout: cfg.ElevationTimeout})
	default:
		return nil, fmt.Errorf("unknown elevation provider %q", cfg.ElevationProvider)
	}
}
