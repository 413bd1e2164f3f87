package backfill

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestAdminHandlersStartAndStatus(t *testing.T) {
	store := newStore(t)
	addRoute(t, store, "Loop", testLine)
	provider := &fakeProvider{gate: make(chan struct{})}
	runner := NewRunner(newCoordinator(provider, store), nil, nil)
	defer runner.Close()

	app := fiber.New()
	RegisterAdminRoutes(app.Group("/admin/backfill"), runner)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/admin/backfill/", nil))
	if err != nil || resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start status: %v", err)
	}
	var body struct {
		RunID string `json:"run_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.RunID == "" {
		t.Fatalf("expected run id: %v", err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/admin/backfill/?force=true", nil))
	if err != nil || resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict while running: %v", err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/admin/backfill/"+body.RunID, nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("status request: %v", err)
	}
	var status RunStatus
	_ = json.NewDecoder(resp.Body).Decode(&status)
	if status.Status != RunRunning {
		t.Fatalf("expected running, got %+v", status)
	}

	close(provider.gate)
	runner.Wait()

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/admin/backfill/"+body.RunID, nil))
	_ = json.NewDecoder(resp.Body).Decode(&status)
	if status.Status != RunCompleted || status.Result == nil || status.Result.Total != 1 {
		t.Fatalf("expected completed result, got %+v", status)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/admin/backfill/unknown", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown run")
	}
}

func TestRouteElevationHandler(t *testing.T) {
	store := newStore(t)
	route := addRoute(t, store, "Loop", testLine)
	bare := addRoute(t, store, "Imported", nil)
	provider := &fakeProvider{}

	app := fiber.New()
	RegisterRouteRoutes(app.Group("/routes"), newCoordinator(provider, store), store)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/routes/"+route.ID+"/elevation", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("elevation status: %v", err)
	}
	var body struct {
		Progress Progress `json:"progress"`
		Route    struct {
			ElevationSeries []float64 `json:"elevation_series"`
		} `json:"route"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Progress.Status != StatusSuccess || len(body.Route.ElevationSeries) != len(testLine) {
		t.Fatalf("unexpected body: %+v", body)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodPost, "/routes/"+route.ID+"/elevation", nil))
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Progress.Message != MessageAlreadyExists || provider.Calls() != 1 {
		t.Fatalf("expected skip without force, got %+v", body.Progress)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodPost, "/routes/"+route.ID+"/elevation?force=true", nil))
	if resp.StatusCode != http.StatusOK || provider.Calls() != 2 {
		t.Fatalf("expected forced recompute")
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodPost, "/routes/"+bare.ID+"/elevation", nil))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without geometry, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodPost, "/routes/missing/elevation", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
