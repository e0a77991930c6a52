package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/LeonardoBeccarini/iotmonitor/internal/metrics"
	"github.com/LeonardoBeccarini/iotmonitor/internal/model"
)

func newTestRouter(t *testing.T) (*Coordinator, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := testLogger()
	reg := prometheus.NewRegistry()
	c, err := New(Options{Config: fastConfig(), Logger: logger, Metrics: metrics.New(reg), StrategyFor: constant})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, NewAPI(c, reg).NewRouter()
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestReadyzFollowsLifecycle(t *testing.T) {
	c, r := newTestRouter(t)

	if w := get(r, "/healthz"); w.Code != http.StatusOK {
		t.Fatalf("healthz got %d", w.Code)
	}
	if w := get(r, "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before start got %d", w.Code)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if w := get(r, "/readyz"); w.Code != http.StatusOK {
		t.Fatalf("readyz while running got %d", w.Code)
	}
	c.Shutdown(context.Background())
	if w := get(r, "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz after shutdown got %d", w.Code)
	}
}

func TestSensorRoutes(t *testing.T) {
	_, r := newTestRouter(t)

	w := get(r, "/api/v1/sensors")
	if w.Code != http.StatusOK {
		t.Fatalf("sensors got %d", w.Code)
	}
	var resp struct {
		Status string `json:"status"`
		Data   []struct {
			ID   int    `json:"id"`
			Type string `json:"type"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "success" || len(resp.Data) != 4 || resp.Data[2].Type != "CO2" {
		t.Fatalf("sensors body %s", w.Body.String())
	}

	if w := get(r, "/api/v1/sensors/4"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"Light"`) {
		t.Fatalf("sensor 4 got %d %s", w.Code, w.Body.String())
	}
	if w := get(r, "/api/v1/sensors/99"); w.Code != http.StatusNotFound {
		t.Fatalf("missing sensor got %d", w.Code)
	}
	if w := get(r, "/api/v1/sensors/abc"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id got %d", w.Code)
	}
}

func TestStatusControllerAndMetrics(t *testing.T) {
	c, r := newTestRouter(t)
	c.Controller().RunCycle()

	w := get(r, "/api/v1/status")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Laboratorio Central") {
		t.Fatalf("status got %d %s", w.Code, w.Body.String())
	}
	w = get(r, "/api/v1/controller")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "EnvironmentalController-1") {
		t.Fatalf("controller got %d %s", w.Code, w.Body.String())
	}
	w = get(r, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "iotmonitor_control_actions_total") {
		t.Fatalf("metrics got %d", w.Code)
	}
}

// blockingStore trattiene Save finché release non viene chiuso.
type blockingStore struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) Save(ctx context.Context, _ model.NetworkState) error {
	close(b.entered)
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil
}

func (b *blockingStore) Load(context.Context) (model.NetworkState, error) {
	return model.NetworkState{}, nil
}

func TestStatusRespondsDuringShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, _ := testLogger()
	store := &blockingStore{entered: make(chan struct{}), release: make(chan struct{})}
	c, err := New(Options{Config: fastConfig(), Logger: logger, Store: store, StrategyFor: constant})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := NewAPI(c, nil).NewRouter()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	finished := make(chan Summary, 1)
	go func() { finished <- c.Shutdown(context.Background()) }()
	<-store.entered

	answered := make(chan int, 1)
	go func() { answered <- get(r, "/api/v1/status").Code }()
	select {
	case code := <-answered:
		if code != http.StatusOK {
			t.Fatalf("status during shutdown got %d", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("status endpoint blocked while shutdown was saving")
	}
	if c.Running() {
		t.Fatalf("coordinator should not report running during shutdown")
	}

	close(store.release)
	<-finished
}
