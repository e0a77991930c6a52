package monitor

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/LeonardoBeccarini/iotmonitor/internal/model"
)

// ApiResponse è l'involucro comune delle risposte JSON.
type ApiResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// API espone in sola lettura lo stato del coordinatore.
type API struct {
	coord    *Coordinator
	gatherer prometheus.Gatherer
}

func NewAPI(coord *Coordinator, gatherer prometheus.Gatherer) *API {
	return &API{coord: coord, gatherer: gatherer}
}

// NewRouter crea un engine gin con le rotte già registrate.
func (a *API) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	a.SetupRoutes(r)
	return r
}

func (a *API) SetupRoutes(r *gin.Engine) {
	r.GET("/healthz", a.handleHealthz)
	r.GET("/readyz", a.handleReadyz)
	if a.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/status", a.handleStatus)
		v1.GET("/sensors", a.handleSensors)
		v1.GET("/sensors/:id", a.handleSensor)
		v1.GET("/controller", a.handleController)
	}
}

func (a *API) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, ApiResponse{Status: "success"})
}

// handleReadyz riflette lo stato del servizio di health gRPC.
func (a *API) handleReadyz(c *gin.Context) {
	resp, err := a.coord.Health().Check(c.Request.Context(),
		&healthpb.HealthCheckRequest{Service: HealthService})
	if err != nil || resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		c.JSON(http.StatusServiceUnavailable, ApiResponse{Status: "error", Error: "not serving"})
		return
	}
	c.JSON(http.StatusOK, ApiResponse{Status: "success", Data: resp.GetStatus().String()})
}

func (a *API) handleStatus(c *gin.Context) {
	st := a.coord.State()
	data := gin.H{
		"running":    a.coord.Running(),
		"network":    st.Network,
		"coverage":   st.Network.Coverage(),
		"zone":       st.Zone,
		"record":     st.Record,
		"controller": st.Controller,
	}
	if rec := a.coord.Recorder(); rec != nil {
		data["recorder"] = rec.Stats()
	}
	c.JSON(http.StatusOK, ApiResponse{Status: "success", Data: data})
}

func (a *API) handleSensors(c *gin.Context) {
	c.JSON(http.StatusOK, ApiResponse{Status: "success", Data: a.coord.State().Sensors})
}

func (a *API) handleSensor(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ApiResponse{Status: "error", Error: "invalid sensor id"})
		return
	}
	var found *model.SensorSnapshot
	for _, s := range a.coord.State().Sensors {
		if s.ID == id {
			found = &s
			break
		}
	}
	if found == nil {
		c.JSON(http.StatusNotFound, ApiResponse{Status: "error", Error: "sensor not found"})
		return
	}
	c.JSON(http.StatusOK, ApiResponse{Status: "success", Data: found})
}

func (a *API) handleController(c *gin.Context) {
	ctrl := a.coord.Controller()
	c.JSON(http.StatusOK, ApiResponse{Status: "success", Data: gin.H{
		"name":     ctrl.Name(),
		"state":    ctrl.State().String(),
		"interval": ctrl.Interval().String(),
		"cycles":   ctrl.Cycles(),
		"absorbed": ctrl.Absorbed(),
		"snapshot": ctrl.Snapshot(),
	}})
}
