package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Collector bundles the Prometheus metrics for simulations and the HTTP and
// gRPC surfaces that trigger them.
type Collector struct {
	gatherer prometheus.Gatherer

	Simulations        *prometheus.CounterVec
	SimulationDuration *prometheus.HistogramVec
	DataPoints         prometheus.Histogram
	InFlight           prometheus.Gauge

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
	RPCRequests   *prometheus.CounterVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice on the same registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.Simulations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cyberdyn_simulations_total",
		Help: "Simulations run, labeled by solver method and outcome (ok or the error type).",
	}, []string{"method", "outcome"}), "cyberdyn_simulations_total"); err != nil {
		return nil, err
	}
	if c.SimulationDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cyberdyn_simulation_duration_seconds",
		Help:    "Wall time of a full simulation, integration through classification.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method"}), "cyberdyn_simulation_duration_seconds"); err != nil {
		return nil, err
	}
	if c.DataPoints, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cyberdyn_simulation_data_points",
		Help:    "Trajectory samples returned per successful simulation.",
		Buckets: prometheus.ExponentialBuckets(16, 4, 6),
	}), "cyberdyn_simulation_data_points"); err != nil {
		return nil, err
	}
	if c.InFlight, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cyberdyn_simulations_in_flight",
		Help: "Simulations currently holding a worker slot.",
	}), "cyberdyn_simulations_in_flight"); err != nil {
		return nil, err
	}
	if c.HTTPRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cyberdyn_http_requests_total",
		Help: "HTTP requests handled, labeled by route, method and status code.",
	}, []string{"route", "method", "code"}), "cyberdyn_http_requests_total"); err != nil {
		return nil, err
	}
	if c.HTTPDurations, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cyberdyn_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route"}), "cyberdyn_http_request_duration_seconds"); err != nil {
		return nil, err
	}
	if c.RPCRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cyberdyn_grpc_requests_total",
		Help: "gRPC calls handled, labeled by service, method and status code.",
	}, []string{"service", "method", "code"}), "cyberdyn_grpc_requests_total"); err != nil {
		return nil, err
	}
	return c, nil
}

// ObserveSimulation records one finished run. outcome is "ok" or an error
// type name.
func (c *Collector) ObserveSimulation(method, outcome string, elapsed time.Duration, points int) {
	if c == nil {
		return
	}
	c.Simulations.WithLabelValues(method, outcome).Inc()
	c.SimulationDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	if outcome == "ok" {
		c.DataPoints.Observe(float64(points))
	}
}

// SimulationStarted and SimulationFinished bracket a worker slot.
func (c *Collector) SimulationStarted() {
	if c != nil {
		c.InFlight.Inc()
	}
}

func (c *Collector) SimulationFinished() {
	if c != nil {
		c.InFlight.Dec()
	}
}

func (c *Collector) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	c.HTTPDurations.WithLabelValues(route).Observe(elapsed.Seconds())
}

// UnaryServerInterceptor counts unary RPCs by status code.
func (c *Collector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if c == nil {
			return resp, err
		}
		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		c.RPCRequests.WithLabelValues(service, method, status.Code(err).String()).Inc()
		return resp, err
	}
}

func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SplitMethod parses "/pkg.Service/Method" into its short service and method
// names, returning "unknown" for parts it cannot find.
func SplitMethod(fullMethod string) (string, string) {
	parts := strings.Split(strings.TrimPrefix(fullMethod, "/"), "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service, method := parts[len(parts)-2], parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		var zero T
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return zero, err
		}
		existing, ok := are.ExistingCollector.(T)
		if !ok {
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return existing, nil
	}
	return c, nil
}
