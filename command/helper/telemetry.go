package helper

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/armon/go-metrics"
	"github.com/armon/go-metrics/prometheus"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Telemetry is the global metrics setup of a command. Metrics go to an
// in-memory sink and, when an address is given, to a prometheus endpoint
// served on it.
type Telemetry struct {
	Inmem *metrics.InmemSink

	server   *http.Server
	listener net.Listener
}

// SetupTelemetry installs the global metrics sinks and starts serving them on prometheusAddr
func SetupTelemetry(prometheusAddr string, interval time.Duration, logger hclog.Logger) (*Telemetry, error) {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	inm := metrics.NewInmemSink(interval, time.Minute)
	sinks := metrics.FanoutSink{inm}

	if prometheusAddr != "" {
		promSink, err := prometheus.NewPrometheusSinkFrom(prometheus.PrometheusOpts{
			Name:       "xcc_prometheus_sink",
			Expiration: 0,
		})
		if err != nil {
			return nil, err
		}

		sinks = append(sinks, promSink)
	}

	metricsConf := metrics.DefaultConfig("xcc")
	metricsConf.EnableHostname = false

	if _, err := metrics.NewGlobal(metricsConf, sinks); err != nil {
		return nil, err
	}

	t := &Telemetry{Inmem: inm}

	if prometheusAddr == "" {
		return t, nil
	}

	listener, err := net.Listen("tcp", prometheusAddr)
	if err != nil {
		return nil, err
	}

	t.listener = listener

	t.server = &http.Server{
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}

	logger.Info("prometheus server started", "addr", t.listener.Addr().String())

	go func() {
		if err := t.server.Serve(t.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("prometheus HTTP server ListenAndServe", "err", err)
		}
	}()

	return t, nil
}

// Addr returns the address the prometheus endpoint listens on, if any
func (t *Telemetry) Addr() string {
	if t.listener == nil {
		return ""
	}

	return t.listener.Addr().String()
}

// Close stops the prometheus endpoint
func (t *Telemetry) Close() error {
	if t.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return t.server.Shutdown(ctx)
}
