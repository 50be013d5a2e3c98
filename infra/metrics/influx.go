package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/enervision/transition/core/metrics"
	"github.com/enervision/transition/core/model"
	"github.com/enervision/transition/infra/logger"
)

// InfluxConfig locates the InfluxDB instance forecast points are
// written to.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes forecast runs and series to InfluxDB using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails, so a missing metrics store never
// blocks a forecast run.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.Sink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordForecastRun writes the run summary as one point.
func (s *InfluxSink) RecordForecastRun(ev coremetrics.ForecastRunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("forecast_run").
		AddTag("run_id", ev.RunID).
		AddTag("market", ev.Market).
		AddTag("region", ev.Region).
		AddTag("passed", strconv.FormatBool(ev.Passed)).
		AddField("technologies", ev.Technologies).
		AddField("errors", ev.Errors).
		AddField("warnings", ev.Warnings).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordForecast writes one point per technology and forecast year.
func (s *InfluxSink) RecordForecast(runID string, mf model.MarketForecast) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for name, demand := range mf.Demand {
		for i, year := range mf.Years {
			p := write.NewPointWithMeasurement("forecast_demand").
				AddTag("run_id", runID).
				AddTag("market", mf.Market).
				AddTag("region", mf.Region).
				AddTag("technology", name).
				AddTag("role", string(mf.Roles[name])).
				AddField("year", year).
				AddField("demand", demand[i]).
				AddField("share", mf.Share[name][i]).
				SetTime(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
			if err := s.writeAPI.WritePoint(ctx, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
