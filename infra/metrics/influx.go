package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/medifleet/medifleet/core/activity"
	coremetrics "github.com/medifleet/medifleet/core/metrics"
	"github.com/medifleet/medifleet/infra/logger"
)

// InfluxSink writes coordination events to an InfluxDB instance using
// the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails, so a missing Influx never blocks
// coordination.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
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

// RecordAuction writes the auction outcome as a point.
func (s *InfluxSink) RecordAuction(ev coremetrics.AuctionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("auction_event").
		AddTag("destination", string(ev.Destination)).
		AddTag("failed", strconv.FormatBool(ev.Failed)).
		AddTag("winner", ev.Winner).
		AddField("score", ev.Score).
		AddField("bidders", ev.Bidders).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTask writes a task lifecycle observation.
func (s *InfluxSink) RecordTask(ev coremetrics.TaskEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("task_event").
		AddTag("destination", string(ev.Destination)).
		AddTag("priority", string(ev.Priority)).
		AddTag("status", string(ev.Status)).
		AddField("task_id", ev.TaskID).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordMovement writes a settled transit.
func (s *InfluxSink) RecordMovement(ev coremetrics.MovementEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("movement_event").
		AddTag("robot", ev.Robot).
		AddTag("from", string(ev.From)).
		AddTag("to", string(ev.To)).
		AddTag("success", strconv.FormatBool(ev.Success)).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		AddField("latency_ms", ev.Latency.Milliseconds()).
		AddField("task_id", ev.TaskID).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// WriteEntry exports an activity log line, letting the sink double as
// the log's external store.
func (s *InfluxSink) WriteEntry(e activity.Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("activity_log").
		AddField("message", e.Message).
		SetTime(e.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
