package metrics

import (
	"context"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	AuthRequestsTotal   metric.Int64Counter
	GuardDecisionsTotal metric.Int64Counter
	RoleGrantsTotal     metric.Int64Counter
	SearchRequestsTotal metric.Int64Counter
	RealtimeEventsTotal metric.Int64Counter
	UploadBytesTotal    metric.Int64Counter
	DBQueryErrorsTotal  metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments once, from the
// globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("tractorbazar")
		m := &AppMetrics{}
		var err error

		m.AuthRequestsTotal, err = meter.Int64Counter(
			"auth_requests_total",
			metric.WithDescription("Total number of authentication requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create auth_requests_total: %v", err)
		}

		m.GuardDecisionsTotal, err = meter.Int64Counter(
			"route_guard_decisions_total",
			metric.WithDescription("Route guard outcomes by decision"),
			metric.WithUnit("{decision}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create route_guard_decisions_total: %v", err)
		}

		m.RoleGrantsTotal, err = meter.Int64Counter(
			"role_grants_total",
			metric.WithDescription("Role assignments created"),
			metric.WithUnit("{grant}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create role_grants_total: %v", err)
		}

		m.SearchRequestsTotal, err = meter.Int64Counter(
			"search_requests_total",
			metric.WithDescription("Vehicle search requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create search_requests_total: %v", err)
		}

		m.RealtimeEventsTotal, err = meter.Int64Counter(
			"realtime_events_total",
			metric.WithDescription("Change events published to the realtime feed"),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create realtime_events_total: %v", err)
		}

		m.UploadBytesTotal, err = meter.Int64Counter(
			"upload_bytes_total",
			metric.WithDescription("Bytes uploaded to object storage"),
			metric.WithUnit("By"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create upload_bytes_total: %v", err)
		}

		m.DBQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance, or nil before
// InitAppMetrics ran (tests).
func Get() *AppMetrics {
	return appMetrics
}

// GuardDecision records one route guard outcome.
func GuardDecision(ctx context.Context, outcome string) {
	if appMetrics == nil {
		return
	}
	appMetrics.GuardDecisionsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

// DBQueryError records one failed database query.
func DBQueryError(ctx context.Context) {
	if appMetrics == nil {
		return
	}
	appMetrics.DBQueryErrorsTotal.Add(ctx, 1)
}

// RoleGrant records one role assignment.
func RoleGrant(ctx context.Context, role string) {
	if appMetrics == nil {
		return
	}
	appMetrics.RoleGrantsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("role", role)))
}
