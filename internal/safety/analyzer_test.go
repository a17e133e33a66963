package safety_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/saferoute/internal/geo"
	"github.com/neexbeast/saferoute/internal/hazard"
	"github.com/neexbeast/saferoute/internal/observability"
	"github.com/neexbeast/saferoute/internal/safety"
	"github.com/neexbeast/saferoute/internal/storage"
	"github.com/neexbeast/saferoute/internal/weather"
)

type analyzerFixture struct {
	analyzer *safety.Analyzer
	hazards  *fakeHazardStore
	metrics  *observability.Metrics
	notifier *fakeNotifier
}

func newAnalyzer(t *testing.T, w safety.WeatherFetcher) *analyzerFixture {
	t.Helper()
	f := &analyzerFixture{
		hazards:  &fakeHazardStore{},
		metrics:  observability.NewMetricsForTesting(),
		notifier: &fakeNotifier{},
	}
	f.analyzer = safety.NewAnalyzer(safety.Deps{
		Hazards:  f.hazards,
		Weather:  w,
		Notifier: f.notifier,
		Clock:    clockwork.NewFakeClockAt(start),
		Metrics:  f.metrics,
		Log:      discardLogger(),
	})
	return f
}

func snowstorm() *fakeWeather {
	return &fakeWeather{fetchFn: func(context.Context, float64, float64) (*hazard.Snapshot, error) {
		return &hazard.Snapshot{
			Temperature:      hazard.Float(-6),
			WeatherCondition: "Snow",
			Description:      "heavy snow",
			WindSpeed:        hazard.Float(6),
			Precipitation:    hazard.Float(2),
			Visibility:       hazard.Float(5000),
		}, nil
	}}
}

func areaReq(requester string) safety.AreaRequest {
	return safety.AreaRequest{Lat: origin.Lat, Lon: origin.Lon, RadiusKm: safety.DefaultRadiusKm, RequesterID: requester}
}

func TestAnalyzeLocation_DetectsAndPersists(t *testing.T) {
	f := newAnalyzer(t, snowstorm())

	report, err := f.analyzer.AnalyzeLocation(context.Background(), areaReq(""))
	require.NoError(t, err)

	require.Len(t, f.hazards.saved, 1)
	saved := f.hazards.saved[0]
	require.Len(t, saved, 2)
	for _, h := range saved {
		assert.Equal(t, weather.Source, h.Source)
		assert.Equal(t, start, h.Timestamp)
	}

	assert.Equal(t, geo.Point{Lat: origin.Lat, Lon: origin.Lon}, report.Location)
	assert.Equal(t, start, report.Timestamp)
	assert.Equal(t, []hazard.Type{hazard.Ice, hazard.Snow}, summaryTypes(report.Hazards))
	assert.Equal(t, 85, report.Hazards[0].Severity)
	assert.Equal(t, "SEVERE weather conditions detected. Avoid travel if possible.", report.Warning)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.HazardsDetected.WithLabelValues("SNOW")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.HazardsDetected.WithLabelValues("ICE")))
}

func TestAnalyzeLocation_MergesStoredHazards(t *testing.T) {
	f := newAnalyzer(t, snowstorm())
	f.hazards.records = []hazard.Record{
		{Latitude: origin.Lat + 0.01, Longitude: origin.Lon, Type: hazard.Snow, Severity: 90, Timestamp: start.Add(-30 * time.Minute)},
		{Latitude: origin.Lat, Longitude: origin.Lon, Type: hazard.Fog, Severity: 60, Timestamp: start.Add(-time.Hour)},
		{Latitude: origin.Lat, Longitude: origin.Lon, Type: hazard.Wind, Severity: 90, Timestamp: start.Add(-3 * time.Hour)}, // stale
		{Latitude: origin.Lat + 1, Longitude: origin.Lon, Type: hazard.Wind, Severity: 90, Timestamp: start},                // outside radius
	}

	report, err := f.analyzer.AnalyzeLocation(context.Background(), areaReq(""))
	require.NoError(t, err)

	assert.Equal(t, []hazard.Type{hazard.Snow, hazard.Ice, hazard.Fog}, summaryTypes(report.Hazards))
	assert.Equal(t, 90, report.Hazards[0].Severity, "max severity per type")
	assert.Equal(t, start.Add(-2*time.Hour), f.hazards.lastSince)
}

func TestAnalyzeLocation_RadiusBox(t *testing.T) {
	f := newAnalyzer(t, nil)

	_, err := f.analyzer.AnalyzeLocation(context.Background(), areaReq(""))
	require.NoError(t, err)
	assert.Equal(t, geo.BoundingBox(origin.Lat, origin.Lon, safety.DefaultRadiusKm), f.hazards.lastBounds)
}

func TestAnalyzeLocation_WeatherFailureUsesNeutral(t *testing.T) {
	w := &fakeWeather{fetchFn: func(context.Context, float64, float64) (*hazard.Snapshot, error) {
		return nil, errors.New("weather API returned status 401")
	}}
	f := newAnalyzer(t, w)

	report, err := f.analyzer.AnalyzeLocation(context.Background(), areaReq(""))
	require.NoError(t, err)
	assert.Empty(t, report.Hazards)
	assert.Empty(t, report.Warning)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.WeatherFallbacks))
}

func TestAnalyzeLocation_NoWeatherFetcher(t *testing.T) {
	f := newAnalyzer(t, nil)

	report, err := f.analyzer.AnalyzeLocation(context.Background(), areaReq(""))
	require.NoError(t, err)
	assert.NotNil(t, report.Hazards)
	assert.Empty(t, report.Hazards)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.WeatherFallbacks))
}

func TestAnalyzeLocation_StoreQueryFailure(t *testing.T) {
	f := newAnalyzer(t, snowstorm())
	f.hazards.findErr = fmt.Errorf("querying hazards: %w", storage.ErrUnavailable)

	_, err := f.analyzer.AnalyzeLocation(context.Background(), areaReq(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Empty(t, f.hazards.saved)
}

func TestAnalyzeLocation_SaveFailure(t *testing.T) {
	f := newAnalyzer(t, snowstorm())
	f.hazards.saveErr = fmt.Errorf("inserting 2 hazards: %w", storage.ErrUnavailable)

	_, err := f.analyzer.AnalyzeLocation(context.Background(), areaReq(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Contains(t, err.Error(), "saving detected hazards")
}

func TestAnalyzeLocation_AlertsIdentifiedRequester(t *testing.T) {
	f := newAnalyzer(t, snowstorm())
	f.notifier.err = errors.New("redis down")

	_, err := f.analyzer.AnalyzeLocation(context.Background(), areaReq("u1"))
	require.NoError(t, err, "publish failures never fail the request")
	assert.Equal(t, "u1", f.notifier.alertTo)
	assert.Len(t, f.notifier.alerts, 2)
}

func TestAnalyzeLocation_NoAlertsForAnonymous(t *testing.T) {
	f := newAnalyzer(t, snowstorm())

	_, err := f.analyzer.AnalyzeLocation(context.Background(), areaReq(""))
	require.NoError(t, err)
	assert.Empty(t, f.notifier.alerts)
}

func TestAnalyzeLocation_Validation(t *testing.T) {
	f := newAnalyzer(t, snowstorm())

	_, err := f.analyzer.AnalyzeLocation(context.Background(), safety.AreaRequest{Lat: 95, Lon: 0, RadiusKm: 0.01})
	verr := requireValidation(t, err)
	assert.Len(t, verr.Problems(), 2)
	assert.Empty(t, f.hazards.saved)
}

func TestAnalyzeLocation_ZeroRadiusRejected(t *testing.T) {
	f := newAnalyzer(t, snowstorm())

	req := areaReq("")
	req.RadiusKm = 0
	_, err := f.analyzer.AnalyzeLocation(context.Background(), req)
	requireValidation(t, err)
	assert.Empty(t, f.hazards.saved)
}

// ---- History ----

func TestHistory_WindowNewestFirst(t *testing.T) {
	f := newAnalyzer(t, nil)
	f.hazards.records = []hazard.Record{
		{ID: "old", Latitude: origin.Lat, Longitude: origin.Lon, Type: hazard.Ice, Severity: 70, Timestamp: start.Add(-6 * 24 * time.Hour)},
		{ID: "new", Latitude: origin.Lat, Longitude: origin.Lon, Type: hazard.Snow, Severity: 60, Timestamp: start.Add(-time.Hour)},
		{ID: "expired", Latitude: origin.Lat, Longitude: origin.Lon, Type: hazard.Fog, Severity: 60, Timestamp: start.Add(-8 * 24 * time.Hour)},
	}

	got, err := f.analyzer.History(context.Background(), safety.HistoryRequest{
		Lat:      origin.Lat,
		Lon:      origin.Lon,
		RadiusKm: safety.DefaultRadiusKm,
		Days:     safety.DefaultHistory,
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "old", got[1].ID)
	assert.Equal(t, start.Add(-7*24*time.Hour), f.hazards.lastStart)
	assert.Equal(t, start, f.hazards.lastEnd)
}

func TestHistory_InvalidDays(t *testing.T) {
	f := newAnalyzer(t, nil)
	_, err := f.analyzer.History(context.Background(), safety.HistoryRequest{Lat: origin.Lat, Lon: origin.Lon, RadiusKm: 5, Days: 91})
	requireValidation(t, err)

	_, err = f.analyzer.History(context.Background(), safety.HistoryRequest{Lat: origin.Lat, Lon: origin.Lon, RadiusKm: 5, Days: 0})
	requireValidation(t, err)
	assert.True(t, f.hazards.lastEnd.IsZero(), "store must not be queried")
}

func TestHistory_StoreError(t *testing.T) {
	f := newAnalyzer(t, nil)
	f.hazards.historyErr = fmt.Errorf("querying hazards: %w", storage.ErrUnavailable)

	_, err := f.analyzer.History(context.Background(), safety.HistoryRequest{Lat: origin.Lat, Lon: origin.Lon, RadiusKm: 5, Days: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func summaryTypes(summaries []hazard.Summary) []hazard.Type {
	out := make([]hazard.Type, len(summaries))
	for i, s := range summaries {
		out[i] = s.Type
	}
	return out
}
