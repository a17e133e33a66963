package safety_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/neexbeast/saferoute/internal/geo"
	"github.com/neexbeast/saferoute/internal/hazard"
	"github.com/neexbeast/saferoute/internal/route"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---- hazard store ----

type fakeHazardStore struct {
	mu sync.Mutex

	records []hazard.Record
	saved   [][]hazard.Record

	findErr    error
	saveErr    error
	historyErr error

	lastBounds geo.Bounds
	lastSince  time.Time
	lastStart  time.Time
	lastEnd    time.Time
}

func (f *fakeHazardStore) SaveHazards(_ context.Context, records []hazard.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, records)
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeHazardStore) FindHazardsWithinBounds(_ context.Context, b geo.Bounds, since time.Time) ([]hazard.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastBounds, f.lastSince = b, since
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := []hazard.Record{}
	for _, h := range f.records {
		if within(b, h) && h.Timestamp.After(since) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHazardStore) FindHistoricalHazards(_ context.Context, b geo.Bounds, start, end time.Time) ([]hazard.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastBounds, f.lastStart, f.lastEnd = b, start, end
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	out := []hazard.Record{}
	for _, h := range f.records {
		if within(b, h) && !h.Timestamp.Before(start) && !h.Timestamp.After(end) {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// ---- route store ----

type fakeRouteStore struct {
	mu sync.Mutex

	records []route.Record

	saveErr error
	findErr error
	listErr error

	findCalls     int
	forRequester  string
	forAll        bool
	lastListSince time.Time
}

func (f *fakeRouteStore) SaveRoute(_ context.Context, rec route.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeRouteStore) FindRecentRoute(_ context.Context, fp route.Fingerprint, since time.Time) (*route.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	for i := len(f.records) - 1; i >= 0; i-- {
		rec := f.records[i]
		if rec.Fingerprint() == fp && !rec.CreatedAt.Before(since) {
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeRouteStore) FindRoutesForRequester(_ context.Context, requesterID string, since time.Time) ([]route.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forRequester, f.lastListSince = requesterID, since
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeRouteStore) FindAllRoutes(_ context.Context, since time.Time) ([]route.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forAll, f.lastListSince = true, since
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

// ---- route cache ----

type fakeCache struct {
	getFn func(ctx context.Context, fp route.Fingerprint) (*route.Record, error)
	setFn func(ctx context.Context, rec route.Record, now time.Time) error
	sets  []route.Record
}

func (f *fakeCache) Get(ctx context.Context, fp route.Fingerprint) (*route.Record, error) {
	if f.getFn == nil {
		return nil, nil
	}
	return f.getFn(ctx, fp)
}

func (f *fakeCache) Set(ctx context.Context, rec route.Record, now time.Time) error {
	f.sets = append(f.sets, rec)
	if f.setFn == nil {
		return nil
	}
	return f.setFn(ctx, rec, now)
}

// ---- routing provider ----

type fakeProvider struct {
	name  string
	path  []geo.Point
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FetchPath(_ context.Context, _, _ geo.Point) ([]geo.Point, error) {
	f.calls++
	return f.path, f.err
}

// ---- weather ----

type fakeWeather struct {
	fetchFn func(ctx context.Context, lat, lon float64) (*hazard.Snapshot, error)
}

func (f *fakeWeather) Fetch(ctx context.Context, lat, lon float64) (*hazard.Snapshot, error) {
	return f.fetchFn(ctx, lat, lon)
}

// ---- notifier ----

type fakeNotifier struct {
	mu sync.Mutex

	alerts  []hazard.Summary
	alertTo string
	updates []route.Record
	err     error
}

func (f *fakeNotifier) PublishHazardAlerts(_ context.Context, userID string, _ geo.Point, summaries []hazard.Summary, _ time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alertTo = userID
	f.alerts = append(f.alerts, summaries...)
	return len(summaries), f.err
}

func (f *fakeNotifier) PublishRouteUpdate(_ context.Context, rec route.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, rec)
	return f.err
}

func within(b geo.Bounds, h hazard.Record) bool {
	return h.Latitude >= b.MinLat && h.Latitude <= b.MaxLat && h.Longitude >= b.MinLon && h.Longitude <= b.MaxLon
}
