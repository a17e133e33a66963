package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/saferoute/internal/cache"
	"github.com/neexbeast/saferoute/internal/geo"
	"github.com/neexbeast/saferoute/internal/hazard"
	"github.com/neexbeast/saferoute/internal/route"
)

var now = time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

const window = 10 * time.Minute

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	return newTestCacheWithWindow(t, window)
}

func newTestCacheWithWindow(t *testing.T, w time.Duration) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewCache(client, w), mr
}

func sampleRoute() route.Record {
	return route.Record{
		ID:              "3f1c7d1e-0000-4000-8000-000000000001",
		RequesterID:     "user-1",
		From:            geo.Point{Lat: 43.65, Lon: -79.38},
		To:              geo.Point{Lat: 43.66, Lon: -79.37},
		Path:            []geo.Point{{Lat: 43.65, Lon: -79.38}, {Lat: 43.66, Lon: -79.37}},
		RiskScore:       35,
		DistanceMeters:  1380,
		DurationSeconds: 1201,
		Hotspots:        []hazard.Hotspot{{Lat: 43.655, Lon: -79.375, Severity: 85, Type: hazard.Ice}},
		CreatedAt:       now,
	}
}

func TestCache_SetAndGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	rec := sampleRoute()
	require.NoError(t, c.Set(ctx, rec, now))

	got, err := c.Get(ctx, rec.Fingerprint())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec, *got)
}

func TestCache_Get_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	got, err := c.Get(context.Background(), sampleRoute().Fingerprint())
	require.NoError(t, err)
	assert.Nil(t, got, "cache miss should return nil, nil")
}

func TestCache_KeyIsExactFingerprint(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	rec := sampleRoute()
	require.NoError(t, c.Set(ctx, rec, now))

	other := rec.Fingerprint()
	other.RequesterID = "user-2"
	got, err := c.Get(ctx, other)
	require.NoError(t, err)
	assert.Nil(t, got, "different requester must miss")

	nudged := rec.Fingerprint()
	nudged.To.Lat += 0.0000001
	got, err = c.Get(ctx, nudged)
	require.NoError(t, err)
	assert.Nil(t, got, "different coordinates must miss")
}

func TestCache_Set_AnonymousIsNoop(t *testing.T) {
	c, mr := newTestCache(t)

	rec := sampleRoute()
	rec.RequesterID = ""
	require.NoError(t, c.Set(context.Background(), rec, now))
	assert.Empty(t, mr.Keys())
}

func TestCache_Set_ExpiredIsNoop(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(context.Background(), sampleRoute(), now.Add(11*time.Minute)))
	assert.Empty(t, mr.Keys())
}

func TestCache_TTLFollowsRecordAge(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	rec := sampleRoute()
	require.NoError(t, c.Set(ctx, rec, now.Add(4*time.Minute)))
	assert.Equal(t, 6*time.Minute, mr.TTL("route:"+rec.Fingerprint().String()))

	mr.FastForward(5 * time.Minute)
	got, err := c.Get(ctx, rec.Fingerprint())
	require.NoError(t, err)
	assert.NotNil(t, got)

	mr.FastForward(2 * time.Minute)
	got, err = c.Get(ctx, rec.Fingerprint())
	require.NoError(t, err)
	assert.Nil(t, got, "entry should be expired once the record leaves the window")
}

func TestCache_ZeroWindowStoresNothing(t *testing.T) {
	c, mr := newTestCacheWithWindow(t, 0)

	require.NoError(t, c.Set(context.Background(), sampleRoute(), now))
	assert.Empty(t, mr.Keys())
}

func TestCache_Get_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)

	fp := sampleRoute().Fingerprint()
	require.NoError(t, mr.Set("route:"+fp.String(), "not-json"))

	_, err := c.Get(context.Background(), fp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshaling")
}

func TestCache_Get_ServerDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, err := c.Get(context.Background(), sampleRoute().Fingerprint())
	require.Error(t, err)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := cache.Connect(context.Background(), "redis://localhost:19999")
	require.Error(t, err)
}

func TestConnect_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	_ = client.Close()
}
