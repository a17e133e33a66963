package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-multierror"

	"github.com/neexbeast/saferoute/internal/geo"
	"github.com/neexbeast/saferoute/internal/hazard"
	"github.com/neexbeast/saferoute/internal/route"
	"github.com/neexbeast/saferoute/internal/safety"
	"github.com/neexbeast/saferoute/internal/storage"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	routes  RoutePlanner
	hazards HazardAnalyzer
	log     *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(routes RoutePlanner, hazards HazardAnalyzer, log *slog.Logger) *Handlers {
	return &Handlers{
		routes:  routes,
		hazards: hazards,
		log:     log,
	}
}

type errorBody struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code. Internal details only reach the log.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *safety.ValidationError
	var perr *paramError

	switch {
	case errors.As(err, &perr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request", Problems: perr.problems()})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request", Problems: verr.Problems()})
	case errors.Is(err, storage.ErrUnavailable):
		h.log.Error(op+" failed: store unavailable", "request_id", middleware.GetReqID(r.Context()), "err", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "service temporarily unavailable"})
	default:
		h.log.Error(op+" failed", "request_id", middleware.GetReqID(r.Context()), "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

// GetHazards handles GET /api/v1/hazards?lat=&lon=&radius=.
func (h *Handlers) GetHazards(w http.ResponseWriter, r *http.Request) {
	p := newParams(r)
	req := safety.AreaRequest{
		Lat:         p.required("lat"),
		Lon:         p.required("lon"),
		RadiusKm:    p.optional("radius", safety.DefaultRadiusKm),
		RequesterID: requesterID(r),
	}
	if err := p.err(); err != nil {
		h.writeError(w, r, "analyze location", err)
		return
	}

	report, err := h.hazards.AnalyzeLocation(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "analyze location", err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// GetHazardHistory handles GET /api/v1/hazards/history?lat=&lon=&radius=&days=.
func (h *Handlers) GetHazardHistory(w http.ResponseWriter, r *http.Request) {
	p := newParams(r)
	req := safety.HistoryRequest{
		Lat:      p.required("lat"),
		Lon:      p.required("lon"),
		RadiusKm: p.optional("radius", safety.DefaultRadiusKm),
		Days:     p.integer("days", safety.DefaultHistory),
	}
	if err := p.err(); err != nil {
		h.writeError(w, r, "hazard history", err)
		return
	}

	records, err := h.hazards.History(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "hazard history", err)
		return
	}
	if records == nil {
		records = []hazard.Record{}
	}

	writeJSON(w, http.StatusOK, records)
}

// GetRoute handles GET /api/v1/route?fromLat=&fromLon=&toLat=&toLon=&pref=.
func (h *Handlers) GetRoute(w http.ResponseWriter, r *http.Request) {
	p := newParams(r)
	req := safety.RouteRequest{
		From:        geo.Point{Lat: p.required("fromLat"), Lon: p.required("fromLon")},
		To:          geo.Point{Lat: p.required("toLat"), Lon: p.required("toLon")},
		Preference:  r.URL.Query().Get("pref"),
		RequesterID: requesterID(r),
	}
	if err := p.err(); err != nil {
		h.writeError(w, r, "calculate route", err)
		return
	}

	resp, err := h.routes.CalculateSafeRoute(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "calculate route", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// routeSummary is a route history entry without the path geometry.
type routeSummary struct {
	ID              string    `json:"id"`
	From            geo.Point `json:"from"`
	To              geo.Point `json:"to"`
	DistanceMeters  float64   `json:"distance_meters"`
	DurationSeconds int       `json:"duration_seconds"`
	RiskScore       int       `json:"risk_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// GetRouteHistory handles GET /api/v1/route/history?days=.
// Identified callers see their own routes; anonymous callers see all routes.
func (h *Handlers) GetRouteHistory(w http.ResponseWriter, r *http.Request) {
	p := newParams(r)
	days := p.integer("days", safety.DefaultRouteDays)
	if err := p.err(); err != nil {
		h.writeError(w, r, "route history", err)
		return
	}

	records, err := h.routes.RouteHistory(r.Context(), requesterID(r), days)
	if err != nil {
		h.writeError(w, r, "route history", err)
		return
	}

	writeJSON(w, http.StatusOK, summarizeRoutes(records))
}

func summarizeRoutes(records []route.Record) []routeSummary {
	out := make([]routeSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, routeSummary{
			ID:              rec.ID,
			From:            rec.From,
			To:              rec.To,
			DistanceMeters:  rec.DistanceMeters,
			DurationSeconds: rec.DurationSeconds,
			RiskScore:       rec.RiskScore,
			CreatedAt:       rec.CreatedAt,
		})
	}
	return out
}

// paramError collects query parameters that are missing or unparseable.
type paramError struct {
	errs *multierror.Error
}

func (e *paramError) Error() string { return e.errs.Error() }

func (e *paramError) problems() []string {
	out := make([]string, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		out = append(out, err.Error())
	}
	return out
}

type params struct {
	r    *http.Request
	errs *multierror.Error
}

func newParams(r *http.Request) *params {
	return &params{r: r}
}

// lookup reports whether the parameter was sent at all; an explicit empty
// value counts as absent.
func (p *params) lookup(name string) (string, bool) {
	raw := p.r.URL.Query().Get(name)
	return raw, raw != ""
}

func (p *params) required(name string) float64 {
	raw, ok := p.lookup(name)
	if !ok {
		p.errs = multierror.Append(p.errs, fmt.Errorf("%s is required", name))
		return 0
	}
	return p.parseFloat(name, raw)
}

// optional returns def only when the parameter is absent. A sent value,
// zero included, is passed on for validation.
func (p *params) optional(name string, def float64) float64 {
	raw, ok := p.lookup(name)
	if !ok {
		return def
	}
	return p.parseFloat(name, raw)
}

func (p *params) parseFloat(name, raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = multierror.Append(p.errs, fmt.Errorf("%s must be a number, got %q", name, raw))
		return 0
	}
	return v
}

func (p *params) integer(name string, def int) int {
	raw, ok := p.lookup(name)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = multierror.Append(p.errs, fmt.Errorf("%s must be an integer, got %q", name, raw))
		return 0
	}
	return v
}

func (p *params) err() error {
	if p.errs == nil {
		return nil
	}
	return &paramError{errs: p.errs}
}

// HealthCheck handles GET /api/v1/health.
// Pings DB and Redis; returns 200 if both ok, 503 otherwise.
type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and redis connectivity.
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		redisStatus := "ok"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			redisStatus = "error"
			status = http.StatusServiceUnavailable
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
