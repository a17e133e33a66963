// Package notify publishes hazard alerts and route updates over Redis pub/sub.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/saferoute/internal/geo"
	"github.com/neexbeast/saferoute/internal/hazard"
	"github.com/neexbeast/saferoute/internal/route"
)

const (
	HazardAlertsChannel = "hazard:alerts"
	RouteUpdatesChannel = "route:updates"
)

// AlertThreshold is the minimum severity that triggers a hazard alert.
const AlertThreshold = 70

// HazardAlert announces one severe hazard type near a requester.
type HazardAlert struct {
	UserID     string      `json:"userId"`
	HazardType hazard.Type `json:"hazardType"`
	Severity   int         `json:"severity"`
	Location   geo.Point   `json:"location"`
	Timestamp  time.Time   `json:"timestamp"`
}

// RouteUpdate announces a freshly computed route.
type RouteUpdate struct {
	UserID    string    `json:"userId"`
	RouteID   string    `json:"routeId"`
	RiskScore int       `json:"riskScore"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends JSON messages to the fixed channels.
type Publisher struct {
	client *redis.Client
}

// NewPublisher constructs a Publisher.
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishHazardAlerts sends one alert per summary at or above AlertThreshold
// and returns how many were sent. Anonymous requesters get no alerts.
func (p *Publisher) PublishHazardAlerts(ctx context.Context, userID string, at geo.Point, summaries []hazard.Summary, now time.Time) (int, error) {
	if userID == "" {
		return 0, nil
	}

	sent := 0
	for _, s := range summaries {
		if s.Severity < AlertThreshold {
			continue
		}
		alert := HazardAlert{
			UserID:     userID,
			HazardType: s.Type,
			Severity:   s.Severity,
			Location:   at,
			Timestamp:  now,
		}
		if err := p.publish(ctx, HazardAlertsChannel, alert); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// PublishRouteUpdate announces a persisted route. Anonymous routes are skipped.
func (p *Publisher) PublishRouteUpdate(ctx context.Context, rec route.Record) error {
	if rec.RequesterID == "" {
		return nil
	}
	return p.publish(ctx, RouteUpdatesChannel, RouteUpdate{
		UserID:    rec.RequesterID,
		RouteID:   rec.ID,
		RiskScore: rec.RiskScore,
		Timestamp: rec.CreatedAt,
	})
}

func (p *Publisher) publish(ctx context.Context, channel string, msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling %s message: %w", channel, err)
	}
	if err := p.client.Publish(ctx, channel, b).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", channel, err)
	}
	return nil
}
