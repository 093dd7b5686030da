package priority

import (
	"context"
	"log/slog"
	"math"
	"strings"
)

// Urgency scores by problem type, 0-10 scale. Higher means more urgent.
var urgencyScores = map[string]float64{
	"electrical":       9, // power outages, live-wire hazards
	"sewage":           8, // health hazard
	"street light":     8, // public safety
	"water supply":     7,
	"drainage":         7,
	"pothole":          6,
	"road repair":      6,
	"public transport": 5,
	"cleaning":         4,
	"other":            5,
}

const defaultUrgency = 5

// PendingCounter counts pending reports near a point. The production
// implementation runs a spatial query against the reports table.
type PendingCounter interface {
	CountPendingNear(ctx context.Context, lon, lat, radiusMeters float64) (int64, error)
}

// Scorer computes the 0-10 priority score assigned to a report at creation:
// a local-density component blended with a problem-type urgency component.
type Scorer struct {
	counter       PendingCounter
	densityWeight float64
	urgencyWeight float64
	radiusMeters  float64
	logger        *slog.Logger
}

func NewScorer(counter PendingCounter, densityWeight, urgencyWeight, radiusMeters float64, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{
		counter:       counter,
		densityWeight: densityWeight,
		urgencyWeight: urgencyWeight,
		radiusMeters:  radiusMeters,
		logger:        logger,
	}
}

// Score never fails: when the spatial count is unavailable it falls back to
// the urgency-only score so report creation is never blocked.
func (s *Scorer) Score(ctx context.Context, lon, lat float64, problemType string) float64 {
	urgency := Urgency(problemType)

	nearby, err := s.counter.CountPendingNear(ctx, lon, lat, s.radiusMeters)
	if err != nil {
		s.logger.Error("spatial count failed, falling back to urgency-only score",
			slog.String("problem_type", problemType),
			slog.Any("err", err),
		)
		return round2(urgency * s.urgencyWeight)
	}

	density := DensityComponent(nearby)
	score := round2(density*s.densityWeight + urgency*s.urgencyWeight)

	s.logger.Debug("priority computed",
		slog.Float64("score", score),
		slog.Float64("density", density),
		slog.Float64("urgency", urgency),
		slog.Int64("nearby", nearby),
	)

	return score
}

// DensityComponent saturates at 10 co-located pending reports.
func DensityComponent(nearbyCount int64) float64 {
	return math.Min(float64(nearbyCount)/10.0, 1.0) * 10
}

// Urgency returns the urgency component for a free-text problem type,
// falling back to a mid value for unseen types.
func Urgency(problemType string) float64 {
	if u, ok := urgencyScores[strings.ToLower(strings.TrimSpace(problemType))]; ok {
		return u
	}
	return defaultUrgency
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
