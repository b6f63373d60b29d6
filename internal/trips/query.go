package trips

import (
	"context"
	"sort"
	"strings"

	apperrors "github.com/grovetools/areatrip/errors"
	"github.com/grovetools/areatrip/internal/docstore"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ListTrips returns every trip of owner, orphans included, latest date first.
func (s *Service) ListTrips(ctx context.Context, owner string) ([]models.Trip, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, apperrors.NotAuthenticated("list trips")
	}
	ctx, span := s.tracer.Start(ctx, "trips.list", trace.WithAttributes(
		attribute.String("trip.owner", owner),
	))
	defer span.End()

	snaps, err := s.store.List(ctx, docstore.UserTrips(owner))
	if err != nil {
		failSpan(span, err)
		return nil, err
	}

	out := make([]models.Trip, 0, len(snaps))
	for _, snap := range snaps {
		trip, err := models.TripFromFields(snap.ID, snap.Data)
		if err != nil {
			s.logger.WithError(err).WithField("doc_id", snap.ID).Warn("Skipping unreadable trip document")
			continue
		}
		out = append(out, trip)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	span.SetAttributes(attribute.Int("trip.count", len(out)))
	return out, nil
}

// GetTrip returns the trip stored under id.
func (s *Service) GetTrip(ctx context.Context, owner, id string) (models.Trip, error) {
	if strings.TrimSpace(owner) == "" {
		return models.Trip{}, apperrors.NotAuthenticated("show trip")
	}
	ctx, span := s.tracer.Start(ctx, "trips.get", trace.WithAttributes(
		attribute.String("trip.owner", owner),
		attribute.String("trip.id", id),
	))
	defer span.End()

	snap, err := s.store.Get(ctx, docstore.UserTrips(owner), id)
	if err != nil {
		failSpan(span, err)
		return models.Trip{}, err
	}
	return models.TripFromFields(snap.ID, snap.Data)
}

// FindOrphans lists documents whose second phase never landed.
func (s *Service) FindOrphans(ctx context.Context, owner string) ([]models.Trip, error) {
	all, err := s.ListTrips(ctx, owner)
	if err != nil {
		return nil, err
	}
	var orphans []models.Trip
	for _, trip := range all {
		if trip.Orphaned() {
			orphans = append(orphans, trip)
		}
	}
	return orphans, nil
}

// RepairOrphan writes the missing id field into the document stored under
// key. It is only ever run on request.
func (s *Service) RepairOrphan(ctx context.Context, owner, key string) (models.Trip, error) {
	trip, err := s.GetTrip(ctx, owner, key)
	if err != nil {
		return models.Trip{}, err
	}
	if !trip.Orphaned() {
		return models.Trip{}, apperrors.InvalidArgument("id", "trip "+key+" is not orphaned")
	}

	ctx, span := s.tracer.Start(ctx, "trips.repair", trace.WithAttributes(
		attribute.String("trip.owner", owner),
		attribute.String("trip.id", key),
	))
	defer span.End()

	collection := docstore.UserTrips(owner)
	if err := s.store.Update(ctx, collection, key, map[string]interface{}{models.FieldID: key}); err != nil {
		failSpan(span, err)
		return models.Trip{}, apperrors.RemoteWriteFailed(2, collection, key, err)
	}
	s.logger.WithFields(logrus.Fields{"owner": owner, "doc_id": key}).Info("Orphaned trip repaired")

	trip.ID = key
	return trip, nil
}
