// Package trips persists planned trips into the per-user document collection.
//
// A trip write is a small saga. In the default two-phase mode the document is
// added without its id, then patched with the id the store assigned:
//
//	draft --Add ok--> created --Update ok--> finalized
//	                  created --Update err--> orphaned
//
// A phase one failure leaves nothing behind. A phase two failure leaves an
// orphan document lacking the id field; it is reported, never rolled back or
// retried, and can be repaired explicitly with RepairOrphan. Atomic mode
// allocates the id first and writes the complete document in one call.
package trips

import (
	"context"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/grovetools/areatrip/errors"
	"github.com/grovetools/areatrip/internal/docstore"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/grovetools/areatrip/schema"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/grovetools/areatrip/internal/trips"

// Mode selects the write strategy.
type Mode string

const (
	// ModeTwoPhase adds the document, then patches its id in.
	ModeTwoPhase Mode = "two-phase"
	// ModeAtomic allocates the id up front and writes once.
	ModeAtomic Mode = "atomic"
)

// ParseMode validates a configured write mode. Empty selects two-phase.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.TrimSpace(s)) {
	case "", ModeTwoPhase:
		return ModeTwoPhase, nil
	case ModeAtomic:
		return ModeAtomic, nil
	}
	return "", apperrors.InvalidArgument("write_mode", fmt.Sprintf("unknown mode %q", s))
}

// SagaState is the lifecycle of one trip write.
type SagaState string

const (
	StateDraft     SagaState = "draft"
	StateCreated   SagaState = "created"
	StateFinalized SagaState = "finalized"
	StateOrphaned  SagaState = "orphaned"
)

// Saga records the outcome of one write.
type Saga struct {
	Owner      string
	Collection string
	Mode       Mode
	DocID      string
	State      SagaState
}

// Service writes and reads trips.
type Service struct {
	store  docstore.Store
	mode   Mode
	logger *logrus.Entry
	tracer trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithMode selects the write strategy.
func WithMode(mode Mode) Option {
	return func(s *Service) {
		s.mode = mode
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		s.tracer = tp.Tracer(tracerName)
	}
}

// New creates a trip service over st.
func New(st docstore.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		mode:  ModeTwoPhase,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		s.logger = logrus.NewEntry(logger)
	}
	if s.tracer == nil {
		s.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
	return s
}

// Mode returns the configured write strategy.
func (s *Service) Mode() Mode {
	return s.mode
}

// CreateTrip persists draft for ownerID and returns the document id once the
// write is complete.
func (s *Service) CreateTrip(ctx context.Context, ownerID string, draft models.TripDraft) (string, error) {
	saga, err := s.Run(ctx, ownerID, draft)
	if err != nil {
		return "", err
	}
	return saga.DocID, nil
}

// Run executes the write and returns the saga record, including on failure.
func (s *Service) Run(ctx context.Context, ownerID string, draft models.TripDraft) (Saga, error) {
	saga := Saga{
		Owner:      ownerID,
		Collection: docstore.UserTrips(ownerID),
		Mode:       s.mode,
		State:      StateDraft,
	}

	ctx, span := s.tracer.Start(ctx, "trips.create", trace.WithAttributes(
		attribute.String("trip.owner", ownerID),
		attribute.String("trip.area_id", draft.AreaID),
		attribute.String("trip.write_mode", string(s.mode)),
	))
	defer span.End()

	doc, err := s.validate(ownerID, draft)
	if err != nil {
		failSpan(span, err)
		return saga, err
	}

	if s.mode == ModeAtomic {
		err = s.writeAtomic(ctx, &saga, doc)
	} else {
		err = s.writeTwoPhase(ctx, &saga, doc)
	}

	span.SetAttributes(
		attribute.String("trip.id", saga.DocID),
		attribute.String("trip.saga_state", string(saga.State)),
	)
	if err != nil {
		failSpan(span, err)
		return saga, err
	}
	return saga, nil
}

func (s *Service) validate(ownerID string, draft models.TripDraft) (models.TripDocument, error) {
	if strings.TrimSpace(ownerID) == "" {
		return models.TripDocument{}, apperrors.NotAuthenticated("create trip")
	}
	if strings.TrimSpace(draft.AreaID) == "" {
		return models.TripDocument{}, apperrors.InvalidArgument(models.FieldAreaID, "is required")
	}
	if strings.TrimSpace(draft.AreaName) == "" {
		return models.TripDocument{}, apperrors.InvalidArgument(models.FieldAreaName, "is required")
	}
	doc := draft.Document()
	if err := schema.ValidateTrip(doc); err != nil {
		return models.TripDocument{}, apperrors.Wrap(err, apperrors.ErrCodeInvalidArgument, "trip document is invalid")
	}
	return doc, nil
}

func (s *Service) writeTwoPhase(ctx context.Context, saga *Saga, doc models.TripDocument) error {
	log := s.logger.WithFields(logrus.Fields{
		"owner":      saga.Owner,
		"collection": saga.Collection,
		"area_id":    doc.AreaID,
	})

	addCtx, addSpan := s.tracer.Start(ctx, "trips.phase1.add")
	id, err := s.store.Add(addCtx, saga.Collection, doc.Fields())
	if err != nil {
		failSpan(addSpan, err)
		addSpan.End()
		log.WithError(err).Error("Trip document was not created")
		return apperrors.RemoteWriteFailed(1, saga.Collection, "", err)
	}
	addSpan.SetAttributes(attribute.String("trip.id", id))
	addSpan.End()

	saga.DocID = id
	saga.State = StateCreated
	log = log.WithField("doc_id", id)
	log.Debug("Trip document created")

	finCtx, finSpan := s.tracer.Start(ctx, "trips.phase2.finalize", trace.WithAttributes(
		attribute.String("trip.id", id),
	))
	defer finSpan.End()
	if err := s.store.Update(finCtx, saga.Collection, id, map[string]interface{}{models.FieldID: id}); err != nil {
		saga.State = StateOrphaned
		failSpan(finSpan, err)
		log.WithError(err).Error("Trip document left without id")
		return apperrors.RemoteWriteFailed(2, saga.Collection, id, err)
	}

	saga.State = StateFinalized
	log.Info("Trip saved")
	return nil
}

func (s *Service) writeAtomic(ctx context.Context, saga *Saga, doc models.TripDocument) error {
	id := s.store.NewID(saga.Collection)
	log := s.logger.WithFields(logrus.Fields{
		"owner":      saga.Owner,
		"collection": saga.Collection,
		"doc_id":     id,
	})

	setCtx, span := s.tracer.Start(ctx, "trips.atomic.set", trace.WithAttributes(
		attribute.String("trip.id", id),
	))
	defer span.End()

	fields := doc.Fields()
	fields[models.FieldID] = id
	if err := s.store.Set(setCtx, saga.Collection, id, fields); err != nil {
		failSpan(span, err)
		log.WithError(err).Error("Trip document was not written")
		return apperrors.RemoteWriteFailed(1, saga.Collection, "", err)
	}

	saga.DocID = id
	saga.State = StateFinalized
	log.Info("Trip saved")
	return nil
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
