package trips

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/grovetools/areatrip/errors"
	"github.com/grovetools/areatrip/internal/docstore"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recordingStore wraps a memory store, logs every call and can fail a
// chosen operation.
type recordingStore struct {
	*docstore.MemoryStore

	mu        sync.Mutex
	calls     []string
	failAdd   error
	failUpd   error
	failSet   error
	updateArg map[string]interface{}
}

func newRecordingStore(ids ...string) *recordingStore {
	var opts []docstore.MemoryOption
	if len(ids) > 0 {
		queue := append([]string(nil), ids...)
		opts = append(opts, docstore.WithIDGenerator(func() string {
			id := queue[0]
			queue = queue[1:]
			return id
		}))
	}
	return &recordingStore{MemoryStore: docstore.NewMemoryStore(opts...)}
}

func (r *recordingStore) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recordingStore) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recordingStore) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	r.record("add " + collection)
	if r.failAdd != nil {
		return "", r.failAdd
	}
	return r.MemoryStore.Add(ctx, collection, data)
}

func (r *recordingStore) Update(ctx context.Context, collection, id string, data map[string]interface{}) error {
	r.record("update " + collection + "/" + id)
	r.updateArg = data
	if r.failUpd != nil {
		return r.failUpd
	}
	return r.MemoryStore.Update(ctx, collection, id, data)
}

func (r *recordingStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	r.record("set " + collection + "/" + id)
	if r.failSet != nil {
		return r.failSet
	}
	return r.MemoryStore.Set(ctx, collection, id, data)
}

var mayFirst = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func lakeview() models.TripDraft {
	return models.NewDraft(models.ClickedArea{
		ID:       "a7",
		Name:     "Lakeview",
		Position: models.GeoPoint{Lat: 10, Lng: 20},
	}, mayFirst)
}

func TestTwoPhaseSequencing(t *testing.T) {
	st := newRecordingStore("X1")
	svc := New(st)

	id, err := svc.CreateTrip(context.Background(), "u1", lakeview())
	require.NoError(t, err)
	assert.Equal(t, "X1", id)

	assert.Equal(t, []string{
		"add users/u1/trips",
		"update users/u1/trips/X1",
	}, st.Calls())
	assert.Equal(t, map[string]interface{}{"id": "X1"}, st.updateArg)
}

func TestLakeviewScenario(t *testing.T) {
	st := newRecordingStore()
	svc := New(st)
	ctx := context.Background()

	id, err := svc.CreateTrip(ctx, "u1", lakeview())
	require.NoError(t, err)

	docs, err := st.List(ctx, "users/u1/trips")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0].Data
	assert.Equal(t, id, docs[0].ID)
	assert.Equal(t, id, doc["id"])
	assert.Equal(t, "a7", doc["areaId"])
	assert.Equal(t, "Lakeview", doc["areaName"])
	assert.Equal(t, map[string]interface{}{"lat": float64(10), "lng": float64(20)}, doc["position"])
	assert.Equal(t, "My Trip", doc["name"])
	assert.Equal(t, []interface{}{"I should take some beers..."}, doc["notes"])
	assert.Equal(t, "2024-05-01T00:00:00Z", doc["date"])

	trip, err := svc.GetTrip(ctx, "u1", id)
	require.NoError(t, err)
	assert.True(t, trip.Date.Equal(mayFirst))
	assert.Equal(t, models.GeoPoint{Lat: 10, Lng: 20}, trip.Position)
	assert.False(t, trip.Orphaned())
}

func TestPhaseOneFailureLeavesNothing(t *testing.T) {
	st := newRecordingStore()
	st.failAdd = errors.New("permission denied")
	svc := New(st)
	ctx := context.Background()

	saga, err := svc.Run(ctx, "u1", lakeview())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeRemoteWriteFailed))
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	phase, _ := appErr.Detail("phase")
	assert.Equal(t, 1, phase)
	assert.Equal(t, StateDraft, saga.State)
	assert.Equal(t, []string{"add users/u1/trips"}, st.Calls(), "no phase two after a failed add")

	docs, err := st.List(ctx, "users/u1/trips")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestPhaseTwoFailureLeavesOrphan(t *testing.T) {
	st := newRecordingStore("X2")
	st.failUpd = errors.New("deadline exceeded")
	svc := New(st)
	ctx := context.Background()

	saga, err := svc.Run(ctx, "u1", lakeview())
	require.Error(t, err)
	assert.Equal(t, StateOrphaned, saga.State)
	assert.Equal(t, "X2", saga.DocID)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeRemoteWriteFailed, appErr.Code)
	docID, _ := appErr.Detail("docId")
	assert.Equal(t, "X2", docID)
	orphaned, _ := appErr.Detail("orphaned")
	assert.Equal(t, true, orphaned)

	snap, err := st.Get(ctx, "users/u1/trips", "X2")
	require.NoError(t, err)
	_, hasID := snap.Data["id"]
	assert.False(t, hasID)
}

func TestOrphanRepair(t *testing.T) {
	st := newRecordingStore("X2", "X3")
	st.failUpd = errors.New("unavailable")
	svc := New(st)
	ctx := context.Background()

	_, err := svc.CreateTrip(ctx, "u1", lakeview())
	require.Error(t, err)

	st.failUpd = nil
	_, err = svc.CreateTrip(ctx, "u1", lakeview())
	require.NoError(t, err)

	orphans, err := svc.FindOrphans(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "X2", orphans[0].Key)

	all, err := svc.ListTrips(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 2, "listing includes orphans")

	repaired, err := svc.RepairOrphan(ctx, "u1", "X2")
	require.NoError(t, err)
	assert.Equal(t, "X2", repaired.ID)

	orphans, err = svc.FindOrphans(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, orphans)

	_, err = svc.RepairOrphan(ctx, "u1", "X3")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidArgument))
	_, err = svc.RepairOrphan(ctx, "u1", "nope")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeDocumentNotFound))
}

func TestAtomicModeWritesOnce(t *testing.T) {
	st := newRecordingStore("A1", "A2")
	svc := New(st, WithMode(ModeAtomic))
	ctx := context.Background()

	saga, err := svc.Run(ctx, "u1", lakeview())
	require.NoError(t, err)
	assert.Equal(t, StateFinalized, saga.State)
	assert.Equal(t, []string{"set users/u1/trips/A1"}, st.Calls())

	snap, err := st.Get(ctx, "users/u1/trips", "A1")
	require.NoError(t, err)
	assert.Equal(t, "A1", snap.Data["id"])

	st.failSet = errors.New("rejected")
	_, err = svc.CreateTrip(ctx, "u1", lakeview())
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeRemoteWriteFailed))
}

func TestPreconditions(t *testing.T) {
	st := newRecordingStore()
	svc := New(st)
	ctx := context.Background()

	_, err := svc.CreateTrip(ctx, "", lakeview())
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotAuthenticated))

	noArea := lakeview()
	noArea.AreaID = ""
	_, err = svc.CreateTrip(ctx, "u1", noArea)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidArgument))

	noNotes := lakeview()
	noNotes.Notes = nil
	_, err = svc.CreateTrip(ctx, "u1", noNotes)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidArgument))

	assert.Empty(t, st.Calls(), "invalid drafts never reach the store")

	_, err = svc.ListTrips(ctx, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotAuthenticated))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeTwoPhase, false},
		{"two-phase", ModeTwoPhase, false},
		{"atomic", ModeAtomic, false},
		{"eventual", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	svc := New(newRecordingStore("X1"), WithTracerProvider(tp))

	_, err := svc.CreateTrip(context.Background(), "u1", lakeview())
	require.NoError(t, err)

	var names []string
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.ElementsMatch(t, []string{"trips.phase1.add", "trips.phase2.finalize", "trips.create"}, names)
}
