package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meditriage/internal/apperror"
	"meditriage/internal/catalog"
	"meditriage/internal/triage"
)

type memoryStore struct {
	mu   sync.Mutex
	logs []*TriageLog
	err  error
}

func (m *memoryStore) Create(_ context.Context, log *TriageLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, log)
	return nil
}

func (m *memoryStore) GetBySession(_ context.Context, sessionID string) (*TriageLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].SessionID == sessionID {
			return m.logs[i], nil
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return nil, apperror.ErrNotFound
}

type capturePublisher struct {
	events []CompletedEvent
	err    error
}

func (c *capturePublisher) Publish(_ context.Context, e CompletedEvent) error {
	c.events = append(c.events, e)
	return c.err
}

const testSessionID = "triage_7c0e0e5e-0000-4000-8000-000000000001"

func sampleAssessment() triage.Assessment {
	return triage.Assessment{
		Request: triage.Request{
			SessionID:   testSessionID,
			AgeGroup:    "adult",
			Medications: []string{"ibuprofen"},
			Symptoms: []triage.PatientSymptom{
				{Name: "Chest pain", Severity: triage.SeverityCritical, Duration: "1 hour"},
				{Name: "Difficulty breathing", Severity: triage.SeveritySevere},
			},
		},
		Result: triage.Result{
			UrgencyLevel:          triage.UrgencyEmergency,
			Confidence:            0.72,
			RedFlagsDetected:      []string{"Chest pain", "Difficulty breathing"},
			Recommendation:        "Call 911",
			Disclaimer:            "notice",
			EstimatedResponseTime: "Immediate - Call 911 now",
			TopConditions: []triage.ConditionMatch{{
				Condition:  catalog.ConditionRecord{Name: "Myocardial infarction", TypicalUrgency: catalog.UrgencyEmergency},
				MatchScore: 0.9,
			}},
		},
		RedFlags: triage.RedFlagResult{
			HasRedFlags:       true,
			CriticalityLevel:  triage.CriticalityCritical,
			EmergencyPatterns: []triage.EmergencyPatternMatch{{Name: "Heart Attack"}},
		},
		Score:        triage.TriageScore{TotalScore: 191},
		ResponseTime: 12,
	}
}

func TestRecorderPersistsAndPublishes(t *testing.T) {
	store := &memoryStore{}
	pub := &capturePublisher{}
	rec := NewRecorder(store, pub, time.Second, zap.NewNop())
	rec.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	rec.Record(context.Background(), sampleAssessment())

	require.Len(t, store.logs, 1)
	entry := store.logs[0]
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, testSessionID, entry.SessionID)
	assert.Equal(t, "EMERGENCY", entry.UrgencyLevel)
	assert.Equal(t, 191, entry.TotalScore)
	assert.Equal(t, "CRITICAL", entry.Criticality)
	assert.True(t, entry.DisclaimerShown)
	assert.Equal(t, int64(12), entry.ResponseTimeMs)
	assert.JSONEq(t, `[{"name":"Chest pain","severity":"CRITICAL","duration":"1 hour"},{"name":"Difficulty breathing","severity":"SEVERE"}]`, string(entry.Symptoms))
	assert.JSONEq(t, `[{"name":"Myocardial infarction","urgency":"EMERGENCY","matchScore":0.9}]`, string(entry.TopConditions))
	assert.JSONEq(t, `{"medications":["ibuprofen"],"emergencyPatterns":["Heart Attack"]}`, string(entry.Metadata))

	require.Len(t, pub.events, 1)
	assert.Equal(t, entry.ID, pub.events[0].LogID)
	assert.True(t, pub.events[0].HasRedFlags)
}

func TestRecorderSwallowsFailures(t *testing.T) {
	pub := &capturePublisher{}
	rec := NewRecorder(&memoryStore{err: errors.New("disk full")}, pub, time.Second, zap.NewNop())

	assert.NotPanics(t, func() { rec.Record(context.Background(), sampleAssessment()) })
	assert.Empty(t, pub.events)

	store := &memoryStore{}
	rec = NewRecorder(store, &capturePublisher{err: errors.New("redis down")}, time.Second, zap.NewNop())
	rec.Record(context.Background(), sampleAssessment())
	assert.Len(t, store.logs, 1)
}

func TestPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	pub := NewPublisher(rdb, "")
	assert.Equal(t, DefaultChannel, pub.Channel())

	ctx := context.Background()
	sub := pub.Subscribe(ctx)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, pub.Publish(ctx, CompletedEvent{SessionID: "s1", UrgencyLevel: "URGENT", TotalScore: 64}))

	select {
	case msg := <-sub.Channel():
		var event CompletedEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, "s1", event.SessionID)
		assert.Equal(t, 64, event.TotalScore)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestTriageLogDAO(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := OpenGorm(sqlDB)
	require.NoError(t, err)
	dao := NewTriageLogDAO(db)

	mock.ExpectExec(`INSERT INTO "triage_logs"`).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, dao.Create(context.Background(), &TriageLog{ID: "7c0e0e5e-0000-4000-8000-000000000001", SessionID: "s1", UrgencyLevel: "URGENT"}))

	mock.ExpectQuery(`SELECT \* FROM "triage_logs" WHERE session_id = \$1 ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "urgency_level", "total_score"}).
			AddRow("7c0e0e5e-0000-4000-8000-000000000001", "s1", "URGENT", 64))
	entry, err := dao.GetBySession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 64, entry.TotalScore)

	mock.ExpectQuery(`SELECT \* FROM "triage_logs"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = dao.GetBySession(context.Background(), "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSessionHandler(t *testing.T) {
	store := &memoryStore{logs: []*TriageLog{{ID: "1", SessionID: testSessionID, UrgencyLevel: "SELF_CARE"}}}
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(store, zap.NewNop()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/triage/"+testSessionID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"urgencyLevel":"SELF_CARE"`)

	for _, id := range []string{triage.NewSessionID(), "unknown", "a"} {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/triage/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
		assert.Contains(t, rec.Body.String(), apperror.CodeSessionNotFound)
	}
}

func TestGetSessionHandlerIgnoresClientChosenIDs(t *testing.T) {
	store := &memoryStore{logs: []*TriageLog{{ID: "1", SessionID: "a", UrgencyLevel: "URGENT"}}}
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(store, zap.NewNop()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/triage/a", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "URGENT")
}

func TestRecorderKeepsClientReference(t *testing.T) {
	store := &memoryStore{}
	a := sampleAssessment()
	a.Request.ClientReference = "kiosk-7"

	NewRecorder(store, nil, time.Second, zap.NewNop()).Record(context.Background(), a)

	require.Len(t, store.logs, 1)
	assert.Equal(t, testSessionID, store.logs[0].SessionID)
	assert.Contains(t, string(store.logs[0].Metadata), `"clientReference":"kiosk-7"`)
}
