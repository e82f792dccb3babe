package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stuud-backend/config"
	"stuud-backend/internal/chat"
	"stuud-backend/internal/db"
	"stuud-backend/internal/llm"
	"stuud-backend/internal/model"
	"stuud-backend/internal/search"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeStore is an in-memory records.Store that can be told to fail.
type fakeStore struct {
	mu         sync.Mutex
	faculty    []model.Faculty
	classrooms []model.Classroom
	events     []model.Event
	timetable  []model.TimetableEntry
	listErr    error
	addErr     error
	listCalls  int
	addCalls   int
}

func (s *fakeStore) ListFaculty(ctx context.Context) ([]model.Faculty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	return append([]model.Faculty{}, s.faculty...), s.listErr
}

func (s *fakeStore) ListClassrooms(ctx context.Context) ([]model.Classroom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	return append([]model.Classroom{}, s.classrooms...), s.listErr
}

func (s *fakeStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	return append([]model.Event{}, s.events...), s.listErr
}

func (s *fakeStore) ListTimetable(ctx context.Context) ([]model.TimetableEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	return append([]model.TimetableEntry{}, s.timetable...), s.listErr
}

func (s *fakeStore) AddFaculty(ctx context.Context, f model.Faculty) (*model.Faculty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCalls++
	if s.addErr != nil {
		return nil, s.addErr
	}
	f.ID = "fac-new"
	s.faculty = append(s.faculty, f)
	return &f, nil
}

func (s *fakeStore) AddClassroom(ctx context.Context, c model.Classroom) (*model.Classroom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCalls++
	if s.addErr != nil {
		return nil, s.addErr
	}
	c.ID = "room-new"
	s.classrooms = append(s.classrooms, c)
	return &c, nil
}

func (s *fakeStore) AddEvent(ctx context.Context, e model.Event) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCalls++
	if s.addErr != nil {
		return nil, s.addErr
	}
	e.ID = "evt-new"
	s.events = append(s.events, e)
	return &e, nil
}

func (s *fakeStore) AddTimetableEntry(ctx context.Context, t model.TimetableEntry) (*model.TimetableEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCalls++
	if s.addErr != nil {
		return nil, s.addErr
	}
	t.ID = "tt-new"
	s.timetable = append(s.timetable, t)
	return &t, nil
}

// stubBackend answers every call with reply/err, optionally blocking on gate.
type stubBackend struct {
	mu      sync.Mutex
	reply   string
	err     error
	gate    chan struct{}
	started chan struct{}
	calls   int
}

func (b *stubBackend) SendPrompt(ctx context.Context, prompt string) (string, error) {
	return b.Complete(ctx, llm.Request{})
}

func (b *stubBackend) SendPromptWithHistory(ctx context.Context, turns []llm.Turn) (string, error) {
	return b.Complete(ctx, llm.Request{})
}

func (b *stubBackend) Complete(ctx context.Context, req llm.Request) (string, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	if b.started != nil {
		b.started <- struct{}{}
	}
	if b.gate != nil {
		<-b.gate
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return b.reply, b.err
}

func (b *stubBackend) Describe(err error) string { return llm.LocalMarker + " " + err.Error() + "." }
func (b *stubBackend) Name() string              { return "stub" }

func (b *stubBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

type recordingNotifier struct {
	mu     sync.Mutex
	ids    []string
	titles []string
}

func (n *recordingNotifier) Dispatch(event model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, event.ID)
	n.titles = append(n.titles, event.Title)
}

var testServerConfig = &config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 60}

func newTestDeps(store *fakeStore, backend llm.Backend) Deps {
	return Deps{
		Records:   store,
		Chats:     chat.NewManager(backend, false, time.Minute),
		Suggester: search.NewSuggester(backend, search.DefaultMinQueryLength),
		Assistant: search.NewAssistant(backend),
		Notifier:  &recordingNotifier{},
	}
}

func performJSON(r http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestListRoutes(t *testing.T) {
	store := &fakeStore{
		faculty: []model.Faculty{{ID: "1", Name: "Dr. John Smith", Subjects: []string{"AI"}, Cabin: "A-101"}},
		events:  []model.Event{{ID: "e1", Title: "Tech Fest", StartDate: "2024-12-15", EndDate: "2024-12-17"}},
	}
	r := NewRouter(testServerConfig, newTestDeps(store, &stubBackend{}))

	w := performJSON(r, http.MethodGet, "/api/faculty", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[{"id":"1","name":"Dr. John Smith","subjects":["AI"],"cabin":"A-101"}]}`, w.Body.String())

	w = performJSON(r, http.MethodGet, "/api/events", nil)
	assert.JSONEq(t, `{"data":[{"id":"e1","title":"Tech Fest","description":"","startDate":"2024-12-15","endDate":"2024-12-17"}]}`, w.Body.String())

	w = performJSON(r, http.MethodGet, "/api/classrooms", nil)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestListRoutes_Degraded(t *testing.T) {
	store := &fakeStore{listErr: errors.New("timetable: backend responded with 500: boom")}
	r := NewRouter(testServerConfig, newTestDeps(store, &stubBackend{}))

	for i := 0; i < 2; i++ {
		w := performJSON(r, http.MethodGet, "/api/timetable", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":[],"degraded":true}`, w.Body.String())
	}
	assert.Equal(t, 2, store.listCalls, "degraded responses are not cached")
}

func TestGetMap(t *testing.T) {
	store := &fakeStore{
		faculty: []model.Faculty{
			{ID: "1", Name: "Dr. John Smith", Cabin: "Room 101"},
			{ID: "2", Name: "Dr. Sarah Johnson", Cabin: "B-205"},
		},
		classrooms: []model.Classroom{
			{ID: "r1", Name: "Room 101", Location: model.Location{Latitude: 37.78825, Longitude: -122.4324}},
			{ID: "r2", Name: "Lab 2"},
		},
	}
	r := NewRouter(testServerConfig, newTestDeps(store, &stubBackend{}))

	w := performJSON(r, http.MethodGet, "/api/map", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []struct {
			Name    string          `json:"name"`
			Faculty []model.Faculty `json:"faculty"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "Room 101", body.Data[0].Name)
	require.Len(t, body.Data[0].Faculty, 1)
	assert.Equal(t, "Dr. John Smith", body.Data[0].Faculty[0].Name)
	assert.Empty(t, body.Data[1].Faculty)
}

func TestAdmin_ClassroomValidation(t *testing.T) {
	store := &fakeStore{}
	r := NewRouter(testServerConfig, newTestDeps(store, &stubBackend{}))

	w := performJSON(r, http.MethodPost, "/api/admin/classrooms", gin.H{
		"name": "Room 101", "latitude": "37.78825", "longitude": "not-a-number",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Latitude and longitude must be valid numbers"}`, w.Body.String())

	w = performJSON(r, http.MethodPost, "/api/admin/faculty", gin.H{"name": "Dr. X"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Please fill in all required fields"}`, w.Body.String())

	assert.Equal(t, 0, store.addCalls, "invalid forms never reach the store")
}

func TestAdmin_AddFacultyThenList(t *testing.T) {
	store := &fakeStore{}
	r := NewRouter(testServerConfig, newTestDeps(store, &stubBackend{}))

	w := performJSON(r, http.MethodGet, "/api/faculty", nil)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())

	w = performJSON(r, http.MethodPost, "/api/admin/faculty", gin.H{
		"name": "Dr. John Smith", "subjects": "AI, ML , Systems", "cabin": "A-101",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"fac-new","name":"Dr. John Smith","subjects":["AI","ML","Systems"],"cabin":"A-101"}`, w.Body.String())

	w = performJSON(r, http.MethodGet, "/api/faculty", nil)
	assert.Contains(t, w.Body.String(), `"fac-new"`, "the cache is flushed after an insert")
}

func TestAdmin_AddEventNotifies(t *testing.T) {
	store := &fakeStore{}
	deps := newTestDeps(store, &stubBackend{})
	notifier := deps.Notifier.(*recordingNotifier)
	r := NewRouter(testServerConfig, deps)

	w := performJSON(r, http.MethodPost, "/api/admin/events", gin.H{
		"title": "Tech Fest", "description": "Annual technology festival",
		"startDate": "2024-12-15", "endDate": "2024-12-17",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"evt-new"}, notifier.ids)
	assert.Equal(t, []string{"Tech Fest"}, notifier.titles, "the stored event itself is handed to the notifier")

	w = performJSON(r, http.MethodPost, "/api/admin/events", gin.H{
		"title": "T", "description": "D", "startDate": "15-12-2024", "endDate": "2024-12-17",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, notifier.ids, 1)
}

func TestAdmin_StoreFailure(t *testing.T) {
	store := &fakeStore{addErr: errors.New("faculty: backend responded with 401: bad key")}
	deps := newTestDeps(store, &stubBackend{})
	r := NewRouter(testServerConfig, deps)

	w := performJSON(r, http.MethodPost, "/api/admin/timetable", gin.H{
		"day": "Monday", "startTime": "09:00", "endTime": "10:00",
		"subject": "AI", "faculty": "Dr. John Smith", "classroom": "Room 101",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"Failed to add timetable entry"}`, w.Body.String())

	w = performJSON(r, http.MethodPost, "/api/admin/events", gin.H{
		"title": "T", "description": "D", "startDate": "2024-12-15", "endDate": "2024-12-17",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, deps.Notifier.(*recordingNotifier).ids)
}

func TestChatRoutes(t *testing.T) {
	backend := &stubBackend{reply: "Room 101 is in the Main Building."}
	r := NewRouter(testServerConfig, newTestDeps(&fakeStore{}, backend))

	w := performJSON(r, http.MethodPost, "/api/chat/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	id := created["id"].(string)
	assert.Equal(t, true, created["sendEnabled"])
	assert.Len(t, created["messages"], 1)

	w = performJSON(r, http.MethodPost, "/api/chat/sessions/"+id+"/messages", gin.H{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performJSON(r, http.MethodPost, "/api/chat/sessions/"+id+"/messages", gin.H{"text": "Where is Room 101?"})
	require.Equal(t, http.StatusOK, w.Code)
	sent := decode(t, w)
	assert.Equal(t, "Room 101 is in the Main Building.", sent["reply"].(map[string]any)["text"])
	assert.Equal(t, false, sent["reply"].(map[string]any)["isUser"])
	assert.Len(t, sent["messages"], 3)
	assert.Equal(t, true, sent["sendEnabled"])

	w = performJSON(r, http.MethodGet, "/api/chat/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", decode(t, w)["state"])

	w = performJSON(r, http.MethodDelete, "/api/chat/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = performJSON(r, http.MethodGet, "/api/chat/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = performJSON(r, http.MethodPost, "/api/chat/sessions/unknown/messages", gin.H{"text": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatRoutes_BusyAndFailure(t *testing.T) {
	backend := &stubBackend{
		err:     &llm.UpstreamError{StatusCode: 500, Body: "boom"},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	r := NewRouter(testServerConfig, newTestDeps(&fakeStore{}, backend))

	id := decode(t, performJSON(r, http.MethodPost, "/api/chat/sessions", nil))["id"].(string)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- performJSON(r, http.MethodPost, "/api/chat/sessions/"+id+"/messages", gin.H{"text": "first"})
	}()
	<-backend.started

	w := performJSON(r, http.MethodGet, "/api/chat/sessions/"+id, nil)
	assert.Equal(t, false, decode(t, w)["sendEnabled"])

	w = performJSON(r, http.MethodPost, "/api/chat/sessions/"+id+"/messages", gin.H{"text": "second"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"a response is already pending"}`, w.Body.String())

	close(backend.gate)
	w = <-done
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Error connecting to local LLM: Server responded with 500: boom.", body["reply"].(map[string]any)["text"])
	assert.Equal(t, true, body["sendEnabled"])
}

func TestChatRoutes_ReplySurvivesClientDisconnect(t *testing.T) {
	backend := &stubBackend{
		reply:   "Room 101 is in the Main Building.",
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	r := NewRouter(testServerConfig, newTestDeps(&fakeStore{}, backend))
	id := decode(t, performJSON(r, http.MethodPost, "/api/chat/sessions", nil))["id"].(string)

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, "/api/chat/sessions/"+id+"/messages",
		strings.NewReader(`{"text":"Where is Room 101?"}`))
	req.Header.Set("Content-Type", "application/json")

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(httptest.NewRecorder(), req)
		close(done)
	}()
	<-backend.started

	cancel()
	close(backend.gate)
	<-done

	w := performJSON(r, http.MethodGet, "/api/chat/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	messages := body["messages"].([]any)
	require.Len(t, messages, 3)
	assert.Equal(t, "Room 101 is in the Main Building.", messages[2].(map[string]any)["text"])
	assert.Equal(t, true, body["sendEnabled"])
}

func TestSuggestions(t *testing.T) {
	backend := &stubBackend{reply: `{"suggestions":["Dr. John Smith","John's cabin"]}`}
	store := &fakeStore{faculty: []model.Faculty{{ID: "1", Name: "Dr. John Smith", Cabin: "A-101"}}}
	r := NewRouter(testServerConfig, newTestDeps(store, backend))

	w := performJSON(r, http.MethodGet, "/api/search/suggestions?q=jo", nil)
	assert.JSONEq(t, `{"suggestions":[]}`, w.Body.String())
	assert.Equal(t, 0, backend.Calls())
	assert.Equal(t, 0, store.listCalls)

	w = performJSON(r, http.MethodGet, "/api/search/suggestions?q=joh", nil)
	assert.JSONEq(t, `{"suggestions":["Dr. John Smith","John's cabin"]}`, w.Body.String())
	assert.Equal(t, 1, backend.Calls())

	backend.err = errors.New("dial tcp: connection refused")
	w = performJSON(r, http.MethodGet, "/api/search/suggestions?q=john", nil)
	assert.JSONEq(t, `{"suggestions":[]}`, w.Body.String())
}

func TestSearchAndAsk(t *testing.T) {
	backend := &stubBackend{reply: "The Tech Fest starts on December 15."}
	store := &fakeStore{faculty: []model.Faculty{
		{ID: "1", Name: "Dr. John Smith", Subjects: []string{"AI"}, Cabin: "A-101"},
		{ID: "2", Name: "Dr. Sarah Johnson", Subjects: []string{"Statistics"}, Cabin: "B-205"},
	}}
	r := NewRouter(testServerConfig, newTestDeps(store, backend))

	w := performJSON(r, http.MethodGet, "/api/search?q=stat", nil)
	assert.Contains(t, w.Body.String(), "Sarah")
	assert.NotContains(t, w.Body.String(), "John")

	w = performJSON(r, http.MethodPost, "/api/assistant/ask", gin.H{"query": "When is the tech fest?"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"answer":"The Tech Fest starts on December 15."}`, w.Body.String())

	w = performJSON(r, http.MethodPost, "/api/assistant/ask", gin.H{"query": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func newSubscriptionDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func TestSubscriptions(t *testing.T) {
	deps := newTestDeps(&fakeStore{}, &stubBackend{})
	deps.DB = newSubscriptionDB(t)
	r := NewRouter(testServerConfig, deps)

	endpoint := "https://push.example.com/send/abc?x=1"
	sub := gin.H{"endpoint": endpoint, "p256dh": "key", "auth": "secret"}

	w := performJSON(r, http.MethodPut, "/api/subscriptions", sub)
	assert.Equal(t, http.StatusCreated, w.Code)
	w = performJSON(r, http.MethodPut, "/api/subscriptions", gin.H{"endpoint": endpoint, "p256dh": "key2", "auth": "secret2"})
	assert.Equal(t, http.StatusCreated, w.Code, "a repeated subscribe replaces the keys")

	var stored model.PushSubscription
	require.NoError(t, deps.DB.First(&stored, "endpoint = ?", endpoint).Error)
	assert.Equal(t, "key2", stored.P256DH)

	req, _ := http.NewRequest(http.MethodGet, "/api/subscriptions", nil)
	q := req.URL.Query()
	q.Set("endpoint", endpoint)
	req.URL.RawQuery = q.Encode()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, endpoint, decode(t, w)["endpoint"])

	w = performJSON(r, http.MethodDelete, "/api/subscriptions", gin.H{"endpoint": endpoint})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performJSON(r, http.MethodGet, "/api/subscriptions", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	deps := newTestDeps(&fakeStore{}, &stubBackend{})
	r := NewRouter(testServerConfig, deps)
	w := performJSON(r, http.MethodGet, "/api/vapid_public_key", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	deps.WebPush = &webpush.Options{VAPIDPublicKey: "BPubKey"}
	r = NewRouter(testServerConfig, deps)
	w = performJSON(r, http.MethodGet, "/api/vapid_public_key", nil)
	assert.JSONEq(t, `{"publicKey":"BPubKey"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	r := NewRouter(testServerConfig, newTestDeps(&fakeStore{}, &stubBackend{}))
	w := performJSON(r, http.MethodGet, "/api/health", nil)
	assert.JSONEq(t, `{"status":"ok","chatSessions":0}`, w.Body.String())
}
