package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stuud-backend/config"
	"stuud-backend/internal/model"
)

// maxErrorBody bounds how much of an error response is kept for the APIError.
const maxErrorBody = 4 << 10

// RESTStore implements Store against a hosted PostgREST (Supabase) project.
type RESTStore struct {
	baseURL string
	key     string
	client  *http.Client
}

// NewRESTStore creates a client for the project at cfg.URL authenticated with cfg.Key.
func NewRESTStore(cfg *config.RecordsConfig) *RESTStore {
	return &RESTStore{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		key:     cfg.Key,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

func (s *RESTStore) ListFaculty(ctx context.Context) ([]model.Faculty, error) {
	return selectAll[model.Faculty](ctx, s, TableFaculty)
}

func (s *RESTStore) ListClassrooms(ctx context.Context) ([]model.Classroom, error) {
	return selectAll[model.Classroom](ctx, s, TableClassrooms)
}

func (s *RESTStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	return selectAll[model.Event](ctx, s, TableEvents)
}

func (s *RESTStore) ListTimetable(ctx context.Context) ([]model.TimetableEntry, error) {
	return selectAll[model.TimetableEntry](ctx, s, TableTimetable)
}

func (s *RESTStore) AddFaculty(ctx context.Context, f model.Faculty) (*model.Faculty, error) {
	f.ID = ""
	return insertOne(ctx, s, TableFaculty, f)
}

func (s *RESTStore) AddClassroom(ctx context.Context, c model.Classroom) (*model.Classroom, error) {
	c.ID = ""
	return insertOne(ctx, s, TableClassrooms, c)
}

func (s *RESTStore) AddEvent(ctx context.Context, e model.Event) (*model.Event, error) {
	e.ID = ""
	return insertOne(ctx, s, TableEvents, e)
}

func (s *RESTStore) AddTimetableEntry(ctx context.Context, t model.TimetableEntry) (*model.TimetableEntry, error) {
	t.ID = ""
	return insertOne(ctx, s, TableTimetable, t)
}

func selectAll[T any](ctx context.Context, s *RESTStore, table string) ([]T, error) {
	query := url.Values{"select": {"*"}}
	req, err := s.newRequest(ctx, http.MethodGet, table, query, nil)
	if err != nil {
		return nil, err
	}

	rows := make([]T, 0)
	if err := s.do(req, table, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func insertOne[T any](ctx context.Context, s *RESTStore, table string, row T) (*T, error) {
	jsonBody, err := json.Marshal([]T{row})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s row: %w", table, err)
	}

	req, err := s.newRequest(ctx, http.MethodPost, table, nil, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")

	var inserted []T
	if err := s.do(req, table, &inserted); err != nil {
		return nil, err
	}
	if len(inserted) == 0 {
		return nil, fmt.Errorf("%s: %w", table, ErrNoRowReturned)
	}
	return &inserted[0], nil
}

func (s *RESTStore) newRequest(ctx context.Context, method, table string, query url.Values, body io.Reader) (*http.Request, error) {
	endpoint := s.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (s *RESTStore) do(req *http.Request, table string, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: http request failed: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Table: table, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response body: %w", table, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: failed to unmarshal response: %w", table, err)
	}
	return nil
}
