package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	admin "github.com/goliatone/go-messmass/components/admin"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := New(Config{BaseURL: server.URL + "/api/", APIKey: "secret", UserID: "u1"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error without base url")
	}
}

func TestListEncodesQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/projects" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "derby" || q.Get("sortField") != "eventName" || q.Get("sortOrder") != "desc" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Get("offset") != "20" || q.Get("cursor") != "" {
			t.Fatalf("expected offset pointer, got %s", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "Bearer secret" || r.Header.Get("X-User-ID") != "u1" {
			t.Fatalf("missing identity headers")
		}
		next := 40
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"items":      []admin.Project{{ID: "p1", EventName: "Derby"}},
			"pagination": admin.Pagination{Mode: admin.ModeSearchOffset, NextOffset: &next, TotalMatched: 41},
		})
	})

	page, err := List[admin.Project](context.Background(), c, ProjectsPath, admin.ListQuery{
		Search: "derby",
		Sort:   admin.SortState{Field: "eventName", Order: admin.SortDesc},
		Offset: 20,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].EventName != "Derby" {
		t.Fatalf("unexpected items %#v", page.Items)
	}
	if page.Pagination.NextOffset == nil || *page.Pagination.NextOffset != 40 {
		t.Fatalf("unexpected pagination %#v", page.Pagination)
	}
}

func TestErrorEnvelopeKeepsCategory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":  false,
			"error":    "invalid variable definition",
			"category": "validation",
			"fields":   map[string]string{"name": "cannot be blank"},
		})
	})

	_, err := Create(context.Background(), c, VariablesPath, "variable", admin.VariableDefinition{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !goerrors.HasCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if Message(err) != "invalid variable definition" {
		t.Fatalf("unexpected message %q", Message(err))
	}
	var typed *goerrors.Error
	if !goerrors.As(err, &typed) || typed.Code != http.StatusBadRequest || len(typed.ValidationErrors) != 1 {
		t.Fatalf("unexpected typed error %#v", typed)
	}
}

func TestApplicationFailureOnSuccessStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "style missing"})
	})
	if _, err := Get[admin.StyleTheme](context.Background(), c, StylesPath+"/x", "style"); err == nil || Message(err) != "style missing" {
		t.Fatalf("expected application error, got %v", err)
	}
}

func TestStatusWithoutEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	err := c.Delete(context.Background(), ProjectsPath+"/p1")
	if !goerrors.HasCategory(err, goerrors.CategoryNotFound) {
		t.Fatalf("expected not found category, got %v", err)
	}
	if IsTransport(err) {
		t.Fatalf("http errors are not transport errors")
	}
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	c, err := New(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	err = c.Reorder(context.Background(), "Event", []string{"a"})
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestSetStylePointer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/styles/settings/hashtag" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["styleId"] != "s1" || body["hashtag"] != "derby" {
			t.Fatalf("unexpected body %#v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"settings": admin.StyleSettings{HashtagStyles: map[string]string{"derby": "s1"}},
		})
	})
	settings, err := c.SetStylePointer(context.Background(), "hashtag", "s1", "derby")
	if err != nil {
		t.Fatalf("set pointer: %v", err)
	}
	if settings.HashtagStyles["derby"] != "s1" {
		t.Fatalf("unexpected settings %#v", settings)
	}
}

func TestFlagMutationRollsBackOnFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "boom"})
	})
	def := &admin.VariableDefinition{Name: "fans", Type: admin.TypeCount}
	tracker := NewMutationTracker()

	err := tracker.Run(context.Background(), c.FlagMutation(def, admin.FlagVisibleInClicker, true))
	if err == nil {
		t.Fatalf("expected persist error")
	}
	if def.Flags.VisibleInClicker {
		t.Fatalf("expected flag rolled back")
	}
	state, ok := tracker.State("variable:fans:visibleInClicker")
	if !ok || state.Status != StatusFailed || !state.RolledBack {
		t.Fatalf("unexpected state %#v", state)
	}
}

func TestFlagMutationLockedIsNoop(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})
	def := &admin.VariableDefinition{Name: "ratio", Derived: true, Formula: "[a] / [b]"}
	if err := NewMutationTracker().Run(context.Background(), c.FlagMutation(def, admin.FlagEditableInManual, true)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if def.Flags.EditableInManual || calls != 0 {
		t.Fatalf("locked variable must not change or call the server")
	}
}

func TestTrackerIgnoresStaleFailure(t *testing.T) {
	tracker := NewMutationTracker()
	release := make(chan struct{})
	started := make(chan struct{})
	value := 0
	rolledBack := false

	done := make(chan error, 1)
	go func() {
		done <- tracker.Run(context.Background(), Mutation{
			Key:   "k",
			Apply: func() {},
			Persist: func(context.Context) error {
				close(started)
				<-release
				return errors.New("late failure")
			},
			Rollback: func() { rolledBack = true },
		})
	}()
	<-started

	if err := tracker.Run(context.Background(), Mutation{Key: "k", Apply: func() { value = 2 }}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	close(release)
	if err := <-done; err == nil {
		t.Fatalf("expected first mutation error")
	}
	if rolledBack || value != 2 {
		t.Fatalf("stale failure must not roll back newer state")
	}
	state, _ := tracker.State("k")
	if state.Status != StatusCommitted {
		t.Fatalf("expected committed state, got %s", state.Status)
	}
	if len(tracker.Pending()) != 0 || len(tracker.Failed()) != 0 {
		t.Fatalf("unexpected pending/failed keys")
	}
}

func TestTrackerForgetKeepsPending(t *testing.T) {
	var seen []MutationStatus
	tracker := NewMutationTracker(WithChangeHandler(func(s MutationState) { seen = append(seen, s.Status) }))
	_ = tracker.Run(context.Background(), Mutation{Key: "a", Persist: func(context.Context) error { return errors.New("x") }})
	if got := tracker.Failed(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected failed key, got %v", got)
	}
	tracker.Forget("a")
	if _, ok := tracker.State("a"); ok {
		t.Fatalf("expected state forgotten")
	}
	if len(seen) != 2 || seen[0] != StatusPending || seen[1] != StatusFailed {
		t.Fatalf("unexpected transitions %v", seen)
	}
}
