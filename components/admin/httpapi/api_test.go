package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	admin "github.com/goliatone/go-messmass/components/admin"
	"github.com/goliatone/go-messmass/components/admin/commands"
	"github.com/goliatone/go-messmass/components/admin/queries"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
	store func(T)
}

func (s *stubCommander[T]) Execute(_ context.Context, msg T) error {
	s.last = msg
	s.calls++
	if s.err == nil && s.store != nil {
		s.store(msg)
	}
	return s.err
}

type stubQuerier[T any, R any] struct {
	last  T
	calls int
	out   R
	err   error
}

func (s *stubQuerier[T, R]) Query(_ context.Context, input T) (R, error) {
	s.last = input
	s.calls++
	return s.out, s.err
}

func serve(t *testing.T, h *Handlers, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		buf, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(HeaderUserID, "ops-1")
	rec := httptest.NewRecorder()
	NewRouter(h, RouterOptions{}).ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestListProjectsEnvelope(t *testing.T) {
	next := 20
	list := &stubQuerier[admin.ListQuery, admin.ListPage[admin.Project]]{
		out: admin.ListPage[admin.Project]{
			Items:      []admin.Project{{ID: "p1", EventName: "Derby"}},
			Pagination: admin.Pagination{Mode: admin.ModeSortOffset, NextOffset: &next, TotalMatched: 45},
		},
	}
	rec := serve(t, &Handlers{ListProjects: list}, http.MethodGet, "/api/projects?sortField=eventName&sortOrder=DESC&limit=20&search=", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if list.last.Sort.Field != "eventName" || list.last.Sort.Order != admin.SortDesc || list.last.Limit != 20 {
		t.Fatalf("unexpected parsed query %+v", list.last)
	}
	body := decode(t, rec)
	if body["success"] != true {
		t.Fatalf("expected success flag, got %v", body)
	}
	items, _ := body["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one item, got %v", body["items"])
	}
	pagination, _ := body["pagination"].(map[string]any)
	if pagination["nextOffset"] != float64(20) || pagination["totalMatched"] != float64(45) {
		t.Fatalf("unexpected pagination %v", pagination)
	}
}

func TestListRejectsBadParameters(t *testing.T) {
	list := &stubQuerier[admin.ListQuery, admin.ListPage[admin.Project]]{}
	for _, target := range []string{"/api/projects?sortOrder=up", "/api/projects?limit=-1", "/api/projects?offset=x"} {
		rec := serve(t, &Handlers{ListProjects: list}, http.MethodGet, target, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
		if body := decode(t, rec); body["success"] != false {
			t.Fatalf("expected error envelope, got %v", body)
		}
	}
	if list.calls != 0 {
		t.Fatalf("querier should not run on bad input")
	}
}

func TestEmptyListIsArray(t *testing.T) {
	list := &stubQuerier[admin.ListQuery, admin.ListPage[admin.HashtagCategory]]{}
	rec := serve(t, &Handlers{ListCategories: list}, http.MethodGet, "/api/categories", nil)
	if !strings.Contains(rec.Body.String(), `"items":[]`) {
		t.Fatalf("expected empty items array, got %s", rec.Body.String())
	}
}

func TestCreateProjectClearsClientID(t *testing.T) {
	save := &stubCommander[commands.SaveProjectInput]{}
	save.store = func(msg commands.SaveProjectInput) {
		p := msg.Project
		p.ID = "generated"
		msg.Result.Store(p)
	}
	rec := serve(t, &Handlers{SaveProject: save}, http.MethodPost, "/api/projects", admin.Project{ID: "forged", EventName: "Derby"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if save.last.Project.ID != "" {
		t.Fatalf("expected client id to be dropped, got %q", save.last.Project.ID)
	}
	if save.last.Actor.UserID != "ops-1" {
		t.Fatalf("expected actor from header, got %+v", save.last.Actor)
	}
	project, _ := decode(t, rec)["project"].(map[string]any)
	if project["id"] != "generated" {
		t.Fatalf("expected stored project in envelope, got %v", project)
	}
}

func TestUpdateUsesPathID(t *testing.T) {
	save := &stubCommander[commands.SaveCategoryInput]{}
	rec := serve(t, &Handlers{SaveCategory: save}, http.MethodPut, "/api/categories/c1", admin.HashtagCategory{Name: "country", Color: "#fff"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if save.last.Category.ID != "c1" {
		t.Fatalf("expected path id, got %q", save.last.Category.ID)
	}
}

func TestMalformedJSONIsBadRequest(t *testing.T) {
	save := &stubCommander[commands.SaveUserInput]{}
	rec := serve(t, &Handlers{SaveUser: save}, http.MethodPost, "/api/users", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decode(t, rec); body["category"] != "bad_input" {
		t.Fatalf("expected bad_input category, got %v", body)
	}
	if save.calls != 0 {
		t.Fatalf("command should not run")
	}
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{admin.Invalid("name", "name is required"), http.StatusBadRequest},
		{admin.NotFound("variable", "x"), http.StatusNotFound},
		{admin.Conflict("system variables cannot be renamed"), http.StatusConflict},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rename := &stubCommander[commands.RenameInput]{err: tc.err}
		rec := serve(t, &Handlers{RenameVariable: rename}, http.MethodPost, "/api/variables/female/rename", map[string]string{"newName": "women"})
		if rec.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
		body := decode(t, rec)
		if body["success"] != false || body["error"] == "" {
			t.Fatalf("expected error envelope, got %v", body)
		}
	}
}

func TestValidationFieldsInEnvelope(t *testing.T) {
	create := &stubCommander[commands.CreateVariableInput]{err: admin.Invalid("name", "must be a letter followed by letters, digits or underscores")}
	rec := serve(t, &Handlers{CreateVariable: create}, http.MethodPost, "/api/variables", admin.VariableDefinition{Name: "9bad"})
	fields, _ := decode(t, rec)["fields"].(map[string]any)
	if fields["name"] == nil {
		t.Fatalf("expected field error for name, got %s", rec.Body.String())
	}
}

func TestSetFlagRoute(t *testing.T) {
	flag := &stubCommander[commands.SetFlagInput]{}
	rec := serve(t, &Handlers{SetFlag: flag}, http.MethodPut, "/api/variables/female/flags/visibleInClicker", map[string]bool{"value": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if flag.last.Name != "female" || flag.last.Flag != admin.FlagVisibleInClicker || !flag.last.Value {
		t.Fatalf("unexpected flag input %+v", flag.last)
	}
	rec = serve(t, &Handlers{SetFlag: flag}, http.MethodPut, "/api/variables/female/flags/visibleInClicker", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when value missing, got %d", rec.Code)
	}
}

func TestReorderRoute(t *testing.T) {
	reorder := &stubCommander[commands.ReorderInput]{}
	rec := serve(t, &Handlers{ReorderVariables: reorder}, http.MethodPost, "/api/variables/reorder", map[string]any{
		"category": "Fans",
		"names":    []string{"stadium", "indoor"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if reorder.last.Category != "Fans" || len(reorder.last.Names) != 2 {
		t.Fatalf("unexpected reorder input %+v", reorder.last)
	}
}

func TestDeleteRoute(t *testing.T) {
	remove := &stubCommander[commands.DeleteInput]{}
	rec := serve(t, &Handlers{DeleteVariable: remove}, http.MethodDelete, "/api/variables/vipGuests", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if remove.last.ID != "vipGuests" {
		t.Fatalf("expected name propagation, got %q", remove.last.ID)
	}
}

func TestUnconfiguredEndpoint(t *testing.T) {
	rec := serve(t, &Handlers{}, http.MethodGet, "/api/charts", nil)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
}

func TestResolveStyleRoutes(t *testing.T) {
	resolve := &stubQuerier[queries.ResolveStyleInput, admin.StyleResolution]{
		out: admin.StyleResolution{Theme: admin.BuiltinStyle(), Source: admin.SourceBuiltin},
	}
	h := &Handlers{ResolveStyle: resolve}
	rec := serve(t, h, http.MethodGet, "/api/projects/p1/style?scope=admin", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resolve.last.ProjectID != "p1" || resolve.last.Scope != admin.ScopeAdmin {
		t.Fatalf("unexpected resolve input %+v", resolve.last)
	}
	rec = serve(t, h, http.MethodGet, "/api/styles/resolve?projectId=p2", nil)
	if resolve.last.ProjectID != "p2" {
		t.Fatalf("expected query project id, got %+v", resolve.last)
	}
	if body := decode(t, rec); body["source"] != admin.SourceBuiltin {
		t.Fatalf("expected builtin source, got %v", body["source"])
	}
}

func TestSetPointerRoute(t *testing.T) {
	pointer := &stubCommander[commands.SetPointerInput]{}
	rec := serve(t, &Handlers{SetPointer: pointer}, http.MethodPut, "/api/styles/settings/hashtag", map[string]string{
		"styleId": "s1",
		"hashtag": "derby",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if pointer.last.Pointer != commands.PointerHashtag || pointer.last.Hashtag != "derby" {
		t.Fatalf("unexpected pointer input %+v", pointer.last)
	}
}

func TestPreviewHTMLFormat(t *testing.T) {
	preview := &stubQuerier[queries.PreviewInput, queries.PreviewOutput]{
		out: queries.PreviewOutput{HTML: "<html>preview</html>"},
	}
	rec := serve(t, &Handlers{Preview: preview}, http.MethodPost, "/api/styles/preview?format=html", map[string]any{
		"styleId": "s1",
		"tab":     "chartColors",
		"html":    true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html content type, got %q", ct)
	}
	if preview.last.Tab != admin.TabChartColors || !preview.last.HTML {
		t.Fatalf("unexpected preview input %+v", preview.last)
	}
}

func TestParseListQuery(t *testing.T) {
	values := map[string]string{"search": "  derby ", "cursor": "abc", "offset": "40"}
	query, err := ParseListQuery(func(key string) string { return values[key] })
	if err != nil {
		t.Fatalf("ParseListQuery returned error: %v", err)
	}
	if query.Search != "derby" || query.Cursor != "abc" || query.Offset != 40 {
		t.Fatalf("unexpected query %+v", query)
	}
}
