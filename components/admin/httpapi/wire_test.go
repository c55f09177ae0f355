package httpapi

import (
	"net/http"
	"testing"

	admin "github.com/goliatone/go-messmass/components/admin"
	"github.com/goliatone/go-messmass/pkg/store/memory"
)

func wiredHandlers(t *testing.T) *Handlers {
	t.Helper()
	var opts admin.Options
	memory.New().Bind(&opts)
	return NewHandlers(admin.NewService(opts), WireOptions{})
}

func TestNewHandlersServesProjectLifecycle(t *testing.T) {
	h := wiredHandlers(t)

	rec := serve(t, h, http.MethodPost, "/api/projects", admin.Project{EventName: "Derby", EventDate: "2026-03-14"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	project, _ := decode(t, rec)["project"].(map[string]any)
	id, _ := project["id"].(string)
	if id == "" {
		t.Fatalf("expected generated id, got %v", project)
	}

	rec = serve(t, h, http.MethodGet, "/api/projects?q=derby", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if items, _ := decode(t, rec)["items"].([]any); len(items) != 1 {
		t.Fatalf("expected one match, got %v", items)
	}

	rec = serve(t, h, http.MethodGet, "/api/projects/"+id+"/charts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = serve(t, h, http.MethodDelete, "/api/projects/"+id, nil)
	if rec.Code >= 300 {
		t.Fatalf("expected delete to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = serve(t, h, http.MethodGet, "/api/projects/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestNewHandlersPreviewWithoutRenderer(t *testing.T) {
	h := wiredHandlers(t)
	rec := serve(t, h, http.MethodPost, "/api/styles/preview", map[string]any{
		"styleId": admin.BuiltinStyleID,
		"tab":     "chartColors",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	preview, _ := decode(t, rec)["preview"].(map[string]any)
	if charts, _ := preview["charts"].([]any); len(charts) != 3 {
		t.Fatalf("expected sample charts, got %v", preview["charts"])
	}
}
