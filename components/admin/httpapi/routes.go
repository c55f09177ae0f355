package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	admin "github.com/goliatone/go-messmass/components/admin"
	"github.com/goliatone/go-messmass/components/admin/commands"
	"github.com/goliatone/go-messmass/components/admin/queries"
)

// Events streams entity change events to connected clients.
type Events interface {
	ServeWebSocket(w http.ResponseWriter, r *http.Request)
	ServeSSE(w http.ResponseWriter, r *http.Request)
}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// BasePath prefixes every route. Defaults to "/api".
	BasePath string
	// Events mounts /events/ws and /events/sse when set.
	Events Events
	// Middleware runs before every admin route.
	Middleware []func(http.Handler) http.Handler
}

// NewRouter mounts the REST surface on a chi router.
func NewRouter(h *Handlers, opts RouterOptions) chi.Router {
	base := strings.TrimRight(opts.BasePath, "/")
	if base == "" {
		base = "/api"
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	r.Route(base, func(r chi.Router) {
		r.Use(opts.Middleware...)
		h.Mount(r)
		if opts.Events != nil {
			r.Get("/events/ws", opts.Events.ServeWebSocket)
			r.Get("/events/sse", opts.Events.ServeSSE)
		}
	})
	return r
}

// Mount registers every handler on r.
func (h *Handlers) Mount(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", listHandler(h.ListProjects))
		r.Post("/", h.handleSaveProject(false))
		r.Get("/{id}", getHandler(h.GetProject, "project", pathID))
		r.Put("/{id}", h.handleSaveProject(true))
		r.Delete("/{id}", h.deleteHandler(h.DeleteProject, pathID))
		r.Patch("/{id}/stats", h.handleMergeStats)
		r.Get("/{id}/charts", h.handleProjectCharts)
		r.Get("/{id}/style", h.handleResolveStyle)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", listHandler(h.ListCategories))
		r.Post("/", h.handleSaveCategory(false))
		r.Put("/{id}", h.handleSaveCategory(true))
		r.Delete("/{id}", h.deleteHandler(h.DeleteCategory, pathID))
	})
	r.Route("/users", func(r chi.Router) {
		r.Get("/", listHandler(h.ListUsers))
		r.Post("/", h.handleSaveUser(false))
		r.Put("/{id}", h.handleSaveUser(true))
		r.Delete("/{id}", h.deleteHandler(h.DeleteUser, pathID))
	})
	r.Route("/variables", func(r chi.Router) {
		r.Get("/", listHandler(h.ListVariables))
		r.Post("/", h.handleCreateVariable)
		r.Get("/registry", h.handleRegistry)
		r.Post("/reorder", h.handleReorder)
		r.Get("/{name}", getHandler(h.GetVariable, "variable", pathName))
		r.Patch("/{name}", h.handleUpdateVariable)
		r.Delete("/{name}", h.deleteHandler(h.DeleteVariable, pathName))
		r.Put("/{name}/flags/{flag}", h.handleSetFlag)
		r.Post("/{name}/rename", h.handleRename)
	})
	r.Route("/styles", func(r chi.Router) {
		r.Get("/", listHandler(h.ListStyles))
		r.Post("/", h.handleSaveStyle(false))
		r.Get("/settings", h.handleSettings)
		r.Put("/settings/{pointer}", h.handleSetPointer)
		r.Get("/resolve", h.handleResolveStyle)
		r.Post("/preview", h.handlePreview)
		r.Get("/{id}", getHandler(h.GetStyle, "style", pathID))
		r.Put("/{id}", h.handleSaveStyle(true))
		r.Patch("/{id}", h.handleEditStyle)
		r.Delete("/{id}", h.deleteHandler(h.DeleteStyle, pathID))
		r.Post("/{id}/toggle-background", h.handleToggleBackground)
	})
	r.Route("/charts", func(r chi.Router) {
		r.Get("/", listHandler(h.ListCharts))
		r.Post("/", h.handleSaveChart(false))
		r.Put("/{id}", h.handleSaveChart(true))
		r.Delete("/{id}", h.deleteHandler(h.DeleteChart, pathID))
	})
}

func pathID(r *http.Request) string   { return chi.URLParam(r, "id") }
func pathName(r *http.Request) string { return chi.URLParam(r, "name") }

func saveStatus(update bool) int {
	if update {
		return http.StatusOK
	}
	return http.StatusCreated
}

func (h *Handlers) handleSaveProject(update bool) http.HandlerFunc {
	return saveHandler(h.SaveProject, "project", saveStatus(update),
		func(r *http.Request, p admin.Project, result *commands.Result[admin.Project]) commands.SaveProjectInput {
			p.ID = ""
			if update {
				p.ID = pathID(r)
			}
			return commands.SaveProjectInput{Project: p, Actor: h.actor(r), Result: result}
		})
}

func (h *Handlers) handleSaveCategory(update bool) http.HandlerFunc {
	return saveHandler(h.SaveCategory, "category", saveStatus(update),
		func(r *http.Request, c admin.HashtagCategory, result *commands.Result[admin.HashtagCategory]) commands.SaveCategoryInput {
			c.ID = ""
			if update {
				c.ID = pathID(r)
			}
			return commands.SaveCategoryInput{Category: c, Actor: h.actor(r), Result: result}
		})
}

func (h *Handlers) handleSaveUser(update bool) http.HandlerFunc {
	return saveHandler(h.SaveUser, "user", saveStatus(update),
		func(r *http.Request, u admin.AdminUser, result *commands.Result[admin.AdminUser]) commands.SaveUserInput {
			u.ID = ""
			if update {
				u.ID = pathID(r)
			}
			return commands.SaveUserInput{User: u, Actor: h.actor(r), Result: result}
		})
}

func (h *Handlers) handleSaveStyle(update bool) http.HandlerFunc {
	return saveHandler(h.SaveStyle, "style", saveStatus(update),
		func(r *http.Request, s admin.StyleTheme, result *commands.Result[admin.StyleTheme]) commands.SaveStyleInput {
			s.ID = ""
			if update {
				s.ID = pathID(r)
			}
			return commands.SaveStyleInput{Style: s, Actor: h.actor(r), Result: result}
		})
}

func (h *Handlers) handleSaveChart(update bool) http.HandlerFunc {
	return saveHandler(h.SaveChart, "chart", saveStatus(update),
		func(r *http.Request, c admin.ChartAlgorithm, result *commands.Result[admin.ChartAlgorithm]) commands.SaveChartInput {
			c.ID = ""
			if update {
				c.ID = pathID(r)
			}
			return commands.SaveChartInput{Chart: c, Actor: h.actor(r), Result: result}
		})
}

func (h *Handlers) handleCreateVariable(w http.ResponseWriter, r *http.Request) {
	saveHandler(h.CreateVariable, "variable", http.StatusCreated,
		func(r *http.Request, def admin.VariableDefinition, result *commands.Result[admin.VariableDefinition]) commands.CreateVariableInput {
			return commands.CreateVariableInput{Variable: def, Actor: h.actor(r), Result: result}
		})(w, r)
}

func (h *Handlers) handleUpdateVariable(w http.ResponseWriter, r *http.Request) {
	if h.UpdateVariable == nil {
		WriteError(w, errNotConfigured)
		return
	}
	var patch admin.VariablePatch
	if err := DecodeJSON(r, &patch); err != nil {
		WriteError(w, err)
		return
	}
	patch.Name = pathName(r)
	result := &commands.Result[admin.VariableDefinition]{}
	if err := h.UpdateVariable.Execute(r.Context(), commands.UpdateVariableInput{Patch: patch, Actor: h.actor(r), Result: result}); err != nil {
		WriteError(w, err)
		return
	}
	def, _ := result.Load()
	WriteJSON(w, http.StatusOK, Entity("variable", def))
}

type flagPayload struct {
	Value *bool `json:"value"`
}

func (h *Handlers) handleSetFlag(w http.ResponseWriter, r *http.Request) {
	if h.SetFlag == nil {
		WriteError(w, errNotConfigured)
		return
	}
	var payload flagPayload
	if err := DecodeJSON(r, &payload); err != nil {
		WriteError(w, err)
		return
	}
	if payload.Value == nil {
		WriteError(w, admin.Invalid("value", "value is required"))
		return
	}
	result := &commands.Result[admin.VariableDefinition]{}
	input := commands.SetFlagInput{
		Name:   pathName(r),
		Flag:   chi.URLParam(r, "flag"),
		Value:  *payload.Value,
		Actor:  h.actor(r),
		Result: result,
	}
	if err := h.SetFlag.Execute(r.Context(), input); err != nil {
		WriteError(w, err)
		return
	}
	def, _ := result.Load()
	WriteJSON(w, http.StatusOK, Entity("variable", def))
}

type renamePayload struct {
	Label   string `json:"label"`
	NewName string `json:"newName"`
}

func (h *Handlers) handleRename(w http.ResponseWriter, r *http.Request) {
	if h.RenameVariable == nil {
		WriteError(w, errNotConfigured)
		return
	}
	var payload renamePayload
	if err := DecodeJSON(r, &payload); err != nil {
		WriteError(w, err)
		return
	}
	result := &commands.Result[admin.VariableDefinition]{}
	input := commands.RenameInput{
		Name:    pathName(r),
		Label:   payload.Label,
		NewName: payload.NewName,
		Actor:   h.actor(r),
		Result:  result,
	}
	if err := h.RenameVariable.Execute(r.Context(), input); err != nil {
		WriteError(w, err)
		return
	}
	def, _ := result.Load()
	WriteJSON(w, http.StatusOK, Entity("variable", def))
}

type reorderPayload struct {
	Category string   `json:"category"`
	Names    []string `json:"names"`
}

func (h *Handlers) handleReorder(w http.ResponseWriter, r *http.Request) {
	if h.ReorderVariables == nil {
		WriteError(w, errNotConfigured)
		return
	}
	var payload reorderPayload
	if err := DecodeJSON(r, &payload); err != nil {
		WriteError(w, err)
		return
	}
	input := commands.ReorderInput{Category: payload.Category, Names: payload.Names, Actor: h.actor(r)}
	if err := h.ReorderVariables.Execute(r.Context(), input); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, Entity("names", payload.Names))
}

func (h *Handlers) handleRegistry(w http.ResponseWriter, r *http.Request) {
	if h.Registry == nil {
		WriteError(w, errNotConfigured)
		return
	}
	defs, err := h.Registry.Query(r.Context(), queries.RegistryInput{Category: r.URL.Query().Get("category")})
	if err != nil {
		WriteError(w, err)
		return
	}
	if defs == nil {
		defs = []admin.VariableDefinition{}
	}
	WriteJSON(w, http.StatusOK, Entity("variables", defs))
}

type mergeStatsPayload struct {
	Stats map[string]any `json:"stats"`
}

func (h *Handlers) handleMergeStats(w http.ResponseWriter, r *http.Request) {
	if h.MergeStats == nil {
		WriteError(w, errNotConfigured)
		return
	}
	var payload mergeStatsPayload
	if err := DecodeJSON(r, &payload); err != nil {
		WriteError(w, err)
		return
	}
	result := &commands.Result[admin.Project]{}
	input := commands.MergeStatsInput{ProjectID: pathID(r), Stats: payload.Stats, Actor: h.actor(r), Result: result}
	if err := h.MergeStats.Execute(r.Context(), input); err != nil {
		WriteError(w, err)
		return
	}
	project, _ := result.Load()
	WriteJSON(w, http.StatusOK, Entity("project", project))
}

func (h *Handlers) handleProjectCharts(w http.ResponseWriter, r *http.Request) {
	if h.ProjectCharts == nil {
		WriteError(w, errNotConfigured)
		return
	}
	render, _ := strconv.ParseBool(r.URL.Query().Get("render"))
	charts, err := h.ProjectCharts.Query(r.Context(), queries.ProjectChartsInput{ProjectID: pathID(r), Render: render})
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, Entity("charts", charts))
}

func (h *Handlers) handleResolveStyle(w http.ResponseWriter, r *http.Request) {
	if h.ResolveStyle == nil {
		WriteError(w, errNotConfigured)
		return
	}
	projectID := pathID(r)
	if projectID == "" {
		projectID = r.URL.Query().Get("projectId")
	}
	input := queries.ResolveStyleInput{ProjectID: projectID, Scope: admin.StyleScope(r.URL.Query().Get("scope"))}
	resolution, err := h.ResolveStyle.Query(r.Context(), input)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"style":   resolution.Theme,
		"source":  resolution.Source,
		"hashtag": resolution.Hashtag,
	})
}

func (h *Handlers) handleSettings(w http.ResponseWriter, r *http.Request) {
	if h.Settings == nil {
		WriteError(w, errNotConfigured)
		return
	}
	settings, err := h.Settings.Query(r.Context(), queries.SettingsInput{})
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, Entity("settings", settings))
}

type pointerPayload struct {
	StyleID string `json:"styleId"`
	Hashtag string `json:"hashtag"`
}

func (h *Handlers) handleSetPointer(w http.ResponseWriter, r *http.Request) {
	if h.SetPointer == nil {
		WriteError(w, errNotConfigured)
		return
	}
	var payload pointerPayload
	if err := DecodeJSON(r, &payload); err != nil {
		WriteError(w, err)
		return
	}
	result := &commands.Result[admin.StyleSettings]{}
	input := commands.SetPointerInput{
		Pointer: chi.URLParam(r, "pointer"),
		StyleID: payload.StyleID,
		Hashtag: payload.Hashtag,
		Actor:   h.actor(r),
		Result:  result,
	}
	if err := h.SetPointer.Execute(r.Context(), input); err != nil {
		WriteError(w, err)
		return
	}
	settings, _ := result.Load()
	WriteJSON(w, http.StatusOK, Entity("settings", settings))
}

type editPayload struct {
	Updates []admin.FieldUpdate `json:"updates"`
}

func (h *Handlers) handleEditStyle(w http.ResponseWriter, r *http.Request) {
	if h.EditStyle == nil {
		WriteError(w, errNotConfigured)
		return
	}
	var payload editPayload
	if err := DecodeJSON(r, &payload); err != nil {
		WriteError(w, err)
		return
	}
	result := &commands.Result[admin.StyleTheme]{}
	input := commands.EditStyleInput{StyleID: pathID(r), Updates: payload.Updates, Actor: h.actor(r), Result: result}
	if err := h.EditStyle.Execute(r.Context(), input); err != nil {
		WriteError(w, err)
		return
	}
	theme, _ := result.Load()
	WriteJSON(w, http.StatusOK, Entity("style", theme))
}

type togglePayload struct {
	Key string `json:"key"`
}

func (h *Handlers) handleToggleBackground(w http.ResponseWriter, r *http.Request) {
	if h.ToggleStyle == nil {
		WriteError(w, errNotConfigured)
		return
	}
	var payload togglePayload
	if err := DecodeJSON(r, &payload); err != nil {
		WriteError(w, err)
		return
	}
	result := &commands.Result[admin.StyleTheme]{}
	input := commands.ToggleBackgroundInput{StyleID: pathID(r), Key: payload.Key, Actor: h.actor(r), Result: result}
	if err := h.ToggleStyle.Execute(r.Context(), input); err != nil {
		WriteError(w, err)
		return
	}
	theme, _ := result.Load()
	WriteJSON(w, http.StatusOK, Entity("style", theme))
}

type previewPayload struct {
	StyleID string            `json:"styleId"`
	Draft   *admin.StyleTheme `json:"draft"`
	Tab     admin.PreviewTab  `json:"tab"`
	HTML    bool              `json:"html"`
}

func (h *Handlers) handlePreview(w http.ResponseWriter, r *http.Request) {
	if h.Preview == nil {
		WriteError(w, errNotConfigured)
		return
	}
	var payload previewPayload
	if err := DecodeJSON(r, &payload); err != nil {
		WriteError(w, err)
		return
	}
	out, err := h.Preview.Query(r.Context(), queries.PreviewInput(payload))
	if err != nil {
		WriteError(w, err)
		return
	}
	if payload.HTML && r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out.HTML))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "preview": out.Preview, "html": out.HTML})
}
