package gorouter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	gocommand "github.com/goliatone/go-command"
	router "github.com/goliatone/go-router"

	admin "github.com/goliatone/go-messmass/components/admin"
	"github.com/goliatone/go-messmass/components/admin/commands"
	"github.com/goliatone/go-messmass/components/admin/httpapi"
	"github.com/goliatone/go-messmass/components/admin/queries"
)

// ActorResolver extracts the operator issuing a request.
type ActorResolver func(router.Context) commands.Actor

// Config wires go-router with the admin commands, queries, and change feed.
type Config[T any] struct {
	Router        router.Router[T]
	API           *httpapi.Handlers
	Broadcast     *admin.BroadcastHook
	ActorResolver ActorResolver
	BasePath      string
	Routes        RouteConfig
}

// RouteConfig customizes the relative paths of each resource.
type RouteConfig struct {
	Projects   string
	Categories string
	Users      string
	Variables  string
	Styles     string
	Charts     string
	WebSocket  string
}

// Register mounts the admin REST surface and the change event WebSocket on a
// go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.API == nil {
		return errors.New("gorouter: api handlers are required")
	}
	base := cfg.BasePath
	if base == "" {
		base = "/api"
	}
	resolver := cfg.ActorResolver
	if resolver == nil {
		resolver = defaultActorResolver
	}

	group := cfg.Router.Group(base)
	for _, rt := range buildRoutes(cfg.API, resolver, defaultRouteConfig(cfg.Routes)) {
		handler := router.WrapHandler(rt.handle)
		switch rt.method {
		case http.MethodGet:
			group.Get(rt.path, handler)
		case http.MethodPost:
			group.Post(rt.path, handler)
		case http.MethodPut:
			group.Put(rt.path, handler)
		case http.MethodPatch:
			group.Patch(rt.path, handler)
		case http.MethodDelete:
			group.Delete(rt.path, handler)
		}
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, defaultRouteConfig(cfg.Routes).WebSocket)
	}
	return nil
}

type route struct {
	method string
	path   string
	handle func(router.Context) error
}

func buildRoutes(api *httpapi.Handlers, actor ActorResolver, paths RouteConfig) []route {
	p, c, u, v, s, ch := paths.Projects, paths.Categories, paths.Users, paths.Variables, paths.Styles, paths.Charts
	return []route{
		{http.MethodGet, p, listRoute(api.ListProjects)},
		{http.MethodPost, p, saveRoute(api.SaveProject, "project", false, func(ctx router.Context, rec admin.Project, res *commands.Result[admin.Project]) commands.SaveProjectInput {
			rec.ID = ""
			return commands.SaveProjectInput{Project: rec, Actor: actor(ctx), Result: res}
		})},
		{http.MethodGet, p + "/:id", getRoute(api.GetProject, "project")},
		{http.MethodPut, p + "/:id", saveRoute(api.SaveProject, "project", true, func(ctx router.Context, rec admin.Project, res *commands.Result[admin.Project]) commands.SaveProjectInput {
			rec.ID = ctx.Param("id")
			return commands.SaveProjectInput{Project: rec, Actor: actor(ctx), Result: res}
		})},
		{http.MethodDelete, p + "/:id", deleteRoute(api.DeleteProject, actor)},
		{http.MethodPatch, p + "/:id/stats", mergeStatsRoute(api.MergeStats, actor)},
		{http.MethodGet, p + "/:id/charts", projectChartsRoute(api.ProjectCharts)},
		{http.MethodGet, p + "/:id/style", resolveStyleRoute(api.ResolveStyle)},

		{http.MethodGet, c, listRoute(api.ListCategories)},
		{http.MethodPost, c, saveRoute(api.SaveCategory, "category", false, func(ctx router.Context, rec admin.HashtagCategory, res *commands.Result[admin.HashtagCategory]) commands.SaveCategoryInput {
			rec.ID = ""
			return commands.SaveCategoryInput{Category: rec, Actor: actor(ctx), Result: res}
		})},
		{http.MethodPut, c + "/:id", saveRoute(api.SaveCategory, "category", true, func(ctx router.Context, rec admin.HashtagCategory, res *commands.Result[admin.HashtagCategory]) commands.SaveCategoryInput {
			rec.ID = ctx.Param("id")
			return commands.SaveCategoryInput{Category: rec, Actor: actor(ctx), Result: res}
		})},
		{http.MethodDelete, c + "/:id", deleteRoute(api.DeleteCategory, actor)},

		{http.MethodGet, u, listRoute(api.ListUsers)},
		{http.MethodPost, u, saveRoute(api.SaveUser, "user", false, func(ctx router.Context, rec admin.AdminUser, res *commands.Result[admin.AdminUser]) commands.SaveUserInput {
			rec.ID = ""
			return commands.SaveUserInput{User: rec, Actor: actor(ctx), Result: res}
		})},
		{http.MethodPut, u + "/:id", saveRoute(api.SaveUser, "user", true, func(ctx router.Context, rec admin.AdminUser, res *commands.Result[admin.AdminUser]) commands.SaveUserInput {
			rec.ID = ctx.Param("id")
			return commands.SaveUserInput{User: rec, Actor: actor(ctx), Result: res}
		})},
		{http.MethodDelete, u + "/:id", deleteRoute(api.DeleteUser, actor)},

		{http.MethodGet, v, listRoute(api.ListVariables)},
		{http.MethodPost, v, saveRoute(api.CreateVariable, "variable", false, func(ctx router.Context, rec admin.VariableDefinition, res *commands.Result[admin.VariableDefinition]) commands.CreateVariableInput {
			return commands.CreateVariableInput{Variable: rec, Actor: actor(ctx), Result: res}
		})},
		{http.MethodGet, v + "/registry", registryRoute(api.Registry)},
		{http.MethodPost, v + "/reorder", reorderRoute(api.ReorderVariables, actor)},
		{http.MethodGet, v + "/:name", getRoute(api.GetVariable, "variable")},
		{http.MethodPatch, v + "/:name", saveRoute(api.UpdateVariable, "variable", true, func(ctx router.Context, patch admin.VariablePatch, res *commands.Result[admin.VariableDefinition]) commands.UpdateVariableInput {
			patch.Name = ctx.Param("name")
			return commands.UpdateVariableInput{Patch: patch, Actor: actor(ctx), Result: res}
		})},
		{http.MethodDelete, v + "/:name", deleteRouteParam(api.DeleteVariable, actor, "name")},
		{http.MethodPut, v + "/:name/flags/:flag", setFlagRoute(api.SetFlag, actor)},
		{http.MethodPost, v + "/:name/rename", renameRoute(api.RenameVariable, actor)},

		{http.MethodGet, s, listRoute(api.ListStyles)},
		{http.MethodPost, s, saveRoute(api.SaveStyle, "style", false, func(ctx router.Context, rec admin.StyleTheme, res *commands.Result[admin.StyleTheme]) commands.SaveStyleInput {
			rec.ID = ""
			return commands.SaveStyleInput{Style: rec, Actor: actor(ctx), Result: res}
		})},
		{http.MethodGet, s + "/settings", settingsRoute(api.Settings)},
		{http.MethodPut, s + "/settings/:pointer", setPointerRoute(api.SetPointer, actor)},
		{http.MethodGet, s + "/resolve", resolveStyleRoute(api.ResolveStyle)},
		{http.MethodPost, s + "/preview", previewRoute(api.Preview)},
		{http.MethodGet, s + "/:id", getRoute(api.GetStyle, "style")},
		{http.MethodPut, s + "/:id", saveRoute(api.SaveStyle, "style", true, func(ctx router.Context, rec admin.StyleTheme, res *commands.Result[admin.StyleTheme]) commands.SaveStyleInput {
			rec.ID = ctx.Param("id")
			return commands.SaveStyleInput{Style: rec, Actor: actor(ctx), Result: res}
		})},
		{http.MethodPatch, s + "/:id", editStyleRoute(api.EditStyle, actor)},
		{http.MethodDelete, s + "/:id", deleteRoute(api.DeleteStyle, actor)},
		{http.MethodPost, s + "/:id/toggle-background", toggleRoute(api.ToggleStyle, actor)},

		{http.MethodGet, ch, listRoute(api.ListCharts)},
		{http.MethodPost, ch, saveRoute(api.SaveChart, "chart", false, func(ctx router.Context, rec admin.ChartAlgorithm, res *commands.Result[admin.ChartAlgorithm]) commands.SaveChartInput {
			rec.ID = ""
			return commands.SaveChartInput{Chart: rec, Actor: actor(ctx), Result: res}
		})},
		{http.MethodPut, ch + "/:id", saveRoute(api.SaveChart, "chart", true, func(ctx router.Context, rec admin.ChartAlgorithm, res *commands.Result[admin.ChartAlgorithm]) commands.SaveChartInput {
			rec.ID = ctx.Param("id")
			return commands.SaveChartInput{Chart: rec, Actor: actor(ctx), Result: res}
		})},
		{http.MethodDelete, ch + "/:id", deleteRoute(api.DeleteChart, actor)},
	}
}

var errNotConfigured = errors.New("gorouter: endpoint not configured")

func listRoute[T any](q gocommand.Querier[admin.ListQuery, admin.ListPage[T]]) func(router.Context) error {
	return func(ctx router.Context) error {
		if q == nil {
			return respondError(ctx, errNotConfigured)
		}
		query, err := httpapi.ParseListQuery(func(key string) string { return ctx.Query(key) })
		if err != nil {
			return respondError(ctx, err)
		}
		page, err := q.Query(ctx.Context(), query)
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, httpapi.NewListEnvelope(page))
	}
}

func getRoute[T any](q gocommand.Querier[queries.GetInput, T], key string) func(router.Context) error {
	param := "id"
	if key == "variable" {
		param = "name"
	}
	return func(ctx router.Context) error {
		if q == nil {
			return respondError(ctx, errNotConfigured)
		}
		record, err := q.Query(ctx.Context(), queries.GetInput{ID: ctx.Param(param)})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, httpapi.Entity(key, record))
	}
}

func saveRoute[T any, M any](cmd gocommand.Commander[M], key string, update bool, build func(router.Context, T, *commands.Result[T]) M) func(router.Context) error {
	status := http.StatusCreated
	if update {
		status = http.StatusOK
	}
	return func(ctx router.Context) error {
		if cmd == nil {
			return respondError(ctx, errNotConfigured)
		}
		var record T
		if err := decodeBody(ctx, &record); err != nil {
			return respondError(ctx, err)
		}
		result := &commands.Result[T]{}
		if err := cmd.Execute(ctx.Context(), build(ctx, record, result)); err != nil {
			return respondError(ctx, err)
		}
		saved, _ := result.Load()
		return ctx.JSON(status, httpapi.Entity(key, saved))
	}
}

func deleteRoute(cmd gocommand.Commander[commands.DeleteInput], actor ActorResolver) func(router.Context) error {
	return deleteRouteParam(cmd, actor, "id")
}

func deleteRouteParam(cmd gocommand.Commander[commands.DeleteInput], actor ActorResolver, param string) func(router.Context) error {
	return func(ctx router.Context) error {
		if cmd == nil {
			return respondError(ctx, errNotConfigured)
		}
		id := ctx.Param(param)
		if err := cmd.Execute(ctx.Context(), commands.DeleteInput{ID: id, Actor: actor(ctx)}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, httpapi.Entity("id", id))
	}
}

func mergeStatsRoute(cmd gocommand.Commander[commands.MergeStatsInput], actor ActorResolver) func(router.Context) error {
	return func(ctx router.Context) error {
		if cmd == nil {
			return respondError(ctx, errNotConfigured)
		}
		var payload struct {
			Stats map[string]any `json:"stats"`
		}
		if err := decodeBody(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		result := &commands.Result[admin.Project]{}
		input := commands.MergeStatsInput{ProjectID: ctx.Param("id"), Stats: payload.Stats, Actor: actor(ctx), Result: result}
		if err := cmd.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		project, _ := result.Load()
		return ctx.JSON(http.StatusOK, httpapi.Entity("project", project))
	}
}

func projectChartsRoute(q gocommand.Querier[queries.ProjectChartsInput, []queries.RenderedChart]) func(router.Context) error {
	return func(ctx router.Context) error {
		if q == nil {
			return respondError(ctx, errNotConfigured)
		}
		render, _ := strconv.ParseBool(ctx.Query("render"))
		charts, err := q.Query(ctx.Context(), queries.ProjectChartsInput{ProjectID: ctx.Param("id"), Render: render})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, httpapi.Entity("charts", charts))
	}
}

func resolveStyleRoute(q gocommand.Querier[queries.ResolveStyleInput, admin.StyleResolution]) func(router.Context) error {
	return func(ctx router.Context) error {
		if q == nil {
			return respondError(ctx, errNotConfigured)
		}
		projectID := ctx.Param("id")
		if projectID == "" {
			projectID = ctx.Query("projectId")
		}
		resolution, err := q.Query(ctx.Context(), queries.ResolveStyleInput{
			ProjectID: projectID,
			Scope:     admin.StyleScope(ctx.Query("scope")),
		})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]any{
			"success": true,
			"style":   resolution.Theme,
			"source":  resolution.Source,
			"hashtag": resolution.Hashtag,
		})
	}
}

func registryRoute(q gocommand.Querier[queries.RegistryInput, []admin.VariableDefinition]) func(router.Context) error {
	return func(ctx router.Context) error {
		if q == nil {
			return respondError(ctx, errNotConfigured)
		}
		defs, err := q.Query(ctx.Context(), queries.RegistryInput{Category: ctx.Query("category")})
		if err != nil {
			return respondError(ctx, err)
		}
		if defs == nil {
			defs = []admin.VariableDefinition{}
		}
		return ctx.JSON(http.StatusOK, httpapi.Entity("variables", defs))
	}
}

func reorderRoute(cmd gocommand.Commander[commands.ReorderInput], actor ActorResolver) func(router.Context) error {
	return func(ctx router.Context) error {
		if cmd == nil {
			return respondError(ctx, errNotConfigured)
		}
		var payload commands.ReorderInput
		if err := decodeBody(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		payload.Actor = actor(ctx)
		if err := cmd.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, httpapi.Entity("names", payload.Names))
	}
}

func setFlagRoute(cmd gocommand.Commander[commands.SetFlagInput], actor ActorResolver) func(router.Context) error {
	return func(ctx router.Context) error {
		if cmd == nil {
			return respondError(ctx, errNotConfigured)
		}
		var payload struct {
			Value *bool `json:"value"`
		}
		if err := decodeBody(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		if payload.Value == nil {
			return respondError(ctx, admin.Invalid("value", "value is required"))
		}
		result := &commands.Result[admin.VariableDefinition]{}
		input := commands.SetFlagInput{
			Name:   ctx.Param("name"),
			Flag:   ctx.Param("flag"),
			Value:  *payload.Value,
			Actor:  actor(ctx),
			Result: result,
		}
		if err := cmd.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		def, _ := result.Load()
		return ctx.JSON(http.StatusOK, httpapi.Entity("variable", def))
	}
}

func renameRoute(cmd gocommand.Commander[commands.RenameInput], actor ActorResolver) func(router.Context) error {
	return func(ctx router.Context) error {
		if cmd == nil {
			return respondError(ctx, errNotConfigured)
		}
		var payload struct {
			Label   string `json:"label"`
			NewName string `json:"newName"`
		}
		if err := decodeBody(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		result := &commands.Result[admin.VariableDefinition]{}
		input := commands.RenameInput{
			Name:    ctx.Param("name"),
			Label:   payload.Label,
			NewName: payload.NewName,
			Actor:   actor(ctx),
			Result:  result,
		}
		if err := cmd.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		def, _ := result.Load()
		return ctx.JSON(http.StatusOK, httpapi.Entity("variable", def))
	}
}

func settingsRoute(q gocommand.Querier[queries.SettingsInput, admin.StyleSettings]) func(router.Context) error {
	return func(ctx router.Context) error {
		if q == nil {
			return respondError(ctx, errNotConfigured)
		}
		settings, err := q.Query(ctx.Context(), queries.SettingsInput{})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, httpapi.Entity("settings", settings))
	}
}

func setPointerRoute(cmd gocommand.Commander[commands.SetPointerInput], actor ActorResolver) func(router.Context) error {
	return func(ctx router.Context) error {
		if cmd == nil {
			return respondError(ctx, errNotConfigured)
		}
		var payload struct {
			StyleID string `json:"styleId"`
			Hashtag string `json:"hashtag"`
		}
		if err := decodeBody(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		result := &commands.Result[admin.StyleSettings]{}
		input := commands.SetPointerInput{
			Pointer: ctx.Param("pointer"),
			StyleID: payload.StyleID,
			Hashtag: payload.Hashtag,
			Actor:   actor(ctx),
			Result:  result,
		}
		if err := cmd.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		settings, _ := result.Load()
		return ctx.JSON(http.StatusOK, httpapi.Entity("settings", settings))
	}
}

func previewRoute(q gocommand.Querier[queries.PreviewInput, queries.PreviewOutput]) func(router.Context) error {
	return func(ctx router.Context) error {
		if q == nil {
			return respondError(ctx, errNotConfigured)
		}
		var payload struct {
			StyleID string            `json:"styleId"`
			Draft   *admin.StyleTheme `json:"draft"`
			Tab     admin.PreviewTab  `json:"tab"`
			HTML    bool              `json:"html"`
		}
		if err := decodeBody(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		out, err := q.Query(ctx.Context(), queries.PreviewInput(payload))
		if err != nil {
			return respondError(ctx, err)
		}
		if payload.HTML && ctx.Query("format") == "html" {
			ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
			return ctx.Send([]byte(out.HTML))
		}
		return ctx.JSON(http.StatusOK, map[string]any{"success": true, "preview": out.Preview, "html": out.HTML})
	}
}

func editStyleRoute(cmd gocommand.Commander[commands.EditStyleInput], actor ActorResolver) func(router.Context) error {
	return func(ctx router.Context) error {
		if cmd == nil {
			return respondError(ctx, errNotConfigured)
		}
		var payload struct {
			Updates []admin.FieldUpdate `json:"updates"`
		}
		if err := decodeBody(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		result := &commands.Result[admin.StyleTheme]{}
		input := commands.EditStyleInput{StyleID: ctx.Param("id"), Updates: payload.Updates, Actor: actor(ctx), Result: result}
		if err := cmd.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		theme, _ := result.Load()
		return ctx.JSON(http.StatusOK, httpapi.Entity("style", theme))
	}
}

func toggleRoute(cmd gocommand.Commander[commands.ToggleBackgroundInput], actor ActorResolver) func(router.Context) error {
	return func(ctx router.Context) error {
		if cmd == nil {
			return respondError(ctx, errNotConfigured)
		}
		var payload struct {
			Key string `json:"key"`
		}
		if err := decodeBody(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		result := &commands.Result[admin.StyleTheme]{}
		input := commands.ToggleBackgroundInput{StyleID: ctx.Param("id"), Key: payload.Key, Actor: actor(ctx), Result: result}
		if err := cmd.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		theme, _ := result.Load()
		return ctx.JSON(http.StatusOK, httpapi.Entity("style", theme))
	}
}

func registerWebSocket[T any](r router.Router[T], hook *admin.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func decodeBody(ctx router.Context, dst any) error {
	body := ctx.Body()
	if len(body) == 0 {
		return admin.BadInput(errors.New("empty body"), "request body is empty")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return admin.BadInput(err, "request body is not valid JSON")
	}
	return nil
}

func defaultActorResolver(ctx router.Context) commands.Actor {
	var actor commands.Actor
	if v, ok := ctx.Locals("user_id").(string); ok {
		actor.UserID = v
		actor.ActorID = v
	}
	if v, ok := ctx.Locals("actor_id").(string); ok && v != "" {
		actor.ActorID = v
	}
	if v, ok := ctx.Locals("tenant_id").(string); ok {
		actor.TenantID = v
	}
	if actor.UserID == "" {
		actor.UserID = strings.TrimSpace(ctx.Header(httpapi.HeaderUserID))
		actor.ActorID = actor.UserID
	}
	return actor
}

func respondError(ctx router.Context, err error) error {
	status, env := httpapi.NewErrorEnvelope(err)
	if errors.Is(err, errNotConfigured) {
		status = http.StatusNotImplemented
	}
	return ctx.JSON(status, env)
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Projects == "" {
		routes.Projects = "/projects"
	}
	if routes.Categories == "" {
		routes.Categories = "/categories"
	}
	if routes.Users == "" {
		routes.Users = "/users"
	}
	if routes.Variables == "" {
		routes.Variables = "/variables"
	}
	if routes.Styles == "" {
		routes.Styles = "/styles"
	}
	if routes.Charts == "" {
		routes.Charts = "/charts"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/events/ws"
	}
	return routes
}
