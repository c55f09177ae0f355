package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	gocommand "github.com/goliatone/go-command"
	admin "github.com/goliatone/go-messmass/components/admin"
	"github.com/goliatone/go-messmass/components/admin/commands"
	"github.com/goliatone/go-messmass/components/admin/queries"
)

const maxBodyBytes = 1 << 20

var errNotConfigured = errors.New("httpapi: endpoint not configured")

// Handlers exposes the admin REST surface backed by shared commands and
// queries. Nil fields answer 501.
type Handlers struct {
	ListProjects  gocommand.Querier[admin.ListQuery, admin.ListPage[admin.Project]]
	GetProject    gocommand.Querier[queries.GetInput, admin.Project]
	SaveProject   gocommand.Commander[commands.SaveProjectInput]
	MergeStats    gocommand.Commander[commands.MergeStatsInput]
	DeleteProject gocommand.Commander[commands.DeleteInput]
	ProjectCharts gocommand.Querier[queries.ProjectChartsInput, []queries.RenderedChart]

	ListCategories gocommand.Querier[admin.ListQuery, admin.ListPage[admin.HashtagCategory]]
	SaveCategory   gocommand.Commander[commands.SaveCategoryInput]
	DeleteCategory gocommand.Commander[commands.DeleteInput]

	ListUsers  gocommand.Querier[admin.ListQuery, admin.ListPage[admin.AdminUser]]
	SaveUser   gocommand.Commander[commands.SaveUserInput]
	DeleteUser gocommand.Commander[commands.DeleteInput]

	ListVariables    gocommand.Querier[admin.ListQuery, admin.ListPage[admin.VariableDefinition]]
	Registry         gocommand.Querier[queries.RegistryInput, []admin.VariableDefinition]
	GetVariable      gocommand.Querier[queries.GetInput, admin.VariableDefinition]
	CreateVariable   gocommand.Commander[commands.CreateVariableInput]
	UpdateVariable   gocommand.Commander[commands.UpdateVariableInput]
	SetFlag          gocommand.Commander[commands.SetFlagInput]
	RenameVariable   gocommand.Commander[commands.RenameInput]
	ReorderVariables gocommand.Commander[commands.ReorderInput]
	DeleteVariable   gocommand.Commander[commands.DeleteInput]

	ListStyles   gocommand.Querier[admin.ListQuery, admin.ListPage[admin.StyleTheme]]
	GetStyle     gocommand.Querier[queries.GetInput, admin.StyleTheme]
	SaveStyle    gocommand.Commander[commands.SaveStyleInput]
	EditStyle    gocommand.Commander[commands.EditStyleInput]
	ToggleStyle  gocommand.Commander[commands.ToggleBackgroundInput]
	DeleteStyle  gocommand.Commander[commands.DeleteInput]
	Settings     gocommand.Querier[queries.SettingsInput, admin.StyleSettings]
	SetPointer   gocommand.Commander[commands.SetPointerInput]
	ResolveStyle gocommand.Querier[queries.ResolveStyleInput, admin.StyleResolution]
	Preview      gocommand.Querier[queries.PreviewInput, queries.PreviewOutput]

	ListCharts  gocommand.Querier[admin.ListQuery, admin.ListPage[admin.ChartAlgorithm]]
	SaveChart   gocommand.Commander[commands.SaveChartInput]
	DeleteChart gocommand.Commander[commands.DeleteInput]

	// Actor extracts the operator from a request. Defaults to HeaderActor.
	Actor func(*http.Request) commands.Actor
}

// Headers read by HeaderActor.
const (
	HeaderUserID   = "X-User-ID"
	HeaderTenantID = "X-Tenant-ID"
)

// HeaderActor reads the operator from request headers.
func HeaderActor(r *http.Request) commands.Actor {
	user := strings.TrimSpace(r.Header.Get(HeaderUserID))
	return commands.Actor{
		ActorID:  user,
		UserID:   user,
		TenantID: strings.TrimSpace(r.Header.Get(HeaderTenantID)),
	}
}

func (h *Handlers) actor(r *http.Request) commands.Actor {
	if h.Actor != nil {
		return h.Actor(r)
	}
	return HeaderActor(r)
}

// WriteJSON encodes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError classifies err and writes the error envelope.
func WriteError(w http.ResponseWriter, err error) {
	status, env := NewErrorEnvelope(err)
	if errors.Is(err, errNotConfigured) {
		status = http.StatusNotImplemented
	}
	WriteJSON(w, status, env)
}

// DecodeJSON reads a JSON body into dst. Malformed payloads become bad input
// errors.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return admin.BadInput(err, "request body is empty")
		}
		return admin.BadInput(err, "request body is not valid JSON")
	}
	return nil
}

func listHandler[T any](q gocommand.Querier[admin.ListQuery, admin.ListPage[T]]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if q == nil {
			WriteError(w, errNotConfigured)
			return
		}
		values := r.URL.Query()
		query, err := ParseListQuery(values.Get)
		if err != nil {
			WriteError(w, err)
			return
		}
		page, err := q.Query(r.Context(), query)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, NewListEnvelope(page))
	}
}

func getHandler[T any](q gocommand.Querier[queries.GetInput, T], key string, id func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if q == nil {
			WriteError(w, errNotConfigured)
			return
		}
		record, err := q.Query(r.Context(), queries.GetInput{ID: id(r)})
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, Entity(key, record))
	}
}

func (h *Handlers) deleteHandler(cmd gocommand.Commander[commands.DeleteInput], id func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cmd == nil {
			WriteError(w, errNotConfigured)
			return
		}
		target := id(r)
		if err := cmd.Execute(r.Context(), commands.DeleteInput{ID: target, Actor: h.actor(r)}); err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, Entity("id", target))
	}
}

// saveHandler decodes a record, lets prepare adjust it (path ids), and runs
// a save command that reports the stored record through a Result.
func saveHandler[T any, M any](
	cmd gocommand.Commander[M],
	key string,
	status int,
	build func(r *http.Request, record T, result *commands.Result[T]) M,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cmd == nil {
			WriteError(w, errNotConfigured)
			return
		}
		var record T
		if err := DecodeJSON(r, &record); err != nil {
			WriteError(w, err)
			return
		}
		result := &commands.Result[T]{}
		if err := cmd.Execute(r.Context(), build(r, record, result)); err != nil {
			WriteError(w, err)
			return
		}
		saved, _ := result.Load()
		WriteJSON(w, status, Entity(key, saved))
	}
}
