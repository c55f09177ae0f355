package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	admin "github.com/goliatone/go-messmass/components/admin"
)

// ListEnvelope is the body of every list response.
type ListEnvelope[T any] struct {
	Success    bool             `json:"success"`
	Items      []T              `json:"items"`
	Pagination admin.Pagination `json:"pagination"`
}

// NewListEnvelope wraps a page.
func NewListEnvelope[T any](page admin.ListPage[T]) ListEnvelope[T] {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return ListEnvelope[T]{Success: true, Items: items, Pagination: page.Pagination}
}

// ErrorEnvelope is the body of every failed request.
type ErrorEnvelope struct {
	Success  bool              `json:"success"`
	Error    string            `json:"error"`
	Category string            `json:"category,omitempty"`
	Code     string            `json:"code,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// Entity builds a mutation or read envelope: {"success": true, key: value}.
func Entity(key string, value any) map[string]any {
	return map[string]any{"success": true, key: value}
}

// NewErrorEnvelope classifies err and returns the status code and body.
func NewErrorEnvelope(err error) (int, ErrorEnvelope) {
	env := ErrorEnvelope{Error: admin.ErrorMessage(err)}
	var typed *goerrors.Error
	if goerrors.As(err, &typed) {
		env.Category = string(typed.Category)
		env.Code = typed.TextCode
		if len(typed.ValidationErrors) > 0 {
			env.Fields = make(map[string]string, len(typed.ValidationErrors))
			for _, fe := range typed.ValidationErrors {
				env.Fields[fe.Field] = fe.Message
			}
		}
	}
	return StatusFor(err), env
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case goerrors.HasCategory(err, goerrors.CategoryValidation),
		goerrors.HasCategory(err, goerrors.CategoryBadInput):
		return http.StatusBadRequest
	case goerrors.HasCategory(err, goerrors.CategoryNotFound):
		return http.StatusNotFound
	case goerrors.HasCategory(err, goerrors.CategoryConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Query parameter names understood by ParseListQuery. search is accepted as
// an alias of q.
const (
	ParamQ         = "q"
	ParamSearch    = "search"
	ParamSortField = "sortField"
	ParamSortOrder = "sortOrder"
	ParamLimit     = "limit"
	ParamOffset    = "offset"
	ParamCursor    = "cursor"
)

var errBadNumber = errors.New("must be a non-negative integer")

// ParseListQuery reads list parameters through get, which returns the raw
// query string value for a key.
func ParseListQuery(get func(key string) string) (admin.ListQuery, error) {
	query := admin.ListQuery{
		Search: strings.TrimSpace(get(ParamQ)),
		Cursor: strings.TrimSpace(get(ParamCursor)),
		Sort: admin.SortState{
			Field: strings.TrimSpace(get(ParamSortField)),
			Order: admin.SortOrder(strings.ToLower(strings.TrimSpace(get(ParamSortOrder)))),
		},
	}
	if query.Search == "" {
		query.Search = strings.TrimSpace(get(ParamSearch))
	}
	if query.Sort.Order != "" && query.Sort.Order != admin.SortAsc && query.Sort.Order != admin.SortDesc {
		return admin.ListQuery{}, admin.Invalid(ParamSortOrder, "must be asc or desc")
	}
	var err error
	if query.Limit, err = parseCount(get(ParamLimit)); err != nil {
		return admin.ListQuery{}, admin.Invalid(ParamLimit, err.Error())
	}
	if query.Offset, err = parseCount(get(ParamOffset)); err != nil {
		return admin.ListQuery{}, admin.Invalid(ParamOffset, err.Error())
	}
	return query, nil
}

func parseCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errBadNumber
	}
	return n, nil
}
