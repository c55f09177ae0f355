package admin

import (
	"cmp"
	"encoding/base64"
	"slices"
	"strings"
)

// Default page sizing for list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SortOrder is the direction of an explicit sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortState is a field plus direction. The zero value is the cleared state.
type SortState struct {
	Field string    `json:"sortField,omitempty"`
	Order SortOrder `json:"sortOrder,omitempty"`
}

// Active reports whether an explicit sort is applied.
func (s SortState) Active() bool {
	return s.Field != "" && s.Order != ""
}

// Normalized collapses half-set states to cleared so field and order are
// either both present or both absent.
func (s SortState) Normalized() SortState {
	if s.Field == "" || (s.Order != SortAsc && s.Order != SortDesc) {
		return SortState{}
	}
	return s
}

// Cycle applies a click on column field: a new column sorts ascending, the
// same column moves asc to desc, and desc clears.
func (s SortState) Cycle(field string) SortState {
	s = s.Normalized()
	if field == "" {
		return SortState{}
	}
	if s.Field != field {
		return SortState{Field: field, Order: SortAsc}
	}
	if s.Order == SortAsc {
		return SortState{Field: field, Order: SortDesc}
	}
	return SortState{}
}

// PaginationMode names the pointer style a list page uses.
type PaginationMode string

const (
	ModeCursor       PaginationMode = "cursor"
	ModeSearchOffset PaginationMode = "searchOffset"
	ModeSortOffset   PaginationMode = "sortOffset"
)

// ListQuery is the request side of every list endpoint.
type ListQuery struct {
	Search string
	Sort   SortState
	Limit  int
	Offset int
	Cursor string
}

// Mode picks the pagination mode: search wins, then an explicit sort, and the
// default unsorted, unsearched listing uses cursors.
func (q ListQuery) Mode() PaginationMode {
	switch {
	case strings.TrimSpace(q.Search) != "":
		return ModeSearchOffset
	case q.Sort.Normalized().Active():
		return ModeSortOffset
	default:
		return ModeCursor
	}
}

// Normalize trims the search, clears partial sorts, clamps the limit, and
// drops the pointer that does not belong to the query's mode.
func (q ListQuery) Normalize(defaultLimit, maxLimit int) ListQuery {
	if defaultLimit <= 0 {
		defaultLimit = DefaultPageSize
	}
	if maxLimit <= 0 {
		maxLimit = MaxPageSize
	}
	q.Search = strings.TrimSpace(q.Search)
	q.Sort = q.Sort.Normalized()
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Mode() == ModeCursor {
		q.Offset = 0
	} else {
		q.Cursor = ""
	}
	return q
}

// FirstPage returns the query with its pagination pointer reset.
func (q ListQuery) FirstPage() ListQuery {
	q.Offset = 0
	q.Cursor = ""
	return q
}

// Pagination describes where the next page starts. A nil pointer means the
// listing is exhausted.
type Pagination struct {
	Mode         PaginationMode `json:"mode"`
	NextCursor   *string        `json:"nextCursor,omitempty"`
	NextOffset   *int           `json:"nextOffset,omitempty"`
	TotalMatched int            `json:"totalMatched"`
}

// HasMore reports whether another page can be requested.
func (p Pagination) HasMore() bool {
	switch p.Mode {
	case ModeCursor:
		return p.NextCursor != nil
	case ModeSearchOffset, ModeSortOffset:
		return p.NextOffset != nil
	}
	return false
}

// Next returns the query for the page after this one. ok is false when the
// listing is exhausted.
func (p Pagination) Next(q ListQuery) (ListQuery, bool) {
	if !p.HasMore() {
		return q, false
	}
	q = q.FirstPage()
	if p.Mode == ModeCursor {
		q.Cursor = *p.NextCursor
	} else {
		q.Offset = *p.NextOffset
	}
	return q, true
}

// ListPage is one page of a list response.
type ListPage[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// ApplyListQuery filters, orders, and slices records in memory. Stores that
// cannot push queries down to their backend use it directly.
func ApplyListQuery[T Entity](records []T, query ListQuery) (ListPage[T], error) {
	query = query.Normalize(DefaultPageSize, MaxPageSize)
	mode := query.Mode()

	matched := make([]T, 0, len(records))
	needle := strings.ToLower(query.Search)
	for _, record := range records {
		if needle == "" || strings.Contains(strings.ToLower(record.SearchText()), needle) {
			matched = append(matched, record)
		}
	}

	if query.Sort.Active() {
		field := query.Sort.Field
		slices.SortStableFunc(matched, func(a, b T) int {
			ak, _ := a.SortKey(field)
			bk, _ := b.SortKey(field)
			c := cmp.Compare(ak, bk)
			if c == 0 {
				c = cmp.Compare(a.EntityID(), b.EntityID())
			}
			if query.Sort.Order == SortDesc {
				return -c
			}
			return c
		})
	} else {
		slices.SortStableFunc(matched, func(a, b T) int {
			return cmp.Compare(b.CursorKey(), a.CursorKey())
		})
	}

	page := ListPage[T]{Pagination: Pagination{Mode: mode, TotalMatched: len(matched)}}

	start := 0
	if mode == ModeCursor {
		if query.Cursor != "" {
			after, err := decodeCursor(query.Cursor)
			if err != nil {
				return ListPage[T]{}, err
			}
			start = len(matched)
			for i, record := range matched {
				if record.CursorKey() < after {
					start = i
					break
				}
			}
		}
	} else {
		start = min(query.Offset, len(matched))
	}

	end := min(start+query.Limit, len(matched))
	page.Items = append([]T{}, matched[start:end]...)

	if end < len(matched) {
		if mode == ModeCursor {
			next := encodeCursor(matched[end-1].CursorKey())
			page.Pagination.NextCursor = &next
		} else {
			next := end
			page.Pagination.NextOffset = &next
		}
	}
	return page, nil
}

func encodeCursor(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

func decodeCursor(cursor string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || len(raw) == 0 {
		return "", Invalid("cursor", "cursor is malformed")
	}
	return string(raw), nil
}
