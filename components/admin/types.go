package admin

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// ViewerContext identifies the operator issuing a request.
type ViewerContext struct {
	UserID string
	Roles  []string
	Locale string
}

// Entity is implemented by every record kept in a Repository.
type Entity interface {
	// EntityID is the storage key.
	EntityID() string
	// SearchText is matched case-insensitively against the search term.
	SearchText() string
	// SortKey returns the comparable value for an explicit sort field.
	SortKey(field string) (string, bool)
	// CursorKey orders records for default cursor pagination (descending).
	CursorKey() string
}

// Repository persists entities and answers list queries.
type Repository[T Entity] interface {
	List(ctx context.Context, query ListQuery) (ListPage[T], error)
	All(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Save(ctx context.Context, record T) (T, error)
	Delete(ctx context.Context, id string) error
}

// SettingsStore persists the singleton style settings record.
type SettingsStore interface {
	LoadSettings(ctx context.Context) (StyleSettings, error)
	SaveSettings(ctx context.Context, settings StyleSettings) error
}

// Project is an event whose statistics are tracked.
type Project struct {
	ID                  string              `json:"id"`
	EventName           string              `json:"eventName"`
	EventDate           string              `json:"eventDate"`
	Hashtags            []string            `json:"hashtags,omitempty"`
	CategorizedHashtags map[string][]string `json:"categorizedHashtags,omitempty"`
	Stats               map[string]any      `json:"stats,omitempty"`
	StyleID             string              `json:"styleId,omitempty"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// ProjectSortFields lists the explicit sort fields projects accept.
var ProjectSortFields = []string{"eventName", "eventDate", "createdAt", "updatedAt"}

func (p Project) EntityID() string { return p.ID }

func (p Project) SearchText() string {
	parts := append([]string{p.EventName}, p.AllHashtags()...)
	return strings.Join(parts, " ")
}

func (p Project) SortKey(field string) (string, bool) {
	switch field {
	case "eventName":
		return strings.ToLower(p.EventName), true
	case "eventDate":
		return p.EventDate, true
	case "createdAt":
		return timeKey(p.CreatedAt), true
	case "updatedAt":
		return timeKey(p.UpdatedAt), true
	}
	return "", false
}

func (p Project) CursorKey() string { return timeKey(p.CreatedAt) + "|" + p.ID }

// AllHashtags returns plain hashtags followed by "category:value" entries.
func (p Project) AllHashtags() []string {
	out := append([]string(nil), p.Hashtags...)
	for _, category := range slices.Sorted(maps.Keys(p.CategorizedHashtags)) {
		for _, value := range p.CategorizedHashtags[category] {
			out = append(out, category+":"+value)
		}
	}
	return out
}

// HashtagCategory groups hashtags under a display color.
type HashtagCategory struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CategorySortFields lists the explicit sort fields categories accept.
var CategorySortFields = []string{"name", "order", "createdAt"}

func (c HashtagCategory) EntityID() string   { return c.ID }
func (c HashtagCategory) SearchText() string { return c.Name }

func (c HashtagCategory) SortKey(field string) (string, bool) {
	switch field {
	case "name":
		return strings.ToLower(c.Name), true
	case "order":
		return fmt.Sprintf("%010d", c.Order), true
	case "createdAt":
		return timeKey(c.CreatedAt), true
	}
	return "", false
}

func (c HashtagCategory) CursorKey() string { return timeKey(c.CreatedAt) + "|" + c.ID }

// Admin user roles.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super-admin"
)

// AdminUser is an operator allowed into the admin area.
type AdminUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserSortFields lists the explicit sort fields users accept.
var UserSortFields = []string{"email", "name", "role", "createdAt"}

func (u AdminUser) EntityID() string   { return u.ID }
func (u AdminUser) SearchText() string { return u.Email + " " + u.Name }

func (u AdminUser) SortKey(field string) (string, bool) {
	switch field {
	case "email":
		return strings.ToLower(u.Email), true
	case "name":
		return strings.ToLower(u.Name), true
	case "role":
		return u.Role, true
	case "createdAt":
		return timeKey(u.CreatedAt), true
	}
	return "", false
}

func (u AdminUser) CursorKey() string { return timeKey(u.CreatedAt) + "|" + u.ID }

func timeKey(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}
