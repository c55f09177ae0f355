package admin

import (
	"maps"
	"strings"
	"time"
)

// StyleSettings is the singleton record holding style pointers. Updates are
// last write wins.
type StyleSettings struct {
	GlobalStyleID string            `json:"globalStyleId,omitempty"`
	AdminStyleID  string            `json:"adminStyleId,omitempty"`
	HashtagStyles map[string]string `json:"hashtagStyles,omitempty"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// Clone returns a deep copy.
func (s StyleSettings) Clone() StyleSettings {
	out := s
	if s.HashtagStyles != nil {
		out.HashtagStyles = maps.Clone(s.HashtagStyles)
	}
	return out
}

// StyleScope selects which singleton pointer applies.
type StyleScope string

const (
	ScopePublic StyleScope = "public"
	ScopeAdmin  StyleScope = "admin"
)

// Resolution sources, from most to least specific.
const (
	SourceProject = "project"
	SourceHashtag = "hashtag"
	SourceAdmin   = "admin"
	SourceGlobal  = "global"
	SourceBuiltin = "builtin"
)

// StyleCandidate is one style id worth trying during resolution.
type StyleCandidate struct {
	StyleID string `json:"styleId"`
	Source  string `json:"source"`
	Hashtag string `json:"hashtag,omitempty"`
}

// StyleResolution is the outcome of resolving a style.
type StyleResolution struct {
	Theme   StyleTheme `json:"style"`
	Source  string     `json:"source"`
	Hashtag string     `json:"hashtag,omitempty"`
}

// StyleCandidates lists style ids in precedence order: the project's own
// style, then hashtag bindings in the project's hashtag order, then the admin
// pointer (admin scope only), then the global pointer. The built-in theme is
// the implicit final fallback and is not listed.
func StyleCandidates(settings StyleSettings, project *Project, scope StyleScope) []StyleCandidate {
	var out []StyleCandidate
	if project != nil {
		if id := strings.TrimSpace(project.StyleID); id != "" {
			out = append(out, StyleCandidate{StyleID: id, Source: SourceProject})
		}
		for _, tag := range project.AllHashtags() {
			if id := strings.TrimSpace(settings.HashtagStyles[normalizeHashtag(tag)]); id != "" {
				out = append(out, StyleCandidate{StyleID: id, Source: SourceHashtag, Hashtag: tag})
			}
		}
	}
	if scope == ScopeAdmin {
		if id := strings.TrimSpace(settings.AdminStyleID); id != "" {
			out = append(out, StyleCandidate{StyleID: id, Source: SourceAdmin})
		}
	}
	if id := strings.TrimSpace(settings.GlobalStyleID); id != "" {
		out = append(out, StyleCandidate{StyleID: id, Source: SourceGlobal})
	}
	return out
}

func normalizeHashtag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}
