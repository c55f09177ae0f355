package admin

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStyle(env *testEnv, id, name string) StyleTheme {
	theme := BuiltinStyle()
	theme.ID = id
	theme.Name = name
	env.styles.records[id] = theme
	return theme
}

func TestStyleCandidatesPrecedence(t *testing.T) {
	settings := StyleSettings{
		GlobalStyleID: "global",
		AdminStyleID:  "admin",
		HashtagStyles: map[string]string{"derby": "derby-style", "country:hu": "hu-style"},
	}
	project := &Project{
		StyleID:             "own",
		Hashtags:            []string{"#Derby"},
		CategorizedHashtags: map[string][]string{"country": {"hu"}},
	}

	got := StyleCandidates(settings, project, ScopeAdmin)
	require.Len(t, got, 5)
	assert.Equal(t, StyleCandidate{StyleID: "own", Source: SourceProject}, got[0])
	assert.Equal(t, StyleCandidate{StyleID: "derby-style", Source: SourceHashtag, Hashtag: "#Derby"}, got[1])
	assert.Equal(t, "hu-style", got[2].StyleID)
	assert.Equal(t, SourceAdmin, got[3].Source)
	assert.Equal(t, SourceGlobal, got[4].Source)

	public := StyleCandidates(settings, nil, ScopePublic)
	require.Len(t, public, 1)
	assert.Equal(t, "global", public[0].StyleID)
}

func TestResolveStyleFallsBackThroughDanglingPointers(t *testing.T) {
	env := newTestEnv()
	seedStyle(env, "global", "Global")
	env.settings.settings = StyleSettings{GlobalStyleID: "global", AdminStyleID: "deleted"}
	env.projects.records["p1"] = Project{ID: "p1", EventName: "Derby", EventDate: "2026-01-01", StyleID: "gone"}

	res, err := env.service.ResolveStyle(context.Background(), "p1", ScopeAdmin)
	require.NoError(t, err)
	assert.Equal(t, SourceGlobal, res.Source)
	assert.Equal(t, "Global", res.Theme.Name)
	assert.NotNil(t, res.Theme.ChartColors)
	assert.Contains(t, env.telemetry.events, "admin.style.dangling")
}

func TestResolveStyleBuiltinFallback(t *testing.T) {
	env := newTestEnv()
	res, err := env.service.ResolveStyle(context.Background(), "", ScopePublic)
	require.NoError(t, err)
	assert.Equal(t, SourceBuiltin, res.Source)
	assert.Equal(t, BuiltinStyleID, res.Theme.ID)
}

func TestResolveStyleUsesHashtagBinding(t *testing.T) {
	env := newTestEnv()
	seedStyle(env, "derby", "Derby")
	seedStyle(env, "global", "Global")
	env.projects.records["p1"] = Project{ID: "p1", EventName: "Derby", EventDate: "2026-01-01", Hashtags: []string{"derby"}}

	_, err := env.service.SetGlobalStyle(context.Background(), "global")
	require.NoError(t, err)
	_, err = env.service.BindHashtagStyle(context.Background(), "#Derby", "derby")
	require.NoError(t, err)

	res, err := env.service.ResolveStyle(context.Background(), "p1", ScopePublic)
	require.NoError(t, err)
	assert.Equal(t, SourceHashtag, res.Source)
	assert.Equal(t, "derby", res.Hashtag)
	assert.Equal(t, "Derby", res.Theme.Name)
}

func TestSetPointersValidateTargetsAndClear(t *testing.T) {
	env := newTestEnv()
	seedStyle(env, "s1", "One")

	_, err := env.service.SetAdminStyle(context.Background(), "missing")
	assert.True(t, IsNotFound(err))

	settings, err := env.service.SetAdminStyle(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", settings.AdminStyleID)
	assert.False(t, settings.UpdatedAt.IsZero())

	settings, err = env.service.SetAdminStyle(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, settings.AdminStyleID)

	_, err = env.service.BindHashtagStyle(context.Background(), "  ", "s1")
	assert.True(t, goerrors.IsValidation(err))
}

func TestDeleteStyleClearsPointers(t *testing.T) {
	env := newTestEnv()
	seedStyle(env, "s1", "One")
	seedStyle(env, "s2", "Two")
	env.settings.settings = StyleSettings{
		GlobalStyleID: "s1",
		AdminStyleID:  "s2",
		HashtagStyles: map[string]string{"derby": "s1", "cup": "s2"},
	}

	require.NoError(t, env.service.DeleteStyle(context.Background(), "s1"))

	settings, err := env.service.StyleSettings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, settings.GlobalStyleID)
	assert.Equal(t, "s2", settings.AdminStyleID)
	assert.Equal(t, map[string]string{"cup": "s2"}, settings.HashtagStyles)

	assert.Error(t, env.service.DeleteStyle(context.Background(), BuiltinStyleID))
}

func TestCreateStyleRequiresNameAndBackfillsPalette(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.CreateStyle(context.Background(), StyleTheme{Name: "   "})
	assert.True(t, goerrors.IsValidation(err))

	created, err := env.service.CreateStyle(context.Background(), StyleTheme{
		Name:        "Club",
		ColorScheme: ColorScheme{Primary: "#010101", Secondary: "#020202"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	require.NotNil(t, created.ChartColors)
	assert.Equal(t, "#010101", created.ChartColors.PieColor1)
}

func TestEditStyleAppliesUpdatesAtomically(t *testing.T) {
	env := newTestEnv()
	seedStyle(env, "s1", "One")

	_, err := env.service.EditStyle(context.Background(), "s1", []FieldUpdate{
		{Path: "typography.headingColor", Value: "#ff0000"},
		{Path: "typography.bogus", Value: "x"},
	})
	require.Error(t, err)
	assert.Equal(t, "#111827", env.styles.records["s1"].Typography.HeadingColor)

	edited, err := env.service.EditStyle(context.Background(), "s1", []FieldUpdate{
		{Path: "typography.headingColor", Value: "#ff0000"},
		{Path: "name", Value: "Renamed"},
	})
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", edited.Typography.HeadingColor)
	assert.Equal(t, "Renamed", env.styles.records["s1"].Name)
}

func TestToggleStyleBackgroundPersists(t *testing.T) {
	env := newTestEnv()
	theme := seedStyle(env, "s1", "One")
	theme.PageBackground = Background{Type: BackgroundSolid, SolidColor: "#112233"}
	env.styles.records["s1"] = theme

	toggled, err := env.service.ToggleStyleBackground(context.Background(), "s1", PageBackgroundKey)
	require.NoError(t, err)
	assert.Equal(t, BackgroundGradient, toggled.PageBackground.Type)
	assert.Equal(t, BackgroundGradient, env.styles.records["s1"].PageBackground.Type)
}
