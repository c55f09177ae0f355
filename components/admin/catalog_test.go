package admin

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectNormalizesAndValidates(t *testing.T) {
	env := newTestEnv()
	env.variables.records["selfies"] = countVar("selfies", "Images", 0)

	_, err := env.service.CreateProject(context.Background(), Project{EventName: "Derby", EventDate: "01/02/2026"})
	assert.True(t, goerrors.IsValidation(err))

	_, err = env.service.CreateProject(context.Background(), Project{
		EventName: "Derby", EventDate: "2026-02-01", Stats: map[string]any{"ghost": 1},
	})
	assert.True(t, goerrors.IsValidation(err))

	project, err := env.service.CreateProject(context.Background(), Project{
		EventName: "  Derby ",
		EventDate: "2026-02-01",
		Hashtags:  []string{"#Derby", " ", "Cup"},
		Stats:     map[string]any{"selfies": 4},
	})
	require.NoError(t, err)
	assert.Equal(t, "Derby", project.EventName)
	assert.Equal(t, []string{"derby", "cup"}, project.Hashtags)
	assert.NotEmpty(t, project.ID)
	require.Len(t, env.hook.events, 1)
	assert.Equal(t, "project", env.hook.events[0].Kind)
}

func TestMergeProjectStatsKeepsOtherKeys(t *testing.T) {
	env := newTestEnv()
	env.variables.records["selfies"] = countVar("selfies", "Images", 0)
	env.variables.records["female"] = countVar("female", "Demographics", 0)
	env.projects.records["p1"] = Project{ID: "p1", EventName: "Derby", EventDate: "2026-01-01", Stats: map[string]any{"selfies": 3}}

	project, err := env.service.MergeProjectStats(context.Background(), "p1", map[string]any{"female": 9})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"selfies": 3, "female": 9}, project.Stats)

	_, err = env.service.MergeProjectStats(context.Background(), "missing", map[string]any{"female": 1})
	assert.True(t, IsNotFound(err))
}

func TestUpdateProjectKeepsStatsOfRemovedVariables(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.variables.records["female"] = countVar("female", "Demographics", 0)
	for _, name := range []string{"vipGuests", "pressPasses"} {
		_, err := env.service.CreateVariable(ctx, VariableDefinition{Name: name, Label: name, Type: TypeCount, Category: "Event"})
		require.NoError(t, err)
	}
	project, err := env.service.CreateProject(ctx, Project{
		EventName: "Derby",
		EventDate: "2026-02-01",
		Stats:     map[string]any{"vipGuests": 4, "pressPasses": 7, "female": 2},
	})
	require.NoError(t, err)

	require.NoError(t, env.service.DeleteVariable(ctx, "vipGuests"))
	_, err = env.service.RenameVariable(ctx, "pressPasses", "mediaPasses")
	require.NoError(t, err)

	project.EventName = "City Derby"
	project.Stats = map[string]any{"vipGuests": 4.0, "pressPasses": 7, "female": 3}
	updated, err := env.service.UpdateProject(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, "City Derby", updated.EventName)
	assert.Equal(t, 4.0, updated.Stats["vipGuests"])

	project.Stats = map[string]any{"vipGuests": 5, "pressPasses": 7, "female": 3}
	_, err = env.service.UpdateProject(ctx, project)
	assert.True(t, goerrors.IsValidation(err), "changing an orphaned value is still rejected")

	project.Stats = map[string]any{"female": "many"}
	_, err = env.service.UpdateProject(ctx, project)
	assert.True(t, goerrors.IsValidation(err))
}

func TestListProjectsRejectsUnknownSortField(t *testing.T) {
	env := newTestEnv()
	_, err := env.service.ListProjects(context.Background(), ListQuery{Sort: SortState{Field: "password", Order: SortAsc}})
	require.Error(t, err)
	assert.True(t, goerrors.IsValidation(err))
}

func TestListProjectsClampsPageSize(t *testing.T) {
	env := newTestEnv(func(o *Options) { o.MaxPageSize = 3 })
	for _, p := range sampleProjects(5) {
		env.projects.records[p.ID] = p
	}
	page, err := env.service.ListProjects(context.Background(), ListQuery{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.True(t, page.Pagination.HasMore())
}

func TestCategoryNamesAreUnique(t *testing.T) {
	env := newTestEnv()
	created, err := env.service.CreateCategory(context.Background(), HashtagCategory{Name: "Country", Color: "#ff0000"})
	require.NoError(t, err)

	_, err = env.service.CreateCategory(context.Background(), HashtagCategory{Name: "country", Color: "#00ff00"})
	assert.True(t, goerrors.HasCategory(err, goerrors.CategoryConflict))

	_, err = env.service.CreateCategory(context.Background(), HashtagCategory{Name: "Venue", Color: "red"})
	assert.True(t, goerrors.IsValidation(err))

	created.Order = 2
	updated, err := env.service.UpdateCategory(context.Background(), created)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Order)

	require.NoError(t, env.service.DeleteCategory(context.Background(), created.ID))
	assert.True(t, IsNotFound(env.service.DeleteCategory(context.Background(), created.ID)))
}

func TestCreateUserRules(t *testing.T) {
	env := newTestEnv()
	user, err := env.service.CreateUser(context.Background(), AdminUser{Email: " Ops@Example.com ", Name: "Ops"})
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", user.Email)
	assert.Equal(t, RoleAdmin, user.Role)

	_, err = env.service.CreateUser(context.Background(), AdminUser{Email: "OPS@example.com", Name: "Dup"})
	assert.True(t, goerrors.HasCategory(err, goerrors.CategoryConflict))

	_, err = env.service.CreateUser(context.Background(), AdminUser{Email: "not-an-email", Name: "Bad"})
	assert.True(t, goerrors.IsValidation(err))

	_, err = env.service.CreateUser(context.Background(), AdminUser{Email: "x@example.com", Name: "X", Role: "root"})
	assert.True(t, goerrors.IsValidation(err))

	user.Email = "changed@example.com"
	user.Role = RoleSuperAdmin
	updated, err := env.service.UpdateUser(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", updated.Email)
	assert.Equal(t, RoleSuperAdmin, updated.Role)
}

func TestServiceReportsMissingStores(t *testing.T) {
	service := NewService(Options{})
	_, err := service.ListProjects(context.Background(), ListQuery{})
	assert.ErrorIs(t, err, errMissingProjectStore)
	_, err = service.StyleSettings(context.Background())
	assert.ErrorIs(t, err, errMissingSettingsStore)
}
