package httpapi

import (
	admin "github.com/goliatone/go-messmass/components/admin"
	"github.com/goliatone/go-messmass/components/admin/commands"
	"github.com/goliatone/go-messmass/components/admin/queries"
)

// WireOptions supplies the optional collaborators NewHandlers needs.
type WireOptions struct {
	// Charts renders project charts. Nil returns computed values only.
	Charts *admin.ChartRenderer
	// Preview renders style previews to HTML. Nil returns preview models only.
	Preview   *admin.PreviewRenderer
	Telemetry commands.Telemetry
}

// NewHandlers wires every endpoint to the commands and queries backed by
// service.
func NewHandlers(service *admin.Service, opts WireOptions) *Handlers {
	t := opts.Telemetry
	h := &Handlers{
		ListProjects:  queries.NewListProjectsQuery(service),
		GetProject:    queries.NewGetProjectQuery(service),
		SaveProject:   commands.NewSaveProjectCommand(service, t),
		MergeStats:    commands.NewMergeStatsCommand(service, t),
		DeleteProject: commands.NewDeleteProjectCommand(service, t),

		ListCategories: queries.NewListCategoriesQuery(service),
		SaveCategory:   commands.NewSaveCategoryCommand(service, t),
		DeleteCategory: commands.NewDeleteCategoryCommand(service, t),

		ListUsers:  queries.NewListUsersQuery(service),
		SaveUser:   commands.NewSaveUserCommand(service, t),
		DeleteUser: commands.NewDeleteUserCommand(service, t),

		ListVariables:    queries.NewListVariablesQuery(service),
		Registry:         queries.NewRegistryQuery(service),
		GetVariable:      queries.NewGetVariableQuery(service),
		CreateVariable:   commands.NewCreateVariableCommand(service, t),
		UpdateVariable:   commands.NewUpdateVariableCommand(service, t),
		SetFlag:          commands.NewSetFlagCommand(service, t),
		RenameVariable:   commands.NewRenameVariableCommand(service, t),
		ReorderVariables: commands.NewReorderVariablesCommand(service, t),
		DeleteVariable:   commands.NewDeleteVariableCommand(service, t),

		ListStyles:   queries.NewListStylesQuery(service),
		GetStyle:     queries.NewGetStyleQuery(service),
		SaveStyle:    commands.NewSaveStyleCommand(service, t),
		EditStyle:    commands.NewEditStyleCommand(service, t),
		ToggleStyle:  commands.NewToggleBackgroundCommand(service, t),
		DeleteStyle:  commands.NewDeleteStyleCommand(service, t),
		Settings:     queries.NewSettingsQuery(service),
		SetPointer:   commands.NewSetPointerCommand(service, t),
		ResolveStyle: queries.NewResolveStyleQuery(service),

		ListCharts:  queries.NewListChartsQuery(service),
		SaveChart:   commands.NewSaveChartCommand(service, t),
		DeleteChart: commands.NewDeleteChartCommand(service, t),
	}
	if opts.Charts != nil {
		h.ProjectCharts = queries.NewProjectChartsQuery(service, opts.Charts)
	} else {
		h.ProjectCharts = queries.NewProjectChartsQuery(service, nil)
	}
	if opts.Preview != nil {
		h.Preview = queries.NewPreviewQuery(service, opts.Preview)
	} else {
		h.Preview = queries.NewPreviewQuery(service, nil)
	}
	return h
}
