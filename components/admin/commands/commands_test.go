package commands

import (
	"context"
	"errors"
	"testing"

	admin "github.com/goliatone/go-messmass/components/admin"
)

func TestSaveProjectCommandCreatesAndUpdates(t *testing.T) {
	service := &stubService{}
	telemetry := &stubTelemetry{}
	cmd := NewSaveProjectCommand(service, telemetry)

	result := &Result[admin.Project]{}
	if err := cmd.Execute(context.Background(), SaveProjectInput{
		Project: admin.Project{EventName: "Derby"},
		Result:  result,
	}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.createProjectCalls != 1 || service.updateProjectCalls != 0 {
		t.Fatalf("expected one create call, got create=%d update=%d", service.createProjectCalls, service.updateProjectCalls)
	}
	saved, ok := result.Load()
	if !ok || saved.ID != "project-1" {
		t.Fatalf("expected stored result with id project-1, got %+v (set=%v)", saved, ok)
	}

	if err := cmd.Execute(context.Background(), SaveProjectInput{Project: saved}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.updateProjectCalls != 1 {
		t.Fatalf("expected update call")
	}
	if telemetry.last != "admin.command.project.update" {
		t.Fatalf("unexpected telemetry event %q", telemetry.last)
	}
}

func TestSaveProjectCommandPropagatesActor(t *testing.T) {
	service := &stubService{}
	cmd := NewSaveProjectCommand(service, nil)
	err := cmd.Execute(context.Background(), SaveProjectInput{
		Project: admin.Project{EventName: "Derby"},
		Actor:   Actor{ActorID: "actor-1", TenantID: "tenant-1"},
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.lastActor.ActorID != "actor-1" || service.lastActor.TenantID != "tenant-1" {
		t.Fatalf("expected actor on context, got %+v", service.lastActor)
	}
}

func TestMergeStatsCommandRequiresProject(t *testing.T) {
	cmd := NewMergeStatsCommand(&stubService{}, nil)
	if err := cmd.Execute(context.Background(), MergeStatsInput{}); err == nil {
		t.Fatalf("expected error for missing project id")
	}
}

func TestSaveCategoryAndUserCommands(t *testing.T) {
	service := &stubService{}
	if err := NewSaveCategoryCommand(service, nil).Execute(context.Background(), SaveCategoryInput{
		Category: admin.HashtagCategory{Name: "country", Color: "#ff0000"},
	}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if err := NewSaveUserCommand(service, nil).Execute(context.Background(), SaveUserInput{
		User: admin.AdminUser{ID: "user-1", Name: "Ops"},
	}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.createCategoryCalls != 1 {
		t.Fatalf("expected category create call")
	}
	if service.updateUserCalls != 1 {
		t.Fatalf("expected user update call")
	}
}

func TestDeleteCommands(t *testing.T) {
	service := &stubService{}
	telemetry := &stubTelemetry{}
	commands := []*DeleteCommand{
		NewDeleteProjectCommand(service, telemetry),
		NewDeleteCategoryCommand(service, telemetry),
		NewDeleteUserCommand(service, telemetry),
		NewDeleteVariableCommand(service, telemetry),
		NewDeleteStyleCommand(service, telemetry),
		NewDeleteChartCommand(service, telemetry),
	}
	for _, cmd := range commands {
		if err := cmd.Execute(context.Background(), DeleteInput{ID: "x"}); err != nil {
			t.Fatalf("%s delete returned error: %v", cmd.Kind(), err)
		}
	}
	if len(service.deleted) != len(commands) {
		t.Fatalf("expected %d deletes, got %v", len(commands), service.deleted)
	}
	if telemetry.calls != len(commands) {
		t.Fatalf("expected telemetry per delete, got %d", telemetry.calls)
	}
	if err := commands[0].Execute(context.Background(), DeleteInput{ID: "  "}); err == nil {
		t.Fatalf("expected error for blank id")
	}
}

func TestDeleteCommandWithoutService(t *testing.T) {
	cmd := NewDeleteStyleCommand(nil, nil)
	if err := cmd.Execute(context.Background(), DeleteInput{ID: "x"}); err == nil {
		t.Fatalf("expected error without service")
	}
}

func TestSetFlagCommand(t *testing.T) {
	service := &stubService{}
	result := &Result[admin.VariableDefinition]{}
	cmd := NewSetFlagCommand(service, nil)
	err := cmd.Execute(context.Background(), SetFlagInput{
		Name:   "female",
		Flag:   admin.FlagVisibleInClicker,
		Value:  true,
		Result: result,
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.flagCalls != 1 {
		t.Fatalf("expected flag call")
	}
	if def, _ := result.Load(); !def.Flags.VisibleInClicker {
		t.Fatalf("expected flag in result, got %+v", def)
	}
}

func TestRenameVariableCommandRoutesByField(t *testing.T) {
	service := &stubService{}
	cmd := NewRenameVariableCommand(service, nil)
	if err := cmd.Execute(context.Background(), RenameInput{Name: "female", Label: "Women"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if err := cmd.Execute(context.Background(), RenameInput{Name: "vip", NewName: "vipGuests"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.labelCalls != 1 || service.renameCalls != 1 {
		t.Fatalf("expected one label and one identifier rename, got label=%d rename=%d", service.labelCalls, service.renameCalls)
	}
	if err := cmd.Execute(context.Background(), RenameInput{Name: "female"}); !admin.IsValidation(err) {
		t.Fatalf("expected validation error for empty rename, got %v", err)
	}
}

func TestReorderVariablesCommand(t *testing.T) {
	service := &stubService{}
	cmd := NewReorderVariablesCommand(service, nil)
	if err := cmd.Execute(context.Background(), ReorderInput{
		Category: "Fans",
		Names:    []string{"stadium", "indoor", "outdoor"},
	}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.reorderCalls != 1 {
		t.Fatalf("expected reorder call")
	}
}

func TestReorderVariablesCommandReturnsServiceError(t *testing.T) {
	service := &stubService{err: errors.New("boom")}
	cmd := NewReorderVariablesCommand(service, nil)
	if err := cmd.Execute(context.Background(), ReorderInput{Category: "Fans"}); err == nil {
		t.Fatalf("expected service error")
	}
}

func TestSeedVariablesCommandDefaultsToBuiltins(t *testing.T) {
	service := &stubService{}
	telemetry := &stubTelemetry{}
	created := &Result[int]{}
	cmd := NewSeedVariablesCommand(service, telemetry)
	if err := cmd.Execute(context.Background(), SeedVariablesInput{Created: created}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.seeded != len(admin.DefaultVariables()) {
		t.Fatalf("expected %d seeded definitions, got %d", len(admin.DefaultVariables()), service.seeded)
	}
	if n, ok := created.Load(); !ok || n != service.seeded {
		t.Fatalf("expected created count %d, got %d", service.seeded, n)
	}
	if telemetry.calls == 0 {
		t.Fatalf("expected telemetry to record events")
	}
}

func TestEditStyleCommand(t *testing.T) {
	service := &stubService{}
	cmd := NewEditStyleCommand(service, nil)
	if err := cmd.Execute(context.Background(), EditStyleInput{StyleID: "style-1"}); !admin.IsValidation(err) {
		t.Fatalf("expected validation error without updates, got %v", err)
	}
	err := cmd.Execute(context.Background(), EditStyleInput{
		StyleID: "style-1",
		Updates: []admin.FieldUpdate{{Path: "typography.fontFamily", Value: "Inter"}},
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.editCalls != 1 {
		t.Fatalf("expected edit call")
	}
}

func TestToggleBackgroundCommand(t *testing.T) {
	service := &stubService{}
	cmd := NewToggleBackgroundCommand(service, nil)
	if err := cmd.Execute(context.Background(), ToggleBackgroundInput{StyleID: "style-1", Key: "pageBackground"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.toggleCalls != 1 {
		t.Fatalf("expected toggle call")
	}
}

func TestSetPointerCommand(t *testing.T) {
	service := &stubService{}
	cmd := NewSetPointerCommand(service, nil)
	inputs := []SetPointerInput{
		{Pointer: PointerGlobal, StyleID: "a"},
		{Pointer: PointerAdmin, StyleID: "b"},
		{Pointer: PointerHashtag, StyleID: "c", Hashtag: "derby"},
	}
	for _, input := range inputs {
		if err := cmd.Execute(context.Background(), input); err != nil {
			t.Fatalf("Execute(%s) returned error: %v", input.Pointer, err)
		}
	}
	want := []string{"global:a", "admin:b", "hashtag:derby:c"}
	if len(service.pointers) != len(want) {
		t.Fatalf("expected %v, got %v", want, service.pointers)
	}
	for i := range want {
		if service.pointers[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, service.pointers)
		}
	}
	if err := cmd.Execute(context.Background(), SetPointerInput{Pointer: "project"}); !admin.IsValidation(err) {
		t.Fatalf("expected validation error for unknown pointer, got %v", err)
	}
}

func TestSaveChartCommand(t *testing.T) {
	service := &stubService{}
	result := &Result[admin.ChartAlgorithm]{}
	cmd := NewSaveChartCommand(service, nil)
	if err := cmd.Execute(context.Background(), SaveChartInput{
		Chart:  admin.ChartAlgorithm{ChartID: "gender", Type: admin.ChartPie},
		Result: result,
	}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.createChartCalls != 1 {
		t.Fatalf("expected chart create call")
	}
	if chart, ok := result.Load(); !ok || chart.ID == "" {
		t.Fatalf("expected stored chart, got %+v", chart)
	}
}

func TestNilResultIsSafe(t *testing.T) {
	var result *Result[int]
	result.Store(3)
	if _, ok := result.Load(); ok {
		t.Fatalf("nil result should report unset")
	}
}

type stubService struct {
	err error

	createProjectCalls  int
	updateProjectCalls  int
	createCategoryCalls int
	updateUserCalls     int
	createChartCalls    int
	flagCalls           int
	labelCalls          int
	renameCalls         int
	reorderCalls        int
	editCalls           int
	toggleCalls         int
	seeded              int
	deleted             []string
	pointers            []string
	lastActor           admin.ActivityContext
}

func (s *stubService) CreateProject(ctx context.Context, p admin.Project) (admin.Project, error) {
	s.createProjectCalls++
	s.lastActor = admin.ActivityFromContext(ctx)
	p.ID = "project-1"
	return p, s.err
}

func (s *stubService) UpdateProject(_ context.Context, p admin.Project) (admin.Project, error) {
	s.updateProjectCalls++
	return p, s.err
}

func (s *stubService) MergeProjectStats(_ context.Context, id string, _ map[string]any) (admin.Project, error) {
	return admin.Project{ID: id}, s.err
}

func (s *stubService) CreateCategory(_ context.Context, c admin.HashtagCategory) (admin.HashtagCategory, error) {
	s.createCategoryCalls++
	c.ID = "category-1"
	return c, s.err
}

func (s *stubService) UpdateCategory(_ context.Context, c admin.HashtagCategory) (admin.HashtagCategory, error) {
	return c, s.err
}

func (s *stubService) CreateUser(_ context.Context, u admin.AdminUser) (admin.AdminUser, error) {
	return u, s.err
}

func (s *stubService) UpdateUser(_ context.Context, u admin.AdminUser) (admin.AdminUser, error) {
	s.updateUserCalls++
	return u, s.err
}

func (s *stubService) DeleteProject(_ context.Context, id string) error  { return s.remove("project", id) }
func (s *stubService) DeleteCategory(_ context.Context, id string) error { return s.remove("category", id) }
func (s *stubService) DeleteUser(_ context.Context, id string) error     { return s.remove("user", id) }
func (s *stubService) DeleteVariable(_ context.Context, id string) error { return s.remove("variable", id) }
func (s *stubService) DeleteStyle(_ context.Context, id string) error    { return s.remove("style", id) }
func (s *stubService) DeleteChart(_ context.Context, id string) error    { return s.remove("chart", id) }

func (s *stubService) remove(kind, id string) error {
	s.deleted = append(s.deleted, kind+":"+id)
	return s.err
}

func (s *stubService) SetVariableFlag(_ context.Context, name, flag string, value bool) (admin.VariableDefinition, error) {
	s.flagCalls++
	def := admin.VariableDefinition{Name: name}
	if flag == admin.FlagVisibleInClicker {
		def.Flags.VisibleInClicker = value
	}
	return def, s.err
}

func (s *stubService) RenameVariableLabel(_ context.Context, name, label string) (admin.VariableDefinition, error) {
	s.labelCalls++
	return admin.VariableDefinition{Name: name, Label: label}, s.err
}

func (s *stubService) RenameVariable(_ context.Context, _, newName string) (admin.VariableDefinition, error) {
	s.renameCalls++
	return admin.VariableDefinition{Name: newName}, s.err
}

func (s *stubService) ReorderVariables(context.Context, string, []string) error {
	s.reorderCalls++
	return s.err
}

func (s *stubService) SeedVariables(_ context.Context, defs []admin.VariableDefinition) (int, error) {
	s.seeded = len(defs)
	return len(defs), s.err
}

func (s *stubService) EditStyle(_ context.Context, id string, _ []admin.FieldUpdate) (admin.StyleTheme, error) {
	s.editCalls++
	return admin.StyleTheme{ID: id}, s.err
}

func (s *stubService) ToggleStyleBackground(_ context.Context, id, _ string) (admin.StyleTheme, error) {
	s.toggleCalls++
	return admin.StyleTheme{ID: id}, s.err
}

func (s *stubService) SetGlobalStyle(_ context.Context, id string) (admin.StyleSettings, error) {
	s.pointers = append(s.pointers, "global:"+id)
	return admin.StyleSettings{GlobalStyleID: id}, s.err
}

func (s *stubService) SetAdminStyle(_ context.Context, id string) (admin.StyleSettings, error) {
	s.pointers = append(s.pointers, "admin:"+id)
	return admin.StyleSettings{AdminStyleID: id}, s.err
}

func (s *stubService) BindHashtagStyle(_ context.Context, tag, id string) (admin.StyleSettings, error) {
	s.pointers = append(s.pointers, "hashtag:"+tag+":"+id)
	return admin.StyleSettings{HashtagStyles: map[string]string{tag: id}}, s.err
}

func (s *stubService) CreateChart(_ context.Context, c admin.ChartAlgorithm) (admin.ChartAlgorithm, error) {
	s.createChartCalls++
	c.ID = "chart-1"
	return c, s.err
}

func (s *stubService) UpdateChart(_ context.Context, c admin.ChartAlgorithm) (admin.ChartAlgorithm, error) {
	return c, s.err
}

type stubTelemetry struct {
	calls int
	last  string
}

func (s *stubTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	s.calls++
	s.last = event
}
