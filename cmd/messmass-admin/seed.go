package main

import (
	"context"
	"fmt"
	"os"

	admin "github.com/goliatone/go-messmass/components/admin"
)

type seedCmd struct {
	Manifest string `type:"existingfile" help:"Variable manifest to seed (defaults to variables.manifest or the built-in set)."`
	Demo     bool   `help:"Also create a sample category, style, chart set, and event."`
}

func (cmd *seedCmd) Run(ctx context.Context, root *cli) error {
	cfg, logger, err := loadRuntime(root.Config)
	if err != nil {
		return err
	}
	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	manifest := cmd.Manifest
	if manifest == "" {
		manifest = cfg.Variables.Manifest
	}
	if err := seedVariables(ctx, b, manifest); err != nil {
		return err
	}
	if !cmd.Demo {
		return nil
	}
	project, err := seedDemo(ctx, b.service)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Seeded demo event %s (%s)\n", project.EventName, project.ID)
	return nil
}

// seedDemo creates a small linked data set: a category, a style bound to
// its hashtag, two charts, and one event using both.
func seedDemo(ctx context.Context, svc *admin.Service) (admin.Project, error) {
	if _, err := svc.CreateCategory(ctx, admin.HashtagCategory{Name: "country", Color: "#3b82f6", Order: 1}); err != nil {
		return admin.Project{}, fmt.Errorf("seed category: %w", err)
	}
	style, err := svc.CreateStyle(ctx, admin.StyleTheme{Name: "Stadium Night", Description: "Dark theme for evening fixtures"})
	if err != nil {
		return admin.Project{}, fmt.Errorf("seed style: %w", err)
	}
	if _, err := svc.BindHashtagStyle(ctx, "derby", style.ID); err != nil {
		return admin.Project{}, fmt.Errorf("bind style: %w", err)
	}
	charts := []admin.ChartAlgorithm{
		{
			ChartID: "genderSplit", Title: "Gender Distribution", Type: admin.ChartPie, Order: 1, IsActive: true,
			Elements: []admin.ChartElement{
				{Label: "Female", Formula: "[female]"},
				{Label: "Male", Formula: "[male]"},
			},
		},
		{
			ChartID: "fanTotal", Title: "Total Fans", Type: admin.ChartKPI, Order: 2, IsActive: true, Emoji: "🏟",
			Elements: []admin.ChartElement{{Label: "Fans", Formula: "[totalFans]"}},
		},
	}
	for _, chart := range charts {
		if _, err := svc.CreateChart(ctx, chart); err != nil {
			return admin.Project{}, fmt.Errorf("seed chart %s: %w", chart.ChartID, err)
		}
	}
	project, err := svc.CreateProject(ctx, admin.Project{
		EventName: "City Derby",
		EventDate: "2026-03-14",
		Hashtags:  []string{"derby"},
		CategorizedHashtags: map[string][]string{
			"country": {"hungary"},
		},
		Stats: map[string]any{
			"remoteImages": 40, "hostessImages": 25, "selfies": 35,
			"indoor": 120, "outdoor": 300, "stadium": 80,
			"female": 230, "male": 270,
		},
	})
	if err != nil {
		return admin.Project{}, fmt.Errorf("seed event: %w", err)
	}
	return project, nil
}
