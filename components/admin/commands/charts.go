package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	admin "github.com/goliatone/go-messmass/components/admin"
)

// SaveChartInput creates a chart algorithm when Chart.ID is empty and
// replaces it otherwise.
type SaveChartInput struct {
	Chart admin.ChartAlgorithm
	Actor
	Result *Result[admin.ChartAlgorithm] `json:"-"`
}

type chartService interface {
	CreateChart(ctx context.Context, chart admin.ChartAlgorithm) (admin.ChartAlgorithm, error)
	UpdateChart(ctx context.Context, chart admin.ChartAlgorithm) (admin.ChartAlgorithm, error)
}

// SaveChartCommand wraps the chart create and update operations.
type SaveChartCommand struct {
	service   chartService
	telemetry Telemetry
}

// NewSaveChartCommand builds the command.
func NewSaveChartCommand(service chartService, telemetry Telemetry) *SaveChartCommand {
	return &SaveChartCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveChartInput] = (*SaveChartCommand)(nil)

// Execute stores the chart algorithm.
func (c *SaveChartCommand) Execute(ctx context.Context, msg SaveChartInput) error {
	if c.service == nil {
		return errors.New("save chart command requires service")
	}
	ctx = msg.Actor.apply(ctx)
	save, verb := c.service.CreateChart, "create"
	if msg.Chart.ID != "" {
		save, verb = c.service.UpdateChart, "update"
	}
	saved, err := save(ctx, msg.Chart)
	if err != nil {
		return err
	}
	msg.Result.Store(saved)
	c.telemetry.Record(ctx, "admin.command.chart."+verb, map[string]any{
		"id":       saved.ID,
		"chart_id": saved.ChartID,
		"type":     string(saved.Type),
	})
	return nil
}
