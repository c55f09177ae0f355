package admin

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-messmass/pkg/activity"
)

// Options configures the admin Service. Every collaborator is an interface
// so applications can swap storage backends and hooks.
type Options struct {
	Projects       Repository[Project]
	Categories     Repository[HashtagCategory]
	Users          Repository[AdminUser]
	Variables      Repository[VariableDefinition]
	Styles         Repository[StyleTheme]
	Charts         Repository[ChartAlgorithm]
	Settings       SettingsStore
	StatsValidator *StatsValidator
	RefreshHook    RefreshHook
	Telemetry      Telemetry
	ActivityHooks  activity.Hooks
	ActivityConfig activity.Config
	PageSize       int
	MaxPageSize    int
	Now            func() time.Time
	NewID          func() string
}

// Service implements the admin operations on top of the configured stores.
type Service struct {
	opts       Options
	activity   *activity.Emitter
	settingsMu sync.Mutex
	reorderMu  sync.Mutex
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.StatsValidator == nil {
		opts.StatsValidator = NewStatsValidator()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = MaxPageSize
	}
	if opts.PageSize > opts.MaxPageSize {
		opts.PageSize = opts.MaxPageSize
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.ActivityConfig.Channel == "" {
		opts.ActivityConfig.Channel = activity.DefaultChannel
	}
	return &Service{
		opts:     opts,
		activity: activity.NewEmitter(opts.ActivityHooks, opts.ActivityConfig),
	}
}

// prepareList normalizes the query and rejects sort fields the entity does
// not support.
func (s *Service) prepareList(query ListQuery, sortFields []string) (ListQuery, error) {
	query = query.Normalize(s.opts.PageSize, s.opts.MaxPageSize)
	if query.Sort.Active() && !slices.Contains(sortFields, query.Sort.Field) {
		allowed := make([]any, len(sortFields))
		for i, f := range sortFields {
			allowed[i] = f
		}
		err := validation.Errors{
			"sortField": validation.Validate(query.Sort.Field, validation.In(allowed...)),
		}.Filter()
		return query, validationError(err, fmt.Sprintf("unsupported sort field %q", query.Sort.Field))
	}
	return query, nil
}

// changed publishes a mutation to the refresh hook, telemetry, and activity.
func (s *Service) changed(ctx context.Context, kind, reason, id string, entity any, meta map[string]any) error {
	now := s.opts.Now()
	event := EntityEvent{
		Kind:       kind,
		ID:         id,
		Reason:     reason,
		Entity:     entity,
		OccurredAt: now,
	}
	if err := s.opts.RefreshHook.EntityChanged(ctx, event); err != nil {
		return err
	}
	verb := "admin." + kind + "." + reason
	payload := map[string]any{"id": id}
	for k, v := range meta {
		payload[k] = v
	}
	s.recordTelemetry(ctx, verb, payload)
	s.emitActivity(ctx, verb, kind, id, payload, now)
	return nil
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

func (s *Service) emitActivity(ctx context.Context, verb, objectType, objectID string, meta map[string]any, at time.Time) {
	if !s.activity.Enabled() {
		return
	}
	actor := ActivityFromContext(ctx)
	err := s.activity.Emit(ctx, activity.Event{
		Verb:       verb,
		ActorID:    actor.ActorID,
		UserID:     actor.UserID,
		TenantID:   actor.TenantID,
		ObjectType: objectType,
		ObjectID:   objectID,
		Metadata:   meta,
		OccurredAt: at,
	})
	if err != nil {
		s.recordTelemetry(ctx, "admin.activity.error", map[string]any{"verb": verb, "error": err.Error()})
	}
}

func (s *Service) projects() (Repository[Project], error) {
	if s.opts.Projects == nil {
		return nil, errMissingProjectStore
	}
	return s.opts.Projects, nil
}

func (s *Service) categories() (Repository[HashtagCategory], error) {
	if s.opts.Categories == nil {
		return nil, errMissingCategoryStore
	}
	return s.opts.Categories, nil
}

func (s *Service) users() (Repository[AdminUser], error) {
	if s.opts.Users == nil {
		return nil, errMissingUserStore
	}
	return s.opts.Users, nil
}

func (s *Service) variables() (Repository[VariableDefinition], error) {
	if s.opts.Variables == nil {
		return nil, errMissingVariableStore
	}
	return s.opts.Variables, nil
}

func (s *Service) styles() (Repository[StyleTheme], error) {
	if s.opts.Styles == nil {
		return nil, errMissingStyleStore
	}
	return s.opts.Styles, nil
}

func (s *Service) charts() (Repository[ChartAlgorithm], error) {
	if s.opts.Charts == nil {
		return nil, errMissingChartStore
	}
	return s.opts.Charts, nil
}

func (s *Service) settings() (SettingsStore, error) {
	if s.opts.Settings == nil {
		return nil, errMissingSettingsStore
	}
	return s.opts.Settings, nil
}
