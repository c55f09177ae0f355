// Package usersink forwards admin activity into a go-users activity sink.
package usersink

import (
	"context"
	"maps"

	"github.com/goliatone/go-messmass/pkg/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Sink persists go-users activity records.
type Sink interface {
	Log(ctx context.Context, record types.ActivityRecord) error
}

// Hook implements activity.Hook on top of a Sink.
type Hook struct {
	Sink Sink
}

var _ activity.Hook = Hook{}

// Notify maps the event into an ActivityRecord and logs it.
func (h Hook) Notify(ctx context.Context, evt activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	evt = activity.NormalizeEvent(evt)
	if !evt.Valid() {
		return nil
	}
	return h.Sink.Log(ctx, toRecord(evt))
}

func toRecord(evt activity.Event) types.ActivityRecord {
	data := make(map[string]any, len(evt.Metadata)+2)
	maps.Copy(data, evt.Metadata)
	if evt.DefinitionCode != "" {
		data["definition_code"] = evt.DefinitionCode
	}
	if len(evt.Recipients) > 0 {
		data["recipients"] = append([]string(nil), evt.Recipients...)
	}
	return types.ActivityRecord{
		ActorID:    parseID(evt.ActorID),
		UserID:     parseID(evt.UserID),
		TenantID:   parseID(evt.TenantID),
		Verb:       evt.Verb,
		ObjectType: evt.ObjectType,
		ObjectID:   evt.ObjectID,
		Channel:    evt.Channel,
		Data:       data,
		OccurredAt: evt.OccurredAt,
	}
}

func parseID(value string) uuid.UUID {
	if value == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}
	return id
}
