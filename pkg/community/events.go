package community

import (
	"context"
	"strconv"
	"time"

	"github.com/doodlesbykumbi/community-in-go/pkg/errs"
	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/rpc"
	"github.com/doodlesbykumbi/community-in-go/pkg/validation"
)

const (
	eventsTable        = "events"
	registrationsTable = "event_registrations"
)

type EventFilter struct {
	// Upcoming restricts the listing to events that have not started.
	Upcoming bool
	ListOptions
}

type EventInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Slug        string     `json:"slug" validate:"required,slug"`
	Description string     `json:"description" validate:"max=5000"`
	Location    string     `json:"location" validate:"max=500"`
	StartsAt    time.Time  `json:"starts_at" validate:"required"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	// Capacity is unlimited when nil.
	Capacity *int `json:"capacity" validate:"omitempty,min=1"`
}

func (in EventInput) validate() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.EndsAt != nil && in.EndsAt.Before(in.StartsAt) {
		return errs.NewBadRequestError("Validation failed",
			errs.FieldError{Field: "ends_at", Error: "must be after starts_at"})
	}
	return nil
}

// Events lists events by start time.
func (d *Data) Events(ctx context.Context, f EventFilter) (Page[model.Event], error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(eventsTable, "list", strconv.FormatBool(f.Upcoming), f.key()),
		stale:   staleDefault,
		failure: "Could not load events",
	}, func(ctx context.Context) (Page[model.Event], error) {
		tq := d.client.From(eventsTable).Order("starts_at")
		if f.Upcoming {
			tq.Gte("starts_at", time.Now())
		}
		return selectPage[model.Event](ctx, tq, f.ListOptions)
	})
}

// Event returns the event with id, or nil.
func (d *Data) Event(ctx context.Context, id string) (*model.Event, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(eventsTable, "id", id),
		stale:   staleDefault,
		failure: "Could not load the event",
	}, func(ctx context.Context) (*model.Event, error) {
		return selectOne[model.Event](ctx, d.client.From(eventsTable).Eq("id", id))
	})
}

func (d *Data) Registrations(ctx context.Context, eventID string) ([]model.EventRegistration, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(registrationsTable, "event", eventID),
		stale:   staleShort,
		failure: "Could not load the registrations",
	}, func(ctx context.Context) ([]model.EventRegistration, error) {
		return selectRows[model.EventRegistration](ctx, d.client.From(registrationsTable).
			Eq("event_id", eventID).Order("created_at"))
	})
}

func (d *Data) CreateEvent(ctx context.Context, in EventInput) (*model.Event, error) {
	return mutate(ctx, d, mutation{
		success:     "Event created",
		failure:     "Could not create the event",
		invalidates: []string{eventsTable},
	}, func(ctx context.Context) (*model.Event, error) {
		if err := in.validate(); err != nil {
			return nil, err
		}
		return insertRow[model.Event](ctx, d, eventsTable, in)
	})
}

func (d *Data) UpdateEvent(ctx context.Context, id string, in EventInput) (*model.Event, error) {
	return mutate(ctx, d, mutation{
		success:     "Event updated",
		failure:     "Could not update the event",
		invalidates: []string{eventsTable},
	}, func(ctx context.Context) (*model.Event, error) {
		if err := in.validate(); err != nil {
			return nil, err
		}
		return updateRow[model.Event](ctx, d, eventsTable, id, in)
	})
}

func (d *Data) DeleteEvent(ctx context.Context, id string) error {
	_, err := mutate(ctx, d, mutation{
		success:     "Event deleted",
		failure:     "Could not delete the event",
		invalidates: []string{eventsTable, registrationsTable},
	}, func(ctx context.Context) (struct{}, error) {
		return deleteRow(ctx, d, eventsTable, id)
	})
	return err
}

// RegisterForEvent registers the caller. Registering twice is not an error;
// a full event is.
func (d *Data) RegisterForEvent(ctx context.Context, eventID string) (rpc.RegistrationResult, error) {
	res, err := mutate(ctx, d, mutation{
		failure:     "Could not register for the event",
		invalidates: []string{registrationsTable},
	}, func(ctx context.Context) (rpc.RegistrationResult, error) {
		return call[rpc.RegistrationResult](ctx, d, "register_for_event", rpc.EventArgs{EventID: eventID})
	})
	if err != nil {
		return res, err
	}
	if res.AlreadyRegistered {
		d.notify.Success(ctx, "You are already registered")
	} else {
		d.notify.Success(ctx, "You are registered")
	}
	return res, nil
}

func (d *Data) CancelRegistration(ctx context.Context, eventID string) (rpc.CancelResult, error) {
	return mutate(ctx, d, mutation{
		success:     "Registration cancelled",
		failure:     "Could not cancel the registration",
		invalidates: []string{registrationsTable},
	}, func(ctx context.Context) (rpc.CancelResult, error) {
		return call[rpc.CancelResult](ctx, d, "cancel_event_registration", rpc.EventArgs{EventID: eventID})
	})
}
