package events

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// Op is the kind of write a Change describes.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	// OpCall marks writes made by an RPC function.
	OpCall Op = "call"
)

// Change describes one write to one table of one company.
type Change struct {
	ID      string    `json:"id"`
	Company string    `json:"company"`
	Slug    string    `json:"slug"`
	Table   string    `json:"table"`
	Op      Op        `json:"op"`
	IDs     []string  `json:"ids,omitempty"`
	At      time.Time `json:"at"`
}

// NewChange creates a Change stamped with a fresh id and the current time.
func NewChange(company tenant.Company, table string, op Op, ids []string) Change {
	return Change{
		ID:      uuid.NewString(),
		Company: company.ID.String(),
		Slug:    company.Slug,
		Table:   table,
		Op:      op,
		IDs:     ids,
		At:      time.Now().UTC(),
	}
}

// Encode serializes c.
func (c Change) Encode() ([]byte, error) {
	return json.Marshal(c)
}

// Decode parses a serialized Change.
func Decode(data []byte) (Change, error) {
	var c Change
	err := json.Unmarshal(data, &c)
	return c, err
}

// Publisher delivers changes.
type Publisher interface {
	Publish(ctx context.Context, changes ...Change) error
	Close() error
}

// Nop drops every change.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, ...Change) error {
	return nil
}

// Close does nothing.
func (Nop) Close() error {
	return nil
}

// LogPublisher writes changes to a logger at debug level.
type LogPublisher struct {
	Logger zerolog.Logger
}

// Publish logs each change.
func (p LogPublisher) Publish(_ context.Context, changes ...Change) error {
	for _, c := range changes {
		p.Logger.Debug().
			Str("change_id", c.ID).
			Str("company", c.Company).
			Str("table", c.Table).
			Str("op", string(c.Op)).
			Strs("ids", c.IDs).
			Msg("change")
	}
	return nil
}

// Close is a no-op.
func (LogPublisher) Close() error { return nil }
