package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrNoActions     = errors.New("no actions configured")
)

type Action string

const (
	ActionComplete Action = "complete"
	ActionReopen   Action = "reopen"
	ActionMarkRead Action = "mark_read"
	ActionDelete   Action = "delete"
)

func ParseAction(value string) (Action, error) {
	action := Action(strings.TrimSpace(strings.ToLower(value)))
	switch action {
	case ActionComplete, ActionReopen, ActionMarkRead, ActionDelete:
		return action, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, value)
}

// Actions carries out the user's commands on a record. List pages never
// touch storage themselves; they hand the record id to this port.
type Actions interface {
	Complete(ctx context.Context, id string) error
	Reopen(ctx context.Context, id string) error
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// Perform dispatches action on the record with the given id.
func (c *Composer) Perform(ctx context.Context, action Action, id string) error {
	if c.actions == nil {
		return ErrNoActions
	}
	switch action {
	case ActionComplete:
		return c.actions.Complete(ctx, id)
	case ActionReopen:
		return c.actions.Reopen(ctx, id)
	case ActionMarkRead:
		return c.actions.MarkRead(ctx, id)
	case ActionDelete:
		return c.actions.Delete(ctx, id)
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, action)
}
