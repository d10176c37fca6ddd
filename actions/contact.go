package actions

import (
	"context"
	"fmt"

	"github.com/deepnoodle-ai/automation"
)

// AssignUserParams defines the settings of the assign_user action
type AssignUserParams struct {
	UserID string `json:"userId"`
}

// AssignUserAction assigns the record to a user
type AssignUserAction struct{}

func NewAssignUserAction() automation.ActionHandler {
	return automation.NewTypedAction[AssignUserParams](&AssignUserAction{})
}

func (a *AssignUserAction) Type() string {
	return AssignUser
}

func (a *AssignUserAction) Handle(ctx context.Context, params AssignUserParams, record automation.Record) (automation.ActionResult, error) {
	if params.UserID == "" {
		return required("userId"), nil
	}
	message := fmt.Sprintf("%s assigned to user %s", contactName(record), params.UserID)
	automation.Notify(ctx, automation.SeverityInfo, message)
	return automation.Succeeded(message, map[string]any{"userId": params.UserID}), nil
}

// AddNotesParams defines the settings of the add_notes action
type AddNotesParams struct {
	Note string `json:"note"`
}

// AddNotesAction appends a note to the record
type AddNotesAction struct{}

func NewAddNotesAction() automation.ActionHandler {
	return automation.NewTypedAction[AddNotesParams](&AddNotesAction{})
}

func (a *AddNotesAction) Type() string {
	return AddNotes
}

func (a *AddNotesAction) Handle(ctx context.Context, params AddNotesParams, record automation.Record) (automation.ActionResult, error) {
	if params.Note == "" {
		return required("note"), nil
	}
	note := automation.Substitute(params.Note, record)
	automation.Notify(ctx, automation.SeverityInfo, fmt.Sprintf("Note added to %s", contactName(record)))
	return automation.Succeeded("Note added", map[string]any{"note": note}), nil
}

// SetDNDParams defines the settings of the set_dnd action. Enabled accepts
// a boolean or its string form and defaults to true.
type SetDNDParams struct {
	Enabled any    `json:"enabled"`
	Channel string `json:"channel"`
}

// SetDNDAction toggles do-not-disturb for the record
type SetDNDAction struct{}

func NewSetDNDAction() automation.ActionHandler {
	return automation.NewTypedAction[SetDNDParams](&SetDNDAction{})
}

func (a *SetDNDAction) Type() string {
	return SetDND
}

func (a *SetDNDAction) Handle(ctx context.Context, params SetDNDParams, record automation.Record) (automation.ActionResult, error) {
	enabled, err := parseBool(params.Enabled, true)
	if err != nil {
		return automation.Failed(fmt.Sprintf("enabled is invalid: %v", err)), nil
	}
	channel := params.Channel
	if channel == "" {
		channel = "all"
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	message := fmt.Sprintf("Do not disturb %s for %s (%s)", state, contactName(record), channel)
	automation.Notify(ctx, automation.SeverityInfo, message)
	return automation.Succeeded(message, map[string]any{"enabled": enabled, "channel": channel}), nil
}
