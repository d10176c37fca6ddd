package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/deepnoodle-ai/automation"
)

// CreateTaskParams defines the settings of the create_task action
type CreateTaskParams struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	AssignedTo  string `json:"assignedTo"`
}

// CreateTaskAction creates a follow-up task about the record
type CreateTaskAction struct{}

func NewCreateTaskAction() automation.ActionHandler {
	return automation.NewTypedAction[CreateTaskParams](&CreateTaskAction{})
}

func (a *CreateTaskAction) Type() string {
	return CreateTask
}

func (a *CreateTaskAction) Handle(ctx context.Context, params CreateTaskParams, record automation.Record) (automation.ActionResult, error) {
	title := automation.Substitute(params.Title, record)
	if title == "" {
		return required("title"), nil
	}
	data := map[string]any{"title": title}
	if params.Description != "" {
		data["description"] = automation.Substitute(params.Description, record)
	}
	if params.DueDate != "" {
		due, err := parseDate(automation.Substitute(params.DueDate, record))
		if err != nil {
			return automation.Failed(fmt.Sprintf("dueDate is invalid: %v", err)), nil
		}
		data["dueDate"] = due.Format(time.RFC3339)
	}
	if params.AssignedTo != "" {
		data["assignedTo"] = params.AssignedTo
	}
	message := fmt.Sprintf("Task %q created for %s", title, contactName(record))
	automation.Notify(ctx, automation.SeveritySuccess, message)
	return automation.Succeeded(message, data), nil
}
