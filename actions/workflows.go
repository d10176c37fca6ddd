package actions

import (
	"context"
	"fmt"

	"github.com/deepnoodle-ai/automation"
)

// WorkflowParams defines the settings of the add_to_workflow and
// remove_from_workflow actions
type WorkflowParams struct {
	WorkflowID string `json:"workflowId"`
}

// WorkflowMembershipAction enrolls the record in, or removes it from,
// another workflow. The enrollment itself is the caller's concern; the
// action announces it.
type WorkflowMembershipAction struct {
	remove bool
}

func NewAddToWorkflowAction() automation.ActionHandler {
	return automation.NewTypedAction[WorkflowParams](&WorkflowMembershipAction{})
}

func NewRemoveFromWorkflowAction() automation.ActionHandler {
	return automation.NewTypedAction[WorkflowParams](&WorkflowMembershipAction{remove: true})
}

func (a *WorkflowMembershipAction) Type() string {
	if a.remove {
		return RemoveFromWorkflow
	}
	return AddToWorkflow
}

func (a *WorkflowMembershipAction) Handle(ctx context.Context, params WorkflowParams, record automation.Record) (automation.ActionResult, error) {
	if params.WorkflowID == "" {
		return required("workflowId"), nil
	}
	if logger, ok := automation.GetLoggerFromContext(ctx); ok {
		logger.Debug("workflow membership changed", "workflow_id", params.WorkflowID, "removed", a.remove)
	}
	message := fmt.Sprintf("%s added to workflow %s", contactName(record), params.WorkflowID)
	if a.remove {
		message = fmt.Sprintf("%s removed from workflow %s", contactName(record), params.WorkflowID)
	}
	automation.Notify(ctx, automation.SeverityInfo, message)
	return automation.Succeeded(message, map[string]any{"workflowId": params.WorkflowID}), nil
}

// NewRemoveFromAllWorkflowsAction returns an action that removes the record
// from every workflow. It takes no settings.
func NewRemoveFromAllWorkflowsAction() automation.ActionHandler {
	return automation.NewActionFunction(RemoveFromAllWorkflows,
		func(ctx context.Context, settings map[string]any, record automation.Record) (automation.ActionResult, error) {
			message := fmt.Sprintf("%s removed from all workflows", contactName(record))
			automation.Notify(ctx, automation.SeverityInfo, message)
			return automation.Succeeded(message, nil), nil
		})
}
