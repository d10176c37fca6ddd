package actions

import (
	"context"
	"fmt"

	"github.com/deepnoodle-ai/automation"
)

// CreateOpportunityParams defines the settings of the create_opportunity action
type CreateOpportunityParams struct {
	Title    string `json:"title"`
	Value    any    `json:"value"`
	Stage    string `json:"stage"`
	Pipeline string `json:"pipeline"`
}

// CreateOpportunityAction opens a sales opportunity for the record
type CreateOpportunityAction struct{}

func NewCreateOpportunityAction() automation.ActionHandler {
	return automation.NewTypedAction[CreateOpportunityParams](&CreateOpportunityAction{})
}

func (a *CreateOpportunityAction) Type() string {
	return CreateOpportunity
}

func (a *CreateOpportunityAction) Handle(ctx context.Context, params CreateOpportunityParams, record automation.Record) (automation.ActionResult, error) {
	title := automation.Substitute(params.Title, record)
	if title == "" {
		return required("title"), nil
	}
	data := map[string]any{"title": title}
	if params.Value != nil {
		data["value"] = params.Value
	}
	if params.Stage != "" {
		data["stage"] = params.Stage
	}
	if params.Pipeline != "" {
		data["pipeline"] = params.Pipeline
	}
	message := fmt.Sprintf("Opportunity %q created for %s", title, contactName(record))
	automation.Notify(ctx, automation.SeveritySuccess, message)
	return automation.Succeeded(message, data), nil
}

// RemoveOpportunityParams defines the settings of the remove_opportunity
// action. Without an id every open opportunity of the record is removed.
type RemoveOpportunityParams struct {
	OpportunityID string `json:"opportunityId"`
}

// RemoveOpportunityAction removes opportunities from the record
type RemoveOpportunityAction struct{}

func NewRemoveOpportunityAction() automation.ActionHandler {
	return automation.NewTypedAction[RemoveOpportunityParams](&RemoveOpportunityAction{})
}

func (a *RemoveOpportunityAction) Type() string {
	return RemoveOpportunity
}

func (a *RemoveOpportunityAction) Handle(ctx context.Context, params RemoveOpportunityParams, record automation.Record) (automation.ActionResult, error) {
	message := fmt.Sprintf("Opportunities removed from %s", contactName(record))
	data := map[string]any{}
	if params.OpportunityID != "" {
		message = fmt.Sprintf("Opportunity %s removed from %s", params.OpportunityID, contactName(record))
		data["opportunityId"] = params.OpportunityID
	}
	automation.Notify(ctx, automation.SeverityInfo, message)
	return automation.Succeeded(message, data), nil
}
