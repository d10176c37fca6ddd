package actions

import (
	"context"
	"fmt"

	"github.com/deepnoodle-ai/automation"
)

// TagParams defines the settings of the add_tag and remove_tag actions
type TagParams struct {
	TagName string `json:"tagName"`
}

// TagAction adds a tag to, or removes a tag from, the record
type TagAction struct {
	remove bool
}

func NewAddTagAction() automation.ActionHandler {
	return automation.NewTypedAction[TagParams](&TagAction{})
}

func NewRemoveTagAction() automation.ActionHandler {
	return automation.NewTypedAction[TagParams](&TagAction{remove: true})
}

func (a *TagAction) Type() string {
	if a.remove {
		return RemoveTag
	}
	return AddTag
}

func (a *TagAction) Handle(ctx context.Context, params TagParams, record automation.Record) (automation.ActionResult, error) {
	tag := automation.Substitute(params.TagName, record)
	if tag == "" {
		return required("tagName"), nil
	}
	message := fmt.Sprintf("Tag %q added to %s", tag, contactName(record))
	if a.remove {
		message = fmt.Sprintf("Tag %q removed from %s", tag, contactName(record))
	}
	automation.Notify(ctx, automation.SeveritySuccess, message)
	return automation.Succeeded(message, map[string]any{"tagName": tag}), nil
}
