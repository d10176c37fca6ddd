package actions

import (
	"context"
	"fmt"

	"github.com/deepnoodle-ai/automation"
)

// SendNotificationParams defines the settings of the send_notification action
type SendNotificationParams struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// SendNotificationAction forwards a message to the notification sink
type SendNotificationAction struct{}

func NewSendNotificationAction() automation.ActionHandler {
	return automation.NewTypedAction[SendNotificationParams](&SendNotificationAction{})
}

func (a *SendNotificationAction) Type() string {
	return SendNotification
}

func (a *SendNotificationAction) Handle(ctx context.Context, params SendNotificationParams, record automation.Record) (automation.ActionResult, error) {
	if params.Message == "" {
		return required("message"), nil
	}
	severity := automation.Severity(params.Severity)
	switch severity {
	case "":
		severity = automation.SeverityInfo
	case automation.SeverityInfo, automation.SeveritySuccess, automation.SeverityError:
	default:
		return automation.Failed(fmt.Sprintf("severity %q is not supported", params.Severity)), nil
	}
	message := automation.Substitute(params.Message, record)
	automation.Notify(ctx, severity, message)
	return automation.Succeeded("Notification sent", map[string]any{
		"message":  message,
		"severity": string(severity),
	}), nil
}
