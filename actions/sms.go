package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/deepnoodle-ai/automation"
)

// SendSMSParams defines the settings of the send_sms action
type SendSMSParams struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// SendSMSAction simulates sending a text message to the record's phone
type SendSMSAction struct {
	delay time.Duration
}

func NewSendSMSAction(delay time.Duration) automation.ActionHandler {
	return automation.NewTypedAction[SendSMSParams](&SendSMSAction{delay: delay})
}

func (a *SendSMSAction) Type() string {
	return SendSMS
}

func (a *SendSMSAction) Handle(ctx context.Context, params SendSMSParams, record automation.Record) (automation.ActionResult, error) {
	if params.Message == "" {
		return required("message"), nil
	}
	to := params.To
	if to == "" {
		to = record.String("phone")
	}
	to = automation.Substitute(to, record)
	if to == "" {
		return required("to"), nil
	}
	message := automation.Substitute(params.Message, record)

	if err := deliver(ctx, a.delay); err != nil {
		return automation.ActionResult{}, err
	}
	automation.Notify(ctx, automation.SeveritySuccess, fmt.Sprintf("SMS sent to %s", to))
	return automation.Succeeded(fmt.Sprintf("SMS sent to %s", to), map[string]any{
		"to":      to,
		"message": message,
	}), nil
}
