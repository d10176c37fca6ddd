package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/deepnoodle-ai/automation"
)

// SendEmailParams defines the settings of the send_email action
type SendEmailParams struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SendEmailAction simulates sending an email to the record's address
type SendEmailAction struct {
	delay time.Duration
}

func NewSendEmailAction(delay time.Duration) automation.ActionHandler {
	return automation.NewTypedAction[SendEmailParams](&SendEmailAction{delay: delay})
}

func (a *SendEmailAction) Type() string {
	return SendEmail
}

func (a *SendEmailAction) Handle(ctx context.Context, params SendEmailParams, record automation.Record) (automation.ActionResult, error) {
	if params.Subject == "" {
		return required("subject"), nil
	}
	if params.Message == "" {
		return required("message"), nil
	}
	to := params.To
	if to == "" {
		to = record.String("email")
	}
	to = automation.Substitute(to, record)
	if to == "" {
		return required("to"), nil
	}
	subject := automation.Substitute(params.Subject, record)
	message := automation.Substitute(params.Message, record)

	if err := deliver(ctx, a.delay); err != nil {
		return automation.ActionResult{}, err
	}
	automation.Notify(ctx, automation.SeveritySuccess, fmt.Sprintf("Email sent to %s: %s", to, subject))
	return automation.Succeeded(fmt.Sprintf("Email sent to %s", to), map[string]any{
		"to":      to,
		"subject": subject,
		"message": message,
	}), nil
}
