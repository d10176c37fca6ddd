// Package actions provides the built-in CRM action handlers. Delivery of
// email and SMS is simulated; every handler announces what it did through
// the notification sink carried by the context.
package actions

import (
	"time"

	"github.com/deepnoodle-ai/automation"
)

// Built-in action types
const (
	SendEmail              = "send_email"
	SendSMS                = "send_sms"
	AddTag                 = "add_tag"
	RemoveTag              = "remove_tag"
	AssignUser             = "assign_user"
	AddNotes               = "add_notes"
	SetDND                 = "set_dnd"
	CreateOpportunity      = "create_opportunity"
	RemoveOpportunity      = "remove_opportunity"
	AddToWorkflow          = "add_to_workflow"
	RemoveFromWorkflow     = "remove_from_workflow"
	RemoveFromAllWorkflows = "remove_from_all_workflows"
	ScheduleAppointment    = "schedule_appointment"
	SetEventDate           = "set_event_date"
	CreateTask             = "create_task"
	SendNotification       = "send_notification"
)

const (
	DefaultEmailDelay = 1000 * time.Millisecond
	DefaultSMSDelay   = 500 * time.Millisecond
)

// Options configures the built-in actions
type Options struct {
	// EmailDelay is the simulated email delivery time. Defaults to 1s.
	EmailDelay time.Duration

	// SMSDelay is the simulated SMS delivery time. Defaults to 500ms.
	SMSDelay time.Duration

	// NoDelay skips simulated delivery entirely
	NoDelay bool
}

// Builtins returns handlers for every built-in action type
func Builtins(opts Options) []automation.ActionHandler {
	if opts.EmailDelay <= 0 {
		opts.EmailDelay = DefaultEmailDelay
	}
	if opts.SMSDelay <= 0 {
		opts.SMSDelay = DefaultSMSDelay
	}
	if opts.NoDelay {
		opts.EmailDelay = 0
		opts.SMSDelay = 0
	}
	return []automation.ActionHandler{
		NewSendEmailAction(opts.EmailDelay),
		NewSendSMSAction(opts.SMSDelay),
		NewAddTagAction(),
		NewRemoveTagAction(),
		NewAssignUserAction(),
		NewAddNotesAction(),
		NewSetDNDAction(),
		NewCreateOpportunityAction(),
		NewRemoveOpportunityAction(),
		NewAddToWorkflowAction(),
		NewRemoveFromWorkflowAction(),
		NewRemoveFromAllWorkflowsAction(),
		NewScheduleAppointmentAction(),
		NewSetEventDateAction(),
		NewCreateTaskAction(),
		NewSendNotificationAction(),
	}
}
