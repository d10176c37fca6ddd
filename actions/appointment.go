package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/deepnoodle-ai/automation"
)

// ScheduleAppointmentParams defines the settings of the schedule_appointment action
type ScheduleAppointmentParams struct {
	Date     string `json:"date"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
}

// ScheduleAppointmentAction books an appointment with the record
type ScheduleAppointmentAction struct{}

func NewScheduleAppointmentAction() automation.ActionHandler {
	return automation.NewTypedAction[ScheduleAppointmentParams](&ScheduleAppointmentAction{})
}

func (a *ScheduleAppointmentAction) Type() string {
	return ScheduleAppointment
}

func (a *ScheduleAppointmentAction) Handle(ctx context.Context, params ScheduleAppointmentParams, record automation.Record) (automation.ActionResult, error) {
	value := automation.Substitute(params.Date, record)
	if value == "" {
		return required("date"), nil
	}
	date, err := parseDate(value)
	if err != nil {
		return automation.Failed(fmt.Sprintf("date is invalid: %v", err)), nil
	}
	title := automation.Substitute(params.Title, record)
	if title == "" {
		title = "Appointment"
	}
	duration := 30 * time.Minute
	if params.Duration > 0 {
		duration = time.Duration(params.Duration) * time.Minute
	}
	message := fmt.Sprintf("%s scheduled with %s on %s", title, contactName(record), date.Format(time.RFC3339))
	automation.Notify(ctx, automation.SeveritySuccess, message)
	return automation.Succeeded(message, map[string]any{
		"date":     date.Format(time.RFC3339),
		"title":    title,
		"duration": duration.String(),
	}), nil
}

// SetEventDateParams defines the settings of the set_event_date action
type SetEventDateParams struct {
	Date  string `json:"date"`
	Field string `json:"field"`
}

// SetEventDateAction records a date on the record, event_date by default
type SetEventDateAction struct{}

func NewSetEventDateAction() automation.ActionHandler {
	return automation.NewTypedAction[SetEventDateParams](&SetEventDateAction{})
}

func (a *SetEventDateAction) Type() string {
	return SetEventDate
}

func (a *SetEventDateAction) Handle(ctx context.Context, params SetEventDateParams, record automation.Record) (automation.ActionResult, error) {
	value := automation.Substitute(params.Date, record)
	if value == "" {
		return required("date"), nil
	}
	date, err := parseDate(value)
	if err != nil {
		return automation.Failed(fmt.Sprintf("date is invalid: %v", err)), nil
	}
	field := params.Field
	if field == "" {
		field = "event_date"
	}
	message := fmt.Sprintf("%s set to %s for %s", field, date.Format("2006-01-02"), contactName(record))
	automation.Notify(ctx, automation.SeverityInfo, message)
	return automation.Succeeded(message, map[string]any{
		"field": field,
		"date":  date.Format(time.RFC3339),
	}), nil
}
