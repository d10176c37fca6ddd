package actions

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/deepnoodle-ai/automation"
)

func required(field string) automation.ActionResult {
	return automation.Failed(fmt.Sprintf("%s is required", field))
}

// deliver simulates delivery to an external provider
func deliver(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// contactName returns a human readable name for the record
func contactName(record automation.Record) string {
	name := strings.TrimSpace(record.String("first_name") + " " + record.String("last_name"))
	if name != "" {
		return name
	}
	for _, field := range []string{"name", "email", "phone", "id"} {
		if value := record.String(field); value != "" {
			return value
		}
	}
	return "contact"
}

func parseBool(value any, fallback bool) (bool, error) {
	switch v := value.(type) {
	case nil:
		return fallback, nil
	case bool:
		return v, nil
	case string:
		if v == "" {
			return fallback, nil
		}
		return strconv.ParseBool(v)
	}
	return false, fmt.Errorf("expected a boolean, got %T", value)
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
