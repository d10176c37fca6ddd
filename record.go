package automation

import (
	"fmt"
	"strconv"
)

// Record is the subject data a workflow acts on, typically a contact or lead.
// The engine treats it as opaque and never modifies it.
type Record map[string]any

// Get returns the value of a field
func (r Record) Get(field string) (any, bool) {
	value, ok := r[field]
	return value, ok
}

// String returns the field formatted as a string, or "" when it is absent.
func (r Record) String(field string) string {
	value, ok := r[field]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// ID returns the record's "id" field as a string, if present.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// Copy returns a shallow copy of the record.
func (r Record) Copy() Record {
	return Record(copyMap(r))
}
