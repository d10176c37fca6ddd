package automation

import "regexp"

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Substitute replaces each {{field}} token in the template with the record's
// value for that field. Tokens naming absent or nil fields are left as is.
func Substitute(template string, record Record) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := placeholderPattern.FindStringSubmatch(token)[1]
		value, ok := record[name]
		if !ok || value == nil {
			return token
		}
		return stringify(value)
	})
}

// SubstituteAll applies Substitute to every string value in settings and
// returns the result as a new map.
func SubstituteAll(settings map[string]any, record Record) map[string]any {
	result := make(map[string]any, len(settings))
	for k, v := range settings {
		if s, ok := v.(string); ok {
			result[k] = Substitute(s, record)
		} else {
			result[k] = v
		}
	}
	return result
}
