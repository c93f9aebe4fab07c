// Package filter narrows an activity stream with --where clauses.
package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pulse-qa/pulse/internal/domain"
)

// WhereClause represents a parsed --where condition
type WhereClause struct {
	Field    string
	Operator string
	Value    string
	regex    *regexp.Regexp // Compiled regex for ~ and !~ operators
}

// ParseWhereClause parses a where clause like "event=step" or "title~timeout"
// Supported operators: =, !=, ~, !~, >=, <=, ^, $
func ParseWhereClause(clause string) (*WhereClause, error) {
	// Try operators in order of length (longest first to avoid partial matches)
	operators := []string{"!~", ">=", "<=", "!=", "~", "=", "^", "$"}

	for _, op := range operators {
		idx := strings.Index(clause, op)
		if idx > 0 {
			field := strings.TrimSpace(clause[:idx])
			value := strings.TrimSpace(clause[idx+len(op):])

			if field == "" || value == "" {
				return nil, fmt.Errorf("invalid where clause: %s", clause)
			}

			wc := &WhereClause{
				Field:    field,
				Operator: op,
				Value:    value,
			}

			// Pre-compile regex for ~ and !~ operators
			if op == "~" || op == "!~" {
				re, err := regexp.Compile(value)
				if err != nil {
					return nil, fmt.Errorf("invalid regex in where clause '%s': %w", clause, err)
				}
				wc.regex = re
			}

			return wc, nil
		}
	}

	return nil, fmt.Errorf("no valid operator found in where clause: %s (use =, !=, ~, !~, >=, <=, ^, $)", clause)
}

// Match checks if an activity entry matches this where clause
func (wc *WhereClause) Match(entry *domain.ActivityLogEntry) bool {
	fieldValue := wc.getFieldValue(entry)

	switch wc.Operator {
	case "=":
		return fieldValue == wc.Value
	case "!=":
		return fieldValue != wc.Value
	case "~": // Contains (regex)
		if wc.regex != nil {
			return wc.regex.MatchString(fieldValue)
		}
		return strings.Contains(fieldValue, wc.Value)
	case "!~": // Not contains (regex)
		if wc.regex != nil {
			return !wc.regex.MatchString(fieldValue)
		}
		return !strings.Contains(fieldValue, wc.Value)
	case "^": // Starts with
		return strings.HasPrefix(fieldValue, wc.Value)
	case "$": // Ends with
		return strings.HasSuffix(fieldValue, wc.Value)
	case ">=": // Greater or equal (duration in ms)
		return wc.compareDuration(entry, true)
	case "<=": // Less or equal (duration in ms)
		return wc.compareDuration(entry, false)
	}

	return false
}

// getFieldValue extracts the field value from an activity entry
func (wc *WhereClause) getFieldValue(entry *domain.ActivityLogEntry) string {
	switch strings.ToLower(wc.Field) {
	case "event":
		return string(entry.EventType)
	case "type":
		return string(entry.ActivityType)
	case "title":
		return entry.Title
	case "description":
		return entry.Description
	case "session":
		return entry.SessionID
	case "project":
		return entry.ProjectID
	case "screenshot":
		return entry.ScreenshotURL
	case "duration":
		return strconv.FormatInt(entry.DurationMs, 10)
	default:
		return ""
	}
}

// compareDuration handles >= and <= comparisons for duration_ms
func (wc *WhereClause) compareDuration(entry *domain.ActivityLogEntry, greaterOrEqual bool) bool {
	if strings.ToLower(wc.Field) != "duration" {
		return false
	}

	target, err := strconv.ParseInt(wc.Value, 10, 64)
	if err != nil {
		return false
	}

	if greaterOrEqual {
		return entry.DurationMs >= target
	}
	return entry.DurationMs <= target
}

// WhereFilter is a filter that applies multiple where clauses (AND logic)
type WhereFilter struct {
	clauses []*WhereClause
}

// NewWhereFilter creates a filter from multiple where clause strings
func NewWhereFilter(whereClauses []string) (*WhereFilter, error) {
	if len(whereClauses) == 0 {
		return nil, nil
	}

	filter := &WhereFilter{}
	for _, clause := range whereClauses {
		wc, err := ParseWhereClause(clause)
		if err != nil {
			return nil, err
		}
		filter.clauses = append(filter.clauses, wc)
	}

	return filter, nil
}

// Match returns true if the entry matches ALL where clauses (AND logic).
// A nil filter allows everything.
func (f *WhereFilter) Match(entry *domain.ActivityLogEntry) bool {
	if f == nil {
		return true
	}
	for _, clause := range f.clauses {
		if !clause.Match(entry) {
			return false
		}
	}
	return true
}
