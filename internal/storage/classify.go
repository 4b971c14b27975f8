package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
)

// Error codes produced by the default classifier.
const (
	CodeMissingContainer = "Storage.MissingContainer"
	CodeDuplicate        = "Storage.Duplicate"
	CodeForeignKey       = "Storage.ForeignKey"
	CodeBusy             = "Storage.Busy"
	CodeNotFound         = "Storage.NotFound"
	CodeCanceled         = "Storage.Canceled"
	CodeTimeout          = "Storage.Timeout"
	CodeFailure          = "Storage.Failure"
)

// Rule maps error texts containing any of Match (case-insensitive) to an error.
type Rule struct {
	Match   []string
	Kind    result.Kind
	Code    string
	Message string
}

func (r Rule) matches(text string) bool {
	for _, m := range r.Match {
		if strings.Contains(text, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// Classifier turns the medium's error text into a structured error. Rules are
// tried in order, the first match wins.
type Classifier struct {
	rules []Rule
}

var defaultRules = []Rule{
	{
		Match:   []string{"does not exist", "no such table", "unknown container"},
		Kind:    result.KindFailure,
		Code:    CodeMissingContainer,
		Message: "the backing store is not initialized",
	},
	{
		Match:   []string{"unique constraint", "duplicate key", "already exists"},
		Kind:    result.KindConflict,
		Code:    CodeDuplicate,
		Message: "a record with the same unique value already exists",
	},
	{
		Match:   []string{"foreign key"},
		Kind:    result.KindFailure,
		Code:    CodeForeignKey,
		Message: "the record references a missing or still referenced record",
	},
	{
		Match:   []string{"database is locked", "database is busy", "sqlite_busy", "could not serialize"},
		Kind:    result.KindFailure,
		Code:    CodeBusy,
		Message: "the backing store is busy",
	},
	{
		Match:   []string{"no rows in result set", "not found"},
		Kind:    result.KindNotFound,
		Code:    CodeNotFound,
		Message: "the record was not found",
	},
}

// DefaultClassifier returns a classifier with the built-in rules.
func DefaultClassifier() *Classifier {
	return &Classifier{rules: append([]Rule(nil), defaultRules...)}
}

// With returns a copy of c whose extra rules are tried before the existing ones.
func (c *Classifier) With(rules ...Rule) *Classifier {
	merged := make([]Rule, 0, len(rules)+len(c.rules))
	merged = append(merged, rules...)
	merged = append(merged, c.rules...)
	return &Classifier{rules: merged}
}

// Classify maps an error text to an error. Unknown texts become a generic failure
// carrying the original text.
func (c *Classifier) Classify(text string) result.Error {
	lower := strings.ToLower(text)
	for _, r := range c.rules {
		if r.matches(lower) {
			return result.Error{Kind: r.Kind, Code: r.Code, Message: r.Message}
		}
	}
	return result.Failure(CodeFailure, text)
}

// FromError classifies a transport error. Context errors are recognized first.
func (c *Classifier) FromError(err error) result.Error {
	switch {
	case errors.Is(err, context.Canceled):
		return result.Failure(CodeCanceled, "the storage call was canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return result.Failure(CodeTimeout, "the storage call timed out")
	default:
		return c.Classify(err.Error())
	}
}
