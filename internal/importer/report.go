package importer

import (
	"fmt"
	"strings"

	"prestashop-importer-service/internal/models"
)

// Report severities, mirroring the notification levels the management UI
// renders.
const (
	SeveritySuccess = "success"
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityDanger  = "danger"
)

// Report is the end-of-run summary surfaced to the operator
type Report struct {
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Sticky   bool   `json:"sticky"`
}

// ToJSONB converts the report for JSONB storage on the run
func (r Report) ToJSONB() models.JSONB {
	return models.JSONB{
		"severity": r.Severity,
		"title":    r.Title,
		"message":  r.Message,
		"sticky":   r.Sticky,
	}
}

// BuildReport derives the operator-facing summary from the final counters.
// Anything involving errors is sticky so it survives page navigation.
func BuildReport(entity models.EntityType, c models.Counters, outcome Outcome) Report {
	label := strings.ToLower(string(entity))
	summary := fmt.Sprintf("%d imported, %d skipped, %d errors out of %d %s",
		c.Imported, c.Skipped, c.Errors, c.Processed, label)

	if outcome == OutcomeAborted {
		return Report{
			Severity: SeverityDanger,
			Title:    fmt.Sprintf("%s import stopped early", title(label)),
			Message:  summary + ". Too many consecutive failures; check the connection and retry.",
			Sticky:   true,
		}
	}

	switch {
	case c.Errors > 0 && c.Imported == 0:
		return Report{
			Severity: SeverityDanger,
			Title:    fmt.Sprintf("%s import failed", title(label)),
			Message:  summary,
			Sticky:   true,
		}
	case c.Errors > 0:
		return Report{
			Severity: SeverityWarning,
			Title:    fmt.Sprintf("%s import finished with errors", title(label)),
			Message:  summary,
			Sticky:   true,
		}
	case c.Imported == 0 && c.Skipped > 0:
		return Report{
			Severity: SeverityInfo,
			Title:    fmt.Sprintf("No new %s", label),
			Message:  fmt.Sprintf("All %d %s already present, nothing imported.", c.Skipped, label),
			Sticky:   false,
		}
	default:
		return Report{
			Severity: SeveritySuccess,
			Title:    fmt.Sprintf("%s import completed", title(label)),
			Message:  summary,
			Sticky:   false,
		}
	}
}

// BuildFailureReport summarizes a run that died before or outside the item
// loop, e.g. a listing failure or a panic in the worker.
func BuildFailureReport(entity models.EntityType, reason string) Report {
	label := strings.ToLower(string(entity))
	return Report{
		Severity: SeverityDanger,
		Title:    fmt.Sprintf("%s import failed", title(label)),
		Message:  reason,
		Sticky:   true,
	}
}

// title upper-cases the first letter of a label for report headings
func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
