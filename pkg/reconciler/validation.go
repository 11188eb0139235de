package reconciler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/agentstation/pricemap/pkg/catalogs"
	"github.com/agentstation/pricemap/pkg/errors"
)

// ValidationResult represents the result of validating a catalog.
type ValidationResult struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// ValidationIssue is a problem found in one catalog row.
type ValidationIssue struct {
	Row     int // 0-based position in the catalog
	Key     catalogs.Key
	Field   string
	Message string
}

// String formats the issue with its 1-based row number.
func (i ValidationIssue) String() string {
	return fmt.Sprintf("row %d (%s): %s: %s", i.Row+1, i.Key, i.Field, i.Message)
}

// IsValid returns true if no errors were found.
func (v *ValidationResult) IsValid() bool {
	return len(v.Errors) == 0
}

// HasWarnings returns true if there are warnings.
func (v *ValidationResult) HasWarnings() bool {
	return len(v.Warnings) > 0
}

// String returns a string representation of the validation result.
func (v *ValidationResult) String() string {
	if v.IsValid() {
		if v.HasWarnings() {
			return fmt.Sprintf("Validation passed with %d warnings", len(v.Warnings))
		}
		return "Validation passed"
	}
	return fmt.Sprintf("Validation failed with %d errors", len(v.Errors))
}

// Err joins the first few errors into one, or returns nil.
func (v *ValidationResult) Err() error {
	if v.IsValid() {
		return nil
	}
	const limit = 5
	msgs := make([]string, 0, limit)
	for i, issue := range v.Errors {
		if i == limit {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(v.Errors)-limit))
			break
		}
		msgs = append(msgs, issue.String())
	}
	return errors.New(strings.Join(msgs, "; "))
}

// ValidateCatalog checks the items a run starts from. Only negative prices are
// errors. Blank articles or brands, duplicate keys and unknown status labels
// are reported as warnings and the rows are still processed.
func ValidateCatalog(items []catalogs.Item) *ValidationResult {
	v := &ValidationResult{}
	seen := make(map[catalogs.Key]int, len(items))
	known := catalogs.Statuses()

	for i, item := range items {
		key := item.Key()
		if !item.Queryable() {
			v.Warnings = append(v.Warnings, ValidationIssue{Row: i, Key: key, Field: "article", Message: "is empty; recorded as an error row"})
		}
		if strings.TrimSpace(item.Brand) == "" {
			v.Warnings = append(v.Warnings, ValidationIssue{Row: i, Key: key, Field: "brand", Message: "is empty"})
		}
		if item.Price.IsNegative() {
			v.Errors = append(v.Errors, ValidationIssue{Row: i, Key: key, Field: "price", Message: "is negative"})
		}
		if first, dup := seen[key]; dup {
			v.Warnings = append(v.Warnings, ValidationIssue{
				Row: i, Key: key, Field: "key",
				Message: fmt.Sprintf("duplicates row %d", first+1),
			})
		} else {
			seen[key] = i
		}
		if item.Status != "" && !slices.Contains(known, item.Status) {
			v.Warnings = append(v.Warnings, ValidationIssue{
				Row: i, Key: key, Field: "status",
				Message: fmt.Sprintf("unknown label %q", item.Status),
			})
		}
	}
	return v
}
