// Package intake defines the job-posting payload an intake conversation
// collects, and validates candidate payloads emitted by the model.
package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPayload indicates the candidate slice was not parseable JSON.
var ErrMalformedPayload = errors.New("malformed payload")

// SchemaError reports every field-level violation found in a parseable payload.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "schema violation: " + strings.Join(e.Violations, "; ")
}

// StackDetail describes one technology requirement collected for a field.
type StackDetail struct {
	StackField       string   `json:"stack_field"`
	StackName        string   `json:"stack_name"`
	DeepRequirements []string `json:"deep_requirements"`
}

// JobPosting is the structured output of a completed intake conversation.
type JobPosting struct {
	CompanyName     string        `json:"company_name"`
	CompanyIndustry string        `json:"company_industry"`
	JobPosition     string        `json:"job_position"`
	Requirements    []StackDetail `json:"requirements"`
}

// Canonical renders the posting with stable field order for storage.
func (p *JobPosting) Canonical() string {
	b, _ := json.MarshalIndent(p, "", "  ")
	return string(b)
}

// ValidatePosting parses candidate as a JSON object and checks it against the
// job-posting schema. Parse failures wrap ErrMalformedPayload; shape failures
// return a *SchemaError enumerating every violation. Neither is fatal to the
// conversation: callers treat both as "no payload extracted this turn".
func ValidatePosting(candidate string) (*JobPosting, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var violations []string
	posting := &JobPosting{Requirements: []StackDetail{}}

	posting.CompanyName = requireString(raw, "company_name", &violations)
	posting.CompanyIndustry = requireString(raw, "company_industry", &violations)
	posting.JobPosition = requireString(raw, "job_position", &violations)

	if reqRaw, ok := raw["requirements"]; ok {
		var entries []map[string]json.RawMessage
		if err := json.Unmarshal(reqRaw, &entries); err != nil {
			violations = append(violations, "requirements: expected a list of objects")
		} else {
			for i, entry := range entries {
				detail := StackDetail{DeepRequirements: []string{}}
				prefix := fmt.Sprintf("requirements[%d].", i)
				detail.StackField = requireString(entry, "stack_field", &violations, prefix)
				detail.StackName = requireString(entry, "stack_name", &violations, prefix)
				if deepRaw, ok := entry["deep_requirements"]; ok {
					var deep []string
					if err := json.Unmarshal(deepRaw, &deep); err != nil {
						violations = append(violations, prefix+"deep_requirements: expected a list of strings")
					} else if deep != nil {
						detail.DeepRequirements = deep
					}
				}
				posting.Requirements = append(posting.Requirements, detail)
			}
		}
	}

	if len(violations) > 0 {
		return nil, &SchemaError{Violations: violations}
	}
	return posting, nil
}

func requireString(obj map[string]json.RawMessage, field string, violations *[]string, prefix ...string) string {
	qualified := field
	if len(prefix) > 0 {
		qualified = prefix[0] + field
	}
	rawVal, ok := obj[field]
	if !ok {
		*violations = append(*violations, qualified+": required field missing")
		return ""
	}
	var s string
	if err := json.Unmarshal(rawVal, &s); err != nil {
		*violations = append(*violations, qualified+": expected a string")
		return ""
	}
	return s
}
