// Package contract generates employment contracts from a template, tracks
// them through sending and e-signing, and renders them as PDF.
package contract

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/jobflow/jobflow-backend/internal/apperr"
)

type Status string

const (
	StatusDraft  Status = "draft"
	StatusSent   Status = "sent"
	StatusSigned Status = "signed"
	StatusVoid   Status = "void"
)

type Contract struct {
	ID           int     `json:"contractId"`
	UserID       int     `json:"userId"`
	Title        string  `json:"title"`
	ContractType string  `json:"contractType"`
	WeeklyHours  float64 `json:"weeklyHours"`
	HourlyWage   float64 `json:"hourlyWage"`
	StartDate    string  `json:"startDate"`
	EndDate      string  `json:"endDate,omitempty"`
	Body         string  `json:"body"`
	Status       Status  `json:"status"`
	DocumentKey  string  `json:"documentKey"`
	SentAt       string  `json:"sentAt,omitempty"`
	SignedAt     string  `json:"signedAt,omitempty"`
	SignerName   string  `json:"signerName,omitempty"`
	SignerIP     string  `json:"signerIp,omitempty"`
	CreatedAt    string  `json:"createdAt,omitempty"`
	UpdatedAt    string  `json:"updatedAt,omitempty"`
}

// next lists the statuses a contract may move to from each status.
var next = map[Status][]Status{
	StatusDraft: {StatusSent, StatusVoid},
	StatusSent:  {StatusSigned, StatusVoid},
}

// CanTransition reports whether a contract in status from may move to to.
func CanTransition(from, to Status) bool {
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}

// sourcesOf returns every status that may transition to to.
func sourcesOf(to Status) []Status {
	out := make([]Status, 0, 2)
	for _, from := range []Status{StatusDraft, StatusSent, StatusSigned, StatusVoid} {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

// TemplateData is what a contract template can refer to.
type TemplateData struct {
	Title        string
	EmployeeName string
	Email        string
	Position     string
	Department   string
	ContractType string
	WeeklyHours  float64
	HourlyWage   float64
	StartDate    string
	EndDate      string
}

const DefaultTemplate = `This employment contract is made between the employer and {{.EmployeeName}} ({{.Email}}).

1. Position. The employee is engaged as {{with .Position}}{{.}}{{else}}staff member{{end}}{{with .Department}} in the {{.}} department{{end}}.

2. Term. Employment starts on {{.StartDate}}{{if .EndDate}} and ends on {{.EndDate}}{{else}} for an indefinite period{{end}}.

3. Working time. {{if eq .ContractType "flex"}}The employee works flexible hours; vacation accrues in proportion to the hours worked.{{else}}The employee works {{printf "%.2f" .WeeklyHours}} hours per week; the annual vacation entitlement is four working weeks.{{end}}

4. Remuneration. The employee is paid {{printf "%.2f" .HourlyWage}} per hour worked.

5. Signature. This contract becomes binding once signed electronically by the employee.`

var ErrTemplate = apperr.New(apperr.InvalidArgument, "invalid contract template")

// Render executes tmpl (or DefaultTemplate when empty) against data.
func Render(tmpl string, data TemplateData) (string, error) {
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	t, err := template.New("contract").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return buf.String(), nil
}
