// Package schedule keeps the shift plan and generates it from work patterns.
package schedule

type Source string

const (
	SourceManual Source = "manual"
	SourceAuto   Source = "auto"
)

type Shift struct {
	ID        int     `json:"shiftId"`
	UserID    int     `json:"userId"`
	Date      string  `json:"date"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
	Hours     float64 `json:"hours"`
	Source    Source  `json:"source"`
	Note      string  `json:"note,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	UserID int
	From   string
	To     string
	Source Source
}
