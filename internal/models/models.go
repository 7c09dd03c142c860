package models

import "time"

// Outcome is the normalized state of a deal, derived from the free-text
// 受注/失注 column at the ingestion boundary.
type Outcome string

const (
	OutcomeWon     Outcome = "won"
	OutcomeLost    Outcome = "lost"
	OutcomeOpen    Outcome = "open"
	OutcomeUnknown Outcome = "unknown"
)

// Deal is a single sales opportunity parsed from the Deals worksheet.
// Numeric and date fields are pointers: a nil value means the cell was
// empty or unparseable, never zero.
type Deal struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	OwnerID          *int64     `json:"owner_id"`
	StageID          *int64     `json:"stage_id"`
	Amount           *float64   `json:"amount"`
	WonAmount        *float64   `json:"won_amount"`
	Outcome          Outcome    `json:"outcome"`
	LeadPath         string     `json:"lead_path"`
	DealType         string     `json:"deal_type"`
	FirstMeetingDate *time.Time `json:"first_meeting_date"`
	CloseDate        *time.Time `json:"close_date"`
	TargetCloseDate  *time.Time `json:"target_close_date"`
	DeliveryDate     *time.Time `json:"delivery_date"`
	OtherDate        *time.Time `json:"other_date"`
}

// Owner is a sales rep from the Users worksheet.
type Owner struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

// Stage is one pipeline phase from the OtherParams worksheet.
type Stage struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ResolvedDeal is a Deal with its numeric owner and stage keys joined to
// display names. The joins are left-joins: unmatched keys leave the name
// nil and the row is kept.
type ResolvedDeal struct {
	Deal
	OwnerName *string `json:"owner_name"`
	StageName *string `json:"stage_name"`
}

// SegmentMarker is one labeled point on a timeline row.
type SegmentMarker struct {
	Kind  string    `json:"kind"`
	Date  time.Time `json:"date"`
	Label string    `json:"label"`
}

// TimelineSegment is one row of the pipeline chart: a won deal drawn from
// its first meeting to its close date. Segments are ordered by Start
// ascending; the slice order is the display row order.
type TimelineSegment struct {
	Label        string          `json:"label"`
	Start        time.Time       `json:"start"`
	Finish       time.Time       `json:"finish"`
	DurationDays int             `json:"duration_days"`
	WonAmount    *float64        `json:"won_amount"`
	OtherDate    *time.Time      `json:"other_date,omitempty"`
	Markers      []SegmentMarker `json:"markers"`
}
