package service

import (
	"sort"
	"strconv"
	"time"

	"github.com/dealdash/backend/internal/models"
)

// inFlightStages is the allow-list of stage labels that count as an
// active pipeline for the timeline chart. Closed, parked and lost-side
// stages are deliberately absent.
var inFlightStages = map[string]struct{}{
	"アポ取得":     {},
	"初回商談":     {},
	"ヒアリング":    {},
	"課題整理":     {},
	"提案書/見積提出": {},
	"交渉/検討":    {},
	"受注処理":     {},
}

// Marker kinds on a timeline segment.
const (
	MarkerStart  = "start"
	MarkerClose  = "close"
	MarkerReport = "report"
)

// ExtractTimeline filters resolved deals down to won deals whose target
// close date is still ahead of today and whose stage is in flight, then
// builds one segment per deal from first meeting to close date, ordered
// by start ascending. Deals without both dates cannot be drawn and are
// skipped. An empty result is a valid outcome, not a failure.
//
// Requiring outcome "won" together with a future target date looks odd
// but is the business rule as stated: surface deals whose target
// milestone is still upcoming even though they already closed.
func ExtractTimeline(deals []models.ResolvedDeal, today time.Time) []models.TimelineSegment {
	day := today.Truncate(24 * time.Hour)

	segments := make([]models.TimelineSegment, 0)
	for _, d := range deals {
		if d.Outcome != models.OutcomeWon {
			continue
		}
		if d.TargetCloseDate == nil || d.TargetCloseDate.Before(day) {
			continue
		}
		if d.StageName == nil {
			continue
		}
		if _, ok := inFlightStages[*d.StageName]; !ok {
			continue
		}
		if d.FirstMeetingDate == nil || d.CloseDate == nil {
			continue
		}
		segments = append(segments, buildSegment(d))
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start.Before(segments[j].Start)
	})
	return segments
}

func buildSegment(d models.ResolvedDeal) models.TimelineSegment {
	start := *d.FirstMeetingDate
	finish := *d.CloseDate

	label := d.Name
	if d.LeadPath != "" {
		label += " (" + d.LeadPath + ")"
	}

	seg := models.TimelineSegment{
		Label:        label,
		Start:        start,
		Finish:       finish,
		DurationDays: int(finish.Sub(start).Hours() / 24),
		WonAmount:    d.WonAmount,
		OtherDate:    d.OtherDate,
	}

	seg.Markers = append(seg.Markers, models.SegmentMarker{
		Kind:  MarkerStart,
		Date:  start,
		Label: d.Name,
	})
	closeLabel := ""
	if d.WonAmount != nil {
		closeLabel = FormatAmount(*d.WonAmount)
	}
	seg.Markers = append(seg.Markers, models.SegmentMarker{
		Kind:  MarkerClose,
		Date:  finish,
		Label: closeLabel,
	})
	if d.OtherDate != nil {
		seg.Markers = append(seg.Markers, models.SegmentMarker{
			Kind: MarkerReport,
			Date: *d.OtherDate,
		})
	}
	return seg
}

// FormatAmount renders a 万円 amount the way the spreadsheet formats it:
// comma-grouped integer plus the unit suffix.
func FormatAmount(v float64) string {
	s := strconv.FormatInt(int64(v), 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out) + "万円"
	}
	return string(out) + "万円"
}
