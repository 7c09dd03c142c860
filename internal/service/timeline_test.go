package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealdash/backend/internal/models"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func wonDeal(name, stage string) models.ResolvedDeal {
	return models.ResolvedDeal{
		Deal: models.Deal{
			Name:             name,
			Outcome:          models.OutcomeWon,
			WonAmount:        ptr(1500.0),
			FirstMeetingDate: date(2024, time.January, 10),
			CloseDate:        date(2024, time.March, 15),
			TargetCloseDate:  date(2024, time.July, 1),
		},
		StageName: &stage,
	}
}

func TestExtractTimelineFilter(t *testing.T) {
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	pastTarget := wonDeal("過去目標", "提案書/見積提出")
	pastTarget.TargetCloseDate = date(2024, time.May, 1)

	lost := wonDeal("失注案件", "提案書/見積提出")
	lost.Outcome = models.OutcomeLost

	closedStage := wonDeal("クローズ案件", "クローズ")

	noTarget := wonDeal("目標なし", "提案書/見積提出")
	noTarget.TargetCloseDate = nil

	noStage := wonDeal("ステージ未解決", "提案書/見積提出")
	noStage.StageName = nil

	deals := []models.ResolvedDeal{
		wonDeal("A社 提案", "提案書/見積提出"),
		pastTarget,
		lost,
		closedStage,
		noTarget,
		noStage,
	}

	segments := ExtractTimeline(deals, today)
	require.Len(t, segments, 1, "only the won, future-target, in-flight deal qualifies")
	assert.Equal(t, "A社 提案", segments[0].Label)
	assert.Equal(t, 65, segments[0].DurationDays)
}

func TestExtractTimelineTargetOnTodayIsIncluded(t *testing.T) {
	today := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	segments := ExtractTimeline([]models.ResolvedDeal{wonDeal("当日目標", "初回商談")}, today)
	assert.Len(t, segments, 1)
}

func TestExtractTimelineSkipsUndrawableDeals(t *testing.T) {
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	noStart := wonDeal("開始日なし", "初回商談")
	noStart.FirstMeetingDate = nil
	noFinish := wonDeal("受注日なし", "初回商談")
	noFinish.CloseDate = nil

	segments := ExtractTimeline([]models.ResolvedDeal{noStart, noFinish}, today)
	assert.Empty(t, segments)
}

func TestExtractTimelineOrdering(t *testing.T) {
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	later := wonDeal("後発", "初回商談")
	later.FirstMeetingDate = date(2024, time.February, 1)
	earlier := wonDeal("先発", "初回商談")
	earlier.FirstMeetingDate = date(2024, time.January, 5)

	segments := ExtractTimeline([]models.ResolvedDeal{later, earlier}, today)
	require.Len(t, segments, 2)
	assert.Equal(t, "先発", segments[0].Label, "earliest start is the first display row")
	assert.Equal(t, "後発", segments[1].Label)
}

func TestExtractTimelineEmptyIsValid(t *testing.T) {
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	open := wonDeal("進行中", "初回商談")
	open.Outcome = models.OutcomeOpen

	segments := ExtractTimeline([]models.ResolvedDeal{open}, today)
	assert.NotNil(t, segments)
	assert.Empty(t, segments, "zero qualifying rows is a result, not an error")
}

func TestBuildSegmentMarkers(t *testing.T) {
	d := wonDeal("A社 提案", "初回商談")
	d.LeadPath = "紹介"
	d.OtherDate = date(2024, time.February, 20)

	seg := buildSegment(d)
	assert.Equal(t, "A社 提案 (紹介)", seg.Label)
	require.Len(t, seg.Markers, 3)
	assert.Equal(t, MarkerStart, seg.Markers[0].Kind)
	assert.Equal(t, "A社 提案", seg.Markers[0].Label)
	assert.Equal(t, MarkerClose, seg.Markers[1].Kind)
	assert.Equal(t, "1,500万円", seg.Markers[1].Label)
	assert.Equal(t, MarkerReport, seg.Markers[2].Kind)
	assert.Equal(t, *d.OtherDate, seg.Markers[2].Date)
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0万円"},
		{in: 500, want: "500万円"},
		{in: 1500, want: "1,500万円"},
		{in: 1234567, want: "1,234,567万円"},
		{in: -2500, want: "-2,500万円"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.in))
	}
}
