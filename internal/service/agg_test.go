package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealdash/backend/internal/models"
)

func resolvedDeal(owner, stage string) models.ResolvedDeal {
	d := models.ResolvedDeal{Deal: models.Deal{Outcome: models.OutcomeOpen}}
	if owner != "" {
		d.OwnerName = &owner
	}
	if stage != "" {
		d.StageName = &stage
	}
	return d
}

func TestBuildStackedBarCounts(t *testing.T) {
	deals := []models.ResolvedDeal{
		resolvedDeal("Hanako Sato", "初回商談"),
		resolvedDeal("Hanako Sato", "初回商談"),
		resolvedDeal("Hanako Sato", "提案書/見積提出"),
		resolvedDeal("Taro Suzuki", "初回商談"),
		resolvedDeal("", "初回商談"),
		resolvedDeal("Taro Suzuki", ""),
	}

	chart := BuildStackedBar(deals, nil, nil)
	require.Equal(t, []string{"Hanako Sato", "Taro Suzuki"}, chart.Owners)
	require.Equal(t, []string{"初回商談", "提案書/見積提出"}, chart.Stages)
	assert.Equal(t, [][]int{{2, 1}, {1, 0}}, chart.Counts, "unresolved rows never reach the chart")
}

func TestBuildStackedBarSelectionFilters(t *testing.T) {
	deals := []models.ResolvedDeal{
		resolvedDeal("Hanako Sato", "初回商談"),
		resolvedDeal("Taro Suzuki", "初回商談"),
		resolvedDeal("Hanako Sato", "提案書/見積提出"),
	}

	chart := BuildStackedBar(deals, []string{"Hanako Sato"}, []string{"初回商談"})
	assert.Equal(t, []string{"Hanako Sato"}, chart.Owners)
	assert.Equal(t, []string{"初回商談"}, chart.Stages)
	assert.Equal(t, [][]int{{1}}, chart.Counts)
}

func TestOptionsSortedUnique(t *testing.T) {
	deals := []models.ResolvedDeal{
		resolvedDeal("Taro Suzuki", "初回商談"),
		resolvedDeal("Hanako Sato", "初回商談"),
		resolvedDeal("Hanako Sato", "アポ取得"),
		resolvedDeal("", ""),
	}

	opts := Options(deals)
	assert.Equal(t, []string{"Hanako Sato", "Taro Suzuki"}, opts.Owners)
	assert.Equal(t, []string{"アポ取得", "初回商談"}, opts.Stages)
}

func TestFilterDeals(t *testing.T) {
	won := resolvedDeal("Hanako Sato", "初回商談")
	won.Outcome = models.OutcomeWon
	won.LeadPath = "紹介"
	won.CloseDate = date(2024, time.March, 15)

	lost := resolvedDeal("Taro Suzuki", "初回商談")
	lost.Outcome = models.OutcomeLost
	lost.CloseDate = date(2024, time.May, 1)

	deals := []models.ResolvedDeal{won, lost}

	got := FilterDeals(deals, DealFilter{Outcome: models.OutcomeWon})
	require.Len(t, got, 1)
	assert.Equal(t, "紹介", got[0].LeadPath)

	got = FilterDeals(deals, DealFilter{LeadPath: "紹介"})
	assert.Len(t, got, 1)

	got = FilterDeals(deals, DealFilter{Owners: []string{"Taro Suzuki"}})
	require.Len(t, got, 1)
	assert.Equal(t, models.OutcomeLost, got[0].Outcome)

	got = FilterDeals(deals, DealFilter{From: date(2024, time.April, 1)})
	require.Len(t, got, 1)
	assert.Equal(t, models.OutcomeLost, got[0].Outcome)

	got = FilterDeals(deals, DealFilter{To: date(2024, time.April, 1)})
	require.Len(t, got, 1)
	assert.Equal(t, models.OutcomeWon, got[0].Outcome)

	got = FilterDeals(deals, DealFilter{})
	assert.Len(t, got, 2, "zero filter keeps everything")
}
