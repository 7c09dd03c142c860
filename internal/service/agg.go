package service

import (
	"sort"
	"time"

	"github.com/dealdash/backend/internal/models"
)

// BarChart is the grouped count table behind the stacked bar chart:
// one row per owner, one column per stage, cell = deal count.
type BarChart struct {
	Owners []string `json:"owners"`
	Stages []string `json:"stages"`
	Counts [][]int  `json:"counts"`
}

// FilterOptions are the sorted unique display names the UI offers as
// multiselect defaults.
type FilterOptions struct {
	Owners []string `json:"owners"`
	Stages []string `json:"stages"`
}

// DealFilter narrows the resolved deal list. Zero values mean "no
// constraint". Date bounds apply to the close date.
type DealFilter struct {
	Outcome  models.Outcome
	LeadPath string
	Owners   []string
	From     *time.Time
	To       *time.Time
}

// BuildStackedBar counts deals per owner and stage under the selection
// sets from the UI. A nil selection keeps everything; a row needs both a
// selected owner name and a selected stage name to count, so unresolved
// deals never appear in the chart.
func BuildStackedBar(deals []models.ResolvedDeal, selectedOwners, selectedStages []string) BarChart {
	ownerSet := toSet(selectedOwners)
	stageSet := toSet(selectedStages)

	counts := make(map[string]map[string]int)
	for _, d := range deals {
		if d.OwnerName == nil || d.StageName == nil {
			continue
		}
		if ownerSet != nil {
			if _, ok := ownerSet[*d.OwnerName]; !ok {
				continue
			}
		}
		if stageSet != nil {
			if _, ok := stageSet[*d.StageName]; !ok {
				continue
			}
		}
		if counts[*d.OwnerName] == nil {
			counts[*d.OwnerName] = make(map[string]int)
		}
		counts[*d.OwnerName][*d.StageName]++
	}

	chart := BarChart{Counts: [][]int{}}
	stageSeen := make(map[string]struct{})
	for owner, byStage := range counts {
		chart.Owners = append(chart.Owners, owner)
		for stage := range byStage {
			if _, ok := stageSeen[stage]; !ok {
				stageSeen[stage] = struct{}{}
				chart.Stages = append(chart.Stages, stage)
			}
		}
	}
	sort.Strings(chart.Owners)
	sort.Strings(chart.Stages)

	for _, owner := range chart.Owners {
		row := make([]int, len(chart.Stages))
		for j, stage := range chart.Stages {
			row[j] = counts[owner][stage]
		}
		chart.Counts = append(chart.Counts, row)
	}
	return chart
}

// Options collects the sorted unique owner and stage names present in
// the resolved set.
func Options(deals []models.ResolvedDeal) FilterOptions {
	owners := make(map[string]struct{})
	stages := make(map[string]struct{})
	for _, d := range deals {
		if d.OwnerName != nil && *d.OwnerName != "" {
			owners[*d.OwnerName] = struct{}{}
		}
		if d.StageName != nil && *d.StageName != "" {
			stages[*d.StageName] = struct{}{}
		}
	}
	return FilterOptions{Owners: sortedKeys(owners), Stages: sortedKeys(stages)}
}

// FilterDeals applies the dashboard sidebar filters.
func FilterDeals(deals []models.ResolvedDeal, filter DealFilter) []models.ResolvedDeal {
	ownerSet := toSet(filter.Owners)

	out := make([]models.ResolvedDeal, 0, len(deals))
	for _, d := range deals {
		if filter.Outcome != "" && d.Outcome != filter.Outcome {
			continue
		}
		if filter.LeadPath != "" && d.LeadPath != filter.LeadPath {
			continue
		}
		if ownerSet != nil {
			if d.OwnerName == nil {
				continue
			}
			if _, ok := ownerSet[*d.OwnerName]; !ok {
				continue
			}
		}
		if filter.From != nil && (d.CloseDate == nil || d.CloseDate.Before(*filter.From)) {
			continue
		}
		if filter.To != nil && (d.CloseDate == nil || d.CloseDate.After(*filter.To)) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
