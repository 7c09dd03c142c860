// Package service turns raw worksheet rows into chart-ready data:
// identifier resolution, timeline extraction, stacked-bar aggregation
// and the pipeline outlook tables.
package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/dealdash/backend/internal/models"
	"github.com/dealdash/backend/internal/sheets"
)

// Worksheet column names as they appear in the HubSpot export.
const (
	colDealID       = "Record ID"
	colDealName     = "Deal Name"
	colDealOwner    = "Deal owner"
	colDealStage    = "Deal Stage"
	colAmount       = "金額"
	colWonAmount    = "受注金額"
	colOutcome      = "受注/失注"
	colLeadPath     = "リード経路"
	colDealType     = "Deal Type"
	colFirstMeeting = "初回商談実施日"
	colCloseDate    = "受注日"
	colTargetClose  = "受注目標日"
	colDelivery     = "納品予定日"
	colOtherDate    = "報告/提案日"
)

var dateLayouts = []string{"2006-01-02", "2006/01/02", "2006/1/2"}

// ParseOwners maps Users rows to owners. Full name is first + " " +
// last; a missing part contributes an empty segment and both missing
// yields an empty name, never an error.
func ParseOwners(rows []sheets.Row) []models.Owner {
	owners := make([]models.Owner, 0, len(rows))
	for _, row := range rows {
		id := coerceID(row["ID"])
		if id == nil {
			continue
		}
		owners = append(owners, models.Owner{
			ID:       *id,
			FullName: fullName(row["First Name"], row["Last Name"]),
		})
	}
	return owners
}

// ParseStages maps the fixed stage window to stages. Rows without a
// numeric id are skipped; deals pointing at them resolve to nil.
func ParseStages(rows []sheets.Row) []models.Stage {
	stages := make([]models.Stage, 0, len(rows))
	for _, row := range rows {
		id := coerceID(row["Stage ID"])
		if id == nil {
			continue
		}
		stages = append(stages, models.Stage{ID: *id, Name: row["Stage Name"]})
	}
	return stages
}

// ParseDeals maps Deals rows to deals. Coercion failures null the field
// and keep the row; no row-level data problem aborts the parse.
func ParseDeals(rows []sheets.Row) []models.Deal {
	deals := make([]models.Deal, 0, len(rows))
	for _, row := range rows {
		deals = append(deals, models.Deal{
			ID:               strings.TrimSpace(row[colDealID]),
			Name:             strings.TrimSpace(row[colDealName]),
			OwnerID:          coerceID(row[colDealOwner]),
			StageID:          coerceID(row[colDealStage]),
			Amount:           coerceNumber(row[colAmount]),
			WonAmount:        coerceNumber(row[colWonAmount]),
			Outcome:          parseOutcome(row[colOutcome]),
			LeadPath:         strings.TrimSpace(row[colLeadPath]),
			DealType:         strings.TrimSpace(row[colDealType]),
			FirstMeetingDate: coerceDate(row[colFirstMeeting]),
			CloseDate:        coerceDate(row[colCloseDate]),
			TargetCloseDate:  coerceDate(row[colTargetClose]),
			DeliveryDate:     coerceDate(row[colDelivery]),
			OtherDate:        coerceDate(row[colOtherDate]),
		})
	}
	return deals
}

// Resolve left-joins deals to owner and stage names. Every input deal
// produces exactly one output row; unmatched keys leave the name nil.
// Duplicate reference ids resolve first-match-wins.
func Resolve(deals []models.Deal, owners []models.Owner, stages []models.Stage) []models.ResolvedDeal {
	ownerNames := make(map[int64]string, len(owners))
	for _, o := range owners {
		if _, ok := ownerNames[o.ID]; !ok {
			ownerNames[o.ID] = o.FullName
		}
	}
	stageNames := make(map[int64]string, len(stages))
	for _, s := range stages {
		if _, ok := stageNames[s.ID]; !ok {
			stageNames[s.ID] = s.Name
		}
	}

	resolved := make([]models.ResolvedDeal, 0, len(deals))
	for _, d := range deals {
		r := models.ResolvedDeal{Deal: d}
		if d.OwnerID != nil {
			if name, ok := ownerNames[*d.OwnerID]; ok {
				r.OwnerName = &name
			}
		}
		if d.StageID != nil {
			if name, ok := stageNames[*d.StageID]; ok {
				r.StageName = &name
			}
		}
		resolved = append(resolved, r)
	}
	return resolved
}

// ResolveSnapshot is the full parse-and-join over one fetched snapshot.
func ResolveSnapshot(deals, stages, users []sheets.Row) []models.ResolvedDeal {
	return Resolve(ParseDeals(deals), ParseOwners(users), ParseStages(stages))
}

func fullName(first, last string) string {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if first == "" && last == "" {
		return ""
	}
	return first + " " + last
}

func parseOutcome(raw string) models.Outcome {
	switch strings.TrimSpace(raw) {
	case "受注":
		return models.OutcomeWon
	case "失注":
		return models.OutcomeLost
	case "商談中", "進行中":
		return models.OutcomeOpen
	default:
		return models.OutcomeUnknown
	}
}

// coerceNumber parses a numeric cell. Thousand separators are common in
// formatted sheet values, so commas are stripped first. Anything that
// still fails to parse becomes nil.
func coerceNumber(raw string) *float64 {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func coerceID(raw string) *int64 {
	n := coerceNumber(raw)
	if n == nil {
		return nil
	}
	id := int64(*n)
	return &id
}

func coerceDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
