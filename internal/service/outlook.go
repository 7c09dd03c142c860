package service

import (
	"sort"
	"strings"

	"github.com/dealdash/backend/internal/models"
)

// unassigned is the display value for a missing owner or deal type.
const unassigned = "未設定"

// OutlookRow is one pipeline deal in the outlook detail table.
type OutlookRow struct {
	Owner    string  `json:"owner"`
	DealType string  `json:"deal_type"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Schedule string  `json:"schedule"`
}

// OwnerSummary aggregates the outlook per sales rep.
type OwnerSummary struct {
	Owner       string  `json:"owner"`
	Deals       int     `json:"deals"`
	AmountTotal float64 `json:"amount_total"`
	DealTypes   int     `json:"deal_types"`
}

// TypeSummary aggregates the outlook per deal type.
type TypeSummary struct {
	DealType    string  `json:"deal_type"`
	Deals       int     `json:"deals"`
	AmountTotal float64 `json:"amount_total"`
	Owners      int     `json:"owners"`
}

// Pivot is the owner × deal-type cross table of expected amounts, with
// a 合計 margin row and column.
type Pivot struct {
	Owners []string    `json:"owners"`
	Types  []string    `json:"types"`
	Sums   [][]float64 `json:"sums"`
}

// OutlookTotals is the headline summary block.
type OutlookTotals struct {
	Deals       int     `json:"deals"`
	AmountTotal float64 `json:"amount_total"`
	Owners      int     `json:"owners"`
	DealTypes   int     `json:"deal_types"`
}

// Outlook is the whole pipeline-outlook report.
type Outlook struct {
	Rows    []OutlookRow   `json:"rows"`
	ByOwner []OwnerSummary `json:"by_owner"`
	ByType  []TypeSummary  `json:"by_type"`
	Pivot   Pivot          `json:"pivot"`
	Totals  OutlookTotals  `json:"totals"`
}

// BuildOutlook selects deals that have a target close date or a planned
// delivery date and aggregates their expected amounts per owner and deal
// type. Missing owners and types group under 未設定, missing amounts
// count as zero; a pipeline deal is never dropped for incomplete data.
func BuildOutlook(deals []models.ResolvedDeal) Outlook {
	var rows []OutlookRow
	for _, d := range deals {
		if d.TargetCloseDate == nil && d.DeliveryDate == nil {
			continue
		}
		rows = append(rows, OutlookRow{
			Owner:    displayName(d.OwnerName),
			DealType: displayType(d.DealType),
			Name:     d.Name,
			Amount:   amountOrZero(d.WonAmount),
			Schedule: scheduleNote(d),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Owner != rows[j].Owner {
			return rows[i].Owner < rows[j].Owner
		}
		if rows[i].DealType != rows[j].DealType {
			return rows[i].DealType < rows[j].DealType
		}
		return rows[i].Amount > rows[j].Amount
	})

	out := Outlook{Rows: rows}
	out.ByOwner = summarizeByOwner(rows)
	out.ByType = summarizeByType(rows)
	out.Pivot = buildPivot(rows)
	out.Totals = OutlookTotals{
		Deals:       len(rows),
		AmountTotal: sumAmounts(rows),
		Owners:      len(out.ByOwner),
		DealTypes:   len(out.ByType),
	}
	return out
}

func summarizeByOwner(rows []OutlookRow) []OwnerSummary {
	totals := make(map[string]*OwnerSummary)
	types := make(map[string]map[string]struct{})
	for _, r := range rows {
		s := totals[r.Owner]
		if s == nil {
			s = &OwnerSummary{Owner: r.Owner}
			totals[r.Owner] = s
			types[r.Owner] = make(map[string]struct{})
		}
		s.Deals++
		s.AmountTotal += r.Amount
		types[r.Owner][r.DealType] = struct{}{}
	}

	out := make([]OwnerSummary, 0, len(totals))
	for owner, s := range totals {
		s.DealTypes = len(types[owner])
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AmountTotal != out[j].AmountTotal {
			return out[i].AmountTotal > out[j].AmountTotal
		}
		return out[i].Owner < out[j].Owner
	})
	return out
}

func summarizeByType(rows []OutlookRow) []TypeSummary {
	totals := make(map[string]*TypeSummary)
	owners := make(map[string]map[string]struct{})
	for _, r := range rows {
		s := totals[r.DealType]
		if s == nil {
			s = &TypeSummary{DealType: r.DealType}
			totals[r.DealType] = s
			owners[r.DealType] = make(map[string]struct{})
		}
		s.Deals++
		s.AmountTotal += r.Amount
		owners[r.DealType][r.Owner] = struct{}{}
	}

	out := make([]TypeSummary, 0, len(totals))
	for dealType, s := range totals {
		s.Owners = len(owners[dealType])
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AmountTotal != out[j].AmountTotal {
			return out[i].AmountTotal > out[j].AmountTotal
		}
		return out[i].DealType < out[j].DealType
	})
	return out
}

func buildPivot(rows []OutlookRow) Pivot {
	ownerSet := make(map[string]struct{})
	typeSet := make(map[string]struct{})
	sums := make(map[string]map[string]float64)
	for _, r := range rows {
		ownerSet[r.Owner] = struct{}{}
		typeSet[r.DealType] = struct{}{}
		if sums[r.Owner] == nil {
			sums[r.Owner] = make(map[string]float64)
		}
		sums[r.Owner][r.DealType] += r.Amount
	}

	p := Pivot{
		Owners: append(sortedKeys(ownerSet), "合計"),
		Types:  append(sortedKeys(typeSet), "合計"),
	}
	colTotals := make([]float64, len(p.Types))
	for _, owner := range p.Owners[:len(p.Owners)-1] {
		row := make([]float64, len(p.Types))
		var rowTotal float64
		for j, dealType := range p.Types[:len(p.Types)-1] {
			v := sums[owner][dealType]
			row[j] = v
			rowTotal += v
			colTotals[j] += v
		}
		row[len(row)-1] = rowTotal
		colTotals[len(colTotals)-1] += rowTotal
		p.Sums = append(p.Sums, row)
	}
	p.Sums = append(p.Sums, colTotals)
	return p
}

func scheduleNote(d models.ResolvedDeal) string {
	var parts []string
	if d.TargetCloseDate != nil {
		parts = append(parts, "受注目標: "+d.TargetCloseDate.Format("2006-01-02"))
	}
	if d.DeliveryDate != nil {
		parts = append(parts, "納品予定: "+d.DeliveryDate.Format("2006-01-02"))
	}
	return strings.Join(parts, " / ")
}

func displayName(name *string) string {
	if name == nil || *name == "" {
		return unassigned
	}
	return *name
}

func displayType(dealType string) string {
	if dealType == "" {
		return unassigned
	}
	return dealType
}

func amountOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func sumAmounts(rows []OutlookRow) float64 {
	var total float64
	for _, r := range rows {
		total += r.Amount
	}
	return total
}
