package service

import "time"

// FiscalStartMonth is when the fiscal year begins.
const FiscalStartMonth = time.April

// FiscalDates are the date-range presets the dashboard sidebar offers.
type FiscalDates struct {
	YearStart time.Time `json:"year_start"`
	YearEnd   time.Time `json:"year_end"`
	HalfStart time.Time `json:"half_start"`
	HalfEnd   time.Time `json:"half_end"`
}

// FiscalRanges computes the current fiscal year (April to March) and
// the current half (H1 April-September, H2 October-March) for a given
// day. time.Date normalizes month overflow, so the year-boundary cases
// fall out of plain arithmetic.
func FiscalRanges(today time.Time) FiscalDates {
	year := today.Year()
	if today.Month() < FiscalStartMonth {
		year--
	}

	yearStart := time.Date(year, FiscalStartMonth, 1, 0, 0, 0, 0, today.Location())
	yearEnd := yearStart.AddDate(1, 0, -1)

	halfStart := yearStart
	if today.Month() >= time.October || today.Month() < FiscalStartMonth {
		halfStart = time.Date(year, time.October, 1, 0, 0, 0, 0, today.Location())
	}
	halfEnd := halfStart.AddDate(0, 6, -1)

	return FiscalDates{
		YearStart: yearStart,
		YearEnd:   yearEnd,
		HalfStart: halfStart,
		HalfEnd:   halfEnd,
	}
}
