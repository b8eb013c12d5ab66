package reconcile

import (
	"regexp"
	"strconv"
	"time"

	"kvitto/internal/domain"
)

// ambiguousDateRe matches numeric dates whose day/month order is unknown.
var ambiguousDateRe = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})$`)

var euCountries = map[string]bool{
	"AT": true, "BE": true, "BG": true, "HR": true, "CY": true, "CZ": true,
	"DK": true, "EE": true, "FI": true, "FR": true, "DE": true, "GR": true,
	"HU": true, "IE": true, "IT": true, "LV": true, "LT": true, "LU": true,
	"MT": true, "NL": true, "PL": true, "PT": true, "RO": true, "SK": true,
	"SI": true, "ES": true, "SE": true,
}

// resolveDate disambiguates a numeric raw date and rewrites PurchaseDate when
// the chosen interpretation differs from the extractor's normalization.
// Returns the empty resolution when the raw date does not need disambiguation.
func resolveDate(r *domain.DraftReceipt, now time.Time) domain.DateResolution {
	m := ambiguousDateRe.FindStringSubmatch(r.RawDate)
	if m == nil {
		return ""
	}

	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 100 {
		year += 2000
	}

	dayFirst, dfOK := buildDate(year, second, first)
	monthFirst, mfOK := buildDate(year, first, second)

	var chosen time.Time
	var resolution domain.DateResolution

	switch {
	case first > 12 && dfOK:
		chosen, resolution = dayFirst, domain.DateResolvedByDayGt12
	case second > 12 && mfOK:
		chosen, resolution = monthFirst, domain.DateResolvedByMonthGt12
	case !dfOK && mfOK:
		chosen, resolution = monthFirst, domain.DateResolvedByMonthGt12
	case dfOK && !mfOK:
		chosen, resolution = dayFirst, domain.DateResolvedByDayGt12
	case euCountry(r) && dfOK:
		chosen, resolution = dayFirst, domain.DateResolvedByCountryEU
	case usCountry(r) && mfOK:
		chosen, resolution = monthFirst, domain.DateResolvedByCountryUS
	default:
		dfPlausible := dfOK && plausible(dayFirst, now)
		mfPlausible := mfOK && plausible(monthFirst, now)
		switch {
		case dfPlausible && !mfPlausible:
			chosen, resolution = dayFirst, domain.DateResolvedByPlausibility
		case mfPlausible && !dfPlausible:
			chosen, resolution = monthFirst, domain.DateResolvedByPlausibility
		default:
			return domain.DateUnresolved
		}
	}

	normalized := chosen.Format("2006-01-02")
	if r.PurchaseDate != normalized {
		r.PurchaseDate = normalized
	}
	return resolution
}

// buildDate validates the components by round-tripping through time.Date.
func buildDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// plausible reports whether a purchase date is at most 7 days in the future
// and at most 2 years in the past.
func plausible(t, now time.Time) bool {
	return !t.After(now.AddDate(0, 0, 7)) && !t.Before(now.AddDate(-2, 0, 0))
}

func euCountry(r *domain.DraftReceipt) bool {
	return euCountries[r.Country] || r.Currency == "EUR"
}

func usCountry(r *domain.DraftReceipt) bool {
	return r.Country == "US" || r.Currency == "USD"
}
