package domain

import "time"

type Season string

const (
	SeasonSpring Season = "Spring"
	SeasonSummer Season = "Summer"
	SeasonFall   Season = "Fall"
	SeasonWinter Season = "Winter"
)

// SeasonFor classifies a calendar month. Mar-May is Spring, Jun-Aug Summer,
// Sep-Nov Fall and Dec-Feb Winter.
func SeasonFor(m time.Month) Season {
	switch {
	case m >= time.March && m <= time.May:
		return SeasonSpring
	case m >= time.June && m <= time.August:
		return SeasonSummer
	case m >= time.September && m <= time.November:
		return SeasonFall
	default:
		return SeasonWinter
	}
}

// SeasonAt is SeasonFor applied to t's month.
func SeasonAt(t time.Time) Season {
	return SeasonFor(t.Month())
}

// Icon is the Font Awesome icon the UI shows for the season.
func (s Season) Icon() string {
	switch s {
	case SeasonSpring:
		return "fa-seedling"
	case SeasonSummer:
		return "fa-sun"
	case SeasonFall:
		return "fa-leaf"
	default:
		return "fa-snowflake"
	}
}

// Theme is the body CSS class the UI applies for the season.
func (s Season) Theme() string {
	switch s {
	case SeasonSpring:
		return "theme-spring"
	case SeasonSummer:
		return "theme-summer"
	case SeasonFall:
		return "theme-fall"
	default:
		return "theme-winter"
	}
}
