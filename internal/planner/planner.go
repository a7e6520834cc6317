package planner

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/tanq16/bfsp/internal/downloader"
)

type RaceType string

const (
	Horse     RaceType = "h"
	Greyhound RaceType = "g"
)

type Market string

const (
	Win   Market = "w"
	Place Market = "p"
)

const dateLayout = "02/01/2006"

// EarliestDate is the first day the archive carries files for.
var EarliestDate = time.Date(2008, 9, 2, 0, 0, 0, 0, time.UTC)

var Countries = map[string]string{
	"aus": "Australia",
	"rsa": "South Africa",
	"fr":  "France",
	"usa": "United States of America",
	"uk":  "United Kingdom",
	"ire": "Ireland",
	"uae": "United Arab Emirates",
}

func CountryCodes() []string {
	codes := make([]string, 0, len(Countries))
	for code := range Countries {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

type Params struct {
	Country string
	Race    RaceType
	Market  Market
	Start   time.Time
	End     time.Time
}

// Validate checks the parameters against the archive's coverage. now is
// taken as a parameter so "future" is well defined in tests.
func (p Params) Validate(now time.Time) error {
	var errs []error
	switch p.Race {
	case Horse:
		if p.Country == "" {
			errs = append(errs, errors.New("country is required for horse racing"))
		} else if _, ok := Countries[p.Country]; !ok {
			errs = append(errs, fmt.Errorf("invalid country code %q, choose from: %s", p.Country, strings.Join(CountryCodes(), ", ")))
		}
	case Greyhound:
	default:
		errs = append(errs, fmt.Errorf("invalid race type %q, use 'h' or 'g'", p.Race))
	}
	if p.Market != Win && p.Market != Place {
		errs = append(errs, fmt.Errorf("invalid market %q, use 'w' or 'p'", p.Market))
	}
	today := truncateDay(now)
	earliest := time.Date(EarliestDate.Year(), EarliestDate.Month(), EarliestDate.Day(), 0, 0, 0, 0, p.Start.Location())
	if p.Start.Before(earliest) {
		errs = append(errs, fmt.Errorf("start date must be on or after %s", EarliestDate.Format(dateLayout)))
	}
	if p.Start.After(today) {
		errs = append(errs, errors.New("start date cannot be in the future"))
	}
	if p.End.After(today) {
		errs = append(errs, errors.New("end date cannot be in the future"))
	}
	if p.End.Before(p.Start) {
		errs = append(errs, fmt.Errorf("end date must be on or after start date (%s)", p.Start.Format(dateLayout)))
	}
	return errors.Join(errs...)
}

// Days is the inclusive number of days in the range.
func (p Params) Days() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return int(math.Round(truncateDay(p.End).Sub(truncateDay(p.Start)).Hours()/24)) + 1
}

// Filename returns the archive file for one day, or "" when the combination
// has no file (horse racing without a country).
func Filename(race RaceType, market Market, date time.Time, country string) string {
	d := date.Format("02012006")
	switch race {
	case Greyhound:
		switch market {
		case Win:
			return fmt.Sprintf("dwbfgreyhoundwin%s.csv", d)
		case Place:
			return fmt.Sprintf("dwbfgreyhoundplace%s.csv", d)
		}
	case Horse:
		if country == "" {
			return ""
		}
		switch market {
		case Place:
			// French place markets are published as "placed".
			if country == "fr" {
				return fmt.Sprintf("dwbfpricesfrplaced%s.csv", d)
			}
			return fmt.Sprintf("dwbfprices%splace%s.csv", country, d)
		case Win:
			return fmt.Sprintf("dwbfprices%swin%s.csv", country, d)
		}
	}
	return ""
}

// Plan returns one request per day of the range, in date order.
func Plan(p Params, destDir string) []downloader.Request {
	var reqs []downloader.Request
	for day := truncateDay(p.Start); !day.After(truncateDay(p.End)); day = day.AddDate(0, 0, 1) {
		reqs = append(reqs, downloader.NewRequest(Filename(p.Race, p.Market, day, p.Country), day, destDir))
	}
	return reqs
}

func DirName(p Params) string {
	country := p.Country
	if country == "" || p.Race == Greyhound {
		country = "all"
	}
	race := "horse"
	if p.Race == Greyhound {
		race = "greyhound"
	}
	market := "place"
	if p.Market == Win {
		market = "win"
	}
	return fmt.Sprintf("%s_%s_%s_%s_%s", country, race, market, p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly))
}

// ParseDate accepts DD/MM/YYYY or one of "today", "yesterday", "now".
func ParseDate(value string, now time.Time) (time.Time, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "today", "now":
		return truncateDay(now), nil
	case "yesterday":
		return truncateDay(now).AddDate(0, 0, -1), nil
	}
	t, err := time.ParseInLocation(dateLayout, value, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use DD/MM/YYYY, 'today' or 'yesterday'", value)
	}
	return t, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
