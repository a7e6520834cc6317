package planner

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFilename(t *testing.T) {
	day := date(2023, time.March, 15)
	tests := []struct {
		name    string
		race    RaceType
		market  Market
		country string
		want    string
	}{
		{"greyhound win", Greyhound, Win, "", "dwbfgreyhoundwin15032023.csv"},
		{"greyhound place ignores country", Greyhound, Place, "uk", "dwbfgreyhoundplace15032023.csv"},
		{"horse win", Horse, Win, "ire", "dwbfpricesirewin15032023.csv"},
		{"horse place", Horse, Place, "uk", "dwbfpricesukplace15032023.csv"},
		{"france place", Horse, Place, "fr", "dwbfpricesfrplaced15032023.csv"},
		{"france win", Horse, Win, "fr", "dwbfpricesfrwin15032023.csv"},
		{"horse without country", Horse, Win, "", ""},
		{"unknown race", RaceType("x"), Win, "uk", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.race, tt.market, day, tt.country))
		})
	}
}

func TestPlan(t *testing.T) {
	p := Params{Country: "aus", Race: Horse, Market: Win, Start: date(2024, time.February, 28), End: date(2024, time.March, 1)}
	reqs := Plan(p, "out")

	require.Len(t, reqs, 3)
	assert.Equal(t, 3, p.Days())
	want := []string{"dwbfpricesauswin28022024.csv", "dwbfpricesauswin29022024.csv", "dwbfpricesauswin01032024.csv"}
	for i, req := range reqs {
		assert.Equal(t, want[i], req.ResourceID)
		assert.Equal(t, filepath.Join("out", want[i]), req.DestinationPath)
		assert.Equal(t, p.Start.AddDate(0, 0, i), req.Date)
		assert.NotEmpty(t, req.ID)
	}
	assert.NotEqual(t, reqs[0].ID, reqs[1].ID)
}

func TestPlanSingleDay(t *testing.T) {
	day := date(2020, time.January, 5)
	reqs := Plan(Params{Race: Greyhound, Market: Place, Start: day, End: day}, "d")
	require.Len(t, reqs, 1)
	assert.Equal(t, "dwbfgreyhoundplace05012020.csv", reqs[0].ResourceID)
}

func TestValidate(t *testing.T) {
	now := date(2024, time.June, 10).Add(15 * time.Hour)
	valid := Params{Country: "uk", Race: Horse, Market: Place, Start: date(2024, time.June, 1), End: date(2024, time.June, 10)}
	require.NoError(t, valid.Validate(now))

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"missing country", func(p *Params) { p.Country = "" }},
		{"unknown country", func(p *Params) { p.Country = "nz" }},
		{"bad race", func(p *Params) { p.Race = "x" }},
		{"bad market", func(p *Params) { p.Market = "e" }},
		{"too early", func(p *Params) { p.Start = date(2008, time.September, 1) }},
		{"future start", func(p *Params) { p.Start = date(2024, time.June, 11); p.End = p.Start }},
		{"future end", func(p *Params) { p.End = date(2024, time.June, 11) }},
		{"end before start", func(p *Params) { p.End = date(2024, time.May, 31) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.Error(t, p.Validate(now))
		})
	}

	greyhound := Params{Race: Greyhound, Market: Win, Start: EarliestDate, End: EarliestDate}
	assert.NoError(t, greyhound.Validate(now))
}

func TestDirName(t *testing.T) {
	start, end := date(2023, time.January, 1), date(2023, time.January, 31)
	assert.Equal(t, "uk_horse_win_2023-01-01_2023-01-31", DirName(Params{Country: "uk", Race: Horse, Market: Win, Start: start, End: end}))
	assert.Equal(t, "all_greyhound_place_2023-01-01_2023-01-31", DirName(Params{Race: Greyhound, Market: Place, Start: start, End: end}))
}

func TestParseDate(t *testing.T) {
	now := time.Date(2024, time.June, 10, 18, 30, 0, 0, time.UTC)

	got, err := ParseDate("15/03/2023", now)
	require.NoError(t, err)
	assert.Equal(t, date(2023, time.March, 15), got)

	got, err = ParseDate(" Today ", now)
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.June, 10), got)

	got, err = ParseDate("yesterday", now)
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.June, 9), got)

	got, err = ParseDate("now", now)
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.June, 10), got)

	_, err = ParseDate("2023-03-15", now)
	assert.Error(t, err)
	_, err = ParseDate("31/02/2023", now)
	assert.Error(t, err)
}

func TestCountryCodes(t *testing.T) {
	assert.Equal(t, []string{"aus", "fr", "ire", "rsa", "uae", "uk", "usa"}, CountryCodes())
}
