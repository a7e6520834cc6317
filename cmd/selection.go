package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tanq16/bfsp/internal/planner"
)

// selection holds the flags shared by commands that plan a date range.
type selection struct {
	country string
	race    string
	market  string
	start   string
	end     string
}

func (s *selection) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.country, "country", "", "Country code for horse racing (see 'bfsp countries')")
	cmd.Flags().StringVarP(&s.race, "race", "r", "h", "Race type: h (horse) or g (greyhound)")
	cmd.Flags().StringVarP(&s.market, "market", "m", "w", "Market: w (win) or p (place)")
	cmd.Flags().StringVarP(&s.start, "start", "s", "yesterday", "Start date (DD/MM/YYYY, today, yesterday)")
	cmd.Flags().StringVarP(&s.end, "end", "e", "", "End date (defaults to the start date)")
}

func (s *selection) params(now time.Time) (planner.Params, error) {
	start, err := planner.ParseDate(s.start, now)
	if err != nil {
		return planner.Params{}, err
	}
	end := start
	if s.end != "" {
		if end, err = planner.ParseDate(s.end, now); err != nil {
			return planner.Params{}, err
		}
	}
	p := planner.Params{
		Country: strings.ToLower(strings.TrimSpace(s.country)),
		Race:    planner.RaceType(strings.ToLower(s.race)),
		Market:  planner.Market(strings.ToLower(s.market)),
		Start:   start,
		End:     end,
	}
	if p.Race == planner.Greyhound {
		p.Country = ""
	}
	if err := p.Validate(now); err != nil {
		return p, fmt.Errorf("invalid selection: %w", err)
	}
	return p, nil
}
