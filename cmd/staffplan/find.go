package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/staffplan/api"
	"github.com/warp/staffplan/matching"
	"github.com/warp/staffplan/position"
)

func (a *app) findCmd() *cobra.Command {
	var (
		grade      string
		from, to   string
		percent    int
		orgUnit    string
		categories []string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Rank positions for an employee profile",
		Example: `  staffplan find --grade E13 --from 2025-01-01 --to 2025-12-31
  staffplan find --grade "E 14 TV-L" --from 2025-04-01 --to 2026-03-31 --percent 50 --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := matching.Request{
				EmployeeGrade:       grade,
				OrganizationScope:   orgUnit,
				RelevanceCategories: categories,
			}
			var err error
			if req.StartDate, err = optionalDate(from); err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			if req.EndDate, err = optionalDate(to); err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			if cmd.Flags().Changed("percent") {
				req.FillPercentage = &percent
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			finder := matching.NewFinder(store, store, matching.WithLogger(a.log))
			resp, err := finder.FindPositions(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(api.NewSearchResponse(resp))
			}
			return printSearch(out, resp)
		},
	}

	f := cmd.Flags()
	f.StringVar(&grade, "grade", "", "employee grade, e.g. E13")
	f.StringVar(&from, "from", "", "start date YYYY-MM-DD")
	f.StringVar(&to, "to", "", "end date YYYY-MM-DD")
	f.IntVar(&percent, "percent", matching.DefaultFillPercentage, "employment percentage 1-100")
	f.StringVar(&orgUnit, "org-unit", "", "only positions of this org unit")
	f.StringSliceVar(&categories, "category", nil, "only these relevance categories")
	f.BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func optionalDate(s string) (*position.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := position.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func printSearch(out io.Writer, resp *matching.Response) error {
	fmt.Fprintf(out, "Employee %s at %d%%: %s per month\n\n",
		resp.EmployeeGrade, resp.FillPercentage, resp.EmployeeMonthlyCost.StringFixed(2))

	if len(resp.Matches) == 0 && len(resp.SplitSuggestions) == 0 {
		fmt.Fprintln(out, "No matching positions.")
		return nil
	}

	if len(resp.Matches) > 0 {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			headerStyle.Render("#"),
			headerStyle.Render("POSITION"),
			headerStyle.Render("GRADE"),
			headerStyle.Render("FREE %"),
			headerStyle.Render("SCORE"),
			headerStyle.Render("QUALITY"),
			headerStyle.Render("WASTE"),
			headerStyle.Render("WARNINGS"))
		for i, m := range resp.Matches {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.2f\t%s\t%s\t%s\n",
				i+1, m.PositionID, m.PositionGrade, m.AvailablePercentage.String(),
				m.OverallScore, m.MatchQuality, m.WasteAmount.StringFixed(2),
				strings.Join(m.Warnings, "; "))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	for i, s := range resp.SplitSuggestions {
		ids := make([]string, len(s.Positions))
		for j, p := range s.Positions {
			ids[j] = fmt.Sprintf("%s (%s%%)", p.PositionID, p.AvailablePercentage.String())
		}
		fmt.Fprintf(out, "Split %d: %s, total %s%%, waste %s\n",
			i+1, strings.Join(ids, " + "), s.TotalAvailablePercentage.String(), s.TotalWasteAmount.StringFixed(2))
	}
	return nil
}
