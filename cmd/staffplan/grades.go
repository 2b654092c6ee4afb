package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/warp/staffplan/gradeseed"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

func (a *app) gradesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grades",
		Short: "Manage the pay-grade table",
	}
	cmd.AddCommand(a.gradesSeedCmd(), a.gradesListCmd())
	return cmd
}

func (a *app) gradesSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create or update grades from a YAML table",
		Long: `Applies a YAML grade table. Existing codes are updated in place, new
codes are created. Without --file the built-in TV-L/A/W table is used.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := gradeseed.Default()
			if file != "" {
				table, err = gradeseed.LoadFile(file)
			}
			if err != nil {
				return err
			}
			values, err := table.GradeValues()
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := gradeseed.Apply(cmd.Context(), store, values, a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d grades, updated %d\n", res.Created, res.Updated)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML grade table (default: built-in table)")
	return cmd
}

func (a *app) gradesListCmd() *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the grade table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			grades, err := store.ListGradeValues(cmd.Context(), activeOnly)
			if err != nil {
				return err
			}
			inUse, err := store.GradesInUse(cmd.Context())
			if err != nil {
				return err
			}
			used := make(map[string]bool, len(inUse))
			for _, c := range inUse {
				used[c] = true
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				headerStyle.Render("CODE"),
				headerStyle.Render("TYPE"),
				headerStyle.Render("MONTHLY"),
				headerStyle.Render("ACTIVE"),
				headerStyle.Render("IN USE"))
			for _, g := range grades {
				monthly := "-"
				if g.MonthlyValue.Valid {
					monthly = g.MonthlyValue.Decimal.StringFixed(2)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\n", g.GradeCode, g.GradeType, monthly, g.Active, used[g.GradeCode])
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active-only", false, "hide inactive grades")
	return cmd
}
