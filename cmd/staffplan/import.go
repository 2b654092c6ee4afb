package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/warp/staffplan/importer"
)

func (a *app) importCmd() *cobra.Command {
	var (
		file    string
		orgUnit string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace an org unit's positions with a CSV or XLSX export",
		Example: `  staffplan import --file stellenplan.csv --org-unit chair-informatics
  staffplan import --file plan.xlsx --org-unit chair-mathematics --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := importer.FormatFromFilename(file)
			if err != nil {
				return err
			}
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()

			res, err := importer.New(a.log).Read(f, format, orgUnit)
			if err != nil {
				return err
			}
			if res.Imported == 0 {
				return errors.New("the file contains no importable rows")
			}

			replaced := 0
			if !dryRun {
				store, err := a.openStore()
				if err != nil {
					return err
				}
				defer store.Close()

				replaced, err = store.ReplacePositions(cmd.Context(), orgUnit, res.Positions)
				if err != nil {
					return fmt.Errorf("store positions: %w", err)
				}
			}

			a.log.WithFields(logrus.Fields{
				"file":     file,
				"org_unit": orgUnit,
				"dry_run":  dryRun,
			}).Info("import finished")
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows, skipped %d, replaced %d\n",
				res.Imported, res.Skipped, replaced)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CSV or XLSX file to import")
	cmd.Flags().StringVar(&orgUnit, "org-unit", "", "org unit the rows belong to (empty replaces unassigned rows)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse only, do not touch the database")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
