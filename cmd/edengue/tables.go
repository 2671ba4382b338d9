package main

import (
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/daohuymanh/bio-data-analysis/internal/calculator"
	"github.com/daohuymanh/bio-data-analysis/internal/exporter"
	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

func newMergeCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "merge <base> <new...>",
		Short: "Append tables to a base table (column union, no deduplication)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := loadConfig(); err != nil {
				return err
			}
			merged, err := exporter.LoadTable(args[0], "")
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d rows\n", filepath.Base(args[0]), merged.Len())

			for _, path := range args[1:] {
				t, err := exporter.LoadTable(path, "")
				if err != nil {
					fmt.Printf("%s: skipped (%v)\n", filepath.Base(path), err)
					continue
				}
				merged = calculator.Merge(merged, t)
				fmt.Printf("%s: %d rows\n", filepath.Base(path), t.Len())
			}
			return save(merged, out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file (.xlsx or .csv)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newConvertCmd() *cobra.Command {
	var opts exporter.ConvertOptions
	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a workbook to diacritic-free CSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := loadConfig(); err != nil {
				return err
			}
			opts.Progress = func(p exporter.ProgressEvent) {
				log.WithField("percent", p.Percent).Debug(p.Stage)
			}
			res, err := exporter.ConvertWorkbook(args[0], args[1], opts)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				fmt.Println("  " + w)
			}
			for _, f := range res.Files {
				fmt.Println("wrote " + f)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.Sheet, "sheet", "", "sheet to convert (default: first)")
	f.BoolVar(&opts.AllSheets, "all-sheets", false, "write one CSV per sheet into the output directory")
	f.BoolVar(&opts.NoHeader, "no-header", false, "treat every row as data (columns COL1..n)")
	return cmd
}

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the merged table of all stored imports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			table, err := st.LoadMergedTable()
			if err != nil {
				return err
			}
			return save(table, out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file (.xlsx or .csv)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func save(t *model.Table, out string) error {
	if err := exporter.SaveTable(t, out); err != nil {
		return err
	}
	fmt.Printf("wrote %d rows to %s\n", t.Len(), out)
	return nil
}
