package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/daohuymanh/bio-data-analysis/internal/calculator"
	"github.com/daohuymanh/bio-data-analysis/internal/exporter"
	"github.com/daohuymanh/bio-data-analysis/internal/importer"
	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

func newGSTXCmd() *cobra.Command {
	opts := importer.ImportOptions{Kind: model.SourceGSTX}
	cmd := &cobra.Command{
		Use:   "gstx <file>",
		Short: "Extract district totals from a provincial GSTX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.FilePath = args[0]
			return runSingle(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.Output, "out", "", "output file (.xlsx or .csv)")
	f.StringVar(&opts.Province, "province", "", "province name (default: from the file name)")
	f.IntVar(&opts.Year, "year", 0, "year (default: from the file name)")
	f.IntVar(&opts.MonthMin, "month-min", 0, "first month to import")
	f.IntVar(&opts.MonthMax, "month-max", 0, "last month to import")
	f.BoolVar(&opts.AppendToExisting, "append", false, "merge into the existing output file")
	f.BoolVar(&opts.Persist, "persist", false, "store the result in the database")
	return cmd
}

func newCasesCmd() *cobra.Command {
	opts := importer.ImportOptions{Kind: model.SourceCases}
	cmd := &cobra.Command{
		Use:   "cases <file>",
		Short: "Aggregate a per-case sample table into serotype counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.FilePath = args[0]
			return runSingle(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.Output, "out", "", "output file (.xlsx or .csv)")
	f.StringVar(&opts.Sheet, "sheet", "", "sheet to read (default: first)")
	f.IntVar(&opts.Year, "year", 0, "year (default: from the file name)")
	f.StringVar(&opts.Cases.Province, "province-col", "", "province column: 0-based index or name")
	f.StringVar(&opts.Cases.District, "district-col", "", "district column: 0-based index or name")
	f.StringVar(&opts.Cases.Month, "month-col", "", "sample date column: 0-based index or name")
	f.StringSliceVar(&opts.Cases.Results, "result-cols", nil, "comma-separated result columns (indexes or names)")
	f.BoolVar(&opts.AppendToExisting, "append", false, "merge into the existing output file")
	f.BoolVar(&opts.Persist, "persist", false, "store the result in the database")
	return cmd
}

func runSingle(ctx context.Context, opts importer.ImportOptions) error {
	if opts.Output == "" && !opts.Persist {
		return fmt.Errorf("nothing to do: set --out or --persist")
	}
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	coordinator, cleanup, err := newCoordinator(cfg, opts.Persist)
	if err != nil {
		return err
	}
	defer cleanup()

	name := filepath.Base(opts.FilePath)
	summary, err := coordinator.Run(ctx, opts, printProgress)
	if err != nil {
		fmt.Printf("%s: skipped (%v)\n", name, err)
		return err
	}
	printSummary(name, summary)
	return nil
}

func newDMOSSCmd() *cobra.Command {
	var (
		glob    string
		base    string
		out     string
		year    int
		lo, hi  int
		workers int
		persist bool
	)
	cmd := &cobra.Command{
		Use:   "dmoss [files...]",
		Short: "Extract monthly serotype counts from DMOSS matrix workbooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			files := append([]string(nil), args...)
			if glob != "" {
				matches, err := filepath.Glob(glob)
				if err != nil {
					return fmt.Errorf("invalid glob %q: %w", glob, err)
				}
				sort.Strings(matches)
				files = append(files, matches...)
			}
			if len(files) == 0 {
				return fmt.Errorf("no DMOSS files given")
			}
			if out == "" && !persist {
				return fmt.Errorf("nothing to do: set --out or --persist")
			}

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			coordinator, cleanup, err := newCoordinator(cfg, persist)
			if err != nil {
				return err
			}
			defer cleanup()

			sources := make([]importer.ImportOptions, len(files))
			for i, file := range files {
				sources[i] = importer.ImportOptions{
					Kind:     model.SourceDMOSS,
					FilePath: file,
					Year:     year,
					MonthMin: lo,
					MonthMax: hi,
					Persist:  persist,
				}
			}
			res, err := coordinator.ImportBatch(cmd.Context(), sources, workers)
			if err != nil {
				return err
			}
			for _, o := range res.Outcomes {
				fmt.Println(o.String())
			}
			if out == "" {
				return nil
			}

			table := res.Table
			if base != "" {
				baseTable, err := loadBase(base)
				if err != nil {
					return err
				}
				table = calculator.Merge(baseTable, table)
			}
			if err := exporter.SaveTable(table, out); err != nil {
				return err
			}
			fmt.Printf("wrote %d rows to %s\n", table.Len(), out)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&glob, "glob", "", "glob pattern selecting DMOSS workbooks")
	f.StringVar(&base, "base", "", "existing EDENGUE table to append to")
	f.StringVar(&out, "out", "", "output file (.xlsx or .csv)")
	f.IntVar(&year, "year", 0, "year (default: from each file name)")
	f.IntVar(&lo, "month-min", 0, "first month to keep")
	f.IntVar(&hi, "month-max", 0, "last month to keep")
	f.IntVar(&workers, "workers", 0, "concurrent sources (default: from config)")
	f.BoolVar(&persist, "persist", false, "store the result in the database")
	return cmd
}

// loadBase 读取已有的 EDENGUE 表；文件不存在时视为只有规范列的空表
func loadBase(path string) (*model.Table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.WithField("path", path).Info("base table not found, starting empty")
		return model.NewTable(model.CanonicalSchema.Columns(true)...), nil
	}
	return exporter.LoadTable(path, "")
}
