package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/daohuymanh/bio-data-analysis/internal/calculator"
	"github.com/daohuymanh/bio-data-analysis/internal/exporter"
	"github.com/daohuymanh/bio-data-analysis/internal/model"
	"github.com/daohuymanh/bio-data-analysis/internal/parser"
)

// extraction 一个数据源的抽取结果
type extraction struct {
	records []model.Record // 落库的记录（cases 为汇总后的记录）
	table   *model.Table
}

func (c *Coordinator) extract(ctx context.Context, ic *importContext) (*extraction, error) {
	switch ic.opts.Kind {
	case model.SourceGSTX:
		return c.extractGSTX(ctx, ic)
	case model.SourceDMOSS:
		return c.extractDMOSS(ctx, ic)
	case model.SourceCases:
		return c.extractCases(ctx, ic)
	}
	return nil, fmt.Errorf("unsupported source kind %q", ic.opts.Kind)
}

func (c *Coordinator) sheetNames(ic *importContext) ([]string, error) {
	sheets, err := exporter.SheetNames(ic.opts.FilePath)
	if err != nil {
		return nil, err
	}
	ic.send(EventInfo, fmt.Sprintf("found %d sheets", len(sheets)), map[string]interface{}{
		"total_sheets": len(sheets),
	})
	return sheets, nil
}

// skipSheet 记录跳过的 sheet（不是错误）
func (c *Coordinator) skipSheet(ic *importContext, rec parser.SheetRecognitionResult, started time.Time) {
	c.recordSheetResult(ic, parser.ParseResult{
		SheetName: rec.SheetName,
		SheetType: rec.SheetType,
		Status:    parser.StatusSkipped,
		Errors:    []string{rec.Reason},
		Duration:  time.Since(started),
	})
	ic.send(EventInfo, fmt.Sprintf("skip sheet %q: %s", rec.SheetName, rec.Reason), map[string]interface{}{
		"sheet_name": rec.SheetName,
		"sheet_type": rec.SheetType,
		"reason":     rec.Reason,
	})
}

// failSheet 记录读取失败的 sheet，继续处理其他 sheet
func (c *Coordinator) failSheet(ic *importContext, sheet string, typ parser.SheetType, err error, started time.Time) {
	c.recordSheetResult(ic, parser.ParseResult{
		SheetName: sheet,
		SheetType: typ,
		Status:    parser.StatusError,
		Errors:    []string{err.Error()},
		Duration:  time.Since(started),
	})
	ic.warn(fmt.Sprintf("skip sheet %q: %v", sheet, err))
}

// doneSheet 记录成功抽取的 sheet
func (c *Coordinator) doneSheet(ic *importContext, sheet string, typ parser.SheetType, res parser.ExtractResult, started time.Time) {
	ic.coerced = append(ic.coerced, res.Coerced...)
	c.recordSheetResult(ic, parser.ParseResult{
		SheetName:    sheet,
		SheetType:    typ,
		Status:       parser.StatusImported,
		ImportedRows: len(res.Records),
		CoercedCells: len(res.Coerced),
		Duration:     time.Since(started),
	})
	for _, w := range res.Warnings {
		ic.warn(w)
	}
	ic.send(EventSheetDone, fmt.Sprintf("sheet %q: %d rows", sheet, len(res.Records)), map[string]interface{}{
		"sheet_name":    sheet,
		"imported_rows": len(res.Records),
		"coerced_cells": len(res.Coerced),
	})
}

// extractGSTX 每个月度 sheet 按 TC 标记行抽取区县汇总行
func (c *Coordinator) extractGSTX(ctx context.Context, ic *importContext) (*extraction, error) {
	sheets, err := c.sheetNames(ic)
	if err != nil {
		return nil, err
	}

	opts := c.cfg.GSTXOptions()
	opts.Province = ic.opts.Province
	if strings.TrimSpace(opts.Province) == "" {
		opts.Province = parser.ProvinceFromFilename(ic.filename)
	}
	opts.Year = c.year(ic)
	gstx := parser.NewGSTXParser(opts)

	lo, hi := c.monthBounds(ic.opts)
	recognizer := parser.NewSheetRecognizer(model.SourceGSTX, lo, hi)

	ic.send(EventInfo, fmt.Sprintf("province %s, months %d-%d", parser.MustNormalizeKey(opts.Province), lo, hi), map[string]interface{}{
		"province": parser.MustNormalizeKey(opts.Province),
		"year":     opts.Year,
	})

	var records []model.Record
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		started := time.Now()
		ic.send(EventSheetStart, fmt.Sprintf("parsing sheet %q", sheet), map[string]string{"sheet_name": sheet})

		rec := recognizer.Recognize(sheet)
		if !rec.Importable() {
			c.skipSheet(ic, rec, started)
			continue
		}

		g, err := exporter.LoadGrid(ic.opts.FilePath, sheet, exporter.LoadOptions{})
		if err != nil {
			c.failSheet(ic, sheet, rec.SheetType, err, started)
			continue
		}
		res := gstx.ParseGrid(sheet, rec.Month, g)
		records = append(records, res.Records...)
		c.doneSheet(ic, sheet, rec.SheetType, res, started)
	}

	return &extraction{
		records: records,
		table:   model.LegacySchema.Table(records, true),
	}, nil
}

// extractDMOSS 每个 sheet 一个省，按固定偏移读取 12 个月
func (c *Coordinator) extractDMOSS(ctx context.Context, ic *importContext) (*extraction, error) {
	sheets, err := c.sheetNames(ic)
	if err != nil {
		return nil, err
	}

	opts := c.cfg.DMOSSOptions()
	opts.Year = c.year(ic)
	dmoss := parser.NewDMOSSParser(opts)

	lo, hi := c.monthBounds(ic.opts)
	recognizer := parser.NewSheetRecognizer(model.SourceDMOSS, lo, hi)

	var records []model.Record
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		started := time.Now()
		ic.send(EventSheetStart, fmt.Sprintf("parsing sheet %q", sheet), map[string]string{"sheet_name": sheet})

		rec := recognizer.Recognize(sheet)
		if !rec.Importable() {
			c.skipSheet(ic, rec, started)
			continue
		}

		g, err := exporter.LoadGrid(ic.opts.FilePath, sheet, exporter.LoadOptions{})
		if err != nil {
			c.failSheet(ic, sheet, rec.SheetType, err, started)
			continue
		}
		res := dmoss.ParseGrid(sheet, g)
		res.Records = filterMonths(res.Records, recognizer)
		records = append(records, res.Records...)
		c.doneSheet(ic, sheet, rec.SheetType, res, started)
	}

	return &extraction{
		records: records,
		table:   model.CanonicalSchema.Table(records, true),
	}, nil
}

// filterMonths 只保留导入月份范围内的记录
func filterMonths(records []model.Record, r *parser.SheetRecognizer) []model.Record {
	out := records[:0:0]
	for _, rec := range records {
		if rec.Month != nil && !r.InRange(*rec.Month) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// extractCases 逐例表：定位列、逐行判定血清型，再按省/区县/年/月汇总
func (c *Coordinator) extractCases(ctx context.Context, ic *importContext) (*extraction, error) {
	started := time.Now()
	sheet := ic.opts.Sheet
	ic.send(EventSheetStart, fmt.Sprintf("reading case table %q", sheet), map[string]string{"sheet_name": sheet})

	t, err := exporter.LoadTable(ic.opts.FilePath, sheet)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := c.caseOptions(ic.opts.Cases)
	opts.Year = c.year(ic)
	res, err := parser.NewCaseParser(opts).ParseTable(t)
	if err != nil {
		if errors.Is(err, parser.ErrColumnNotFound) {
			return nil, parser.NewSourceError(parser.StageResolve, ic.filename, sheet, err)
		}
		return nil, err
	}

	grouped := calculator.Aggregate(res.Records)
	name := sheet
	if name == "" {
		name = "cases"
	}
	c.doneSheet(ic, name, parser.SheetTypeCases, res, started)
	ic.send(EventInfo, fmt.Sprintf("aggregated %d cases into %d rows", len(res.Records), len(grouped.Records)), map[string]interface{}{
		"cases":      len(res.Records),
		"groups":     len(grouped.Records),
		"byDistrict": grouped.ByDistrict,
	})

	return &extraction{
		records: grouped.Records,
		table:   grouped.Table(model.LegacySchema),
	}, nil
}

// caseOptions 配置中的列定位，被导入选项中的非空项覆盖
func (c *Coordinator) caseOptions(cols CaseColumns) parser.CaseOptions {
	opts := c.cfg.CaseOptions()
	if s := strings.TrimSpace(cols.Province); s != "" {
		opts.Province = parser.ParseColumnToken(s)
	}
	if s := strings.TrimSpace(cols.District); s != "" {
		opts.District = parser.ParseColumnToken(s)
	}
	if s := strings.TrimSpace(cols.Month); s != "" {
		opts.Month = parser.ParseColumnToken(s)
	}
	if len(cols.Results) > 0 {
		opts.Results = parser.ParseColumnTokens(cols.Results)
	}
	return opts
}
