package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/daohuymanh/bio-data-analysis/internal/calculator"
	"github.com/daohuymanh/bio-data-analysis/internal/config"
	"github.com/daohuymanh/bio-data-analysis/internal/exporter"
	"github.com/daohuymanh/bio-data-analysis/internal/model"
	"github.com/daohuymanh/bio-data-analysis/internal/parser"
	"github.com/daohuymanh/bio-data-analysis/internal/store"
)

// 进度事件类型
const (
	EventStart      = "start"
	EventInfo       = "info"
	EventSheetStart = "sheet_start"
	EventSheetDone  = "sheet_done"
	EventWarning    = "warning"
	EventError      = "error"
	EventDone       = "done"
)

// Coordinator 导入协调器
type Coordinator struct {
	store    *store.Store // 可为 nil：只抽取、不落库
	cfg      *config.AppConfig
	metrics  *Metrics
	validate *validator.Validate
}

// NewCoordinator 创建导入协调器；cfg 为 nil 时使用默认配置
func NewCoordinator(st *store.Store, cfg *config.AppConfig) *Coordinator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Coordinator{
		store:    st,
		cfg:      cfg,
		metrics:  NewMetrics(),
		validate: validator.New(),
	}
}

// Metrics 导入计数器
func (c *Coordinator) Metrics() *Metrics { return c.metrics }

// CaseColumns 逐例表列定位（位置数字或列名片段），空值沿用配置
type CaseColumns struct {
	Province string   `json:"province"`
	District string   `json:"district"`
	Month    string   `json:"month"`
	Results  []string `json:"results"`
}

// ImportOptions 导入选项（一个数据源文件）
type ImportOptions struct {
	Kind             model.SourceKind `validate:"required,oneof=gstx dmoss cases"`
	FilePath         string           `validate:"required"`
	OriginalFilename string           // 上传时的原始文件名，用于推断省份与年份
	Sheet            string           // cases：读取的 sheet，空为第一个
	Province         string           // gstx：省份，空则取自文件名
	Year             int              `validate:"omitempty,gte=1900,lte=2100"` // 0 则取自文件名
	MonthMin         int              `validate:"omitempty,gte=1,lte=12"`
	MonthMax         int              `validate:"omitempty,gte=1,lte=12"`
	Cases            CaseColumns
	Persist          bool   // 写入数据库
	Output           string `validate:"required_if=AppendToExisting true"` // 结果文件 (.xlsx / .csv)
	AppendToExisting bool   // 与已存在的结果文件合并
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/info/sheet_start/sheet_done/warning/error/done
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// ImportSummary 一个数据源的导入结果
type ImportSummary struct {
	RunID       string               `json:"runId"`
	ImportLogID int64                `json:"importLogId,omitempty"`
	Report      *parser.ImportReport `json:"report"`
	Rows        int                  `json:"rows"`
	Output      string               `json:"output,omitempty"`
	Warnings    []string             `json:"warnings,omitempty"`
	Table       *model.Table         `json:"-"`
}

// importContext 导入上下文
type importContext struct {
	opts     ImportOptions
	runID    string
	filename string
	start    time.Time
	report   *parser.ImportReport
	warnings []string
	coerced  []parser.CoercedCell
	metas    []model.SheetMeta
	emit     func(ProgressEvent)
	logger   *log.Entry
}

func (ic *importContext) send(typ, msg string, data interface{}) {
	if ic.emit == nil {
		return
	}
	ic.emit(ProgressEvent{Type: typ, Message: msg, Data: data, Timestamp: time.Now()})
}

func (ic *importContext) warn(msg string) {
	ic.warnings = append(ic.warnings, msg)
	ic.logger.Warn(msg)
	ic.send(EventWarning, msg, nil)
}

// Import 执行导入，返回进度通道；最后一个事件为 done 或 error
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		emit := func(evt ProgressEvent) { c.sendProgress(progressChan, evt) }

		summary, err := c.Run(ctx, opts, emit)
		if err != nil {
			// 终止事件必须送达
			progressChan <- ProgressEvent{Type: EventError, Message: err.Error(), Data: summary, Timestamp: time.Now()}
			return
		}
		progressChan <- ProgressEvent{Type: EventDone, Message: "import finished", Data: summary, Timestamp: time.Now()}
	}()

	return progressChan
}

// Run 同步导入一个数据源；progress 可为 nil。
// 单个 sheet 的读取失败只记为该 sheet 的 error 结果；必需列缺失或文件无法打开时返回错误。
func (c *Coordinator) Run(ctx context.Context, opts ImportOptions, progress func(ProgressEvent)) (*ImportSummary, error) {
	if err := c.ValidateOptions(opts); err != nil {
		return nil, err
	}

	filename := opts.OriginalFilename
	if filename == "" {
		filename = filepath.Base(opts.FilePath)
	}
	ic := &importContext{
		opts:     opts,
		runID:    uuid.New().String(),
		filename: filename,
		start:    time.Now(),
		report:   &parser.ImportReport{Filename: filename, Kind: string(opts.Kind), Sheets: []parser.ParseResult{}},
		emit:     progress,
	}
	ic.logger = log.WithFields(log.Fields{"run": ic.runID, "kind": opts.Kind, "file": filename})
	summary := &ImportSummary{RunID: ic.runID, Report: ic.report}

	ic.send(EventStart, fmt.Sprintf("importing %s source %s", opts.Kind, filename), map[string]string{
		"filename": filename,
		"kind":     string(opts.Kind),
		"runId":    ic.runID,
	})

	var importLogID int64
	if opts.Persist && c.store != nil {
		id, err := c.createImportLog(ic)
		if err != nil {
			return summary, err
		}
		importLogID = id
		summary.ImportLogID = id
	}

	res, err := c.extract(ctx, ic)
	if err != nil {
		ic.logger.WithError(err).Error("import failed")
		if importLogID > 0 {
			c.finishImportLog(ic, importLogID, nil, err)
		}
		summary.Warnings = ic.warnings
		return summary, err
	}

	ic.report.Duration = time.Since(ic.start)
	summary.Table = res.table
	summary.Rows = res.table.Len()
	summary.Warnings = ic.warnings

	if importLogID > 0 {
		if err := c.persist(ic, importLogID, res); err != nil {
			c.finishImportLog(ic, importLogID, nil, err)
			return summary, err
		}
		c.finishImportLog(ic, importLogID, res.table.Columns, nil)
		if err := c.store.SetSetting(store.SettingLastRunID, ic.runID); err != nil {
			ic.warn(fmt.Sprintf("failed to record run id: %v", err))
		}
	}

	if opts.Output != "" {
		out, err := c.writeOutput(ic, res.table)
		if err != nil {
			return summary, err
		}
		summary.Output = opts.Output
		summary.Table = out
		summary.Rows = out.Len()
	}

	c.metrics.observeCoerced(opts.Kind, len(ic.coerced))
	ic.logger.WithFields(log.Fields{
		"rows":     summary.Rows,
		"sheets":   ic.report.ImportedSheets,
		"skipped":  ic.report.SkippedSheets,
		"coerced":  ic.report.CoercedCells,
		"duration": ic.report.Duration,
	}).Info("import finished")
	return summary, nil
}

// ValidateOptions 校验导入选项
func (c *Coordinator) ValidateOptions(opts ImportOptions) error {
	if err := c.validate.Struct(opts); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid import options: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid import options: %w", err)
	}
	if opts.MonthMin > 0 && opts.MonthMax > 0 && opts.MonthMin > opts.MonthMax {
		return fmt.Errorf("invalid import options: month range %d-%d", opts.MonthMin, opts.MonthMax)
	}
	return nil
}

// monthBounds 导入月份范围，未指定时取配置
func (c *Coordinator) monthBounds(opts ImportOptions) (int, int) {
	lo, hi := opts.MonthMin, opts.MonthMax
	if lo == 0 {
		lo = c.cfg.Import.MonthMin
	}
	if hi == 0 {
		hi = c.cfg.Import.MonthMax
	}
	return lo, hi
}

// year 显式年份 > 配置年份 > 文件名推断
func (c *Coordinator) year(ic *importContext) *int {
	explicit := ic.opts.Year
	if explicit == 0 {
		explicit = c.cfg.Import.Year
	}
	return parser.ResolveYear(explicit, ic.filename)
}

// recordSheetResult 记录 Sheet 处理结果
func (c *Coordinator) recordSheetResult(ic *importContext, result parser.ParseResult) {
	ic.report.Add(result)
	c.metrics.observeSheet(ic.opts.Kind, result)

	meta := model.SheetMeta{
		SheetName:    result.SheetName,
		SheetType:    string(result.SheetType),
		Status:       result.Status,
		ImportedRows: result.ImportedRows,
		CoercedCells: result.CoercedCells,
	}
	if len(result.Errors) > 0 {
		meta.ErrorMessage = strings.Join(result.Errors, "; ")
	}
	ic.metas = append(ic.metas, meta)
}

func (c *Coordinator) createImportLog(ic *importContext) (int64, error) {
	var size int64
	if fi, err := os.Stat(ic.opts.FilePath); err == nil {
		size = fi.Size()
	}
	hash, err := fileHash(ic.opts.FilePath)
	if err != nil {
		return 0, parser.NewSourceError(parser.StageOpen, ic.filename, "", err)
	}
	id, err := c.store.CreateImportLog(ic.runID, ic.opts.Kind, ic.filename, ic.opts.FilePath, size, hash)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (c *Coordinator) persist(ic *importContext, importLogID int64, res *extraction) error {
	for _, meta := range ic.metas {
		meta.ImportLogID = importLogID
		if err := c.store.InsertSheetMeta(meta); err != nil {
			return err
		}
	}
	if err := c.store.BatchInsertRecords(importLogID, res.records); err != nil {
		return err
	}
	ic.send(EventInfo, fmt.Sprintf("stored %d records", len(res.records)), map[string]interface{}{
		"importLogId": importLogID,
		"records":     len(res.records),
	})
	return nil
}

func (c *Coordinator) finishImportLog(ic *importContext, importLogID int64, columns []string, cause error) {
	r := store.ImportLogResult{
		TotalSheets:    ic.report.TotalSheets,
		ImportedSheets: ic.report.ImportedSheets,
		SkippedSheets:  ic.report.SkippedSheets,
		ErrorSheets:    ic.report.ErrorSheets,
		ImportedRows:   ic.report.ImportedRows,
		CoercedCells:   ic.report.CoercedCells,
		Columns:        columns,
		Status:         model.ImportCompleted,
	}
	if cause != nil {
		r.Status = model.ImportFailed
		r.ErrorMessage = cause.Error()
	}
	if err := c.store.UpdateImportLog(importLogID, r); err != nil {
		ic.logger.WithError(err).Error("failed to update import log")
	}
}

// writeOutput 写出结果表；AppendToExisting 时先与已有文件合并（已有行在前）
func (c *Coordinator) writeOutput(ic *importContext, table *model.Table) (*model.Table, error) {
	out := table
	if ic.opts.AppendToExisting {
		if _, err := os.Stat(ic.opts.Output); err == nil {
			base, err := exporter.LoadTable(ic.opts.Output, "")
			if err != nil {
				return nil, err
			}
			out = calculator.Merge(base, table)
			ic.send(EventInfo, fmt.Sprintf("appended to %d existing rows", base.Len()), map[string]int{
				"existingRows": base.Len(),
			})
		}
	}
	if err := exporter.SaveTable(out, ic.opts.Output); err != nil {
		return nil, parser.NewSourceError(parser.StageWrite, ic.opts.Output, "", err)
	}
	ic.send(EventInfo, fmt.Sprintf("wrote %d rows to %s", out.Len(), ic.opts.Output), map[string]interface{}{
		"output": ic.opts.Output,
		"rows":   out.Len(),
	})
	return out, nil
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// sendProgress 发送进度事件
func (c *Coordinator) sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	default:
		// 通道已满，丢弃事件
	}
}
