package importer

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/daohuymanh/bio-data-analysis/internal/calculator"
	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

// SourceOutcome 批量导入中单个数据源的结果
type SourceOutcome struct {
	Options ImportOptions
	Summary *ImportSummary
	Err     error
}

// Skipped 该数据源是否被跳过
func (o SourceOutcome) Skipped() bool { return o.Err != nil }

// String 处理行数或跳过原因
func (o SourceOutcome) String() string {
	name := o.Options.OriginalFilename
	if name == "" {
		name = o.Options.FilePath
	}
	if o.Err != nil {
		return fmt.Sprintf("%s: skipped (%v)", name, o.Err)
	}
	return fmt.Sprintf("%s: %d rows", name, o.Summary.Rows)
}

// BatchResult 批量导入结果
type BatchResult struct {
	Table    *model.Table
	Outcomes []SourceOutcome // 与输入顺序一致
}

// ImportBatch 并发抽取多个数据源，各自生成结果表后按输入顺序依次合并。
//
// 单个数据源失败只记录在其 SourceOutcome 中，不影响其他数据源；各数据源的 Output
// 被忽略，由调用方写出合并结果。ctx 取消时丢弃未完成的数据源并返回 ctx 错误。
func (c *Coordinator) ImportBatch(ctx context.Context, sources []ImportOptions, workers int) (*BatchResult, error) {
	if workers <= 0 {
		workers = c.cfg.Import.Workers
	}
	if workers <= 0 {
		workers = 1
	}

	outcomes := make([]SourceOutcome, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range sources {
		i := i // per-iteration copy (go directive < 1.22)
		opts := sources[i]
		opts.Output = ""
		opts.AppendToExisting = false
		outcomes[i].Options = sources[i]

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				outcomes[i].Err = err
				return nil
			}
			summary, err := c.Run(gctx, opts, nil)
			outcomes[i].Summary = summary
			outcomes[i].Err = err
			if err != nil {
				log.WithError(err).WithField("file", opts.FilePath).Warn("source skipped")
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tables := make([]*model.Table, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err == nil && o.Summary != nil {
			tables = append(tables, o.Summary.Table)
		}
	}
	return &BatchResult{Table: calculator.MergeAll(tables...), Outcomes: outcomes}, nil
}
