package importer

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
	"github.com/daohuymanh/bio-data-analysis/internal/parser"
)

// Metrics 导入流水线计数器（独立 registry，便于测试与多实例）
type Metrics struct {
	registry *prometheus.Registry
	sheets   *prometheus.CounterVec
	records  *prometheus.CounterVec
	coerced  *prometheus.CounterVec
}

// NewMetrics 创建并注册计数器
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sheets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edengue_sheets_total",
			Help: "Sheets processed, by source kind and outcome.",
		}, []string{"kind", "status"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edengue_records_total",
			Help: "Records extracted, by source kind.",
		}, []string{"kind"}),
		coerced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edengue_coerced_cells_total",
			Help: "Cells replaced by zero because they were not numeric.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.sheets, m.records, m.coerced)
	return m
}

// Registry 底层 registry
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeSheet(kind model.SourceKind, res parser.ParseResult) {
	m.sheets.WithLabelValues(string(kind), res.Status).Inc()
	if res.ImportedRows > 0 {
		m.records.WithLabelValues(string(kind)).Add(float64(res.ImportedRows))
	}
}

func (m *Metrics) observeCoerced(kind model.SourceKind, n int) {
	if n > 0 {
		m.coerced.WithLabelValues(string(kind)).Add(float64(n))
	}
}
