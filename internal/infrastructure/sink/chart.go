package sink

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/riskibarqy/skater-value/internal/domain/valuation"
	"github.com/riskibarqy/skater-value/internal/platform/logging"
	"github.com/valyala/bytebufferpool"
)

const (
	ChartTitle     = "Top 50 Players by Discrepancy"
	chartBarWidth  = 40
	chartBarGlyph  = "█"
	chartEmptyNote = "no players qualified"
)

// ChartRenderer draws the discrepancy table as a horizontal bar chart in plain text.
// The chart is written to path when set and echoed to out when set.
type ChartRenderer struct {
	path   string
	out    io.Writer
	logger *logging.Logger
}

func NewChartRenderer(path string, out io.Writer, logger *logging.Logger) *ChartRenderer {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChartRenderer{path: path, out: out, logger: logger.Named("sink.chart")}
}

func (c *ChartRenderer) RenderDiscrepancies(ctx context.Context, records []valuation.DiscrepancyRecord) error {
	if c.path != "" {
		buf := bytebufferpool.Get()
		defer bytebufferpool.Put(buf)

		renderChart(buf, lipgloss.NewRenderer(buf), records)
		if dir := filepath.Dir(c.path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create chart dir: %w", err)
			}
		}
		if err := writeFileAtomic(c.path, buf.B); err != nil {
			return err
		}
		c.logger.InfoContext(ctx, "chart written", "path", c.path, "bars", len(records))
	}

	if c.out != nil {
		renderChart(c.out, lipgloss.NewRenderer(c.out), records)
	}
	return nil
}

// chartOrder sorts bars ascending by magnitude, the plotting order of a horizontal bar chart.
func chartOrder(records []valuation.DiscrepancyRecord) []valuation.DiscrepancyRecord {
	out := append([]valuation.DiscrepancyRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Discrepancy) < math.Abs(out[j].Discrepancy)
	})
	return out
}

// renderChart writes the largest bar on the first line, as a bar chart plotted bottom-up reads.
func renderChart(w io.Writer, r *lipgloss.Renderer, records []valuation.DiscrepancyRecord) {
	titleStyle := r.NewStyle().Bold(true).Padding(0, 1).Border(lipgloss.NormalBorder(), false, false, true, false)
	labelStyle := r.NewStyle().Align(lipgloss.Right)
	barStyle := r.NewStyle().Foreground(lipgloss.Color("39"))
	valueStyle := r.NewStyle().Faint(true)

	_, _ = io.WriteString(w, titleStyle.Render(ChartTitle)+"\n")
	if len(records) == 0 {
		_, _ = io.WriteString(w, valueStyle.Render(chartEmptyNote)+"\n")
		return
	}

	ordered := chartOrder(records)
	labelWidth := 0
	maxValue := 0.0
	for _, rec := range ordered {
		if width := lipgloss.Width(rec.Player); width > labelWidth {
			labelWidth = width
		}
		maxValue = math.Max(maxValue, math.Abs(rec.Discrepancy))
	}

	lines := make([]string, 0, len(ordered))
	for idx := len(ordered) - 1; idx >= 0; idx-- {
		rec := ordered[idx]
		width := 1
		if maxValue > 0 {
			width = int(math.Round(math.Abs(rec.Discrepancy) / maxValue * chartBarWidth))
		}
		if width < 1 {
			width = 1
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Width(labelWidth).Render(rec.Player),
			" │ ",
			barStyle.Render(strings.Repeat(chartBarGlyph, width)),
			" ",
			valueStyle.Render(fmt.Sprintf("%.2f", rec.Discrepancy)),
		))
	}
	_, _ = io.WriteString(w, strings.Join(lines, "\n")+"\n")
	_, _ = io.WriteString(w, strings.Repeat(" ", labelWidth)+" └ Discrepancy\n")
}
