package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/analytics/domain"
	"github.com/ayurtrace/ayurtrace/internal/authorization"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const summarySheet = "Summary"

type sheet struct {
	name   string
	header []any
	rows   [][]any
	widths []float64
}

func (s *Service) ExportAnalyticsXLSX(ctx context.Context, who actor.Actor, req domain.Request) ([]byte, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectAnalytics, authorization.ActionAnalyticsExport); err != nil {
		return nil, err
	}
	report, err := s.compute(ctx, req)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	for _, sh := range reportSheets(report) {
		if sh.name != summarySheet {
			if _, err := f.NewSheet(sh.name); err != nil {
				return nil, fmt.Errorf("create sheet %s: %w", sh.name, err)
			}
		}
		if err := writeSheet(f, sh); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.log.Info("analytics exported",
		zap.String("timeframe", string(report.Timeframe)),
		zap.Int("bytes", buf.Len()),
	)
	return buf.Bytes(), nil
}

func reportSheets(r *domain.Report) []sheet {
	summary := sheet{
		name:   summarySheet,
		header: []any{"Metric", "Value"},
		widths: []float64{24, 28},
		rows: [][]any{
			{"Timeframe", string(r.Timeframe)},
			{"From", r.From.Format("2006-01-02 15:04:05")},
			{"To", r.To.Format("2006-01-02 15:04:05")},
			{"Total batches", r.TotalBatches},
			{"Recalled batches", r.RecalledBatches},
			{"Recall rate (%)", r.RecallRate.String()},
		},
	}

	statuses := make([]string, 0, len(r.StatusHistogram))
	for status := range r.StatusHistogram {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	status := sheet{name: "Status", header: []any{"Status", "Batches"}, widths: []float64{20, 12}}
	for _, name := range statuses {
		status.rows = append(status.rows, []any{name, r.StatusHistogram[name]})
	}

	species := sheet{
		name:   "Species",
		header: []any{"Species ID", "Botanical name", "Common name", "Batches"},
		widths: []float64{22, 30, 24, 12},
	}
	for _, row := range r.Species {
		species.rows = append(species.rows, []any{row.SpeciesID, row.BotanicalName, row.CommonName, row.Count})
	}

	trend := sheet{name: "Trend", header: []any{"Date", "Batches"}, widths: []float64{14, 12}}
	for _, row := range r.DailyTrend {
		trend.rows = append(trend.rows, []any{row.Date, row.Count})
	}

	quality := sheet{
		name:   "Quality",
		header: []any{"Test type", "Passed", "Failed", "Pending"},
		widths: []float64{26, 10, 10, 10},
	}
	for _, row := range r.Quality.ByTestType {
		quality.rows = append(quality.rows, []any{row.TestType, row.Passed, row.Failed, row.Pending})
	}

	labs := sheet{
		name:   "Labs",
		header: []any{"Lab ID", "Lab", "Tests", "Average turnaround (h)"},
		widths: []float64{22, 30, 10, 24},
	}
	for _, row := range r.Quality.Labs {
		labs.rows = append(labs.rows, []any{row.LabID, row.LabName, row.Tests, row.AverageHours})
	}

	return []sheet{summary, status, species, trend, quality, labs}
}

func writeSheet(f *excelize.File, sh sheet) error {
	for i, row := range append([][]any{sh.header}, sh.rows...) {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sh.name, cell, value); err != nil {
				return fmt.Errorf("write %s!%s: %w", sh.name, cell, err)
			}
		}
	}
	for i, width := range sh.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sh.name, col, col, width); err != nil {
			return fmt.Errorf("width %s!%s: %w", sh.name, col, err)
		}
	}
	return nil
}
