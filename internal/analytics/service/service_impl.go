package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/analytics/domain"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/ayurtrace/ayurtrace/internal/authorization"
	batchdomain "github.com/ayurtrace/ayurtrace/internal/batch/domain"
	"github.com/ayurtrace/ayurtrace/internal/clock"
	qualitydomain "github.com/ayurtrace/ayurtrace/internal/quality/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dayLayout = "2006-01-02"

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Authz authorization.Service
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	authz authorization.Service
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("analytics.service"),
		clock: p.Clock,
		authz: p.Authz,
		repo:  p.Repo,
	}
}

func (s *Service) ComputeAnalytics(ctx context.Context, who actor.Actor, req domain.Request) (*domain.Report, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectAnalytics, authorization.ActionView); err != nil {
		return nil, err
	}
	return s.compute(ctx, req)
}

func (s *Service) compute(ctx context.Context, req domain.Request) (*domain.Report, error) {
	timeframe, ok := domain.ParseTimeframe(req.Timeframe)
	if !ok {
		return nil, domain.ErrInvalidTimeframe
	}
	speciesID, err := parseFilter(req.SpeciesID)
	if err != nil {
		return nil, err
	}
	labID, err := parseFilter(req.LabID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	q := domain.Query{
		From:      now.Add(-timeframe.Lookback()),
		To:        now,
		SpeciesID: speciesID,
		LabID:     labID,
	}
	report := &domain.Report{
		Timeframe:       timeframe,
		From:            q.From,
		To:              q.To,
		StatusHistogram: make(map[string]int64, len(batchdomain.Statuses)),
	}

	if err := s.batchRollups(ctx, q, report); err != nil {
		return nil, apperror.Storage(err)
	}
	if err := s.qualityRollups(ctx, q, report); err != nil {
		return nil, apperror.Storage(err)
	}

	s.log.Debug("analytics computed",
		zap.String("timeframe", string(timeframe)),
		zap.Int64("total_batches", report.TotalBatches),
		zap.Int64("recalled_batches", report.RecalledBatches),
	)
	return report, nil
}

func (s *Service) batchRollups(ctx context.Context, q domain.Query, report *domain.Report) error {
	statuses, err := s.repo.StatusCounts(ctx, s.db, q)
	if err != nil {
		return err
	}
	for _, status := range batchdomain.Statuses {
		report.StatusHistogram[string(status)] = 0
	}
	for _, row := range statuses {
		report.TotalBatches += row.Count
		report.StatusHistogram[row.Status] += row.Count
		if row.RecallFlag {
			report.RecalledBatches += row.Count
		}
	}
	report.RecallRate = domain.NewRecallRate(report.RecalledBatches, report.TotalBatches)

	species, err := s.repo.SpeciesCounts(ctx, s.db, q)
	if err != nil {
		return err
	}
	report.Species = make([]domain.SpeciesCount, 0, len(species))
	for _, row := range species {
		report.Species = append(report.Species, domain.SpeciesCount{
			SpeciesID:     snowflake.ID(row.SpeciesID).String(),
			BotanicalName: row.BotanicalName,
			CommonName:    row.CommonName,
			Count:         row.Count,
		})
	}

	created, err := s.repo.BatchCreatedTimes(ctx, s.db, q)
	if err != nil {
		return err
	}
	report.DailyTrend = dailyTrend(q.From, q.To, created)
	return nil
}

// dailyTrend counts batches per UTC day, including empty days.
func dailyTrend(from, to time.Time, rows []domain.TimeRow) []domain.DailyCount {
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.CreatedAt.UTC().Format(dayLayout)]++
	}
	first := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	out := []domain.DailyCount{}
	for day := first; day.Before(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(dayLayout)
		out = append(out, domain.DailyCount{Date: key, Count: counts[key]})
	}
	return out
}

func (s *Service) qualityRollups(ctx context.Context, q domain.Query, report *domain.Report) error {
	results, err := s.repo.TestResultCounts(ctx, s.db, q)
	if err != nil {
		return err
	}
	byType := make(map[string]*domain.TestTypeResults)
	for _, row := range results {
		entry, ok := byType[row.TestType]
		if !ok {
			entry = &domain.TestTypeResults{TestType: row.TestType}
			byType[row.TestType] = entry
		}
		switch qualitydomain.Result(row.Status) {
		case qualitydomain.ResultPassed:
			entry.Passed += row.Count
		case qualitydomain.ResultFailed:
			entry.Failed += row.Count
		default:
			entry.Pending += row.Count
		}
	}
	report.Quality.ByTestType = make([]domain.TestTypeResults, 0, len(byType))
	for _, testType := range qualitydomain.TestTypes {
		if entry, ok := byType[string(testType)]; ok {
			report.Quality.ByTestType = append(report.Quality.ByTestType, *entry)
		}
	}

	timings, err := s.repo.TestTimings(ctx, s.db, q)
	if err != nil {
		return err
	}
	report.Quality.Labs = labTurnaround(timings)
	return nil
}

// labTurnaround averages updated_at minus tested_at per lab, in hours.
func labTurnaround(rows []domain.TestTimingRow) []domain.LabTurnaround {
	type acc struct {
		name  string
		tests int64
		total time.Duration
	}
	labs := make(map[int64]*acc)
	for _, row := range rows {
		a, ok := labs[row.LabID]
		if !ok {
			a = &acc{name: row.LabName}
			labs[row.LabID] = a
		}
		a.tests++
		a.total += row.UpdatedAt.Sub(row.TestedAt)
	}

	out := make([]domain.LabTurnaround, 0, len(labs))
	for id, a := range labs {
		hours := a.total.Hours() / float64(a.tests)
		out = append(out, domain.LabTurnaround{
			LabID:        snowflake.ID(id).String(),
			LabName:      a.name,
			Tests:        a.tests,
			AverageHours: roundTo(hours, 2),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LabName != out[j].LabName {
			return out[i].LabName < out[j].LabName
		}
		return out[i].LabID < out[j].LabID
	})
	return out
}

func roundTo(v float64, places int) float64 {
	pow := 1.0
	for i := 0; i < places; i++ {
		pow *= 10
	}
	if v < 0 {
		return -float64(int64(-v*pow+0.5)) / pow
	}
	return float64(int64(v*pow+0.5)) / pow
}

func parseFilter(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidFilter
	}
	return id.Int64(), nil
}
