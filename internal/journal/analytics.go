package journal

import (
	"context"
	"fmt"
	"strings"

	"tradevault/internal/analytics"
	tverrors "tradevault/internal/errors"
	"tradevault/internal/models"
)

// closed loads the eligible trades of the scope in chronological order and
// applies the analytics filter. An empty accountID covers every account.
func (s *Service) closed(ctx context.Context, accountID string, filter analytics.Filter) ([]models.Trade, error) {
	if accountID != "" {
		if _, err := s.store.GetAccount(ctx, accountID); err != nil {
			return nil, err
		}
	}
	trades, err := s.store.ListClosedTrades(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return filter.Apply(trades), nil
}

// Stats aggregates the closed trades of the scope.
func (s *Service) Stats(ctx context.Context, accountID string, filter analytics.Filter) (analytics.Stats, error) {
	trades, err := s.closed(ctx, accountID, filter)
	if err != nil {
		return analytics.Stats{}, err
	}
	return analytics.ComputeStats(trades), nil
}

// Periods summarises the closed trades of the scope per week or month,
// newest period first.
func (s *Service) Periods(ctx context.Context, accountID string, g analytics.Granularity, filter analytics.Filter) ([]analytics.PeriodSummary, error) {
	if err := checkGranularity(g); err != nil {
		return nil, err
	}
	trades, err := s.closed(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}
	return analytics.SummarizePeriods(trades, g), nil
}

// Breakdown groups win rates along one dimension.
func (s *Service) Breakdown(ctx context.Context, accountID string, dim analytics.Dimension, filter analytics.Filter) ([]analytics.GroupWinRate, error) {
	trades, err := s.closed(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}
	groups, ok := analytics.BreakdownBy(trades, dim)
	if !ok {
		return nil, tverrors.NewValidationError("by", string(dim), "must be one of: "+dimensionList())
	}
	return groups, nil
}

func checkGranularity(g analytics.Granularity) error {
	if g != analytics.Weekly && g != analytics.Monthly {
		return tverrors.NewValidationError("period", string(g), fmt.Sprintf("must be %s or %s", analytics.Weekly, analytics.Monthly))
	}
	return nil
}

func dimensionList() string {
	names := make([]string, len(analytics.Dimensions))
	for i, d := range analytics.Dimensions {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}

// EquityCurve returns cumulative P&L after each closed trade.
func (s *Service) EquityCurve(ctx context.Context, accountID string, filter analytics.Filter) ([]analytics.EquityPoint, error) {
	trades, err := s.closed(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}
	return analytics.EquityCurve(trades), nil
}

// RDistribution buckets closed trades by R multiple.
func (s *Service) RDistribution(ctx context.Context, accountID string, filter analytics.Filter) ([]analytics.Band, error) {
	trades, err := s.closed(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}
	return analytics.RDistribution(trades), nil
}

// StrategyRanking totals dollar P&L per strategy.
func (s *Service) StrategyRanking(ctx context.Context, accountID string, filter analytics.Filter) (analytics.StrategyRanking, error) {
	trades, err := s.closed(ctx, accountID, filter)
	if err != nil {
		return analytics.StrategyRanking{}, err
	}
	return analytics.RankStrategies(trades), nil
}

// Report bundles the figures shown on the analytics overview.
type Report struct {
	Stats      analytics.Stats           `json:"stats"`
	Periods    []analytics.PeriodSummary `json:"periods"`
	Equity     []analytics.EquityPoint   `json:"equity"`
	Bands      []analytics.Band          `json:"r_distribution"`
	Strategies analytics.StrategyRanking `json:"strategies"`
	Sessions   []analytics.GroupWinRate  `json:"sessions"`
}

// Report computes every overview figure from one read of the closed trades.
func (s *Service) Report(ctx context.Context, accountID string, g analytics.Granularity, filter analytics.Filter) (*Report, error) {
	if err := checkGranularity(g); err != nil {
		return nil, err
	}
	trades, err := s.closed(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}
	return &Report{
		Stats:      analytics.ComputeStats(trades),
		Periods:    analytics.SummarizePeriods(trades, g),
		Equity:     analytics.EquityCurve(trades),
		Bands:      analytics.RDistribution(trades),
		Strategies: analytics.RankStrategies(trades),
		Sessions:   analytics.Breakdown(trades, analytics.BySession),
	}, nil
}
