package sqlc

import (
	"context"

	"github.com/sqlc-dev/pqtype"
)

// AnalyticsManager keeps per-server counters. Every method runs under
// its own QuerierCtxTimeout derived from ctx.
type AnalyticsManager struct {
	queries  Querier
	serverIp pqtype.Inet
}

func NewAnalyticsManager(queries Querier, serverIp pqtype.Inet) *AnalyticsManager {
	return &AnalyticsManager{queries: queries, serverIp: serverIp}
}

func (a *AnalyticsManager) ServerIp() pqtype.Inet {
	return a.serverIp
}

func (a *AnalyticsManager) IncrementMatchesCreatedCount(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, QuerierCtxTimeout)
	defer cancel()
	return a.queries.IncrementMatchesCreatedCount(ctx, a.serverIp)
}

func (a *AnalyticsManager) IncrementMatchesFinishedCount(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, QuerierCtxTimeout)
	defer cancel()
	return a.queries.IncrementMatchesFinishedCount(ctx, a.serverIp)
}

func (a *AnalyticsManager) GetMatchesCreatedCount(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, QuerierCtxTimeout)
	defer cancel()
	return a.queries.GetMatchesCreatedCount(ctx, a.serverIp)
}

func (a *AnalyticsManager) GetMatchesFinishedCount(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, QuerierCtxTimeout)
	defer cancel()
	return a.queries.GetMatchesFinishedCount(ctx, a.serverIp)
}
