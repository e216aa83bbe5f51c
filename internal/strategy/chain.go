package strategy

import (
	"context"

	"go.uber.org/zap"

	"github.com/oasara/enrich-cli/internal/fetch"
	"github.com/oasara/enrich-cli/internal/model"
)

// Chain tries strategies in priority order, returning the first
// non-empty result. A strategy error is logged and demotes to the next
// strategy rather than failing the page.
type Chain struct {
	strategies []Strategy
}

// NewChain creates a Chain. Strategies are tried in the order given.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Extract runs the chain for one snapshot and kind.
func (c *Chain) Extract(ctx context.Context, snap *fetch.PageSnapshot, kind model.EntityKind) []model.RawFragment {
	for _, s := range c.strategies {
		if ctx.Err() != nil {
			return nil
		}
		frags, err := s.Extract(ctx, snap, kind)
		if err != nil {
			zap.L().Debug("strategy: extraction failed, trying next",
				zap.String("strategy", s.Name()),
				zap.String("kind", string(kind)),
				zap.String("url", snap.URL),
				zap.Error(err),
			)
			continue
		}
		if len(frags) > 0 {
			zap.L().Debug("strategy: extracted fragments",
				zap.String("strategy", s.Name()),
				zap.String("kind", string(kind)),
				zap.String("url", snap.URL),
				zap.Int("fragments", len(frags)),
			)
			return frags
		}
	}
	return nil
}
