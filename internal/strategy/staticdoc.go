package strategy

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/oasara/enrich-cli/internal/fetch"
	"github.com/oasara/enrich-cli/internal/model"
)

// StaticDoc re-fetches the page without a browser and reruns the
// structural extraction over the alternate markup. Some sites serve
// simpler, denser HTML to non-JavaScript clients than to a rendered
// session.
type StaticDoc struct {
	fetcher fetch.Fetcher
	inner   *Structural
}

// NewStaticDoc creates a StaticDoc backed by a static fetcher.
func NewStaticDoc(fetcher fetch.Fetcher) *StaticDoc {
	return &StaticDoc{fetcher: fetcher, inner: NewStructural()}
}

func (s *StaticDoc) Name() string { return "staticdoc" }

// Extract fetches the snapshot URL statically and extracts from the
// alternate document.
func (s *StaticDoc) Extract(ctx context.Context, snap *fetch.PageSnapshot, kind model.EntityKind) ([]model.RawFragment, error) {
	alt, err := s.fetcher.Fetch(ctx, snap.URL, fetch.ModeStatic)
	if err != nil {
		return nil, eris.Wrap(err, "staticdoc: refetch")
	}

	frags, err := s.inner.Extract(ctx, alt, kind)
	if err != nil {
		return nil, err
	}
	for i := range frags {
		frags[i].Source = s.Name()
	}
	return frags, nil
}
