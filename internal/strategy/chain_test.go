package strategy

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/oasara/enrich-cli/internal/fetch"
	"github.com/oasara/enrich-cli/internal/model"
)

// stubStrategy is a hand-rolled Strategy for chain tests.
type stubStrategy struct {
	name  string
	frags []model.RawFragment
	err   error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Extract(_ context.Context, _ *fetch.PageSnapshot, _ model.EntityKind) ([]model.RawFragment, error) {
	s.calls++
	return s.frags, s.err
}

func namedFrag(name string) model.RawFragment {
	f := model.NewFragment(model.KindDoctor, "stub", name)
	f.Hints[model.HintName] = name
	return f
}

func TestChain_FirstNonEmptyWins(t *testing.T) {
	first := &stubStrategy{name: "first", frags: []model.RawFragment{namedFrag("Dr. Jane Smith")}}
	second := &stubStrategy{name: "second", frags: []model.RawFragment{namedFrag("Dr. John Lee")}}

	chain := NewChain(first, second)
	frags := chain.Extract(context.Background(), &fetch.PageSnapshot{URL: "https://x.example"}, model.KindDoctor)

	assert.Len(t, frags, 1)
	assert.Equal(t, "Dr. Jane Smith", frags[0].Hint(model.HintName))
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls, "chain must stop at the first non-empty result")
}

func TestChain_ErrorFallsThrough(t *testing.T) {
	failing := &stubStrategy{name: "failing", err: eris.New("boom")}
	empty := &stubStrategy{name: "empty"}
	working := &stubStrategy{name: "working", frags: []model.RawFragment{namedFrag("Dr. Ana Ruiz")}}

	chain := NewChain(failing, empty, working)
	frags := chain.Extract(context.Background(), &fetch.PageSnapshot{URL: "https://x.example"}, model.KindDoctor)

	assert.Len(t, frags, 1)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, empty.calls)
	assert.Equal(t, 1, working.calls)
}

func TestChain_AllEmpty(t *testing.T) {
	chain := NewChain(&stubStrategy{name: "a"}, &stubStrategy{name: "b"})
	frags := chain.Extract(context.Background(), &fetch.PageSnapshot{URL: "https://x.example"}, model.KindDoctor)
	assert.Empty(t, frags)
}

func TestChain_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &stubStrategy{name: "never", frags: []model.RawFragment{namedFrag("Dr. X Y")}}
	chain := NewChain(s)
	frags := chain.Extract(ctx, &fetch.PageSnapshot{URL: "https://x.example"}, model.KindDoctor)

	assert.Empty(t, frags)
	assert.Equal(t, 0, s.calls)
}
