package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasara/enrich-cli/internal/model"
	"github.com/oasara/enrich-cli/internal/strategy"
	"github.com/oasara/enrich-cli/pkg/vision"
)

const doctorsPage = `<html><body>
<div class="doctor-card">
  <h3>Dr. Jane Smith</h3>
  <div class="specialty">Cardiology</div>
  <p class="bio">Dr. Jane Smith is a board-certified cardiologist.</p>
</div>
<div class="doctor-card">
  <h3>Dr. John Doe</h3>
  <div class="specialty">Orthopedics</div>
  <p class="bio">Dr. John Doe performs joint replacement surgery.</p>
</div>
</body></html>`

const pricingPage = `<html><body>
<p>Hip Replacement - $8,000 - $12,000</p>
</body></html>`

const homePage = `<html><body><h1>Welcome to our clinic</h1></body></html>`

func testFacility() model.Facility {
	return model.Facility{
		ID:      "f1",
		Name:    "Sunrise Medical Center",
		Website: "https://clinic.example",
		Country: "Thailand",
	}
}

func newTestChain() *strategy.Chain {
	return strategy.NewChain(strategy.NewStructural(), strategy.NewTextPattern())
}

func TestPipelineRun(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://clinic.example/doctors": doctorsPage,
		"https://clinic.example/pricing": pricingPage,
		"https://clinic.example":         homePage,
	}}
	st := newStubStore()
	p := New(fetcher, newTestChain(), NewAdapter(st, false), 0)

	result := p.Run(context.Background(), testFacility())

	assert.Equal(t, model.StageDone, result.Stage)
	assert.Equal(t, model.RunPartial, result.Status, "3 items is below the default threshold")
	assert.Equal(t, 2, result.Doctors)
	assert.Equal(t, 1, result.Prices)
	assert.Equal(t, 3, result.TotalItems)
	assert.Empty(t, result.Errors)

	require.Len(t, st.prices, 1)
	assert.Equal(t, model.PriceRange, st.prices[0].PriceType)
	assert.Equal(t, 8000.0, st.prices[0].Amount)
	assert.Equal(t, 12000.0, st.prices[0].RangeMax)
	assert.Equal(t, model.StatusPartial, st.statuses["f1"])
}

func TestPipelineSharesHomepageFetch(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://clinic.example": homePage,
	}}
	st := newStubStore()
	p := New(fetcher, newTestChain(), NewAdapter(st, false), 0)

	p.Run(context.Background(), testFacility())

	home := 0
	for _, url := range fetcher.calls {
		if url == "https://clinic.example" {
			home++
		}
	}
	assert.Equal(t, 1, home, "homepage appears in every kind's path list but is fetched once")
}

func TestPipelineAllFetchesFail(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{}}
	st := newStubStore()
	p := New(fetcher, newTestChain(), NewAdapter(st, false), 0)

	result := p.Run(context.Background(), testFacility())

	assert.Equal(t, model.StageFailed, result.Stage)
	assert.Equal(t, model.RunFailed, result.Status)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[len(result.Errors)-1], "all page fetches failed")
	assert.Zero(t, st.writeCount())
}

func TestPipelineNoWebsite(t *testing.T) {
	st := newStubStore()
	p := New(&stubFetcher{}, newTestChain(), NewAdapter(st, false), 0)

	result := p.Run(context.Background(), model.Facility{ID: "f1", Name: "No Site Clinic"})

	assert.Equal(t, model.StageFailed, result.Stage)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "no website")
}

type stubShooter struct{ calls int }

func (s *stubShooter) Screenshots(context.Context, string, int) ([]string, error) {
	s.calls++
	return []string{"aGVsbG8="}, nil
}

type stubVisionClient struct{ calls int }

func (c *stubVisionClient) Extract(context.Context, vision.Request) (*vision.Extraction, error) {
	c.calls++
	return &vision.Extraction{
		Doctors: []vision.Doctor{{Name: "Dr. Maria Lopez", Specialty: "Dermatology"}},
	}, nil
}

func TestPipelineVisionFallback(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://clinic.example": homePage,
	}}
	st := newStubStore()
	client := &stubVisionClient{}
	vis := strategy.NewVision(&stubShooter{}, client, 1)
	p := New(fetcher, newTestChain(), NewAdapter(st, false), 0).WithVision(vis, false)

	result := p.Run(context.Background(), testFacility())

	assert.Equal(t, 1, client.calls, "vision runs when cheaper strategies find nothing")
	assert.Equal(t, 1, result.Doctors)
	require.Len(t, st.doctors, 1)
	assert.Equal(t, "Maria Lopez", st.doctors[0].Name)
}

func TestPipelineVisionSkippedWhenDataFound(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://clinic.example/doctors": doctorsPage,
		"https://clinic.example":         homePage,
	}}
	client := &stubVisionClient{}
	vis := strategy.NewVision(&stubShooter{}, client, 1)
	p := New(fetcher, newTestChain(), NewAdapter(newStubStore(), false), 0).WithVision(vis, false)

	p.Run(context.Background(), testFacility())

	assert.Zero(t, client.calls)
}
