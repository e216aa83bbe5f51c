package strategy

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasara/enrich-cli/internal/fetch"
	"github.com/oasara/enrich-cli/internal/model"
	"github.com/oasara/enrich-cli/pkg/vision"
)

// stubShooter returns canned screenshot payloads.
type stubShooter struct {
	shots []string
	err   error
	calls int
}

func (s *stubShooter) Screenshots(_ context.Context, _ string, _ int) ([]string, error) {
	s.calls++
	return s.shots, s.err
}

// stubVisionClient returns a canned extraction.
type stubVisionClient struct {
	extraction *vision.Extraction
	err        error
	calls      int
	lastReq    vision.Request
}

func (c *stubVisionClient) Extract(_ context.Context, req vision.Request) (*vision.Extraction, error) {
	c.calls++
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}
	return c.extraction, nil
}

func sampleExtraction() *vision.Extraction {
	return &vision.Extraction{
		Doctors: []vision.Doctor{
			{Name: "Dr. Jane Smith", Specialty: "Cardiology", Qualifications: "MD, FACC"},
		},
		Pricing: []vision.Price{
			{Procedure: "LASIK", Price: 1200, Currency: "USD", PriceType: "exact"},
		},
		Testimonials: []vision.Testimonial{
			{PatientName: "Sarah M.", ReviewText: "Excellent care from start to finish.", Rating: 5},
		},
		Packages: []vision.Package{
			{PackageName: "Health Checkup Package", Price: 450},
		},
		Metadata: vision.Metadata{DataFound: true, Confidence: "high"},
	}
}

func TestVision_ExtractFacility(t *testing.T) {
	shooter := &stubShooter{shots: []string{"aGVsbG8=", "d29ybGQ="}}
	client := &stubVisionClient{extraction: sampleExtraction()}
	v := NewVision(shooter, client, 3)

	f := model.Facility{
		ID: "fac-1", Name: "Bumrungrad International",
		Website: "https://www.bumrungrad.com/", City: "Bangkok", Country: "Thailand",
	}
	frags, err := v.ExtractFacility(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, frags, 4)

	kinds := map[model.EntityKind]int{}
	for _, fr := range frags {
		kinds[fr.Kind]++
		assert.Equal(t, "vision", fr.Source)
	}
	assert.Equal(t, 1, kinds[model.KindDoctor])
	assert.Equal(t, 1, kinds[model.KindPrice])
	assert.Equal(t, 1, kinds[model.KindTestimonial])
	assert.Equal(t, 1, kinds[model.KindPackage])

	assert.Equal(t, "Bumrungrad International", client.lastReq.FacilityName)
	assert.Equal(t, "https://www.bumrungrad.com", client.lastReq.Website)
	assert.Len(t, client.lastReq.Images, 2)
}

func TestVision_PriceFragmentHints(t *testing.T) {
	shooter := &stubShooter{shots: []string{"aGVsbG8="}}
	client := &stubVisionClient{extraction: &vision.Extraction{
		Pricing: []vision.Price{
			{Procedure: "Hip Replacement", Price: 8000, Currency: "USD", PriceType: "range", PriceMax: 12000},
		},
	}}
	v := NewVision(shooter, client, 1)

	frags, err := v.ExtractFacility(context.Background(), model.Facility{Website: "https://x.example"})
	require.NoError(t, err)
	require.Len(t, frags, 1)

	f := frags[0]
	assert.Equal(t, "Hip Replacement", f.Hint(model.HintProcedure))
	assert.Equal(t, "8000", f.Hint(model.HintAmount))
	assert.Equal(t, "12000", f.Hint(model.HintRangeMax))
	assert.Equal(t, "range", f.Hint(model.HintPriceType))
}

func TestVision_PerURLCache(t *testing.T) {
	shooter := &stubShooter{shots: []string{"aGVsbG8="}}
	client := &stubVisionClient{extraction: sampleExtraction()}
	v := NewVision(shooter, client, 1)

	snap := &fetch.PageSnapshot{URL: "https://x.example", Title: "Clinic X"}
	for _, kind := range model.Kinds {
		frags, err := v.Extract(context.Background(), snap, kind)
		require.NoError(t, err)
		assert.Len(t, frags, 1, string(kind))
	}

	assert.Equal(t, 1, client.calls, "four kind extractions must share one model call")
	assert.Equal(t, 1, shooter.calls)
}

func TestVision_ScreenshotError(t *testing.T) {
	shooter := &stubShooter{err: eris.New("tab crashed")}
	v := NewVision(shooter, &stubVisionClient{}, 1)

	_, err := v.ExtractFacility(context.Background(), model.Facility{Website: "https://x.example"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vision: screenshots")
}

func TestVision_ClientError(t *testing.T) {
	shooter := &stubShooter{shots: []string{"aGVsbG8="}}
	client := &stubVisionClient{err: eris.New("rate limited")}
	v := NewVision(shooter, client, 1)

	_, err := v.ExtractFacility(context.Background(), model.Facility{Website: "https://x.example"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vision: extract")
}
