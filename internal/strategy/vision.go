package strategy

import (
	"context"
	"strconv"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/oasara/enrich-cli/internal/fetch"
	"github.com/oasara/enrich-cli/internal/model"
	"github.com/oasara/enrich-cli/pkg/vision"
)

// Vision extracts entities from page screenshots via a vision-capable
// model. It is the most expensive strategy and only runs when
// everything else came up empty, or when forced for a single facility.
// One model call covers all four kinds; results are cached per URL so
// the per-kind Extract calls do not multiply API usage.
type Vision struct {
	shooter  fetch.ScreenshotTaker
	client   vision.Client
	sections int

	mu    sync.Mutex
	cache map[string]*vision.Extraction
}

// NewVision creates a Vision strategy.
func NewVision(shooter fetch.ScreenshotTaker, client vision.Client, sections int) *Vision {
	return &Vision{
		shooter:  shooter,
		client:   client,
		sections: sections,
		cache:    map[string]*vision.Extraction{},
	}
}

func (v *Vision) Name() string { return "vision" }

// Extract satisfies Strategy for one kind, reusing the cached
// whole-page extraction when present.
func (v *Vision) Extract(ctx context.Context, snap *fetch.PageSnapshot, kind model.EntityKind) ([]model.RawFragment, error) {
	extraction, err := v.extractURL(ctx, snap.URL, model.Facility{Website: snap.URL, Name: snap.Title})
	if err != nil {
		return nil, err
	}
	return filterFragments(v.toFragments(extraction), kind), nil
}

// ExtractFacility screenshots the facility homepage and returns
// fragments for every kind at once.
func (v *Vision) ExtractFacility(ctx context.Context, f model.Facility) ([]model.RawFragment, error) {
	extraction, err := v.extractURL(ctx, f.BaseURL(), f)
	if err != nil {
		return nil, err
	}
	return v.toFragments(extraction), nil
}

func (v *Vision) extractURL(ctx context.Context, url string, f model.Facility) (*vision.Extraction, error) {
	v.mu.Lock()
	cached, ok := v.cache[url]
	v.mu.Unlock()
	if ok {
		return cached, nil
	}

	shots, err := v.shooter.Screenshots(ctx, url, v.sections)
	if err != nil {
		return nil, eris.Wrap(err, "vision: screenshots")
	}

	extraction, err := v.client.Extract(ctx, vision.Request{
		FacilityName: f.Name,
		City:         f.City,
		Country:      f.Country,
		Website:      url,
		Images:       shots,
	})
	if err != nil {
		return nil, eris.Wrap(err, "vision: extract")
	}

	zap.L().Info("vision: page analyzed",
		zap.String("url", url),
		zap.Int("sections", len(shots)),
		zap.Int("items", extraction.Total()),
		zap.String("confidence", extraction.Metadata.Confidence),
	)

	v.mu.Lock()
	v.cache[url] = extraction
	v.mu.Unlock()
	return extraction, nil
}

func formatFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (v *Vision) toFragments(e *vision.Extraction) []model.RawFragment {
	var frags []model.RawFragment

	for _, d := range e.Doctors {
		f := model.NewFragment(model.KindDoctor, v.Name(), d.Name)
		f.Hints[model.HintName] = d.Name
		f.Hints[model.HintSpecialty] = d.Specialty
		f.Hints[model.HintQualifications] = d.Qualifications
		f.Hints[model.HintBio] = d.Bio
		frags = append(frags, f)
	}
	for _, p := range e.Pricing {
		f := model.NewFragment(model.KindPrice, v.Name(), p.Procedure)
		f.Hints[model.HintProcedure] = p.Procedure
		f.Hints[model.HintAmount] = formatFloat(p.Price)
		f.Hints[model.HintCurrency] = p.Currency
		f.Hints[model.HintPriceType] = p.PriceType
		f.Hints[model.HintRangeMax] = formatFloat(p.PriceMax)
		frags = append(frags, f)
	}
	for _, t := range e.Testimonials {
		f := model.NewFragment(model.KindTestimonial, v.Name(), t.ReviewText)
		f.Hints[model.HintAuthor] = t.PatientName
		f.Hints[model.HintRating] = formatFloat(t.Rating)
		frags = append(frags, f)
	}
	for _, p := range e.Packages {
		f := model.NewFragment(model.KindPackage, v.Name(), p.PackageName+". "+p.Description)
		f.Hints[model.HintName] = p.PackageName
		f.Hints[model.HintDescription] = p.Description
		f.Hints[model.HintPrice] = formatFloat(p.Price)
		f.Hints[model.HintIncludedServices] = p.IncludedServices
		frags = append(frags, f)
	}
	return frags
}

func filterFragments(frags []model.RawFragment, kind model.EntityKind) []model.RawFragment {
	var out []model.RawFragment
	for _, f := range frags {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}
