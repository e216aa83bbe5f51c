package strategy

import (
	"context"
	"regexp"
	"strings"

	"github.com/oasara/enrich-cli/internal/fetch"
	"github.com/oasara/enrich-cli/internal/model"
	"github.com/oasara/enrich-cli/internal/normalize"
)

// TextPattern extracts entities from page plaintext with regular
// expressions. It backs up Structural on pages whose markup carries no
// usable class or data-attribute signal. Testimonials and packages have
// no reliable text shape, so those kinds always come back empty.
type TextPattern struct{}

// NewTextPattern creates a TextPattern strategy.
func NewTextPattern() *TextPattern { return &TextPattern{} }

func (s *TextPattern) Name() string { return "textpattern" }

// Extract scans the snapshot plaintext per kind.
func (s *TextPattern) Extract(_ context.Context, snap *fetch.PageSnapshot, kind model.EntityKind) ([]model.RawFragment, error) {
	switch kind {
	case model.KindDoctor:
		return s.doctors(snap.Text), nil
	case model.KindPrice:
		return s.prices(snap.Text), nil
	}
	return nil, nil
}

var doctorNameRes = []*regexp.Regexp{
	regexp.MustCompile(`Dr\.?\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`),
	regexp.MustCompile(`Professor\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`),
	regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+),?\s+(?:MD|M\.D\.|PhD|MBBS|FRCS|FACS)`),
}

func (s *TextPattern) doctors(text string) []model.RawFragment {
	var frags []model.RawFragment
	seen := map[string]struct{}{}

	for _, re := range doctorNameRes {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			name := text[loc[2]:loc[3]]
			key := strings.ToLower(name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			// Credentials usually trail the name within a few tokens.
			end := loc[1] + 40
			if end > len(text) {
				end = len(text)
			}
			window := text[loc[0]:end]

			f := model.NewFragment(model.KindDoctor, s.Name(), window)
			f.Hints[model.HintName] = name
			if quals := normalize.Qualifications(window); quals != "" {
				f.Hints[model.HintQualifications] = quals
			}
			frags = append(frags, f)
		}
	}
	return frags
}

// commonProcedures are the treatments most often priced on medical
// tourism sites; each is probed for a nearby amount.
var commonProcedures = []string{
	"Hip Replacement", "Knee Replacement", "Dental Implant", "Rhinoplasty",
	"Breast Augmentation", "Liposuction", "Tummy Tuck", "Facelift",
	"LASIK", "Cataract Surgery", "Heart Bypass", "Angioplasty",
	"IVF", "Hair Transplant", "Gastric Bypass", "Gastric Sleeve",
	"Spinal Fusion", "Hysterectomy", "Gallbladder Removal",
}

var (
	priceRangeRe = regexp.MustCompile(`([A-Za-z][A-Za-z\s]{3,80}?)\s*[-–:]\s*([\$€£¥₹฿])?\s*([\d][\d.,]*)\s*[-–]\s*([\$€£¥₹฿])?\s*([\d][\d.,]*)`)
	moneyRe      = regexp.MustCompile(`([\$€£¥₹฿])\s*([\d][\d.,]*)`)
)

func (s *TextPattern) prices(text string) []model.RawFragment {
	var frags []model.RawFragment
	seen := map[string]struct{}{}

	// Ranges first: a procedure with a low-high span must not be
	// shadowed by its own lower bound.
	for _, m := range priceRangeRe.FindAllStringSubmatch(text, -1) {
		procedure := strings.TrimSpace(m[1])
		if len(procedure) < 4 || len(procedure) > 100 {
			continue
		}
		key := strings.ToLower(procedure)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		f := model.NewFragment(model.KindPrice, s.Name(), m[0])
		f.Hints[model.HintProcedure] = procedure
		f.Hints[model.HintAmount] = m[3]
		f.Hints[model.HintRangeMax] = m[5]
		f.Hints[model.HintPriceType] = model.PriceRange
		f.Hints[model.HintCurrency] = normalize.CurrencyCode(m[2] + m[4])
		frags = append(frags, f)
	}

	for _, proc := range commonProcedures {
		key := strings.ToLower(proc)
		if _, dup := seen[key]; dup {
			continue
		}
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(proc) + `[\s\S]{0,200}?([\$€£¥₹฿])\s*([\d][\d.,]*)`)
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		seen[key] = struct{}{}

		f := model.NewFragment(model.KindPrice, s.Name(), m[0])
		f.Hints[model.HintProcedure] = proc
		f.Hints[model.HintAmount] = m[2]
		f.Hints[model.HintCurrency] = normalize.CurrencyCode(m[1])
		frags = append(frags, f)
	}
	return frags
}

// FindAmounts extracts every currency-prefixed amount in text as
// normalized (value, ISO code) pairs.
func FindAmounts(text string) []normalize.Amount {
	var out []normalize.Amount
	for _, m := range moneyRe.FindAllStringSubmatch(text, -1) {
		v, ok := normalize.ParseAmount(m[2])
		if !ok {
			continue
		}
		out = append(out, normalize.Amount{Value: v, Currency: normalize.CurrencyCode(m[1])})
	}
	return out
}
