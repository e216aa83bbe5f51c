// Package normalize coerces raw extraction fragments into typed
// entities, deduplicates them, and classifies the overall outcome.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/oasara/enrich-cli/internal/model"
)

// Field caps applied before persistence.
const (
	maxBioLen         = 500
	maxReviewLen      = 1000
	maxTestimonials   = 10
	maxPlausiblePrice = 1_000_000
)

// currencySymbols maps price symbols to ISO codes. Unprefixed amounts
// default to USD.
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"€", "EUR"},
	{"£", "GBP"},
	{"₹", "INR"},
	{"¥", "JPY"},
	{"฿", "THB"},
	{"$", "USD"},
}

// Amount is one parsed money value with its ISO currency code.
type Amount struct {
	Value    float64
	Currency string
}

// CurrencyCode returns the ISO code for the first currency symbol found
// in text, or USD when none is present.
func CurrencyCode(text string) string {
	for _, c := range currencySymbols {
		if strings.Contains(text, c.symbol) {
			return c.code
		}
	}
	return "USD"
}

// ParseAmount parses a human-formatted money string. Commas are
// thousands separators. A single dot followed by exactly three digits
// is treated as a European thousands separator, so "3.500" is 3500
// while "1200.50" is 1200.5.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "$€£₹¥฿ ")
	s = strings.ReplaceAll(s, ",", "")
	if i := strings.Index(s, "."); i >= 0 && strings.Count(s, ".") == 1 && len(s)-i-1 == 3 {
		s = strings.ReplaceAll(s, ".", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

var (
	honorificRe  = regexp.MustCompile(`(?i)^(?:dr\.?|prof\.?|professor)\s+`)
	credentialRe = regexp.MustCompile(`\b(?:MD|M\.D\.|PhD|Ph\.D\.|MBBS|MBBCh|MBChB|FRCS|FACS|FACC|DDS|DMD|DO|MS|MCh|DNB)\b`)
	ratingRe     = regexp.MustCompile(`(\d(?:\.\d)?)\s*(?:/\s*5|stars?|★)?`)
	includesRe   = regexp.MustCompile(`(?i)includes?:?\s*([^.]{5,300})`)
)

// CleanDoctorName strips honorifics and trailing credentials from a
// candidate name. Returns "" when what remains is implausible.
func CleanDoctorName(raw string) string {
	name := strings.TrimSpace(raw)
	name = honorificRe.ReplaceAllString(name, "")
	// Drop anything after the first comma; credentials and roles follow it.
	if i := strings.Index(name, ","); i >= 0 {
		name = name[:i]
	}
	name = credentialRe.ReplaceAllString(name, "")
	name = strings.Trim(name, " .-–—\t\n")
	if len(name) < 4 || len(name) > 60 || !strings.Contains(name, " ") {
		return ""
	}
	return name
}

// Qualifications collects credential tokens from text, deduplicated and
// joined in order of appearance.
func Qualifications(text string) string {
	seen := map[string]struct{}{}
	var out []string
	for _, m := range credentialRe.FindAllString(text, -1) {
		key := strings.ToUpper(strings.ReplaceAll(m, ".", ""))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return strings.Join(out, ", ")
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n])
}

// Normalize coerces fragments into a deduplicated EntitySet for one
// facility. Normalizing is idempotent: feeding the same fragments twice
// yields the same set.
func Normalize(frags []model.RawFragment, facilityID string) model.EntitySet {
	var set model.EntitySet
	seenDoctor := map[string]int{}
	seenPrice := map[string]int{}
	seenReview := map[string]struct{}{}
	seenPackage := map[string]struct{}{}

	for _, f := range frags {
		switch f.Kind {
		case model.KindDoctor:
			normalizeDoctor(f, facilityID, &set, seenDoctor)
		case model.KindPrice:
			normalizePrice(f, facilityID, &set, seenPrice)
		case model.KindTestimonial:
			normalizeTestimonial(f, facilityID, &set, seenReview)
		case model.KindPackage:
			normalizePackage(f, facilityID, &set, seenPackage)
		}
	}
	return set
}

func normalizeDoctor(f model.RawFragment, facilityID string, set *model.EntitySet, seen map[string]int) {
	name := CleanDoctorName(f.Hint(model.HintName))
	if name == "" {
		return
	}

	quals := f.Hint(model.HintQualifications)
	if quals == "" {
		quals = Qualifications(f.Hint(model.HintName) + " " + f.Text)
	}
	specialty := strings.TrimSpace(f.Hint(model.HintSpecialty))
	bio := truncate(f.Hint(model.HintBio), maxBioLen)

	key := strings.ToLower(name)
	if idx, dup := seen[key]; dup {
		// Same doctor seen again: fill fields the first sighting lacked.
		d := &set.Doctors[idx]
		if d.Specialty == "" {
			d.Specialty = specialty
		}
		if d.Qualifications == "" {
			d.Qualifications = quals
		}
		if d.Bio == "" {
			d.Bio = bio
		}
		return
	}
	seen[key] = len(set.Doctors)
	set.Doctors = append(set.Doctors, model.Doctor{
		FacilityID:     facilityID,
		Name:           name,
		Specialty:      specialty,
		Qualifications: quals,
		Bio:            bio,
		Source:         f.Source,
	})
}

func normalizePrice(f model.RawFragment, facilityID string, set *model.EntitySet, seen map[string]int) {
	procedure := strings.TrimSpace(strings.Trim(f.Hint(model.HintProcedure), " :–—-"))
	if len(procedure) < 3 || len(procedure) > 100 {
		return
	}

	amount, ok := ParseAmount(f.Hint(model.HintAmount))
	if !ok || amount >= maxPlausiblePrice {
		return
	}

	currency := f.Hint(model.HintCurrency)
	if currency == "" {
		currency = CurrencyCode(f.Text)
	}

	priceType := f.Hint(model.HintPriceType)
	var rangeMax float64
	if raw := f.Hint(model.HintRangeMax); raw != "" {
		if v, ok := ParseAmount(raw); ok && v > amount {
			rangeMax = v
			priceType = model.PriceRange
		}
	}
	if priceType == "" {
		priceType = model.PriceStartingFrom
	}

	key := strings.ToLower(procedure)
	if _, dup := seen[key]; dup {
		return
	}
	seen[key] = len(set.Prices)
	set.Prices = append(set.Prices, model.PriceEntry{
		FacilityID: facilityID,
		Procedure:  procedure,
		Amount:     amount,
		Currency:   currency,
		PriceType:  priceType,
		RangeMax:   rangeMax,
		Source:     f.Source,
	})
}

func normalizeTestimonial(f model.RawFragment, facilityID string, set *model.EntitySet, seen map[string]struct{}) {
	if len(set.Testimonials) >= maxTestimonials {
		return
	}

	text := truncate(f.Text, maxReviewLen)
	if len(text) < 20 {
		return
	}

	author := strings.TrimSpace(f.Hint(model.HintAuthor))
	if author == "" {
		author = "Anonymous"
	}

	var rating *float64
	if raw := f.Hint(model.HintRating); raw != "" {
		if m := ratingRe.FindStringSubmatch(raw); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 && v <= 5 {
				rating = &v
			}
		}
	}

	key := strings.ToLower(truncate(text, 80))
	if _, dup := seen[key]; dup {
		return
	}
	seen[key] = struct{}{}
	set.Testimonials = append(set.Testimonials, model.Testimonial{
		FacilityID: facilityID,
		Author:     author,
		Text:       text,
		Rating:     rating,
		Source:     f.Source,
	})
}

func normalizePackage(f model.RawFragment, facilityID string, set *model.EntitySet, seen map[string]struct{}) {
	name := strings.TrimSpace(f.Hint(model.HintName))
	if len(name) < 5 || len(name) > 150 {
		return
	}

	description := truncate(f.Hint(model.HintDescription), maxBioLen)

	var price *float64
	if raw := f.Hint(model.HintPrice); raw != "" {
		if v, ok := ParseAmount(raw); ok && v < maxPlausiblePrice {
			price = &v
		}
	}

	included := strings.TrimSpace(f.Hint(model.HintIncludedServices))
	if included == "" {
		if m := includesRe.FindStringSubmatch(description + " " + f.Text); m != nil {
			included = strings.TrimSpace(m[1])
		}
	}

	key := strings.ToLower(name)
	if _, dup := seen[key]; dup {
		return
	}
	seen[key] = struct{}{}
	set.Packages = append(set.Packages, model.Package{
		FacilityID:       facilityID,
		Name:             name,
		Description:      description,
		Price:            price,
		IncludedServices: included,
		Source:           f.Source,
	})
}
