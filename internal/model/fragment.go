package model

// Hint keys shared between extraction strategies and the normalizer.
// Strategies stay loose: they attach whatever string evidence they
// found, and the normalizer does the typed coercion.
const (
	HintName             = "name"
	HintSpecialty        = "specialty"
	HintQualifications   = "qualifications"
	HintBio              = "bio"
	HintProcedure        = "procedure"
	HintAmount           = "amount"
	HintCurrency         = "currency"
	HintPriceType        = "price_type"
	HintRangeMax         = "range_max"
	HintAuthor           = "author"
	HintRating           = "rating"
	HintDescription      = "description"
	HintPrice            = "price"
	HintIncludedServices = "included_services"
)

// RawFragment is one piece of candidate evidence produced by an
// extraction strategy, before normalization.
type RawFragment struct {
	Kind   EntityKind
	Source string
	Text   string
	Hints  map[string]string
}

// Hint returns the named hint, or "" when absent.
func (f RawFragment) Hint(key string) string {
	if f.Hints == nil {
		return ""
	}
	return f.Hints[key]
}

// NewFragment builds a fragment with an initialized hint map.
func NewFragment(kind EntityKind, source, text string) RawFragment {
	return RawFragment{Kind: kind, Source: source, Text: text, Hints: map[string]string{}}
}
