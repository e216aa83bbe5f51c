package model

// EntityKind identifies one of the four extracted entity variants.
type EntityKind string

const (
	KindDoctor      EntityKind = "doctor"
	KindPrice       EntityKind = "price"
	KindTestimonial EntityKind = "testimonial"
	KindPackage     EntityKind = "package"
)

// Kinds lists the entity kinds in extraction order.
var Kinds = []EntityKind{KindDoctor, KindPrice, KindTestimonial, KindPackage}

// Price type values carried on PriceEntry.
const (
	PriceStartingFrom = "starting_from"
	PriceRange        = "range"
	PriceExact        = "exact"
)

// Doctor is a practitioner listed on a facility site.
type Doctor struct {
	FacilityID     string `json:"facility_id"`
	Name           string `json:"name"`
	Specialty      string `json:"specialty,omitempty"`
	Qualifications string `json:"qualifications,omitempty"`
	Bio            string `json:"bio,omitempty"`
	Source         string `json:"source"`
}

// PriceEntry is one procedure price. Amount is the lower bound when
// PriceType is "range", with RangeMax holding the upper bound.
type PriceEntry struct {
	FacilityID string  `json:"facility_id"`
	Procedure  string  `json:"procedure"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	PriceType  string  `json:"price_type"`
	RangeMax   float64 `json:"range_max,omitempty"`
	Source     string  `json:"source"`
}

// Testimonial is a patient review. Rating is nil when the page shows
// no numeric rating.
type Testimonial struct {
	FacilityID string   `json:"facility_id"`
	Author     string   `json:"author"`
	Text       string   `json:"text"`
	Rating     *float64 `json:"rating,omitempty"`
	Source     string   `json:"source"`
}

// Package is a bundled treatment offer.
type Package struct {
	FacilityID       string   `json:"facility_id"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	Price            *float64 `json:"price,omitempty"`
	IncludedServices string   `json:"included_services,omitempty"`
	Source           string   `json:"source"`
}

// EntitySet groups the normalized entities extracted for one facility.
type EntitySet struct {
	Doctors      []Doctor      `json:"doctors"`
	Prices       []PriceEntry  `json:"prices"`
	Testimonials []Testimonial `json:"testimonials"`
	Packages     []Package     `json:"packages"`
}

// Total is the item count across every kind.
func (s EntitySet) Total() int {
	return len(s.Doctors) + len(s.Prices) + len(s.Testimonials) + len(s.Packages)
}

// Count returns the item count for a single kind.
func (s EntitySet) Count(kind EntityKind) int {
	switch kind {
	case KindDoctor:
		return len(s.Doctors)
	case KindPrice:
		return len(s.Prices)
	case KindTestimonial:
		return len(s.Testimonials)
	case KindPackage:
		return len(s.Packages)
	}
	return 0
}
