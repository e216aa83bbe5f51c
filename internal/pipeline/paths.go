package pipeline

import "github.com/oasara/enrich-cli/internal/model"

// candidatePaths lists the URL suffixes worth probing for each entity
// kind, in priority order. The empty suffix is the homepage and always
// comes last: dedicated pages carry denser data when they exist.
var candidatePaths = map[model.EntityKind][]string{
	model.KindDoctor: {
		"/doctors", "/our-team", "/medical-staff", "/specialists",
		"/find-a-doctor", "/en/doctors", "/en/our-team",
		"/medical-professionals", "/physicians", "/staff", "",
	},
	model.KindPrice: {
		"/pricing", "/prices", "/costs", "/packages", "/treatment-costs",
		"/en/pricing", "/en/prices", "/price-list", "",
	},
	model.KindTestimonial: {
		"/testimonials", "/reviews", "/patient-stories", "/success-stories",
		"/patient-reviews", "/en/testimonials", "",
	},
	model.KindPackage: {
		"/packages", "/deals", "/offers", "/medical-packages",
		"/treatment-packages", "/en/packages", "",
	},
}

// NewTarget pairs a facility with the default candidate paths.
func NewTarget(f model.Facility) model.ExtractionTarget {
	return model.ExtractionTarget{Facility: f, Paths: candidatePaths}
}
