package strategy

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/oasara/enrich-cli/internal/fetch"
	"github.com/oasara/enrich-cli/internal/model"
)

// Structural extracts entities from the rendered DOM using layered
// selector patterns: class-based cards first, then data attributes,
// then semantic markup, then list items. When no container pattern
// matches it falls back to scanning individual elements for title
// markers.
type Structural struct{}

// NewStructural creates a Structural strategy.
func NewStructural() *Structural { return &Structural{} }

func (s *Structural) Name() string { return "structural" }

// Extract parses the snapshot HTML and dispatches per kind.
func (s *Structural) Extract(_ context.Context, snap *fetch.PageSnapshot, kind model.EntityKind) ([]model.RawFragment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		return nil, eris.Wrap(err, "structural: parse html")
	}

	switch kind {
	case model.KindDoctor:
		return s.doctors(doc), nil
	case model.KindPrice:
		return s.prices(doc), nil
	case model.KindTestimonial:
		return s.testimonials(doc), nil
	case model.KindPackage:
		return s.packages(doc), nil
	}
	return nil, nil
}

// doctorPattern groups container and sub-element selectors for one
// markup convention.
type doctorPattern struct {
	container string
	name      string
	specialty string
	bio       string
}

var doctorPatterns = []doctorPattern{
	{
		container: `.doctor-card, .physician-card, .staff-card, .team-member, .doctor, .physician, .staff-member, [class*="doctor"], [class*="physician"], [class*="staff"]`,
		name:      `h1, h2, h3, h4, h5, .name, .doctor-name, .physician-name, [class*="name"]`,
		specialty: `.specialty, .department, .expertise, .specialization, [class*="specialty"], [class*="department"]`,
		bio:       `.bio, .description, .about, p, [class*="bio"], [class*="description"]`,
	},
	{
		container: `[data-doctor], [data-physician], [data-staff], [itemtype*="Physician"]`,
		name:      `[data-name], [itemprop="name"]`,
		specialty: `[data-specialty], [itemprop="medicalSpecialty"]`,
		bio:       `[data-bio], [itemprop="description"]`,
	},
	{
		container: `article, section.doctor, section.physician, section.team`,
		name:      `header h1, header h2, header h3, .title h1, .title h2, .title h3, h2, h3`,
		specialty: `.position, .role, .title`,
		bio:       `.content, .text, .body, p`,
	},
	{
		container: `li.doctor, li.physician, li.staff, ul.doctors li, ul.team li, ol.doctors li`,
		name:      `strong, b, h3, h4, .name`,
		specialty: `em, i, .specialty`,
		bio:       `p, span`,
	},
}

var doctorContextRe = regexp.MustCompile(`(?i)\bdr\.?\s|doctor|physician|professor|surgeon|specialist|\bMD\b|\bM\.D\.|\bPhD\b|\bMBBS\b|\bFRCS\b|\bFACS\b`)

var fallbackNameRe = regexp.MustCompile(`(?:Dr\.?|Professor)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`)

func firstText(sel *goquery.Selection, selector string) string {
	return strings.TrimSpace(sel.Find(selector).First().Text())
}

func (s *Structural) doctors(doc *goquery.Document) []model.RawFragment {
	var frags []model.RawFragment
	seen := map[string]struct{}{}

	add := func(name, specialty, bio, context string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		f := model.NewFragment(model.KindDoctor, s.Name(), context)
		f.Hints[model.HintName] = name
		f.Hints[model.HintSpecialty] = strings.TrimSpace(specialty)
		f.Hints[model.HintBio] = strings.TrimSpace(bio)
		frags = append(frags, f)
	}

	for _, p := range doctorPatterns {
		doc.Find(p.container).Each(func(_ int, card *goquery.Selection) {
			text := strings.TrimSpace(card.Text())
			// Containers matched on loose class substrings need doctor
			// context in their text to count.
			if !doctorContextRe.MatchString(text) {
				return
			}
			name := firstText(card, p.name)
			if name == "" {
				return
			}
			add(name, firstText(card, p.specialty), firstText(card, p.bio), text)
		})
		if len(frags) > 0 {
			return frags
		}
	}

	// No card markup matched: scan leaf elements for title markers.
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, td, strong").Each(func(_ int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Text())
		if len(text) > 300 {
			return
		}
		for _, m := range fallbackNameRe.FindAllStringSubmatch(text, -1) {
			add(m[0], "", "", text)
		}
	})
	return frags
}

var amountRe = regexp.MustCompile(`[\$€£¥₹฿]\s*[\d][\d.,]*|\b[\d]{1,3}(?:,[\d]{3})+\b`)

func (s *Structural) prices(doc *goquery.Document) []model.RawFragment {
	var frags []model.RawFragment
	seen := map[string]struct{}{}

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		var procedure, amountText string
		row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			text := strings.TrimSpace(cell.Text())
			switch {
			case amountText == "" && amountRe.MatchString(text):
				amountText = text
			case procedure == "" && len(text) >= 3 && len(text) <= 100:
				procedure = text
			}
		})
		if procedure == "" || amountText == "" {
			return
		}
		key := strings.ToLower(procedure)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		f := model.NewFragment(model.KindPrice, s.Name(), procedure+" "+amountText)
		f.Hints[model.HintProcedure] = procedure
		f.Hints[model.HintAmount] = amountRe.FindString(amountText)
		frags = append(frags, f)
	})
	return frags
}

const testimonialContainers = `.testimonial, .review, .patient-story, .patient-review, [class*="testimonial"], [class*="review"], [itemprop="review"]`

func (s *Structural) testimonials(doc *goquery.Document) []model.RawFragment {
	var frags []model.RawFragment

	doc.Find(testimonialContainers).Each(func(_ int, card *goquery.Selection) {
		body := firstText(card, `.text, .content, .review-text, blockquote, p`)
		if body == "" {
			body = strings.TrimSpace(card.Text())
		}
		if len(body) < 20 {
			return
		}

		f := model.NewFragment(model.KindTestimonial, s.Name(), body)
		f.Hints[model.HintAuthor] = firstText(card, `.author, .name, .patient-name, cite, [class*="author"], [class*="name"]`)
		f.Hints[model.HintRating] = firstText(card, `[class*="rating"], [class*="star"], [itemprop="ratingValue"]`)
		frags = append(frags, f)
	})
	return frags
}

const packageContainers = `.package, .deal, .offer, .treatment-package, [class*="package"], [class*="deal"], [class*="offer"]`

func (s *Structural) packages(doc *goquery.Document) []model.RawFragment {
	var frags []model.RawFragment
	seen := map[string]struct{}{}

	doc.Find(packageContainers).Each(func(_ int, card *goquery.Selection) {
		name := firstText(card, `h1, h2, h3, h4, .title, .name`)
		if len(name) < 5 {
			return
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		text := strings.TrimSpace(card.Text())
		f := model.NewFragment(model.KindPackage, s.Name(), text)
		f.Hints[model.HintName] = name
		f.Hints[model.HintDescription] = firstText(card, `.description, .details, p`)
		if amount := amountRe.FindString(text); amount != "" {
			f.Hints[model.HintPrice] = amount
		}
		frags = append(frags, f)
	})
	return frags
}
