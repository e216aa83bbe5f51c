package vision

import "fmt"

const promptTemplate = `You are analyzing screenshots from %s, a medical facility in %s, %s.

Website: %s

Extract the following information from these screenshots:

1. DOCTORS/PHYSICIANS
   - Doctor names (look for "Dr.", "MD", "Professor", physician profiles)
   - Specialties (Cardiology, Orthopedics, Cosmetic Surgery, etc.)
   - Qualifications (MD, PhD, MBBS, FRCS, etc.)
   - Short bio text if shown

2. PRICING INFORMATION
   - Procedure names (Breast Augmentation, LASIK, IVF, etc.)
   - Prices (in any currency - USD, THB, EUR, etc.)
   - Whether prices are "starting_from", "range", or "exact"
   - For ranges, the upper bound as price_max

3. TESTIMONIALS/REVIEWS
   - Patient testimonials or success stories
   - Ratings if visible
   - Brief quotes

4. PACKAGES/DEALS
   - Package names (all-inclusive packages, treatment bundles)
   - What is included
   - Prices if shown

IMPORTANT:
- Only extract information you can clearly see in the images
- If you cannot find something, leave that section as an empty array
- Note the ISO currency code for every price
- Be thorough: extract ALL visible doctors, prices, testimonials, packages

Return your response as a JSON object inside a fenced code block with this structure:

` + "```json" + `
{
  "doctors": [
    {"name": "Dr. John Smith", "specialty": "Cardiology", "qualifications": "MD, FACC", "bio": ""}
  ],
  "pricing": [
    {"procedure": "Breast Augmentation", "price": 5000, "currency": "USD", "price_type": "starting_from", "price_max": 0}
  ],
  "testimonials": [
    {"patient_name": "Sarah M.", "review_text": "Excellent care and results...", "rating": 5}
  ],
  "packages": [
    {"package_name": "Complete Health Checkup Package", "description": "", "price": 450, "included_services": ""}
  ],
  "metadata": {"data_found": true, "confidence": "high", "notes": ""}
}
` + "```"

// BuildPrompt renders the extraction instructions for one facility.
func BuildPrompt(req Request) string {
	city := req.City
	if city == "" {
		city = "an unknown city"
	}
	country := req.Country
	if country == "" {
		country = "an unknown country"
	}
	return fmt.Sprintf(promptTemplate, req.FacilityName, city, country, req.Website)
}
