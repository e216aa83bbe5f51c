package pipeline

import (
	"fmt"
	"strings"

	"github.com/oasara/enrich-cli/internal/model"
)

// FormatReport renders a human-readable batch summary.
func FormatReport(report *model.BatchReport) string {
	var b strings.Builder

	b.WriteString("# Enrichment Report\n")
	fmt.Fprintf(&b, "Started: %s\n", report.StartedAt)
	fmt.Fprintf(&b, "Elapsed: %.1fs\n\n", report.ElapsedSecs)

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Processed: %d\n", report.Processed())
	fmt.Fprintf(&b, "- Succeeded: %d\n", report.Succeeded)
	fmt.Fprintf(&b, "- Partial: %d\n", report.Partial)
	fmt.Fprintf(&b, "- Failed: %d\n", report.Failed)
	fmt.Fprintf(&b, "- Success rate: %.0f%%\n\n", report.SuccessRate()*100)

	doctors, prices, testimonials, packages := report.Totals()
	b.WriteString("## Extracted Data\n")
	fmt.Fprintf(&b, "- Doctors: %d\n", doctors)
	fmt.Fprintf(&b, "- Prices: %d\n", prices)
	fmt.Fprintf(&b, "- Testimonials: %d\n", testimonials)
	fmt.Fprintf(&b, "- Packages: %d\n\n", packages)

	top := report.TopPerformers(5)
	if len(top) > 0 && top[0].TotalItems > 0 {
		b.WriteString("## Top Performers\n")
		for _, r := range top {
			if r.TotalItems == 0 {
				break
			}
			fmt.Fprintf(&b, "- %s: %d items (%d doctors, %d prices, %d testimonials, %d packages)\n",
				r.FacilityName, r.TotalItems, r.Doctors, r.Prices, r.Testimonials, r.Packages)
		}
		b.WriteString("\n")
	}

	var failed []model.RunResult
	for _, r := range report.Details {
		if r.Status == model.RunFailed {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		b.WriteString("## Failed Facilities\n")
		for _, r := range failed {
			fmt.Fprintf(&b, "- %s", r.FacilityName)
			if len(r.Errors) > 0 {
				fmt.Fprintf(&b, ": %s", strings.Join(r.Errors, "; "))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Recommendations\n")
	switch rate := report.SuccessRate(); {
	case report.Processed() == 0:
		b.WriteString("- No facilities processed.\n")
	case rate < 0.3:
		b.WriteString("- Success rate is low; re-run with --use-vision to recover data from heavily scripted sites.\n")
	case rate < 0.5:
		b.WriteString("- Consider re-running failed facilities with --use-vision.\n")
	default:
		b.WriteString("- Extraction is performing well; continue with the current configuration.\n")
	}

	return b.String()
}
