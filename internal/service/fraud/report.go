package fraud

import (
	"fmt"
	"strings"
)

// RenderMarkdown formats a review as the reviewer-facing report.
func RenderMarkdown(r *Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### Verdict: %s\n\n", r.Verdict)
	fmt.Fprintf(&b, "Score: %.0f (rule %.0f) · Confidence: %s (%.0f)\n\n", r.Score, r.RuleScore, r.Confidence, r.ConfidenceScore)

	b.WriteString("### Deep Analysis:\n\n")
	b.WriteString("**Timezone & GEO Logic:**\n")
	b.WriteString(r.Analysis.TimezoneGeo + "\n\n")
	b.WriteString("**Identity & Payment Logic:**\n")
	b.WriteString(r.Analysis.IdentityPayment + "\n\n")
	b.WriteString("**Domain & Policy Risk:**\n")
	b.WriteString(r.Analysis.DomainPolicy + "\n\n")

	if len(r.Assessment.Contributions) > 0 {
		b.WriteString("### Score Ledger:\n\n")
		b.WriteString("| Category | Reason | Weight | Score After | Exemption |\n")
		b.WriteString("|---|---|---:|---:|---|\n")
		for _, c := range r.Assessment.Contributions {
			fmt.Fprintf(&b, "| %s | %s | %+.0f | %.0f | %s |\n",
				c.Category, c.Reason, c.Weight, c.ScoreAfter, c.Exemption)
		}
		b.WriteString("\n")
	}

	b.WriteString("### False Positive Check:\n")
	b.WriteString(r.FalsePositive + "\n\n")
	b.WriteString("### Internal Note Summary:\n")
	b.WriteString(r.InternalNote + "\n\n")

	b.WriteString("### Tags:\n")
	quoted := make([]string, len(r.Tags))
	for i, t := range r.Tags {
		quoted[i] = "`" + t + "`"
	}
	b.WriteString(strings.Join(quoted, " ") + "\n")

	return b.String()
}
