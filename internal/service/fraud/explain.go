package fraud

import (
	"fmt"
	"math"
	"strings"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/policy"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/values"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/verdict"
)

const maxNoteFactors = 4

// reasons lists what drove the verdict: fired guardrails, hard-reject
// combinations, then penalties still outstanding after exemptions.
func reasons(ev evaluation) []string {
	out := make([]string, 0, len(ev.guard.Fired)+len(ev.assessment.HardReject)+4)
	out = append(out, ev.guard.Fired...)
	out = append(out, ev.assessment.HardReject...)
	for _, r := range ev.assessment.OutstandingPenalties() {
		if !contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}

func tags(ev evaluation) []string {
	out := []string{ev.decision.Verdict.Tag()}

	if ev.score >= MultiSignalScore {
		out = append(out, TagMultiSignal)
	} else {
		out = append(out, TagLowSignal)
	}

	switch {
	case ev.assessment.HasExemption(review.ExemptionOutsourcedAgency):
		out = append(out, TagGeoOutsource)
	case ev.signals.LargeOffset:
		out = append(out, TagGeoAnomaly)
	default:
		out = append(out, TagGeoConsist)
	}

	if ev.signals.Content.Any() {
		out = append(out, TagCloaking)
	} else {
		out = append(out, TagCleanContent)
	}

	if ev.guard.Terminal {
		out = append(out, TagAuto)
	}
	if ev.signals.IntelDegraded > 0 {
		out = append(out, TagIntelPartial)
	}
	if ev.adjustment.Applied && ev.adjustment.Delta != 0 {
		out = append(out, TagModelAdjust)
	}
	return out
}

// confidence rates how settled the verdict is. Decisions far from a band
// edge rate higher; missing or degraded URL evidence rates lower, and a
// partial intel run is never reported as high.
func confidence(ev evaluation, p policy.Config) (float64, review.Confidence) {
	var score float64
	switch ev.decision.Rule {
	case verdict.RuleGuardrail, verdict.RuleHardReject:
		score = 95
	case verdict.RuleRejectBand:
		score = 70 + math.Min(ev.score-p.RejectRiskThreshold, 30)
	case verdict.RuleApproveBand:
		score = 70 + math.Min(p.ApproveRiskThreshold-ev.score, 25)
	case verdict.RulePositiveSignals:
		score = 65
	default:
		score = 50
	}

	if ev.signals.IntelDegraded > 0 {
		score -= math.Min(float64(ev.signals.IntelDegraded)*ConfidenceDegradedPenalty, ConfidenceDegradedMax)
	}
	if ev.signals.URLCount > 0 && ev.signals.URLStatus == review.URLUnknown && !ev.intelChecked {
		score -= ConfidenceUncheckedPenalty
	}
	score = math.Round(review.Clamp(score))

	level := review.ConfidenceLow
	switch {
	case score >= ConfidenceHighFrom:
		level = review.ConfidenceHigh
	case score >= ConfidenceMediumFrom:
		level = review.ConfidenceMedium
	}
	if level == review.ConfidenceHigh && ev.signals.IntelDegraded > 0 {
		level = review.ConfidenceMedium
	}
	return score, level
}

func analysis(ev evaluation) Analysis {
	s := ev.signals

	offset := "unknown"
	if s.NetworkOffsetKnown {
		offset = values.FormatOffset(s.NetworkOffsetMinutes)
	}

	return Analysis{
		TimezoneGeo: fmt.Sprintf(
			"Clock delta=%d min, network offset=%s. Natural offset=%s; chaotic offset=%s; outsourced exemption=%s.",
			s.ClockDeltaMinutes, offset,
			yesNo(!s.ChaoticOffset), yesNo(s.ChaoticOffset),
			yesNo(ev.assessment.HasExemption(review.ExemptionOutsourcedAgency))),
		IdentityPayment: fmt.Sprintf(
			"Identity match=%s; surname match=%s; card tier=%s; instrument=%s; shell address=%s; foreign card=%s; verified director=%s.",
			s.IdentityMatch, yesNo(s.SurnameMatch), s.CardTier, s.Instrument,
			yesNo(s.ShellAddress), yesNo(s.CardCountryMismatch), yesNo(s.VerifiedDirector)),
		DomainPolicy: fmt.Sprintf(
			"URL status=%s; parked=%s, safe-template=%s, bait-switch=%s; domain relation=%s; whois=%s. Rule score=%.0f, final score=%.0f, positive signals=%d.",
			s.URLStatus, yesNo(s.Content.Parked), yesNo(s.Content.SafePageTemplate), yesNo(s.Content.BaitSwitch),
			orNA(string(s.DomainRelation)), orNA(string(s.Whois)),
			ev.assessment.Score, ev.score, len(ev.assessment.PositiveSignals)),
	}
}

func finalReason(ev evaluation) string {
	switch ev.decision.Rule {
	case verdict.RuleGuardrail:
		return "guardrail " + ev.guard.Guardrail
	case verdict.RuleHardReject:
		return "hard reject: " + strings.Join(ev.assessment.HardReject, ", ")
	}

	factors := ev.assessment.OutstandingPenalties()
	if len(factors) == 0 {
		return fmt.Sprintf("%s (score %.0f): no outstanding risk factors", ev.decision.Rule, ev.score)
	}
	if len(factors) > 3 {
		factors = factors[:3]
	}
	return fmt.Sprintf("%s (score %.0f): %s", ev.decision.Rule, ev.score, strings.Join(factors, ", "))
}

func falsePositiveNote(ev evaluation) string {
	switch {
	case ev.decision.Verdict == review.VerdictConditionalHoldURL:
		return "Not assessed: the account is held until a destination URL is supplied."
	case ev.decision.Verdict == review.VerdictReject && ev.decision.Rule == verdict.RuleGuardrail:
		return "Not a manual false-positive case: the upstream model score is above the auto-reject bound."
	case ev.decision.Verdict == review.VerdictReject:
		return "Not a false positive: independent indicators align across identity, geo and content rather than one noisy flag."
	default:
		return "False-positive exemptions (outsourced agency, enterprise email, family or corporate card, verified director) were evaluated before any rejection."
	}
}

func internalNote(ev evaluation) string {
	model := ""
	if ev.adjustment.Applied {
		model = fmt.Sprintf(", model %s delta %+.1f", ev.adjustment.ModelVersion, ev.adjustment.Delta)
		if ev.adjustment.Gated {
			model += " gated"
		}
	}

	factors := reasons(ev)
	if len(factors) > maxNoteFactors {
		factors = factors[:maxNoteFactors]
	}
	key := "none"
	if len(factors) > 0 {
		key = strings.Join(factors, "; ")
	}

	return fmt.Sprintf("Decision=%s via %s at score %.0f (rule score %.0f%s). Key factors: %s.",
		ev.decision.Verdict, ev.decision.Rule, ev.score, ev.assessment.Score, model, key)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
