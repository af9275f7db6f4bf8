package review

import "sort"

// Category groups contributions for explanation and auditing.
type Category string

const (
	CategoryTimezone Category = "timezone"
	CategoryEmail    Category = "email"
	CategoryIdentity Category = "identity"
	CategoryPayment  Category = "payment"
	CategoryContent  Category = "content"
	CategoryDomain   Category = "domain"
)

// Exemption is a false-positive override that subtracts an earlier penalty.
type Exemption string

const (
	ExemptionOutsourcedAgency    Exemption = "outsourced_agency"
	ExemptionEnterpriseEmail     Exemption = "enterprise_email"
	ExemptionFamilyCorporateCard Exemption = "family_corporate_card"
	ExemptionVerifiedDirector    Exemption = "verified_director"
)

// Contribution is one signed entry in the score ledger. Exemption entries
// carry the reason of the penalty they offset and a negative weight.
type Contribution struct {
	Category   Category  `json:"category"`
	Reason     string    `json:"reason"`
	Weight     float64   `json:"weight"`
	ScoreAfter float64   `json:"score_after"`
	Exemption  Exemption `json:"exemption,omitempty"`
}

// Assessment accumulates the rule-based score of one evaluation. The
// scorer owns it while scoring; callers receive a finished copy.
type Assessment struct {
	Score           float64        `json:"score"`
	Contributions   []Contribution `json:"contributions"`
	Exemptions      []Exemption    `json:"exemptions"`
	PositiveSignals []string       `json:"positive_signals"`
	// MixedSignal marks an exemption that fired while other penalties remain.
	MixedSignal bool `json:"mixed_signal"`
	// FuzzyIdentity marks a near-miss identity match needing a human look.
	FuzzyIdentity bool `json:"fuzzy_identity"`
	// HardReject lists fired combinations that reject irrespective of score.
	HardReject []string `json:"hard_reject,omitempty"`
}

// Penalize adds a positive contribution and clamps the running score.
func (a *Assessment) Penalize(cat Category, reason string, weight float64) {
	if weight <= 0 {
		return
	}
	a.Score = Clamp(a.Score + weight)
	a.Contributions = append(a.Contributions, Contribution{
		Category:   cat,
		Reason:     reason,
		Weight:     weight,
		ScoreAfter: a.Score,
	})
}

// Exempt subtracts fraction (0,1] of the outstanding penalty for reason and
// records the exemption. It reports whether anything was subtracted.
func (a *Assessment) Exempt(ex Exemption, reason string, fraction float64) bool {
	outstanding := a.Net(reason)
	if outstanding <= 0 || fraction <= 0 {
		return false
	}
	if fraction > 1 {
		fraction = 1
	}
	cat := a.categoryOf(reason)
	delta := -outstanding * fraction
	a.Score = Clamp(a.Score + delta)
	a.Contributions = append(a.Contributions, Contribution{
		Category:   cat,
		Reason:     reason,
		Weight:     delta,
		ScoreAfter: a.Score,
		Exemption:  ex,
	})
	a.markExemption(ex)
	return true
}

// Net returns the summed weight of all entries for reason.
func (a *Assessment) Net(reason string) float64 {
	total := 0.0
	for _, c := range a.Contributions {
		if c.Reason == reason {
			total += c.Weight
		}
	}
	return total
}

// OutstandingPenalties returns reasons whose net weight is still positive,
// ordered by descending weight then name.
func (a *Assessment) OutstandingPenalties() []string {
	net := make(map[string]float64)
	var order []string
	for _, c := range a.Contributions {
		if _, seen := net[c.Reason]; !seen {
			order = append(order, c.Reason)
		}
		net[c.Reason] += c.Weight
	}
	var out []string
	for _, r := range order {
		if net[r] > 0 {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if net[out[i]] != net[out[j]] {
			return net[out[i]] > net[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// HasRulePenalty reports whether at least one rule-based penalty survived
// the exemptions.
func (a *Assessment) HasRulePenalty() bool {
	return len(a.OutstandingPenalties()) > 0
}

// HasOutstanding reports whether a penalty in cat survived the exemptions.
func (a *Assessment) HasOutstanding(cat Category) bool {
	for _, r := range a.OutstandingPenalties() {
		if a.categoryOf(r) == cat {
			return true
		}
	}
	return false
}

// HasExemption reports whether ex fired.
func (a *Assessment) HasExemption(ex Exemption) bool {
	for _, e := range a.Exemptions {
		if e == ex {
			return true
		}
	}
	return false
}

// AddPositive records a clean signal used by the between-bands approve rule.
func (a *Assessment) AddPositive(signal string) {
	a.PositiveSignals = append(a.PositiveSignals, signal)
}

// Copy returns a deep copy that shares no slices with a.
func (a Assessment) Copy() Assessment {
	out := a
	out.Contributions = append([]Contribution(nil), a.Contributions...)
	out.Exemptions = append([]Exemption(nil), a.Exemptions...)
	out.PositiveSignals = append([]string(nil), a.PositiveSignals...)
	out.HardReject = append([]string(nil), a.HardReject...)
	return out
}

func (a *Assessment) categoryOf(reason string) Category {
	for _, c := range a.Contributions {
		if c.Reason == reason {
			return c.Category
		}
	}
	return ""
}

func (a *Assessment) markExemption(ex Exemption) {
	if !a.HasExemption(ex) {
		a.Exemptions = append(a.Exemptions, ex)
	}
}

// Clamp bounds a score to [0, 100].
func Clamp(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
