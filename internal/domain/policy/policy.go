package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
)

// Config is the decision policy: band thresholds, the shell-address list
// and the weight table. It is loaded once per run and passed by value to
// every component; nothing mutates it during evaluation.
type Config struct {
	MLAutoApproveThreshold          float64 `koanf:"ml_auto_approve_threshold" json:"ml_auto_approve_threshold"`
	MLAutoRejectThreshold           float64 `koanf:"ml_auto_reject_threshold" json:"ml_auto_reject_threshold"`
	ClockMismatchMinutesThreshold   int     `koanf:"clock_mismatch_minutes_threshold" json:"clock_mismatch_minutes_threshold"`
	RejectRiskThreshold             float64 `koanf:"reject_risk_threshold" json:"reject_risk_threshold"`
	ApproveRiskThreshold            float64 `koanf:"approve_risk_threshold" json:"approve_risk_threshold"`
	ApprovePositiveSignalsThreshold int     `koanf:"approve_positive_signals_threshold" json:"approve_positive_signals_threshold"`

	// MLAdjustmentCap bounds the magnitude of the learned score delta.
	MLAdjustmentCap float64 `koanf:"ml_adjustment_cap" json:"ml_adjustment_cap"`
	// ClockDriftToleranceMinutes is how far a delta may sit from a
	// 15-minute boundary and still count as a natural offset.
	ClockDriftToleranceMinutes int `koanf:"clock_drift_tolerance_minutes" json:"clock_drift_tolerance_minutes"`
	// OutsourcingOffsetsMinutes are network UTC offsets of common
	// business-outsourcing hubs.
	OutsourcingOffsetsMinutes []int `koanf:"outsourcing_offsets_minutes" json:"outsourcing_offsets_minutes"`

	ShellAddresses []string `koanf:"shell_addresses" json:"shell_addresses"`
	Weights        Weights  `koanf:"weights" json:"weights"`
}

var addressNoise = regexp.MustCompile(`[^a-z0-9]+`)

// Default returns the built-in policy.
func Default() Config {
	return Config{
		MLAutoApproveThreshold:          30,
		MLAutoRejectThreshold:           85,
		ClockMismatchMinutesThreshold:   60,
		RejectRiskThreshold:             70,
		ApproveRiskThreshold:            25,
		ApprovePositiveSignalsThreshold: 4,
		MLAdjustmentCap:                 10,
		ClockDriftToleranceMinutes:      0,
		OutsourcingOffsetsMinutes:       []int{330, 420, 480},
		ShellAddresses: []string{
			"1603 capitol ave, cheyenne, wy",
			"30 n gould st, sheridan, wy",
			"251 little falls dr, wilmington, de",
			"2711 centerville rd, wilmington, de",
			"1209 orange st, wilmington, de",
		},
		Weights: DefaultWeights(),
	}
}

// Clone returns a copy that shares no slices with c.
func (c Config) Clone() Config {
	out := c
	out.OutsourcingOffsetsMinutes = append([]int(nil), c.OutsourcingOffsetsMinutes...)
	out.ShellAddresses = append([]string(nil), c.ShellAddresses...)
	return out
}

// Validate reports the first invalid setting as a configuration error.
func (c Config) Validate() error {
	thresholds := []struct {
		name  string
		value float64
	}{
		{"ml_auto_approve_threshold", c.MLAutoApproveThreshold},
		{"ml_auto_reject_threshold", c.MLAutoRejectThreshold},
		{"reject_risk_threshold", c.RejectRiskThreshold},
		{"approve_risk_threshold", c.ApproveRiskThreshold},
		{"ml_adjustment_cap", c.MLAdjustmentCap},
	}
	for _, th := range thresholds {
		if th.value < 0 || th.value > 100 {
			return invalid(th.name, fmt.Sprintf("%s must be within [0, 100], got %g", th.name, th.value))
		}
	}

	if c.MLAutoApproveThreshold >= c.MLAutoRejectThreshold {
		return invalid("ml_auto_approve_threshold", "ml_auto_approve_threshold must be below ml_auto_reject_threshold")
	}
	if c.ApproveRiskThreshold >= c.RejectRiskThreshold {
		return invalid("approve_risk_threshold", "approve_risk_threshold must be below reject_risk_threshold")
	}
	if c.ClockMismatchMinutesThreshold <= 0 || c.ClockMismatchMinutesThreshold > 720 {
		return invalid("clock_mismatch_minutes_threshold", "clock_mismatch_minutes_threshold must be within (0, 720]")
	}
	if c.ApprovePositiveSignalsThreshold < 0 || c.ApprovePositiveSignalsThreshold > 100 {
		return invalid("approve_positive_signals_threshold", "approve_positive_signals_threshold must be within [0, 100]")
	}
	if c.ClockDriftToleranceMinutes < 0 || c.ClockDriftToleranceMinutes > 7 {
		return invalid("clock_drift_tolerance_minutes", "clock_drift_tolerance_minutes must be within [0, 7]")
	}
	for _, off := range c.OutsourcingOffsetsMinutes {
		if off < -720 || off > 840 {
			return invalid("outsourcing_offsets_minutes", fmt.Sprintf("offset %d is not a valid UTC offset", off))
		}
	}
	for _, addr := range c.ShellAddresses {
		if strings.TrimSpace(addr) == "" {
			return invalid("shell_addresses", "shell_addresses must not contain blank entries")
		}
	}
	return c.Weights.Validate()
}

// IsShellAddress reports whether address contains a known shell or
// registered-agent address. Comparison ignores case and punctuation.
func (c Config) IsShellAddress(address string) bool {
	norm := normalizeAddress(address)
	if norm == "" {
		return false
	}
	for _, shell := range c.ShellAddresses {
		if s := normalizeAddress(shell); s != "" && strings.Contains(norm, s) {
			return true
		}
	}
	return false
}

// IsOutsourcingOffset reports whether a UTC offset belongs to a common
// business-outsourcing hub.
func (c Config) IsOutsourcingOffset(minutes int) bool {
	for _, off := range c.OutsourcingOffsetsMinutes {
		if off == minutes {
			return true
		}
	}
	return false
}

func normalizeAddress(s string) string {
	return strings.TrimSpace(addressNoise.ReplaceAllString(strings.ToLower(s), " "))
}

func invalid(field, msg string) error {
	return errors.NewConfigurationError("INVALID_POLICY", msg).
		WithDetails(map[string]interface{}{"field": field})
}
