package fraud

// Queue tags
const (
	TagMultiSignal  = "MULTI_SIGNAL"
	TagLowSignal    = "LOW_SIGNAL"
	TagGeoOutsource = "GEO_OUTSOURCED"
	TagGeoAnomaly   = "GEO_ANOMALY"
	TagGeoConsist   = "GEO_CONSISTENT"
	TagCloaking     = "CLOAKING_RISK"
	TagCleanContent = "CLEAN_CONTENT"
	TagIntelPartial = "EXTERNAL_INTEL_PARTIAL"
	TagModelAdjust  = "ML_ADJUSTED"
	TagAuto         = "AUTO"
)

// MultiSignalScore is the score from which a review is tagged MULTI_SIGNAL.
const MultiSignalScore = 40.0

// Confidence scoring
const (
	// ConfidenceHighFrom is the lowest confidence score reported as high
	ConfidenceHighFrom = 80.0

	// ConfidenceMediumFrom is the lowest confidence score reported as medium
	ConfidenceMediumFrom = 60.0

	// ConfidenceDegradedPenalty is subtracted per unavailable intel lookup
	ConfidenceDegradedPenalty = 15.0

	// ConfidenceDegradedMax caps the total intel penalty
	ConfidenceDegradedMax = 30.0

	// ConfidenceUncheckedPenalty applies when URLs exist but nothing looked at them
	ConfidenceUncheckedPenalty = 10.0
)

// DefaultBatchWorkers is used when the batch worker count is not positive.
const DefaultBatchWorkers = 4
