package entities

// FeatureDim is the number of action-unit intensities supplied per frame
// (AU01, AU02, AU04, AU05, AU06, AU07, AU12, AU14, AU15, AU17, AU20, AU25).
const FeatureDim = 12

// FrameObservation is one action-unit vector from the external landmark
// extractor. Observations arrive ordered by Frame with non-decreasing
// timestamps and are consumed read-only.
type FrameObservation struct {
	Frame        int       `json:"frame"`
	TimestampSec float64   `json:"timestamp_sec"`
	Features     []float64 `json:"features"`
}
