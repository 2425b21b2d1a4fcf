package entities

// AudioBuffer is a prepared single-channel waveform. After preparation the
// samples are in [-1,1] and DurationSec equals len(Samples)/SampleRate.
type AudioBuffer struct {
	Samples     []float64 `json:"-"`
	SampleRate  int       `json:"sample_rate"`
	DurationSec float64   `json:"duration_sec"`
}

// NewAudioBuffer derives DurationSec from the sample count.
func NewAudioBuffer(samples []float64, sampleRate int) AudioBuffer {
	dur := 0.0
	if sampleRate > 0 {
		dur = float64(len(samples)) / float64(sampleRate)
	}
	return AudioBuffer{Samples: samples, SampleRate: sampleRate, DurationSec: dur}
}
