package audio

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/lucerovega/mirada/server/domain/entities"
)

const (
	// DefaultSampleRate is the canonical analysis rate.
	DefaultSampleRate = 16000
	// DefaultWindowSeconds is the fixed analysis window.
	DefaultWindowSeconds = 10.0

	resampleTaps = 16
)

// Preparer turns container audio into the canonical analysis waveform:
// mono, 16 kHz, peak-normalized, fixed-length. It is a pure data transform
// with no model dependency.
type Preparer struct {
	targetRate    int
	windowSeconds float64
	logger        *zap.Logger
}

// NewPreparer builds a preparer for the given canonical rate and window.
func NewPreparer(targetRate int, windowSeconds float64, logger *zap.Logger) *Preparer {
	return &Preparer{targetRate: targetRate, windowSeconds: windowSeconds, logger: logger}
}

// Prepare decodes WAV bytes and runs the full chain: downmix, resample,
// normalize, pad-or-truncate.
func (p *Preparer) Prepare(data []byte) (entities.AudioBuffer, error) {
	samples, rate, err := decodeWAV(data)
	if err != nil {
		return entities.AudioBuffer{}, err
	}
	return p.PrepareSamples(samples, rate), nil
}

// PrepareSamples runs the transform chain on already-decoded mono samples.
func (p *Preparer) PrepareSamples(samples []float64, sourceRate int) entities.AudioBuffer {
	if sourceRate != p.targetRate {
		p.logger.Debug("resampling",
			zap.Int("from", sourceRate), zap.Int("to", p.targetRate),
			zap.Int("samples", len(samples)))
		samples = Resample(samples, sourceRate, p.targetRate)
	}
	samples = NormalizePeak(samples)
	window := int(math.Round(p.windowSeconds * float64(p.targetRate)))
	samples = PadOrTruncate(samples, window)
	return entities.NewAudioBuffer(samples, p.targetRate)
}

// decodeWAV reads a RIFF/WAV container into mono float samples in [-1,1].
func decodeWAV(data []byte) ([]float64, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid WAV file")
	}
	var buf *audio.IntBuffer
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode WAV: %w", err)
	}
	if buf.Format == nil {
		return nil, 0, fmt.Errorf("WAV has no format chunk")
	}
	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, 0, fmt.Errorf("WAV reports %d channels", channels)
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	floats := make([]float64, len(buf.Data))
	for i, s := range buf.Data {
		floats[i] = float64(s) / scale
	}
	if channels > 1 {
		floats = DownmixMono(floats, channels)
	}
	return floats, buf.Format.SampleRate, nil
}

// DownmixMono averages interleaved channels per sample frame.
func DownmixMono(interleaved []float64, channels int) []float64 {
	frames := len(interleaved) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// Resample converts samples between rates with windowed-sinc band-limited
// interpolation. Identical rates pass through untouched.
func Resample(samples []float64, from, to int) []float64 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}
	ratio := float64(to) / float64(from)
	outLen := int(math.Round(float64(len(samples)) * ratio))
	out := make([]float64, outLen)

	// When downsampling the filter cutoff shrinks to the output Nyquist.
	cutoff := 1.0
	if ratio < 1 {
		cutoff = ratio
	}
	for i := range out {
		center := float64(i) / ratio
		left := int(math.Floor(center)) - resampleTaps + 1
		right := int(math.Floor(center)) + resampleTaps
		var acc, norm float64
		for j := left; j <= right; j++ {
			if j < 0 || j >= len(samples) {
				continue
			}
			w := windowedSinc((float64(j) - center) * cutoff)
			acc += samples[j] * w
			norm += w
		}
		if norm != 0 {
			out[i] = acc / norm
		}
	}
	return out
}

// windowedSinc is sinc(x) under a Hann window over the tap span.
func windowedSinc(x float64) float64 {
	if math.Abs(x) > float64(resampleTaps) {
		return 0
	}
	hann := 0.5 * (1 + math.Cos(math.Pi*x/float64(resampleTaps)))
	if x == 0 {
		return hann
	}
	px := math.Pi * x
	return hann * math.Sin(px) / px
}

// NormalizePeak divides by the peak absolute sample. A silent buffer or one
// already within [-1,1] passes through unchanged. The peak scan is a single
// linear pass so multi-minute recordings stay cheap.
func NormalizePeak(samples []float64) []float64 {
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 || peak <= 1 {
		return samples
	}
	out := make([]float64, len(samples))
	inv := 1 / peak
	for i, s := range samples {
		out[i] = s * inv
	}
	return out
}

// PadOrTruncate fits samples to exactly n: zeros appended at the tail when
// short, the leading window kept when long. Padding never wraps or repeats.
func PadOrTruncate(samples []float64, n int) []float64 {
	if len(samples) == n {
		return samples
	}
	out := make([]float64, n)
	copy(out, samples)
	return out
}
