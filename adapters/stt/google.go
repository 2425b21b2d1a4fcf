package stt

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/lucerovega/mirada/server/domain/entities"
	"github.com/lucerovega/mirada/server/domain/repositories"
)

const defaultChunkSeconds = 30.0

// GoogleTranscriber implements Transcriber against Google Cloud
// Speech-to-Text. Long recordings are processed in fixed-size chunks so
// progress can be reported between synchronous recognize calls.
type GoogleTranscriber struct {
	logger       *zap.Logger
	chunkSeconds float64
}

// NewGoogleTranscriber creates a transcriber with the default chunk size.
func NewGoogleTranscriber(logger *zap.Logger) *GoogleTranscriber {
	return &GoogleTranscriber{logger: logger, chunkSeconds: defaultChunkSeconds}
}

// Transcribe converts the prepared waveform to text in the target language.
// The call blocks until every chunk has been recognized; the caller opts into
// that explicitly. Progress moves monotonically from 0 to 100.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, buffer entities.AudioBuffer, language string, onProgress repositories.ProgressFunc) (*entities.TranscriptionResult, error) {
	if onProgress == nil {
		onProgress = func(float64) {}
	}
	result := &entities.TranscriptionResult{
		Text:     "",
		Segments: []entities.TranscriptSegment{},
		Language: language,
	}
	if len(buffer.Samples) == 0 {
		onProgress(100)
		return result, nil
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	defer client.Close()

	chunkSamples := int(g.chunkSeconds * float64(buffer.SampleRate))
	if chunkSamples <= 0 {
		chunkSamples = len(buffer.Samples)
	}
	total := (len(buffer.Samples) + chunkSamples - 1) / chunkSamples

	var parts []string
	onProgress(0)
	for i := 0; i < total; i++ {
		lo := i * chunkSamples
		hi := lo + chunkSamples
		if hi > len(buffer.Samples) {
			hi = len(buffer.Samples)
		}

		text, err := g.recognizeChunk(ctx, client, buffer.Samples[lo:hi], buffer.SampleRate, language)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d failed: %w", i+1, total, err)
		}
		if text != "" {
			parts = append(parts, text)
			result.Segments = append(result.Segments, entities.TranscriptSegment{
				Start: float64(lo) / float64(buffer.SampleRate),
				End:   float64(hi) / float64(buffer.SampleRate),
				Text:  text,
			})
		}
		onProgress(100 * float64(i+1) / float64(total))
	}
	result.Text = strings.Join(parts, " ")

	if !LanguagePlausible(result.Text, language) {
		// Advisory only: the function-word heuristic has false negatives,
		// so a miss is logged, never raised.
		g.logger.Warn("transcript may not match the requested language",
			zap.String("language", language),
			zap.Int("length", len(result.Text)))
	}
	return result, nil
}

func (g *GoogleTranscriber) recognizeChunk(ctx context.Context, client *speech.Client, samples []float64, sampleRate int, language string) (string, error) {
	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(sampleRate),
			LanguageCode:    language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: pcm16Bytes(samples),
			},
		},
	})
	if err != nil {
		return "", err
	}
	var parts []string
	for _, res := range resp.Results {
		if len(res.Alternatives) > 0 {
			parts = append(parts, res.Alternatives[0].Transcript)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

// pcm16Bytes converts [-1,1] float samples to little-endian 16-bit PCM.
func pcm16Bytes(samples []float64) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(s * 32767))
		binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
	}
	return out
}
