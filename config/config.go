package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Fusion holds the per-modality weights of the multimodal merge. They are
// configuration rather than constants so they can be recalibrated without a
// code change.
type Fusion struct {
	VideoWeight float64 `yaml:"video_weight"`
	AudioWeight float64 `yaml:"audio_weight"`
}

// Audio holds the canonical waveform parameters the preparer targets.
type Audio struct {
	SampleRate    int     `yaml:"sample_rate"`
	WindowSeconds float64 `yaml:"window_seconds"`
}

// Video holds inference parameters for the facial-expression track.
type Video struct {
	DefaultFPS       float64 `yaml:"default_fps"`
	MinSegmentSec    float64 `yaml:"min_segment_sec"`
	LoadTimeoutSec   int     `yaml:"load_timeout_sec"`
	InferTimeoutSec  int     `yaml:"infer_timeout_sec"`
	ModelName        string  `yaml:"model_name"`
	ScalerName       string  `yaml:"scaler_name"`
	AudioModelName   string  `yaml:"audio_model_name"`
	TranscriptionLng string  `yaml:"transcription_language"`
}

// Root is the full service configuration.
type Root struct {
	Service struct {
		Name   string `yaml:"name"`
		Port   string `yaml:"port"`
		LogLvl string `yaml:"log_level"`
	} `yaml:"service"`
	Fusion Fusion `yaml:"fusion"`
	Audio  Audio  `yaml:"audio"`
	Video  Video  `yaml:"video"`
	Paths  struct {
		Models string `yaml:"models"`
	} `yaml:"paths"`
}

// Default returns the configuration used when no file is present.
func Default() *Root {
	var c Root
	c.Service.Name = "mirada-analysis"
	c.Service.Port = "8080"
	c.Service.LogLvl = "info"
	c.Fusion = Fusion{VideoWeight: 0.6, AudioWeight: 0.4}
	c.Audio = Audio{SampleRate: 16000, WindowSeconds: 10}
	c.Video = Video{
		DefaultFPS:       30,
		MinSegmentSec:    0.5,
		LoadTimeoutSec:   15,
		InferTimeoutSec:  10,
		ModelName:        "emotion_model",
		ScalerName:       "emotion_scaler",
		AudioModelName:   "audio_emotion_model",
		TranscriptionLng: "es-ES",
	}
	c.Paths.Models = filepath.Join("models")
	return &c
}

// Load reads the configuration file for the current environment, falling
// back to defaults when none exists. CONFIG_ENV selects the directory, as in
// config/dev/config.yaml.
func Load() (*Root, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	guesses := []string{
		filepath.Join("config", env, "config.yaml"),
		filepath.Join("config", "config.yaml"),
	}
	cfg := Default()
	for _, p := range guesses {
		f, err := os.Open(p)
		if err != nil {
			continue
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return cfg, nil
}
