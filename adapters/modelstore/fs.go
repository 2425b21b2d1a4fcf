package modelstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/lucerovega/mirada/server/domain/repositories"
)

// FileStore loads model artifacts and scalers from a directory tree, one
// JSON document per artifact name.
type FileStore struct {
	root   string
	logger *zap.Logger
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string, logger *zap.Logger) *FileStore {
	return &FileStore{root: dir, logger: logger}
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.root, name+".json")
}

// Exists is a lightweight existence probe. A missing artifact is a normal,
// expected condition, so no error surfaces here.
func (s *FileStore) Exists(ctx context.Context, name string) bool {
	_, err := os.Stat(s.path(name))
	if err != nil {
		s.logger.Debug("model artifact not found",
			zap.String("name", name),
			zap.String("path", s.path(name)))
		return false
	}
	return true
}

// LoadScaler reads a persisted (mean, scale) pair.
func (s *FileStore) LoadScaler(ctx context.Context, name string) (*repositories.ScalerParams, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to open scaler %q: %w", name, err)
	}
	defer f.Close()

	var params repositories.ScalerParams
	if err := json.NewDecoder(f).Decode(&params); err != nil {
		return nil, fmt.Errorf("failed to decode scaler %q: %w", name, err)
	}
	if len(params.Mean) != len(params.Scale) {
		return nil, fmt.Errorf("scaler %q is malformed: mean=%d scale=%d", name, len(params.Mean), len(params.Scale))
	}
	return &params, nil
}

// LoadDenseModel reads a persisted feed-forward network and checks the layer
// shapes line up before handing it to inference.
func (s *FileStore) LoadDenseModel(ctx context.Context, name string) (*repositories.DenseModel, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to open model %q: %w", name, err)
	}
	defer f.Close()

	var model repositories.DenseModel
	if err := json.NewDecoder(f).Decode(&model); err != nil {
		return nil, fmt.Errorf("failed to decode model %q: %w", name, err)
	}
	if err := validateModel(&model); err != nil {
		return nil, fmt.Errorf("model %q is malformed: %w", name, err)
	}
	s.logger.Info("loaded dense model",
		zap.String("name", name),
		zap.Int("layers", len(model.Layers)),
		zap.Int("input_dim", model.InputDim))
	return &model, nil
}

func validateModel(m *repositories.DenseModel) error {
	if len(m.Layers) == 0 {
		return fmt.Errorf("no layers")
	}
	in := m.InputDim
	for i, layer := range m.Layers {
		if len(layer.Weights) != in {
			return fmt.Errorf("layer %d expects %d inputs, previous layer provides %d", i, len(layer.Weights), in)
		}
		if in > 0 && len(layer.Biases) != len(layer.Weights[0]) {
			return fmt.Errorf("layer %d has %d biases for %d outputs", i, len(layer.Biases), len(layer.Weights[0]))
		}
		for r, row := range layer.Weights {
			if len(row) != len(layer.Biases) {
				return fmt.Errorf("layer %d row %d has %d columns, want %d", i, r, len(row), len(layer.Biases))
			}
		}
		in = len(layer.Biases)
	}
	return nil
}
