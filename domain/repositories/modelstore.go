package repositories

import "context"

// ScalerParams is a persisted (mean, scale) pair used to standardize feature
// vectors before inference.
type ScalerParams struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// DenseLayer is one fully-connected layer of a persisted network.
// Weights is [inputDim][outputDim]; Activation is "relu" or "sigmoid".
type DenseLayer struct {
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
	Activation string      `json:"activation"`
}

// DenseModel is a small feed-forward network persisted as layer matrices.
type DenseModel struct {
	InputDim int          `json:"input_dim"`
	Layers   []DenseLayer `json:"layers"`
}

// ModelStore loads model artifacts and normalization scalers by name.
// Existence is probed via a lightweight check, never assumed.
type ModelStore interface {
	// Exists reports whether an artifact is present. It never errors.
	Exists(ctx context.Context, name string) bool
	LoadScaler(ctx context.Context, name string) (*ScalerParams, error)
	LoadDenseModel(ctx context.Context, name string) (*DenseModel, error)
}
