// Package config loads the per-model JSON training configurations.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/modelpipe/pkg/errors"
)

// Registry maps a model-type name to its config file name inside the config
// directory. SVR deliberately has no entry: the dispatch allow-list knows the
// model, but no configuration was ever written for it, and resolving it must
// fail loudly rather than invent one.
var Registry = map[string]string{
	"RandomForestRegressor": "RandomForest.json",
	"LogisticRegression":    "LogisticRegression.json",
	"XGBRegressor":          "XGBoost.json",
}

// Config mirrors the JSON training configuration. Loaded once per run and
// treated as immutable afterwards.
type Config struct {
	FeatureSelection       FeatureSelection `json:"feature_selection"`
	TargetVariable         string           `json:"target_variable"`
	MissingValueImputation Imputation       `json:"missing_value_imputation"`
	Scaling                Scaling          `json:"scaling"`
	DataSplit              DataSplit        `json:"data_split"`
	Model                  Model            `json:"model"`
}

// FeatureSelection names the feature columns, in order.
type FeatureSelection struct {
	FeaturesToKeep []string `json:"features_to_keep"`
}

// Imputation configures the missing-value pass.
type Imputation struct {
	Enabled  bool   `json:"enabled"`
	Strategy string `json:"strategy"`
}

// Scaling configures the optional standardization pass. WithMean and WithStd
// default to true when omitted.
type Scaling struct {
	Enabled  bool  `json:"enabled"`
	WithMean *bool `json:"with_mean"`
	WithStd  *bool `json:"with_std"`
}

// MeanEnabled reports whether the mean should be subtracted.
func (s Scaling) MeanEnabled() bool { return s.WithMean == nil || *s.WithMean }

// StdEnabled reports whether to divide by the standard deviation.
func (s Scaling) StdEnabled() bool { return s.WithStd == nil || *s.WithStd }

// DataSplit configures the train/test partition.
type DataSplit struct {
	TestSize    float64 `json:"test_size"`
	RandomState int64   `json:"random_state"`
}

// Model carries the hyperparameter mapping passed to the estimator factory.
type Model struct {
	Hyperparameters map[string]interface{} `json:"hyperparameters"`
}

// LoadForModel resolves the config file for modelType through the Registry
// and parses it. An unregistered model type fails with ErrConfigNotFound.
func LoadForModel(configDir, modelType string) (*Config, error) {
	name, ok := Registry[modelType]
	if !ok {
		return nil, errors.Mark(
			errors.Newf("model type %s has no registered config file", modelType),
			errors.ErrConfigNotFound)
	}
	return Load(filepath.Join(configDir, name))
}

// Load reads and parses a single config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	return &cfg, nil
}

// Snapshot serializes the config back to JSON for artifact logging.
func (c *Config) Snapshot() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize config snapshot")
	}
	return data, nil
}
