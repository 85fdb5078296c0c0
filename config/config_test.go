package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/modelpipe/pkg/errors"
)

const rfConfig = `{
  "feature_selection": {"features_to_keep": ["age", "income"]},
  "target_variable": "approved",
  "missing_value_imputation": {"enabled": true, "strategy": "mean"},
  "data_split": {"test_size": 0.2, "random_state": 42},
  "model": {"hyperparameters": {"n_estimators": 10, "max_depth": 5}}
}`

func writeConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "RandomForest.json"), []byte(rfConfig), 0o644); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}
	return dir
}

func TestLoadForModel(t *testing.T) {
	dir := writeConfigDir(t)

	cfg, err := LoadForModel(dir, "RandomForestRegressor")
	if err != nil {
		t.Fatalf("LoadForModel() unexpected error: %v", err)
	}

	features := cfg.FeatureSelection.FeaturesToKeep
	if len(features) != 2 || features[0] != "age" || features[1] != "income" {
		t.Errorf("features = %v, want [age income]", features)
	}
	if cfg.TargetVariable != "approved" {
		t.Errorf("target = %q, want approved", cfg.TargetVariable)
	}
	if !cfg.MissingValueImputation.Enabled || cfg.MissingValueImputation.Strategy != "mean" {
		t.Errorf("imputation = %+v, want enabled/mean", cfg.MissingValueImputation)
	}
	if cfg.DataSplit.TestSize != 0.2 || cfg.DataSplit.RandomState != 42 {
		t.Errorf("split = %+v, want test_size=0.2 random_state=42", cfg.DataSplit)
	}
	if got := cfg.Model.Hyperparameters["n_estimators"]; got != float64(10) {
		t.Errorf("n_estimators = %v (%T), want 10", got, got)
	}
}

func TestLoadForModel_SVRHasNoConfig(t *testing.T) {
	// SVR is in the dispatch allow-list but was never given a config file;
	// resolving it must fail with ErrConfigNotFound, not invent defaults.
	_, err := LoadForModel(writeConfigDir(t), "SVR")
	if err == nil {
		t.Fatal("LoadForModel(SVR) should fail")
	}
	if !errors.Is(err, errors.ErrConfigNotFound) {
		t.Errorf("error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadForModel_UnknownType(t *testing.T) {
	_, err := LoadForModel(writeConfigDir(t), "DecisionTransformer")
	if !errors.Is(err, errors.ErrConfigNotFound) {
		t.Errorf("error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadForModel_MissingFile(t *testing.T) {
	// registered type whose file is absent from the directory
	if _, err := LoadForModel(t.TempDir(), "RandomForestRegressor"); err == nil {
		t.Error("LoadForModel() with missing file should fail")
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() with malformed JSON should fail")
	}
}

func TestScalingDefaults(t *testing.T) {
	var s Scaling
	if !s.MeanEnabled() || !s.StdEnabled() {
		t.Error("omitted with_mean/with_std should default to true")
	}

	f := false
	s.WithMean = &f
	if s.MeanEnabled() {
		t.Error("explicit with_mean=false should disable centering")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	cfg, err := LoadForModel(writeConfigDir(t), "RandomForestRegressor")
	if err != nil {
		t.Fatalf("LoadForModel() unexpected error: %v", err)
	}

	data, err := cfg.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write snapshot: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load() of snapshot unexpected error: %v", err)
	}
	if back.TargetVariable != cfg.TargetVariable {
		t.Errorf("snapshot round-trip lost target: %q vs %q",
			back.TargetVariable, cfg.TargetVariable)
	}
}
