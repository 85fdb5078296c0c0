// Package pipeline wires the full training flow: configuration, data
// loading, preprocessing, fitting, evaluation and run tracking.
package pipeline

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/modelpipe/config"
	"github.com/YuminosukeSato/modelpipe/core/model"
	"github.com/YuminosukeSato/modelpipe/dataset"
	"github.com/YuminosukeSato/modelpipe/eda"
	"github.com/YuminosukeSato/modelpipe/metrics"
	"github.com/YuminosukeSato/modelpipe/modelselection"
	"github.com/YuminosukeSato/modelpipe/pkg/errors"
	"github.com/YuminosukeSato/modelpipe/pkg/log"
	"github.com/YuminosukeSato/modelpipe/preprocessing"
	"github.com/YuminosukeSato/modelpipe/tracking"
)

// Options carries everything a training run needs. There are no package
// globals; callers pass all paths explicitly.
type Options struct {
	// ModelType selects the estimator and, through the config registry,
	// the configuration file.
	ModelType string
	// ConfigDir holds the per-model JSON configuration files.
	ConfigDir string
	// DataPath is the training CSV.
	DataPath string
	// TrackingDir is the root of the file tracking store (the mlruns
	// directory).
	TrackingDir string
	// ArtifactDir is scratch space for artifacts before they are logged
	// to the run.
	ArtifactDir string
	// Experiment is the tracking experiment name.
	Experiment string
}

// Result reports where the run landed and how the model scored.
type Result struct {
	RunID   string
	RunDir  string
	Metrics metrics.Report
}

// Run executes one training run end to end and records it in the tracking
// store. The configuration is resolved first, so an unknown model type or a
// model without a registered config fails before any data is touched.
func Run(opts Options) (*Result, error) {
	logger := log.With("pipeline").With().
		Str(log.ModelTypeKey, opts.ModelType).
		Logger()

	if _, ok := builders[opts.ModelType]; !ok {
		return nil, errors.Mark(
			errors.Newf("model type %s is not supported", opts.ModelType),
			errors.ErrUnsupportedModel)
	}

	cfg, err := config.LoadForModel(opts.ConfigDir, opts.ModelType)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline: resolving config for %s", opts.ModelType)
	}

	table, err := dataset.ReadCSV(opts.DataPath)
	if err != nil {
		return nil, errors.Wrap(err, "pipeline: loading training data")
	}
	X, err := table.Select(cfg.FeatureSelection.FeaturesToKeep)
	if err != nil {
		return nil, err
	}
	y, err := table.Column(cfg.TargetVariable)
	if err != nil {
		return nil, err
	}
	// Imputation only covers features. A hole in the target would silently
	// turn every metric into NaN, so it is a hard failure.
	for i := 0; i < y.Len(); i++ {
		if math.IsNaN(y.AtVec(i)) {
			return nil, errors.NewValueError("pipeline.Run",
				fmt.Sprintf("target column %q has a missing value at row %d", cfg.TargetVariable, i))
		}
	}
	rows, cols := X.Dims()
	logger.Info().
		Int(log.SamplesKey, rows).
		Int(log.FeaturesKey, cols).
		Msg("dataset loaded")

	if cfg.MissingValueImputation.Enabled {
		imputer := preprocessing.NewSimpleImputer(cfg.MissingValueImputation.Strategy)
		X, err = imputer.FitTransform(X)
		if err != nil {
			return nil, errors.Wrap(err, "pipeline: imputing missing values")
		}
	}
	// EDA plots show the imputed features on their original scale, so keep
	// the pre-scaling matrix around. FitTransform allocates a new one.
	edaX := X
	if cfg.Scaling.Enabled {
		scaler := preprocessing.NewStandardScaler(cfg.Scaling.MeanEnabled(), cfg.Scaling.StdEnabled())
		X, err = scaler.FitTransform(X)
		if err != nil {
			return nil, errors.Wrap(err, "pipeline: scaling features")
		}
	}

	split, err := modelselection.TrainTestSplit(X, y, cfg.DataSplit.TestSize, cfg.DataSplit.RandomState)
	if err != nil {
		return nil, err
	}

	est, err := NewModel(opts.ModelType, cfg.Model.Hyperparameters)
	if err != nil {
		return nil, err
	}

	store, err := tracking.NewFileStore(opts.TrackingDir)
	if err != nil {
		return nil, err
	}
	exp, err := store.GetOrCreateExperiment(opts.Experiment)
	if err != nil {
		return nil, err
	}
	runName := opts.ModelType + " run " + time.Now().Format("2006-01-02 15:04:05")
	run, err := exp.StartRun(runName)
	if err != nil {
		return nil, err
	}
	logger = logger.With().Str(log.RunIDKey, run.ID).Logger()

	done := log.Timed(logger, "fit")
	if err := est.Fit(split.XTrain, split.YTrain); err != nil {
		return nil, errors.NewModelError("pipeline.Run", opts.ModelType, err)
	}
	done()

	pred, err := est.Predict(split.XTest)
	if err != nil {
		return nil, errors.NewModelError("pipeline.Run", opts.ModelType, err)
	}
	report, err := metrics.Evaluate(split.YTest, asVector(pred))
	if err != nil {
		return nil, err
	}
	logger.Info().
		Float64("mse", report.MSE).
		Float64("mae", report.MAE).
		Float64("rmse", report.RMSE).
		Float64("r2", report.R2).
		Msg("evaluation complete")

	if err := logRun(run, opts, cfg, est, edaX, report); err != nil {
		return nil, err
	}
	if err := run.End(); err != nil {
		return nil, err
	}

	return &Result{RunID: run.ID, RunDir: run.Dir(), Metrics: report}, nil
}

// logRun records parameters, metrics and artifacts for a finished fit.
func logRun(run *tracking.Run, opts Options, cfg *config.Config, est model.Regressor, X *mat.Dense, report metrics.Report) error {
	if err := run.LogParam("model_type", opts.ModelType); err != nil {
		return err
	}
	if err := run.LogParams(cfg.Model.Hyperparameters); err != nil {
		return err
	}
	for key, value := range map[string]float64{
		"mse":  report.MSE,
		"mae":  report.MAE,
		"rmse": report.RMSE,
		"r2":   report.R2,
	} {
		if err := run.LogMetric(key, value, 0); err != nil {
			return err
		}
	}

	scratch := opts.ArtifactDir
	if scratch == "" {
		dir, err := os.MkdirTemp("", "modelpipe-artifacts-")
		if err != nil {
			return errors.Wrap(err, "pipeline: creating artifact scratch dir")
		}
		defer os.RemoveAll(dir)
		scratch = dir
	} else if err := os.MkdirAll(scratch, 0o755); err != nil {
		return errors.Wrap(err, "pipeline: creating artifact dir")
	}

	modelPath := filepath.Join(scratch, "model.gob")
	if err := model.SaveModel(est, modelPath); err != nil {
		return err
	}
	if err := run.LogArtifact(modelPath, "model"); err != nil {
		return err
	}

	snapshot, err := cfg.Snapshot()
	if err != nil {
		return err
	}
	snapshotPath := filepath.Join(scratch, opts.ModelType+".json")
	if err := os.WriteFile(snapshotPath, snapshot, 0o644); err != nil {
		return errors.Wrap(err, "pipeline: writing config snapshot")
	}
	if err := run.LogArtifact(snapshotPath, ""); err != nil {
		return err
	}

	boxplotDir := filepath.Join(scratch, "boxplots")
	paths, err := eda.SaveBoxplots(X, cfg.FeatureSelection.FeaturesToKeep, boxplotDir)
	if err != nil {
		return errors.Wrap(err, "pipeline: rendering boxplots")
	}
	for _, p := range paths {
		if err := run.LogArtifact(p, "EDA/boxplots"); err != nil {
			return err
		}
	}
	heatmapPath := filepath.Join(scratch, "correlation_matrix.png")
	if err := eda.SaveCorrelationMatrix(X, cfg.FeatureSelection.FeaturesToKeep, heatmapPath); err != nil {
		return errors.Wrap(err, "pipeline: rendering correlation matrix")
	}
	return run.LogArtifact(heatmapPath, "EDA")
}

// asVector flattens an n×1 prediction matrix into a vector.
func asVector(m mat.Matrix) *mat.VecDense {
	if v, ok := m.(*mat.VecDense); ok {
		return v
	}
	rows, _ := m.Dims()
	v := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
