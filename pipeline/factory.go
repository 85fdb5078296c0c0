package pipeline

import (
	"sort"

	"github.com/YuminosukeSato/modelpipe/core/model"
	"github.com/YuminosukeSato/modelpipe/ensemble"
	"github.com/YuminosukeSato/modelpipe/linear_model"
	"github.com/YuminosukeSato/modelpipe/pkg/errors"
	"github.com/YuminosukeSato/modelpipe/svm"
)

// builders is the fixed allow-list of model types. Each builder validates
// the hyperparameter mapping against its declared schema before construction,
// so unknown keys and unknown model types both fail before any training.
var builders = map[string]func(params map[string]interface{}) (model.Regressor, error){
	"RandomForestRegressor": newRandomForest,
	"LogisticRegression":    newLogistic,
	"SVR":                   newSVR,
	"XGBRegressor":          newXGB,
}

// SupportedModels returns the model-type allow-list in sorted order.
func SupportedModels() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewModel constructs the estimator for modelType from its hyperparameter
// mapping.
func NewModel(modelType string, params map[string]interface{}) (model.Regressor, error) {
	build, ok := builders[modelType]
	if !ok {
		return nil, errors.Mark(
			errors.Newf("model type %s is not supported", modelType),
			errors.ErrUnsupportedModel)
	}
	return build(params)
}

func checkKeys(modelType string, params map[string]interface{}, known ...string) error {
	allowed := make(map[string]bool, len(known))
	for _, k := range known {
		allowed[k] = true
	}
	for k := range params {
		if !allowed[k] {
			return errors.NewValidationError(k, "unknown hyperparameter for "+modelType, params[k])
		}
	}
	return nil
}

// intParam reads an integer hyperparameter; JSON numbers arrive as float64.
func intParam(params map[string]interface{}, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, errors.NewValidationError(key, "must be an integer", v)
		}
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, errors.NewValidationError(key, "must be a number", v)
	}
}

func floatParam(params map[string]interface{}, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, errors.NewValidationError(key, "must be a number", v)
	}
}

func boolParam(params map[string]interface{}, key string, def bool) (bool, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, errors.NewValidationError(key, "must be a boolean", v)
	}
	return b, nil
}

func newRandomForest(params map[string]interface{}) (model.Regressor, error) {
	if err := checkKeys("RandomForestRegressor", params,
		"n_estimators", "max_depth", "min_samples_leaf", "max_features", "random_state"); err != nil {
		return nil, err
	}

	n, err := intParam(params, "n_estimators", 100)
	if err != nil {
		return nil, err
	}
	depth, err := intParam(params, "max_depth", 0)
	if err != nil {
		return nil, err
	}
	minLeaf, err := intParam(params, "min_samples_leaf", 1)
	if err != nil {
		return nil, err
	}
	maxFeatures, err := intParam(params, "max_features", 0)
	if err != nil {
		return nil, err
	}
	seed, err := intParam(params, "random_state", -1)
	if err != nil {
		return nil, err
	}

	return ensemble.NewRandomForestRegressor(
		ensemble.WithNEstimators(n),
		ensemble.WithMaxDepth(depth),
		ensemble.WithMinSamplesLeaf(minLeaf),
		ensemble.WithMaxFeatures(maxFeatures),
		ensemble.WithRandomState(int64(seed)),
	), nil
}

func newLogistic(params map[string]interface{}) (model.Regressor, error) {
	if err := checkKeys("LogisticRegression", params,
		"C", "max_iter", "tol", "fit_intercept", "learning_rate", "random_state"); err != nil {
		return nil, err
	}
	// random_state is accepted for config compatibility. Batch gradient
	// descent is deterministic, so the seed has no effect on the fit.
	if _, err := intParam(params, "random_state", -1); err != nil {
		return nil, err
	}

	c, err := floatParam(params, "C", 1.0)
	if err != nil {
		return nil, err
	}
	maxIter, err := intParam(params, "max_iter", 100)
	if err != nil {
		return nil, err
	}
	tol, err := floatParam(params, "tol", 1e-4)
	if err != nil {
		return nil, err
	}
	fitIntercept, err := boolParam(params, "fit_intercept", true)
	if err != nil {
		return nil, err
	}
	eta, err := floatParam(params, "learning_rate", 0.1)
	if err != nil {
		return nil, err
	}

	return linear_model.NewLogisticRegression(
		linear_model.WithC(c),
		linear_model.WithMaxIter(maxIter),
		linear_model.WithTol(tol),
		linear_model.WithFitIntercept(fitIntercept),
		linear_model.WithLearningRate(eta),
	), nil
}

func newSVR(params map[string]interface{}) (model.Regressor, error) {
	if err := checkKeys("SVR", params,
		"C", "epsilon", "max_iter", "tol", "learning_rate", "random_state"); err != nil {
		return nil, err
	}

	c, err := floatParam(params, "C", 1.0)
	if err != nil {
		return nil, err
	}
	eps, err := floatParam(params, "epsilon", 0.1)
	if err != nil {
		return nil, err
	}
	maxIter, err := intParam(params, "max_iter", 1000)
	if err != nil {
		return nil, err
	}
	tol, err := floatParam(params, "tol", 1e-3)
	if err != nil {
		return nil, err
	}
	eta, err := floatParam(params, "learning_rate", 0.01)
	if err != nil {
		return nil, err
	}
	seed, err := intParam(params, "random_state", -1)
	if err != nil {
		return nil, err
	}

	return svm.NewSVR(
		svm.WithC(c),
		svm.WithEpsilon(eps),
		svm.WithMaxIter(maxIter),
		svm.WithTol(tol),
		svm.WithLearningRate(eta),
		svm.WithRandomState(int64(seed)),
	), nil
}

func newXGB(params map[string]interface{}) (model.Regressor, error) {
	if err := checkKeys("XGBRegressor", params,
		"n_estimators", "learning_rate", "max_depth", "min_child_weight",
		"lambda", "gamma", "base_score", "random_state"); err != nil {
		return nil, err
	}

	n, err := intParam(params, "n_estimators", 100)
	if err != nil {
		return nil, err
	}
	eta, err := floatParam(params, "learning_rate", 0.3)
	if err != nil {
		return nil, err
	}
	depth, err := intParam(params, "max_depth", 6)
	if err != nil {
		return nil, err
	}
	minChild, err := floatParam(params, "min_child_weight", 1)
	if err != nil {
		return nil, err
	}
	lambda, err := floatParam(params, "lambda", 1)
	if err != nil {
		return nil, err
	}
	gamma, err := floatParam(params, "gamma", 0)
	if err != nil {
		return nil, err
	}
	base, err := floatParam(params, "base_score", 0.5)
	if err != nil {
		return nil, err
	}
	seed, err := intParam(params, "random_state", -1)
	if err != nil {
		return nil, err
	}

	return ensemble.NewXGBRegressor(
		ensemble.WithRounds(n),
		ensemble.WithLearningRate(eta),
		ensemble.WithTreeDepth(depth),
		ensemble.WithMinChildWeight(minChild),
		ensemble.WithLambda(lambda),
		ensemble.WithGamma(gamma),
		ensemble.WithBaseScore(base),
		ensemble.WithBoostingSeed(int64(seed)),
	), nil
}
