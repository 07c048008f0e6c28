package ml

import (
	"errors"
	"fmt"
	"math"
)

// Classifier types understood by LoadClassifier.
const (
	TypeLogisticRegression = "logistic_regression"
	TypeMultinomialNB      = "multinomial_nb"
	TypeSGD                = "sgd"
	TypeLinearSVC          = "linear_svc"
	TypeRidge              = "ridge"
)

// Vectorizer turns documents into feature vectors of a fixed dimension.
type Vectorizer interface {
	Dim() int
	TransformBatch(docs []string) ([]SparseVector, error)
}

// Classifier is the base capability: a point prediction over a feature vector.
type Classifier interface {
	Type() string
	Classes() []string
	NumFeatures() int
	Predict(x SparseVector) (string, error)
}

// ProbabilisticClassifier can also estimate a distribution over Classes().
type ProbabilisticClassifier interface {
	Classifier
	PredictProba(x SparseVector) ([]float64, error)
}

// ClassifierSpec is the JSON form of a trained classifier.
// Linear models use Coef and Intercept; multinomial_nb uses FeatureLogProb and ClassLogPrior.
type ClassifierSpec struct {
	Type           string      `json:"type"`
	Classes        []string    `json:"classes"`
	Coef           [][]float64 `json:"coef,omitempty"`
	Intercept      []float64   `json:"intercept,omitempty"`
	MultiClass     string      `json:"multi_class,omitempty"`
	Loss           string      `json:"loss,omitempty"`
	FeatureLogProb [][]float64 `json:"feature_log_prob,omitempty"`
	ClassLogPrior  []float64   `json:"class_log_prior,omitempty"`
}

// NewClassifier builds the classifier described by spec.
func NewClassifier(spec ClassifierSpec) (Classifier, error) {
	if err := checkClasses(spec.Classes); err != nil {
		return nil, err
	}

	switch spec.Type {
	case TypeLogisticRegression:
		lm, err := newLinearModel(spec.Type, spec.Classes, spec.Coef, spec.Intercept)
		if err != nil {
			return nil, err
		}
		return newLogisticRegression(lm, spec.MultiClass)
	case TypeSGD:
		lm, err := newLinearModel(spec.Type, spec.Classes, spec.Coef, spec.Intercept)
		if err != nil {
			return nil, err
		}
		if spec.Loss == "log_loss" || spec.Loss == "log" {
			return &LogisticRegression{linearModel: lm}, nil
		}
		return &LinearClassifier{linearModel: lm}, nil
	case TypeLinearSVC, TypeRidge:
		lm, err := newLinearModel(spec.Type, spec.Classes, spec.Coef, spec.Intercept)
		if err != nil {
			return nil, err
		}
		return &LinearClassifier{linearModel: lm}, nil
	case TypeMultinomialNB:
		return newMultinomialNB(spec)
	default:
		return nil, fmt.Errorf("unsupported classifier type %q", spec.Type)
	}
}

func checkClasses(classes []string) error {
	if len(classes) < 2 {
		return fmt.Errorf("classifier needs at least 2 classes, got %d", len(classes))
	}
	seen := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("duplicate class %q", c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

// linearModel holds a decision function W·x + b. Binary models have a single row.
type linearModel struct {
	kind        string
	classes     []string
	coef        [][]float64
	intercept   []float64
	numFeatures int
}

func newLinearModel(kind string, classes []string, coef [][]float64, intercept []float64) (linearModel, error) {
	rows := len(classes)
	if rows == 2 {
		rows = 1
	}
	if len(coef) != rows {
		return linearModel{}, fmt.Errorf("%s: coef has %d rows, want %d for %d classes", kind, len(coef), rows, len(classes))
	}
	if len(intercept) != rows {
		return linearModel{}, fmt.Errorf("%s: intercept has %d entries, want %d", kind, len(intercept), rows)
	}
	numFeatures := len(coef[0])
	if numFeatures == 0 {
		return linearModel{}, errors.New(kind + ": coef rows are empty")
	}
	for i, row := range coef {
		if len(row) != numFeatures {
			return linearModel{}, fmt.Errorf("%s: coef row %d has %d features, want %d", kind, i, len(row), numFeatures)
		}
	}
	return linearModel{
		kind:        kind,
		classes:     classes,
		coef:        coef,
		intercept:   intercept,
		numFeatures: numFeatures,
	}, nil
}

func (m *linearModel) Type() string      { return m.kind }
func (m *linearModel) Classes() []string { return m.classes }
func (m *linearModel) NumFeatures() int  { return m.numFeatures }

func (m *linearModel) decision(x SparseVector) ([]float64, error) {
	if err := x.check(m.numFeatures); err != nil {
		return nil, err
	}
	scores := make([]float64, len(m.coef))
	for k, row := range m.coef {
		scores[k] = x.Dot(row) + m.intercept[k]
	}
	return scores, nil
}

// Predict returns the class with the highest decision score; for binary
// models a positive score selects the second class.
func (m *linearModel) Predict(x SparseVector) (string, error) {
	scores, err := m.decision(x)
	if err != nil {
		return "", err
	}
	if len(scores) == 1 {
		if scores[0] > 0 {
			return m.classes[1], nil
		}
		return m.classes[0], nil
	}
	return m.classes[argmax(scores)], nil
}

// LinearClassifier is a decision-function-only model (linear SVM, ridge,
// hinge-loss SGD). It has no probability estimates.
type LinearClassifier struct {
	linearModel
}

// LogisticRegression adds probability estimates to a linear model.
type LogisticRegression struct {
	linearModel
	multinomial bool
}

func newLogisticRegression(lm linearModel, multiClass string) (*LogisticRegression, error) {
	lr := &LogisticRegression{linearModel: lm}
	switch multiClass {
	case "multinomial":
		lr.multinomial = true
	case "", "auto":
		lr.multinomial = len(lm.classes) > 2
	case "ovr":
	default:
		return nil, fmt.Errorf("unsupported multi_class %q", multiClass)
	}
	return lr, nil
}

// PredictProba returns class probabilities aligned with Classes().
func (m *LogisticRegression) PredictProba(x SparseVector) ([]float64, error) {
	scores, err := m.decision(x)
	if err != nil {
		return nil, err
	}

	if len(scores) == 1 {
		s := scores[0]
		if m.multinomial {
			return softmax([]float64{-s, s}), nil
		}
		p := sigmoid(s)
		return []float64{1 - p, p}, nil
	}

	if m.multinomial {
		return softmax(scores), nil
	}

	// One-vs-rest: independent sigmoids renormalized to sum to one.
	var sum float64
	for i, s := range scores {
		scores[i] = sigmoid(s)
		sum += scores[i]
	}
	for i := range scores {
		scores[i] /= sum
	}
	return scores, nil
}

// MultinomialNB is a multinomial naive Bayes model over term weights.
type MultinomialNB struct {
	classes        []string
	featureLogProb [][]float64
	classLogPrior  []float64
	numFeatures    int
}

func newMultinomialNB(spec ClassifierSpec) (*MultinomialNB, error) {
	k := len(spec.Classes)
	if len(spec.FeatureLogProb) != k {
		return nil, fmt.Errorf("multinomial_nb: feature_log_prob has %d rows, want %d", len(spec.FeatureLogProb), k)
	}
	if len(spec.ClassLogPrior) != k {
		return nil, fmt.Errorf("multinomial_nb: class_log_prior has %d entries, want %d", len(spec.ClassLogPrior), k)
	}
	numFeatures := len(spec.FeatureLogProb[0])
	if numFeatures == 0 {
		return nil, errors.New("multinomial_nb: feature_log_prob rows are empty")
	}
	for i, row := range spec.FeatureLogProb {
		if len(row) != numFeatures {
			return nil, fmt.Errorf("multinomial_nb: row %d has %d features, want %d", i, len(row), numFeatures)
		}
	}
	return &MultinomialNB{
		classes:        spec.Classes,
		featureLogProb: spec.FeatureLogProb,
		classLogPrior:  spec.ClassLogPrior,
		numFeatures:    numFeatures,
	}, nil
}

func (m *MultinomialNB) Type() string      { return TypeMultinomialNB }
func (m *MultinomialNB) Classes() []string { return m.classes }
func (m *MultinomialNB) NumFeatures() int  { return m.numFeatures }

func (m *MultinomialNB) jointLogLikelihood(x SparseVector) ([]float64, error) {
	if err := x.check(m.numFeatures); err != nil {
		return nil, err
	}
	jll := make([]float64, len(m.classes))
	for k, row := range m.featureLogProb {
		jll[k] = x.Dot(row) + m.classLogPrior[k]
	}
	return jll, nil
}

func (m *MultinomialNB) Predict(x SparseVector) (string, error) {
	jll, err := m.jointLogLikelihood(x)
	if err != nil {
		return "", err
	}
	return m.classes[argmax(jll)], nil
}

func (m *MultinomialNB) PredictProba(x SparseVector) ([]float64, error) {
	jll, err := m.jointLogLikelihood(x)
	if err != nil {
		return nil, err
	}
	return softmax(jll), nil
}

// argmax returns the first index holding the maximum.
func argmax(xs []float64) int {
	best := 0
	for i := 1; i < len(xs); i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func softmax(xs []float64) []float64 {
	m := xs[argmax(xs)]
	out := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		out[i] = math.Exp(x - m)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
