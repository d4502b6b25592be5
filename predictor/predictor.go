// Package predictor classifies sequences as membrane-bound or soluble, either
// with a hydrophobicity threshold or with a trained linear model.
package predictor

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"protpred/config"
	"protpred/ml"
)

// Requested modes.
const (
	ModeAuto = "auto"
	ModeML   = "ml"
	ModeRule = "rule"
)

// Result mode tags.
const (
	TagRuleBased = "rule-based"
	TagML        = "ml"
	TagAuto      = "auto"
)

// RuleThreshold is the hydrophobic fraction above which the rule predicts
// membrane-bound.
const RuleThreshold = 0.45

const ErrEmptySequence = "Empty sequence."

type cacheKey struct {
	sequence string
	mode     string
}

// Service is immutable after construction and safe for concurrent use.
type Service struct {
	model     ml.Classifier
	extractor ml.Extractor
	cache     *lru.Cache[cacheKey, Result]
	logger    *zap.Logger
}

type Options struct {
	NTermWindow int
	CacheSize   int
	Logger      *zap.Logger
}

func New(model ml.Classifier, opts Options) (*Service, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Service{
		model:     model,
		extractor: ml.NewExtractor(opts.NTermWindow),
		logger:    opts.Logger,
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[cacheKey, Result](opts.CacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	return s, nil
}

// Load reads the model artifact named by cfg and builds a Service around it.
// Any error here must stop the process before it serves.
func Load(cfg *config.Config, logger *zap.Logger) (*Service, ml.MLModel, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	model, err := ml.LoadModel(cfg.Model.Type, cfg.Model.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("model file not found or unreadable at %s, run training first: %w", cfg.Model.Path, err)
	}
	info := model.Info()
	if info.NTermWindow != 0 && info.NTermWindow != cfg.Model.NTermWindow {
		logger.Warn("N-terminal window differs between training and inference",
			zap.Int("training_window", info.NTermWindow),
			zap.Int("inference_window", cfg.Model.NTermWindow))
	}
	logger.Info("model loaded",
		zap.String("path", cfg.Model.Path),
		zap.String("type", info.Type),
		zap.Float64s("coefficients", info.Coefficients),
		zap.Float64("intercept", info.Intercept))

	svc, err := New(model, Options{
		NTermWindow: cfg.Model.NTermWindow,
		CacheSize:   cfg.Predictor.CacheSize,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return svc, model, nil
}

// Predict classifies seq. Any mode other than "rule" or "ml" is treated as
// "auto". It never panics on model failures; those come back as a Failure.
func (s *Service) Predict(seq, mode string) Result {
	seq = ml.Clean(seq)
	if seq == "" {
		return Failure{Error: ErrEmptySequence}
	}

	key := cacheKey{sequence: seq, mode: mode}
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached
		}
	}

	result := s.predict(seq, mode)
	if _, failed := result.(Failure); !failed && s.cache != nil {
		s.cache.Add(key, result)
	}
	return result
}

func (s *Service) predict(seq, mode string) Result {
	vector, summary := s.extractor.Featurize(seq)

	if mode == ModeRule {
		// The rule sees the rounded fraction, as reported in the summary.
		hyd := summary.HydrophobicFraction
		label := ml.LabelSoluble
		if hyd > RuleThreshold {
			label = ml.LabelMembraneBound
		}
		return Prediction{
			Label:      label,
			Confidence: hyd,
			Features:   summary,
			Mode:       TagRuleBased,
		}
	}
	if mode != ModeML && mode != ModeAuto {
		s.logger.Debug("unrecognised mode, using auto", zap.String("mode", mode))
	}

	prob, err := s.probability(vector)
	if err != nil {
		s.logger.Warn("model prediction failed", zap.Error(err))
		return Failure{Error: fmt.Sprintf("Model prediction failed: %s", err)}
	}
	label := ml.LabelSoluble
	if prob >= 0.5 {
		label = ml.LabelMembraneBound
	}
	tag := TagAuto
	if mode == ModeML {
		tag = TagML
	}
	return Prediction{
		Label:      label,
		Confidence: ml.Round3(prob),
		Features:   summary,
		Mode:       tag,
	}
}

func (s *Service) probability(vector ml.FeatureVector) (prob float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	if s.model == nil {
		return 0, ml.ErrNotTrained
	}
	return s.model.PredictProba(vector.Slice())
}
