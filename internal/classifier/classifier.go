// Package classifier runs the fetch, preprocess, model and assembly steps
// for a single image URL.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Brownie44l1/clothing-api/internal/cache"
	"github.com/Brownie44l1/clothing-api/internal/imagefetch"
	"github.com/Brownie44l1/clothing-api/internal/logging"
	"github.com/Brownie44l1/clothing-api/internal/prediction"
	"github.com/Brownie44l1/clothing-api/internal/preprocess"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*imagefetch.RawImage, error)
}

type Runner interface {
	Run(ctx context.Context, input preprocess.Tensor) ([]float32, error)
}

// Classifier is built once at startup and only read afterwards, so a single
// instance serves concurrent requests.
type Classifier struct {
	classes  []string
	fetcher  Fetcher
	runner   Runner
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

type Option func(*Classifier)

// WithCache enables result caching keyed by image URL. Results are then
// persisted in c for ttl and repeat requests for the same URL are served
// from it, so a result is no longer built fresh for every request.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(cl *Classifier) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

func New(classes []string, fetcher Fetcher, runner Runner, logger *zap.Logger, opts ...Option) *Classifier {
	owned := make([]string, len(classes))
	copy(owned, classes)

	c := &Classifier{
		classes: owned,
		fetcher: fetcher,
		runner:  runner,
		logger:  logger.Named("classifier"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classes returns a copy of the label order.
func (c *Classifier) Classes() []string {
	out := make([]string, len(c.classes))
	copy(out, c.classes)
	return out
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &stageError{kind: ErrInvalidInput, cause: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &stageError{kind: ErrInvalidInput, cause: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return &stageError{kind: ErrInvalidInput, cause: errors.New("missing host")}
	}
	return nil
}

// Predict classifies the image at imageURL. A request either yields a full
// result or fails; failures are never retried.
func (c *Classifier) Predict(ctx context.Context, requestID, imageURL string) (*prediction.Result, error) {
	opLogger := logging.WithOperation(c.logger, "classifier.predict", requestID)

	if err := ValidateURL(imageURL); err != nil {
		return nil, logging.NewOperationError("classifier.validate", requestID, err)
	}

	if result, ok := c.cached(ctx, opLogger, imageURL); ok {
		return result, nil
	}

	start := time.Now()
	raw, err := c.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		wrapped := logging.NewOperationError("classifier.fetch", requestID, &stageError{kind: ErrAcquisition, cause: err})
		opLogger.Warn("image acquisition failed", zap.String("url", imageURL), zap.Error(err))
		return nil, wrapped
	}
	fetched := time.Since(start)

	tensor, err := preprocess.Transform(raw.Pixels, raw.Height, raw.Width)
	if err != nil {
		wrapped := logging.NewOperationError("classifier.preprocess", requestID, &stageError{kind: ErrAcquisition, cause: err})
		opLogger.Error("preprocessing rejected image", zap.Error(err))
		return nil, wrapped
	}

	scores, err := c.runner.Run(ctx, tensor)
	if err != nil {
		wrapped := logging.NewOperationError("classifier.run", requestID, &stageError{kind: ErrExecution, cause: err})
		opLogger.Error("model execution failed", zap.Error(err))
		return nil, wrapped
	}

	result, err := prediction.Assemble(c.classes, scores)
	if err != nil {
		opLogger.Error("model output does not match configured classes",
			zap.Int("scores", len(scores)),
			zap.Int("classes", len(c.classes)),
			zap.Error(err),
		)
		return nil, logging.NewOperationError("classifier.assemble", requestID, err)
	}

	opLogger.Info("prediction complete",
		zap.String("top_class", result.TopClass),
		zap.Float32("top_probability", result.TopProbability),
		zap.Duration("fetch", fetched),
		zap.Duration("total", time.Since(start)),
	)

	c.store(ctx, opLogger, imageURL, result)
	return result, nil
}

func (c *Classifier) cached(ctx context.Context, logger *zap.Logger, imageURL string) (*prediction.Result, bool) {
	if c.cache == nil {
		return nil, false
	}
	value, err := c.cache.Get(ctx, cache.PredictionKey(imageURL))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logger.Warn("failed to read prediction cache", zap.Error(err))
		}
		return nil, false
	}
	var result prediction.Result
	if err := json.Unmarshal([]byte(value), &result); err != nil {
		logger.Warn("failed to decode cached prediction", zap.Error(err))
		return nil, false
	}
	if len(result.Predictions) != len(c.classes) {
		return nil, false
	}
	logger.Debug("prediction served from cache")
	return &result, true
}

func (c *Classifier) store(ctx context.Context, logger *zap.Logger, imageURL string, result *prediction.Result) {
	if c.cache == nil {
		return
	}
	serialized, err := json.Marshal(result)
	if err != nil {
		logger.Warn("failed to serialize prediction", zap.Error(err))
		return
	}
	if err := c.cache.Set(ctx, cache.PredictionKey(imageURL), string(serialized), c.cacheTTL); err != nil {
		logger.Warn("failed to cache prediction", zap.Error(err))
	}
}
