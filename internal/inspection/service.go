package inspection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/damage"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/detection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/observability/metrics"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/similarity"
)

// Service runs damage comparisons against a Detector.
type Service struct {
	detector detection.Detector
	matcher  damage.Matcher
	log      logger.Logger
	metrics  *metrics.InspectionMetrics
}

// Option configures a Service.
type Option func(*Service)

// WithMatcher overrides the default region matcher.
func WithMatcher(m damage.Matcher) Option {
	return func(s *Service) {
		s.matcher = m
	}
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.InspectionMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a Service using detector for region detection.
func NewService(detector detection.Detector, opts ...Option) *Service {
	s := &Service{
		detector: detector,
		matcher:  damage.NewMatcher(damage.DefaultThreshold),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Global().Module(componentName)
	}
	return s
}

// Matcher returns the matcher used for diffs.
func (s *Service) Matcher() damage.Matcher {
	return s.matcher
}

// CompareDamage detects regions in both images concurrently and returns the
// return regions that were not present at pickup.
//
// Both detections must succeed. The first failure cancels the other call
// and is returned unchanged; no partial comparison is produced.
func (s *Service) CompareDamage(ctx context.Context, pickup, ret []byte) (*Comparison, error) {
	start := time.Now()

	var pickupResult, returnResult *detection.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.detect(gctx, pickup)
		pickupResult = r
		return err
	})
	g.Go(func() error {
		r, err := s.detect(gctx, ret)
		returnResult = r
		return err
	})

	if err := g.Wait(); err != nil {
		s.metrics.RecordComparison(outcomeOf(err), 0)
		s.log.Warn("Damage comparison failed",
			logger.Error(err),
			logger.Duration("elapsed", time.Since(start)))
		return nil, err
	}

	cmp := &Comparison{
		Pickup: resultOrEmpty(pickupResult),
		Return: resultOrEmpty(returnResult),
	}
	cmp.NewRegions = s.matcher.Diff(cmp.Pickup.Regions, cmp.Return.Regions)

	s.metrics.RecordComparison(metrics.OutcomeSuccess, len(cmp.NewRegions))
	s.log.Info("Damage comparison completed",
		logger.Int("pickup_regions", len(cmp.Pickup.Regions)),
		logger.Int("return_regions", len(cmp.Return.Regions)),
		logger.Int("new_regions", len(cmp.NewRegions)),
		logger.Duration("elapsed", time.Since(start)))

	return cmp, nil
}

// Assess runs CompareDamage and the similarity check side by side. A failed
// similarity check never fails the assessment.
func (s *Service) Assess(ctx context.Context, pickup, ret Image) (*Assessment, error) {
	var (
		score  similarity.Score
		simErr error
		wg     sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		score, simErr = similarity.CompareStrict(pickup.Data, ret.Data)
	}()

	cmp, err := s.CompareDamage(ctx, pickup.Data, ret.Data)
	wg.Wait()
	if err != nil {
		return nil, err
	}

	if simErr != nil {
		s.log.Warn("Similarity check unavailable", logger.Error(simErr))
		score = 0
	}

	level := score.Level()
	if simErr == nil {
		s.metrics.ObserveSimilarity(float64(score), string(level))
	}

	return &Assessment{
		Comparison:          *cmp,
		Similarity:          score,
		Level:               level,
		Message:             level.Message(),
		SimilarityAvailable: simErr == nil,
	}, nil
}

// Analyze moves the session through analyzing into result_ready or failed
// around a single Assess call, and returns the session as last stored.
func (s *Service) Analyze(ctx context.Context, store *Store, id string) (*Session, error) {
	sess, err := store.Update(id, func(sess *Session) error {
		return sess.BeginAnalysis()
	})
	if err != nil {
		return nil, err
	}

	// A panic below must not leave the session stuck in analyzing, where
	// every transition but Complete and Fail is refused.
	defer func() {
		if r := recover(); r != nil {
			_, _ = store.Update(id, func(sess *Session) error {
				return sess.Fail(fmt.Errorf("analysis panicked: %v", r))
			})
			panic(r)
		}
	}()

	assessment, err := s.Assess(ctx, *sess.Pickup, *sess.Return)
	if err != nil {
		failed, uerr := store.Update(id, func(sess *Session) error {
			return sess.Fail(err)
		})
		if uerr != nil {
			s.log.Warn("Failed to record analysis failure",
				logger.String("session_id", id),
				logger.Error(uerr))
			return sess, err
		}
		return failed, err
	}

	return store.Update(id, func(sess *Session) error {
		return sess.Complete(assessment)
	})
}

// detect calls the detector, turning a panic into an error. It runs on an
// errgroup goroutine where an escaped panic would end the process.
func (s *Service) detect(ctx context.Context, image []byte) (result *detection.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = errors.Newf("detector panicked: %v", r).
				Component(componentName).
				Category(errors.CategoryService).
				Build()
		}
	}()
	return s.detector.Detect(ctx, image)
}

func resultOrEmpty(r *detection.Result) detection.Result {
	if r == nil {
		return detection.Result{}
	}
	return *r
}

func outcomeOf(err error) string {
	switch {
	case errors.IsCategory(err, errors.CategoryConfiguration):
		return metrics.OutcomeNotConfigured
	case errors.IsCategory(err, errors.CategoryValidation):
		return metrics.OutcomeInvalidInput
	default:
		return metrics.OutcomeServiceError
	}
}
