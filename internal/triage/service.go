package triage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"meditriage/internal/apperror"
	"meditriage/internal/logger"
)

// Service runs the full triage pipeline for one request.
type Service interface {
	PerformTriage(ctx context.Context, req Request) (*Result, error)
}

type service struct {
	cfg        Config
	detector   *RedFlagDetector
	matcher    *ConditionMatcher
	aggregator *Aggregator
	composer   *Composer
	reporter   Reporter
	sinks      []AssessmentSink
	log        *zap.Logger
}

// NewService validates cfg and wires the engine components around store.
func NewService(cfg Config, store ReferenceStore, reporter Reporter, log *zap.Logger, sinks ...AssessmentSink) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid triage configuration: %w", err)
	}
	if reporter == nil {
		reporter = noopReporter{}
	}
	detector := NewRedFlagDetector(cfg, store, reporter, log)
	return &service{
		cfg:        cfg,
		detector:   detector,
		matcher:    NewConditionMatcher(cfg, store, reporter, log),
		aggregator: NewAggregator(cfg),
		composer:   NewComposer(cfg, detector),
		reporter:   reporter,
		sinks:      sinks,
		log:        log,
	}, nil
}

// PerformTriage is deterministic for a given request and catalog state.
// Store failures degrade locally; only a defect in aggregation or
// composition surfaces as ErrTriageFailed.
func (s *service) PerformTriage(ctx context.Context, req Request) (result *Result, err error) {
	start := time.Now()
	ctx = logger.WithSession(ctx, s.log, req.SessionID)
	log := logger.FromContext(ctx, s.log)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", apperror.ErrTriageFailed, r)
			result = nil
			log.Error("triage analysis failed", zap.Error(err))
			s.reporter.InternalFailure(ctx, err)
		}
	}()

	log.Info("triage started", zap.Int("symptom_count", len(req.Symptoms)))

	var (
		wg       sync.WaitGroup
		redFlags RedFlagResult
		matches  []ConditionMatch
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		redFlags = s.detector.Detect(ctx, req.Symptoms)
	}()
	go func() {
		defer wg.Done()
		matches = s.matcher.Match(ctx, req.Symptoms)
	}()
	wg.Wait()

	symptomScore := s.aggregator.SymptomScore(req.Symptoms)
	avgRelevance := s.aggregator.AverageRelevance(matches)
	conditionUrgency := s.aggregator.ConditionUrgencyScore(matches)
	score := s.aggregator.Score(symptomScore, conditionUrgency, avgRelevance, redFlags)
	confidence := s.aggregator.Confidence(len(req.Symptoms), len(matches), avgRelevance)

	top := matches
	if len(top) > s.cfg.TopConditions {
		top = top[:s.cfg.TopConditions]
	}
	detected := redFlags.DetectedRedFlags
	if detected == nil {
		detected = []string{}
	}

	result = &Result{
		UrgencyLevel:          score.UrgencyLevel,
		Confidence:            confidence,
		TopConditions:         top,
		RedFlagsDetected:      detected,
		Recommendation:        s.composer.Recommendation(score.UrgencyLevel, redFlags, matches),
		Disclaimer:            s.composer.GeneralNotice(),
		Reasoning:             s.composer.Reasoning(len(req.Symptoms), redFlags, matches, score),
		EstimatedResponseTime: s.composer.ResponseTime(score.UrgencyLevel),
	}

	elapsed := time.Since(start)
	log.Info("triage completed",
		zap.String("urgency", string(result.UrgencyLevel)),
		zap.Float64("confidence", result.Confidence),
		zap.Int("total_score", score.TotalScore),
		zap.Int("matched_conditions", len(matches)),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	)

	s.dispatch(ctx, Assessment{
		Request:      req,
		Result:       *result,
		RedFlags:     redFlags,
		Score:        score,
		ResponseTime: elapsed.Milliseconds(),
	})
	return result, nil
}

// dispatch hands the assessment to every sink without waiting. Sinks get a
// context that survives the caller's cancellation.
func (s *service) dispatch(ctx context.Context, a Assessment) {
	if len(s.sinks) == 0 {
		return
	}
	detached := context.WithoutCancel(ctx)
	for _, sink := range s.sinks {
		go func(sink AssessmentSink) {
			defer func() {
				if r := recover(); r != nil {
					logger.FromContext(detached, s.log).Error("assessment sink panicked", zap.Any("panic", r))
				}
			}()
			sink.Record(detached, a)
		}(sink)
	}
}
