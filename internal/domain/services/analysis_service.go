package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"threatscope-lab/internal/config"
	"threatscope-lab/internal/domain/models"
	"threatscope-lab/internal/generators"
	"threatscope-lab/internal/infrastructure/cache"
	"threatscope-lab/internal/intel"
	"threatscope-lab/internal/observability"
	"threatscope-lab/internal/streaming"
	"threatscope-lab/pkg/logger"
)

// ResultArchive is the durable write-once sink for completed analyses.
// Archive failures are logged and never fail the caller's response.
type ResultArchive interface {
	Insert(ctx context.Context, result *models.AnalysisResult) error
	GetByID(ctx context.Context, analysisID string) (*models.AnalysisResult, error)
}

// AnalysisService orchestrates the full pipeline: extraction, rule matching,
// correlation, context adjustment, the concurrent auxiliary generators,
// ranking, confidence calculation and the result cache.
type AnalysisService struct {
	cfg config.AnalysisConfig

	extractor   *SignalExtractor
	matcher     *RuleMatcher
	correlator  *CorrelationAnalyzer
	adjuster    *ContextAdjuster
	generators  *generators.Registry
	intel       *intel.Registry
	ranker      *Ranker
	confidence  *ConfidenceCalculator
	recommender *Recommender

	store   cache.ResultStore
	archive ResultArchive
	bus     *streaming.EventBus
	metrics *observability.Metrics
	logger  *logger.Logger

	intelTimeout time.Duration
}

// AnalysisServiceDeps carries the optional collaborators. Store is required;
// archive, bus and metrics may be nil.
type AnalysisServiceDeps struct {
	Ruleset      *Ruleset
	Generators   *generators.Registry
	Intel        *intel.Registry
	Store        cache.ResultStore
	Archive      ResultArchive
	Bus          *streaming.EventBus
	Metrics      *observability.Metrics
	IntelTimeout time.Duration
}

// NewAnalysisService wires the pipeline stages
func NewAnalysisService(cfg config.AnalysisConfig, deps AnalysisServiceDeps, log *logger.Logger) *AnalysisService {
	return &AnalysisService{
		cfg:          cfg,
		extractor:    NewSignalExtractor(log),
		matcher:      NewRuleMatcher(deps.Ruleset, cfg, log),
		correlator:   NewCorrelationAnalyzer(deps.Ruleset, cfg, log),
		adjuster:     NewContextAdjuster(cfg, log),
		generators:   deps.Generators,
		intel:        deps.Intel,
		ranker:       NewRanker(cfg, log),
		confidence:   NewConfidenceCalculator(cfg, log),
		recommender:  NewRecommender(log),
		store:        deps.Store,
		archive:      deps.Archive,
		bus:          deps.Bus,
		metrics:      deps.Metrics,
		logger:       log.WithComponent("analysis_service"),
		intelTimeout: deps.IntelTimeout,
	}
}

// Analyze runs the full pipeline for one request. A repeated request for the
// same threat model within the result TTL returns the cached result without
// recomputation.
func (s *AnalysisService) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	if err := models.ValidateRequest(req); err != nil {
		return nil, err
	}

	cacheKey := "model:" + req.ThreatModelID
	if cached, err := s.store.Get(ctx, cacheKey); err == nil {
		s.countCache(ctx, "hit")
		s.logger.Debug().
			Str("threat_model_id", req.ThreatModelID).
			Str("analysis_id", cached.AnalysisID).
			Msg("returning cached analysis")
		return cached, nil
	}
	s.countCache(ctx, "miss")

	start := time.Now()
	analysisID := uuid.New().String()
	log := s.logger.WithAnalysisID(analysisID)

	// Intelligence is the only network-bound input; fetch it alongside the
	// in-memory scoring stages and join before the generators run.
	intelCh := make(chan *models.IntelSnapshot, 1)
	go func() {
		intelCh <- s.fetchIntel(ctx, req)
	}()

	signals := s.extractor.Extract(req)
	matched := s.matcher.Match(signals)
	chains := s.correlator.Analyze(signals, matched)
	adjusted := s.adjuster.Adjust(append(matched, chains...), req.Context.BusinessContext)

	snapshot := <-intelCh

	genInput := &generators.Input{Request: req, Signals: signals, Intel: snapshot}
	auxiliary, failures := s.generators.GenerateAll(ctx, genInput, s.cfg.GeneratorTimeout)

	merged := append(adjusted, auxiliary...)
	if len(merged) == 0 && failures > 0 {
		s.countOutcome(ctx, "failure")
		log.Error().
			Int("generator_failures", failures).
			Msg("no candidates produced and generators failed")
		return nil, models.ErrPipelineFailure
	}

	ranked := s.ranker.Rank(merged, req.UserPreferences.MaxThreats)
	metrics := s.confidence.Compute(ranked, snapshot, signals)

	result := &models.AnalysisResult{
		AnalysisID:        analysisID,
		ThreatModelID:     req.ThreatModelID,
		GeneratedThreats:  ranked,
		RiskAssessment:    ComputeRiskAssessment(ranked),
		ConfidenceMetrics: metrics,
		GeneratedAt:       time.Now().UTC(),
	}
	s.shapeResponse(result, req)
	result.Metadata = s.buildMetadata(result, snapshot, failures, start)

	s.persist(ctx, cacheKey, result)
	s.publish(ctx, result)
	s.observe(ctx, result, snapshot, time.Since(start))

	log.Info().
		Str("threat_model_id", req.ThreatModelID).
		Int("threats", len(ranked)).
		Float64("risk_score", result.RiskAssessment.OverallRiskScore).
		Bool("intel_degraded", snapshot.Degraded).
		Dur("duration", time.Since(start)).
		Msg("analysis completed")

	return result, nil
}

// QuickAssess runs the same pipeline at basic depth and trims the response
// to the top findings. The depth override keeps the predictive generator
// and the recommender out of a path that would discard their output.
func (s *AnalysisService) QuickAssess(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	if req != nil && req.AnalysisDepth != models.DepthBasic {
		quick := *req
		quick.AnalysisDepth = models.DepthBasic
		req = &quick
	}

	full, err := s.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	trimmed := *full
	if len(trimmed.GeneratedThreats) > s.cfg.QuickTopN {
		trimmed.GeneratedThreats = trimmed.GeneratedThreats[:s.cfg.QuickTopN]
	}
	trimmed.Recommendations = nil
	trimmed.Predictions = nil
	return &trimmed, nil
}

// GetResult fetches a finished analysis by id, first from the cache and
// then from the durable archive.
func (s *AnalysisService) GetResult(ctx context.Context, analysisID string) (*models.AnalysisResult, error) {
	if result, err := s.store.Get(ctx, analysisID); err == nil {
		return result, nil
	}
	if s.archive != nil {
		return s.archive.GetByID(ctx, analysisID)
	}
	return nil, models.ErrResultNotFound
}

// fetchIntel assembles the intelligence snapshot; with no registry the
// snapshot is empty and flagged degraded so data quality reflects it.
func (s *AnalysisService) fetchIntel(ctx context.Context, req *models.AnalysisRequest) *models.IntelSnapshot {
	if s.intel == nil || s.intel.Count() == 0 {
		return &models.IntelSnapshot{Degraded: true, FetchedAt: time.Now().UTC()}
	}
	return s.intel.Snapshot(ctx, req, s.intelTimeout)
}

// shapeResponse fills the depth-dependent sections. Basic analyses return
// threats only; standard adds recommendations; comprehensive adds
// predictions. Explicit preferences override the depth default.
func (s *AnalysisService) shapeResponse(result *models.AnalysisResult, req *models.AnalysisRequest) {
	depth := req.AnalysisDepth
	if depth == "" {
		depth = models.DepthStandard
	}

	wantRecommendations := depth != models.DepthBasic || req.UserPreferences.IncludeRecommendations
	wantPredictions := depth == models.DepthComprehensive || req.UserPreferences.IncludePredictions

	if wantRecommendations {
		result.Recommendations = s.recommender.Recommend(result.GeneratedThreats)
	}
	if wantPredictions {
		result.Predictions = s.recommender.Predict(result.GeneratedThreats)
	}
}

func (s *AnalysisService) buildMetadata(result *models.AnalysisResult, snapshot *models.IntelSnapshot, failures int, start time.Time) models.ProcessingMetadata {
	used := make(map[string]struct{})
	for i := range result.GeneratedThreats {
		used[result.GeneratedThreats[i].Provenance] = struct{}{}
	}
	modelsUsed := make([]string, 0, len(used))
	for p := range used {
		modelsUsed = append(modelsUsed, p)
	}
	sort.Strings(modelsUsed)

	limitations := []string{"rule-based heuristic scoring, not a trained model"}
	if snapshot.Degraded {
		limitations = append(limitations, "external intelligence partially or fully unavailable")
	}
	if failures > 0 {
		limitations = append(limitations, "one or more generators failed and contributed no candidates")
	}

	return models.ProcessingMetadata{
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		ModelsUsed:       modelsUsed,
		AccuracyScore:    result.ConfidenceMetrics.OverallConfidence,
		Limitations:      limitations,
		IntelRecords:     len(snapshot.Records),
		IntelDegraded:    snapshot.Degraded,
	}
}

// persist writes the result to the cache and the archive. Both writes are
// fire-and-forget: failures are logged, never surfaced.
func (s *AnalysisService) persist(ctx context.Context, cacheKey string, result *models.AnalysisResult) {
	if err := s.store.Put(ctx, cacheKey, result, s.cfg.ResultTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", cacheKey).Msg("result cache write failed")
	}
	if err := s.store.Put(ctx, result.AnalysisID, result, s.cfg.ResultTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", result.AnalysisID).Msg("result cache write failed")
	}

	if s.archive != nil {
		if err := s.archive.Insert(ctx, result); err != nil {
			s.logger.Warn().Err(err).Str("analysis_id", result.AnalysisID).Msg("archive write failed")
		}
	}
}

// publish emits the completion event plus one detection per critical finding
func (s *AnalysisService) publish(ctx context.Context, result *models.AnalysisResult) {
	if s.bus == nil {
		return
	}

	if err := s.bus.Publish(ctx, streaming.NewAnalysisCompletedEvent(result)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish completion event")
	}
	for i := range result.GeneratedThreats {
		threat := &result.GeneratedThreats[i]
		if threat.Severity != models.SeverityCritical {
			continue
		}
		if err := s.bus.Publish(ctx, streaming.NewThreatDetectedEvent(result, threat)); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish detection event")
		}
	}
}

func (s *AnalysisService) observe(ctx context.Context, result *models.AnalysisResult, snapshot *models.IntelSnapshot, elapsed time.Duration) {
	s.countOutcome(ctx, "success")
	if s.metrics == nil {
		return
	}
	s.metrics.AnalysisDuration.Observe(elapsed.Seconds())
	s.metrics.ThreatsGenerated.Observe(float64(len(result.GeneratedThreats)))
	if snapshot.Degraded {
		s.metrics.IntelDegraded.Inc()
	}
}

func (s *AnalysisService) countOutcome(ctx context.Context, outcome string) {
	if s.metrics != nil {
		s.metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
	}
	s.incrStat(ctx, "analyses_"+outcome)
}

func (s *AnalysisService) countCache(ctx context.Context, outcome string) {
	if s.metrics != nil {
		s.metrics.CacheHits.WithLabelValues(outcome).Inc()
	}
	s.incrStat(ctx, "cache_"+outcome)
}

// statCounter is the Redis-backed stats hash. The in-memory store keeps no
// counters, so the assertion quietly fails there.
type statCounter interface {
	IncrStat(ctx context.Context, field string) error
}

func (s *AnalysisService) incrStat(ctx context.Context, field string) {
	counter, ok := s.store.(statCounter)
	if !ok {
		return
	}
	if err := counter.IncrStat(ctx, field); err != nil {
		s.logger.Debug().Err(err).Str("field", field).Msg("stat counter write failed")
	}
}
