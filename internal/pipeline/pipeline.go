// Package pipeline wires the extraction stages together: detect task
// candidates, resolve entities, score, deduplicate and optionally
// clarify borderline records through the oracle.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/extractd/internal/config"
	"github.com/fyrsmithlabs/extractd/internal/dedup"
	"github.com/fyrsmithlabs/extractd/internal/detect"
	"github.com/fyrsmithlabs/extractd/internal/embeddings"
	"github.com/fyrsmithlabs/extractd/internal/entities"
	"github.com/fyrsmithlabs/extractd/internal/logging"
	"github.com/fyrsmithlabs/extractd/internal/oracle"
	"github.com/fyrsmithlabs/extractd/internal/score"
	"github.com/fyrsmithlabs/extractd/internal/task"
	"github.com/fyrsmithlabs/extractd/internal/transcript"
)

// clarifyWorkers bounds concurrent oracle calls per extraction run.
const clarifyWorkers = 4

// Engine runs the full extraction pipeline over one meeting at a time.
// Engines are safe for concurrent use; all per-meeting state lives in
// the resolver session created per call.
type Engine struct {
	detector  *detect.Detector
	resolver  *entities.Resolver
	scorer    *score.Scorer
	dedup     *dedup.Deduplicator
	clarifier oracle.Clarifier
	oracleCfg oracle.Config
	scorerCfg score.Config
	logger    *logging.Logger
	metrics   *Metrics
}

// New assembles an engine from configuration. The embedder may be nil
// (lexical-only deduplication); the clarifier may be a NoOpClarifier.
func New(cfg *config.Config, embedder embeddings.Embedder, clarifier oracle.Clarifier, logger *logging.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if clarifier == nil {
		clarifier = &oracle.NoOpClarifier{}
	}
	if logger == nil {
		logger = logging.Nop()
	}

	families := cfg.Detector.Families
	if len(families) == 0 {
		families = detect.DefaultFamilies()
	}

	return &Engine{
		detector:  detect.New(cfg.Detector),
		resolver:  entities.New(cfg.Resolver, entities.DefaultDateVocabulary(), entities.DefaultNameFilter()),
		scorer:    score.New(cfg.Scorer, detect.Priors(families)),
		dedup:     dedup.New(cfg.Dedup, embedder),
		clarifier: clarifier,
		oracleCfg: cfg.Oracle,
		scorerCfg: cfg.Scorer,
		logger:    logger,
		metrics:   NewMetrics(),
	}, nil
}

// Extract runs the pipeline over one meeting and returns deduplicated
// task records ordered by priority, then due date, then source
// position. An empty result is valid output, not an error.
func (e *Engine) Extract(ctx context.Context, meeting transcript.Meeting) ([]task.TaskRecord, error) {
	if err := meeting.Validate(); err != nil {
		return nil, err
	}

	utterances, skipped := transcript.Clean(meeting.Utterances)
	if skipped > 0 {
		e.logger.Debug(ctx, "skipped malformed utterances", zap.Int("count", skipped))
	}
	if len(utterances) == 0 {
		return nil, transcript.ErrEmptyTranscript
	}
	e.metrics.utterances.Add(float64(len(utterances)))

	start := time.Now()
	candidates := e.detector.Detect(utterances)
	e.metrics.ObserveStage("detect", time.Since(start))
	for _, c := range candidates {
		e.metrics.candidates.WithLabelValues(c.PatternType).Inc()
	}
	e.logger.Debug(ctx, "detected candidates",
		zap.Int("utterances", len(utterances)),
		zap.Int("candidates", len(candidates)))
	if len(candidates) == 0 {
		return nil, nil
	}

	start = time.Now()
	session := e.resolver.Bind(utterances, meeting.Roster, meeting.ReferenceDate)
	resolved := make([]task.ResolvedCandidate, 0, len(candidates))
	for _, c := range candidates {
		resolved = append(resolved, session.Resolve(c))
	}
	e.metrics.ObserveStage("resolve", time.Since(start))

	start = time.Now()
	scored := make([]task.ScoredTask, 0, len(resolved))
	for _, rc := range resolved {
		st, keep := e.scorer.Score(rc, meeting.ReferenceDate)
		if !keep {
			e.logger.Trace(ctx, "dropped low-confidence candidate",
				zap.String("span", rc.MatchedSpan),
				zap.Float64("confidence", st.Confidence))
			continue
		}
		scored = append(scored, st)
	}
	e.metrics.ObserveStage("score", time.Since(start))
	if len(scored) == 0 {
		return nil, nil
	}

	start = time.Now()
	records, err := e.dedup.Deduplicate(ctx, scored)
	e.metrics.ObserveStage("dedup", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("deduplicating tasks: %w", err)
	}
	e.logger.Debug(ctx, "deduplicated tasks",
		zap.Int("scored", len(scored)),
		zap.Int("records", len(records)))

	if e.oracleCfg.Enabled && e.clarifier.Available() {
		start = time.Now()
		records = e.clarify(ctx, records)
		e.metrics.ObserveStage("clarify", time.Since(start))
	}

	sortRecords(records)
	e.metrics.records.Add(float64(len(records)))
	e.logger.Info(ctx, "extraction complete",
		zap.Int("utterances", len(utterances)),
		zap.Int("candidates", len(candidates)),
		zap.Int("records", len(records)))
	return records, nil
}

// clarify sends ambiguous records through the oracle with bounded
// concurrency. Oracle failures keep the heuristic record untouched; a
// nil verdict drops it.
func (e *Engine) clarify(ctx context.Context, records []task.TaskRecord) []task.TaskRecord {
	results := make([]*task.TaskRecord, len(records))
	sem := make(chan struct{}, clarifyWorkers)
	var wg sync.WaitGroup

	for i := range records {
		if !e.needsClarification(records[i]) {
			r := records[i]
			results[i] = &r
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			callCtx, cancel := context.WithTimeout(ctx, e.oracleCfg.Timeout)
			defer cancel()

			verdict, err := e.clarifier.Clarify(callCtx, records[i])
			if err != nil {
				e.metrics.oracleResults.WithLabelValues("error").Inc()
				e.logger.Warn(ctx, "clarification failed, keeping heuristic record",
					zap.String("id", records[i].ID),
					zap.Error(err))
				r := records[i]
				results[i] = &r
				return
			}
			if verdict == nil {
				e.metrics.oracleResults.WithLabelValues("dropped").Inc()
				e.logger.Debug(ctx, "oracle rejected record",
					zap.String("id", records[i].ID),
					zap.String("description", records[i].Description))
				return
			}
			if verdict.Description != records[i].Description || verdict.Assignee != records[i].Assignee {
				e.metrics.oracleResults.WithLabelValues("revised").Inc()
			} else {
				e.metrics.oracleResults.WithLabelValues("kept").Inc()
			}
			results[i] = verdict
		}(i)
	}
	wg.Wait()

	kept := make([]task.TaskRecord, 0, len(records))
	for _, r := range results {
		if r != nil {
			kept = append(kept, *r)
		}
	}
	return kept
}

// terseDescriptionWords is the word count below which a description is
// too terse to stand on its own.
const terseDescriptionWords = 5

// needsClarification reports whether a record is worth an oracle call.
// Records above the confidence band are trusted outright; below it,
// only a missing assignee or a terse description marks a record as
// ambiguous enough to spend a call on.
func (e *Engine) needsClarification(r task.TaskRecord) bool {
	if r.Confidence >= e.scorerCfg.MinConfidence+e.oracleCfg.ConfidenceBand {
		return false
	}
	return r.Assignee == "" || len(strings.Fields(r.Description)) < terseDescriptionWords
}

// priorityRank orders priorities for output sorting.
var priorityRank = map[task.Priority]int{
	task.PriorityCritical: 0,
	task.PriorityHigh:     1,
	task.PriorityMedium:   2,
	task.PriorityLow:      3,
}

// sortRecords orders output by priority, then due date (soonest first,
// undated last), then source position.
func sortRecords(records []task.TaskRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ri, rj := priorityRank[records[i].Priority], priorityRank[records[j].Priority]
		if ri != rj {
			return ri < rj
		}
		di, dj := records[i].DueDate, records[j].DueDate
		switch {
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.Before(*dj)
		case di != nil && dj == nil:
			return true
		case di == nil && dj != nil:
			return false
		}
		return records[i].UtteranceIndex < records[j].UtteranceIndex
	})
}
