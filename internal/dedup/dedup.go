// Package dedup collapses near-duplicate scored tasks into single
// records. Two tasks are duplicates when either their lexical overlap
// or their embedding cosine similarity crosses a threshold; duplicate
// clusters are closed transitively and merged onto a representative.
package dedup

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fyrsmithlabs/extractd/internal/embeddings"
	"github.com/fyrsmithlabs/extractd/internal/task"
)

// Config holds deduplicator configuration.
type Config struct {
	// LexicalThreshold is the minimum token-overlap similarity for two
	// tasks to merge.
	LexicalThreshold float64 `koanf:"lexical_threshold"`

	// SemanticThreshold is the minimum embedding cosine similarity for
	// two tasks to merge.
	SemanticThreshold float64 `koanf:"semantic_threshold"`
}

// DefaultConfig returns the default deduplicator configuration.
func DefaultConfig() Config {
	return Config{
		LexicalThreshold:  0.5,
		SemanticThreshold: 0.8,
	}
}

// Deduplicator merges near-duplicate tasks. A nil embedder disables
// semantic similarity; lexical overlap alone then decides merges.
type Deduplicator struct {
	cfg      Config
	embedder embeddings.Embedder
}

// New creates a deduplicator.
func New(cfg Config, embedder embeddings.Embedder) *Deduplicator {
	if cfg.LexicalThreshold == 0 {
		cfg.LexicalThreshold = DefaultConfig().LexicalThreshold
	}
	if cfg.SemanticThreshold == 0 {
		cfg.SemanticThreshold = DefaultConfig().SemanticThreshold
	}
	return &Deduplicator{cfg: cfg, embedder: embedder}
}

// Deduplicate clusters the scored tasks and returns one merged record
// per cluster, ordered by the first utterance index in each cluster.
// An embedder failure aborts the whole call rather than silently
// degrading to lexical-only comparison.
func (d *Deduplicator) Deduplicate(ctx context.Context, tasks []task.ScoredTask) ([]task.TaskRecord, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	var vectors [][]float32
	if d.embedder != nil {
		texts := make([]string, len(tasks))
		for i, t := range tasks {
			texts[i] = t.MatchedSpan
		}
		var err error
		vectors, err = d.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding task descriptions: %w", err)
		}
		if len(vectors) != len(tasks) {
			return nil, fmt.Errorf("embedding task descriptions: got %d vectors for %d tasks", len(vectors), len(tasks))
		}
	}

	uf := newUnionFind(len(tasks))
	for i := 0; i < len(tasks); i++ {
		for j := i + 1; j < len(tasks); j++ {
			if d.duplicates(tasks[i], tasks[j], vectors, i, j) {
				uf.union(i, j)
			}
		}
	}

	clusters := make(map[int][]int)
	for i := range tasks {
		root := uf.find(i)
		clusters[root] = append(clusters[root], i)
	}

	records := make([]task.TaskRecord, 0, len(clusters))
	for _, members := range clusters {
		records = append(records, merge(tasks, members))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UtteranceIndex < records[j].UtteranceIndex
	})
	return records, nil
}

// duplicates reports whether two tasks describe the same commitment.
func (d *Deduplicator) duplicates(a, b task.ScoredTask, vectors [][]float32, i, j int) bool {
	if lexicalSimilarity(a.MatchedSpan, b.MatchedSpan) >= d.cfg.LexicalThreshold {
		return true
	}
	if vectors != nil && cosine(vectors[i], vectors[j]) >= d.cfg.SemanticThreshold {
		return true
	}
	return false
}

// merge collapses a cluster onto its representative. The description
// and confidence come from the highest-confidence member (earliest
// utterance on ties), the assignee from the highest-confidence member
// that has one, dates are unioned with the soonest deadline winning,
// and the task type stays with the cluster's earliest member.
func merge(tasks []task.ScoredTask, members []int) task.TaskRecord {
	sort.Ints(members)

	rep := members[0]
	for _, m := range members[1:] {
		if tasks[m].Confidence > tasks[rep].Confidence {
			rep = m
		}
	}

	merged := tasks[rep]
	merged.TaskType = tasks[members[0]].PatternType
	merged.UtteranceIndex = tasks[members[0]].UtteranceIndex

	if merged.Assignee == "" {
		for _, m := range byConfidence(tasks, members) {
			if tasks[m].Assignee != "" {
				merged.Assignee = tasks[m].Assignee
				break
			}
		}
	}

	merged.StartDate = nil
	merged.DueDate = nil
	var related []time.Time
	for _, m := range members {
		related = append(related, tasks[m].RelatedDates...)
		if due := tasks[m].DueDate; due != nil {
			if merged.DueDate == nil || due.Before(*merged.DueDate) {
				d := *due
				merged.DueDate = &d
			}
		}
		if start := tasks[m].StartDate; start != nil {
			if merged.StartDate == nil || start.Before(*merged.StartDate) {
				s := *start
				merged.StartDate = &s
			}
		}
	}
	merged.RelatedDates = uniqueSorted(related)

	// Unioning dates independently can pair one member's start with
	// another member's earlier deadline; a start after the due date is
	// meaningless, so drop it.
	if merged.StartDate != nil && merged.DueDate != nil && merged.StartDate.After(*merged.DueDate) {
		merged.StartDate = nil
	}

	return task.NewRecord(merged, merged.MatchedSpan)
}

// byConfidence returns cluster members ordered by descending
// confidence, earliest utterance first on ties.
func byConfidence(tasks []task.ScoredTask, members []int) []int {
	ordered := make([]int, len(members))
	copy(ordered, members)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if tasks[a].Confidence != tasks[b].Confidence {
			return tasks[a].Confidence > tasks[b].Confidence
		}
		return tasks[a].UtteranceIndex < tasks[b].UtteranceIndex
	})
	return ordered
}

func uniqueSorted(dates []time.Time) []time.Time {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	unique := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if len(unique) == 0 || !d.Equal(unique[len(unique)-1]) {
			unique = append(unique, d)
		}
	}
	return unique
}

// unionFind is a disjoint-set forest with path compression.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
