// Package textindex supplies the fusion stage interface for full-text
// search over an entity field. Only the stage boundary is part of this
// system's core: the inverted index itself is an external collaborator,
// here satisfied by a thin bleve-backed adapter.
package textindex

import (
	"context"

	"github.com/aman-cerp/fdblayer/internal/fusion"
)

// TextStage is the fusion stage interface that full-text search must
// satisfy; it is fusion.Stage[fusion.ID] under another name since the
// stage boundary, not a bespoke shape, is what's in scope here.
type TextStage = fusion.Stage[fusion.ID]

// Document is one unit of indexable text, keyed by the same id the
// record store and other stages use.
type Document struct {
	ID      fusion.ID
	Content string
}

// Stats summarizes an index's size for admin reporting.
type Stats struct {
	DocumentCount int
}

// TextIndex is the external collaborator interface: an inverted index
// that can be indexed into, searched, and introspected.
type TextIndex interface {
	Index(ctx context.Context, docs []Document) error
	Search(ctx context.Context, query string, limit int) ([]fusion.ScoredResult[fusion.ID], error)
	Delete(ctx context.Context, ids []fusion.ID) error
	Stats() Stats
	Close() error
}

// stage adapts a TextIndex into a fusion stage that never requires
// candidates: full-text search is always a valid stage 0.
type stage struct {
	Index TextIndex
	Query string
	Limit int
}

// NewStage builds a fusion.Stage[fusion.ID] running a text search
// against idx, intersected with any narrower candidate set already in
// play.
func NewStage(idx TextIndex, query string, limit int) TextStage {
	return stage{Index: idx, Query: query, Limit: limit}
}

func (s stage) RequiresCandidates() bool { return false }

func (s stage) Execute(ctx context.Context, candidates fusion.Candidates) ([]fusion.ScoredResult[fusion.ID], error) {
	results, err := s.Index.Search(ctx, s.Query, s.Limit)
	if err != nil {
		return nil, err
	}
	if candidates == nil {
		return results, nil
	}

	out := make([]fusion.ScoredResult[fusion.ID], 0, len(results))
	for _, r := range results {
		if _, ok := candidates[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}
