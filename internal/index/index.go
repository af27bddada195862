// Package index keeps the per-notebook chunk collections used for
// retrieval. Each notebook owns one Index; a rebuild assembles the new chunk
// sequence off to the side and swaps it in atomically, so concurrent readers
// always see either the old or the new complete state.
package index

import (
	"fmt"
	"sync"

	"github.com/Beeta/pynotex/internal/chunker"
	"github.com/Beeta/pynotex/internal/model"
)

// Index is an ordered, immutable snapshot of a notebook's chunks. The chunk
// slice is never mutated after construction; writers replace the whole Index.
type Index struct {
	chunks []model.Chunk
}

func (i *Index) Chunks() []model.Chunk {
	if i == nil {
		return nil
	}
	return i.chunks
}

func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.chunks)
}

type Registry struct {
	mu        sync.RWMutex
	splitter  *chunker.Chunker
	notebooks map[string]*Index
}

func NewRegistry(splitter *chunker.Chunker) *Registry {
	return &Registry{
		splitter:  splitter,
		notebooks: make(map[string]*Index),
	}
}

// Get returns the current snapshot for a notebook. A notebook without an
// index yields an empty one.
func (r *Registry) Get(notebookID string) *Index {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.notebooks[notebookID]
}

// Rebuild replaces the notebook's index with one built from the given
// persisted sources. Building from the same sources twice yields identical
// chunk ordering and ids.
func (r *Registry) Rebuild(notebookID string, sources []model.Source) *Index {
	next := &Index{chunks: r.buildChunks(sources)}
	r.mu.Lock()
	r.notebooks[notebookID] = next
	r.mu.Unlock()
	return next
}

// Append extends the notebook's index with one freshly ingested source and
// returns the number of chunks it produced. The extension is copy-on-write:
// readers holding the old snapshot are unaffected.
func (r *Registry) Append(notebookID string, src model.Source) int {
	added := r.buildChunks([]model.Source{src})
	r.mu.Lock()
	old := r.notebooks[notebookID]
	merged := make([]model.Chunk, 0, old.Len()+len(added))
	merged = append(merged, old.Chunks()...)
	merged = append(merged, added...)
	r.notebooks[notebookID] = &Index{chunks: merged}
	r.mu.Unlock()
	return len(added)
}

// Drop removes a notebook's index entirely.
func (r *Registry) Drop(notebookID string) {
	r.mu.Lock()
	delete(r.notebooks, notebookID)
	r.mu.Unlock()
}

// RemoveSource drops a deleted source's chunks, leaving the rest in order.
func (r *Registry) RemoveSource(notebookID, sourceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.notebooks[notebookID]
	if old.Len() == 0 {
		return
	}
	kept := make([]model.Chunk, 0, old.Len())
	for _, c := range old.Chunks() {
		if c.SourceID != sourceID {
			kept = append(kept, c)
		}
	}
	r.notebooks[notebookID] = &Index{chunks: kept}
}

func (r *Registry) buildChunks(sources []model.Source) []model.Chunk {
	var chunks []model.Chunk
	for _, src := range sources {
		for seq, piece := range r.splitter.Split(src.Content) {
			chunks = append(chunks, model.Chunk{
				ID:         fmt.Sprintf("%s:%d", src.ID, seq),
				SourceID:   src.ID,
				Seq:        seq,
				Text:       piece.Text,
				Chars:      len([]rune(piece.Text)),
				Lang:       piece.Lang,
				SourceName: src.Name,
			})
		}
	}
	return chunks
}
