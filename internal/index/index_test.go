package index

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Beeta/pynotex/internal/chunker"
	"github.com/Beeta/pynotex/internal/model"
)

func testSources() []model.Source {
	return []model.Source{
		{ID: "src-1", NotebookID: "nb-1", Name: "notes.txt", Content: "The deadline is March 5. The project starts in January."},
		{ID: "src-2", NotebookID: "nb-1", Name: "plan.txt", Content: "Weekly sync every Monday. Review happens on Friday afternoon."},
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	r := NewRegistry(chunker.New(30, 5))
	first := r.Rebuild("nb-1", testSources())
	second := r.Rebuild("nb-1", testSources())

	require.Equal(t, first.Chunks(), second.Chunks())
	for i, c := range first.Chunks() {
		require.Equal(t, fmt.Sprintf("%s:%d", c.SourceID, c.Seq), c.ID)
		if i > 0 && c.SourceID == first.Chunks()[i-1].SourceID {
			require.Equal(t, first.Chunks()[i-1].Seq+1, c.Seq, "sequence must strictly increase")
		}
	}
}

func TestGetUnknownNotebookIsEmpty(t *testing.T) {
	r := NewRegistry(chunker.New(100, 10))
	idx := r.Get("missing")
	require.Equal(t, 0, idx.Len())
	require.Nil(t, idx.Chunks())
}

func TestAppendExtendsWithoutMutatingSnapshot(t *testing.T) {
	r := NewRegistry(chunker.New(100, 10))
	r.Rebuild("nb-1", testSources()[:1])
	before := r.Get("nb-1")
	beforeLen := before.Len()

	added := r.Append("nb-1", testSources()[1])
	require.Greater(t, added, 0)
	require.Equal(t, beforeLen, before.Len(), "old snapshot must stay intact")
	require.Equal(t, beforeLen+added, r.Get("nb-1").Len())
}

func TestRemoveSourceKeepsOrder(t *testing.T) {
	r := NewRegistry(chunker.New(30, 5))
	r.Rebuild("nb-1", testSources())
	r.RemoveSource("nb-1", "src-1")
	for _, c := range r.Get("nb-1").Chunks() {
		require.Equal(t, "src-2", c.SourceID)
	}
}

func TestConcurrentReadersDuringRebuild(t *testing.T) {
	r := NewRegistry(chunker.New(20, 4))
	r.Rebuild("nb-1", testSources())

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				chunks := r.Get("nb-1").Chunks()
				// A reader must never observe a partially built index:
				// within one source the sequence is contiguous from zero.
				seen := map[string]int{}
				for _, c := range chunks {
					require.Equal(t, seen[c.SourceID], c.Seq)
					seen[c.SourceID]++
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		r.Rebuild("nb-1", testSources())
	}
	close(stop)
	wg.Wait()
}
