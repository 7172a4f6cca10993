package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder は固定ベクトルを返す Embedder スタブ
type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

// stubIndex は受け取った引数を記録して固定ヒットを返す Index スタブ
type stubIndex struct {
	points     []ScoredPoint
	err        error
	gotVector  []float32
	gotLimit   int
	gotFilter  mo.Option[Filter]
	queryCalls int
}

func (s *stubIndex) Query(_ context.Context, vector []float32, limit int, filter mo.Option[Filter]) ([]ScoredPoint, error) {
	s.queryCalls++
	s.gotVector = vector
	s.gotLimit = limit
	s.gotFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	return s.points, nil
}

func TestNewService_Validation(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0.1}}
	index := &stubIndex{}

	t.Run("misordered thresholds are rejected", func(t *testing.T) {
		_, err := NewService(embedder, index, 3, Thresholds{High: 0.4, Low: 0.7})
		assert.Error(t, err)
	})

	t.Run("non-positive topK is rejected", func(t *testing.T) {
		_, err := NewService(embedder, index, 0, Thresholds{High: 0.7, Low: 0.4})
		assert.Error(t, err)
	})
}

func TestService_Search(t *testing.T) {
	vector := []float32{0.1, 0.2, 0.3}

	newService := func(index *stubIndex) *Service {
		svc, err := NewService(&stubEmbedder{vector: vector}, index, 3, Thresholds{High: 0.7, Low: 0.4})
		require.NoError(t, err)
		return svc
	}

	t.Run("maps payload fields to results", func(t *testing.T) {
		index := &stubIndex{points: []ScoredPoint{
			{
				Score: 0.92,
				Payload: map[string]any{
					"chunk_text":   "ROS 2 uses DDS for transport",
					"chapter_slug": "ros2-fundamentals",
					"section_id":   "ros2-fundamentals#transport",
					"chunk_index":  float64(2),
					"start_char":   float64(100),
					"end_char":     float64(160),
				},
			},
		}}

		results, err := newService(index).Search(context.Background(), "how does ROS 2 communicate", SearchOptions{})
		require.NoError(t, err)
		require.Len(t, results, 1)

		r := results[0]
		assert.Equal(t, "ROS 2 uses DDS for transport", r.ChunkText)
		assert.Equal(t, "ros2-fundamentals", r.ChapterSlug)
		assert.Equal(t, mo.Some("ros2-fundamentals#transport"), r.SectionID)
		assert.Equal(t, 2, r.ChunkIndex)
		assert.Equal(t, 0.92, r.Score)
		assert.Equal(t, 100, r.StartChar)
		assert.Equal(t, 160, r.EndChar)

		assert.Equal(t, vector, index.gotVector)
		assert.Equal(t, 3, index.gotLimit)
	})

	t.Run("missing payload fields get defaults", func(t *testing.T) {
		index := &stubIndex{points: []ScoredPoint{
			{Score: 0.5, Payload: map[string]any{}},
		}}

		results, err := newService(index).Search(context.Background(), "q", SearchOptions{})
		require.NoError(t, err)
		require.Len(t, results, 1)

		r := results[0]
		assert.Equal(t, "unknown", r.ChapterSlug)
		assert.Equal(t, "", r.ChunkText)
		assert.True(t, r.SectionID.IsAbsent())
		assert.Zero(t, r.ChunkIndex)
		assert.Zero(t, r.StartChar)
		assert.Zero(t, r.EndChar)
	})

	t.Run("chapter option builds a filter", func(t *testing.T) {
		index := &stubIndex{}
		_, err := newService(index).Search(context.Background(), "q", SearchOptions{
			Chapter: mo.Some("digital-twin"),
		})
		require.NoError(t, err)

		filter, ok := index.gotFilter.Get()
		require.True(t, ok)
		assert.Equal(t, "chapter_slug", filter.Field)
		assert.Equal(t, "digital-twin", filter.Value)
	})

	t.Run("no chapter means no filter", func(t *testing.T) {
		index := &stubIndex{}
		_, err := newService(index).Search(context.Background(), "q", SearchOptions{})
		require.NoError(t, err)
		assert.True(t, index.gotFilter.IsAbsent())
	})

	t.Run("topK override", func(t *testing.T) {
		index := &stubIndex{}
		_, err := newService(index).Search(context.Background(), "q", SearchOptions{
			TopK: mo.Some(7),
		})
		require.NoError(t, err)
		assert.Equal(t, 7, index.gotLimit)
	})

	t.Run("embedder error propagates", func(t *testing.T) {
		svc, err := NewService(&stubEmbedder{err: errors.New("model unavailable")}, &stubIndex{}, 3, Thresholds{High: 0.7, Low: 0.4})
		require.NoError(t, err)

		_, err = svc.Search(context.Background(), "q", SearchOptions{})
		assert.Error(t, err)
	})

	t.Run("index error propagates", func(t *testing.T) {
		index := &stubIndex{err: errors.New("connection refused")}
		_, err := newService(index).Search(context.Background(), "q", SearchOptions{})
		assert.Error(t, err)
	})

	t.Run("empty hits are a valid result", func(t *testing.T) {
		index := &stubIndex{points: nil}
		results, err := newService(index).Search(context.Background(), "q", SearchOptions{})
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
