package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/retrieval"
	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRetriever は固定結果を返す Retriever スタブ
type stubRetriever struct {
	results    []retrieval.Result
	searchErr  error
	thresholds retrieval.Thresholds
	gotOpts    retrieval.SearchOptions
}

func (s *stubRetriever) Search(_ context.Context, _ string, opts retrieval.SearchOptions) ([]retrieval.Result, error) {
	s.gotOpts = opts
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.results, nil
}

func (s *stubRetriever) Classify(results []retrieval.Result) retrieval.Confidence {
	return s.thresholds.ClassifyResults(results)
}

// stubGenerator は呼び出し回数を記録する Generator スタブ
type stubGenerator struct {
	answer          string
	generateErr     error
	generateCalls   int
	lowConfCalls    int
	gotSelectedText mo.Option[string]
}

func (s *stubGenerator) Generate(_ context.Context, _ string, _ []retrieval.Result, selectedText mo.Option[string]) (string, error) {
	s.generateCalls++
	s.gotSelectedText = selectedText
	if s.generateErr != nil {
		return "", s.generateErr
	}
	return s.answer, nil
}

func (s *stubGenerator) GenerateLowConfidence(_ string) string {
	s.lowConfCalls++
	return "fallback answer"
}

var defaultThresholds = retrieval.Thresholds{High: 0.7, Low: 0.4}

func TestService_Ask(t *testing.T) {
	t.Run("high confidence answer carries sources and no disclaimer", func(t *testing.T) {
		retriever := &stubRetriever{
			thresholds: defaultThresholds,
			results: []retrieval.Result{
				{ChapterSlug: "ros2-fundamentals", ChunkText: "nodes and topics", Score: 0.91, SectionID: mo.Some("ros2-fundamentals#nodes-and-topics")},
			},
		}
		generator := &stubGenerator{answer: "ROS 2 nodes exchange messages over topics."}
		svc := NewService(retriever, generator)

		resp, err := svc.Ask(context.Background(), AskParams{Message: "how do nodes talk"})
		require.NoError(t, err)

		assert.Equal(t, retrieval.ConfidenceHigh, resp.Confidence)
		assert.Equal(t, "ROS 2 nodes exchange messages over topics.", resp.Answer)
		assert.Empty(t, resp.Disclaimer)
		require.Len(t, resp.Sources, 1)
		assert.Equal(t, "ROS 2 Fundamentals", resp.Sources[0].ChapterTitle)
		assert.Equal(t, "Nodes And Topics", resp.Sources[0].SectionTitle)
		assert.Equal(t, 1, generator.generateCalls)
		assert.Zero(t, generator.lowConfCalls)
	})

	t.Run("medium confidence adds a disclaimer", func(t *testing.T) {
		retriever := &stubRetriever{
			thresholds: defaultThresholds,
			results:    []retrieval.Result{{ChapterSlug: "intro", ChunkText: "overview", Score: 0.55}},
		}
		generator := &stubGenerator{answer: "partial answer"}
		svc := NewService(retriever, generator)

		resp, err := svc.Ask(context.Background(), AskParams{Message: "q"})
		require.NoError(t, err)

		assert.Equal(t, retrieval.ConfidenceMedium, resp.Confidence)
		assert.Equal(t, "Based on limited context from the textbook. The answer may be incomplete.", resp.Disclaimer)
		assert.Len(t, resp.Sources, 1)
	})

	t.Run("low confidence skips the LLM and returns the canned answer", func(t *testing.T) {
		retriever := &stubRetriever{
			thresholds: defaultThresholds,
			results:    []retrieval.Result{{ChapterSlug: "intro", ChunkText: "weak hit", Score: 0.1}},
		}
		generator := &stubGenerator{answer: "should not appear"}
		svc := NewService(retriever, generator)

		resp, err := svc.Ask(context.Background(), AskParams{Message: "quantum gravity"})
		require.NoError(t, err)

		assert.Equal(t, retrieval.ConfidenceLow, resp.Confidence)
		assert.Equal(t, "fallback answer", resp.Answer)
		assert.Equal(t, "This topic may not be covered in the textbook.", resp.Disclaimer)
		assert.Empty(t, resp.Sources)
		assert.Zero(t, generator.generateCalls)
		assert.Equal(t, 1, generator.lowConfCalls)
	})

	t.Run("empty retrieval is treated as low confidence", func(t *testing.T) {
		retriever := &stubRetriever{thresholds: defaultThresholds}
		generator := &stubGenerator{}
		svc := NewService(retriever, generator)

		resp, err := svc.Ask(context.Background(), AskParams{Message: "q"})
		require.NoError(t, err)
		assert.Equal(t, retrieval.ConfidenceLow, resp.Confidence)
		assert.Zero(t, generator.generateCalls)
	})

	t.Run("session id is echoed back", func(t *testing.T) {
		sid := uuid.New()
		retriever := &stubRetriever{thresholds: defaultThresholds}
		svc := NewService(retriever, &stubGenerator{})

		resp, err := svc.Ask(context.Background(), AskParams{Message: "q", SessionID: mo.Some(sid)})
		require.NoError(t, err)
		assert.Equal(t, sid, resp.SessionID)
		assert.NotEqual(t, uuid.Nil, resp.MessageID)
	})

	t.Run("missing session id gets a fresh one", func(t *testing.T) {
		retriever := &stubRetriever{thresholds: defaultThresholds}
		svc := NewService(retriever, &stubGenerator{})

		resp, err := svc.Ask(context.Background(), AskParams{Message: "q"})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, resp.SessionID)
	})

	t.Run("search error propagates", func(t *testing.T) {
		retriever := &stubRetriever{thresholds: defaultThresholds, searchErr: errors.New("index down")}
		svc := NewService(retriever, &stubGenerator{})

		_, err := svc.Ask(context.Background(), AskParams{Message: "q"})
		assert.Error(t, err)
	})

	t.Run("generation error propagates", func(t *testing.T) {
		retriever := &stubRetriever{
			thresholds: defaultThresholds,
			results:    []retrieval.Result{{Score: 0.9, ChapterSlug: "intro"}},
		}
		generator := &stubGenerator{generateErr: errors.New("llm down")}
		svc := NewService(retriever, generator)

		_, err := svc.Ask(context.Background(), AskParams{Message: "q"})
		assert.Error(t, err)
	})
}

func TestService_AskWithContext(t *testing.T) {
	t.Run("low confidence is upgraded to medium and still uses the LLM", func(t *testing.T) {
		retriever := &stubRetriever{thresholds: defaultThresholds}
		generator := &stubGenerator{answer: "explained from the selection"}
		svc := NewService(retriever, generator)

		resp, err := svc.AskWithContext(context.Background(), ContextualAskParams{
			Message:      "what does this mean",
			SelectedText: "the reality gap between simulation and hardware",
		})
		require.NoError(t, err)

		assert.Equal(t, retrieval.ConfidenceMedium, resp.Confidence)
		assert.Equal(t, "explained from the selection", resp.Answer)
		assert.Equal(t, "Response based primarily on the selected text.", resp.Disclaimer)
		assert.Equal(t, 1, generator.generateCalls)
		assert.Zero(t, generator.lowConfCalls)

		selected, ok := generator.gotSelectedText.Get()
		require.True(t, ok)
		assert.Equal(t, "the reality gap between simulation and hardware", selected)
	})

	t.Run("medium confidence keeps its level with a selection disclaimer", func(t *testing.T) {
		retriever := &stubRetriever{
			thresholds: defaultThresholds,
			results:    []retrieval.Result{{ChapterSlug: "digital-twin", ChunkText: "sim", Score: 0.5}},
		}
		generator := &stubGenerator{answer: "ok"}
		svc := NewService(retriever, generator)

		resp, err := svc.AskWithContext(context.Background(), ContextualAskParams{
			Message:      "q",
			SelectedText: "selected passage from the book",
		})
		require.NoError(t, err)
		assert.Equal(t, retrieval.ConfidenceMedium, resp.Confidence)
		assert.Equal(t, "Based on the selected text and limited textbook context.", resp.Disclaimer)
	})

	t.Run("high confidence has no disclaimer", func(t *testing.T) {
		retriever := &stubRetriever{
			thresholds: defaultThresholds,
			results:    []retrieval.Result{{ChapterSlug: "vla-systems", ChunkText: "vla", Score: 0.88}},
		}
		svc := NewService(retriever, &stubGenerator{answer: "ok"})

		resp, err := svc.AskWithContext(context.Background(), ContextualAskParams{
			Message:      "q",
			SelectedText: "selected passage from the book",
		})
		require.NoError(t, err)
		assert.Equal(t, retrieval.ConfidenceHigh, resp.Confidence)
		assert.Empty(t, resp.Disclaimer)
	})

	t.Run("chapter filter is passed to the retriever", func(t *testing.T) {
		retriever := &stubRetriever{thresholds: defaultThresholds}
		svc := NewService(retriever, &stubGenerator{answer: "ok"})

		_, err := svc.AskWithContext(context.Background(), ContextualAskParams{
			Message:      "q",
			SelectedText: "selected passage from the book",
			ChapterSlug:  mo.Some("ros2-fundamentals"),
		})
		require.NoError(t, err)

		chapter, ok := retriever.gotOpts.Chapter.Get()
		require.True(t, ok)
		assert.Equal(t, "ros2-fundamentals", chapter)
	})
}

func TestBuildSources(t *testing.T) {
	t.Run("long excerpt is truncated", func(t *testing.T) {
		long := strings.Repeat("a", 500)
		sources := buildSources([]retrieval.Result{{ChapterSlug: "intro", ChunkText: long, Score: 0.8}})
		require.Len(t, sources, 1)
		assert.Len(t, sources[0].Excerpt, 200)
	})

	t.Run("multibyte excerpt is truncated on rune boundary", func(t *testing.T) {
		long := strings.Repeat("ロボット", 100)
		sources := buildSources([]retrieval.Result{{ChapterSlug: "intro", ChunkText: long, Score: 0.8}})
		require.Len(t, sources, 1)
		assert.Equal(t, 200, utf8.RuneCountInString(sources[0].Excerpt))
		assert.True(t, utf8.ValidString(sources[0].Excerpt))
		assert.Equal(t, strings.Repeat("ロボット", 50), sources[0].Excerpt)
	})

	t.Run("short excerpt is kept as is", func(t *testing.T) {
		short := strings.Repeat("b", 150)
		sources := buildSources([]retrieval.Result{{ChapterSlug: "intro", ChunkText: short, Score: 0.8}})
		require.Len(t, sources, 1)
		assert.Equal(t, short, sources[0].Excerpt)
	})

	t.Run("score is rounded to three decimals", func(t *testing.T) {
		sources := buildSources([]retrieval.Result{{ChapterSlug: "intro", ChunkText: "t", Score: 0.87654}})
		require.Len(t, sources, 1)
		assert.Equal(t, 0.877, sources[0].Score)
	})

	t.Run("section id without heading has no section title", func(t *testing.T) {
		sources := buildSources([]retrieval.Result{{
			ChapterSlug: "intro",
			ChunkText:   "t",
			Score:       0.8,
			SectionID:   mo.Some("intro"),
		}})
		require.Len(t, sources, 1)
		assert.Equal(t, "intro", sources[0].SectionID)
		assert.Empty(t, sources[0].SectionTitle)
	})
}
