package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	t.Run("default options", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)
		assert.NotNil(t, c)
	})

	t.Run("overlap equal to max is rejected", func(t *testing.T) {
		_, err := New(WithMaxTokens(10), WithOverlapTokens(10))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidOverlap)
	})

	t.Run("overlap greater than max is rejected", func(t *testing.T) {
		_, err := New(WithMaxTokens(10), WithOverlapTokens(20))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidOverlap)
	})

	t.Run("non-positive max is rejected", func(t *testing.T) {
		_, err := New(WithMaxTokens(0))
		assert.Error(t, err)
	})

	t.Run("negative overlap is rejected", func(t *testing.T) {
		_, err := New(WithMaxTokens(10), WithOverlapTokens(-1))
		assert.Error(t, err)
	})
}

func TestChunker_Split_Empty(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \n\t  "))
}

func TestChunker_Split_SingleChunk(t *testing.T) {
	c, err := New(WithMaxTokens(100), WithOverlapTokens(10))
	require.NoError(t, err)

	text := "ROS 2 nodes communicate over topics using typed messages"
	pieces := c.Split(text)

	require.Len(t, pieces, 1)
	assert.Equal(t, text, pieces[0].Text)
	assert.Equal(t, 0, pieces[0].StartChar)
	assert.Equal(t, len(text), pieces[0].EndChar)
}

func TestChunker_Split_Overlap(t *testing.T) {
	c, err := New(WithMaxTokens(4), WithOverlapTokens(2))
	require.NoError(t, err)

	// 8単語 → ウィンドウ4語・前進2語で3チャンク
	text := "w1 w2 w3 w4 w5 w6 w7 w8"
	pieces := c.Split(text)

	require.Len(t, pieces, 3)
	assert.Equal(t, "w1 w2 w3 w4", pieces[0].Text)
	assert.Equal(t, "w3 w4 w5 w6", pieces[1].Text)
	assert.Equal(t, "w5 w6 w7 w8", pieces[2].Text)
}

func TestChunker_Split_ExactOffsets(t *testing.T) {
	c, err := New(WithMaxTokens(2), WithOverlapTokens(1))
	require.NoError(t, err)

	// 同じ単語の繰り返しでもオフセットは実際の出現位置を指すこと
	text := "go go go go"
	pieces := c.Split(text)

	require.Len(t, pieces, 3)
	starts := []int{0, 3, 6}
	for i, p := range pieces {
		assert.Equal(t, starts[i], p.StartChar, "chunk %d start", i)
		assert.Equal(t, text[p.StartChar:p.EndChar], p.Text)
	}
}

func TestChunker_Split_TrailingWhitespace(t *testing.T) {
	c, err := New(WithMaxTokens(4), WithOverlapTokens(1))
	require.NoError(t, err)

	// 末尾の空白は最終チャンクの範囲に含まれること
	text := "sense plan act \n"
	pieces := c.Split(text)

	require.Len(t, pieces, 1)
	assert.Equal(t, "sense plan act", pieces[0].Text)
	assert.Equal(t, 0, pieces[0].StartChar)
	assert.Equal(t, len(text), pieces[0].EndChar)
	assert.Equal(t, pieces[0].Text, strings.TrimSpace(text[pieces[0].StartChar:pieces[0].EndChar]))
}

func TestChunker_Split_Properties(t *testing.T) {
	c, err := New(WithMaxTokens(16), WithOverlapTokens(4))
	require.NoError(t, err)

	texts := []string{
		"single",
		"a humanoid robot maintains balance through whole body control",
		strings.Repeat("sense plan act ", 200),
		func() string {
			var sb strings.Builder
			for i := 0; i < 500; i++ {
				fmt.Fprintf(&sb, "word%d ", i)
			}
			return strings.TrimSpace(sb.String())
		}(),
	}

	for _, text := range texts {
		pieces := c.Split(text)
		require.NotEmpty(t, pieces)

		prevStart := -1
		for i, p := range pieces {
			assert.Less(t, p.StartChar, p.EndChar, "chunk %d has empty span", i)
			assert.GreaterOrEqual(t, p.StartChar, prevStart, "chunk %d start went backwards", i)
			prevStart = p.StartChar
		}
		assert.Equal(t, len(text), pieces[len(pieces)-1].EndChar)
	}
}

func TestChunker_Split_Deterministic(t *testing.T) {
	c, err := New(WithMaxTokens(8), WithOverlapTokens(3))
	require.NoError(t, err)

	text := strings.Repeat("digital twin simulation bridges the reality gap ", 50)
	first := c.Split(text)
	second := c.Split(text)

	assert.Equal(t, first, second)
}
