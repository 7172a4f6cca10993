// Package chunk は教科書Markdownを重なり付きの固定長ウィンドウに分割します。
package chunk

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	// DefaultMaxTokens はウィンドウあたりの最大単語数（モデルトークン数の近似）
	DefaultMaxTokens = 512

	// DefaultOverlapTokens は隣接ウィンドウ間で重ねる単語数
	DefaultOverlapTokens = 50
)

// ErrInvalidOverlap はオーバーラップがウィンドウ幅以上の場合のエラー。
// ウィンドウが前進しなくなるため構築時に弾く。
var ErrInvalidOverlap = errors.New("overlap tokens must be smaller than max tokens")

// Piece は分割された1チャンク。オフセットは元テキスト内のバイト位置を指す
type Piece struct {
	Text      string
	StartChar int
	EndChar   int
}

// Chunker はテキストを単語単位のスライディングウィンドウで分割します
type Chunker struct {
	maxTokens     int
	overlapTokens int
}

// Option は Chunker のオプション設定
type Option func(*Chunker)

// WithMaxTokens はウィンドウあたりの最大単語数を上書きする
func WithMaxTokens(n int) Option {
	return func(c *Chunker) {
		c.maxTokens = n
	}
}

// WithOverlapTokens はオーバーラップ単語数を上書きする
func WithOverlapTokens(n int) Option {
	return func(c *Chunker) {
		c.overlapTokens = n
	}
}

// New は新しい Chunker を作成します
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		maxTokens:     DefaultMaxTokens,
		overlapTokens: DefaultOverlapTokens,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.maxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive: got %d", c.maxTokens)
	}
	if c.overlapTokens < 0 {
		return nil, fmt.Errorf("overlap tokens must not be negative: got %d", c.overlapTokens)
	}
	if c.overlapTokens >= c.maxTokens {
		return nil, fmt.Errorf("%w: max=%d overlap=%d", ErrInvalidOverlap, c.maxTokens, c.overlapTokens)
	}

	return c, nil
}

// word は元テキスト内の1単語とその開始オフセット
type word struct {
	text  string
	start int
}

// Split はテキストをチャンク列に分割します。
// ウィンドウは maxTokens 単語分で、毎回 maxTokens-overlapTokens 単語だけ前進する。
// オフセットは単語走査時に記録した正確な位置を使う。部分文字列検索による復元は
// 単語が繰り返されるテキストで位置を誤るため使わない。
// 最終チャンクの EndChar は末尾の空白を含めて len(text) まで延ばし、
// チャンク列の範囲が元テキスト全体を覆うようにする。
// 空テキストは空のチャンク列になる。
func (c *Chunker) Split(text string) []Piece {
	words := scanWords(text)
	if len(words) == 0 {
		return nil
	}

	step := c.maxTokens - c.overlapTokens
	var pieces []Piece

	for start := 0; start < len(words); start += step {
		end := start + c.maxTokens
		if end > len(words) {
			end = len(words)
		}

		last := words[end-1]
		pieces = append(pieces, Piece{
			Text:      joinWords(words[start:end]),
			StartChar: words[start].start,
			EndChar:   last.start + len(last.text),
		})

		if end >= len(words) {
			break
		}
	}

	// 末尾の空白分だけ最終チャンクの範囲を延長する
	pieces[len(pieces)-1].EndChar = len(text)

	return pieces
}

// scanWords は空白区切りの単語列を開始オフセット付きで抽出します
func scanWords(text string) []word {
	var words []word
	inWord := false
	start := 0

	for i, r := range text {
		if unicode.IsSpace(r) {
			if inWord {
				words = append(words, word{text: text[start:i], start: start})
				inWord = false
			}
			continue
		}
		if !inWord {
			start = i
			inWord = true
		}
	}
	if inWord {
		words = append(words, word{text: text[start:], start: start})
	}

	return words
}

// joinWords は単語列を半角スペース区切りで結合します
func joinWords(words []word) string {
	var sb strings.Builder
	for i, w := range words {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(w.text)
	}
	return sb.String()
}
