package generation

import (
	"fmt"
	"strings"

	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/retrieval"
	"github.com/samber/mo"
)

// systemPrompt は回答を教科書コンテキストに限定するための固定指示
const systemPrompt = `You are an AI teaching assistant for the "Physical AI & Humanoid Robotics" textbook. Your role is to help students understand the textbook content.

CRITICAL RULES:
1. ONLY answer questions using the provided textbook context. Do not use any external knowledge.
2. If the context does not contain enough information to answer the question, say "This topic may not be covered in this textbook" or "I don't have enough information from the textbook to answer this."
3. Always cite the specific chapter when providing information.
4. Keep answers clear, concise, and educational.
5. If asked about topics outside the textbook scope, politely redirect to the textbook content.

The textbook covers:
- Chapter 1: Introduction to Physical AI
- Chapter 2: Basics of Humanoid Robotics
- Chapter 3: ROS 2 Fundamentals
- Chapter 4: Digital Twin Simulation (Gazebo + Isaac Sim)
- Chapter 5: Vision-Language-Action Systems
- Chapter 6: Capstone Project`

// noContextPlaceholder は検索ヒットなしの際にコンテキストブロックへ入れる固定文
const noContextPlaceholder = "No relevant content found in the textbook."

// lowConfidenceAnswer は低確信度クエリに返す定型回答。LLMは介在しない
const lowConfidenceAnswer = "I couldn't find enough relevant information in the textbook to answer " +
	"your question about this topic. This may be because:\n\n" +
	"1. The topic isn't covered in this textbook\n" +
	"2. The question is phrased differently than the textbook content\n" +
	"3. This is an advanced topic beyond the scope of this course\n\n" +
	"Try rephrasing your question, or ask about specific topics from the " +
	"table of contents: Introduction to Physical AI, Humanoid Robotics, " +
	"ROS 2, Digital Twins, or VLA Systems."

// FormatContext は検索結果を入力順のままラベル付き抜粋として連結します。
// 結果が空の場合は空ブロックではなく固定のプレースホルダを返す
func FormatContext(results []retrieval.Result) string {
	if len(results) == 0 {
		return noContextPlaceholder
	}

	parts := make([]string, 0, len(results))
	for i, r := range results {
		chapterName := retrieval.HumanizeSlug(r.ChapterSlug)
		parts = append(parts, fmt.Sprintf("[Source %d: %s]\n%s", i+1, chapterName, r.ChunkText))
	}
	return strings.Join(parts, "\n\n")
}

// buildUserMessage は質問・選択テキスト・コンテキストブロックからユーザーターンを組み立てます
func buildUserMessage(query, contextBlock string, selectedText mo.Option[string]) string {
	if selected, ok := selectedText.Get(); ok {
		return fmt.Sprintf(`The student has selected the following text from the textbook:

"%s"

They are asking: %s

Relevant textbook context:
%s

Please help the student understand the selected text and answer their question based on the textbook content.`, selected, query, contextBlock)
	}

	return fmt.Sprintf(`Student question: %s

Relevant textbook context:
%s

Please answer the student's question based on the textbook content provided.`, query, contextBlock)
}
