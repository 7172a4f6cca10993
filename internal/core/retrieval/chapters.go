package retrieval

import "strings"

// chapterTitles は章スラグから表示用タイトルへの対応表
var chapterTitles = map[string]string{
	"intro":             "Introduction to Physical AI",
	"humanoid-basics":   "Basics of Humanoid Robotics",
	"ros2-fundamentals": "ROS 2 Fundamentals",
	"digital-twin":      "Digital Twin Simulation",
	"vla-systems":       "Vision-Language-Action Systems",
	"capstone":          "Capstone Project",
}

// ChapterTitle は章スラグの表示用タイトルを返します。
// 対応表に無いスラグはハイフンを空白に置き換えてタイトルケース化する
func ChapterTitle(slug string) string {
	if title, ok := chapterTitles[slug]; ok {
		return title
	}
	return HumanizeSlug(slug)
}

// HumanizeSlug はスラグをタイトルケースの表示文字列に変換します ("ros2-basics" → "Ros2 Basics")
func HumanizeSlug(slug string) string {
	words := strings.Split(strings.ReplaceAll(slug, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
