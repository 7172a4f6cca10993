package retrieval

import "fmt"

// Confidence は検索スコアから導出する確信度レベル
type Confidence string

const (
	// ConfidenceHigh はトップスコアが高閾値以上
	ConfidenceHigh Confidence = "high"

	// ConfidenceMedium はトップスコアが低閾値以上・高閾値未満
	ConfidenceMedium Confidence = "medium"

	// ConfidenceLow はトップスコアが低閾値未満、または検索結果なし
	ConfidenceLow Confidence = "low"
)

// Thresholds は確信度分類の閾値ペア。High > Low を満たすこと
type Thresholds struct {
	High float64
	Low  float64
}

// Validate は閾値の大小関係を検証します
func (t Thresholds) Validate() error {
	if t.Low >= t.High {
		return fmt.Errorf("confidence thresholds misordered: low=%v high=%v", t.Low, t.High)
	}
	return nil
}

// Classify はトップスコアを確信度レベルに写す純粋関数。
// 閾値との比較は両方とも下限包含 (score >= threshold)
func (t Thresholds) Classify(topScore float64) Confidence {
	switch {
	case topScore >= t.High:
		return ConfidenceHigh
	case topScore >= t.Low:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ClassifyResults は検索結果列を確信度レベルに写します。空の結果は低確信度
func (t Thresholds) ClassifyResults(results []Result) Confidence {
	if len(results) == 0 {
		return ConfidenceLow
	}
	return t.Classify(results[0].Score)
}
