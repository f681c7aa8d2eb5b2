package matcher

import "talent-match-go/internal/types"

// InterpretSimilarity 把语义相似度分数映射为定性描述
// 阈值为严格大于
func InterpretSimilarity(score float64) string {
	switch {
	case score > 0.85:
		return "Very strong semantic match"
	case score > 0.70:
		return "Strong match"
	case score > 0.50:
		return "Moderate match"
	default:
		return "Low semantic match"
	}
}

// BuildSemanticSimilarity 构造语义相似度子报告
func BuildSemanticSimilarity(score float64) types.SemanticSimilarity {
	return types.SemanticSimilarity{
		Score:          score,
		Interpretation: InterpretSimilarity(score),
	}
}
