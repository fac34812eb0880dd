package errors

import (
	"strings"

	"github.com/tangzhangming/limbs/internal/i18n"
)

// ============================================================================
// 修复建议生成器
// ============================================================================

// SuggestionGenerator 修复建议生成器
type SuggestionGenerator struct{}

// NewSuggestionGenerator 创建修复建议生成器
func NewSuggestionGenerator() *SuggestionGenerator {
	return &SuggestionGenerator{}
}

// GetSuggestions 根据错误码和上下文获取修复建议
//
// 上下文键：
//   - "name":       未定义的名字（不含 %）
//   - "candidates": []string 作用域内已定义的名字
func (g *SuggestionGenerator) GetSuggestions(code string, context map[string]interface{}) []string {
	switch code {
	case X0003:
		return []string{i18n.T(i18n.HintUnsupportedBinaryOp)}
	case X0004:
		return []string{i18n.T(i18n.HintUnsupportedPredicate, LegalWidth)}
	case X0005:
		return []string{i18n.T(i18n.HintVariableShift)}
	case X0006:
		return []string{i18n.T(i18n.HintIllegalArgument)}
	case X0008:
		return []string{i18n.T(i18n.HintMalformedVector, LegalWidth)}
	case X0001, X0002, X0007:
		return []string{i18n.T(i18n.HintInternal)}

	case P0006, P0007:
		return g.undefinedNameSuggestions(context)

	default:
		return nil
	}
}

// undefinedNameSuggestions 未定义名字的建议
func (g *SuggestionGenerator) undefinedNameSuggestions(context map[string]interface{}) []string {
	name, _ := context["name"].(string)
	candidates, _ := context["candidates"].([]string)
	if name == "" {
		return nil
	}
	if similar := FindSimilar(name, candidates, 2); similar != "" {
		return []string{i18n.T(i18n.HintDidYouMean, similar)}
	}
	return nil
}

// ============================================================================
// 相似名称查找
// ============================================================================

// FindSimilar 查找相似的名称
func FindSimilar(name string, candidates []string, maxDistance int) string {
	if len(candidates) == 0 {
		return ""
	}

	bestMatch := ""
	bestDistance := maxDistance + 1

	for _, candidate := range candidates {
		distance := levenshteinDistance(name, candidate)
		if distance < bestDistance {
			bestDistance = distance
			bestMatch = candidate
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// levenshteinDistance 计算 Levenshtein 编辑距离
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	s1 = strings.ToLower(s1)
	s2 = strings.ToLower(s2)

	d := make([][]int, len(s1)+1)
	for i := range d {
		d[i] = make([]int, len(s2)+1)
	}
	for i := 0; i <= len(s1); i++ {
		d[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		d[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			d[i][j] = min(
				d[i-1][j]+1,      // 删除
				d[i][j-1]+1,      // 插入
				d[i-1][j-1]+cost, // 替换
			)
		}
	}

	return d[len(s1)][len(s2)]
}

// ============================================================================
// 全局实例
// ============================================================================

var defaultSuggestionGenerator = NewSuggestionGenerator()

// GetSuggestions 使用默认生成器获取建议
func GetSuggestions(code string, context map[string]interface{}) []string {
	return defaultSuggestionGenerator.GetSuggestions(code, context)
}
