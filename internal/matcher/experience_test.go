package matcher

import (
	"testing"

	"talent-match-go/internal/types"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestExperienceMatcher_GapBreakpoints(t *testing.T) {
	m := NewExperienceMatcher()

	// 分档是差距的阶梯函数，断点在 gap=0,1,2,3
	cases := []struct {
		name       string
		candidate  int
		min        int
		wantScore  float64
		wantAssess string
	}{
		{"gap=0", 5, 5, 1.0, types.AssessmentMeetsRequirement},
		{"gap=1", 4, 5, 0.85, types.AssessmentSlightlyBelow},
		{"gap=2", 3, 5, 0.70, types.AssessmentSignificantlyBelow},
		{"gap=3", 2, 5, 0.50, types.AssessmentSignificantlyBelow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := m.Match(tc.candidate, intPtr(tc.min), nil)
			assert.Equal(t, tc.wantScore, result.Score)
			assert.Equal(t, tc.wantAssess, result.Assessment)
			assert.Equal(t, tc.min-tc.candidate, result.Gap)
		})
	}
}

func TestExperienceMatcher_SignificantlyBelowExample(t *testing.T) {
	m := NewExperienceMatcher()

	// 3年 vs 要求5年: gap=2 → 0.70
	result := m.Match(3, intPtr(5), nil)
	assert.Equal(t, 0.70, result.Score)
	assert.Equal(t, types.AssessmentSignificantlyBelow, result.Assessment)
	assert.Equal(t, 3, result.CandidateYears)
	assert.Equal(t, 5, result.RequiredYears)
	assert.Equal(t, 2, result.Gap)
}

func TestExperienceMatcher_Exceeds(t *testing.T) {
	m := NewExperienceMatcher()

	result := m.Match(8, intPtr(5), nil)
	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, types.AssessmentExceeds, result.Assessment)
	assert.Zero(t, result.Gap)
}

func TestExperienceMatcher_Overqualified(t *testing.T) {
	m := NewExperienceMatcher()

	// 超出上限5年以上才触发超配软化
	result := m.Match(14, intPtr(3), intPtr(8))
	assert.Equal(t, 0.95, result.Score)
	assert.Equal(t, types.AssessmentExceeds, result.Assessment)

	// 恰好在上限+5以内仍为满分
	result = m.Match(13, intPtr(3), intPtr(8))
	assert.Equal(t, 1.0, result.Score)
}

func TestExperienceMatcher_NilRequirements(t *testing.T) {
	m := NewExperienceMatcher()

	// 未设最低年限按0处理
	result := m.Match(0, nil, nil)
	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, types.AssessmentMeetsRequirement, result.Assessment)

	result = m.Match(2, nil, nil)
	assert.Equal(t, types.AssessmentExceeds, result.Assessment)
}
