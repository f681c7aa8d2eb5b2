package types

// RecommendationTier 推荐等级，由总分阈值唯一确定
type RecommendationTier string

const (
	// TierHighlyRecommended 强烈推荐 (总分 >= 85)
	TierHighlyRecommended RecommendationTier = "highly_recommended"
	// TierRecommended 推荐 (总分 >= 70)
	TierRecommended RecommendationTier = "recommended"
	// TierPotentialFit 潜在匹配 (总分 >= 55)
	TierPotentialFit RecommendationTier = "potential_fit"
	// TierNotRecommended 不推荐
	TierNotRecommended RecommendationTier = "not_recommended"
)

// 经验评估结论
const (
	AssessmentExceeds            = "exceeds"
	AssessmentMeetsRequirement   = "meets_requirement"
	AssessmentSlightlyBelow      = "slightly_below"
	AssessmentSignificantlyBelow = "significantly_below"
)

// Education 候选人的一条教育经历，字段均可为空
type Education struct {
	Degree      string `json:"degree,omitempty"`
	Institution string `json:"institution,omitempty"`
	Year        string `json:"year,omitempty"`
}

// WorkExperience 候选人的一条工作经历，字段均可为空
type WorkExperience struct {
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
}

// CandidateProfile 候选人画像（解析后的简历结构化结果）
// ExperienceYears 为空时按0年处理
type CandidateProfile struct {
	CandidateID     string           `json:"candidate_id"`
	Name            string           `json:"name,omitempty"`
	Skills          []string         `json:"skills"`
	ExperienceYears *int             `json:"experience_years,omitempty"`
	Education       []Education      `json:"education"`
	WorkHistory     []WorkExperience `json:"work_history"`
	Embedding       []float64        `json:"-"`
}

// Years 返回候选人的工作年限，空值按0处理
func (p *CandidateProfile) Years() int {
	if p == nil || p.ExperienceYears == nil {
		return 0
	}
	return *p.ExperienceYears
}

// JobRequirement 岗位要求（结构化后的JD分析结果）
// RequiredSkills 的列表顺序定义关键技能回退时的取前三规则
type JobRequirement struct {
	JobID                 string    `json:"job_id"`
	Title                 string    `json:"title"`
	Company               string    `json:"company,omitempty"`
	Location              string    `json:"location,omitempty"`
	Description           string    `json:"description"`
	RequiredSkills        []string  `json:"required_skills"`
	PreferredSkills       []string  `json:"preferred_skills"`
	MinYearsExperience    *int      `json:"min_years_experience,omitempty"`
	MaxYearsExperience    *int      `json:"max_years_experience,omitempty"`
	EducationRequirements []string  `json:"education_requirements"`
	Embedding             []float64 `json:"-"`
}

// SkillMatch 技能维度子报告
type SkillMatch struct {
	Score            float64  `json:"score"`
	MatchedRequired  []string `json:"matched_required"`
	MissingRequired  []string `json:"missing_required"`
	MatchedPreferred []string `json:"matched_preferred"`
	MissingPreferred []string `json:"missing_preferred"`
	AdditionalSkills []string `json:"additional_skills"`
	MatchRate        float64  `json:"match_rate"`
	CriticalMissing  []string `json:"critical_missing"`
}

// ExperienceMatch 经验维度子报告
type ExperienceMatch struct {
	Score          float64 `json:"score"`
	CandidateYears int     `json:"candidate_years"`
	RequiredYears  int     `json:"required_years"`
	Gap            int     `json:"gap"`
	Assessment     string  `json:"assessment"`
	Details        string  `json:"details"`
}

// EducationMatch 教育维度子报告
type EducationMatch struct {
	Score              float64  `json:"score"`
	CandidateEducation []string `json:"candidate_education"`
	RequiredEducation  []string `json:"required_education"`
	MeetsRequirement   bool     `json:"meets_requirement"`
}

// WorkHistoryRelevance 工作经历相关性子报告
type WorkHistoryRelevance struct {
	Score                    float64 `json:"score"`
	RelevantPositions        int     `json:"relevant_positions"`
	TotalPositions           int     `json:"total_positions"`
	RecentExperienceRelevant bool    `json:"recent_experience_relevant"`
	CareerProgression        string  `json:"career_progression"`
}

// SemanticSimilarity 语义相似度子报告
type SemanticSimilarity struct {
	Score          float64 `json:"score"`
	Interpretation string  `json:"interpretation"`
}

// Recommendation 一条面向候选人或HR的建议
type Recommendation struct {
	Type           string `json:"type"`     // for_candidate | for_hr
	Priority       string `json:"priority"` // high | medium | low
	Recommendation string `json:"recommendation"`
}

// CompatibilityScore 完整的人岗匹配报告
// 每次针对 (候选人, 岗位) 重新计算，计算完成后不再修改
type CompatibilityScore struct {
	CandidateID     string             `json:"candidate_id"`
	JobID           string             `json:"job_id"`
	OverallScore    int                `json:"overall_score"`
	MatchPercentage int                `json:"match_percentage"`
	Recommendation  RecommendationTier `json:"recommendation"`

	SkillMatch           SkillMatch           `json:"skill_match"`
	ExperienceMatch      ExperienceMatch      `json:"experience_match"`
	EducationMatch       EducationMatch       `json:"education_match"`
	WorkHistoryRelevance WorkHistoryRelevance `json:"work_experience_relevance"`
	SemanticSimilarity   SemanticSimilarity   `json:"semantic_similarity"`

	Strengths           []string         `json:"strengths"`
	Weaknesses          []string         `json:"weaknesses"`
	Recommendations     []Recommendation `json:"recommendations"`
	InterviewFocusAreas []string         `json:"interview_focus_areas"`
}

// WorkHistoryVerdict 注入式工作经历评估能力的结构化裁定
type WorkHistoryVerdict struct {
	// 相关性分数 (0-100)
	Score int `json:"score"`
	// 相关岗位数量
	RelevantCount int `json:"relevant_count"`
	// 最近一段经历是否相关
	RecentRelevant bool `json:"recent_relevant"`
	// 职业发展轨迹描述
	Progression string `json:"progression"`
}

// JobMatch 候选人→岗位方向的一条排名结果，附带完整匹配报告
type JobMatch struct {
	JobID             string              `json:"job_id"`
	JobTitle          string              `json:"job_title"`
	Company           string              `json:"company,omitempty"`
	Location          string              `json:"location,omitempty"`
	SimilarityScore   float64             `json:"similarity_score"`
	Compatibility     *CompatibilityScore `json:"compatibility"`
	OverallMatchScore int                 `json:"overall_match_score"`
	MatchPercentage   int                 `json:"match_percentage"`
}

// CandidateMatch 岗位→候选人方向的一条排名结果
// 该方向刻意使用与完整报告不同的简化加权公式，语义不可与 JobMatch 统一
type CandidateMatch struct {
	CandidateID          string             `json:"candidate_id"`
	Name                 string             `json:"name"`
	SimilarityScore      float64            `json:"similarity_score"`
	SkillMatchScore      float64            `json:"skill_match_score"`
	ExperienceMatchScore float64            `json:"experience_match_score"`
	OverallMatchScore    float64            `json:"overall_match_score"`
	MatchPercentage      int                `json:"match_percentage"`
	MatchedSkills        []string           `json:"matched_skills"`
	MissingSkills        []string           `json:"missing_skills"`
	MatchExplanation     string             `json:"match_explanation"`
	Recommendation       RecommendationTier `json:"recommendation"`
}
