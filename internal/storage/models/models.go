package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Candidate 候选人画像表（解析后的简历结构化结果）
type Candidate struct {
	CandidateID     string         `gorm:"type:char(36);primaryKey"`
	Name            string         `gorm:"type:varchar(255)"`
	SkillsJSON      datatypes.JSON `gorm:"type:json"`
	ExperienceYears *int           `gorm:"type:int"`
	EducationJSON   datatypes.JSON `gorm:"type:json"`
	WorkHistoryJSON datatypes.JSON `gorm:"type:json"`
	ProfileSummary  string         `gorm:"type:text"`
	CreatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// CandidateVector 存储候选人画像的向量表示
type CandidateVector struct {
	CandidateID           string    `gorm:"type:char(36);primaryKey"`
	VectorRepresentation  []byte    `gorm:"type:mediumblob;not null"` // JSON序列化后的向量
	EmbeddingModelVersion string    `gorm:"type:varchar(100);not null"`
	CreatedAt             time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt             time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
	Candidate             Candidate `gorm:"foreignKey:CandidateID;references:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (CandidateVector) TableName() string {
	return "candidate_vectors"
}

// Job 岗位要求表
type Job struct {
	JobID                     string         `gorm:"type:char(36);primaryKey"`
	JobTitle                  string         `gorm:"type:varchar(255);not null"`
	Company                   string         `gorm:"type:varchar(255)"`
	Location                  string         `gorm:"type:varchar(255)"`
	JobDescriptionText        string         `gorm:"type:text;not null"`
	RequiredSkillsJSON        datatypes.JSON `gorm:"type:json"`
	PreferredSkillsJSON       datatypes.JSON `gorm:"type:json"`
	MinYearsExperience        *int           `gorm:"type:int"`
	MaxYearsExperience        *int           `gorm:"type:int"`
	EducationRequirementsJSON datatypes.JSON `gorm:"type:json"`
	Status                    string         `gorm:"type:varchar(50);default:'ACTIVE';index:idx_jobs_status"`
	CreatedAt                 time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt                 time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Job) TableName() string {
	return "jobs"
}

// JobVector 存储岗位的向量表示
type JobVector struct {
	JobID                 string    `gorm:"type:char(36);primaryKey"`
	VectorRepresentation  []byte    `gorm:"type:mediumblob;not null"` // JSON序列化后的向量
	EmbeddingModelVersion string    `gorm:"type:varchar(100);not null"`
	CreatedAt             time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt             time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
	Job                   Job       `gorm:"foreignKey:JobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (JobVector) TableName() string {
	return "job_vectors"
}

// MatchEvaluation 候选人-岗位匹配评估结果表
// (candidate_id, job_id) 唯一，重复评估按最新结果覆盖
type MatchEvaluation struct {
	EvaluationID       uint64         `gorm:"primaryKey;autoIncrement"`
	CandidateID        string         `gorm:"type:char(36);not null;index:idx_me_candidate_id;uniqueIndex:idx_me_candidate_job_unique,priority:1"`
	JobID              string         `gorm:"type:char(36);not null;index:idx_me_job_id_overall_score,priority:1;uniqueIndex:idx_me_candidate_job_unique,priority:2"`
	OverallScore       int            `gorm:"type:int;not null;index:idx_me_job_id_overall_score,priority:2"`
	MatchPercentage    int            `gorm:"type:int;not null"`
	RecommendationTier string         `gorm:"type:varchar(50);not null"`
	ReportJSON         datatypes.JSON `gorm:"type:json"` // 完整匹配报告
	EvaluatedAt        time.Time      `gorm:"type:datetime(6);not null"`
	CreatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Job       *Job       `gorm:"foreignKey:JobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (MatchEvaluation) TableName() string {
	return "match_evaluations"
}

// StringToJSON 把字符串转换为 datatypes.JSON
func StringToJSON(s string) datatypes.JSON {
	return datatypes.JSON(s)
}

// SliceToJSON 把任意切片序列化为 datatypes.JSON
func SliceToJSON(v interface{}) (datatypes.JSON, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}
