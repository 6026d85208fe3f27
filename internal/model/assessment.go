package model

import "time"

// AssessmentStatus is the lifecycle state of an assessment
type AssessmentStatus string

const (
	StatusInProgress AssessmentStatus = "in_progress"
	StatusCompleted  AssessmentStatus = "completed"
)

// Questionnaire levels
const (
	Level1 = 1
	Level2 = 2
)

// Priority is the intervention urgency of a category gap
type Priority string

const (
	PriorityHigh   Priority = "Alta"
	PriorityMedium Priority = "Media"
	PriorityLow    Priority = "Bassa"
)

// Severity orders priorities; higher is more urgent
func (p Priority) Severity() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// GapItem compares a category score with the target ceiling
type GapItem struct {
	CurrentScore float64  `json:"current_score" bson:"currentScore"`
	TargetScore  float64  `json:"target_score" bson:"targetScore"`
	Gap          float64  `json:"gap" bson:"gap"`
	Priority     Priority `json:"priority" bson:"priority"`
}

// Assessment is one questionnaire run of an organization
type Assessment struct {
	ID             string             `json:"id" bson:"_id,omitempty"`
	OrganizationID string             `json:"organization_id" bson:"organizationId"`
	Level          int                `json:"level" bson:"level"`
	Status         AssessmentStatus   `json:"status" bson:"status"`
	Responses      Responses          `json:"responses" bson:"responses"`
	ProgressSeq    int64              `json:"progress_seq" bson:"progressSeq"` // last applied autosave
	Categories     []string           `json:"categories,omitempty" bson:"categories,omitempty"` // scored categories in catalog order
	Scores         map[string]float64 `json:"scores,omitempty" bson:"scores,omitempty"`
	MaturityLevel  *float64           `json:"maturity_level" bson:"maturityLevel,omitempty"`
	MaturityLabel  string             `json:"maturity_label,omitempty" bson:"maturityLabel,omitempty"`
	GapAnalysis    map[string]GapItem `json:"gap_analysis,omitempty" bson:"gapAnalysis,omitempty"`
	Report         *string            `json:"report" bson:"report,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"createdAt"`
	CompletedAt    *time.Time         `json:"completed_at" bson:"completedAt,omitempty"`
}

// IsCompleted reports whether results are available
func (a *Assessment) IsCompleted() bool {
	return a.Status == StatusCompleted
}

// Summary builds the listing view
func (a *Assessment) Summary() AssessmentSummary {
	return AssessmentSummary{
		ID:            a.ID,
		Level:         a.Level,
		Status:        a.Status,
		MaturityLevel: a.MaturityLevel,
		CreatedAt:     a.CreatedAt,
		CompletedAt:   a.CompletedAt,
	}
}

// AssessmentResult is the scoring output stored on completion
type AssessmentResult struct {
	Categories    []string           `bson:"categories"`
	Scores        map[string]float64 `bson:"scores"`
	MaturityLevel float64            `bson:"maturityLevel"`
	MaturityLabel string             `bson:"maturityLabel"`
	GapAnalysis   map[string]GapItem `bson:"gapAnalysis"`
	Report        string             `bson:"report"`
}

// AssessmentSummary is the compact listing view of an assessment
type AssessmentSummary struct {
	ID            string           `json:"id"`
	Level         int              `json:"level"`
	Status        AssessmentStatus `json:"status"`
	MaturityLevel *float64         `json:"maturity_level"`
	CreatedAt     time.Time        `json:"created_at"`
	CompletedAt   *time.Time       `json:"completed_at"`
}

// AssessmentDetail is the admin view of an assessment with its organization
type AssessmentDetail struct {
	*Assessment
	Organization *Organization `json:"organization"`
}

// CreateAssessmentRequest starts a new assessment
type CreateAssessmentRequest struct {
	Level int `json:"level"`
}

// Stats aggregates the admin dashboard counters
type Stats struct {
	TotalOrganizations    int64   `json:"total_organizations"`
	TotalAssessments      int64   `json:"total_assessments"`
	CompletedAssessments  int64   `json:"completed_assessments"`
	InProgressAssessments int64   `json:"in_progress_assessments"`
	AverageMaturityLevel  float64 `json:"average_maturity_level"`
}

// DetailedResponse resolves a stored answer against the question catalog
type DetailedResponse struct {
	QuestionID          int              `json:"question_id"`
	Category            string           `json:"category"`
	Subcategory         string           `json:"subcategory,omitempty"`
	QuestionText        string           `json:"question_text"`
	SelectedOptionIndex *int             `json:"selected_option_index,omitempty"`
	SelectedOptionText  string           `json:"selected_option_text"`
	SelectedScore       *float64         `json:"selected_score"`
	Value               *AnswerValue     `json:"value,omitempty"`
	Notes               string           `json:"notes,omitempty"`
	AllOptions          []QuestionOption `json:"all_options,omitempty"`
}

// ResponsesReport is the admin payload of detailed responses
type ResponsesReport struct {
	AssessmentID   string             `json:"assessment_id"`
	Organization   OrganizationInfo   `json:"organization"`
	Status         AssessmentStatus   `json:"status"`
	MaturityLevel  *float64           `json:"maturity_level"`
	CompletedAt    *time.Time         `json:"completed_at"`
	TotalQuestions int                `json:"total_questions"`
	Responses      []DetailedResponse `json:"responses"`
}

// ReportResponse is the report view of a completed assessment
type ReportResponse struct {
	Report        string             `json:"report"`
	Scores        map[string]float64 `json:"scores"`
	MaturityLevel *float64           `json:"maturity_level"`
	MaturityLabel string             `json:"maturity_label"`
	GapAnalysis   map[string]GapItem `json:"gap_analysis"`
}

// SaveProgressResponse tells the client whether its snapshot was kept
type SaveProgressResponse struct {
	Applied bool  `json:"applied"`
	Seq     int64 `json:"seq"`
}

// ExportFile is a rendered report ready for download
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
