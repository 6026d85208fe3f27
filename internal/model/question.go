package model

// TargetType restricts a level-1 question to an organization type
type TargetType string

const (
	TargetBoth    TargetType = "both"
	TargetCompany TargetType = "azienda"
	TargetPA      TargetType = "pa"
)

// Applies reports whether a question with this target is shown to orgType
func (t TargetType) Applies(orgType OrganizationType) bool {
	return t == "" || t == TargetBoth || string(t) == string(orgType)
}

// QuestionOption is one selectable answer of a level-1 question
type QuestionOption struct {
	Text  string  `json:"text" bson:"text" yaml:"text"`
	Score float64 `json:"score" bson:"score" yaml:"score"` // 0-5 rubric points
}

// Question is an immutable level-1 catalog entry (single choice)
type Question struct {
	ID          int              `json:"id" bson:"_id" yaml:"id"`
	Category    string           `json:"category" bson:"category" yaml:"category"`
	Subcategory string           `json:"subcategory,omitempty" bson:"subcategory,omitempty" yaml:"subcategory"`
	Text        string           `json:"text" bson:"text" yaml:"text"`
	Hint        string           `json:"hint,omitempty" bson:"hint,omitempty" yaml:"hint"`
	Options     []QuestionOption `json:"options" bson:"options" yaml:"options"`
	Weight      float64          `json:"weight" bson:"weight" yaml:"weight"`
	Order       int              `json:"order" bson:"order" yaml:"order"`
	TargetType  TargetType       `json:"target_type" bson:"targetType" yaml:"target_type"`
}

// EffectiveWeight returns the weight used for aggregation, 1 when unset
func (q Question) EffectiveWeight() float64 {
	if q.Weight <= 0 {
		return 1
	}
	return q.Weight
}

// Level2Type is the input kind of a level-2 question
type Level2Type string

const (
	Level2Text        Level2Type = "text"
	Level2Select      Level2Type = "select"
	Level2Multiselect Level2Type = "multiselect"
)

// Level2Option is a selectable value; Score is nil for descriptive options
type Level2Option struct {
	Value string   `json:"value" yaml:"value"`
	Text  string   `json:"text" yaml:"text"`
	Score *float64 `json:"score,omitempty" yaml:"score"`
}

// Conditional activates a question only when another answer contains Value
type Conditional struct {
	QuestionID int    `json:"question_id" yaml:"question_id"`
	Value      string `json:"value" yaml:"value"`
}

// Level2Question is an entry of the level-2 audit questionnaire
type Level2Question struct {
	ID          int            `json:"id" yaml:"id"`
	Category    string         `json:"category" yaml:"category"`
	Subcategory string         `json:"subcategory" yaml:"subcategory"`
	Code        string         `json:"code" yaml:"code"`
	Text        string         `json:"text" yaml:"text"`
	Type        Level2Type     `json:"type" yaml:"type"`
	Required    bool           `json:"required" yaml:"required"`
	Options     []Level2Option `json:"options,omitempty" yaml:"options"`
	Hint        string         `json:"hint,omitempty" yaml:"hint"`
	Conditional *Conditional   `json:"conditional,omitempty" yaml:"conditional"`
}

// Visible reports whether q is active. valuesOf returns the current answer
// of a question coerced to a list (nil when unanswered).
func (q Level2Question) Visible(valuesOf func(questionID int) []string) bool {
	if q.Conditional == nil {
		return true
	}
	for _, v := range valuesOf(q.Conditional.QuestionID) {
		if v == q.Conditional.Value {
			return true
		}
	}
	return false
}

// Option returns the option with the given value
func (q Level2Question) Option(value string) (Level2Option, bool) {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return Level2Option{}, false
}

// Level2Catalog is the payload returned to eligible organizations
type Level2Catalog struct {
	Questions  []Level2Question `json:"questions"`
	Categories []string         `json:"categories"`
	Total      int              `json:"total"`
}

// ThematicCatalog is a standalone questionnaire such as governance or ISO 56002
type ThematicCatalog struct {
	Name       string     `json:"-"`
	Questions  []Question `json:"questions"`
	Categories []string   `json:"categories"`
	Total      int        `json:"total"`
}

// Eligibility describes whether an organization may take the level-2 audit
type Eligibility struct {
	Eligible             bool   `json:"eligible"`
	CompletedLevel1Count int    `json:"completed_level1_count"`
	Message              string `json:"message"`
}
