// Package flow drives an organization through one in-progress assessment:
// question sequence, answer state, conditional visibility, autosave and
// submission.
package flow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"digitalmaturity/internal/logger"
	"digitalmaturity/internal/model"
)

// CatalogSource supplies questionnaires
type CatalogSource interface {
	Level1Questions(ctx context.Context) ([]model.Question, error)
	Level2Eligibility(ctx context.Context) (*model.Eligibility, error)
	Level2Questions(ctx context.Context) ([]model.Level2Question, error)
}

// Snapshot is a full answer set tagged with its send order
type Snapshot struct {
	Seq     int64
	Answers []model.Answer
}

// ProgressStore persists in-progress answers. SaveProgress must treat each
// snapshot as a full replacement and keep the one with the highest Seq. A
// snapshot that is not kept is reported as *StaleSnapshotError.
type ProgressStore interface {
	LoadAssessment(ctx context.Context, assessmentID string) (*model.Assessment, error)
	SaveProgress(ctx context.Context, assessmentID string, snap Snapshot) error
}

// Submitter hands a complete answer set over for scoring
type Submitter interface {
	Submit(ctx context.Context, assessmentID string, answers []model.Answer) (*model.Assessment, error)
}

// Deps are the collaborators of a controller
type Deps struct {
	Catalog   CatalogSource
	Store     ProgressStore
	Submitter Submitter
	Logger    *logger.Logger
}

// Progress summarises the position in the questionnaire
type Progress struct {
	Position int // 1-based among visible steps
	Visible  int
	Answered int // visible steps with an answer
}

// Controller is the single writer of one assessment's answers
type Controller struct {
	deps         Deps
	log          *logger.Logger
	assessmentID string
	level        int

	mu         sync.Mutex
	q          *Questionnaire
	answers    AnswerSet
	nav        Navigator
	submitting bool
	result     *model.Assessment

	seq   atomic.Int64
	saves sync.WaitGroup
}

// New creates a controller; call LoadCatalog and ResumeProgress, or use Start
func New(deps Deps, assessmentID string, level int) *Controller {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{
		deps:         deps,
		log:          log.With("assessment_id", assessmentID, "level", level),
		assessmentID: assessmentID,
		level:        level,
		answers:      EmptyAnswers(),
	}
}

// Start loads the questionnaire and resumes saved progress
func Start(ctx context.Context, deps Deps, assessmentID string, level int) (*Controller, error) {
	c := New(deps, assessmentID, level)
	if _, err := c.LoadCatalog(ctx); err != nil {
		return nil, err
	}
	c.ResumeProgress(ctx)
	return c, nil
}

// LoadCatalog fetches the ordered questionnaire. Level 2 first checks
// eligibility and surfaces a refusal as CatalogUnavailableError.
func (c *Controller) LoadCatalog(ctx context.Context) (*Questionnaire, error) {
	var q *Questionnaire
	switch c.level {
	case model.Level2:
		elig, err := c.deps.Catalog.Level2Eligibility(ctx)
		if err != nil {
			return nil, &CatalogUnavailableError{Reason: "eligibility check failed", Err: err}
		}
		if !elig.Eligible {
			return nil, &CatalogUnavailableError{Reason: elig.Message}
		}
		questions, err := c.deps.Catalog.Level2Questions(ctx)
		if err != nil {
			return nil, &CatalogUnavailableError{Reason: "cannot load level 2 questions", Err: err}
		}
		q = NewLevel2(questions)
	default:
		questions, err := c.deps.Catalog.Level1Questions(ctx)
		if err != nil {
			return nil, &CatalogUnavailableError{Reason: "cannot load questions", Err: err}
		}
		q = NewLevel1(questions)
	}
	if q.Len() == 0 {
		return nil, &CatalogUnavailableError{Reason: "questionnaire is empty"}
	}

	c.mu.Lock()
	c.q = q
	c.nav = NewNavigator(q.Len(), c.visibleLocked)
	c.mu.Unlock()
	return q, nil
}

// ResumeProgress restores saved answers. It never fails: a missing or
// unreadable assessment yields an empty set and a log line.
func (c *Controller) ResumeProgress(ctx context.Context) AnswerSet {
	c.mu.Lock()
	q := c.q
	c.mu.Unlock()
	if q == nil {
		return EmptyAnswers()
	}

	a, err := c.deps.Store.LoadAssessment(ctx, c.assessmentID)
	if err != nil {
		c.log.Warn("resume progress failed", "error", err)
		return EmptyAnswers()
	}
	if a == nil || a.Status != model.StatusInProgress {
		return EmptyAnswers()
	}
	// adopt the stored sequence even when there is nothing to restore
	c.advanceSeq(a.ProgressSeq)
	if len(a.Responses.Answers) == 0 {
		return EmptyAnswers()
	}

	set, dropped := FromAnswers(q, a.Responses.Answers)
	if len(dropped) > 0 {
		c.log.Warn("dropped saved answers that do not fit the questionnaire", "question_ids", dropped)
	}

	c.mu.Lock()
	c.answers = set
	c.nav = c.nav.Reconcile(c.visibleLocked)
	c.mu.Unlock()
	c.log.Debug("progress resumed", "answers", set.Len())
	return set
}

// Questionnaire returns the loaded questionnaire
func (c *Controller) Questionnaire() *Questionnaire {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q
}

// Answers returns the current answer set
func (c *Controller) Answers() AnswerSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answers
}

// Current returns the step the user is on
func (c *Controller) Current() (Step, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.q == nil || c.q.Len() == 0 || !c.visibleLocked(c.nav.Index) {
		return Step{}, false
	}
	return c.q.Steps[c.nav.Index], true
}

// Visible reports whether a step is active under the current answers
func (c *Controller) Visible(s Step) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.q == nil {
		return false
	}
	return c.q.Visible(s, c.answers)
}

// Select records an answer: an option index for level 1, a string or a
// string list for level 2 depending on the question type.
func (c *Controller) Select(ctx context.Context, questionID int, value interface{}) error {
	c.mu.Lock()
	q := c.q
	c.mu.Unlock()
	if q == nil {
		return ErrNotStarted
	}
	ev, err := EventFor(q, questionID, value)
	if err != nil {
		return err
	}
	return c.Dispatch(ctx, ev)
}

// Dispatch applies an event and schedules an autosave of the full snapshot
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	c.mu.Lock()
	if c.q == nil {
		c.mu.Unlock()
		return ErrNotStarted
	}
	if c.result != nil {
		c.mu.Unlock()
		return ErrSubmitted
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}
	next, err := Apply(c.q, c.answers, ev)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.answers = next
	c.nav = c.nav.Reconcile(c.visibleLocked)
	snap := Snapshot{Seq: c.seq.Add(1), Answers: next.Answers()}
	c.mu.Unlock()

	c.autosave(ctx, snap)
	return nil
}

func (c *Controller) autosave(ctx context.Context, snap Snapshot) {
	c.saves.Add(1)
	go func() {
		defer c.saves.Done()
		c.save(context.WithoutCancel(ctx), snap, true)
	}()
}

// save sends one snapshot. A stale rejection moves the counter past the
// stored sequence and, if no newer snapshot was taken meanwhile, resends the
// current answers once.
func (c *Controller) save(ctx context.Context, snap Snapshot, resend bool) {
	err := c.deps.Store.SaveProgress(ctx, c.assessmentID, snap)
	if err == nil {
		c.log.Debug("progress saved", "seq", snap.Seq, "answers", len(snap.Answers))
		return
	}

	var stale *StaleSnapshotError
	if !errors.As(err, &stale) || !resend {
		c.log.Warn("autosave failed", "seq", snap.Seq, "error", err)
		return
	}

	c.mu.Lock()
	if c.seq.Load() != snap.Seq || c.result != nil {
		c.mu.Unlock()
		c.log.Debug("stale snapshot superseded", "seq", snap.Seq, "stored_seq", stale.StoredSeq)
		return
	}
	c.advanceSeq(stale.StoredSeq)
	next := Snapshot{Seq: c.seq.Add(1), Answers: c.answers.Answers()}
	c.mu.Unlock()

	c.log.Info("resending stale snapshot", "seq", snap.Seq, "stored_seq", stale.StoredSeq, "next_seq", next.Seq)
	c.save(ctx, next, false)
}

// advanceSeq raises the snapshot counter to at least seq
func (c *Controller) advanceSeq(seq int64) {
	for {
		cur := c.seq.Load()
		if seq <= cur || c.seq.CompareAndSwap(cur, seq) {
			return
		}
	}
}

func (c *Controller) Wait() {
	c.saves.Wait()
}

// Advance moves to the next visible step. A required step must be answered first.
func (c *Controller) Advance() (Step, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.q == nil {
		return Step{}, ErrNotStarted
	}
	cur := c.q.Steps[c.nav.Index]
	if cur.Required && c.visibleLocked(c.nav.Index) && !c.answers.Answered(cur.QuestionID) {
		return cur, ErrUnanswered
	}
	c.nav = c.nav.Advance(c.visibleLocked)
	return c.q.Steps[c.nav.Index], nil
}

// Retreat moves to the previous visible step
func (c *Controller) Retreat() (Step, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.q == nil {
		return Step{}, ErrNotStarted
	}
	c.nav = c.nav.Retreat(c.visibleLocked)
	return c.q.Steps[c.nav.Index], nil
}

// GoTo jumps to a visible question
func (c *Controller) GoTo(questionID int) (Step, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.q == nil {
		return Step{}, ErrNotStarted
	}
	i, ok := c.q.byID[questionID]
	if !ok {
		return Step{}, ErrUnknownQuestion
	}
	nav, ok := c.nav.JumpTo(i, c.visibleLocked)
	if !ok {
		return c.q.Steps[c.nav.Index], ErrNotVisible
	}
	c.nav = nav
	return c.q.Steps[i], nil
}

// IsLast reports whether no visible step follows the current one
func (c *Controller) IsLast() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q != nil && c.nav.AtEnd(c.visibleLocked)
}

// IsComplete reports whether the assessment can be submitted
func (c *Controller) IsComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q != nil && c.q.IsComplete(c.answers)
}

// Progress reports the position among visible steps
func (c *Controller) Progress() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	var p Progress
	if c.q == nil {
		return p
	}
	for i, s := range c.q.Steps {
		if !c.visibleLocked(i) {
			continue
		}
		p.Visible++
		if i <= c.nav.Index {
			p.Position = p.Visible
		}
		if c.answers.Answered(s.QuestionID) {
			p.Answered++
		}
	}
	return p
}

// Submit hands the full answer set to the submitter. On failure the state is
// unchanged and a SubmitError is returned; on success further changes are
// rejected with ErrSubmitted.
func (c *Controller) Submit(ctx context.Context) (*model.Assessment, error) {
	c.mu.Lock()
	switch {
	case c.q == nil:
		c.mu.Unlock()
		return nil, ErrNotStarted
	case c.result != nil:
		c.mu.Unlock()
		return nil, ErrSubmitted
	case c.submitting:
		c.mu.Unlock()
		return nil, ErrSubmitInFlight
	case !c.q.IsComplete(c.answers):
		c.mu.Unlock()
		return nil, ErrIncomplete
	}
	c.submitting = true
	answers := c.answers.Answers()
	c.mu.Unlock()

	result, err := c.deps.Submitter.Submit(ctx, c.assessmentID, answers)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if err != nil {
		c.log.Warn("submission failed", "error", err)
		return nil, &SubmitError{Reason: reasonOf(err), Err: err}
	}
	c.result = result
	c.log.Info("assessment submitted", "answers", len(answers))
	return result, nil
}

// Submitted reports whether a submission succeeded
func (c *Controller) Submitted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result != nil
}

func (c *Controller) visibleLocked(i int) bool {
	return c.q.VisibleAt(i, c.answers)
}

func reasonOf(err error) string {
	var reasoned interface{ UserMessage() string }
	if errors.As(err, &reasoned) {
		return reasoned.UserMessage()
	}
	return err.Error()
}
