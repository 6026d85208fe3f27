package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"digitalmaturity/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLevel1(t *testing.T, store *memoryStore, sub *fakeSubmitter) *Controller {
	t.Helper()
	c, err := Start(context.Background(), Deps{
		Catalog:   &fakeCatalog{level1: level1Questions()},
		Store:     store,
		Submitter: sub,
	}, "a1", model.Level1)
	require.NoError(t, err)
	return c
}

func startLevel2(t *testing.T, store *memoryStore, sub *fakeSubmitter) *Controller {
	t.Helper()
	c, err := Start(context.Background(), Deps{
		Catalog:   &fakeCatalog{level2: level2Questions()},
		Store:     store,
		Submitter: sub,
	}, "a2", model.Level2)
	require.NoError(t, err)
	return c
}

func TestStartCatalogUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		catalog *fakeCatalog
		level   int
	}{
		{"source error", &fakeCatalog{err: errBoom}, model.Level1},
		{"empty catalog", &fakeCatalog{}, model.Level1},
		{"not eligible", &fakeCatalog{level2: level2Questions(), eligibility: &model.Eligibility{Message: "complete level 1 first"}}, model.Level2},
		{"eligibility error", &fakeCatalog{err: errBoom}, model.Level2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Start(context.Background(), Deps{Catalog: tt.catalog, Store: newMemoryStore()}, "a", tt.level)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCatalogUnavailable)
			var cu *CatalogUnavailableError
			require.True(t, errors.As(err, &cu))
			assert.NotEmpty(t, cu.Reason)
		})
	}
}

func TestStartNotEligibleSurfacesReason(t *testing.T) {
	_, err := Start(context.Background(), Deps{
		Catalog: &fakeCatalog{eligibility: &model.Eligibility{Message: "complete level 1 first"}},
		Store:   newMemoryStore(),
	}, "a", model.Level2)
	var cu *CatalogUnavailableError
	require.True(t, errors.As(err, &cu))
	assert.Equal(t, "complete level 1 first", cu.Reason)
}

func TestResumeProgress(t *testing.T) {
	store := newMemoryStore()
	store.assessment = &model.Assessment{
		Status:      model.StatusInProgress,
		ProgressSeq: 7,
		Responses: model.Responses{Answers: []model.Answer{
			{QuestionID: 1, SelectedOption: 2},
			{QuestionID: 42, SelectedOption: 0},
		}},
	}
	c := startLevel1(t, store, &fakeSubmitter{})

	e, ok := c.Answers().Get(1)
	require.True(t, ok)
	assert.Equal(t, 2, e.Option)
	assert.Equal(t, 1, c.Answers().Len())

	require.NoError(t, c.Select(context.Background(), 2, 0))
	c.Wait()
	seq, _, _ := store.snapshot()
	assert.Equal(t, int64(8), seq, "sequence continues after the stored one")
}

func TestResumeProgressBestEffort(t *testing.T) {
	store := newMemoryStore()
	store.loadErr = errBoom
	c := startLevel1(t, store, &fakeSubmitter{})
	assert.Equal(t, 0, c.Answers().Len())

	store2 := newMemoryStore()
	store2.assessment = &model.Assessment{
		Status:    model.StatusCompleted,
		Responses: model.Responses{Answers: []model.Answer{{QuestionID: 1, SelectedOption: 1}}},
	}
	c2 := startLevel1(t, store2, &fakeSubmitter{})
	assert.Equal(t, 0, c2.Answers().Len(), "completed assessments are not resumed")
}

func TestAutosaveAfterResumeStaysAheadOfStoredSequence(t *testing.T) {
	tests := []struct {
		name       string
		assessment *model.Assessment
		loadErr    error
		storedSeq  int64
		selects    []int
		wantSaves  int
	}{
		{
			name:       "in progress without answers",
			assessment: &model.Assessment{Status: model.StatusInProgress, ProgressSeq: 5},
			storedSeq:  5,
			selects:    []int{1, 2},
			wantSaves:  2,
		},
		{
			name:      "unreadable assessment",
			loadErr:   errBoom,
			storedSeq: 6,
			selects:   []int{1},
			wantSaves: 2,
		},
		{
			name:       "stored sequence ahead of the loaded one",
			assessment: &model.Assessment{Status: model.StatusInProgress, ProgressSeq: 3},
			storedSeq:  9,
			selects:    []int{3},
			wantSaves:  2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			store.assessment = tt.assessment
			store.loadErr = tt.loadErr
			store.seq = tt.storedSeq
			c := startLevel1(t, store, &fakeSubmitter{})

			for _, id := range tt.selects {
				require.NoError(t, c.Select(context.Background(), id, 1))
			}
			c.Wait()

			seq, answers, saves := store.snapshot()
			assert.Greater(t, seq, tt.storedSeq)
			assert.Len(t, answers, len(tt.selects))
			assert.Equal(t, tt.wantSaves, saves)
		})
	}
}

func TestStaleResendGivesUpAfterOneAttempt(t *testing.T) {
	store := newMemoryStore()
	store.seq = 4
	c := startLevel1(t, store, &fakeSubmitter{})

	// a competing writer moves ahead again before the resend lands
	release := store.gate(5)
	require.NoError(t, c.Select(context.Background(), 1, 0))
	require.Eventually(t, func() bool {
		_, _, saves := store.snapshot()
		return saves == 1
	}, time.Second, 5*time.Millisecond)
	store.mu.Lock()
	store.seq = 10
	store.mu.Unlock()
	close(release)
	c.Wait()

	seq, answers, saves := store.snapshot()
	assert.Equal(t, int64(10), seq)
	assert.Empty(t, answers)
	assert.Equal(t, 2, saves)
}

func TestSelectAutosavesFullSnapshot(t *testing.T) {
	store := newMemoryStore()
	c := startLevel1(t, store, &fakeSubmitter{})
	ctx := context.Background()

	require.NoError(t, c.Select(ctx, 1, 0))
	require.NoError(t, c.Select(ctx, 2, 1))
	c.Wait()

	seq, answers, saves := store.snapshot()
	assert.Equal(t, int64(2), seq)
	assert.Equal(t, 2, saves)
	assert.Equal(t, []model.Answer{
		{QuestionID: 1, SelectedOption: 0},
		{QuestionID: 2, SelectedOption: 1},
	}, answers)
}

func TestSelectValidatesType(t *testing.T) {
	c := startLevel1(t, newMemoryStore(), &fakeSubmitter{})
	err := c.Select(context.Background(), 1, "yes")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	err = c.Select(context.Background(), 1, 5)
	assert.ErrorIs(t, err, ErrOptionOutOfRange)
	assert.Equal(t, 0, c.Answers().Len())
}

func TestAutosaveFailureDoesNotBlock(t *testing.T) {
	store := newMemoryStore()
	store.saveErr = errBoom
	c := startLevel1(t, store, &fakeSubmitter{})

	require.NoError(t, c.Select(context.Background(), 1, 1))
	_, err := c.Advance()
	require.NoError(t, err)
	c.Wait()
	assert.Equal(t, 1, c.Answers().Len())
}

func TestAutosaveRaceLastWriteWins(t *testing.T) {
	store := newMemoryStore()
	c := startLevel1(t, store, &fakeSubmitter{})
	ctx := context.Background()

	release := store.gate(1)
	require.NoError(t, c.Select(ctx, 1, 2)) // S1, held back
	require.NoError(t, c.Select(ctx, 2, 1)) // S2, superset of S1

	require.Eventually(t, func() bool {
		_, _, saves := store.snapshot()
		return saves == 1
	}, time.Second, 5*time.Millisecond)
	close(release)
	c.Wait()

	seq, answers, saves := store.snapshot()
	assert.Equal(t, 2, saves)
	assert.Equal(t, int64(2), seq)
	assert.Equal(t, []model.Answer{
		{QuestionID: 1, SelectedOption: 2},
		{QuestionID: 2, SelectedOption: 1},
	}, answers)
}

func TestAdvanceRequiresAnswer(t *testing.T) {
	c := startLevel1(t, newMemoryStore(), &fakeSubmitter{})

	_, err := c.Advance()
	assert.ErrorIs(t, err, ErrUnanswered)

	require.NoError(t, c.Select(context.Background(), 1, 0))
	step, err := c.Advance()
	require.NoError(t, err)
	assert.Equal(t, 2, step.QuestionID)

	step, err = c.Retreat()
	require.NoError(t, err)
	assert.Equal(t, 1, step.QuestionID)

	step, err = c.Retreat()
	require.NoError(t, err)
	assert.Equal(t, 1, step.QuestionID, "clamps at the first question")
	c.Wait()
}

func TestConditionalQuestionFlow(t *testing.T) {
	c := startLevel2(t, newMemoryStore(), &fakeSubmitter{})
	ctx := context.Background()

	require.NoError(t, c.Select(ctx, 1, "si"))
	step, err := c.Advance()
	require.NoError(t, err)
	assert.Equal(t, 2, step.QuestionID)
	require.NoError(t, c.Select(ctx, 2, []string{"crm"}))

	step, err = c.Advance()
	require.NoError(t, err)
	assert.Equal(t, 3, step.QuestionID)
	step, err = c.Advance()
	require.NoError(t, err)
	assert.Equal(t, 4, step.QuestionID)

	// Dropping "crm" hides q4 while the user is on it: move on in the last direction.
	require.NoError(t, c.Dispatch(ctx, SetValues{QuestionID: 2, Values: []string{"erp"}}))
	cur, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, 5, cur.QuestionID)

	// Going back skips q4 and lands on q3.
	step, err = c.Retreat()
	require.NoError(t, err)
	assert.Equal(t, 3, step.QuestionID)

	// Jump to q2, then answer q1 "no" from there: q2 hides, moving backward lands on q1.
	_, err = c.GoTo(2)
	require.NoError(t, err)
	require.NoError(t, c.Select(ctx, 1, "no"))
	cur, ok = c.Current()
	require.True(t, ok)
	assert.Equal(t, 1, cur.QuestionID)

	q2, _ := c.Questionnaire().Step(2)
	assert.False(t, c.Visible(q2))
	_, err = c.GoTo(2)
	assert.ErrorIs(t, err, ErrNotVisible)
	c.Wait()
}

func TestProgress(t *testing.T) {
	c := startLevel2(t, newMemoryStore(), &fakeSubmitter{})
	p := c.Progress()
	assert.Equal(t, Progress{Position: 1, Visible: 3, Answered: 0}, p)

	require.NoError(t, c.Select(context.Background(), 1, "si"))
	p = c.Progress()
	assert.Equal(t, Progress{Position: 1, Visible: 4, Answered: 1}, p)
	c.Wait()
}

func TestSubmit(t *testing.T) {
	sub := &fakeSubmitter{}
	c := startLevel1(t, newMemoryStore(), sub)
	ctx := context.Background()

	_, err := c.Submit(ctx)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, 0, sub.calls)

	for id := 1; id <= 3; id++ {
		require.NoError(t, c.Select(ctx, id, 2))
	}
	require.True(t, c.IsComplete())

	sub.err = errBoom
	_, err = c.Submit(ctx)
	var se *SubmitError
	require.True(t, errors.As(err, &se))
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, c.Submitted())
	assert.Equal(t, 3, c.Answers().Len(), "state is kept for retry")
	require.NoError(t, c.Select(ctx, 3, 1), "answers remain editable after a failed submit")

	sub.err = nil
	res, err := c.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, res.Status)
	assert.Len(t, sub.got, 3)
	assert.Equal(t, 1, sub.got[2].SelectedOption)

	assert.ErrorIs(t, c.Select(ctx, 1, 0), ErrSubmitted)
	_, err = c.Submit(ctx)
	assert.ErrorIs(t, err, ErrSubmitted)
	c.Wait()
}

func TestSubmitLevel2IgnoresHiddenRequired(t *testing.T) {
	sub := &fakeSubmitter{}
	c := startLevel2(t, newMemoryStore(), sub)
	ctx := context.Background()

	require.NoError(t, c.Select(ctx, 1, "no"))
	assert.False(t, c.IsComplete())
	require.NoError(t, c.Select(ctx, 5, "Milano"))
	assert.True(t, c.IsComplete())

	_, err := c.Submit(ctx)
	require.NoError(t, err)
	c.Wait()
}
