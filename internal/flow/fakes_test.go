package flow

import (
	"context"
	"errors"
	"sync"

	"digitalmaturity/internal/model"
)

func score(v float64) *float64 { return &v }

func level1Questions() []model.Question {
	opts := []model.QuestionOption{{Text: "no", Score: 1}, {Text: "partly", Score: 3}, {Text: "yes", Score: 5}}
	return []model.Question{
		{ID: 1, Category: "Strategia", Options: opts, Weight: 1, Order: 1},
		{ID: 2, Category: "Strategia", Options: opts, Weight: 1, Order: 2},
		{ID: 3, Category: "Processi", Options: opts, Weight: 2, Order: 3},
	}
}

// q2 depends on q1 = si, q3 is optional, q4 depends on q2 containing "crm"
func level2Questions() []model.Level2Question {
	return []model.Level2Question{
		{ID: 1, Category: "Tecnologie", Type: model.Level2Select, Required: true,
			Options: []model.Level2Option{{Value: "si", Text: "Si"}, {Value: "no", Text: "No"}}},
		{ID: 2, Category: "Tecnologie", Type: model.Level2Multiselect, Required: true,
			Conditional: &model.Conditional{QuestionID: 1, Value: "si"},
			Options: []model.Level2Option{
				{Value: "erp", Text: "ERP", Score: score(4)},
				{Value: "crm", Text: "CRM", Score: score(3)},
			}},
		{ID: 3, Category: "Anagrafica", Type: model.Level2Text},
		{ID: 4, Category: "Tecnologie", Type: model.Level2Text, Required: true,
			Conditional: &model.Conditional{QuestionID: 2, Value: "crm"}},
		{ID: 5, Category: "Anagrafica", Type: model.Level2Text, Required: true},
	}
}

type fakeCatalog struct {
	level1      []model.Question
	level2      []model.Level2Question
	eligibility *model.Eligibility
	err         error
}

func (f *fakeCatalog) Level1Questions(ctx context.Context) ([]model.Question, error) {
	return f.level1, f.err
}

func (f *fakeCatalog) Level2Eligibility(ctx context.Context) (*model.Eligibility, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.eligibility == nil {
		return &model.Eligibility{Eligible: true}, nil
	}
	return f.eligibility, nil
}

func (f *fakeCatalog) Level2Questions(ctx context.Context) ([]model.Level2Question, error) {
	return f.level2, f.err
}

// memoryStore keeps the snapshot with the highest sequence and rejects older
// ones the way the server does. Saves for a gated sequence block until the
// gate is closed.
type memoryStore struct {
	mu         sync.Mutex
	seq        int64
	answers    []model.Answer
	saves      int
	gates      map[int64]chan struct{}
	saveErr    error
	assessment *model.Assessment
	loadErr    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{gates: map[int64]chan struct{}{}}
}

func (m *memoryStore) gate(seq int64) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	m.gates[seq] = ch
	return ch
}

func (m *memoryStore) LoadAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	return m.assessment, m.loadErr
}

func (m *memoryStore) SaveProgress(ctx context.Context, id string, snap Snapshot) error {
	m.mu.Lock()
	ch := m.gates[snap.Seq]
	m.mu.Unlock()
	if ch != nil {
		<-ch
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	if snap.Seq <= m.seq {
		return &StaleSnapshotError{StoredSeq: m.seq}
	}
	m.seq = snap.Seq
	m.answers = snap.Answers
	return nil
}

func (m *memoryStore) snapshot() (int64, []model.Answer, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq, m.answers, m.saves
}

type fakeSubmitter struct {
	mu    sync.Mutex
	calls int
	err   error
	got   []model.Answer
}

func (f *fakeSubmitter) Submit(ctx context.Context, id string, answers []model.Answer) (*model.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.got = answers
	if f.err != nil {
		return nil, f.err
	}
	return &model.Assessment{ID: id, Status: model.StatusCompleted}, nil
}

var errBoom = errors.New("boom")
