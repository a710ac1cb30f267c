package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/repository"
	"github.com/stemsi/exstem-proctor/internal/validator"
	"github.com/stretchr/testify/require"
)

const testKey = "exam_session_test"

var ada = model.Candidate{Name: "Ada Lovelace", Contact: "ada@example.com"}

// ─── Fakes ──────────────────────────────────────────────────────────────────

type countingStore struct {
	*repository.MemorySnapshotRepository
	mu     sync.Mutex
	saves  int
	clears int
}

func newCountingStore() *countingStore {
	return &countingStore{MemorySnapshotRepository: repository.NewMemorySnapshotRepository()}
}

func (s *countingStore) Save(ctx context.Context, key string, payload []byte) error {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.MemorySnapshotRepository.Save(ctx, key, payload)
}

func (s *countingStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	s.clears++
	s.mu.Unlock()
	return s.MemorySnapshotRepository.Clear(ctx, key)
}

func (s *countingStore) clearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

type failingStore struct{}

func (failingStore) Save(context.Context, string, []byte) error { return errors.New("disk full") }
func (failingStore) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk gone")
}
func (failingStore) Clear(context.Context, string) error { return errors.New("disk gone") }

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.SessionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e model.SessionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) count(typ model.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func testExamConfig() config.ExamConfig {
	return config.ExamConfig{
		TotalTimeSeconds:  1800,
		PassingPercentage: 60,
		MaxViolations:     3,
		PersistenceKey:    testKey,
	}
}

func newTestSession(t *testing.T, cfg config.ExamConfig, store repository.SnapshotStore, opts ...SessionOption) *ExamSession {
	t.Helper()
	validator.Setup()

	opts = append([]SessionOption{WithRand(rand.New(rand.NewSource(1)))}, opts...)
	s, err := NewExamSession(cfg, model.DefaultQuestionBank(), store, zerolog.Nop(), opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func startedSession(t *testing.T, store repository.SnapshotStore, opts ...SessionOption) *ExamSession {
	t.Helper()
	s := newTestSession(t, testExamConfig(), store, opts...)
	_, err := s.Register(context.Background(), ada)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	return s
}

func loadState(t *testing.T, store repository.SnapshotStore) model.SessionState {
	t.Helper()
	raw, err := store.Load(context.Background(), testKey)
	require.NoError(t, err)
	state, err := DecodeSnapshot(raw)
	require.NoError(t, err)
	return state
}

// ─── Construction ───────────────────────────────────────────────────────────

func TestNewExamSessionRejectsBadConfig(t *testing.T) {
	cfg := testExamConfig()
	cfg.TotalTimeSeconds = 0
	cfg.MaxViolations = 0
	_, err := NewExamSession(cfg, model.DefaultQuestionBank(), repository.NewMemorySnapshotRepository(), zerolog.Nop())
	require.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = NewExamSession(testExamConfig(), nil, repository.NewMemorySnapshotRepository(), zerolog.Nop())
	require.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = NewExamSession(testExamConfig(), model.DefaultQuestionBank(), nil, zerolog.Nop())
	require.True(t, errors.Is(err, ErrInvalidConfiguration))
}

// ─── Registration & start ───────────────────────────────────────────────────

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, testExamConfig(), repository.NewMemorySnapshotRepository())

	_, err := s.Register(ctx, model.Candidate{Name: "   ", Contact: "ada@example.com"})
	require.True(t, errors.Is(err, ErrValidation))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "name")

	_, err = s.Register(ctx, model.Candidate{Name: "Ada", Contact: "not-an-address"})
	require.True(t, errors.Is(err, ErrValidation))
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "contact")

	_, ok := s.Candidate()
	require.False(t, ok)
	require.Empty(t, s.SessionID())
}

func TestRegisterTrimsInput(t *testing.T) {
	s := newTestSession(t, testExamConfig(), repository.NewMemorySnapshotRepository())
	id, err := s.Register(context.Background(), model.Candidate{Name: "  Ada ", Contact: " ada@example.com "})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	c, ok := s.Candidate()
	require.True(t, ok)
	require.Equal(t, model.Candidate{Name: "Ada", Contact: "ada@example.com"}, c)
}

func TestStartRequiresCandidate(t *testing.T) {
	s := newTestSession(t, testExamConfig(), repository.NewMemorySnapshotRepository())
	require.True(t, errors.Is(s.Start(context.Background()), ErrState))
	require.Equal(t, model.SessionStatusRegistered, s.Status())
}

func TestStartPersistsFreshSnapshot(t *testing.T) {
	store := repository.NewMemorySnapshotRepository()
	s := startedSession(t, store)

	require.Equal(t, model.SessionStatusInProgress, s.Status())
	state := loadState(t, store)
	require.True(t, state.IsActive)
	require.Len(t, state.Questions, 10)
	require.Equal(t, 0, state.CurrentIndex)
	require.Empty(t, state.Answers)
	require.Equal(t, 1800, state.TimeRemainingSeconds)
	require.Equal(t, 0, state.ViolationCount)
	require.Equal(t, s.SessionID(), state.SessionID)

	require.True(t, errors.Is(s.Start(context.Background()), ErrState))
	_, err := s.Register(context.Background(), ada)
	require.True(t, errors.Is(err, ErrState))
}

// ─── Answers & navigation ───────────────────────────────────────────────────

func TestSelectAnswerRules(t *testing.T) {
	ctx := context.Background()
	idle := newTestSession(t, testExamConfig(), repository.NewMemorySnapshotRepository())
	require.True(t, errors.Is(idle.SelectAnswer(ctx, 1, 0), ErrState))

	store := repository.NewMemorySnapshotRepository()
	s := startedSession(t, store)
	q, err := s.CurrentQuestion()
	require.NoError(t, err)
	require.Nil(t, q.SelectedIndex)
	require.False(t, q.CanAdvance)

	require.True(t, errors.Is(s.SelectAnswer(ctx, 999, 0), ErrValidation))
	require.True(t, errors.Is(s.SelectAnswer(ctx, q.ID, len(q.Options)), ErrValidation))
	require.True(t, errors.Is(s.SelectAnswer(ctx, q.ID, -1), ErrValidation))

	require.NoError(t, s.SelectAnswer(ctx, q.ID, 0))
	require.NoError(t, s.SelectAnswer(ctx, q.ID, 2))

	q, err = s.CurrentQuestion()
	require.NoError(t, err)
	require.NotNil(t, q.SelectedIndex)
	require.Equal(t, 2, *q.SelectedIndex)
	require.True(t, q.CanAdvance)
	require.Equal(t, map[int]int{q.ID: 2}, loadState(t, store).Answers)
	require.Equal(t, 1, s.Progress().Answered)
}

func TestAdvanceRejectsPastLastQuestion(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemorySnapshotRepository()
	s := startedSession(t, store)

	for i := 0; i < 9; i++ {
		require.NoError(t, s.Advance(ctx))
	}
	require.Equal(t, model.Progress{Current: 10, Total: 10, Answered: 0, Percent: 100}, s.Progress())

	q, err := s.CurrentQuestion()
	require.NoError(t, err)
	require.True(t, q.IsLast)

	require.True(t, errors.Is(s.Advance(ctx), ErrState))
	require.Equal(t, 9, loadState(t, store).CurrentIndex)
	require.Equal(t, model.SessionStatusInProgress, s.Status())
}

// ─── Violations ─────────────────────────────────────────────────────────────

func TestViolationThresholdForcesFinish(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemorySnapshotRepository()
	pub := &recordingPublisher{}
	s := startedSession(t, store, WithEventPublisher(pub))

	require.Equal(t, ViolationReport{Count: 1}, s.RecordViolation(ctx, "   "))
	require.Equal(t, "unspecified", s.View().LastViolation)

	require.Equal(t, ViolationReport{Count: 2}, s.RecordViolation(ctx, ViolationFocusLost))
	require.Equal(t, ViolationReport{Count: 3, ThresholdExceeded: true}, s.RecordViolation(ctx, ViolationFullscreenExited))

	require.Equal(t, model.SessionStatusFinished, s.Status())
	res, err := s.ResultSummary()
	require.NoError(t, err)
	require.Equal(t, model.FinishReasonViolationLimit, res.FinishReason)
	require.Equal(t, 3, res.ViolationCount)

	require.Equal(t, ViolationReport{Count: 3}, s.RecordViolation(ctx, ViolationTabHidden))
	require.Equal(t, 3, s.ViolationCount())

	_, err = store.Load(ctx, testKey)
	require.ErrorIs(t, err, repository.ErrSnapshotNotFound)
	require.Equal(t, 3, pub.count(model.EventViolation))
	require.Equal(t, 1, pub.count(model.EventFinished))
}

func TestViolationBeforeStartIsIgnored(t *testing.T) {
	s := newTestSession(t, testExamConfig(), repository.NewMemorySnapshotRepository())
	require.Equal(t, ViolationReport{}, s.RecordViolation(context.Background(), ViolationTabHidden))
	require.Equal(t, 0, s.ViolationCount())
}

// ─── Timer ──────────────────────────────────────────────────────────────────

func TestTickPersistsAndExpires(t *testing.T) {
	ctx := context.Background()
	cfg := testExamConfig()
	cfg.TotalTimeSeconds = 3
	store := repository.NewMemorySnapshotRepository()
	s := newTestSession(t, cfg, store)
	_, err := s.Register(ctx, ada)
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))

	s.Tick(ctx)
	require.Equal(t, 2, s.TimeRemaining().Seconds)
	require.Equal(t, 2, loadState(t, store).TimeRemainingSeconds)

	s.Tick(ctx)
	s.Tick(ctx)
	require.Equal(t, model.SessionStatusFinished, s.Status())

	res, err := s.ResultSummary()
	require.NoError(t, err)
	require.Equal(t, model.FinishReasonTimeExpired, res.FinishReason)
	require.Equal(t, 3, res.TimeTakenSeconds)

	s.Tick(ctx)
	require.Equal(t, 0, s.TimeRemaining().Seconds)
	again, err := s.Finish(ctx)
	require.NoError(t, err)
	require.Equal(t, res, again)
}

func TestTimeNeverIncreasesAndViolationsNeverDecrease(t *testing.T) {
	ctx := context.Background()
	cfg := testExamConfig()
	cfg.MaxViolations = 100
	s := newTestSession(t, cfg, repository.NewMemorySnapshotRepository())
	_, err := s.Register(ctx, ada)
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))

	prevTime, prevViolations := s.TimeRemaining().Seconds, s.ViolationCount()
	for i := 0; i < 60; i++ {
		switch i % 3 {
		case 0:
			s.Tick(ctx)
		case 1:
			s.RecordViolation(ctx, ViolationFocusLost)
		default:
			q, err := s.CurrentQuestion()
			require.NoError(t, err)
			require.NoError(t, s.SelectAnswer(ctx, q.ID, 0))
		}
		require.LessOrEqual(t, s.TimeRemaining().Seconds, prevTime)
		require.GreaterOrEqual(t, s.ViolationCount(), prevViolations)
		prevTime, prevViolations = s.TimeRemaining().Seconds, s.ViolationCount()
	}
}

func TestTimeRemainingWarning(t *testing.T) {
	ctx := context.Background()
	s := startedSession(t, repository.NewMemorySnapshotRepository())
	require.Equal(t, model.TimeRemaining{Seconds: 1800}, s.TimeRemaining())

	cfg := testExamConfig()
	cfg.TotalTimeSeconds = 120
	short := newTestSession(t, cfg, repository.NewMemorySnapshotRepository())
	_, err := short.Register(ctx, ada)
	require.NoError(t, err)
	require.NoError(t, short.Start(ctx))
	require.Equal(t, model.TimeRemaining{Seconds: 120, Warning: true}, short.TimeRemaining())
}

func TestTickerDrivesCountdown(t *testing.T) {
	ctx := context.Background()
	cfg := testExamConfig()
	cfg.TotalTimeSeconds = 2
	cfg.TickInterval = 5 * time.Millisecond
	s := newTestSession(t, cfg, repository.NewMemorySnapshotRepository())
	_, err := s.Register(ctx, ada)
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))

	require.Eventually(t, func() bool {
		return s.Status() == model.SessionStatusFinished
	}, 2*time.Second, 5*time.Millisecond)

	res, err := s.ResultSummary()
	require.NoError(t, err)
	require.Equal(t, model.FinishReasonTimeExpired, res.FinishReason)
}

func TestTickerExpiryClearsRedisSnapshot(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := repository.NewRedisSnapshotRepository(rdb, time.Hour)

	cfg := testExamConfig()
	cfg.TotalTimeSeconds = 2
	cfg.TickInterval = 5 * time.Millisecond
	pub := &recordingPublisher{}
	s := newTestSession(t, cfg, store, WithEventPublisher(pub))
	_, err := s.Register(ctx, ada)
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))

	require.Eventually(t, func() bool {
		return s.Status() == model.SessionStatusFinished
	}, 2*time.Second, 5*time.Millisecond)

	_, err = store.Load(ctx, testKey)
	require.ErrorIs(t, err, repository.ErrSnapshotNotFound)
	require.Equal(t, 1, pub.count(model.EventFinished))

	fresh := newTestSession(t, cfg, store)
	require.False(t, fresh.Restore(ctx))
	require.Equal(t, model.SessionStatusRegistered, fresh.Status())
}

// ─── Finish & scoring ───────────────────────────────────────────────────────

func TestFinishIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	pub := &recordingPublisher{}
	s := startedSession(t, store, WithEventPublisher(pub))

	first, err := s.Finish(ctx)
	require.NoError(t, err)
	second, err := s.Finish(ctx)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, store.clearCount())
	require.Equal(t, 1, pub.count(model.EventFinished))
	require.Equal(t, model.FinishReasonSubmitted, first.FinishReason)
	require.Equal(t, ada, first.Candidate)
}

func TestFinishBeforeStart(t *testing.T) {
	s := newTestSession(t, testExamConfig(), repository.NewMemorySnapshotRepository())
	_, err := s.Finish(context.Background())
	require.True(t, errors.Is(err, ErrState))
	_, err = s.ResultSummary()
	require.True(t, errors.Is(err, ErrState))
}

func TestScoringSixOfTen(t *testing.T) {
	ctx := context.Background()
	s := startedSession(t, repository.NewMemorySnapshotRepository())
	key := map[int]int{}
	for _, q := range model.DefaultQuestionBank() {
		key[q.ID] = q.CorrectOptionIndex
	}

	for i := 0; i < 10; i++ {
		q, err := s.CurrentQuestion()
		require.NoError(t, err)
		pick := key[q.ID]
		if i >= 6 {
			pick = (pick + 1) % len(q.Options)
		}
		require.NoError(t, s.SelectAnswer(ctx, q.ID, pick))
		if i < 9 {
			require.NoError(t, s.Advance(ctx))
		}
	}

	res, err := s.Finish(ctx)
	require.NoError(t, err)
	require.Equal(t, 6, res.Score)
	require.Equal(t, 10, res.Total)
	require.Equal(t, 4, res.Incorrect)
	require.Equal(t, 60, res.Percentage)
	require.True(t, res.Passed)

	view := s.View()
	require.Equal(t, model.SessionStatusFinished, view.Status)
	require.NotNil(t, view.Result)
	require.Nil(t, view.Question)
}

func TestRegisterAfterFinishStartsOver(t *testing.T) {
	ctx := context.Background()
	s := startedSession(t, repository.NewMemorySnapshotRepository())
	firstID := s.SessionID()
	_, err := s.Finish(ctx)
	require.NoError(t, err)

	secondID, err := s.Register(ctx, model.Candidate{Name: "Grace", Contact: "grace@example.com"})
	require.NoError(t, err)
	require.NotEqual(t, firstID, secondID)
	require.Equal(t, model.SessionStatusRegistered, s.Status())

	_, err = s.ResultSummary()
	require.True(t, errors.Is(err, ErrState))
	require.NoError(t, s.Start(ctx))
}

// ─── Persistence ────────────────────────────────────────────────────────────

func TestPersistenceFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	s := startedSession(t, failingStore{})

	q, err := s.CurrentQuestion()
	require.NoError(t, err)
	require.NoError(t, s.SelectAnswer(ctx, q.ID, 1))
	require.NoError(t, s.Advance(ctx))
	s.Tick(ctx)

	view := s.View()
	require.Equal(t, model.SessionStatusInProgress, view.Status)
	require.Equal(t, 2, view.Progress.Current)
	require.Equal(t, 1, view.Progress.Answered)
	require.Equal(t, 1799, view.TimeRemaining.Seconds)

	_, err = s.Finish(ctx)
	require.NoError(t, err)
	require.False(t, s.Restore(ctx))
}

func TestResumeIsBehaviourallyIdentical(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemorySnapshotRepository()
	s := startedSession(t, store)

	q, err := s.CurrentQuestion()
	require.NoError(t, err)
	require.NoError(t, s.SelectAnswer(ctx, q.ID, 1))
	require.NoError(t, s.Advance(ctx))
	q, err = s.CurrentQuestion()
	require.NoError(t, err)
	require.NoError(t, s.SelectAnswer(ctx, q.ID, 0))
	for i := 0; i < 5; i++ {
		s.Tick(ctx)
	}
	s.RecordViolation(ctx, ViolationTabHidden)
	before := s.View()
	s.Close()

	restored := newTestSession(t, testExamConfig(), store)
	require.True(t, restored.Restore(ctx))

	after := restored.View()
	require.Equal(t, before, after)
	require.Equal(t, s.SessionID(), restored.SessionID())

	state := loadState(t, store)
	require.Equal(t, 1, state.CurrentIndex)
	require.Len(t, state.Answers, 2)
	require.Equal(t, 1795, state.TimeRemainingSeconds)
	require.Equal(t, 1, state.ViolationCount)

	// two more violations finish a resumed session as well
	restored.RecordViolation(ctx, ViolationFocusLost)
	report := restored.RecordViolation(ctx, ViolationFocusLost)
	require.True(t, report.ThresholdExceeded)
	require.Equal(t, model.SessionStatusFinished, restored.Status())
}

func TestResumeWithZeroRemainingExpiresOnNextTick(t *testing.T) {
	ctx := context.Background()
	state := sampleState()
	state.TimeRemainingSeconds = 0

	s := newTestSession(t, testExamConfig(), repository.NewMemorySnapshotRepository())
	ok, err := s.Resume(ctx, state)
	require.NoError(t, err)
	require.True(t, ok)

	s.Tick(ctx)
	res, err := s.ResultSummary()
	require.NoError(t, err)
	require.Equal(t, model.FinishReasonTimeExpired, res.FinishReason)
	require.Equal(t, 1800, res.TimeTakenSeconds)
}

func TestResumeCorruptSnapshotFallsBack(t *testing.T) {
	cases := map[string]func(*model.SessionState){
		"inactive":          func(s *model.SessionState) { s.IsActive = false },
		"empty questions":   func(s *model.SessionState) { s.Questions = nil },
		"index too large":   func(s *model.SessionState) { s.CurrentIndex = len(s.Questions) },
		"negative index":    func(s *model.SessionState) { s.CurrentIndex = -1 },
		"negative time":     func(s *model.SessionState) { s.TimeRemainingSeconds = -1 },
		"time beyond total": func(s *model.SessionState) { s.TimeRemainingSeconds = 1801 },
		"unknown answer":    func(s *model.SessionState) { s.Answers[404] = 0 },
		"answer range":      func(s *model.SessionState) { s.Answers[1] = 9 },
		"missing candidate": func(s *model.SessionState) { s.Candidate = model.Candidate{} },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := repository.NewMemorySnapshotRepository()
			require.NoError(t, store.Save(ctx, testKey, []byte("stale")))

			s := newTestSession(t, testExamConfig(), store)
			_, err := s.Register(ctx, ada)
			require.NoError(t, err)

			state := sampleState()
			mutate(&state)
			ok, err := s.Resume(ctx, state)
			require.NoError(t, err)
			require.False(t, ok)

			require.Equal(t, model.SessionStatusRegistered, s.Status())
			require.Equal(t, model.SessionView{Status: model.SessionStatusRegistered}, s.View())
			_, hasCandidate := s.Candidate()
			require.False(t, hasCandidate)

			_, err = store.Load(ctx, testKey)
			require.ErrorIs(t, err, repository.ErrSnapshotNotFound)
		})
	}
}

func TestResumeWhileInProgress(t *testing.T) {
	s := startedSession(t, repository.NewMemorySnapshotRepository())
	_, err := s.Resume(context.Background(), sampleState())
	require.True(t, errors.Is(err, ErrState))
}

func TestRestoreTamperedOrMissingSnapshot(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemorySnapshotRepository()
	s := newTestSession(t, testExamConfig(), store)
	require.False(t, s.Restore(ctx))

	raw, err := EncodeSnapshot(sampleState())
	require.NoError(t, err)
	raw[len(raw)-3] ^= 0x01
	require.NoError(t, store.Save(ctx, testKey, raw))

	require.False(t, s.Restore(ctx))
	require.Equal(t, model.SessionStatusRegistered, s.Status())
	_, err = store.Load(ctx, testKey)
	require.ErrorIs(t, err, repository.ErrSnapshotNotFound)
}

// ─── Subscribers ────────────────────────────────────────────────────────────

func TestSubscribeReceivesEvents(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, testExamConfig(), repository.NewMemorySnapshotRepository())
	events, cancel := s.Subscribe()

	_, err := s.Register(ctx, ada)
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))
	s.Tick(ctx)

	started := <-events
	require.Equal(t, model.EventStarted, started.Type)
	require.Equal(t, s.SessionID(), started.SessionID)
	tick := <-events
	require.Equal(t, model.EventTick, tick.Type)
	require.Equal(t, 1799, tick.TimeRemaining)

	cancel()
	cancel()
	_, open := <-events
	require.False(t, open)

	// dropped subscribers no longer receive anything
	s.Tick(ctx)
}
