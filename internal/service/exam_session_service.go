package service

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/repository"
	"github.com/stemsi/exstem-proctor/internal/validator"
)

// WarningThresholdSeconds is the remaining time below which the timer is flagged.
const WarningThresholdSeconds = 300

// subscriberBuffer is the per-subscriber event backlog before events are dropped.
const subscriberBuffer = 32

// ExamSession owns the single candidate's exam lifecycle:
// REGISTERED -> IN_PROGRESS -> FINISHED. Every mutation goes through its
// methods and is serialised by one mutex, including the ticker goroutine.
type ExamSession struct {
	mu sync.Mutex

	cfg       config.ExamConfig
	bank      []model.Question
	store     repository.SnapshotStore
	publisher EventPublisher
	log       zerolog.Logger
	rng       *rand.Rand
	now       func() time.Time

	status       model.SessionStatus
	hasCandidate bool
	state        model.SessionState
	timer        *Timer
	monitor      *ViolationMonitor
	result       *model.ResultSummary

	// generation increments on every start/resume so a stale ticker can never
	// touch a newer session.
	generation uint64
	stopTicker context.CancelFunc

	subscribers map[int]chan model.SessionEvent
	nextSubID   int
}

// SessionOption customises an ExamSession.
type SessionOption func(*ExamSession)

// WithRand sets the random source used for shuffling.
func WithRand(rng *rand.Rand) SessionOption {
	return func(s *ExamSession) { s.rng = rng }
}

// WithEventPublisher sets where session events are published.
func WithEventPublisher(p EventPublisher) SessionOption {
	return func(s *ExamSession) { s.publisher = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) SessionOption {
	return func(s *ExamSession) { s.now = now }
}

// NewExamSession creates a session in REGISTERED state with no candidate.
func NewExamSession(
	cfg config.ExamConfig,
	bank []model.Question,
	store repository.SnapshotStore,
	log zerolog.Logger,
	opts ...SessionOption,
) (*ExamSession, error) {
	if err := validateExamConfig(cfg); err != nil {
		return nil, err
	}
	if err := ValidateBank(bank); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, "snapshot store is required")
	}

	s := &ExamSession{
		cfg:         cfg,
		bank:        cloneQuestions(bank),
		store:       store,
		log:         log.With().Str("component", "exam_session").Logger(),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
		status:      model.SessionStatusRegistered,
		timer:       NewTimer(),
		monitor:     NewViolationMonitor(cfg.MaxViolations),
		subscribers: make(map[int]chan model.SessionEvent),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = NewLogEventPublisher(log)
	}
	return s, nil
}

func validateExamConfig(cfg config.ExamConfig) error {
	var result *multierror.Error
	if cfg.TotalTimeSeconds <= 0 {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfiguration, "total time %d", cfg.TotalTimeSeconds))
	}
	if cfg.PassingPercentage < 0 || cfg.PassingPercentage > 100 {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfiguration, "passing percentage %d", cfg.PassingPercentage))
	}
	if cfg.MaxViolations < 1 {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfiguration, "max violations %d", cfg.MaxViolations))
	}
	if strings.TrimSpace(cfg.PersistenceKey) == "" {
		result = multierror.Append(result, errors.Wrap(ErrInvalidConfiguration, "persistence key is empty"))
	}
	if cfg.TickInterval < 0 {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfiguration, "tick interval %s", cfg.TickInterval))
	}
	return result.ErrorOrNil()
}

// ─── Lifecycle ──────────────────────────────────────────────────────────────

// Register stores the candidate and returns the id of the new session.
// Allowed before any exam and after a finished one; a new registration
// discards the previous result.
func (s *ExamSession) Register(ctx context.Context, candidate model.Candidate) (string, error) {
	candidate.Name = strings.TrimSpace(candidate.Name)
	candidate.Contact = strings.TrimSpace(candidate.Contact)
	if fields := validator.Struct(&candidate); fields != nil {
		return "", &ValidationError{Fields: fields}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == model.SessionStatusInProgress {
		return "", errors.Wrap(ErrState, "register: exam in progress")
	}

	s.resetLocked()
	s.hasCandidate = true
	s.state.SessionID = uuid.New().String()
	s.state.Candidate = candidate

	s.log.Info().
		Str("session_id", s.state.SessionID).
		Str("contact", candidate.Contact).
		Msg("Candidate registered")

	return s.state.SessionID, nil
}

// Start shuffles a fresh question set and begins the countdown.
func (s *ExamSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusRegistered || !s.hasCandidate {
		return errors.Wrapf(ErrState, "start: status %s, candidate registered %t", s.status, s.hasCandidate)
	}

	questions, err := NewQuestionSet(s.bank, s.rng)
	if err != nil {
		return err
	}

	timer := NewTimer()
	if err := timer.Start(s.cfg.TotalTimeSeconds); err != nil {
		return err
	}

	s.state = model.SessionState{
		SessionID:            s.state.SessionID,
		Candidate:            s.state.Candidate,
		Questions:            questions,
		CurrentIndex:         0,
		Answers:              map[int]int{},
		TimeRemainingSeconds: s.cfg.TotalTimeSeconds,
		IsActive:             true,
		StartedAt:            s.now().UTC(),
	}
	s.timer = timer
	s.monitor = NewViolationMonitor(s.cfg.MaxViolations)
	s.monitor.Arm(0)
	s.result = nil
	s.status = model.SessionStatusInProgress

	s.persistLocked(ctx)
	s.startTickerLocked()
	s.emitLocked(ctx, model.EventStarted, "")

	s.log.Info().
		Str("session_id", s.state.SessionID).
		Int("questions", len(questions)).
		Int("time_seconds", s.cfg.TotalTimeSeconds).
		Msg("Exam started")

	return nil
}

// Resume rebuilds IN_PROGRESS from a snapshot. A structurally invalid snapshot
// is discarded and the session falls back to REGISTERED with no data; in that
// case Resume returns false and no error.
func (s *ExamSession) Resume(ctx context.Context, state model.SessionState) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == model.SessionStatusInProgress {
		return false, errors.Wrap(ErrState, "resume: exam in progress")
	}

	if err := validateSnapshot(state, s.cfg.TotalTimeSeconds); err != nil {
		s.log.Warn().Err(err).Msg("Discarding invalid session snapshot")
		s.clearLocked(ctx)
		s.resetLocked()
		return false, nil
	}

	s.resetLocked()
	s.hasCandidate = true
	s.state = cloneState(state)
	s.timer = ResumeTimer(state.TimeRemainingSeconds)
	s.monitor = NewViolationMonitor(s.cfg.MaxViolations)
	s.monitor.Arm(state.ViolationCount)
	s.status = model.SessionStatusInProgress

	s.startTickerLocked()
	s.emitLocked(ctx, model.EventResumed, "")

	s.log.Info().
		Str("session_id", s.state.SessionID).
		Int("current_index", s.state.CurrentIndex).
		Int("time_remaining", s.state.TimeRemainingSeconds).
		Int("violations", s.state.ViolationCount).
		Msg("Exam resumed")

	return true, nil
}

// Restore loads the persisted snapshot and resumes from it. It returns false
// when nothing usable was stored; unreadable snapshots are cleared.
func (s *ExamSession) Restore(ctx context.Context) bool {
	payload, err := s.store.Load(ctx, s.cfg.PersistenceKey)
	if err != nil {
		if !errors.Is(err, repository.ErrSnapshotNotFound) {
			s.log.Warn().Err(err).Msg("Failed to load session snapshot")
		}
		return false
	}

	state, err := DecodeSnapshot(payload)
	if err != nil {
		s.log.Warn().Err(err).Msg("Discarding unreadable session snapshot")
		if err := s.store.Clear(ctx, s.cfg.PersistenceKey); err != nil {
			s.log.Warn().Err(err).Msg("Failed to clear session snapshot")
		}
		return false
	}

	ok, err := s.Resume(ctx, state)
	if err != nil {
		s.log.Warn().Err(err).Msg("Snapshot not resumed")
		return false
	}
	return ok
}

// SelectAnswer records (or overwrites) the answer for a question in the set.
func (s *ExamSession) SelectAnswer(ctx context.Context, questionID, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusInProgress {
		return errors.Wrapf(ErrState, "select answer: status %s", s.status)
	}

	q, ok := findQuestion(s.state.Questions, questionID)
	if !ok {
		return newValidationError("question_id", "question is not part of this exam")
	}
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return newValidationError("option_index", "option is out of range")
	}

	s.state.Answers[questionID] = optionIndex
	s.persistLocked(ctx)
	s.emitLocked(ctx, model.EventAnswer, "")
	return nil
}

// Advance moves to the next question. The last question cannot be advanced
// past; the candidate has to finish instead.
func (s *ExamSession) Advance(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusInProgress {
		return errors.Wrapf(ErrState, "advance: status %s", s.status)
	}
	if s.state.CurrentIndex >= len(s.state.Questions)-1 {
		return errors.Wrap(ErrState, "advance: already at the last question")
	}

	s.state.CurrentIndex++
	s.persistLocked(ctx)
	s.emitLocked(ctx, model.EventAdvance, "")
	return nil
}

// RecordViolation counts a proctoring violation and finishes the exam once the
// threshold is reached. Outside IN_PROGRESS it changes nothing.
func (s *ExamSession) RecordViolation(ctx context.Context, reason string) ViolationReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusInProgress {
		return ViolationReport{Count: s.monitor.Count()}
	}

	reason = normalizeReason(reason)
	report := s.monitor.Record(reason)
	s.state.ViolationCount = report.Count
	s.state.LastViolation = reason

	s.log.Warn().
		Str("session_id", s.state.SessionID).
		Str("reason", reason).
		Int("count", report.Count).
		Int("max", s.cfg.MaxViolations).
		Msg("Proctoring violation")

	s.persistLocked(ctx)
	s.emitLocked(ctx, model.EventViolation, reason)

	if report.ThresholdExceeded {
		s.finishLocked(ctx, model.FinishReasonViolationLimit)
	}
	return report
}

// Tick applies one second of the countdown and finishes the exam on expiry.
func (s *ExamSession) Tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked(ctx)
}

// Finish ends the exam and scores it. Calling it again returns the same result.
func (s *ExamSession) Finish(ctx context.Context) (model.ResultSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case model.SessionStatusFinished:
		return *s.result, nil
	case model.SessionStatusInProgress:
		s.finishLocked(ctx, model.FinishReasonSubmitted)
		return *s.result, nil
	default:
		return model.ResultSummary{}, errors.Wrap(ErrState, "finish: exam not started")
	}
}

// Close stops the ticker without finishing. The snapshot stays in the store so
// the next process can Restore it.
func (s *ExamSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTickerLocked()
}

// ─── Render reads ───────────────────────────────────────────────────────────

// Status returns the lifecycle state.
func (s *ExamSession) Status() model.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SessionID returns the id of the current registration, or "" when none.
func (s *ExamSession) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SessionID
}

// Candidate returns the registered candidate.
func (s *ExamSession) Candidate() (model.Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Candidate, s.hasCandidate
}

// Instructions summarises the exam rules.
func (s *ExamSession) Instructions() model.Instructions {
	return model.Instructions{
		TotalTimeSeconds:  s.cfg.TotalTimeSeconds,
		QuestionCount:     len(s.bank),
		PassingPercentage: s.cfg.PassingPercentage,
		MaxViolations:     s.cfg.MaxViolations,
	}
}

// CurrentQuestion renders the question at the current index without its answer key.
func (s *ExamSession) CurrentQuestion() (model.QuestionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusInProgress {
		return model.QuestionView{}, errors.Wrapf(ErrState, "current question: status %s", s.status)
	}
	return s.currentQuestionLocked(), nil
}

// Progress reports the position within the question set.
func (s *ExamSession) Progress() model.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

// TimeRemaining reports the countdown with the low-time warning flag.
func (s *ExamSession) TimeRemaining() model.TimeRemaining {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeRemainingLocked()
}

// ViolationCount returns the number of recorded violations.
func (s *ExamSession) ViolationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ViolationCount
}

// ResultSummary returns the result computed at finish.
func (s *ExamSession) ResultSummary() (model.ResultSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusFinished || s.result == nil {
		return model.ResultSummary{}, errors.Wrapf(ErrState, "result: status %s", s.status)
	}
	return *s.result, nil
}

// View renders everything the client needs for the current state.
func (s *ExamSession) View() model.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Subscribe returns a channel of session events and a cancel func. Events are
// dropped for subscribers that fall behind.
func (s *ExamSession) Subscribe() (<-chan model.SessionEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan model.SessionEvent, subscriberBuffer)
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subscribers[id]; ok {
				close(c)
				delete(s.subscribers, id)
			}
		})
	}
}

// ─── Internals (caller holds s.mu) ──────────────────────────────────────────

func (s *ExamSession) tickLocked(ctx context.Context) {
	if s.status != model.SessionStatusInProgress {
		return
	}

	expired := s.timer.Tick()
	s.state.TimeRemainingSeconds = s.timer.Remaining()
	if expired {
		s.log.Info().Str("session_id", s.state.SessionID).Msg("Exam time expired")
		s.finishLocked(ctx, model.FinishReasonTimeExpired)
		return
	}

	s.persistLocked(ctx)
	s.emitLocked(ctx, model.EventTick, "")
}

func (s *ExamSession) finishLocked(ctx context.Context, reason model.FinishReason) {
	s.timer.Stop()
	s.stopTickerLocked()
	s.monitor.Disarm()
	s.state.IsActive = false
	s.state.TimeRemainingSeconds = s.timer.Remaining()

	summary := Summarize(
		s.state.Candidate,
		CalculateScore(s.state.Questions, s.state.Answers),
		s.cfg.PassingPercentage,
		s.cfg.TotalTimeSeconds-s.state.TimeRemainingSeconds,
		s.state.ViolationCount,
		reason,
	)
	s.result = &summary
	s.status = model.SessionStatusFinished

	s.clearLocked(ctx)
	s.emitLocked(ctx, model.EventFinished, string(reason))

	s.log.Info().
		Str("session_id", s.state.SessionID).
		Str("reason", string(reason)).
		Int("score", summary.Score).
		Int("total", summary.Total).
		Int("percentage", summary.Percentage).
		Bool("passed", summary.Passed).
		Msg("Exam finished")
}

// resetLocked drops all session data and returns to REGISTERED with no candidate.
func (s *ExamSession) resetLocked() {
	s.stopTickerLocked()
	s.status = model.SessionStatusRegistered
	s.hasCandidate = false
	s.state = model.SessionState{}
	s.timer = NewTimer()
	s.monitor = NewViolationMonitor(s.cfg.MaxViolations)
	s.result = nil
}

// persistLocked writes the snapshot. Failures are logged; memory stays authoritative.
func (s *ExamSession) persistLocked(ctx context.Context) {
	payload, err := EncodeSnapshot(s.state)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", s.state.SessionID).Msg("Failed to encode session snapshot")
		return
	}
	if err := s.store.Save(ctx, s.cfg.PersistenceKey, payload); err != nil {
		s.log.Warn().Err(err).Str("session_id", s.state.SessionID).Msg("Failed to persist session snapshot")
	}
}

func (s *ExamSession) clearLocked(ctx context.Context) {
	if err := s.store.Clear(ctx, s.cfg.PersistenceKey); err != nil {
		s.log.Warn().Err(err).Str("session_id", s.state.SessionID).Msg("Failed to clear session snapshot")
	}
}

func (s *ExamSession) startTickerLocked() {
	s.stopTickerLocked()
	s.generation++
	if s.cfg.TickInterval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopTicker = cancel
	gen := s.generation
	interval := s.cfg.TickInterval

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				// The ticker's ctx only stops this loop. Expiry cancels it
				// before the snapshot is cleared and the result published.
				if s.generation == gen && ctx.Err() == nil {
					s.tickLocked(context.Background())
				}
				s.mu.Unlock()
			}
		}
	}()
}

func (s *ExamSession) stopTickerLocked() {
	if s.stopTicker != nil {
		s.stopTicker()
		s.stopTicker = nil
	}
}

func (s *ExamSession) emitLocked(ctx context.Context, typ model.EventType, reason string) {
	event := model.SessionEvent{
		Type:           typ,
		SessionID:      s.state.SessionID,
		Contact:        s.state.Candidate.Contact,
		TimeRemaining:  s.state.TimeRemainingSeconds,
		CurrentIndex:   s.state.CurrentIndex,
		ViolationCount: s.state.ViolationCount,
		Reason:         reason,
		At:             s.now().UTC(),
	}
	if typ == model.EventFinished && s.result != nil {
		res := *s.result
		event.Result = &res
	}

	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("event", string(typ)).Msg("Failed to publish session event")
	}
}

func (s *ExamSession) currentQuestionLocked() model.QuestionView {
	q := s.state.Questions[s.state.CurrentIndex]
	total := len(s.state.Questions)
	isLast := s.state.CurrentIndex == total-1

	view := model.QuestionView{
		ID:      q.ID,
		Number:  s.state.CurrentIndex + 1,
		Total:   total,
		Prompt:  q.Prompt,
		Options: append([]string(nil), q.Options...),
		IsLast:  isLast,
	}
	if picked, ok := s.state.Answers[q.ID]; ok {
		p := picked
		view.SelectedIndex = &p
		view.CanAdvance = !isLast
	}
	return view
}

func (s *ExamSession) progressLocked() model.Progress {
	total := len(s.state.Questions)
	if total == 0 {
		return model.Progress{}
	}
	current := s.state.CurrentIndex + 1
	return model.Progress{
		Current:  current,
		Total:    total,
		Answered: len(s.state.Answers),
		Percent:  Percentage(current, total),
	}
}

func (s *ExamSession) timeRemainingLocked() model.TimeRemaining {
	switch s.status {
	case model.SessionStatusInProgress:
		secs := s.state.TimeRemainingSeconds
		return model.TimeRemaining{Seconds: secs, Warning: secs < WarningThresholdSeconds}
	case model.SessionStatusFinished:
		return model.TimeRemaining{Seconds: s.state.TimeRemainingSeconds}
	default:
		return model.TimeRemaining{Seconds: s.cfg.TotalTimeSeconds}
	}
}

func (s *ExamSession) viewLocked() model.SessionView {
	view := model.SessionView{
		Status:         s.status,
		SessionID:      s.state.SessionID,
		ViolationCount: s.state.ViolationCount,
		LastViolation:  s.state.LastViolation,
	}
	if s.hasCandidate {
		c := s.state.Candidate
		view.Candidate = &c
	}

	switch s.status {
	case model.SessionStatusInProgress:
		q := s.currentQuestionLocked()
		p := s.progressLocked()
		t := s.timeRemainingLocked()
		view.Question = &q
		view.Progress = &p
		view.TimeRemaining = &t
	case model.SessionStatusFinished:
		res := *s.result
		view.Result = &res
	}
	return view
}

// ─── Snapshot checks ────────────────────────────────────────────────────────

// validateSnapshot reports every reason a snapshot cannot be resumed.
// Remaining time above the configured total is rejected rather than clamped.
func validateSnapshot(state model.SessionState, totalSeconds int) error {
	var result *multierror.Error
	fail := func(format string, args ...interface{}) {
		result = multierror.Append(result, errors.Wrapf(ErrSnapshotCorrupt, format, args...))
	}

	if !state.IsActive {
		fail("session is not active")
	}
	if len(state.Questions) == 0 {
		fail("question set is empty")
	} else if err := ValidateBank(state.Questions); err != nil {
		fail("question set: %v", err)
	}
	if state.CurrentIndex < 0 || state.CurrentIndex >= len(state.Questions) {
		fail("current index %d out of bounds", state.CurrentIndex)
	}
	if state.TimeRemainingSeconds < 0 {
		fail("negative time remaining %d", state.TimeRemainingSeconds)
	}
	if state.TimeRemainingSeconds > totalSeconds {
		fail("time remaining %d exceeds exam length %d", state.TimeRemainingSeconds, totalSeconds)
	}
	if state.ViolationCount < 0 {
		fail("negative violation count %d", state.ViolationCount)
	}
	if strings.TrimSpace(state.SessionID) == "" {
		fail("missing session id")
	}
	if strings.TrimSpace(state.Candidate.Name) == "" || strings.TrimSpace(state.Candidate.Contact) == "" {
		fail("missing candidate")
	}
	for qid, opt := range state.Answers {
		q, ok := findQuestion(state.Questions, qid)
		if !ok {
			fail("answer for unknown question %d", qid)
			continue
		}
		if opt < 0 || opt >= len(q.Options) {
			fail("answer %d out of range for question %d", opt, qid)
		}
	}
	return result.ErrorOrNil()
}

func cloneState(in model.SessionState) model.SessionState {
	out := in
	out.Questions = cloneQuestions(in.Questions)
	out.Answers = make(map[int]int, len(in.Answers))
	for k, v := range in.Answers {
		out.Answers[k] = v
	}
	return out
}
