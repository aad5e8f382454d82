package quiz

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"gleanenglish/internal/models"
)

// Phase is the state of a play-through
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseAwaitingAnswer  Phase = "awaiting_answer"
	PhaseShowingFeedback Phase = "showing_feedback"
	PhaseCompleted       Phase = "completed"
)

const (
	// PointsPerCorrect is added to the score for each correct answer
	PointsPerCorrect = 10
	// AutoAdvanceDelay is how long a correct answer stays on screen
	AutoAdvanceDelay = 800 * time.Millisecond
)

var (
	ErrNotAwaitingAnswer  = errors.New("quiz: not awaiting an answer")
	ErrNotShowingFeedback = errors.New("quiz: no feedback to acknowledge")
	ErrUnknownChoice      = errors.New("quiz: choice is not one of the options")
	ErrSessionClosed      = errors.New("quiz: session closed")
)

// Stopper cancels a scheduled call. *time.Timer satisfies it.
type Stopper interface {
	Stop() bool
}

// Result is the outcome of a completed play-through
type Result struct {
	Mode        Mode
	Score       int
	MaxScore    int
	Answers     []models.AnswerEntry
	CompletedAt time.Time
}

// SubmitOutcome describes the effect of one answer
type SubmitOutcome struct {
	Entry   models.AnswerEntry
	Correct bool
	// AutoAdvance is set when the session will move on by itself after Delay
	AutoAdvance bool
	Delay       time.Duration
}

// View is a point-in-time copy of the session state for rendering
type View struct {
	Mode           Mode
	Phase          Phase
	Index          int
	Total          int
	Score          int
	Current        *Question
	Feedback       *models.AnswerEntry
	PendingAdvance bool
	Result         *Result
}

// Option configures a Session
type Option func(*Session)

// WithShuffler replaces the permutation function. It must have the
// signature and contract of rand.Shuffle.
func WithShuffler(shuffle func(n int, swap func(i, j int))) Option {
	return func(s *Session) { s.shuffle = shuffle }
}

// WithAfterFunc replaces the scheduler used for the auto-advance
func WithAfterFunc(afterFunc func(d time.Duration, f func()) Stopper) Option {
	return func(s *Session) { s.afterFunc = afterFunc }
}

// WithAutoAdvanceDelay overrides AutoAdvanceDelay
func WithAutoAdvanceDelay(d time.Duration) Option {
	return func(s *Session) { s.delay = d }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithOnComplete registers a callback that receives the result once a
// play-through completes. It runs without the session lock held.
func WithOnComplete(fn func(Result)) Option {
	return func(s *Session) { s.onComplete = fn }
}

// Session is one learner's play-through of a quiz mode. It is safe for
// concurrent use; the auto-advance fires on its own goroutine.
type Session struct {
	mu sync.Mutex

	mode     Mode
	queue    []Question
	index    int
	score    int
	phase    Phase
	answers  []models.AnswerEntry
	feedback *models.AnswerEntry
	result   *Result
	closed   bool

	// generation changes on every transition; a timer only acts if the
	// generation it was scheduled under is still current.
	generation uint64
	timer      Stopper

	shuffle    func(n int, swap func(i, j int))
	afterFunc  func(d time.Duration, f func()) Stopper
	delay      time.Duration
	now        func() time.Time
	onComplete func(Result)
}

// NewSession creates an idle session
func NewSession(opts ...Option) *Session {
	s := &Session{
		phase:   PhaseIdle,
		shuffle: rand.Shuffle,
		afterFunc: func(d time.Duration, f func()) Stopper {
			return time.AfterFunc(d, f)
		},
		delay: AutoAdvanceDelay,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a fresh play-through of mode, discarding any previous state
// and canceling a pending auto-advance. The questions are asked in a
// uniformly random order. A mode without questions completes at once.
func (s *Session) Start(mode Mode) (View, error) {
	return s.start(mode, Questions(mode))
}

func (s *Session) start(mode Mode, questions []Question) (View, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return View{}, ErrSessionClosed
	}
	s.cancelTimerLocked()
	s.generation++

	s.shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	s.mode = mode
	s.queue = questions
	s.index = 0
	s.score = 0
	s.answers = make([]models.AnswerEntry, 0, len(questions))
	s.feedback = nil
	s.result = nil
	s.phase = PhaseAwaitingAnswer

	var done *Result
	if len(s.queue) == 0 {
		done = s.completeLocked()
	}
	view := s.viewLocked()
	s.mu.Unlock()

	s.emit(done)
	return view, nil
}

// SubmitAnswer records the learner's choice for the current question.
// It is rejected without any change unless the session awaits an answer.
// A correct answer schedules the move to the next question; an incorrect
// one waits for AcknowledgeFeedback.
func (s *Session) SubmitAnswer(choice string) (SubmitOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return SubmitOutcome{}, ErrSessionClosed
	}
	if s.phase != PhaseAwaitingAnswer {
		return SubmitOutcome{}, ErrNotAwaitingAnswer
	}
	q := s.queue[s.index]
	if !q.Contains(choice) {
		return SubmitOutcome{}, ErrUnknownChoice
	}

	entry := models.AnswerEntry{
		Question:      q.Prompt.String(),
		UserChoice:    choice,
		CorrectChoice: q.Answer,
		IsCorrect:     choice == q.Answer,
		Explain:       q.Explain,
	}
	s.answers = append(s.answers, entry)
	s.feedback = &entry
	s.phase = PhaseShowingFeedback
	s.generation++

	outcome := SubmitOutcome{Entry: entry, Correct: entry.IsCorrect}
	if entry.IsCorrect {
		s.score += PointsPerCorrect
		gen := s.generation
		s.timer = s.afterFunc(s.delay, func() { s.autoAdvance(gen) })
		outcome.AutoAdvance = true
		outcome.Delay = s.delay
	}
	return outcome, nil
}

// AcknowledgeFeedback moves past the feedback of the last answer to the
// next question, or completes the session after the last one. It also
// skips the wait of a pending auto-advance.
func (s *Session) AcknowledgeFeedback() (View, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return View{}, ErrSessionClosed
	}
	if s.phase != PhaseShowingFeedback {
		s.mu.Unlock()
		return View{}, ErrNotShowingFeedback
	}
	done := s.advanceLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.emit(done)
	return view, nil
}

// View returns the current state
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Close tears the session down and cancels a pending auto-advance.
// Later calls fail with ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
	s.generation++
	s.closed = true
}

func (s *Session) autoAdvance(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.generation || s.phase != PhaseShowingFeedback {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	done := s.advanceLocked()
	s.mu.Unlock()

	s.emit(done)
}

func (s *Session) advanceLocked() *Result {
	s.cancelTimerLocked()
	s.generation++
	s.feedback = nil
	s.index++
	if s.index >= len(s.queue) {
		return s.completeLocked()
	}
	s.phase = PhaseAwaitingAnswer
	return nil
}

func (s *Session) completeLocked() *Result {
	s.phase = PhaseCompleted
	s.index = len(s.queue)
	answers := make([]models.AnswerEntry, len(s.answers))
	copy(answers, s.answers)
	s.result = &Result{
		Mode:        s.mode,
		Score:       s.score,
		MaxScore:    len(s.queue) * PointsPerCorrect,
		Answers:     answers,
		CompletedAt: s.now(),
	}
	r := *s.result
	return &r
}

func (s *Session) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) viewLocked() View {
	v := View{
		Mode:           s.mode,
		Phase:          s.phase,
		Index:          s.index,
		Total:          len(s.queue),
		Score:          s.score,
		PendingAdvance: s.timer != nil,
	}
	if s.index < len(s.queue) {
		q := s.queue[s.index]
		v.Current = &q
	}
	if s.feedback != nil {
		fb := *s.feedback
		v.Feedback = &fb
	}
	if s.result != nil {
		r := *s.result
		v.Result = &r
	}
	return v
}

func (s *Session) emit(r *Result) {
	if r != nil && s.onComplete != nil {
		s.onComplete(*r)
	}
}
