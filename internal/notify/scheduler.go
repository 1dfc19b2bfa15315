package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Reminder is a scheduled one-shot course notification.
type Reminder struct {
	ID       string
	CourseID string
	Title    string
	Body     string
	FireAt   time.Time
}

// Scheduler schedules one-shot course reminders. Delivery is handed to a
// caller-provided hook (the platform notification bridge); the scheduler
// itself only tracks timers.
type Scheduler interface {
	ScheduleCourseReminder(courseID, courseTitle string) Reminder
	Scheduled() []Reminder
	CancelAll()
	Close()
}

type scheduler struct {
	delay   time.Duration
	deliver func(Reminder)
	log     *logrus.Logger

	mu      sync.Mutex
	pending map[string]*pendingReminder
	closed  bool
}

type pendingReminder struct {
	reminder Reminder
	timer    *time.Timer
}

// NewScheduler builds a timer-backed scheduler. A non-positive delay falls
// back to 24 hours; a nil deliver hook logs fired reminders.
func NewScheduler(delay time.Duration, deliver func(Reminder), log *logrus.Logger) Scheduler {
	if delay <= 0 {
		delay = 24 * time.Hour
	}
	s := &scheduler{
		delay:   delay,
		deliver: deliver,
		log:     log,
		pending: map[string]*pendingReminder{},
	}
	if s.deliver == nil {
		s.deliver = func(r Reminder) {
			log.Infof("reminder fired: %s", r.Body)
		}
	}
	return s
}

// ScheduleCourseReminder queues a single reminder for the course, firing
// once after the configured delay, no repeat.
func (s *scheduler) ScheduleCourseReminder(courseID, courseTitle string) Reminder {
	r := Reminder{
		ID:       uuid.NewString(),
		CourseID: courseID,
		Title:    "Course Reminder",
		Body:     fmt.Sprintf("Don't forget to check out %q!", courseTitle),
		FireAt:   time.Now().Add(s.delay),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return r
	}

	p := &pendingReminder{reminder: r}
	p.timer = time.AfterFunc(s.delay, func() { s.fire(r.ID) })
	s.pending[r.ID] = p

	s.log.Infof("reminder scheduled for course %s at %s", courseID, r.FireAt.Format(time.RFC3339))
	return r
}

func (s *scheduler) fire(id string) {
	s.mu.Lock()
	p, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()

	if ok {
		s.deliver(p.reminder)
	}
}

// Scheduled lists reminders that have neither fired nor been cancelled.
func (s *scheduler) Scheduled() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Reminder, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p.reminder)
	}
	return out
}

// CancelAll stops every pending reminder.
func (s *scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, id)
	}
}

// Close cancels everything and rejects further scheduling.
func (s *scheduler) Close() {
	s.CancelAll()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
