package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"coursepocket/internal/domain"
	"coursepocket/internal/repository"
)

const bookmarkKey = "bookmarkedCourses"

// BookmarkEvent reports the outcome of an asynchronous bookmark write. Only
// failures are published; a nil-error event is never sent.
type BookmarkEvent struct {
	CourseID string
	Err      error
}

// BookmarkService tracks bookmarked courses against the most recent catalog
// load. Membership is never re-validated against later loads: a bookmarked
// course that drops out of the catalog stays bookmarked. Every mutation
// persists the full set of snapshots.
type BookmarkService interface {
	LoadSaved(ctx context.Context)
	SetCatalog(courses []domain.Course)
	Toggle(ctx context.Context, courseID string)
	Bookmarked() []domain.Course
	IsBookmarked(courseID string) bool
	Events() <-chan BookmarkEvent
	Close()
}

type bookmarkService struct {
	repo repository.KVRepository
	log  *logrus.Logger

	mu      sync.Mutex
	catalog []domain.Course
	marked  []domain.Course

	writes    chan writeRequest
	events    chan BookmarkEvent
	done      chan struct{}
	closeOnce sync.Once
}

type writeRequest struct {
	ctx      context.Context
	courseID string
	set      []domain.Course
}

func NewBookmarkService(repo repository.KVRepository, log *logrus.Logger) BookmarkService {
	s := &bookmarkService{
		repo:   repo,
		log:    log,
		writes: make(chan writeRequest, 32),
		events: make(chan BookmarkEvent, 16),
		done:   make(chan struct{}),
	}
	go s.writer()
	return s
}

// LoadSaved restores the persisted set. Missing or corrupt data yields an
// empty set; storage trouble never surfaces as an error.
func (s *bookmarkService) LoadSaved(ctx context.Context) {
	raw, err := s.repo.Get(ctx, bookmarkKey)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warnf("bookmarks unavailable, starting empty: %v", err)
		}
		return
	}

	var saved []domain.Course
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		s.log.Warnf("bookmarks corrupt, starting empty: %v", err)
		return
	}

	s.mu.Lock()
	s.marked = saved
	s.mu.Unlock()
}

// SetCatalog replaces the course list Toggle resolves ids against.
func (s *bookmarkService) SetCatalog(courses []domain.Course) {
	s.mu.Lock()
	s.catalog = append([]domain.Course(nil), courses...)
	s.mu.Unlock()
}

// Toggle flips membership for a course in the current catalog; ids not in
// the catalog are ignored. Memory changes immediately, the durable write
// runs behind it, and a failed write is logged and published on Events.
func (s *bookmarkService) Toggle(ctx context.Context, courseID string) {
	s.mu.Lock()
	course, found := findByID(s.catalog, courseID)
	if !found {
		s.mu.Unlock()
		return
	}

	if idx := indexByID(s.marked, courseID); idx >= 0 {
		s.marked = append(s.marked[:idx], s.marked[idx+1:]...)
	} else {
		s.marked = append(s.marked, course)
	}
	snapshot := append([]domain.Course(nil), s.marked...)
	s.mu.Unlock()

	// the write must outlive the caller's context
	s.writes <- writeRequest{ctx: context.WithoutCancel(ctx), courseID: courseID, set: snapshot}
}

func (s *bookmarkService) Bookmarked() []domain.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Course(nil), s.marked...)
}

func (s *bookmarkService) IsBookmarked(courseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexByID(s.marked, courseID) >= 0
}

// Events exposes durability failures. The channel is buffered; when nobody
// drains it, overflowing events are dropped (the log line remains).
func (s *bookmarkService) Events() <-chan BookmarkEvent {
	return s.events
}

// Close drains in-flight writes and closes the events channel.
func (s *bookmarkService) Close() {
	s.closeOnce.Do(func() {
		close(s.writes)
		<-s.done
		close(s.events)
	})
}

// writer applies persistence requests one at a time, in order, so the last
// accepted toggle always owns the stored bytes.
func (s *bookmarkService) writer() {
	defer close(s.done)

	for req := range s.writes {
		raw, err := json.Marshal(req.set)
		if err == nil {
			err = s.repo.Put(req.ctx, bookmarkKey, string(raw))
		}
		if err == nil {
			continue
		}

		s.log.Warnf("bookmark write failed, memory ahead of storage: %v", err)
		select {
		case s.events <- BookmarkEvent{CourseID: req.courseID, Err: err}:
		default:
		}
	}
}

func findByID(courses []domain.Course, id string) (domain.Course, bool) {
	for _, c := range courses {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Course{}, false
}

func indexByID(courses []domain.Course, id string) int {
	for i, c := range courses {
		if c.ID == id {
			return i
		}
	}
	return -1
}
