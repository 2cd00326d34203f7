package attendance

import (
	"sync"
	"time"
)

// DayKey formats the server-local calendar date of t
func DayKey(t time.Time) string {
	return t.Local().Format(time.DateOnly)
}

// DailySet records which identities were credited on the current day.
// The day is checked lazily on every call; a new day starts with an empty set.
// Safe for concurrent use so several camera sessions can share one set.
type DailySet struct {
	mu  sync.Mutex
	now func() time.Time
	day string
	ids map[string]struct{}
}

func NewDailySet(now func() time.Time) *DailySet {
	if now == nil {
		now = time.Now
	}
	return &DailySet{
		now: now,
		day: DayKey(now()),
		ids: make(map[string]struct{}),
	}
}

func (s *DailySet) rotateLocked() {
	if today := DayKey(s.now()); today != s.day {
		s.day = today
		s.ids = make(map[string]struct{})
	}
}

// TryAdd inserts id and reports true only when it was not yet credited today.
// Membership is the lock: the caller that gets true owns the day's credit.
func (s *DailySet) TryAdd(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rotateLocked()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *DailySet) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rotateLocked()
	_, ok := s.ids[id]
	return ok
}

// Seed marks ids as already credited on day. Ignored if day is no longer current.
func (s *DailySet) Seed(day time.Time, ids ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rotateLocked()
	if DayKey(day) != s.day {
		return 0
	}

	added := 0
	for _, id := range ids {
		if _, ok := s.ids[id]; !ok {
			s.ids[id] = struct{}{}
			added++
		}
	}
	return added
}

func (s *DailySet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rotateLocked()
	return len(s.ids)
}

// Day returns the date key the set currently covers
func (s *DailySet) Day() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rotateLocked()
	return s.day
}
