package search

import (
	"sync"
	"time"
)

// Session owns the mutable filter/sort selection and the accumulated
// result list for one library view. The engine itself is stateless;
// the session is the pagination cursor holder. Any filter, sort or
// search change resets the list to the first page. Text changes are
// debounced so a burst of keystrokes runs a single query.
type Session struct {
	engine    *Engine
	debouncer *Debouncer
	onChange  func()

	mu        sync.Mutex
	query     Query
	rows      []Row
	lastPage  bool
	paginated bool
	errMsg    string
}

// NewSession creates a session around engine. onChange, if non-nil, is
// invoked after every completed (or failed) refresh, including debounced
// ones.
func NewSession(engine *Engine, debounce time.Duration, onChange func()) *Session {
	return &Session{
		engine:    engine,
		debouncer: NewDebouncer(debounce),
		onChange:  onChange,
		query:     Query{Sort: SortSpec{Field: SortDateAdded, Ascending: false}},
	}
}

// Rows returns the current accumulated result.
func (s *Session) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Err returns the user-facing message of the last failed operation, or
// empty after a success.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Query returns the current filter/sort selection.
func (s *Session) Query() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SetText updates the free-text query and schedules a debounced
// refresh; a newer keystroke cancels the pending one.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	s.query.Text = text
	s.mu.Unlock()

	s.debouncer.Trigger(func() {
		s.Refresh()
		if s.onChange != nil {
			s.onChange()
		}
	})
}

// Update applies fn to the filter/sort selection and refreshes from the
// first page.
func (s *Session) Update(fn func(*Query)) {
	s.mu.Lock()
	fn(&s.query)
	s.mu.Unlock()
	s.Refresh()
}

// Refresh discards the accumulated list and re-runs the query from the
// first page. On failure the previous rows are kept and the error is
// recorded.
func (s *Session) Refresh() {
	s.mu.Lock()
	q := s.query
	q.Loaded = 0
	s.mu.Unlock()

	res, err := s.engine.Run(q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errMsg = err.Error()
		return
	}
	s.rows = res.Rows
	s.lastPage = res.LastPage
	s.paginated = res.Paginated
	s.errMsg = ""
}

// LoadMore appends the next browse page. It is a no-op outside
// paginated browse mode or once the last page was reached.
func (s *Session) LoadMore() {
	s.mu.Lock()
	if !s.paginated || s.lastPage {
		s.mu.Unlock()
		return
	}
	q := s.query
	q.Loaded = len(s.rows)
	s.mu.Unlock()

	res, err := s.engine.Run(q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errMsg = err.Error()
		return
	}
	s.rows = append(s.rows, res.Rows...)
	s.lastPage = res.LastPage
	s.errMsg = ""
}

// Close cancels any pending debounced refresh.
func (s *Session) Close() {
	s.debouncer.Stop()
}
