// Package dashboard holds the applications view-state: the authoritative
// fetched collection, the filtered projection shown in the table, pagination
// and the headline summary. Everything here is pure and synchronous; the
// network lives elsewhere.
package dashboard

import (
	"time"

	"github.com/stratcomtech/stratadmin/pkg/domain"
)

// FilterAll shows the unfiltered collection.
const FilterAll = "all"

// Summary is the headline card counts. It is always computed from the
// original collection, so the numbers hold steady while the table beneath is
// filtered.
type Summary struct {
	Total    int
	Approved int
	Declined int
	Pending  int
}

// State is the applications view-state.
type State struct {
	original []domain.Application
	current  []domain.Application
	filter   string
	page     int
	pageSize int

	lastUpdated time.Time
}

// NewState creates a view-state with the given page size.
func NewState(pageSize int) *State {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &State{filter: FilterAll, page: 1, pageSize: pageSize}
}

// SetPageSize changes the page size and clamps the current page.
func (s *State) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	s.pageSize = n
	s.clampPage()
}

// SetApplications replaces the authoritative collection after a fetch. The
// active filter is re-applied to the new data; the re-fetch is the source of
// truth and overrides any optimistic patch.
func (s *State) SetApplications(apps []domain.Application) {
	s.original = make([]domain.Application, len(apps))
	copy(s.original, apps)
	s.applyFilter()
	s.clampPage()
	s.lastUpdated = time.Now()
}

// Filter projects the original collection by status. "all" restores the
// exact original collection. Changing the filter resets to page 1.
func (s *State) Filter(status string) {
	s.filter = status
	s.applyFilter()
	s.page = 1
}

func (s *State) applyFilter() {
	if s.filter == FilterAll || s.filter == "" {
		s.current = make([]domain.Application, len(s.original))
		copy(s.current, s.original)
		return
	}
	s.current = s.current[:0]
	for _, app := range s.original {
		if app.EffectiveStatus() == s.filter {
			s.current = append(s.current, app)
		}
	}
}

// ActiveFilter returns the current status filter.
func (s *State) ActiveFilter() string { return s.filter }

// Current returns the filtered collection backing the table.
func (s *State) Current() []domain.Application { return s.current }

// Len returns the size of the filtered collection.
func (s *State) Len() int { return len(s.current) }

// OriginalLen returns the size of the unfiltered collection.
func (s *State) OriginalLen() int { return len(s.original) }

// LastUpdated is when the collection was last replaced by a fetch.
func (s *State) LastUpdated() time.Time { return s.lastUpdated }

// Summary computes the headline counts from the original collection,
// regardless of the active filter.
func (s *State) Summary() Summary {
	sum := Summary{Total: len(s.original)}
	for _, app := range s.original {
		switch app.Status {
		case domain.StatusApproved:
			sum.Approved++
		case domain.StatusDeclined:
			sum.Declined++
		}
	}
	sum.Pending = sum.Total - sum.Approved - sum.Declined
	return sum
}

// Page returns the slice of the filtered collection for the current page.
func (s *State) Page() []domain.Application {
	if len(s.current) == 0 {
		return nil
	}
	start := (s.page - 1) * s.pageSize
	if start >= len(s.current) {
		return nil
	}
	end := start + s.pageSize
	if end > len(s.current) {
		end = len(s.current)
	}
	return s.current[start:end]
}

// PageNumber returns the 1-based current page.
func (s *State) PageNumber() int { return s.page }

// TotalPages returns the page count for the filtered collection, at least 1.
func (s *State) TotalPages() int {
	n := (len(s.current) + s.pageSize - 1) / s.pageSize
	if n < 1 {
		n = 1
	}
	return n
}

// SetPage moves to the given page, clamped to the valid range.
func (s *State) SetPage(page int) {
	s.page = page
	s.clampPage()
}

// NextPage advances one page if possible.
func (s *State) NextPage() { s.SetPage(s.page + 1) }

// PrevPage goes back one page if possible.
func (s *State) PrevPage() { s.SetPage(s.page - 1) }

func (s *State) clampPage() {
	if s.page < 1 {
		s.page = 1
	}
	if max := s.TotalPages(); s.page > max {
		s.page = max
	}
}

// ApplyStatus optimistically patches a record's status in both collections
// so the table updates before the confirming re-fetch lands.
func (s *State) ApplyStatus(id int, status string) {
	for i := range s.original {
		if s.original[i].ID == id {
			s.original[i].Status = status
		}
	}
	for i := range s.current {
		if s.current[i].ID == id {
			s.current[i].Status = status
		}
	}
}

// Remove optimistically drops a record from both collections.
func (s *State) Remove(id int) {
	s.original = removeByID(s.original, id)
	s.current = removeByID(s.current, id)
	s.clampPage()
}

func removeByID(apps []domain.Application, id int) []domain.Application {
	out := apps[:0]
	for _, app := range apps {
		if app.ID != id {
			out = append(out, app)
		}
	}
	return out
}
