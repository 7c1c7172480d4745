package dashboard

import (
	"testing"

	"github.com/stratcomtech/stratadmin/pkg/domain"
)

func sampleApps() []domain.Application {
	// 10 records: 4 approved, 3 declined, 2 pending, 1 with no status.
	apps := make([]domain.Application, 0, 10)
	for i := 1; i <= 4; i++ {
		apps = append(apps, domain.Application{ID: i, Name: "A", Status: domain.StatusApproved})
	}
	for i := 5; i <= 7; i++ {
		apps = append(apps, domain.Application{ID: i, Name: "D", Status: domain.StatusDeclined})
	}
	for i := 8; i <= 9; i++ {
		apps = append(apps, domain.Application{ID: i, Name: "P", Status: domain.StatusPending})
	}
	apps = append(apps, domain.Application{ID: 10, Name: "U"})
	return apps
}

func ids(apps []domain.Application) []int {
	out := make([]int, len(apps))
	for i, a := range apps {
		out[i] = a.ID
	}
	return out
}

func TestFilterRoundTripRestoresOriginal(t *testing.T) {
	s := NewState(10)
	s.SetApplications(sampleApps())

	before := ids(s.Current())
	s.Filter(domain.StatusApproved)
	if got := len(s.Current()); got != 4 {
		t.Fatalf("approved filter size = %d, want 4", got)
	}
	s.Filter(FilterAll)
	after := ids(s.Current())

	if len(after) != len(before) {
		t.Fatalf("round trip size = %d, want %d", len(after), len(before))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("round trip id[%d] = %d, want %d", i, after[i], before[i])
		}
	}
}

func TestFilterTreatsEmptyStatusAsPending(t *testing.T) {
	s := NewState(10)
	s.SetApplications(sampleApps())

	s.Filter(domain.StatusPending)
	// The record with no status counts as pending.
	if got := len(s.Current()); got != 3 {
		t.Errorf("pending filter size = %d, want 3", got)
	}
}

func TestSummaryIgnoresFilter(t *testing.T) {
	s := NewState(10)
	s.SetApplications(sampleApps())

	want := Summary{Total: 10, Approved: 4, Declined: 3, Pending: 3}
	if got := s.Summary(); got != want {
		t.Fatalf("Summary() = %+v, want %+v", got, want)
	}

	// The headline cards hold steady while the table beneath is filtered.
	s.Filter(domain.StatusDeclined)
	if got := s.Summary(); got != want {
		t.Errorf("Summary() under filter = %+v, want %+v", got, want)
	}
}

func TestPagination(t *testing.T) {
	s := NewState(4)
	s.SetApplications(sampleApps())

	if got := s.TotalPages(); got != 3 {
		t.Fatalf("TotalPages() = %d, want 3", got)
	}
	if got := len(s.Page()); got != 4 {
		t.Errorf("page 1 size = %d, want 4", got)
	}

	s.NextPage()
	s.NextPage()
	if got := len(s.Page()); got != 2 {
		t.Errorf("page 3 size = %d, want 2", got)
	}
	// Clamped at the last page.
	s.NextPage()
	if got := s.PageNumber(); got != 3 {
		t.Errorf("PageNumber() = %d, want clamped to 3", got)
	}

	// Changing the filter resets to page 1.
	s.Filter(domain.StatusApproved)
	if got := s.PageNumber(); got != 1 {
		t.Errorf("PageNumber() after filter = %d, want 1", got)
	}

	// Shrinking the data clamps an out-of-range page.
	s.Filter(FilterAll)
	s.SetPage(3)
	s.SetApplications(sampleApps()[:2])
	if got := s.PageNumber(); got != 1 {
		t.Errorf("PageNumber() after shrink = %d, want 1", got)
	}
}

func TestEmptyState(t *testing.T) {
	s := NewState(10)
	if got := s.TotalPages(); got != 1 {
		t.Errorf("TotalPages() = %d, want 1 for empty state", got)
	}
	if got := s.Page(); got != nil {
		t.Errorf("Page() = %v, want nil", got)
	}
	if got := s.Summary(); (got != Summary{}) {
		t.Errorf("Summary() = %+v, want zero", got)
	}
}

func TestApplyStatusPatchesBothCollections(t *testing.T) {
	s := NewState(10)
	s.SetApplications(sampleApps())
	s.Filter(domain.StatusPending)

	s.ApplyStatus(8, domain.StatusApproved)

	for _, a := range s.Current() {
		if a.ID == 8 && a.Status != domain.StatusApproved {
			t.Error("filtered view not patched")
		}
	}
	want := Summary{Total: 10, Approved: 5, Declined: 3, Pending: 2}
	if got := s.Summary(); got != want {
		t.Errorf("Summary() after patch = %+v, want %+v", got, want)
	}
}

func TestRemove(t *testing.T) {
	s := NewState(10)
	s.SetApplications(sampleApps())

	s.Remove(10)
	if got := s.OriginalLen(); got != 9 {
		t.Errorf("OriginalLen() = %d, want 9", got)
	}
	for _, a := range s.Current() {
		if a.ID == 10 {
			t.Error("removed record still present")
		}
	}
}

func TestSetPageSizeReclamps(t *testing.T) {
	s := NewState(4)
	s.SetApplications(sampleApps())
	s.SetPage(3)

	s.SetPageSize(10)
	if got := s.PageNumber(); got != 1 {
		t.Errorf("PageNumber() = %d, want 1 after growing the page size", got)
	}
	if got := len(s.Page()); got != 10 {
		t.Errorf("page size = %d, want 10", got)
	}
}
