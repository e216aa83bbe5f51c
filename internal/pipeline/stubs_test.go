package pipeline

import (
	"context"
	"sync"

	"github.com/oasara/enrich-cli/internal/fetch"
	"github.com/oasara/enrich-cli/internal/model"
	"github.com/oasara/enrich-cli/internal/store"
)

// stubStore records every write, so tests can assert what the adapter
// and orchestrator actually persisted.
type stubStore struct {
	mu sync.Mutex

	facilities []model.Facility
	listErr    error

	doctors      []model.Doctor
	prices       []model.PriceEntry
	testimonials []model.Testimonial
	packages     []model.Package
	statuses     map[string]model.EnrichmentStatus

	insertDoctorsErr error
	updateStatusErr  error
}

func newStubStore(facilities ...model.Facility) *stubStore {
	return &stubStore{
		facilities: facilities,
		statuses:   map[string]model.EnrichmentStatus{},
	}
}

func (s *stubStore) ListFacilities(_ context.Context, filter store.FacilityFilter) ([]model.Facility, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []model.Facility{}
	for _, f := range s.facilities {
		if filter.Country != "" && f.Country != filter.Country {
			continue
		}
		out = append(out, f)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *stubStore) FindFacilityByName(_ context.Context, name string) (*model.Facility, error) {
	for _, f := range s.facilities {
		if f.Name == name {
			return &f, nil
		}
	}
	return nil, nil
}

func (s *stubStore) UpdateEnrichmentStatus(_ context.Context, facilityID string, status model.EnrichmentStatus) error {
	if s.updateStatusErr != nil {
		return s.updateStatusErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[facilityID] = status
	return nil
}

func (s *stubStore) CountByStatus(context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

func (s *stubStore) InsertDoctors(_ context.Context, doctors []model.Doctor) error {
	if s.insertDoctorsErr != nil {
		return s.insertDoctorsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors = append(s.doctors, doctors...)
	return nil
}

func (s *stubStore) InsertPrices(_ context.Context, prices []model.PriceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices = append(s.prices, prices...)
	return nil
}

func (s *stubStore) InsertTestimonials(_ context.Context, testimonials []model.Testimonial) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.testimonials = append(s.testimonials, testimonials...)
	return nil
}

func (s *stubStore) InsertPackages(_ context.Context, packages []model.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packages = append(s.packages, packages...)
	return nil
}

func (s *stubStore) Migrate(context.Context) error { return nil }
func (s *stubStore) Ping(context.Context) error    { return nil }
func (s *stubStore) Close() error                  { return nil }

func (s *stubStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doctors) + len(s.prices) + len(s.testimonials) + len(s.packages) + len(s.statuses)
}

// stubFetcher serves canned pages by URL and counts fetches.
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string, _ fetch.Mode) (*fetch.PageSnapshot, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	html, ok := f.pages[url]
	if !ok {
		return nil, errNotFound
	}
	return &fetch.PageSnapshot{
		URL:        url,
		FinalURL:   url,
		HTML:       html,
		Text:       fetch.StripHTML(html),
		StatusCode: 200,
	}, nil
}

type fetchErr string

func (e fetchErr) Error() string { return string(e) }

const errNotFound = fetchErr("fetch: status 404")
