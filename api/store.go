package api

import (
	"sort"
	"strings"
	"sync"
	"time"

	"weather-dashboard/dashboard"
)

// ReportStore holds the latest report for each city
type ReportStore struct {
	data  map[string]dashboard.Report // key is the normalized city name
	mutex sync.RWMutex
}

// NewReportStore creates a new in-memory report store
func NewReportStore() *ReportStore {
	return &ReportStore{
		data: make(map[string]dashboard.Report),
	}
}

func storeKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// Update replaces the report for the report's city
func (s *ReportStore) Update(report dashboard.Report) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data[storeKey(report.City)] = report
}

// Get retrieves the latest report for a city
func (s *ReportStore) Get(city string) (dashboard.Report, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	report, exists := s.data[storeKey(city)]
	return report, exists
}

// All returns every stored report ordered by city
func (s *ReportStore) All() []dashboard.Report {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	reports := make([]dashboard.Report, 0, len(s.data))
	for _, r := range s.data {
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool {
		return storeKey(reports[i].City) < storeKey(reports[j].City)
	})
	return reports
}

// Cities returns the display names of all cities with a report
func (s *ReportStore) Cities() []string {
	reports := s.All()
	cities := make([]string, 0, len(reports))
	for _, r := range reports {
		cities = append(cities, r.City)
	}
	return cities
}

// PruneOlderThan removes reports refreshed more than maxAge ago
func (s *ReportStore) PruneOlderThan(maxAge time.Duration) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := time.Now().Add(-maxAge)
	prunedCount := 0

	for city, report := range s.data {
		if report.RefreshedAt.Before(cutoff) {
			delete(s.data, city)
			prunedCount++
		}
	}

	return prunedCount
}
