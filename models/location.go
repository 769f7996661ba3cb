package models

import "strings"

// Location is a geocoded place
type Location struct {
	Name    string  `json:"name"`
	State   string  `json:"state,omitempty"`
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// DisplayName joins the non-empty name parts, e.g. "Austin, Texas, US"
func (l Location) DisplayName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Name, l.State, l.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
