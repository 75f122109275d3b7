package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyQuery is returned when a query has neither a given name nor a surname.
var ErrEmptyQuery = errors.New("query needs a given name or a surname")

// SearchQuery describes the person being searched for. BirthYear and Location
// are optional hints; Source is filled in by the orchestrator per dispatch.
type SearchQuery struct {
	GivenName string `json:"given_name"`
	Surname   string `json:"surname"`
	BirthYear *int   `json:"birth_year,omitempty"`
	Location  string `json:"location,omitempty"`
	Source    string `json:"source,omitempty"`
}

// Validate checks that the query is searchable.
func (q SearchQuery) Validate() error {
	if strings.TrimSpace(q.GivenName) == "" && strings.TrimSpace(q.Surname) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// FullName joins the name parts for display and matching.
func (q SearchQuery) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(q.GivenName) + " " + strings.TrimSpace(q.Surname))
}

// String renders the query for logs and cache keys.
func (q SearchQuery) String() string {
	parts := []string{q.FullName()}
	if q.BirthYear != nil {
		parts = append(parts, fmt.Sprintf("b.%d", *q.BirthYear))
	}
	if q.Location != "" {
		parts = append(parts, q.Location)
	}
	return strings.Join(parts, " ")
}
