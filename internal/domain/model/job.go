package model

import (
	"fmt"
	"strings"
)

type Site string

const (
	SiteSaramin  Site = "saramin"
	SiteJobkorea Site = "jobkorea"
	SiteWanted   Site = "wanted"
)

var Sites = []Site{SiteSaramin, SiteJobkorea, SiteWanted}

func ParseSite(s string) (Site, error) {
	site := Site(strings.ToLower(strings.TrimSpace(s)))
	switch site {
	case SiteSaramin, SiteJobkorea, SiteWanted:
		return site, nil
	}
	return "", fmt.Errorf("unknown site %q", s)
}

// AIStatus is the server-reported analysis status; the empty value means absent.
type AIStatus string

const (
	AIStatusAbsent    AIStatus = ""
	AIStatusPending   AIStatus = "pending"
	AIStatusCompleted AIStatus = "completed"
	AIStatusFiltered  AIStatus = "filtered"
	AIStatusFailed    AIStatus = "failed"
)

func (s AIStatus) Terminal() bool {
	return s == AIStatusCompleted || s == AIStatusFiltered || s == AIStatusFailed
}

type Job struct {
	ID                  int64     `json:"id"`
	Title               string    `json:"title"`
	Company             string    `json:"company"`
	URL                 string    `json:"url"`
	Site                Site      `json:"site"`
	Location            *string   `json:"location,omitempty"`
	Salary              *string   `json:"salary,omitempty"`
	Experience          *string   `json:"experience,omitempty"`
	Deadline            *string   `json:"deadline,omitempty"`
	PostedAt            Timestamp `json:"posted_at"`
	CreatedAt           Timestamp `json:"created_at"`
	IsBookmarked        bool      `json:"is_bookmarked"`
	IsHidden            bool      `json:"is_hidden"`
	Description         *string   `json:"description,omitempty"`
	DescriptionImageURL *string   `json:"description_image_url,omitempty"`
	AIStatus            AIStatus  `json:"ai_status,omitempty"`
	AIScore             *int      `json:"ai_score,omitempty"`
	AISummary           *string   `json:"ai_summary,omitempty"`
}

// Normalize enforces the analysis invariants on a decoded job: the score only
// exists when completed, the summary only when completed or filtered.
func (j *Job) Normalize() {
	switch j.AIStatus {
	case AIStatusPending, AIStatusCompleted, AIStatusFiltered, AIStatusFailed:
	default:
		j.AIStatus = AIStatusAbsent
	}
	if j.AIStatus != AIStatusCompleted {
		j.AIScore = nil
	} else if j.AIScore != nil {
		s := *j.AIScore
		if s < 0 {
			s = 0
		} else if s > 100 {
			s = 100
		}
		j.AIScore = &s
	}
	if j.AIStatus != AIStatusCompleted && j.AIStatus != AIStatusFiltered {
		j.AISummary = nil
	}
}

// Score returns the suitability score only while the analysis is completed.
func (j *Job) Score() (int, bool) {
	if j.AIStatus != AIStatusCompleted || j.AIScore == nil {
		return 0, false
	}
	return *j.AIScore, true
}

// CanAnalyze reports whether there is anything for the scorer to read.
func (j *Job) CanAnalyze() bool {
	return nonEmpty(j.Description) || nonEmpty(j.DescriptionImageURL)
}

func nonEmpty(s *string) bool { return s != nil && strings.TrimSpace(*s) != "" }

// JobQuery is the parameter tuple of a job list read.
type JobQuery struct {
	Search     string
	Site       Site
	Bookmarked bool
	Page       int
	PageSize   int
}

func (q JobQuery) Limit() int { return q.PageSize }

func (q JobQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// JobStats maps a site to the number of collected postings.
type JobStats map[string]int

func (s JobStats) Total() int {
	n := 0
	for _, v := range s {
		n += v
	}
	return n
}

type NewJobsCount struct {
	Count int `json:"count"`
}
