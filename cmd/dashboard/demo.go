package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"jdcrawler-dashboard/internal/domain/model"
	"jdcrawler-dashboard/internal/domain/ports/gateway/gatewaytest"
)

// newDemoGateway seeds an in-memory backend whose analysis completes on the
// next read, so every screen can be tried without the crawler.
func newDemoGateway() *gatewaytest.Memory {
	gw := gatewaytest.NewMemory()
	now := time.Now()

	titles := []string{"Backend Engineer (Go)", "Platform Engineer", "Data Engineer", "SRE", "Frontend Engineer"}
	companies := []string{"Acme", "Globex", "Initech", "Umbrella"}
	for i := 1; i <= 45; i++ {
		site := model.Sites[i%len(model.Sites)]
		desc := fmt.Sprintf("Build and operate services for team %d.", i)
		j := model.Job{
			ID:          int64(i),
			Title:       titles[i%len(titles)],
			Company:     companies[i%len(companies)],
			URL:         fmt.Sprintf("https://example.com/jobs/%d", i),
			Site:        site,
			PostedAt:    model.Timestamp{Time: now.Add(-time.Duration(i) * time.Hour)},
			CreatedAt:   model.Timestamp{Time: now.Add(-time.Duration(i) * time.Hour)},
			Description: &desc,
		}
		if i%7 == 0 {
			j.Description = nil
		}
		gw.AddJob(j)
	}
	gw.Keywords = []model.Keyword{
		{ID: 1, Keyword: "golang", IsActive: true, CreatedAt: model.Timestamp{Time: now}},
		{ID: 2, Keyword: "kubernetes", IsActive: true, CreatedAt: model.Timestamp{Time: now}},
	}
	gw.Profile = model.UserProfile{
		TechStack:        []model.TechSkill{{Name: "Go", Level: model.LevelAdvanced}},
		ExperienceYears:  4,
		InterestKeywords: []string{"backend", "distributed systems"},
	}
	gw.Status = model.CrawlStatus{
		Status: model.CrawlIdle,
		Jobs:   []model.ScheduledRun{{ID: "crawl_all", NextRunTime: model.Timestamp{Time: now.Add(90 * time.Minute)}}},
	}
	gw.NewJobs = 3

	gw.TriggerAnalysisFunc = func(ctx context.Context, id int64) (*model.AnalysisResult, error) {
		score := 40 + rand.Intn(60)
		summary := "Strong overlap with the Go and backend profile."
		gw.UpdateJob(id, func(j *model.Job) {
			j.AIStatus, j.AIScore, j.AISummary = model.AIStatusCompleted, &score, &summary
		})
		return &model.AnalysisResult{Status: model.AIStatusPending}, nil
	}
	return gw
}
