package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"jdcrawler-dashboard/internal/domain/model"
	"jdcrawler-dashboard/internal/usecase"
)

var (
	faint = color.New(color.Faint).SprintFunc()
	good  = color.New(color.FgGreen).SprintFunc()
	warn  = color.New(color.FgYellow).SprintFunc()
	bad   = color.New(color.FgRed).SprintFunc()
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetBorder(false)
	t.SetHeaderLine(true)
	return t
}

func printJobs(w io.Writer, jobs []model.Job) {
	if len(jobs) == 0 {
		fmt.Fprintln(w, "no jobs")
		return
	}
	t := newTable(w, "ID", "SITE", "TITLE", "COMPANY", "POSTED", "AI", "")
	for _, j := range jobs {
		mark := ""
		if j.IsBookmarked {
			mark = "*"
		}
		t.Append([]string{
			strconv.FormatInt(j.ID, 10),
			string(j.Site),
			j.Title,
			j.Company,
			dateOf(j.PostedAt),
			aiCell(&j),
			mark,
		})
	}
	t.Render()
}

func printJob(w io.Writer, j *model.Job, v model.AnalysisView) {
	fmt.Fprintf(w, "%s\n%s @ %s\n%s\n\n", j.Title, j.Company, j.Site, faint(j.URL))
	for _, f := range []struct {
		label string
		value *string
	}{
		{"location", j.Location},
		{"salary", j.Salary},
		{"experience", j.Experience},
		{"deadline", j.Deadline},
	} {
		if f.value != nil && *f.value != "" {
			fmt.Fprintf(w, "%-11s %s\n", f.label+":", *f.value)
		}
	}
	fmt.Fprintf(w, "%-11s %s\n", "analysis:", stateText(v))
	if v.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", v.Summary)
	}
	if j.Description != nil && *j.Description != "" {
		fmt.Fprintf(w, "\n%s\n", *j.Description)
	}
}

func printReport(w io.Writer, rep usecase.AnalysisReport) {
	fmt.Fprintf(w, "outcome: %s after %d rechecks\n", rep.Outcome, rep.Attempts)
	fmt.Fprintf(w, "state:   %s\n", stateText(rep.View))
	if rep.View.Summary != "" {
		fmt.Fprintln(w, rep.View.Summary)
	}
	if rep.View.LastError != "" {
		fmt.Fprintln(w, bad(rep.View.LastError))
	}
}

func printKeywords(w io.Writer, kws []model.Keyword) {
	if len(kws) == 0 {
		fmt.Fprintln(w, "no keywords")
		return
	}
	t := newTable(w, "ID", "KEYWORD", "ACTIVE", "CREATED")
	for _, k := range kws {
		t.Append([]string{strconv.FormatInt(k.ID, 10), k.Keyword, strconv.FormatBool(k.IsActive), dateOf(k.CreatedAt)})
	}
	t.Render()
}

func printStats(w io.Writer, st model.JobStats, newJobs int) {
	sites := make([]string, 0, len(st))
	for s := range st {
		sites = append(sites, s)
	}
	sort.Strings(sites)
	t := newTable(w, "SITE", "JOBS")
	for _, s := range sites {
		t.Append([]string{s, strconv.Itoa(st[s])})
	}
	t.SetFooter([]string{"total", strconv.Itoa(st.Total())})
	t.Render()
	fmt.Fprintf(w, "new since last read: %d\n", newJobs)
}

func printProfile(w io.Writer, p *model.UserProfile) {
	fmt.Fprintf(w, "experience: %d years\n", p.ExperienceYears)
	if len(p.TechStack) > 0 {
		skills := make([]string, 0, len(p.TechStack))
		for _, s := range p.TechStack {
			skills = append(skills, fmt.Sprintf("%s (%s)", s.Name, s.Level))
		}
		fmt.Fprintf(w, "stack:      %s\n", strings.Join(skills, ", "))
	}
	fmt.Fprintf(w, "interests:  %s\n", strings.Join(p.InterestKeywords, ", "))
	fmt.Fprintf(w, "excluded:   %s\n", strings.Join(p.ExcludeKeywords, ", "))
}

func printAck(w io.Writer, ack *model.CrawlAck) {
	fmt.Fprintf(w, "crawl %s", ack.Status)
	if ack.Site != "" {
		fmt.Fprintf(w, " site=%s keyword=%q", ack.Site, ack.Keyword)
	}
	if ack.JobsCrawled > 0 {
		fmt.Fprintf(w, " jobs=%d", ack.JobsCrawled)
	}
	if ack.Message != "" {
		fmt.Fprintf(w, ": %s", ack.Message)
	}
	fmt.Fprintln(w)
}

func aiCell(j *model.Job) string {
	if s, ok := j.Score(); ok {
		return good(strconv.Itoa(s))
	}
	switch j.AIStatus {
	case model.AIStatusPending:
		return warn("...")
	case model.AIStatusFiltered:
		return faint("filtered")
	case model.AIStatusFailed:
		return bad("failed")
	}
	return ""
}

func stateText(v model.AnalysisView) string {
	s := string(v.State)
	if v.Score != nil {
		s = fmt.Sprintf("%s, score %d", s, *v.Score)
	}
	if v.NotObserved {
		s += " (no result yet)"
	}
	return s
}

func dateOf(ts model.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format("2006-01-02")
}
