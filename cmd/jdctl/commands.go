package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jdcrawler-dashboard/internal/domain"
	"jdcrawler-dashboard/internal/domain/model"
)

func jobsCmd(a *app) *cobra.Command {
	var (
		search     string
		site       string
		bookmarked bool
		page       int
	)
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List collected job postings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := model.JobQuery{Search: strings.TrimSpace(search), Bookmarked: bookmarked, Page: page}
			if site != "" {
				s, err := model.ParseSite(site)
				if err != nil {
					return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
				}
				q.Site = s
			}
			p := a.reader.Jobs(cmd.Context(), q)
			if p.Err != nil {
				return p.Err
			}
			if a.json {
				return printJSON(a.out, p.Jobs)
			}
			printJobs(a.out, p.Jobs)
			footer := fmt.Sprintf("page %d", p.Query.Page)
			if p.HasNext {
				footer += fmt.Sprintf(", more with --page %d", p.Query.Page+1)
			}
			fmt.Fprintln(a.out, faint(footer))
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "q", "", "search term")
	cmd.Flags().StringVar(&site, "site", "", "saramin|jobkorea|wanted")
	cmd.Flags().BoolVar(&bookmarked, "bookmarked", false, "bookmarked jobs only")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func jobCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "job <id>",
		Short: "Show one job with its analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r := a.reader.Job(cmd.Context(), id)
			if !r.HasData {
				return noData(cmd, r.Err)
			}
			view, _ := a.tracker.View(cmd.Context(), id)
			if a.json {
				return printJSON(a.out, struct {
					Job      *model.Job         `json:"job"`
					Analysis model.AnalysisView `json:"analysis"`
				}{r.Data, view})
			}
			printJob(a.out, r.Data, view)
			return nil
		},
	}
}

func bookmarkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bookmark <id>",
		Short: "Toggle a job's bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			j, err := a.mut.ToggleBookmark(cmd.Context(), id)
			if err != nil {
				return err
			}
			if a.json {
				return printJSON(a.out, j)
			}
			state := "removed from bookmarks"
			if j.IsBookmarked {
				state = "bookmarked"
			}
			fmt.Fprintf(a.out, "job %d %s\n", id, state)
			return nil
		},
	}
}

func hideCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hide <id>",
		Short: "Hide a job from every list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.mut.Hide(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "job %d hidden\n", id)
			return nil
		},
	}
}

func analyzeCmd(a *app) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "analyze <id>",
		Short: "Request an AI suitability analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !wait {
				if err := a.tracker.Trigger(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "analysis requested for job %d\n", id)
				return nil
			}
			rep, err := a.tracker.Run(cmd.Context(), id)
			if err != nil {
				return err
			}
			if a.json {
				return printJSON(a.out, rep)
			}
			printReport(a.out, rep)
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the result arrives")
	return cmd
}

func keywordsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "keywords",
		Aliases: []string{"kw"},
		Short:   "Manage crawl keywords",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "ls",
			Short: "List keywords",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				r := a.reader.Keywords(cmd.Context())
				if !r.HasData {
					return noData(cmd, r.Err)
				}
				if a.json {
					return printJSON(a.out, r.Data)
				}
				printKeywords(a.out, r.Data)
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <keyword>",
			Short: "Add a keyword",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				kw, err := a.mut.CreateKeyword(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				if a.json {
					return printJSON(a.out, kw)
				}
				fmt.Fprintf(a.out, "keyword %d %q added\n", kw.ID, kw.Keyword)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Delete a keyword",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := a.mut.DeleteKeyword(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "keyword %d deleted\n", id)
				return nil
			},
		},
	)
	return cmd
}

func crawlCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl <site> <keyword>",
		Short: "Crawl one site for one keyword",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ack, err := a.mut.TriggerCrawl(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if a.json {
				return printJSON(a.out, ack)
			}
			printAck(a.out, ack)
			return nil
		},
	}
}

func crawlAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl-all",
		Short: "Crawl every site for every active keyword",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ack, err := a.mut.TriggerCrawlAll(cmd.Context())
			if err != nil {
				return err
			}
			if a.json {
				return printJSON(a.out, ack)
			}
			printAck(a.out, ack)
			return nil
		},
	}
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the crawl scheduler state and time to the next run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := a.reader.CrawlStatus(cmd.Context())
			if !r.HasData {
				return noData(cmd, r.Err)
			}
			cd := model.Countdown(r.Data.NextRun(), time.Now())
			if a.json {
				return printJSON(a.out, struct {
					Status    *model.CrawlStatus   `json:"status"`
					Countdown model.CountdownState `json:"countdown"`
				}{r.Data, cd})
			}
			fmt.Fprintf(a.out, "scheduler: %s\nnext run:  %s\n", r.Data.Status, cd.Text)
			return nil
		},
	}
}

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-site totals and the new-jobs count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.reader.Stats(cmd.Context())
			if !st.HasData {
				return noData(cmd, st.Err)
			}
			nc := a.reader.NewJobsCount(cmd.Context())
			if !nc.HasData {
				return noData(cmd, nc.Err)
			}
			if a.json {
				return printJSON(a.out, struct {
					Stats   model.JobStats `json:"stats"`
					NewJobs int            `json:"new_jobs"`
				}{st.Data, nc.Data.Count})
			}
			printStats(a.out, st.Data, nc.Data.Count)
			return nil
		},
	}
}

func profileCmd(a *app) *cobra.Command {
	var (
		skills    []string
		years     int
		interests string
		excludes  string
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the profile used for AI analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := a.reader.Profile(cmd.Context())
			if !r.HasData {
				return noData(cmd, r.Err)
			}
			if a.json {
				return printJSON(a.out, r.Data)
			}
			printProfile(a.out, r.Data)
			return nil
		},
	}
	set := &cobra.Command{
		Use:   "set",
		Short: "Replace the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			upd := model.ProfileUpdate{
				ExperienceYears:  years,
				InterestKeywords: model.SplitKeywords(interests),
				ExcludeKeywords:  model.SplitKeywords(excludes),
			}
			for _, s := range skills {
				skill, err := parseSkill(s)
				if err != nil {
					return err
				}
				upd.TechStack = append(upd.TechStack, skill)
			}
			p, err := a.mut.UpdateProfile(cmd.Context(), upd)
			if err != nil {
				return err
			}
			if a.json {
				return printJSON(a.out, p)
			}
			printProfile(a.out, p)
			return nil
		},
	}
	set.Flags().StringArrayVar(&skills, "skill", nil, "name:Level, repeatable (Beginner|Intermediate|Advanced|Expert)")
	set.Flags().IntVar(&years, "years", 0, "years of experience")
	set.Flags().StringVar(&interests, "interests", "", "comma separated interest keywords")
	set.Flags().StringVar(&excludes, "exclude", "", "comma separated keywords that filter a job out")
	cmd.AddCommand(set)
	return cmd
}

func markReadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mark-read",
		Short: "Reset the new-jobs counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mut.MarkNotificationsRead(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "notifications marked read")
			return nil
		},
	}
}

// noData is the error for a read that returned nothing.
func noData(cmd *cobra.Command, err error) error {
	if err != nil {
		return err
	}
	if err := cmd.Context().Err(); err != nil {
		return err
	}
	return errors.New("backend returned no data")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", domain.ErrInvalidArgument, s)
	}
	return id, nil
}

// parseSkill reads "name:Level"; the level defaults to Intermediate.
func parseSkill(s string) (model.TechSkill, error) {
	name, level, found := strings.Cut(s, ":")
	skill := model.TechSkill{Name: strings.TrimSpace(name), Level: model.LevelIntermediate}
	if found {
		skill.Level = model.SkillLevel(strings.TrimSpace(level))
	}
	if !skill.Level.Valid() {
		return model.TechSkill{}, fmt.Errorf("%w: unknown skill level %q", domain.ErrInvalidArgument, level)
	}
	return skill, nil
}
