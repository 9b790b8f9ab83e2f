package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/hirelink/internal/api"
	"github.com/felixgeelhaar/hirelink/internal/entitlement"
	"github.com/felixgeelhaar/hirelink/internal/errors"
	"github.com/felixgeelhaar/hirelink/internal/session"
)

func newJobsCommand() *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Browse and post jobs",
	}

	jobsCmd.AddCommand(
		newJobsListCommand(),
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show one job",
			Args:  cobra.ExactArgs(1),
			RunE:  runJobsShow,
		},
		newJobsCreateCommand(),
	)
	return jobsCmd
}

func newJobsListCommand() *cobra.Command {
	var (
		q    api.JobQuery
		mine bool
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List open jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			var res api.Result[[]api.Job]
			if mine {
				if _, err := a.requireSession(); err != nil {
					return err
				}
				res = a.client.Jobs().Mine(cmd.Context())
			} else {
				res = a.client.Jobs().List(cmd.Context(), q)
			}
			jobs, err := check(a, res)
			if err != nil {
				return err
			}
			return a.print(jobTable{Items: jobs})
		},
	}

	listCmd.Flags().StringVar(&q.Search, "search", "", "search title and description")
	listCmd.Flags().StringVar(&q.Location, "location", "", "filter by location")
	listCmd.Flags().StringVar(&q.Type, "type", "", "filter by job type")
	listCmd.Flags().BoolVar(&mine, "mine", false, "list your own postings (startups)")
	return listCmd
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	job, err := check(a, a.client.Jobs().Get(cmd.Context(), args[0]))
	if err != nil {
		return err
	}
	return a.print(jobView(job))
}

func newJobsCreateCommand() *cobra.Command {
	var (
		job    api.Job
		skills []string
	)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Post a job",
		Long: `Post a job for your startup. The number of active postings is limited
by your plan.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			s, err := a.requireSession()
			if err != nil {
				return err
			}
			if s.User.Role != session.RoleStartup {
				return errors.New(errors.ErrCodeAPIRequestFailed, "only startups can post jobs")
			}

			eval, err := a.loadEvaluator(cmd.Context(), s)
			if err != nil {
				return err
			}
			posted, err := check(a, a.client.Jobs().Mine(cmd.Context()))
			if err != nil {
				return err
			}
			if !eval.WithinLimit(entitlement.MaxActiveJobs, activeJobs(posted)) {
				tier, _ := eval.Tier()
				limit, _ := eval.Limit(entitlement.MaxActiveJobs)
				return errors.NewUpgradeRequiredError(
					fmt.Sprintf("More than %d active job postings", limit), string(tier))
			}

			job.Skills = skills
			job.Active = true
			created, err := check(a, a.client.Jobs().Create(cmd.Context(), job))
			if err != nil {
				return err
			}
			if a.cfg.Format != "text" {
				return a.print(created)
			}
			a.notify(fmt.Sprintf("Job %s posted", created.ID))
			return nil
		},
	}

	createCmd.Flags().StringVar(&job.Title, "title", "", "job title")
	createCmd.Flags().StringVar(&job.Description, "description", "", "job description")
	createCmd.Flags().StringVar(&job.Location, "location", "", "job location")
	createCmd.Flags().StringVar(&job.Type, "type", "", "job type, e.g. full-time or internship")
	createCmd.Flags().StringSliceVar(&skills, "skills", nil, "required skills, comma separated")
	_ = createCmd.MarkFlagRequired("title")
	return createCmd
}

func activeJobs(jobs []api.Job) int {
	n := 0
	for _, j := range jobs {
		if j.Active {
			n++
		}
	}
	return n
}

type jobTable struct {
	Items []api.Job `json:"items" yaml:"items"`
}

func (t jobTable) RenderText(w io.Writer, noColor bool) error {
	if len(t.Items) == 0 {
		_, err := fmt.Fprintln(w, "No jobs")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCOMPANY\tLOCATION\tTYPE\tSKILLS")
	for _, j := range t.Items {
		company := j.Company.ID()
		if c, ok := j.Company.Value(); ok {
			company = c.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			j.ID, j.Title, dash(company), dash(j.Location), dash(j.Type), dash(strings.Join(j.Skills, ", ")))
	}
	return tw.Flush()
}

type jobView api.Job

func (v jobView) RenderText(w io.Writer, noColor bool) error {
	company := v.Company.ID()
	if c, ok := v.Company.Value(); ok {
		company = c.Name
	}
	status := "open"
	if !v.Active {
		status = "closed"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Title:\t%s\n", v.Title)
	fmt.Fprintf(tw, "Company:\t%s\n", dash(company))
	fmt.Fprintf(tw, "Location:\t%s\n", dash(v.Location))
	fmt.Fprintf(tw, "Type:\t%s\n", dash(v.Type))
	fmt.Fprintf(tw, "Skills:\t%s\n", dash(strings.Join(v.Skills, ", ")))
	fmt.Fprintf(tw, "Status:\t%s\n", status)
	if err := tw.Flush(); err != nil {
		return err
	}
	if v.Description != "" {
		_, err := fmt.Fprintf(w, "\n%s\n", v.Description)
		return err
	}
	return nil
}
