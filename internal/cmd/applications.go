package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/hirelink/internal/api"
	"github.com/felixgeelhaar/hirelink/internal/errors"
	"github.com/felixgeelhaar/hirelink/internal/realtime"
	"github.com/felixgeelhaar/hirelink/internal/session"
	"github.com/felixgeelhaar/hirelink/internal/tracker"
)

func newApplicationsCommand() *cobra.Command {
	applicationsCmd := &cobra.Command{
		Use:     "applications",
		Aliases: []string{"apps"},
		Short:   "Track job applications",
		Long: `List applications, move them through the hiring pipeline and follow
status changes live.

Students see their own applications. A startup sees the applications to
one of its jobs with --job.`,
	}

	applicationsCmd.AddCommand(
		newApplicationsListCommand(),
		newApplicationsStatusCommand(),
		newApplicationsApplyCommand(),
		newApplicationsWatchCommand(),
	)
	return applicationsCmd
}

// loadTracker fetches the applications the current user can see
func (a *app) loadTracker(ctx context.Context, s session.Session, jobID string) (*tracker.Tracker, error) {
	var res api.Result[[]api.Application]
	switch {
	case jobID != "":
		res = a.client.Applications().ListForJob(ctx, jobID)
	case s.User.Role == session.RoleStudent:
		res = a.client.Applications().ListMine(ctx)
	default:
		return nil, usageError("--job is required for %s accounts", s.User.Role)
	}

	apps, err := check(a, res)
	if err != nil {
		return nil, err
	}
	t := tracker.New(a.client.Applications(), a.logger)
	t.Replace(apps)
	return t, nil
}

func newApplicationsListCommand() *cobra.Command {
	var jobID string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List applications, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			s, err := a.requireSession()
			if err != nil {
				return err
			}

			t, err := a.loadTracker(cmd.Context(), s, jobID)
			if err != nil {
				return err
			}
			return a.print(newApplicationTable(t.Items(), s.User.Role))
		},
	}

	listCmd.Flags().StringVar(&jobID, "job", "", "list applications to this job (startups)")
	return listCmd
}

func newApplicationsStatusCommand() *cobra.Command {
	var jobID string

	statusCmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move an application to a new status",
		Long: `Move an application to a new pipeline status. Startups only.

Statuses: applied, under_review, shortlisted, interview, offered, hired, rejected`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			s, err := a.requireSession()
			if err != nil {
				return err
			}
			if s.User.Role == session.RoleStudent {
				return errors.New(errors.ErrCodeAPIRequestFailed, "only startups can change an application's status")
			}

			id, status := args[0], api.ApplicationStatus(args[1])
			if !status.Valid() {
				return usageError("unknown status %q", args[1])
			}

			t, err := a.loadTracker(cmd.Context(), s, jobID)
			if err != nil {
				return err
			}
			if err := t.UpdateStatus(cmd.Context(), id, status); err != nil {
				return a.report(err)
			}

			app, _ := t.Get(id)
			if a.cfg.Format != "text" {
				return a.print(newApplicationRow(app, s.User.Role))
			}
			a.notify(fmt.Sprintf("Application %s is now %s", id, app.Status))
			return nil
		},
	}

	statusCmd.Flags().StringVar(&jobID, "job", "", "job the application belongs to")
	_ = statusCmd.MarkFlagRequired("job")
	return statusCmd
}

func newApplicationsApplyCommand() *cobra.Command {
	var (
		resumePath  string
		coverLetter string
	)

	applyCmd := &cobra.Command{
		Use:   "apply <job-id>",
		Short: "Apply to a job with a resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			s, err := a.requireSession()
			if err != nil {
				return err
			}
			if s.User.Role != session.RoleStudent {
				return errors.New(errors.ErrCodeAPIRequestFailed, "only students can apply to jobs")
			}

			f, err := os.Open(resumePath)
			if err != nil {
				if os.IsNotExist(err) {
					return errors.NewFileNotFoundError(resumePath)
				}
				return errors.Wrap(errors.ErrCodeFileReadFailed, "failed to open resume", err)
			}
			defer f.Close()

			app, err := check(a, a.client.Applications().Apply(cmd.Context(), args[0], coverLetter, filepath.Base(resumePath), f))
			if err != nil {
				return err
			}
			if a.cfg.Format != "text" {
				return a.print(newApplicationRow(app, s.User.Role))
			}
			a.notify(fmt.Sprintf("Application %s submitted", app.ID))
			return nil
		},
	}

	applyCmd.Flags().StringVar(&resumePath, "resume", "", "resume file to upload")
	applyCmd.Flags().StringVar(&coverLetter, "cover-letter", "", "cover letter text")
	_ = applyCmd.MarkFlagRequired("resume")
	return applyCmd
}

func newApplicationsWatchCommand() *cobra.Command {
	var jobID string

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Print application status changes as they happen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			s, err := a.requireSession()
			if err != nil {
				return err
			}

			t, err := a.loadTracker(cmd.Context(), s, jobID)
			if err != nil {
				return err
			}
			return a.watchApplications(cmd.Context(), t, s.User.Role)
		},
	}

	watchCmd.Flags().StringVar(&jobID, "job", "", "watch applications to this job (startups)")
	return watchCmd
}

func (a *app) watchApplications(ctx context.Context, t *tracker.Tracker, viewer session.Role) error {
	mgr := a.newManager()
	defer mgr.Stop()

	t.Attach(mgr)
	defer t.Close()

	// Registered after the tracker so the printed row already carries the change.
	sub := mgr.SubscribeStatusChanges(func(p realtime.StatusChangePayload) {
		app, ok := t.Get(p.ApplicationID)
		if !ok {
			return
		}
		row := newApplicationRow(app, viewer)
		if a.cfg.Format != "text" {
			if err := a.print(row); err != nil {
				a.logger.WithError(err).Warn("failed to print status change")
			}
			return
		}
		fmt.Fprintf(a.out, "%s  %s  %s\n", row.ID, row.Job, row.Status)
	})
	defer sub.Unsubscribe()

	if err := mgr.Start(ctx); err != nil {
		return err
	}

	fmt.Fprintf(a.errOut, "Watching %d applications. Press Ctrl+C to stop.\n", len(t.Items()))
	<-ctx.Done()
	return nil
}

// applicationRow is one application as the viewer may see it
type applicationRow struct {
	ID        string `json:"id" yaml:"id"`
	Job       string `json:"job" yaml:"job"`
	Company   string `json:"company,omitempty" yaml:"company,omitempty"`
	Student   string `json:"student,omitempty" yaml:"student,omitempty"`
	Status    string `json:"status" yaml:"status"`
	UpdatedAt string `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

func newApplicationRow(app api.Application, viewer session.Role) applicationRow {
	row := applicationRow{ID: app.ID, Job: app.Job.ID()}
	if job, ok := app.Job.Value(); ok {
		row.Job = job.Title
		if c, ok := job.Company.Value(); ok {
			row.Company = c.Name
		}
	}
	if st, ok := app.Student.Value(); ok {
		row.Student = st.Name
	}

	status, visible := tracker.VisibleStatus(app, viewer)
	row.Status = string(status)
	if !visible {
		row.Status += " (pending)"
	}
	if !app.UpdatedAt.IsZero() {
		row.UpdatedAt = received(app.UpdatedAt)
	}
	return row
}

type applicationTable struct {
	Items  []applicationRow `json:"items" yaml:"items"`
	viewer session.Role
}

func newApplicationTable(apps []api.Application, viewer session.Role) applicationTable {
	rows := make([]applicationRow, len(apps))
	for i, app := range apps {
		rows[i] = newApplicationRow(app, viewer)
	}
	return applicationTable{Items: rows, viewer: viewer}
}

func (t applicationTable) RenderText(w io.Writer, noColor bool) error {
	if len(t.Items) == 0 {
		_, err := fmt.Fprintln(w, "No applications")
		return err
	}

	who := "COMPANY"
	if t.viewer != session.RoleStudent {
		who = "STUDENT"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tJOB\t%s\tSTATUS\tUPDATED\n", who)
	for _, r := range t.Items {
		party := r.Company
		if t.viewer != session.RoleStudent {
			party = r.Student
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Job, dash(party), r.Status, dash(r.UpdatedAt))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
