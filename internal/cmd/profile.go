package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/hirelink/internal/api"
	"github.com/felixgeelhaar/hirelink/internal/entitlement"
	"github.com/felixgeelhaar/hirelink/internal/errors"
	"github.com/felixgeelhaar/hirelink/internal/session"
)

func newProfileCommand() *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile and dashboard",
	}

	profileCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show your startup or student profile",
			Args:  cobra.NoArgs,
			RunE:  runProfileShow,
		},
		&cobra.Command{
			Use:   "photo <file>",
			Short: "Upload a new profile photo (students)",
			Args:  cobra.ExactArgs(1),
			RunE:  runProfilePhoto,
		},
		&cobra.Command{
			Use:   "analytics",
			Short: "Show the startup dashboard summary",
			Args:  cobra.NoArgs,
			RunE:  runProfileAnalytics,
		},
	)
	return profileCmd
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	s, err := a.requireSession()
	if err != nil {
		return err
	}

	if s.User.Role == session.RoleStudent {
		p, err := check(a, a.client.Profiles().Student(cmd.Context()))
		if err != nil {
			return err
		}
		return a.print(studentView(p))
	}

	p, err := check(a, a.client.Profiles().Startup(cmd.Context()))
	if err != nil {
		return err
	}
	return a.print(startupView(p))
}

func runProfilePhoto(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	s, err := a.requireSession()
	if err != nil {
		return err
	}
	if s.User.Role != session.RoleStudent {
		return errors.New(errors.ErrCodeAPIRequestFailed, "profile photos are for student accounts")
	}

	f, err := os.Open(args[0])
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewFileNotFoundError(args[0])
		}
		return errors.Wrap(errors.ErrCodeFileReadFailed, "failed to open photo", err)
	}
	defer f.Close()

	p, err := check(a, a.client.Profiles().UploadPhoto(cmd.Context(), filepath.Base(args[0]), f))
	if err != nil {
		return err
	}
	if a.cfg.Format != "text" {
		return a.print(studentView(p))
	}
	a.notify("Profile photo updated")
	return nil
}

func runProfileAnalytics(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	s, err := a.requireSession()
	if err != nil {
		return err
	}
	eval, err := a.loadEvaluator(cmd.Context(), s)
	if err != nil {
		return err
	}
	if err := eval.Require(entitlement.Analytics); err != nil {
		return err
	}

	summary, err := check(a, a.client.Analytics().Summary(cmd.Context()))
	if err != nil {
		return err
	}
	return a.print(analyticsView(summary))
}

type studentView api.StudentProfile

func (v studentView) RenderText(w io.Writer, noColor bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", v.Name)
	fmt.Fprintf(tw, "University:\t%s\n", dash(v.University))
	fmt.Fprintf(tw, "Skills:\t%s\n", dash(strings.Join(v.Skills, ", ")))
	fmt.Fprintf(tw, "Resume:\t%s\n", dash(v.ResumeURL))
	fmt.Fprintf(tw, "Photo:\t%s\n", dash(v.PhotoURL))
	return tw.Flush()
}

type startupView api.StartupProfile

func (v startupView) RenderText(w io.Writer, noColor bool) error {
	p := api.StartupProfile(v)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Company:\t%s\n", v.CompanyName)
	fmt.Fprintf(tw, "Industry:\t%s\n", dash(v.Industry))
	fmt.Fprintf(tw, "Website:\t%s\n", dash(v.Website))
	fmt.Fprintf(tw, "Plan:\t%s\n", entitlement.ResolvePlan(&p))
	return tw.Flush()
}

type analyticsView api.AnalyticsSummary

func (v analyticsView) RenderText(w io.Writer, noColor bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Active jobs:\t%d\n", v.ActiveJobs)
	fmt.Fprintf(tw, "Applications:\t%d\n", v.TotalApplications)
	fmt.Fprintf(tw, "Upcoming interviews:\t%d\n", v.InterviewsUpcoming)

	statuses := make([]string, 0, len(v.ByStatus))
	for s := range v.ByStatus {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Fprintf(tw, "  %s:\t%d\n", s, v.ByStatus[api.ApplicationStatus(s)])
	}
	return tw.Flush()
}
