package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/hirelink/internal/api"
	"github.com/felixgeelhaar/hirelink/internal/entitlement"
	"github.com/felixgeelhaar/hirelink/internal/errors"
	"github.com/felixgeelhaar/hirelink/internal/session"
	"github.com/felixgeelhaar/hirelink/internal/tui"
	"github.com/felixgeelhaar/hirelink/internal/ux"
)

func newPlanCommand() *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Inspect your subscription plan and its features",
		Long: `Show which features your startup's plan includes, check a single
feature and start an upgrade.

Plans: FREE, GROWTH, PRO, ENTERPRISE. A startup without a recorded plan is
treated as FREE.`,
	}

	planCmd.AddCommand(
		newPlanShowCommand(),
		newPlanCheckCommand(),
		newPlanUpgradeCommand(),
	)
	return planCmd
}

// loadEvaluator resolves the startup's plan. A missing profile (404) is
// the free tier with no plan selected yet.
func (a *app) loadEvaluator(ctx context.Context, s session.Session) (*entitlement.Evaluator, error) {
	if s.User.Role == session.RoleStudent {
		return nil, errors.New(errors.ErrCodeAPIRequestFailed, "subscription plans apply to startup accounts").
			WithSuggestion("Sign in with a startup account to manage plans")
	}

	eval := entitlement.NewEvaluator(entitlement.WithMetrics(a.metrics))

	res := a.client.Plans().Current(ctx)
	if !res.Success && res.Status == http.StatusNotFound {
		eval.SetProfile(&api.StartupProfile{})
		return eval, nil
	}
	profile, err := check(a, res)
	if err != nil {
		return nil, err
	}
	eval.SetProfile(&profile)
	return eval, nil
}

func newPlanShowCommand() *cobra.Command {
	var all bool

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the features of your plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			if all {
				return a.print(newMatrixView())
			}

			s, err := a.requireSession()
			if err != nil {
				return err
			}
			eval, err := a.loadEvaluator(cmd.Context(), s)
			if err != nil {
				return err
			}
			return a.print(newPlanView(eval))
		},
	}

	showCmd.Flags().BoolVar(&all, "all", false, "compare every plan instead of showing yours")
	return showCmd
}

func newPlanCheckCommand() *cobra.Command {
	var used int

	checkCmd := &cobra.Command{
		Use:   "check <feature>",
		Short: "Check whether your plan includes a feature",
		Long: `Check a single feature. Exits with status 5 when the plan does not
include it.

With --used, limit features such as maxActiveJobs are checked against the
number already in use.

Features: ` + featureList(),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			f, ok := entitlement.ParseFeature(args[0])
			if !ok {
				return errors.New(errors.ErrCodePlanUnknownFeature, fmt.Sprintf("unknown feature %q", args[0])).
					WithSuggestion("Features: " + featureList())
			}

			s, err := a.requireSession()
			if err != nil {
				return err
			}
			eval, err := a.loadEvaluator(cmd.Context(), s)
			if err != nil {
				return err
			}

			allowed := eval.CheckAccessAndShowModal(f, "")
			if allowed && cmd.Flags().Changed("used") {
				allowed = eval.WithinLimit(f, used)
			}

			v, _ := eval.GetFeatureValue(f)
			tier, _ := eval.Tier()
			result := accessView{Feature: string(f), Name: f.DisplayName(), Plan: string(tier), Value: v.String(), Allowed: allowed}
			if err := a.print(result); err != nil {
				return err
			}

			if allowed {
				return nil
			}
			upgrade := errors.NewUpgradeRequiredError(f.DisplayName(), string(tier))
			prompt := eval.UpgradePrompt()
			if !prompt.Open {
				// Within the plan but over its limit.
				return upgrade
			}
			ux.ShowToast(a.errOut, ux.Toast{
				Level:   ux.ToastError,
				Title:   "Upgrade required",
				Message: fmt.Sprintf("%s is not included in the %s plan. Run 'hirelink plan upgrade <plan>' to unlock it.", prompt.Feature, tier),
			}, a.cfg.NoColor)
			eval.CloseUpgradePrompt()
			return &reportedError{err: upgrade}
		},
	}

	checkCmd.Flags().IntVar(&used, "used", 0, "units already in use, for limit features")
	return checkCmd
}

func newPlanUpgradeCommand() *cobra.Command {
	var yes bool

	upgradeCmd := &cobra.Command{
		Use:   "upgrade <plan>",
		Short: "Start a checkout for a higher plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			tier, ok := entitlement.ParseTier(args[0])
			if !ok || tier == entitlement.TierFree {
				return usageError("plan must be one of GROWTH, PRO, ENTERPRISE")
			}
			if _, err := a.requireSession(); err != nil {
				return err
			}

			if !yes && tui.ShouldPrompt() {
				confirmed, err := tui.PromptForConfirmation(fmt.Sprintf("Start a checkout for the %s plan?", tier), true)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(a.errOut, "Upgrade cancelled")
					return nil
				}
			}

			checkout, err := check(a, a.client.Payments().Checkout(cmd.Context(), string(tier)))
			if err != nil {
				return err
			}
			if a.cfg.Format != "text" {
				return a.print(checkout)
			}
			_, err = fmt.Fprintf(a.out, "Complete your %s upgrade at:\n  %s\n", tier, checkout.URL)
			return err
		},
	}

	upgradeCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return upgradeCmd
}

func featureList() string {
	names := make([]string, len(entitlement.Features))
	for i, f := range entitlement.Features {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

type featureRow struct {
	Feature string                   `json:"feature" yaml:"feature"`
	Name    string                   `json:"name" yaml:"name"`
	Value   entitlement.FeatureValue `json:"value" yaml:"value"`
	Allowed bool                     `json:"allowed" yaml:"allowed"`
}

type planView struct {
	Plan           string       `json:"plan" yaml:"plan"`
	NeedsSelection bool         `json:"needsPlanSelection" yaml:"needsPlanSelection"`
	Features       []featureRow `json:"features" yaml:"features"`
}

func newPlanView(eval *entitlement.Evaluator) planView {
	tier, _ := eval.Tier()
	v := planView{Plan: string(tier), NeedsSelection: eval.NeedsPlanSelection()}
	for _, f := range entitlement.Features {
		val, _ := eval.GetFeatureValue(f)
		v.Features = append(v.Features, featureRow{
			Feature: string(f),
			Name:    f.DisplayName(),
			Value:   val,
			Allowed: val.Allows(),
		})
	}
	return v
}

func (v planView) RenderText(w io.Writer, noColor bool) error {
	fmt.Fprintf(w, "Plan: %s\n", v.Plan)
	if v.NeedsSelection {
		fmt.Fprintln(w, "No plan selected yet. Run 'hirelink plan show --all' to compare plans.")
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FEATURE\tVALUE\t")
	for _, f := range v.Features {
		mark := "✓"
		if !f.Allowed {
			mark = "✗"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, f.Value, mark)
	}
	return tw.Flush()
}

// matrixView compares every tier
type matrixView struct {
	Tiers  []entitlement.Tier `json:"tiers" yaml:"tiers"`
	Matrix entitlement.Matrix `json:"matrix" yaml:"matrix"`
}

func newMatrixView() matrixView {
	return matrixView{Tiers: entitlement.Tiers, Matrix: entitlement.Plans()}
}

func (v matrixView) RenderText(w io.Writer, noColor bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "FEATURE")
	for _, tier := range v.Tiers {
		fmt.Fprintf(tw, "\t%s", tier)
	}
	fmt.Fprintln(tw)
	for _, f := range entitlement.Features {
		fmt.Fprint(tw, f.DisplayName())
		for _, tier := range v.Tiers {
			fmt.Fprintf(tw, "\t%s", v.Matrix[tier][f])
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

type accessView struct {
	Feature string `json:"feature" yaml:"feature"`
	Name    string `json:"name" yaml:"name"`
	Plan    string `json:"plan" yaml:"plan"`
	Value   string `json:"value" yaml:"value"`
	Allowed bool   `json:"allowed" yaml:"allowed"`
}

func (v accessView) RenderText(w io.Writer, noColor bool) error {
	verdict := "included"
	if !v.Allowed {
		verdict = "not included"
	}
	_, err := fmt.Fprintf(w, "%s: %s in %s (%s)\n", v.Name, verdict, v.Plan, v.Value)
	return err
}
