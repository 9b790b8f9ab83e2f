package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/hirelink/internal/api"
	"github.com/felixgeelhaar/hirelink/internal/metrics"
	"github.com/felixgeelhaar/hirelink/internal/notification"
	"github.com/felixgeelhaar/hirelink/internal/realtime"
	"github.com/felixgeelhaar/hirelink/internal/tui"
)

func newNotificationsCommand() *cobra.Command {
	notificationsCmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif", "n"},
		Short:   "List, read and watch notifications",
	}

	notificationsCmd.AddCommand(
		newNotificationsListCommand(),
		&cobra.Command{
			Use:   "read <id>",
			Short: "Mark one notification as read",
			Args:  cobra.ExactArgs(1),
			RunE:  runNotificationsRead,
		},
		&cobra.Command{
			Use:   "read-all",
			Short: "Mark every notification as read",
			Args:  cobra.NoArgs,
			RunE:  runNotificationsReadAll,
		},
		newNotificationsWatchCommand(),
	)
	return notificationsCmd
}

func newNotificationsListCommand() *cobra.Command {
	var unreadOnly bool

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if _, err := a.requireSession(); err != nil {
				return err
			}

			fetched, err := check(a, a.client.Notifications().List(cmd.Context()))
			if err != nil {
				return err
			}

			list := notification.NewList()
			list.Replace(fetched)

			items := list.Items()
			if unreadOnly {
				items = unread(items)
			}
			return a.print(notificationTable{Items: items, Unread: list.UnreadCount()})
		},
	}

	listCmd.Flags().BoolVar(&unreadOnly, "unread", false, "show unread notifications only")
	return listCmd
}

func unread(items []api.Notification) []api.Notification {
	out := make([]api.Notification, 0, len(items))
	for _, n := range items {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out
}

func runNotificationsRead(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if _, err := a.requireSession(); err != nil {
		return err
	}

	n, err := check(a, a.client.Notifications().MarkRead(cmd.Context(), args[0]))
	if err != nil {
		return err
	}
	if a.cfg.Format != "text" {
		return a.print(n)
	}
	a.notify("Notification marked as read")
	return nil
}

func runNotificationsReadAll(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if _, err := a.requireSession(); err != nil {
		return err
	}

	if _, err := check(a, a.client.Notifications().MarkAllRead(cmd.Context())); err != nil {
		return err
	}
	a.notify("All notifications marked as read")
	return nil
}

func newNotificationsWatchCommand() *cobra.Command {
	var plain bool

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch notifications live",
		Long: `Open a live notification feed fed by the real-time channel.

Keys: ↑/↓ move, r mark read, R mark all read, d dismiss, q quit.

With --plain, or when no terminal is attached, pushed notifications are
printed one per line until interrupted.

When HIRELINK_METRICS_ADDR is set, /metrics is served on that address
while the feed is open.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if _, err := a.requireSession(); err != nil {
				return err
			}
			return a.watch(cmd.Context(), plain || !tui.IsInteractive())
		},
	}

	watchCmd.Flags().BoolVar(&plain, "plain", false, "print pushed notifications as lines instead of the interactive feed")
	return watchCmd
}

func (a *app) watch(ctx context.Context, plain bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, a.cfg.MetricsAddr, a.registry); err != nil {
				a.logger.WithError(err).Warn("metrics listener stopped", "addr", a.cfg.MetricsAddr)
			}
		}()
	}

	feed := notification.NewFeed(a.client.Notifications(), a.logger)
	defer feed.Close()

	if err := feed.Load(ctx); err != nil {
		return err
	}

	mgr := a.newManager()
	defer mgr.Stop()

	if plain {
		sub := mgr.SubscribeNotifications(func(p realtime.NotificationPayload) {
			a.printPush(p)
		})
		defer realtime.UnsubscribeAll(sub)
	}
	feed.Attach(mgr)

	if err := mgr.Start(ctx); err != nil {
		return err
	}

	if plain {
		fmt.Fprintf(a.errOut, "Watching notifications (%d unread). Press Ctrl+C to stop.\n", feed.List().UnreadCount())
		<-ctx.Done()
		return nil
	}

	p := tea.NewProgram(tui.NewModel(ctx, feed, mgr),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithOutput(a.out),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("notification feed failed: %w", err)
	}
	return nil
}

func (a *app) printPush(p realtime.NotificationPayload) {
	if a.cfg.Format != "text" {
		if err := a.print(p); err != nil {
			a.logger.WithError(err).Warn("failed to print notification")
		}
		return
	}
	fmt.Fprintf(a.out, "%s  %-20s %s\n", time.Now().Format("15:04:05"), p.Title, p.Message)
}

// notificationTable is the printable notification list
type notificationTable struct {
	Items  []api.Notification `json:"items" yaml:"items"`
	Unread int                `json:"unread" yaml:"unread"`
}

func (t notificationTable) RenderText(w io.Writer, noColor bool) error {
	if len(t.Items) == 0 {
		_, err := fmt.Fprintln(w, "No notifications")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tTYPE\tTITLE\tMESSAGE\tRECEIVED")
	for _, n := range t.Items {
		mark := " "
		if !n.Read {
			mark = "●"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			mark, n.ID, n.Type, n.Title, clip(n.Message, 60), received(n.CreatedAt))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d unread\n", t.Unread)
	return err
}

func received(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
