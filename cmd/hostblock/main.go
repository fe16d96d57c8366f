package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hostblock/internal/bootstrap"
	sessiondto "hostblock/internal/modules/session/dto"
	"hostblock/internal/platform/config"
	"hostblock/internal/platform/timefmt"
)

const maxDomainsShown = 5

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, dbPath string

	root := &cobra.Command{
		Use:           "hostblock",
		Short:         "Hosts-file domain blocker with timed unblock sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "session database path")

	paths := func() (string, string) { return configPath, dbPath }
	root.AddCommand(newStatusCmd(paths))
	root.AddCommand(newUnblockCmd(paths))
	root.AddCommand(newBypassCmd(paths))
	root.AddCommand(newPeekCmd(paths))
	root.AddCommand(newCancelCmd(paths))
	root.AddCommand(newExtendCmd(paths))
	root.AddCommand(newReplaceCmd(paths))
	root.AddCommand(newTargetsCmd(paths))
	root.AddCommand(newPenaltyCmd(paths))
	root.AddCommand(newDaemonCmd(paths))
	root.AddCommand(newSinksCmd(paths))
	root.AddCommand(newTUICmd(paths))
	return root
}

type pathFn func() (configPath, dbPath string)

func loadApp(ctx context.Context, paths pathFn) (*bootstrap.App, error) {
	configPath, dbPath := paths()
	cfg, err := config.New(configPath, dbPath)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg, bootstrap.Options{})
}

func newStatusCmd(paths pathFn) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show active, pending, and queued sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, paths)
			if err != nil {
				return err
			}
			status, err := app.SessionCLI.Status(ctx)
			if err != nil {
				return err
			}
			printStatus(cmd, status)
			return nil
		},
	}
}

func newUnblockCmd(paths pathFn) *cobra.Command {
	var profile, replaceRef string
	var wait, duration float64
	var acceptQueue bool

	cmd := &cobra.Command{
		Use:   "unblock TARGET...",
		Short: "Request a timed unblock session for targets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, paths)
			if err != nil {
				return err
			}
			if replaceRef != "" {
				out, err := app.SessionCLI.Replace(ctx, replaceRef, args)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "replaced session %d: %s starts in %s\n",
					out.ID, sessionLabel(out), timefmt.Remaining(out.WaitRemaining))
				return nil
			}

			input := sessiondto.UnblockInput{
				Profile:     profile,
				Targets:     args,
				AcceptQueue: acceptQueue,
			}
			if cmd.Flags().Changed("wait") {
				input.WaitMinutes = &wait
			}
			if cmd.Flags().Changed("duration") {
				input.DurationMinutes = &duration
			}
			return runUnblock(cmd, app, input)
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "unblock profile (defaults to configured default)")
	cmd.Flags().Float64VarP(&wait, "wait", "w", 0, "override wait in minutes")
	cmd.Flags().Float64VarP(&duration, "duration", "d", 0, "override duration in minutes")
	cmd.Flags().StringVarP(&replaceRef, "replace", "r", "", "replace a pending session (id or name) with these targets")
	cmd.Flags().BoolVar(&acceptQueue, "queue", false, "queue behind active sessions without prompting")
	return cmd
}

func newBypassCmd(paths pathFn) *cobra.Command {
	return newProfileShorthandCmd(paths, "bypass", "Short unblock that skips the wait, rate limited by cooldown")
}

func newPeekCmd(paths pathFn) *cobra.Command {
	return newProfileShorthandCmd(paths, "peek", "Brief non-extendable look at targets")
}

func newProfileShorthandCmd(paths pathFn, profile, short string) *cobra.Command {
	var acceptQueue bool
	cmd := &cobra.Command{
		Use:   profile + " TARGET...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, paths)
			if err != nil {
				return err
			}
			return runUnblock(cmd, app, sessiondto.UnblockInput{
				Profile:     profile,
				Targets:     args,
				AcceptQueue: acceptQueue,
			})
		},
	}
	cmd.Flags().BoolVar(&acceptQueue, "queue", false, "queue behind active sessions without prompting")
	return cmd
}

// runUnblock submits the request and walks the outcome: created and queued
// sessions print, skipped targets print, and queue offers prompt before a
// second accepting request is made for just the offered targets.
func runUnblock(cmd *cobra.Command, app *bootstrap.App, input sessiondto.UnblockInput) error {
	ctx := cmd.Context()
	out, err := app.SessionCLI.Unblock(ctx, input)
	if err != nil {
		return err
	}
	printUnblock(cmd, out)

	if len(out.Offers) == 0 {
		return nil
	}
	offered := make([]string, 0, len(out.Offers))
	for _, offer := range out.Offers {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is already unblocked in session %d (%s remaining)\n",
			offer.Target, offer.SessionID, timefmt.Remaining(offer.Remaining))
		offered = append(offered, offer.Target)
	}
	if !confirm(cmd, fmt.Sprintf("Queue %s to unblock after the current session ends?", strings.Join(offered, ", "))) {
		return nil
	}
	retry := input
	retry.Targets = offered
	retry.AcceptQueue = true
	queued, err := app.SessionCLI.Unblock(ctx, retry)
	if err != nil {
		return err
	}
	printUnblock(cmd, queued)
	return nil
}

func newCancelCmd(paths pathFn) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [ID|NAME]",
		Short: "Cancel sessions (all active and pending when no argument)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, paths)
			if err != nil {
				return err
			}
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			cancelled, err := app.SessionCLI.Cancel(ctx, ref)
			if err != nil {
				return err
			}
			if len(cancelled) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions to cancel")
				return nil
			}
			for _, s := range cancelled {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cancelled session %d: %s\n", s.ID, sessionLabel(s))
			}
			return nil
		},
	}
}

func newExtendCmd(paths pathFn) *cobra.Command {
	return &cobra.Command{
		Use:   "extend ID MINUTES",
		Short: "Extend an active session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes, err := strconv.ParseFloat(args[1], 64)
			if err != nil || minutes <= 0 {
				return fmt.Errorf("MINUTES must be a positive number")
			}
			ctx := cmd.Context()
			app, err := loadApp(ctx, paths)
			if err != nil {
				return err
			}
			out, err := app.SessionCLI.Extend(ctx, args[0], minutes)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "extended session %d: %s left\n",
				out.ID, timefmt.Remaining(out.Remaining))
			return nil
		},
	}
}

func newReplaceCmd(paths pathFn) *cobra.Command {
	return &cobra.Command{
		Use:   "replace OLD NEW...",
		Short: "Swap a pending session's targets, keeping its timer",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, paths)
			if err != nil {
				return err
			}
			out, err := app.SessionCLI.Replace(ctx, args[0], args[1:])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "replaced session %d: %s starts in %s\n",
				out.ID, sessionLabel(out), timefmt.Remaining(out.WaitRemaining))
			return nil
		},
	}
}

func newTargetsCmd(paths pathFn) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List configured domains and groups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, paths)
			if err != nil {
				return err
			}
			targets, err := app.BlocklistCLI.ListTargets(ctx)
			if err != nil {
				return err
			}
			for _, t := range targets {
				line := t.Name
				if len(t.Domains) > 1 || t.Domains[0] != t.Name {
					line += "\t" + domainsLabel(t.Domains)
				}
				if len(t.Tags) > 0 {
					line += "\t[" + strings.Join(t.Tags, ",") + "]"
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

func newPenaltyCmd(paths pathFn) *cobra.Command {
	return &cobra.Command{
		Use:   "penalty",
		Short: "Show the progressive penalty for the current period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, paths)
			if err != nil {
				return err
			}
			p, err := app.SessionCLI.Penalty(ctx)
			if err != nil {
				return err
			}
			if !p.Enabled {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "progressive penalty disabled")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d unblocks this period, +%.1f minutes added to waits (resets %s)\n",
				p.Count, p.PenaltyMinutes, p.NextReset.Format("15:04"))
			return nil
		},
	}
}

func newDaemonCmd(paths pathFn) *cobra.Command {
	var interval time.Duration
	var once bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the enforcement loop in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			configPath, dbPath := paths()
			cfg, err := config.New(configPath, dbPath)
			if err != nil {
				return err
			}
			app, err := bootstrap.New(ctx, cfg, bootstrap.Options{DaemonInterval: interval})
			if err != nil {
				return err
			}
			if once {
				return app.EnforceCLI.ApplyOnce(ctx)
			}
			return app.EnforceCLI.Run(ctx)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "reconcile interval (default 10s)")
	cmd.Flags().BoolVar(&once, "once", false, "reconcile and apply a single time, then exit")
	return cmd
}

func newSinksCmd(paths pathFn) *cobra.Command {
	return &cobra.Command{
		Use:   "sinks",
		Short: "List configured enforcement sinks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, paths)
			if err != nil {
				return err
			}
			sinks, err := app.EnforceCLI.ListSinks(ctx)
			if err != nil {
				return err
			}
			if len(sinks) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no plugin sinks configured")
				return nil
			}
			for _, s := range sinks {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s@%s enabled=%t binary=%s\n", s.Name, s.Version, s.Enabled, s.Binary)
			}
			return nil
		},
	}
}

func newTUICmd(paths pathFn) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Watch session status live",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), paths)
			if err != nil {
				return err
			}
			return bootstrap.RunTUI(app)
		},
	}
}

func printUnblock(cmd *cobra.Command, out sessiondto.UnblockOutput) {
	w := cmd.OutOrStdout()
	for _, s := range out.Created {
		if s.WaitRemaining > 0 {
			_, _ = fmt.Fprintf(w, "session %d: %s starts in %s, ends %s\n",
				s.ID, sessionLabel(s), timefmt.Remaining(s.WaitRemaining), s.EndTime.Format("15:04"))
		} else {
			_, _ = fmt.Fprintf(w, "session %d: %s unblocked until %s\n",
				s.ID, sessionLabel(s), s.EndTime.Format("15:04"))
		}
	}
	for _, s := range out.Queued {
		_, _ = fmt.Fprintf(w, "session %d: %s queued, starts when the covering session ends\n",
			s.ID, sessionLabel(s))
	}
	for _, skipped := range out.Skipped {
		_, _ = fmt.Fprintf(w, "%s already requested in session %d (starts in %s), skipped\n",
			skipped.Target, skipped.SessionID, timefmt.Remaining(skipped.Remaining))
	}
	if out.PenaltyMinutes > 0 && len(out.Created) > 0 {
		_, _ = fmt.Fprintf(w, "waits include a +%.1f minute penalty for this period's unblocks\n", out.PenaltyMinutes)
	}
}

func printStatus(cmd *cobra.Command, status sessiondto.StatusOutput) {
	w := cmd.OutOrStdout()
	printSessionSection(cmd, "active", status.Active, func(s sessiondto.SessionOutput) string {
		return timefmt.Remaining(s.Remaining) + " left"
	})
	printSessionSection(cmd, "pending", status.Pending, func(s sessiondto.SessionOutput) string {
		return "starts in " + timefmt.Remaining(s.WaitRemaining)
	})
	printSessionSection(cmd, "queued", status.Queued, func(s sessiondto.SessionOutput) string {
		return "waiting for " + domainsLabel(s.Domains)
	})
	for _, c := range status.Cooldowns {
		_, _ = fmt.Fprintf(w, "cooldown %s: %s\n", c.Profile, timefmt.Remaining(c.Remaining))
	}
	if status.Penalty.Enabled && status.Penalty.Count > 0 {
		_, _ = fmt.Fprintf(w, "penalty: %d unblocks this period, +%.1f minutes\n",
			status.Penalty.Count, status.Penalty.PenaltyMinutes)
	}
	if status.AllDomainsOpen {
		_, _ = fmt.Fprintln(w, "ALL DOMAINS UNBLOCKED")
	}
}

func printSessionSection(cmd *cobra.Command, label string, sessions []sessiondto.SessionOutput, detail func(sessiondto.SessionOutput) string) {
	w := cmd.OutOrStdout()
	if len(sessions) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "%s:\n", label)
	for _, s := range sessions {
		_, _ = fmt.Fprintf(w, "  %d  %s  %s\n", s.ID, sessionLabel(s), detail(s))
	}
}

func sessionLabel(s sessiondto.SessionOutput) string {
	if s.TargetName != "" {
		return s.TargetName
	}
	return domainsLabel(s.Domains)
}

func domainsLabel(domains []string) string {
	if len(domains) <= maxDomainsShown {
		return strings.Join(domains, ", ")
	}
	return strings.Join(domains[:maxDomainsShown], ", ") +
		fmt.Sprintf(" +%d more", len(domains)-maxDomainsShown)
}

// confirm asks on stdin and treats anything but an explicit yes as no.
func confirm(cmd *cobra.Command, prompt string) bool {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
