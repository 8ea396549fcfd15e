package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sharedstate/internal/config"
	"github.com/vango-dev/sharedstate/internal/errors"
)

func demoCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		clicks int
		theme  string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Click through the shared counter board",
		Long: `Mount three buttons that share one counter and click them.

Each button re-renders under a different rule:
  always  on every change
  never   only on its first render
  even    when the counter becomes even

A fourth component counts click notifications.

Examples:
  sharedstate demo
  sharedstate demo --clicks=5 --theme=dark`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clicks < 0 {
				return errors.New(errors.CodeInvalidUsage).WithDetail("--clicks must not be negative")
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			return runDemo(cmd, cfg, clicks, theme)
		},
	}

	cmd.Flags().IntVarP(&clicks, "clicks", "n", 3, "Number of clicks")
	cmd.Flags().StringVar(&theme, "theme", "", "Switch the theme after the last click")

	return cmd
}

func runDemo(cmd *cobra.Command, cfg *config.Config, clicks int, theme string) error {
	out := cmd.OutOrStdout()
	a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	a.mount()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tCOMPONENT\tOUTPUT\tRENDERS")
	a.report(tw, "mount")

	for i := 1; i <= clicks; i++ {
		a.runtime.Act(a.click)
		a.report(tw, fmt.Sprintf("click %d", i))
	}
	if theme != "" {
		a.runtime.Act(func() { a.theme.Set(theme) })
		a.report(tw, "theme")
	}
	return tw.Flush()
}

func (a *app) report(w io.Writer, step string) {
	for _, b := range a.buttons {
		fmt.Fprintf(w, "%s\t%s\t%v\t%d\n", step, b.name, b.c.Output(), b.c.Renders())
	}
	fmt.Fprintf(w, "%s\t%s\t%v\t%d\n", step, "log", a.log.Output(), a.log.Renders())
}
