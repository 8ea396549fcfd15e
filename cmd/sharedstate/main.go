package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sharedstate/internal/config"
	"github.com/vango-dev/sharedstate/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┬ ┬┌─┐┬─┐┌─┐┌┬┐┌─┐┌┬┐┌─┐┌┬┐┌─┐
  └─┐├─┤├─┤├┬┘├┤  ││└─┐ │ ├─┤ │ ├┤
  └─┘┴ ┴┴ ┴┴└─└─┘─┴┘└─┘ ┴ ┴ ┴ ┴ └─┘
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "sharedstate",
		Short: "Shared state for component trees",
		Long: `sharedstate runs and inspects shared state bound to components.

Components subscribe to a shared value and re-render when it changes.
This tool ships a demo board and a development inspector:

  • demo   click through three buttons sharing one counter
  • serve  run the board with the HTTP/WebSocket inspector
  • init   write a default sharedstate.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: sharedstate.json or sharedstate.yaml in the working directory)")

	load := func() (*config.Config, error) {
		if configPath != "" {
			return config.LoadFile(configPath)
		}
		return config.LoadOptional(".")
	}

	rootCmd.AddCommand(
		initCmd(),
		demoCmd(load),
		serveCmd(load),
		versionCmd(),
	)
	return rootCmd
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
