// Package cli is the cbdesk command line: the HTTP service plus one-shot
// valuation and quote lookups.
package cli

import (
	"github.com/spf13/cobra"

	"CBDesk/internal/di"
	"CBDesk/pkg/config"
	"CBDesk/pkg/server"
)

// Version is set at build time.
var Version = "dev"

// Wiring builds the dependency graphs the commands run on.
type Wiring struct {
	App      func(*config.Config) (*server.App, func(), error)
	Services func(*config.Config) (*di.Services, func(), error)
}

// DefaultWiring uses the generated injectors.
func DefaultWiring() Wiring {
	return Wiring{App: di.InitializeApp, Services: di.InitializeServices}
}

func NewRootCmd(w Wiring) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "cbdesk",
		Short:         "Convertible bond valuation desk",
		Long:          "Parity, premium and reverse auction analysis for Taiwan convertible bonds, with spot and conversion terms fetched from public quote sources.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (built-in defaults when empty)")
	root.PersistentFlags().Bool("json", false, "print JSON")

	load := func() (*config.Config, error) {
		return config.LoadWithEnv(configPath)
	}

	root.AddCommand(
		newServeCmd(w, load),
		newValueCmd(w, load),
		newQuoteCmd(w, load),
		newTermsCmd(w, load),
	)
	return root
}
