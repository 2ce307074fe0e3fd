// Package cli implements shctl, the command-line popup of study-helper.
// Every command talks to a running server through the message endpoint.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/study-helper/internal/app"
	"github.com/heartmarshall/study-helper/internal/config"
	"github.com/heartmarshall/study-helper/internal/transport/message"
)

const defaultPageURL = "https://example.com/"

// options are the flags shared by every command.
type options struct {
	configPath string
	serverURL  string
	pageURL    string

	cfg *config.Config
}

// NewRootCommand builds the shctl command tree.
func NewRootCommand() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:           "shctl",
		Version:       app.BuildVersion(),
		Short:         "Study-helper control: storage, settings, lookups and page annotation",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `shctl plays the role of the extension popup against a running
study-helper server. Page-scoped commands act on the domain of --page.`,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return o.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "config file (default $CONFIG_PATH or ./config.yaml)")
	flags.StringVar(&o.serverURL, "server", "", "server base URL (default client.server_url)")
	flags.StringVar(&o.pageURL, "page", defaultPageURL, "URL of the page commands act for")

	root.AddCommand(
		newStatsCmd(o),
		newCleanupCmd(o),
		newClearCmd(o),
		newSettingsCmd(o),
		newLookupCmd(o),
		newAnnotateCmd(o),
	)
	return root
}

// Execute runs shctl and exits non-zero on error.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		printErr(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func (o *options) load() error {
	cfg, err := config.LoadFrom(o.configPath)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	if o.serverURL == "" {
		o.serverURL = cfg.Client.ServerURL
	}
	o.cfg = cfg
	return nil
}

func (o *options) client() *message.Client {
	m := message.NewHTTPMessenger(o.serverURL, o.cfg.Client.Timeout,
		message.WithRequestID(func(context.Context) string { return uuid.NewString() }),
	)
	return message.NewClient(m, o.pageURL)
}
