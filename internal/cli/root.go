// Package cli implements dancectl, the admin command line for a running
// competition server.
package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/dancefloor/internal/client"
)

const (
	defaultURL     = "http://localhost:9080"
	defaultTimeout = 10 * time.Second
)

// app carries the global flags and the client built from them.
type app struct {
	url     string
	timeout time.Duration
	client  *client.Client
}

// NewRootCommand builds the dancectl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "dancectl",
		Short:         "Drive a dance competition server",
		Long:          `dancectl moves a competition through heats, semifinal and final, submits judge scores and prints the current state.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			c, err := client.New(a.url, client.WithTimeout(a.timeout))
			if err != nil {
				return err
			}
			a.client = c
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.url, "url", defaultURL, "competition server base URL")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", defaultTimeout, "per-request timeout")

	registerPhaseCmds(root, a)
	registerScoresCmd(root, a)
	registerViewCmds(root, a)
	registerRosterCmd(root, a)
	return root
}

// writeJSON writes v as indented JSON to the command output.
func writeJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
