package cli

import (
	"github.com/spf13/cobra"

	"github.com/okian/dancefloor/internal/adapters/roster"
	"github.com/okian/dancefloor/internal/domain/model"
)

func registerViewCmds(root *cobra.Command, a *app) {
	snapshot := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the current snapshot with heats and rankings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := a.client.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd, v)
		},
	}

	history := &cobra.Command{
		Use:   "history",
		Short: "Print every snapshot, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.client.History(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd, h)
		},
	}

	var phase, heat string
	rankings := &cobra.Command{
		Use:   "rankings",
		Short: "Rank the cohort of a phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := model.ParsePhase(phase)
			if err != nil {
				return err
			}
			rs, err := a.client.Rankings(cmd.Context(), p, heat)
			if err != nil {
				return err
			}
			return writeJSON(cmd, rs)
		},
	}
	rankings.Flags().StringVar(&phase, "phase", string(model.PhaseHeats), "HEATS, SEMIFINAL or FINAL")
	rankings.Flags().StringVar(&heat, "heat", "", "limit a HEATS ranking to one heat")

	root.AddCommand(snapshot, history, rankings)
}

func registerRosterCmd(root *cobra.Command, a *app) {
	rosterCmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage participants and judges",
	}
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a YAML or JSON roster file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := roster.Load(args[0])
			if err != nil {
				return err
			}
			res, err := a.client.ImportRoster(cmd.Context(), r.Participants, r.Judges)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}
	rosterCmd.AddCommand(importCmd)
	root.AddCommand(rosterCmd)
}
