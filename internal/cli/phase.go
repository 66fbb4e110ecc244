package cli

import (
	"github.com/spf13/cobra"
)

func registerPhaseCmds(root *cobra.Command, a *app) {
	var heatsCategory, semifinalCategory string

	heats := &cobra.Command{
		Use:   "heats",
		Short: "Generate heats or pick the active heat",
	}
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Allocate every participant into heats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.GenerateHeats(cmd.Context(), heatsCategory)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}
	generate.Flags().StringVar(&heatsCategory, "category", "", "category label stored on the snapshot")

	activate := &cobra.Command{
		Use:   "activate <heatId>",
		Short: "Mark the heat being judged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client.SetActiveHeat(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}
	heats.AddCommand(generate, activate)

	advance := &cobra.Command{
		Use:   "advance",
		Short: "Move to the semifinal or the final",
	}
	semifinal := &cobra.Command{
		Use:   "semifinal",
		Short: "Freeze the semifinalists from heat scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.AdvanceToSemifinal(cmd.Context(), semifinalCategory)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}
	semifinal.Flags().StringVar(&semifinalCategory, "category", "", "category label stored on the snapshot")

	final := &cobra.Command{
		Use:   "final",
		Short: "Freeze the finalists from semifinal scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.AdvanceToFinal(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}
	advance.AddCommand(semifinal, final)

	winners := &cobra.Command{
		Use:   "winners",
		Short: "Rank the finalists and publish the podiums",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.DetermineWinners(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Delete judges, heats, scores and snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Reset(cmd.Context()); err != nil {
				return err
			}
			return writeJSON(cmd, map[string]string{"status": "ok"})
		},
	}

	root.AddCommand(heats, advance, winners, reset)
}
