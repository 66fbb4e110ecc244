package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/dancefloor/internal/domain/ledger"
	"github.com/okian/dancefloor/internal/domain/model"
)

func registerScoresCmd(root *cobra.Command, a *app) {
	var judge, phase, heat string

	scores := &cobra.Command{
		Use:   "scores",
		Short: "Submit judge scores",
	}
	submit := &cobra.Command{
		Use:     "submit participant=value...",
		Short:   "Submit one judge's scores for the current phase",
		Example: "  dancectl scores submit --judge j1 --phase HEATS --heat <heatId> l01=8 l02=6",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := parseSubmission(judge, phase, heat, args)
			if err != nil {
				return err
			}
			res, err := a.client.SubmitScores(cmd.Context(), sub)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}
	submit.Flags().StringVar(&judge, "judge", "", "judge id")
	submit.Flags().StringVar(&phase, "phase", "", "HEATS, SEMIFINAL or FINAL")
	submit.Flags().StringVar(&heat, "heat", "", "heat id, required in HEATS")
	_ = submit.MarkFlagRequired("judge")
	_ = submit.MarkFlagRequired("phase")

	scores.AddCommand(submit)
	root.AddCommand(scores)
}

// parseSubmission turns participant=value pairs into a submission. Range
// and membership checks are left to the server.
func parseSubmission(judge, phase, heat string, pairs []string) (ledger.Submission, error) {
	p, err := model.ParsePhase(phase)
	if err != nil {
		return ledger.Submission{}, err
	}
	sub := ledger.Submission{
		JudgeID:        judge,
		Phase:          p,
		HeatID:         heat,
		ParticipantIDs: make([]string, 0, len(pairs)),
		Values:         make([]int, 0, len(pairs)),
	}
	for _, pair := range pairs {
		id, raw, ok := strings.Cut(pair, "=")
		if !ok || id == "" {
			return ledger.Submission{}, fmt.Errorf("score %q: want participant=value", pair)
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return ledger.Submission{}, fmt.Errorf("score %q: %w", pair, err)
		}
		sub.ParticipantIDs = append(sub.ParticipantIDs, id)
		sub.Values = append(sub.Values, v)
	}
	return sub, nil
}
