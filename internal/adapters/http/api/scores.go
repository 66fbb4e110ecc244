package api

import (
	"net/http"

	"github.com/okian/dancefloor/internal/domain/ledger"
	"github.com/okian/dancefloor/internal/domain/model"
	"github.com/okian/dancefloor/pkg/metrics"
)

// ScoresHandler accepts judge score batches.
type ScoresHandler struct {
	comp    Competition
	codec   *codec
	limiter *judgeLimiter // nil disables throttling
}

// scoresRequest mirrors the body of POST /scores. Deeper checks (roles, heat
// membership, phase) happen in the ledger.
type scoresRequest struct {
	JudgeID        string   `json:"judgeId" validate:"required"`
	ParticipantIDs []string `json:"participantIds" validate:"required,min=1,dive,required"`
	Values         []int    `json:"values" validate:"required,min=1"`
	Phase          string   `json:"phase" validate:"required"`
	HeatID         string   `json:"heatId"`
}

// HandleSubmitScores handles POST /scores.
func (h *ScoresHandler) HandleSubmitScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_scores"
	var req scoresRequest
	if err := h.codec.decode(w, r, &req); err != nil {
		h.codec.fail(w, r, err)
		return
	}
	if !h.limiter.Allow(req.JudgeID) {
		metrics.RecordSubmissionThrottled()
		h.codec.fail(w, r, model.NewKindf(op, ErrRateLimited, "too many submissions from judge %s", req.JudgeID))
		return
	}

	res, err := h.comp.SubmitScores(r.Context(), ledger.Submission{
		JudgeID:        req.JudgeID,
		ParticipantIDs: req.ParticipantIDs,
		Values:         req.Values,
		Phase:          model.Phase(req.Phase),
		HeatID:         req.HeatID,
	})
	if err != nil {
		h.codec.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
