package api

import (
	"net/http"
)

// PhaseHandler drives competition transitions.
type PhaseHandler struct {
	comp  Competition
	codec *codec
}

type categoryRequest struct {
	Category string `json:"category" validate:"max=200"`
}

type activeHeatRequest struct {
	HeatID string `json:"heatId" validate:"required"`
}

// HandleGenerateHeats handles POST /competition/heats.
func (h *PhaseHandler) HandleGenerateHeats(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := h.codec.decode(w, r, &req); err != nil {
		h.codec.fail(w, r, err)
		return
	}
	res, err := h.comp.GenerateHeats(r.Context(), req.Category)
	if err != nil {
		h.codec.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleSetActiveHeat handles PUT /competition/heats/active.
func (h *PhaseHandler) HandleSetActiveHeat(w http.ResponseWriter, r *http.Request) {
	var req activeHeatRequest
	if err := h.codec.decode(w, r, &req); err != nil {
		h.codec.fail(w, r, err)
		return
	}
	res, err := h.comp.SetActiveHeat(r.Context(), req.HeatID)
	if err != nil {
		h.codec.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleAdvanceToSemifinal handles POST /competition/semifinal.
func (h *PhaseHandler) HandleAdvanceToSemifinal(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := h.codec.decode(w, r, &req); err != nil {
		h.codec.fail(w, r, err)
		return
	}
	res, err := h.comp.AdvanceToSemifinal(r.Context(), req.Category)
	if err != nil {
		h.codec.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleAdvanceToFinal handles POST /competition/final.
func (h *PhaseHandler) HandleAdvanceToFinal(w http.ResponseWriter, r *http.Request) {
	res, err := h.comp.AdvanceToFinal(r.Context())
	if err != nil {
		h.codec.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleDetermineWinners handles POST /competition/winners.
func (h *PhaseHandler) HandleDetermineWinners(w http.ResponseWriter, r *http.Request) {
	res, err := h.comp.DetermineWinners(r.Context())
	if err != nil {
		h.codec.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleReset handles POST /competition/reset.
func (h *PhaseHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.comp.Reset(r.Context()); err != nil {
		h.codec.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}
