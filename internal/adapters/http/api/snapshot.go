package api

import (
	"net/http"

	"github.com/okian/dancefloor/internal/domain/model"
)

// SnapshotHandler serves read views of the competition.
type SnapshotHandler struct {
	comp  Competition
	codec *codec
}

// HandleGetSnapshot handles GET /competition.
func (h *SnapshotHandler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	v, err := h.comp.Snapshot(r.Context())
	if err != nil {
		h.codec.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleGetHistory handles GET /competition/history.
func (h *SnapshotHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	hist, err := h.comp.History(r.Context())
	if err != nil {
		h.codec.fail(w, r, err)
		return
	}
	if hist == nil {
		hist = []model.Snapshot{}
	}
	writeJSON(w, http.StatusOK, hist)
}

// HandleGetRankings handles GET /competition/rankings?phase=&heatId=.
func (h *SnapshotHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rs, err := h.comp.Rankings(r.Context(), model.Phase(q.Get("phase")), q.Get("heatId"))
	if err != nil {
		h.codec.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}
