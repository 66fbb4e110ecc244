package api

import (
	"net/http"

	"github.com/okian/dancefloor/internal/adapters/roster"
)

// RosterHandler imports participants and judges.
type RosterHandler struct {
	comp  Competition
	codec *codec
}

// HandleImportRoster handles POST /roster.
func (h *RosterHandler) HandleImportRoster(w http.ResponseWriter, r *http.Request) {
	var req roster.File
	if err := h.codec.decode(w, r, &req); err != nil {
		h.codec.fail(w, r, err)
		return
	}
	rs, err := req.Normalize()
	if err != nil {
		h.codec.fail(w, r, err)
		return
	}
	res, err := h.comp.ImportRoster(r.Context(), rs.Participants, rs.Judges)
	if err != nil {
		h.codec.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
