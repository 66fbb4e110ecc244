package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/dancefloor/internal/adapters/http/api"
	"github.com/okian/dancefloor/internal/adapters/repository"
	"github.com/okian/dancefloor/internal/domain/competition"
	. "github.com/smartystreets/goconvey/convey"
)

const rosterBody = `{
  "participants": [
    {"id": "l1", "name": "Ana", "role": "leader", "number": 1},
    {"id": "l2", "name": "Bo", "role": "leader", "number": 2},
    {"id": "f1", "name": "Cy", "role": "follower", "number": 3},
    {"id": "f2", "name": "Di", "role": "follower", "number": 4}
  ],
  "judges": [
    {"id": "jl", "name": "Judge L", "role": "LEADER"},
    {"id": "jf", "name": "Judge F", "role": "FOLLOWER"}
  ]
}`

type mockStatsProvider struct{}

func (mockStatsProvider) GetStats() map[string]any { return map[string]any{"phase": "HEATS"} }

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&out)
	return out
}

func newHandler(opts ...api.Option) http.Handler {
	comp := competition.New(repository.NewMemoryStore())
	return api.NewServer(comp, mockStatsProvider{}, opts...).Handler()
}

func TestServer_Routes(t *testing.T) {
	Convey("Given an API server over an empty competition", t, func() {
		h := newHandler()

		Convey("When the health and stats endpoints are called", func() {
			health := do(h, http.MethodGet, "/healthz", "")
			stats := do(h, http.MethodGet, "/stats", "")

			Convey("Then both answer 200", func() {
				So(health.Code, ShouldEqual, http.StatusOK)
				So(decode(health)["status"], ShouldEqual, "ok")
				So(stats.Code, ShouldEqual, http.StatusOK)
				So(decode(stats)["phase"], ShouldEqual, "HEATS")
			})
		})

		Convey("When a roster is imported", func() {
			w := do(h, http.MethodPost, "/roster", rosterBody)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["participants"], ShouldEqual, 4.0)

			Convey("And heats are generated", func() {
				w := do(h, http.MethodPost, "/competition/heats", `{"category":"Novice"}`)

				Convey("Then one heat of two couples exists", func() {
					So(w.Code, ShouldEqual, http.StatusOK)
					body := decode(w)
					So(body["heatCount"], ShouldEqual, 1.0)
					So(body["coupleCount"], ShouldEqual, 2.0)
				})

				Convey("Then the snapshot view lists the heat", func() {
					w := do(h, http.MethodGet, "/competition", "")
					So(w.Code, ShouldEqual, http.StatusOK)
					body := decode(w)
					So(body["snapshot"].(map[string]any)["phase"], ShouldEqual, "HEATS")
					So(body["snapshot"].(map[string]any)["category"], ShouldEqual, "Novice")
					heats := body["heats"].([]any)
					So(len(heats), ShouldEqual, 1)

					heatID := heats[0].(map[string]any)["id"].(string)
					active := do(h, http.MethodPut, "/competition/heats/active", `{"heatId":"`+heatID+`"}`)
					So(active.Code, ShouldEqual, http.StatusOK)
					So(decode(active)["activeHeatId"], ShouldEqual, heatID)

					scores := do(h, http.MethodPost, "/scores",
						`{"judgeId":"jl","participantIds":["l1","l2"],"values":[9,7],"phase":"HEATS","heatId":"`+heatID+`"}`)
					So(scores.Code, ShouldEqual, http.StatusOK)
					So(decode(scores)["acceptedCount"], ShouldEqual, 2.0)

					ranks := do(h, http.MethodGet, "/competition/rankings?phase=HEATS&heatId="+heatID, "")
					So(ranks.Code, ShouldEqual, http.StatusOK)
					leaders := decode(ranks)["leaders"].([]any)
					So(leaders[0].(map[string]any)["participant"].(map[string]any)["id"], ShouldEqual, "l1")
				})

				Convey("Then a follower score from a leader judge is rejected", func() {
					view := decode(do(h, http.MethodGet, "/competition", ""))
					heatID := view["heats"].([]any)[0].(map[string]any)["id"].(string)
					w := do(h, http.MethodPost, "/scores",
						`{"judgeId":"jl","participantIds":["f1"],"values":[9],"phase":"HEATS","heatId":"`+heatID+`"}`)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(decode(w)["code"], ShouldEqual, api.CodeValidation)
				})
			})
		})

		Convey("When the final is requested during HEATS", func() {
			w := do(h, http.MethodPost, "/competition/final", "")

			Convey("Then it conflicts with the phase", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decode(w)["code"], ShouldEqual, api.CodeInvalidPhase)
			})
		})

		Convey("When an unknown heat is activated", func() {
			w := do(h, http.MethodPut, "/competition/heats/active", `{"heatId":"missing"}`)

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode(w)["code"], ShouldEqual, api.CodeNotFound)
			})
		})

		Convey("When requests are malformed", func() {
			cases := []struct{ method, path, body string }{
				{http.MethodPut, "/competition/heats/active", `{}`},
				{http.MethodPost, "/competition/heats", `{"category":`},
				{http.MethodPost, "/competition/heats", `{"colour":"red"}`},
				{http.MethodPost, "/scores", `{"judgeId":"jl","participantIds":[],"values":[],"phase":"HEATS"}`},
				{http.MethodPost, "/roster", `{"participants":[{"id":"x","name":"X","role":"captain","number":1}]}`},
				{http.MethodGet, "/competition/rankings?phase=QUARTERFINAL", ""},
			}

			Convey("Then each answers 400 validation_error", func() {
				for _, c := range cases {
					w := do(h, c.method, c.path, c.body)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(decode(w)["code"], ShouldEqual, api.CodeValidation)
				}
			})
		})

		Convey("When the competition is reset", func() {
			w := do(h, http.MethodPost, "/competition/reset", "")

			Convey("Then it acknowledges and history holds one snapshot", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["status"], ShouldEqual, "ok")
				hist := do(h, http.MethodGet, "/competition/history", "")
				var snaps []map[string]any
				So(json.Unmarshal(hist.Body.Bytes(), &snaps), ShouldBeNil)
				So(len(snaps), ShouldEqual, 1)
				So(snaps[0]["phase"], ShouldEqual, "HEATS")
			})
		})
	})
}

func TestServer_SubmitRateLimit(t *testing.T) {
	Convey("Given a server allowing one submission per judge", t, func() {
		h := newHandler(api.WithSubmitRateLimit(0.001, 1))
		So(do(h, http.MethodPost, "/roster", rosterBody).Code, ShouldEqual, http.StatusOK)
		So(do(h, http.MethodPost, "/competition/semifinal", "").Code, ShouldEqual, http.StatusOK)

		Convey("When the same judge submits twice", func() {
			body := `{"judgeId":"jl","participantIds":["l1"],"values":[5],"phase":"SEMIFINAL"}`
			first := do(h, http.MethodPost, "/scores", body)
			second := do(h, http.MethodPost, "/scores", body)
			other := do(h, http.MethodPost, "/scores", `{"judgeId":"jf","participantIds":["f1"],"values":[5],"phase":"SEMIFINAL"}`)

			Convey("Then the second is throttled and other judges are not", func() {
				// The semifinal cohort is empty without heats, so the first
				// call is rejected by the competition, not by the limiter.
				So(first.Code, ShouldEqual, http.StatusBadRequest)
				So(second.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode(second)["code"], ShouldEqual, api.CodeRateLimited)
				So(other.Code, ShouldNotEqual, http.StatusTooManyRequests)
			})
		})
	})
}

func TestServer_LimitsAndHealth(t *testing.T) {
	Convey("Given a server with a small body cap and a failing dependency", t, func() {
		h := newHandler(api.WithMaxRequestBytes(64), api.WithPinger(failingPinger{}))

		Convey("When a large body is posted", func() {
			w := do(h, http.MethodPost, "/roster", rosterBody)

			Convey("Then it is rejected as invalid", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When health is checked", func() {
			w := do(h, http.MethodGet, "/healthz", "")

			Convey("Then storage is reported unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decode(w)["code"], ShouldEqual, api.CodeStorageUnavailable)
			})
		})
	})
}
