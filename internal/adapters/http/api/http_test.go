package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/eventrank/internal/adapters/http/api"
	repository "github.com/okian/eventrank/internal/adapters/repository"
	service "github.com/okian/eventrank/internal/app"
	model "github.com/okian/eventrank/internal/domain/model"
	"github.com/okian/eventrank/internal/domain/scoring"
	"github.com/okian/eventrank/internal/domain/types"
	"github.com/okian/eventrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDependencies struct {
	report    types.Report
	evalErr   error
	evaluated []model.Record

	topN    []types.Entry
	topNErr error
	asked   int

	detail    types.Detail
	detailErr error

	weights   scoring.WeightConfig
	updateErr error
}

func (m *mockDependencies) Evaluate(ctx context.Context, batch []model.Record) (types.Report, error) {
	m.evaluated = batch
	if m.evalErr != nil {
		return types.Report{}, m.evalErr
	}
	return m.report, nil
}

func (m *mockDependencies) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	m.asked = n
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockDependencies) Record(ctx context.Context, id string) (types.Detail, error) {
	if m.detailErr != nil {
		return types.Detail{}, m.detailErr
	}
	return m.detail, nil
}

func (m *mockDependencies) Weights() scoring.WeightConfig { return m.weights }

func (m *mockDependencies) UpdateWeights(ctx context.Context, w scoring.WeightConfig) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.weights = w
	return nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps api.Dependencies, stats api.StatsProvider, maxLimit int) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, stats, maxLimit).Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var resp struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.Code
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := &mockDependencies{weights: scoring.DefaultWeights()}
		stats := &mockStatsProvider{stats: map[string]interface{}{"started": true}}
		mux := newMux(deps, stats, 100)

		Convey("Then health endpoint should report ok", func() {
			w := serve(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("Then stats endpoint should return provider stats", func() {
			w := serve(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then metrics endpoint should expose the custom registry", func() {
			// Generate at least one request metric first
			serve(mux, http.MethodGet, "/healthz", "")
			w := serve(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "eventrank_")
		})

		Convey("Then wrong methods should be rejected", func() {
			So(serve(mux, http.MethodPost, "/healthz", "").Code, ShouldEqual, http.StatusNotFound)
			So(serve(mux, http.MethodGet, "/batches", "").Code, ShouldEqual, http.StatusNotFound)
			So(serve(mux, http.MethodDelete, "/weights", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestBatchesHandler(t *testing.T) {
	Convey("Given a batches endpoint", t, func() {
		deps := &mockDependencies{report: types.Report{RunID: "run-1", Found: 1, New: 1}}
		mux := newMux(deps, &mockStatsProvider{}, 100)

		Convey("When posting a valid batch", func() {
			w := serve(mux, http.MethodPost, "/batches",
				`{"records":[{"url":"https://example.com/expo","name":"Expo","startDate":"2025-06-01","priceStandEstimate":"12000.50"}]}`)

			Convey("Then the report should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var report types.Report
				So(json.Unmarshal(w.Body.Bytes(), &report), ShouldBeNil)
				So(report.RunID, ShouldEqual, "run-1")
				So(report.New, ShouldEqual, 1)
			})

			Convey("Then the records should be decoded", func() {
				So(deps.evaluated, ShouldHaveLength, 1)
				So(deps.evaluated[0].StartDate.String(), ShouldEqual, "2025-06-01")
				So(deps.evaluated[0].PriceStandEstimate.String(), ShouldEqual, "12000.5")
			})
		})

		Convey("When posting invalid JSON", func() {
			w := serve(mux, http.MethodPost, "/batches", `{"records":`)

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "bad_request")
			})
		})

		Convey("When posting an empty batch", func() {
			w := serve(mux, http.MethodPost, "/batches", `{"records":[]}`)

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When evaluation fails on weights", func() {
			deps.evalErr = fmt.Errorf("evaluate: %w", scoring.ErrInvalidWeightConfig)
			w := serve(mux, http.MethodPost, "/batches", `{"records":[{"url":"https://example.com"}]}`)

			Convey("Then it should be unprocessable", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(errorCode(w), ShouldEqual, "invalid_weights")
			})
		})

		Convey("When evaluation fails otherwise", func() {
			deps.evalErr = errors.New("boom")
			w := serve(mux, http.MethodPost, "/batches", `{"records":[{"url":"https://example.com"}]}`)

			Convey("Then it should be an internal error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestRankingsHandler(t *testing.T) {
	Convey("Given a rankings endpoint", t, func() {
		deps := &mockDependencies{topN: []types.Entry{
			{Rank: 1, ID: "a", ScoreOverall: 90},
			{Rank: 2, ID: "b", ScoreOverall: 80},
			{Rank: 2, ID: "c", ScoreOverall: 80},
		}}
		mux := newMux(deps, &mockStatsProvider{}, 50)

		Convey("When requesting with a limit", func() {
			w := serve(mux, http.MethodGet, "/rankings?limit=2", "")

			Convey("Then it should return that many entries", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var entries []types.Entry
				So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].ID, ShouldEqual, "a")
			})
		})

		Convey("When requesting without a limit", func() {
			w := serve(mux, http.MethodGet, "/rankings", "")

			Convey("Then the default limit should apply", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.asked, ShouldEqual, 10)
			})
		})

		Convey("When the limit is invalid", func() {
			for _, q := range []string{"0", "-3", "abc"} {
				w := serve(mux, http.MethodGet, "/rankings?limit="+q, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the limit exceeds the maximum", func() {
			w := serve(mux, http.MethodGet, "/rankings?limit=51", "")

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "limit_exceeded")
			})
		})

		Convey("When the store fails", func() {
			deps.topNErr = errors.New("store down")
			w := serve(mux, http.MethodGet, "/rankings?limit=1", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestRecordsHandler(t *testing.T) {
	Convey("Given a records endpoint", t, func() {
		deps := &mockDependencies{detail: types.Detail{Rank: 4, Band: "good", Record: model.Record{ID: "evt-9", Name: "Expo"}}}
		mux := newMux(deps, &mockStatsProvider{}, 100)

		Convey("When fetching a known record", func() {
			w := serve(mux, http.MethodGet, "/records/evt-9", "")

			Convey("Then it should return the detail", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var detail types.Detail
				So(json.Unmarshal(w.Body.Bytes(), &detail), ShouldBeNil)
				So(detail.Rank, ShouldEqual, 4)
				So(detail.Record.ID, ShouldEqual, "evt-9")
			})
		})

		Convey("When fetching an unknown record", func() {
			deps.detailErr = fmt.Errorf("rank %q: %w", "nope", repository.ErrNotFound)
			w := serve(mux, http.MethodGet, "/records/nope", "")

			Convey("Then it should be not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(errorCode(w), ShouldEqual, "not_found")
			})
		})

		Convey("When the path is malformed", func() {
			So(serve(mux, http.MethodGet, "/records/", "").Code, ShouldEqual, http.StatusBadRequest)
			So(serve(mux, http.MethodGet, "/records/a/b", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestWeightsHandler(t *testing.T) {
	Convey("Given a weights endpoint", t, func() {
		deps := &mockDependencies{weights: scoring.DefaultWeights()}
		mux := newMux(deps, &mockStatsProvider{}, 100)

		Convey("When reading the weights", func() {
			w := serve(mux, http.MethodGet, "/weights", "")

			Convey("Then the active weights should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"icp":0.3`)
			})
		})

		Convey("When replacing with valid weights", func() {
			w := serve(mux, http.MethodPut, "/weights",
				`{"icp":0.25,"competitors":0.25,"audience":0.2,"speaking":0.1,"commercials":0.1,"timing":0.1}`)

			Convey("Then they should be applied", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.weights.Map()["icp"], ShouldAlmostEqual, 0.25, 1e-9)
			})
		})

		Convey("When the weights do not sum to one", func() {
			w := serve(mux, http.MethodPut, "/weights",
				`{"icp":0.5,"competitors":0.25,"audience":0.2,"speaking":0.1,"commercials":0.1,"timing":0.1}`)

			Convey("Then they should be rejected unchanged", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(deps.weights.Map()["icp"], ShouldAlmostEqual, 0.30, 1e-9)
			})
		})

		Convey("When the body is not JSON", func() {
			w := serve(mux, http.MethodPut, "/weights", `nope`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestErrorKinds(t *testing.T) {
	Convey("Given domain errors", t, func() {
		Convey("Then Wrap should infer the kind", func() {
			So(errors.Is(api.Wrap("op", repository.ErrNotFound), api.ErrNotFound), ShouldBeTrue)
			So(errors.Is(api.Wrap("op", repository.ErrInvalidLimit), api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(api.Wrap("op", scoring.ErrInvalidWeightConfig), api.ErrInvalidWeights), ShouldBeTrue)
			So(errors.Is(api.Wrap("op", errors.New("x")), api.ErrInternal), ShouldBeTrue)
		})

		Convey("Then the cause should remain reachable", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, repository.ErrNotFound)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: record not found")
			So(api.NewKind("api.op", api.ErrNotFound).Error(), ShouldEqual, "api.op: not found")
		})
	})
}

func TestAPIWithService(t *testing.T) {
	Convey("Given the API over a started service", t, func() {
		svc := service.New(
			service.WithLogger(logger.Nop()),
			service.WithClock(func() time.Time { return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC) }),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc, svc, 100)

		Convey("When posting a batch and reading the ranking", func() {
			body, _ := json.Marshal(map[string]any{"records": []map[string]any{
				{"url": "https://alpha.example.com", "name": "Alpha", "startDate": "2025-03-15"},
				{"url": "https://beta.example.com", "name": "Beta"},
				{"name": "Broken"},
			}})
			req := httptest.NewRequest(http.MethodPost, "/batches", bytes.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)

			var report types.Report
			So(json.Unmarshal(w.Body.Bytes(), &report), ShouldBeNil)

			Convey("Then the report should count new and malformed records", func() {
				So(report.New, ShouldEqual, 2)
				So(report.Malformed, ShouldEqual, 1)
			})

			Convey("Then the ranking should list the best record first", func() {
				rw := serve(mux, http.MethodGet, "/rankings?limit=5", "")
				So(rw.Code, ShouldEqual, http.StatusOK)
				var entries []types.Entry
				So(json.Unmarshal(rw.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].Name, ShouldEqual, "Alpha")
			})

			Convey("Then each record should be retrievable", func() {
				rw := serve(mux, http.MethodGet, "/records/"+report.Records[0].ID, "")
				So(rw.Code, ShouldEqual, http.StatusOK)
				So(rw.Body.String(), ShouldContainSubstring, `"breakdown"`)
			})
		})
	})
}
