package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sristy17/insider-Threat-Detection/internal/adapters/http/api"
	"github.com/sristy17/insider-Threat-Detection/internal/adapters/repository"
	service "github.com/sristy17/insider-Threat-Detection/internal/app"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// stubDeps satisfies api.Dependencies with canned data.
type stubDeps struct {
	entries []model.Entry
	history []model.BatchProgress
	stats   service.Stats
	done    bool
}

func (s *stubDeps) TopN(_ context.Context, n int) ([]model.Entry, error) {
	if n > len(s.entries) {
		n = len(s.entries)
	}
	return s.entries[:n], nil
}

func (s *stubDeps) Rank(_ context.Context, id string) (model.Entry, error) {
	for _, e := range s.entries {
		if e.EmployeeID == id {
			return e, nil
		}
	}
	return model.Entry{}, fmt.Errorf("%w: %s", repository.ErrNotFound, id)
}

func (s *stubDeps) Entity(ctx context.Context, id string) (service.EntityDetail, error) {
	entry, err := s.Rank(ctx, id)
	if err != nil {
		return service.EntityDetail{}, err
	}
	return service.EntityDetail{
		Entry:     entry,
		SubScores: map[string]float64{model.ModelIsolationForest: 0.8},
		Breakdown: map[string]float64{model.ModelIsolationForest: 62.5},
	}, nil
}

func (s *stubDeps) Stats(_ context.Context) service.Stats { return s.stats }

func (s *stubDeps) Progress(_ context.Context) []model.BatchProgress { return s.history }

func (s *stubDeps) Done(_ context.Context) bool { return s.done }

func newTestServer(deps *stubDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, 100).Register(mux)
	return httptest.NewServer(mux)
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestScoresEndpoint(t *testing.T) {
	Convey("Given an API over three ranked employees", t, func() {
		deps := &stubDeps{entries: []model.Entry{
			{Rank: 1, EmployeeID: "emp-c", Score: 100, Tier: model.TierCritical},
			{Rank: 2, EmployeeID: "emp-a", Score: 55, Tier: model.TierHigh},
			{Rank: 3, EmployeeID: "emp-b", Score: 0, Tier: model.TierLow},
		}}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When fetching with an explicit limit", func() {
			var got []model.Entry
			status := get(t, srv.URL+"/scores?limit=2", &got)

			Convey("Then the top entries come back in rank order", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(got, ShouldHaveLength, 2)
				So(got[0].EmployeeID, ShouldEqual, "emp-c")
				So(got[1].EmployeeID, ShouldEqual, "emp-a")
			})
		})

		Convey("When the limit is missing", func() {
			var got []model.Entry
			status := get(t, srv.URL+"/scores", &got)
			So(status, ShouldEqual, http.StatusOK)
			So(got, ShouldHaveLength, 3)
		})

		Convey("When the limit is malformed", func() {
			So(get(t, srv.URL+"/scores?limit=zero", nil), ShouldEqual, http.StatusBadRequest)
			So(get(t, srv.URL+"/scores?limit=0", nil), ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the limit exceeds the configured maximum", func() {
			So(get(t, srv.URL+"/scores?limit=101", nil), ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestEntityEndpoint(t *testing.T) {
	Convey("Given an API with one employee", t, func() {
		deps := &stubDeps{entries: []model.Entry{
			{Rank: 1, EmployeeID: "emp-a", Score: 50, Tier: model.TierHigh},
		}}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When fetching a known employee", func() {
			var got map[string]any
			status := get(t, srv.URL+"/entity/emp-a", &got)

			Convey("Then entry, sub-scores, and breakdown are present", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(got["employee_id"], ShouldEqual, "emp-a")
				So(got["sub_scores"], ShouldNotBeNil)
				So(got["breakdown"], ShouldNotBeNil)
			})
		})

		Convey("When fetching an unknown employee", func() {
			So(get(t, srv.URL+"/entity/emp-zz", nil), ShouldEqual, http.StatusNotFound)
		})

		Convey("When the id is missing", func() {
			So(get(t, srv.URL+"/entity/", nil), ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given an API with population statistics", t, func() {
		deps := &stubDeps{stats: service.Stats{
			TotalEntities: 12,
			TotalBatches:  3,
			TierCounts:    map[model.Tier]int{model.TierCritical: 2},
			MaxScore:      100,
		}}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When fetching stats", func() {
			var got service.Stats
			status := get(t, srv.URL+"/stats", &got)

			Convey("Then the summary round-trips", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(got.TotalEntities, ShouldEqual, 12)
				So(got.TotalBatches, ShouldEqual, 3)
				So(got.TierCounts[model.TierCritical], ShouldEqual, 2)
			})
		})
	})
}

func TestProgressEndpoint(t *testing.T) {
	Convey("Given an API with two completed batches", t, func() {
		deps := &stubDeps{
			history: []model.BatchProgress{
				{Batch: 1, InBatch: 10, Cumulative: 10},
				{Batch: 2, InBatch: 5, Cumulative: 15},
			},
			done: true,
		}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When fetching progress", func() {
			var got struct {
				Done    bool                  `json:"done"`
				Batches []model.BatchProgress `json:"batches"`
			}
			status := get(t, srv.URL+"/progress", &got)

			Convey("Then the history and completion flag come back", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(got.Done, ShouldBeTrue)
				So(got.Batches, ShouldHaveLength, 2)
				So(got.Batches[1].Cumulative, ShouldEqual, 15)
			})
		})
	})
}

func TestHealthEndpoint(t *testing.T) {
	Convey("Given a running API", t, func() {
		srv := newTestServer(&stubDeps{})
		defer srv.Close()

		Convey("When probing health", func() {
			var got map[string]string
			status := get(t, srv.URL+"/healthz", &got)
			So(status, ShouldEqual, http.StatusOK)
			So(got["status"], ShouldEqual, "ok")
		})

		Convey("When scraping metrics", func() {
			resp, err := http.Get(srv.URL + "/metrics")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
