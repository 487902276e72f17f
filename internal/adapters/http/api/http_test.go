package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/playforge/ladder/internal/adapters/gate"
	"github.com/playforge/ladder/internal/adapters/http/api"
	repository "github.com/playforge/ladder/internal/adapters/repository"
	app "github.com/playforge/ladder/internal/app"
	"github.com/playforge/ladder/internal/domain/model"
	"github.com/playforge/ladder/internal/domain/ranking"
	"github.com/playforge/ladder/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDeps is an in-memory Dependencies implementation.
type mockDeps struct {
	records map[string]model.Record
	order   []string

	gateDecision gate.Decision
	gateErr      error
}

func newMockDeps() *mockDeps {
	return &mockDeps{records: make(map[string]model.Record)}
}

func (m *mockDeps) Get(_ context.Context, guid string) (*model.Record, error) {
	if rec, ok := m.records[guid]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (m *mockDeps) Create(_ context.Context, guid string, fields model.Fields) (*model.Record, error) {
	if _, ok := m.records[guid]; ok {
		return nil, repository.ErrAlreadyExists
	}
	rec, err := model.NewRecord(guid, fields)
	if err != nil {
		return nil, err
	}
	m.records[guid] = rec
	m.order = append(m.order, guid)
	return &rec, nil
}

func (m *mockDeps) Update(_ context.Context, guid string, patch model.Patch) (*model.Record, error) {
	if patch.IsEmpty() {
		return nil, repository.ErrEmptyPatch
	}
	current, ok := m.records[guid]
	if !ok {
		return nil, nil
	}
	merged, err := model.Merge(current, patch)
	if err != nil {
		return nil, err
	}
	m.records[guid] = merged
	return &merged, nil
}

func (m *mockDeps) Delete(_ context.Context, guid string) (bool, error) {
	if _, ok := m.records[guid]; !ok {
		return false, nil
	}
	delete(m.records, guid)
	return true, nil
}

func (m *mockDeps) ListPaged(_ context.Context, page, pageSize int) (types.PageResult, error) {
	list := make([]model.Record, 0, len(m.order))
	for _, guid := range m.order {
		if rec, ok := m.records[guid]; ok {
			list = append(list, rec)
		}
	}
	return ranking.Paginate(list, page, pageSize), nil
}

func (m *mockDeps) CheckGate(_ context.Context, _ gate.Signals) (gate.Decision, error) {
	return m.gateDecision, m.gateErr
}

func (m *mockDeps) SubmitAndCheck(ctx context.Context, guid string, fields model.Fields, sig gate.Signals) app.SubmitResult {
	var res app.SubmitResult
	res.Record, res.StoreErr = m.Create(ctx, guid, fields)
	res.Decision, res.GateErr = m.gateDecision, m.gateErr
	return res
}

func (m *mockDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"totalRecords": len(m.records)}
}

func newTestServer(deps *mockDeps, opts ...api.ServerOption) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, deps, opts...).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func doJSON(t *testing.T, method, url, body string, header map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestEntryLifecycle(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newMockDeps()
		ts := newTestServer(deps)
		defer ts.Close()

		url := ts.URL + "/leaderboard/guid-test-0001"

		Convey("Creating a record returns 201", func() {
			resp, body := doJSON(t, http.MethodPost, url, `{"name":"A","tag":"#X","score":10}`, nil)
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			So(body["name"], ShouldEqual, "A")
			So(body["tag"], ShouldEqual, "X")

			Convey("And creating it again returns 409", func() {
				resp, body := doJSON(t, http.MethodPost, url, `{"name":"A","score":10}`, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
				So(body["code"], ShouldEqual, "already_exists")
			})

			Convey("And reading it returns 200", func() {
				resp, body := doJSON(t, http.MethodGet, url, "", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["score"], ShouldEqual, 10)
				So(resp.Header.Get("Cache-Control"), ShouldEqual, "no-store")
			})

			Convey("And patching only the score keeps other fields", func() {
				resp, body := doJSON(t, http.MethodPatch, url, `{"score":50}`, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["name"], ShouldEqual, "A")
				So(body["score"], ShouldEqual, 50)
			})

			Convey("And deleting it returns 204 then 404", func() {
				resp, _ := doJSON(t, http.MethodDelete, url, "", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusNoContent)

				resp, _ = doJSON(t, http.MethodDelete, url, "", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("Creating without a score returns 400", func() {
			resp, body := doJSON(t, http.MethodPost, url, `{"name":"A"}`, nil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(body["code"], ShouldEqual, "bad_request")
		})

		Convey("Patching a missing record returns 404", func() {
			resp, _ := doJSON(t, http.MethodPatch, url, `{"score":1}`, nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("Patching with an empty body returns 400", func() {
			resp, body := doJSON(t, http.MethodPatch, url, `{}`, nil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(body["code"], ShouldEqual, "empty_patch")
		})

		Convey("A short guid returns 400", func() {
			resp, body := doJSON(t, http.MethodGet, ts.URL+"/leaderboard/short", "", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(body["code"], ShouldEqual, "bad_guid")
		})
	})
}

func TestLeaderboardPaging(t *testing.T) {
	Convey("Given records with scores 10, 30, 20", t, func() {
		deps := newMockDeps()
		ctx := context.Background()
		for i, score := range []float64{10, 30, 20} {
			guid := []string{"guid-pg-00001", "guid-pg-00002", "guid-pg-00003"}[i]
			_, err := deps.Create(ctx, guid, model.Fields{Score: score})
			So(err, ShouldBeNil)
		}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("The first page is ranked by score descending", func() {
			resp, body := doJSON(t, http.MethodGet, ts.URL+"/leaderboard?page=1&limit=10", "", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			items := body["data"].([]any)
			So(len(items), ShouldEqual, 3)
			first := items[0].(map[string]any)
			So(first["score"], ShouldEqual, 30)
			So(first["rank"], ShouldEqual, 1)
		})

		Convey("An out-of-range page is clamped", func() {
			resp, body := doJSON(t, http.MethodGet, ts.URL+"/leaderboard?page=99&limit=10", "", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["page"], ShouldEqual, 1)
			So(body["totalPages"], ShouldEqual, 1)
			So(len(body["data"].([]any)), ShouldEqual, 3)
		})

		Convey("Responses carry a request id", func() {
			resp, _ := doJSON(t, http.MethodGet, ts.URL+"/leaderboard", "", nil)
			So(resp.Header.Get("X-Request-Id"), ShouldNotBeEmpty)
		})
	})
}

func TestAPIKeyGuard(t *testing.T) {
	Convey("Given a server with an API key", t, func() {
		deps := newMockDeps()
		ts := newTestServer(deps, api.WithAPIKey("sekrit"))
		defer ts.Close()

		url := ts.URL + "/leaderboard/guid-test-0002"

		Convey("Mutations without the key are rejected", func() {
			resp, _ := doJSON(t, http.MethodPost, url, `{"score":1}`, nil)
			So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("Mutations with the key succeed", func() {
			resp, _ := doJSON(t, http.MethodPost, url, `{"score":1}`, map[string]string{"X-Api-Key": "sekrit"})
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
		})

		Convey("Reads stay open", func() {
			resp, _ := doJSON(t, http.MethodGet, ts.URL+"/leaderboard", "", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("The gate requires the key too", func() {
			resp, _ := doJSON(t, http.MethodPost, ts.URL+"/gate", "", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
		})
	})
}

func TestGateEndpoint(t *testing.T) {
	Convey("Given a server whose gate passes", t, func() {
		deps := newMockDeps()
		deps.gateDecision = gate.Decision{
			Passed:      true,
			StatusCode:  200,
			StreamID:    42,
			RedirectURL: "https://offer.example.com",
			SubID:       "sub-1",
		}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("A gate-only check returns the decision", func() {
			resp, body := doJSON(t, http.MethodPost, ts.URL+"/gate", `{"ua":"agent"}`, nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["ok"], ShouldEqual, true)
			So(body["passed"], ShouldEqual, true)
			So(body["streamId"], ShouldEqual, 42)
			So(body["url"], ShouldEqual, "https://offer.example.com")
		})

		Convey("A combined submit-and-check also records the score", func() {
			resp, body := doJSON(t, http.MethodPost, ts.URL+"/gate",
				`{"guid":"guid-gate-0001","name":"A","score":12}`, nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["passed"], ShouldEqual, true)
			So(body["recordSaved"], ShouldEqual, true)

			rec, err := deps.Get(context.Background(), "guid-gate-0001")
			So(err, ShouldBeNil)
			So(rec, ShouldNotBeNil)
			So(rec.Score, ShouldEqual, 12)
		})
	})

	Convey("Given a server whose gate fails upstream", t, func() {
		deps := newMockDeps()
		deps.gateErr = gate.ErrUpstreamUnavailable
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("The decision degrades to not passed without a 5xx", func() {
			resp, body := doJSON(t, http.MethodPost, ts.URL+"/gate", "", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["ok"], ShouldEqual, false)
			So(body["passed"], ShouldEqual, false)
			So(body["error"], ShouldNotBeEmpty)
		})

		Convey("But a score submission still lands", func() {
			resp, body := doJSON(t, http.MethodPost, ts.URL+"/gate",
				`{"guid":"guid-gate-0002","score":3}`, nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["recordSaved"], ShouldEqual, true)

			rec, err := deps.Get(context.Background(), "guid-gate-0002")
			So(err, ShouldBeNil)
			So(rec, ShouldNotBeNil)
		})
	})

	Convey("Given a server with no gate configured", t, func() {
		deps := newMockDeps()
		deps.gateErr = gate.ErrNotConfigured
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("A gate-only check returns 500", func() {
			resp, _ := doJSON(t, http.MethodPost, ts.URL+"/gate", "", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestStatsAndHealth(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newMockDeps()
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("Stats returns JSON", func() {
			resp, body := doJSON(t, http.MethodGet, ts.URL+"/stats", "", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["totalRecords"], ShouldEqual, 0)
		})

		Convey("Healthz serves metrics", func() {
			resp, err := http.Get(ts.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
