package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/playforge/ladder/internal/adapters/gate"
	repository "github.com/playforge/ladder/internal/adapters/repository"
	app "github.com/playforge/ladder/internal/app"
	"github.com/playforge/ladder/internal/domain/model"
	"github.com/playforge/ladder/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeGate returns a canned decision or error.
type fakeGate struct {
	decision gate.Decision
	err      error
	calls    int
}

func (f *fakeGate) Check(ctx context.Context, sig gate.Signals) (gate.Decision, error) {
	f.calls++
	if f.err != nil {
		return gate.Decision{}, f.err
	}
	return f.decision, nil
}

// failingStore rejects every mutation.
type failingStore struct {
	repository.Store
}

func (f *failingStore) Create(ctx context.Context, guid string, fields model.Fields) (*model.Record, error) {
	return nil, errors.New("disk full")
}

func (f *failingStore) Update(ctx context.Context, guid string, patch model.Patch) (*model.Record, error) {
	return nil, errors.New("disk full")
}

func newStartedService(t *testing.T, opts ...app.Option) *app.Service {
	t.Helper()
	opts = append([]app.Option{app.WithDataDir(t.TempDir())}, opts...)
	svc := app.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestService_CRUD(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := newStartedService(t)

		Convey("When creating and reading a record", func() {
			rec, err := svc.Create(ctx, "guid-svc-0001", model.Fields{Name: "A", Tag: "X", Score: 10})
			So(err, ShouldBeNil)
			So(rec.Name, ShouldEqual, "A")

			got, err := svc.Get(ctx, "guid-svc-0001")
			So(err, ShouldBeNil)
			So(got, ShouldNotBeNil)
			So(got.Score, ShouldEqual, 10)
		})

		Convey("When listing with a default page size", func() {
			for _, g := range []string{"guid-svc-1001", "guid-svc-1002"} {
				_, err := svc.Create(ctx, g, model.Fields{Score: 1})
				So(err, ShouldBeNil)
			}
			res, err := svc.ListPaged(ctx, 1, 0)
			So(err, ShouldBeNil)
			So(res.PageSize, ShouldEqual, 10)
			So(res.Total, ShouldEqual, 2)
		})

		Convey("When listing as a flat slice", func() {
			_, err := svc.Create(ctx, "guid-svc-2001", model.Fields{Score: 5})
			So(err, ShouldBeNil)
			items, err := svc.List(ctx, 50)
			So(err, ShouldBeNil)
			So(len(items), ShouldEqual, 1)
			So(items[0].Rank, ShouldEqual, 1)
		})

		Convey("When deleting", func() {
			_, err := svc.Create(ctx, "guid-svc-3001", model.Fields{Score: 5})
			So(err, ShouldBeNil)
			removed, err := svc.Delete(ctx, "guid-svc-3001")
			So(err, ShouldBeNil)
			So(removed, ShouldBeTrue)
		})
	})
}

func TestService_SubmitAndCheck(t *testing.T) {
	Convey("Given a service with a working store and gate", t, func() {
		ctx := context.Background()
		fg := &fakeGate{decision: gate.Decision{Passed: true, StreamID: 42, RedirectURL: "https://x.example"}}
		svc := newStartedService(t, app.WithGate(fg))

		Convey("When submitting a new score", func() {
			res := svc.SubmitAndCheck(ctx, "guid-sub-0001", model.Fields{Name: "A", Score: 10}, gate.Signals{})

			So(res.StoreErr, ShouldBeNil)
			So(res.Record, ShouldNotBeNil)
			So(res.GateErr, ShouldBeNil)
			So(res.Decision.Passed, ShouldBeTrue)
		})

		Convey("When submitting for an existing guid it upserts", func() {
			_, err := svc.Create(ctx, "guid-sub-0002", model.Fields{Name: "A", Tag: "X", Score: 10})
			So(err, ShouldBeNil)

			res := svc.SubmitAndCheck(ctx, "guid-sub-0002", model.Fields{Name: "B", Tag: "Y", Score: 99}, gate.Signals{})
			So(res.StoreErr, ShouldBeNil)
			So(res.Record.Name, ShouldEqual, "B")
			So(res.Record.Score, ShouldEqual, 99)
		})
	})

	Convey("Given a failing store and a working gate", t, func() {
		ctx := context.Background()
		fg := &fakeGate{decision: gate.Decision{Passed: true, StreamID: 42}}
		svc := newStartedService(t, app.WithStore(&failingStore{}), app.WithGate(fg))

		Convey("Then the gate branch still completes", func() {
			res := svc.SubmitAndCheck(ctx, "guid-iso-0001", model.Fields{Score: 1}, gate.Signals{})

			So(res.StoreErr, ShouldNotBeNil)
			So(res.Record, ShouldBeNil)
			So(res.GateErr, ShouldBeNil)
			So(res.Decision.Passed, ShouldBeTrue)
			So(fg.calls, ShouldEqual, 1)
		})
	})

	Convey("Given a working store and a failing gate", t, func() {
		ctx := context.Background()
		fg := &fakeGate{err: gate.ErrUpstreamUnavailable}
		svc := newStartedService(t, app.WithGate(fg))

		Convey("Then the store branch still completes", func() {
			res := svc.SubmitAndCheck(ctx, "guid-iso-0002", model.Fields{Score: 1}, gate.Signals{})

			So(res.StoreErr, ShouldBeNil)
			So(res.Record, ShouldNotBeNil)
			So(res.GateErr, ShouldNotBeNil)
			So(res.Decision.Passed, ShouldBeFalse)

			got, err := svc.Get(ctx, "guid-iso-0002")
			So(err, ShouldBeNil)
			So(got, ShouldNotBeNil)
		})
	})

	Convey("Given no gate at all", t, func() {
		ctx := context.Background()
		svc := newStartedService(t)

		Convey("Then the gate branch reports not configured", func() {
			res := svc.SubmitAndCheck(ctx, "guid-iso-0003", model.Fields{Score: 1}, gate.Signals{})

			So(res.StoreErr, ShouldBeNil)
			So(res.GateErr, ShouldNotBeNil)
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a started service with records", t, func() {
		ctx := context.Background()
		svc := newStartedService(t)
		_, err := svc.Create(ctx, "guid-stats-001", model.Fields{Score: 1})
		So(err, ShouldBeNil)

		Convey("Then stats expose the record count", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["totalRecords"], ShouldEqual, 1)
		})
	})
}
