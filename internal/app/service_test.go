package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/beeline/internal/app"
	"github.com/okian/beeline/internal/domain/chart"
	"github.com/okian/beeline/internal/domain/model"
	"github.com/okian/beeline/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New(fixtureTable())

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.TopN(), ShouldEqual, 5)
			So(svc.State(), ShouldEqual, service.StateIdle)
			So(svc.Years(), ShouldResemble, []int{2015, 2016, 2017})
			So(svc.DefaultYear(), ShouldEqual, 2015)

			_, ok := svc.Current()
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(fixtureTable(),
			service.WithTopN(1),
			service.WithQueueCapacity(4),
			service.WithTopN(0),
		)

		Convey("Then valid options apply and invalid ones are ignored", func() {
			So(svc.TopN(), ShouldEqual, 1)
			So(svc.GetStats()["queueCapacity"], ShouldEqual, 4)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(fixtureTable())
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, true)
			})

			Convey("And the earliest year is already rendered", func() {
				f, ok := svc.Current()
				So(ok, ShouldBeTrue)
				So(f.Year, ShouldEqual, 2015)
				So(f.Version, ShouldEqual, 1)
				So(f.ID, ShouldNotBeEmpty)
				So(svc.State(), ShouldEqual, service.StateRendered)
			})

			Convey("And starting twice is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
				f, _ := svc.Current()
				So(f.Version, ShouldEqual, 1)
			})
		})

		Convey("When the start context is already canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			Convey("Then start fails and nothing is published", func() {
				So(errors.Is(svc.Start(ctx), context.Canceled), ShouldBeTrue)
				_, ok := svc.Current()
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(fixtureTable())
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("And submissions are refused", func() {
				_, err := svc.Submit(context.Background(), 2016)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})

			Convey("And stopping again is safe", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(fixtureTable())
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("When submitting a year absent from the table", func() {
			_, err := svc.Submit(context.Background(), 1999)

			Convey("Then it is rejected with ErrUnknownYear", func() {
				So(errors.Is(err, service.ErrUnknownYear), ShouldBeTrue)
			})
		})

		Convey("When submitting a known year", func() {
			e, err := svc.Submit(context.Background(), 2016)

			Convey("Then the event carries an id and a later sequence", func() {
				So(err, ShouldBeNil)
				So(e.ID, ShouldNotBeEmpty)
				So(e.Year, ShouldEqual, 2016)
				So(e.Seq, ShouldBeGreaterThan, 1)
			})
		})
	})
}

func TestService_Handle(t *testing.T) {
	Convey("Given a service that rendered 2015", t, func() {
		svc := service.New(fixtureTable(), service.WithTopN(5))
		ctx := context.Background()
		So(svc.Handle(ctx, model.YearChanged{ID: "a", Seq: 1, Year: 2015}), ShouldBeNil)

		Convey("Then the four slots describe 2015", func() {
			f, ok := svc.Current()
			So(ok, ShouldBeTrue)
			So(f.SelectionID, ShouldEqual, "a")

			So(f.Map.Kind, ShouldEqual, chart.KindChoropleth)
			So(f.Map.Points, ShouldHaveLength, 3)

			So(f.Yearly.Kind, ShouldEqual, chart.KindBar)
			So(f.Yearly.Points, ShouldHaveLength, 3)

			So(f.States.Title, ShouldEqual, chart.TitleStates)
			So(f.States.Points, ShouldResemble, []chart.Point{
				{Key: "Alabama", Label: "Alabama", Value: 15},
				{Key: "Alaska", Label: "Alaska", Value: 5},
			})

			So(f.Causes.Title, ShouldEqual, chart.TitleCauses)
			So(f.Causes.Points[0].Key, ShouldEqual, "Pesticides")
			So(f.Causes.Points[1].Key, ShouldEqual, "Disease")
			So(f.Causes.Points[1].Value, ShouldEqual, 7.5)
		})

		Convey("When a cycle fails", func() {
			failedBefore := testutil.ToFloat64(metrics.CycleFailures())
			err := svc.Handle(ctx, model.YearChanged{ID: "b", Seq: 2, Year: 1999})

			Convey("Then the error is surfaced and the previous frame kept", func() {
				So(errors.Is(err, service.ErrUnknownYear), ShouldBeTrue)

				ce := svc.LastError()
				So(ce, ShouldNotBeNil)
				So(ce.Seq, ShouldEqual, 2)
				So(ce.Year, ShouldEqual, 1999)

				f, _ := svc.Current()
				So(f.Year, ShouldEqual, 2015)
				So(svc.State(), ShouldEqual, service.StateRendered)
				So(svc.GetStats()["failures"], ShouldEqual, uint64(1))
				So(svc.GetStats()["lastError"], ShouldNotBeNil)
			})

			Convey("And it is counted exactly once", func() {
				So(testutil.ToFloat64(metrics.CycleFailures()), ShouldEqual, failedBefore+1)
			})

			Convey("And Await for that selection reports the failure", func() {
				_, err := svc.Await(ctx, 2)
				So(errors.Is(err, service.ErrCycleFailed), ShouldBeTrue)
				So(errors.Is(err, service.ErrUnknownYear), ShouldBeTrue)
			})

			Convey("And the next successful cycle clears it", func() {
				So(svc.Handle(ctx, model.YearChanged{ID: "c", Seq: 3, Year: 2016}), ShouldBeNil)
				So(svc.LastError(), ShouldBeNil)
				f, _ := svc.Current()
				So(f.Year, ShouldEqual, 2016)
				So(f.Version, ShouldEqual, 3)
			})
		})

		Convey("When an older selection finishes after a newer one", func() {
			So(svc.Handle(ctx, model.YearChanged{ID: "new", Seq: 5, Year: 2017}), ShouldBeNil)
			So(svc.Handle(ctx, model.YearChanged{ID: "old", Seq: 4, Year: 2016}), ShouldBeNil)

			Convey("Then the published version does not go backwards", func() {
				f, _ := svc.Current()
				So(f.Version, ShouldEqual, 5)
				So(f.Year, ShouldEqual, 2017)
			})
		})

		Convey("When a frame is requested for a year other than the published one", func() {
			f, err := svc.FrameFor(2016)

			Convey("Then it is rendered without being published", func() {
				So(err, ShouldBeNil)
				So(f.Year, ShouldEqual, 2016)
				So(f.Version, ShouldEqual, 0)
				cur, _ := svc.Current()
				So(cur.Year, ShouldEqual, 2015)
			})

			Convey("And the published year is served as is", func() {
				cur, _ := svc.Current()
				same, err := svc.FrameFor(2015)
				So(err, ShouldBeNil)
				So(same.ID, ShouldEqual, cur.ID)
			})

			Convey("And unknown years are refused", func() {
				_, err := svc.FrameFor(1999)
				So(errors.Is(err, service.ErrUnknownYear), ShouldBeTrue)
			})
		})

		Convey("When the cycle context is canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := svc.Handle(cctx, model.YearChanged{Seq: 2, Year: 2016})

			Convey("Then nothing new is published", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				f, _ := svc.Current()
				So(f.Version, ShouldEqual, 1)
			})
		})
	})
}

func TestService_Views(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New(fixtureTable(), service.WithTopN(1))

		Convey("When computing views for 2015", func() {
			v, err := svc.Views(2015)

			Convey("Then each view honours the top-N limit and the year", func() {
				So(err, ShouldBeNil)
				So(v.Year, ShouldEqual, 2015)
				So(v.Slice, ShouldHaveLength, 3)
				So(v.Yearly, ShouldHaveLength, 3)
				So(v.States, ShouldHaveLength, 1)
				So(v.States[0].State, ShouldEqual, "Alabama")
				So(v.Causes, ShouldHaveLength, 1)
				So(v.Causes[0].AffectedBy, ShouldEqual, "Pesticides")
			})
		})

		Convey("When computing views for an absent year", func() {
			_, err := svc.Views(1999)

			Convey("Then it fails with ErrUnknownYear", func() {
				So(errors.Is(err, service.ErrUnknownYear), ShouldBeTrue)
			})
		})
	})
}
