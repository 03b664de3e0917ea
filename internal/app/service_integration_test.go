package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/beeline/internal/app"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(fixtureTable())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When selecting a year end-to-end", func() {
			f, err := svc.Select(ctx, 2017)

			Convey("Then the returned frame covers it", func() {
				So(err, ShouldBeNil)
				So(f.Year, ShouldEqual, 2017)
				So(f.Map.Points, ShouldHaveLength, 1)
				So(f.Map.Points[0].Key, ShouldEqual, "AZ")
				So(f.Map.Points[0].Value, ShouldEqual, 12.35)

				cur, _ := svc.Current()
				So(cur.Version, ShouldBeGreaterThanOrEqualTo, f.Version)
			})
		})

		Convey("When many selections arrive at once", func() {
			years := []int{2016, 2017, 2015, 2016, 2017, 2016}
			var last uint64
			for _, y := range years {
				e, err := svc.Submit(ctx, y)
				So(err, ShouldBeNil)
				last = e.Seq
			}

			f, err := svc.Await(ctx, last)

			Convey("Then the last selection wins", func() {
				So(err, ShouldBeNil)
				So(f.Version, ShouldEqual, last)
				So(f.Year, ShouldEqual, 2016)
			})

			Convey("And every selection is either rendered or coalesced", func() {
				stats := svc.GetStats()
				cycles := stats["cycles"].(uint64)
				coalesced := stats["coalesced"].(uint64)
				// one initial render plus the six submissions
				So(cycles+coalesced, ShouldEqual, uint64(7))
			})
		})

		Convey("When concurrent clients select years", func() {
			var wg sync.WaitGroup
			errs := make(chan error, 20)
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					year := 2015 + i%3
					f, err := svc.Select(ctx, year)
					if err != nil {
						errs <- err
						return
					}
					if f.Map.Kind == "" || f.Yearly.Kind == "" || f.States.Kind == "" || f.Causes.Kind == "" {
						errs <- errors.New("incomplete frame")
					}
				}(i)
			}
			wg.Wait()
			close(errs)

			Convey("Then every client observes a complete frame", func() {
				for err := range errs {
					So(err, ShouldBeNil)
				}
			})
		})

		Convey("When many rounds of clients race across years", func() {
			stop := make(chan struct{})
			watched := make(chan bool, 1)
			go func() {
				var prev uint64
				monotonic := true
				for {
					select {
					case <-stop:
						watched <- monotonic
						return
					default:
					}
					if f, ok := svc.Current(); ok {
						if f.Version < prev {
							monotonic = false
						}
						prev = f.Version
					}
				}
			}()

			var (
				mu       sync.Mutex
				failures []error
			)
			for round := 0; round < 50; round++ {
				var wg sync.WaitGroup
				for i := 0; i < 32; i++ {
					wg.Add(1)
					go func(year int) {
						defer wg.Done()
						f, err := svc.Select(ctx, year)
						if err == nil && f.Year != year {
							err = errors.New("frame for another year")
						}
						if err != nil {
							mu.Lock()
							failures = append(failures, err)
							mu.Unlock()
						}
					}(2015 + i%3)
				}
				wg.Wait()
			}
			close(stop)

			Convey("Then every caller gets its own year without errors", func() {
				So(failures, ShouldBeEmpty)
			})

			Convey("And the published version never goes backwards", func() {
				So(<-watched, ShouldBeTrue)
			})
		})

		Convey("When awaiting a selection that is never handled", func() {
			short, cancelShort := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancelShort()
			_, err := svc.Await(short, 1<<40)

			Convey("Then the wait ends with the context error", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})
}
