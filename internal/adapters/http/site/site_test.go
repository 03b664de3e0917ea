package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/beeline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fixedYears struct {
	years []int
	def   int
}

func (f fixedYears) Years() []int { return f.years }
func (f fixedYears) DefaultYear() int { return f.def }

func TestSiteHandler(t *testing.T) {
	_ = logger.Init()

	Convey("Given a site handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		Convey("When registering the site handler", func() {
			Register(ctx, mux, fixedYears{years: []int{2015, 2016, 2019}, def: 2015})

			Convey("Then it should serve the dashboard at /", func() {
				req := httptest.NewRequest("GET", "/", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")

				body := w.Body.String()
				So(body, ShouldContainSubstring, "BeeLine Distribution")
				So(body, ShouldContainSubstring, "A dashboard providing the distribution and insights of bees effected across United States")
				So(body, ShouldContainSubstring, "helping beeline revival")
				for _, id := range []string{GraphMap, GraphYearly, GraphStates, GraphCauses} {
					So(body, ShouldContainSubstring, `id="`+id+`"`)
				}
			})

			Convey("And the slider stops are exactly the years", func() {
				req := httptest.NewRequest("GET", "/", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				body := w.Body.String()
				So(body, ShouldContainSubstring, `max="2"`)
				So(body, ShouldContainSubstring, `step="1" value="0"`)
				So(body, ShouldContainSubstring, `data-years="2015,2016,2019"`)
				So(body, ShouldContainSubstring, `label="2019"`)
			})

			Convey("And it should serve the embedded script", func() {
				req := httptest.NewRequest("GET", "/static/app.js", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "/api/selection")
			})

			Convey("And it should not handle other root subpaths", func() {
				req := httptest.NewRequest("GET", "/some-asset", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And it should reject writes", func() {
				req := httptest.NewRequest("POST", "/", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSiteDefaultYear(t *testing.T) {
	Convey("Given a default year that is not first", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux, fixedYears{years: []int{2015, 2016, 2017}, def: 2017})

		Convey("Then the slider starts at its index", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("GET", "/", http.NoBody))
			So(w.Body.String(), ShouldContainSubstring, `step="1" value="2"`)
		})
	})
}

func TestSiteHandlerWithNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		Convey("Then registering should panic", func() {
			So(func() { Register(context.Background(), nil, fixedYears{}) }, ShouldPanic)
		})
	})
}
