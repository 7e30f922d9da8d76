package eventstore_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/ctrd/internal/adapters/eventstore"
	"github.com/okian/ctrd/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Given store construction", t, func() {
		Convey("When the URL is empty", func() {
			_, err := eventstore.New("")

			Convey("Then it fails with ErrEmptyURL", func() {
				So(errors.Is(err, eventstore.ErrEmptyURL), ShouldBeTrue)
			})
		})

		Convey("When the URL is valid", func() {
			store, err := eventstore.New("http://localhost:8123/")

			Convey("Then a store is returned", func() {
				So(err, ShouldBeNil)
				So(store, ShouldNotBeNil)
			})
		})
	})
}

func TestQueryEvents(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	Convey("Given a ClickHouse endpoint returning JSONEachRow", t, func() {
		var gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			gotQuery = string(body)
			_, _ = w.Write([]byte(
				`{"timestamp":"2026-08-25 10:15:00","event_type":"impression","request_id":"req-1","line_item_id":100001,"device_type":"mobile","country":"US","publisher_id":1}` + "\n" +
					`{"timestamp":"2026-08-25 10:15:07","event_type":"click","request_id":"req-1","line_item_id":100001,"device_type":"mobile","country":"US","publisher_id":1}` + "\n"))
		}))
		defer srv.Close()

		store, err := eventstore.New(srv.URL, eventstore.WithTable("events"))
		So(err, ShouldBeNil)

		Convey("When querying a window", func() {
			events, err := store.QueryEvents(ctx, start, end)

			Convey("Then both rows are decoded with parsed timestamps", func() {
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 2)
				So(events[0].EventType, ShouldEqual, model.EventTypeImpression)
				So(events[0].LineItemID, ShouldEqual, 100001)
				So(events[0].Timestamp.Hour(), ShouldEqual, 10)
				So(events[1].EventType, ShouldEqual, model.EventTypeClick)
				So(events[1].Timestamp.Second(), ShouldEqual, 7)
				So(events[1].RequestID, ShouldEqual, events[0].RequestID)
			})

			Convey("Then the query carries the window and filters", func() {
				So(gotQuery, ShouldContainSubstring, "2026-08-21 00:00:00")
				So(gotQuery, ShouldContainSubstring, "2026-08-28 00:00:00")
				So(gotQuery, ShouldContainSubstring, "event_type IN ('impression', 'click')")
				So(gotQuery, ShouldContainSubstring, "FORMAT JSONEachRow")
			})
		})
	})

	Convey("Given an endpoint returning an empty result", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		store, _ := eventstore.New(srv.URL)

		Convey("When querying", func() {
			events, err := store.QueryEvents(ctx, start, end)

			Convey("Then an empty slice is a valid result", func() {
				So(err, ShouldBeNil)
				So(events, ShouldBeEmpty)
			})
		})
	})

	Convey("Given an endpoint returning a server error", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "DB::Exception: table missing", http.StatusInternalServerError)
		}))
		defer srv.Close()

		store, _ := eventstore.New(srv.URL)

		Convey("When querying", func() {
			_, err := store.QueryEvents(ctx, start, end)

			Convey("Then the failure is tagged ErrQueryFailed", func() {
				So(errors.Is(err, eventstore.ErrQueryFailed), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "table missing")
			})
		})
	})

	Convey("Given an endpoint returning malformed rows", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("{broken json\n"))
		}))
		defer srv.Close()

		store, _ := eventstore.New(srv.URL)

		Convey("When querying", func() {
			_, err := store.QueryEvents(ctx, start, end)

			Convey("Then decoding fails as a query failure", func() {
				So(errors.Is(err, eventstore.ErrQueryFailed), ShouldBeTrue)
			})
		})
	})

	Convey("Given credentials configured on the store", t, func() {
		var gotUser, gotKey string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUser = r.Header.Get("X-ClickHouse-User")
			gotKey = r.Header.Get("X-ClickHouse-Key")
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		store, _ := eventstore.New(srv.URL, eventstore.WithCredentials("reader", "secret"))

		Convey("When querying", func() {
			_, err := store.QueryEvents(ctx, start, end)

			Convey("Then the ClickHouse auth headers are sent", func() {
				So(err, ShouldBeNil)
				So(gotUser, ShouldEqual, "reader")
				So(gotKey, ShouldEqual, "secret")
			})
		})
	})
}

func TestInsertEvents(t *testing.T) {
	ctx := context.Background()

	Convey("Given a ClickHouse endpoint accepting inserts", t, func() {
		var gotQuery, gotBody string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("query")
			body, _ := io.ReadAll(r.Body)
			gotBody = string(body)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		store, _ := eventstore.New(srv.URL, eventstore.WithDatabase("default"), eventstore.WithTable("events"))

		Convey("When inserting a batch", func() {
			events := []model.Event{
				{
					Timestamp:   time.Date(2026, 8, 25, 10, 15, 0, 0, time.UTC),
					EventType:   model.EventTypeImpression,
					LineItemID:  100002,
					DeviceType:  "desktop",
					Country:     "UK",
					PublisherID: 2,
				},
			}
			err := store.InsertEvents(ctx, events)

			Convey("Then the insert statement travels in the URL and rows in the body", func() {
				So(err, ShouldBeNil)
				So(gotQuery, ShouldContainSubstring, "INSERT INTO")
				So(gotQuery, ShouldContainSubstring, "FORMAT JSONEachRow")
				So(gotBody, ShouldContainSubstring, `"event_type":"impression"`)
				So(gotBody, ShouldContainSubstring, `"timestamp":"2026-08-25 10:15:00"`)
				So(strings.Count(gotBody, "\n"), ShouldEqual, 1)
			})
		})

		Convey("When inserting an empty batch", func() {
			err := store.InsertEvents(ctx, nil)

			Convey("Then it is a no-op", func() {
				So(err, ShouldBeNil)
			})
		})
	})

	Convey("Given an endpoint rejecting inserts", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "DB::Exception: readonly", http.StatusForbidden)
		}))
		defer srv.Close()

		store, _ := eventstore.New(srv.URL)

		Convey("When inserting", func() {
			err := store.InsertEvents(ctx, []model.Event{{EventType: model.EventTypeImpression}})

			Convey("Then the failure is tagged ErrInsertFailed", func() {
				So(errors.Is(err, eventstore.ErrInsertFailed), ShouldBeTrue)
			})
		})
	})
}
