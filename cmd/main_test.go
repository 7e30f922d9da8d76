package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/okian/ctrd/internal/adapters/http/api"
	"github.com/okian/ctrd/internal/adapters/http/swagger"
	app "github.com/okian/ctrd/internal/app"
	"github.com/okian/ctrd/internal/config"
	"github.com/okian/ctrd/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	_ = logger.Init()

	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("CTRD_ADDR", ":8080")
			_ = os.Setenv("CTRD_CACHE_SIZE", "2000")
			defer func() {
				_ = os.Unsetenv("CTRD_ADDR")
				_ = os.Unsetenv("CTRD_CACHE_SIZE")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CacheSize, convey.ShouldEqual, 2000)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := app.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := app.New(
					app.WithCacheSize(500),
					app.WithTrainingDefaults(14, 200),
					app.WithMaxDaysBack(60),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing HTTP route registration", func() {
			svc := app.New()
			ctx := context.Background()
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			mux := http.NewServeMux()
			swagger.Register(ctx, mux)
			apiServer := api.NewServer(svc, svc)
			apiServer.Register(ctx, mux)

			convey.Convey("Then the server should construct with sane timeouts", func() {
				srv := &http.Server{
					Addr:              ":0",
					Handler:           mux,
					ReadTimeout:       readTimeout,
					WriteTimeout:      writeTimeout,
					IdleTimeout:       idleTimeout,
					ReadHeaderTimeout: readHeaderTimeout,
				}
				convey.So(srv, convey.ShouldNotBeNil)
				convey.So(srv.ReadTimeout, convey.ShouldEqual, 10*time.Second)
			})
		})

		convey.Convey("When updating system metrics", func() {
			convey.Convey("Then the updater should not panic", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})
		})
	})
}
