package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/scoutai/scoutai/internal/config"
	"github.com/scoutai/scoutai/pkg/logger"
	"github.com/scoutai/scoutai/pkg/metrics"
	"github.com/smartystreets/goconvey/convey"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.New()
	cfg.ModelPath = filepath.Join(t.TempDir(), "model.json")
	cfg.TrainingSamples = 500
	return cfg
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("SCOUTAI_ADDR", ":8181")
			_ = os.Setenv("SCOUTAI_TRAIN_QUEUE_SIZE", "4")
			defer func() {
				_ = os.Unsetenv("SCOUTAI_ADDR")
				_ = os.Unsetenv("SCOUTAI_TRAIN_QUEUE_SIZE")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8181")
				convey.So(cfg.TrainQueueSize, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When building the store and service from config", func() {
			cfg := testConfig(t)
			store := newStore(cfg, logger.Nop())
			svc := newService(cfg, store, logger.Nop())

			convey.Convey("Then a missing artifact leaves the store unloaded", func() {
				convey.So(store.Load(context.Background()), convey.ShouldBeNil)
				convey.So(store.Loaded(), convey.ShouldBeFalse)
				convey.So(svc.ModelInfo().Location, convey.ShouldEqual, cfg.ModelPath)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationRoutes(t *testing.T) {
	convey.Convey("Given the assembled mux", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)
		svc := newService(cfg, newStore(cfg, logger.Nop()), logger.Nop())
		mux := newMux(ctx, svc)

		get := func(path string) int {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w.Code
		}

		convey.Convey("Then every surface is reachable", func() {
			convey.So(get("/healthz"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/stats"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api/v1/status"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api/v1/model-info"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/docs/"), convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("And model routes report the missing model", func() {
			convey.So(get("/api/v1/feature-importance"), convey.ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it returns when the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics updater", func() {
			cfg := testConfig(t)
			svc := newService(cfg, newStore(cfg, logger.Nop()), logger.Nop())

			convey.Convey("Then it returns when the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startServiceMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})

			convey.Convey("And a single update does not panic", func() {
				convey.So(func() {
					updateServiceMetrics(svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateSystemMetrics()
				}, convey.ShouldNotPanic)
			})
		})
	})
}
