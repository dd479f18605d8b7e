// quest-admin serves the charity-quest administrator dashboard: it loads
// the extracts published by the extraction job from S3, derives the
// sign-up trend, the per-day user table and the activity map, and serves
// them with an interactive page.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	muxprom "gitlab.com/msvechla/mux-prometheus/pkg/middleware"

	"github.com/charityquest/quest-admin/api"
	"github.com/charityquest/quest-admin/common"
	"github.com/charityquest/quest-admin/infrastructure"
	"github.com/charityquest/quest-admin/usecase"
)

func main() {
	logger := log.New(os.Stdout, api.DataAPIPrefix, log.LstdFlags|log.Lshortfile)

	// .env is optional, the environment wins
	_ = godotenv.Load()
	cfg, err := common.ConfigFromEnv()
	if err != nil {
		logger.Fatal("Problem loading config: ", err)
	}

	awsconfig, err := infrastructure.NewAWSConfig(context.Background(), cfg.Region, cfg.S3EndpointURL, cfg.RoleARN, logger)
	if err != nil {
		logger.Fatal(err)
	}
	s3Client := s3.NewFromConfig(awsconfig)
	store, err := infrastructure.NewS3ObjectStore(s3Client, cfg.Bucket)
	if err != nil {
		logger.Fatal(err)
	}

	normalizer := usecase.NewNormalizer(logger, cfg.DisplayZone, cfg.RollingWindow, cfg.ExcludedUsers)
	loader := usecase.NewLoader(logger, store, normalizer, cfg.Keys())
	if err := loader.Load(context.Background()); err != nil {
		// Not fatal: the first export may not have run yet, /v1/reload
		// brings the data in once it has.
		logger.Printf("initial extract load failed: %v", err)
	}
	reconciler := usecase.NewReconciler(logger)

	var exportController *api.ExportController
	if cfg.AthenaOutput != "" {
		athenaClient := athena.NewFromConfig(awsconfig)
		engine, err := infrastructure.NewAthenaQueryRepository(athenaClient, cfg.AthenaDatabase, cfg.AthenaOutput, cfg.QueryMaxWait, logger)
		if err != nil {
			logger.Fatal(err)
		}
		exporter := usecase.NewExporter(logger, engine, store, normalizer, cfg.Keys())
		exportController = api.NewExportController(logger, exporter, 3*cfg.QueryMaxWait)
	} else {
		logger.Print("ATHENA_OUTPUT_LOCATION not exported, /export route disabled")
	}

	/*
	 * Instrumentation setup
	 */
	instrumentation := muxprom.NewCustomInstrumentation(true, "charityquest", "questadmin", prometheus.DefBuckets, nil, prometheus.DefaultRegisterer)

	rtr := mux.NewRouter()
	rtr.Use(instrumentation.Middleware)
	rtr.Path("/metrics").Handler(promhttp.Handler())

	dashboardController := api.NewDashboardController(logger, loader, reconciler)
	dashAPI := api.InitAPI(dashboardController, exportController, loader, logger)
	dashAPI.SetHandlers("", rtr)

	// ability to return compressed (gzip/deflate) responses if client browser accepts it
	gzipHandler := handlers.CompressHandler(rtr)

	done := make(chan bool)
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: gzipHandler,
	}

	go func() {
		logger.Printf("serving dashboard on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(err)
		}
	}()

	// Wait for SIGINT (Ctrl+C) or SIGTERM to stop the service
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			<-sigc
			server.Close()
			done <- true
		}
	}()

	<-done
}
