// extract is the batch extraction job: it runs the analytical queries
// against Athena, cleans the results and publishes the extract files the
// dashboard consumes. It is meant to run on a schedule and exits non-zero
// when the run fails.
package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"

	"github.com/charityquest/quest-admin/common"
	"github.com/charityquest/quest-admin/infrastructure"
	"github.com/charityquest/quest-admin/usecase"
)

func main() {
	logger := log.New(os.Stdout, "extract ", log.LstdFlags|log.Lshortfile)

	_ = godotenv.Load()
	cfg, err := common.ConfigFromEnv()
	if err != nil {
		logger.Fatal("Problem loading config: ", err)
	}
	if cfg.AthenaOutput == "" {
		logger.Fatal("Env var ATHENA_OUTPUT_LOCATION is not provided or empty")
	}

	ctx, cancel := context.WithTimeout(common.TimeItContext(context.Background()), 3*cfg.QueryMaxWait)
	defer cancel()

	awsconfig, err := infrastructure.NewAWSConfig(ctx, cfg.Region, cfg.S3EndpointURL, cfg.RoleARN, logger)
	if err != nil {
		logger.Fatal(err)
	}
	store, err := infrastructure.NewS3ObjectStore(s3.NewFromConfig(awsconfig), cfg.Bucket)
	if err != nil {
		logger.Fatal(err)
	}
	engine, err := infrastructure.NewAthenaQueryRepository(athena.NewFromConfig(awsconfig), cfg.AthenaDatabase, cfg.AthenaOutput, cfg.QueryMaxWait, logger)
	if err != nil {
		logger.Fatal(err)
	}

	normalizer := usecase.NewNormalizer(logger, cfg.DisplayZone, cfg.RollingWindow, cfg.ExcludedUsers)
	exporter := usecase.NewExporter(logger, engine, store, normalizer, cfg.Keys())
	if err := exporter.Export(ctx); err != nil {
		logger.Fatal("export failed: ", err)
	}
}
