package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/nsfw-go/mode"
	"github.com/khaledhikmat/nsfw-go/pipeline"
	"github.com/khaledhikmat/nsfw-go/service/cache"
	"github.com/khaledhikmat/nsfw-go/service/config"
	"github.com/khaledhikmat/nsfw-go/service/fetcher"
	"github.com/khaledhikmat/nsfw-go/service/inference"
	"github.com/khaledhikmat/nsfw-go/service/lgr"
	"github.com/khaledhikmat/nsfw-go/service/metrics"
	"github.com/khaledhikmat/nsfw-go/service/video"
	"github.com/khaledhikmat/nsfw-go/service/webhook"
)

const (
	// WARNING: this has to be bigger that the mode processor shutdown time
	waitOnShutdown = 8 * time.Second
)

var modeProcessors = map[string]mode.Processor{
	"server": mode.Server,
	"scan":   mode.Scan,
}

func main() {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		lgr.Logger.Info(
			"received kill signal",
			slog.Any("signal", sig),
		)
		canxFn()
	}()

	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		lgr.Logger.Info("loading env vars from .env file")
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			lgr.Logger.Error("error loading .env file", slog.Any("error", xerrors.New(err.Error())))
			panic("error loading .env file")
		}
	}

	modeType := "server"
	args := os.Args[1:]
	if len(args) > 0 {
		modeType = args[0]
		args = args[1:]
	}

	modeProc, ok := modeProcessors[modeType]
	if !ok {
		lgr.Logger.Error("invalid mode", slog.String("mode", modeType))
		panic("invalid mode")
	}

	// Config service
	cfgSvc, err := config.NewViper(".env")
	if err != nil {
		lgr.Logger.Error("invalid configuration", slog.Any("error", err))
		panic("invalid configuration")
	}
	lgr.Init(cfgSvc.GetLogLevel(), cfgSvc.GetLogFile())

	// Metrics
	m := metrics.New()

	// Score cache service
	var cacheSvc cache.IService = cache.NewNoop()
	if cfgSvc.GetRedisAddr() != "" {
		cacheSvc, err = cache.NewRedis(canxCtx, cfgSvc)
		if err != nil {
			lgr.Logger.Warn("score cache disabled", slog.Any("error", err))
			cacheSvc = cache.NewNoop()
		}
	}

	// Inference service
	var classifier inference.IService
	switch cfgSvc.GetInferenceType() {
	case config.InferenceFake:
		classifier = inference.NewFake()
	default:
		classifier, err = inference.NewCaffe(cfgSvc)
		if err != nil {
			lgr.Logger.Error("error loading classifier", slog.Any("error", err))
			panic("error loading classifier")
		}
	}
	inferenceSvc := inference.NewCached(classifier, cacheSvc, cfgSvc.GetCacheTTL(), m)

	svcs := pipeline.ServicesFactory{
		CfgSvc:       cfgSvc,
		InferenceSvc: inferenceSvc,
		FetcherSvc:   fetcher.NewHTTP(cfgSvc),
		VideoSvc:     video.NewGocv(),
		WebhookSvc:   webhook.NewHTTP(cfgSvc),
		Metrics:      m,
	}

	// Create mode processor result
	modeProcResult := make(chan error, 1)

	// Start the mode processor
	go func() {
		modeProcResult <- modeProc(canxCtx, svcs, pipeline.SimpleAlerter, args)
	}()

	// Wait for cancellation or mode proc
	exitCode := 0
	select {
	case <-canxCtx.Done():
		lgr.Logger.Info(
			"nsfw context cancelled",
		)
		if err := waitForModeProc(modeProcResult); err != nil {
			exitCode = 1
		}

	case err := <-modeProcResult:
		if err != nil {
			exitCode = 1
			lgr.Logger.Info(
				"nsfw mode processor exited",
				slog.Any("error", xerrors.New(err.Error())),
			)
		}
	}

	canxFn()
	_ = inferenceSvc.Close()
	_ = cacheSvc.Close()
	os.Exit(exitCode)
}

// waitForModeProc waits up to `waitOnShutdown` for the mode processor to exit.
// This is needed because the processor may still be draining requests.
func waitForModeProc(modeProcResult chan error) error {
	lgr.Logger.Info(
		"nsfw is waiting for the mode processor to exit",
	)

	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	select {
	case <-timer.C:
		lgr.Logger.Info(
			"nsfw shutdown waiting period expired. Exiting now",
			slog.Duration("period", waitOnShutdown),
		)
		return nil

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Info(
				"nsfw mode processor exited",
				slog.Any("error", xerrors.New(err.Error())),
			)
		}
		return err
	}
}
