package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tacusci/logging/v2"
	"github.com/takama/daemon"
	"github.com/tauraamui/noicevoid/pkg/api"
	"github.com/tauraamui/noicevoid/pkg/audio"
	"github.com/tauraamui/noicevoid/pkg/config"
	"github.com/tauraamui/noicevoid/pkg/configdef"
	db "github.com/tauraamui/noicevoid/pkg/database"
	"github.com/tauraamui/noicevoid/pkg/log"
	"github.com/tauraamui/noicevoid/pkg/pipeline"
	"github.com/tauraamui/noicevoid/pkg/process"
	"github.com/tauraamui/noicevoid/pkg/video/videobackend"
)

const (
	name        = "noice_void"
	description = "Noise void service which re-renders uploaded videos as motion driven noise"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = 10 * time.Minute
)

type Service struct {
	daemon.Daemon
}

// Setup writes the default config and creates the job history database.
func (service *Service) Setup() (string, error) {
	log.Info("Setting up noicevoid service...")

	err := config.DefaultCreator().Create()
	if err != nil {
		if !errors.Is(err, configdef.ErrConfigAlreadyExists) {
			return "", err
		}
		log.Error(err.Error())
	}

	cfg, err := config.DefaultResolver().Resolve()
	if err != nil {
		return "", err
	}

	err = db.Setup(cfg.DatabasePath)
	if err != nil {
		if !errors.Is(err, db.ErrDBAlreadyExists) {
			return "", err
		}
		log.Error(err.Error())
	}

	return "Setup successful...", nil
}

func (service *Service) RemoveSetup() (string, error) {
	log.Info("Removing setup for noicevoid service...")
	cfg, err := config.DefaultResolver().Resolve()
	if err != nil {
		log.Error("unable to load config: %s", err.Error())
	}

	if err := db.Destroy(cfg.DatabasePath); err != nil {
		log.Error("unable to delete database file: %s", err.Error())
	}

	if err := config.DefaultDestroyer().Destroy(); err != nil {
		log.Error("unable to delete config file: %s", err.Error())
	}

	return "Removing setup successful...", nil
}

func (service *Service) Manage() (string, error) {
	usage := "Usage: noiced setup | remove-setup | install | remove | start | stop | status"

	if len(os.Args) > 1 {
		command := os.Args[1]
		switch command {
		case "setup":
			return service.Setup()
		case "remove-setup":
			return service.RemoveSetup()
		case "install":
			return service.Install()
		case "remove":
			return service.Remove()
		case "start":
			return service.Start()
		case "stop":
			return service.Stop()
		case "status":
			return service.Status()
		default:
			return usage, nil
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	cfg, err := config.DefaultResolver().Resolve()
	if err != nil {
		return "", err
	}
	if cfg.Debug {
		logging.CurrentLoggingLevel = logging.DebugLevel
	}

	log.Info("Starting noice void server on %s...", cfg.ListenAddress)
	server := &http.Server{Addr: cfg.ListenAddress, Handler: newAPI(cfg).Handler()}

	sweeper := startSweeper(cfg)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err.Error())
		}
	}()

	killSignal := <-interrupt
	fmt.Print("\r")
	log.Error("Received signal: %s", killSignal)

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return "", err
	}
	if sweeper != nil {
		sweeper.Stop()
		sweeper.Wait()
	}

	return "Shutdown successful... BYE! 👋", nil
}

func newAPI(cfg configdef.Values) *api.Server {
	backendType := cfg.VideoBackend
	if env := os.Getenv("NOICE_VIDEO_BACKEND"); len(env) > 0 {
		backendType = env
	}
	backend := videobackend.Resolve(backendType)

	settings := pipeline.DefaultSettings()
	settings.PoolSize = cfg.PoolSize
	settings.Model.History = cfg.History
	settings.Model.VarThreshold = cfg.VarThreshold
	settings.MaxMemoryFraction = cfg.MaxMemoryFraction

	muxer := audio.NewMuxer(cfg.FFmpegBin, cfg.FFprobeBin)

	var history api.History
	if conn, err := db.Connect(cfg.DatabasePath); err != nil {
		log.Warn("Job history disabled, try running the setup: %v", err)
	} else {
		history = db.NewHistory(conn)
	}

	return api.New(api.Options{
		UploadDir:          cfg.UploadDir,
		OutputDir:          cfg.OutputDir,
		DefaultScale:       cfg.DefaultScale,
		DefaultRenderScale: cfg.DefaultRenderScale,
	}, pipeline.NewLive(backend, settings), pipeline.NewRender(backend, muxer, settings), history)
}

// startSweeper clears uploads that were rendered but never streamed, as
// only streams remove their source.
func startSweeper(cfg configdef.Values) process.Process {
	if cfg.MaxUploadAgeHours == 0 {
		return nil
	}
	maxAge := time.Duration(cfg.MaxUploadAgeHours) * time.Hour
	sweeper := process.New(process.Settings{
		WaitForShutdownMsg: fmt.Sprintf("Stopping sweeping of %s", cfg.UploadDir),
		Process:            process.SweepStaleFiles(cfg.UploadDir, maxAge, sweepInterval, pipeline.InUse),
	}).Setup()
	sweeper.Start()
	return sweeper
}

func init() {
	logging.CallbackLabelLevel = 5
	logging.ColorLogLevelLabelOnly = true
	loggingLevel := os.Getenv("NOICE_LOGGING_LEVEL")

	switch strings.ToLower(loggingLevel) {
	case "info":
		logging.CurrentLoggingLevel = logging.InfoLevel
	case "warn":
		logging.CurrentLoggingLevel = logging.WarnLevel
	case "debug":
		logging.CurrentLoggingLevel = logging.DebugLevel
		logging.CallbackLabel = true
	default:
		logging.CurrentLoggingLevel = logging.WarnLevel
	}

	gin.SetMode(gin.ReleaseMode)
}

func main() {
	daemonType := daemon.SystemDaemon
	if runtime.GOOS == "darwin" {
		daemonType = daemon.UserAgent
	}

	srv, err := daemon.New(name, description, daemonType)
	if err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}

	service := &Service{srv}
	status, err := service.Manage()
	if err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}

	logging.Info(status) //nolint
}
