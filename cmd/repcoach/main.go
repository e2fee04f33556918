package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/grindsens/repcoach/internal/app"
	"github.com/grindsens/repcoach/internal/capture"
	"github.com/grindsens/repcoach/internal/config"
	"github.com/grindsens/repcoach/internal/detector"
	"github.com/grindsens/repcoach/internal/logging"
	"github.com/grindsens/repcoach/internal/metrics"
	"github.com/grindsens/repcoach/internal/server"
	"github.com/grindsens/repcoach/internal/store"
	"github.com/grindsens/repcoach/internal/tracker"
	"github.com/grindsens/repcoach/internal/tray"
)

func main() {
	configPath := flag.String("config", os.Getenv("REPCOACH_CONFIG"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	logging.Setup(logging.Params{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		JSON:       cfg.Log.JSON,
		AlsoStdout: true,
	})
	log.Info("RepCoach - pose-based rep counter")

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		log.Fatalf("create data directory: %s", err)
	}

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("initialize store: %s", err)
	}

	registry := tracker.NewRegistry(cfg.Tracking.Thresholds)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsManager := metrics.NewManager("repcoach", "server", promRegistry)

	var a *app.App
	if cfg.Camera.Enabled {
		a = app.New(app.Config{
			Store:    st,
			Registry: registry,
			Metrics:  metricsManager,
			Camera: capture.Options{
				DeviceID: cfg.Camera.DeviceID,
				FPS:      cfg.Camera.FPS,
			},
			Detector: detector.Config{
				MaxPoses:        1,
				MinConfidence:   cfg.Detector.MinConfidence,
				MinTrackingConf: cfg.Detector.MinTrackingConf,
				IdleTimeoutSec:  cfg.Detector.IdleTimeoutSec,
			},
			Exercise:          cfg.Camera.Exercise,
			ExerciseID:        cfg.Camera.ExerciseID,
			Reps:              cfg.Camera.Reps,
			DefaultTargetReps: cfg.Tracking.DefaultTargetReps,
		})
		if err := a.Start(); err != nil {
			log.Errorf("camera pipeline not started: %s", err)
			a = nil
		}
	}

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		log.Infof("serving static files from: %s", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir:         staticDir,
		Store:             st,
		Registry:          registry,
		Metrics:           metricsManager,
		Gatherer:          promRegistry,
		DefaultTargetReps: cfg.Tracking.DefaultTargetReps,
		App:               a,
	})
	srv.Serve(cfg.Server.Addr())

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	stop := make(chan struct{})
	var stopOnce sync.Once
	requestStop := func() { stopOnce.Do(func() { close(stop) }) }

	go func() {
		select {
		case receivedSig := <-chOsInterrupt:
			log.Warnf("signal [%s] received, shutting down ...", receivedSig)
			requestStop()
		case <-stop:
		}
	}()

	if cfg.Tray.Enabled {
		t := tray.New()
		t.OnQuit(requestStop)
		t.OnSettings(func() {
			openBrowser(fmt.Sprintf("http://%s/", cfg.Server.Addr()))
		})
		if a != nil {
			t.OnToggle(a.SetEnabled)
			a.AddListener(t.HandleUpdate)
		}

		go func() {
			<-stop
			t.Quit()
		}()
		t.Run()
		requestStop()
	} else {
		<-stop
	}

	gracefulShutdown(srv, a, st)
}

func gracefulShutdown(srv *server.Server, a *app.App, st *store.Store) {
	log.Debug("graceful shutdown initiated ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("server shutdown: %s", err)
	}

	if a != nil {
		a.Stop()
	}

	if err := st.Close(); err != nil {
		log.Errorf("close store: %s", err)
	}

	log.Info("bye")
}

// openBrowser opens url with the platform's default handler.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warnf("open browser: %s", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.repcoach/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".repcoach", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
