// Command live-session streams frames from an image directory to the
// pose-inference backend and prints the live overlay, exercising the
// realtime path end to end without a camera.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/adapters/capture"
	app "github.com/gabriel-accetta/piano-posture-analyzer/internal/app"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/config"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/logger"
)

const overlayPrintInterval = time.Second

func main() {
	var (
		frameDir   = flag.String("frames", "", "Directory of .jpg/.png frames to stream")
		domainFlag = flag.String("domain", "hand", `Posture domain: "hand" or "body"`)
		duration   = flag.Duration("duration", 30*time.Second, "How long to stream before stopping")
	)
	flag.Parse()

	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	domain, err := model.ParseDomain(*domainFlag)
	if err != nil {
		os.Stderr.WriteString("invalid domain: " + err.Error() + "\n")
		return
	}
	if *frameDir == "" {
		os.Stderr.WriteString("missing -frames directory\n")
		return
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	source, err := capture.NewDirSource(*frameDir, true)
	if err != nil {
		os.Stderr.WriteString("failed to open frame source: " + err.Error() + "\n")
		return
	}

	svc := app.New(app.WithConfig(cfg), app.WithLogger(log))
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	session, err := svc.StartLive(ctx, domain, source)
	if err != nil {
		os.Stderr.WriteString("failed to start live session: " + err.Error() + "\n")
		return
	}
	defer session.Stop()

	log.Info(ctx, "live session running",
		logger.String("session", session.ID),
		logger.String("domain", string(domain)),
		logger.Duration("duration", *duration),
	)

	ticker := time.NewTicker(overlayPrintInterval)
	defer ticker.Stop()
	deadline := time.After(*duration)

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			log.Info(ctx, "session duration reached, stopping")
			return
		case <-ticker.C:
			printOverlay(ctx, session)
		}
	}
}

// printOverlay logs the current classification slots.
func printOverlay(ctx context.Context, session *app.LiveSession) {
	log := logger.Get()
	snap := session.Snapshot()

	if snap.LeftHand != nil {
		log.Info(ctx, "overlay",
			logger.String("slot", "left_hand"),
			logger.String("classification", string(snap.LeftHand.Classification)),
			logger.String("severity", severity(snap.LeftHand.Classification)),
		)
	}
	if snap.RightHand != nil {
		log.Info(ctx, "overlay",
			logger.String("slot", "right_hand"),
			logger.String("classification", string(snap.RightHand.Classification)),
			logger.String("severity", severity(snap.RightHand.Classification)),
		)
	}
	if snap.Body != nil {
		log.Info(ctx, "overlay",
			logger.String("slot", "body"),
			logger.String("classification", string(snap.Body.Classification)),
			logger.String("severity", severity(snap.Body.Classification)),
		)
	}
	if snap.LeftHand == nil && snap.RightHand == nil && snap.Body == nil {
		log.Info(ctx, "overlay empty, waiting for classifications",
			logger.String("stream", session.StreamState().String()))
	}
}

func severity(c model.Classification) string {
	return string(c.Severity())
}
