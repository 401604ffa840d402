package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agam1092005/multiGalaxy/internal/canvas"
	"github.com/agam1092005/multiGalaxy/internal/domain"
	obs "github.com/agam1092005/multiGalaxy/internal/infrastructure/observability"
	"github.com/agam1092005/multiGalaxy/internal/realtime"
	"github.com/agam1092005/multiGalaxy/pkg/shared/id"
)

// galaxy-draw is a headless whiteboard peer: it joins a session, draws a
// short scripted scene and then mirrors whatever the rest of the room does.
// Useful for smoke-testing galaxyd and as a usage reference for the client
// packages.
func main() {
	var (
		url      = flag.String("url", "ws://localhost:9091/ws", "collaboration server websocket endpoint")
		session  = flag.String("session", "demo", "session id to join")
		user     = flag.String("user", "", "user id (random when empty)")
		token    = flag.String("token", "", "bearer token")
		logLevel = flag.String("log-level", "info", "zerolog level")
		script   = flag.Bool("script", true, "draw the demo scene after joining")
	)
	flag.Parse()

	logger := obs.NewLogger(*logLevel)
	userID := *user
	if userID == "" {
		userID = "user-" + id.New()[:8]
	}

	client := realtime.NewClient(realtime.Options{
		URL:    *url,
		Token:  *token,
		Logger: logger,
	})
	defer client.Close()

	scene := canvas.NewScene()
	sync := canvas.NewSync(scene, client, logger)
	defer sync.Close()

	client.OnConnectionStatusChange(func(st domain.ConnectionStatus) {
		logger.Info().
			Str("state", string(st.State)).
			Int("attempts", st.ReconnectAttempts).
			Str("last_error", st.LastError).
			Msg("connection status")
	})
	client.OnCanvasUpdate(func(u domain.CanvasUpdate) {
		logger.Info().Str("type", string(u.Type)).Str("from", u.UserID).Msg("remote canvas update")
		sync.Apply(u)
	})
	client.OnSessionState(func(st domain.SessionState) {
		logger.Info().
			Strs("active_users", st.ActiveUsers).
			Int("recent_updates", len(st.CanvasUpdates)).
			Msg("session snapshot")
	})
	client.OnChatMessage(func(m domain.ChatMessage) {
		logger.Info().Str("from", m.UserID).Str("message", m.Message).Msg("chat")
	})
	client.OnServerError(func(e domain.ErrorMessage) {
		logger.Warn().Str("error", e.Error).Msg("server error")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	err := client.Connect(ctx)
	cancel()
	if err != nil {
		logger.Error().Err(err).Msg("connect failed")
		os.Exit(1)
	}
	if err := client.JoinSession(*session, userID); err != nil {
		logger.Error().Err(err).Str("session", *session).Msg("join failed")
		os.Exit(1)
	}
	logger.Info().Str("session", *session).Str("user", userID).Msg("joined")

	if *script {
		drawDemoScene(scene)
		logger.Info().Int("objects", len(scene.Objects())).Msg("demo scene drawn")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	if err := client.LeaveSession(); err != nil {
		logger.Warn().Err(err).Msg("leave failed")
	}
	logger.Info().Msg("galaxy-draw stopped")
}

func drawDemoScene(scene *canvas.Scene) {
	scene.Add(domain.SceneObject{
		ID: id.Object(), Kind: domain.KindRect,
		Left: 40, Top: 40, Width: 220, Height: 140,
		Fill: "#ffd54f", Stroke: "#333333", StrokeWidth: 2,
	})
	scene.Add(domain.SceneObject{
		ID: id.Object(), Kind: domain.KindEllipse,
		Left: 320, Top: 60, Width: 120, Height: 120,
		Fill: "#4fc3f7", Stroke: "#333333", StrokeWidth: 2,
	})
	scene.Add(domain.SceneObject{
		ID: id.Object(), Kind: domain.KindText,
		Left: 60, Top: 220, Text: "hello from galaxy-draw",
		Fill: "#222222",
	})
	scene.AddPath(domain.SceneObject{
		ID: id.Object(), Stroke: "#e53935", StrokeWidth: 3,
		Points: []domain.Point{{X: 60, Y: 300}, {X: 120, Y: 260}, {X: 180, Y: 310}, {X: 240, Y: 270}},
	})
}
