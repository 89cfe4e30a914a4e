package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/felo/sportai-web-sub011/internal/config"
	"github.com/felo/sportai-web-sub011/internal/monitor"
	"github.com/felo/sportai-web-sub011/internal/overlay"
	"github.com/felo/sportai-web-sub011/internal/pose"
	"github.com/felo/sportai-web-sub011/internal/raster"
	"github.com/felo/sportai-web-sub011/internal/security"
	"github.com/felo/sportai-web-sub011/internal/session"
	"github.com/felo/sportai-web-sub011/internal/videoio"
)

// loadTuning resolves the tuning configuration. An explicit path must load
// or the command aborts; without one the shipped defaults are used when
// present, and a bare deployment falls back to the built-in values.
func loadTuning(path string) *config.TuningConfig {
	if path != "" {
		cfg, err := config.LoadTuningConfig(path)
		if err != nil {
			log.Fatalf("Failed to load tuning config %s: %v", path, err)
		}
		return cfg
	}
	if cfg, err := config.LoadTuningConfig(config.DefaultConfigPath); err == nil {
		return cfg
	}
	log.Printf("No tuning config at %s; using built-in defaults", config.DefaultConfigPath)
	return config.EmptyTuningConfig()
}

// parseModel validates a --model flag value.
func parseModel(name string) pose.Model {
	model := pose.Model(name)
	if !model.Valid() {
		log.Fatalf("Unknown model %q (want %s or %s)", name, pose.ModelCOCO, pose.ModelExtended)
	}
	return model
}

// renderOptions builds the overlay options a command hands to the engine.
func renderOptions(cfg *config.TuningConfig, model pose.Model) overlay.Options {
	opts := overlay.DefaultOptions()
	opts.MinConfidence = cfg.GetMinKeypointConfidence()
	opts.SmoothTrajectories = cfg.GetSmoothingEnabled()
	opts.Labels = cfg.LabelParams()
	opts.AngleSpecs = overlay.DefaultAngleSpecs(model)
	return opts
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("listen", ":8080", "HTTP listen address for the monitor")
	dbPath := fs.String("db", "overlay_sessions.db", "Path to the SQLite session database")
	source := fs.String("source", "", "Pose log to replay (JSONL); empty runs the synthetic generator")
	modelName := fs.String("model", string(pose.ModelCOCO), "Keypoint model: coco17 or extended33")
	width := fs.Int("width", 1280, "Render surface width in pixels")
	height := fs.Int("height", 720, "Render surface height in pixels")
	fps := fs.Float64("fps", 30, "Playback frame rate")
	label := fs.String("label", "", "Session label stored with the recording")
	tuningPath := fs.String("tuning", "", "Tuning config JSON (default: "+config.DefaultConfigPath+" when present)")
	statsInterval := fs.Int("stats-interval", 10, "Render statistics logging interval in seconds")
	previewEvery := fs.Int("preview-every", 5, "Encode the live preview PNG every N frames (0 disables)")
	persons := fs.Int("persons", 1, "Figure count for the synthetic generator")
	seed := fs.Int64("seed", 0, "Jitter seed for the synthetic generator (0 keeps the default)")
	fs.Parse(args)

	model := parseModel(*modelName)
	cfg := loadTuning(*tuningPath)

	var src pose.Source
	sourceName := *source
	if *source == "" {
		gen := pose.NewSyntheticGenerator(model)
		gen.PersonCount = *persons
		gen.FrameRate = *fps
		gen.VideoWidth = float64(*width)
		gen.VideoHeight = float64(*height)
		gen.CenterX = float64(*width) / 2
		gen.CenterY = float64(*height) * 0.6
		if *seed != 0 {
			gen.Seed(*seed)
		}
		src = gen
		sourceName = "synthetic"
	} else {
		reader, err := pose.OpenLog(*source)
		if err != nil {
			log.Fatalf("Failed to open pose log %s: %v", *source, err)
		}
		defer reader.Close()
		src = reader
	}

	store, err := session.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open session database: %v", err)
	}
	defer store.Close()

	if err := store.MigrateUp(); err != nil {
		log.Fatalf("Failed to apply schema migrations: %v", err)
	}

	sess := &session.Session{
		Label:       *label,
		Model:       string(model),
		Source:      sourceName,
		VideoWidth:  *width,
		VideoHeight: *height,
		FrameRate:   *fps,
	}
	if err := store.CreateSession(sess); err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	log.Printf("Recording session %s (model=%s source=%s)", sess.SessionID, model, sourceName)

	recorder := session.NewRecorder(store, sess.SessionID, session.RecorderOptions{
		FlushInterval: cfg.GetRecordFlushInterval(),
		BatchSize:     cfg.GetRecordBatchSize(),
	})
	stats := monitor.NewRenderStats()
	preview := monitor.NewPreview()

	webServer := monitor.NewWebServer(monitor.WebServerConfig{
		Address: *listen,
		Stats:   stats,
		Store:   store,
		Preview: preview,
		Model:   string(model),
		Source:  sourceName,
	})

	play := playback{
		src:           src,
		model:         model,
		surfaceW:      *width,
		surfaceH:      *height,
		frameRate:     *fps,
		opts:          renderOptions(cfg, model),
		params:        cfg.OrientationParams(),
		historyFrames: cfg.GetTrajectoryHistoryFrames(),
		previewEvery:  *previewEvery,
		sessionID:     sess.SessionID,
		stats:         stats,
		recorder:      recorder,
		preview:       preview,
	}

	// Create a wait group for the playback, recorder, stats and HTTP routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Recorder worker: drains the sample queue into SQLite
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := recorder.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("Recorder error: %v", err)
		}
		log.Print("Recorder routine terminated")
	}()

	// Playback loop: pose source through the engine at the configured rate
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := runPlaybackLoop(ctx, play); err != nil && err != context.Canceled {
			log.Printf("Playback error: %v", err)
		}
		if err := store.EndSession(sess.SessionID, time.Now().UnixNano()); err != nil {
			log.Printf("Failed to close session %s: %v", sess.SessionID, err)
		}
		log.Print("Playback routine terminated")
	}()

	// Periodic render statistics
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Duration(*statsInterval) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats.LogStats()
			}
		}
	}()

	// Monitor web server with graceful shutdown
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := webServer.Start(ctx); err != nil {
			log.Printf("Web server error: %v", err)
		}
	}()

	wg.Wait()
	log.Println("Graceful shutdown complete")
}

// playback bundles the state one serve run threads through its render loop.
type playback struct {
	src           pose.Source
	model         pose.Model
	surfaceW      int
	surfaceH      int
	frameRate     float64
	opts          overlay.Options
	params        overlay.OrientationParams
	historyFrames int
	previewEvery  int
	sessionID     string
	stats         *monitor.RenderStats
	recorder      *session.Recorder
	preview       *monitor.Preview
}

// runPlaybackLoop drives frames from the pose source through the overlay
// engine at the configured rate, feeding the recorder, the statistics
// counters and the live preview. It returns nil once a finite source is
// exhausted; the monitor keeps serving the recorded session afterwards.
func runPlaybackLoop(ctx context.Context, p playback) error {
	fps := p.frameRate
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	surface := raster.NewImageSurface(p.surfaceW, p.surfaceH)
	tracker := overlay.NewOrientationTracker(p.params)
	labels := overlay.LabelStateMap{}
	history := overlay.NewJointHistory(p.historyFrames)
	lm := pose.LandmarksFor(p.model)
	trailJoints := []int{lm.LeftWrist, lm.RightWrist, lm.LeftAnkle, lm.RightAnkle}

	rendered := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		frame, err := p.src.Next()
		if err == io.EOF {
			log.Printf("Pose source exhausted after %d frames; monitor keeps serving", rendered)
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading pose source: %w", err)
		}

		in := overlay.FrameInput{
			Model:       frame.Model,
			VideoWidth:  frame.VideoWidth,
			VideoHeight: frame.VideoHeight,
			Poses:       frame.Poses,
		}
		if !in.Model.Valid() {
			in.Model = p.model
		}
		if in.VideoWidth <= 0 || in.VideoHeight <= 0 {
			in.VideoWidth = float64(p.surfaceW)
			in.VideoHeight = float64(p.surfaceH)
		}
		if len(frame.Poses) > 0 {
			history.ObservePose(frame.Poses[0], trailJoints, p.opts.MinConfidence, frame.Index)
		}
		in.Trajectories = history.Trajectories()

		result := overlay.RenderFrame(surface, in, p.opts, tracker, labels)
		rendered++

		p.stats.AddFrame(len(frame.Poses), len(result.Labels), result.Orientation != nil)
		if !p.recorder.Record(frame, result) {
			p.stats.AddDropped()
		}
		publishPreview(p, surface, frame, result, rendered)
	}
}

// publishPreview refreshes the monitor snapshot every frame and re-encodes
// the preview PNG on the configured cadence. Skipped frames keep the
// previous image so /preview.png never goes blank mid-session.
func publishPreview(p playback, surface *raster.ImageSurface, frame *pose.Frame, result overlay.RenderResult, rendered int) {
	snap := monitor.FrameSnapshot{
		SessionID:   p.sessionID,
		Model:       string(p.model),
		FrameIndex:  int64(frame.Index),
		TimestampNs: frame.TimestampNanos,
		PoseCount:   len(frame.Poses),
		LabelCount:  len(result.Labels),
	}
	if est := result.Orientation; est != nil {
		deg, conf := est.AngleDeg, est.Confidence
		ax, ay := est.Anchor.X, est.Anchor.Y
		snap.OrientationDeg = &deg
		snap.OrientationConf = &conf
		snap.AnchorX = &ax
		snap.AnchorY = &ay
	}

	var png []byte
	if p.previewEvery > 0 && rendered%p.previewEvery == 0 {
		var buf bytes.Buffer
		if err := surface.EncodePNG(&buf); err == nil {
			png = buf.Bytes()
		}
	}
	p.preview.Publish(snap, png)
}

func runAnnotate(args []string) {
	fs := flag.NewFlagSet("annotate", flag.ExitOnError)
	video := fs.String("video", "", "Source video file (required)")
	poseLog := fs.String("poselog", "", "Pose log aligned with the video by frame index (required)")
	output := fs.String("out", "", "Annotated output video (required; pair .avi with the default XVID codec)")
	codec := fs.String("codec", "XVID", "FOURCC code for the output video")
	modelName := fs.String("model", string(pose.ModelCOCO), "Keypoint model for the angle triples")
	tuningPath := fs.String("tuning", "", "Tuning config JSON")
	historyFrames := fs.Int("history", 0, "Trajectory window in frames (0 uses the tuning value)")
	fs.Parse(args)

	if *video == "" || *poseLog == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "Error: --video, --poselog and --out are required")
		fs.Usage()
		os.Exit(1)
	}
	if err := security.ValidateExportPath(*output); err != nil {
		log.Fatalf("Refusing output path: %v", err)
	}

	model := parseModel(*modelName)
	cfg := loadTuning(*tuningPath)

	window := *historyFrames
	if window <= 0 {
		window = cfg.GetTrajectoryHistoryFrames()
	}

	annotator := &videoio.Annotator{
		Video:         *video,
		PoseLog:       *poseLog,
		Output:        *output,
		Options:       renderOptions(cfg, model),
		Params:        cfg.OrientationParams(),
		HistoryFrames: window,
		Codec:         *codec,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := annotator.Run(ctx)
	if err != nil {
		log.Fatalf("Annotation failed: %v", err)
	}
	log.Printf("Wrote %s: %d frames (%d with poses), %dx%d @ %.1f fps",
		*output, report.Frames, report.PoseFrames, report.Width, report.Height, report.FPS)
}

func runGenlog(args []string) {
	fs := flag.NewFlagSet("genlog", flag.ExitOnError)
	out := fs.String("out", "synthetic.poselog", "Output pose log path")
	modelName := fs.String("model", string(pose.ModelCOCO), "Keypoint model: coco17 or extended33")
	frames := fs.Int("frames", 300, "Number of frames to generate")
	fps := fs.Float64("fps", 30, "Frame rate stamped into the log")
	persons := fs.Int("persons", 1, "Figure count")
	width := fs.Float64("width", 1280, "Source video width in pixels")
	height := fs.Float64("height", 720, "Source video height in pixels")
	seed := fs.Int64("seed", 1, "Jitter seed")
	fs.Parse(args)

	model := parseModel(*modelName)
	if err := security.ValidateExportPath(*out); err != nil {
		log.Fatalf("Refusing output path: %v", err)
	}

	gen := pose.NewSyntheticGenerator(model)
	gen.PersonCount = *persons
	gen.FrameRate = *fps
	gen.VideoWidth = *width
	gen.VideoHeight = *height
	gen.CenterX = *width / 2
	gen.CenterY = *height * 0.6
	gen.Seed(*seed)

	writer, err := pose.CreateLog(*out)
	if err != nil {
		log.Fatalf("Failed to create pose log: %v", err)
	}
	for i := 0; i < *frames; i++ {
		frame, err := gen.Next()
		if err != nil {
			log.Fatalf("Generating frame %d: %v", i, err)
		}
		if err := writer.WriteFrame(frame); err != nil {
			log.Fatalf("Writing frame %d: %v", i, err)
		}
	}
	if err := writer.Close(); err != nil {
		log.Fatalf("Closing pose log: %v", err)
	}
	log.Printf("Wrote %d %s frames to %s", *frames, model, *out)
}

func runPlots(args []string) {
	fs := flag.NewFlagSet("plots", flag.ExitOnError)
	dbPath := fs.String("db", "overlay_sessions.db", "Path to the SQLite session database")
	sessionID := fs.String("session", "", "Session to plot (required)")
	outDir := fs.String("out", "", "Output directory (default: plots/<source>_<timestamp>)")
	fs.Parse(args)

	if *sessionID == "" {
		fmt.Fprintln(os.Stderr, "Error: --session is required")
		fs.Usage()
		os.Exit(1)
	}

	store, err := session.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open session database: %v", err)
	}
	defer store.Close()

	dir := *outDir
	if dir == "" {
		sess, err := store.GetSession(*sessionID)
		if err != nil {
			log.Fatalf("Failed to load session %s: %v", *sessionID, err)
		}
		dir = monitor.MakePlotOutputDir("plots", sess.Source)
	}
	if err := security.ValidateExportPath(dir); err != nil {
		log.Fatalf("Refusing output directory: %v", err)
	}

	plotter := monitor.NewSessionPlotter(store, dir)
	n, err := plotter.GeneratePlots(*sessionID)
	if err != nil {
		log.Fatalf("Plot generation failed: %v", err)
	}
	log.Printf("Wrote %d plots to %s", n, plotter.OutputDir())
}

func runSessions(args []string) {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	server := fs.String("server", "http://localhost:8080", "Base URL of a running monitor")
	modelFilter := fs.String("model", "", "Filter by keypoint model")
	sessionID := fs.String("session", "", "Show one session with its latest samples")
	limit := fs.Int("limit", 10, "Sample rows to fetch with --session")
	fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := monitor.NewClient(nil, *server)

	if *sessionID != "" {
		detail, err := client.Session(ctx, *sessionID)
		if err != nil {
			log.Fatalf("Failed to fetch session: %v", err)
		}
		printSessionLine(detail.Session)
		fmt.Printf("  %d samples recorded\n", detail.SampleCount)

		samples, err := client.Samples(ctx, *sessionID, *limit)
		if err != nil {
			log.Fatalf("Failed to fetch samples: %v", err)
		}
		for _, s := range samples {
			line := fmt.Sprintf("  frame %6d  poses=%d labels=%d", s.FrameIndex, s.PoseCount, s.LabelCount)
			if s.OrientationDeg != nil {
				line += fmt.Sprintf("  facing=%+.1f°", *s.OrientationDeg)
			}
			fmt.Println(line)
		}
		return
	}

	sessions, err := client.Sessions(ctx, *modelFilter)
	if err != nil {
		log.Fatalf("Failed to list sessions: %v", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded")
		return
	}
	for _, sess := range sessions {
		printSessionLine(sess)
	}
}

func printSessionLine(sess *session.Session) {
	label := sess.Label
	if label == "" {
		label = "-"
	}
	line := fmt.Sprintf("%s  %-10s %-12s %dx%d @ %.1f fps  started %s",
		sess.SessionID, sess.Model, label, sess.VideoWidth, sess.VideoHeight,
		sess.FrameRate, time.Unix(0, sess.StartedAtNs).Format("2006-01-02 15:04:05"))
	if sess.EndedAtNs != nil {
		line += fmt.Sprintf("  ended %s", time.Unix(0, *sess.EndedAtNs).Format("15:04:05"))
	}
	fmt.Println(line)
}

func runMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbPath := fs.String("db", "overlay_sessions.db", "Path to the SQLite session database")
	fs.Parse(args)

	if fs.NArg() < 1 {
		printMigrateHelp()
		os.Exit(1)
	}
	action := fs.Arg(0)

	store, err := session.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open session database: %v", err)
	}
	defer store.Close()

	switch action {
	case "up":
		log.Printf("Running migrations...")
		if err := store.MigrateUp(); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		log.Println("✓ All migrations applied successfully")
		logMigrateVersion(store)

	case "down":
		log.Printf("Rolling back one migration...")
		if err := store.MigrateDown(); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		log.Println("✓ Migration rolled back successfully")
		logMigrateVersion(store)

	case "status":
		v, dirty, err := store.MigrateVersion()
		if err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
		fmt.Println("=== Migration Status ===")
		fmt.Printf("Database: %s\n", store.Path())
		fmt.Printf("Current version: %d\n", v)
		fmt.Printf("Dirty: %v\n", dirty)
		if dirty {
			fmt.Println("\nA migration failed mid-run. Inspect the database, then use")
			fmt.Println("'migrate force <version>' to mark a known-good version.")
		}

	case "version":
		v, dirty, err := store.MigrateVersion()
		if err != nil {
			log.Fatalf("Failed to get migration version: %v", err)
		}
		fmt.Printf("%d (dirty: %v)\n", v, dirty)

	case "force":
		if fs.NArg() < 2 {
			log.Fatal("Usage: sportai-overlay migrate force <version>")
		}
		v, err := strconv.Atoi(fs.Arg(1))
		if err != nil {
			log.Fatalf("Invalid version %q: %v", fs.Arg(1), err)
		}
		if err := store.MigrateForce(v); err != nil {
			log.Fatalf("Migration force failed: %v", err)
		}
		log.Printf("✓ Forced migration version to %d", v)

	case "help":
		printMigrateHelp()

	default:
		fmt.Printf("Unknown migrate action: %s\n\n", action)
		printMigrateHelp()
		os.Exit(1)
	}
}

func printMigrateHelp() {
	fmt.Println(`Usage: sportai-overlay migrate [--db <path>] <action>

Actions:
  up               Apply all pending migrations
  down             Roll back one migration
  status           Show current schema version and dirty state
  version          Print the schema version number
  force <version>  Mark the schema version without running migrations
                   (recovery after a failed migration)
  help             Show this help message`)
}

func logMigrateVersion(store *session.Store) {
	v, dirty, err := store.MigrateVersion()
	if err != nil {
		return
	}
	log.Printf("Current version: %d (dirty: %v)", v, dirty)
}
