package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/felo/sportai-web-sub011/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "serve":
		runServe(args)
	case "annotate":
		runAnnotate(args)
	case "genlog":
		runGenlog(args)
	case "plots":
		runPlots(args)
	case "sessions":
		runSessions(args)
	case "migrate":
		runMigrate(args)
	case "version":
		fmt.Printf("sportai-overlay %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sportai-overlay - pose overlay engine and session recorder

Usage: sportai-overlay <command> [options]

Commands:
  serve      Run the overlay daemon: play a pose source through the engine,
             record session samples, and serve the HTTP monitor
  annotate   Re-render a recorded pose log onto its source video
  genlog     Generate a synthetic pose log (JSONL)
  plots      Render PNG plots for a recorded session
  sessions   List sessions on a running daemon
  migrate    Manage the session database schema
  version    Show build version
  help       Show this help message

Examples:
  # Replay a detector log with the monitor on :8080
  sportai-overlay serve --source match.poselog --db overlay_sessions.db

  # Synthetic walking figure, extended 33-keypoint model
  sportai-overlay serve --model extended33

  # Annotate a video offline
  sportai-overlay annotate --video match.mp4 --poselog match.poselog --out match_annotated.avi

  # Apply schema migrations
  sportai-overlay migrate up --db overlay_sessions.db

Run 'sportai-overlay <command> -h' for command options.`)
}
