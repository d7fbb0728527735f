// Command doublets builds candidate hit pairs for one event and optionally
// stores, plots and serves the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/doublets/internal/db"
	"github.com/banshee-data/doublets/internal/monitoring"
	"github.com/banshee-data/doublets/internal/version"
)

var (
	hitsPath     = flag.String("hits", "", "Hit CSV file (hit table or TrackML hits)")
	geometryPath = flag.String("geometry", "", "Geometry CSV file")
	configPath   = flag.String("config", "", "Doublet config JSON (defaults apply when empty)")
	backendName  = flag.String("backend", "", "Backend override: scalar or batch")
	workers      = flag.Int("workers", -1, "Worker override for the scalar backend (0 = GOMAXPROCS)")
	outPath      = flag.String("out", "", "Write doublets to this CSV file")
	dbPath       = flag.String("db", "", "Record the run in this SQLite database")
	plotsDir     = flag.String("plots", "", "Write r-z plot and yield chart to this directory")
	listen       = flag.String("listen", "", "Serve the run store on this address after the run")
	check        = flag.Bool("check", false, "Also run the other backend and fail if the results differ")
	verbose      = flag.Bool("verbose", false, "Enable debug logging")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage:
  doublets -hits FILE -geometry FILE [flags]
  doublets migrate <action> [-db FILE]
  doublets refit [-db FILE]

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			fs := flag.NewFlagSet("migrate", flag.ExitOnError)
			path := fs.String("db", "doublets.db", "SQLite database")
			fs.Parse(os.Args[2:])
			if err := db.RunMigrateCommand(os.Stdout, fs.Args(), *path); err != nil {
				log.Fatalf("migrate: %v", err)
			}
			return
		case "refit":
			fs := flag.NewFlagSet("refit", flag.ExitOnError)
			path := fs.String("db", "doublets.db", "SQLite database")
			fs.Parse(os.Args[2:])
			if err := refit(os.Stdout, *path); err != nil {
				log.Fatalf("refit: %v", err)
			}
			return
		}
	}

	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	monitoring.SetVerbose(*verbose)

	if *hitsPath == "" || *geometryPath == "" {
		usage()
		os.Exit(2)
	}

	opts := options{
		HitsPath:     *hitsPath,
		GeometryPath: *geometryPath,
		ConfigPath:   *configPath,
		Backend:      *backendName,
		Workers:      *workers,
		OutPath:      *outPath,
		DBPath:       *dbPath,
		PlotsDir:     *plotsDir,
		Check:        *check,
	}
	res, err := run(opts)
	if err != nil {
		log.Fatalf("doublets: %v", err)
	}
	monitoring.Logf("%s backend: %d hits, %d doublets (estimated %d) in %v",
		res.Backend, res.NHits, len(res.Doublets), res.Estimated, res.Duration)
	if res.RunID != "" {
		monitoring.Logf("recorded run %s in %s", res.RunID, opts.DBPath)
	}

	if *listen != "" {
		if opts.DBPath == "" {
			log.Fatal("-listen requires -db")
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := serve(ctx, *listen, opts.DBPath, opts.PlotsDir); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}
}
