// nabajkctl inspects and manages the ride store written by nabajkd.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/LukaGrunt/nabajk/pkg/config"
	"github.com/LukaGrunt/nabajk/pkg/logx"
	"github.com/LukaGrunt/nabajk/pkg/polyline"
	"github.com/LukaGrunt/nabajk/pkg/rides"
)

var (
	dataDir  = flag.String("data-dir", "", "Override data directory")
	logLevel = flag.String("log-level", "warn", "Log level")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: nabajkctl [flags] <command> [args]

Commands:
  list                     List saved rides, newest first
  show <id>                Print one ride as JSON
  export <id> <dest>       Copy the ride's GPX export to dest
  mark-uploaded <id>       Flag a ride as synced
  decode <polyline>        Decode a polyline and print its points and bounds

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	logger := logx.NewLogger(*logLevel, "nabajkctl")

	cfg := config.Load()
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	if args[0] == "decode" {
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		if err := decode(args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "nabajkctl: %v\n", err)
			os.Exit(1)
		}
		return
	}

	kv, err := rides.OpenBolt(cfg.DBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "nabajkctl: %v\n", err)
		os.Exit(1)
	}
	defer kv.Close()
	store := rides.NewStore(kv, logger)

	ctx := context.Background()
	if err := run(ctx, store, args); err != nil {
		fmt.Fprintf(os.Stderr, "nabajkctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, store *rides.Store, args []string) error {
	switch args[0] {
	case "list":
		return list(ctx, store)
	case "show":
		if len(args) != 2 {
			return fmt.Errorf("show requires a ride id")
		}
		return show(ctx, store, args[1])
	case "export":
		if len(args) != 3 {
			return fmt.Errorf("export requires a ride id and a destination path")
		}
		return export(ctx, store, args[1], args[2])
	case "mark-uploaded":
		if len(args) != 2 {
			return fmt.Errorf("mark-uploaded requires a ride id")
		}
		return store.MarkUploaded(ctx, args[1])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func list(ctx context.Context, store *rides.Store) error {
	all := store.List(ctx)
	if len(all) == 0 {
		fmt.Println("no rides recorded")
		return nil
	}
	for _, r := range all {
		uploaded := " "
		if r.Uploaded {
			uploaded = "*"
		}
		fmt.Printf("%s %s  %s  %7.0fm  %4d pts  %s\n",
			uploaded, r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.DistanceMeters, r.PointsCount, r.Name)
	}
	return nil
}

func show(ctx context.Context, store *rides.Store, id string) error {
	r, err := store.Get(ctx, id)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func export(ctx context.Context, store *rides.Store, id, dest string) error {
	r, err := store.Get(ctx, id)
	if err != nil {
		return err
	}

	src, err := os.Open(r.GPXPath)
	if err != nil {
		return fmt.Errorf("open gpx export: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("copy gpx export: %w", err)
	}
	fmt.Printf("exported %s to %s\n", id, dest)
	return nil
}

func decode(encoded string) error {
	points, err := polyline.Decode(encoded)
	if err != nil {
		return err
	}
	for _, p := range points {
		fmt.Printf("%.5f,%.5f\n", p.Lat, p.Lng)
	}
	b := polyline.BoundsOf(points)
	fmt.Printf("bounds: %.5f,%.5f %.5f,%.5f\n", b.MinLat, b.MinLng, b.MaxLat, b.MaxLng)
	return nil
}
