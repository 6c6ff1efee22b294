/*
	RuinVault
	Copyright (c) 2021 the RuinVault authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package rvcmd facilitates the command line interface (CLI)
// and implements the main().
package rvcmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ruinvault/ruinvault/archive"
	"github.com/ruinvault/ruinvault/mediameta"
)

func Main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	sub := os.Args[1]
	fn, ok := subcommands[sub]
	if !ok {
		printUsage()
		archive.Log.Fatal("unknown subcommand", zap.String("subcommand", sub))
	}

	if err := fn(context.Background(), os.Args[2:]); err != nil {
		archive.Log.Fatal("subcommand failed",
			zap.String("subcommand", sub),
			zap.Error(err))
	}
}

var subcommands = map[string]func(ctx context.Context, args []string) error{
	"init":         runInit,
	"add-location": runAddLocation,
	"locations":    runLocations,
	"import":       runImport,
	"verify":       runVerify,
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `usage: %s <subcommand> [flags]

subcommands:
  init           create a new archive
  add-location   add a location to the catalog
  locations      list catalog locations
  import         admit files into the archive under a location
  verify         re-hash every archived file against the catalog
`, os.Args[0])
}

// rootFlag registers the -root flag with the config-file value as default.
func rootFlag(fs *flag.FlagSet) *string {
	cfg, err := loadConfigFile()
	if err != nil {
		archive.Log.Fatal("failed loading config", zap.Error(err))
	}
	return fs.String("root", cfg.ArchiveRoot, "path of the archive root")
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	root := rootFlag(fs)
	fs.Parse(args)

	if *root == "" {
		return errors.New("archive root is required (-root flag or config file)")
	}

	a, err := archive.Create(ctx, *root)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("created archive %s at %s\n", a.ID(), a.Root())
	return nil
}

func runAddLocation(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-location", flag.ExitOnError)
	root := rootFlag(fs)
	name := fs.String("name", "", "display name of the location")
	slug := fs.String("slug", "", "short slug used in paths (max 12 chars)")
	state := fs.String("state", "", "state/region code, e.g. NY")
	locType := fs.String("type", "", "location type, e.g. hospital")
	subtype := fs.String("subtype", "", "optional sub-type")
	lat := fs.Float64("lat", 0, "latitude")
	lon := fs.Float64("lon", 0, "longitude")
	author := fs.String("author", "", "authorship tag")
	fs.Parse(args)

	a, err := archive.Open(ctx, *root)
	if err != nil {
		return err
	}
	defer a.Close()

	loc := &archive.Location{
		Name:    *name,
		Slug:    *slug,
		State:   *state,
		Type:    *locType,
		Subtype: *subtype,
		Status:  "unknown",
		Author:  *author,
	}
	if *lat != 0 || *lon != 0 {
		loc.Latitude, loc.Longitude = lat, lon
	}

	if err := a.AddLocation(ctx, loc); err != nil {
		return err
	}

	fmt.Printf("added location %s (%s)\n", loc.Slug, loc.ID)
	return nil
}

func runLocations(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("locations", flag.ExitOnError)
	root := rootFlag(fs)
	fs.Parse(args)

	a, err := archive.Open(ctx, *root)
	if err != nil {
		return err
	}
	defer a.Close()

	locs, err := a.Locations(ctx)
	if err != nil {
		return err
	}
	for _, loc := range locs {
		fmt.Printf("%s  %-12s  %s-%s  %s\n", loc.ID, loc.Slug, strings.ToUpper(loc.State), loc.Type, loc.Name)
	}
	return nil
}

func runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	root := rootFlag(fs)
	locKey := fs.String("location", "", "target location (slug or UUID)")
	sublocation := fs.String("sublocation", "", "optional sub-location UUID")
	deleteSource := fs.Bool("delete-source", false, "delete original files after verified import")
	fs.Parse(args)

	files := fs.Args()
	if len(files) == 0 {
		return errors.New("no files to import")
	}
	if *locKey == "" {
		return errors.New("target location is required")
	}

	a, err := archive.Open(ctx, *root)
	if err != nil {
		return err
	}
	defer a.Close()
	a.SetEnricher(mediameta.Extractor{})

	loc, err := a.ResolveLocation(ctx, *locKey)
	if err != nil {
		return err
	}

	opt := archive.ImportOptions{DeleteSourceOnSuccess: *deleteSource}
	if *sublocation != "" {
		subID, err := uuid.Parse(*sublocation)
		if err != nil {
			return fmt.Errorf("invalid sublocation id: %w", err)
		}
		opt.SublocationID = &subID
	}

	// imports into one location are serialized: single writer per layout
	var failed int
	for _, file := range files {
		result, err := a.Import(ctx, file, loc, opt)
		if err != nil {
			failed++
			var impErr *archive.ImportError
			if errors.As(err, &impErr) && impErr.Kind == archive.FailureDuplicateContent {
				fmt.Printf("SKIP  %s: already archived as %s (location %s)\n",
					file, impErr.Existing.ArchivedName, impErr.Existing.LocationID)
				continue
			}
			fmt.Printf("FAIL  %s: %v\n", file, err)
			continue
		}
		if result.Warning != "" {
			fmt.Printf("OK    %s -> %s (warning: %s)\n", file, result.ArchivedName, result.Warning)
			continue
		}
		fmt.Printf("OK    %s -> %s\n", file, result.ArchivedName)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files were not imported", failed, len(files))
	}
	return nil
}

func runVerify(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	root := rootFlag(fs)
	fs.Parse(args)

	a, err := archive.Open(ctx, *root)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.VerifyAll(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("checked %d files: %d missing, %d mismatched\n",
		report.Checked, len(report.Missing), len(report.Mismatched))
	if !report.OK() {
		return errors.New("archive failed integrity sweep")
	}
	return nil
}
