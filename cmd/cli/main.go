package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/qr-redirect/pkg/adapters/legacy"
	"github.com/wadjakorntonsri/qr-redirect/pkg/app"
	"github.com/wadjakorntonsri/qr-redirect/pkg/config"
	"github.com/wadjakorntonsri/qr-redirect/pkg/core/domain"
	"github.com/wadjakorntonsri/qr-redirect/pkg/logger"
)

const usage = "expected 'export', 'import' or 'import-lowdb' subcommands"

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportAnalytics := exportCmd.Bool("analytics", false, "export analytics events instead of redirects")

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")

	lowdbCmd := flag.NewFlagSet("import-lowdb", flag.ExitOnError)
	lowdbURLs := lowdbCmd.String("urls", "", "urlDB.json written by the old service")
	lowdbAnalytics := lowdbCmd.String("analytics", "", "analyticsDB.json written by the old service")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg := config.Load()
	logger.Initialize(cfg.AppEnv, cfg.LogLevel)

	ctx := context.Background()
	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open stores")
	}
	defer a.Close()

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		err = doExport(ctx, a, *exportAnalytics)
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		err = doImport(ctx, a, *importFile)
	case "import-lowdb":
		lowdbCmd.Parse(os.Args[2:])
		if *lowdbURLs == "" && *lowdbAnalytics == "" {
			lowdbCmd.PrintDefaults()
			os.Exit(1)
		}
		err = doImportLowDB(ctx, a, cfg, *lowdbURLs, *lowdbAnalytics)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}

	if err != nil {
		a.Close()
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Command failed")
	}
}

func doExport(ctx context.Context, a *app.App, analytics bool) error {
	var out any
	var err error
	if analytics {
		out, err = a.Analytics.Dump(ctx)
	} else {
		out, err = a.Store.Dump(ctx)
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func doImport(ctx context.Context, a *app.App, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	var links []domain.Redirect
	if err := json.NewDecoder(file).Decode(&links); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	count, err := a.Store.Import(ctx, links)
	if err != nil {
		return err
	}
	stored, err := a.Store.Count(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("imported", count).Int("total", len(links)).Int64("stored", stored).Msg("Imported redirects")
	return nil
}

func doImportLowDB(ctx context.Context, a *app.App, cfg *config.Config, urlsFile, analyticsFile string) error {
	if urlsFile != "" {
		file, err := os.Open(urlsFile)
		if err != nil {
			return err
		}
		defer file.Close()

		links, err := legacy.DecodeRedirects(file)
		if err != nil {
			return err
		}
		count, err := a.Store.Import(ctx, links)
		if err != nil {
			return err
		}
		log.Info().Int("imported", count).Int("total", len(links)).Msg("Imported lowdb redirects")
	}

	if analyticsFile != "" {
		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		file, err := os.Open(analyticsFile)
		if err != nil {
			return err
		}
		defer file.Close()

		events, err := legacy.DecodeEvents(file, loc)
		if err != nil {
			return err
		}
		count, err := a.Analytics.Import(ctx, events)
		if err != nil {
			return err
		}
		stored, err := a.Analytics.Count(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("imported", count).Int64("stored", stored).Msg("Imported lowdb analytics events")
	}
	return nil
}
