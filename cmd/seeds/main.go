package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/goliatone/go-seeds"
)

var moduleBuilder = func(cfg seeds.Config) (planter, error) {
	return seeds.New(cfg)
}

type planter interface {
	PlantNamed(ctx context.Context, name string) (*seeds.PlantResult, error)
	PlantAll(ctx context.Context) ([]*seeds.PlantResult, error)
	Close() error
}

const adHocSeedName = "cli"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("seeds plant: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("seeds", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a TOML config file")
	seedName := fs.String("seed", "", "Seed to plant (defaults to every configured seed)")
	asJSON := fs.Bool("json", false, "Print plant results as JSON")
	workspace := fs.String("workspace", "", "Vault root, overrides the config file")

	url := fs.String("url", "", "Plant an ad-hoc source from this URL or directory")
	kind := fs.String("kind", string(seeds.SourceKindGit), "Ad-hoc source kind: git or local")
	branch := fs.String("branch", "", "Ad-hoc git branch")
	directory := fs.String("dir", "", "Ad-hoc notes directory, relative to the source root")
	assetsDir := fs.String("assets-dir", "", "Ad-hoc assets directory, relative to the source root")
	strategy := fs.String("strategy", "", "Ad-hoc merge strategy: insertAtTop, appendToBottom or replace")
	sourceName := fs.String("source-name", "", "Ad-hoc provenance name")
	sourceURL := fs.String("source-url", "", "Ad-hoc provenance URL (defaults to -url)")
	license := fs.String("license", "", "Ad-hoc provenance license")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := seeds.DefaultConfig()
	if path := strings.TrimSpace(*configPath); path != "" {
		loaded, err := seeds.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if root := strings.TrimSpace(*workspace); root != "" {
		cfg.Workspace.Root = root
	}

	if strings.TrimSpace(*url) != "" {
		provenance := strings.TrimSpace(*sourceURL)
		if provenance == "" {
			provenance = strings.TrimSpace(*url)
		}
		cfg.Seeds = append(cfg.Seeds, seeds.SeedDefinition{
			Name:          adHocSeedName,
			MergeStrategy: strings.TrimSpace(*strategy),
			Source: seeds.SourceDescriptor{
				Kind:   seeds.SourceKind(strings.TrimSpace(*kind)),
				URL:    strings.TrimSpace(*url),
				Branch: strings.TrimSpace(*branch),
			},
			Provenance: seeds.ProvenanceRecord{
				Name:    strings.TrimSpace(*sourceName),
				URL:     provenance,
				License: strings.TrimSpace(*license),
			},
			Extractor: seeds.ExtractorConfig{
				Directory: strings.TrimSpace(*directory),
				AssetsDir: strings.TrimSpace(*assetsDir),
			},
		})
		*seedName = adHocSeedName
	}

	if len(cfg.Seeds) == 0 {
		return errors.New("no seeds configured; pass -config or -url")
	}

	module, err := moduleBuilder(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()

	var (
		results  []*seeds.PlantResult
		plantErr error
	)
	if name := strings.TrimSpace(*seedName); name != "" {
		result, err := module.PlantNamed(ctx, name)
		if result != nil {
			results = append(results, result)
		}
		plantErr = err
	} else {
		results, plantErr = module.PlantAll(ctx)
	}

	if err := report(stdout, results, *asJSON); err != nil {
		return err
	}
	return plantErr
}

func report(w io.Writer, results []*seeds.PlantResult, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}
	for _, result := range results {
		fmt.Fprintf(w, "%s: %s (created %d, merged %d, assets %d) in %s\n",
			result.Seed, result.State, len(result.Created), len(result.Merged), len(result.Assets), result.Duration)
		for _, err := range result.Errors {
			fmt.Fprintf(w, "  error: %v\n", err)
		}
	}
	return nil
}
