package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"communityscout/pkg/audience"
	"communityscout/pkg/citydesc"
	"communityscout/pkg/community"
	"communityscout/pkg/config"
	"communityscout/pkg/db"
	"communityscout/pkg/geo"
	"communityscout/pkg/llm"
	"communityscout/pkg/logging"
	"communityscout/pkg/places"
	"communityscout/pkg/pool"
	"communityscout/pkg/query"
	"communityscout/pkg/request"
	"communityscout/pkg/sampler"
	"communityscout/pkg/scorer"
	"communityscout/pkg/store"
	"communityscout/pkg/tracker"
	"communityscout/pkg/version"
)

var (
	initConfig   = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath   = flag.String("config", "configs/communityscout.yaml", "Path to config file")
	city         = flag.String("city", "", "Preferred city to disambiguate the zip")
	state        = flag.String("state", "", "Preferred state to disambiguate the zip")
	audienceFlag = flag.String("audience", "", "Buyer audience segment (e.g. family_buyers)")
	serviceAreas = flag.String("service-areas", "", "Comma-separated service areas, e.g. \"Oakland, CA;Berkeley, CA\" (separated by ;)")
	describe     = flag.Bool("describe", false, "Also print the LLM city description")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.Save(*configPath, config.DefaultConfig()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: communityscout [flags] <zip>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(context.Background(), flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, zip string) error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("communityscout started", "version", version.Version, "zip", zip)

	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbConn.Close()
	st := store.NewSQLiteStore(dbConn)

	if pruned, err := dbConn.PruneExpired(); err != nil {
		slog.Warn("Cache pruning failed", "error", err)
	} else if pruned > 0 {
		slog.Debug("Pruned expired cache entries", "count", pruned)
	}
	if retention := time.Duration(cfg.DB.Retention); retention > 0 {
		if err := dbConn.PruneCache(retention); err != nil {
			slog.Warn("Cache retention sweep failed", "error", err)
		}
	}

	catCfg, err := config.LoadCategories("configs/categories.yaml")
	if err != nil {
		return fmt.Errorf("failed to load categories config: %w", err)
	}

	tr := tracker.New()
	reqClient := request.New(st, tr, &cfg.Request)

	placesClient := places.NewGoogleClient(reqClient, &cfg.Places)
	dataset := geo.NewDataset(cfg.Geo.DatasetPath)

	composer := query.NewComposer(catCfg)
	sc := scorer.NewScorer(catCfg, &cfg.Engine)
	fetcher := pool.NewFetcher(placesClient, sc, &cfg.Engine)
	pools := pool.NewCache(st, &cfg.Engine)
	smp := sampler.New(rand.New(rand.NewSource(time.Now().UnixNano())))
	builder := audience.NewBuilder(catCfg, &cfg.Engine, composer, pools, fetcher, smp, st)

	assembler := community.NewAssembler(dataset, catCfg, &cfg.Engine, composer, pools, fetcher, smp, builder, placesClient, st)

	req := &community.Request{
		Zip:          zip,
		City:         *city,
		State:        *state,
		Audience:     *audienceFlag,
		ServiceAreas: splitAreas(*serviceAreas),
	}

	data, err := assembler.Aggregate(ctx, req)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}
	if data == nil {
		fmt.Printf("No location data for zip %s\n", zip)
		return nil
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))

	if *describe {
		if err := printDescription(ctx, cfg, tr, st, data.City, data.StateCode); err != nil {
			slog.Warn("City description failed", "error", err)
		}
	}

	printStats(tr)
	return nil
}

func printDescription(ctx context.Context, cfg *config.Config, tr *tracker.Tracker, st store.Store, cityName, stateCode string) error {
	provider, cleanup, err := llm.NewProvider(&cfg.LLM, tr)
	if err != nil {
		return err
	}
	defer cleanup()

	desc, err := citydesc.New(provider, st).Describe(ctx, cityName, stateCode)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s, %s: %s\n", cityName, stateCode, desc)
	return nil
}

func printStats(tr *tracker.Tracker) {
	stats := tr.Snapshot()
	if len(stats) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr)
	for provider, s := range stats {
		fmt.Fprintf(os.Stderr, "%s: %d API calls, %d failures, %d cache hits, %d misses\n",
			provider, s.APISuccess, s.APIFailures, s.CacheHits, s.CacheMisses)
	}
}

func splitAreas(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
