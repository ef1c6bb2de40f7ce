// Command lookup prints the stations within walking distance of an address.
// API settings come from the same environment variables as the service.
//
// Usage:
//
//	go run ./cmd/lookup -address "〒980-0021 仙台市青葉区中央二丁目10-20" \
//	  -max-walk 15 -max-candidates 5 [-copy | -json]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/walkable-stations/internal/adapter/heartrails"
	"github.com/couchcryptid/walkable-stations/internal/config"
	"github.com/couchcryptid/walkable-stations/internal/domain"
	"github.com/couchcryptid/walkable-stations/internal/observability"
)

func main() {
	address := flag.String("address", "", "address to search from (a 7-digit postal code improves accuracy)")
	maxWalk := flag.Int("max-walk", 0, "maximum walking minutes (default from DEFAULT_MAX_WALK_MIN)")
	maxCandidates := flag.Int("max-candidates", 0, "maximum stations to list (default from DEFAULT_MAX_CANDIDATES)")
	asJSON := flag.Bool("json", false, "print the result as JSON")
	copyBlock := flag.Bool("copy", false, "print the two-line paste format")
	flag.Parse()

	if *address == "" && flag.NArg() > 0 {
		*address = flag.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, "text")
	client := heartrails.NewClient(heartrails.Options{
		Timeout:     cfg.APITimeout,
		Retries:     cfg.APIRetries,
		BaseDelay:   cfg.APIBackoff,
		MinInterval: cfg.APIRateLimit,
	}, observability.NewMetrics(), logger)

	normalizer, err := domain.NewLineNormalizerForProfile(cfg.LineProfile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	finder := domain.NewStationFinder(
		domain.NewGeocoder(heartrails.NewGeoAPI(client, cfg.GeoAPIURL), logger),
		heartrails.NewExpressAPI(client, cfg.ExpressAPIURL),
		normalizer,
		logger,
	)

	addr := domain.NormalizeAddressInput(*address)
	bounds := domain.Bounds{MaxWalkMin: *maxWalk, MaxCandidates: *maxCandidates}.Or(cfg.DefaultBounds())

	res, err := finder.Lookup(ctx, addr, bounds.MaxWalkMin, bounds.MaxCandidates)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lookup failed: %v\n", err)
		if errors.Is(err, domain.ErrInvalidInput) {
			os.Exit(2)
		}
		os.Exit(1)
	}

	if *asJSON {
		if err := printJSON(os.Stdout, addr, bounds, res); err != nil {
			fmt.Fprintf(os.Stderr, "encode: %v\n", err)
			os.Exit(1)
		}
		return
	}
	printText(os.Stdout, os.Stderr, bounds, res.Stations, *copyBlock)
}

func printJSON(w io.Writer, addr string, bounds domain.Bounds, res domain.Lookup) error {
	stations := res.Stations
	if stations == nil {
		stations = []domain.StationResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(struct {
		Address       string                 `json:"address"`
		MaxWalkMin    int                    `json:"max_walk_min"`
		MaxCandidates int                    `json:"max_candidates"`
		Origin        domain.Coordinate      `json:"origin"`
		Stations      []domain.StationResult `json:"stations"`
	}{addr, bounds.MaxWalkMin, bounds.MaxCandidates, res.Origin, stations})
}

func printText(out, errOut io.Writer, bounds domain.Bounds, stations []domain.StationResult, copyBlock bool) {
	if len(stations) == 0 {
		fmt.Fprintln(errOut, "徒歩圏内の駅が見つかりませんでした。")
		return
	}
	fmt.Fprintf(errOut, "%d件表示（徒歩%d分以内）\n", len(stations), bounds.MaxWalkMin)
	for _, st := range stations {
		if copyBlock {
			fmt.Fprintln(out, st.CopyBlock())
		} else {
			fmt.Fprintln(out, st.Format())
		}
	}
}
