package main

import (
	"context"
	"flag"
	"time"

	"ghrange/internal/core/partition"
	"ghrange/internal/platform/config"
	"ghrange/internal/platform/logger"
	"ghrange/internal/platform/store"

	crawlmod "ghrange/internal/services/crawl/module"
)

func main() {
	root := config.New()
	l := logger.Get()

	opts := crawlmod.FromConfig(root)

	st, err := store.Open(context.Background(), crawlmod.StoreConfigFromOptions(opts), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	mod := crawlmod.New(root, st.PG)

	var (
		fTarget = flag.Int("target", opts.TargetRepositoryCount, "number of repositories to crawl")
		fStart  = flag.String("start", "", "range start, RFC3339 (defaults to CRAWL_RANGE_START)")
		fEnd    = flag.String("end", "", "range end, RFC3339 (defaults to now)")
	)
	flag.Parse()

	start := opts.RangeStart
	if *fStart != "" {
		t, err := time.Parse(time.RFC3339, *fStart)
		if err != nil {
			l.Panic().Err(err).Msg("bad -start")
		}
		start = t
	}
	end := time.Now().UTC()
	if *fEnd != "" {
		t, err := time.Parse(time.RFC3339, *fEnd)
		if err != nil {
			l.Panic().Err(err).Msg("bad -end")
		}
		end = t
	}

	ports := mod.Ports().(crawlmod.Ports)
	result, err := ports.Runner.Run(context.Background(), partition.TimeRange{Start: start, End: end}, *fTarget)
	if err != nil {
		l.Fatal().Err(err).Msg("crawl failed")
	}

	ev := l.Info().Int("repositories_written", result.RepositoriesWritten)
	if result.RateLimitRemaining != nil {
		ev = ev.Int("rate_limit_remaining", *result.RateLimitRemaining)
	}
	ev.Msg("crawl finished")
}
