package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"backend-ripple/internal/config"
	"backend-ripple/internal/db"
	"backend-ripple/internal/feed"
	"backend-ripple/internal/logx"
	"backend-ripple/internal/user"
)

var exitFn = os.Exit

func main() {
	exitFn(run(os.Args[1:]))
}

// run repopulates feed indexes for one user or all users. Safe to re-run:
// inserts ignore rows that already exist.
func run(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: backfill <userId|all>")
		return 1
	}
	target := args[0]

	cfg := config.Load()
	log := logx.New(cfg.AppEnv)

	pool, err := db.ConnectPostgres(cfg)
	if err != nil {
		log.Error().Err(err).Msg("postgres connection failed")
		return 1
	}
	defer pool.Close()

	graph := user.NewService(pool)
	svc := feed.NewService(pool, graph, nil, log, time.Duration(cfg.FeedBackfillDays)*24*time.Hour)

	ctx := context.Background()
	var inserted int
	if target == "all" {
		inserted, err = svc.BackfillAllUsers(ctx)
	} else {
		inserted, err = svc.BackfillUserFeed(ctx, target)
	}
	if err != nil {
		log.Error().Err(err).Str("target", target).Msg("backfill failed")
		return 1
	}

	log.Info().Str("target", target).Int("inserted", inserted).Msg("backfill complete")
	return 0
}
