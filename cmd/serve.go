package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"comment-radar/internal/ai"
	"comment-radar/internal/gateway"
	"comment-radar/internal/merge"
	"comment-radar/worker"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway and the background merge worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		batches, snapshots, closeStores, err := openStores(cfg)
		if err != nil {
			return err
		}
		defer closeStores()

		var scorer ai.Scorer
		if cfg.OpenAI.APIKey != "" {
			scorer = ai.NewOpenAI(ai.Config{APIKey: cfg.OpenAI.APIKey, Model: cfg.OpenAI.Model, BaseURL: cfg.OpenAI.BaseURL})
		} else {
			slog.Warn("serve: no OpenAI API key configured, only pinned comments will be scored")
		}

		delay, err := time.ParseDuration(cfg.Merge.Delay)
		if err != nil {
			return fmt.Errorf("invalid merge.delay: %w", err)
		}
		engine := merge.New(batches, snapshots)
		mergeWorker := worker.NewMergeWorker(engine, delay)
		if s := strings.TrimSpace(cfg.Merge.SweepInterval); s != "" {
			iv, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("invalid merge.sweep_interval: %w", err)
			}
			mergeWorker.SweepInterval = iv
		}

		instructions := strings.TrimSpace(cfg.Scoring.Instructions)
		if instructions == "" {
			instructions = ai.DefaultInstructions
		}
		gw := &gateway.Server{
			Batches:      batches,
			Snapshots:    snapshots,
			Scorer:       scorer,
			Merges:       mergeWorker,
			Instructions: instructions,
		}

		srv := &http.Server{Addr: cfg.Server.Addr, Handler: gw.Router()}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			log.Printf("received signal: %s, shutting down", s)
			cancel()
		}()

		go func() {
			<-ctx.Done()
			shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutCancel()
			_ = srv.Shutdown(shutCtx)
		}()

		go func() {
			slog.Info("serve: gateway listening", "addr", cfg.Server.Addr, "backend", cfg.Storage.Backend)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("serve: gateway stopped", "error", err)
				cancel()
			}
		}()

		mgr := worker.NewManager(mergeWorker)
		return mgr.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
