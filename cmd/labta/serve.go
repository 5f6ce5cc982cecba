package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"labta/internal/agent"
	"labta/internal/config"
	"labta/internal/grader"
	"labta/internal/knowledge"
	"labta/internal/language"
	"labta/internal/logging"
	"labta/internal/problems"
	"labta/internal/sandbox"
	"labta/internal/server"
	"labta/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the grading HTTP service",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logging.Initialize(cfg.DataDir, logging.Options{
		DebugMode:  cfg.Logging.DebugMode || verbose,
		Level:      cfg.Logging.Level,
		Categories: cfg.Logging.Categories,
		JSONFormat: cfg.Logging.JSONFormat,
	}); err != nil {
		return err
	}
	defer logging.CloseAll()

	logging.Boot("LabTA %s starting", cfg.Version)

	// Sandbox and driver executor.
	runner := sandbox.NewDockerRunner(sandbox.Config{
		Image:          cfg.Sandbox.Image,
		MountPath:      cfg.Sandbox.MountPath,
		Timeout:        cfg.GetSandboxTimeout(),
		MemoryBytes:    cfg.Sandbox.MemoryBytes,
		CPUs:           cfg.Sandbox.CPUs,
		MaxConcurrent:  cfg.Sandbox.MaxConcurrent,
		MaxOutputBytes: cfg.Sandbox.MaxOutputBytes,
	})
	if !runner.IsAvailable() {
		logging.BootError("docker is not available; submissions will fail")
		fmt.Fprintln(os.Stderr, "Warning: docker is not available, submissions will fail")
	}

	exec, err := language.NewExecutor(runner, cfg.Sandbox.WorkspaceRoot, cfg.Sandbox.MountPath)
	if err != nil {
		return fmt.Errorf("initializing executor: %w", err)
	}

	// Problem catalog with hot reload.
	catalog, err := problems.Load(cfg.ProblemsFile())
	if err != nil {
		return fmt.Errorf("loading problems: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := problems.NewWatcher(catalog)
	if err != nil {
		logging.BootError("problem catalog watcher unavailable: %v", err)
	} else {
		go watcher.Run(ctx)
	}

	// Knowledge base and sessions.
	base, err := knowledge.Load(cfg.KnowledgeFiles()...)
	if err != nil {
		return fmt.Errorf("loading knowledge base: %w", err)
	}

	sessions, err := session.Load(cfg.SessionsFile())
	if err != nil {
		return fmt.Errorf("loading sessions: %w", err)
	}

	// Hint pipeline.
	oracle := agent.NewGeminiClient(cfg.LLM, cfg.GetLLMTimeout())
	if !oracle.Enabled() {
		logging.Boot("no LLM API key configured, hints degraded")
	}
	hints := agent.NewOrchestrator(oracle, base)

	inv := grader.NewInvestigator(exec, catalog)

	srv := server.New(cfg, catalog, sessions, inv, base, hints, logger)

	errCh := make(chan error, 1)
	go func() {
		logging.Boot("listening on %s", cfg.Server.Addr)
		fmt.Printf("LabTA listening on %s\n", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-sigCh:
		logging.Boot("received %s, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.BootError("shutdown: %v", err)
	}

	// Sessions are flushed per mutation; this covers anything in flight.
	if err := sessions.Flush(); err != nil {
		logging.SessionError("final session flush failed: %v", err)
	}
	logging.Boot("shutdown complete")

	return nil
}
