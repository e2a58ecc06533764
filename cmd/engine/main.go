package main

import (
	"context"
	"log"
	"os"

	"github.com/rawblock/mint-engine/internal/api"
	"github.com/rawblock/mint-engine/internal/audit"
	"github.com/rawblock/mint-engine/internal/chainfeed"
	"github.com/rawblock/mint-engine/internal/db"
	"github.com/rawblock/mint-engine/internal/lifecycle"
	"github.com/rawblock/mint-engine/internal/lock"
	"github.com/rawblock/mint-engine/internal/metadatasvc"
	"github.com/rawblock/mint-engine/internal/orchestrator"
	"github.com/rawblock/mint-engine/internal/tokensvc"
)

func main() {
	log.Println("Starting Mint Engine...")

	// ─── Required Environment Variables ─────────────────────────────────
	// All credentials MUST come from environment variables. No fallback
	// defaults for security-sensitive values. The process reads only its
	// environment; it does not load a .env file itself.
	// ────────────────────────────────────────────────────────────────────

	dbUrl := requireEnv("DATABASE_URL")

	store, err := db.Connect(dbUrl)
	if err != nil {
		log.Fatalf("FATAL: Failed to connect to PostgreSQL: %v", err)
	}
	defer store.Close()
	if err := store.InitSchema(); err != nil {
		log.Fatalf("FATAL: DB schema init failed: %v", err)
	}

	chainHost := getEnvOrDefault("CHAIN_RPC_HOST", "localhost:8332")
	chainUser := requireEnv("CHAIN_RPC_USER")
	chainPass := requireEnv("CHAIN_RPC_PASS")

	chainClient, err := chainfeed.NewClient(chainfeed.Config{
		Host: chainHost,
		User: chainUser,
		Pass: chainPass,
	})
	if err != nil {
		log.Printf("Warning: Failed to connect to chain feed RPC: %v", err)
	} else {
		defer chainClient.Shutdown()
	}

	poller := chainfeed.NewPoller(chainClient)
	pollCtx, cancelPoll := context.WithCancel(context.Background())
	defer cancelPoll()
	go poller.Run(pollCtx)

	wsHub := api.NewHub()
	go wsHub.Run()

	locks := lock.NewKeyedMutex()
	lifecycleMgr := lifecycle.NewManager(store, locks)

	orch := &orchestrator.Orchestrator{
		Store:     store,
		Locks:     locks,
		Chain:     poller,
		Metadata:  metadatasvc.NewClient(getEnvOrDefault("METADATA_SERVICE_URL", "")),
		Token:     tokensvc.NewClient(),
		ProgramID: requireEnv("ENGINE_PROGRAM_ID"),
	}

	scanner := audit.NewScanner(store)
	scanner.AlertFunc = func(v audit.Violation) {
		log.Printf("[audit] violation on machine %s: %s (%s)", v.MachineID, v.Kind, v.Detail)
	}

	handler := &api.APIHandler{
		Lifecycle:    lifecycleMgr,
		Orchestrator: orch,
		Audit:        scanner,
		Hub:          wsHub,
	}

	r := api.SetupRouter(handler)

	port := getEnvOrDefault("PORT", "5339")

	log.Printf("Engine running on :%s\n", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// requireEnv reads a required environment variable and exits if it is not set.
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set.", key)
	}
	return val
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
