package main

import (
	"context"
	"log"

	"github.com/rawblock/privacypool/internal/api"
	"github.com/rawblock/privacypool/internal/config"
	"github.com/rawblock/privacypool/internal/db"
	"github.com/rawblock/privacypool/internal/node"
	"github.com/rawblock/privacypool/internal/pool"
	"github.com/rawblock/privacypool/internal/relayer"
	"github.com/rawblock/privacypool/internal/signer"
)

func main() {
	log.Println("Starting RawBlock Privacy Pool Relayer...")

	cfg := config.LoadRuntime()

	dbConn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Printf("Warning: failed to connect to PostgreSQL, continuing without persisting sweep audit data. Error: %v", err)
	} else {
		defer dbConn.Close()
		if err := dbConn.InitSchema(); err != nil {
			log.Printf("Warning: DB schema init failed: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nodeClient, err := node.NewClient(ctx, node.Config{BaseURL: cfg.NodeBaseURL, APIKey: cfg.NodeAPIKey})
	if err != nil {
		log.Fatalf("FATAL: could not reach node at %s: %v", cfg.NodeBaseURL, err)
	}

	httpSigner := signer.NewHTTPSigner(cfg.SignerBaseURL, 0)

	poolClient := pool.NewClient(nodeClient, cfg.PoolScriptHash, cfg.FeeErgoTree, cfg.MinerFee)

	safetyPolicy, err := config.LoadSafetyPolicy("internal/config/safety.yaml")
	if err != nil {
		log.Fatalf("FATAL: failed to load safety policy: %v", err)
	}

	wsHub := api.NewHub()
	go wsHub.Run()

	var auditLog relayer.AuditLog
	if dbConn != nil {
		auditLog = dbConn
	}

	var sweeper *relayer.Sweeper
	if cfg.PoolID != "" {
		sweeper = relayer.NewSweeper(relayer.Config{
			Client:             nodeClient,
			Signer:             httpSigner,
			Hub:                wsHub,
			Audit:              auditLog,
			PoolID:             cfg.PoolID,
			DepositScriptHash:  cfg.DepositScriptHash,
			WithdrawScriptHash: cfg.WithdrawScriptHash,
			DryRun:             cfg.DryRun || safetyPolicy.Status().DryRun,
		})
		go sweeper.Run(ctx)
	} else {
		log.Println("WARNING: POOL_ID not set — relayer sweeper disabled, running in API-only mode")
	}

	r := api.SetupRouter(dbConn, poolClient, sweeper, safetyPolicy, wsHub)

	log.Printf("Relayer running on :%s\n", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
