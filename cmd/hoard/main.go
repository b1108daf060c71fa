package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wnt/hoard/internal/config"
	"github.com/wnt/hoard/internal/database"
	"github.com/wnt/hoard/internal/events"
	"github.com/wnt/hoard/internal/ledger"
	"github.com/wnt/hoard/internal/logger"
	"github.com/wnt/hoard/internal/pnl"
	"github.com/wnt/hoard/internal/secrets"
	"github.com/wnt/hoard/internal/services"
	"github.com/wnt/hoard/internal/sync"
	"github.com/wnt/hoard/internal/wallet"
)

const usage = `Usage: hoard [-envFile path] <command> [args]

Commands:
  add <name>            create a new wallet
  import <name> <key>   import a wallet from base58, hex or a .json keypair file
  list                  list all wallets
  scan <pubkey>         synchronize holdings for a wallet by public key
  resync <name>         synchronize holdings for a wallet by name
  pnl <name>            record a PnL snapshot for a wallet by name
  key <pubkey>          print the stored private key for a wallet
`

func main() {
	envFile := flag.String("envFile", ".env", "Path to .env file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "No .env file found at %s, using environment variables\n", *envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)

	db, err := database.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	var bus events.Publisher = events.Log{Logger: log}
	if cfg.AMQPURL != "" {
		amqpBus, err := events.NewAMQPPublisher(cfg.AMQPURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to notification bus")
		}
		defer amqpBus.Close()
		bus = amqpBus
	}

	// Expose metrics while the command runs
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":"+cfg.MetricsPort, nil); err != nil {
			log.Warn().Err(err).Msg("metrics server stopped")
		}
	}()

	led := ledger.New(db)
	tracker := services.NewTrackerClient(cfg.TrackerURL, cfg.TrackerAPIKey)
	syncEngine := sync.NewEngine(led, tracker, bus, log)
	pnlEngine := pnl.NewEngine(led, tracker, bus, log)
	svc := wallet.NewService(led, secrets.NewStore(), syncEngine, pnlEngine, bus, log)

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	ctx := context.Background()

	switch args[0] {
	case "add":
		if len(args) != 2 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(1)
		}
		w, err := svc.Add(ctx, args[1])
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to add wallet")
		}
		fmt.Printf("Wallet added: %s (%s)\n", w.Name, w.PublicKey)

	case "import":
		if len(args) != 3 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(1)
		}
		w, err := svc.Import(ctx, args[1], args[2])
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to import wallet")
		}
		fmt.Printf("Wallet imported: %s (%s)\n", w.Name, w.PublicKey)

	case "list":
		wallets, err := svc.List(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list wallets")
		}
		for _, w := range wallets {
			fmt.Printf("%s: %s\n", w.Name, w.PublicKey)
		}

	case "scan":
		if len(args) != 2 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(1)
		}
		summaries, err := svc.Scan(ctx, args[1])
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to scan wallet")
		}
		printSummaries(summaries)

	case "resync":
		if len(args) != 2 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(1)
		}
		summaries, err := svc.Resync(ctx, args[1])
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to resync wallet")
		}
		printSummaries(summaries)

	case "pnl":
		if len(args) != 2 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(1)
		}
		report, err := svc.Pnl(ctx, args[1])
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to compute pnl")
		}
		fmt.Printf("Realized: %.2f  Unrealized: %.2f  Total: %.2f  Invested: %.2f\n",
			report.Summary.Realized, report.Summary.Unrealized,
			report.Summary.Total, report.Summary.TotalInvested)
		fmt.Printf("Wins: %d (%.1f%%)  Losses: %d (%.1f%%)\n",
			report.Summary.TotalWins, report.Summary.WinPercentage,
			report.Summary.TotalLosses, report.Summary.LossPercentage)
		for mint, tok := range report.Tokens {
			fmt.Printf("  %s  total=%.2f realized=%.2f unrealized=%.2f\n",
				mint, tok.Total, tok.Realized, tok.Unrealized)
		}

	case "key":
		if len(args) != 2 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(1)
		}
		secret, err := svc.PrivateKey(ctx, args[1])
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to retrieve private key")
		}
		fmt.Println(secret)

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func printSummaries(summaries []sync.TokenSummary) {
	fmt.Printf("Scanned %d tokens\n", len(summaries))
	for _, s := range summaries {
		fmt.Printf("  %-12s %-44s balance=%.4f value=%.2f\n", s.Symbol, s.Mint, s.Balance, s.Value)
	}
}
