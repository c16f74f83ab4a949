// Binary enginemarket trades Hive-Engine sidechain tokens for every
// configured account: a single token by symbol, or an --all-tokens sweep
// that liquidates everything outside the whitelist into the target token.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/TheCrazyGM/auto-market/internal/batch"
	"github.com/TheCrazyGM/auto-market/internal/config"
	"github.com/TheCrazyGM/auto-market/internal/engine"
	"github.com/TheCrazyGM/auto-market/internal/hive"
	"github.com/TheCrazyGM/auto-market/internal/metrics"
	"github.com/TheCrazyGM/auto-market/internal/util"
)

type args struct {
	accountsPath string
	activeKey    string
	operation    string
	token        string
	target       string
	minAmount    string
	maxAmount    string
	node         string
	engineNode   string
	outFile      string
	allTokens    bool
	debug        bool
	dryRun       bool
}

func parseArgs() (*args, batch.Request, error) {
	a := &args{}
	flag.StringVar(&a.accountsPath, "accounts", "", "path to YAML accounts file (default accounts.yaml)")
	flag.StringVar(&a.accountsPath, "a", "", "shorthand for -accounts")
	flag.StringVar(&a.activeKey, "active-key", "", "active key for transaction authority (overrides env and config)")
	flag.StringVar(&a.activeKey, "k", "", "shorthand for -active-key")
	flag.StringVar(&a.operation, "operation", "sell", "operation to run: sell | buy")
	flag.StringVar(&a.operation, "o", "sell", "shorthand for -operation")
	flag.StringVar(&a.token, "token", "", "token symbol to trade (e.g. LEO, SWAP.BTC)")
	flag.StringVar(&a.token, "t", "", "shorthand for -token")
	flag.BoolVar(&a.allTokens, "all-tokens", false, "sell all held tokens except whitelisted ones")
	flag.BoolVar(&a.allTokens, "A", false, "shorthand for -all-tokens")
	flag.StringVar(&a.target, "target", "SWAP.HIVE", "target token to trade against")
	flag.StringVar(&a.minAmount, "min-amount", "0.00001", "minimum balance that triggers a trade")
	flag.StringVar(&a.minAmount, "m", "0.00001", "shorthand for -min-amount")
	flag.StringVar(&a.maxAmount, "max-amount", "0", "maximum amount per trade (0 = no limit)")
	flag.StringVar(&a.maxAmount, "x", "0", "shorthand for -max-amount")
	flag.StringVar(&a.node, "node", "", "Hive API node (overrides config)")
	flag.StringVar(&a.engineNode, "engine-node", "", "Hive-Engine API node (overrides config)")
	flag.StringVar(&a.outFile, "out", "", "append outcomes to this JSONL file")
	flag.BoolVar(&a.debug, "debug", false, "enable debug logging")
	flag.BoolVar(&a.debug, "d", false, "shorthand for -debug")
	flag.BoolVar(&a.dryRun, "dry-run", false, "simulate without broadcasting")
	flag.Parse()

	var request batch.Request
	switch a.operation {
	case "sell":
		request.Operation = batch.OpEngineSell
	case "buy":
		request.Operation = batch.OpEngineBuy
	default:
		return nil, request, fmt.Errorf("unknown operation %q", a.operation)
	}

	if a.allTokens && request.Operation != batch.OpEngineSell {
		return nil, request, fmt.Errorf("-all-tokens only applies to sell")
	}
	if !a.allTokens && a.token == "" {
		return nil, request, fmt.Errorf("either -token or -all-tokens must be given")
	}

	var err error
	if request.Min, err = decimal.NewFromString(a.minAmount); err != nil {
		return nil, request, fmt.Errorf("bad -min-amount: %w", err)
	}
	if request.Max, err = decimal.NewFromString(a.maxAmount); err != nil {
		return nil, request, fmt.Errorf("bad -max-amount: %w", err)
	}
	request.Symbol = a.token
	request.Target = a.target
	request.AllTokens = a.allTokens
	request.DryRun = a.dryRun
	return a, request, nil
}

func main() {
	a, request, err := parseArgs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level := "info"
	if a.debug {
		level = "debug"
	}
	log := util.NewLogger(level)

	cfg, err := config.Load(a.accountsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	key, err := config.ResolveActiveKey(a.activeKey, cfg.ActiveKey, log)
	if err != nil {
		log.Fatal().Err(err).Msg("resolve active key")
	}
	wif, err := hive.DecodeWIF(key)
	if err != nil {
		log.Fatal().Err(err).Msg("decode active key")
	}

	if cfg.MetricsAddr != "" {
		_ = metrics.Serve(cfg.MetricsAddr)
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics up")
	}

	node := a.node
	if node == "" {
		node = cfg.Node
	}
	engineNode := a.engineNode
	if engineNode == "" {
		engineNode = cfg.EngineNode
	}

	chain := hive.NewClient(node, wif, log)
	runner := batch.Runner{
		Engine:    engine.NewClient(engineNode, chain, log),
		Authority: cfg.Authority(),
		Request:   request,
		Whitelist: cfg.WhitelistSet(),
		Log:       log,
	}
	if a.outFile != "" {
		recorder, err := batch.NewJSONLRecorder(a.outFile)
		if err != nil {
			log.Fatal().Err(err).Msg("open outcome file")
		}
		defer recorder.Close()
		runner.Recorder = recorder
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runner.Run(ctx, cfg.Accounts)
}
