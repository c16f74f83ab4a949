// Binary hivemarket runs one base-chain operation (sell, buy, stake, or
// powerup) across every configured account, signed by the authority
// account's active key.
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
	"github.com/TheCrazyGM/auto-market/internal/hive"
	"github.com/TheCrazyGM/auto-market/internal/metrics"
	"github.com/TheCrazyGM/auto-market/internal/util"
)

type args struct {
	accountsPath string
	activeKey    string
	operation    string
	minAmount    string
	maxAmount    string
	memo         string
	node         string
	outFile      string
	debug        bool
	dryRun       bool
}

func parseArgs() (*args, batch.Request, error) {
	a := &args{}
	flag.StringVar(&a.accountsPath, "accounts", "", "path to YAML accounts file (default accounts.yaml)")
	flag.StringVar(&a.accountsPath, "a", "", "shorthand for -accounts")
	flag.StringVar(&a.activeKey, "active-key", "", "active key for transaction authority (overrides env and config)")
	flag.StringVar(&a.activeKey, "k", "", "shorthand for -active-key")
	flag.StringVar(&a.operation, "operation", "sell", "operation to run: sell | buy | stake | powerup")
	flag.StringVar(&a.operation, "o", "sell", "shorthand for -operation")
	flag.StringVar(&a.minAmount, "min-amount", "0.001", "minimum balance that triggers the operation")
	flag.StringVar(&a.minAmount, "m", "0.001", "shorthand for -min-amount")
	flag.StringVar(&a.maxAmount, "max-amount", "0", "maximum amount per account per run (0 = no limit)")
	flag.StringVar(&a.maxAmount, "x", "0", "shorthand for -max-amount")
	flag.StringVar(&a.memo, "memo", "", "memo attached to savings transfers")
	flag.StringVar(&a.node, "node", "", "Hive API node (overrides config)")
	flag.StringVar(&a.outFile, "out", "", "append outcomes to this JSONL file")
	flag.BoolVar(&a.debug, "debug", false, "enable debug logging")
	flag.BoolVar(&a.debug, "d", false, "shorthand for -debug")
	flag.BoolVar(&a.dryRun, "dry-run", false, "simulate without broadcasting")
	flag.Parse()

	var request batch.Request
	switch op := batch.Operation(a.operation); op {
	case batch.OpSell, batch.OpBuy, batch.OpStake, batch.OpPowerUp:
		request.Operation = op
	default:
		return nil, request, fmt.Errorf("unknown operation %q", a.operation)
	}

	var err error
	if request.Min, err = decimal.NewFromString(a.minAmount); err != nil {
		return nil, request, fmt.Errorf("bad -min-amount: %w", err)
	}
	if request.Max, err = decimal.NewFromString(a.maxAmount); err != nil {
		return nil, request, fmt.Errorf("bad -max-amount: %w", err)
	}
	request.Memo = a.memo
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

	runner := batch.Runner{
		Chain:     hive.NewClient(node, wif, log),
		Authority: cfg.Authority(),
		Request:   request,
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
