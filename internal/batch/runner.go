package batch

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/TheCrazyGM/auto-market/internal/engine"
	"github.com/TheCrazyGM/auto-market/internal/hive"
	"github.com/TheCrazyGM/auto-market/internal/metrics"
)

// Chain is the base-chain collaborator the runner acts through. All
// mutating calls are authorized by the authority key the implementation was
// constructed with; the account parameter names who is acted on.
type Chain interface {
	Balance(ctx context.Context, account, symbol string) (decimal.Decimal, error)
	Ticker(ctx context.Context) (highestBid, lowestAsk decimal.Decimal, err error)
	SellHBD(ctx context.Context, account string, hbd, price decimal.Decimal) (string, error)
	SellHive(ctx context.Context, account string, hiveAmount, price decimal.Decimal) (string, error)
	StakeToSavings(ctx context.Context, account string, amount decimal.Decimal, memo string) (string, error)
	PowerUp(ctx context.Context, account string, amount decimal.Decimal) (string, error)
}

// Engine is the sidechain collaborator.
type Engine interface {
	Balances(ctx context.Context, account string) ([]engine.Token, error)
	MarketPrice(ctx context.Context, symbol string) (highestBid, lowestAsk decimal.Decimal, err error)
	Sell(ctx context.Context, account, symbol string, quantity, price decimal.Decimal) (string, error)
	Buy(ctx context.Context, account, symbol string, quantity, price decimal.Decimal) (string, error)
}

// Recorder captures outcomes as they are produced, e.g. to a JSONL file.
type Recorder interface {
	Record(Outcome)
}

// Runner walks the account list in order and applies one operation per
// account, isolating failures so a bad account never aborts the batch.
type Runner struct {
	Chain     Chain
	Engine    Engine
	Authority string
	Request   Request
	Whitelist map[string]struct{}
	Recorder  Recorder
	Log       zerolog.Logger
}

// Run processes every account exactly once, in the order given, and
// returns the accumulated summary. Accounts are never reordered or
// retried; a failed account is recorded and the loop moves on.
func (r *Runner) Run(ctx context.Context, accounts []string) *Summary {
	summary := &Summary{Operation: r.Request.Operation}
	r.Log.Info().
		Str("operation", string(r.Request.Operation)).
		Str("authority", r.Authority).
		Int("accounts", len(accounts)).
		Bool("dry_run", r.Request.DryRun).
		Msg("starting batch")

	for _, account := range accounts {
		switch r.Request.Operation {
		case OpEngineSell, OpEngineBuy:
			r.runEngine(ctx, account, summary)
		default:
			r.runChain(ctx, account, summary)
		}
	}
	summary.Log(r.Log)
	return summary
}

// balanceSymbol is the asset each base-chain operation draws from.
func (r *Runner) balanceSymbol() string {
	switch r.Request.Operation {
	case OpBuy, OpPowerUp:
		return hive.SymbolHive
	default:
		return hive.SymbolHBD
	}
}

func (r *Runner) runChain(ctx context.Context, account string, summary *Summary) {
	symbol := r.balanceSymbol()
	available, err := r.Chain.Balance(ctx, account, symbol)
	if err != nil {
		r.record(summary, Outcome{Account: account, Symbol: symbol, Decision: DecisionFailed, Err: err.Error()})
		return
	}

	amount, ok := Clamp(available, r.Request.Min, r.Request.Max)
	if !ok {
		r.Log.Info().Str("account", account).Str("available", available.String()).
			Msgf("nothing to %s", r.Request.Operation)
		r.record(summary, Outcome{Account: account, Symbol: symbol, Decision: DecisionSkipped})
		return
	}

	var price decimal.Decimal
	switch r.Request.Operation {
	case OpSell, OpBuy:
		highestBid, lowestAsk, terr := r.Chain.Ticker(ctx)
		if terr != nil {
			r.record(summary, Outcome{Account: account, Symbol: symbol, Decision: DecisionFailed, Amount: amount, Err: terr.Error()})
			return
		}
		if r.Request.Operation == OpSell {
			price = lowestAsk
		} else {
			price = highestBid
		}
		if price.Sign() <= 0 {
			r.record(summary, Outcome{Account: account, Symbol: symbol, Decision: DecisionFailed, Amount: amount, Err: "no market price"})
			return
		}
	}

	if r.Request.DryRun {
		r.record(summary, Outcome{Account: account, Symbol: symbol, Decision: DecisionSimulated, Amount: amount, Price: price})
		return
	}

	var txID string
	switch r.Request.Operation {
	case OpSell:
		txID, err = r.Chain.SellHBD(ctx, account, amount, price)
	case OpBuy:
		txID, err = r.Chain.SellHive(ctx, account, amount, price)
	case OpStake:
		txID, err = r.Chain.StakeToSavings(ctx, account, amount, r.Request.Memo)
	case OpPowerUp:
		txID, err = r.Chain.PowerUp(ctx, account, amount)
	}
	if err != nil {
		r.record(summary, Outcome{Account: account, Symbol: symbol, Decision: DecisionFailed, Amount: amount, Price: price, Err: err.Error()})
		return
	}
	r.record(summary, Outcome{Account: account, Symbol: symbol, Decision: DecisionExecuted, Amount: amount, Price: price, TxID: txID})
}

func (r *Runner) runEngine(ctx context.Context, account string, summary *Summary) {
	tokens, err := r.Engine.Balances(ctx, account)
	if err != nil {
		r.record(summary, Outcome{Account: account, Symbol: r.Request.Symbol, Decision: DecisionFailed, Err: err.Error()})
		return
	}

	if r.Request.AllTokens {
		r.sweep(ctx, account, tokens, summary)
		return
	}

	if r.Request.Operation == OpEngineBuy {
		r.engineBuy(ctx, account, tokens, summary)
		return
	}

	token := findToken(tokens, r.Request.Symbol)
	r.engineSell(ctx, account, token, summary)
}

// sweep sells every held token except the target and whitelisted symbols.
// Whitelisted holdings are recorded regardless of thresholds; dust below
// the minimum falls out of the candidate set silently.
func (r *Runner) sweep(ctx context.Context, account string, tokens []engine.Token, summary *Summary) {
	for _, token := range tokens {
		if token.Symbol == r.Request.Target || token.Balance.Sign() <= 0 {
			continue
		}
		if Whitelisted(r.Whitelist, token.Symbol) {
			r.record(summary, Outcome{Account: account, Symbol: token.Symbol, Decision: DecisionWhitelisted})
			continue
		}
		if _, ok := Clamp(token.Balance, r.Request.Min, r.Request.Max); !ok {
			continue
		}
		r.engineSell(ctx, account, token, summary)
	}
}

func (r *Runner) engineSell(ctx context.Context, account string, token engine.Token, summary *Summary) {
	quantity, ok := Clamp(token.Balance, r.Request.Min, r.Request.Max)
	if !ok {
		r.Log.Info().Str("account", account).Str("symbol", token.Symbol).
			Str("balance", token.Balance.String()).Msg("nothing to sell")
		r.record(summary, Outcome{Account: account, Symbol: token.Symbol, Decision: DecisionSkipped})
		return
	}

	highestBid, _, err := r.Engine.MarketPrice(ctx, token.Symbol)
	if err != nil {
		r.record(summary, Outcome{Account: account, Symbol: token.Symbol, Decision: DecisionFailed, Amount: quantity, Err: err.Error()})
		return
	}
	if highestBid.Sign() <= 0 {
		r.record(summary, Outcome{Account: account, Symbol: token.Symbol, Decision: DecisionFailed, Amount: quantity, Err: "no open bids"})
		return
	}

	if r.Request.DryRun {
		r.record(summary, Outcome{Account: account, Symbol: token.Symbol, Decision: DecisionSimulated, Amount: quantity, Price: highestBid})
		return
	}
	txID, err := r.Engine.Sell(ctx, account, token.Symbol, quantity, highestBid)
	if err != nil {
		r.record(summary, Outcome{Account: account, Symbol: token.Symbol, Decision: DecisionFailed, Amount: quantity, Price: highestBid, Err: err.Error()})
		return
	}
	r.record(summary, Outcome{Account: account, Symbol: token.Symbol, Decision: DecisionExecuted, Amount: quantity, Price: highestBid, TxID: txID})
}

// engineBuy spends the account's target-token balance on the requested
// symbol at the lowest ask. Thresholds are denominated in the target token
// since that is the balance being committed.
func (r *Runner) engineBuy(ctx context.Context, account string, tokens []engine.Token, summary *Summary) {
	funds := findToken(tokens, r.Request.Target)
	spend, ok := Clamp(funds.Balance, r.Request.Min, r.Request.Max)
	if !ok {
		r.Log.Info().Str("account", account).Str("target", r.Request.Target).
			Str("balance", funds.Balance.String()).Msg("nothing to spend")
		r.record(summary, Outcome{Account: account, Symbol: r.Request.Symbol, Decision: DecisionSkipped})
		return
	}

	_, lowestAsk, err := r.Engine.MarketPrice(ctx, r.Request.Symbol)
	if err != nil {
		r.record(summary, Outcome{Account: account, Symbol: r.Request.Symbol, Decision: DecisionFailed, Amount: spend, Err: err.Error()})
		return
	}
	if lowestAsk.Sign() <= 0 {
		r.record(summary, Outcome{Account: account, Symbol: r.Request.Symbol, Decision: DecisionFailed, Amount: spend, Err: "no open asks"})
		return
	}

	quantity := spend.DivRound(lowestAsk, 12).Truncate(8)
	if r.Request.DryRun {
		r.record(summary, Outcome{Account: account, Symbol: r.Request.Symbol, Decision: DecisionSimulated, Amount: spend, Price: lowestAsk})
		return
	}
	txID, err := r.Engine.Buy(ctx, account, r.Request.Symbol, quantity, lowestAsk)
	if err != nil {
		r.record(summary, Outcome{Account: account, Symbol: r.Request.Symbol, Decision: DecisionFailed, Amount: spend, Price: lowestAsk, Err: err.Error()})
		return
	}
	r.record(summary, Outcome{Account: account, Symbol: r.Request.Symbol, Decision: DecisionExecuted, Amount: spend, Price: lowestAsk, TxID: txID})
}

func (r *Runner) record(summary *Summary, outcome Outcome) {
	metrics.OutcomesTotal.WithLabelValues(string(r.Request.Operation), string(outcome.Decision)).Inc()
	if r.Recorder != nil {
		r.Recorder.Record(outcome)
	}
	summary.Outcomes = append(summary.Outcomes, outcome)

	event := r.Log.Info()
	if outcome.Decision == DecisionFailed {
		event = r.Log.Error()
	}
	event.Str("account", outcome.Account).
		Str("symbol", outcome.Symbol).
		Str("decision", string(outcome.Decision)).
		Str("amount", outcome.Amount.String())
	if outcome.Price.Sign() > 0 {
		event = event.Str("price", outcome.Price.String())
	}
	if outcome.TxID != "" {
		event = event.Str("tx", outcome.TxID)
	}
	if outcome.Err != "" {
		event = event.Str("error", outcome.Err)
	}
	event.Msg("account processed")
}

func findToken(tokens []engine.Token, symbol string) engine.Token {
	for _, token := range tokens {
		if token.Symbol == symbol {
			return token
		}
	}
	return engine.Token{Symbol: symbol}
}
