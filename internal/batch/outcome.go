// Package batch runs a guarded operation across a list of accounts that
// share one signing authority, collecting an ordered outcome per account.
package batch

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Operation enumerates the actions a run can perform.
type Operation string

const (
	// OpSell sells HBD for HIVE on the internal market.
	OpSell Operation = "sell"
	// OpBuy sells HIVE for HBD on the internal market.
	OpBuy Operation = "buy"
	// OpStake moves HBD into the savings balance.
	OpStake Operation = "stake"
	// OpPowerUp converts HIVE into vesting shares.
	OpPowerUp Operation = "powerup"
	// OpEngineSell sells sidechain tokens for the target token.
	OpEngineSell Operation = "engine-sell"
	// OpEngineBuy buys a sidechain token with the target token.
	OpEngineBuy Operation = "engine-buy"
)

// Decision classifies what happened to one account (or one account/token
// candidate in sweep mode).
type Decision string

const (
	// DecisionSkipped means the available amount did not clear the minimum.
	DecisionSkipped Decision = "skipped"
	// DecisionWhitelisted means a sweep left the asset alone.
	DecisionWhitelisted Decision = "whitelisted"
	// DecisionSimulated means the action was eligible but dry-run was set.
	DecisionSimulated Decision = "simulated"
	// DecisionExecuted means the action was broadcast successfully.
	DecisionExecuted Decision = "executed"
	// DecisionFailed means a query or broadcast for this account failed.
	DecisionFailed Decision = "failed"
)

// Request carries the parameters of one run. Built once from flags and
// config, read-only afterwards.
type Request struct {
	Operation Operation
	Min       decimal.Decimal
	Max       decimal.Decimal // zero means uncapped
	Symbol    string          // sidechain token (single-token mode)
	Target    string          // sidechain target token
	Memo      string          // savings transfer memo
	AllTokens bool
	DryRun    bool
}

// Outcome is the immutable per-account result record.
type Outcome struct {
	Account  string          `json:"account"`
	Symbol   string          `json:"symbol,omitempty"`
	Decision Decision        `json:"decision"`
	Amount   decimal.Decimal `json:"amount"`
	Price    decimal.Decimal `json:"price"`
	TxID     string          `json:"tx_id,omitempty"`
	Err      string          `json:"error,omitempty"`
}

// Summary accumulates outcomes in input order.
type Summary struct {
	Operation Operation
	Outcomes  []Outcome
}

// Counts aggregates outcomes by decision.
func (s *Summary) Counts() map[Decision]int {
	counts := make(map[Decision]int)
	for _, outcome := range s.Outcomes {
		counts[outcome.Decision]++
	}
	return counts
}

// Log renders the final per-run report.
func (s *Summary) Log(log zerolog.Logger) {
	counts := s.Counts()
	log.Info().
		Str("operation", string(s.Operation)).
		Int("outcomes", len(s.Outcomes)).
		Int("skipped", counts[DecisionSkipped]+counts[DecisionWhitelisted]).
		Int("simulated", counts[DecisionSimulated]).
		Int("executed", counts[DecisionExecuted]).
		Int("failed", counts[DecisionFailed]).
		Msg("batch complete")
}
