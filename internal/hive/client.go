package hive

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/TheCrazyGM/auto-market/internal/metrics"
)

// DefaultNode is the public API endpoint used when none is configured.
const DefaultNode = "https://api.hive.blog"

const (
	txExpiry    = time.Minute
	orderExpiry = 24 * time.Hour
)

// Client talks condenser-API JSON-RPC to a single Hive node and signs
// whatever it broadcasts with the active key it was constructed with.
type Client struct {
	node string
	http *http.Client
	key  *ecdsa.PrivateKey
	log  zerolog.Logger
}

// NewClient builds a client for the given node. The key authorizes every
// broadcast; read-only calls work with a nil key.
func NewClient(node string, key *ecdsa.PrivateKey, log zerolog.Logger) *Client {
	if node == "" {
		node = DefaultNode
	}
	return &Client{
		node: node,
		http: &http.Client{Timeout: 15 * time.Second},
		key:  key,
		log:  log,
	}
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params, out any) error {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      1,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.node, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: node status %d", method, resp.StatusCode)
	}

	var rpc rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if rpc.Error != nil {
		return fmt.Errorf("%s: node error %d: %s", method, rpc.Error.Code, rpc.Error.Message)
	}
	if out != nil {
		if err := json.Unmarshal(rpc.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
	}
	return nil
}

type accountInfo struct {
	Name           string `json:"name"`
	Balance        string `json:"balance"`
	HbdBalance     string `json:"hbd_balance"`
	SavingsBalance string `json:"savings_balance"`
}

// Balance returns the available liquid balance of the given symbol.
func (c *Client) Balance(ctx context.Context, account, symbol string) (decimal.Decimal, error) {
	var accounts []accountInfo
	if err := c.call(ctx, "condenser_api.get_accounts", []any{[]string{account}}, &accounts); err != nil {
		return decimal.Zero, err
	}
	if len(accounts) == 0 {
		return decimal.Zero, fmt.Errorf("account %s not found", account)
	}

	var raw string
	switch symbol {
	case SymbolHive:
		raw = accounts[0].Balance
	case SymbolHBD:
		raw = accounts[0].HbdBalance
	default:
		return decimal.Zero, fmt.Errorf("unsupported balance symbol %s", symbol)
	}
	asset, err := ParseAsset(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("account %s: %w", account, err)
	}
	c.log.Debug().Str("account", account).Str("balance", asset.String()).Msg("fetched balance")
	return asset.Amount, nil
}

type tickerInfo struct {
	HighestBid string `json:"highest_bid"`
	LowestAsk  string `json:"lowest_ask"`
}

// Ticker returns the internal HIVE:HBD market's best prices, both
// denominated in HBD per HIVE.
func (c *Client) Ticker(ctx context.Context) (highestBid, lowestAsk decimal.Decimal, err error) {
	var ticker tickerInfo
	if err = c.call(ctx, "condenser_api.get_ticker", []any{}, &ticker); err != nil {
		return
	}
	if highestBid, err = decimal.NewFromString(ticker.HighestBid); err != nil {
		err = fmt.Errorf("ticker highest bid: %w", err)
		return
	}
	if lowestAsk, err = decimal.NewFromString(ticker.LowestAsk); err != nil {
		err = fmt.Errorf("ticker lowest ask: %w", err)
	}
	return
}

type chainProperties struct {
	HeadBlockNumber uint32 `json:"head_block_number"`
	HeadBlockID     string `json:"head_block_id"`
	Time            string `json:"time"`
}

// newTransaction anchors a transaction to the current head block.
func (c *Client) newTransaction(ctx context.Context, ops []Operation) (*Transaction, error) {
	var props chainProperties
	if err := c.call(ctx, "condenser_api.get_dynamic_global_properties", []any{}, &props); err != nil {
		return nil, err
	}
	blockID, err := hex.DecodeString(props.HeadBlockID)
	if err != nil || len(blockID) < 8 {
		return nil, fmt.Errorf("malformed head block id %q", props.HeadBlockID)
	}
	headTime, err := time.Parse(timeFormat, props.Time)
	if err != nil {
		return nil, fmt.Errorf("malformed head block time %q", props.Time)
	}
	return &Transaction{
		RefBlockNum:    uint16(props.HeadBlockNumber & 0xFFFF),
		RefBlockPrefix: binary.LittleEndian.Uint32(blockID[4:8]),
		Expiration:     headTime.Add(txExpiry),
		Operations:     ops,
	}, nil
}

// broadcast signs and submits the operations, returning the transaction id.
func (c *Client) broadcast(ctx context.Context, ops []Operation) (string, error) {
	if c.key == nil {
		return "", fmt.Errorf("no signing key configured")
	}
	tx, err := c.newTransaction(ctx, ops)
	if err != nil {
		return "", err
	}
	if err := tx.Sign(c.key, MainnetChainID); err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	var result struct {
		ID string `json:"id"`
	}
	err = c.call(ctx, "condenser_api.broadcast_transaction_synchronous", []any{tx.CondenserJSON()}, &result)
	if err != nil {
		return "", err
	}
	for _, op := range ops {
		metrics.BroadcastsTotal.WithLabelValues(op.Name()).Inc()
	}
	c.log.Debug().Str("tx", result.ID).Msg("transaction broadcast")
	return result.ID, nil
}

// SellHBD places an internal-market order selling hbd at price HBD/HIVE,
// on behalf of account under the client key's authority.
func (c *Client) SellHBD(ctx context.Context, account string, hbd, price decimal.Decimal) (string, error) {
	if price.Sign() <= 0 {
		return "", fmt.Errorf("non-positive price")
	}
	receive := hbd.DivRound(price, 6).Truncate(3)
	return c.broadcast(ctx, []Operation{LimitOrderCreate{
		Owner:        account,
		OrderID:      orderID(),
		AmountToSell: Asset{Amount: hbd, Symbol: SymbolHBD},
		MinToReceive: Asset{Amount: receive, Symbol: SymbolHive},
		Expiration:   time.Now().Add(orderExpiry),
	}})
}

// SellHive places an internal-market order selling hive at price HBD/HIVE.
func (c *Client) SellHive(ctx context.Context, account string, hive, price decimal.Decimal) (string, error) {
	if price.Sign() <= 0 {
		return "", fmt.Errorf("non-positive price")
	}
	receive := hive.Mul(price).Truncate(3)
	return c.broadcast(ctx, []Operation{LimitOrderCreate{
		Owner:        account,
		OrderID:      orderID(),
		AmountToSell: Asset{Amount: hive, Symbol: SymbolHive},
		MinToReceive: Asset{Amount: receive, Symbol: SymbolHBD},
		Expiration:   time.Now().Add(orderExpiry),
	}})
}

// StakeToSavings moves liquid HBD into the account's savings balance.
func (c *Client) StakeToSavings(ctx context.Context, account string, amount decimal.Decimal, memo string) (string, error) {
	return c.broadcast(ctx, []Operation{TransferToSavings{
		From:   account,
		To:     account,
		Amount: Asset{Amount: amount, Symbol: SymbolHBD},
		Memo:   memo,
	}})
}

// PowerUp converts liquid HIVE into vesting shares for the account.
func (c *Client) PowerUp(ctx context.Context, account string, amount decimal.Decimal) (string, error) {
	return c.broadcast(ctx, []Operation{TransferToVesting{
		From:   account,
		To:     account,
		Amount: Asset{Amount: amount, Symbol: SymbolHive},
	}})
}

// BroadcastCustomJSON submits a sidechain contract action authorized by the
// active authority of the listed accounts.
func (c *Client) BroadcastCustomJSON(ctx context.Context, requiredAuths []string, id, payload string) (string, error) {
	return c.broadcast(ctx, []Operation{CustomJSON{
		RequiredAuths: requiredAuths,
		JSONID:        id,
		JSON:          payload,
	}})
}

func orderID() uint32 {
	return uint32(time.Now().Unix())
}
