// Package engine is a client for the Hive-Engine sidechain: token balances
// and order books come from the contracts API, while trades are submitted
// as custom_json operations on the base chain.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultNode is the public contracts API endpoint.
const DefaultNode = "https://api.hive-engine.com/rpc"

const (
	customJSONID = "ssc-mainnet-hive"
	bookPageSize = 100
	// quantityPrecision is the fixed precision the market contract expects.
	quantityPrecision = 8
)

// Token is a sidechain balance row.
type Token struct {
	Symbol  string
	Balance decimal.Decimal
}

// Broadcaster submits a custom_json operation on the base chain. Satisfied
// by the hive client.
type Broadcaster interface {
	BroadcastCustomJSON(ctx context.Context, requiredAuths []string, id, payload string) (string, error)
}

// Client queries the contracts API of a single Hive-Engine node.
type Client struct {
	node  string
	http  *http.Client
	chain Broadcaster
	log   zerolog.Logger
}

// NewClient builds a client for the given node. The broadcaster carries the
// signing authority; read-only calls work with a nil broadcaster.
func NewClient(node string, chain Broadcaster, log zerolog.Logger) *Client {
	if node == "" {
		node = DefaultNode
	}
	return &Client{
		node:  node,
		http:  &http.Client{Timeout: 15 * time.Second},
		chain: chain,
		log:   log,
	}
}

func (c *Client) find(ctx context.Context, contract, table string, query any, limit, offset int, out any) error {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  "find",
		"params": map[string]any{
			"contract": contract,
			"table":    table,
			"query":    query,
			"limit":    limit,
			"offset":   offset,
		},
		"id": 1,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.node+"/contracts", bytes.NewReader(body))
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
		return fmt.Errorf("find %s.%s: node status %d", contract, table, resp.StatusCode)
	}

	var rpc struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return fmt.Errorf("find %s.%s: decode response: %w", contract, table, err)
	}
	if rpc.Error != nil {
		return fmt.Errorf("find %s.%s: node error %d: %s", contract, table, rpc.Error.Code, rpc.Error.Message)
	}
	return json.Unmarshal(rpc.Result, out)
}

// Balances returns every token balance held by the account.
func (c *Client) Balances(ctx context.Context, account string) ([]Token, error) {
	var rows []struct {
		Symbol  string `json:"symbol"`
		Balance string `json:"balance"`
	}
	err := c.find(ctx, "tokens", "balances", map[string]any{"account": account}, 1000, 0, &rows)
	if err != nil {
		return nil, err
	}

	tokens := make([]Token, 0, len(rows))
	for _, row := range rows {
		balance, err := decimal.NewFromString(row.Balance)
		if err != nil {
			return nil, fmt.Errorf("token %s: malformed balance %q", row.Symbol, row.Balance)
		}
		tokens = append(tokens, Token{Symbol: row.Symbol, Balance: balance})
	}
	c.log.Debug().Str("account", account).Int("tokens", len(tokens)).Msg("fetched sidechain balances")
	return tokens, nil
}

type bookOrder struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// orderBook drains a full order book table for a symbol, page by page.
func (c *Client) orderBook(ctx context.Context, table, symbol string) ([]bookOrder, error) {
	var orders []bookOrder
	for offset := 0; ; offset += bookPageSize {
		var page []bookOrder
		err := c.find(ctx, "market", table, map[string]any{"symbol": symbol}, bookPageSize, offset, &page)
		if err != nil {
			return nil, err
		}
		orders = append(orders, page...)
		if len(page) < bookPageSize {
			return orders, nil
		}
	}
}

// MarketPrice derives the best prices for a token by draining both sides of
// the book: the highest bid anywhere in the buy book and the lowest
// positive ask anywhere in the sell book. Either side may be zero when the
// book is empty.
func (c *Client) MarketPrice(ctx context.Context, symbol string) (highestBid, lowestAsk decimal.Decimal, err error) {
	bids, err := c.orderBook(ctx, "buyBook", symbol)
	if err != nil {
		return
	}
	for _, order := range bids {
		price, perr := decimal.NewFromString(order.Price)
		if perr != nil {
			continue
		}
		if price.GreaterThan(highestBid) {
			highestBid = price
		}
	}

	asks, err := c.orderBook(ctx, "sellBook", symbol)
	if err != nil {
		return
	}
	for _, order := range asks {
		price, perr := decimal.NewFromString(order.Price)
		if perr != nil || price.Sign() <= 0 {
			continue
		}
		if lowestAsk.Sign() == 0 || price.LessThan(lowestAsk) {
			lowestAsk = price
		}
	}
	c.log.Debug().Str("symbol", symbol).
		Str("highest_bid", highestBid.String()).
		Str("lowest_ask", lowestAsk.String()).
		Msg("derived market price")
	return
}

func (c *Client) marketAction(ctx context.Context, action, account, symbol string, quantity, price decimal.Decimal) (string, error) {
	if c.chain == nil {
		return "", fmt.Errorf("no broadcaster configured")
	}
	payload, err := json.Marshal(map[string]any{
		"contractName":   "market",
		"contractAction": action,
		"contractPayload": map[string]string{
			"symbol":   symbol,
			"quantity": quantity.StringFixed(quantityPrecision),
			"price":    price.StringFixed(quantityPrecision),
		},
	})
	if err != nil {
		return "", err
	}
	return c.chain.BroadcastCustomJSON(ctx, []string{account}, customJSONID, string(payload))
}

// Sell places a sidechain market sell of quantity symbol at price.
func (c *Client) Sell(ctx context.Context, account, symbol string, quantity, price decimal.Decimal) (string, error) {
	return c.marketAction(ctx, "sell", account, symbol, quantity, price)
}

// Buy places a sidechain market buy of quantity symbol at price.
func (c *Client) Buy(ctx context.Context, account, symbol string, quantity, price decimal.Decimal) (string, error) {
	return c.marketAction(ctx, "buy", account, symbol, quantity, price)
}
