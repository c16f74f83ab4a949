// Package hive is a thin condenser-API client for the Hive blockchain. It
// covers exactly the surface the batch tools need: balance and ticker
// lookups, and broadcasting the handful of signed operations they issue.
package hive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Liquid asset symbols on the base chain.
const (
	SymbolHive = "HIVE"
	SymbolHBD  = "HBD"
)

// Asset pairs an exact amount with its on-chain symbol.
type Asset struct {
	Amount decimal.Decimal
	Symbol string
}

// Precision returns the number of decimal places the chain stores for the
// asset's symbol.
func (a Asset) Precision() int32 {
	if a.Symbol == "VESTS" {
		return 6
	}
	return 3
}

// String renders the legacy amount format, e.g. "12.345 HBD".
func (a Asset) String() string {
	return a.Amount.StringFixed(a.Precision()) + " " + a.Symbol
}

// ParseAsset parses the legacy "12.345 HBD" amount format.
func ParseAsset(s string) (Asset, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Asset{}, fmt.Errorf("malformed asset %q", s)
	}
	amount, err := decimal.NewFromString(fields[0])
	if err != nil {
		return Asset{}, fmt.Errorf("malformed asset amount %q: %w", fields[0], err)
	}
	return Asset{Amount: amount, Symbol: fields[1]}, nil
}

// serialize writes the graphene wire form: int64 scaled amount, precision
// byte, and the symbol name padded to seven bytes.
func (a Asset) serialize(buf *bytes.Buffer) {
	scaled := a.Amount.Shift(a.Precision()).IntPart()
	_ = binary.Write(buf, binary.LittleEndian, scaled)
	buf.WriteByte(byte(a.Precision()))
	symbol := make([]byte, 7)
	copy(symbol, a.Symbol)
	buf.Write(symbol)
}
