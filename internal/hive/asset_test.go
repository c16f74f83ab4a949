package hive

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAsset(t *testing.T) {
	asset, err := ParseAsset("12.345 HBD")
	if err != nil {
		t.Fatalf("ParseAsset returned error: %v", err)
	}
	if asset.Symbol != SymbolHBD {
		t.Fatalf("unexpected symbol %s", asset.Symbol)
	}
	if !asset.Amount.Equal(decimal.RequireFromString("12.345")) {
		t.Fatalf("unexpected amount %s", asset.Amount)
	}
	if asset.String() != "12.345 HBD" {
		t.Fatalf("round trip mismatch: %s", asset.String())
	}
}

func TestParseAssetMalformed(t *testing.T) {
	for _, bad := range []string{"", "12.345", "x HBD", "1 2 HBD"} {
		if _, err := ParseAsset(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestAssetStringPadsPrecision(t *testing.T) {
	asset := Asset{Amount: decimal.RequireFromString("1"), Symbol: SymbolHive}
	if asset.String() != "1.000 HIVE" {
		t.Fatalf("expected fixed 3 decimals, got %s", asset.String())
	}
}

func TestAssetSerialize(t *testing.T) {
	buf := &bytes.Buffer{}
	Asset{Amount: decimal.RequireFromString("1"), Symbol: SymbolHive}.serialize(buf)

	// 1.000 HIVE: amount 1000 int64 LE, precision 3, symbol padded to 7.
	want := "e803000000000000" + "03" + "48495645000000"
	if got := hex.EncodeToString(buf.Bytes()); got != want {
		t.Fatalf("serialized asset mismatch:\n got %s\nwant %s", got, want)
	}
}
