package batch

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestClampBelowMinimum(t *testing.T) {
	if _, ok := Clamp(dec("5"), dec("10"), dec("0")); ok {
		t.Fatalf("5 should not clear a minimum of 10")
	}
	if _, ok := Clamp(dec("10"), dec("10"), dec("0")); ok {
		t.Fatalf("exact minimum should not trigger")
	}
	if _, ok := Clamp(dec("0"), dec("0"), dec("0")); ok {
		t.Fatalf("zero balance should never trigger")
	}
	if _, ok := Clamp(dec("-1"), dec("0"), dec("0")); ok {
		t.Fatalf("negative balance should never trigger")
	}
}

func TestClampWithinBounds(t *testing.T) {
	amount, ok := Clamp(dec("50"), dec("10"), dec("100"))
	if !ok {
		t.Fatalf("50 should clear a minimum of 10")
	}
	if !amount.Equal(dec("50")) {
		t.Fatalf("expected full amount 50, got %s", amount)
	}
}

func TestClampCapsAtMaximum(t *testing.T) {
	amount, ok := Clamp(dec("500"), dec("10"), dec("100"))
	if !ok {
		t.Fatalf("500 should clear a minimum of 10")
	}
	if !amount.Equal(dec("100")) {
		t.Fatalf("expected clamp to 100, got %s", amount)
	}
}

func TestClampZeroMaxMeansUncapped(t *testing.T) {
	amount, ok := Clamp(dec("500"), dec("10"), dec("0"))
	if !ok || !amount.Equal(dec("500")) {
		t.Fatalf("expected full 500 with no cap, got %s ok=%v", amount, ok)
	}
}

func TestWhitelisted(t *testing.T) {
	set := map[string]struct{}{"BEE": {}}
	if !Whitelisted(set, "BEE") {
		t.Fatalf("BEE should be whitelisted")
	}
	if Whitelisted(set, "LEO") {
		t.Fatalf("LEO should not be whitelisted")
	}
	if Whitelisted(nil, "BEE") {
		t.Fatalf("nil whitelist should match nothing")
	}
}
