package hive

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

func testTransaction() *Transaction {
	return &Transaction{
		RefBlockNum:    0x1234,
		RefBlockPrefix: 0x89ABCDEF,
		Expiration:     time.Unix(1700000000, 0).UTC(),
		Operations: []Operation{TransferToVesting{
			From:   "alice",
			To:     "alice",
			Amount: Asset{Amount: decimal.RequireFromString("1"), Symbol: SymbolHive},
		}},
	}
}

func TestTransactionSerialize(t *testing.T) {
	want := "3412" + // ref block num LE
		"efcdab89" + // ref block prefix LE
		"00f15365" + // expiration (unix 1700000000) LE
		"01" + // one operation
		"03" + // transfer_to_vesting op id
		"05" + hex.EncodeToString([]byte("alice")) +
		"05" + hex.EncodeToString([]byte("alice")) +
		"e803000000000000" + "03" + "48495645000000" + // 1.000 HIVE
		"00" // extensions

	if got := hex.EncodeToString(testTransaction().Serialize()); got != want {
		t.Fatalf("wire form mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestDigestChangesWithExpiration(t *testing.T) {
	tx := testTransaction()
	first, err := tx.Digest(MainnetChainID)
	if err != nil {
		t.Fatalf("Digest returned error: %v", err)
	}
	if len(first) != 32 {
		t.Fatalf("digest should be 32 bytes, got %d", len(first))
	}

	again, _ := tx.Digest(MainnetChainID)
	if !bytes.Equal(first, again) {
		t.Fatalf("digest should be deterministic")
	}

	tx.Expiration = tx.Expiration.Add(time.Second)
	bumped, _ := tx.Digest(MainnetChainID)
	if bytes.Equal(first, bumped) {
		t.Fatalf("digest should change when expiration moves")
	}
}

func TestSignProducesCanonicalRecoverableSignature(t *testing.T) {
	key, err := DecodeWIF(testWIF)
	if err != nil {
		t.Fatalf("DecodeWIF returned error: %v", err)
	}

	tx := testTransaction()
	if err := tx.Sign(key, MainnetChainID); err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	if len(tx.Signatures) != 1 {
		t.Fatalf("expected one signature, got %d", len(tx.Signatures))
	}

	sig, err := hex.DecodeString(tx.Signatures[0])
	if err != nil || len(sig) != 65 {
		t.Fatalf("signature should be 65 hex-encoded bytes, got %q", tx.Signatures[0])
	}
	if sig[0] < 31 || sig[0] > 34 {
		t.Fatalf("unexpected recovery header 0x%02x", sig[0])
	}
	if !isCanonicalSignature(sig) {
		t.Fatalf("signature is not canonical")
	}

	// Recover against the post-sign digest (Sign may bump the expiration).
	digest, err := tx.Digest(MainnetChainID)
	if err != nil {
		t.Fatalf("Digest returned error: %v", err)
	}
	rsv := append(append([]byte{}, sig[1:]...), sig[0]-31)
	pub, err := crypto.SigToPub(digest, rsv)
	if err != nil {
		t.Fatalf("SigToPub returned error: %v", err)
	}
	if !bytes.Equal(crypto.FromECDSAPub(pub), crypto.FromECDSAPub(&key.PublicKey)) {
		t.Fatalf("signature does not recover to the signing key")
	}
}

func TestIsCanonicalSignature(t *testing.T) {
	sig := make([]byte, 65)
	sig[1], sig[33] = 0x01, 0x01
	if !isCanonicalSignature(sig) {
		t.Fatalf("plain low values should be canonical")
	}

	sig[1] = 0x80
	if isCanonicalSignature(sig) {
		t.Fatalf("high R bit should not be canonical")
	}

	sig[1], sig[2] = 0x00, 0x01
	if isCanonicalSignature(sig) {
		t.Fatalf("padded R should not be canonical")
	}

	sig[1], sig[2], sig[33] = 0x01, 0x00, 0x80
	if isCanonicalSignature(sig) {
		t.Fatalf("high S bit should not be canonical")
	}
}

func TestCondenserJSONShape(t *testing.T) {
	tx := testTransaction()
	tx.Signatures = []string{"1f00"}

	raw, err := json.Marshal(tx.CondenserJSON())
	if err != nil {
		t.Fatalf("marshal condenser form: %v", err)
	}

	var decoded struct {
		RefBlockNum    uint16   `json:"ref_block_num"`
		RefBlockPrefix uint32   `json:"ref_block_prefix"`
		Expiration     string   `json:"expiration"`
		Operations     [][2]any `json:"operations"`
		Signatures     []string `json:"signatures"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal condenser form: %v", err)
	}
	if decoded.RefBlockNum != 0x1234 || decoded.RefBlockPrefix != 0x89ABCDEF {
		t.Fatalf("ref block fields mismatch: %+v", decoded)
	}
	if decoded.Expiration != "2023-11-14T22:13:20" {
		t.Fatalf("unexpected expiration %s", decoded.Expiration)
	}
	if len(decoded.Operations) != 1 || decoded.Operations[0][0] != "transfer_to_vesting" {
		t.Fatalf("unexpected operations %+v", decoded.Operations)
	}
	params, ok := decoded.Operations[0][1].(map[string]any)
	if !ok || params["amount"] != "1.000 HIVE" {
		t.Fatalf("unexpected op params %+v", decoded.Operations[0][1])
	}
	if len(decoded.Signatures) != 1 || decoded.Signatures[0] != "1f00" {
		t.Fatalf("unexpected signatures %+v", decoded.Signatures)
	}
}

func TestCustomJSONSerialize(t *testing.T) {
	buf := &bytes.Buffer{}
	CustomJSON{
		RequiredAuths: []string{"alice"},
		JSONID:        "ssc-mainnet-hive",
		JSON:          "{}",
	}.serialize(buf)

	want := "01" + "05" + hex.EncodeToString([]byte("alice")) +
		"00" + // no posting auths
		"10" + hex.EncodeToString([]byte("ssc-mainnet-hive")) +
		"02" + hex.EncodeToString([]byte("{}"))
	if got := hex.EncodeToString(buf.Bytes()); got != want {
		t.Fatalf("custom_json wire form mismatch:\n got %s\nwant %s", got, want)
	}
}
