package hive

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
)

// MainnetChainID prefixes every signing digest on the Hive main network.
const MainnetChainID = "beeab0de00000000000000000000000000000000000000000000000000000000"

const timeFormat = "2006-01-02T15:04:05"

// Operation is one chain operation inside a transaction. Implementations
// provide both the condenser JSON form and the graphene wire form used for
// the signing digest.
type Operation interface {
	Name() string
	ID() uint64
	Params() map[string]any
	serialize(buf *bytes.Buffer)
}

// LimitOrderCreate places an internal-market order selling AmountToSell for
// at least MinToReceive.
type LimitOrderCreate struct {
	Owner        string
	OrderID      uint32
	AmountToSell Asset
	MinToReceive Asset
	FillOrKill   bool
	Expiration   time.Time
}

func (op LimitOrderCreate) Name() string { return "limit_order_create" }
func (op LimitOrderCreate) ID() uint64   { return 5 }

func (op LimitOrderCreate) Params() map[string]any {
	return map[string]any{
		"owner":          op.Owner,
		"orderid":        op.OrderID,
		"amount_to_sell": op.AmountToSell.String(),
		"min_to_receive": op.MinToReceive.String(),
		"fill_or_kill":   op.FillOrKill,
		"expiration":     op.Expiration.UTC().Format(timeFormat),
	}
}

func (op LimitOrderCreate) serialize(buf *bytes.Buffer) {
	writeString(buf, op.Owner)
	_ = binary.Write(buf, binary.LittleEndian, op.OrderID)
	op.AmountToSell.serialize(buf)
	op.MinToReceive.serialize(buf)
	writeBool(buf, op.FillOrKill)
	writeTime(buf, op.Expiration)
}

// TransferToVesting powers a liquid HIVE balance up into vesting shares.
type TransferToVesting struct {
	From   string
	To     string
	Amount Asset
}

func (op TransferToVesting) Name() string { return "transfer_to_vesting" }
func (op TransferToVesting) ID() uint64   { return 3 }

func (op TransferToVesting) Params() map[string]any {
	return map[string]any{"from": op.From, "to": op.To, "amount": op.Amount.String()}
}

func (op TransferToVesting) serialize(buf *bytes.Buffer) {
	writeString(buf, op.From)
	writeString(buf, op.To)
	op.Amount.serialize(buf)
}

// TransferToSavings moves a liquid balance into the time-locked savings
// balance of the receiving account.
type TransferToSavings struct {
	From   string
	To     string
	Amount Asset
	Memo   string
}

func (op TransferToSavings) Name() string { return "transfer_to_savings" }
func (op TransferToSavings) ID() uint64   { return 32 }

func (op TransferToSavings) Params() map[string]any {
	return map[string]any{"from": op.From, "to": op.To, "amount": op.Amount.String(), "memo": op.Memo}
}

func (op TransferToSavings) serialize(buf *bytes.Buffer) {
	writeString(buf, op.From)
	writeString(buf, op.To)
	op.Amount.serialize(buf)
	writeString(buf, op.Memo)
}

// CustomJSON carries sidechain contract actions, authorized by the active
// authority of the accounts listed in RequiredAuths.
type CustomJSON struct {
	RequiredAuths        []string
	RequiredPostingAuths []string
	JSONID               string
	JSON                 string
}

func (op CustomJSON) Name() string { return "custom_json" }
func (op CustomJSON) ID() uint64   { return 18 }

func (op CustomJSON) Params() map[string]any {
	auths := op.RequiredAuths
	if auths == nil {
		auths = []string{}
	}
	posting := op.RequiredPostingAuths
	if posting == nil {
		posting = []string{}
	}
	return map[string]any{
		"required_auths":         auths,
		"required_posting_auths": posting,
		"id":                     op.JSONID,
		"json":                   op.JSON,
	}
}

func (op CustomJSON) serialize(buf *bytes.Buffer) {
	writeUvarint(buf, uint64(len(op.RequiredAuths)))
	for _, account := range op.RequiredAuths {
		writeString(buf, account)
	}
	writeUvarint(buf, uint64(len(op.RequiredPostingAuths)))
	for _, account := range op.RequiredPostingAuths {
		writeString(buf, account)
	}
	writeString(buf, op.JSONID)
	writeString(buf, op.JSON)
}

// Transaction is a signable bundle of operations anchored to a recent block.
type Transaction struct {
	RefBlockNum    uint16
	RefBlockPrefix uint32
	Expiration     time.Time
	Operations     []Operation
	Signatures     []string
}

// Serialize produces the graphene wire form the signing digest covers.
func (tx *Transaction) Serialize() []byte {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.LittleEndian, tx.RefBlockNum)
	_ = binary.Write(buf, binary.LittleEndian, tx.RefBlockPrefix)
	writeTime(buf, tx.Expiration)
	writeUvarint(buf, uint64(len(tx.Operations)))
	for _, op := range tx.Operations {
		writeUvarint(buf, op.ID())
		op.serialize(buf)
	}
	writeUvarint(buf, 0) // extensions
	return buf.Bytes()
}

// Digest is the sha256 the signature must cover: chain id, then wire form.
func (tx *Transaction) Digest(chainID string) ([]byte, error) {
	prefix, err := hex.DecodeString(chainID)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(append(prefix, tx.Serialize()...))
	return sum[:], nil
}

// Sign attaches a canonical compact signature. The chain rejects
// non-canonical signatures, and deterministic signing gives one signature
// per digest, so the expiration is nudged forward a second until the result
// is canonical.
func (tx *Transaction) Sign(key *ecdsa.PrivateKey, chainID string) error {
	for attempt := 0; attempt < 32; attempt++ {
		digest, err := tx.Digest(chainID)
		if err != nil {
			return err
		}
		sig, err := crypto.Sign(digest, key)
		if err != nil {
			return err
		}
		compact := make([]byte, 65)
		compact[0] = 27 + 4 + sig[64] // compressed recoverable header
		copy(compact[1:], sig[:64])
		if isCanonicalSignature(compact) {
			tx.Signatures = []string{hex.EncodeToString(compact)}
			return nil
		}
		tx.Expiration = tx.Expiration.Add(time.Second)
	}
	return errors.New("could not produce canonical signature")
}

// CondenserJSON renders the legacy transaction layout broadcast endpoints
// expect.
func (tx *Transaction) CondenserJSON() map[string]any {
	ops := make([]any, 0, len(tx.Operations))
	for _, op := range tx.Operations {
		ops = append(ops, []any{op.Name(), op.Params()})
	}
	sigs := tx.Signatures
	if sigs == nil {
		sigs = []string{}
	}
	return map[string]any{
		"ref_block_num":    tx.RefBlockNum,
		"ref_block_prefix": tx.RefBlockPrefix,
		"expiration":       tx.Expiration.UTC().Format(timeFormat),
		"operations":       ops,
		"extensions":       []any{},
		"signatures":       sigs,
	}
}

// isCanonicalSignature applies the graphene canonicality rule to a 65-byte
// header||R||S compact signature.
func isCanonicalSignature(sig []byte) bool {
	return sig[1]&0x80 == 0 &&
		!(sig[1] == 0 && sig[2]&0x80 == 0) &&
		sig[33]&0x80 == 0 &&
		!(sig[33] == 0 && sig[34]&0x80 == 0)
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func writeBool(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteByte(1)
		return
	}
	buf.WriteByte(0)
}

func writeTime(buf *bytes.Buffer, t time.Time) {
	_ = binary.Write(buf, binary.LittleEndian, uint32(t.UTC().Unix()))
}
