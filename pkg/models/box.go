// Package models holds the wire-level and domain types shared across the
// curve, commitment, proof, pool, and relayer layers.
package models

// Box is the generic on-chain unspent output the node collaborator returns.
// Registers are kept as raw hex strings exactly as the node serializes them;
// callers decode the ones they need through the register package rather than
// trusting any "rendered" JSON form.
type Box struct {
	BoxID     string            `json:"boxId"`
	Value     int64             `json:"value"` // nanoERG-equivalent base units
	ErgoTree  string            `json:"ergoTree"`
	Tokens    []Token           `json:"assets"`
	Registers map[string]string `json:"additionalRegisters"` // "R4".."R9" -> hex
	RawBytes  string            `json:"-"`                   // hex, for inputsRaw; not round-tripped through JSON
	Height    int               `json:"creationHeight"`
}

// Token is a (tokenID, amount) pair attached to a box.
type Token struct {
	TokenID string `json:"tokenId"`
	Amount  int64  `json:"amount"`
}

// RegisterHex looks up a register by name ("R4".."R9"), returning ok=false
// when the box carries no such register.
func (b Box) RegisterHex(name string) (string, bool) {
	v, ok := b.Registers[name]
	return v, ok
}

// PoolBox is the decoded view of a pool's on-chain state cell (spec.md §3).
type PoolBox struct {
	BoxID         string   // underlying box id
	Value         int64    // current ERG balance held by the pool
	Token         Token    // denomination token and its current pool balance
	DepositorKeys []string // R4: ordered compressed-point hex, append-only
	Nullifiers    NullifierState
	Denomination  int64 // R6: fixed at pool creation
	MaxRingSize   int32 // R7: fixed at pool creation
	ErgoTree      string
	RawBytes      string
}

// NullifierStateKind tags which of the two R5 encodings a pool currently
// carries. The two kinds are never silently interchanged.
type NullifierStateKind int

const (
	NullifierStateList NullifierStateKind = iota
	NullifierStateTree
)

// NullifierState is the tagged variant spec.md §9 calls for: either an
// explicit collection of spent-nullifier points, or an authenticated AVL+
// tree digest. Both encode the same insert(I) contract at the register
// level; callers must not fall back from one to the other.
type NullifierState struct {
	Kind  NullifierStateKind
	List  []string // Kind == NullifierStateList: compressed-point hex, in insertion order
	Tree  AVLTreeRegister
}

// AVLTreeRegister is the decoded R5 payload when NullifierStateKind is Tree.
type AVLTreeRegister struct {
	DigestHex string // 33-byte root digest, hex
	Flags     byte
	KeyLen    byte // fixed key length in bytes (0x21 == 33 for compressed points)
}

// Contains reports whether nullifier hex is already recorded, branching on
// the register's tag. Tree-typed states cannot be checked locally -- the
// tree only proves membership via an insert/lookup proof against the node --
// so Contains on a tree-typed state always returns false and callers must
// rely on the node-side insert proof rejecting a duplicate key.
func (n NullifierState) Contains(nullifierHex string) bool {
	if n.Kind != NullifierStateList {
		return false
	}
	for _, existing := range n.List {
		if equalFoldHex(existing, nullifierHex) {
			return true
		}
	}
	return false
}

func equalFoldHex(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// IntentToDepositBox is an IntentToDeposit box awaiting a sweep (spec.md §3).
type IntentToDepositBox struct {
	BoxID         string
	ValueNanoErg  int64
	CommitmentHex string // R4: compressed Pedersen commitment C
	ErgoTree      string
	RawBytes      string
}

// IntentToWithdrawBox is an IntentToWithdraw box awaiting a sweep.
type IntentToWithdrawBox struct {
	BoxID          string
	ValueNanoErg   int64
	NullifierHex   string // R4: nullifier point I
	RingProofHex   string // R5: ring-signature bundle assembled by the depositor's own client
	PayoutErgoTree string // R6: payout script bytes
	ErgoTree       string
	RawBytes       string
}
