package models

// PoolSummary is the scan-result view returned by list_pools (spec.md §4.E).
type PoolSummary struct {
	PoolID             string `json:"poolId"`
	Denomination       int64  `json:"denomination"`
	RingSize           int    `json:"ringSize"`
	UniqueKeyCount     int    `json:"uniqueKeyCount"`
	MaxRingSize        int32  `json:"maxRingSize"`
	NullifierCount     int    `json:"nullifierCount"`
	TokenBalance       int64  `json:"tokenBalance"`
	WithdrawableCount  int64  `json:"withdrawableCount"`
	SlotsRemaining     int32  `json:"slotsRemaining"`
	IsFull             bool   `json:"isFull"`
}

// HealthScore is the coarse bucket spec.md §4.E requires.
type HealthScore string

const (
	HealthCritical  HealthScore = "CRITICAL"
	HealthPoor      HealthScore = "POOR"
	HealthFair      HealthScore = "FAIR"
	HealthGood      HealthScore = "GOOD"
	HealthExcellent HealthScore = "EXCELLENT"
)

// HealthReport is the structured risk assessment evaluate_pool_health emits.
type HealthReport struct {
	PoolID               string      `json:"poolId"`
	RingSize             int         `json:"ringSize"`
	EffectiveAnonymity   int         `json:"effectiveAnonymity"` // len(unique keys)
	DuplicateKeyCount    int         `json:"duplicateKeyCount"`
	NullifierCount       int         `json:"nullifierCount"`
	Denomination         int64       `json:"denomination"`
	TokenBalance         int64       `json:"tokenBalance"`
	WithdrawableCount    int64       `json:"withdrawableCount"`
	RiskFlags            []string    `json:"riskFlags"`
	Score                HealthScore `json:"score"`
	RawScore             int         `json:"rawScore"`
}

// TxDraft is the unsigned transaction shape build_deposit/build_withdrawal
// produce: a node-ready tx body plus the raw input bytes and signing hints
// the external signer collaborator needs (spec.md §6).
type TxDraft struct {
	DraftID      string              `json:"draftId"` // uuid correlating this draft through signing, submission, and the audit log
	Kind         DraftKind           `json:"kind"`
	Tx           UnsignedTx          `json:"tx"`
	InputsRaw    []string            `json:"inputsRaw"`
	SigningHints SigningHints        `json:"signingHints"`
	Extensions   map[int]ContextVar  `json:"contextExtensions"` // input-0 context-extension vars, keyed by var id
}

type DraftKind string

const (
	DraftDeposit    DraftKind = "deposit"
	DraftWithdrawal DraftKind = "withdrawal"
)

// ContextVar is one context-extension variable: a Sigma-serialized
// length-prefixed byte array (type tag 0x0e).
type ContextVar struct {
	TypeTag byte   `json:"typeTag"`
	DataHex string `json:"dataHex"`
}

// UnsignedTx mirrors the node's expected JSON transaction-draft shape.
type UnsignedTx struct {
	Inputs     []UnsignedInput  `json:"inputs"`
	DataInputs []string         `json:"dataInputs"`
	Outputs    []UnsignedOutput `json:"outputs"`
}

type UnsignedInput struct {
	BoxID     string                `json:"boxId"`
	Extension map[string]ContextVar `json:"extension"`
}

type UnsignedOutput struct {
	Value               int64             `json:"value"`
	ErgoTree            string            `json:"ergoTree"`
	Assets              []Token           `json:"assets"`
	AdditionalRegisters map[string]string `json:"additionalRegisters"`
	CreationHeight      int               `json:"creationHeight"`
}

// SigningHints is the hint bundle the Signer collaborator consumes
// (spec.md §6): a dlog scalar per discrete-log input, plus a DH-tuple hint
// per ring-signature input.
type SigningHints struct {
	Dlog []string      `json:"dlog"` // hex scalars
	DHT  []DHTupleHint `json:"dht"`
}

// DHTupleHint names the real index's witness and the DH-tuple base the
// script will verify against: A = secret*G, B = secret*U.
type DHTupleHint struct {
	Secret string `json:"secret"` // hex scalar r
	G      string `json:"g"`      // base generator, hex compressed point
	H      string `json:"h"`      // secondary generator U (== H per spec.md §3), hex compressed point
	U      string `json:"u"`      // public image A = r*G, hex compressed point
	V      string `json:"v"`      // public image B = r*U, hex compressed point
}

// SweepResult is the relayer's outcome record for one deposit batch or
// withdrawal sweep, used for the audit log (internal/db) and the
// /api/v1/stream event feed.
type SweepResult struct {
	SweepID     string    `json:"sweepId"` // uuid, same value as the originating TxDraft.DraftID
	Kind        DraftKind `json:"kind"`
	PoolID      string    `json:"poolId"`
	TxID        string    `json:"txId,omitempty"`
	BatchSize   int       `json:"batchSize"`
	RingBefore  int       `json:"ringBefore"`
	RingAfter   int       `json:"ringAfter"`
	ValueBefore int64     `json:"valueBefore"`
	ValueAfter  int64     `json:"valueAfter"`
	DryRun      bool      `json:"dryRun"`
	Err         string    `json:"error,omitempty"`
}
