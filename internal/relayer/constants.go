// Package relayer implements the sweep machinery spec.md §4.F describes:
// batching pending IntentToDeposit boxes into the pool's ring, and
// forwarding one IntentToWithdraw box at a time into the pool's nullifier
// set. Grounded on the original SDK's DepositRelayer/WithdrawalRelayer
// (relayer/deposit_relayer.py, relayer/withdrawal_relayer.py), adapted to
// this repo's register layout: R4 is always the Coll[GroupElement]
// depositor-key ring (never an AVL commitment tree), following the R4
// register layout internal/register encodes rather than the original's
// separate commitment-tree design.
package relayer

// MaxBatchSize bounds how many pending deposits one sweep transaction may
// fold into the ring in a single step.
const MaxBatchSize = 50

// MinBoxValue is the minimum nanoERG value any swept box must carry.
const MinBoxValue = 1_000_000

// MinerFee is the flat miner fee every sweep transaction pays.
const MinerFee = 1_100_000

// FeeErgoTree is the standard Ergo miner-fee contract, byte-for-byte the
// same constant the reference relayer used.
const FeeErgoTree = "1005040004000e36100204a00b08cd0279be667ef9dcbbac55a06295ce870b" +
	"07029bfcdb2dce28d959f2815b16f81798ea02d192a39a8cc7a70173007301" +
	"1001020402d19683030193a38cc7b2a57300000193c2b2a5730100747302" +
	"7303830108cdeeac93b1a57304"
