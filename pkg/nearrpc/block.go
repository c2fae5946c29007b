package nearrpc

import (
	"fmt"

	"github.com/aurora-is-near/aurora-go/pkg/util"
)

// Finality is the confirmation depth of the block used by the request.
type Finality string

// Finality values understood by NEAR nodes.
const (
	FinalityFinal      Finality = "final"
	FinalityOptimistic Finality = "optimistic"
)

// BlockReference selects the block a query or block request is executed
// against: either by finality or by a specific height/hash. The zero value
// means the latest final block.
type BlockReference struct {
	finality Finality
	height   *uint64
	hash     *util.CryptoHash
}

// Final returns a reference to the latest final block.
func Final() BlockReference {
	return BlockReference{finality: FinalityFinal}
}

// Optimistic returns a reference to the latest (not yet final) block.
func Optimistic() BlockReference {
	return BlockReference{finality: FinalityOptimistic}
}

// AtHeight returns a reference to the block with the given height.
func AtHeight(h uint64) BlockReference {
	return BlockReference{height: &h}
}

// AtHash returns a reference to the block with the given hash.
func AtHash(h util.CryptoHash) BlockReference {
	return BlockReference{hash: &h}
}

// Height returns the block height of the reference if it's pinned to one.
func (b BlockReference) Height() (uint64, bool) {
	if b.height == nil {
		return 0, false
	}
	return *b.height, true
}

// Apply adds block reference fields to request parameters.
func (b BlockReference) Apply(params map[string]any) map[string]any {
	if params == nil {
		params = make(map[string]any)
	}
	switch {
	case b.height != nil:
		params["block_id"] = *b.height
	case b.hash != nil:
		params["block_id"] = b.hash.String()
	case b.finality != "":
		params["finality"] = string(b.finality)
	default:
		params["finality"] = string(FinalityFinal)
	}
	return params
}

// String implements the fmt.Stringer interface.
func (b BlockReference) String() string {
	switch {
	case b.height != nil:
		return fmt.Sprintf("height %d", *b.height)
	case b.hash != nil:
		return "hash " + b.hash.String()
	case b.finality != "":
		return string(b.finality)
	default:
		return string(FinalityFinal)
	}
}
