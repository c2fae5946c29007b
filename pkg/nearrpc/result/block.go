package result

import (
	"encoding/json"

	"github.com/aurora-is-near/aurora-go/pkg/util"
)

type (
	// Block is the result of block request. Only the header is decoded,
	// chunks are kept raw.
	Block struct {
		Author string          `json:"author"`
		Header BlockHeader     `json:"header"`
		Chunks json.RawMessage `json:"chunks,omitempty"`
	}

	// BlockHeader contains the block header fields used by the client.
	BlockHeader struct {
		Height    uint64          `json:"height"`
		Hash      util.CryptoHash `json:"hash"`
		PrevHash  util.CryptoHash `json:"prev_hash"`
		EpochID   util.CryptoHash `json:"epoch_id"`
		Timestamp uint64          `json:"timestamp"`
		GasPrice  string          `json:"gas_price"`
	}
)
