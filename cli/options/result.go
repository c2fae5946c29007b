package options

import (
	"fmt"
	"unicode/utf8"

	"github.com/aurora-is-near/aurora-go/pkg/rpcclient/actor"
	"github.com/urfave/cli"
)

// TxResult is the printable form of a transaction outcome.
type TxResult struct {
	Hash     string   `json:"hash" yaml:"hash"`
	Status   string   `json:"status" yaml:"status"`
	Value    string   `json:"value,omitempty" yaml:"value,omitempty"`
	Failure  string   `json:"failure,omitempty" yaml:"failure,omitempty"`
	GasBurnt uint64   `json:"gas_burnt" yaml:"gas_burnt"`
	Logs     []string `json:"logs,omitempty" yaml:"logs,omitempty"`
}

// NewTxResult converts the outcome to TxResult.
func NewTxResult(o *actor.Outcome) TxResult {
	res := TxResult{
		Hash:     o.Hash.String(),
		Status:   string(o.Status),
		Value:    FormatValue(o.Value),
		GasBurnt: o.GasBurnt(),
		Logs:     o.Logs(),
	}
	if o.Failure != nil {
		res.Failure = o.Failure.Error()
	}
	return res
}

// FormatValue returns b as a string if it's printable UTF-8 and as 0x-prefixed
// hex otherwise.
func FormatValue(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		printable := true
		for _, r := range string(b) {
			if r < 0x20 && r != '\n' && r != '\t' && r != '\r' {
				printable = false
				break
			}
		}
		if printable {
			return string(b)
		}
	}
	return fmt.Sprintf("0x%x", b)
}

// PrintOutcome prints the outcome and returns an exit error if the
// transaction failed.
func PrintOutcome(ctx *cli.Context, o *actor.Outcome) error {
	if err := PrintResult(ctx, NewTxResult(o)); err != nil {
		return err
	}
	if o.Failure != nil {
		return cli.NewExitError(fmt.Errorf("transaction %s failed: %w", o.Hash, o.Failure), 1)
	}
	return nil
}
