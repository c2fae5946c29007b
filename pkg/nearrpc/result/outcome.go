package result

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aurora-is-near/aurora-go/pkg/util"
)

// StatusKind is the kind of execution status.
type StatusKind string

// Known execution status kinds.
const (
	StatusUnknown          StatusKind = "Unknown"
	StatusNotStarted       StatusKind = "NotStarted"
	StatusStarted          StatusKind = "Started"
	StatusFailure          StatusKind = "Failure"
	StatusSuccessValue     StatusKind = "SuccessValue"
	StatusSuccessReceiptID StatusKind = "SuccessReceiptId"
)

type (
	// ExecutionStatus is the status of a transaction or receipt. NEAR encodes
	// it either as a plain string or as a single-key object.
	ExecutionStatus struct {
		Kind StatusKind
		// SuccessValue is the decoded value for StatusSuccessValue.
		SuccessValue []byte
		// SuccessReceiptID is the next receipt for StatusSuccessReceiptID.
		SuccessReceiptID util.CryptoHash
		// Failure is set for StatusFailure.
		Failure *TxExecutionError
	}

	// TxExecutionError describes a failed execution (action error or invalid
	// transaction). It's kept in its JSON form, the structure is large and
	// versioned by nodes.
	TxExecutionError struct {
		Raw json.RawMessage
	}

	// ExecutionOutcome is an outcome of transaction or receipt execution.
	ExecutionOutcome struct {
		Logs        []string          `json:"logs"`
		ReceiptIDs  []util.CryptoHash `json:"receipt_ids"`
		GasBurnt    uint64            `json:"gas_burnt"`
		TokensBurnt string            `json:"tokens_burnt"`
		ExecutorID  string            `json:"executor_id"`
		Status      ExecutionStatus   `json:"status"`
	}

	// ExecutionOutcomeWithID is an outcome along with the transaction or
	// receipt ID and the block it was executed in.
	ExecutionOutcomeWithID struct {
		ID        util.CryptoHash  `json:"id"`
		BlockHash util.CryptoHash  `json:"block_hash"`
		Outcome   ExecutionOutcome `json:"outcome"`
	}

	// TransactionView is the transaction part of execution results.
	TransactionView struct {
		SignerID   string          `json:"signer_id"`
		PublicKey  string          `json:"public_key"`
		Nonce      uint64          `json:"nonce"`
		ReceiverID string          `json:"receiver_id"`
		Hash       util.CryptoHash `json:"hash"`
		Actions    json.RawMessage `json:"actions,omitempty"`
	}

	// FinalExecutionOutcome is the result of broadcast_tx_commit and tx
	// requests.
	FinalExecutionOutcome struct {
		Status               ExecutionStatus          `json:"status"`
		Transaction          TransactionView          `json:"transaction"`
		TransactionOutcome   ExecutionOutcomeWithID   `json:"transaction_outcome"`
		ReceiptsOutcome      []ExecutionOutcomeWithID `json:"receipts_outcome"`
		FinalExecutionStatus string                   `json:"final_execution_status,omitempty"`
	}

	// LightClientProof is the result of light_client_proof request, only the
	// outcome being proven is decoded.
	LightClientProof struct {
		OutcomeProof ExecutionOutcomeWithID `json:"outcome_proof"`
	}
)

// MarshalJSON implements the json.Marshaler interface.
func (s ExecutionStatus) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case StatusSuccessValue:
		return json.Marshal(map[string]string{string(s.Kind): base64.StdEncoding.EncodeToString(s.SuccessValue)})
	case StatusSuccessReceiptID:
		return json.Marshal(map[string]util.CryptoHash{string(s.Kind): s.SuccessReceiptID})
	case StatusFailure:
		var raw json.RawMessage = []byte("null")
		if s.Failure != nil {
			raw = s.Failure.Raw
		}
		return json.Marshal(map[string]json.RawMessage{string(s.Kind): raw})
	case "":
		return json.Marshal(StatusUnknown)
	default:
		return json.Marshal(s.Kind)
	}
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *ExecutionStatus) UnmarshalJSON(data []byte) error {
	var kind string
	if err := json.Unmarshal(data, &kind); err == nil {
		*s = ExecutionStatus{Kind: StatusKind(kind)}
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid execution status: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("invalid execution status: %d keys", len(obj))
	}
	for k, v := range obj {
		res := ExecutionStatus{Kind: StatusKind(k)}
		switch res.Kind {
		case StatusSuccessValue:
			var b64 string
			if err := json.Unmarshal(v, &b64); err != nil {
				return err
			}
			val, err := base64.StdEncoding.DecodeString(b64)
			if err != nil {
				return fmt.Errorf("invalid SuccessValue: %w", err)
			}
			res.SuccessValue = val
		case StatusSuccessReceiptID:
			if err := json.Unmarshal(v, &res.SuccessReceiptID); err != nil {
				return err
			}
		case StatusFailure:
			res.Failure = &TxExecutionError{Raw: append(json.RawMessage(nil), v...)}
		default:
			return fmt.Errorf("unknown execution status %q", k)
		}
		*s = res
	}
	return nil
}

// IsFinal reports whether the status won't change anymore.
func (s ExecutionStatus) IsFinal() bool {
	return s.Kind == StatusSuccessValue || s.Kind == StatusSuccessReceiptID || s.Kind == StatusFailure
}

// Error implements the error interface.
func (e *TxExecutionError) Error() string {
	if msg := e.ExecutionError(); msg != "" {
		return msg
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, e.Raw); err != nil {
		return string(e.Raw)
	}
	return buf.String()
}

// ExecutionError returns the contract execution message (like a panic
// message) if the failure is a function call execution error.
func (e *TxExecutionError) ExecutionError() string {
	var v any
	if json.Unmarshal(e.Raw, &v) != nil {
		return ""
	}
	msg, _ := findKey(v, "ExecutionError").(string)
	return msg
}

// Kind returns the top-level kind of the failure (ActionError or
// InvalidTxError).
func (e *TxExecutionError) Kind() string {
	var obj map[string]json.RawMessage
	if json.Unmarshal(e.Raw, &obj) != nil {
		return ""
	}
	for k := range obj {
		return k
	}
	return ""
}

func findKey(v any, key string) any {
	switch v := v.(type) {
	case map[string]any:
		if res, ok := v[key]; ok {
			return res
		}
		for _, sub := range v {
			if res := findKey(sub, key); res != nil {
				return res
			}
		}
	case []any:
		for _, sub := range v {
			if res := findKey(sub, key); res != nil {
				return res
			}
		}
	}
	return nil
}

// ErrNotFinal is returned by Value for statuses that have no value yet.
var ErrNotFinal = errors.New("execution is not finished")

// Value returns the success value of the outcome or the execution failure.
func (o *FinalExecutionOutcome) Value() ([]byte, error) {
	switch o.Status.Kind {
	case StatusSuccessValue:
		return o.Status.SuccessValue, nil
	case StatusFailure:
		return nil, o.Status.Failure
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotFinal, o.Status.Kind)
	}
}

// Logs returns all logs produced by the transaction and its receipts.
func (o *FinalExecutionOutcome) Logs() []string {
	res := append([]string(nil), o.TransactionOutcome.Outcome.Logs...)
	for _, r := range o.ReceiptsOutcome {
		res = append(res, r.Outcome.Logs...)
	}
	return res
}

// GasBurnt returns the total amount of gas burnt by the transaction and its
// receipts.
func (o *FinalExecutionOutcome) GasBurnt() uint64 {
	total := o.TransactionOutcome.Outcome.GasBurnt
	for _, r := range o.ReceiptsOutcome {
		total += r.Outcome.GasBurnt
	}
	return total
}
