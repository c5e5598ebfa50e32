package host

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/0xPolygon/edge-xcc/types"
)

// receiptNamespace scopes the name-based receipt identifiers
var receiptNamespace = uuid.MustParse("5b0f6e0c-2a7e-4d38-9b1f-6f0c3f2e9a41")

// ActionReceipt is an outbound, asynchronous unit of work addressed to Receiver.
// It runs only after every receipt in DependsOn has run.
type ActionReceipt struct {
	ID          uuid.UUID
	Predecessor types.AccountID
	Receiver    types.AccountID
	Actions     []Action
	DependsOn   []uuid.UUID
}

// FunctionCalls returns the function call actions of the receipt
func (r *ActionReceipt) FunctionCalls() []Action {
	calls := make([]Action, 0, len(r.Actions))

	for _, a := range r.Actions {
		if a.Kind == ActionFunctionCall {
			calls = append(calls, a)
		}
	}

	return calls
}

// NewReceiptID derives a deterministic identifier from the creating
// execution and the position of the receipt in it
func NewReceiptID(seed []byte, index int) uuid.UUID {
	data := make([]byte, 0, len(seed)+8)
	data = append(data, seed...)
	data = binary.BigEndian.AppendUint64(data, uint64(index))

	return uuid.NewSHA1(receiptNamespace, data)
}
