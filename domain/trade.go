package domain

import "sync"

// ExecutionReport describes one matching event — either a trade or a
// self-match-prevention cancel, distinguished by ExecType. Field layout
// keeps the hot price/qty/type fields first and the cold IDs last, the
// same cache-line grouping the wire-layout twin in package wire uses.
type ExecutionReport struct {
	// Hot fields
	ExecPx   uint32
	ExecQty  uint32
	ExecType ExecType
	ExecNs   uint64

	Instrument Instrument

	// Bid side
	BidClientID  uint32
	BidOrderID   uint32
	BidOrderPx   uint32
	BidFillType  FillType

	// Ask side
	AskClientID uint32
	AskOrderID  uint32
	AskOrderPx  uint32
	AskFillType FillType

	// Cold identity fields
	TradeID   uint32
	TradeSeq  uint32
}

var executionReportPool = sync.Pool{
	New: func() any { return &ExecutionReport{} },
}

// NewExecutionReport returns a pooled, zeroed ExecutionReport ready to be
// filled in by the matching loop.
func NewExecutionReport() *ExecutionReport {
	return executionReportPool.Get().(*ExecutionReport)
}

// Release returns the report to the pool once its value has been copied
// out; the matching core releases each report right after copying it
// into the Event it returns.
func (e *ExecutionReport) Release() {
	*e = ExecutionReport{}
	executionReportPool.Put(e)
}
