package domain

// NewOrderAck acknowledges admission of an OrderRequest.
type NewOrderAck struct {
	ClientID   uint32
	Instrument Instrument
	Side       Side
	OrderID    uint32
	Px         uint32
	Qty        uint32
	AckNs      uint64
}

// CancelStatus is the outcome of a CancelOrderRequest.
type CancelStatus uint8

const (
	CancelStatusCancelled CancelStatus = iota
	CancelStatusNotFound
)

// CancelReason qualifies why a cancel happened. ClientRequested covers the
// explicit CancelOrder path; self-match prevention also removes a
// resting order but reports through ExecutionReport, not this ack, so the
// only reason value exercised today is ClientRequested — the type is kept
// open for future reasons (e.g. engine-initiated purge) without changing
// the wire tag.
type CancelReason uint8

const (
	CancelReasonClientRequested CancelReason = iota
)

// CancelledOrderAck acknowledges a CancelOrderRequest.
type CancelledOrderAck struct {
	ClientID   uint32
	Instrument Instrument
	Side       Side
	OrderID    uint32
	Status     CancelStatus
	Reason     CancelReason
	AckNs      uint64
}

// RejectReason taxonomizes why an inbound command never touched the book.
type RejectReason uint8

const (
	RejectReasonNone RejectReason = iota
	RejectReasonInvalidPrice
	RejectReasonInvalidQuantity
	RejectReasonUnknownSide
	RejectReasonUnknownTIF
	RejectReasonFOKUnfillable
)

// RejectionMessage reports a validation failure.
type RejectionMessage struct {
	ClientID   uint32
	Instrument Instrument
	Side       Side
	Reason     RejectReason
	RejectNs   uint64
}

// EngineErrorCode classifies a fatal internal condition.
type EngineErrorCode uint8

const (
	EngineErrorNone EngineErrorCode = iota
	EngineErrorBookInvariant
	EngineErrorQueueOverflow
)

// EngineError is emitted immediately before the process aborts on an
// internal invariant violation. Detail is fixed-size so the
// wire encoding never allocates.
type EngineError struct {
	Code   EngineErrorCode
	Detail [64]byte
}

// NewEngineError truncates msg into the fixed Detail field.
func NewEngineError(code EngineErrorCode, msg string) EngineError {
	var e EngineError
	e.Code = code
	copy(e.Detail[:], msg)
	return e
}
