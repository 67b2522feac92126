package wire

import "matchcore/domain"

// EngineMessage is the tagged union carried inside every
// SequencedEngineMessage: NewOrder / NewOrderAck / CancelOrder
// / CancelOrderAck / TradeExecution / Rejection / EngineError. Body
// holds whichever variant Tag selects, encoded at a fixed offset — the Go
// equivalent of the source's repr(C) enum, without unsafe reinterpretation
// of a live Go value (Go's GC forbids that); the cost is the explicit
// per-field marshal below, not a second allocation, since Body is a fixed
// array embedded directly in EngineMessage.
type EngineMessage struct {
	Tag  Tag
	Body [bodySize]byte
}

func putInstrument(buf []byte, inst domain.Instrument) {
	copy(buf[0:16], inst[:])
}

func getInstrument(buf []byte) domain.Instrument {
	var inst domain.Instrument
	copy(inst[:], buf[0:16])
	return inst
}

// EncodeNewOrder packs an OrderRequest into an EngineMessage.
func EncodeNewOrder(req domain.OrderRequest) EngineMessage {
	var m EngineMessage
	m.Tag = TagNewOrder
	b := m.Body[:]
	byteOrder.PutUint32(b[0:4], req.ClientID)
	putInstrument(b[4:20], req.Instrument)
	b[20] = byte(req.Side)
	byteOrder.PutUint32(b[21:25], req.Px)
	byteOrder.PutUint32(b[25:29], req.Qty)
	b[29] = byte(req.TIF)
	byteOrder.PutUint64(b[30:38], req.Timestamp)
	return m
}

// DecodeNewOrder unpacks an OrderRequest. ok is false if Tag isn't
// TagNewOrder.
func (m EngineMessage) DecodeNewOrder() (domain.OrderRequest, bool) {
	if m.Tag != TagNewOrder {
		return domain.OrderRequest{}, false
	}
	b := m.Body[:]
	return domain.OrderRequest{
		ClientID:   byteOrder.Uint32(b[0:4]),
		Instrument: getInstrument(b[4:20]),
		Side:       domain.Side(b[20]),
		Px:         byteOrder.Uint32(b[21:25]),
		Qty:        byteOrder.Uint32(b[25:29]),
		TIF:        domain.TimeInForce(b[29]),
		Timestamp:  byteOrder.Uint64(b[30:38]),
	}, true
}

// EncodeCancelOrder packs a CancelOrderRequest into an EngineMessage.
func EncodeCancelOrder(req domain.CancelOrderRequest) EngineMessage {
	var m EngineMessage
	m.Tag = TagCancelOrder
	b := m.Body[:]
	byteOrder.PutUint32(b[0:4], req.ClientID)
	putInstrument(b[4:20], req.Instrument)
	b[20] = byte(req.Side)
	byteOrder.PutUint32(b[21:25], req.OrderID)
	return m
}

func (m EngineMessage) DecodeCancelOrder() (domain.CancelOrderRequest, bool) {
	if m.Tag != TagCancelOrder {
		return domain.CancelOrderRequest{}, false
	}
	b := m.Body[:]
	return domain.CancelOrderRequest{
		ClientID:   byteOrder.Uint32(b[0:4]),
		Instrument: getInstrument(b[4:20]),
		Side:       domain.Side(b[20]),
		OrderID:    byteOrder.Uint32(b[21:25]),
	}, true
}

// EncodeNewOrderAck packs a NewOrderAck into an EngineMessage.
func EncodeNewOrderAck(ack domain.NewOrderAck) EngineMessage {
	var m EngineMessage
	m.Tag = TagNewOrderAck
	b := m.Body[:]
	byteOrder.PutUint32(b[0:4], ack.ClientID)
	putInstrument(b[4:20], ack.Instrument)
	b[20] = byte(ack.Side)
	byteOrder.PutUint32(b[21:25], ack.OrderID)
	byteOrder.PutUint32(b[25:29], ack.Px)
	byteOrder.PutUint32(b[29:33], ack.Qty)
	byteOrder.PutUint64(b[33:41], ack.AckNs)
	return m
}

func (m EngineMessage) DecodeNewOrderAck() (domain.NewOrderAck, bool) {
	if m.Tag != TagNewOrderAck {
		return domain.NewOrderAck{}, false
	}
	b := m.Body[:]
	return domain.NewOrderAck{
		ClientID:   byteOrder.Uint32(b[0:4]),
		Instrument: getInstrument(b[4:20]),
		Side:       domain.Side(b[20]),
		OrderID:    byteOrder.Uint32(b[21:25]),
		Px:         byteOrder.Uint32(b[25:29]),
		Qty:        byteOrder.Uint32(b[29:33]),
		AckNs:      byteOrder.Uint64(b[33:41]),
	}, true
}

// EncodeCancelOrderAck packs a CancelledOrderAck into an EngineMessage.
func EncodeCancelOrderAck(ack domain.CancelledOrderAck) EngineMessage {
	var m EngineMessage
	m.Tag = TagCancelOrderAck
	b := m.Body[:]
	byteOrder.PutUint32(b[0:4], ack.ClientID)
	putInstrument(b[4:20], ack.Instrument)
	b[20] = byte(ack.Side)
	byteOrder.PutUint32(b[21:25], ack.OrderID)
	b[25] = byte(ack.Status)
	b[26] = byte(ack.Reason)
	byteOrder.PutUint64(b[27:35], ack.AckNs)
	return m
}

func (m EngineMessage) DecodeCancelOrderAck() (domain.CancelledOrderAck, bool) {
	if m.Tag != TagCancelOrderAck {
		return domain.CancelledOrderAck{}, false
	}
	b := m.Body[:]
	return domain.CancelledOrderAck{
		ClientID:   byteOrder.Uint32(b[0:4]),
		Instrument: getInstrument(b[4:20]),
		Side:       domain.Side(b[20]),
		OrderID:    byteOrder.Uint32(b[21:25]),
		Status:     domain.CancelStatus(b[25]),
		Reason:     domain.CancelReason(b[26]),
		AckNs:      byteOrder.Uint64(b[27:35]),
	}, true
}

// EncodeTradeExecution packs an ExecutionReport into an EngineMessage.
func EncodeTradeExecution(r domain.ExecutionReport) EngineMessage {
	var m EngineMessage
	m.Tag = TagTradeExecution
	b := m.Body[:]
	byteOrder.PutUint32(b[0:4], r.ExecPx)
	byteOrder.PutUint32(b[4:8], r.ExecQty)
	b[8] = byte(r.ExecType)
	byteOrder.PutUint64(b[9:17], r.ExecNs)
	putInstrument(b[17:33], r.Instrument)
	byteOrder.PutUint32(b[33:37], r.BidClientID)
	byteOrder.PutUint32(b[37:41], r.BidOrderID)
	byteOrder.PutUint32(b[41:45], r.BidOrderPx)
	b[45] = byte(r.BidFillType)
	byteOrder.PutUint32(b[46:50], r.AskClientID)
	byteOrder.PutUint32(b[50:54], r.AskOrderID)
	byteOrder.PutUint32(b[54:58], r.AskOrderPx)
	b[58] = byte(r.AskFillType)
	byteOrder.PutUint32(b[59:63], r.TradeID)
	byteOrder.PutUint32(b[63:67], r.TradeSeq)
	return m
}

func (m EngineMessage) DecodeTradeExecution() (domain.ExecutionReport, bool) {
	if m.Tag != TagTradeExecution {
		return domain.ExecutionReport{}, false
	}
	b := m.Body[:]
	return domain.ExecutionReport{
		ExecPx:      byteOrder.Uint32(b[0:4]),
		ExecQty:     byteOrder.Uint32(b[4:8]),
		ExecType:    domain.ExecType(b[8]),
		ExecNs:      byteOrder.Uint64(b[9:17]),
		Instrument:  getInstrument(b[17:33]),
		BidClientID: byteOrder.Uint32(b[33:37]),
		BidOrderID:  byteOrder.Uint32(b[37:41]),
		BidOrderPx:  byteOrder.Uint32(b[41:45]),
		BidFillType: domain.FillType(b[45]),
		AskClientID: byteOrder.Uint32(b[46:50]),
		AskOrderID:  byteOrder.Uint32(b[50:54]),
		AskOrderPx:  byteOrder.Uint32(b[54:58]),
		AskFillType: domain.FillType(b[58]),
		TradeID:     byteOrder.Uint32(b[59:63]),
		TradeSeq:    byteOrder.Uint32(b[63:67]),
	}, true
}

// EncodeRejection packs a RejectionMessage into an EngineMessage.
func EncodeRejection(r domain.RejectionMessage) EngineMessage {
	var m EngineMessage
	m.Tag = TagRejection
	b := m.Body[:]
	byteOrder.PutUint32(b[0:4], r.ClientID)
	putInstrument(b[4:20], r.Instrument)
	b[20] = byte(r.Side)
	b[21] = byte(r.Reason)
	byteOrder.PutUint64(b[22:30], r.RejectNs)
	return m
}

func (m EngineMessage) DecodeRejection() (domain.RejectionMessage, bool) {
	if m.Tag != TagRejection {
		return domain.RejectionMessage{}, false
	}
	b := m.Body[:]
	return domain.RejectionMessage{
		ClientID:   byteOrder.Uint32(b[0:4]),
		Instrument: getInstrument(b[4:20]),
		Side:       domain.Side(b[20]),
		Reason:     domain.RejectReason(b[21]),
		RejectNs:   byteOrder.Uint64(b[22:30]),
	}, true
}

// EncodeEngineError packs an EngineError into an EngineMessage.
func EncodeEngineError(e domain.EngineError) EngineMessage {
	var m EngineMessage
	m.Tag = TagEngineError
	b := m.Body[:]
	b[0] = byte(e.Code)
	copy(b[1:65], e.Detail[:])
	return m
}

func (m EngineMessage) DecodeEngineError() (domain.EngineError, bool) {
	if m.Tag != TagEngineError {
		return domain.EngineError{}, false
	}
	b := m.Body[:]
	var e domain.EngineError
	e.Code = domain.EngineErrorCode(b[0])
	copy(e.Detail[:], b[1:65])
	return e, true
}
