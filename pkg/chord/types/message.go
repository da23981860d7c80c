package types

import (
	"encoding/json"
	"fmt"
)

// MessageKind is the closed set of wire message kinds described in
// spec §6. It is string-backed so it round-trips through JSON (or any
// other framing the Transport chooses) without a lookup table.
type MessageKind string

const (
	KindPing                MessageKind = "ping"
	KindPong                MessageKind = "pong"
	KindGetSuccList         MessageKind = "get_succ_list"
	KindGotSuccList         MessageKind = "got_succ_list"
	KindGetPredAndSuccs     MessageKind = "get_pred_and_succs"
	KindGotPredAndSuccs     MessageKind = "got_pred_and_succs"
	KindGetBestPredecessor  MessageKind = "get_best_predecessor"
	KindGotBestPredecessor  MessageKind = "got_best_predecessor"
	KindNotify              MessageKind = "notify"
)

// Message is a tagged record: a wire kind and a kind-dependent
// payload. Request/response payload shapes are typed structs rather
// than a single interface{} grab-bag, the way the teacher's RPC
// commands (GMCastRequest, ComputeRequest, ...) carry typed fields
// instead of an opaque blob.
type Message struct {
	Kind MessageKind
	Data interface{}
}

// messageWire is the on-the-wire shape of Message: Data nested as a
// raw JSON value so UnmarshalJSON can decode it into the concrete
// payload type for Kind, rather than json's default of decoding an
// unknown object into map[string]interface{}.
type messageWire struct {
	Kind MessageKind     `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON encodes Data as a plain nested JSON value under "data",
// the counterpart UnmarshalJSON decodes per Kind.
func (m Message) MarshalJSON() ([]byte, error) {
	w := messageWire{Kind: m.Kind}
	if m.Data != nil {
		data, err := json.Marshal(m.Data)
		if err != nil {
			return nil, err
		}
		w.Data = data
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes Data into the concrete payload type for Kind,
// per spec §6's closed set of wire message kinds. Every continuation
// and handler that type-asserts msg.Data (e.g.
// msg.Data.(GetPredAndSuccsResponse)) depends on this: decoding into a
// bare interface{} would otherwise yield a map[string]interface{} and
// panic every assertion on the receive path.
func (m *Message) UnmarshalJSON(b []byte) error {
	var w messageWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	m.Kind = w.Kind

	if len(w.Data) == 0 || string(w.Data) == "null" {
		m.Data = nil
		return nil
	}

	switch w.Kind {
	case KindGetBestPredecessor:
		var v GetBestPredecessorRequest
		if err := json.Unmarshal(w.Data, &v); err != nil {
			return err
		}
		m.Data = v
	case KindGotBestPredecessor:
		var v GetBestPredecessorResponse
		if err := json.Unmarshal(w.Data, &v); err != nil {
			return err
		}
		m.Data = v
	case KindGotSuccList:
		var v GetSuccListResponse
		if err := json.Unmarshal(w.Data, &v); err != nil {
			return err
		}
		m.Data = v
	case KindGotPredAndSuccs:
		var v GetPredAndSuccsResponse
		if err := json.Unmarshal(w.Data, &v); err != nil {
			return err
		}
		m.Data = v
	case KindPing, KindPong, KindGetSuccList, KindGetPredAndSuccs, KindNotify:
		m.Data = nil
	default:
		return fmt.Errorf("chord: unknown message kind %q", w.Kind)
	}
	return nil
}

// GetBestPredecessorRequest is the payload of a get_best_predecessor
// request: the id whose best known predecessor is being asked for.
type GetBestPredecessorRequest struct {
	ID ID
}

// GetBestPredecessorResponse answers with the closest predecessor of
// ID known to the responder.
type GetBestPredecessorResponse struct {
	Pred Pointer
}

// GetSuccListResponse carries a node's current successor list.
type GetSuccListResponse struct {
	Succs []Pointer
}

// GetPredAndSuccsResponse carries a node's believed predecessor
// (nil if none) followed by its successor list.
type GetPredAndSuccsResponse struct {
	Pred  *Pointer
	Succs []Pointer
}
