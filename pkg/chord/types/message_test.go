package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// Every wire message kind round-trips bit-identically through JSON,
// per spec §8's required property. This is what guards the relt
// transport's envelope encode/decode path: a bare json.Unmarshal into
// an interface{} Data field would decode an object into
// map[string]interface{} instead of the concrete payload type, and
// every continuation/handler that type-asserts on Data would panic.
func TestMessage_RoundTripsEveryKind(t *testing.T) {
	ring := NewRing(32)
	succ := NewPointer(ring, "succ")
	pred := NewPointer(ring, "pred")

	cases := map[string]Message{
		"ping":                   {Kind: KindPing},
		"pong":                   {Kind: KindPong},
		"get_succ_list":          {Kind: KindGetSuccList},
		"got_succ_list":          {Kind: KindGotSuccList, Data: GetSuccListResponse{Succs: []Pointer{succ, pred}}},
		"get_pred_and_succs":     {Kind: KindGetPredAndSuccs},
		"got_pred_and_succs":     {Kind: KindGotPredAndSuccs, Data: GetPredAndSuccsResponse{Pred: &pred, Succs: []Pointer{succ}}},
		"got_pred_and_succs_nil": {Kind: KindGotPredAndSuccs, Data: GetPredAndSuccsResponse{Pred: nil, Succs: []Pointer{succ}}},
		"get_best_predecessor":   {Kind: KindGetBestPredecessor, Data: GetBestPredecessorRequest{ID: succ.ID}},
		"got_best_predecessor":   {Kind: KindGotBestPredecessor, Data: GetBestPredecessorResponse{Pred: succ}},
		"notify":                 {Kind: KindNotify},
	}

	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			b, err := json.Marshal(want)
			require.NoError(t, err)

			var got Message
			require.NoError(t, json.Unmarshal(b, &got))
			require.Equal(t, want, got)

			b2, err := json.Marshal(got)
			require.NoError(t, err)
			require.JSONEq(t, string(b), string(b2))
		})
	}
}

func TestMessage_UnknownKindIsRejected(t *testing.T) {
	var m Message
	err := json.Unmarshal([]byte(`{"kind":"bogus","data":null}`), &m)
	require.Error(t, err)
}
