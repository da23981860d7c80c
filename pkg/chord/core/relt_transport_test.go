package core

import (
	"encoding/json"
	"testing"

	"github.com/oxring/chord/pkg/chord/types"
	"github.com/stretchr/testify/require"
)

// Exercises the exact envelope marshal/unmarshal ReltTransport.Send and
// consume use on the wire, for every message kind a continuation or
// recvHandler type-asserts off Message.Data. Before Message grew a
// kind-dispatched UnmarshalJSON, this round trip silently produced a
// map[string]interface{} in Data and every assertion on the receive
// side (continuations.go, node.go) would panic the first time a real
// relt packet arrived; none of the MemTransport-backed scenario tests
// ever exercised this path since MemTransport passes Go values by
// reference without serializing them.
func TestReltEnvelope_RoundTripsDataForTypeAssertion(t *testing.T) {
	ring := types.NewRing(32)
	self := types.NewPointer(ring, "self")
	succ := types.NewPointer(ring, "succ")
	pred := types.NewPointer(ring, "pred")

	cases := []types.Message{
		{Kind: types.KindPing},
		{Kind: types.KindPong},
		{Kind: types.KindGetSuccList},
		{Kind: types.KindGotSuccList, Data: types.GetSuccListResponse{Succs: []types.Pointer{succ}}},
		{Kind: types.KindGetPredAndSuccs},
		{Kind: types.KindGotPredAndSuccs, Data: types.GetPredAndSuccsResponse{Pred: &pred, Succs: []types.Pointer{succ}}},
		{Kind: types.KindGetBestPredecessor, Data: types.GetBestPredecessorRequest{ID: succ.ID}},
		{Kind: types.KindGotBestPredecessor, Data: types.GetBestPredecessorResponse{Pred: succ}},
		{Kind: types.KindNotify},
	}

	for _, msg := range cases {
		data, err := json.Marshal(envelope{Src: self, Msg: msg})
		require.NoError(t, err)

		var got envelope
		require.NoError(t, json.Unmarshal(data, &got))
		require.Equal(t, self.Addr, got.Src.Addr)
		require.Equal(t, msg.Kind, got.Msg.Kind)

		// These are exactly the assertions continuations.go and
		// node.go perform on a received Message; they must not panic.
		switch msg.Kind {
		case types.KindGotSuccList:
			require.Equal(t, msg.Data, got.Msg.Data.(types.GetSuccListResponse))
		case types.KindGotPredAndSuccs:
			require.Equal(t, msg.Data, got.Msg.Data.(types.GetPredAndSuccsResponse))
		case types.KindGetBestPredecessor:
			require.Equal(t, msg.Data, got.Msg.Data.(types.GetBestPredecessorRequest))
		case types.KindGotBestPredecessor:
			require.Equal(t, msg.Data, got.Msg.Data.(types.GetBestPredecessorResponse))
		default:
			require.Nil(t, got.Msg.Data)
		}
	}
}
