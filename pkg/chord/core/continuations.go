package core

import "github.com/oxring/chord/pkg/chord/types"

// This file is the protocol continuation library, grounded directly
// on original_source/systems/chord/node.py's module-level query
// constructors (ping/get_succ_list/get_pred_and_succs/
// get_best_predecessor/notify/rectify_query/stabilize_query/
// stabilize2/join_query/join2/lookup_succ/lookup_predecessor/get_succ).
// Each constructor returns a types.Query closing over the Pointers it
// needs; Go's closures stand in for the Python closures directly, per
// the design note that a tagged-variant continuation encoding is only
// needed in languages without first-class closures.

// Ping issues a liveness check to dst.
func Ping(dst types.Pointer, cb types.Continuation) types.Query {
	return types.Query{Dst: dst, Msg: types.Message{Kind: types.KindPing}, ResKind: types.KindPong, Cb: cb}
}

// GetSuccList asks dst for its current successor list.
func GetSuccList(dst types.Pointer, cb types.Continuation) types.Query {
	return types.Query{Dst: dst, Msg: types.Message{Kind: types.KindGetSuccList}, ResKind: types.KindGotSuccList, Cb: cb}
}

// GetPredAndSuccs asks dst for its believed predecessor plus its
// successor list, the core of one stabilize round-trip.
func GetPredAndSuccs(dst types.Pointer, cb types.Continuation) types.Query {
	return types.Query{Dst: dst, Msg: types.Message{Kind: types.KindGetPredAndSuccs}, ResKind: types.KindGotPredAndSuccs, Cb: cb}
}

// GetBestPredecessor asks dst for the closest predecessor of id it
// knows about, the single hop of the iterative lookup.
func GetBestPredecessor(dst types.Pointer, id types.ID, cb types.Continuation) types.Query {
	return types.Query{
		Dst:     dst,
		Msg:     types.Message{Kind: types.KindGetBestPredecessor, Data: types.GetBestPredecessorRequest{ID: id}},
		ResKind: types.KindGotBestPredecessor,
		Cb:      cb,
	}
}

// Notify emits an unsolicited notify to node: no expected reply.
func Notify(node types.Pointer) []types.Send {
	return []types.Send{{Dst: node, Msg: types.Message{Kind: types.KindNotify}}}
}

// RectifyQuery pings the current predecessor to check it is still
// alive before accepting or rejecting notifier as the new predecessor.
func RectifyQuery(pred, notifier types.Pointer) types.Query {
	cb := func(state types.State, pong *types.Message) (types.Action, types.State) {
		if pong == nil || types.Between(state.Pred.ID, notifier.ID, state.Ptr.ID) {
			state.Pred = &notifier
		}
		return types.NoneAction{}, state
	}
	return Ping(pred, cb)
}

// StabilizeQuery fetches succ's predecessor and successor list. If
// succ's believed predecessor is a tighter successor for this node, it
// hands off to Stabilize2 to confirm it; otherwise it notifies succ
// directly. On timeout it drops succ and recurses on the next
// successor in the list.
func StabilizeQuery(succ types.Pointer) types.Query {
	cb := func(state types.State, msg *types.Message) (types.Action, types.State) {
		if msg != nil {
			resp := msg.Data.(types.GetPredAndSuccsResponse)
			state.SuccList = types.MakeSuccs(succ, resp.Succs, state.Ptr, state.SuccListLen)
			if resp.Pred != nil && !resp.Pred.Zero() && types.Between(state.Ptr.ID, resp.Pred.ID, succ.ID) {
				return types.QueryAction{Query: Stabilize2(*resp.Pred)}, state
			}
			return types.SendsAction{Sends: Notify(succ)}, state
		}

		rest := state.SuccList[1:]
		state.SuccList = rest
		if len(rest) == 0 {
			return types.NoneAction{}, state
		}
		return types.QueryAction{Query: StabilizeQuery(rest[0])}, state
	}
	return GetPredAndSuccs(succ, cb)
}

// Stabilize2 confirms a tighter successor discovered during
// StabilizeQuery by fetching its successor list before notifying it.
func Stabilize2(newSucc types.Pointer) types.Query {
	cb := func(state types.State, msg *types.Message) (types.Action, types.State) {
		if msg != nil {
			resp := msg.Data.(types.GetSuccListResponse)
			state.SuccList = types.MakeSuccs(newSucc, resp.Succs, state.Ptr, state.SuccListLen)
			return types.SendsAction{Sends: Notify(newSucc)}, state
		}
		return types.SendsAction{Sends: Notify(state.SuccList[0])}, state
	}
	return GetSuccList(newSucc, cb)
}

// BestPredecessor is the server-side policy for get_best_predecessor:
// the closest predecessor of id known among {ptr} U succ_list,
// preferring the furthest-forward qualifying successor (the Open
// Question resolution recorded in SPEC_FULL.md §13(b)).
func BestPredecessor(state types.State, id types.ID) types.Pointer {
	best := state.Ptr
	for _, s := range state.SuccList {
		if types.Between(state.Ptr.ID, s.ID, id) {
			best = s
		}
	}
	return best
}

// LookupSucc performs the iterative predecessor-to-successor lookup:
// find id's best predecessor, then ask it for its successor list and
// deliver the first entry to cb.
func LookupSucc(start types.Pointer, id types.ID, cb types.Continuation) types.Query {
	inner := func(state types.State, msg *types.Message) (types.Action, types.State) {
		if msg != nil {
			pred := msg.Data.(types.Pointer)
			return types.QueryAction{Query: getSucc(pred, cb)}, state
		}
		return cb(state, msg)
	}
	return lookupPredecessor(start, id, inner)
}

// getSucc fetches node's successor list and forwards only its first
// entry (the immediate successor) to cb.
func getSucc(node types.Pointer, cb types.Continuation) types.Query {
	inner := func(state types.State, msg *types.Message) (types.Action, types.State) {
		if msg != nil {
			resp := msg.Data.(types.GetSuccListResponse)
			if len(resp.Succs) == 0 {
				return cb(state, nil)
			}
			return cb(state, internalMessage(resp.Succs[0]))
		}
		return cb(state, msg)
	}
	return GetSuccList(node, inner)
}

// lookupPredecessor is the single-hop recursive core of the iterative
// lookup: ask node for id's best predecessor; if node names itself,
// the search has converged, otherwise recurse at the named pointer.
func lookupPredecessor(node types.Pointer, id types.ID, cb types.Continuation) types.Query {
	inner := func(state types.State, msg *types.Message) (types.Action, types.State) {
		if msg != nil {
			bestPred := msg.Data.(types.Pointer)
			if bestPred.ID == node.ID {
				return cb(state, internalMessage(bestPred))
			}
			return types.QueryAction{Query: lookupPredecessor(bestPred, id, cb)}, state
		}
		return cb(state, msg)
	}

	wrapped := func(state types.State, msg *types.Message) (types.Action, types.State) {
		if msg == nil {
			return inner(state, nil)
		}
		resp := msg.Data.(types.GetBestPredecessorResponse)
		return inner(state, internalMessage(resp.Pred))
	}
	return GetBestPredecessor(node, id, wrapped)
}

// JoinQuery bootstraps this node into the ring through known: it looks
// up the successor of myID and, once found, hands off to Join2 to pull
// the new successor's successor list.
func JoinQuery(known types.Pointer, myID types.ID) types.Query {
	cb := func(state types.State, msg *types.Message) (types.Action, types.State) {
		if msg != nil {
			newSucc := msg.Data.(types.Pointer)
			return types.QueryAction{Query: Join2(newSucc)}, state
		}
		return types.NoneAction{}, state
	}
	return LookupSucc(known, myID, cb)
}

// Join2 completes a join by pulling newSucc's successor list and
// adopting newSucc as the immediate successor with no predecessor yet
// (the predecessor is discovered later via notify/rectify).
func Join2(newSucc types.Pointer) types.Query {
	cb := func(state types.State, msg *types.Message) (types.Action, types.State) {
		if msg != nil {
			resp := msg.Data.(types.GetSuccListResponse)
			state.SuccList = types.MakeSuccs(newSucc, resp.Succs, state.Ptr, state.SuccListLen)
			state.Pred = nil
			state.Known = nil
			state.Joined = true
			return types.NoneAction{}, state
		}
		return types.NoneAction{}, state
	}
	return GetSuccList(newSucc, cb)
}

func internalMessage(v interface{}) *types.Message {
	return &types.Message{Data: v}
}
