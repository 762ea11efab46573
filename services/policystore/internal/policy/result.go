package policy

import (
	"encoding/json"

	"github.com/iotaledger/access-server/pkg/httpx"
)

// Result is the transport-agnostic outcome of one command. The bindings
// render it into their respective wire shapes.
type Result struct {
	Err       bool
	Message   string
	Unchanged bool

	// Policy carries the fetched document for get_policy.
	Policy json.RawMessage

	// List and StoreID carry the get_policy_list payload.
	List    []string
	StoreID string
}

// RenderREST produces the {error, message, data?} envelope.
func (r Result) RenderREST() map[string]any {
	switch {
	case r.Policy != nil:
		return httpx.Envelope(false, "", r.Policy)
	case r.List != nil:
		return httpx.Envelope(false, "", map[string]any{
			"list":          r.List,
			"policyStoreId": r.StoreID,
		})
	default:
		return httpx.Envelope(r.Err, r.Message, nil)
	}
}

// RenderTCP produces the raw-socket shape: {policy}, {response, policyStoreId},
// {error} or {response}.
func (r Result) RenderTCP() map[string]any {
	switch {
	case r.Policy != nil:
		return map[string]any{"policy": r.Policy}
	case r.List != nil:
		return map[string]any{"response": r.List, "policyStoreId": r.StoreID}
	case r.Unchanged:
		return map[string]any{"response": MsgOK}
	case r.Err:
		return map[string]any{"error": r.Message}
	default:
		return map[string]any{"response": r.Message}
	}
}
