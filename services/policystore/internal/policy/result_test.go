package policy

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRenderRESTShapes(t *testing.T) {
	ok := Result{Message: MsgPolicyAdded}.RenderREST()
	if ok["error"] != false || ok["message"] != MsgPolicyAdded {
		t.Fatalf("unexpected success envelope: %v", ok)
	}
	if _, hasData := ok["data"]; hasData {
		t.Fatalf("message-only result must not carry data")
	}

	fail := Result{Err: true, Message: MsgUnableToGetPolicy}.RenderREST()
	if fail["error"] != true {
		t.Fatalf("unexpected failure envelope: %v", fail)
	}

	doc := json.RawMessage(`{"policy_id":"p1"}`)
	withPolicy := Result{Policy: doc}.RenderREST()
	if !reflect.DeepEqual(withPolicy["data"], doc) {
		t.Fatalf("unexpected policy payload: %v", withPolicy)
	}

	withList := Result{List: []string{"p1"}, StoreID: "0xabc"}.RenderREST()
	data, _ := withList["data"].(map[string]any)
	if data == nil || data["policyStoreId"] != "0xabc" {
		t.Fatalf("unexpected list payload: %v", withList)
	}
}

func TestRenderTCPShapes(t *testing.T) {
	if got := (Result{Message: MsgPolicyAdded}).RenderTCP(); got["response"] != MsgPolicyAdded {
		t.Fatalf("unexpected response shape: %v", got)
	}
	if got := (Result{Err: true, Message: MsgUnableToGetPolicies}).RenderTCP(); got["error"] != MsgUnableToGetPolicies {
		t.Fatalf("unexpected error shape: %v", got)
	}
	if got := (Result{Unchanged: true, Message: MsgPolicyStoreNotChanged}).RenderTCP(); got["response"] != MsgOK {
		t.Fatalf("unchanged must render as ok marker: %v", got)
	}
	got := Result{List: []string{"p1", "p2"}, StoreID: "0xabc"}.RenderTCP()
	if got["policyStoreId"] != "0xabc" {
		t.Fatalf("unexpected list shape: %v", got)
	}
}
