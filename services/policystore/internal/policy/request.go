package policy

import (
	"bytes"
	"encoding/json"
)

type Command string

const (
	CmdAddPolicy       Command = "add_policy"
	CmdClearPolicyList Command = "clear_policy_list"
	CmdGetPolicy       Command = "get_policy"
	CmdGetPolicyList   Command = "get_policy_list"
)

// Request is the command envelope shared by the REST and TCP bindings. Cmd
// selects the operation; the remaining fields are per-command and validated
// by the controller before any I/O.
type Request struct {
	Cmd           Command         `json:"cmd"`
	DeviceID      string          `json:"deviceId,omitempty"`
	Owner         string          `json:"owner,omitempty"`
	Policy        json.RawMessage `json:"policy,omitempty"`
	PolicyID      string          `json:"policyId,omitempty"`
	PolicyStoreID *string         `json:"policyStoreId,omitempty"`
}

// Decode parses a raw request body. An absent or null body is a validation
// failure; malformed JSON is returned to the binding, which frames it per
// transport.
func Decode(data []byte) (Request, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Request{}, validationErr(MsgMissingBody)
	}
	var req Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}
