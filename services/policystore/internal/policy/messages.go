package policy

// User-facing message strings for every command outcome. The two bindings
// surface these verbatim; underlying error detail stays in the logs unless
// debug passthrough is enabled.
const (
	MsgUnsupportedCommand          = "unsupported command"
	MsgMissingBody                 = "missing body"
	MsgMissingCommand              = "missing command"
	MsgMissingPolicy               = "missing policy"
	MsgMissingPolicyIDInsidePolicy = "missing policy_id inside policy"
	MsgMissingPolicyID             = "missing policyId"
	MsgMissingPolicyStoreID        = "missing policyStoreId"
	MsgMissingOwner                = "missing owner"
	MsgMissingDeviceID             = "missing deviceId"
	MsgPolicyAlreadyExists         = "policy already exist"
	MsgPolicyAdded                 = "Policy added successfully"
	MsgPolicyStoreEmpty            = "Policy store empty"
	MsgPolicyNotFound              = "Policy not found"
	MsgPolicyStoreNotChanged       = "Policy store not changed"
	MsgDeletingAllPolicies         = "Deleting all policies"
	MsgUnableToAddPolicy           = "Unable to add policy"
	MsgUnableToGetPolicy           = "Unable to get policy"
	MsgUnableToDeletePolicies      = "Unable to delete policies"
	MsgUnableToGetPolicies         = "Unable to get policies"
	MsgOK                          = "ok"
)
