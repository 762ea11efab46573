package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iotaledger/access-server/pkg/chunk"
	"github.com/iotaledger/access-server/pkg/tangle"
	"github.com/iotaledger/access-server/services/policystore/internal/cache"
	"github.com/iotaledger/access-server/services/policystore/internal/store"
)

// Index is the relational side of the policy store: rows keyed by policyId,
// grouped by deviceId, each pointing at a confirmed ledger hash.
type Index interface {
	Insert(ctx context.Context, p store.Policy) error
	GetByPolicyID(ctx context.Context, policyID string) (store.Policy, error)
	ListByDeviceID(ctx context.Context, deviceID string) ([]store.Policy, error)
	DeleteByDeviceID(ctx context.Context, deviceID string) (int64, error)
}

// Confirmer drives a submitted bundle to ledger inclusion.
type Confirmer interface {
	Confirm(ctx context.Context, tailHash string) (tangle.Result, error)
}

// Controller orchestrates the policy command set over the ledger client, the
// confirmation engine and the relational index. One Controller instance is
// constructed in main and injected into every binding.
type Controller struct {
	Index     Index
	Ledger    tangle.Client
	Confirmer Confirmer
	Docs      *cache.Documents

	// Address is the ledger destination address policy bundles are attached to.
	Address string

	// MaxFragmentSize caps each fragment's tryte length; zero selects the
	// ledger default.
	MaxFragmentSize int

	// DebugErrors appends underlying error text to failure messages. Off by
	// default: untrusted callers get the fixed message set only.
	DebugErrors bool

	Logger zerolog.Logger
}

// Dispatch validates the envelope and routes to the command handler.
// Validation failures and duplicate adds come back as errors; operational
// outcomes, including handled failures, come back as a Result.
func (c *Controller) Dispatch(ctx context.Context, req Request) (Result, error) {
	switch req.Cmd {
	case CmdAddPolicy:
		return c.AddPolicy(ctx, req)
	case CmdClearPolicyList:
		return c.ClearPolicyList(ctx, req)
	case CmdGetPolicy:
		return c.GetPolicy(ctx, req)
	case CmdGetPolicyList:
		return c.GetPolicyList(ctx, req)
	case "":
		return Result{}, validationErr(MsgMissingCommand)
	default:
		return Result{}, validationErr(MsgUnsupportedCommand)
	}
}

// ledgerEnvelope is the document shape committed to the ledger, matching the
// shape embedded devices parse back out.
type ledgerEnvelope struct {
	PolicyID string          `json:"policyId"`
	DeviceID string          `json:"deviceId"`
	Owner    string          `json:"owner"`
	Policy   json.RawMessage `json:"policy"`
}

// AddPolicy writes the policy document to the ledger, waits for confirmation,
// then persists the index row. The three steps are strictly sequential; a
// failure after confirmation leaves an orphaned ledger write, which is logged
// with the confirmed hash for manual reconciliation.
func (c *Controller) AddPolicy(ctx context.Context, req Request) (Result, error) {
	if len(req.Policy) == 0 {
		return Result{}, validationErr(MsgMissingPolicy)
	}
	if req.Owner == "" {
		return Result{}, validationErr(MsgMissingOwner)
	}
	if req.DeviceID == "" {
		return Result{}, validationErr(MsgMissingDeviceID)
	}
	var inner struct {
		PolicyID string `json:"policy_id"`
	}
	if err := json.Unmarshal(req.Policy, &inner); err != nil || inner.PolicyID == "" {
		return Result{}, validationErr(MsgMissingPolicyIDInsidePolicy)
	}
	policyID := inner.PolicyID

	// Fast-path duplicate check; the index primary key is the real guard.
	if _, err := c.Index.GetByPolicyID(ctx, policyID); err == nil {
		return Result{}, ErrDuplicatePolicy
	} else if !errors.Is(err, store.ErrNotFound) {
		c.Logger.Error().Err(err).Str("policyId", policyID).Msg("index lookup failed")
		return c.failure(MsgUnableToAddPolicy, err), nil
	}

	doc, err := json.Marshal(ledgerEnvelope{
		PolicyID: policyID,
		DeviceID: req.DeviceID,
		Owner:    req.Owner,
		Policy:   req.Policy,
	})
	if err != nil {
		return c.failure(MsgUnableToAddPolicy, err), nil
	}

	fragments, err := chunk.Split(doc, c.MaxFragmentSize)
	if err != nil {
		return c.failure(MsgUnableToAddPolicy, err), nil
	}

	tail, err := c.Ledger.Submit(ctx, fragments, c.Address)
	if err != nil {
		c.Logger.Error().Err(err).Str("policyId", policyID).Msg("ledger submit failed")
		return c.failure(MsgUnableToAddPolicy, err), nil
	}

	confirmed, err := c.Confirmer.Confirm(ctx, tail)
	if err != nil {
		c.Logger.Error().Err(err).Str("policyId", policyID).Str("tail", tail).
			Msg("confirmation failed; submitted bundle may still confirm on its own")
		return c.failure(MsgUnableToAddPolicy, err), nil
	}

	row := store.Policy{
		PolicyID:   policyID,
		DeviceID:   req.DeviceID,
		Owner:      req.Owner,
		LedgerHash: confirmed.ConfirmedTail,
	}
	if err := c.Index.Insert(ctx, row); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Lost a concurrent add race after committing to the ledger.
			c.Logger.Error().Str("policyId", policyID).Str("hash", confirmed.ConfirmedTail).
				Msg("duplicate insert after confirmed ledger write; ledger copy is orphaned")
			return Result{}, ErrDuplicatePolicy
		}
		c.Logger.Error().Err(err).Str("policyId", policyID).Str("hash", confirmed.ConfirmedTail).
			Msg("index insert failed after confirmed ledger write; ledger copy is orphaned")
		return c.failure(MsgUnableToAddPolicy, err), nil
	}

	return Result{Message: MsgPolicyAdded}, nil
}

// GetPolicy resolves the index row, fetches the bundle and returns the parsed
// document.
func (c *Controller) GetPolicy(ctx context.Context, req Request) (Result, error) {
	if req.PolicyID == "" {
		return Result{}, validationErr(MsgMissingPolicyID)
	}

	p, err := c.Index.GetByPolicyID(ctx, req.PolicyID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && p.LedgerHash == "") {
		return Result{Err: true, Message: MsgPolicyNotFound}, nil
	}
	if err != nil {
		c.Logger.Error().Err(err).Str("policyId", req.PolicyID).Msg("index lookup failed")
		return c.failure(MsgUnableToGetPolicy, err), nil
	}

	doc, err := c.fetchDocument(ctx, p.LedgerHash)
	if err != nil {
		c.Logger.Error().Err(err).Str("policyId", req.PolicyID).Str("hash", p.LedgerHash).
			Msg("ledger fetch failed")
		return c.failure(MsgUnableToGetPolicy, err), nil
	}

	// The ledger holds the full envelope; the caller asked for the policy.
	var env ledgerEnvelope
	if err := json.Unmarshal(doc, &env); err != nil || len(env.Policy) == 0 {
		return c.failure(MsgUnableToGetPolicy, err), nil
	}
	return Result{Policy: env.Policy}, nil
}

// GetPolicyList compares the caller's store ID token against the freshly
// computed one; on a match only the unchanged marker goes back.
func (c *Controller) GetPolicyList(ctx context.Context, req Request) (Result, error) {
	if req.DeviceID == "" {
		return Result{}, validationErr(MsgMissingDeviceID)
	}
	if req.PolicyStoreID == nil {
		return Result{}, validationErr(MsgMissingPolicyStoreID)
	}

	storeID, policies, err := c.computeStoreID(ctx, req.DeviceID)
	if err != nil {
		c.Logger.Error().Err(err).Str("deviceId", req.DeviceID).Msg("store id computation failed")
		return c.failure(MsgUnableToGetPolicies, err), nil
	}

	// Exact string equality on the opaque token, nothing structural.
	if storeID == *req.PolicyStoreID {
		return Result{Message: MsgPolicyStoreNotChanged, Unchanged: true}, nil
	}

	ids := make([]string, 0, len(policies))
	for _, p := range policies {
		ids = append(ids, p.PolicyID)
	}
	return Result{List: ids, StoreID: storeID}, nil
}

// ClearPolicyList deletes the device's index rows. Ledger bundles stay in
// place; an empty store is a normal outcome, not an error, and issues no
// delete.
func (c *Controller) ClearPolicyList(ctx context.Context, req Request) (Result, error) {
	if req.DeviceID == "" {
		return Result{}, validationErr(MsgMissingDeviceID)
	}

	policies, err := c.Index.ListByDeviceID(ctx, req.DeviceID)
	if err != nil {
		c.Logger.Error().Err(err).Str("deviceId", req.DeviceID).Msg("index list failed")
		return c.failure(MsgUnableToDeletePolicies, err), nil
	}
	if len(policies) == 0 {
		return Result{Message: MsgPolicyStoreEmpty}, nil
	}

	deleted, err := c.Index.DeleteByDeviceID(ctx, req.DeviceID)
	if err != nil {
		c.Logger.Error().Err(err).Str("deviceId", req.DeviceID).Msg("index delete failed")
		return c.failure(MsgUnableToDeletePolicies, err), nil
	}
	c.Logger.Info().Str("deviceId", req.DeviceID).Int64("deleted", deleted).Msg("cleared policy list")
	return Result{Message: MsgDeletingAllPolicies}, nil
}

// computeStoreID fetches and reassembles every document for the device, in
// index list order, and digests them. The returned policies are the same
// ordered rows, so callers can reuse them for the id list.
func (c *Controller) computeStoreID(ctx context.Context, deviceID string) (string, []store.Policy, error) {
	policies, err := c.Index.ListByDeviceID(ctx, deviceID)
	if err != nil {
		return "", nil, err
	}
	docs := make([]json.RawMessage, 0, len(policies))
	for _, p := range policies {
		if p.LedgerHash == "" {
			continue
		}
		doc, err := c.fetchDocument(ctx, p.LedgerHash)
		if err != nil {
			return "", nil, err
		}
		docs = append(docs, doc)
	}
	digest, err := chunk.Digest(docs)
	if err != nil {
		return "", nil, err
	}
	return digest, policies, nil
}

// fetchDocument reassembles the document committed under tailHash, going
// through the immutable-content cache when one is configured.
func (c *Controller) fetchDocument(ctx context.Context, tailHash string) (json.RawMessage, error) {
	if doc, ok := c.Docs.Get(ctx, tailHash); ok {
		return doc, nil
	}
	fragments, err := c.Ledger.FetchFragments(ctx, tailHash)
	if err != nil {
		return nil, err
	}
	payload, err := chunk.Join(fragments)
	if err != nil {
		return nil, err
	}
	doc, err := extractJSON(payload)
	if err != nil {
		return nil, err
	}
	c.Docs.Put(ctx, tailHash, doc)
	return doc, nil
}

func (c *Controller) failure(message string, err error) Result {
	if c.DebugErrors && err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	return Result{Err: true, Message: message}
}

// extractJSON pulls the balanced {...} region out of a reassembled payload.
// Chunk padding can leave junk around the document, so a strict parse of the
// whole payload is too brittle.
//
// The scan counts braces without tracking string state, so a brace inside a
// string value (`{"k":"a}b"}`) throws the balance off and the extraction
// fails. Device-side readers scan the same way; keep the behaviors matched.
func extractJSON(payload []byte) (json.RawMessage, error) {
	start, end, balance := -1, -1, 0
	for i, b := range payload {
		switch b {
		case '{':
			if start == -1 {
				start = i
			}
			balance++
		case '}':
			end = i
			balance--
		}
	}
	if balance != 0 || start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no balanced JSON object in payload")
	}
	doc := payload[start : end+1]
	if !json.Valid(doc) {
		return nil, fmt.Errorf("extracted region is not valid JSON")
	}
	return json.RawMessage(doc), nil
}
