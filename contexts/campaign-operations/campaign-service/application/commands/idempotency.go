package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	domainerrors "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/errors"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/shared/optional"
)

const idempotencyTTL = 24 * time.Hour

// keyedRequest identifies one keyed write: the caller's key, the operation
// name and the normalized request fields that must match on replay.
type keyedRequest struct {
	Key       string
	Operation string
	Fields    map[string]any
}

func (r keyedRequest) hash() (string, error) {
	raw, err := json.Marshal(map[string]any{
		"operation": r.Operation,
		"fields":    r.Fields,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// runIdempotent runs mutate inside the caller's unit of work at most once per
// key. A repeated key with the same request replays the stored response and
// mutate is not called; the same key with a different request is a conflict.
// Without a key mutate always runs.
func runIdempotent[T any](
	ctx context.Context,
	repo ports.Repository,
	now time.Time,
	req keyedRequest,
	mutate func() (T, error),
) (T, bool, error) {
	var zero T
	key := strings.TrimSpace(req.Key)
	if key == "" {
		out, err := mutate()
		return out, false, err
	}

	requestHash, err := req.hash()
	if err != nil {
		return zero, false, err
	}
	record, found, err := repo.GetRecord(ctx, key, now)
	if err != nil {
		return zero, false, domainerrors.Persistence("get idempotency record", err)
	}
	if found {
		if record.RequestHash != requestHash {
			return zero, false, domainerrors.Conflict("idempotency key %q was already used for a different request", key)
		}
		var out T
		if err := json.Unmarshal(record.ResponsePayload, &out); err != nil {
			return zero, false, domainerrors.Persistence("decode replayed response", err)
		}
		return out, true, nil
	}

	out, err := mutate()
	if err != nil {
		return zero, false, err
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return zero, false, err
	}
	if err := repo.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             key,
		RequestHash:     requestHash,
		ResponsePayload: payload,
		ExpiresAt:       now.Add(idempotencyTTL),
	}); err != nil {
		return zero, false, domainerrors.Persistence("put idempotency record", err)
	}
	return out, false, nil
}

// fieldState encodes a partial-update field so absent, null and a value all
// hash differently.
func fieldState[T any](field optional.Field[T]) any {
	switch {
	case !field.Set:
		return "absent"
	case field.Null:
		return nil
	default:
		return map[string]any{"value": field.Value}
	}
}
