package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
)

// The stroke log is an append-only Redis list per room. Each element is one
// serialized batch (a single stroke or a whole multi-segment gesture), so a
// batch append is a single RPUSH and therefore atomic. Order of elements is
// the order appends completed against the list, which is the log's only
// ordering guarantee.

// removeLastBatchScript removes the newest batch authored by a user, plus
// every other batch of the same gesture (same userId + strokeId), rewriting
// the list in one atomic EVAL. This is the read-filter-rewrite of undo done
// server-side so a concurrent append cannot interleave with it.
var removeLastBatchScript = redis.NewScript(`
local key = KEYS[1]
local user = ARGV[1]
local items = redis.call('LRANGE', key, 0, -1)
local target = nil
local sid = nil
for i = #items, 1, -1 do
  local head = cjson.decode(items[i])[1]
  if head and head['userId'] == user then
    target = i
    sid = head['strokeId']
    break
  end
end
if target == nil then return {} end
local removed = {}
local kept = {}
for i = 1, #items do
  local take = (i == target)
  if not take and sid ~= nil and sid ~= cjson.null then
    local head = cjson.decode(items[i])[1]
    if head and head['userId'] == user and head['strokeId'] == sid then
      take = true
    end
  end
  if take then
    removed[#removed + 1] = items[i]
  else
    kept[#kept + 1] = items[i]
  end
end
redis.call('DEL', key)
for i = 1, #kept do
  redis.call('RPUSH', key, kept[i])
end
return removed
`)

// AppendStroke appends a single stroke as a one-element batch.
func (s *Store) AppendStroke(ctx context.Context, roomID domain.RoomID, stroke domain.Stroke) error {
	return s.AppendBatch(ctx, roomID, []domain.Stroke{stroke})
}

// AppendBatch appends a gesture as one atomic log entry.
func (s *Store) AppendBatch(ctx context.Context, roomID domain.RoomID, strokes []domain.Stroke) error {
	data, err := json.Marshal(strokes)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	key := strokesKey(roomID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.roomTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append batch: %w", err)
	}
	return nil
}

// Strokes returns the room's full log flattened in append order.
func (s *Store) Strokes(ctx context.Context, roomID domain.RoomID) ([]domain.Stroke, error) {
	raw, err := s.rdb.LRange(ctx, strokesKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read stroke log: %w", err)
	}
	strokes := make([]domain.Stroke, 0, len(raw))
	for _, item := range raw {
		var batch []domain.Stroke
		if err := json.Unmarshal([]byte(item), &batch); err != nil {
			return nil, fmt.Errorf("decode batch: %w", err)
		}
		strokes = append(strokes, batch...)
	}
	return strokes, nil
}

// RemoveLastBatch atomically removes the most recent gesture authored by
// userID and returns its strokes in log order. An empty result with a nil
// error means the user has nothing left to undo.
func (s *Store) RemoveLastBatch(ctx context.Context, roomID domain.RoomID, userID domain.UserID) ([]domain.Stroke, error) {
	res, err := removeLastBatchScript.Run(ctx, s.rdb, []string{strokesKey(roomID)}, string(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("remove last batch: %w", err)
	}
	items, ok := res.([]interface{})
	if !ok {
		return nil, fmt.Errorf("remove last batch: unexpected reply %T", res)
	}
	var removed []domain.Stroke
	for _, item := range items {
		raw, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("remove last batch: unexpected element %T", item)
		}
		var batch []domain.Stroke
		if err := json.Unmarshal([]byte(raw), &batch); err != nil {
			return nil, fmt.Errorf("decode removed batch: %w", err)
		}
		removed = append(removed, batch...)
	}
	return removed, nil
}

func (s *Store) ClearStrokes(ctx context.Context, roomID domain.RoomID) error {
	if err := s.rdb.Del(ctx, strokesKey(roomID)).Err(); err != nil {
		return fmt.Errorf("clear stroke log: %w", err)
	}
	return nil
}
