package redis

import (
	"fmt"

	"github.com/mcoot/cardtable/internal/model"
)

// Key prefix for all card table data
const keyPrefix = "cardtable"

// playerKey returns the Redis key for a Player profile
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// sessionRecordKey returns the Redis key for a SessionRecord
func sessionRecordKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// sessionIndexKey returns the Redis key for the ZSET of session records, scored by creation time
func sessionIndexKey() string {
	return fmt.Sprintf("%s:idx:sessions", keyPrefix)
}
