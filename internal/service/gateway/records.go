package gateway

import (
	"encoding/json"
	"fmt"
)

// recordHeader is the part of every stored record the gateway inspects.
type recordHeader struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

func decodeList(raw []byte) ([]json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode record list: %w", err)
	}
	return list, nil
}

// encodeList returns nil for an empty list so the key gets deleted.
func encodeList(list []json.RawMessage) ([]byte, error) {
	if len(list) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encode record list: %w", err)
	}
	return b, nil
}

func headerOf(item json.RawMessage) recordHeader {
	var h recordHeader
	// Items that are not objects keep a zero header and are swept.
	_ = json.Unmarshal(item, &h)
	return h
}

// trimOldest drops the oldest entries so at most limit remain.
func trimOldest(list []json.RawMessage, limit int) ([]json.RawMessage, int) {
	if limit <= 0 || len(list) <= limit {
		return list, 0
	}
	excess := len(list) - limit
	return list[excess:], excess
}
