package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Collection names.
const (
	CollectionProducts       = "products"
	CollectionOrders         = "orders"
	CollectionUsers          = "users"
	CollectionDiscounts      = "discounts"
	CollectionReferrals      = "referrals"
	CollectionCounters       = "counters"
	CollectionScheduledTasks = "scheduled_tasks"
	CollectionNotifications  = "notifications"
	CollectionStoreState     = "store_state"
	CollectionConfig         = "config"
)

// Gateway loads and saves whole named collections as JSON documents.
// There are no cross-collection transactions.
type Gateway interface {
	// Load returns nil, nil when the collection has never been saved.
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, doc []byte) error
}

// LoadInto decodes a collection into out. A missing collection leaves out untouched.
func LoadInto(ctx context.Context, gw Gateway, name string, out any) error {
	doc, err := gw.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	if len(doc) == 0 {
		return nil
	}
	if err := json.Unmarshal(nullNonFinite(doc), out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

var nonFiniteTokens = [][]byte{[]byte("-Infinity"), []byte("Infinity"), []byte("NaN")}

// nullNonFinite rewrites bare Infinity and NaN literals, which older writers
// emitted for unbounded numbers, to null. String contents are left alone.
func nullNonFinite(doc []byte) []byte {
	if !bytes.Contains(doc, []byte("Infinity")) && !bytes.Contains(doc, []byte("NaN")) {
		return doc
	}
	out := make([]byte, 0, len(doc))
	inString, escaped := false, false
	for i := 0; i < len(doc); i++ {
		c := doc[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			out = append(out, c)
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		replaced := false
		for _, tok := range nonFiniteTokens {
			if bytes.HasPrefix(doc[i:], tok) {
				out = append(out, "null"...)
				i += len(tok) - 1
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, c)
		}
	}
	return out
}

// SaveFrom encodes v and stores it as collection name.
func SaveFrom(ctx context.Context, gw Gateway, name string, v any) error {
	doc, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := gw.Save(ctx, name, doc); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// MemoryGateway keeps collections in process memory.
type MemoryGateway struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{docs: make(map[string][]byte)}
}

func (m *MemoryGateway) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[name]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), doc...), nil
}

func (m *MemoryGateway) Save(_ context.Context, name string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[name] = append([]byte(nil), doc...)
	return nil
}
