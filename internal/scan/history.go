package scan

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrConfirmationRequired is returned when history is cleared without confirmation
	ErrConfirmationRequired = errors.New("clearing history requires confirmation")

	// ErrHistoryItemNotFound is returned when a history entry does not exist
	ErrHistoryItemNotFound = errors.New("history item not found")
)

// History is the capacity-bounded, newest-first log of past scans. It keeps
// the list in memory and rewrites the whole slot on every change.
type History struct {
	mu    sync.Mutex
	slots Slots
	items []ScanHistoryItem
}

// NewHistory creates a History backed by slots. Call Load to read the
// persisted list.
func NewHistory(slots Slots) *History {
	return &History{slots: slots}
}

// Load reads the persisted list. Missing or unreadable data yields an empty
// history; the failure is logged, never returned.
func (h *History) Load() []ScanHistoryItem {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = nil
	data, err := h.slots.Get(historySlot)
	switch {
	case errors.Is(err, ErrSlotEmpty):
	case err != nil:
		slog.Error("Failed to read history", "error", err)
	default:
		var items []ScanHistoryItem
		if err := json.Unmarshal(data, &items); err != nil {
			slog.Error("Failed to parse history", "error", err)
		} else {
			h.items = items
		}
	}

	if len(h.items) > HistoryCapacity {
		h.items = h.items[:HistoryCapacity]
	}
	return h.snapshot()
}

// Append puts item first, drops everything beyond HistoryCapacity and writes
// the list back. The in-memory list is updated even if the write fails.
func (h *History) Append(item ScanHistoryItem) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	items := make([]ScanHistoryItem, 0, min(len(h.items)+1, HistoryCapacity))
	items = append(items, item)
	for _, existing := range h.items {
		if len(items) == HistoryCapacity {
			break
		}
		items = append(items, existing)
	}
	h.items = items

	data, err := json.Marshal(h.items)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}
	if err := h.slots.Set(historySlot, data); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}

// Clear empties the history. Nothing happens unless confirmed is true.
func (h *History) Clear(confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = nil
	if err := h.slots.Remove(historySlot); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// Items returns a copy of the list, newest first
func (h *History) Items() []ScanHistoryItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot()
}

// Get returns the entry with the given id
func (h *History) Get(id string) (ScanHistoryItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, item := range h.items {
		if item.ID == id {
			return item, nil
		}
	}
	return ScanHistoryItem{}, fmt.Errorf("%w: %s", ErrHistoryItemNotFound, id)
}

func (h *History) snapshot() []ScanHistoryItem {
	out := make([]ScanHistoryItem, len(h.items))
	copy(out, h.items)
	return out
}
