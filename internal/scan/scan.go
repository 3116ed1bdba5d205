package scan

import "github.com/zombor/product-scanner/internal/classifying"

// HistoryCapacity is the number of scans kept in history
const HistoryCapacity = 50

// historySlot is the slot holding the serialized history
const historySlot = "product_scan_history"

// ScanHistoryItem records one successful classification
type ScanHistoryItem struct {
	ID string `json:"id"`
	// Timestamp is the creation time in Unix milliseconds
	Timestamp int64 `json:"timestamp"`
	// Image is the photo as a data URL
	Image       string                     `json:"image,omitempty"`
	Description string                     `json:"description,omitempty"`
	Result      classifying.AnalysisResult `json:"result"`
}
