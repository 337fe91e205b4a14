package data

// MtimeEntry holds the modification times, in epoch milliseconds, seen at the last import.
type MtimeEntry struct {
	Asset int64 `json:"asset"`
	Meta  int64 `json:"meta"`
}
