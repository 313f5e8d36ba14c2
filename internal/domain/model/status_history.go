package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const StatusHistoryTimeLayout = "2006-01-02T15:04:05.000Z07:00"

type StatusHistoryEntry struct {
	Status    OrderStatus `json:"status"`
	Timestamp string      `json:"timestamp"`
	Note      string      `json:"note"`
}

func NewStatusHistoryEntry(status OrderStatus, note string, at time.Time) StatusHistoryEntry {
	return StatusHistoryEntry{
		Status:    status,
		Timestamp: at.UTC().Format(StatusHistoryTimeLayout),
		Note:      note,
	}
}

// 壊れた履歴は空として扱う
func ParseStatusHistory(raw datatypes.JSON) []StatusHistoryEntry {
	entries := []StatusHistoryEntry{}
	if len(raw) == 0 {
		return entries
	}
	if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
		return []StatusHistoryEntry{}
	}
	return entries
}

func EncodeStatusHistory(entries []StatusHistoryEntry) (datatypes.JSON, error) {
	if entries == nil {
		entries = []StatusHistoryEntry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func (o Order) History() []StatusHistoryEntry {
	return ParseStatusHistory(o.StatusHistory)
}

// 履歴を読み直して1件追記する
func (o *Order) AppendHistory(status OrderStatus, note string, at time.Time) error {
	entries := append(o.History(), NewStatusHistoryEntry(status, note, at))
	raw, err := EncodeStatusHistory(entries)
	if err != nil {
		return err
	}
	o.StatusHistory = raw
	return nil
}
