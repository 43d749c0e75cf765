package models

import (
	"encoding/json"
	"time"
)

// Location 可复用的影院地点
type Location struct {
	ID        string    `json:"id"`                // 唯一标识（按创建时间生成）
	Name      string    `json:"name"`              // 名称
	Address   *string   `json:"address,omitempty"` // 地址
	CreatedAt time.Time `json:"created_at"`        // 创建时间
}

// EncodeLocations 序列化地点列表（整体写入存储）
func EncodeLocations(items []Location) (string, error) {
	if items == nil {
		items = []Location{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// DecodeLocations 反序列化地点列表
func DecodeLocations(raw string) ([]Location, error) {
	var items []Location
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []Location{}
	}
	return items, nil
}
