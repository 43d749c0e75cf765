package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kinogutschein/internal/constants"
	"github.com/kinogutschein/internal/logger"
	"github.com/kinogutschein/internal/repository"
)

// EditorStateStore 编辑器状态持久化，使连续的命令行调用共享同一草稿
type EditorStateStore struct {
	store repository.KeyValueStore
	key   string
}

// NewEditorStateStore 创建编辑器状态存储
func NewEditorStateStore(store repository.KeyValueStore) *EditorStateStore {
	return &EditorStateStore{store: store, key: constants.SettingKeyEditorState}
}

// Load 读取状态；缺失或损坏时回落为 Browsing
func (s *EditorStateStore) Load(ctx context.Context) (EditorState, error) {
	browsing := EditorState{Mode: EditorModeBrowsing}
	if s == nil || s.store == nil {
		return browsing, nil
	}
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return browsing, fmt.Errorf("%w: %v", ErrEditorStateLoadFailed, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return browsing, nil
	}
	var state EditorState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		logger.Warnw("editor_state_parse_failed", "error", err)
		return browsing, nil
	}
	return state, nil
}

// Save 整值写入状态；Browsing 时删除键
func (s *EditorStateStore) Save(ctx context.Context, state EditorState) error {
	if s == nil || s.store == nil {
		return nil
	}
	if state.Mode != EditorModeEditing {
		if err := s.store.Delete(ctx, s.key); err != nil {
			return fmt.Errorf("%w: %v", ErrEditorStateSaveFailed, err)
		}
		return nil
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEditorStateSaveFailed, err)
	}
	if err := s.store.Set(ctx, s.key, string(payload)); err != nil {
		return fmt.Errorf("%w: %v", ErrEditorStateSaveFailed, err)
	}
	return nil
}
