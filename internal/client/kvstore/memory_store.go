package kvstore

import "sync"

// MemoryStore はメモリ上のキーバリューストア。主にテストで使用する。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get はキーに対応する値を返す。キーが存在しない場合は第2戻り値がfalseになる。
func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok, nil
}

// Set はキーに値を書き込む。既存のキーは上書きする。
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Delete はキーを削除する。存在しないキーでもエラーにしない。
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
