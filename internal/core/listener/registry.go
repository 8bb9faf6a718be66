package listener

import (
	"context"
	"sync"
)

// entry 会话及其刷新任务的取消函数
type entry struct {
	session *Session
	cancel  context.CancelFunc
}

// Registry 会话注册表
//
// 遍历方使用 Sessions() 拿到的快照，期间的并发移除是安全的。
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Add 登记会话
func (r *Registry) Add(s *Session, cancel context.CancelFunc) {
	r.mu.Lock()
	r.entries[s.ID()] = entry{session: s, cancel: cancel}
	r.mu.Unlock()
}

// Remove 移除会话并取消它自己的刷新任务；返回是否存在
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if ok && e.cancel != nil {
		e.cancel()
	}
	return ok
}

// Get 查找会话
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e.session, ok
}

// Sessions 返回当前会话的快照
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.session)
	}
	return out
}

// Len 返回会话数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
