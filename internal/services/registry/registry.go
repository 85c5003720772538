package registry

import (
	"sort"
	"sync"
	"time"

	"serenity-browser/internal/domain/model"
)

// Registry 是进程内唯一的 webview 登记表。
// 启动时创建一次并注入控制器；之后只增、改、删，从不整体替换。
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

type entry struct {
	// op 串行化同一 webview 上的 navigate/back/forward/reload。
	op     sync.Mutex
	record model.WebviewRecord
	handle model.WebviewHandle
}

func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Register 登记新记录；ID 冲突时覆盖旧记录。
func (r *Registry) Register(rec model.WebviewRecord, h model.WebviewHandle) {
	now := r.now().Unix()
	if rec.CreatedAt == 0 {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt == 0 {
		rec.UpdatedAt = rec.CreatedAt
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[rec.ID] = &entry{record: rec, handle: h}
}

// Lookup 返回记录副本。
func (r *Registry) Lookup(id string) (model.WebviewRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return model.WebviewRecord{}, false
	}
	return e.record, true
}

// List 返回全部记录（按 ID 排序，ID 本身按创建时间递增）。
func (r *Registry) List() []model.WebviewRecord {
	r.mu.RLock()
	out := make([]model.WebviewRecord, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.record)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if len(out[i].ID) != len(out[j].ID) {
			return len(out[i].ID) < len(out[j].ID)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len 返回当前存活的 webview 数量。
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Remove 删除记录，返回删除前是否存在。
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

// SetURL 刷新记录的当前 URL。
func (r *Registry) SetURL(id, url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return false
	}
	e.record.URL = url
	e.record.UpdatedAt = r.now().Unix()
	return true
}

// Exec 在持有该 webview 的操作锁时执行 fn。
// 只锁单个条目，不持有注册表全局锁，因此不同 webview 之间互不阻塞。
// 条目在等待锁期间被移除时返回 model.ErrWebviewNotFound。
func (r *Registry) Exec(id string, fn func(h model.WebviewHandle) error) error {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return model.ErrWebviewNotFound
	}

	e.op.Lock()
	defer e.op.Unlock()

	r.mu.RLock()
	current, still := r.entries[id]
	r.mu.RUnlock()
	if !still || current != e {
		return model.ErrWebviewNotFound
	}
	return fn(e.handle)
}
