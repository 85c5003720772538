package id

import (
	"fmt"
	"sync"
	"time"
)

// Sequencer 生成 prefix_<毫秒时间戳> 形式的 ID。
// 同一毫秒内的多次调用会顺延为 last+1，保证单进程内严格递增、不重复。
type Sequencer struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewSequencer() *Sequencer {
	return &Sequencer{now: time.Now}
}

// Next 返回下一个 ID。
func (s *Sequencer) Next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := s.now().UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return fmt.Sprintf("%s_%d", prefix, ms)
}
