package focus

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"serenity-browser/internal/domain/model"
)

// Site 是一条屏蔽规则：domain 命中自身及其全部子域名。
type Site struct {
	Domain string `yaml:"domain" json:"domain"`
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// Blocker 在专注模式下拦截分心站点。
// 规则为空或未启用时 Check 恒为放行。
type Blocker struct {
	mu     sync.RWMutex
	active bool
	sites  []Site
}

func NewBlocker(sites []Site, active bool) *Blocker {
	b := &Blocker{active: active}
	b.SetSites(sites)
	return b
}

// SetSites 替换规则列表（去掉空白、www. 前缀与大小写差异）。
func (b *Blocker) SetSites(sites []Site) {
	norm := make([]Site, 0, len(sites))
	for _, s := range sites {
		d := normalizeHost(s.Domain)
		if d == "" {
			continue
		}
		norm = append(norm, Site{Domain: d, Reason: strings.TrimSpace(s.Reason)})
	}
	b.mu.Lock()
	b.sites = norm
	b.mu.Unlock()
}

// Sites 返回当前规则副本。
func (b *Blocker) Sites() []Site {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Site, len(b.sites))
	copy(out, b.sites)
	return out
}

// SetActive 开启或结束专注时段。
func (b *Blocker) SetActive(active bool) {
	b.mu.Lock()
	b.active = active
	b.mu.Unlock()
}

func (b *Blocker) Active() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active
}

// Check 命中规则时返回包装 model.ErrURLBlocked 的错误。
func (b *Blocker) Check(u *url.URL) error {
	if b == nil || u == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.active {
		return nil
	}
	host := normalizeHost(u.Hostname())
	if host == "" {
		return nil
	}
	for _, s := range b.sites {
		if host == s.Domain || strings.HasSuffix(host, "."+s.Domain) {
			if s.Reason != "" {
				return fmt.Errorf("%w: %s (%s)", model.ErrURLBlocked, s.Domain, s.Reason)
			}
			return fmt.Errorf("%w: %s", model.ErrURLBlocked, s.Domain)
		}
	}
	return nil
}

func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimSuffix(h, ".")
	return strings.TrimPrefix(h, "www.")
}
