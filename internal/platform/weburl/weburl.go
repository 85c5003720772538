package weburl

import (
	"fmt"
	"net/url"
	"strings"

	"serenity-browser/internal/domain/model"
)

// 需要 host 的层级型 scheme；其余 scheme（about/data/file/mailto ...）只要求 scheme 非空。
var hierarchical = map[string]bool{
	"http":  true,
	"https": true,
	"ws":    true,
	"wss":   true,
	"ftp":   true,
}

// Parse 校验并解析绝对 URL，失败时返回包装了 model.ErrInvalidURL 的错误。
func Parse(raw string) (*url.URL, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", model.ErrInvalidURL)
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidURL, raw)
	}
	if u.Scheme == "" || !u.IsAbs() {
		return nil, fmt.Errorf("%w: %q is not absolute", model.ErrInvalidURL, raw)
	}
	scheme := strings.ToLower(u.Scheme)
	if hierarchical[scheme] && u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", model.ErrInvalidURL, raw)
	}
	if !hierarchical[scheme] && u.Opaque == "" && u.Path == "" && u.Host == "" {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidURL, raw)
	}
	return u, nil
}
