package privacy

import (
	"net/url"
	"strings"
)

// 查询参数名命中以下片段时，值会被替换为 "***"。
var sensitiveParamParts = []string{
	"token",
	"key",
	"secret",
	"password",
	"passwd",
	"auth",
	"session",
	"sig",
	"code",
}

const redacted = "***"

// RedactURL 返回适合写入日志的 URL：去掉用户信息与 fragment，
// 敏感查询参数值打码，其余部分原样保留。
// 无法解析时返回 "<redacted_url>"。
func RedactURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "<redacted_url>"
	}
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for name, vals := range q {
			if !isSensitiveParam(name) {
				continue
			}
			for i := range vals {
				vals[i] = redacted
			}
			q[name] = vals
		}
		// Encode 会转义 *，这里还原以便阅读。
		u.RawQuery = strings.ReplaceAll(q.Encode(), "%2A%2A%2A", redacted)
	}
	return u.String()
}

// HostOf 只保留主机名，用于最粗粒度的展示。
func HostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func isSensitiveParam(name string) bool {
	n := strings.ToLower(name)
	for _, part := range sensitiveParamParts {
		if strings.Contains(n, part) {
			return true
		}
	}
	return false
}
