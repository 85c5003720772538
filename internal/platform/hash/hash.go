package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Text 将多个字段按换行拼接后计算 SHA-256。
// 用于会话日志的 chain_hash 留痕。
func Text(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = h.Write([]byte("\n"))
		}
		_, _ = h.Write([]byte(strings.TrimSpace(p)))
	}
	return hex.EncodeToString(h.Sum(nil))
}
