package journalverify

import (
	"strings"

	sqliteadapter "serenity-browser/internal/adapters/store/sqlite"
	"serenity-browser/internal/domain/model"
)

// FailureItem 表示一次哈希链校验失败的明细项（用于 CLI/API 展示）。
type FailureItem struct {
	Index      int             `json:"index"`
	EventID    string          `json:"event_id"`
	WebviewID  string          `json:"webview_id"`
	Kind       model.EventKind `json:"kind"`
	OccurredAt int64           `json:"occurred_at"`

	PrevHashMismatch bool   `json:"prev_hash_mismatch"`
	ExpectedPrevHash string `json:"expected_prev_hash,omitempty"`
	ActualPrevHash   string `json:"actual_prev_hash,omitempty"`

	ChainHashMismatch bool   `json:"chain_hash_mismatch"`
	ExpectedChainHash string `json:"expected_chain_hash,omitempty"`
	ActualChainHash   string `json:"actual_chain_hash,omitempty"`

	Message string `json:"message,omitempty"`
}

// Result 是会话日志哈希链校验结果。
type Result struct {
	OK              bool          `json:"ok"`
	Total           int           `json:"total"`
	Failed          int           `json:"failed"`
	PrevHashFailed  int           `json:"prev_hash_failed"`
	ChainHashFailed int           `json:"chain_hash_failed"`
	LastChainHash   string        `json:"last_chain_hash,omitempty"`
	Failures        []FailureItem `json:"failures,omitempty"`
}

// Verify 校验 events（按写入顺序）：
// 1) chain_prev_hash 连续性
// 2) 按 sqliteadapter.ChainHash 重算 chain_hash 并与存量字段对比
func Verify(events []model.Event) Result {
	res := Result{
		OK:       true,
		Total:    len(events),
		Failures: []FailureItem{},
	}

	prev := ""
	for i, ev := range events {
		expectedPrev := prev
		actualPrev := strings.TrimSpace(ev.ChainPrevHash)
		expectedChain := sqliteadapter.ChainHash(expectedPrev, ev)
		actualChain := strings.TrimSpace(ev.ChainHash)

		prevMismatch := actualPrev != expectedPrev
		chainMismatch := actualChain != expectedChain

		if prevMismatch || chainMismatch {
			res.OK = false
			res.Failed++
			if prevMismatch {
				res.PrevHashFailed++
			}
			if chainMismatch {
				res.ChainHashFailed++
			}

			msg := ""
			switch {
			case prevMismatch && chainMismatch:
				msg = "chain_prev_hash and chain_hash mismatch"
			case prevMismatch:
				msg = "chain_prev_hash mismatch"
			default:
				msg = "chain_hash mismatch"
			}

			res.Failures = append(res.Failures, FailureItem{
				Index:      i,
				EventID:    ev.EventID,
				WebviewID:  ev.WebviewID,
				Kind:       ev.Kind,
				OccurredAt: ev.OccurredAt,

				PrevHashMismatch: prevMismatch,
				ExpectedPrevHash: expectedPrev,
				ActualPrevHash:   actualPrev,

				ChainHashMismatch: chainMismatch,
				ExpectedChainHash: expectedChain,
				ActualChainHash:   actualChain,

				Message: msg,
			})
		}

		// 链推进以库中记录的 chain_hash 为准，这样一处篡改不会让后续记录全部报错。
		prev = actualChain
		res.LastChainHash = actualChain
	}

	return res
}
