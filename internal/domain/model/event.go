package model

// EventKind 是会话日志中的事件类型。
type EventKind string

const (
	EventCreated           EventKind = "created"
	EventNavigated         EventKind = "navigated"
	EventBack              EventKind = "back"
	EventForward           EventKind = "forward"
	EventReload            EventKind = "reload"
	EventClosed            EventKind = "closed"
	EventSecurityDowngrade EventKind = "security_downgrade"
)

// Event 是一条 webview 生命周期留痕。
type Event struct {
	EventID    string    `json:"event_id"`
	WebviewID  string    `json:"webview_id"`
	Kind       EventKind `json:"kind"`
	URL        string    `json:"url,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt int64     `json:"occurred_at"`

	// ChainPrevHash/ChainHash 把同一进程写入的事件串成哈希链，便于发现日志被改写。
	ChainPrevHash string `json:"chain_prev_hash,omitempty"`
	ChainHash     string `json:"chain_hash,omitempty"`
}
