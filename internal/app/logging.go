package app

import (
	"io"
	"os"

	"pkt.systems/pslog"
)

// NewLogger 按环境变量（PSLOG_*）构建根 logger，默认控制台格式输出到 stderr。
func NewLogger(w io.Writer) pslog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return pslog.LoggerFromEnv(
		pslog.WithEnvWriter(w),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
}
