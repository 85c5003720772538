package app

// 构建时通过 -ldflags "-X serenity-browser/internal/app.Version=..." 注入。
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)
