package webapp

import (
	"io/fs"
	"net/http"
	"strings"

	sqliteadapter "serenity-browser/internal/adapters/store/sqlite"
	"serenity-browser/internal/services/commands"

	"github.com/go-chi/chi/v5"
	"pkt.systems/pslog"
)

// Server 是本地命令 API + 内置 UI 的运行时对象。
type Server struct {
	opts  Options
	cmds  *commands.Service
	store *sqliteadapter.Store
	log   pslog.Logger

	ui fs.FS
}

// Handler 返回完整路由，测试中可直接交给 httptest。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.registerRoutes(r)
	return r
}

func (s *Server) registerRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/meta", s.handleMeta)
		r.Get("/system", s.handleSystem)
		r.Post("/greet", s.handleGreet)
		r.Post("/open-browser", s.handleOpenBrowser)
		r.Get("/engine/args", s.handleEngineArgs)
		r.Get("/journal/verify", s.handleJournalVerify)
		r.Get("/focus", s.handleFocusState)
		r.Put("/focus", s.handleUpdateFocus)

		r.Route("/webviews", func(r chi.Router) {
			r.Get("/", s.handleListWebviews)
			r.Post("/", s.handleCreateWebview)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetWebview)
				r.Delete("/", s.handleCloseWebview)
				r.Post("/navigate", s.handleNavigateWebview)
				r.Post("/back", s.handleGoBack)
				r.Post("/forward", s.handleGoForward)
				r.Post("/reload", s.handleReload)
				r.Get("/history", s.handleHistory)
			})
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	})

	// UI（单页 + 静态资源）
	//
	// 规则：
	// - 先尝试按路径返回静态文件
	// - 文件不存在且无扩展名时回落到入口页
	// - 缺失的静态资源（有扩展名）返回 404
	uiFileServer := http.FileServer(http.FS(s.ui))
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		s.handleUI(w, r, uiFileServer)
	})
}

func (s *Server) handleUI(w http.ResponseWriter, r *http.Request, uiFileServer http.Handler) {
	// "/" 直接交给 FileServer：它会自动返回目录下的 index.html。
	// 不要改写到 /index.html，FileServer 会把它 301 到 "./"。
	if r.URL.Path == "/" || r.URL.Path == "" {
		uiFileServer.ServeHTTP(w, r)
		return
	}

	reqPath := strings.TrimPrefix(r.URL.Path, "/")
	if reqPath != "" {
		if info, err := fs.Stat(s.ui, reqPath); err == nil && !info.IsDir() {
			uiFileServer.ServeHTTP(w, r)
			return
		}
	}

	if strings.Contains(reqPath, ".") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	r2 := r.Clone(r.Context())
	r2.URL.Path = "/"
	uiFileServer.ServeHTTP(w, r2)
}
