package webapp

import (
	"net/http"
	"time"

	"serenity-browser/internal/app"
)

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	db := map[string]any{"enabled": s.store != nil}
	if s.store != nil {
		schemaVersion, _ := s.store.GetSchemaMetaValue(r.Context(), "schema_version")
		schemaName, _ := s.store.GetSchemaMetaValue(r.Context(), "schema_name")
		db["schema_version"] = schemaVersion
		db["schema_name"] = schemaName
		db["path"] = s.opts.DBPath
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().Unix(),
		"app": map[string]any{
			"version":    app.Version,
			"commit":     app.Commit,
			"build_time": app.BuildTime,
		},
		"db":       db,
		"system":   s.cmds.SystemInfo(),
		"webviews": len(s.cmds.ListWebviews()),
	})
}
