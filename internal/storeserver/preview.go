package storeserver

import (
	"html/template"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/muurk/retype/internal/bridge"
	"github.com/muurk/retype/internal/logging"
	"github.com/muurk/retype/internal/markup"
	"github.com/muurk/retype/internal/storeapi"
)

var refValue = regexp.MustCompile(`^\d+\.\d+$`)

// newPolicy allows user-generated markup plus the class and ref
// attributes the editor depends on. Scripts, handlers and styles are
// stripped.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("role").Matching(bluemonday.SpaceSeparatedTokens).Globally()
	p.AllowAttrs(markup.RefAttr).Matching(refValue).Globally()
	p.AllowElements("main", "nav", "header", "footer", "section", "article", "aside", "figure", "figcaption")
	p.AllowAttrs("type", "value", "placeholder", "name", "disabled").OnElements("input", "button", "select", "option", "textarea")
	p.AllowElements("form", "input", "button", "select", "option", "textarea", "label")
	return p
}

var previewPage = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.ID}} - retype</title>
{{if .Stylesheet}}<link rel="stylesheet" href="{{.Stylesheet}}">{{end}}
<style>
#retype-status{position:fixed;bottom:0;left:0;right:0;font:12px monospace;padding:4px 8px;background:#0f172a;color:#e2e8f0;z-index:2147483001}
</style>
</head>
<body>
<div id="retype-root" data-socket="{{.Socket}}" data-generation="{{.Generation}}">{{.Markup}}</div>
<div id="retype-status"></div>
<script>{{.Script}}</script>
</body>
</html>
`))

type previewData struct {
	ID         string
	Stylesheet string
	Socket     string
	Generation uint64
	Markup     template.HTML
	Script     template.JS
}

// handlePreview serves the component rendered for browser editing. The
// markup is annotated with element refs and sanitized; the bridge script
// takes over once its websocket connects.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.config.Backend.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	doc, err := markup.Parse(rec.Code)
	if err != nil {
		http.Error(w, "Component markup could not be parsed", http.StatusInternalServerError)
		return
	}
	annotated, err := doc.RenderAnnotated()
	if err != nil {
		http.Error(w, "Component markup could not be rendered", http.StatusInternalServerError)
		return
	}

	data := previewData{
		ID:         rec.ID,
		Stylesheet: s.config.Stylesheet,
		Socket:     storeapi.EditSocketPath + rec.ID,
		Generation: doc.Generation(),
		Markup:     template.HTML(s.policy.Sanitize(annotated)),
		Script:     template.JS(bridge.ClientScript),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := previewPage.Execute(w, data); err != nil {
		logging.Warn("Failed to render preview", zap.String("component_id", id), zap.Error(err))
	}
}
