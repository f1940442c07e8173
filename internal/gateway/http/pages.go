package http

import (
	"html/template"
	"net/http"

	"github.com/wastedesk/admingate/pkg/httpx"
)

var pageTemplates = template.Must(template.New("pages").Parse(`
{{define "layout_head"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>{{end}}

{{define "layout_foot"}}</body>
</html>{{end}}

{{define "loading"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="1">
<title>Loading</title>
</head>
<body><p>Checking your session&hellip;</p></body>
</html>{{end}}

{{define "login"}}{{template "layout_head" .}}
<h1>Sign in</h1>
{{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
<form method="post" action="/login">
  <label>Username <input type="text" name="username" autocomplete="username" required></label>
  <label>Password <input type="password" name="password" autocomplete="current-password" required></label>
  {{if .Redirect}}<input type="hidden" name="redirect" value="{{.Redirect}}">{{end}}
  <button type="submit">Sign in</button>
</form>
<p><a href="/forgot-password">Forgot password?</a></p>
{{template "layout_foot" .}}{{end}}

{{define "unauthorized"}}{{template "layout_head" .}}
<h1>Unauthorized</h1>
<p>Your account does not have access to that page.</p>
<p><a href="/dashboard">Back to dashboard</a></p>
{{template "layout_foot" .}}{{end}}

{{define "password_help"}}{{template "layout_head" .}}
<h1>{{.Title}}</h1>
<p>Password changes are handled by your administrator. Contact them to have
your credentials reset.</p>
<p><a href="/login">Back to sign in</a></p>
{{template "layout_foot" .}}{{end}}
`))

type pageData struct {
	Title    string
	Error    string
	Redirect string
}

func renderPage(w http.ResponseWriter, status int, name string, data pageData) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = pageTemplates.ExecuteTemplate(w, name, data)
}

// renderLoading is the placeholder shown while a session is still settling.
// It refreshes itself; by the next request the handshake has resolved.
func renderLoading(w http.ResponseWriter, _ *http.Request) {
	renderPage(w, http.StatusOK, "loading", pageData{Title: "Loading"})
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, http.StatusOK, "", r.URL.Query().Get(httpx.RedirectParam))
}

func (h *Handler) renderLogin(w http.ResponseWriter, status int, errMsg, redirect string) {
	if redirect != "" && redirect[0] != '/' {
		redirect = ""
	}
	renderPage(w, status, "login", pageData{Title: "Sign in", Error: errMsg, Redirect: redirect})
}

func (h *Handler) unauthorizedPage(w http.ResponseWriter, _ *http.Request) {
	renderPage(w, http.StatusForbidden, "unauthorized", pageData{Title: "Unauthorized"})
}

func (h *Handler) forgotPasswordPage(w http.ResponseWriter, _ *http.Request) {
	renderPage(w, http.StatusOK, "password_help", pageData{Title: "Forgot password"})
}

func (h *Handler) resetPasswordPage(w http.ResponseWriter, _ *http.Request) {
	renderPage(w, http.StatusOK, "password_help", pageData{Title: "Reset password"})
}
