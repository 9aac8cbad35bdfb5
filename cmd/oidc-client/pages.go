package main

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
)

const pageStyle = `
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        .card { border: 1px solid #ddd; border-radius: 8px; padding: 20px; margin-bottom: 20px; background: white; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .success { border-color: #4caf50; background: #f1f8f4; }
        .protected { border-color: #ff9800; background: #fff3e0; }
        .error-card { border: 2px solid #f44336; border-radius: 8px; padding: 30px; background: #ffebee; }
        h1 { color: #333; }
        h2 { color: #555; margin-top: 0; }
        pre { background: #f4f4f4; padding: 15px; border-radius: 4px; overflow-x: auto; font-size: 13px; }
        .btn { display: inline-block; background: #4285f4; color: white; padding: 10px 20px; text-decoration: none; border-radius: 4px; font-weight: bold; }
        .btn:hover { background: #3367d6; }
        code { background: #f4f4f4; padding: 2px 6px; border-radius: 3px; font-size: 14px; }
        ul { line-height: 1.8; }`

var homePage = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>OIDC Client Demo</title>
    <style>` + pageStyle + `</style>
</head>
<body>
    <div class="card">
        <h1>OIDC Client Demo</h1>
        <p>A relying party using the authorization code flow with PKCE.</p>
    </div>
{{if .LoggedIn}}
    <div class="card success">
        <h2>Logged In</h2>
        <p>Welcome, <strong>{{.UserName}}</strong>!</p>
        <p><a href="/protected">View Protected Page</a> | <a href="/logout">Logout</a></p>
    </div>
{{else}}
    <div class="card">
        <h2>Not Logged In</h2>
        <p><a href="/api/auth/login" class="btn">Login with OIDC</a></p>
    </div>
{{end}}
    <div class="card">
        <h2>Configuration</h2>
        <ul>
            <li><strong>Client ID:</strong> <code>{{.ClientID}}</code></li>
            <li><strong>STS:</strong> <code>{{.STSURL}}</code></li>
            <li><strong>Redirect URI:</strong> <code>{{.RedirectURI}}</code></li>
            <li><strong>Scopes:</strong> <code>{{.Scope}}</code></li>
        </ul>
    </div>
</body>
</html>`))

type homePageData struct {
	LoggedIn    bool
	UserName    string
	ClientID    string
	STSURL      string
	RedirectURI string
	Scope       string
}

var protectedPage = template.Must(template.New("protected").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Protected Page</title>
    <style>` + pageStyle + `</style>
</head>
<body>
    <div class="card protected">
        <h1>Protected Page</h1>
        <p>Signed in as <strong>{{.UserName}}</strong>. The access token expires at {{.TokenExpiry}}.</p>
    </div>
    <div class="card">
        <h2>Your Information</h2>
        <pre>{{.UserInfo}}</pre>
    </div>
    <div class="card">
        <a href="/" class="btn">Home</a>
        <a href="/logout" class="btn">Logout</a>
    </div>
</body>
</html>`))

type protectedPageData struct {
	UserName    string
	UserInfo    string
	TokenExpiry string
}

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Authorization Error</title>
    <style>` + pageStyle + `</style>
</head>
<body>
    <div class="error-card">
        <h1>Authorization Error</h1>
        <p><strong>Error:</strong> {{.Error}}</p>
        <p><strong>Description:</strong> {{.Description}}</p>
        <a href="/">Back to Home</a>
    </div>
</body>
</html>`))

func renderPage(w http.ResponseWriter, status int, page *template.Template, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Execute(w, data); err != nil {
		slog.Error("Failed to render page", "page", page.Name(), "error", err)
	}
}

func renderErrorPage(w http.ResponseWriter, status int, errorCode, description string) {
	renderPage(w, status, errorPage, struct {
		Error       string
		Description string
	}{errorCode, description})
}

func displayName(session Session) string {
	if name, ok := session.UserInfo["name"].(string); ok && name != "" {
		return name
	}
	if session.Subject != "" {
		return session.Subject
	}
	return "User"
}

func prettyJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
