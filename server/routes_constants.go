package server

// Route path constants
const (
	RouteRequestLogin = "/api/request_login"
	RouteLogout       = "/api/logout"
	RouteLoginLink    = "/l/*"
	RouteHealth       = "/healthz"
	RoutePages        = "/*"

	loginLinkPrefix = "/l/"
)

// Page layout files within the static store.
const (
	templateFile = "/_template.html"
	indexFile    = "/index.html"
)
