package server

func (s *Server) initRoutes() {
	s.router.Use(RequestIDMiddleware, s.RecoverMiddleware, s.LoggingMiddleware, s.SessionMiddleware)

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// API
	s.RegisterRouteFunc("POST "+RouteRequestLogin, ChainMiddleware(s.RequestLoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("OPTIONS "+RouteRequestLogin, ChainMiddleware(noContent, s.APIMiddleware()...))
	s.RegisterRouteFunc("OPTIONS "+RouteLogout, ChainMiddleware(noContent, s.APIMiddleware()...))

	// Login link from the email
	s.RegisterRouteFunc("GET "+RouteLoginLink, ChainMiddleware(s.LoginLinkHandler(), s.HTMLMiddleWare()...))

	// Pages and static files
	s.RegisterRouteFunc("GET "+RoutePages, ChainMiddleware(s.PageHandler(), s.HTMLMiddleWare()...))
}
