package config

import (
	"fmt"
	"strings"
)

const (
	portEnvVar        = "PORT"
	appNameVar        = "APP_NAME"
	envVar            = "ENV"
	logLevelVar       = "LOG_LEVEL"
	websiteHostEnvVar = "WEBSITE_HOST"
	webRootEnvVar     = "WEB_ROOT"

	EnvDevelopment = "DEV"
	// EnvProduction is used when ENV is unset. Development mode must be
	// asked for explicitly.
	EnvProduction = "PROD"
)

type EnvVars struct {
	src *source
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.src.get(portEnvVar, "9292")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.src.get(appNameVar, "Marathon")
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.src.get(envVar, EnvProduction))
}

// IsDevelopment reports whether the server runs in the DEV environment.
// Development disables Secure cookies and outbound mail delivery.
func (e EnvVars) IsDevelopment() bool {
	return e.GetEnv() == EnvDevelopment
}

func (e EnvVars) GetLogLevel() string {
	if e.IsDevelopment() {
		return e.src.get(logLevelVar, "debug")
	}
	return e.src.get(logLevelVar, "info")
}

func (e EnvVars) GetWebsiteHost() string {
	return e.src.get(websiteHostEnvVar, "localhost")
}

// GetWebRoot returns the absolute site root used for redirects and links,
// without a trailing slash.
func (e EnvVars) GetWebRoot() string {
	def := "https://" + e.GetWebsiteHost()
	if e.IsDevelopment() {
		def = "http://localhost:8025"
	}
	return strings.TrimSuffix(e.src.get(webRootEnvVar, def), "/")
}
