package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const configFileVar = "CONFIG_FILE"

type Config interface {
	EnvConfig
	CorsConfig
	AuthConfig
	SecurityConfig
	MailConfig
	StorageConfig
	StaticConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsDevelopment() bool
	GetLogLevel() string
	GetWebsiteHost() string
	GetWebRoot() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Auth
	Security
	Mail
	Storage
	Static
}

// New resolves configuration from the environment, falling back to the YAML
// file named by CONFIG_FILE (if any) and then to built-in defaults.
func New() (Config, error) {
	values := map[string]string{}
	if path := os.Getenv(configFileVar); path != "" {
		var err error
		values, err = readFile(path)
		if err != nil {
			return nil, err
		}
	}
	return FromValues(values), nil
}

// FromValues builds a Config whose file layer is values. Environment
// variables still take precedence.
func FromValues(values map[string]string) Config {
	src := &source{file: values}
	return mainConfig{
		EnvVars:  EnvVars{src: src},
		Cors:     Cors{src: src},
		Auth:     Auth{src: src},
		Security: Security{src: src},
		Mail:     Mail{src: src},
		Storage:  Storage{src: src},
		Static:   Static{src: src},
	}
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[config] reading %s", path)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "[config] parsing %s", path)
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case nil:
			continue
		case []any:
			parts := make([]string, 0, len(tv))
			for _, p := range tv {
				parts = append(parts, strings.TrimSpace(toString(p)))
			}
			values[strings.ToUpper(k)] = strings.Join(parts, ",")
		default:
			values[strings.ToUpper(k)] = toString(tv)
		}
	}
	return values, nil
}

func toString(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case bool:
		return strconv.FormatBool(tv)
	case int:
		return strconv.Itoa(tv)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	default:
		b, _ := yaml.Marshal(tv)
		return strings.TrimSpace(string(b))
	}
}

// source resolves a key from the environment first, then the config file.
type source struct {
	file map[string]string
}

func (s *source) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if s != nil {
		if value, ok := s.file[key]; ok && value != "" {
			return value
		}
	}
	return defaultValue
}

func (s *source) getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(s.get(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *source) getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(s.get(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *source) getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(s.get(key, ""))
	if err != nil || value < 0 {
		return defaultValue
	}
	return value
}

func (s *source) getList(key string) []string {
	var list []string
	for _, item := range strings.Split(s.get(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
