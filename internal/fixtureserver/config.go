package fixtureserver

import (
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// FileConfig is the loadable server configuration, from environment
// variables (STOREFRONT_ prefix), flags, or YAML config files.
type FileConfig struct {
	Addr        string   `default:"0.0.0.0:8080" usage:"listen address"`
	CORSOrigins []string `default:"*" usage:"Allowed CORS origins" flag:"cors-origins"`
	RateLimit   struct {
		Max    int           `default:"100" usage:"Max requests per window"`
		Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
	}
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables and YAML files.
func LoadConfig() (Config, error) {
	var fc FileConfig
	loader := aconfig.LoaderFor(&fc, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return Config{}, errors.Wrap(err, "load config")
	}

	return Config{
		Addr:            fc.Addr,
		CORSOrigins:     fc.CORSOrigins,
		RateLimitMax:    fc.RateLimit.Max,
		RateLimitWindow: fc.RateLimit.Window,
		ShutdownTimeout: fc.ShutdownTimeout,
	}, nil
}
