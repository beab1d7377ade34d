/*
	Package config loads TOML client configurations and builds cutout clients from them.

	Example configuration:

		[service]
		name = "boss"
		version = "1.0"
		protocol = "https"
		host = "api.bossdb.io"
		token = ""              # or set NDIO_TOKEN / BOSS_APPLICATION_CREDENTIALS
		auth = "token"          # token, bearer, jwt or none
		jwtfile = ""            # Google service account key for "jwt" auth

		[cutout]
		chunk_threshold = 67108864
		concurrency = 8
		request_timeout = "30s"

		[cache]
		size = 1048576
		ttl = 300

		[logging]
		logfile = "ndio.log"
		max_log_size = 100      # MB
		max_log_age = 30        # days

		[kafka]
		servers = ["kafka1:9092"]
		topic_activity = "ndio-activity"
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/janelia-flyem/ndio/cutout"
	"github.com/janelia-flyem/ndio/ndio"
	"github.com/janelia-flyem/ndio/remote"
	"github.com/janelia-flyem/ndio/transport"
)

const (
	// TokenEnv overrides the configured token for any service.
	TokenEnv = "NDIO_TOKEN"

	// BossTokenEnv supplies the Boss token if none is configured.
	BossTokenEnv = "BOSS_APPLICATION_CREDENTIALS"

	// DefaultCacheSize is the metadata cache size in bytes.
	DefaultCacheSize = ndio.Mega
)

// DefaultVersions is the API version assumed for each service when none is configured.
var DefaultVersions = map[string]string{
	"boss": "1.0",
	"ocp":  "0.7",
	"dvid": "1.0",
}

// Duration is a time.Duration written in TOML as a string like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return
}

type ServiceConfig struct {
	Name     string
	Version  string
	Protocol string
	Host     string
	Token    string
	Auth     string
	JWTFile  string `toml:"jwtfile"`
	Scopes   []string
	Codec    string
}

// Base returns the protocol and host as a URL prefix.
func (sc ServiceConfig) Base() string {
	return sc.Protocol + "://" + strings.TrimSuffix(sc.Host, "/")
}

type CutoutConfig struct {
	ChunkThreshold int64    `toml:"chunk_threshold"`
	Concurrency    int      `toml:"concurrency"`
	RequestTimeout Duration `toml:"request_timeout"`
}

type CacheConfig struct {
	Size int
	TTL  int `toml:"ttl"`
}

// Config is a complete client configuration.
type Config struct {
	Service ServiceConfig
	Cutout  CutoutConfig
	Cache   CacheConfig
	Logging ndio.LogConfig
	Kafka   cutout.KafkaConfig

	notifier *cutout.KafkaNotifier
}

// Load decodes a TOML configuration file, applies defaults and environment overrides,
// and makes relative paths absolute with respect to the file's directory.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("no TOML configuration file provided")
	}
	c := new(Config)
	if _, err := toml.DecodeFile(filename, c); err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %v", err)
	}
	if err := c.convertPathsToAbsolute(filename); err != nil {
		return nil, fmt.Errorf("could not convert relative paths to absolute paths in TOML config: %v", err)
	}
	if err := c.setDefaults(); err != nil {
		return nil, err
	}
	return c, nil
}

// New returns the default configuration for a named service at a host.
func New(name, host string) (*Config, error) {
	c := &Config{Service: ServiceConfig{Name: name, Host: host}}
	if err := c.setDefaults(); err != nil {
		return nil, err
	}
	return c, nil
}

// Some settings in the TOML can be given as relative paths.
// This function converts them in-place to absolute paths,
// assuming the given paths were relative to the TOML file's own directory.
func (c *Config) convertPathsToAbsolute(configPath string) error {
	var err error
	configDir := filepath.Dir(configPath)

	// [logging].logfile
	if c.Logging.Logfile != "" {
		c.Logging.Logfile, err = ndio.ConvertToAbsolute(c.Logging.Logfile, configDir)
		if err != nil {
			return fmt.Errorf("error converting logfile setting to absolute path")
		}
	}

	// [service].jwtfile
	if c.Service.JWTFile != "" {
		c.Service.JWTFile, err = ndio.ConvertToAbsolute(c.Service.JWTFile, configDir)
		if err != nil {
			return fmt.Errorf("error converting jwtfile setting to absolute path")
		}
	}
	return nil
}

func (c *Config) setDefaults() error {
	sc := &c.Service
	sc.Name = strings.ToLower(sc.Name)
	if sc.Name == "" {
		return fmt.Errorf("no service name given in [service] configuration")
	}
	if sc.Host == "" {
		return fmt.Errorf("no host given for %s service", sc.Name)
	}
	if sc.Version == "" {
		sc.Version = DefaultVersions[sc.Name]
	}
	if sc.Protocol == "" {
		sc.Protocol = "https"
	}
	if token := os.Getenv(TokenEnv); token != "" {
		sc.Token = token
	} else if sc.Token == "" && sc.Name == "boss" {
		sc.Token = os.Getenv(BossTokenEnv)
	}
	if sc.Auth == "" {
		switch {
		case sc.JWTFile != "":
			sc.Auth = string(transport.AuthJWT)
		case sc.Token != "" && sc.Name == "boss":
			sc.Auth = string(transport.AuthToken)
		case sc.Token != "":
			sc.Auth = string(transport.AuthBearer)
		default:
			sc.Auth = string(transport.AuthNone)
		}
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = DefaultCacheSize
	}
	return nil
}

func (c *Config) transportConfig() transport.Config {
	return transport.Config{
		Auth:    transport.AuthScheme(c.Service.Auth),
		Token:   c.Service.Token,
		JWTFile: c.Service.JWTFile,
		Scopes:  c.Service.Scopes,
	}
}

// NewService returns the configured remote service with a metadata cache.
func (c *Config) NewService() (remote.Service, error) {
	tr, err := transport.NewHTTP(c.transportConfig())
	if err != nil {
		return nil, err
	}
	svc, err := remote.New(c.Service.Name, c.Service.Version, remote.Options{
		Base:      c.Service.Base(),
		Transport: tr,
		Codec:     c.Service.Codec,
	})
	if err != nil {
		return nil, err
	}
	return remote.WithCache(svc, c.Cache.Size, c.Cache.TTL), nil
}

// NewClient builds a cutout client.  Cutout requests get their own transport that
// negotiates the service's wire format.  If Kafka servers are configured, completed
// cutouts are published to the activity topic.
func (c *Config) NewClient() (*cutout.Client, error) {
	svc, err := c.NewService()
	if err != nil {
		return nil, err
	}
	tc := c.transportConfig()
	tc.ContentType = svc.Codec().ContentType()
	tc.Accept = svc.Codec().ContentType()
	tr, err := transport.NewHTTP(tc)
	if err != nil {
		return nil, err
	}
	client := cutout.NewClient(svc, tr, cutout.Config{
		ChunkThreshold: c.Cutout.ChunkThreshold,
		Concurrency:    c.Cutout.Concurrency,
		RequestTimeout: c.Cutout.RequestTimeout.Duration,
	})
	if len(c.Kafka.Servers) != 0 {
		if c.notifier == nil {
			if c.notifier, err = cutout.NewKafkaNotifier(c.Kafka); err != nil {
				return nil, fmt.Errorf("unable to connect to kafka %v: %v", c.Kafka.Servers, err)
			}
		}
		client.SetNotifier(c.notifier)
	}
	ndio.Infof("Using %s API %s at %s\n", svc.Name(), svc.Version(), c.Service.Base())
	return client, nil
}

// Shutdown closes any activity producer.
func (c *Config) Shutdown() {
	if c.notifier != nil {
		c.notifier.Close()
		c.notifier = nil
	}
}
