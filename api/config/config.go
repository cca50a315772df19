// Package config holds the settings of a validation run.
package config

import (
	"errors"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"
)

// Strategy selects how validator output is mapped back to remote URIs.
type Strategy string

const (
	// StrategyStructured parses the output first and rewrites message refs
	// through the source map.
	StrategyStructured Strategy = "structured"
	// StrategyRaw substitutes ref="file:..." attributes in the raw text
	// before parsing.
	StrategyRaw Strategy = "raw"
)

// Flag names a boolean output filter.
type Flag string

const (
	FlagIgnoreWarnings                  Flag = "ignore-warnings"
	FlagIgnoreFalseImageDataURLMessages Flag = "ignore-false-image-data-url-messages"
)

// Flags lists every known flag.
var Flags = []Flag{FlagIgnoreWarnings, FlagIgnoreFalseImageDataURLMessages}

const (
	EnvJava = "CSSWRAP_JAVA"
	EnvJar  = "CSSWRAP_JAR"

	DefaultJava = "java"
	DefaultJar  = "css-validator.jar"
)

type Config struct {
	// URL is the resource to validate. When Content is set it is only used
	// as the document URI.
	URL     string `validate:"required,url"`
	Content string

	Java            string   `validate:"required"`
	Jar             string   `validate:"required"`
	VendorExtension Severity `validate:"oneof=warn error ignore"`
	Strategy        Strategy `validate:"oneof=structured raw"`

	IgnoreDomains                   []string `validate:"dive,required"`
	IgnoreWarnings                  bool
	IgnoreFalseImageDataURLMessages bool

	// Concurrency is the number of linked stylesheets fetched in parallel.
	Concurrency int `validate:"min=1,max=16"`

	UserAgent string
	Timeout   time.Duration
	Cookies   map[string]string
	Username  string
	Password  string

	// TempDir receives the localized resources. Empty means os.TempDir().
	TempDir string
}

var validate = validator.New()

// Default returns a Config with defaults applied and the java/jar paths
// taken from the environment when set.
func Default() Config {
	return Config{
		Java:            lo.CoalesceOrEmpty(os.Getenv(EnvJava), DefaultJava),
		Jar:             lo.CoalesceOrEmpty(os.Getenv(EnvJar), DefaultJar),
		VendorExtension: SeverityWarn,
		Strategy:        StrategyStructured,
		Concurrency:     1,
	}
}

// New fills unset fields of c from Default and validates the result.
func New(c Config) (Config, error) {
	d := Default()
	c.Java = lo.CoalesceOrEmpty(c.Java, d.Java)
	c.Jar = lo.CoalesceOrEmpty(c.Jar, d.Jar)
	c.VendorExtension = lo.CoalesceOrEmpty(c.VendorExtension, d.VendorExtension)
	c.Strategy = lo.CoalesceOrEmpty(c.Strategy, d.Strategy)
	if c.Concurrency == 0 {
		c.Concurrency = d.Concurrency
	}
	if len(c.IgnoreDomains) > 0 {
		c.IgnoreDomains = lo.Map(c.IgnoreDomains, func(s string, _ int) string {
			return strings.ToLower(strings.TrimSpace(s))
		})
	}

	if strings.TrimSpace(c.URL) == "" {
		return Config{}, failure.New(ErrMissingURL, failure.Message("URL to validate is required"))
	}
	severity, err := ParseSeverity(string(c.VendorExtension))
	if err != nil {
		return Config{}, err
	}
	c.VendorExtension = severity
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Config{}, failure.Wrap(err,
				failure.WithCode(ErrInvalidConfig),
				failure.Message("Invalid configuration: "+verrs[0].Field()),
				failure.Context{"field": verrs[0].Field(), "tag": verrs[0].Tag()},
			)
		}
		return Config{}, failure.Wrap(err, failure.WithCode(ErrInvalidConfig))
	}
	return c, nil
}

// SetFlag turns the named flag on or off.
func (c *Config) SetFlag(name string, on bool) error {
	switch Flag(name) {
	case FlagIgnoreWarnings:
		c.IgnoreWarnings = on
	case FlagIgnoreFalseImageDataURLMessages:
		c.IgnoreFalseImageDataURLMessages = on
	default:
		return failure.New(ErrInvalidFlag,
			failure.Message("Unknown flag"),
			failure.Context{"flag": name},
		)
	}
	return nil
}

// IsIgnoredURI reports whether uri's host is one of IgnoreDomains or a
// subdomain of one.
func (c Config) IsIgnoredURI(uri string) bool {
	if len(c.IgnoreDomains) == 0 {
		return false
	}
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return lo.SomeBy(c.IgnoreDomains, func(d string) bool {
		return host == d || strings.HasSuffix(host, "."+d)
	})
}
