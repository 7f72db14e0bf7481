package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Adda-Baaj/portco-news/internal/domain"
	"github.com/Adda-Baaj/portco-news/internal/normalize"
)

const (
	// Supported publisher types.
	TypeQueue = "queue"
	TypeHTTP  = "http"

	// Supported queue providers.
	QueueProviderAWSSQS = "aws-sqs"
	QueueProviderAWSSNS = "aws-sns"
	QueueProviderGCP    = "gcp"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// knownSources are the values accepted in a publisher's sources list.
var knownSources = map[string]struct{}{"feed": {}, "sheet": {}}

type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig declares one consumer of fetch results.
type PublisherConfig struct {
	ID      string                `json:"id" yaml:"id"`
	Type    string                `json:"type" yaml:"type"`
	Enabled *bool                 `json:"enabled" yaml:"enabled"`
	Sources []string              `json:"sources" yaml:"sources"`
	Filter  *FilterConfig         `json:"filter" yaml:"filter"`
	Queue   *QueuePublisherConfig `json:"queue" yaml:"queue"`
	HTTP    *HTTPPublisherConfig  `json:"http" yaml:"http"`
}

// FilterConfig narrows what a publisher receives, the same selections a presenter offers.
// From and To accept any date layout the ingestors parse; To covers the whole day it names.
type FilterConfig struct {
	Companies  []string `json:"companies" yaml:"companies"`
	Categories []string `json:"categories" yaml:"categories"`
	From       string   `json:"from" yaml:"from"`
	To         string   `json:"to" yaml:"to"`
}

// Build converts the declaration into a domain.Filter.
func (fc FilterConfig) Build() (domain.Filter, error) {
	f := domain.Filter{Companies: fc.Companies, Categories: fc.Categories}
	var err error
	if fc.From != "" {
		if f.From, err = normalize.ParseTime(fc.From); err != nil {
			return domain.Filter{}, fmt.Errorf("filter.from: %w", err)
		}
	}
	if fc.To != "" {
		if f.To, err = normalize.ParseTime(fc.To); err != nil {
			return domain.Filter{}, fmt.Errorf("filter.to: %w", err)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return domain.Filter{}, errors.New("filter.to is before filter.from")
	}
	return f, nil
}

// QueuePublisherConfig selects a cloud queue provider.
type QueuePublisherConfig struct {
	Provider string                 `json:"provider" yaml:"provider"`
	AWS      *AWSSQSPublisherConfig `json:"aws" yaml:"aws"`
	SNS      *AWSSNSPublisherConfig `json:"sns" yaml:"sns"`
	GCP      *GCPQueueConfig        `json:"gcp" yaml:"gcp"`
}

type AWSSQSPublisherConfig struct {
	QueueURL        string `json:"uri" yaml:"uri"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

type AWSSNSPublisherConfig struct {
	TopicARN        string `json:"topic_arn" yaml:"topic_arn"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// LoadConfigs reads publisher declarations from a YAML or JSON file. ${VAR} references are
// expanded from the environment so secrets stay out of the file.
func LoadConfigs(path string) ([]PublisherConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	file, err := decodeConfigFile([]byte(os.ExpandEnv(string(raw))), filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	seen := make(map[string]struct{}, len(file.Publishers))
	out := make([]PublisherConfig, 0, len(file.Publishers))
	for i, cfg := range file.Publishers {
		cfg = sanitizePublisherConfig(cfg)
		if err := validatePublisherConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		seen[cfg.ID] = struct{}{}
		out = append(out, cfg)
	}
	return out, nil
}

// decodeConfigFile picks the decoder from the extension, trying both when it is unknown.
func decodeConfigFile(data []byte, ext string) (configFile, error) {
	decoders := []struct {
		exts []string
		fn   func([]byte, any) error
	}{
		{exts: []string{".yaml", ".yml"}, fn: yaml.Unmarshal},
		{exts: []string{".json"}, fn: json.Unmarshal},
	}

	ext = strings.ToLower(strings.TrimSpace(ext))
	known := false
	for _, d := range decoders {
		known = known || slices.Contains(d.exts, ext)
	}

	var lastErr error
	for _, d := range decoders {
		if known && !slices.Contains(d.exts, ext) {
			continue
		}
		var file configFile
		if err := d.fn(data, &file); err != nil {
			lastErr = err
			continue
		}
		return file, nil
	}
	return configFile{}, fmt.Errorf("publishers file format not recognized: %w", lastErr)
}

func sanitizePublisherConfig(cfg PublisherConfig) PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.Enabled == nil {
		def := true
		cfg.Enabled = &def
	}

	sources := make([]string, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			sources = append(sources, s)
		}
	}
	cfg.Sources = sources

	if cfg.Filter != nil {
		fc := *cfg.Filter
		fc.Companies = trimNonEmpty(fc.Companies)
		fc.Categories = trimNonEmpty(fc.Categories)
		fc.From = strings.TrimSpace(fc.From)
		fc.To = strings.TrimSpace(fc.To)
		cfg.Filter = &fc
	}

	if cfg.Queue != nil {
		qc := *cfg.Queue
		qc.Provider = strings.ToLower(strings.TrimSpace(qc.Provider))
		if qc.AWS != nil {
			a := *qc.AWS
			a.QueueURL = strings.TrimSpace(a.QueueURL)
			a.Region = strings.TrimSpace(a.Region)
			a.AccessKeyID = strings.TrimSpace(a.AccessKeyID)
			a.SecretAccessKey = strings.TrimSpace(a.SecretAccessKey)
			qc.AWS = &a
		}
		if qc.SNS != nil {
			s := *qc.SNS
			s.TopicARN = strings.TrimSpace(s.TopicARN)
			s.Region = strings.TrimSpace(s.Region)
			s.AccessKeyID = strings.TrimSpace(s.AccessKeyID)
			s.SecretAccessKey = strings.TrimSpace(s.SecretAccessKey)
			qc.SNS = &s
		}
		if qc.GCP != nil {
			g := *qc.GCP
			g.ProjectID = strings.TrimSpace(g.ProjectID)
			g.Topic = strings.TrimSpace(g.Topic)
			g.CredentialsFile = strings.TrimSpace(g.CredentialsFile)
			qc.GCP = &g
		}
		cfg.Queue = &qc
	}

	if cfg.HTTP != nil {
		c := *cfg.HTTP
		c.URL = strings.TrimSpace(c.URL)
		c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
		if c.Method == "" {
			c.Method = httpDefaultMethod
		}
		c.Headers = sanitizeHeaders(c.Headers)
		if c.TimeoutSeconds <= 0 {
			c.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		cfg.HTTP = &c
	}

	return cfg
}

func trimNonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// sanitizeHeaders trims and removes empty headers.
func sanitizeHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validatePublisherConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	for _, s := range cfg.Sources {
		if _, ok := knownSources[s]; !ok {
			return fmt.Errorf("unknown source %q for publisher %q", s, cfg.ID)
		}
	}
	if cfg.Filter != nil {
		if _, err := cfg.Filter.Build(); err != nil {
			return fmt.Errorf("publisher %q: %w", cfg.ID, err)
		}
	}

	switch cfg.Type {
	case "":
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	case TypeQueue:
		if cfg.Queue == nil {
			return fmt.Errorf("queue config required for publisher %q", cfg.ID)
		}
		switch cfg.Queue.Provider {
		case QueueProviderAWSSQS:
			return requireFields(cfg.ID, "sqs", cfg.Queue.AWS != nil, map[string]string{
				"uri":               field(cfg.Queue.AWS, func(c *AWSSQSPublisherConfig) string { return c.QueueURL }),
				"region":            field(cfg.Queue.AWS, func(c *AWSSQSPublisherConfig) string { return c.Region }),
				"access_key_id":     field(cfg.Queue.AWS, func(c *AWSSQSPublisherConfig) string { return c.AccessKeyID }),
				"secret_access_key": field(cfg.Queue.AWS, func(c *AWSSQSPublisherConfig) string { return c.SecretAccessKey }),
			})
		case QueueProviderAWSSNS:
			return requireFields(cfg.ID, "sns", cfg.Queue.SNS != nil, map[string]string{
				"topic_arn":         field(cfg.Queue.SNS, func(c *AWSSNSPublisherConfig) string { return c.TopicARN }),
				"region":            field(cfg.Queue.SNS, func(c *AWSSNSPublisherConfig) string { return c.Region }),
				"access_key_id":     field(cfg.Queue.SNS, func(c *AWSSNSPublisherConfig) string { return c.AccessKeyID }),
				"secret_access_key": field(cfg.Queue.SNS, func(c *AWSSNSPublisherConfig) string { return c.SecretAccessKey }),
			})
		case QueueProviderGCP:
			return requireFields(cfg.ID, "gcp", cfg.Queue.GCP != nil, map[string]string{
				"project_id": field(cfg.Queue.GCP, func(c *GCPQueueConfig) string { return c.ProjectID }),
				"topic":      field(cfg.Queue.GCP, func(c *GCPQueueConfig) string { return c.Topic }),
			})
		default:
			return fmt.Errorf("queue provider %q not supported for publisher %q", cfg.Queue.Provider, cfg.ID)
		}
	case TypeHTTP:
		if cfg.HTTP == nil {
			return fmt.Errorf("http config required for publisher %q", cfg.ID)
		}
		if cfg.HTTP.URL == "" {
			return fmt.Errorf("http.url is required for publisher %q", cfg.ID)
		}
	default:
		return fmt.Errorf("type %q not supported for publisher %q", cfg.Type, cfg.ID)
	}
	return nil
}

// field reads a value from an optional provider block.
func field[T any](cfg *T, get func(*T) string) string {
	if cfg == nil {
		return ""
	}
	return get(cfg)
}

// requireFields reports the first missing field in deterministic order.
func requireFields(id, block string, present bool, fields map[string]string) error {
	if !present {
		return fmt.Errorf("%s config required for publisher %q", block, id)
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if fields[name] == "" {
			return fmt.Errorf("%s.%s is required for publisher %q", block, name, id)
		}
	}
	return nil
}

// EnabledValue returns the enabled flag, defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}
