// Package config loads the janitor configuration document.
//
// A document declares [settings], a list of [[watch]] roots and a list of
// [[bucket]] rules. TOML is the primary format; files ending in .yaml or .yml
// are read as YAML with the same field names. Load returns a fully resolved
// Config: paths are absolute, regular expressions compiled and every watch
// root points at its buckets. Problems are collected into a single
// ValidationError so a user can fix them all at once.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/harrison/janitor/internal/models"
)

// Format is a configuration file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension. Anything that is not
// .yaml or .yml is TOML.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Settings holds process-wide tunables.
type Settings struct {
	// Workers is the number of decisions executed concurrently.
	Workers int

	// StabilizeInterval is the quiet period a file must stay unchanged.
	StabilizeInterval time.Duration

	// StabilizeMaxWait bounds how long a file may keep changing.
	StabilizeMaxWait time.Duration

	// RecentTTL suppresses repeated events for a file that was just settled.
	RecentTTL time.Duration

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string

	// LogFile is an optional rotating log file; empty logs to the console only.
	LogFile string

	// Journal is the outcome database; empty disables the journal.
	Journal string
}

// DefaultSettings returns Settings with sensible default values
func DefaultSettings() Settings {
	return Settings{
		Workers:           4,
		StabilizeInterval: time.Second,
		StabilizeMaxWait:  2 * time.Minute,
		RecentTTL:         10 * time.Second,
		LogLevel:          "info",
		LogFile:           "",
		Journal:           "journal.db",
	}
}

// Config is a loaded and validated configuration.
type Config struct {
	// Path is the file the configuration was read from, if any.
	Path string

	Settings Settings
	Watches  []*models.WatchRoot
	Buckets  []*models.Bucket
}

// Bucket returns the bucket with the given name.
func (c *Config) Bucket(name string) (*models.Bucket, bool) {
	for _, b := range c.Buckets {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// resolve makes a settings path absolute against the state directory.
func resolve(home, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(home, p)
}

// JournalPath returns the journal location inside home, or "" when disabled.
func (s Settings) JournalPath(home string) string {
	return resolve(home, s.Journal)
}

// LogFilePath returns the log file location inside home, or "" when disabled.
func (s Settings) LogFilePath(home string) string {
	return resolve(home, s.LogFile)
}

// fileSettings mirrors [settings] with durations kept as strings. Pointers
// distinguish "absent" from an explicit zero value.
type fileSettings struct {
	Workers           *int    `toml:"workers" yaml:"workers"`
	StabilizeInterval string  `toml:"stabilize_interval" yaml:"stabilize_interval"`
	StabilizeMaxWait  string  `toml:"stabilize_max_wait" yaml:"stabilize_max_wait"`
	RecentTTL         string  `toml:"recent_ttl" yaml:"recent_ttl"`
	LogLevel          string  `toml:"log_level" yaml:"log_level"`
	LogFile           *string `toml:"log_file" yaml:"log_file"`
	Journal           *string `toml:"journal" yaml:"journal"`
}

type fileWatch struct {
	Path          string   `toml:"path" yaml:"path"`
	RecursiveMode string   `toml:"recursive_mode" yaml:"recursive_mode"`
	BucketNames   []string `toml:"bucket_names" yaml:"bucket_names"`
	Ignore        []string `toml:"ignore" yaml:"ignore"`
}

type fileBucket struct {
	Name             string   `toml:"name" yaml:"name"`
	Destination      string   `toml:"destination" yaml:"destination"`
	ExtensionFilters []string `toml:"extension_filters" yaml:"extension_filters"`
	NameFilters      []string `toml:"name_filters" yaml:"name_filters"`
	Priority         int64    `toml:"priority" yaml:"priority"`
	Action           string   `toml:"action" yaml:"action"`
	OverrideAction   string   `toml:"override_action" yaml:"override_action"`
}

// document is the on-disk shape shared by both formats.
type document struct {
	Settings fileSettings `toml:"settings" yaml:"settings"`
	Watches  []fileWatch  `toml:"watch" yaml:"watch"`
	Buckets  []fileBucket `toml:"bucket" yaml:"bucket"`
}

// Load reads, parses and validates the configuration file at path. Relative
// paths inside the document are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	cfg, err := Parse(data, FormatOf(path), filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = abs
	return cfg, nil
}

// Parse decodes data in the given format and builds a validated Config.
// baseDir anchors relative watch paths and destinations.
func Parse(data []byte, format Format, baseDir string) (*Config, error) {
	var doc document
	problems := &ValidationError{}

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		md, err := toml.Decode(string(data), &doc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		for _, key := range md.Undecoded() {
			problems.add("unknown key %q", key.String())
		}
	}

	cfg := build(doc, baseDir, problems)
	cfg.validate(problems)
	if problems.HasProblems() {
		return nil, problems
	}
	return cfg, nil
}

// build converts the decoded document into the model, recording conversion
// problems as it goes.
func build(doc document, baseDir string, problems *ValidationError) *Config {
	cfg := &Config{Settings: DefaultSettings()}
	mergeSettings(&cfg.Settings, doc.Settings, problems)

	for i, fb := range doc.Buckets {
		cfg.Buckets = append(cfg.Buckets, buildBucket(i, fb, baseDir, problems))
	}

	for i, fw := range doc.Watches {
		label := fmt.Sprintf("watch #%d", i+1)
		root := &models.WatchRoot{
			BucketNames: append([]string(nil), fw.BucketNames...),
			Ignore:      append([]string(nil), fw.Ignore...),
		}
		if strings.TrimSpace(fw.Path) == "" {
			problems.add("%s: path is empty", label)
		} else {
			p, err := ExpandPath(fw.Path, baseDir)
			if err != nil {
				problems.add("%s: %v", label, err)
			}
			root.Path = p
			label = "watch " + fw.Path
		}

		mode, err := models.ParseRecursiveMode(fw.RecursiveMode)
		if err != nil {
			problems.add("%s: %v", label, err)
		}
		root.Recursive = mode == models.Recursive

		cfg.Watches = append(cfg.Watches, root)
	}

	return cfg
}

// mergeSettings applies values present in the file over the defaults.
func mergeSettings(s *Settings, fs fileSettings, problems *ValidationError) {
	if fs.Workers != nil {
		s.Workers = *fs.Workers
	}
	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"stabilize_interval", fs.StabilizeInterval, &s.StabilizeInterval},
		{"stabilize_max_wait", fs.StabilizeMaxWait, &s.StabilizeMaxWait},
		{"recent_ttl", fs.RecentTTL, &s.RecentTTL},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			problems.add("settings.%s: invalid duration %q", d.key, d.value)
			continue
		}
		if v < 0 {
			problems.add("settings.%s must be >= 0, got %s", d.key, d.value)
			continue
		}
		*d.dst = v
	}
	if fs.LogLevel != "" {
		s.LogLevel = strings.ToLower(strings.TrimSpace(fs.LogLevel))
	}
	if fs.LogFile != nil {
		s.LogFile = expandHome(*fs.LogFile)
	}
	if fs.Journal != nil {
		s.Journal = expandHome(*fs.Journal)
	}
}

func buildBucket(i int, fb fileBucket, baseDir string, problems *ValidationError) *models.Bucket {
	label := fmt.Sprintf("bucket #%d", i+1)
	if fb.Name != "" {
		label = fmt.Sprintf("bucket %q", fb.Name)
	}

	b := &models.Bucket{Name: fb.Name}

	action, err := models.ParseAction(fb.Action)
	if err != nil {
		problems.add("%s: %v", label, err)
	}
	b.Action = action

	override, err := models.ParseOverrideAction(fb.OverrideAction)
	if err != nil {
		problems.add("%s: %v", label, err)
	}
	b.OverrideAction = override

	if fb.Priority < 0 || fb.Priority > math.MaxUint32 {
		problems.add("%s: priority %d out of range 0..%d", label, fb.Priority, uint32(math.MaxUint32))
	} else {
		b.Priority = uint32(fb.Priority)
	}

	switch {
	case strings.TrimSpace(fb.Destination) != "":
		dst, err := ExpandPath(fb.Destination, baseDir)
		if err != nil {
			problems.add("%s: %v", label, err)
		}
		b.Destination = dst
	case action != models.ActionDelete:
		problems.add("%s: destination is empty", label)
	}

	for _, ext := range fb.ExtensionFilters {
		e := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if e == "" {
			problems.add("%s: empty extension filter", label)
			continue
		}
		b.ExtensionFilters = append(b.ExtensionFilters, e)
	}

	for _, pattern := range fb.NameFilters {
		re, err := regexp.Compile(pattern)
		if err != nil {
			problems.add("%s: invalid name filter %q: %v", label, pattern, err)
			continue
		}
		b.NamePatterns = append(b.NamePatterns, pattern)
		b.NameFilters = append(b.NameFilters, re)
	}

	return b
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(workers *int, logLevel *string, logFile *string, journal *string) {
	if workers != nil {
		c.Settings.Workers = *workers
	}
	if logLevel != nil {
		c.Settings.LogLevel = strings.ToLower(strings.TrimSpace(*logLevel))
	}
	if logFile != nil {
		c.Settings.LogFile = expandHome(*logFile)
	}
	if journal != nil {
		c.Settings.Journal = expandHome(*journal)
	}
}
