package templates

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PageForge/backend/internal/config"
	"github.com/GriffinCanCode/PageForge/backend/internal/logging"
	"github.com/GriffinCanCode/PageForge/backend/internal/shared/types"
)

// manifest is the optional YAML sidecar next to a template file
type manifest struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Author      string   `yaml:"author"`
	Tags        []string `yaml:"tags"`
}

// Scanner loads template files from the template directory
type Scanner struct {
	library *Library
	cfg     config.TemplatesConfig
	logger  *logging.Logger
}

// NewScanner creates a scanner feeding the given library
func NewScanner(library *Library, cfg config.TemplatesConfig, logger *logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{
		library: library,
		cfg:     cfg,
		logger:  logger,
	}
}

// Scan walks the template directory and registers every file matching
// the configured glob. A missing directory is not an error; the library
// just keeps its seeded defaults.
func (s *Scanner) Scan() error {
	if _, err := os.Stat(s.cfg.Dir); os.IsNotExist(err) {
		s.logger.Info("template directory not found, skipping scan",
			zap.String("dir", s.cfg.Dir))
		return nil
	}

	// fastwalk runs the callback from multiple goroutines
	var mu sync.Mutex
	var loaded, failed int

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, s.cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.cfg.Dir, path)
		if err != nil {
			return err
		}
		match, err := doublestar.PathMatch(s.cfg.Pattern, rel)
		if err != nil {
			return err
		}
		if !match {
			return nil
		}

		loadErr := s.loadTemplate(path)

		mu.Lock()
		defer mu.Unlock()
		if loadErr != nil {
			s.logger.Warn("failed to load template",
				zap.String("path", rel),
				zap.Error(loadErr))
			failed++
			return nil
		}
		loaded++
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("template scan complete",
		zap.Int("loaded", loaded),
		zap.Int("failed", failed))
	return nil
}

// loadTemplate registers one file, reading its sidecar manifest when
// one sits next to it
func (s *Scanner) loadTemplate(path string) error {
	markup, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	tpl := &types.Template{
		Name:   templateName(path),
		Author: "library",
		Markup: string(markup),
	}

	if meta, ok := s.readManifest(path); ok {
		if meta.Name != "" {
			tpl.Name = meta.Name
		}
		tpl.Description = meta.Description
		tpl.Category = meta.Category
		if meta.Author != "" {
			tpl.Author = meta.Author
		}
		tpl.Tags = meta.Tags
	}

	return s.library.Save(tpl)
}

// readManifest looks for <name>.yaml or <name>.yml next to the template
func (s *Scanner) readManifest(path string) (*manifest, bool) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{".yaml", ".yml"} {
		data, err := os.ReadFile(base + ext)
		if err != nil {
			continue
		}
		var meta manifest
		if err := yaml.Unmarshal(data, &meta); err != nil {
			s.logger.Warn("malformed template manifest",
				zap.String("path", base+ext),
				zap.Error(err))
			return nil, false
		}
		return &meta, true
	}
	return nil, false
}

// templateName derives a display name from the filename
func templateName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}
