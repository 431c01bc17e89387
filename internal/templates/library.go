// Package templates manages the starter document library.
//
// Templates come from two places: built-in starters seeded at boot, and
// HTML files scanned from the template directory with optional YAML
// manifests carrying their metadata. The library keeps everything in
// memory; the scan is cheap enough to rerun when the directory changes.
package templates

import (
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/PageForge/backend/internal/shared/id"
	"github.com/GriffinCanCode/PageForge/backend/internal/shared/types"
	"github.com/GriffinCanCode/PageForge/backend/internal/shared/utils"
)

// Library holds the available starter documents
type Library struct {
	templates sync.Map
}

// NewLibrary creates an empty template library
func NewLibrary() *Library {
	return &Library{}
}

// Save adds or replaces a template. A missing ID gets generated; a
// missing name is rejected.
func (l *Library) Save(tpl *types.Template) error {
	if tpl.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if err := utils.ValidateName(tpl.Name, "template name"); err != nil {
		return err
	}
	if err := utils.ValidateMarkup(tpl.Markup); err != nil {
		return err
	}

	if tpl.ID == "" {
		tpl.ID = id.NewTemplateID().String()
	}

	tpl.UpdatedAt = time.Now()
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = tpl.UpdatedAt
	}

	l.templates.Store(tpl.ID, tpl)
	return nil
}

// Get retrieves a template by ID
func (l *Library) Get(tplID string) (*types.Template, bool) {
	val, ok := l.templates.Load(tplID)
	if !ok {
		return nil, false
	}
	return val.(*types.Template), true
}

// List returns all templates, optionally filtered by category
func (l *Library) List(category *string) []*types.Template {
	var out []*types.Template
	l.templates.Range(func(_, value interface{}) bool {
		tpl := value.(*types.Template)
		if category == nil || tpl.Category == *category {
			out = append(out, tpl)
		}
		return true
	})
	return out
}

// ListMetadata returns summary records for all templates
func (l *Library) ListMetadata(category *string) []types.TemplateMetadata {
	tpls := l.List(category)
	metadata := make([]types.TemplateMetadata, len(tpls))
	for i, tpl := range tpls {
		metadata[i] = tpl.ToMetadata()
	}
	return metadata
}

// Delete removes a template
func (l *Library) Delete(tplID string) {
	l.templates.Delete(tplID)
}

// Exists checks if a template is present
func (l *Library) Exists(tplID string) bool {
	_, ok := l.templates.Load(tplID)
	return ok
}

// Stats returns library statistics
func (l *Library) Stats() types.LibraryStats {
	var total int
	categories := make(map[string]int)
	var lastUpdated *time.Time

	l.templates.Range(func(_, value interface{}) bool {
		tpl := value.(*types.Template)
		total++
		categories[tpl.Category]++

		if lastUpdated == nil || tpl.UpdatedAt.After(*lastUpdated) {
			t := tpl.UpdatedAt
			lastUpdated = &t
		}
		return true
	})

	return types.LibraryStats{
		TotalTemplates: total,
		Categories:     categories,
		LastUpdated:    lastUpdated,
	}
}
