package types

import "time"

// Template represents an installable starter document
type Template struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Tags        []string  `json:"tags"`

	// Markup is the raw, untagged document body
	Markup string `json:"markup"`
}

// TemplateMetadata contains summary information about a template
type TemplateMetadata struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
	Tags        []string  `json:"tags"`
}

// ToMetadata extracts metadata from a template
func (t *Template) ToMetadata() TemplateMetadata {
	return TemplateMetadata{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Category:    t.Category,
		Author:      t.Author,
		CreatedAt:   t.CreatedAt,
		Tags:        t.Tags,
	}
}

// LibraryStats contains template library statistics
type LibraryStats struct {
	TotalTemplates int            `json:"total_templates"`
	Categories     map[string]int `json:"categories"`
	LastUpdated    *time.Time     `json:"last_updated,omitempty"`
}
