package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Payload size limits (in bytes)
const (
	MaxMarkupSize  = 2 * 1024 * 1024 // 2MB - full document markup limit
	MaxPropValue   = 256 * 1024      // 256KB - single property value (innerHTML can embed markup)
	MaxScriptSize  = 64 * 1024       // 64KB - run-script source limit
	MaxMessageSize = 4 * 1024 * 1024 // 4MB - single channel frame limit
)

// String length limits
const (
	MaxIDLength          = 128
	MaxNameLength        = 256
	MaxDescriptionLength = 2048
	MaxCategoryLength    = 64
	MaxTagLength         = 32
	MaxTagCount          = 20
	MaxSelectorLength    = 1024
	MaxPropNameLength    = 64
	MaxPatchProps        = 64
)

// Regular expressions for validation
var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// PropNamePattern covers CSS property names plus the handled DOM
	// properties (innerHTML, src); vendor prefixes keep a leading hyphen
	PropNamePattern = regexp.MustCompile(`^-?[a-zA-Z][a-zA-Z0-9-]*$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil // Optional field, empty is OK
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	// Check for null bytes (security issue)
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateMarkup validates full document markup before parsing.
// Structure is deliberately not checked; the parser recovers from broken
// markup the way browsers do, so only size and null bytes gate here.
func ValidateMarkup(markup string) error {
	if markup == "" {
		return fmt.Errorf("markup is required")
	}
	if len(markup) > MaxMarkupSize {
		return fmt.Errorf("markup size %d bytes exceeds maximum %d bytes", len(markup), MaxMarkupSize)
	}
	if strings.Contains(markup, "\x00") {
		return fmt.Errorf("markup contains null bytes")
	}
	return nil
}

// ValidatePatch validates a property patch before it is applied
func ValidatePatch(props map[string]string) error {
	if len(props) == 0 {
		return fmt.Errorf("patch is empty")
	}
	if len(props) > MaxPatchProps {
		return fmt.Errorf("too many properties (maximum %d)", MaxPatchProps)
	}

	for name, value := range props {
		if err := ValidateString(name, "property name", 1, MaxPropNameLength, true); err != nil {
			return err
		}
		if !PropNamePattern.MatchString(name) {
			return fmt.Errorf("property name %q contains invalid characters", name)
		}
		if len(value) > MaxPropValue {
			return fmt.Errorf("property %q value exceeds %d bytes", name, MaxPropValue)
		}
		if strings.Contains(value, "\x00") {
			return fmt.Errorf("property %q value contains null bytes", name)
		}
	}

	return nil
}

// ValidateSelector validates a CSS selector or XPath expression
func ValidateSelector(selector, fieldName string) error {
	return ValidateString(selector, fieldName, 1, MaxSelectorLength, true)
}

// ValidateScript validates script source before execution
func ValidateScript(code string) error {
	if code == "" {
		return fmt.Errorf("code is required")
	}
	if len(code) > MaxScriptSize {
		return fmt.Errorf("script size %d bytes exceeds maximum %d bytes", len(code), MaxScriptSize)
	}
	if strings.Contains(code, "\x00") {
		return fmt.Errorf("script contains null bytes")
	}
	return nil
}

// ValidateName validates a name field
func ValidateName(name, fieldName string) error {
	return ValidateString(name, fieldName, 1, MaxNameLength, true)
}

// ValidateDescription validates a description field
func ValidateDescription(description, fieldName string, required bool) error {
	return ValidateString(description, fieldName, 0, MaxDescriptionLength, required)
}

// ValidateCategory validates a category field
func ValidateCategory(category string, required bool) error {
	if err := ValidateString(category, "category", 0, MaxCategoryLength, required); err != nil {
		return err
	}

	// Category should only contain lowercase letters, numbers, and hyphens
	if category != "" && !regexp.MustCompile(`^[a-z0-9-]+$`).MatchString(category) {
		return fmt.Errorf("category must contain only lowercase letters, numbers, and hyphens")
	}

	return nil
}

// ValidateTags validates an array of tags
func ValidateTags(tags []string) error {
	if len(tags) > MaxTagCount {
		return fmt.Errorf("too many tags (maximum %d)", MaxTagCount)
	}

	for i, tag := range tags {
		if err := ValidateString(tag, fmt.Sprintf("tag[%d]", i), 1, MaxTagLength, false); err != nil {
			return err
		}
	}

	return nil
}
