package utils

import (
	"fmt"
	"strings"
	"testing"
)

func TestValidateMarkup(t *testing.T) {
	tests := []struct {
		name    string
		markup  string
		wantErr bool
	}{
		{"simple document", "<html><body></body></html>", false},
		{"broken markup accepted", "<div><p>unclosed", false},
		{"empty", "", true},
		{"null byte", "<p>\x00</p>", true},
		{"oversized", strings.Repeat("a", MaxMarkupSize+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMarkup(tt.markup)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMarkup() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePatch(t *testing.T) {
	tests := []struct {
		name    string
		props   map[string]string
		wantErr bool
	}{
		{"style patch", map[string]string{"background": "red"}, false},
		{"innerHTML patch", map[string]string{"innerHTML": "<b>x</b>"}, false},
		{"src patch", map[string]string{"src": "https://example.com/a.png"}, false},
		{"vendor prefix", map[string]string{"-webkit-transform": "none"}, false},
		{"empty patch", map[string]string{}, true},
		{"bad name", map[string]string{"back ground": "red"}, true},
		{"name starts with digit", map[string]string{"1color": "red"}, true},
		{"null byte value", map[string]string{"color": "r\x00ed"}, true},
		{"oversized value", map[string]string{"innerHTML": strings.Repeat("x", MaxPropValue+1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePatch(tt.props)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePatch() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePatchTooManyProps(t *testing.T) {
	props := make(map[string]string, MaxPatchProps+1)
	for i := 0; i <= MaxPatchProps; i++ {
		props[fmt.Sprintf("prop-%d", i)] = "v"
	}

	if err := ValidatePatch(props); err == nil {
		t.Error("expected error for oversized patch")
	}
}

func TestValidateScript(t *testing.T) {
	if err := ValidateScript("document.title"); err != nil {
		t.Errorf("valid script rejected: %v", err)
	}
	if err := ValidateScript(""); err == nil {
		t.Error("empty script should be rejected")
	}
	if err := ValidateScript(strings.Repeat("x", MaxScriptSize+1)); err == nil {
		t.Error("oversized script should be rejected")
	}
}

func TestValidateID(t *testing.T) {
	if err := ValidateID("el_01HXYZ", "element_id", true); err != nil {
		t.Errorf("valid id rejected: %v", err)
	}
	if err := ValidateID("el/../etc", "element_id", true); err == nil {
		t.Error("path-like id should be rejected")
	}
	if err := ValidateID("", "element_id", true); err == nil {
		t.Error("missing required id should be rejected")
	}
	if err := ValidateID("", "element_id", false); err != nil {
		t.Errorf("optional empty id should pass: %v", err)
	}
}

func TestValidateCategory(t *testing.T) {
	if err := ValidateCategory("landing-pages", false); err != nil {
		t.Errorf("valid category rejected: %v", err)
	}
	if err := ValidateCategory("Landing Pages", false); err == nil {
		t.Error("uppercase category should be rejected")
	}
}
