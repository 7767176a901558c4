package models

import (
	"path/filepath"
	"strings"
)

// Upload represents a file attached to a single request. It is read into
// memory once and dropped when the request ends.
type Upload struct {
	Data        []byte `json:"-"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// Name returns the lower-cased base name of the declared filename.
func (u *Upload) Name() string {
	if u == nil {
		return ""
	}
	name := strings.ToLower(strings.TrimSpace(u.Filename))
	if name == "" {
		return ""
	}
	return filepath.Base(strings.ReplaceAll(name, "\\", "/"))
}

// Ext returns the lower-cased extension including the dot.
func (u *Upload) Ext() string {
	return filepath.Ext(u.Name())
}

// MediaType strips parameters from the declared content type.
func (u *Upload) MediaType() string {
	if u == nil {
		return ""
	}
	ct, _, _ := strings.Cut(u.ContentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}
