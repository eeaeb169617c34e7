// Package project defines the showcase Project entity and its uploaded files.
package project

import "time"

// Type selects how a project is rendered.
type Type string

const (
	// TypeFile projects are rendered by merging their uploaded files.
	TypeFile Type = "file"
	// TypeURL projects are rendered by navigating to or embedding URL.
	TypeURL Type = "url"
)

// DisplayType selects how the gallery opens a project.
type DisplayType string

const (
	DisplayPreview DisplayType = "preview"
	DisplayLink    DisplayType = "link"
)

// Project is a gallery entry: either a bundle of uploaded files or an external URL.
type Project struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	URL         string      `json:"url"`
	DisplayType DisplayType `json:"display_type"`
	IsActive    bool        `json:"is_active"`
	ProjectType Type        `json:"project_type"`

	// FileName is the markup entry point of a file project.
	FileName string `json:"file_name,omitempty"`
	// FileContent is the legacy single-file inline payload. It is only
	// consulted when Files is empty.
	FileContent string  `json:"file_content,omitempty"`
	Files       FileSet `json:"files"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// File is one uploaded source file of a project. Exactly one of Content
// and URL is authoritative for retrieval; Content wins when both are set.
type File struct {
	Name     string `json:"name"`
	Content  string `json:"content,omitempty"` // data:<mime>;base64,<payload>
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size"`
}

// Inline reports whether the file carries its bytes in Content.
func (f File) Inline() bool {
	return f.Content != ""
}

// CreateRequest holds the fields needed to create a new project.
type CreateRequest struct {
	// ID is optional. It is set when files were uploaded to object storage
	// under a pre-allocated project ID.
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	URL         string      `json:"url"`
	DisplayType DisplayType `json:"display_type"`
	IsActive    *bool       `json:"is_active"`
	ProjectType Type        `json:"project_type"`
	Files       FileSet     `json:"files"`
	FileContent string      `json:"file_content,omitempty"`
}

// UpdateRequest holds the fields that may be changed on an existing project.
// Nil fields are left untouched.
type UpdateRequest struct {
	Name        *string      `json:"name"`
	Description *string      `json:"description"`
	URL         *string      `json:"url"`
	DisplayType *DisplayType `json:"display_type"`
	IsActive    *bool        `json:"is_active"`
	ProjectType *Type        `json:"project_type"`
	Files       *FileSet     `json:"files"`
}

// Normalize fills defaults and derives the file-mode fields (FileName, URL,
// FileContent) from Files. It is applied before a project is persisted.
func (p *Project) Normalize() {
	if p.DisplayType == "" {
		p.DisplayType = DisplayPreview
	}
	if p.ProjectType == "" {
		p.ProjectType = TypeURL
	}
	if p.ProjectType != TypeFile {
		p.FileName = ""
		p.FileContent = ""
		p.Files = FileSet{}
		return
	}

	p.Files.fillMimeTypes()

	markup, ok := p.Files.Markup()
	if !ok {
		return
	}
	p.FileName = markup.File.Name
	if p.FileName == "" {
		p.FileName = markup.Key
	}
	p.URL = "projects/" + p.FileName
	if markup.File.Inline() {
		p.FileContent = markup.File.Content
	} else {
		p.FileContent = ""
	}
}
