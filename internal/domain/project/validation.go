package project

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/Strob0t/showcase/internal/domain"
)

// ValidateCreateRequest validates the fields of a project creation request.
func ValidateCreateRequest(req *CreateRequest) error {
	if err := validateName(req.Name); err != nil {
		return err
	}
	if strings.TrimSpace(req.Description) == "" {
		return fmt.Errorf("description is required: %w", domain.ErrValidation)
	}
	if len(req.Description) > 2000 {
		return fmt.Errorf("description exceeds 2000 characters: %w", domain.ErrValidation)
	}
	if err := validateDisplayType(req.DisplayType); err != nil {
		return err
	}

	switch req.ProjectType {
	case TypeURL, "":
		return validateProjectURL(req.URL)
	case TypeFile:
		if req.Files.Len() == 0 && req.FileContent != "" {
			return nil
		}
		return validateFiles(req.Files)
	default:
		return fmt.Errorf("unknown project_type %q: %w", req.ProjectType, domain.ErrValidation)
	}
}

// ValidateUpdateRequest validates the fields of a project update request.
// The resulting project is validated again after the update is applied.
func ValidateUpdateRequest(req *UpdateRequest) error {
	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			return err
		}
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return fmt.Errorf("description cannot be empty: %w", domain.ErrValidation)
		}
		if len(*req.Description) > 2000 {
			return fmt.Errorf("description exceeds 2000 characters: %w", domain.ErrValidation)
		}
	}
	if req.DisplayType != nil {
		if err := validateDisplayType(*req.DisplayType); err != nil {
			return err
		}
	}
	if req.ProjectType != nil && *req.ProjectType != TypeURL && *req.ProjectType != TypeFile {
		return fmt.Errorf("unknown project_type %q: %w", *req.ProjectType, domain.ErrValidation)
	}
	if req.Files != nil && req.Files.Len() > 0 {
		return validateFiles(*req.Files)
	}
	return nil
}

// Validate checks a fully assembled project.
func (p *Project) Validate() error {
	switch p.ProjectType {
	case TypeURL:
		return validateProjectURL(p.URL)
	case TypeFile:
		if p.Files.Len() == 0 {
			if p.FileContent == "" {
				return fmt.Errorf("file project has no files: %w", domain.ErrValidation)
			}
			return nil
		}
		return validateFiles(p.Files)
	default:
		return fmt.Errorf("unknown project_type %q: %w", p.ProjectType, domain.ErrValidation)
	}
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if len(name) > 255 {
		return fmt.Errorf("name exceeds 255 characters: %w", domain.ErrValidation)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("name contains control characters: %w", domain.ErrValidation)
		}
	}
	return nil
}

func validateDisplayType(dt DisplayType) error {
	switch dt {
	case "", DisplayPreview, DisplayLink:
		return nil
	default:
		return fmt.Errorf("unknown display_type %q: %w", dt, domain.ErrValidation)
	}
}

func validateProjectURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required: %w", domain.ErrValidation)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("url must be an absolute http(s) URL: %w", domain.ErrValidation)
	}
	return nil
}

func validateFiles(files FileSet) error {
	if files.Len() == 0 {
		return fmt.Errorf("at least one file is required: %w", domain.ErrValidation)
	}
	for _, e := range files.Entries() {
		name := e.DisplayName()
		if name == "" {
			return fmt.Errorf("file name is required: %w", domain.ErrValidation)
		}
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return fmt.Errorf("file name %q must not contain path separators: %w", name, domain.ErrValidation)
		}
		if e.File.Content != "" && !strings.HasPrefix(e.File.Content, "data:") {
			return fmt.Errorf("file %q content must be a data URL: %w", name, domain.ErrValidation)
		}
		if e.File.Content == "" && e.File.URL != "" {
			u, err := url.Parse(e.File.URL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				return fmt.Errorf("file %q url must be http(s): %w", name, domain.ErrValidation)
			}
		}
	}
	if _, ok := files.Markup(); !ok {
		return fmt.Errorf("an .html or .htm file is required: %w", domain.ErrValidation)
	}
	return nil
}
