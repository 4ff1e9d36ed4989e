package models

import (
	"errors"
	"fmt"
)

var ErrMaterialNotFound = errors.New("material not found")

type Material struct {
	Title string
	File  string
}

type SubjectMaterials struct {
	Subject   Subject
	Channel   string
	Materials []Material
}

// Catalog maps subjects to their gating channel and materials. It is read-only once built.
type Catalog struct {
	subjects map[Subject]SubjectMaterials
}

func NewCatalog(entries []SubjectMaterials) (*Catalog, error) {
	c := &Catalog{subjects: make(map[Subject]SubjectMaterials, len(entries))}

	for _, entry := range entries {
		if _, err := ToSubject(string(entry.Subject)); err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w", entry.Subject, err)
		}
		if _, exists := c.subjects[entry.Subject]; exists {
			return nil, fmt.Errorf("catalog entry %q is duplicated", entry.Subject)
		}
		c.subjects[entry.Subject] = entry
	}

	return c, nil
}

// Channel returns the gating channel of the subject. An empty string means access is not gated.
func (c *Catalog) Channel(subject Subject) string {
	return c.subjects[subject].Channel
}

func (c *Catalog) Materials(subject Subject) []Material {
	return c.subjects[subject].Materials
}

func (c *Catalog) Material(subject Subject, index int) (Material, error) {
	materials := c.subjects[subject].Materials
	if index < 0 || index >= len(materials) {
		return Material{}, ErrMaterialNotFound
	}
	return materials[index], nil
}
