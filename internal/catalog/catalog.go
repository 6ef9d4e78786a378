// Package catalog holds the read-only category tree that drives the selection form.
package catalog

import (
	"fmt"

	"catalog/selector/internal/domain"
)

// Catalog is an immutable Category -> Subcategory -> Property -> Option tree.
// All accessors return copies, so a Catalog is safe for concurrent readers.
type Catalog struct {
	categories []domain.Category
	byID       map[int]int
	properties map[int]domain.Property
}

// New validates categories and returns a Catalog built from a deep copy of them.
func New(categories []domain.Category) (*Catalog, error) {
	c := &Catalog{
		categories: cloneCategories(categories),
		byID:       make(map[int]int, len(categories)),
		properties: make(map[int]domain.Property),
	}

	for i, cat := range c.categories {
		if cat.ID <= 0 {
			return nil, fmt.Errorf("category %q: id must be positive, got %d", cat.Name, cat.ID)
		}
		if _, dup := c.byID[cat.ID]; dup {
			return nil, fmt.Errorf("duplicate category id %d", cat.ID)
		}
		c.byID[cat.ID] = i

		subIDs := make(map[int]struct{}, len(cat.Children))
		for _, sub := range cat.Children {
			if sub.ID <= 0 {
				return nil, fmt.Errorf("category %d: subcategory %q: id must be positive, got %d", cat.ID, sub.Name, sub.ID)
			}
			if _, dup := subIDs[sub.ID]; dup {
				return nil, fmt.Errorf("category %d: duplicate subcategory id %d", cat.ID, sub.ID)
			}
			subIDs[sub.ID] = struct{}{}

			for _, prop := range sub.Properties {
				if prop.ID <= 0 {
					return nil, fmt.Errorf("subcategory %d: property %q: id must be positive, got %d", sub.ID, prop.Name, prop.ID)
				}
				if _, dup := c.properties[prop.ID]; dup {
					return nil, fmt.Errorf("duplicate property id %d", prop.ID)
				}
				c.properties[prop.ID] = prop
			}
		}
	}

	for _, prop := range c.properties {
		if prop.ChildPropertyID == 0 {
			continue
		}
		if _, ok := c.properties[prop.ChildPropertyID]; !ok {
			return nil, fmt.Errorf("property %d: child property %d does not exist", prop.ID, prop.ChildPropertyID)
		}
	}

	return c, nil
}

// MustNew is like New but panics on an invalid tree. Intended for static data.
func MustNew(categories []domain.Category) *Catalog {
	c, err := New(categories)
	if err != nil {
		panic(err)
	}
	return c
}

// Categories returns all categories in declared order.
func (c *Catalog) Categories() []domain.Category {
	return cloneCategories(c.categories)
}

func (c *Catalog) FindCategory(id int) (domain.Category, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Category{}, false
	}
	return cloneCategory(c.categories[i]), true
}

func (c *Catalog) FindSubcategory(categoryID, id int) (domain.Subcategory, bool) {
	i, ok := c.byID[categoryID]
	if !ok {
		return domain.Subcategory{}, false
	}
	for _, sub := range c.categories[i].Children {
		if sub.ID == id {
			return cloneSubcategory(sub), true
		}
	}
	return domain.Subcategory{}, false
}

func (c *Catalog) FindProperty(id int) (domain.Property, bool) {
	p, ok := c.properties[id]
	if !ok {
		return domain.Property{}, false
	}
	return cloneProperty(p), true
}

// PropertyChainOf returns the properties of sub in declared order.
// ChildPropertyID links are not expanded.
func (c *Catalog) PropertyChainOf(sub domain.Subcategory) []domain.Property {
	out := make([]domain.Property, 0, len(sub.Properties))
	for _, p := range sub.Properties {
		out = append(out, cloneProperty(p))
	}
	return out
}

// IsValidOption reports whether name is one of the property's options or the "Other" sentinel.
func (c *Catalog) IsValidOption(prop domain.Property, name string) bool {
	if name == domain.OtherOption {
		return true
	}
	for _, o := range prop.Options {
		if o.Name == name {
			return true
		}
	}
	return false
}

// ResolveOptionLabel returns the display value of an answer.
func (c *Catalog) ResolveOptionLabel(_ domain.Property, answer domain.Answer) string {
	if answer.IsOther() {
		return answer.CustomValue
	}
	return answer.SelectedOption
}

func cloneCategories(in []domain.Category) []domain.Category {
	out := make([]domain.Category, 0, len(in))
	for _, cat := range in {
		out = append(out, cloneCategory(cat))
	}
	return out
}

func cloneCategory(cat domain.Category) domain.Category {
	out := cat
	out.Children = make([]domain.Subcategory, 0, len(cat.Children))
	for _, sub := range cat.Children {
		out.Children = append(out.Children, cloneSubcategory(sub))
	}
	return out
}

func cloneSubcategory(sub domain.Subcategory) domain.Subcategory {
	out := sub
	out.Properties = make([]domain.Property, 0, len(sub.Properties))
	for _, p := range sub.Properties {
		out.Properties = append(out.Properties, cloneProperty(p))
	}
	return out
}

func cloneProperty(p domain.Property) domain.Property {
	out := p
	out.Options = make([]domain.Option, len(p.Options))
	copy(out.Options, p.Options)
	return out
}
