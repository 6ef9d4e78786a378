package domain

// OtherOption is the reserved option name that enables a free-text custom value.
const OtherOption = "Other"

type Option struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Property is a single selector in a subcategory's property chain.
// HasChild and ChildPropertyID are carried with the data but the cascade never follows them.
type Property struct {
	ID              int      `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Options         []Option `json:"options" yaml:"options"`
	HasChild        bool     `json:"hasChild,omitempty" yaml:"hasChild,omitempty"`
	ChildPropertyID int      `json:"childPropertyId,omitempty" yaml:"childPropertyId,omitempty"`
}

type Subcategory struct {
	ID         int        `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Properties []Property `json:"properties" yaml:"properties"`
}

type Category struct {
	ID       int           `json:"id" yaml:"id"`
	Name     string        `json:"name" yaml:"name"`
	Children []Subcategory `json:"children" yaml:"children"`
}

// OptionNames returns the option names in declared order.
func (p Property) OptionNames() []string {
	names := make([]string, 0, len(p.Options))
	for _, o := range p.Options {
		names = append(names, o.Name)
	}
	return names
}

// HasOther reports whether the option list declares the "Other" sentinel.
func (p Property) HasOther() bool {
	for _, o := range p.Options {
		if o.Name == OtherOption {
			return true
		}
	}
	return false
}
