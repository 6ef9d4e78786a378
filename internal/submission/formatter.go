// Package submission validates a finished selection and turns it into display labels.
package submission

import (
	"catalog/selector/internal/domain"
)

const (
	msgMainCategory = "Please select a main category"
	msgSubcategory  = "Please select a subcategory"
	msgOption       = "Please select an option"
	msgCustomValue  = "Please enter a custom value"
)

// Catalog is the read-only lookup surface the formatter needs.
type Catalog interface {
	FindCategory(id int) (domain.Category, bool)
	FindSubcategory(categoryID, id int) (domain.Subcategory, bool)
	PropertyChainOf(sub domain.Subcategory) []domain.Property
	IsValidOption(prop domain.Property, name string) bool
	ResolveOptionLabel(prop domain.Property, answer domain.Answer) string
}

type Formatter struct {
	catalog Catalog
}

func NewFormatter(catalog Catalog) *Formatter {
	return &Formatter{catalog: catalog}
}

// Submit validates sel and builds the ordered result. On failure the error is a
// domain.ValidationErrors holding one entry per invalid field. sel is never modified.
func (f *Formatter) Submit(sel domain.Selection) (*domain.SubmissionResult, error) {
	category, ok := f.catalog.FindCategory(sel.MainCategoryID)
	if !ok {
		// Without a category there is no subcategory or chain to check.
		return nil, domain.ValidationErrors{
			{Field: domain.FieldMainCategory, Message: msgMainCategory, Kind: domain.ErrMissingMainCategory},
			{Field: domain.FieldSubcategory, Message: msgSubcategory, Kind: domain.ErrMissingSubcategory},
		}
	}

	sub, ok := f.catalog.FindSubcategory(category.ID, sel.SubcategoryID)
	if !ok {
		return nil, domain.ValidationErrors{
			{Field: domain.FieldSubcategory, Message: msgSubcategory, Kind: domain.ErrMissingSubcategory},
		}
	}

	chain := f.catalog.PropertyChainOf(sub)

	var errs domain.ValidationErrors
	for _, prop := range chain {
		if fe := f.checkAnswer(prop, sel.Answers); fe != nil {
			errs = append(errs, fe)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	result := domain.NewSubmissionResult()
	result.Set(domain.LabelMainCategory, category.Name)
	result.Set(domain.LabelSubcategory, sub.Name)
	for _, prop := range chain {
		result.Set(prop.Name, f.catalog.ResolveOptionLabel(prop, sel.Answers[prop.ID]))
	}
	return result, nil
}

func (f *Formatter) checkAnswer(prop domain.Property, answers map[int]domain.Answer) *domain.FieldError {
	incomplete := func(msg string) *domain.FieldError {
		return &domain.FieldError{
			Field:      domain.PropertyField(prop.ID),
			PropertyID: prop.ID,
			Message:    msg,
			Kind:       domain.ErrIncompletePropertyAnswer,
		}
	}

	answer, ok := answers[prop.ID]
	switch {
	case !ok, answer.SelectedOption == "":
		return incomplete(msgOption)
	case !f.catalog.IsValidOption(prop, answer.SelectedOption):
		return incomplete(msgOption)
	case answer.IsOther() && answer.CustomValue == "":
		return incomplete(msgCustomValue)
	}
	return nil
}
