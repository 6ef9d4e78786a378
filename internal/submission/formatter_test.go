package submission

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog/selector/internal/catalog"
	"catalog/selector/internal/domain"
)

func toyotaSelection(answers ...domain.Answer) domain.Selection {
	sel := domain.NewSelection()
	sel.MainCategoryID = 1
	sel.SubcategoryID = 11
	for _, a := range answers {
		sel.Answers[a.PropertyID] = a
	}
	return sel
}

func TestSubmit_ValidSelection(t *testing.T) {
	f := NewFormatter(catalog.Default())

	result, err := f.Submit(toyotaSelection(
		domain.Answer{PropertyID: 101, SelectedOption: "Camry"},
		domain.Answer{PropertyID: 102, SelectedOption: domain.OtherOption, CustomValue: "Hybrid Sedan"},
	))
	require.NoError(t, err)

	assert.Equal(t, []domain.Field{
		{Label: "Main Category", Value: "Cars"},
		{Label: "Subcategory", Value: "Toyota"},
		{Label: "Model", Value: "Camry"},
		{Label: "Type", Value: "Hybrid Sedan"},
	}, result.Fields())
}

func TestSubmit_OtherWithEmptyCustomValue(t *testing.T) {
	f := NewFormatter(catalog.Default())

	result, err := f.Submit(toyotaSelection(
		domain.Answer{PropertyID: 101, SelectedOption: "Camry"},
		domain.Answer{PropertyID: 102, SelectedOption: domain.OtherOption},
	))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, domain.ErrIncompletePropertyAnswer))

	var verrs domain.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, 102, verrs[0].PropertyID)
	assert.Equal(t, "properties.102", verrs[0].Field)
	assert.Equal(t, msgCustomValue, verrs[0].Message)
}

func TestSubmit_MissingMainCategory(t *testing.T) {
	f := NewFormatter(catalog.Default())

	_, err := f.Submit(domain.NewSelection())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingMainCategory))
	assert.False(t, errors.Is(err, domain.ErrIncompletePropertyAnswer))

	var verrs domain.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{"mainCategory", "subcategory"}, verrs.Fields())
}

func TestSubmit_UnknownMainCategory(t *testing.T) {
	f := NewFormatter(catalog.Default())

	sel := domain.NewSelection()
	sel.MainCategoryID = 77
	_, err := f.Submit(sel)
	assert.True(t, errors.Is(err, domain.ErrMissingMainCategory))
}

func TestSubmit_MissingSubcategory(t *testing.T) {
	f := NewFormatter(catalog.Default())

	sel := domain.NewSelection()
	sel.MainCategoryID = 2
	_, err := f.Submit(sel)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingSubcategory))
	assert.False(t, errors.Is(err, domain.ErrMissingMainCategory))

	// a subcategory of another category does not resolve either
	sel.SubcategoryID = 11
	_, err = f.Submit(sel)
	assert.True(t, errors.Is(err, domain.ErrMissingSubcategory))
}

func TestSubmit_ReportsEveryIncompleteProperty(t *testing.T) {
	f := NewFormatter(catalog.Default())

	_, err := f.Submit(toyotaSelection())
	var verrs domain.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, map[string]string{
		"properties.101": msgOption,
		"properties.102": msgOption,
	}, verrs.ByField())
}

func TestSubmit_RejectsUnknownOption(t *testing.T) {
	f := NewFormatter(catalog.Default())

	_, err := f.Submit(toyotaSelection(
		domain.Answer{PropertyID: 101, SelectedOption: "Civic"},
		domain.Answer{PropertyID: 102, SelectedOption: "SUV"},
	))
	var verrs domain.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, 101, verrs[0].PropertyID)
}

func TestSubmit_DoesNotMutateSelection(t *testing.T) {
	f := NewFormatter(catalog.Default())

	sel := toyotaSelection(domain.Answer{PropertyID: 101, SelectedOption: "Camry"})
	before := sel.Clone()
	_, err := f.Submit(sel)
	require.Error(t, err)
	assert.Equal(t, before, sel)
}

func TestSubmit_CustomValueIgnoredWithoutOther(t *testing.T) {
	f := NewFormatter(catalog.Default())

	sel := domain.NewSelection()
	sel.MainCategoryID = 2
	sel.SubcategoryID = 21
	sel.Answers[104] = domain.Answer{PropertyID: 104, SelectedOption: "Apple", CustomValue: "Pear"}

	result, err := f.Submit(sel)
	require.NoError(t, err)
	brand, ok := result.Get("Brand")
	require.True(t, ok)
	assert.Equal(t, "Apple", brand)
}
