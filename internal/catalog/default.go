package catalog

import "catalog/selector/internal/domain"

var defaultCategories = []domain.Category{
	{
		ID:   1,
		Name: "Cars",
		Children: []domain.Subcategory{
			{
				ID:   11,
				Name: "Toyota",
				Properties: []domain.Property{
					{
						ID:   101,
						Name: "Model",
						Options: []domain.Option{
							{ID: 1, Name: "Camry"},
							{ID: 2, Name: "Corolla"},
							{ID: 3, Name: domain.OtherOption},
						},
						HasChild:        true,
						ChildPropertyID: 102,
					},
					{
						ID:   102,
						Name: "Type",
						Options: []domain.Option{
							{ID: 4, Name: "Sedan"},
							{ID: 5, Name: "SUV"},
							{ID: 6, Name: domain.OtherOption},
						},
					},
				},
			},
			{
				ID:   12,
				Name: "Honda",
				Properties: []domain.Property{
					{
						ID:   103,
						Name: "Model",
						Options: []domain.Option{
							{ID: 7, Name: "Civic"},
							{ID: 8, Name: "Accord"},
							{ID: 9, Name: domain.OtherOption},
						},
					},
				},
			},
		},
	},
	{
		ID:   2,
		Name: "Electronics",
		Children: []domain.Subcategory{
			{
				ID:   21,
				Name: "Phones",
				Properties: []domain.Property{
					{
						ID:   104,
						Name: "Brand",
						Options: []domain.Option{
							{ID: 10, Name: "Apple"},
							{ID: 11, Name: "Samsung"},
							{ID: 12, Name: domain.OtherOption},
						},
					},
				},
			},
		},
	},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return MustNew(defaultCategories)
}
