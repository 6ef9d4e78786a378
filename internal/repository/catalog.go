package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"catalog/selector/internal/domain"
)

type categoryRow struct {
	ID   int
	Name string
}

type subcategoryRow struct {
	CategoryID int
	ID         int
	Name       string
}

type propertyRow struct {
	ID              int
	CategoryID      int
	SubcategoryID   int
	Name            string
	HasChild        bool
	ChildPropertyID *int
}

type optionRow struct {
	PropertyID int
	ID         int
	Name       string
}

// CatalogRepository reads the category tree from Postgres. It implements catalog.Source.
type CatalogRepository struct {
	db DB
}

func NewCatalogRepository(db DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) LoadCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := queryRows(ctx, r.db,
		`SELECT id, name FROM categories ORDER BY position, id`,
		func(row pgx.CollectableRow) (categoryRow, error) {
			var c categoryRow
			err := row.Scan(&c.ID, &c.Name)
			return c, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	subcategories, err := queryRows(ctx, r.db,
		`SELECT category_id, id, name FROM subcategories ORDER BY category_id, position, id`,
		func(row pgx.CollectableRow) (subcategoryRow, error) {
			var s subcategoryRow
			err := row.Scan(&s.CategoryID, &s.ID, &s.Name)
			return s, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to load subcategories: %w", err)
	}

	properties, err := queryRows(ctx, r.db,
		`SELECT id, category_id, subcategory_id, name, has_child, child_property_id
		FROM properties ORDER BY category_id, subcategory_id, position, id`,
		func(row pgx.CollectableRow) (propertyRow, error) {
			var p propertyRow
			err := row.Scan(&p.ID, &p.CategoryID, &p.SubcategoryID, &p.Name, &p.HasChild, &p.ChildPropertyID)
			return p, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}

	options, err := queryRows(ctx, r.db,
		`SELECT property_id, id, name FROM options ORDER BY property_id, position, id`,
		func(row pgx.CollectableRow) (optionRow, error) {
			var o optionRow
			err := row.Scan(&o.PropertyID, &o.ID, &o.Name)
			return o, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to load options: %w", err)
	}

	return assembleTree(categories, subcategories, properties, options)
}

func queryRows[T any](ctx context.Context, db DB, sql string, scan func(pgx.CollectableRow) (T, error)) ([]T, error) {
	rows, err := db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scan)
}

// assembleTree nests flat rows, keeping the order of each input slice.
func assembleTree(
	categories []categoryRow,
	subcategories []subcategoryRow,
	properties []propertyRow,
	options []optionRow,
) ([]domain.Category, error) {
	type subKey struct{ categoryID, id int }

	optionsByProperty := make(map[int][]domain.Option)
	for _, o := range options {
		optionsByProperty[o.PropertyID] = append(optionsByProperty[o.PropertyID], domain.Option{ID: o.ID, Name: o.Name})
	}

	propertiesBySub := make(map[subKey][]domain.Property)
	for _, p := range properties {
		prop := domain.Property{
			ID:       p.ID,
			Name:     p.Name,
			Options:  optionsByProperty[p.ID],
			HasChild: p.HasChild,
		}
		if p.ChildPropertyID != nil {
			prop.ChildPropertyID = *p.ChildPropertyID
		}
		key := subKey{p.CategoryID, p.SubcategoryID}
		propertiesBySub[key] = append(propertiesBySub[key], prop)
	}

	subsByCategory := make(map[int][]domain.Subcategory)
	for _, s := range subcategories {
		subsByCategory[s.CategoryID] = append(subsByCategory[s.CategoryID], domain.Subcategory{
			ID:         s.ID,
			Name:       s.Name,
			Properties: propertiesBySub[subKey{s.CategoryID, s.ID}],
		})
	}

	known := make(map[int]bool, len(categories))
	out := make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		known[c.ID] = true
		out = append(out, domain.Category{
			ID:       c.ID,
			Name:     c.Name,
			Children: subsByCategory[c.ID],
		})
	}

	for _, s := range subcategories {
		if !known[s.CategoryID] {
			return nil, fmt.Errorf("subcategory %d references unknown category %d", s.ID, s.CategoryID)
		}
	}

	return out, nil
}
