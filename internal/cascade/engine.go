// Package cascade implements the selection state machine behind the form:
// main category -> subcategory -> property chain. Changing a level resets
// every level below it.
package cascade

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"catalog/selector/internal/domain"
	"catalog/selector/internal/submission"
)

// Catalog is the read-only lookup surface the engine needs.
type Catalog interface {
	submission.Catalog
}

// Engine owns one live Selection together with the last submission outcome.
// It is not safe for concurrent use; callers serialize access.
type Engine struct {
	catalog   Catalog
	formatter *submission.Formatter

	selection domain.Selection
	chain     []domain.Property
	result    *domain.SubmissionResult
	errs      domain.ValidationErrors
}

func NewEngine(catalog Catalog) *Engine {
	return &Engine{
		catalog:   catalog,
		formatter: submission.NewFormatter(catalog),
		selection: domain.NewSelection(),
	}
}

// SetMainCategory selects a main category and clears the subcategory, the
// answers and the active chain. Unknown ids are accepted and simply have no
// subcategories; 0 unsets the main category.
func (e *Engine) SetMainCategory(id int) {
	e.selection = domain.Selection{
		MainCategoryID: id,
		Answers:        make(map[int]domain.Answer),
	}
	e.chain = nil

	log.Debugf("Main category set to %d", id)
}

// SetSubcategory selects a child of the current main category, clears the
// answers and recomputes the active chain. The reset happens even when id is
// already selected.
func (e *Engine) SetSubcategory(id int) error {
	sub, ok := e.catalog.FindSubcategory(e.selection.MainCategoryID, id)
	if !ok {
		log.Warnf("Rejected subcategory %d for main category %d", id, e.selection.MainCategoryID)
		return fmt.Errorf("%w: subcategory %d is not a child of main category %d",
			domain.ErrInvalidSelection, id, e.selection.MainCategoryID)
	}

	e.selection.SubcategoryID = sub.ID
	e.selection.Answers = make(map[int]domain.Answer)
	e.chain = e.catalog.PropertyChainOf(sub)

	log.Debugf("Subcategory set to %d (%d properties)", sub.ID, len(e.chain))
	return nil
}

// ClearSubcategory unsets the subcategory along with the answers and the chain.
func (e *Engine) ClearSubcategory() {
	e.selection.SubcategoryID = 0
	e.selection.Answers = make(map[int]domain.Answer)
	e.chain = nil
}

// SetAnswer records the answer for a property of the active chain, replacing
// any earlier answer for it. customValue is kept only with the "Other" option.
func (e *Engine) SetAnswer(propertyID int, selectedOption, customValue string) error {
	prop, ok := e.activeProperty(propertyID)
	if !ok {
		log.Warnf("Rejected answer for property %d outside the active chain", propertyID)
		return fmt.Errorf("%w: property %d is not in the active chain", domain.ErrStalePropertyReference, propertyID)
	}
	if selectedOption == "" {
		return fmt.Errorf("%w: property %d", domain.ErrEmptyOption, propertyID)
	}
	if !e.catalog.IsValidOption(prop, selectedOption) {
		return fmt.Errorf("%w: %q is not an option of property %d", domain.ErrUnknownOption, selectedOption, propertyID)
	}

	answer := domain.Answer{PropertyID: propertyID, SelectedOption: selectedOption}
	if answer.IsOther() {
		answer.CustomValue = customValue
	}
	e.selection.Answers[propertyID] = answer
	return nil
}

// ClearAnswer drops the answer for a property of the active chain.
func (e *Engine) ClearAnswer(propertyID int) error {
	if _, ok := e.activeProperty(propertyID); !ok {
		return fmt.Errorf("%w: property %d is not in the active chain", domain.ErrStalePropertyReference, propertyID)
	}
	delete(e.selection.Answers, propertyID)
	return nil
}

// Reset returns the engine to its initial state, dropping the last result and
// any validation errors.
func (e *Engine) Reset() {
	e.selection = domain.NewSelection()
	e.chain = nil
	e.result = nil
	e.errs = nil

	log.Debug("Selection reset")
}

// Submit validates the current selection. On success the stored result is
// replaced and validation errors are cleared. On failure the validation errors
// are stored and returned, and the previous result is kept.
func (e *Engine) Submit() (*domain.SubmissionResult, error) {
	result, err := e.formatter.Submit(e.selection)
	if err != nil {
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			e.errs = verrs
		}
		return nil, err
	}

	e.result = result
	e.errs = nil
	return result, nil
}

// Restore replays sel through the transitions, so a snapshot that no longer
// fits the catalog is rejected instead of loaded.
func (e *Engine) Restore(sel domain.Selection) error {
	e.Reset()
	if sel.MainCategoryID == 0 {
		return nil
	}

	e.SetMainCategory(sel.MainCategoryID)
	if sel.SubcategoryID == 0 {
		return nil
	}
	if err := e.SetSubcategory(sel.SubcategoryID); err != nil {
		e.Reset()
		return fmt.Errorf("failed to restore selection: %w", err)
	}
	for _, prop := range e.chain {
		a, ok := sel.Answers[prop.ID]
		if !ok {
			continue
		}
		if err := e.SetAnswer(prop.ID, a.SelectedOption, a.CustomValue); err != nil {
			e.Reset()
			return fmt.Errorf("failed to restore selection: %w", err)
		}
	}
	if len(e.selection.Answers) != len(sel.Answers) {
		e.Reset()
		return fmt.Errorf("failed to restore selection: %w: answers outside the active chain", domain.ErrStalePropertyReference)
	}
	return nil
}

// RestoreResult reinstates a previously accepted submission result. It is used
// together with Restore when a session is reloaded.
func (e *Engine) RestoreResult(result *domain.SubmissionResult) {
	e.result = result
}

// State returns a copy of the current selection.
func (e *Engine) State() domain.Selection {
	return e.selection.Clone()
}

// ActiveChain returns the properties currently offered to the user.
func (e *Engine) ActiveChain() []domain.Property {
	return append([]domain.Property(nil), e.chain...)
}

// Subcategories returns the children of the selected main category, or nil
// when none is selected or it does not resolve.
func (e *Engine) Subcategories() []domain.Subcategory {
	cat, ok := e.catalog.FindCategory(e.selection.MainCategoryID)
	if !ok {
		return nil
	}
	return cat.Children
}

// Result returns the last successful submission, or nil.
func (e *Engine) Result() *domain.SubmissionResult {
	return e.result
}

// Errors returns the validation errors of the last failed submit.
func (e *Engine) Errors() domain.ValidationErrors {
	return append(domain.ValidationErrors(nil), e.errs...)
}

func (e *Engine) activeProperty(id int) (domain.Property, bool) {
	for _, p := range e.chain {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Property{}, false
}
