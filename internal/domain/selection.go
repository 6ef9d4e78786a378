package domain

import "time"

type Answer struct {
	PropertyID     int    `json:"propertyId"`
	SelectedOption string `json:"selectedOption"`
	CustomValue    string `json:"customValue,omitempty"`
}

// IsOther reports whether the answer picked the "Other" sentinel.
func (a Answer) IsOther() bool {
	return a.SelectedOption == OtherOption
}

// Selection is the live state of one form. Zero ids mean unset.
type Selection struct {
	MainCategoryID int            `json:"mainCategoryId"`
	SubcategoryID  int            `json:"subcategoryId"`
	Answers        map[int]Answer `json:"answers"`
}

// NewSelection returns the initial, empty selection.
func NewSelection() Selection {
	return Selection{Answers: make(map[int]Answer)}
}

// Clone returns a copy that shares no map with s.
func (s Selection) Clone() Selection {
	out := Selection{
		MainCategoryID: s.MainCategoryID,
		SubcategoryID:  s.SubcategoryID,
		Answers:        make(map[int]Answer, len(s.Answers)),
	}
	for id, a := range s.Answers {
		out.Answers[id] = a
	}
	return out
}

// SessionRecord is what a session store persists for one session.
type SessionRecord struct {
	Selection Selection         `json:"selection"`
	Result    *SubmissionResult `json:"result,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}
