package app

import "quiz-client/internal/domain"

// AnswerSet maps each question of the active attempt to its selected options.
// Keys are fixed when the attempt starts; selections keep insertion order.
type AnswerSet struct {
	selections map[int64][]int64
}

func newAnswerSet(questions []domain.Question) *AnswerSet {
	selections := make(map[int64][]int64, len(questions))
	for _, q := range questions {
		selections[q.ID] = []int64{}
	}
	return &AnswerSet{selections: selections}
}

// Selected returns a copy of the selection for questionID.
func (a *AnswerSet) Selected(questionID int64) []int64 {
	if a == nil {
		return nil
	}
	current := a.selections[questionID]
	out := make([]int64, len(current))
	copy(out, current)
	return out
}

// choose replaces the selection with exactly optionID (radio semantics).
func (a *AnswerSet) choose(questionID, optionID int64) {
	if _, ok := a.selections[questionID]; !ok {
		return
	}
	a.selections[questionID] = []int64{optionID}
}

// toggle flips membership of optionID (checkbox semantics).
func (a *AnswerSet) toggle(questionID, optionID int64) {
	current, ok := a.selections[questionID]
	if !ok {
		return
	}
	next := make([]int64, 0, len(current)+1)
	found := false
	for _, id := range current {
		if id == optionID {
			found = true
			continue
		}
		next = append(next, id)
	}
	if !found {
		next = append(next, optionID)
	}
	a.selections[questionID] = next
}

func (a *AnswerSet) clear(questionID int64) {
	if _, ok := a.selections[questionID]; !ok {
		return
	}
	a.selections[questionID] = []int64{}
}

// Export copies the set into the submission wire shape.
func (a *AnswerSet) Export() map[int64][]int64 {
	out := make(map[int64][]int64, len(a.selections))
	for qid, ids := range a.selections {
		cp := make([]int64, len(ids))
		copy(cp, ids)
		out[qid] = cp
	}
	return out
}
