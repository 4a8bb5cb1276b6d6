package classify

import (
	"fmt"

	"roidecode/domain/core"
)

// Fold is one leave-one-subject-out split
type Fold struct {
	Index   int
	Subject core.SubjectID // held-out subject
	Train   []int
	Test    []int
}

// LeaveOneSubjectOut builds one fold per distinct subject, in order of first
// appearance. Every sample lands in exactly one test set and never shares a
// fold with a training sample from the same subject.
func LeaveOneSubjectOut(subjects []core.SubjectID) ([]Fold, error) {
	var order []core.SubjectID
	members := make(map[core.SubjectID][]int)
	for i, s := range subjects {
		if _, seen := members[s]; !seen {
			order = append(order, s)
		}
		members[s] = append(members[s], i)
	}

	if len(order) < 2 {
		return nil, core.NewInsufficientDataError(
			fmt.Sprintf("leave-one-subject-out needs at least 2 subjects, got %d", len(order)))
	}

	folds := make([]Fold, len(order))
	for k, held := range order {
		test := members[held]
		train := make([]int, 0, len(subjects)-len(test))
		for i, s := range subjects {
			if s != held {
				train = append(train, i)
			}
		}
		folds[k] = Fold{Index: k, Subject: held, Train: train, Test: test}
	}
	return folds, nil
}
