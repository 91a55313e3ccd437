package cv

import "iter"

// Scheme selects the partitioning strategy.
type Scheme int

const (
	// LeaveOneOut holds out one structure per fold.
	LeaveOneOut Scheme = iota
	// LeaveTwoOut holds out every unordered pair of structures.
	LeaveTwoOut
	// LeaveManyOut holds out randomized groups, repeated over runs.
	LeaveManyOut
)

func (s Scheme) String() string {
	switch s {
	case LeaveOneOut:
		return "loo"
	case LeaveTwoOut:
		return "lto"
	case LeaveManyOut:
		return "lmo"
	default:
		return "unknown"
	}
}

// ParseScheme is the inverse of Scheme.String.
func ParseScheme(s string) (Scheme, bool) {
	for _, sc := range []Scheme{LeaveOneOut, LeaveTwoOut, LeaveManyOut} {
		if sc.String() == s {
			return sc, true
		}
	}
	return 0, false
}

// Fold is one held-out set.
type Fold struct {
	Run     int
	Group   int
	HeldOut []int
}

// Plan is a complete partition.
type Plan struct {
	Scheme Scheme
	// TSS is the total sum of squared deviations of held-out structure
	// values from the training mean, summed over y variables.
	TSS float64
	// Predictions is the number of held-out predictions over all folds and
	// y variables.
	Predictions int
	FoldCount   int
	// Structures are the active structures the plan was built from.
	Structures []int
	// YVars is the number of y variables the plan covers.
	YVars int

	// Runs and Groups are set for LeaveManyOut.
	Runs   int
	Groups int
	// Assignments[run][group] lists the structures held out together.
	// Set for LeaveManyOut only.
	Assignments [][][]int
}

// Folds yields every fold of the plan in a fixed order.
func (p *Plan) Folds() iter.Seq[Fold] {
	return func(yield func(Fold) bool) {
		switch p.Scheme {
		case LeaveOneOut:
			for i, s := range p.Structures {
				if !yield(Fold{Group: i, HeldOut: []int{s}}) {
					return
				}
			}
		case LeaveTwoOut:
			k := 0
			for i := 0; i < len(p.Structures); i++ {
				for j := i + 1; j < len(p.Structures); j++ {
					if !yield(Fold{Group: k, HeldOut: []int{p.Structures[i], p.Structures[j]}}) {
						return
					}
					k++
				}
			}
		case LeaveManyOut:
			for r, groups := range p.Assignments {
				for g, members := range groups {
					if !yield(Fold{Run: r, Group: g, HeldOut: members}) {
						return
					}
				}
			}
		}
	}
}
