package validate

// CheckID names one of the six fixed structural invariants. The set is
// closed: the correctness contract is specifically these six, not an
// open-ended rule engine.
type CheckID string

const (
	CheckBlankPages      CheckID = "blank_pages"
	CheckTextRivers      CheckID = "text_rivers"
	CheckTOCSync         CheckID = "toc_sync"
	CheckHierarchy       CheckID = "hierarchy"
	CheckRuleSuppression CheckID = "rule_suppression"
	CheckOrphanTitles    CheckID = "orphan_titles"
)

// CheckOrder is the fixed reporting order of the six checks.
var CheckOrder = []CheckID{
	CheckBlankPages,
	CheckTextRivers,
	CheckTOCSync,
	CheckHierarchy,
	CheckRuleSuppression,
	CheckOrphanTitles,
}

// Status is the outcome of one check.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// CheckResult carries one check's outcome. A failing check's diagnostic
// names the offending page index and anchor or marker id so the caller can
// locate and fix the source content; the validator never repairs anything.
type CheckResult struct {
	Status     Status `json:"status"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// Report maps every check id to its result. Produced fresh per validation
// run, never partially updated.
type Report struct {
	Results map[CheckID]CheckResult `json:"results"`
}

// AllPassed reports whether every check passed.
func (r Report) AllPassed() bool {
	for _, res := range r.Results {
		if res.Status != StatusPass {
			return false
		}
	}
	return true
}

// Failed returns the ids of failing checks in fixed order.
func (r Report) Failed() []CheckID {
	var out []CheckID
	for _, id := range CheckOrder {
		if res, ok := r.Results[id]; ok && res.Status == StatusFail {
			out = append(out, id)
		}
	}
	return out
}

func pass() CheckResult {
	return CheckResult{Status: StatusPass}
}

func fail(diagnostic string) CheckResult {
	return CheckResult{Status: StatusFail, Diagnostic: diagnostic}
}
