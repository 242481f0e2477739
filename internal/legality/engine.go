// Package legality decides whether a build may be queued for delivery.
//
// The engine runs a fixed, ordered list of independent rules. Rules never see each
// other's output, every rule runs on every pass, and the combined results are sorted
// so errors come before warnings while keeping rule order within each severity.
package legality

import (
	"pokemon-sysbot/internal/domain"
	"slices"
)

type Engine struct {
	rules []Rule
}

type Option func(*options)

type options struct {
	classifier StatusMoveClassifier
}

func WithClassifier(c StatusMoveClassifier) Option {
	return func(o *options) {
		if c != nil {
			o.classifier = c
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	o := options{classifier: KeywordStatusClassifier}
	for _, opt := range opts {
		opt(&o)
	}

	return &Engine{rules: []Rule{
		{Name: "total-evs", Check: checkTotalEVs},
		{Name: "individual-evs", Check: checkIndividualEVs},
		{Name: "iv-range", Check: checkIVRange},
		{Name: "level", Check: checkLevel},
		{Name: "at-least-one-move", Check: checkAtLeastOneMove},
		{Name: "duplicate-moves", Check: checkDuplicateMoves},
		{Name: "ability-present", Check: checkAbilityPresent},
		{Name: "ability-for-species", Check: checkAbilityForSpecies},
		{Name: "hidden-ability", Check: checkHiddenAbility},
		{Name: "gender", Check: checkGenderCompatibility},
		{Name: "assault-vest", Check: checkAssaultVest(o.classifier)},
		{Name: "zero-ivs", Check: checkSuspiciousZeroIVs},
	}}
}

func (e *Engine) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

func (e *Engine) Validate(b *domain.Build) []ValidationResult {
	if b == nil {
		return []ValidationResult{{
			ID:       "build-missing",
			Severity: SeverityError,
			Field:    FieldGeneral,
			Message:  "No build to validate",
		}}
	}

	results := []ValidationResult{}
	for _, rule := range e.rules {
		results = append(results, rule.Check(b)...)
	}

	slices.SortStableFunc(results, func(a, b ValidationResult) int {
		return severityRank(a.Severity) - severityRank(b.Severity)
	})
	return results
}

func severityRank(s Severity) int {
	if s == SeverityError {
		return 0
	}
	return 1
}
