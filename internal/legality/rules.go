package legality

import (
	"fmt"
	"pokemon-sysbot/internal/domain"
	"slices"
	"strings"
)

const AssaultVest = "Assault Vest"

// Species that have no gender regardless of what the provider reports.
var genderlessSpecies = []string{
	"ditto", "staryu", "starmie", "voltorb", "electrode",
	"porygon", "porygon2", "porygon-z", "magneton", "magnezone",
	"magnemite", "baltoy", "claydol", "metagross", "metang", "beldum",
	"bronzor", "bronzong", "mew", "mewtwo", "shedinja", "solrock",
	"lunatone", "klink", "klang", "klinklang", "golett", "golurk",
}

type Rule struct {
	Name  string
	Check func(b *domain.Build) []ValidationResult
}

func one(r ValidationResult) []ValidationResult {
	return []ValidationResult{r}
}

func checkTotalEVs(b *domain.Build) []ValidationResult {
	total := b.Stats.TotalEVs()
	if total <= domain.EVTotalMax {
		return nil
	}
	return one(ValidationResult{
		ID:       "ev-total",
		Severity: SeverityError,
		Field:    FieldStats,
		Message:  fmt.Sprintf("Total EVs: %d / %d exceeds the limit", total, domain.EVTotalMax),
	})
}

func checkIndividualEVs(b *domain.Build) []ValidationResult {
	var results []ValidationResult
	for _, s := range domain.AllStats {
		ev := b.Stats.Get(s).EV
		if ev > domain.EVMax {
			results = append(results, ValidationResult{
				ID:       "ev-" + s.Key(),
				Severity: SeverityError,
				Field:    FieldStats,
				Message:  fmt.Sprintf("%s: EV %d exceeds the maximum (%d)", s.Label(), ev, domain.EVMax),
			})
		}
	}
	return results
}

func checkIVRange(b *domain.Build) []ValidationResult {
	var results []ValidationResult
	for _, s := range domain.AllStats {
		iv := b.Stats.Get(s).IV
		if iv < domain.IVMin || iv > domain.IVMax {
			results = append(results, ValidationResult{
				ID:       "iv-" + s.Key(),
				Severity: SeverityError,
				Field:    FieldStats,
				Message:  fmt.Sprintf("%s: IV %d out of range (%d-%d)", s.Label(), iv, domain.IVMin, domain.IVMax),
			})
		}
	}
	return results
}

func checkLevel(b *domain.Build) []ValidationResult {
	if b.Level >= 1 && b.Level <= 100 {
		return nil
	}
	return one(ValidationResult{
		ID:       "level-range",
		Severity: SeverityError,
		Field:    FieldLevel,
		Message:  fmt.Sprintf("Level %d out of range (1-100)", b.Level),
	})
}

func checkAtLeastOneMove(b *domain.Build) []ValidationResult {
	for _, m := range b.Moves {
		if m != nil {
			return nil
		}
	}
	return one(ValidationResult{
		ID:       "moves-empty",
		Severity: SeverityError,
		Field:    FieldMoves,
		Message:  "At least one move must be selected",
	})
}

func checkDuplicateMoves(b *domain.Build) []ValidationResult {
	seen := make(map[int]struct{}, domain.MoveSlots)
	for _, m := range b.Moves {
		if m == nil {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			return one(ValidationResult{
				ID:       "moves-duplicate",
				Severity: SeverityError,
				Field:    FieldMoves,
				Message:  "The same move is selected in more than one slot",
			})
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}

func checkAbilityPresent(b *domain.Build) []ValidationResult {
	if strings.TrimSpace(b.Ability) != "" {
		return nil
	}
	return one(ValidationResult{
		ID:       "ability-missing",
		Severity: SeverityError,
		Field:    FieldAbility,
		Message:  "An ability must be selected",
	})
}

func normalizeAbility(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func checkAbilityForSpecies(b *domain.Build) []ValidationResult {
	if strings.TrimSpace(b.Ability) == "" || len(b.Species.Abilities) == 0 {
		return nil
	}
	valid := b.Species.AbilityNames()
	if slices.Contains(valid, normalizeAbility(b.Ability)) {
		return nil
	}
	return one(ValidationResult{
		ID:       "ability-invalid-for-species",
		Severity: SeverityError,
		Field:    FieldAbility,
		Message: fmt.Sprintf("%q is not a valid ability for %s. Valid: %s",
			b.Ability, b.Species.Name, strings.Join(valid, ", ")),
	})
}

func checkHiddenAbility(b *domain.Build) []ValidationResult {
	selected := normalizeAbility(b.Ability)
	if selected == "" {
		return nil
	}
	for _, a := range b.Species.Abilities {
		if a.Name == selected && a.Hidden {
			return one(ValidationResult{
				ID:       "ability-hidden",
				Severity: SeverityWarning,
				Field:    FieldAbility,
				Message:  "Hidden ability: check that it is allowed in your tournament format",
			})
		}
	}
	return nil
}

func isGenderless(s domain.Species) bool {
	return s.Genderless || slices.Contains(genderlessSpecies, strings.ToLower(s.Name))
}

func checkGenderCompatibility(b *domain.Build) []ValidationResult {
	if !isGenderless(b.Species) || b.Gender == domain.GenderGenderless {
		return nil
	}
	return one(ValidationResult{
		ID:       "gender-genderless",
		Severity: SeverityWarning,
		Field:    FieldGender,
		Message:  fmt.Sprintf("%s is genderless by nature", b.Species.Name),
	})
}

func checkAssaultVest(isStatus StatusMoveClassifier) func(b *domain.Build) []ValidationResult {
	return func(b *domain.Build) []ValidationResult {
		if b.HeldItem != AssaultVest {
			return nil
		}
		for _, m := range b.Moves {
			if m != nil && isStatus(m.Name) {
				return one(ValidationResult{
					ID:       "item-assault-vest",
					Severity: SeverityWarning,
					Field:    FieldItem,
					Message:  "Assault Vest prevents the use of status moves",
				})
			}
		}
		return nil
	}
}

func checkSuspiciousZeroIVs(b *domain.Build) []ValidationResult {
	if b.Stats.HP.IV != 0 || b.Stats.Attack.IV != 0 {
		return nil
	}
	return one(ValidationResult{
		ID:       "iv-zero-warning",
		Severity: SeverityWarning,
		Field:    FieldStats,
		Message:  "HP and ATK IVs are both 0. Is this intentional?",
	})
}
