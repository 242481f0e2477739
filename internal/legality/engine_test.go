package legality

import (
	"pokemon-sysbot/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tackle   = &domain.Move{ID: 33, Name: "tackle", Type: "normal", PP: 35, DamageClass: domain.DamagePhysical}
	growl    = &domain.Move{ID: 45, Name: "growl", Type: "normal", PP: 40, DamageClass: domain.DamageStatus}
	protect  = &domain.Move{ID: 182, Name: "protect", Type: "normal", PP: 10, DamageClass: domain.DamageStatus}
	flamethr = &domain.Move{ID: 53, Name: "flamethrower", Type: "fire", PP: 15, DamageClass: domain.DamageSpecial}
)

func legalBuild() *domain.Build {
	return &domain.Build{
		Species: domain.Species{
			ID:    130,
			Name:  "gyarados",
			Types: []string{"water", "flying"},
			Abilities: []domain.SpeciesAbility{
				{Name: "intimidate", Slot: 1},
				{Name: "moxie", Hidden: true, Slot: 3},
			},
		},
		Stats:    domain.PerfectStats(),
		Nature:   domain.Nature{Name: "Hardy"},
		TeraType: "water",
		Ability:  "intimidate",
		Moves:    [4]*domain.Move{tackle, flamethr, nil, nil},
		Level:    50,
		Gender:   domain.GenderMale,
		HeldItem: "Leftovers",
		Ball:     "Poke Ball",
		Origin:   "scarlet",
	}
}

func ids(results []ValidationResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}

func TestValidate_LegalBuild(t *testing.T) {
	results := NewEngine().Validate(legalBuild())
	assert.Empty(t, results)
	assert.True(t, IsLegal(results))
}

func TestValidate_TotalEVs(t *testing.T) {
	b := legalBuild()
	b.Stats.HP.EV = 252
	b.Stats.Attack.EV = 252
	b.Stats.Defense.EV = 252

	results := NewEngine().Validate(b)
	require.Contains(t, ids(results), "ev-total")
	for _, r := range results {
		if r.ID == "ev-total" {
			assert.Contains(t, r.Message, "756 / 510")
			assert.Equal(t, FieldStats, r.Field)
		}
	}
	assert.False(t, IsLegal(results))
}

func TestValidate_PerStatLimits(t *testing.T) {
	b := legalBuild()
	b.Stats.Speed.EV = 300
	b.Stats.SpAttack.IV = 32
	b.Stats.Defense.IV = -1

	got := ids(NewEngine().Validate(b))
	assert.Contains(t, got, "ev-speed")
	assert.Contains(t, got, "iv-spAttack")
	assert.Contains(t, got, "iv-defense")
	assert.NotContains(t, got, "ev-total")
}

func TestValidate_Level(t *testing.T) {
	tests := []struct {
		name  string
		level int
		want  bool
	}{
		{name: "zero", level: 0, want: true},
		{name: "min", level: 1, want: false},
		{name: "max", level: 100, want: false},
		{name: "over", level: 101, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := legalBuild()
			b.Level = tt.level
			assert.Equal(t, tt.want, containsID(NewEngine().Validate(b), "level-range"))
		})
	}
}

func containsID(results []ValidationResult, id string) bool {
	for _, r := range results {
		if r.ID == id {
			return true
		}
	}
	return false
}

func TestValidate_NoMoves(t *testing.T) {
	b := legalBuild()
	b.Moves = [4]*domain.Move{}

	results := NewEngine().Validate(b)
	assert.Equal(t, []string{"moves-empty"}, ids(results))
}

func TestValidate_DuplicateMoves(t *testing.T) {
	b := legalBuild()
	b.Moves = [4]*domain.Move{tackle, {ID: 33, Name: "tackle"}, nil, nil}

	got := ids(NewEngine().Validate(b))
	assert.Contains(t, got, "moves-duplicate")
	assert.NotContains(t, got, "moves-empty")
}

func TestValidate_Ability(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		b := legalBuild()
		b.Ability = "   "
		got := ids(NewEngine().Validate(b))
		assert.Equal(t, []string{"ability-missing"}, got)
	})

	t.Run("invalid for species", func(t *testing.T) {
		b := legalBuild()
		b.Species.Abilities = []domain.SpeciesAbility{{Name: "intimidate"}, {Name: "rivalry"}}
		b.Ability = "static"
		results := NewEngine().Validate(b)
		require.Len(t, results, 1)
		assert.Equal(t, "ability-invalid-for-species", results[0].ID)
		assert.Contains(t, results[0].Message, "intimidate")
		assert.Contains(t, results[0].Message, "rivalry")
	})

	t.Run("case insensitive", func(t *testing.T) {
		b := legalBuild()
		b.Ability = " Intimidate "
		assert.Empty(t, NewEngine().Validate(b))
	})

	t.Run("unknown species abilities", func(t *testing.T) {
		b := legalBuild()
		b.Species.Abilities = nil
		b.Ability = "static"
		assert.Empty(t, NewEngine().Validate(b))
	})

	t.Run("hidden is a warning", func(t *testing.T) {
		b := legalBuild()
		b.Ability = "moxie"
		results := NewEngine().Validate(b)
		assert.Equal(t, []string{"ability-hidden"}, ids(results))
		assert.Equal(t, SeverityWarning, results[0].Severity)
		assert.True(t, IsLegal(results))
	})
}

func TestValidate_Genderless(t *testing.T) {
	b := legalBuild()
	b.Species.Name = "Ditto"
	assert.Equal(t, []string{"gender-genderless"}, ids(NewEngine().Validate(b)))

	b.Gender = domain.GenderGenderless
	assert.Empty(t, NewEngine().Validate(b))

	b = legalBuild()
	b.Species.Genderless = true
	b.Gender = domain.GenderFemale
	assert.Equal(t, []string{"gender-genderless"}, ids(NewEngine().Validate(b)))
}

func TestValidate_AssaultVest(t *testing.T) {
	b := legalBuild()
	b.HeldItem = AssaultVest
	assert.Empty(t, NewEngine().Validate(b))

	b.Moves[2] = protect
	assert.Equal(t, []string{"item-assault-vest"}, ids(NewEngine().Validate(b)))

	// growl is a status move the keyword list does not know about
	b.Moves[2] = growl
	assert.Empty(t, NewEngine().Validate(b))

	byClass := WithClassifier(func(name string) bool { return name == "growl" })
	assert.Equal(t, []string{"item-assault-vest"}, ids(NewEngine(byClass).Validate(b)))
}

func TestValidate_ZeroIVs(t *testing.T) {
	b := legalBuild()
	b.Stats.HP.IV = 0
	assert.Empty(t, NewEngine().Validate(b))

	b.Stats.Attack.IV = 0
	results := NewEngine().Validate(b)
	assert.Equal(t, []string{"iv-zero-warning"}, ids(results))
	assert.True(t, IsLegal(results))
}

func TestValidate_ErrorsBeforeWarnings(t *testing.T) {
	b := legalBuild()
	b.Stats.HP.IV = 0
	b.Stats.Attack.IV = 0
	b.Stats.HP.EV = 255
	b.Ability = "moxie"
	b.Level = 0
	b.Moves = [4]*domain.Move{}

	results := NewEngine().Validate(b)
	assert.Equal(t, []string{
		"ev-hp",
		"level-range",
		"moves-empty",
		"ability-hidden",
		"iv-zero-warning",
	}, ids(results))
}

func TestValidate_DoesNotMutate(t *testing.T) {
	b := legalBuild()
	b.Stats.HP.EV = 400
	before := *b

	NewEngine().Validate(b)
	assert.Equal(t, before, *b)
}

func TestValidate_NilBuild(t *testing.T) {
	results := NewEngine().Validate(nil)
	assert.Equal(t, []string{"build-missing"}, ids(results))
	assert.False(t, IsLegal(results))
}

func TestSummarize(t *testing.T) {
	b := legalBuild()
	b.Level = 0
	b.Ability = "moxie"

	s := Summarize(NewEngine().Validate(b))
	assert.False(t, s.Legal)
	assert.Equal(t, 1, s.ErrorCount)
	assert.Equal(t, 1, s.WarningCount)
	assert.Equal(t, "level-range", s.Errors[0].ID)
	assert.Equal(t, "ability-hidden", s.Warnings[0].ID)
}

func TestKeywordStatusClassifier(t *testing.T) {
	assert.True(t, KeywordStatusClassifier("Swords-Dance"))
	assert.True(t, KeywordStatusClassifier("spiky-shield-protect"))
	assert.False(t, KeywordStatusClassifier("earthquake"))
}
