package domain

type DamageClass string

const (
	DamagePhysical DamageClass = "physical"
	DamageSpecial  DamageClass = "special"
	DamageStatus   DamageClass = "status"
)

type Move struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Power       *int        `json:"power,omitempty"`
	Accuracy    *int        `json:"accuracy,omitempty"`
	PP          int         `json:"pp"`
	DamageClass DamageClass `json:"damageClass"`
}

type SpeciesAbility struct {
	Name   string `json:"name"`
	Hidden bool   `json:"hidden"`
	Slot   int    `json:"slot"`
}

type Species struct {
	ID         int              `json:"id"`
	Name       string           `json:"name"`
	Types      []string         `json:"types"`
	Abilities  []SpeciesAbility `json:"abilities"`
	Genderless bool             `json:"genderless"`
	Sprite     string           `json:"sprite,omitempty"`
}

func (s Species) AbilityNames() []string {
	names := make([]string, 0, len(s.Abilities))
	for _, a := range s.Abilities {
		names = append(names, a.Name)
	}
	return names
}

type Gender string

const (
	GenderMale       Gender = "male"
	GenderFemale     Gender = "female"
	GenderGenderless Gender = "genderless"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderGenderless:
		return true
	}
	return false
}

const MoveSlots = 4

// Build is the editable aggregate. Validation treats it as read-only.
type Build struct {
	Species  Species          `json:"species"`
	Stats    StatBlock        `json:"stats"`
	Nature   Nature           `json:"nature"`
	TeraType string           `json:"teraType"`
	Ability  string           `json:"ability"`
	Moves    [MoveSlots]*Move `json:"moves"`
	Level    int              `json:"level"`
	Shiny    bool             `json:"shiny"`
	Gender   Gender           `json:"gender"`
	HeldItem string           `json:"heldItem"`
	Ball     string           `json:"pokeball"`
	Origin   string           `json:"origin"`
}

func (b *Build) SelectedMoves() []Move {
	moves := make([]Move, 0, MoveSlots)
	for _, m := range b.Moves {
		if m != nil {
			moves = append(moves, *m)
		}
	}
	return moves
}

// Principal is the identity handed over by the external identity provider.
type Principal struct {
	ID           string
	DisplayLabel string
}
