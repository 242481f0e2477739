package domain

// BuildPayload is the flat record handed to the delivery queue. It keeps identifiers and
// numbers only; rich species and move details are dropped.
type BuildPayload struct {
	Species  string     `json:"species"`
	Level    int        `json:"level"`
	Nature   string     `json:"nature"`
	Ability  string     `json:"ability"`
	Shiny    bool       `json:"shiny"`
	Gender   string     `json:"gender"`
	HeldItem string     `json:"heldItem"`
	TeraType string     `json:"teraType"`
	Ball     string     `json:"pokeball"`
	Origin   string     `json:"origin"`
	Moves    []string   `json:"moves"`
	IVs      StatValues `json:"ivs"`
	EVs      StatValues `json:"evs"`
}

func ToPayload(b *Build) BuildPayload {
	moves := make([]string, 0, MoveSlots)
	for _, m := range b.SelectedMoves() {
		moves = append(moves, m.Name)
	}

	return BuildPayload{
		Species:  b.Species.Name,
		Level:    b.Level,
		Nature:   b.Nature.Name,
		Ability:  b.Ability,
		Shiny:    b.Shiny,
		Gender:   string(b.Gender),
		HeldItem: b.HeldItem,
		TeraType: b.TeraType,
		Ball:     b.Ball,
		Origin:   b.Origin,
		Moves:    moves,
		IVs:      b.Stats.IVs(),
		EVs:      b.Stats.EVs(),
	}
}

func TeamToPayload(builds []Build) []BuildPayload {
	payloads := make([]BuildPayload, len(builds))
	for i := range builds {
		payloads[i] = ToPayload(&builds[i])
	}
	return payloads
}

func (p BuildPayload) StatBlock() StatBlock {
	return StatBlockFrom(p.IVs, p.EVs)
}
