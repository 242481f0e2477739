package api

type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type PokemonResponse struct {
	ID      int           `json:"id"`
	Name    string        `json:"name"`
	Species NamedResource `json:"species"`
	Sprites struct {
		FrontDefault *string `json:"front_default"`
		FrontShiny   *string `json:"front_shiny"`
		Other        struct {
			OfficialArtwork struct {
				FrontDefault *string `json:"front_default"`
			} `json:"official-artwork"`
		} `json:"other"`
	} `json:"sprites"`
	Types []struct {
		Slot int           `json:"slot"`
		Type NamedResource `json:"type"`
	} `json:"types"`
	Abilities []struct {
		Ability  NamedResource `json:"ability"`
		IsHidden bool          `json:"is_hidden"`
		Slot     int           `json:"slot"`
	} `json:"abilities"`
	Moves []struct {
		Move NamedResource `json:"move"`
	} `json:"moves"`
	Stats []struct {
		BaseStat int           `json:"base_stat"`
		Effort   int           `json:"effort"`
		Stat     NamedResource `json:"stat"`
	} `json:"stats"`
	Height         int `json:"height"`
	Weight         int `json:"weight"`
	BaseExperience int `json:"base_experience"`
}

type PokemonListResponse struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []NamedResource `json:"results"`
}

type PokemonSpeciesResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	// -1 for genderless species, otherwise eighths female
	GenderRate int `json:"gender_rate"`
}

type MoveResponse struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Type        NamedResource `json:"type"`
	Power       *int          `json:"power"`
	Accuracy    *int          `json:"accuracy"`
	PP          int           `json:"pp"`
	DamageClass NamedResource `json:"damage_class"`
}

type PokedexResponse struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	PokemonEntries []struct {
		EntryNumber    int           `json:"entry_number"`
		PokemonSpecies NamedResource `json:"pokemon_species"`
	} `json:"pokemon_entries"`
}

func (p *PokedexResponse) SpeciesNames() []string {
	names := make([]string, 0, len(p.PokemonEntries))
	for _, e := range p.PokemonEntries {
		names = append(names, e.PokemonSpecies.Name)
	}
	return names
}
