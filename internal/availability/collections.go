package availability

import (
	"regexp"
	"strings"
)

type Collection string

const (
	Scarlet   Collection = "scarlet"
	Violet    Collection = "violet"
	LegendsZA Collection = "legends-za"
)

type CollectionInfo struct {
	Key         Collection `json:"key"`
	DisplayName string     `json:"display_name"`
	PokedexIDs  []int      `json:"pokedex_ids"`
}

// DefaultCollections maps each game to its regional pokedexes on the provider.
// Legends: Z-A has no provider data yet and always answers Unknown.
var DefaultCollections = []CollectionInfo{
	{Key: Scarlet, DisplayName: "Pokémon Scarlet", PokedexIDs: []int{27, 31, 32}},
	{Key: Violet, DisplayName: "Pokémon Violet", PokedexIDs: []int{27, 31, 32}},
	{Key: LegendsZA, DisplayName: "Pokémon Legends: Z-A"},
}

var whitespace = regexp.MustCompile(`\s+`)

// Normalize maps a species name onto the provider's lower-case hyphenated form.
func Normalize(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}
