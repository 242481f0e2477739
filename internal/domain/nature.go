package domain

import "strings"

type Nature struct {
	Name     string `json:"name"`
	Increase *Stat  `json:"increase,omitempty"`
	Decrease *Stat  `json:"decrease,omitempty"`
}

func (n Nature) IsNeutral() bool {
	return n.Increase == nil && n.Decrease == nil
}

func neutral(name string) Nature {
	return Nature{Name: name}
}

func nature(name string, up, down Stat) Nature {
	return Nature{Name: name, Increase: &up, Decrease: &down}
}

var Natures = []Nature{
	neutral("Hardy"),
	neutral("Docile"),
	neutral("Serious"),
	neutral("Bashful"),
	neutral("Quirky"),

	nature("Lonely", StatAttack, StatDefense),
	nature("Brave", StatAttack, StatSpeed),
	nature("Adamant", StatAttack, StatSpAttack),
	nature("Naughty", StatAttack, StatSpDefense),

	nature("Bold", StatDefense, StatAttack),
	nature("Relaxed", StatDefense, StatSpeed),
	nature("Impish", StatDefense, StatSpAttack),
	nature("Lax", StatDefense, StatSpDefense),

	nature("Timid", StatSpeed, StatAttack),
	nature("Hasty", StatSpeed, StatDefense),
	nature("Jolly", StatSpeed, StatSpAttack),
	nature("Naive", StatSpeed, StatSpDefense),

	nature("Modest", StatSpAttack, StatAttack),
	nature("Mild", StatSpAttack, StatDefense),
	nature("Quiet", StatSpAttack, StatSpeed),
	nature("Rash", StatSpAttack, StatSpDefense),

	nature("Calm", StatSpDefense, StatAttack),
	nature("Gentle", StatSpDefense, StatDefense),
	nature("Sassy", StatSpDefense, StatSpeed),
	nature("Careful", StatSpDefense, StatSpAttack),
}

func NatureByName(name string) (Nature, bool) {
	for _, n := range Natures {
		if strings.EqualFold(n.Name, name) {
			return n, true
		}
	}
	return Nature{}, false
}
