package domain

type Stat int

const (
	StatHP Stat = iota
	StatAttack
	StatDefense
	StatSpAttack
	StatSpDefense
	StatSpeed
)

// AllStats is the canonical slot order used for iteration and display.
var AllStats = [...]Stat{StatHP, StatAttack, StatDefense, StatSpAttack, StatSpDefense, StatSpeed}

const (
	IVMin      = 0
	IVMax      = 31
	EVMin      = 0
	EVMax      = 252
	EVTotalMax = 510
)

func (s Stat) Key() string {
	switch s {
	case StatHP:
		return "hp"
	case StatAttack:
		return "attack"
	case StatDefense:
		return "defense"
	case StatSpAttack:
		return "spAttack"
	case StatSpDefense:
		return "spDefense"
	case StatSpeed:
		return "speed"
	}
	return "unknown"
}

func (s Stat) Label() string {
	switch s {
	case StatHP:
		return "HP"
	case StatAttack:
		return "ATK"
	case StatDefense:
		return "DEF"
	case StatSpAttack:
		return "SP.ATK"
	case StatSpDefense:
		return "SP.DEF"
	case StatSpeed:
		return "SPE"
	}
	return "?"
}

func StatFromKey(key string) (Stat, bool) {
	for _, s := range AllStats {
		if s.Key() == key {
			return s, true
		}
	}
	return 0, false
}

type StatValue struct {
	IV int `json:"iv"`
	EV int `json:"ev"`
}

// StatBlock may hold out-of-range values while a build is being edited.
type StatBlock struct {
	HP        StatValue `json:"hp"`
	Attack    StatValue `json:"attack"`
	Defense   StatValue `json:"defense"`
	SpAttack  StatValue `json:"spAttack"`
	SpDefense StatValue `json:"spDefense"`
	Speed     StatValue `json:"speed"`
}

// StatValues is a flat six-field numeric map, used for the IV and EV halves of a payload.
type StatValues struct {
	HP        int `json:"hp"`
	Attack    int `json:"attack"`
	Defense   int `json:"defense"`
	SpAttack  int `json:"spAttack"`
	SpDefense int `json:"spDefense"`
	Speed     int `json:"speed"`
}

func (b *StatBlock) slot(s Stat) *StatValue {
	switch s {
	case StatHP:
		return &b.HP
	case StatAttack:
		return &b.Attack
	case StatDefense:
		return &b.Defense
	case StatSpAttack:
		return &b.SpAttack
	case StatSpDefense:
		return &b.SpDefense
	case StatSpeed:
		return &b.Speed
	}
	return nil
}

func (b StatBlock) Get(s Stat) StatValue {
	if v := b.slot(s); v != nil {
		return *v
	}
	return StatValue{}
}

func (b *StatBlock) Set(s Stat, v StatValue) {
	if slot := b.slot(s); slot != nil {
		*slot = v
	}
}

func (b StatBlock) TotalEVs() int {
	total := 0
	for _, s := range AllStats {
		total += b.Get(s).EV
	}
	return total
}

func (b StatBlock) IVs() StatValues {
	return StatValues{
		HP:        b.HP.IV,
		Attack:    b.Attack.IV,
		Defense:   b.Defense.IV,
		SpAttack:  b.SpAttack.IV,
		SpDefense: b.SpDefense.IV,
		Speed:     b.Speed.IV,
	}
}

func (b StatBlock) EVs() StatValues {
	return StatValues{
		HP:        b.HP.EV,
		Attack:    b.Attack.EV,
		Defense:   b.Defense.EV,
		SpAttack:  b.SpAttack.EV,
		SpDefense: b.SpDefense.EV,
		Speed:     b.Speed.EV,
	}
}

// StatBlockFrom rebuilds a StatBlock from the flattened IV and EV maps of a payload.
func StatBlockFrom(ivs, evs StatValues) StatBlock {
	return StatBlock{
		HP:        StatValue{IV: ivs.HP, EV: evs.HP},
		Attack:    StatValue{IV: ivs.Attack, EV: evs.Attack},
		Defense:   StatValue{IV: ivs.Defense, EV: evs.Defense},
		SpAttack:  StatValue{IV: ivs.SpAttack, EV: evs.SpAttack},
		SpDefense: StatValue{IV: ivs.SpDefense, EV: evs.SpDefense},
		Speed:     StatValue{IV: ivs.Speed, EV: evs.Speed},
	}
}

// PerfectStats is the default block for a fresh build: max IVs, no EVs.
func PerfectStats() StatBlock {
	var b StatBlock
	for _, s := range AllStats {
		b.Set(s, StatValue{IV: IVMax})
	}
	return b
}
