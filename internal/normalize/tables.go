package normalize

// statAliases maps shorthand stat names found in legacy records to catalog ids
var statAliases = map[string]string{
	"str":          "strength",
	"dex":          "agility",
	"dexterity":    "agility",
	"agi":          "agility",
	"con":          "constitution",
	"int":          "intelligence",
	"spi":          "spirit",
	"wis":          "spirit",
	"wisdom":       "spirit",
	"cha":          "charisma",
	"ac":           "armor",
	"armor_class":  "armor",
	"init":         "initiative",
	"speed":        "movement_speed",
	"move":         "movement_speed",
	"hp_regen":     "hp_regen",
	"hp5":          "hp_regen",
	"mp5":          "mp_regen",
	"spell_power":  "arcane_spell_power",
	"damage_taken": "damage_reduction",
}

type damageKeywords struct {
	damageType string
	keywords   []string
}

// damageTypeKeywords is checked in order so inferred types come out stable
var damageTypeKeywords = []damageKeywords{
	{damageType: "fire", keywords: []string{"fire", "flame", "burn", "blaze", "inferno", "ember", "scorch"}},
	{damageType: "cold", keywords: []string{"frost", "ice", "cold", "freez", "chill", "glacial"}},
	{damageType: "lightning", keywords: []string{"lightning", "shock", "electric", "spark", "storm"}},
	{damageType: "thunder", keywords: []string{"thunder", "sonic", "boom", "concussive"}},
	{damageType: "acid", keywords: []string{"acid", "corro", "caustic"}},
	{damageType: "poison", keywords: []string{"poison", "venom", "toxic", "toxin"}},
	{damageType: "necrotic", keywords: []string{"necrotic", "death", "decay", "wither", "blight", "shadow"}},
	{damageType: "radiant", keywords: []string{"radiant", "holy", "sacred", "smite", "divine"}},
	{damageType: "psychic", keywords: []string{"psychic", "mind", "psionic", "madness"}},
	{damageType: "force", keywords: []string{"force", "arcane", "eldritch"}},
	{damageType: "bludgeoning", keywords: []string{"bludgeon", "crush", "smash"}},
	{damageType: "piercing", keywords: []string{"pierc", "arrow", "spear"}},
	{damageType: "slashing", keywords: []string{"slash", "blade", "cleave"}},
}
