package affect

// coords places an emotion in valence/arousal space, both in [-1,1].
type coords struct {
	Valence float64
	Arousal float64
}

// registry maps every known emotion to its valence/arousal coordinates.
// Unknown names are rejected by State.Update.
var registry = map[string]coords{
	"neutral":   {0, 0},
	"happy":     {0.8, 0.5},
	"sad":       {-0.7, -0.4},
	"curious":   {0.4, 0.4},
	"excited":   {0.8, 0.8},
	"bored":     {-0.3, -0.6},
	"afraid":    {-0.8, 0.7},
	"nostalgic": {0.1, -0.3},
	"calm":      {0.4, -0.5},
	"lonely":    {-0.6, -0.3},
	"anxious":   {-0.5, 0.6},
	"warm":      {0.7, -0.1},
	"tired":     {-0.2, -0.7},
	"alert":     {0.0, 0.7},
	"restless":  {-0.2, 0.5},
	"hopeful":   {0.6, 0.3},
	"shy":       {0.1, -0.2},
	"annoyed":   {-0.5, 0.4},
	"jealous":   {-0.6, 0.5},
	"eager":     {0.6, 0.6},
	"cautious":  {-0.2, 0.1},
	"blank":     {-0.1, -0.5},
}

// Known reports whether the emotion name belongs to the registry.
func Known(emotion string) bool {
	_, ok := registry[emotion]
	return ok
}

// shades lists the secondary shades each primary emotion implies. Shades are
// blended into the secondary map at reduced intensity when the primary lands.
var shades = map[string][]string{
	"happy":     {"curious", "excited"},
	"nostalgic": {"sad", "warm"},
	"curious":   {"hopeful"},
	"afraid":    {"alert", "cautious"},
	"sad":       {"nostalgic", "tired"},
	"bored":     {"blank", "restless"},
	"excited":   {"happy", "eager"},
}

// fusionRules maps (primary, strongest secondary) pairs to an emergent blended
// emotion. The blend is purely derived: it appears in snapshots and mood hints
// but is never stored.
var fusionRules = map[[2]string]string{
	{"sad", "lonely"}:      "insecure",
	{"sad", "jealous"}:     "bitter",
	{"happy", "shy"}:       "tender",
	{"happy", "annoyed"}:   "mischievous",
	{"excited", "annoyed"}: "mischievous",
	{"curious", "afraid"}:  "flustered",
	{"curious", "anxious"}: "flustered",
	{"nostalgic", "sad"}:   "bittersweet",
	{"nostalgic", "tired"}: "bittersweet",
	{"bored", "restless"}:  "frustrated",
	{"afraid", "lonely"}:   "clingy",
	{"calm", "lonely"}:     "wistful",
}

// fusionShadeFloor is the minimum secondary intensity for a fusion rule to
// fire; weaker shades are too faint to color the primary.
const fusionShadeFloor = 0.25
