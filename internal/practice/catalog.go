// Package practice recommends breathing and movement practices fitted
// to the seeker's emotion, location, time budget, and meal state.
package practice

import (
	"github.com/stillpoint-hq/stillpoint/internal/core"
)

// Kind distinguishes catalog entries.
type Kind string

const (
	KindPranayama Kind = "pranayama"
	KindAsana     Kind = "asana"
)

// Practice is one catalog entry. Adaptations carry per-location
// instructions; a location absent from the map means the practice is
// not suitable there.
type Practice struct {
	Kind        Kind
	Name        string
	Description string
	DurationMin int

	// Emotions this practice addresses.
	Emotions []core.Emotion

	Adaptations map[core.Location]string
	Benefits    []string
	Cautions    []string

	// EmptyStomachOnly marks vigorous practices unsafe after a meal.
	EmptyStomachOnly bool
}

// SuitableAt reports whether the practice works in the given location.
// Unknown location is treated as home, the most permissive setting.
func (p Practice) SuitableAt(loc core.Location) bool {
	if !loc.IsKnown() {
		loc = core.LocationHomeIndoor
	}
	_, ok := p.Adaptations[loc]
	return ok
}

// AdaptationFor returns the location instruction, falling back to the
// home variant.
func (p Practice) AdaptationFor(loc core.Location) string {
	if !loc.IsKnown() {
		loc = core.LocationHomeIndoor
	}
	if a, ok := p.Adaptations[loc]; ok {
		return a
	}
	return p.Adaptations[core.LocationHomeIndoor]
}

// Addresses reports whether the practice targets the emotion.
func (p Practice) Addresses(e core.Emotion) bool {
	for _, pe := range p.Emotions {
		if pe == e {
			return true
		}
	}
	return false
}

var pranayamas = []Practice{
	{
		Kind:        KindPranayama,
		Name:        "Nadi Shodhana (Alternate Nostril Breathing)",
		Description: "Gently close the right nostril with your thumb and breathe in through the left. Close the left, open the right, and breathe out. Breathe in through the right, then switch. Continue at your own pace.",
		DurationMin: 7,
		Emotions:    []core.Emotion{core.EmotionFear, core.EmotionConfusion},
		Adaptations: map[core.Location]string{
			core.LocationHomeIndoor:  "Sit comfortably on a cushion or chair with your spine straight.",
			core.LocationOutdoor:     "Find a quiet spot under a tree or on a bench.",
			core.LocationOffice:      "Sit at your desk and keep the hand movements small.",
			core.LocationPublicPlace: "Skip the hand position and alternate the nostrils mentally.",
			core.LocationVehicle:     "For passengers only: close your eyes and practice gently.",
		},
		Benefits: []string{"Calms anxiety", "Balances the nervous system"},
		Cautions: []string{"Don't force the breath", "Stop if you feel dizzy"},
	},
	{
		Kind:        KindPranayama,
		Name:        "Sheetali Pranayama (Cooling Breath)",
		Description: "Roll your tongue into a tube and breathe in slowly through it. Close your mouth and breathe out through your nose. Feel the cooling sensation settle your system.",
		DurationMin: 5,
		Emotions:    []core.Emotion{core.EmotionAnger},
		Adaptations: map[core.Location]string{
			core.LocationHomeIndoor:  "Sit in a comfortable position, spine erect.",
			core.LocationOutdoor:     "Fresh air enhances the cooling effect.",
			core.LocationOffice:      "Quite discreet, can be done at your desk.",
			core.LocationPublicPlace: "Find a quiet corner and practice subtly.",
			core.LocationVehicle:     "Safe for passengers, not while driving.",
		},
		Benefits: []string{"Cools anger and frustration", "Calms the mind"},
		Cautions: []string{"Avoid if you have a cold"},
	},
	{
		Kind:        KindPranayama,
		Name:        "Diaphragmatic Breathing (Belly Breathing)",
		Description: "Place one hand on your chest and one on your belly. Breathe in deeply through your nose, letting the belly expand rather than the chest. Breathe out slowly through your mouth.",
		DurationMin: 7,
		Emotions:    []core.Emotion{core.EmotionOverwhelmed},
		Adaptations: map[core.Location]string{
			core.LocationHomeIndoor:  "Lie on your back with knees bent, or sit comfortably.",
			core.LocationOutdoor:     "Lie on grass or sit on a bench.",
			core.LocationOffice:      "Sit in your chair with both feet on the ground.",
			core.LocationPublicPlace: "Sit comfortably, it is very discreet.",
			core.LocationVehicle:     "Passengers can practice sitting upright.",
		},
		Benefits: []string{"Grounds and centers", "Activates the relaxation response"},
		Cautions: []string{"Keep the breath natural"},
	},
	{
		Kind:        KindPranayama,
		Name:        "Bhastrika Pranayama (Bellows Breath)",
		Description: "Take a deep breath in. Exhale forcefully through the nose while drawing the belly in, then inhale forcefully, expanding the belly. Continue for ten to twenty rounds, then rest in normal breath.",
		DurationMin: 5,
		Emotions:    []core.Emotion{core.EmotionDepression},
		Adaptations: map[core.Location]string{
			core.LocationHomeIndoor: "Sit with the spine straight and practice with vigor.",
			core.LocationOutdoor:    "Energizing in fresh air and sunlight.",
		},
		Benefits:         []string{"Energizes body and mind", "Lifts heavy emotions"},
		Cautions:         []string{"Avoid if pregnant or with high blood pressure or heart issues", "Stop if dizzy"},
		EmptyStomachOnly: true,
	},
	{
		Kind:        KindPranayama,
		Name:        "Simple Breath Awareness",
		Description: "Close your eyes and observe the natural breath without changing it. Notice the air entering and leaving the nostrils. When the mind wanders, gently return to the breath.",
		DurationMin: 5,
		Emotions:    []core.Emotion{core.EmotionConfusion, core.EmotionInadequacy},
		Adaptations: map[core.Location]string{
			core.LocationHomeIndoor:  "Sit in a quiet space, spine straight.",
			core.LocationOutdoor:     "Very calming in a natural setting.",
			core.LocationOffice:      "Completely discreet at your desk.",
			core.LocationPublicPlace: "Can be practiced anywhere quietly.",
			core.LocationVehicle:     "Safe for passengers.",
		},
		Benefits: []string{"Brings mental clarity", "Calms racing thoughts"},
	},
	{
		Kind:        KindPranayama,
		Name:        "Heart-Centered Breathing",
		Description: "Place a hand on your heart. Breathe in, imagining warmth filling the heart. Breathe out, sending that warmth to yourself and others.",
		DurationMin: 7,
		Emotions:    []core.Emotion{core.EmotionLoneliness, core.EmotionLove, core.EmotionHurt},
		Adaptations: map[core.Location]string{
			core.LocationHomeIndoor:  "Sit or lie down in a comfortable space.",
			core.LocationOutdoor:     "Beautiful in nature, feeling connected to all life.",
			core.LocationOffice:      "Gentle and discreet at your desk.",
			core.LocationPublicPlace: "A subtle hand on the heart, visualizing inwardly.",
			core.LocationVehicle:     "The passenger seat works well.",
		},
		Benefits: []string{"Softens isolation", "Builds self-compassion"},
	},
	{
		Kind:        KindPranayama,
		Name:        "Ujjayi Breath (Ocean Breath)",
		Description: "Slightly constrict the back of the throat and breathe through the nose, creating a soft ocean sound. With each exhale, release what weighs on you. With each inhale, welcome ease.",
		DurationMin: 7,
		Emotions:    []core.Emotion{core.EmotionGuilt},
		Adaptations: map[core.Location]string{
			core.LocationHomeIndoor:  "Sit comfortably with eyes closed.",
			core.LocationOutdoor:     "The ocean sound blends with the surroundings.",
			core.LocationOffice:      "Keep the sound very soft.",
			core.LocationPublicPlace: "Practice quietly.",
			core.LocationVehicle:     "Good for passengers.",
		},
		Benefits: []string{"Releases emotional burdens", "Deeply calming"},
		Cautions: []string{"Keep the throat relaxation gentle"},
	},
	{
		Kind:        KindPranayama,
		Name:        "Natural Deep Breathing",
		Description: "Breathe in slowly through the nose for a count of four. Hold gently for four. Breathe out for six. Pause for two, and repeat.",
		DurationMin: 5,
		Emotions:    nil, // universal default
		Adaptations: map[core.Location]string{
			core.LocationHomeIndoor:  "Sit comfortably anywhere.",
			core.LocationOutdoor:     "Wonderful in fresh air.",
			core.LocationOffice:      "Very discreet.",
			core.LocationPublicPlace: "Can be done anywhere.",
			core.LocationVehicle:     "Safe for passengers.",
		},
		Benefits: []string{"Calms the nervous system", "Universally beneficial"},
		Cautions: []string{"Don't force the breath"},
	},
}

var asanas = []Practice{
	{
		Kind:        KindAsana,
		Name:        "Child's Pose (Balasana)",
		Description: "Kneel, sit back on your heels, and fold forward until your forehead rests on the ground. Extend the arms forward or alongside the body and breathe deeply.",
		DurationMin: 4,
		Emotions:    []core.Emotion{core.EmotionFear},
		Adaptations: map[core.Location]string{
			core.LocationHomeIndoor: "Use a mat or soft carpet, cushion under the forehead if needed.",
			core.LocationOutdoor:    "Find a grassy area or use a mat or towel.",
			core.LocationOffice:     "In a private space, or lean forward on your desk as a seated variation.",
		},
		Benefits: []string{"Deeply calming", "Grounds fear"},
		Cautions: []string{"Widen the knees if pregnant"},
	},
	{
		Kind:        KindAsana,
		Name:        "Standing Forward Fold (Uttanasana)",
		Description: "Stand with feet hip-width apart. Hinge at the hips and fold forward, letting the head hang heavy with knees generously bent. Hold opposite elbows and sway gently.",
		DurationMin: 3,
		Emotions:    []core.Emotion{core.EmotionAnger},
		Adaptations: map[core.Location]string{
			core.LocationHomeIndoor:  "Stand on a mat or soft surface.",
			core.LocationOutdoor:     "Very grounding in fresh air.",
			core.LocationOffice:      "A seated forward fold at your desk also works.",
			core.LocationPublicPlace: "Find a quiet corner.",
		},
		Benefits: []string{"Releases tension", "Cools anger"},
		Cautions: []string{"Keep the knees bent to protect the lower back"},
	},
	{
		Kind:        KindAsana,
		Name:        "Legs Up the Wall (Viparita Karani)",
		Description: "Lie on your back with the hips close to a wall and extend the legs up it. Rest the arms by your sides, palms up, and close your eyes.",
		DurationMin: 10,
		Emotions:    []core.Emotion{core.EmotionOverwhelmed},
		Adaptations: map[core.Location]string{
			core.LocationHomeIndoor: "Use a wall, with a pillow under the hips for comfort.",
			core.LocationOutdoor:    "A tree or fence works if the spot is private.",
		},
		Benefits: []string{"Deeply restorative", "Calms the nervous system"},
	},
	{
		Kind:        KindAsana,
		Name:        "Sun Salutations (Surya Namaskar), gentle rounds",
		Description: "Stand tall, raise the arms overhead, fold forward, step back to plank, lower down, lift the chest, press back to downward dog, step forward, and rise. Repeat three to five rounds at your own pace.",
		DurationMin: 8,
		Emotions:    []core.Emotion{core.EmotionDepression},
		Adaptations: map[core.Location]string{
			core.LocationHomeIndoor: "Use a yoga mat for comfort.",
			core.LocationOutdoor:    "Energizing in the sunshine.",
		},
		Benefits:         []string{"Energizes body and mind", "Uplifts mood"},
		Cautions:         []string{"Go at your own pace"},
		EmptyStomachOnly: true,
	},
	{
		Kind:        KindAsana,
		Name:        "Tree Pose (Vrksasana)",
		Description: "Stand on one leg and place the other foot on the inner thigh or calf, never the knee. Bring the palms together at the heart, find a focal point, and balance. Switch sides.",
		DurationMin: 3,
		Emotions:    []core.Emotion{core.EmotionConfusion},
		Adaptations: map[core.Location]string{
			core.LocationHomeIndoor:  "Stand near a wall for support if needed.",
			core.LocationOutdoor:     "Grounding on earth or grass.",
			core.LocationOffice:      "Works in a small space.",
			core.LocationPublicPlace: "Fine wherever there is room to stand.",
		},
		Benefits: []string{"Brings focus and clarity", "Grounds the mind"},
		Cautions: []string{"Hold a wall or chair for balance if needed"},
	},
	{
		Kind:        KindAsana,
		Name:        "Supported Fish Pose (Heart Opener)",
		Description: "Lie back with a bolster or rolled blanket under the upper back, letting the heart lift. Rest the arms out to the sides, palms up, and breathe into the heart space.",
		DurationMin: 7,
		Emotions:    []core.Emotion{core.EmotionLoneliness, core.EmotionLove},
		Adaptations: map[core.Location]string{
			core.LocationHomeIndoor: "Use a bolster, pillows, or a rolled blanket.",
			core.LocationOutdoor:    "A rolled mat or towel on grass works.",
		},
		Benefits: []string{"Opens the heart", "Promotes self-acceptance"},
	},
	{
		Kind:        KindAsana,
		Name:        "Seated Twist (Ardha Matsyendrasana)",
		Description: "Sit with legs extended, bend one knee and place the foot outside the opposite thigh, then twist gently toward the bent knee. Breathe, release, and switch sides.",
		DurationMin: 4,
		Emotions:    []core.Emotion{core.EmotionGuilt, core.EmotionHurt},
		Adaptations: map[core.Location]string{
			core.LocationHomeIndoor:  "Sit on a mat or folded blanket.",
			core.LocationOutdoor:     "Grass or a bench both work.",
			core.LocationOffice:      "Sit sideways on a chair and twist toward its back.",
			core.LocationPublicPlace: "The bench variation works.",
			core.LocationVehicle:     "A gentle seated twist is possible in the passenger seat.",
		},
		Benefits: []string{"Releases emotional tension", "Promotes letting go"},
	},
	{
		Kind:        KindAsana,
		Name:        "Cat-Cow Stretch (Marjaryasana-Bitilasana)",
		Description: "Come to hands and knees. Inhale, arch the back and lift the heart; exhale, round the spine and tuck the chin. Flow slowly with the breath.",
		DurationMin: 4,
		Emotions:    nil, // universal default
		Adaptations: map[core.Location]string{
			core.LocationHomeIndoor: "Use a yoga mat or soft carpet.",
			core.LocationOutdoor:    "A mat or towel on grass.",
		},
		Benefits: []string{"Gentle spinal mobility", "Calming and centering"},
		Cautions: []string{"Place a cushion under the knees if tender"},
	},
}

// Catalog returns all practices of a kind.
func Catalog(kind Kind) []Practice {
	switch kind {
	case KindPranayama:
		return pranayamas
	case KindAsana:
		return asanas
	}
	return nil
}
