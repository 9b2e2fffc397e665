// Package library is the static skin condition catalog and the matcher that
// cross-references detected labels against it.
package library

import "github.com/menta2k/dermascan/pkg/types"

// catalog order is the matcher's tie-break: the first satisfying entry wins
var catalog = []types.DiseaseInfo{
	{
		ID:          "acne",
		Name:        "Acne",
		Description: "A common condition where hair follicles become plugged with oil and dead skin cells, causing pimples, blackheads or whiteheads.",
		Severity:    "mild",
		Symptoms:    []string{"Whiteheads and blackheads", "Small red tender bumps", "Pimples with pus at their tips", "Painful lumps beneath the skin"},
		Causes:      []string{"Excess oil production", "Clogged hair follicles", "Bacteria", "Hormonal changes"},
		Treatments:  []string{"Wash affected areas twice daily with a gentle cleanser", "Use over-the-counter benzoyl peroxide or salicylic acid products", "Ask a dermatologist about topical retinoids"},
		Prevention:  []string{"Avoid touching your face", "Use non-comedogenic products", "Remove makeup before sleeping"},
		WhenToSeeDoctor: []string{
			"Acne does not improve after several weeks of self-care",
			"Nodules or cysts are painful or leave scars",
		},
	},
	{
		ID:          "eczema",
		Name:        "Eczema",
		Description: "Atopic dermatitis makes skin red, dry and itchy. It is long lasting and tends to flare periodically.",
		Severity:    "moderate",
		Symptoms:    []string{"Dry skin", "Intense itching", "Red to brownish-gray patches", "Thickened, cracked or scaly skin"},
		Causes:      []string{"Genetic variation affecting the skin barrier", "Immune system dysfunction", "Environmental irritants"},
		Treatments:  []string{"Moisturize at least twice a day", "Apply an anti-itch cream to the affected area", "Take short lukewarm baths"},
		Prevention:  []string{"Identify and avoid triggers", "Use gentle, fragrance-free soaps"},
		WhenToSeeDoctor: []string{
			"Discomfort affects sleep or daily activities",
			"The skin becomes painful or shows signs of infection",
		},
	},
	{
		ID:          "psoriasis",
		Name:        "Psoriasis",
		Description: "A chronic skin disease that causes a rash with itchy, scaly patches, most commonly on the knees, elbows, trunk and scalp.",
		Severity:    "moderate",
		Symptoms:    []string{"Patchy rash with silvery scales", "Dry, cracked skin that may bleed", "Itching or burning", "Thick, pitted nails"},
		Causes:      []string{"Immune system problem", "Genetics", "Triggers such as stress, infections or cold weather"},
		Treatments:  []string{"Topical corticosteroids", "Moisturizers and coal tar preparations", "Light therapy under medical supervision"},
		Prevention:  []string{"Avoid skin injuries", "Limit alcohol and stop smoking", "Manage stress"},
		WhenToSeeDoctor: []string{
			"The rash becomes widespread or painful",
			"Joints become painful or swollen",
		},
	},
	{
		ID:          "ringworm",
		Name:        "Ringworm",
		Description: "A contagious fungal infection of the skin that causes a ring-shaped, scaly, itchy rash.",
		Severity:    "mild",
		Symptoms:    []string{"Scaly ring-shaped area", "Itchiness", "Clear or scaly area inside the ring"},
		Causes:      []string{"Dermatophyte fungi", "Contact with infected people, animals or objects"},
		Treatments:  []string{"Apply an over-the-counter antifungal cream", "Keep the area clean and dry"},
		Prevention:  []string{"Do not share towels or clothing", "Keep skin dry", "Wear sandals in communal showers"},
		WhenToSeeDoctor: []string{
			"The rash spreads or does not improve after two weeks",
			"The infection affects the scalp",
		},
	},
	{
		ID:          "rosacea",
		Name:        "Rosacea",
		Description: "A common skin condition that causes redness and visible blood vessels in the face, sometimes with small pus-filled bumps.",
		Severity:    "mild",
		Symptoms:    []string{"Facial flushing", "Visible veins", "Swollen bumps", "Burning sensation"},
		Causes:      []string{"Unknown, possibly immune or vascular", "Triggers such as hot drinks, spicy food, alcohol or sunlight"},
		Treatments:  []string{"Use gentle skin care products", "Apply sunscreen daily", "Ask a doctor about prescription creams"},
		Prevention:  []string{"Keep a diary of flare triggers", "Protect the face from sun and wind"},
		WhenToSeeDoctor: []string{
			"Persistent redness of the face",
			"Eye irritation or swollen eyelids",
		},
	},
	{
		ID:          "hives",
		Name:        "Hives (Urticaria)",
		Description: "Itchy, raised welts on the skin, often triggered by an allergic reaction.",
		Severity:    "mild",
		Symptoms:    []string{"Raised red or skin-colored welts", "Welts that change shape and fade within 24 hours", "Itching"},
		Causes:      []string{"Allergic reactions to food or medication", "Infections", "Heat, cold or pressure"},
		Treatments:  []string{"Take an over-the-counter antihistamine", "Apply cool compresses", "Wear loose, smooth-textured clothing"},
		Prevention:  []string{"Avoid known triggers"},
		WhenToSeeDoctor: []string{
			"Hives persist for more than a few days",
			"Seek emergency care if you have difficulty breathing or swelling of the throat",
		},
	},
	{
		ID:          "vitiligo",
		Name:        "Vitiligo",
		Description: "A condition that causes loss of skin color in patches.",
		Severity:    "mild",
		Symptoms:    []string{"Patchy loss of skin color", "Premature whitening of hair"},
		Causes:      []string{"Autoimmune destruction of pigment cells", "Family history"},
		Treatments:  []string{"Protect depigmented skin from the sun", "Ask a dermatologist about topical or light therapy"},
		Prevention:  []string{"Use sunscreen to avoid sunburn on affected skin"},
		WhenToSeeDoctor: []string{
			"Areas of skin, hair or mucous membranes lose color",
		},
	},
	{
		ID:          "melanoma",
		Name:        "Melanoma",
		Description: "The most serious type of skin cancer, developing in the cells that produce melanin.",
		Severity:    "severe",
		Symptoms:    []string{"A change in an existing mole", "A new pigmented or unusual-looking growth", "Asymmetric shape or irregular border"},
		Causes:      []string{"Ultraviolet radiation exposure", "Many or unusual moles", "Family history"},
		Treatments:  []string{"Surgical removal by a specialist", "Further treatment depending on stage"},
		Prevention:  []string{"Avoid the sun during the middle of the day", "Wear sunscreen year-round", "Check your skin regularly"},
		WhenToSeeDoctor: []string{
			"Any change in a mole's size, shape, color or feel",
		},
	},
	{
		ID:          "chicken-skin",
		Name:        "Chicken Skin",
		Description: "Keratosis pilaris causes dry, rough patches and tiny bumps, usually on the upper arms, thighs, cheeks or buttocks.",
		Severity:    "mild",
		Symptoms:    []string{"Painless tiny bumps", "Dry, rough skin", "Worsening when seasonal changes cause dry skin"},
		Causes:      []string{"Buildup of keratin plugging hair follicles"},
		Treatments:  []string{"Use gentle exfoliating creams with urea or lactic acid", "Moisturize after bathing"},
		Prevention:  []string{"Use a humidifier", "Limit bath time"},
		WhenToSeeDoctor: []string{
			"You are concerned about the appearance of your skin",
		},
	},
	{
		ID:          "wart",
		Name:        "Warts",
		Description: "Small, grainy skin growths caused by the human papillomavirus (HPV).",
		Severity:    "mild",
		Symptoms:    []string{"Small fleshy grainy bumps", "Rough to the touch", "Sprinkled with black pinpoints"},
		Causes:      []string{"Human papillomavirus infection through cuts in the skin"},
		Treatments:  []string{"Salicylic acid preparations", "Freezing (cryotherapy) by a professional"},
		Prevention:  []string{"Avoid picking at warts", "Keep hands dry", "Wear footwear in public pools"},
		WhenToSeeDoctor: []string{
			"Warts are painful or change in appearance",
			"Warts spread or keep recurring",
		},
	},
}

// synonyms maps a catalog id to alternative names for the condition
var synonyms = map[string][]string{
	"chicken-skin": {"chicken skin", "keratosis pilaris", "keratosis", "kp"},
	"wart":         {"wart", "warts", "verruca", "verrucae", "plantar wart"},
	"eczema":       {"eczema", "atopic dermatitis", "dermatitis"},
	"psoriasis":    {"psoriasis", "plaque psoriasis"},
	"acne":         {"acne", "pimple", "pimples", "acne vulgaris"},
	"ringworm":     {"ringworm", "tinea", "tinea corporis"},
	"rosacea":      {"rosacea", "acne rosacea"},
	"hives":        {"hives", "urticaria"},
	"vitiligo":     {"vitiligo", "leukoderma"},
	"melanoma":     {"melanoma", "skin cancer", "malignant melanoma"},
}

// All returns the catalog in matching order
func All() []types.DiseaseInfo {
	out := make([]types.DiseaseInfo, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the entry with the given id
func Lookup(id string) (*types.DiseaseInfo, bool) {
	for i := range catalog {
		if catalog[i].ID == id {
			d := catalog[i]
			return &d, true
		}
	}
	return nil, false
}
