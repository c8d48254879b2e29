package service

// WillTemplate is a named preset the wizard starts from.
type WillTemplate struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Sections    []string `json:"sections"`
	Prompt      string   `json:"-"`
}

var willTemplates = []WillTemplate{
	{
		ID:          "family",
		Name:        "Family Will",
		Description: "For parents who want to provide for a spouse and children and name guardians.",
		Sections:    []string{"executor", "guardians", "beneficiaries", "assets", "final_wishes"},
		Prompt:      "The user is preparing a family will. Ask about their spouse or partner, children, preferred guardians and how the estate should be divided.",
	},
	{
		ID:          "single",
		Name:        "Single Person Will",
		Description: "For individuals without dependants who want to direct their estate to relatives, friends or charities.",
		Sections:    []string{"executor", "beneficiaries", "charitable_gifts", "assets", "final_wishes"},
		Prompt:      "The user is single without dependants. Ask who should inherit, whether they want to leave charitable gifts, and who should act as executor.",
	},
	{
		ID:          "business_owner",
		Name:        "Business Owner Will",
		Description: "Adds business succession and ownership transfer on top of personal provisions.",
		Sections:    []string{"executor", "business_succession", "beneficiaries", "assets", "final_wishes"},
		Prompt:      "The user owns a business. Cover business succession, who should run or inherit the company, and how personal assets are split from business assets.",
	},
	{
		ID:          "blended_family",
		Name:        "Blended Family Will",
		Description: "Balances a current partner with children from previous relationships.",
		Sections:    []string{"executor", "guardians", "life_interest", "beneficiaries", "assets", "final_wishes"},
		Prompt:      "The user has a blended family. Carefully ask about their current partner, children and stepchildren, and how to balance their interests.",
	},
	{
		ID:          "minimal",
		Name:        "Simple Will",
		Description: "A short will naming an executor and a single residuary beneficiary.",
		Sections:    []string{"executor", "beneficiaries"},
		Prompt:      "The user wants a simple will. Keep questions brief: executor and who receives the estate.",
	},
}

// Templates returns the available presets.
func Templates() []WillTemplate {
	out := make([]WillTemplate, len(willTemplates))
	copy(out, willTemplates)
	return out
}

// FindTemplate looks up a preset by id.
func FindTemplate(id string) (WillTemplate, bool) {
	for _, t := range willTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return WillTemplate{}, false
}
