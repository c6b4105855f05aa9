package selfcare

// Advice is home-care guidance for one mild symptom.
type Advice struct {
	Key             string   `json:"key"`
	Title           string   `json:"title"`
	Recommendations []string `json:"recommendations"`
	Duration        string   `json:"duration"`
	WarningSigns    []string `json:"warningSigns"`
	WhenToSeekCare  string   `json:"whenToSeekCare"`
}

var GeneralGuidelines = []string{
	"Rest and stay hydrated",
	"Monitor symptoms closely",
	"Use over-the-counter medications as directed",
	"Seek medical attention if symptoms worsen",
}

var Reminders = []string{
	"Self-care is appropriate only for MILD to MODERATE symptoms",
	"Seek professional medical advice for symptoms that worsen or don't improve, new or concerning symptoms, or any emergency warning sign",
	"This advice does not replace professional medical consultation",
	"When in doubt, contact your healthcare provider",
}

// catalog is ordered; lookup returns the first fuzzy hit.
var catalog = []Advice{
	{
		Key:   "headache",
		Title: "Headache Self-Care",
		Recommendations: []string{
			"Rest in a quiet, dark room",
			"Apply cold or warm compress to head or neck",
			"Stay hydrated - drink plenty of water",
			"Take over-the-counter pain reliever (acetaminophen or ibuprofen)",
			"Practice relaxation techniques or gentle neck stretches",
			"Avoid bright lights and loud noises",
			"Get adequate sleep (7-9 hours)",
		},
		Duration: "Try these measures for 24-48 hours",
		WarningSigns: []string{
			`Sudden severe headache ("worst headache of life")`,
			"Headache with fever, stiff neck, confusion",
			"Headache after head injury",
			"Progressively worsening headache",
			"New headache in people over 50",
		},
		WhenToSeekCare: "If headache persists beyond 48 hours or warning signs appear",
	},
	{
		Key:   "fever",
		Title: "Fever Self-Care",
		Recommendations: []string{
			"Rest and stay home",
			"Drink plenty of fluids (water, broth, electrolyte drinks)",
			"Take acetaminophen or ibuprofen as directed",
			"Dress in light clothing",
			"Use lukewarm bath or sponge bath (not cold)",
			"Monitor temperature every few hours",
			"Eat light, nutritious foods when hungry",
		},
		Duration: "Monitor for 24-48 hours",
		WarningSigns: []string{
			"Fever above 103°F (39.4°C)",
			"Fever lasting more than 3 days",
			"Difficulty breathing",
			"Severe headache or stiff neck",
			"Confusion or difficulty waking",
			"Persistent vomiting",
		},
		WhenToSeekCare: "If fever is very high, lasts >3 days, or warning signs appear",
	},
	{
		Key:   "common cold",
		Title: "Common Cold Self-Care",
		Recommendations: []string{
			"Get plenty of rest",
			"Stay hydrated - drink warm liquids like tea or soup",
			"Gargle with salt water for sore throat",
			"Use saline nasal drops or spray",
			"Run a humidifier to add moisture to air",
			"Take over-the-counter cold medications as needed",
			"Wash hands frequently to prevent spread",
		},
		Duration: "Symptoms typically improve in 7-10 days",
		WarningSigns: []string{
			"Symptoms lasting more than 10 days",
			"High fever (>101.5°F)",
			"Severe sore throat",
			"Difficulty breathing",
			"Persistent cough with colored mucus",
		},
		WhenToSeekCare: "If symptoms worsen or don't improve after 10 days",
	},
	{
		Key:   "sore throat",
		Title: "Sore Throat Self-Care",
		Recommendations: []string{
			"Gargle with warm salt water (1/2 tsp salt in 8 oz water)",
			"Drink warm liquids (tea with honey, warm water with lemon)",
			"Use throat lozenges or hard candy",
			"Take over-the-counter pain reliever",
			"Use a humidifier",
			"Rest your voice",
			"Avoid irritants (smoke, strong odors)",
		},
		Duration: "Usually improves in 3-7 days",
		WarningSigns: []string{
			"Difficulty swallowing or breathing",
			"Severe pain on one side",
			"Fever above 101°F",
			"Rash",
			"Blood in saliva or phlegm",
			"Symptoms lasting more than a week",
		},
		WhenToSeekCare: "If symptoms are severe or persist beyond 7 days",
	},
	{
		Key:   "runny nose",
		Title: "Runny Nose Self-Care",
		Recommendations: []string{
			"Stay hydrated",
			"Use saline nasal spray",
			"Apply warm compress to sinuses",
			"Use steam inhalation",
			"Keep head elevated when sleeping",
			"Blow nose gently, one nostril at a time",
			"Wash hands frequently",
		},
		Duration: "Usually resolves in 7-10 days",
		WarningSigns: []string{
			"Thick, colored nasal discharge persisting >10 days",
			"Facial pain or pressure",
			"High fever",
			"Symptoms worsening after initial improvement",
		},
		WhenToSeekCare: "If symptoms persist >10 days or worsen",
	},
}
