package protocol

import "github.com/clinicdesk/clinicdesk/internal/domain/rx"

// DefaultTable is the built-in OPD knowledge base. Order is part of the
// contract: matching is first-match-wins, so more specific conditions
// (chest pain before plain hypertension) must come first. The DEFAULT
// entry stays last with no keywords.
func DefaultTable() []Protocol {
	return []Protocol{
		{
			Condition: "Acute Coronary Syndrome (suspected)",
			Category:  "cardiology",
			Keywords:  []string{"chest pain", "acs", "angina", "crushing pain"},
			Rx: []rx.Item{
				{Drug: "Tab. Aspirin 325mg", Dose: "1 tab", Freq: "STAT", Duration: "once", Remarks: "chew"},
				{Drug: "Tab. Clopidogrel 300mg", Dose: "1 tab", Freq: "STAT", Duration: "once"},
				{Drug: "Tab. Atorvastatin 80mg", Dose: "1 tab", Freq: "HS", Duration: "continue"},
			},
			Advice:         "Refer to emergency for ECG and cardiac evaluation immediately. Do not drive.",
			Investigations: "ECG, Troponin-I, CBC, RFT, Lipid profile",
		},
		{
			Condition: "Hypertension",
			Category:  "cardiology",
			Keywords:  []string{"htn", "hypertension", "high bp", "elevated bp"},
			Rx: []rx.Item{
				{Drug: "Tab. Amlodipine 5mg", Dose: "1 tab", Freq: "OD", Duration: "30 days"},
				{Drug: "Tab. Telmisartan 40mg", Dose: "1 tab", Freq: "OD", Duration: "30 days"},
			},
			Advice:         "Salt restriction (<5g/day). Daily 30 min brisk walk. Home BP monitoring twice daily.",
			Investigations: "RFT, Serum electrolytes, Lipid profile, ECG, Urine routine",
		},
		{
			Condition: "Type 2 Diabetes Mellitus",
			Category:  "endocrinology",
			Keywords:  []string{"diabetes", "t2dm", "high sugar", "hyperglycemia"},
			Rx: []rx.Item{
				{Drug: "Tab. Metformin 500mg", Dose: "1 tab", Freq: "BD", Duration: "30 days", Remarks: "after food"},
			},
			Advice:         "Diabetic diet. Avoid refined sugar. Regular exercise. Foot care daily.",
			Investigations: "FBS, PPBS, HbA1c, RFT, Urine microalbumin, Fundus examination",
		},
		{
			Condition: "Upper Respiratory Tract Infection",
			Category:  "general",
			Keywords:  []string{"cough", "sore throat", "cold", "running nose", "uri"},
			Rx: []rx.Item{
				{Drug: "Tab. Levocetirizine 5mg", Dose: "1 tab", Freq: "HS", Duration: "5 days"},
				{Drug: "Syr. Dextromethorphan", Dose: "10ml", Freq: "TDS", Duration: "5 days"},
				{Drug: "Tab. Paracetamol 500mg", Dose: "1 tab", Freq: "SOS", Duration: "5 days", Remarks: "if fever"},
			},
			Advice:         "Warm saline gargles thrice daily. Steam inhalation. Adequate hydration.",
			Investigations: "",
		},
		{
			Condition: "Viral Fever",
			Category:  "general",
			Keywords:  []string{"fever", "pyrexia", "febrile"},
			Rx: []rx.Item{
				{Drug: "Tab. Paracetamol 650mg", Dose: "1 tab", Freq: "TDS", Duration: "3 days", Remarks: "after food"},
			},
			Advice:         "Rest and plenty of oral fluids. Tepid sponging if temperature above 101F. Review if fever persists beyond 3 days.",
			Investigations: "CBC, Peripheral smear for MP, Dengue NS1 if day 2-5 of fever",
		},
		{
			Condition: "Acute Gastroenteritis",
			Category:  "gastroenterology",
			Keywords:  []string{"loose stools", "loose motion", "diarrhea", "diarrhoea", "gastroenteritis", "vomiting"},
			Rx: []rx.Item{
				{Drug: "ORS sachet", Dose: "1 sachet in 1L water", Freq: "SOS", Duration: "3 days", Remarks: "after each loose stool"},
				{Drug: "Cap. Lactobacillus", Dose: "1 cap", Freq: "BD", Duration: "5 days"},
				{Drug: "Tab. Ondansetron 4mg", Dose: "1 tab", Freq: "SOS", Duration: "3 days", Remarks: "if vomiting"},
			},
			Advice:         "Oral rehydration. Light home-cooked food. Avoid milk and outside food. Hand hygiene.",
			Investigations: "Stool routine if symptoms persist beyond 48 hours",
		},
		{
			Condition: "Dyspepsia / APD",
			Category:  "gastroenterology",
			Keywords:  []string{"acidity", "heartburn", "gastritis", "dyspepsia", "epigastric pain"},
			Rx: []rx.Item{
				{Drug: "Cap. Pantoprazole 40mg", Dose: "1 cap", Freq: "OD", Duration: "14 days", Remarks: "before breakfast"},
				{Drug: "Syr. Sucralfate", Dose: "10ml", Freq: "TDS", Duration: "14 days"},
			},
			Advice:         "Small frequent meals. Avoid spicy food, tea/coffee on empty stomach, late dinners.",
			Investigations: "",
		},
		{
			Condition: "Urinary Tract Infection",
			Category:  "general",
			Keywords:  []string{"burning micturition", "dysuria", "uti", "burning urine"},
			Rx: []rx.Item{
				{Drug: "Tab. Nitrofurantoin 100mg", Dose: "1 tab", Freq: "BD", Duration: "5 days", Remarks: "after food"},
				{Drug: "Syr. Alkalizer", Dose: "10ml", Freq: "TDS", Duration: "5 days", Remarks: "in water"},
			},
			Advice:         "Increase oral fluid intake to 3L/day. Do not hold urine.",
			Investigations: "Urine routine and microscopy, Urine culture and sensitivity",
		},
		{
			Condition: "Migraine",
			Category:  "neurology",
			Keywords:  []string{"migraine", "headache", "throbbing pain"},
			Rx: []rx.Item{
				{Drug: "Tab. Naproxen 250mg", Dose: "1 tab", Freq: "SOS", Duration: "5 days", Remarks: "at onset"},
				{Drug: "Tab. Domperidone 10mg", Dose: "1 tab", Freq: "SOS", Duration: "5 days"},
			},
			Advice:         "Identify and avoid triggers. Regular sleep schedule. Maintain headache diary.",
			Investigations: "",
		},
		{
			Condition: "Hypothyroidism",
			Category:  "endocrinology",
			Keywords:  []string{"hypothyroid", "thyroid", "tsh high"},
			Rx: []rx.Item{
				{Drug: "Tab. Thyroxine 50mcg", Dose: "1 tab", Freq: "OD", Duration: "30 days", Remarks: "empty stomach"},
			},
			Advice:         "Take thyroxine on empty stomach, 30 min before breakfast. Repeat TSH after 6 weeks.",
			Investigations: "TSH, Free T4",
		},
		{
			Condition:      DefaultCondition,
			Category:       "general",
			Keywords:       nil,
			Rx:             nil,
			Advice:         "Symptomatic treatment. Review with reports. Follow up after 3 days or earlier if symptoms worsen.",
			Investigations: "CBC",
		},
	}
}
