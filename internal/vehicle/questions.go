package vehicle

// Question is a yes/no prompt whose answer is recorded under Variable as 1
// or 0. FollowUps are asked only after a yes.
type Question struct {
	Variable  string
	Prompt    string
	FollowUps []Question
}

var Questions = []Question{
	{
		Variable: "difficulty_starting",
		Prompt:   "¿Tu vehículo tiene dificultad para arrancar?",
		FollowUps: []Question{
			{Variable: "battery_ok", Prompt: "¿La batería parece estar cargada?"},
			{Variable: "starter_sound", Prompt: "¿Escuchas el sonido del motor de arranque?"},
			{Variable: "fuel_smell", Prompt: "¿Notas olor a combustible?"},
		},
	},
	{
		Variable: "brake_issue",
		Prompt:   "¿Los frenos suenan raro al utilizarlos?",
		FollowUps: []Question{
			{Variable: "brake_problem_frequency", Prompt: "¿El problema con los frenos ocurre frecuentemente?"},
			{Variable: "noise_type", Prompt: "¿Los frenos funcionan con normalidad?"},
		},
	},
	{
		Variable: "overheating",
		Prompt:   "¿Tu vehículo se sobrecalienta?",
		FollowUps: []Question{
			{Variable: "coolant_level", Prompt: "¿El nivel de refrigerante está bajo?"},
			{Variable: "fan_function", Prompt: "¿El ventilador del radiador está funcionando?"},
			{Variable: "leak_presence", Prompt: "¿Ves signos de fuga de refrigerante?"},
		},
	},
	{
		Variable: "vibrations",
		Prompt:   "¿Sientes vibraciones mientras conduces?",
		FollowUps: []Question{
			{Variable: "speed_dependency", Prompt: "¿Las vibraciones aumentan con la velocidad?"},
			{Variable: "tire_wear", Prompt: "¿Notas desgaste en las llantas?"},
			{Variable: "steering_vibrates", Prompt: "¿El volante vibra mientras conduces?"},
		},
	},
}

// Answerer answers one question with yes (true) or no.
type Answerer interface {
	Answer(q Question) (bool, error)
}

// Interview walks qs in order and collects evidence. Follow-ups of a
// question answered no are skipped and left out of the evidence.
func Interview(qs []Question, a Answerer) (map[string]int, error) {
	evidence := make(map[string]int)
	if err := interview(qs, a, evidence); err != nil {
		return nil, err
	}
	return evidence, nil
}

func interview(qs []Question, a Answerer, evidence map[string]int) error {
	for _, q := range qs {
		yes, err := a.Answer(q)
		if err != nil {
			return err
		}
		if !yes {
			evidence[q.Variable] = 0
			continue
		}
		evidence[q.Variable] = 1
		if err := interview(q.FollowUps, a, evidence); err != nil {
			return err
		}
	}
	return nil
}
