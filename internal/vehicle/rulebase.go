package vehicle

import "github.com/awmpietro/golang-vehicle-diagnosis/internal/rules"

// ProbKey is the fact key a posterior for issue is declared under.
func ProbKey(issue string) string { return issue + "_prob" }

func symptomRule(name string) rules.Rule {
	return rules.Rule{
		Name: "symptom_" + name,
		When: []rules.Guard{rules.Eq(name, rules.Int(1))},
		Then: []rules.Fact{rules.F(rules.SymptomKey, rules.String(name))},
	}
}

func diagnosisRule(name, symptom string, conds map[string]int, order []string, text string) rules.Rule {
	when := []rules.Guard{rules.Eq(rules.SymptomKey, rules.String(symptom))}
	for _, key := range order {
		when = append(when, rules.Eq(key, rules.Int(conds[key])))
	}
	return rules.Rule{
		Name: name,
		When: when,
		Then: []rules.Fact{rules.F(rules.DiagnosisKey, rules.String(text))},
	}
}

func posteriorRule(name string, g rules.Guard, text string) rules.Rule {
	return rules.Rule{
		Name: name,
		When: []rules.Guard{g},
		Then: []rules.Fact{rules.F(rules.DiagnosisKey, rules.String(text))},
	}
}

// Rulebase returns the built-in troubleshooting rules. Each call returns a
// fresh slice.
func Rulebase() []rules.Rule {
	starting := []string{"battery_ok", "starter_sound", "fuel_smell"}
	brakes := []string{"brake_problem_frequency", "noise_type"}
	cooling := []string{"coolant_level", "fan_function", "leak_presence"}
	vibration := []string{"speed_dependency", "tire_wear", "steering_vibrates"}

	return []rules.Rule{
		symptomRule("difficulty_starting"),
		symptomRule("brake_issue"),
		symptomRule("overheating"),
		symptomRule("vibrations"),

		diagnosisRule("diagnose_ignition", "difficulty_starting",
			map[string]int{"battery_ok": 1, "starter_sound": 0, "fuel_smell": 0}, starting,
			"Problema en el sistema de encendido (bujías, cables)"),
		diagnosisRule("diagnose_battery", "difficulty_starting",
			map[string]int{"battery_ok": 0, "starter_sound": 0, "fuel_smell": 0}, starting,
			"La batería está descargada o desconectada"),
		diagnosisRule("diagnose_brake_pads", "brake_issue",
			map[string]int{"brake_problem_frequency": 1, "noise_type": 1}, brakes,
			"Revisar pastillas y liquido de frenos"),
		diagnosisRule("diagnose_brake_mechanic", "brake_issue",
			map[string]int{"brake_problem_frequency": 1, "noise_type": 0}, brakes,
			"Acudir al mecanico para diagnosticar problema en los frenos"),
		diagnosisRule("diagnose_radiator", "overheating",
			map[string]int{"coolant_level": 0, "fan_function": 0, "leak_presence": 0}, cooling,
			"Problema con el radiador"),
		diagnosisRule("diagnose_coolant_refill", "overheating",
			map[string]int{"coolant_level": 1, "fan_function": 1, "leak_presence": 0}, cooling,
			"Recargue el nivel de refrigerante"),
		diagnosisRule("diagnose_wheel_balance", "vibrations",
			map[string]int{"speed_dependency": 1, "tire_wear": 0, "steering_vibrates": 1}, vibration,
			"Desbalanceo de ruedas, llevar al mecanico para un balanceo"),
		diagnosisRule("diagnose_tire_wear", "vibrations",
			map[string]int{"speed_dependency": 1, "tire_wear": 1, "steering_vibrates": 0}, vibration,
			"Desgate grave en las llantas, cambielas y reduzca la velocidad"),

		posteriorRule("battery_from_posterior",
			rules.Between(ProbKey("battery_issue"), 0.15, 0.25),
			"La batería podría estar descargada o desconectada (probabilidad alta)"),
		posteriorRule("ignition_from_posterior",
			rules.Eq(ProbKey("ignition_issue"), rules.Float(0.15)),
			"Posible fallo en el sistema de encendido"),
		posteriorRule("coolant_leak_from_posterior",
			rules.Eq(ProbKey("coolant_leak"), rules.Float(0.0805)),
			"Posible fuga de refrigerante"),
		posteriorRule("radiator_from_posterior",
			rules.Eq(ProbKey("radiator_issue"), rules.Float(0.115)),
			"Posible problema con el radiador"),
		posteriorRule("tire_from_posterior",
			rules.Eq(ProbKey("tire_issue"), rules.Float(0.1904)),
			"Posible problema con las llantas"),
		posteriorRule("engine_mount_from_posterior",
			rules.Eq(ProbKey("engine_mount_issue"), rules.Float(0.2)),
			"Posible fallo en la montura del motor"),
	}
}
