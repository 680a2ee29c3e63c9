// Package vehicle holds the fixed vehicle-fault domain: the Bayesian network,
// the symptom vocabulary, the built-in rulebase and the question flow.
package vehicle

import (
	_ "embed"
	"sync"

	"github.com/awmpietro/golang-vehicle-diagnosis/internal/bayes"
)

//go:embed vehicle.dot
var networkDOT string

//go:embed vehicle_cpts.yaml
var networkCPTs []byte

// Issues is the fixed query order; ties in ranking keep this order.
var Issues = []string{
	"ignition_issue",
	"battery_issue",
	"brake_issue",
	"coolant_leak",
	"radiator_issue",
	"tire_issue",
	"engine_mount_issue",
}

// Symptoms is the evidence vocabulary the question flow produces.
var Symptoms = []string{
	"difficulty_starting",
	"battery_ok",
	"starter_sound",
	"fuel_smell",
	"brake_issue",
	"brake_problem_frequency",
	"noise_type",
	"overheating",
	"coolant_level",
	"fan_function",
	"leak_presence",
	"vibrations",
	"speed_dependency",
	"tire_wear",
	"steering_vibrates",
}

func IsSymptom(name string) bool {
	for _, s := range Symptoms {
		if s == name {
			return true
		}
	}
	return false
}

var (
	networkOnce sync.Once
	network     *bayes.Network
	networkErr  error
)

// Network compiles the embedded network once and returns the shared,
// read-only instance.
func Network() (*bayes.Network, error) {
	networkOnce.Do(func() {
		network, networkErr = bayes.NewCompiler().Compile(networkDOT, networkCPTs)
	})
	return network, networkErr
}

// DOT returns the embedded network source.
func DOT() string { return networkDOT }
