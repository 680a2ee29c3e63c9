package rules

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainRules() []Rule {
	return []Rule{
		{
			Name: "symptom_overheating",
			When: []Guard{Eq("overheating", Int(1))},
			Then: []Fact{F(SymptomKey, String("overheating"))},
		},
		{
			Name: "radiator",
			When: []Guard{
				Eq(SymptomKey, String("overheating")),
				Eq("coolant_level", Int(0)),
			},
			Then: []Fact{F(DiagnosisKey, String("radiator"))},
		},
		{
			Name: "battery_from_posterior",
			When: []Guard{Between("battery_issue_prob", 0.15, 0.25)},
			Then: []Fact{F(DiagnosisKey, String("battery"))},
		},
	}
}

func TestEngine_DeclareIsIdempotent(t *testing.T) {
	e, err := NewEngine(nil)
	require.NoError(t, err)

	assert.True(t, e.Declare(F("overheating", Int(1))))
	assert.False(t, e.Declare(F("overheating", Int(1))))
	assert.Equal(t, 1, e.Len())

	assert.True(t, e.Declare(F("overheating", Int(0))))
	assert.Equal(t, 2, e.Len())
}

func TestEngine_DeclareRejectsMalformedFacts(t *testing.T) {
	e, err := NewEngine(nil)
	require.NoError(t, err)

	assert.False(t, e.Declare(Fact{Key: "x"}))
	assert.False(t, e.Declare(F("", Int(1))))
	assert.Zero(t, e.Len())
}

func TestEngine_DeclareRejectsNaN(t *testing.T) {
	e, err := NewEngine(nil)
	require.NoError(t, err)

	assert.False(t, e.Declare(F("battery_issue_prob", Float(math.NaN()))))
	assert.False(t, e.Declare(F("battery_issue_prob", Float(math.NaN()))))
	assert.Zero(t, e.Len())

	wm := NewWorkingMemory()
	assert.False(t, wm.Declare(F("battery_issue_prob", Float(math.NaN()))))
	assert.Zero(t, wm.Len())
}

func TestEngine_RunChainsToFixpoint(t *testing.T) {
	e, err := NewEngine(chainRules())
	require.NoError(t, err)

	e.Declare(F("coolant_level", Int(0)))
	e.Declare(F("overheating", Int(1)))
	require.NoError(t, e.Run())

	assert.Equal(t, []string{"radiator"}, e.Diagnoses())
	assert.Equal(t, 4, e.Len())
}

func TestEngine_RunWithTraceRecordsFiredRules(t *testing.T) {
	e, err := NewEngine(chainRules())
	require.NoError(t, err)

	e.Declare(F("overheating", Int(1)))
	e.Declare(F("coolant_level", Int(0)))
	e.Declare(F("battery_issue_prob", Float(0.2)))

	trace, err := e.RunWithTrace()
	require.NoError(t, err)
	require.NotNil(t, trace)

	assert.Equal(t, TerminatedFixpoint, trace.Terminated)
	assert.Equal(t, 2, trace.Passes)
	require.Len(t, trace.Fired, 3)
	assert.Equal(t, "symptom_overheating", trace.Fired[0].Rule)
	assert.Equal(t, []string{`diagnosis="radiator"`}, trace.Fired[1].Declared)
	assert.Equal(t, []string{"radiator", "battery"}, e.Diagnoses())
}

func TestEngine_RunIsIdempotent(t *testing.T) {
	e, err := NewEngine(chainRules())
	require.NoError(t, err)

	e.Declare(F("overheating", Int(1)))
	e.Declare(F("coolant_level", Int(0)))
	require.NoError(t, e.Run())
	n := e.Len()

	trace, err := e.RunWithTrace()
	require.NoError(t, err)
	assert.Equal(t, n, e.Len())
	assert.Equal(t, 1, trace.Passes)
	assert.Empty(t, trace.Fired)
}

func TestEngine_RangeGuardBoundsAreInclusive(t *testing.T) {
	for _, p := range []float64{0.15, 0.25} {
		e, err := NewEngine(chainRules())
		require.NoError(t, err)
		e.Declare(F("battery_issue_prob", Float(p)))
		require.NoError(t, e.Run())
		assert.Equal(t, []string{"battery"}, e.Diagnoses(), "p=%v", p)
	}

	e, err := NewEngine(chainRules())
	require.NoError(t, err)
	e.Declare(F("battery_issue_prob", Float(0.2500001)))
	require.NoError(t, e.Run())
	assert.Empty(t, e.Diagnoses())
}

func TestEngine_ResetClearsWorkingMemory(t *testing.T) {
	e, err := NewEngine(chainRules())
	require.NoError(t, err)

	e.Declare(F("battery_issue_prob", Float(0.2)))
	require.NoError(t, e.Run())
	require.NotEmpty(t, e.Diagnoses())

	e.Reset()
	assert.Zero(t, e.Len())
	require.NoError(t, e.Run())
	assert.Empty(t, e.Diagnoses())
}

func TestEngine_MaxPassesExceeded(t *testing.T) {
	rules := []Rule{
		{Name: "a", When: []Guard{Eq("x", Int(1))}, Then: []Fact{F("y", Int(1))}},
		{Name: "b", When: []Guard{Eq("y", Int(1))}, Then: []Fact{F("z", Int(1))}},
	}
	// b is checked before a, so one pass cannot reach the fixpoint.
	e, err := NewEngine([]Rule{rules[1], rules[0]}, WithMaxPasses(1))
	require.NoError(t, err)
	e.Declare(F("x", Int(1)))

	trace, err := e.RunWithTrace()
	var re *RuleError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, TerminatedMaxPasses, trace.Terminated)
}

func TestNewEngine_RejectsInvalidRules(t *testing.T) {
	cases := map[string][]Rule{
		"empty name":   {{When: []Guard{Eq("x", Int(1))}}},
		"no guards":    {{Name: "r"}},
		"nil guard":    {{Name: "r", When: []Guard{nil}}},
		"invalid fact": {{Name: "r", When: []Guard{Eq("x", Int(1))}, Then: []Fact{{Key: "y"}}}},
		"nan fact":     {{Name: "r", When: []Guard{Eq("x", Int(1))}, Then: []Fact{F("y", Float(math.NaN()))}}},
		"duplicate": {
			{Name: "r", When: []Guard{Eq("x", Int(1))}},
			{Name: "r", When: []Guard{Eq("y", Int(1))}},
		},
	}
	for name, rules := range cases {
		_, err := NewEngine(rules)
		var re *RuleError
		assert.True(t, errors.As(err, &re), name)
	}
}

func TestEngine_ExprGuard(t *testing.T) {
	g, err := Expr(`"vibrations" in symptom && tire_issue_prob > 0.19`)
	require.NoError(t, err)

	e, err := NewEngine([]Rule{{
		Name: "tires",
		When: []Guard{g},
		Then: []Fact{F(DiagnosisKey, String("tires"))},
	}})
	require.NoError(t, err)

	e.Declare(F(SymptomKey, String("overheating")))
	e.Declare(F(SymptomKey, String("vibrations")))
	e.Declare(F("tire_issue_prob", Float(0.2017)))
	require.NoError(t, e.Run())
	assert.Equal(t, []string{"tires"}, e.Diagnoses())
}

func TestExprGuard_UnboundIdentifierDoesNotMatch(t *testing.T) {
	g, err := Expr(`coolant_leak_prob != 0.5`)
	require.NoError(t, err)

	wm := NewWorkingMemory()
	assert.False(t, g.Matches(wm))

	wm.Declare(F("coolant_leak_prob", Float(0.08)))
	assert.True(t, g.Matches(wm))
}

func TestExprGuard_KeyWithSeveralFacts(t *testing.T) {
	for _, cond := range []string{`symptom == "overheating"`, `"overheating" in symptom`} {
		g, err := Expr(cond)
		require.NoError(t, err, cond)

		wm := NewWorkingMemory()
		wm.Declare(F(SymptomKey, String("overheating")))
		assert.True(t, g.Matches(wm), cond)

		wm.Declare(F(SymptomKey, String("vibrations")))
		assert.True(t, g.Matches(wm), cond)
	}
}

func TestEngine_ExprGuardFixpointIgnoresRuleOrder(t *testing.T) {
	notVibrating, err := Expr(`symptom != "vibrations"`)
	require.NoError(t, err)

	shaking := Rule{
		Name: "shaking",
		When: []Guard{Eq("vibration_level", Int(1))},
		Then: []Fact{F(SymptomKey, String("vibrations"))},
	}
	cooling := Rule{
		Name: "cooling",
		When: []Guard{notVibrating},
		Then: []Fact{F(DiagnosisKey, String("cooling"))},
	}

	run := func(rules ...Rule) []string {
		e, err := NewEngine(rules)
		require.NoError(t, err)
		e.Declare(F(SymptomKey, String("overheating")))
		e.Declare(F("vibration_level", Int(1)))
		require.NoError(t, e.Run())
		return e.Diagnoses()
	}

	assert.Equal(t, []string{"cooling"}, run(shaking, cooling))
	assert.Equal(t, run(shaking, cooling), run(cooling, shaking))
}

func TestWorkingMemory_KeysInDeclarationOrder(t *testing.T) {
	wm := NewWorkingMemory()
	wm.Declare(F("b", Int(1)))
	wm.Declare(F("a", Int(1)))
	wm.Declare(F("b", Int(0)))

	assert.Equal(t, []string{"b", "a"}, wm.Keys())
	assert.Len(t, wm.Values("b"), 2)
	assert.Equal(t, []Fact{F("b", Int(1)), F("a", Int(1)), F("b", Int(0))}, wm.Facts())
}
