package domain

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func TestMeasurements_FirstWriteWins(t *testing.T) {
	m := NewMeasurements()

	if !m.Set(ParamHematocrito, 45.2) {
		t.Fatal("Expected first value to be stored")
	}
	if m.Set(ParamHematocrito, 50) {
		t.Error("Second value for the same key must be ignored")
	}

	v, ok := m.Get(ParamHematocrito)
	if !ok || v != 45.2 {
		t.Errorf("Expected 45.2, got %v (found=%v)", v, ok)
	}
}

func TestMeasurements_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		value float64
	}{
		{"Negative", -1},
		{"NaN", math.NaN()},
		{"Positive infinity", math.Inf(1)},
		{"Negative infinity", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Measurements
			if m.Set(ParamVCM, tt.value) {
				t.Errorf("Expected %v to be rejected", tt.value)
			}
			if m.Len() != 0 {
				t.Errorf("Expected no values, got %d", m.Len())
			}
		})
	}
}

func TestMeasurements_PreservesInsertionOrder(t *testing.T) {
	m := NewMeasurements()
	m.Set(ParamPlaquetas, 250000)
	m.Set(ParamHemacias, 6.5)
	m.Set(ParamHCM, 21)

	expected := []string{ParamPlaquetas, ParamHemacias, ParamHCM}
	if got := m.Keys(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected keys %v, got %v", expected, got)
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"plaquetas":250000,"hemacias":6.5,"hcm":21}` {
		t.Errorf("Unexpected JSON %s", data)
	}
}

func TestMeasurements_UnmarshalKeepsOrder(t *testing.T) {
	var m Measurements
	input := `{"vcm": 70, "hemacias": 6.5, "hemacias": 9, "leucocitos": 12000}`
	if err := json.Unmarshal([]byte(input), &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	expected := []string{ParamVCM, ParamHemacias, ParamLeucocitos}
	if got := m.Keys(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected keys %v, got %v", expected, got)
	}
	if v, _ := m.Get(ParamHemacias); v != 6.5 {
		t.Errorf("Expected first duplicate to win, got %v", v)
	}

	if err := json.Unmarshal([]byte(`{"vcm": "setenta"}`), &m); err == nil {
		t.Error("Expected non-numeric value to be rejected")
	}
	if err := json.Unmarshal([]byte(`[1, 2]`), &m); err == nil {
		t.Error("Expected non-object input to be rejected")
	}
}

func TestMeasurements_NilSafe(t *testing.T) {
	var m *Measurements
	if m.Len() != 0 || m.Keys() != nil || len(m.Map()) != 0 {
		t.Error("Nil measurements should behave as empty")
	}
	if _, ok := m.Get(ParamVCM); ok {
		t.Error("Nil measurements should hold no values")
	}
}

func TestPatientAttributes_SetOnce(t *testing.T) {
	var p PatientAttributes

	if !p.SetOnce(AttrNome, "Rex") {
		t.Fatal("Expected first name to be stored")
	}
	if p.SetOnce(AttrNome, "Thor") {
		t.Error("Second name must be ignored")
	}
	if p.SetOnce(AttrTutor, "") {
		t.Error("Empty value must not be stored")
	}
	if p.SetOnce("peso", "12kg") {
		t.Error("Unknown attribute must not be stored")
	}

	expected := map[string]string{AttrNome: "Rex"}
	if got := p.Map(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}
