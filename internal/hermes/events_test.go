package hermes

import (
	"encoding/json"
	"testing"
)

func TestDiagnosisCompletedJSON(t *testing.T) {
	evt := DiagnosisCompleted{
		SessionID: "sess-001",
		Signal:    "yellow",
		Archetype: "Cost-Blackbox type",
		Overall:   3.1,
		Means:     map[string]float64{"cost": 2},
		HasLead:   true,
	}

	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	json.Unmarshal(data, &raw)

	for _, key := range []string{"session_id", "signal", "archetype", "overall", "means", "has_lead"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("expected key %q in %s", key, data)
		}
	}
}

func TestSubjects(t *testing.T) {
	if SubjectDiagnosisCompleted != "shindan.diagnosis.completed" {
		t.Errorf("unexpected subject %s", SubjectDiagnosisCompleted)
	}
	if SubjectResponseLogged != "shindan.response.logged" {
		t.Errorf("unexpected subject %s", SubjectResponseLogged)
	}
}
