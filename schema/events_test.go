package schema

import "testing"

func TestDecodeAgentEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    AgentEventType
		wantErr bool
	}{
		{"agent response", `{"type":"agent_response","text":"hi"}`, EventAgentResponse, false},
		{"thought", `{"type":"thought","text":"reading page"}`, EventThought, false},
		{"study results", `{"type":"study_results","score":4,"total":5,"study_plan":[{"step":1,"text":"review"}]}`, EventStudyResults, false},
		{"missing type", `{"text":"hi"}`, "", true},
		{"malformed", `{"type":`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := DecodeAgentEvent([]byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected decode error")
				}
				if string(event.Raw) != tt.payload {
					t.Fatalf("expected raw payload preserved, got %q", event.Raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if event.Type != tt.want {
				t.Fatalf("expected type %q, got %q", tt.want, event.Type)
			}
		})
	}
}

func TestDecodeAgentEventStudyResultsPayload(t *testing.T) {
	payload := `{"type":"study_results","score":3,"total":10,"feedback":"keep going","study_plan":[{"step":1,"text":"a"},{"step":2,"text":"b"}]}`
	event, err := DecodeAgentEvent([]byte(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Score != 3 || event.Total != 10 {
		t.Fatalf("unexpected score %d/%d", event.Score, event.Total)
	}
	if len(event.StudyPlan) != 2 || event.StudyPlan[1].Text != "b" {
		t.Fatalf("unexpected study plan: %+v", event.StudyPlan)
	}
}

func TestConversationEntryInProgress(t *testing.T) {
	entry := ConversationEntry{Role: RoleAgent, Thoughts: []string{"step"}}
	if !entry.InProgress() {
		t.Fatal("expected in-progress entry")
	}
	entry.Text = "done"
	if entry.InProgress() {
		t.Fatal("expected finalized entry")
	}
}
