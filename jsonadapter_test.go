package jsonadapter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

func TestResponseCandidatesEmptyNotNull(t *testing.T) {
	resp := Response{Candidates: []Candidate{}}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"candidates":[]`) {
		t.Errorf("expected candidates:[], got %s", data)
	}
}

func TestRequestIDJSONRoundTrip(t *testing.T) {
	req := Request{RequestID: 42, Input: "date", CursorPos: 4}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"request_id"`) {
		t.Errorf("expected request_id key in JSON, got %s", data)
	}
	if strings.Contains(string(data), `"type"`) {
		t.Errorf("expected empty type to be omitted, got %s", data)
	}

	var decoded Request
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.RequestID != 42 || decoded.CursorPos != 4 {
		t.Errorf("unexpected round trip: %+v", decoded)
	}
}

func TestResponseFeedbackOmittedWhenNil(t *testing.T) {
	resp := Response{Candidates: []Candidate{}}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if strings.Contains(s, `"feedback"`) {
		t.Errorf("expected no feedback key, got %s", s)
	}
	if strings.Contains(s, `"error"`) {
		t.Errorf("expected no error key, got %s", s)
	}
}

func TestResponseFeedbackIncluded(t *testing.T) {
	resp := Response{
		Candidates: []Candidate{},
		Feedback: &Feedback{
			Message: "A JSON adapter was found for this command.",
			Actions: []string{"date | jc --date | ConvertFrom-Json"},
		},
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, `"actions":["date | jc --date | ConvertFrom-Json"]`) {
		t.Errorf("expected actions in JSON, got %s", s)
	}
}

func TestResponseErrorIncluded(t *testing.T) {
	resp := Response{
		Candidates: []Candidate{},
		Error: &Error{
			Code:    "parse_error",
			Message: "something went wrong",
		},
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, `"error"`) {
		t.Error("expected error key in JSON")
	}
	if !strings.Contains(s, `"parse_error"`) {
		t.Error("expected parse_error code")
	}
}

func TestErrorTOMLKeys(t *testing.T) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(Error{Code: "parse_error", Message: "bad source"}); err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	for _, want := range []string{`code = "parse_error"`, `message = "bad source"`} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in TOML, got:\n%s", want, s)
		}
	}
}

func TestEventRequestDecode(t *testing.T) {
	raw := `{"type":"event","event":"executed","text":"date","success":true}`
	var ev EventRequest
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != TypeEvent || ev.Event != EventExecuted || ev.Text != "date" || !ev.Success {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestStatsJSONKeys(t *testing.T) {
	data, err := json.Marshal(Stats{SuggestionsDisplayed: 3, CachedAdapters: 2})
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, key := range []string{`"suggestions_displayed":3`, `"cached_adapters":2`, `"predictions_cancelled":0`} {
		if !strings.Contains(s, key) {
			t.Errorf("expected %s in %s", key, s)
		}
	}
}
