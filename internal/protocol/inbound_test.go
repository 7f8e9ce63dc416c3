package protocol

import "testing"

func TestParse_Raise(t *testing.T) {
	in, err := Parse([]byte(`{"type":"raise","raiseobject":"topic"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Kind != KindRaise || in.RaiseObject != "topic" {
		t.Fatalf("unexpected result: %+v", in)
	}
}

func TestParse_MissingRequiredField(t *testing.T) {
	if _, err := Parse([]byte(`{"type":"raise"}`)); err == nil {
		t.Fatalf("expected error for missing raiseobject")
	}
}

func TestParse_PresentButEmptyRequiredFieldIsAccepted(t *testing.T) {
	in, err := Parse([]byte(`{"type":"raise","raiseobject":""}`))
	if err != nil {
		t.Fatalf("expected an explicit empty string to be a valid raise object, got error: %v", err)
	}
	if in.Kind != KindRaise || in.RaiseObject != "" {
		t.Fatalf("unexpected result: %+v", in)
	}
}

func TestParse_UnknownType(t *testing.T) {
	if _, err := Parse([]byte(`{"type":"bogus"}`)); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}

func TestParse_ElevateParsesStringInteger(t *testing.T) {
	in, err := Parse([]byte(`{"type":"elevate","object":"42"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Kind != KindElevate || in.TargetUserID != 42 {
		t.Fatalf("unexpected result: %+v", in)
	}
}

func TestParse_ElevateRejectsNonNumeric(t *testing.T) {
	if _, err := Parse([]byte(`{"type":"elevate","object":"not-a-number"}`)); err == nil {
		t.Fatalf("expected error for non-numeric elevate target")
	}
}

func TestParse_Vote(t *testing.T) {
	in, err := Parse([]byte(`{"type":"vote","pollobject":"lunch","polloptionobject":"pizza"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Kind != KindVote || in.PollTitle != "lunch" || in.OptionTitle != "pizza" {
		t.Fatalf("unexpected result: %+v", in)
	}
}

func TestParse_Instant(t *testing.T) {
	in, err := Parse([]byte(`{"type":"instant","instantobject":{"foo":"bar"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Kind != KindInstant || string(in.InstantObject) != `{"foo":"bar"}` {
		t.Fatalf("unexpected result: %+v", in)
	}
}
