package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	stepSchema := compile("step.schema.json")
	digestSchema := compile("digest.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"explorer",
	  "from_height":-1,
	  "want_state":true
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "session_id":"S1",
	  "network":"regtest",
	  "state_version":2020600,
	  "tip_height":42,
	  "tip_digest":"`+hex64+`"
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var step any
	_ = json.Unmarshal([]byte(`{
	  "type":"STEP",
	  "protocol_version":"1.0",
	  "height":42,
	  "block_hash":"`+hex64+`",
	  "treasure":500000000,
	  "moves":[
	    {"player":"alice","spawn":{"color":2},"fee":100},
	    {"player":"bob",
	     "waypoints":{"0":[[10,20],[11,20]]},
	     "attacks":[{"index":0,"target_player":"alice","target_index":1}],
	     "lock_change":{"1":-100000000},
	     "address":"payout1",
	     "version_vote":2020500}
	  ]
	}`), &step)
	validate(stepSchema, step)

	var digest any
	_ = json.Unmarshal([]byte(`{
	  "type":"DIGEST",
	  "protocol_version":"1.0",
	  "height":42,
	  "digest":"`+hex64+`",
	  "tax_collected":12345,
	  "characters_dead":2
	}`), &digest)
	validate(digestSchema, digest)
}

func TestStepSchema_RejectsBadMoves(t *testing.T) {
	p := filepath.Join("..", "..", "schemas", "step.schema.json")
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	bad := []string{
		`{"type":"STEP","protocol_version":"1.0","height":-1}`,
		`{"type":"STEP","protocol_version":"1.0","height":0,"block_hash":"zz"}`,
		`{"type":"STEP","protocol_version":"1.0","height":0,"moves":[{"player":""}]}`,
		`{"type":"STEP","protocol_version":"1.0","height":0,"moves":[{"player":"a","spawn":{"color":4}}]}`,
		`{"type":"STEP","protocol_version":"1.0","height":0,"moves":[{"player":"a","waypoints":{"x":[[1,2]]}}]}`,
	}
	for i, raw := range bad {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if err := s.Validate(v); err == nil {
			t.Fatalf("case %d: expected validation failure", i)
		}
	}
}

const hex64 = "a3f1c0d2b4e5968718293a4b5c6d7e8f9fa0b1c2d3e4f5061728394a5b6c7d8e"
