package ingest

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http/httptest"
	"os"
	"testing"

	"crownhunt/internal/protocol"
)

type fakeApplier struct {
	lastHeight int64
	fail       error
}

func (f *fakeApplier) ApplyStep(msg protocol.StepMsg) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	f.lastHeight = msg.Height
	return "deadbeef", nil
}

func newTestServer(t *testing.T, applier Applier) *httptest.Server {
	t.Helper()
	srv, err := NewServer(applier, "../../../schemas", log.New(os.Stderr, "", 0))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postStep(t *testing.T, ts *httptest.Server, body string) (int, protocol.AckMsg) {
	t.Helper()
	resp, err := ts.Client().Post(ts.URL, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var ack protocol.AckMsg
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	return resp.StatusCode, ack
}

func TestAcceptsValidStep(t *testing.T) {
	applier := &fakeApplier{}
	ts := newTestServer(t, applier)

	status, ack := postStep(t, ts, `{
	  "type":"STEP","protocol_version":"1.0","height":7,
	  "moves":[{"player":"alice","spawn":{"color":1}}]
	}`)
	if status != 200 || !ack.Accepted {
		t.Fatalf("status %d ack %+v", status, ack)
	}
	if ack.Message != "deadbeef" || applier.lastHeight != 7 {
		t.Fatalf("ack %+v applied %d", ack, applier.lastHeight)
	}
}

func TestRejectsSchemaViolation(t *testing.T) {
	ts := newTestServer(t, &fakeApplier{})
	status, ack := postStep(t, ts, `{
	  "type":"STEP","protocol_version":"1.0","height":-3
	}`)
	if status != 400 || ack.Accepted || ack.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("status %d ack %+v", status, ack)
	}
}

func TestRejectsBadMoveWithCode(t *testing.T) {
	applier := &fakeApplier{fail: &CodedError{Code: protocol.ErrBadMove, Msg: "unknown player"}}
	ts := newTestServer(t, applier)
	status, ack := postStep(t, ts, `{
	  "type":"STEP","protocol_version":"1.0","height":1
	}`)
	if status != 409 || ack.Code != protocol.ErrBadMove {
		t.Fatalf("status %d ack %+v", status, ack)
	}
}

func TestRejectsWrongVersion(t *testing.T) {
	ts := newTestServer(t, &fakeApplier{})
	status, ack := postStep(t, ts, `{
	  "type":"STEP","protocol_version":"0.1","height":1
	}`)
	if status != 400 || ack.Accepted {
		t.Fatalf("status %d ack %+v", status, ack)
	}
}
