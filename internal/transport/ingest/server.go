// Package ingest accepts STEP submissions over HTTP, validates them
// against the wire schema and hands them to the block loop.
package ingest

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"crownhunt/internal/protocol"
)

const maxStepBytes = 4 << 20

// Applier advances the chain by one block.  It returns the digest of
// the resulting state, or a CodedError when the step is rejected.
type Applier interface {
	ApplyStep(msg protocol.StepMsg) (digest string, err error)
}

// CodedError carries a protocol error code to the client.
type CodedError struct {
	Code string
	Msg  string
}

func (e *CodedError) Error() string { return e.Code + ": " + e.Msg }

type Server struct {
	applier Applier
	schema  *jsonschema.Schema
	log     *log.Logger
}

func NewServer(applier Applier, schemaDir string, logger *log.Logger) (*Server, error) {
	schema, err := jsonschema.Compile(filepath.Join(schemaDir, "step.schema.json"))
	if err != nil {
		return nil, err
	}
	return &Server{applier: applier, schema: schema, log: logger}, nil
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxStepBytes))
		if err != nil {
			s.ack(rw, http.StatusBadRequest, protocol.ErrProtoBadRequest, "read body")
			return
		}

		var raw any
		if err := json.Unmarshal(body, &raw); err != nil {
			s.ack(rw, http.StatusBadRequest, protocol.ErrProtoBadRequest, "not JSON")
			return
		}
		if err := s.schema.Validate(raw); err != nil {
			s.ack(rw, http.StatusBadRequest, protocol.ErrProtoBadRequest, err.Error())
			return
		}

		var msg protocol.StepMsg
		if err := json.Unmarshal(body, &msg); err != nil {
			s.ack(rw, http.StatusBadRequest, protocol.ErrProtoBadRequest, err.Error())
			return
		}
		if msg.ProtocolVersion != protocol.Version {
			s.ack(rw, http.StatusBadRequest, protocol.ErrProtoBadRequest, "bad protocol_version")
			return
		}

		digest, err := s.applier.ApplyStep(msg)
		if err != nil {
			var coded *CodedError
			if errors.As(err, &coded) {
				s.ack(rw, http.StatusConflict, coded.Code, coded.Msg)
				return
			}
			s.log.Printf("step %d failed: %v", msg.Height, err)
			s.ack(rw, http.StatusInternalServerError, protocol.ErrInternal, "internal error")
			return
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(protocol.AckMsg{
			Type:            protocol.TypeAck,
			ProtocolVersion: protocol.Version,
			AckFor:          protocol.TypeStep,
			Accepted:        true,
			Message:         digest,
		})
	}
}

func (s *Server) ack(rw http.ResponseWriter, status int, code, msg string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          protocol.TypeStep,
		Accepted:        false,
		Code:            code,
		Message:         msg,
	})
}
