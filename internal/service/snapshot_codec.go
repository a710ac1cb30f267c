package service

import (
	"strconv"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/zeebo/xxh3"
)

const snapshotVersion = 1

// snapshotEnvelope is the persisted form: {"v":1,"sum":"<xxh3 hex>","state":{...}}.
type snapshotEnvelope struct {
	Version int             `json:"v"`
	Sum     string          `json:"sum"`
	State   json.RawMessage `json:"state"`
}

// EncodeSnapshot serializes the state with a checksum over the state bytes.
func EncodeSnapshot(state model.SessionState) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, errors.Wrap(err, "marshal session state")
	}
	out, err := json.Marshal(snapshotEnvelope{
		Version: snapshotVersion,
		Sum:     checksum(raw),
		State:   raw,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal snapshot envelope")
	}
	return out, nil
}

// DecodeSnapshot parses and verifies a snapshot. Every failure wraps ErrSnapshotCorrupt.
func DecodeSnapshot(data []byte) (model.SessionState, error) {
	if len(data) == 0 {
		return model.SessionState{}, errors.Wrap(ErrSnapshotCorrupt, "empty snapshot")
	}

	var env snapshotEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return model.SessionState{}, errors.Wrapf(ErrSnapshotCorrupt, "envelope: %v", err)
	}
	if env.Version != snapshotVersion {
		return model.SessionState{}, errors.Wrapf(ErrSnapshotCorrupt, "unsupported version %d", env.Version)
	}
	if sum := checksum(env.State); sum != env.Sum {
		return model.SessionState{}, errors.Wrapf(ErrSnapshotCorrupt, "checksum mismatch: have %s, want %s", sum, env.Sum)
	}

	var state model.SessionState
	if err := json.Unmarshal(env.State, &state); err != nil {
		return model.SessionState{}, errors.Wrapf(ErrSnapshotCorrupt, "state: %v", err)
	}
	if state.Answers == nil {
		state.Answers = map[int]int{}
	}
	return state, nil
}

func checksum(b []byte) string {
	return strconv.FormatUint(xxh3.Hash(b), 16)
}
