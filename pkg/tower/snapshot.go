// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot is the full state of a tower: every LED layer plus the buzzer.
type Snapshot struct {
	Layers [len(Layers)]LEDStatus `json:"layers" cbor:"1,keyasint"`
	Buzzer BuzzerStatus           `json:"buzzer" cbor:"2,keyasint"`
}

// ReadSnapshot reads every layer and the buzzer, one exchange each.
func (c *Client) ReadSnapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	for _, layer := range Layers {
		status, err := c.GetLEDStatus(ctx, layer)
		if err != nil {
			return Snapshot{}, fmt.Errorf("read layer %s: %w", layer, err)
		}
		snap.Layers[layer] = status
	}

	buzzer, err := c.GetBuzzerStatus(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read buzzer: %w", err)
	}
	snap.Buzzer = buzzer
	return snap, nil
}

// Valid reports whether every field is in range.
func (s Snapshot) Valid() bool {
	for _, l := range s.Layers {
		if !l.Valid() {
			return false
		}
	}
	return s.Buzzer.Valid()
}

func (s Snapshot) String() string {
	var sb strings.Builder
	for i, l := range s.Layers {
		fmt.Fprintf(&sb, "Layer %s: %s\n", Layer(i), l)
	}
	fmt.Fprintf(&sb, "Buzzer:  %s\n", s.Buzzer)
	return sb.String()
}

// cborEncMode uses core deterministic encoding so equal snapshots encode
// to equal bytes.
var cborEncMode, _ = cbor.CoreDetEncOptions().EncMode()

// MarshalSnapshotCBOR encodes a snapshot as CBOR.
func MarshalSnapshotCBOR(s Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshotCBOR decodes a CBOR snapshot and range-checks it.
func UnmarshalSnapshotCBOR(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	if !s.Valid() {
		return Snapshot{}, wrapf(ErrOutOfRange, "snapshot field out of range")
	}
	return s, nil
}

// MarshalSnapshotJSON encodes a snapshot as indented JSON.
func MarshalSnapshotJSON(s Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
