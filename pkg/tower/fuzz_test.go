// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

import (
	"context"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

func randomLEDStatus(rng *rand.Rand) LEDStatus {
	return LEDStatus{
		Red:     LEDState(rng.Intn(3)),
		Green:   LEDState(rng.Intn(3)),
		Blue:    LEDState(rng.Intn(3)),
		Pattern: LEDPattern(rng.Intn(4)),
	}
}

func randomBuzzerStatus(rng *rand.Rand) BuzzerStatus {
	return BuzzerStatus{
		Tone:    BuzzerTone(rng.Intn(2)),
		Volume:  BuzzerVolume(rng.Intn(3)),
		Pattern: BuzzerPattern(rng.Intn(5)),
	}
}

// ============================================================
// Fuzz Tests
// ============================================================

// TestFuzz_StatusRoundTrip reads random statuses through randomly chunked
// and delayed replies.
func TestFuzz_StatusRoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		layer := Layers[rng.Intn(len(Layers))]
		led := randomLEDStatus(rng)
		buzzer := randomBuzzerStatus(rng)

		tr := &scriptedTransport{
			replies: [][]byte{EncodeLEDStatusReply(layer, led), EncodeBuzzerStatusReply(buzzer)},
			chunk:   1 + rng.Intn(LEDStatusReplySize),
			delay:   rng.Intn(20),
		}
		c, err := NewClient(tr, WithClock(newFakeClock()))
		require.NoError(t, err)

		gotLED, err := c.GetLEDStatus(context.Background(), layer)
		require.NoError(t, err, "round %d", i)
		require.Equal(t, led, gotLED, "round %d", i)

		gotBuzzer, err := c.GetBuzzerStatus(context.Background())
		require.NoError(t, err, "round %d", i)
		require.Equal(t, buzzer, gotBuzzer, "round %d", i)
	}
}

// TestFuzz_RandomBytesNeverPanic feeds random replies to the validator,
// status decoders and stream decoder.
func TestFuzz_RandomBytesNeverPanic(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()
	d := NewDecoder()

	for i := 0; i < rounds; i++ {
		data := make([]byte, rng.Intn(2*MaxFrameSize))
		rng.Read(data)
		if len(data) > 0 && rng.Intn(2) == 0 {
			data[0] = StartByte
		}

		assert.NotPanics(t, func() {
			_ = ValidateResponse(data)
			_, _ = DecodeLEDStatus(data)
			_, _ = DecodeBuzzerStatus(data)
			_, _ = d.Decode(data)
		}, "round %d data % X", i, data)
	}
}

// TestFuzz_CorruptedReplyRejected corrupts one byte of a valid reply. A
// single changed byte always breaks the start, length, sum or end byte.
func TestFuzz_CorruptedReplyRejected(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		reply := EncodeLEDStatusReply(LayerOne, randomLEDStatus(rng))

		pos := rng.Intn(len(reply))
		reply[pos] ^= byte(1 + rng.Intn(255))

		require.Error(t, ValidateResponse(reply), "round %d: corrupted reply % X accepted", i, reply)
	}
}
