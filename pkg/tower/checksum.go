// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

// Checksum calculates the frame checksum: the 8-bit truncated sum of data.
// Frames checksum the bytes from the command type through the last payload byte.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}
