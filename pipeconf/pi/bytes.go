/*
 * Copyright 2018-2023 Open Networking Foundation (ONF) and the ONF Contributors

 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at

 * http://www.apache.org/licenses/LICENSE-2.0

 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package pi

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// CopyFromUint64 returns the 8 byte big-endian encoding of v
func CopyFromUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// CopyFromUint32 returns the 4 byte big-endian encoding of v
func CopyFromUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// CopyFromUint16 returns the 2 byte big-endian encoding of v
func CopyFromUint16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

// Canonical strips the leading zero bytes of b. The zero value keeps a single byte
// and an empty input gives an empty, non-nil slice.
func Canonical(b []byte) []byte {
	i := 0
	for i < len(b)-1 && b[i] == 0 {
		i++
	}
	return append([]byte{}, b[i:]...)
}

// Fit re-encodes b into the minimal number of bytes able to hold bitwidth bits,
// and fails if the value needs more than bitwidth bits.
func Fit(b []byte, bitwidth int) ([]byte, error) {
	if bitwidth <= 0 {
		return nil, fmt.Errorf("invalid-bitwidth %d", bitwidth)
	}
	c := Canonical(b)
	if len(c) == 0 {
		c = []byte{0}
	}
	used := (len(c)-1)*8 + bits.Len8(c[0])
	if used > bitwidth {
		return nil, fmt.Errorf("value %x needs %d bits, more than %d: %w", b, used, bitwidth, ErrValueTooLarge)
	}
	size := (bitwidth + 7) / 8
	out := make([]byte, size)
	copy(out[size-len(c):], c)
	return out, nil
}

// Uint64 decodes an unsigned big-endian value of at most 8 significant bytes
func Uint64(b []byte) (uint64, error) {
	c := Canonical(b)
	if len(c) > 8 {
		return 0, fmt.Errorf("value %x wider than 64 bits: %w", b, ErrValueTooLarge)
	}
	var v uint64
	for _, x := range c {
		v = v<<8 | uint64(x)
	}
	return v, nil
}
