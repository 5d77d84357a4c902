// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"io"
	"math"

	"filippo.io/edwards25519"
	"github.com/pkg/errors"
)

const (
	// MaxSeeds is the maximum number of seeds accepted by a derivation.
	MaxSeeds = 16
	// MaxSeedLength is the maximum length in bytes of a single seed.
	MaxSeedLength = 32
)

var (
	ErrMaxSeedLengthExceeded = errors.New("length of the seed is too long for address generation")
	ErrTooManySeeds          = errors.New("too many seeds for address generation")
	ErrOnCurve               = errors.New("derived address lands on the ed25519 curve")
	ErrNoViableBump          = errors.New("unable to find a viable program address bump seed")

	derivedAddressMarker = []byte("ProgramDerivedAddress")
)

// CreateProgramAddress derives an address from the seeds and the program id.
// The result never lies on the ed25519 curve, so no private key exists for it
// and only the program can authorize actions as this address.
func CreateProgramAddress(seeds [][]byte, programID Address) (Address, error) {
	if len(seeds) > MaxSeeds {
		return Address{}, ErrTooManySeeds
	}
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return Address{}, ErrMaxSeedLengthExceeded
		}
	}

	h := Blake2bFn(func(w io.Writer) {
		for _, seed := range seeds {
			w.Write(seed)
		}
		w.Write(programID[:])
		w.Write(derivedAddressMarker)
	})

	if IsOnCurve(h[:]) {
		return Address{}, ErrOnCurve
	}
	return Address(h), nil
}

// FindProgramAddress searches the highest bump seed for which the derivation
// of seeds+bump is off-curve. It returns the derived address and the bump.
func FindProgramAddress(seeds [][]byte, programID Address) (Address, uint8, error) {
	bumped := make([][]byte, len(seeds)+1)
	copy(bumped, seeds)

	for bump := math.MaxUint8; bump > 0; bump-- {
		bumped[len(seeds)] = []byte{uint8(bump)}
		addr, err := CreateProgramAddress(bumped, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if err != ErrOnCurve {
			return Address{}, 0, err
		}
	}
	return Address{}, 0, ErrNoViableBump
}

// IsOnCurve returns whether b decodes to a point of the ed25519 curve, so
// that a private key may exist for it.
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
