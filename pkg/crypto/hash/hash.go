/*
Package hash contains hash functions used for trie nodes and proofs.
*/
package hash

import (
	"github.com/adenium-io/adenium-go/pkg/util"
	"golang.org/x/crypto/sha3"
)

// Keccak256 hashes the incoming byte slice using the legacy (pre-NIST)
// Keccak-256 algorithm. It's the trie node hash.
func Keccak256(data []byte) util.Uint256 {
	var h util.Uint256
	hasher := sha3.NewLegacyKeccak256()
	_, _ = hasher.Write(data)
	hasher.Sum(h[:0])
	return h
}
