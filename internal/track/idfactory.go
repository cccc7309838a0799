package track

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"

	"github.com/google/uuid"
)

// Namespace distinguishes the fresh-id domains named in §4.1: "distinct id
// namespaces exist for bucket, proof, vault, kv-store, component, package,
// resource, and uuid". Keeping them distinct means a vault and a component
// created at the same counter value never collide.
type Namespace string

const (
	NamespaceVault         Namespace = "vault"
	NamespaceKeyValueStore Namespace = "kvstore"
	NamespaceComponent     Namespace = "component"
	NamespacePackage       Namespace = "package"
	NamespaceResource      Namespace = "resource"
	NamespaceUUID          Namespace = "uuid"
)

// idFactory derives fresh ids from the transaction hash plus a monotonic
// counter using a keyed BLAKE2s-128 PRF, the same construction the
// example pack uses for deterministic display-id derivation (there keyed
// on a plan hash and step path; here keyed on the transaction hash and a
// namespace/counter pair).
type idFactory struct {
	txHash [32]byte
}

func newIDFactory(txHash [32]byte) *idFactory {
	return &idFactory{txHash: txHash}
}

// next derives the id for (namespace, counter) as a 16-byte value suitable
// for wrapping in a uuid.UUID. Buckets and proofs are excluded from this
// path: per §4.1 they are transaction-local and use a plain counter
// instead, since they never need to be looked up across transactions.
func (f *idFactory) next(ns Namespace, counter uint64) uuid.UUID {
	var input bytes.Buffer
	input.Write(f.txHash[:])
	input.WriteString(string(ns))
	input.WriteByte(0x00)

	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], counter)
	input.Write(counterBytes[:])

	// Hash the input once with BLAKE2b-256 before the keyed step, mirroring
	// the teacher's "hash(value) prevents length leak" construction, then
	// take a keyed BLAKE2s-128 digest as the final 16-byte id.
	pre := blake2b.Sum256(input.Bytes())

	digest, err := blake2s.New128(f.txHash[:32])
	if err != nil {
		panic(fmt.Sprintf("track: failed to build BLAKE2s hasher: %v", err))
	}
	digest.Write(pre[:])
	sum := digest.Sum(nil)

	var id uuid.UUID
	copy(id[:], sum)
	return id
}
