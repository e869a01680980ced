package core

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"gitlab.com/yawning/secp256k1-voi/secec"
	"golang.org/x/crypto/sha3"
)

func GetHash(bytes []byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(bytes)
	return hash.Sum(nil)
}

// SignBytes signs the keccak256 hash of the payload with a hex secp256k1 key
func SignBytes(bytes []byte, privatekey string) ([]byte, error) {

	hashed := GetHash(bytes)

	key, err := crypto.HexToECDSA(privatekey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert private key")
	}

	signature, err := crypto.Sign(hashed, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign message")
	}

	return signature, nil
}

// VerifySignature recovers the signer and compares it with the expected
// compressed public key (hex)
func VerifySignature(message []byte, signature []byte, pubkey string) error {

	hashed := GetHash(message)

	recovered, err := crypto.Ecrecover(hashed, signature)
	if err != nil {
		return errors.Wrap(err, "failed to recover public key")
	}

	parsed, err := secec.NewPublicKey(recovered)
	if err != nil {
		return errors.Wrap(err, "failed to parse recovered public key")
	}
	compressed := hex.EncodeToString(parsed.CompressedBytes())

	if compressed != pubkey {
		return errors.New("signature is not matched with pubkey. expected: " + pubkey + ", actual: " + compressed)
	}

	return nil
}
