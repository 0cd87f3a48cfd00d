package document

import (
	"encoding/hex"

	"github.com/minio/highwayhash"
)

var hashKey = []byte("voyagekit-itinscore-hash-key-v01")

// Hash returns the content hash used as a document identity.
func Hash(data []byte) (string, error) {
	h, err := highwayhash.New128(hashKey)
	if err != nil {
		return "", err
	}
	if _, err = h.Write(data); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
