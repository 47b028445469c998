package signer

// Signer interface for signing channel metadata
type Signer interface {
	// SignDetached creates a detached armored signature (for repodata.json.asc)
	SignDetached(data []byte) ([]byte, error)

	// GetPublicKey returns the public key
	GetPublicKey() ([]byte, error)
}
