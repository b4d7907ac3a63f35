package domain

// SignatureRecord maps a key id to the base64 signature made by that key.
// Only one entry is written today; the map shape leaves room for more signers.
type SignatureRecord map[KeyID]string

// SignedEnvelope is the persisted artifact. Field order is the output order.
type SignedEnvelope struct {
	// TS is the signing timestamp in Unix seconds. It is part of the signed message.
	TS uint64 `json:"ts"`

	// Config is the exact canonical payload that was signed.
	Config string `json:"config"`

	// Sig holds one signature per signing key.
	Sig SignatureRecord `json:"sig"`
}
