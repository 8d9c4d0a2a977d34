package models

// CapabilityKind says which of a list's two tokens matched.
type CapabilityKind string

const (
	CapabilityNone    CapabilityKind = ""
	CapabilityCreator CapabilityKind = "creator"
	CapabilityBuyer   CapabilityKind = "buyer"
)
