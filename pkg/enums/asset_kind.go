package enums

import "fmt"

// AssetKind defines which slot of a release an uploaded file fills.
type AssetKind string

const (
	AssetKindAudio   AssetKind = "audio"
	AssetKindArtwork AssetKind = "artwork"
)

var validAssetKinds = []AssetKind{
	AssetKindAudio,
	AssetKindArtwork,
}

// String returns the literal string for the kind.
func (a AssetKind) String() string {
	return string(a)
}

// IsValid reports whether the kind is known.
func (a AssetKind) IsValid() bool {
	for _, candidate := range validAssetKinds {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAssetKind converts raw input into an AssetKind.
func ParseAssetKind(value string) (AssetKind, error) {
	for _, candidate := range validAssetKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid asset kind %q", value)
}
