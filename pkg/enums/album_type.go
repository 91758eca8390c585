package enums

import "fmt"

// AlbumType classifies the product a track is released on.
type AlbumType string

const (
	AlbumTypeSingle AlbumType = "single"
	AlbumTypeEP     AlbumType = "ep"
	AlbumTypeAlbum  AlbumType = "album"
)

var validAlbumTypes = []AlbumType{
	AlbumTypeSingle,
	AlbumTypeEP,
	AlbumTypeAlbum,
}

// AlbumTypes returns every known album type.
func AlbumTypes() []AlbumType {
	out := make([]AlbumType, len(validAlbumTypes))
	copy(out, validAlbumTypes)
	return out
}

// String implements fmt.Stringer.
func (a AlbumType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AlbumType.
func (a AlbumType) IsValid() bool {
	for _, candidate := range validAlbumTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// RequiresUPC reports whether a product code is generated when none was supplied.
func (a AlbumType) RequiresUPC() bool {
	return a == AlbumTypeEP || a == AlbumTypeAlbum
}

// ParseAlbumType converts raw input into an AlbumType.
func ParseAlbumType(value string) (AlbumType, error) {
	for _, candidate := range validAlbumTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid album type %q", value)
}
