package releases

import "github.com/angelmondragon/releasedesk/pkg/enums"

var (
	genres = []string{
		"Pop", "Rock", "Hip-Hop", "R&B", "Electronic", "Dance", "Country", "Jazz",
		"Classical", "Metal", "Folk", "Reggae", "Blues", "Soul", "Funk", "Indie",
		"Alternative", "Latin", "World", "Other",
	}
	languages = []string{
		"English", "Spanish", "French", "German", "Italian", "Portuguese",
		"Japanese", "Korean", "Chinese", "Hindi", "Arabic", "Other",
	}
	territories = []string{
		"Worldwide", "United States", "United Kingdom", "Canada", "Australia",
		"Germany", "France", "Spain", "Italy", "Japan", "South Korea", "Brazil",
		"Mexico", "Custom",
	}
)

// DefaultTerritory is preselected on new submissions.
const DefaultTerritory = "Worldwide"

// CatalogOptions lists the choices offered by the submission form. The lists
// are suggestions; metadata is not checked against them.
type CatalogOptions struct {
	Genres      []string          `json:"genres"`
	Languages   []string          `json:"languages"`
	Territories []string          `json:"territories"`
	AlbumTypes  []enums.AlbumType `json:"album_types"`
}

// Catalog returns a fresh copy of the option lists.
func Catalog() CatalogOptions {
	return CatalogOptions{
		Genres:      append([]string(nil), genres...),
		Languages:   append([]string(nil), languages...),
		Territories: append([]string(nil), territories...),
		AlbumTypes:  enums.AlbumTypes(),
	}
}
