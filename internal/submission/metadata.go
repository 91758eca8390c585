package submission

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/releasedesk/internal/identifiers"
	"github.com/angelmondragon/releasedesk/internal/releases"
	"github.com/angelmondragon/releasedesk/pkg/db/models"
	"github.com/angelmondragon/releasedesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/releasedesk/pkg/errors"
)

// Metadata is the step-two form.
type Metadata struct {
	TrackTitle       string          `json:"track_title" validate:"required"`
	TrackVersion     string          `json:"track_version"`
	PrimaryArtist    string          `json:"primary_artist" validate:"required"`
	FeaturingArtists string          `json:"featuring_artists"`
	AlbumTitle       string          `json:"album_title" validate:"required"`
	AlbumType        enums.AlbumType `json:"album_type" validate:"required,oneof=single ep album"`
	ISRC             string          `json:"isrc" validate:"omitempty,isrc"`
	UPC              string          `json:"upc" validate:"omitempty,upc"`
	Composer         string          `json:"composer"`
	Lyricist         string          `json:"lyricist"`
	Producer         string          `json:"producer"`
	PrimaryGenre     string          `json:"primary_genre" validate:"required"`
	SecondaryGenre   string          `json:"secondary_genre"`
	Language         string          `json:"language" validate:"required"`
	ReleaseDate      string          `json:"release_date" validate:"required"`
	PreOrderDate     string          `json:"pre_order_date"`
	LabelName        string          `json:"label_name"`
	CopyrightYear    string          `json:"copyright_year"`
	Territories      string          `json:"territories"`
	IsExplicit       bool            `json:"is_explicit"`
	Lyrics           string          `json:"lyrics"`
}

// blankMetadata is the form a new wizard starts with.
func blankMetadata(now time.Time) Metadata {
	return Metadata{
		AlbumType:     enums.AlbumTypeSingle,
		CopyrightYear: strconv.Itoa(now.Year()),
		Territories:   releases.DefaultTerritory,
	}
}

// metadataFromRelease prefills the form for an edit.
func metadataFromRelease(rel *models.Release, now time.Time) Metadata {
	md := Metadata{
		TrackTitle:       rel.TrackTitle,
		TrackVersion:     rel.TrackVersion,
		PrimaryArtist:    rel.PrimaryArtist,
		FeaturingArtists: rel.FeaturingArtists,
		AlbumTitle:       rel.AlbumTitle,
		AlbumType:        rel.AlbumType,
		ISRC:             rel.ISRC,
		UPC:              rel.UPC,
		Composer:         rel.Composer,
		Lyricist:         rel.Lyricist,
		Producer:         rel.Producer,
		PrimaryGenre:     rel.PrimaryGenre,
		SecondaryGenre:   rel.SecondaryGenre,
		Language:         rel.Language,
		ReleaseDate:      rel.ReleaseDate,
		PreOrderDate:     rel.PreOrderDate,
		LabelName:        rel.LabelName,
		CopyrightYear:    rel.CopyrightYear,
		Territories:      rel.Territories,
		IsExplicit:       rel.IsExplicit,
		Lyrics:           rel.Lyrics,
	}
	return md.withDefaults(now)
}

func (m Metadata) withDefaults(now time.Time) Metadata {
	if m.AlbumType == "" {
		m.AlbumType = enums.AlbumTypeSingle
	}
	if strings.TrimSpace(m.CopyrightYear) == "" {
		m.CopyrightYear = strconv.Itoa(now.Year())
	}
	if strings.TrimSpace(m.Territories) == "" {
		m.Territories = releases.DefaultTerritory
	}
	return m
}

func (m Metadata) normalized() Metadata {
	m.ISRC = identifiers.NormalizeISRC(m.ISRC)
	m.UPC = identifiers.NormalizeUPC(m.UPC)
	return m
}

// apply copies the form onto rel. Identifiers are handled by the caller.
func (m Metadata) apply(rel *models.Release) {
	rel.TrackTitle = m.TrackTitle
	rel.TrackVersion = m.TrackVersion
	rel.PrimaryArtist = m.PrimaryArtist
	rel.FeaturingArtists = m.FeaturingArtists
	rel.AlbumTitle = m.AlbumTitle
	rel.AlbumType = m.AlbumType
	rel.Composer = m.Composer
	rel.Lyricist = m.Lyricist
	rel.Producer = m.Producer
	rel.PrimaryGenre = m.PrimaryGenre
	rel.SecondaryGenre = m.SecondaryGenre
	rel.Language = m.Language
	rel.ReleaseDate = m.ReleaseDate
	rel.PreOrderDate = m.PreOrderDate
	rel.LabelName = m.LabelName
	rel.CopyrightYear = m.CopyrightYear
	rel.Territories = m.Territories
	rel.IsExplicit = m.IsExplicit
	rel.Lyrics = m.Lyrics
}

var requiredMessages = map[string]string{
	"track_title":    "Track title is required",
	"primary_artist": "Primary artist is required",
	"album_title":    "Album title is required",
	"album_type":     "Album type is required",
	"primary_genre":  "Primary genre is required",
	"language":       "Language is required",
	"release_date":   "Release date is required",
}

var metadataValidator = newMetadataValidator()

func newMetadataValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	_ = v.RegisterValidation("isrc", func(fl validator.FieldLevel) bool {
		return identifiers.ValidISRC(fl.Field().String())
	})
	_ = v.RegisterValidation("upc", func(fl validator.FieldLevel) bool {
		return identifiers.ValidUPC(fl.Field().String())
	})
	return v
}

// validate returns per-field reasons keyed by JSON field name, or nil.
func (m Metadata) validate() pkgerrors.FieldErrors {
	trimmed := m
	for _, field := range []*string{
		&trimmed.TrackTitle, &trimmed.PrimaryArtist, &trimmed.AlbumTitle,
		&trimmed.PrimaryGenre, &trimmed.Language, &trimmed.ReleaseDate,
	} {
		*field = strings.TrimSpace(*field)
	}
	err := metadataValidator.Struct(trimmed)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.FieldErrors{"metadata": err.Error()}
	}
	fields := pkgerrors.FieldErrors{}
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = requiredMessages[fe.Field()]
		case "oneof":
			fields[fe.Field()] = "Album type must be single, ep or album"
		case "isrc":
			fields[fe.Field()] = "ISRC must be 12 characters: country, registrant, year and designation (e.g. USXXX2400001)"
		case "upc":
			fields[fe.Field()] = "UPC must be 12 or 13 digits"
		default:
			fields[fe.Field()] = "is invalid"
		}
	}
	return fields
}
