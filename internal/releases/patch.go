package releases

import (
	"strings"

	"github.com/angelmondragon/releasedesk/pkg/db/models"
	"github.com/angelmondragon/releasedesk/pkg/enums"
)

// Patch carries a partial update. Nil fields are left unchanged.
type Patch struct {
	TrackTitle       *string
	TrackVersion     *string
	PrimaryArtist    *string
	FeaturingArtists *string
	AlbumTitle       *string
	AlbumType        *enums.AlbumType
	ISRC             *string
	UPC              *string
	Composer         *string
	Lyricist         *string
	Producer         *string
	PrimaryGenre     *string
	SecondaryGenre   *string
	Language         *string
	ReleaseDate      *string
	PreOrderDate     *string
	LabelName        *string
	CopyrightYear    *string
	Territories      *string
	IsExplicit       *bool
	Lyrics           *string
	AudioAsset       *models.AssetRef
	ArtworkAsset     *models.AssetRef

	Status          *enums.ReleaseStatus
	RejectionReason *string

	// FillISRC is written only when the stored ISRC is empty.
	FillISRC *string
	// FromStatus, when set, must equal the stored status.
	FromStatus *enums.ReleaseStatus
	// ExpectedVersion, when set, must equal the stored version.
	ExpectedVersion *int64
}

// PatchFromRelease builds a patch replacing every descriptive field and both
// assets with the values of rel.
func PatchFromRelease(rel *models.Release) Patch {
	albumType := rel.AlbumType
	explicit := rel.IsExplicit
	return Patch{
		TrackTitle:       strPtr(rel.TrackTitle),
		TrackVersion:     strPtr(rel.TrackVersion),
		PrimaryArtist:    strPtr(rel.PrimaryArtist),
		FeaturingArtists: strPtr(rel.FeaturingArtists),
		AlbumTitle:       strPtr(rel.AlbumTitle),
		AlbumType:        &albumType,
		ISRC:             strPtr(rel.ISRC),
		UPC:              strPtr(rel.UPC),
		Composer:         strPtr(rel.Composer),
		Lyricist:         strPtr(rel.Lyricist),
		Producer:         strPtr(rel.Producer),
		PrimaryGenre:     strPtr(rel.PrimaryGenre),
		SecondaryGenre:   strPtr(rel.SecondaryGenre),
		Language:         strPtr(rel.Language),
		ReleaseDate:      strPtr(rel.ReleaseDate),
		PreOrderDate:     strPtr(rel.PreOrderDate),
		LabelName:        strPtr(rel.LabelName),
		CopyrightYear:    strPtr(rel.CopyrightYear),
		Territories:      strPtr(rel.Territories),
		IsExplicit:       &explicit,
		Lyrics:           strPtr(rel.Lyrics),
		AudioAsset:       rel.AudioAsset.Clone(),
		ArtworkAsset:     rel.ArtworkAsset.Clone(),
	}
}

func strPtr(v string) *string {
	return &v
}

// touchesContent reports whether the patch edits anything but workflow fields.
func (p Patch) touchesContent() bool {
	return p.TrackTitle != nil || p.TrackVersion != nil || p.PrimaryArtist != nil ||
		p.FeaturingArtists != nil || p.AlbumTitle != nil || p.AlbumType != nil ||
		p.ISRC != nil || p.UPC != nil || p.Composer != nil || p.Lyricist != nil ||
		p.Producer != nil || p.PrimaryGenre != nil || p.SecondaryGenre != nil ||
		p.Language != nil || p.ReleaseDate != nil || p.PreOrderDate != nil ||
		p.LabelName != nil || p.CopyrightYear != nil || p.Territories != nil ||
		p.IsExplicit != nil || p.Lyrics != nil || p.AudioAsset != nil || p.ArtworkAsset != nil
}

func (p Patch) applyContent(rel *models.Release) {
	setString(&rel.TrackTitle, p.TrackTitle)
	setString(&rel.TrackVersion, p.TrackVersion)
	setString(&rel.PrimaryArtist, p.PrimaryArtist)
	setString(&rel.FeaturingArtists, p.FeaturingArtists)
	setString(&rel.AlbumTitle, p.AlbumTitle)
	if p.AlbumType != nil {
		rel.AlbumType = *p.AlbumType
	}
	setString(&rel.ISRC, p.ISRC)
	setString(&rel.UPC, p.UPC)
	setString(&rel.Composer, p.Composer)
	setString(&rel.Lyricist, p.Lyricist)
	setString(&rel.Producer, p.Producer)
	setString(&rel.PrimaryGenre, p.PrimaryGenre)
	setString(&rel.SecondaryGenre, p.SecondaryGenre)
	setString(&rel.Language, p.Language)
	setString(&rel.ReleaseDate, p.ReleaseDate)
	setString(&rel.PreOrderDate, p.PreOrderDate)
	setString(&rel.LabelName, p.LabelName)
	setString(&rel.CopyrightYear, p.CopyrightYear)
	setString(&rel.Territories, p.Territories)
	if p.IsExplicit != nil {
		rel.IsExplicit = *p.IsExplicit
	}
	setString(&rel.Lyrics, p.Lyrics)
	if p.AudioAsset != nil {
		rel.AudioAsset = p.AudioAsset.Clone()
	}
	if p.ArtworkAsset != nil {
		rel.ArtworkAsset = p.ArtworkAsset.Clone()
	}
	if p.FillISRC != nil && strings.TrimSpace(rel.ISRC) == "" {
		rel.ISRC = *p.FillISRC
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
