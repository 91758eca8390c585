package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/releasedesk/pkg/enums"
)

// AssetRef is the opaque handle to an accepted audio or artwork file. Only
// metadata is kept; the bytes never reach the store.
type AssetRef struct {
	ID        uuid.UUID `json:"id"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
}

// Clone returns a copy of the asset reference.
func (a *AssetRef) Clone() *AssetRef {
	if a == nil {
		return nil
	}
	out := *a
	return &out
}

// Release is one track submission moving through review.
type Release struct {
	ID               uuid.UUID           `gorm:"column:id;type:text;primaryKey" json:"id"`
	TrackTitle       string              `gorm:"column:track_title;not null" json:"track_title"`
	TrackVersion     string              `gorm:"column:track_version" json:"track_version"`
	PrimaryArtist    string              `gorm:"column:primary_artist;not null" json:"primary_artist"`
	FeaturingArtists string              `gorm:"column:featuring_artists" json:"featuring_artists"`
	AlbumTitle       string              `gorm:"column:album_title" json:"album_title"`
	AlbumType        enums.AlbumType     `gorm:"column:album_type;not null" json:"album_type"`
	ISRC             string              `gorm:"column:isrc;index" json:"isrc"`
	UPC              string              `gorm:"column:upc;index" json:"upc"`
	Composer         string              `gorm:"column:composer" json:"composer"`
	Lyricist         string              `gorm:"column:lyricist" json:"lyricist"`
	Producer         string              `gorm:"column:producer" json:"producer"`
	PrimaryGenre     string              `gorm:"column:primary_genre" json:"primary_genre"`
	SecondaryGenre   string              `gorm:"column:secondary_genre" json:"secondary_genre"`
	Language         string              `gorm:"column:language" json:"language"`
	ReleaseDate      string              `gorm:"column:release_date" json:"release_date"`
	PreOrderDate     string              `gorm:"column:pre_order_date" json:"pre_order_date"`
	LabelName        string              `gorm:"column:label_name" json:"label_name"`
	CopyrightYear    string              `gorm:"column:copyright_year" json:"copyright_year"`
	Territories      string              `gorm:"column:territories" json:"territories"`
	IsExplicit       bool                `gorm:"column:is_explicit;not null;default:false" json:"is_explicit"`
	Lyrics           string              `gorm:"column:lyrics" json:"lyrics"`
	AudioAsset       *AssetRef           `gorm:"column:audio_asset;serializer:json" json:"audio_asset,omitempty"`
	ArtworkAsset     *AssetRef           `gorm:"column:artwork_asset;serializer:json" json:"artwork_asset,omitempty"`
	Status           enums.ReleaseStatus `gorm:"column:status;not null;index" json:"status"`
	RejectionReason  string              `gorm:"column:rejection_reason" json:"rejection_reason,omitempty"`
	CreatedBy        string              `gorm:"column:created_by" json:"created_by"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
	Version          int64               `gorm:"column:version;not null" json:"version"`
}

// TableName pins the table name.
func (Release) TableName() string {
	return "releases"
}

// Clone returns a deep copy so callers never share asset pointers with the store.
func (r *Release) Clone() *Release {
	if r == nil {
		return nil
	}
	out := *r
	out.AudioAsset = r.AudioAsset.Clone()
	out.ArtworkAsset = r.ArtworkAsset.Clone()
	return &out
}
