package intake

import (
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/angelmondragon/releasedesk/pkg/config"
)

const bytesPerMB = 1024 * 1024

// Candidate describes a file offered for upload. Only metadata is inspected
// except when Source is set, in which case the artwork probe decodes its header.
type Candidate struct {
	FileName  string
	MimeType  string
	SizeBytes int64
	Width     int
	Height    int
	Source    io.Reader
}

// Dimensions is the pixel size reported by an artwork probe.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Limits bounds what intake accepts.
type Limits struct {
	MaxAudioBytes   int64
	MaxArtworkBytes int64
	MinArtworkPx    int
	ProbeTimeout    time.Duration
}

// DefaultLimits mirrors the distributor requirements: 200MB audio, 50MB
// artwork, 3000x3000 minimum cover and a 5s probe budget.
func DefaultLimits() Limits {
	return Limits{
		MaxAudioBytes:   200 * bytesPerMB,
		MaxArtworkBytes: 50 * bytesPerMB,
		MinArtworkPx:    3000,
		ProbeTimeout:    5 * time.Second,
	}
}

// LimitsFromConfig converts the intake config section.
func LimitsFromConfig(cfg config.IntakeConfig) Limits {
	return Limits{
		MaxAudioBytes:   cfg.MaxAudioBytes(),
		MaxArtworkBytes: cfg.MaxArtworkBytes(),
		MinArtworkPx:    cfg.MinArtworkPx,
		ProbeTimeout:    cfg.ProbeTimeout,
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.MaxAudioBytes <= 0 {
		l.MaxAudioBytes = def.MaxAudioBytes
	}
	if l.MaxArtworkBytes <= 0 {
		l.MaxArtworkBytes = def.MaxArtworkBytes
	}
	if l.MinArtworkPx <= 0 {
		l.MinArtworkPx = def.MinArtworkPx
	}
	if l.ProbeTimeout <= 0 {
		l.ProbeTimeout = def.ProbeTimeout
	}
	return l
}

// SizeLimitMessage is the rejection reason for a file larger than limit bytes.
func SizeLimitMessage(limit int64) string {
	return fmt.Sprintf("File size exceeds %dMB limit.", limit/bytesPerMB)
}

func normalizeMimeType(value string) string {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return strings.ToLower(clean)
	}
	return strings.ToLower(mediaType)
}
