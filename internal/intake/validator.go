package intake

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/angelmondragon/releasedesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/releasedesk/pkg/errors"
	"github.com/angelmondragon/releasedesk/pkg/logger"
	"github.com/angelmondragon/releasedesk/pkg/metrics"
)

const (
	MsgInvalidAudioType   = "Invalid file type. Please upload WAV, FLAC, or MP3 (320kbps)."
	MsgInvalidArtworkType = "Invalid file type. Please upload JPG or PNG."
	MsgEmptyFile          = "File is empty."
	MsgDimensionsUnknown  = "Artwork dimensions could not be determined."
)

var (
	// audio/x-flac is listed because the mimetype registry has no alias for it.
	audioMimeTypes   = []string{"audio/wav", "audio/x-wav", "audio/flac", "audio/x-flac", "audio/mpeg"}
	artworkMimeTypes = []string{"image/jpeg", "image/jpg", "image/png"}
)

// Validator checks audio and artwork candidates against the intake limits.
// It holds no per-upload state and is safe for concurrent use.
type Validator struct {
	limits   Limits
	decode   Prober
	declared Prober
	metrics  *metrics.ReleaseMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// Option customizes a Validator.
type Option func(*Validator)

// WithDecodeProbe replaces the probe used for candidates carrying a Source.
func WithDecodeProbe(p Prober) Option {
	return func(v *Validator) {
		if p != nil {
			v.decode = p
		}
	}
}

// WithDeclaredProbe replaces the probe used for metadata-only candidates.
func WithDeclaredProbe(p Prober) Option {
	return func(v *Validator) {
		if p != nil {
			v.declared = p
		}
	}
}

// WithMetrics records rejections and probe durations.
func WithMetrics(m *metrics.ReleaseMetrics) Option {
	return func(v *Validator) { v.metrics = m }
}

// WithLogger attaches a logger for rejected candidates.
func WithLogger(l *logger.Logger) Option {
	return func(v *Validator) { v.logg = l }
}

// NewValidator builds a Validator; zero limits fall back to DefaultLimits.
func NewValidator(limits Limits, opts ...Option) *Validator {
	v := &Validator{
		limits:   limits.withDefaults(),
		decode:   DecodeProbe{},
		declared: DeclaredProbe{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Limits returns the effective limits.
func (v *Validator) Limits() Limits {
	return v.limits
}

// ValidateAudio accepts WAV, FLAC and MP3 candidates up to the audio size limit.
func (v *Validator) ValidateAudio(c Candidate) error {
	if !acceptsMimeType(c.MimeType, audioMimeTypes) {
		return v.reject(enums.AssetKindAudio, c, MsgInvalidAudioType)
	}
	if c.SizeBytes <= 0 {
		return v.reject(enums.AssetKindAudio, c, MsgEmptyFile)
	}
	if c.SizeBytes > v.limits.MaxAudioBytes {
		return v.reject(enums.AssetKindAudio, c, SizeLimitMessage(v.limits.MaxAudioBytes))
	}
	return nil
}

// ValidateArtwork accepts JPEG and PNG candidates up to the artwork size limit
// whose probed dimensions reach the minimum on both axes. The probe is cut off
// after the configured timeout.
func (v *Validator) ValidateArtwork(ctx context.Context, c Candidate) (Dimensions, error) {
	if !acceptsMimeType(c.MimeType, artworkMimeTypes) {
		return Dimensions{}, v.reject(enums.AssetKindArtwork, c, MsgInvalidArtworkType)
	}
	if c.SizeBytes <= 0 {
		return Dimensions{}, v.reject(enums.AssetKindArtwork, c, MsgEmptyFile)
	}
	if c.SizeBytes > v.limits.MaxArtworkBytes {
		return Dimensions{}, v.reject(enums.AssetKindArtwork, c, SizeLimitMessage(v.limits.MaxArtworkBytes))
	}

	probe := v.declared
	if c.Source != nil {
		probe = v.decode
	}

	probeCtx, cancel := context.WithTimeout(ctx, v.limits.ProbeTimeout)
	defer cancel()

	started := v.now()
	dims, err := runProbe(probeCtx, probe, c)
	v.metrics.ObserveProbe(v.now().Sub(started))
	if err != nil {
		if v.logg != nil {
			v.logg.Warn(v.logg.WithFields(ctx, map[string]any{
				"file_name": c.FileName,
				"cause":     err.Error(),
			}), "artwork probe failed")
		}
		return Dimensions{}, v.reject(enums.AssetKindArtwork, c, MsgDimensionsUnknown)
	}

	minPx := v.limits.MinArtworkPx
	if dims.Width < minPx || dims.Height < minPx {
		return dims, v.reject(enums.AssetKindArtwork, c, fmt.Sprintf("Image must be at least %dx%d pixels.", minPx, minPx))
	}
	return dims, nil
}

// runProbe enforces the deadline even for probes that ignore ctx.
func runProbe(ctx context.Context, probe Prober, c Candidate) (Dimensions, error) {
	type result struct {
		dims Dimensions
		err  error
	}
	done := make(chan result, 1)
	go func() {
		dims, err := probe.Probe(ctx, c)
		done <- result{dims: dims, err: err}
	}()
	select {
	case <-ctx.Done():
		return Dimensions{}, fmt.Errorf("%w: %w", ErrDimensionsUnknown, ctx.Err())
	case res := <-done:
		return res.dims, res.err
	}
}

func (v *Validator) reject(kind enums.AssetKind, c Candidate, reason string) error {
	v.metrics.IncIntakeRejection(kind.String())
	if v.logg != nil {
		v.logg.Debug(v.logg.WithFields(context.Background(), map[string]any{
			"kind":      kind.String(),
			"file_name": c.FileName,
			"mime_type": c.MimeType,
			"reason":    reason,
		}), "intake candidate rejected")
	}
	return pkgerrors.Validation(kind.String(), reason)
}

// acceptsMimeType matches the declared type against the allow list directly
// or through the aliases known to the mimetype registry, e.g. audio/wave.
func acceptsMimeType(declared string, allowed []string) bool {
	normalized := normalizeMimeType(declared)
	if normalized == "" {
		return false
	}
	for _, candidate := range allowed {
		if normalized == candidate {
			return true
		}
	}
	known := mimetype.Lookup(normalized)
	if known == nil {
		return false
	}
	for _, candidate := range allowed {
		if known.Is(candidate) {
			return true
		}
	}
	return false
}

// SniffMimeType detects the content type of a seekable upload and rewinds it.
func SniffMimeType(src io.ReadSeeker) (string, error) {
	detected, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("sniff mime type: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	return detected.String(), nil
}
