package domain

import "fmt"

// Documented defaults for unspecified SegmentConfig fields.
const (
	DefaultVideoWidth    = 1920
	DefaultVideoHeight   = 1080
	DefaultBgMusicVolume = 0.1
	DefaultLogoWidth     = 150
	DefaultLogoHeight    = 150
	DefaultLogoX         = 50
	DefaultLogoY         = 50
)

type Resolution struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type TextStyle struct {
	FontSize int    `yaml:"font_size"`
	Color    string `yaml:"color"`
}

// SpeakerFeed is an optional circularly-masked speaker video layered onto
// the intro variant, with a name label under it.
type SpeakerFeed struct {
	VideoPath string
	Name      string
}

// SegmentConfig enumerates every recognized per-segment option. Unset fields
// resolve to the documented defaults via ApplyDefaults; unknown keys are
// rejected at profile load time, not silently dropped.
type SegmentConfig struct {
	SegmentType         SegmentKind `yaml:"segment_type"`
	BackgroundVideoPath string      `yaml:"background_video_path"`
	Heading             string      `yaml:"heading"`
	Subheading          string      `yaml:"subheading"`
	Footer              string      `yaml:"footer"`
	BackgroundMusicPath string      `yaml:"background_music_path"`
	OutputPath          string      `yaml:"output_path"`
	Duration            float64     `yaml:"duration"`
	BgMusicVolume       float64     `yaml:"bg_music_volume"`
	LogoPath            string      `yaml:"logo_path"`
	LogoWidth           int         `yaml:"logo_width"`
	LogoHeight          int         `yaml:"logo_height"`
	Resolution          Resolution  `yaml:"resolution"`

	HeadingStyle    TextStyle `yaml:"heading_style"`
	SubheadingStyle TextStyle `yaml:"subheading_style"`
	FooterStyle     TextStyle `yaml:"footer_style"`

	// VoiceoverPath is injected per job, never from the profile.
	VoiceoverPath string `yaml:"-"`
	// SourceVideosDir is the clip library for randomly backed segments.
	SourceVideosDir string `yaml:"-"`
	// SpeakerFeeds enables the intro-with-speakers variant.
	SpeakerFeeds []SpeakerFeed `yaml:"-"`
}

// ApplyDefaults resolves every unspecified field to its documented default.
func (c *SegmentConfig) ApplyDefaults() {
	if c.Resolution.Width == 0 {
		c.Resolution.Width = DefaultVideoWidth
	}
	if c.Resolution.Height == 0 {
		c.Resolution.Height = DefaultVideoHeight
	}
	if c.BgMusicVolume == 0 {
		c.BgMusicVolume = DefaultBgMusicVolume
	}
	if c.LogoWidth == 0 {
		c.LogoWidth = DefaultLogoWidth
	}
	if c.LogoHeight == 0 {
		c.LogoHeight = DefaultLogoHeight
	}
	if c.HeadingStyle.FontSize == 0 {
		c.HeadingStyle.FontSize = 70
	}
	if c.SubheadingStyle.FontSize == 0 {
		c.SubheadingStyle.FontSize = 40
	}
	if c.FooterStyle.FontSize == 0 {
		c.FooterStyle.FontSize = 30
	}
	if c.HeadingStyle.Color == "" {
		c.HeadingStyle.Color = "white"
	}
	if c.SubheadingStyle.Color == "" {
		c.SubheadingStyle.Color = "white"
	}
	if c.FooterStyle.Color == "" {
		c.FooterStyle.Color = "white"
	}
}

// Validate checks a resolved config. Call after ApplyDefaults.
func (c SegmentConfig) Validate() error {
	if c.BgMusicVolume < 0 || c.BgMusicVolume > 1 {
		return fmt.Errorf("bg_music_volume must be within [0,1], got %v", c.BgMusicVolume)
	}
	if c.Resolution.Width <= 0 || c.Resolution.Height <= 0 {
		return fmt.Errorf("resolution must be positive, got %dx%d", c.Resolution.Width, c.Resolution.Height)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %v", c.Duration)
	}
	return nil
}
