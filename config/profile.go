package config

import (
	"fmt"
	"os"
	"path/filepath"

	"podcast-video-pipeline/domain"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Profile is a company's publishing configuration: brand assets, segment
// content and durations, and the speaker roster. Loaded from YAML with
// unknown keys rejected, so a typo fails at load time instead of silently
// falling back.
type Profile struct {
	Name string `yaml:"name" validate:"required"`

	Content struct {
		Heading    string `yaml:"heading" validate:"required"`
		Subheading string `yaml:"subheading"`
		Footer     string `yaml:"footer"`
	} `yaml:"content"`

	Paths struct {
		Logo       string `yaml:"logo"`
		IntroVideo string `yaml:"intro_video" validate:"required"`
		OutroVideo string `yaml:"outro_video" validate:"required"`
		VideosDir  string `yaml:"videos_dir" validate:"required"`
		BgMusic    string `yaml:"bg_music" validate:"required"`
	} `yaml:"paths"`

	Fallbacks struct {
		IntroVideo string `yaml:"intro_video"`
		OutroVideo string `yaml:"outro_video"`
		BgMusic    string `yaml:"bg_music"`
	} `yaml:"fallbacks"`

	Durations struct {
		// Intro left at 0 plays the intro asset at its native length.
		Intro     float64 `yaml:"intro"`
		ShortClip float64 `yaml:"short_clip"`
		Brief     float64 `yaml:"brief"`
	} `yaml:"durations"`

	Style struct {
		LogoWidth  int               `yaml:"logo_width"`
		LogoHeight int               `yaml:"logo_height"`
		Heading    domain.TextStyle  `yaml:"heading"`
		Subheading domain.TextStyle  `yaml:"subheading"`
		Footer     domain.TextStyle  `yaml:"footer"`
		Resolution domain.Resolution `yaml:"resolution"`
	} `yaml:"style"`

	Audio struct {
		BgMusicVolume float64 `yaml:"bg_music_volume"`
	} `yaml:"audio"`

	Speakers []domain.Speaker `yaml:"speakers" validate:"min=1,dive"`

	Thumbnails int `yaml:"thumbnails"`
}

// LoadProfile reads <profilesDir>/<name>.yaml.
func LoadProfile(profilesDir, name string) (*Profile, error) {
	path := filepath.Join(profilesDir, name+".yaml")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile %q: %w", name, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var p Profile
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %q: %w", name, err)
	}
	p.applyDefaults()

	if err := validator.New().Struct(&p); err != nil {
		return nil, fmt.Errorf("invalid profile %q: %w", name, err)
	}

	return &p, nil
}

func (p *Profile) applyDefaults() {
	if p.Durations.ShortClip == 0 {
		p.Durations.ShortClip = 10
	}
	if p.Durations.Brief == 0 {
		p.Durations.Brief = 15
	}
	if p.Audio.BgMusicVolume == 0 {
		p.Audio.BgMusicVolume = domain.DefaultBgMusicVolume
	}
	if p.Style.LogoWidth == 0 {
		p.Style.LogoWidth = domain.DefaultLogoWidth
	}
	if p.Style.LogoHeight == 0 {
		p.Style.LogoHeight = domain.DefaultLogoHeight
	}
	if p.Style.Resolution.Width == 0 {
		p.Style.Resolution.Width = domain.DefaultVideoWidth
	}
	if p.Style.Resolution.Height == 0 {
		p.Style.Resolution.Height = domain.DefaultVideoHeight
	}
	if p.Thumbnails == 0 {
		p.Thumbnails = 3
	}
}

// ResolveIntro returns the first existing intro background, preferring the
// profile's own asset over the fallback. The ok result is false when neither
// exists; the caller treats that as fatal.
func (p *Profile) ResolveIntro() (string, bool) {
	return firstExisting(p.Paths.IntroVideo, p.Fallbacks.IntroVideo)
}

func (p *Profile) ResolveOutro() (string, bool) {
	return firstExisting(p.Paths.OutroVideo, p.Fallbacks.OutroVideo)
}

func (p *Profile) ResolveBgMusic() (string, bool) {
	return firstExisting(p.Paths.BgMusic, p.Fallbacks.BgMusic)
}

func firstExisting(paths ...string) (string, bool) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}
