package adapters

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/config"
	"podcast-video-pipeline/domain"

	"github.com/google/uuid"
)

// footerMarqueeSpeed is the marquee scroll rate in pixels per second. The
// footer enters from the right edge and scrolls left without looping.
const footerMarqueeSpeed = 150

// speakerFeedSize is the diameter of the circular speaker feed on the intro.
const speakerFeedSize = 320

var clipExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".mkv": true,
	".avi": true,
}

type ffmpegSegmentBuilder struct {
	logger outbound.LoggerPort
	encode *config.EncodeConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func NewFFmpegSegmentBuilder(logger outbound.LoggerPort, encode *config.EncodeConfig) outbound.SegmentBuilderPort {
	return &ffmpegSegmentBuilder{
		logger: logger,
		encode: encode,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Build composites one segment to cfg.OutputPath. Intro and outro run on
// their fixed brand background and short/brief on one random library clip,
// all cover-fitted to the target resolution; the main segment alone joins
// random library clips stretched to it. The outcome is always an explicit
// result so the assembler can decide what a failure means for this segment
// kind.
func (b *ffmpegSegmentBuilder) Build(ctx context.Context, cfg domain.SegmentConfig) domain.SegmentResult {
	fail := func(err error) domain.SegmentResult {
		return domain.SegmentResult{Kind: cfg.SegmentType, Status: domain.SegmentFailed, Err: err}
	}
	skip := func(reason string) domain.SegmentResult {
		b.logger.WarnWithFields("skipping segment", map[string]interface{}{
			"kind":   string(cfg.SegmentType),
			"reason": reason,
		})
		return domain.SegmentResult{Kind: cfg.SegmentType, Status: domain.SegmentSkipped}
	}

	targetDur, err := b.targetDuration(ctx, cfg)
	if err != nil {
		return fail(err)
	}

	workDir := filepath.Dir(cfg.OutputPath)

	var background string
	switch cfg.SegmentType {
	case domain.SegmentIntro, domain.SegmentOutro:
		background, err = b.prepareCoverBackground(ctx, cfg.BackgroundVideoPath, cfg, targetDur, workDir)
	case domain.SegmentMain:
		background, err = b.prepareLibraryBackground(ctx, cfg, targetDur, workDir)
		if err == nil && background == "" {
			return skip("no usable clips in " + cfg.SourceVideosDir)
		}
	default:
		background, err = b.prepareRandomClipBackground(ctx, cfg, targetDur, workDir)
		if err == nil && background == "" {
			return skip("no usable clips in " + cfg.SourceVideosDir)
		}
	}
	if err != nil {
		return fail(err)
	}
	defer b.removeQuietly(background)

	if err := b.composite(ctx, cfg, background, targetDur); err != nil {
		return fail(err)
	}

	duration, err := b.probeDuration(ctx, cfg.OutputPath)
	if err != nil {
		return fail(err)
	}

	return domain.SegmentResult{
		Kind:     cfg.SegmentType,
		Status:   domain.SegmentBuilt,
		FileName: cfg.OutputPath,
		Duration: duration,
	}
}

// targetDuration resolves the segment length: the voiceover's length for the
// main segment, the clip's own length for the outro and an unconfigured
// intro, and the configured duration for everything else.
func (b *ffmpegSegmentBuilder) targetDuration(ctx context.Context, cfg domain.SegmentConfig) (float64, error) {
	switch cfg.SegmentType {
	case domain.SegmentMain:
		return b.probeDuration(ctx, cfg.VoiceoverPath)
	case domain.SegmentOutro:
		return b.probeDuration(ctx, cfg.BackgroundVideoPath)
	case domain.SegmentIntro:
		if cfg.Duration > 0 {
			return cfg.Duration, nil
		}
		return b.probeDuration(ctx, cfg.BackgroundVideoPath)
	default:
		if cfg.Duration <= 0 {
			return 0, fmt.Errorf("segment %s has no duration", cfg.SegmentType)
		}
		return cfg.Duration, nil
	}
}

// prepareCoverBackground loops and cover-fits the source video: it is scaled
// up just enough to cover the frame and center-cropped, never distorted.
func (b *ffmpegSegmentBuilder) prepareCoverBackground(ctx context.Context, src string, cfg domain.SegmentConfig,
	targetDur float64, workDir string) (string, error) {
	srcW, srcH, err := b.probeResolution(ctx, src)
	if err != nil {
		return "", err
	}
	scaleW, scaleH := coverFit(srcW, srcH, cfg.Resolution.Width, cfg.Resolution.Height)

	out := filepath.Join(workDir, "bg_"+uuid.NewString()+".mp4")
	args := []string{
		"-y",
		"-stream_loop", "-1",
		"-i", src,
		"-t", formatSeconds(targetDur),
		"-vf", fmt.Sprintf("scale=%d:%d,crop=%d:%d,setsar=1,fps=%d",
			scaleW, scaleH, cfg.Resolution.Width, cfg.Resolution.Height, b.encode.Fps),
		"-an",
	}
	args = append(args, b.videoEncodeArgs()...)
	args = append(args, out)

	if err := runFFmpeg(ctx, args...); err != nil {
		return "", err
	}
	return out, nil
}

// prepareRandomClipBackground picks one random library clip and cover-fits it
// like a fixed background. An empty library yields ("", nil) so the caller
// can skip instead of fail.
func (b *ffmpegSegmentBuilder) prepareRandomClipBackground(ctx context.Context, cfg domain.SegmentConfig,
	targetDur float64, workDir string) (string, error) {
	clips, err := b.listLibraryClips(cfg.SourceVideosDir)
	if err != nil {
		return "", err
	}
	if len(clips) == 0 {
		return "", nil
	}

	b.mu.Lock()
	clip := clips[b.rng.Intn(len(clips))]
	b.mu.Unlock()

	return b.prepareCoverBackground(ctx, clip, cfg, targetDur, workDir)
}

// prepareLibraryBackground joins randomly chosen library clips until they
// cover the target duration, stretching each to the target resolution. An
// empty library yields ("", nil) so the caller can skip instead of fail.
func (b *ffmpegSegmentBuilder) prepareLibraryBackground(ctx context.Context, cfg domain.SegmentConfig,
	targetDur float64, workDir string) (string, error) {
	clips, err := b.listLibraryClips(cfg.SourceVideosDir)
	if err != nil {
		return "", err
	}
	if len(clips) == 0 {
		return "", nil
	}

	b.mu.Lock()
	b.rng.Shuffle(len(clips), func(i, j int) { clips[i], clips[j] = clips[j], clips[i] })
	b.mu.Unlock()

	durations := make([]float64, len(clips))
	for i, clip := range clips {
		d, err := b.probeDuration(ctx, clip)
		if err != nil {
			b.logger.WarnWithFields("unreadable library clip, ignoring", map[string]interface{}{"path": clip})
			durations[i] = 0
			continue
		}
		durations[i] = d
	}

	plan := backgroundPlan(durations, targetDur)
	if len(plan) == 0 {
		return "", nil
	}

	// Normalize each chosen clip so the concat demuxer can join by copy.
	stretch := fmt.Sprintf("scale=%d:%d,setsar=1,fps=%d",
		cfg.Resolution.Width, cfg.Resolution.Height, b.encode.Fps)
	normalized := make([]string, 0, len(plan))
	defer func() {
		for _, p := range normalized {
			b.removeQuietly(p)
		}
	}()
	for _, idx := range plan {
		out := filepath.Join(workDir, "clip_"+uuid.NewString()+".mp4")
		args := []string{"-y", "-i", clips[idx], "-vf", stretch, "-an"}
		args = append(args, b.videoEncodeArgs()...)
		args = append(args, out)
		if err := runFFmpeg(ctx, args...); err != nil {
			return "", err
		}
		normalized = append(normalized, out)
	}

	listPath, err := writeConcatList(workDir, normalized)
	if err != nil {
		return "", err
	}
	defer b.removeQuietly(listPath)

	out := filepath.Join(workDir, "bg_"+uuid.NewString()+".mp4")
	args := []string{
		"-y",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-t", formatSeconds(targetDur),
		"-c", "copy",
		out,
	}
	if err := runFFmpeg(ctx, args...); err != nil {
		return "", err
	}
	return out, nil
}

// composite layers text, logo, speaker feeds and the audio bed onto the
// prepared background in a single ffmpeg pass.
func (b *ffmpegSegmentBuilder) composite(ctx context.Context, cfg domain.SegmentConfig,
	background string, targetDur float64) error {
	args := []string{"-y", "-i", background}
	inputIndex := 1

	logoIndex := -1
	if cfg.LogoPath != "" {
		if _, err := os.Stat(cfg.LogoPath); err == nil {
			args = append(args, "-i", cfg.LogoPath)
			logoIndex = inputIndex
			inputIndex++
		}
	}

	musicIndex := -1
	if cfg.BackgroundMusicPath != "" {
		args = append(args, "-stream_loop", "-1", "-i", cfg.BackgroundMusicPath)
		musicIndex = inputIndex
		inputIndex++
	}

	voiceIndex := -1
	var voiceDur float64
	if cfg.VoiceoverPath != "" {
		var err error
		voiceDur, err = b.probeDuration(ctx, cfg.VoiceoverPath)
		if err != nil {
			return err
		}
		args = append(args, "-i", cfg.VoiceoverPath)
		voiceIndex = inputIndex
		inputIndex++
	}

	feedIndexes := make([]int, 0, len(cfg.SpeakerFeeds))
	for _, feed := range cfg.SpeakerFeeds {
		args = append(args, "-i", feed.VideoPath)
		feedIndexes = append(feedIndexes, inputIndex)
		inputIndex++
	}

	filter, videoLabel := b.videoFilter(cfg, logoIndex, feedIndexes)
	audioFilter, audioLabel := b.audioFilter(cfg, musicIndex, voiceIndex, voiceDur, targetDur)
	if audioFilter != "" {
		filter = filter + ";" + audioFilter
	}

	args = append(args,
		"-filter_complex", filter,
		"-map", videoLabel,
	)
	if audioLabel != "" {
		args = append(args, "-map", audioLabel)
	}
	args = append(args, "-t", formatSeconds(targetDur))
	args = append(args, b.videoEncodeArgs()...)
	args = append(args,
		"-c:a", b.encode.AudioCodec,
		"-b:a", b.encode.AudioBitrate,
		cfg.OutputPath,
	)

	return runFFmpeg(ctx, args...)
}

// videoFilter builds the overlay chain: optional color wash and speaker
// feeds, heading and subheading, the footer marquee and the logo.
func (b *ffmpegSegmentBuilder) videoFilter(cfg domain.SegmentConfig, logoIndex int, feedIndexes []int) (string, string) {
	var stages []string
	current := "[0:v]"
	next := func(stage string, label string) {
		stages = append(stages, current+stage+label)
		current = label
	}

	if len(feedIndexes) > 0 {
		// Dim the background so the circular feeds and titles read over it.
		next("drawbox=x=0:y=0:w=iw:h=ih:color=black@0.35:t=fill", "[washed]")

		for i, idx := range feedIndexes {
			circle := fmt.Sprintf(
				"[%d:v]scale=%d:%d,format=rgba,geq=lum='lum(X,Y)':cb='cb(X,Y)':cr='cr(X,Y)':a='if(lte(hypot(X-%d,Y-%d),%d),255,0)'[feed%d]",
				idx, speakerFeedSize, speakerFeedSize,
				speakerFeedSize/2, speakerFeedSize/2, speakerFeedSize/2, i)
			stages = append(stages, circle)

			x := fmt.Sprintf("(w*%d/%d)-%d", i+1, len(feedIndexes)+1, speakerFeedSize/2)
			label := fmt.Sprintf("[withfeed%d]", i)
			next(fmt.Sprintf("[feed%d]overlay=x=%s:y=h-%d:eof_action=pass", i, x, speakerFeedSize+120), label)

			name := escapeDrawText(cfg.SpeakerFeeds[i].Name)
			nameLabel := fmt.Sprintf("[named%d]", i)
			next(fmt.Sprintf("drawtext=text='%s':fontsize=%d:fontcolor=%s:x=%s+%d-text_w/2:y=h-%d",
				name, cfg.SubheadingStyle.FontSize, cfg.SubheadingStyle.Color,
				x, speakerFeedSize/2, 90), nameLabel)
		}
	}

	if cfg.Heading != "" {
		next(fmt.Sprintf("drawtext=text='%s':fontsize=%d:fontcolor=%s:x=(w-text_w)/2:y=(h-text_h)/2-80",
			escapeDrawText(cfg.Heading), cfg.HeadingStyle.FontSize, cfg.HeadingStyle.Color), "[heading]")
	}
	if cfg.Subheading != "" {
		next(fmt.Sprintf("drawtext=text='%s':fontsize=%d:fontcolor=%s:x=(w-text_w)/2:y=(h-text_h)/2+40",
			escapeDrawText(cfg.Subheading), cfg.SubheadingStyle.FontSize, cfg.SubheadingStyle.Color), "[subheading]")
	}
	if cfg.Footer != "" {
		next(fmt.Sprintf("drawtext=text='%s':fontsize=%d:fontcolor=%s:x=%s:y=h-text_h-40",
			escapeDrawText(cfg.Footer), cfg.FooterStyle.FontSize, cfg.FooterStyle.Color,
			footerMarqueeExpr()), "[footer]")
	}

	if logoIndex >= 0 {
		scaled := fmt.Sprintf("[%d:v]scale=%d:%d[logo]", logoIndex, cfg.LogoWidth, cfg.LogoHeight)
		stages = append(stages, scaled)
		next(fmt.Sprintf("[logo]overlay=%d:%d", domain.DefaultLogoX, domain.DefaultLogoY), "[branded]")
	}

	if len(stages) == 0 {
		stages = append(stages, "[0:v]null[vout]")
		current = "[vout]"
	}
	return strings.Join(stages, ";"), current
}

// footerMarqueeExpr is the footer x position: starts at the right edge and
// scrolls left at a fixed rate. It is not looped; a footer longer than the
// segment simply exits early.
func footerMarqueeExpr() string {
	return fmt.Sprintf("w-%d*t", footerMarqueeSpeed)
}

// audioFilter builds the audio bed: the voiceover when present, with the
// background music mixed underneath at its configured fraction of full
// volume. The mix is a plain sum of the pre-scaled inputs (normalize=0);
// amix's default rescaling would halve the voiceover.
func (b *ffmpegSegmentBuilder) audioFilter(cfg domain.SegmentConfig, musicIndex, voiceIndex int,
	voiceDur, targetDur float64) (string, string) {
	voiceChain := "anull"
	if voiceIndex >= 0 && voiceDur > targetDur {
		voiceChain = voiceoverFadeChain(targetDur)
	}
	switch {
	case musicIndex >= 0 && voiceIndex >= 0:
		return fmt.Sprintf("[%d:a]%s[voice];[%d:a]volume=%s,atrim=0:%s[music];[voice][music]amix=inputs=2:duration=longest:dropout_transition=0:normalize=0[aout]",
			voiceIndex, voiceChain, musicIndex, formatSeconds(cfg.BgMusicVolume), formatSeconds(targetDur)), "[aout]"
	case musicIndex >= 0:
		return fmt.Sprintf("[%d:a]volume=%s[aout]", musicIndex, formatSeconds(cfg.BgMusicVolume)), "[aout]"
	case voiceIndex >= 0:
		return fmt.Sprintf("[%d:a]%s[aout]", voiceIndex, voiceChain), "[aout]"
	default:
		// Silent bed keeps every segment carrying an audio stream, which the
		// concat join requires.
		return fmt.Sprintf("anullsrc=r=%d:cl=stereo:d=%s[aout]", domain.DefaultSampleRate, formatSeconds(targetDur)), "[aout]"
	}
}

// voiceoverFadeChain trims a voiceover that outruns its segment to one second
// short of the target and fades the last two seconds out, instead of hard
// cutting it at the segment boundary.
func voiceoverFadeChain(targetDur float64) string {
	end := targetDur - 1
	if end < 0 {
		end = 0
	}
	fadeStart := end - 2
	if fadeStart < 0 {
		fadeStart = 0
	}
	return fmt.Sprintf("atrim=0:%s,afade=t=out:st=%s:d=2", formatSeconds(end), formatSeconds(fadeStart))
}

func (b *ffmpegSegmentBuilder) listLibraryClips(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var clips []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if clipExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			clips = append(clips, filepath.Join(dir, e.Name()))
		}
	}
	return clips, nil
}

func (b *ffmpegSegmentBuilder) videoEncodeArgs() []string {
	return []string{
		"-c:v", b.encode.VideoCodec,
		"-b:v", b.encode.VideoBitrate,
		"-preset", b.encode.Preset,
		"-pix_fmt", "yuv420p",
	}
}

func (b *ffmpegSegmentBuilder) probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to probe duration of %s: %w", path, err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration of %s: %w", path, err)
	}
	return duration, nil
}

func (b *ffmpegSegmentBuilder) probeResolution(ctx context.Context, path string) (int, int, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		path)
	out, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to probe resolution of %s: %w", path, err)
	}
	parts := strings.Split(strings.TrimSpace(string(out)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected ffprobe resolution output %q for %s", string(out), path)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

func (b *ffmpegSegmentBuilder) removeQuietly(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil {
		b.logger.Error(err, "failed to remove temp file")
	}
}

// coverFit scales (srcW, srcH) by the smallest factor that covers the
// destination, so a center crop to (dstW, dstH) never leaves bars and never
// distorts.
func coverFit(srcW, srcH, dstW, dstH int) (int, int) {
	ratio := math.Max(float64(dstW)/float64(srcW), float64(dstH)/float64(srcH))
	w := int(math.Ceil(float64(srcW) * ratio))
	h := int(math.Ceil(float64(srcH) * ratio))
	if w < dstW {
		w = dstW
	}
	if h < dstH {
		h = dstH
	}
	return w, h
}

// backgroundPlan picks clip indices, in the order given, until their
// durations cover targetSeconds. A library shorter than the target is cycled
// so the background never runs out early. Zero-duration entries are ignored.
func backgroundPlan(durations []float64, targetSeconds float64) []int {
	usable := 0
	var total float64
	for _, d := range durations {
		if d > 0 {
			usable++
			total += d
		}
	}
	if usable == 0 {
		return nil
	}

	var plan []int
	var covered float64
	for covered < targetSeconds {
		for i, d := range durations {
			if d <= 0 {
				continue
			}
			plan = append(plan, i)
			covered += d
			if covered >= targetSeconds {
				break
			}
		}
	}
	return plan
}

func writeConcatList(workDir string, files []string) (string, error) {
	var sb strings.Builder
	for _, f := range files {
		sb.WriteString("file '" + f + "'\n")
	}
	path := filepath.Join(workDir, "concat_"+uuid.NewString()+".txt")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// escapeDrawText escapes the characters drawtext treats specially. The text
// is embedded in a single-quoted filter option, so a literal quote closes the
// quoted section, emits an escaped quote and reopens it.
func escapeDrawText(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `'\''`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
