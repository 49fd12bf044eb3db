package render

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/sync/errgroup"

	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/media/ffmpeg"
	"clipforge/internal/media/pcm"
	"clipforge/internal/resourceguard"
	"clipforge/internal/services"
	"clipforge/internal/subtitles"
)

// barsPerFrame is the number of waveform columns drawn on each frame.
const barsPerFrame = 48

// Job is one clip to synthesize. AudioPath must already be the extracted,
// loudness-normalized clip window.
type Job struct {
	Fingerprint     string
	AudioPath       string
	DurationSeconds float64

	Title       string
	Subtitle    string
	Creator     string
	ProfilePath string

	Cues []subtitles.Subtitle
}

// Outputs are the artifacts of a successful synthesis. Both live under the
// staging directory, registered with the resource guard, and are the
// caller's to release after upload.
type Outputs struct {
	VideoPath   string
	PreviewPath string
}

// Engine renders clip videos frame by frame and muxes them with audio.
type Engine struct {
	cfg    *config.Config
	guard  *resourceguard.Guard
	ffmpeg *ffmpeg.Runner
	logger *slog.Logger
}

// NewEngine wires a frame synthesis engine.
func NewEngine(cfg *config.Config, guard *resourceguard.Guard, runner *ffmpeg.Runner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		guard:  guard,
		ffmpeg: runner,
		logger: logging.NewComponentLogger(logger, "render"),
	}
}

// Synthesize renders every frame of the job, writes the first frame as a
// standalone preview image, and muxes the frame sequence with the audio
// track. Working files live in a job-unique directory that is removed on
// both success and failure.
func (e *Engine) Synthesize(ctx context.Context, job Job) (Outputs, error) {
	if job.DurationSeconds <= 0 {
		return Outputs{}, services.Wrap(services.ErrValidation, "render", "synthesize", "duration must be positive", nil)
	}

	workDir := filepath.Join(e.cfg.Paths.StagingDir, "render-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Outputs{}, services.Wrap(services.ErrResource, "render", "synthesize", "create work dir", err)
	}
	defer os.RemoveAll(workDir)

	samples, err := e.decodeSamples(ctx, job.AudioPath, workDir)
	if err != nil {
		return Outputs{}, err
	}

	state := e.buildSharedState(job)
	state.gain = waveformGain(samples)

	frameCount := int(math.Ceil(job.DurationSeconds * float64(e.cfg.Render.FrameRate)))
	if frameCount < 1 {
		frameCount = 1
	}

	if err := e.renderFrames(ctx, workDir, job, state, samples, frameCount); err != nil {
		return Outputs{}, err
	}

	previewPath := filepath.Join(e.cfg.Paths.StagingDir, job.Fingerprint+"-preview.png")
	e.guard.RegisterTempFile(job.Fingerprint, previewPath)
	if err := copyFile(filepath.Join(workDir, frameName(0)), previewPath); err != nil {
		e.guard.ReleaseTempFile(previewPath)
		return Outputs{}, services.Wrap(services.ErrResource, "render", "synthesize", "write preview", err)
	}

	videoPath := filepath.Join(e.cfg.Paths.StagingDir, job.Fingerprint+"-clip.mp4")
	e.guard.RegisterTempFile(job.Fingerprint, videoPath)
	muxCtx, cancel := context.WithTimeout(ctx, e.cfg.TranscodeTimeout())
	defer cancel()
	if err := e.ffmpeg.MuxFrames(muxCtx, workDir, job.AudioPath, e.cfg.Render.FrameRate, videoPath); err != nil {
		e.guard.ReleaseTempFile(videoPath)
		e.guard.ReleaseTempFile(previewPath)
		return Outputs{}, err
	}

	e.logger.Info("clip synthesized",
		logging.String(logging.FieldFingerprint, job.Fingerprint),
		logging.Int("frames", frameCount))
	return Outputs{VideoPath: videoPath, PreviewPath: previewPath}, nil
}

// sharedState holds the per-job inputs that every frame shares.
type sharedState struct {
	base      colorful.Color
	profile   image.Image
	watermark image.Image
	title     string
	subtitle  string
	gain      float64
}

func (e *Engine) buildSharedState(job Job) sharedState {
	profile := loadImage(job.ProfilePath)
	watermark := loadImage(e.cfg.Render.WatermarkPath)
	return sharedState{
		base:      BaseColor(e.cfg.Render.CreatorColors, job.Creator, profile),
		profile:   profile,
		watermark: watermark,
		title:     job.Title,
		subtitle:  job.Subtitle,
	}
}

func (e *Engine) decodeSamples(ctx context.Context, audioPath, workDir string) ([]int16, error) {
	pcmPath := filepath.Join(workDir, "audio.pcm")
	decodeCtx, cancel := context.WithTimeout(ctx, e.cfg.TranscodeTimeout())
	defer cancel()
	if err := e.ffmpeg.DecodePCM(decodeCtx, audioPath, pcmPath); err != nil {
		return nil, err
	}
	samples, err := pcm.ReadFile(pcmPath)
	if err != nil {
		return nil, services.Wrap(services.ErrResource, "render", "synthesize", "read decoded audio", err)
	}
	if len(samples) == 0 {
		return nil, services.Wrap(services.ErrValidation, "render", "synthesize", "audio track decoded to zero samples", nil)
	}
	return samples, nil
}

// renderFrames rasterizes all frames with a bounded worker pool. Frame
// files are named so the muxer can consume them as an image sequence.
func (e *Engine) renderFrames(ctx context.Context, workDir string, job Job, state sharedState, samples []int16, frameCount int) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(e.cfg.Render.MaxConcurrentFrames)

	for index := 0; index < frameCount; index++ {
		index := index
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			timestamp := float64(index) / float64(e.cfg.Render.FrameRate)
			frame := FrameState{
				Width:     e.cfg.Render.CanvasWidth,
				Height:    e.cfg.Render.CanvasHeight,
				Base:      state.base,
				Profile:   state.profile,
				Watermark: state.watermark,
				Title:     state.title,
				Subtitle:  state.subtitle,
				Bars:      frameBars(samples, timestamp, state.gain),
			}
			if cue, ok := subtitles.ActiveAt(job.Cues, timestamp); ok {
				frame.Caption = cue.Text
			}
			return writePNG(filepath.Join(workDir, frameName(index)), RenderFrame(frame))
		})
	}
	return group.Wait()
}

// waveformGain normalizes the waveform against the clip's loudest block so
// quiet clips still animate at full height.
func waveformGain(samples []int16) float64 {
	blocks, err := pcm.RMSBlocks(samples, barsPerFrame)
	if err != nil {
		return 1
	}
	peak := pcm.Peak(blocks)
	if peak <= 0 {
		return 1
	}
	return 1 / peak
}

// frameBars returns the waveform columns for the one-second audio window
// starting at the frame's timestamp, scaled by the clip-wide gain.
func frameBars(samples []int16, timestamp float64, gain float64) []float64 {
	start := int(timestamp * ffmpeg.WaveformSampleRate)
	if start >= len(samples) {
		start = len(samples) - 1
	}
	if start < 0 {
		start = 0
	}
	end := start + ffmpeg.WaveformSampleRate
	if end > len(samples) {
		end = len(samples)
	}
	bars, err := pcm.RMSBlocks(samples[start:end], barsPerFrame)
	if err != nil {
		return make([]float64, barsPerFrame)
	}
	if gain > 0 && gain != 1 {
		for i := range bars {
			bars[i] = math.Min(1, bars[i]*gain)
		}
	}
	return bars
}

func frameName(index int) string {
	return fmt.Sprintf("frame-%06d.png", index)
}

func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create frame %s: %w", filepath.Base(path), err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("encode frame %s: %w", filepath.Base(path), err)
	}
	return file.Close()
}

func copyFile(source, destination string) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return err
	}
	return os.WriteFile(destination, data, 0o644)
}

// loadImage reads an optional PNG/JPEG asset; a missing or unreadable file
// just means the element is skipped on the canvas.
func loadImage(path string) image.Image {
	if path == "" {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()
	decoded, _, err := image.Decode(file)
	if err != nil {
		return nil
	}
	return decoded
}
