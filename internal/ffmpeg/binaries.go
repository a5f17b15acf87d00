package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mholt/archiver/v4"
)

const (
	ffmpegReleaseVersion = "6.1"
	ffmpegReleaseBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"

	envFFmpegPath  = "SUBDECK_FFMPEG_PATH"
	envFFprobePath = "SUBDECK_FFPROBE_PATH"
)

// ErrNotFound is returned when no binaries are available and downloading is
// disabled.
var ErrNotFound = errors.New("ffmpeg binaries not found")

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

// Options controls where binaries are looked up. Explicit paths win over the
// environment, the environment over PATH, PATH over the cache.
type Options struct {
	FFmpegPath    string
	FFprobePath   string
	CacheDir      string
	AllowDownload bool
	BaseURL       string
}

// Resolver locates ffmpeg and ffprobe once and caches the result.
type Resolver struct {
	opts Options
	http *resty.Client

	once  sync.Once
	paths BinaryPaths
	err   error
}

func NewResolver(opts Options) *Resolver {
	if opts.BaseURL == "" {
		opts.BaseURL = ffmpegReleaseBaseURL
	}
	return &Resolver{
		opts: opts,
		http: resty.New().SetTimeout(5 * time.Minute),
	}
}

// Resolve returns the binary paths, installing a bundle into the cache when
// nothing else is available.
func (r *Resolver) Resolve(ctx context.Context) (BinaryPaths, error) {
	r.once.Do(func() {
		r.paths, r.err = r.resolve(ctx)
	})
	return r.paths, r.err
}

func (r *Resolver) FFmpegPath(ctx context.Context) (string, error) {
	paths, err := r.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func (r *Resolver) FFprobePath(ctx context.Context) (string, error) {
	paths, err := r.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

func (r *Resolver) resolve(ctx context.Context) (BinaryPaths, error) {
	ffmpegPath := firstNonEmpty(r.opts.FFmpegPath, os.Getenv(envFFmpegPath))
	ffprobePath := firstNonEmpty(r.opts.FFprobePath, os.Getenv(envFFprobePath))
	if ffmpegPath != "" && ffprobePath != "" {
		return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
	}

	if ffmpegPath == "" {
		if found, err := exec.LookPath("ffmpeg"); err == nil {
			ffmpegPath = found
		}
	}
	if ffprobePath == "" {
		if found, err := exec.LookPath("ffprobe"); err == nil {
			ffprobePath = found
		}
	}
	if ffmpegPath != "" && ffprobePath != "" {
		return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
	}

	assetName, err := assetForPlatform(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return BinaryPaths{}, err
	}

	installDir := r.installDir()
	paths := BinaryPaths{
		FFmpeg:  filepath.Join(installDir, "ffmpeg"+executableSuffix()),
		FFprobe: filepath.Join(installDir, "ffprobe"+executableSuffix()),
	}
	if binariesExist(paths) {
		return paths, nil
	}

	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return BinaryPaths{}, fmt.Errorf("create ffmpeg cache dir: %w", err)
	}

	embeddedUsed, err := extractEmbedded(ctx, assetName, installDir)
	if err != nil {
		return BinaryPaths{}, err
	}
	if !embeddedUsed {
		if !r.opts.AllowDownload {
			return BinaryPaths{}, fmt.Errorf("%w: set %s/%s or install ffmpeg", ErrNotFound, envFFmpegPath, envFFprobePath)
		}
		if err := r.downloadAndExtract(ctx, assetName, installDir); err != nil {
			return BinaryPaths{}, err
		}
	}

	if !binariesExist(paths) {
		return BinaryPaths{}, errors.New("ffmpeg binaries not found after extraction")
	}
	if err := makeExecutable(paths); err != nil {
		return BinaryPaths{}, err
	}

	return paths, nil
}

func (r *Resolver) installDir() string {
	cacheDir := r.opts.CacheDir
	if cacheDir == "" {
		dir, err := os.UserCacheDir()
		if err != nil || dir == "" {
			dir = os.TempDir()
		}
		cacheDir = filepath.Join(dir, "subdeck")
	}
	return filepath.Join(cacheDir, "ffmpeg", ffmpegReleaseVersion, runtime.GOOS, runtime.GOARCH)
}

func assetForPlatform(goos, goarch string) (string, error) {
	switch {
	case goos == "linux" && goarch == "amd64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-linux-64.zip", nil
	case goos == "linux" && goarch == "arm64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-linux-arm-64.zip", nil
	case goos == "darwin" && goarch == "amd64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-macos-64.zip", nil
	case goos == "windows" && goarch == "amd64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-win-64.zip", nil
	default:
		return "", fmt.Errorf("unsupported platform for bundled ffmpeg: %s/%s", goos, goarch)
	}
}

func (r *Resolver) downloadAndExtract(ctx context.Context, assetName, installDir string) error {
	url := fmt.Sprintf("%s/v%s/%s", r.opts.BaseURL, ffmpegReleaseVersion, assetName)

	resp, err := r.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return fmt.Errorf("download ffmpeg bundle: %w", err)
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	if resp.IsError() {
		return fmt.Errorf("download ffmpeg bundle: unexpected status %s", resp.Status())
	}

	return extractArchiveFromReader(ctx, assetName, body, installDir)
}

func extractEmbedded(ctx context.Context, assetName, installDir string) (bool, error) {
	reader, ok, err := openEmbeddedAsset(assetName)
	if err != nil || !ok {
		return ok, err
	}
	defer func() { _ = reader.Close() }()

	if err := extractArchiveFromReader(ctx, assetName, reader, installDir); err != nil {
		return true, err
	}
	return true, nil
}

// zip extraction needs random access, so the stream is spooled to disk first
func extractArchiveFromReader(ctx context.Context, assetName string, reader io.Reader, installDir string) error {
	tmpFile, err := os.CreateTemp("", "subdeck-ffmpeg-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	archivePath := tmpFile.Name()
	defer func() { _ = os.Remove(archivePath) }()

	if _, err := io.Copy(tmpFile, reader); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	if err := extractArchive(ctx, archivePath, installDir); err != nil {
		return fmt.Errorf("extract %s: %w", assetName, err)
	}
	return nil
}

func extractArchive(ctx context.Context, archivePath, installDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open ffmpeg archive: %w", err)
	}
	defer func() { _ = file.Close() }()

	ffmpegFound := false
	ffprobeFound := false
	err = archiver.Zip{}.Extract(ctx, file, nil, func(_ context.Context, f archiver.File) error {
		if f.IsDir() {
			return nil
		}
		var dest string
		switch name := f.Name(); {
		case isFFmpegBinary(name):
			dest = filepath.Join(installDir, "ffmpeg"+executableSuffix())
			ffmpegFound = true
		case isFFprobeBinary(name):
			dest = filepath.Join(installDir, "ffprobe"+executableSuffix())
			ffprobeFound = true
		default:
			return nil
		}
		return extractArchiveEntry(f, dest)
	})
	if err != nil {
		return err
	}

	if !ffmpegFound || !ffprobeFound {
		return fmt.Errorf("ffmpeg archive missing required binaries")
	}
	return nil
}

func extractArchiveEntry(f archiver.File, dest string) error {
	reader, err := f.Open()
	if err != nil {
		return fmt.Errorf("open ffmpeg archive entry: %w", err)
	}
	defer func() { _ = reader.Close() }()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create ffmpeg output dir: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create ffmpeg binary: %w", err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("write ffmpeg binary: %w", err)
	}
	return nil
}

func makeExecutable(paths BinaryPaths) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	if err := os.Chmod(paths.FFmpeg, 0o755); err != nil {
		return fmt.Errorf("chmod ffmpeg: %w", err)
	}
	if err := os.Chmod(paths.FFprobe, 0o755); err != nil {
		return fmt.Errorf("chmod ffprobe: %w", err)
	}
	return nil
}

func binariesExist(paths BinaryPaths) bool {
	return fileExists(paths.FFmpeg) && fileExists(paths.FFprobe)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

func isFFmpegBinary(name string) bool {
	name = strings.ToLower(name)
	return name == "ffmpeg" || name == "ffmpeg.exe"
}

func isFFprobeBinary(name string) bool {
	name = strings.ToLower(name)
	return name == "ffprobe" || name == "ffprobe.exe"
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
