package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ansel1/merry/v2"
	"github.com/go-resty/resty/v2"
	"github.com/teris-io/shortid"
)

var (
	ErrUpstreamFetch = merry.Sentinel("upstream source fetch failed",
		merry.WithUserMessage("could not fetch source streams"))
	ErrMuxerProcess = merry.Sentinel("muxer process failed",
		merry.WithUserMessage("merging audio and video failed"))
	ErrMergeTimeout = merry.Sentinel("merge deadline exceeded",
		merry.WithUserMessage("merging audio and video timed out"))
)

const artifactPrefix = "merge-"

// Engine joins a separately sourced video stream and audio stream into one
// mp4 by piping both into an external muxer process. The video elementary
// stream is copied unchanged; audio is re-encoded to AAC for compatibility;
// output is truncated to the shorter input.
type Engine struct {
	Bin         string
	ArtifactDir string
	Timeout     time.Duration

	restyClient *resty.Client
}

func NewEngine(bin, artifactDir string, timeout time.Duration) *Engine {
	client := resty.New()
	client.SetDoNotParseResponse(true)
	client.SetDisableWarn(true)

	return &Engine{
		Bin:         bin,
		ArtifactDir: artifactDir,
		Timeout:     timeout,
		restyClient: client,
	}
}

// MergeToFile runs the muxer with a uniquely named temp file as output and
// returns its path. The caller owns deletion of the artifact.
func (e *Engine) MergeToFile(ctx context.Context, videoURL, audioURL string) (string, error) {
	outputPath := filepath.Join(e.ArtifactDir, fmt.Sprintf("%s%s.mp4", artifactPrefix, shortid.MustGenerate()))
	if err := e.run(ctx, videoURL, audioURL, outputPath, nil); err != nil {
		return "", err
	}
	return outputPath, nil
}

// MergeToStream pipes the muxer output live into the sink. The output is
// fragmented mp4 since the muxer cannot seek a pipe.
func (e *Engine) MergeToStream(ctx context.Context, videoURL, audioURL string, sink io.Writer) error {
	return e.run(ctx, videoURL, audioURL, "", sink)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func (e *Engine) run(parent context.Context, videoURL, audioURL, outputPath string, sink io.Writer) error {
	ctx, cancel := context.WithTimeout(parent, e.Timeout)
	defer cancel()

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-i", "pipe:3",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
	}
	if sink != nil {
		args = append(args, "-movflags", "frag_keyframe+empty_moov", "-f", "mp4", "pipe:1")
	} else {
		args = append(args, "-f", "mp4", "-y", outputPath)
	}

	cmd := exec.CommandContext(ctx, e.Bin, args...)

	videoIn, err := cmd.StdinPipe()
	if err != nil {
		return merry.Wrap(ErrMuxerProcess, merry.WithMessagef("stdin pipe: %v", err))
	}

	audioRead, audioWrite, err := os.Pipe()
	if err != nil {
		return merry.Wrap(ErrMuxerProcess, merry.WithMessagef("audio pipe: %v", err))
	}
	cmd.ExtraFiles = []*os.File{audioRead}

	errorBytes := bytes.Buffer{}
	cmd.Stderr = &errorBytes

	var counted *countingWriter
	if sink != nil {
		counted = &countingWriter{w: sink}
		cmd.Stdout = counted
	}

	if err := cmd.Start(); err != nil {
		_ = audioRead.Close()
		_ = audioWrite.Close()
		return merry.Wrap(ErrMuxerProcess, merry.WithMessagef("start failed: %v", err))
	}
	// The child owns its copy of the read end now.
	_ = audioRead.Close()

	// Both fetch legs run concurrently with the process. Sequential feeding
	// would deadlock on the muxer's blocking reads in pipe mode.
	errs := make(chan error, 3)
	go func() {
		errs <- e.feed(ctx, videoURL, videoIn)
	}()
	go func() {
		errs <- e.feed(ctx, audioURL, audioWrite)
	}()
	go func() {
		if err := cmd.Wait(); err != nil {
			errs <- merry.Wrap(ErrMuxerProcess,
				merry.WithMessagef("muxer exited: %v: %s", err, strings.TrimSpace(errorBytes.String())))
			return
		}
		errs <- nil
	}()

	// First failure wins and tears down the other two legs via the shared
	// context: the process is killed and both fetches abort.
	var firstErr error
	for i := 0; i < 3; i++ {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	if firstErr != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		firstErr = merry.Wrap(ErrMergeTimeout, merry.WithMessagef("merge exceeded %s", e.Timeout))
	}

	if firstErr == nil && outputPath != "" {
		info, err := os.Stat(outputPath)
		if err != nil || info.Size() == 0 {
			firstErr = merry.Wrap(ErrMuxerProcess, merry.WithMessage("muxer exited cleanly but produced no output"))
		}
	}
	if firstErr == nil && sink != nil && counted.n == 0 {
		firstErr = merry.Wrap(ErrMuxerProcess, merry.WithMessage("muxer exited cleanly but streamed no output"))
	}

	if firstErr != nil {
		if outputPath != "" {
			_ = os.Remove(outputPath)
		}
		return firstErr
	}
	return nil
}

// feed streams one remote source into its half of the muxer. Write failures
// caused by the process going away are not reported; the process leg owns
// that error.
func (e *Engine) feed(ctx context.Context, url string, dst io.WriteCloser) error {
	defer func() {
		_ = dst.Close()
	}()

	res, err := e.restyClient.R().SetContext(ctx).Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return merry.Wrap(ErrUpstreamFetch, merry.WithMessagef("fetching %s: %v", url, err))
	}
	body := res.RawBody()
	defer func() {
		_ = body.Close()
	}()

	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		return merry.Wrap(ErrUpstreamFetch,
			merry.WithHTTPCode(res.StatusCode()),
			merry.WithMessagef("source %s returned status %d", url, res.StatusCode()))
	}

	if _, err := io.Copy(dst, body); err != nil {
		if ctx.Err() != nil || errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) {
			return nil
		}
		return merry.Wrap(ErrUpstreamFetch, merry.WithMessagef("streaming %s: %v", url, err))
	}
	return nil
}
