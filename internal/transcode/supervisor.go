// Package transcode turns HLS manifests into local mp4 files by
// supervising ffmpeg. The stream is copied rather than re-encoded, and
// progress is read from ffmpeg's -progress side channel.
package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Job describes one manifest-to-file transcode.
type Job struct {
	ManifestURL string
	OutputPath  string
	Duration    float64 // seconds; zero when unknown
	Tag         int     // distinguishes temp files of concurrent jobs
	OnProgress  ProgressFunc
}

type Supervisor struct {
	ffmpegPath string
	tempDir    string
}

func NewSupervisor(ffmpegPath string) *Supervisor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Supervisor{ffmpegPath: ffmpegPath, tempDir: os.TempDir()}
}

// Run executes one transcode and blocks until it finishes. Output is
// written to a temp file next to the destination and renamed into place
// at the end, so job.OutputPath exists only on success.
func (s *Supervisor) Run(ctx context.Context, job Job) error {
	destDir := filepath.Dir(job.OutputPath)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return &FilesystemError{Op: "create directory", Path: destDir, Err: err}
	}

	stamp := time.Now().UnixNano()
	tempOut := filepath.Join(destDir, fmt.Sprintf(".zen-%d-%d-%d.mp4", os.Getpid(), job.Tag, stamp))

	args := []string{"-y", "-loglevel", "error"}
	var progressPath string
	if job.OnProgress != nil {
		progressPath = filepath.Join(s.tempDir, fmt.Sprintf("zen-progress-%d-%d-%d.log", os.Getpid(), job.Tag, stamp))
		args = append(args, "-progress", progressPath)
	}
	args = append(args, "-i", job.ManifestURL, "-c", "copy", "-bsf:a", "aac_adtstoasc", tempOut)

	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	mon := newMonitor(progressPath, job.Duration, job.OnProgress)
	mon.Start()

	runErr := cmd.Wait()
	mon.Stop()
	if progressPath != "" {
		if err := os.Remove(progressPath); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove progress file %s: %v", progressPath, err)
		}
	}

	if runErr != nil {
		if err := os.Remove(tempOut); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove partial output %s: %v", tempOut, err)
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &TranscodeError{ExitCode: exitCode, Stderr: strings.TrimSpace(stderr.String())}
	}

	mon.Finish()
	if err := os.Rename(tempOut, job.OutputPath); err != nil {
		if rmErr := os.Remove(tempOut); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Printf("Failed to remove temp output %s: %v", tempOut, rmErr)
		}
		return &FilesystemError{Op: "move into place", Path: job.OutputPath, Err: err}
	}
	return nil
}
