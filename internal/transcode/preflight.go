package transcode

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

var (
	minFFmpegVersion = semver.MustParse("4.1.0")
	ffmpegVersionRe  = regexp.MustCompile(`ffmpeg version (?:n)?(\d+\.\d+(?:\.\d+)?)`)
)

// Preflight checks that ffmpeg is runnable and recent enough for the
// aac_adtstoasc bitstream filter. A version banner that cannot be parsed
// is logged and tolerated; a missing binary or an old release is not.
func (s *Supervisor) Preflight(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, s.ffmpegPath, "-version").Output()
	if err != nil {
		return fmt.Errorf("ffmpeg not available at %q: %w", s.ffmpegPath, err)
	}
	match := ffmpegVersionRe.FindSubmatch(out)
	if match == nil {
		log.Printf("Could not parse ffmpeg version banner; skipping version check")
		return nil
	}
	version, err := semver.NewVersion(string(match[1]))
	if err != nil {
		log.Printf("Could not parse ffmpeg version %q; skipping version check", match[1])
		return nil
	}
	if version.LessThan(minFFmpegVersion) {
		return fmt.Errorf("ffmpeg %s is too old, need %s or newer", version, minFFmpegVersion)
	}
	return nil
}
