package transcode

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

const progressPollInterval = 200 * time.Millisecond

// ProgressFunc receives the number of seconds of output written so far.
type ProgressFunc func(seconds float64)

// monitor tails an ffmpeg -progress side channel and reports the
// transcode position. Values are clamped to the movie duration, reported
// monotonically and deduplicated, so a consumer can drive a progress bar
// without its own bookkeeping.
type monitor struct {
	path     string
	duration float64
	callback ProgressFunc
	interval time.Duration

	stop chan struct{}
	done chan struct{}

	last     float64
	reported bool
}

func newMonitor(path string, duration float64, callback ProgressFunc) *monitor {
	return &monitor{
		path:     path,
		duration: duration,
		callback: callback,
		interval: progressPollInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (m *monitor) Start() {
	go m.loop()
}

// Stop ends polling after one final read of the side channel.
func (m *monitor) Stop() {
	close(m.stop)
	<-m.done
}

// Finish reports the full duration as the terminal value. Called after
// Stop once the transcode has succeeded.
func (m *monitor) Finish() {
	if m.callback == nil || m.duration <= 0 {
		return
	}
	if m.reported && m.last >= m.duration {
		return
	}
	m.last = m.duration
	m.reported = true
	m.callback(m.duration)
}

func (m *monitor) loop() {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.poll()
		case <-m.stop:
			m.poll()
			return
		}
	}
}

func (m *monitor) poll() {
	if m.callback == nil {
		return
	}
	seconds, ok := readProgress(m.path)
	if !ok {
		return
	}
	if m.duration > 0 && seconds > m.duration {
		seconds = m.duration
	}
	if m.reported && seconds <= m.last {
		return
	}
	m.last = seconds
	m.reported = true
	m.callback(seconds)
}

// readProgress returns the position recorded in an ffmpeg progress file.
// ffmpeg appends a key=value block every interval, so the last well-formed
// position line wins. out_time_ms is accepted alongside out_time_us; both
// carry microseconds.
func readProgress(path string) (float64, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	var us int64
	found := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		var value string
		switch {
		case strings.HasPrefix(line, "out_time_us="):
			value = strings.TrimPrefix(line, "out_time_us=")
		case strings.HasPrefix(line, "out_time_ms="):
			value = strings.TrimPrefix(line, "out_time_ms=")
		default:
			continue
		}
		parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			continue
		}
		us = parsed
		found = true
	}
	if !found {
		return 0, false
	}
	return float64(us) / 1e6, true
}
