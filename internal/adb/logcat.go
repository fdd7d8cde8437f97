// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package adb

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/testexec"
)

// LogcatTimestamp is a logcat-formatted timestamp string:
// MM-DD hh:mm:ss.xxx ex: 06-15 17:03:00.887
type LogcatTimestamp string

// LogcatTimestampPattern is the regexp for matching a logcat timestamp string.
var LogcatTimestampPattern = regexp.MustCompile(`\d{1,2}-\d{1,2} \d{1,2}:\d{1,2}:\d{1,2}.\d{1,3}`)

// LatestLogcatTimestamp gets the timestamp of the latest logcat entry.
// This can be used as a marker to get logcat entries that only happen after
// this time, allowing for logcat dumps scoped to a single iteration without
// needing to clear logcat's buffers.
func (d *Device) LatestLogcatTimestamp(ctx context.Context) (LogcatTimestamp, error) {
	out, err := d.Command(ctx, "logcat", "-d", "-t", "1").Output(testexec.DumpLogOnError)
	if err != nil {
		return "", errors.Wrap(err, "failed to get latest logcat entry")
	}
	return LogcatTimestamp(LogcatTimestampPattern.Find(out)), nil
}

// LogcatSince returns logcat entries written after timestamp. An empty
// timestamp returns the whole buffer.
func (d *Device) LogcatSince(ctx context.Context, timestamp LogcatTimestamp) (string, error) {
	args := []string{"logcat", "-d", "-v", "threadtime"}
	if timestamp != "" {
		args = append(args, "-T", string(timestamp))
	}
	out, err := d.Command(ctx, args...).Output(testexec.DumpLogOnError)
	if err != nil {
		return "", errors.Wrap(err, "failed to dump logcat")
	}
	return string(out), nil
}

// ActivityTiming holds launch timings the activity manager writes to logcat.
type ActivityTiming struct {
	// Displayed is the time to initial display, zero if not found.
	Displayed time.Duration
	// FullyDrawn is the time until the app called reportFullyDrawn, zero if
	// not found.
	FullyDrawn time.Duration
}

// Newer releases insert " for user <id>" before the colon.
var (
	displayedRegexp  = regexp.MustCompile(`\bDisplayed (\S+)(?: for user \d+)?: (\+\S+)`)
	fullyDrawnRegexp = regexp.MustCompile(`\bFully drawn (\S+)(?: for user \d+)?: (\+\S+)`)
	durationRegexp   = regexp.MustCompile(`(\d+)(ms|s|m|h)`)
)

// ParseActivityTiming extracts the last launch timings of pkg from logcat
// output.
func ParseActivityTiming(logcat, pkg string) (ActivityTiming, error) {
	var t ActivityTiming
	for _, line := range strings.Split(logcat, "\n") {
		for _, e := range []struct {
			re  *regexp.Regexp
			dst *time.Duration
		}{
			{displayedRegexp, &t.Displayed},
			{fullyDrawnRegexp, &t.FullyDrawn},
		} {
			m := e.re.FindStringSubmatch(line)
			if m == nil || !strings.HasPrefix(m[1], pkg+"/") {
				continue
			}
			dur, err := parseLogcatDuration(m[2])
			if err != nil {
				return ActivityTiming{}, errors.Wrapf(err, "failed to parse %q", line)
			}
			*e.dst = dur
		}
	}
	return t, nil
}

// parseLogcatDuration parses durations formatted like "+1s23ms" or "+512ms".
func parseLogcatDuration(s string) (time.Duration, error) {
	body := strings.TrimPrefix(s, "+")
	ms := durationRegexp.FindAllStringSubmatch(body, -1)
	if len(ms) == 0 {
		return 0, errors.Errorf("malformed duration %q", s)
	}
	var total time.Duration
	consumed := 0
	for _, m := range ms {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, errors.Wrapf(err, "malformed duration %q", s)
		}
		unit := map[string]time.Duration{"ms": time.Millisecond, "s": time.Second, "m": time.Minute, "h": time.Hour}[m[2]]
		total += time.Duration(n) * unit
		consumed += len(m[0])
	}
	if consumed != len(body) {
		return 0, errors.Errorf("malformed duration %q", s)
	}
	return total, nil
}
