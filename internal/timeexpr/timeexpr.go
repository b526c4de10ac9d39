// Package timeexpr parses the time tokens embedded in task lines (`@09:00+30min`,
// `@22:00-01:00`, `due:17:00`, `@下午3点`, `@in 20 minutes`) into intervals and
// formats intervals back into canonical tokens.
package timeexpr

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind records which token form produced an Interval.
type Kind int

const (
	// KindPoint is a bare start time: @HH:mm
	KindPoint Kind = iota
	// KindRange is an explicit start and end: @HH:mm-HH:mm
	KindRange
	// KindDuration is a start plus duration suffix: @HH:mm+Nh
	KindDuration
	// KindRelative is resolved against the parse-time clock: @in 30 minutes
	KindRelative
	// KindDue is a deadline: due:HH:mm
	KindDue
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindRange:
		return "range"
	case KindDuration:
		return "duration"
	case KindRelative:
		return "relative"
	case KindDue:
		return "due"
	default:
		return "unknown"
	}
}

// Interval is the canonical form of a parsed time token.
// A zero time.Time means the field is absent.
type Interval struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
	Due      time.Time
	Kind     Kind
}

// HasStart reports whether the interval carries a start time.
func (iv Interval) HasStart() bool { return !iv.Start.IsZero() }

// HasEnd reports whether the interval carries an end time.
func (iv Interval) HasEnd() bool { return !iv.End.IsZero() }

// HasDue reports whether the interval carries a deadline.
func (iv Interval) HasDue() bool { return !iv.Due.IsZero() }

// IsZero reports whether neither a start nor a deadline is present.
func (iv Interval) IsZero() bool { return !iv.HasStart() && !iv.HasDue() }

// Span returns the half-open extent used for layout. Intervals without an end
// occupy one fallback step; deadline-only intervals end at the deadline.
func (iv Interval) Span(fallback time.Duration) (start, end time.Time, ok bool) {
	switch {
	case iv.HasStart():
		start = iv.Start
		end = iv.End
		if !iv.HasEnd() {
			end = start.Add(fallback)
		}
		if end.Before(start) {
			end = start
		}
		return start, end, true
	case iv.HasDue():
		return iv.Due.Add(-fallback), iv.Due, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// Format renders the interval as its canonical token. Relative intervals are
// rendered as absolute point tokens.
func (iv Interval) Format() string {
	if !iv.HasStart() {
		if iv.HasDue() {
			return "due:" + FormatClock(iv.Due.Hour(), iv.Due.Minute())
		}
		return ""
	}
	start := "@" + FormatClock(iv.Start.Hour(), iv.Start.Minute())
	switch iv.Kind {
	case KindRange:
		if iv.HasEnd() {
			return start + "-" + FormatClock(iv.End.Hour(), iv.End.Minute())
		}
	case KindDuration:
		if iv.Duration > 0 {
			return start + "+" + FormatDuration(iv.Duration)
		}
	}
	return start
}

// FormatClock renders a wall-clock time as HH:mm.
func FormatClock(hour, minute int) string {
	return twoDigits(hour) + ":" + twoDigits(minute)
}

func twoDigits(n int) string {
	if n < 10 && n >= 0 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// FormatDuration renders a duration suffix: whole hours as "Nh", otherwise "Nmin".
func FormatDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	if minutes > 0 && minutes%60 == 0 {
		return strconv.Itoa(minutes/60) + "h"
	}
	return strconv.Itoa(minutes) + "min"
}

// Parse parses a single time token against the reference instant now. Clock
// times are anchored to now's calendar day. Malformed tokens and out-of-range
// values yield ok == false; Parse never panics.
func Parse(token string, now time.Time) (Interval, bool) {
	tok := strings.TrimSpace(token)
	if tok == "" {
		return Interval{}, false
	}

	if len(tok) >= 4 && strings.EqualFold(tok[:4], "due:") {
		c, ok := parseClock(strings.TrimSpace(tok[4:]))
		if !ok {
			return Interval{}, false
		}
		h, m, ok := c.resolve()
		if !ok {
			return Interval{}, false
		}
		return Interval{Due: at(now, h, m), Kind: KindDue}, true
	}

	tok = strings.TrimSpace(strings.TrimPrefix(tok, "@"))
	if tok == "" {
		return Interval{}, false
	}

	if d, ok := parseRelative(tok); ok {
		return Interval{Start: now.Add(d).Truncate(time.Minute), Kind: KindRelative}, true
	}

	if i := strings.LastIndex(tok, "+"); i > 0 {
		c, ok := parseClock(tok[:i])
		if !ok {
			return Interval{}, false
		}
		h, m, ok := c.resolve()
		if !ok {
			return Interval{}, false
		}
		d, ok := ParseDuration(tok[i+1:])
		if !ok {
			return Interval{}, false
		}
		start := at(now, h, m)
		return Interval{Start: start, End: start.Add(d), Duration: d, Kind: KindDuration}, true
	}

	if left, right, ok := splitRange(tok); ok {
		sc, ok := parseClock(left)
		if !ok {
			return Interval{}, false
		}
		ec, ok := parseClock(right)
		if !ok {
			return Interval{}, false
		}
		if ec.period == periodNone && sc.period != periodNone {
			ec.period = sc.period
		}
		sh, sm, ok := sc.resolve()
		if !ok {
			return Interval{}, false
		}
		eh, em, ok := ec.resolve()
		if !ok {
			return Interval{}, false
		}
		start := at(now, sh, sm)
		end := at(now, eh, em)
		if end.Before(start) {
			end = end.AddDate(0, 0, 1)
		}
		return Interval{Start: start, End: end, Duration: end.Sub(start), Kind: KindRange}, true
	}

	c, ok := parseClock(tok)
	if !ok {
		return Interval{}, false
	}
	h, m, ok := c.resolve()
	if !ok {
		return Interval{}, false
	}
	return Interval{Start: at(now, h, m), Kind: KindPoint}, true
}

// ParseClock parses a single clock expression ("9:05", "2:30 PM", "下午3点半")
// into a 24-hour hour and minute.
func ParseClock(s string) (hour, minute int, ok bool) {
	c, ok := parseClock(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "@")))
	if !ok {
		return 0, 0, false
	}
	return c.resolve()
}

func at(day time.Time, hour, minute int) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, hour, minute, 0, 0, day.Location())
}

var rangeSeparators = []string{"-", "~", "–", "—", "到", "至"}

func splitRange(tok string) (string, string, bool) {
	for _, sep := range rangeSeparators {
		if i := strings.Index(tok, sep); i > 0 {
			right := tok[i+len(sep):]
			if right == "" {
				return "", "", false
			}
			return tok[:i], right, true
		}
	}
	return "", "", false
}

type period int

const (
	periodNone period = iota
	periodAM
	periodPM
	periodMorning   // 上午, 早上
	periodAfternoon // 下午
	periodEvening   // 晚上
	periodDawn      // 凌晨
	periodNoon      // 中午
)

var chinesePeriods = map[string]period{
	"上午": periodMorning,
	"早上": periodMorning,
	"下午": periodAfternoon,
	"晚上": periodEvening,
	"凌晨": periodDawn,
	"中午": periodNoon,
}

type clock struct {
	hour   int
	minute int
	sep    string
	period period
}

var clockPattern = regexp.MustCompile(`^(上午|早上|下午|晚上|凌晨|中午)?\s*(\d{1,2})(?:\s*([:：点時时])\s*(\d{1,2})?\s*(分|半)?)?\s*(?i:(am|pm|a\.m\.|p\.m\.))?$`)

func parseClock(s string) (clock, bool) {
	s = strings.TrimSpace(s)
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return clock{}, false
	}
	var c clock
	c.hour, _ = strconv.Atoi(m[2])
	c.sep = m[3]
	if p, ok := chinesePeriods[m[1]]; ok {
		c.period = p
	}

	switch c.sep {
	case ":", "：":
		if len(m[4]) != 2 || m[5] != "" {
			return clock{}, false
		}
	case "点", "時", "时":
		if m[5] == "半" && m[4] != "" {
			return clock{}, false
		}
	default:
		if m[4] != "" || m[5] != "" {
			return clock{}, false
		}
	}
	if m[4] != "" {
		c.minute, _ = strconv.Atoi(m[4])
	}
	if m[5] == "半" {
		c.minute = 30
	}

	if ampm := strings.ToLower(strings.ReplaceAll(m[6], ".", "")); ampm != "" {
		if c.period != periodNone {
			return clock{}, false
		}
		if ampm == "am" {
			c.period = periodAM
		} else {
			c.period = periodPM
		}
	}
	return c, true
}

// resolve converts the clock to 24-hour form, validating the numeric domain.
func (c clock) resolve() (int, int, bool) {
	if c.sep == "" && c.period == periodNone {
		return 0, 0, false
	}
	if c.minute < 0 || c.minute > 59 {
		return 0, 0, false
	}
	h := c.hour
	switch c.period {
	case periodAM, periodPM:
		if h < 1 || h > 12 {
			return 0, 0, false
		}
		if c.period == periodAM && h == 12 {
			h = 0
		} else if c.period == periodPM && h < 12 {
			h += 12
		}
	case periodAfternoon:
		if h < 12 {
			h += 12
		}
	case periodEvening:
		if h == 12 {
			h = 0
		} else if h < 12 {
			h += 12
		}
	case periodDawn:
		if h == 12 {
			h = 0
		}
	case periodNoon:
		if h >= 1 && h <= 10 {
			h += 12
		}
	}
	if h < 0 || h > 23 {
		return 0, 0, false
	}
	return h, c.minute, true
}

var durationPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(?i:(hours|hour|hrs|hr|h|minutes|minute|mins|min|m)|(个小时|小时|钟头|分钟|分))$`)

// ParseDuration parses a duration suffix such as "2h", "1.5h", "45min",
// "90 minutes", "1小时" or "30分钟". The result is positive and whole minutes.
func ParseDuration(s string) (time.Duration, bool) {
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	unit := strings.ToLower(m[2])
	if unit == "" {
		unit = m[3]
	}
	var minutes float64
	switch unit {
	case "hours", "hour", "hrs", "hr", "h", "个小时", "小时", "钟头":
		minutes = n * 60
	default:
		minutes = n
	}
	d := time.Duration(minutes) * time.Minute
	if d <= 0 || d > 24*time.Hour {
		return 0, false
	}
	return d, true
}

var (
	relativeEnglish = regexp.MustCompile(`^(?i:in)\s+(\d+(?:\.\d+)?)\s*(?i:(minutes|minute|mins|min|m|hours|hour|hrs|hr|h))$`)
	relativeChinese = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(分钟|个小时|小时)(?:之)?后$`)
)

func parseRelative(tok string) (time.Duration, bool) {
	if tok == "半小时后" || tok == "半个小时后" {
		return 30 * time.Minute, true
	}
	if m := relativeEnglish.FindStringSubmatch(tok); m != nil {
		return ParseDuration(m[1] + m[2])
	}
	if m := relativeChinese.FindStringSubmatch(tok); m != nil {
		return ParseDuration(m[1] + m[2])
	}
	return 0, false
}
