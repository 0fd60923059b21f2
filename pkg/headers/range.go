package headers

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const rangeUTCLayout = "20060102T150405Z"

func zeroPad(v uint) string {
	return fmt.Sprintf("%02d", v)
}

// clockFields splits a colon-separated "[[HH:]MM:]SS[.frac]" value,
// popping fields from the right so a short value such as "33" or
// "7:33" is read as seconds, or minutes:seconds. Returns the trailing
// seconds field unparsed, since SMPTE and NPT disagree on whether it
// may carry a fractional part.
func clockFields(s string) (hours, minutes uint64, secondsField string, err error) {
	fields := strings.Split(s, ":")
	if len(fields) == 0 || len(fields) > 3 {
		return 0, 0, "", fmt.Errorf("invalid time value (%v)", s)
	}

	secondsField = fields[len(fields)-1]
	fields = fields[:len(fields)-1]

	if len(fields) == 2 {
		hours, err = strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return 0, 0, "", err
		}
		fields = fields[1:]
	}
	if len(fields) == 1 {
		minutes, err = strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return 0, 0, "", err
		}
	}

	return hours, minutes, secondsField, nil
}

// RangeSMPTETime is a time expressed in SMPTE unit.
type RangeSMPTETime struct {
	Time     time.Duration
	Frame    uint
	Subframe uint
}

func (t *RangeSMPTETime) unmarshal(s string) error {
	hoursField, rest, ok := strings.Cut(s, ":")
	if !ok {
		return fmt.Errorf("invalid SMPTE time (%v)", s)
	}
	minutesField, rest, ok := strings.Cut(rest, ":")
	if !ok {
		return fmt.Errorf("invalid SMPTE time (%v)", s)
	}
	secondsField, frameField, hasFrame := strings.Cut(rest, ":")

	hours, err := strconv.ParseUint(hoursField, 10, 64)
	if err != nil {
		return err
	}
	minutes, err := strconv.ParseUint(minutesField, 10, 64)
	if err != nil {
		return err
	}
	seconds, err := strconv.ParseUint(secondsField, 10, 64)
	if err != nil {
		return err
	}
	t.Time = time.Duration(hours*3600+minutes*60+seconds) * time.Second

	if !hasFrame {
		return nil
	}

	frameDigits, subframeDigits, hasSubframe := strings.Cut(frameField, ".")
	frame, err := strconv.ParseUint(frameDigits, 10, 64)
	if err != nil {
		return err
	}
	t.Frame = uint(frame)

	if hasSubframe {
		subframe, err := strconv.ParseUint(subframeDigits, 10, 64)
		if err != nil {
			return err
		}
		t.Subframe = uint(subframe)
	}

	return nil
}

func (t RangeSMPTETime) marshal() string {
	total := uint64(t.Time / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	out := strconv.FormatUint(hours, 10) + ":" + zeroPad(uint(minutes)) + ":" + zeroPad(uint(seconds))

	if t.Frame > 0 || t.Subframe > 0 {
		out += ":" + zeroPad(t.Frame)
		if t.Subframe > 0 {
			out += "." + zeroPad(t.Subframe)
		}
	}

	return out
}

// RangeSMPTE is a range expressed in SMPTE unit.
type RangeSMPTE struct {
	Start RangeSMPTETime
	End   *RangeSMPTETime
}

func (r *RangeSMPTE) unmarshal(start, end string) error {
	if err := r.Start.unmarshal(start); err != nil {
		return err
	}

	if end != "" {
		var v RangeSMPTETime
		if err := v.unmarshal(end); err != nil {
			return err
		}
		r.End = &v
	}

	return nil
}

func (r RangeSMPTE) marshal() string {
	out := "smpte=" + r.Start.marshal() + "-"
	if r.End != nil {
		out += r.End.marshal()
	}
	return out
}

// RangeNPT is a range expressed in NPT units.
type RangeNPT struct {
	Start time.Duration
	End   *time.Duration
}

func parseNPTTime(s string) (time.Duration, error) {
	hours, minutes, secondsField, err := clockFields(s)
	if err != nil {
		return 0, fmt.Errorf("invalid NPT time (%v): %w", s, err)
	}

	seconds, err := strconv.ParseFloat(secondsField, 64)
	if err != nil {
		return 0, err
	}

	whole := time.Duration(hours*3600+minutes*60) * time.Second
	frac := time.Duration(seconds * float64(time.Second))
	return whole + frac, nil
}

func formatNPTTime(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func (r *RangeNPT) unmarshal(start, end string) error {
	startD, err := parseNPTTime(start)
	if err != nil {
		return err
	}
	r.Start = startD

	if end != "" {
		endD, err := parseNPTTime(end)
		if err != nil {
			return err
		}
		r.End = &endD
	}

	return nil
}

func (r RangeNPT) marshal() string {
	out := "npt=" + formatNPTTime(r.Start) + "-"
	if r.End != nil {
		out += formatNPTTime(*r.End)
	}
	return out
}

// RangeUTC is a range expressed in UTC units.
type RangeUTC struct {
	Start time.Time
	End   *time.Time
}

func parseUTCTime(s string) (time.Time, error) {
	return time.Parse(rangeUTCLayout, s)
}

func formatUTCTime(t time.Time) string {
	return t.Format(rangeUTCLayout)
}

func (r *RangeUTC) unmarshal(start, end string) error {
	startT, err := parseUTCTime(start)
	if err != nil {
		return err
	}
	r.Start = startT

	if end != "" {
		endT, err := parseUTCTime(end)
		if err != nil {
			return err
		}
		r.End = &endT
	}

	return nil
}

func (r RangeUTC) marshal() string {
	out := "clock=" + formatUTCTime(r.Start) + "-"
	if r.End != nil {
		out += formatUTCTime(*r.End)
	}
	return out
}

// RangeValue can be one of RangeSMPTE, RangeNPT or RangeUTC.
type RangeValue interface {
	unmarshal(start, end string) error
	marshal() string
}

func rangeValueUnmarshal(v RangeValue, s string) error {
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return fmt.Errorf("invalid value (%v)", s)
	}
	return v.unmarshal(start, end)
}

// Range is a Range header.
type Range struct {
	// Value holds the range expressed in a certain unit.
	Value RangeValue

	// Time is the moment at which the operation takes effect, if given.
	Time *time.Time
}

// ParseRange decodes a Range header value.
func ParseRange(v0 string) (*Range, error) {
	if v0 == "" {
		return nil, fmt.Errorf("value not provided")
	}

	kvs, err := keyValParse(v0, ';')
	if err != nil {
		return nil, err
	}

	h := &Range{}
	specFound := false

	for k, v := range kvs {
		switch k {
		case "smpte":
			s := &RangeSMPTE{}
			if err := rangeValueUnmarshal(s, v); err != nil {
				return nil, err
			}
			h.Value = s
			specFound = true

		case "npt":
			s := &RangeNPT{}
			if err := rangeValueUnmarshal(s, v); err != nil {
				return nil, err
			}
			h.Value = s
			specFound = true

		case "clock":
			s := &RangeUTC{}
			if err := rangeValueUnmarshal(s, v); err != nil {
				return nil, err
			}
			h.Value = s
			specFound = true

		case "time":
			t, err := parseUTCTime(v)
			if err != nil {
				return nil, err
			}
			h.Time = &t
		}
	}

	if !specFound {
		return nil, fmt.Errorf("value not found (%v)", v0)
	}

	return h, nil
}

// String renders a Range header value.
func (h *Range) String() string {
	out := h.Value.marshal()
	if h.Time != nil {
		out += ";time=" + formatUTCTime(*h.Time)
	}
	return out
}
