package fatx

import (
	"time"
)

// Bit layout of a packed timestamp, MSB first:
//  [year:7][month:4][day:5][hour:5][minute:6][half-seconds:5]
const (
	yearShift   = 25
	monthShift  = 21
	dayShift    = 16
	hourShift   = 11
	minuteShift = 5

	yearMask   = 0x7F
	monthMask  = 0x0F
	dayMask    = 0x1F
	hourMask   = 0x1F
	minuteMask = 0x3F
	secondMask = 0x1F
)

// daysInMonth is used for plausibility checks. February is fixed at 29 as the year is not trusted.
var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// TimeStamp is the 32 bit packed date and time of a directory entry.
// The year is stored as an offset to the epoch of the Platform.
// Seconds have a granularity of 2, odd values are rounded down when set.
type TimeStamp struct {
	Raw      uint32
	Platform Platform
}

func NewTimeStamp(raw uint32, platform Platform) TimeStamp {
	return TimeStamp{Raw: raw, Platform: platform}
}

func (t TimeStamp) Year() int   { return t.Platform.Epoch() + int(t.Raw>>yearShift&yearMask) }
func (t TimeStamp) Month() int  { return int(t.Raw >> monthShift & monthMask) }
func (t TimeStamp) Day() int    { return int(t.Raw >> dayShift & dayMask) }
func (t TimeStamp) Hour() int   { return int(t.Raw >> hourShift & hourMask) }
func (t TimeStamp) Minute() int { return int(t.Raw >> minuteShift & minuteMask) }
func (t TimeStamp) Second() int { return int(t.Raw&secondMask) * 2 }

func (t *TimeStamp) set(value, shift, mask uint32) {
	t.Raw = t.Raw&^(mask<<shift) | (value&mask)<<shift
}

// SetYear stores the year relative to the platform epoch. Years before the epoch are stored as the epoch.
func (t *TimeStamp) SetYear(year int) {
	offset := year - t.Platform.Epoch()
	if offset < 0 {
		offset = 0
	}
	t.set(uint32(offset), yearShift, yearMask)
}

func (t *TimeStamp) SetMonth(month int)   { t.set(uint32(month), monthShift, monthMask) }
func (t *TimeStamp) SetDay(day int)       { t.set(uint32(day), dayShift, dayMask) }
func (t *TimeStamp) SetHour(hour int)     { t.set(uint32(hour), hourShift, hourMask) }
func (t *TimeStamp) SetMinute(minute int) { t.set(uint32(minute), minuteShift, minuteMask) }

// SetSecond stores second / 2, so odd seconds read back as the next lower even value.
func (t *TimeStamp) SetSecond(second int) { t.set(uint32(second/2), 0, secondMask) }

// Plausible reports whether all fields form a calendar value not later than maxYear.
func (t TimeStamp) Plausible(maxYear int) bool {
	return t.Year() <= maxYear && plausibleFields(t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
}

func plausibleFields(month, day, hour, minute, second int) bool {
	if month < 1 || month > 12 {
		return false
	}
	if day < 1 || day > daysInMonth[month] {
		return false
	}
	return hour < 24 && minute < 60 && second < 60
}

// Time converts the timestamp using ParseTimeStamp.
func (t TimeStamp) Time() time.Time {
	return ParseTimeStamp(t.Raw, t.Platform)
}

// ParseTimeStamp reads the given input as a packed FATX timestamp:
//  Bits 25–31: Count of years since the platform epoch (2000 for the Xbox, 1980 for the Xbox 360).
//  Bits 21–24: Month of year, 1–12.
//  Bits 16–20: Day of month, 1–31.
//  Bits 11–15: Hours, 0–23.
//  Bits 5–10:  Minutes, 0–59.
//  Bits 0–4:   2-second count, 0–29.
// It returns a time.Time in UTC.
//
// Some tools wrote the time half into the upper and the date half into the lower 16 bits.
// If the normal layout is no valid date, the swapped layout is tried.
// If that fails too, January 1 of the platform epoch is returned. This function never fails.
func ParseTimeStamp(input uint32, platform Platform) time.Time {
	for _, raw := range []uint32{input, input<<16 | input>>16} {
		t := NewTimeStamp(raw, platform)
		if plausibleFields(t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second()) {
			return time.Date(t.Year(), time.Month(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
		}
	}

	return time.Date(platform.Epoch(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// FromTime packs t into a timestamp of the given platform.
func FromTime(t time.Time, platform Platform) TimeStamp {
	ts := NewTimeStamp(0, platform)
	ts.SetYear(t.Year())
	ts.SetMonth(int(t.Month()))
	ts.SetDay(t.Day())
	ts.SetHour(t.Hour())
	ts.SetMinute(t.Minute())
	ts.SetSecond(t.Second())
	return ts
}
