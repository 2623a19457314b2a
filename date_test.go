package fatx

import (
	"testing"
	"time"
)

func TestParseTimeStamp(t *testing.T) {
	type args struct {
		input    uint32
		platform Platform
	}
	tests := []struct {
		name string
		args args
		want time.Time
	}{
		{
			name: "Xbox 360 timestamp",
			args: args{input: 0x44F75EE6, platform: Xbox360},
			want: time.Date(2014, time.July, 23, 11, 55, 12, 0, time.UTC),
		},
		{
			name: "Xbox timestamp",
			args: args{input: 0x0C4FA079, platform: Xbox},
			want: time.Date(2006, time.February, 15, 20, 3, 50, 0, time.UTC),
		},
		{
			name: "time and date halves swapped",
			args: args{input: 0x00000C4F, platform: Xbox},
			want: time.Date(2006, time.February, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "zero falls back to the Xbox epoch",
			args: args{input: 0, platform: Xbox},
			want: time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "zero falls back to the Xbox 360 epoch",
			args: args{input: 0, platform: Xbox360},
			want: time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTimeStamp(tt.args.input, tt.args.platform); !got.Equal(tt.want) {
				t.Errorf("ParseTimeStamp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeStamp_fields(t *testing.T) {
	ts := NewTimeStamp(0x44F75EE6, Xbox360)
	got := []int{ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second()}
	want := []int{2014, 7, 23, 11, 55, 12}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TimeStamp fields = %v, want %v", got, want)
			break
		}
	}

	// The same raw value is 20 years later on the Xbox.
	if year := NewTimeStamp(0x44F75EE6, Xbox).Year(); year != 2034 {
		t.Errorf("TimeStamp.Year() = %v, want 2034", year)
	}
}

func TestTimeStamp_SetSecond(t *testing.T) {
	tests := []struct {
		name   string
		second int
		want   int
	}{
		{name: "odd seconds are rounded down", second: 1, want: 0},
		{name: "even seconds are kept", second: 12, want: 12},
		{name: "60 is stored as 30 two second steps", second: 60, want: 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := NewTimeStamp(0x44F75EE6, Xbox360)
			ts.SetSecond(tt.second)
			if got := ts.Second(); got != tt.want {
				t.Errorf("TimeStamp.Second() = %v, want %v", got, tt.want)
			}
			if ts.Minute() != 55 || ts.Hour() != 11 {
				t.Errorf("TimeStamp.SetSecond() changed other fields: %02d:%02d", ts.Hour(), ts.Minute())
			}
		})
	}
}

func TestTimeStamp_SetYear(t *testing.T) {
	ts := NewTimeStamp(0x44F75EE6, Xbox360)
	ts.SetYear(2020)
	if ts.Year() != 2020 || ts.Month() != 7 || ts.Day() != 23 {
		t.Errorf("TimeStamp = %d-%d-%d, want 2020-7-23", ts.Year(), ts.Month(), ts.Day())
	}

	ts.SetYear(1970)
	if ts.Year() != 1980 {
		t.Errorf("TimeStamp.Year() = %v, want the epoch 1980", ts.Year())
	}
}

func TestFromTime(t *testing.T) {
	for _, platform := range []Platform{Xbox, Xbox360} {
		in := time.Date(2014, time.July, 23, 11, 55, 13, 0, time.UTC)
		got := FromTime(in, platform).Time()
		if want := in.Add(-time.Second); !got.Equal(want) {
			t.Errorf("%v: FromTime().Time() = %v, want %v", platform, got, want)
		}
	}

	if raw := FromTime(time.Date(2014, time.July, 23, 11, 55, 12, 0, time.UTC), Xbox360).Raw; raw != 0x44F75EE6 {
		t.Errorf("FromTime().Raw = 0x%08X, want 0x44F75EE6", raw)
	}
}

func TestTimeStamp_Plausible(t *testing.T) {
	tests := []struct {
		name    string
		raw     uint32
		maxYear int
		want    bool
	}{
		{name: "valid", raw: 0x44F75EE6, maxYear: 2020, want: true},
		{name: "in the future", raw: 0x44F75EE6, maxYear: 2013, want: false},
		{name: "zero", raw: 0, maxYear: 2020, want: false},
		{name: "month 13", raw: 13 << monthShift, maxYear: 2020, want: false},
		{name: "February 29", raw: 2<<monthShift | 29<<dayShift, maxYear: 2020, want: true},
		{name: "February 30", raw: 2<<monthShift | 30<<dayShift, maxYear: 2020, want: false},
		{name: "hour 24", raw: 1<<monthShift | 1<<dayShift | 24<<hourShift, maxYear: 2020, want: false},
		{name: "minute 60", raw: 1<<monthShift | 1<<dayShift | 60<<minuteShift, maxYear: 2020, want: false},
		{name: "second 60", raw: 1<<monthShift | 1<<dayShift | 30, maxYear: 2020, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewTimeStamp(tt.raw, Xbox360).Plausible(tt.maxYear); got != tt.want {
				t.Errorf("TimeStamp.Plausible() = %v, want %v", got, tt.want)
			}
		})
	}
}
