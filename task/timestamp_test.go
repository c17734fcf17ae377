package task

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/maralorn/taskhook/types"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     time.Time
		wantCode string
	}{
		{
			name:  "valid timestamp",
			input: "20230101T090000Z",
			want:  time.Date(2023, 1, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			name:  "end of year",
			input: "20231231T235959Z",
			want:  time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:  "leap day",
			input: "20240229T000000Z",
			want:  time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "too short",
			input:    "2023011T090000Z",
			wantCode: types.CodeMalformedTimestamp,
		},
		{
			name:     "too long",
			input:    "20230101T0900000Z",
			wantCode: types.CodeMalformedTimestamp,
		},
		{
			name:     "non-digit character",
			input:    "202301A1T090000Z",
			wantCode: types.CodeMalformedTimestamp,
		},
		{
			name:     "lowercase separator",
			input:    "20230101t090000Z",
			wantCode: types.CodeMalformedTimestamp,
		},
		{
			name:     "missing zulu suffix",
			input:    "20230101T0900001",
			wantCode: types.CodeMalformedTimestamp,
		},
		{
			name:     "month 13",
			input:    "20231301T090000Z",
			wantCode: types.CodeInvalidCalendarValue,
		},
		{
			name:     "day 32",
			input:    "20230132T090000Z",
			wantCode: types.CodeInvalidCalendarValue,
		},
		{
			name:     "hour 25",
			input:    "20230101T250000Z",
			wantCode: types.CodeInvalidCalendarValue,
		},
		{
			name:     "non-leap february 29",
			input:    "20230229T000000Z",
			wantCode: types.CodeInvalidCalendarValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.wantCode != "" {
				var de *types.DecodeError
				if !errors.As(err, &de) {
					t.Fatalf("ParseTimestamp(%q) error = %v, want DecodeError", tt.input, err)
				}
				if de.Code != tt.wantCode {
					t.Errorf("ParseTimestamp(%q) code = %q, want %q", tt.input, de.Code, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Time.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got.Time, tt.want)
			}
		})
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	instants := []time.Time{
		time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 6, 15, 12, 34, 56, 0, time.UTC),
		time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC),
	}
	for _, want := range instants {
		got, err := ParseTimestamp(At(want).String())
		if err != nil {
			t.Fatalf("round trip of %v failed: %v", want, err)
		}
		if !got.Time.Equal(want) {
			t.Errorf("round trip of %v = %v", want, got.Time)
		}
	}
}

func TestTimestampTruncatesSubSecond(t *testing.T) {
	ts := At(time.Date(2023, 1, 1, 9, 0, 0, 999_999_999, time.UTC))
	if got := ts.String(); got != "20230101T090000Z" {
		t.Errorf("String() = %q, want truncation, not rounding", got)
	}
}

func TestTimestampFormatsInUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := At(time.Date(2023, 1, 1, 11, 0, 0, 0, loc))
	if got := ts.String(); got != "20230101T090000Z" {
		t.Errorf("String() = %q, want UTC rendering 20230101T090000Z", got)
	}
}

func TestTimestampJSON(t *testing.T) {
	data, err := json.Marshal(At(time.Date(2023, 1, 1, 9, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"20230101T090000Z"` {
		t.Errorf("marshal = %s", data)
	}

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"20230101T090000Z"`), &ts); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if ts.String() != "20230101T090000Z" {
		t.Errorf("unmarshal = %v", ts)
	}

	// Unset dates have been exported as "" and "0"; both read as zero.
	for _, raw := range []string{`""`, `"0"`} {
		var zero Timestamp
		if err := json.Unmarshal([]byte(raw), &zero); err != nil {
			t.Fatalf("unmarshal %s failed: %v", raw, err)
		}
		if !zero.IsZero() {
			t.Errorf("unmarshal %s = %v, want zero", raw, zero)
		}
	}

	var bad Timestamp
	err = json.Unmarshal([]byte(`1672563600`), &bad)
	var de *types.DecodeError
	if !errors.As(err, &de) || de.Code != types.CodeTypeMismatch {
		t.Errorf("unmarshal of a number = %v, want type-mismatch", err)
	}
}
