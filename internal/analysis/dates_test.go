package analysis

import "testing"

func TestParsePublicationDate(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"01.01.2023", "2023-01-01", true},
		{"1.2.2023", "2023-02-01", true},
		{"07 червня 2023", "2023-06-07", true},
		{"07  Червня   2023", "2023-06-07", true},
		{"15 березень 2022", "2022-03-15", true},
		{"01 січ 2023", "2023-01-01", true},
		{"01 лист. 2022", "2022-11-01", true},
		{"31.02.2023", "", false},
		{"07 червня 2023 13:24", "", false},
		{"2023-01-01", "", false},
		{"вчора", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParsePublicationDate(tt.in)
		if ok != tt.wantOK {
			t.Errorf("ParsePublicationDate(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && got.Format("2006-01-02") != tt.want {
			t.Errorf("ParsePublicationDate(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
		}
	}
}
