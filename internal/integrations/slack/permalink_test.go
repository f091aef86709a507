package slack

import "testing"

func TestMessageLink(t *testing.T) {
	tests := []struct {
		name     string
		channel  string
		ts       string
		threadTS string
		expected string
	}{
		{
			name:     "plain message",
			channel:  "C123",
			ts:       "1700000000.000100",
			expected: "https://slack.com/archives/C123/p1700000000000100",
		},
		{
			name:     "thread reply carries thread_ts",
			channel:  "C123",
			ts:       "1700000000.000200",
			threadTS: "1700000000.000100",
			expected: "https://slack.com/archives/C123/p1700000000000200?thread_ts=1700000000000100",
		},
		{
			name:     "thread parent links plainly",
			channel:  "C123",
			ts:       "1700000000.000100",
			threadTS: "1700000000.000100",
			expected: "https://slack.com/archives/C123/p1700000000000100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MessageLink(tt.channel, tt.ts, tt.threadTS); got != tt.expected {
				t.Errorf("MessageLink() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseMessageLink(t *testing.T) {
	tests := []struct {
		name        string
		link        string
		wantChannel string
		wantTS      string
		wantErr     bool
	}{
		{
			name:        "archives url",
			link:        "https://myteam.slack.com/archives/C123/p1700000000000100",
			wantChannel: "C123",
			wantTS:      "1700000000.000100",
		},
		{
			name:        "app url",
			link:        "slack://channel?team=T1&id=C123&message=1700000000.000100",
			wantChannel: "C123",
			wantTS:      "1700000000.000100",
		},
		{
			name:    "app url missing message",
			link:    "slack://channel?id=C123",
			wantErr: true,
		},
		{
			name:    "not a permalink",
			link:    "https://example.com/something",
			wantErr: true,
		},
		{
			name:    "archives url with mangled timestamp",
			link:    "https://myteam.slack.com/archives/C123/xyz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			channel, ts, err := ParseMessageLink(tt.link)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMessageLink() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if channel != tt.wantChannel || ts != tt.wantTS {
				t.Errorf("ParseMessageLink() = (%q, %q), want (%q, %q)",
					channel, ts, tt.wantChannel, tt.wantTS)
			}
		})
	}
}

func TestPermalinkRoundTrip(t *testing.T) {
	link := MessageLink("C0ABCDEF", "1712345678.123456", "")
	channel, ts, err := ParseMessageLink(link)
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if channel != "C0ABCDEF" || ts != "1712345678.123456" {
		t.Errorf("round trip = (%q, %q)", channel, ts)
	}
}
