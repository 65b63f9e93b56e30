package analytics

import "testing"

func TestIsBotAndBotName(t *testing.T) {
	tests := []struct {
		ua   string
		bot  bool
		name string
	}{
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", true, "Googlebot"},
		{"Mozilla/5.0 (compatible; Baiduspider/2.0)", true, "Baidu"},
		{"Mozilla/5.0 (compatible; SomeNewBot/1.0)", true, "Other Bot"},
		{"my-crawler/0.1", true, "Generic Crawler"},
		{"curl/8.4.0", true, "Script"},
		{"", true, "Empty User-Agent"},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36", false, ""},
	}
	for _, tt := range tests {
		if got := IsBot(tt.ua); got != tt.bot {
			t.Errorf("IsBot(%q) = %v, want %v", tt.ua, got, tt.bot)
		}
		if !tt.bot {
			continue
		}
		if got := BotName(tt.ua); got != tt.name {
			t.Errorf("BotName(%q) = %q, want %q", tt.ua, got, tt.name)
		}
	}
}

func TestParseDevice(t *testing.T) {
	tests := []struct{ ua, want string }{
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) Mobile/15E148", "Tablet"},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148", "Mobile"},
		{"Mozilla/5.0 (Linux; Android 14)", "Mobile"},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0)", "Desktop"},
	}
	for _, tt := range tests {
		if got := ParseDevice(tt.ua); got != tt.want {
			t.Errorf("ParseDevice(%q) = %q, want %q", tt.ua, got, tt.want)
		}
	}
}

func TestCleanReferrer(t *testing.T) {
	tests := []struct{ ref, want string }{
		{"", "Direct"},
		{"https://www.google.com/search?q=x", "Google"},
		{"https://www.baidu.com/s?wd=签证", "Baidu"},
		{"https://kb.example.com/knowledge/", "Internal"},
		{"https://www.kb.example.com/", "Internal"},
		{"https://news.example.org/post/1", "news.example.org"},
		{"not a url", "Other"},
	}
	for _, tt := range tests {
		if got := CleanReferrer(tt.ref, "kb.example.com"); got != tt.want {
			t.Errorf("CleanReferrer(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		name string
		days int
	}{
		{"today", "today", 1},
		{"month", "month", 30},
		{"year", "year", 365},
		{"", "week", 7},
		{"bogus", "week", 7},
	}
	for _, tt := range tests {
		name, days := ParsePeriod(tt.in)
		if name != tt.name || days != tt.days {
			t.Errorf("ParsePeriod(%q) = %q, %d", tt.in, name, days)
		}
	}
}
