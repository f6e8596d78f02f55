package geoip

import "testing"

func TestLookupDisabled(t *testing.T) {
	g := NewLookup()
	if err := g.Init(""); err != nil {
		t.Fatalf("Init(\"\"): %v", err)
	}
	if g.IsEnabled() {
		t.Error("IsEnabled = true without a database")
	}
	if got := g.LookupCountry("8.8.8.8"); got != "" {
		t.Errorf("LookupCountry = %q, want empty without database", got)
	}
}

func TestLookupLocalAddresses(t *testing.T) {
	g := NewLookup()
	_ = g.Init("")

	tests := []struct {
		ip   string
		want string
	}{
		{"127.0.0.1", "LOCAL"},
		{"10.1.2.3", "LOCAL"},
		{"172.16.0.9", "LOCAL"},
		{"192.168.1.100", "LOCAL"},
		{"::1", "LOCAL"},
		{"fe80::1", "LOCAL"},
		{"not-an-ip", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := g.LookupCountry(tt.ip); got != tt.want {
			t.Errorf("LookupCountry(%q) = %q, want %q", tt.ip, got, tt.want)
		}
	}
}

func TestInitMissingDatabase(t *testing.T) {
	g := NewLookup()
	if err := g.Init("/nonexistent/GeoLite2-Country.mmdb"); err == nil {
		t.Error("Init should fail for a missing database file")
	}
	if g.IsEnabled() {
		t.Error("IsEnabled = true after failed Init")
	}
}
