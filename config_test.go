package credauth

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TOTP.Issuer != "COFRAP" || cfg.TOTP.Digits != 6 || cfg.TOTP.Period != 30 || cfg.TOTP.Skew != 1 {
		t.Fatalf("unexpected TOTP defaults: %+v", cfg.TOTP)
	}
	if cfg.TOTP.Algorithm != "SHA1" {
		t.Fatalf("unexpected TOTP algorithm: %q", cfg.TOTP.Algorithm)
	}
	if cfg.Password.GeneratedLength != 24 || !cfg.Password.UpgradeOnLogin {
		t.Fatalf("unexpected password defaults: %+v", cfg.Password)
	}
	if cfg.Expiry.InactivityLimitDays != 180 {
		t.Fatalf("unexpected inactivity limit: %d", cfg.Expiry.InactivityLimitDays)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero digits", func(c *Config) { c.TOTP.Digits = 0 }},
		{"eleven digits", func(c *Config) { c.TOTP.Digits = 11 }},
		{"zero period", func(c *Config) { c.TOTP.Period = 0 }},
		{"negative skew", func(c *Config) { c.TOTP.Skew = -1 }},
		{"huge skew", func(c *Config) { c.TOTP.Skew = 10 }},
		{"bad algorithm", func(c *Config) { c.TOTP.Algorithm = "MD5" }},
		{"short passwords", func(c *Config) { c.Password.GeneratedLength = 4 }},
		{"zero expiry", func(c *Config) { c.Expiry.InactivityLimitDays = 0 }},
		{"token without key", func(c *Config) { c.Token.Enabled = true; c.Token.PrivateKey = nil }},
	}

	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestBuilderRequiresDependencies(t *testing.T) {
	if _, err := New().WithCipherKey(testCipherKey()).Build(); err == nil {
		t.Fatal("build without store succeeded")
	}
	if _, err := New().WithStore(NewMemoryStore()).Build(); err == nil {
		t.Fatal("build without cipher key succeeded")
	}
	if _, err := New().WithStore(NewMemoryStore()).WithCipherKey(make([]byte, 16)).Build(); err == nil {
		t.Fatal("build with short cipher key succeeded")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithStore(NewMemoryStore()).WithCipherKey(testCipherKey())

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("builder reused")
	}
}
