package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Fatalf("driver = %q", cfg.Database.Driver)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Fatalf("access ttl = %v", cfg.AccessTokenTTL)
	}
	if len(cfg.Rules.Badges) == 0 || len(cfg.Rules.StoreItems) == 0 {
		t.Fatalf("default catalog missing")
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("GCS_BUCKET_NAME", "shared")
	t.Setenv("GCS_SUBMISSION_BUCKET", "subs")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("LEADERBOARD_CACHE_TTL", "")

	path := writeConfig(t, `
port: "7000"
database:
  driver: sqlite
  sqlite_path: /tmp/levelup.db
leaderboard_cache_ttl: 5s
rules:
  lesson_xp: 40
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9000" {
		t.Fatalf("env should override file port, got %q", cfg.Port)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.SQLitePath != "/tmp/levelup.db" {
		t.Fatalf("database = %+v", cfg.Database)
	}
	if cfg.LeaderboardCacheTTL != 5*time.Second {
		t.Fatalf("cache ttl = %v", cfg.LeaderboardCacheTTL)
	}
	if cfg.Rules.LessonXP != 40 {
		t.Fatalf("lesson xp = %d", cfg.Rules.LessonXP)
	}
	if len(cfg.Rules.Badges) == 0 {
		t.Fatalf("partial rules section dropped default badges")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors = %v", cfg.CORSOrigins)
	}
	if cfg.Storage.AvatarBucket != "shared" || cfg.Storage.SubmissionBucket != "subs" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("REFRESH_TOKEN_TTL", "")

	cases := map[string]string{
		"driver":     "database:\n  driver: mysql\n",
		"ttl order":  "access_token_ttl: 2h\nrefresh_token_ttl: 1h\n",
		"bad badge":  "rules:\n  level_badges:\n    - badge_id: nope\n      min: 3\n",
		"negative":   "rules:\n  lesson_xp: -1\n",
		"yaml error": "port: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, ,b,")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("splitList = %v", got)
	}
}
