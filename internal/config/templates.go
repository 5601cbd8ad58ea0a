package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Watchlist Sentinel Configuration

[engine]
# Time between evaluation cycles
interval = "5m"
# Worker pool size for quote fetches within one cycle
fetch_concurrency = 4

[quote]
# Upstream quote API base URL
base_url = "https://finnhub.io/api/v1"
# API token (or set SENTINEL_QUOTE_TOKEN)
token = ""
# Per-symbol fetch timeout; fetches exceeding it are skipped for the cycle
fetch_timeout = "10s"

[store]
# Rule store backend: "sqlite" or "mongo"
backend = "sqlite"
# sqlite_path = "~/.config/watchlist-sentinel/sentinel.db"
# mongo_uri = "mongodb://localhost:27017"
mongo_db = "sentinel"

[api]
# Operational status server (GET /healthz, GET /status)
enabled = false
addr = ":8086"

[notifications]
# Print fired alerts to the terminal
terminal = true

[notifications.webhook]
enabled = false
url = ""

[notifications.telegram]
enabled = false
bot_token = ""
chat_id = ""

[notifications.email]
enabled = false
smtp_host = ""
smtp_port = 587
username = ""
password = ""
from = ""
to = ""

[log]
level = "info"
console = true
file = true
max_size = 100
max_backups = 7
max_age = 30
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
