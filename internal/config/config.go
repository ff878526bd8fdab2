package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from the JSON config file
// with environment overrides.
type Config struct {
	Listen string

	Zabbix struct {
		// APIUser/APIPass authenticate the JSON-RPC session; APIToken is the
		// bearer alternative required on newer platform majors.
		APIUser  string
		APIPass  string
		APIToken string
		// WebUser/WebPass drive the separate form login used by the chart
		// image endpoint.
		WebUser       string
		WebPass       string
		TLSSkipVerify bool
	}

	Mail struct {
		Server   string
		Port     int
		Username string
		Password string
		From     string
		FromName string
	}

	Paths struct {
		Base      string
		Images    string
		Templates string
		Log       string
		// ImagesURL is the public URL prefix for generated images, included
		// in the plain-text message body.
		ImagesURL string
	}

	Graph struct {
		MaxPeriods int
		ExactOnly  bool
	}

	Retention struct {
		ImageDays int
		LogDays   int
	}

	Test struct {
		EventID   int64
		Recipient string
		BaseURL   string
		Duration  int64
	}
}

// Load reads the flat key/value JSON config file, merges environment
// variables on top, applies defaults, and validates required settings.
func Load(path string) (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	values, err := ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	get := func(key, envKey string) string {
		if v := os.Getenv(envKey); v != "" {
			return v
		}
		return values[key]
	}

	var cfg Config
	cfg.Listen = get("listen", "MAILGRAPH_LISTEN")
	cfg.Zabbix.APIUser = get("zabbix_api_user", "ZABBIX_API_USER")
	cfg.Zabbix.APIPass = get("zabbix_api_pwd", "ZABBIX_API_PWD")
	cfg.Zabbix.APIToken = get("zabbix_api_token", "ZABBIX_API_TOKEN")
	cfg.Zabbix.WebUser = get("zabbix_user", "ZABBIX_USER")
	cfg.Zabbix.WebPass = get("zabbix_user_pwd", "ZABBIX_USER_PWD")
	cfg.Zabbix.TLSSkipVerify = asBool(get("tls_skip_verify", "MAILGRAPH_TLS_SKIP_VERIFY"))

	cfg.Mail.Server = get("mail_server", "MAIL_SERVER")
	cfg.Mail.Port = asInt(get("mail_port", "MAIL_PORT"))
	cfg.Mail.Username = get("mail_username", "MAIL_USERNAME")
	cfg.Mail.Password = get("mail_password", "MAIL_PASSWORD")
	cfg.Mail.From = get("mail_from", "MAIL_FROM")
	cfg.Mail.FromName = get("mail_from_name", "MAIL_FROM_NAME")

	cfg.Paths.Base = get("base_path", "MAILGRAPH_BASE_PATH")
	cfg.Paths.ImagesURL = get("images_url", "MAILGRAPH_IMAGES_URL")

	cfg.Graph.MaxPeriods = asInt(get("max_periods", "MAILGRAPH_MAX_PERIODS"))
	cfg.Graph.ExactOnly = asBool(get("graph_match_exact", "MAILGRAPH_GRAPH_MATCH_EXACT"))

	cfg.Retention.ImageDays = asInt(get("retention_image_days", "MAILGRAPH_RETENTION_IMAGE_DAYS"))
	cfg.Retention.LogDays = asInt(get("retention_log_days", "MAILGRAPH_RETENTION_LOG_DAYS"))

	cfg.Test.EventID = int64(asInt(values["test_event_id"]))
	cfg.Test.Recipient = values["test_recipient"]
	cfg.Test.BaseURL = values["test_base_url"]
	cfg.Test.Duration = int64(asInt(values["test_duration"]))

	// Apply defaults
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.Paths.Base == "" {
		cfg.Paths.Base = "."
	}
	cfg.Paths.Images = filepath.Join(cfg.Paths.Base, "images")
	cfg.Paths.Templates = filepath.Join(cfg.Paths.Base, "templates")
	cfg.Paths.Log = filepath.Join(cfg.Paths.Base, "log")
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 25
	}
	if cfg.Graph.MaxPeriods == 0 {
		cfg.Graph.MaxPeriods = 8
	}
	if cfg.Retention.ImageDays == 0 {
		cfg.Retention.ImageDays = 30
	}
	if cfg.Retention.LogDays == 0 {
		cfg.Retention.LogDays = 14
	}

	// Validate required settings
	missing := []string{}
	if cfg.Zabbix.APIToken == "" && (cfg.Zabbix.APIUser == "" || cfg.Zabbix.APIPass == "") {
		missing = append(missing, "zabbix_api_user/zabbix_api_pwd (or zabbix_api_token)")
	}
	if cfg.Zabbix.WebUser == "" || cfg.Zabbix.WebPass == "" {
		missing = append(missing, "zabbix_user/zabbix_user_pwd")
	}
	if cfg.Mail.Server == "" {
		missing = append(missing, "mail_server")
	}
	if cfg.Mail.From == "" {
		missing = append(missing, "mail_from")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	return cfg, nil
}

// CheckPaths verifies that all working directories and both mail templates
// exist before any processing starts.
func (c Config) CheckPaths() error {
	for _, dir := range []string{c.Paths.Images, c.Paths.Templates, c.Paths.Log} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("path inaccessible: %s", dir)
		}
	}
	for _, tmpl := range []string{"html.template", "plain.template"} {
		if _, err := os.Stat(filepath.Join(c.Paths.Templates, tmpl)); err != nil {
			return fmt.Errorf("template missing: %s", tmpl)
		}
	}
	return nil
}

// ReadFile loads the flat key/value JSON config file. A missing file is not
// an error; it yields an empty set so environment-only setups work.
func ReadFile(path string) (map[string]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(content, &values); err != nil {
		return nil, fmt.Errorf("invalid JSON format in config file %s: %w", path, err)
	}
	return values, nil
}

// WriteFile persists the flat key/value set back to disk, pretty-printed the
// way the config editing tool expects to find it.
func WriteFile(path string, values map[string]string) error {
	content, err := json.MarshalIndent(values, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0644)
}

func asInt(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}

func asBool(v string) bool {
	return v == "1" || v == "true" || v == "yes"
}
