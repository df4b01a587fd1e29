package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/refkeeper/internal/flagx"
	"github.com/dmitrijs2005/refkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. The timeout
// accepts strings like "10s" or integer nanoseconds.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	SessionDB      string         `json:"session_db"`
}

// parseJson overlays Config with values from the file named by -c/-config.
// Keys absent from the file keep their current value. Read or unmarshal
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.SessionDB != "" {
		cfg.SessionDB = jc.SessionDB
	}
}
