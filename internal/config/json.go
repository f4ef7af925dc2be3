package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ClientJSONConfig mirrors [ClientConfig] with JSON-friendly field types so a
// configuration file can use human-readable durations ("15s", "800ms").
type ClientJSONConfig struct {
	Adapter struct {
		BaseURL        string   `json:"base_url"`
		AuthToken      string   `json:"auth_token"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`

	Storage struct {
		DSN          string `json:"dsn"`
		BroadcastDir string `json:"broadcast_dir"`
	} `json:"storage,omitempty"`

	Sync struct {
		MaxAttempts  int      `json:"max_attempts"`
		BaseDelay    Duration `json:"base_delay"`
		Debounce     Duration `json:"debounce"`
		PingInterval Duration `json:"ping_interval"`
	} `json:"sync,omitempty"`

	Log struct {
		Path string `json:"path"`
	} `json:"log,omitempty"`
}

func parseJSON(jsonFilePath string) (*ClientConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg ClientJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &ClientConfig{
		Adapter: Adapter{
			BaseURL:        jsonCfg.Adapter.BaseURL,
			AuthToken:      jsonCfg.Adapter.AuthToken,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
		},
		Storage: Storage{
			DSN:          jsonCfg.Storage.DSN,
			BroadcastDir: jsonCfg.Storage.BroadcastDir,
		},
		Sync: Sync{
			MaxAttempts:  jsonCfg.Sync.MaxAttempts,
			BaseDelay:    time.Duration(jsonCfg.Sync.BaseDelay),
			Debounce:     time.Duration(jsonCfg.Sync.Debounce),
			PingInterval: time.Duration(jsonCfg.Sync.PingInterval),
		},
		Log: Log{
			Path: jsonCfg.Log.Path,
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
