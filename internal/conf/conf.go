package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bootstrap is the root of the configuration tree.
type Bootstrap struct {
	Server       *Server       `json:"server"`
	Data         *Data         `json:"data"`
	Storage      *Storage      `json:"storage"`
	RatingSource *RatingSource `json:"rating_source"`
	Auth         *Auth         `json:"auth"`
}

type Server struct {
	Http *Server_HTTP `json:"http"`
}

type Server_HTTP struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
}

type Data struct {
	Database *Data_Database `json:"database"`
	Redis    *Data_Redis    `json:"redis"`
}

type Data_Database struct {
	// Driver is "postgres" or "sqlite".
	Driver string `json:"driver"`
	Source string `json:"source"`
}

type Data_Redis struct {
	Addr         string    `json:"addr"`
	ReadTimeout  *Duration `json:"read_timeout"`
	WriteTimeout *Duration `json:"write_timeout"`
}

// Storage configures the blob store used for thumbnails and videos.
type Storage struct {
	// Driver is "s3" or "local".
	Driver    string `json:"driver"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	// BaseUrl is prefixed to object keys to build public URLs.
	BaseUrl string `json:"base_url"`
	// Root is the directory used by the local driver.
	Root string `json:"root"`
}

// RatingSource configures the external rating API.
type RatingSource struct {
	Url     string    `json:"url"`
	ApiKey  string    `json:"api_key"`
	Timeout *Duration `json:"timeout"`
}

type Auth struct {
	Token string `json:"token"`
}

// Duration is a time.Duration that decodes from strings like "1.5s".
type Duration struct {
	time.Duration
}

// AsDuration returns the wrapped value; nil yields zero.
func (d *Duration) AsDuration() time.Duration {
	if d == nil {
		return 0
	}
	return d.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration type %T", v)
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
