// internal/workers/recommendation/recommend-restaurants/config.go
package recommendrestaurants

import (
	"time"

	"zomato-recommender/internal/common/config"
)

type Config struct {
	Timeout  time.Duration
	Endpoint string
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Config{
		Timeout:  timeout,
		Endpoint: "zeebe:" + TaskType,
	}
}
