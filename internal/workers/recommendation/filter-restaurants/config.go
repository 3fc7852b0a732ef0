// internal/workers/recommendation/filter-restaurants/config.go
package filterrestaurants

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
		timeout = 30 * time.Second
	}
	return &Config{
		Timeout:  timeout,
		Endpoint: "zeebe:" + TaskType,
	}
}
