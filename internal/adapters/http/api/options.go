package api

const (
	defaultPlaybookRPS   = 1
	defaultPlaybookBurst = 5
	defaultMaxLimit      = 100
)

type serverConfig struct {
	playbookRPS   float64
	playbookBurst int
	maxLimit      int
}

func defaultServerConfig() serverConfig {
	return serverConfig{
		playbookRPS:   defaultPlaybookRPS,
		playbookBurst: defaultPlaybookBurst,
		maxLimit:      defaultMaxLimit,
	}
}

// Option configures a Server.
type Option func(*serverConfig)

// WithPlaybookRate limits POST /playbook to rps requests per second with
// the given burst.
func WithPlaybookRate(rps float64, burst int) Option {
	return func(c *serverConfig) {
		if rps > 0 && burst > 0 {
			c.playbookRPS = rps
			c.playbookBurst = burst
		}
	}
}

// WithMaxLimit caps the limit parameter of GET /leaderboard.
func WithMaxLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}
