package urlstrategy

import (
	"fmt"
)

// URLStrategyType represents the type of URL strategy
type URLStrategyType string

const (
	// Bucket strategy for path-style URLs on the storage host
	StrategyTypeBucket URLStrategyType = "bucket"

	// CDN strategy for a CDN or custom domain in front of the bucket
	StrategyTypeCDN URLStrategyType = "cdn"
)

// Config holds configuration for URL strategy creation
type Config struct {
	Type       URLStrategyType
	Host       string // For bucket strategy
	Bucket     string // For bucket strategy
	CDNBaseURL string // For CDN strategy
}

// NewURLStrategy creates a URL strategy based on the configuration
func NewURLStrategy(config Config) (URLStrategy, error) {
	switch config.Type {
	case StrategyTypeBucket, "":
		if config.Host == "" {
			return nil, fmt.Errorf("host is required for bucket strategy")
		}
		return NewBucketStrategy(config.Host, config.Bucket), nil

	case StrategyTypeCDN:
		if config.CDNBaseURL == "" {
			return nil, fmt.Errorf("CDN base URL is required for CDN strategy")
		}
		return NewCDNStrategy(config.CDNBaseURL), nil

	default:
		return nil, fmt.Errorf("unknown URL strategy type: %s", config.Type)
	}
}
