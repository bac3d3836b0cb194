package urlstrategy

// CDNStrategy generates URLs that point directly at a CDN fronting the
// bucket, e.g. https://cdn.example.org/{key}.
type CDNStrategy struct {
	CDNBaseURL string
}

// NewCDNStrategy creates a CDN URL strategy
func NewCDNStrategy(cdnBaseURL string) *CDNStrategy {
	return &CDNStrategy{CDNBaseURL: withScheme(cdnBaseURL)}
}

func (s *CDNStrategy) Prefix() string {
	return s.CDNBaseURL + "/"
}

func (s *CDNStrategy) PublicURL(objectKey string) string {
	return s.Prefix() + objectKey
}

func (s *CDNStrategy) ObjectKey(url string) (string, error) {
	return objectKey(s.Prefix(), url)
}
