package urlstrategy

// BucketStrategy builds path-style bucket URLs such as
// https://storage.googleapis.com/{bucket}/{key}.
type BucketStrategy struct {
	Host   string
	Bucket string
}

// NewBucketStrategy creates a bucket URL strategy. A host carrying a scheme
// is used verbatim, a bare host gets https.
func NewBucketStrategy(host, bucket string) *BucketStrategy {
	return &BucketStrategy{Host: host, Bucket: bucket}
}

func (s *BucketStrategy) Prefix() string {
	return withScheme(s.Host) + "/" + s.Bucket + "/"
}

func (s *BucketStrategy) PublicURL(objectKey string) string {
	return s.Prefix() + objectKey
}

func (s *BucketStrategy) ObjectKey(url string) (string, error) {
	return objectKey(s.Prefix(), url)
}
