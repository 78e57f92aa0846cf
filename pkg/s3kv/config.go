package s3kv

// Config describes the bucket holding the records.
type Config struct {
	Bucket         string `env:"S3KV_BUCKET"`
	Region         string `env:"S3KV_REGION" envDefault:"us-east-1"`
	AccessKeyID    string `env:"S3KV_ACCESS_KEY_ID"`
	SecretKey      string `env:"S3KV_SECRET_KEY"`
	Endpoint       string `env:"S3KV_ENDPOINT"`                        // Optional, for S3-compatible services.
	ForcePathStyle bool   `env:"S3KV_FORCE_PATH_STYLE" envDefault:"false"` // Required by MinIO.
	Prefix         string `env:"S3KV_PREFIX" envDefault:"patientkit/"`
}
