package storage

import "github.com/spf13/viper"

// MinIOConfig locates the bucket published posts are archived to.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// Region skips the bucket location lookup when set.
	Region string
}

// LoadMinIOConfig reads MINIO_* settings from the environment. Archiving is
// disabled when MINIO_ENDPOINT is empty.
func LoadMinIOConfig() *MinIOConfig {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("MINIO_BUCKET", "postflow")
	v.SetDefault("MINIO_USE_SSL", false)

	cfg := &MinIOConfig{
		Endpoint:  v.GetString("MINIO_ENDPOINT"),
		AccessKey: v.GetString("MINIO_ACCESS_KEY"),
		SecretKey: v.GetString("MINIO_SECRET_KEY"),
		UseSSL:    v.GetBool("MINIO_USE_SSL"),
		Bucket:    v.GetString("MINIO_BUCKET"),
		Region:    v.GetString("MINIO_REGION"),
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "postflow"
	}
	return cfg
}

// Enabled reports whether an endpoint was configured.
func (c *MinIOConfig) Enabled() bool {
	return c != nil && c.Endpoint != ""
}
