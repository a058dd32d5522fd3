package config

import "time"

// ArtifactConfig represents where the classifier and vectorizer are read from
type ArtifactConfig struct {
	Source      string
	Model       string
	Vectorizer  string
	Dir         string
	Table       string
	SQLitePath  string
	MySQLDSN    string
	PostgresDSN string
	LoadTimeout time.Duration
}

// S3Config represents the configuration for artifacts stored in Amazon S3
type S3Config struct {
	Region string
	Bucket string
	Prefix string
}

// GCSConfig represents the configuration for artifacts stored in Google Cloud Storage
type GCSConfig struct {
	Bucket          string
	Prefix          string
	CredentialsFile string
}

// HTTPConfig represents the configuration of the web front-end
type HTTPConfig struct {
	ListenAddress string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxBodyBytes  int64
}

// SMTPConfig represents the configuration of the SMTP content filter
type SMTPConfig struct {
	ListenAddress    string
	BlockSpam        bool
	StatusHeader     string
	ConfidenceHeader string
	LabelHeader      string
	RelayEnabled     bool
	RelayAddress     string
	RelayPort        int
	ModifySubject    bool
	SubjectPrefix    string
	AnalysisTimeout  time.Duration
}

// GetArtifacts returns the artifact configuration
func (c *Config) GetArtifacts() ArtifactConfig {
	return ArtifactConfig{
		Source:      c.GetString("artifacts.source"),
		Model:       c.GetString("artifacts.model"),
		Vectorizer:  c.GetString("artifacts.vectorizer"),
		Dir:         c.GetString("artifacts.dir"),
		Table:       c.GetString("artifacts.table"),
		SQLitePath:  c.GetString("artifacts.sqlite_path"),
		MySQLDSN:    c.GetString("artifacts.mysql_dsn"),
		PostgresDSN: c.GetString("artifacts.postgres_dsn"),
		LoadTimeout: c.v.GetDuration("artifacts.load_timeout"),
	}
}

// GetS3 returns the S3 artifact configuration
func (c *Config) GetS3() S3Config {
	return S3Config{
		Region: c.GetString("artifacts.s3.region"),
		Bucket: c.GetString("artifacts.s3.bucket"),
		Prefix: c.GetString("artifacts.s3.prefix"),
	}
}

// GetGCS returns the Google Cloud Storage artifact configuration
func (c *Config) GetGCS() GCSConfig {
	return GCSConfig{
		Bucket:          c.GetString("artifacts.gcs.bucket"),
		Prefix:          c.GetString("artifacts.gcs.prefix"),
		CredentialsFile: c.GetString("artifacts.gcs.credentials_file"),
	}
}

// GetHTTP returns the web front-end configuration
func (c *Config) GetHTTP() HTTPConfig {
	return HTTPConfig{
		ListenAddress: c.GetString("server.listen_address"),
		ReadTimeout:   c.v.GetDuration("server.read_timeout"),
		WriteTimeout:  c.v.GetDuration("server.write_timeout"),
		MaxBodyBytes:  c.v.GetInt64("server.max_body_bytes"),
	}
}

// GetSMTP returns the SMTP content filter configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		ListenAddress:    c.GetString("smtp.listen_address"),
		BlockSpam:        c.GetBool("smtp.block_spam"),
		StatusHeader:     c.GetString("smtp.headers.status"),
		ConfidenceHeader: c.GetString("smtp.headers.confidence"),
		LabelHeader:      c.GetString("smtp.headers.label"),
		RelayEnabled:     c.GetBool("smtp.relay.enabled"),
		RelayAddress:     c.GetString("smtp.relay.address"),
		RelayPort:        c.GetInt("smtp.relay.port"),
		ModifySubject:    c.GetBool("smtp.modify_subject"),
		SubjectPrefix:    c.GetString("smtp.subject_prefix"),
		AnalysisTimeout:  c.v.GetDuration("smtp.analysis_timeout"),
	}
}
