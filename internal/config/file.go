package config

import (
	"time"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/filestore"
)

// fileConfig mirrors the YAML layout. Pointer fields tell an absent key
// apart from a zero value so the file only overrides what it names.
type fileConfig struct {
	Env *string `yaml:"env"`

	Server struct {
		Addr            *string        `yaml:"addr"`
		ReadTimeout     *time.Duration `yaml:"read_timeout"`
		WriteTimeout    *time.Duration `yaml:"write_timeout"`
		ShutdownTimeout *time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Database struct {
		Dialect        *string        `yaml:"dialect"`
		Host           *string        `yaml:"host"`
		Port           *int           `yaml:"port"`
		Name           *string        `yaml:"name"`
		User           *string        `yaml:"user"`
		Password       *string        `yaml:"password"`
		SSLMode        *string        `yaml:"sslmode"`
		ConnectTimeout *time.Duration `yaml:"connect_timeout"`
		QueryTimeout   *time.Duration `yaml:"query_timeout"`
		Pool           struct {
			Max     *int32         `yaml:"max"`
			Min     *int32         `yaml:"min"`
			Acquire *time.Duration `yaml:"acquire"`
			Idle    *time.Duration `yaml:"idle"`
		} `yaml:"pool"`
	} `yaml:"database"`

	Log struct {
		Level      *string `yaml:"level"`
		Format     *string `yaml:"format"`
		File       *string `yaml:"file"`
		MaxSizeMB  *int    `yaml:"max_size_mb"`
		MaxBackups *int    `yaml:"max_backups"`
		MaxAgeDays *int    `yaml:"max_age_days"`
	} `yaml:"log"`

	ErrorLog struct {
		Dir        *string `yaml:"dir"`
		MaxSizeMB  *int    `yaml:"max_size_mb"`
		MaxBackups *int    `yaml:"max_backups"`
		MaxAgeDays *int    `yaml:"max_age_days"`
		Buffer     *int    `yaml:"buffer"`
	} `yaml:"error_log"`

	FileStore struct {
		Provider   *string        `yaml:"provider"`
		Endpoint   *string        `yaml:"endpoint"`
		AccessKey  *string        `yaml:"access_key"`
		SecretKey  *string        `yaml:"secret_key"`
		UseSSL     *bool          `yaml:"use_ssl"`
		Region     *string        `yaml:"region"`
		Bucket     *string        `yaml:"bucket"`
		PresignTTL *time.Duration `yaml:"presign_ttl"`
	} `yaml:"filestore"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (f *fileConfig) apply(c *Config) {
	set(&c.Env, f.Env)

	set(&c.Server.Addr, f.Server.Addr)
	set(&c.Server.ReadTimeout, f.Server.ReadTimeout)
	set(&c.Server.WriteTimeout, f.Server.WriteTimeout)
	set(&c.Server.ShutdownTimeout, f.Server.ShutdownTimeout)

	db := &c.Database
	if f.Database.Dialect != nil {
		db.Dialect = database.Dialect(*f.Database.Dialect)
	}
	set(&db.Host, f.Database.Host)
	if f.Database.Port != nil {
		db.Port = *f.Database.Port
		c.portSet = true
	}
	set(&db.Database, f.Database.Name)
	set(&db.User, f.Database.User)
	set(&db.Password, f.Database.Password)
	set(&db.SSLMode, f.Database.SSLMode)
	set(&db.ConnectTimeout, f.Database.ConnectTimeout)
	set(&db.QueryTimeout, f.Database.QueryTimeout)
	set(&db.MaxConns, f.Database.Pool.Max)
	set(&db.MinConns, f.Database.Pool.Min)
	set(&db.AcquireTimeout, f.Database.Pool.Acquire)
	set(&db.IdleTimeout, f.Database.Pool.Idle)

	if f.Log.Level != nil {
		c.logLevelSet = true
	}
	set(&c.Log.Level, f.Log.Level)
	set(&c.Log.Format, f.Log.Format)
	set(&c.Log.File, f.Log.File)
	set(&c.Log.MaxSizeMB, f.Log.MaxSizeMB)
	set(&c.Log.MaxBackups, f.Log.MaxBackups)
	set(&c.Log.MaxAgeDays, f.Log.MaxAgeDays)

	set(&c.ErrorLog.Dir, f.ErrorLog.Dir)
	set(&c.ErrorLog.MaxSizeMB, f.ErrorLog.MaxSizeMB)
	set(&c.ErrorLog.MaxBackups, f.ErrorLog.MaxBackups)
	set(&c.ErrorLog.MaxAgeDays, f.ErrorLog.MaxAgeDays)
	set(&c.ErrorLog.Buffer, f.ErrorLog.Buffer)

	fs := &c.FileStore
	if f.FileStore.Provider != nil {
		fs.Provider = filestore.Provider(*f.FileStore.Provider)
	}
	set(&fs.Endpoint, f.FileStore.Endpoint)
	set(&fs.AccessKey, f.FileStore.AccessKey)
	set(&fs.SecretKey, f.FileStore.SecretKey)
	set(&fs.UseSSL, f.FileStore.UseSSL)
	set(&fs.Region, f.FileStore.Region)
	set(&fs.Bucket, f.FileStore.Bucket)
	set(&fs.PresignTTL, f.FileStore.PresignTTL)
}
