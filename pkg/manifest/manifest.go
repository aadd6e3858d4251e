// manifest/manifest.go
package manifest

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Default returns the manifest used when no file is present.
func Default() Config {
	return Config{
		Server: Server{
			Listen:         ":4000",
			ReadTimeoutMS:  15_000,
			WriteTimeoutMS: 30_000,
			IdleTimeoutMS:  60_000,
		},
		API: API{
			Prefix:       "/api",
			Entrypoint:   "index",
			AllowHeaders: []string{"Content-Type"},
			MaxBodyBytes: 10 << 20,
		},
		Database: Database{
			Driver:   DriverSQLite,
			DSN:      "file:data/ppdb.db",
			MaxConns: 10,
		},
		Storage: Storage{
			Type:   StorageDisk,
			Bucket: "pendaftar-files",
			Disk:   &DiskStorage{Root: "data/uploads"},
		},
		Export: Export{
			SheetName:  "Pendaftar",
			FilePrefix: "pendaftar",
		},
		Proxy: Proxy{Tables: []string{"pendaftar", "pembayaran"}},
	}
}

/* ===========================
   Validation / Normalization
   =========================== */

// Validate normalizes c in place and reports the first configuration error.
func (c *Config) Validate() error {
	if err := c.API.normalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Database.normalize(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.normalize(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if strings.TrimSpace(c.Server.Listen) == "" {
		return errors.New("server.listen is required")
	}
	if c.Server.ReadTimeoutMS < 0 || c.Server.WriteTimeoutMS < 0 || c.Server.IdleTimeoutMS < 0 {
		return errors.New("server timeouts must be >= 0")
	}
	if strings.TrimSpace(c.Export.SheetName) == "" {
		c.Export.SheetName = "Pendaftar"
	}
	if strings.TrimSpace(c.Export.FilePrefix) == "" {
		c.Export.FilePrefix = "pendaftar"
	}
	c.Proxy.Tables = trimAll(c.Proxy.Tables)
	c.Log.BodyPaths = trimAll(c.Log.BodyPaths)
	return nil
}

func (a *API) normalize() error {
	a.Prefix = strings.TrimSpace(a.Prefix)
	if a.Prefix == "" {
		a.Prefix = "/api"
	}
	if !strings.HasPrefix(a.Prefix, "/") {
		a.Prefix = "/" + a.Prefix
	}
	a.Prefix = path.Clean(a.Prefix)
	if a.Prefix == "/" {
		return errors.New("prefix must not be the root path")
	}
	a.Entrypoint = strings.TrimSpace(a.Entrypoint)
	if a.Entrypoint == "" {
		a.Entrypoint = "index"
	}
	if strings.Contains(a.Entrypoint, "/") {
		return fmt.Errorf("entrypoint %q must be a single path segment", a.Entrypoint)
	}
	a.AllowHeaders = trimAll(a.AllowHeaders)
	if len(a.AllowHeaders) == 0 {
		a.AllowHeaders = []string{"Content-Type"}
	}
	if a.MaxBodyBytes < 0 {
		return errors.New("max_body_bytes must be >= 0")
	}
	if a.TimeoutMS < 0 {
		return errors.New("timeout_ms must be >= 0")
	}
	return nil
}

func (d *Database) normalize() error {
	d.Driver = DatabaseDriver(strings.ToLower(strings.TrimSpace(string(d.Driver))))
	switch d.Driver {
	case DriverPostgres, DriverSQLite:
	case "":
		d.Driver = DriverSQLite
	default:
		return fmt.Errorf("driver %q invalid", d.Driver)
	}
	if strings.TrimSpace(d.DSN) == "" {
		return errors.New("dsn is required")
	}
	if d.MaxConns < 0 {
		return errors.New("max_conns must be >= 0")
	}
	return nil
}

func (s *Storage) normalize() error {
	s.Type = StorageType(strings.ToLower(strings.TrimSpace(string(s.Type))))
	if strings.TrimSpace(s.Bucket) == "" {
		return errors.New("bucket is required")
	}
	s.PublicBaseURL = strings.TrimRight(strings.TrimSpace(s.PublicBaseURL), "/")
	switch s.Type {
	case StorageS3:
		if s.S3 == nil {
			s.S3 = &S3Storage{}
		}
		if s.S3.Region == "" {
			s.S3.Region = "us-east-1"
		}
	case StorageDisk, "":
		s.Type = StorageDisk
		if s.Disk == nil || strings.TrimSpace(s.Disk.Root) == "" {
			s.Disk = &DiskStorage{Root: "data/uploads"}
		}
	default:
		return fmt.Errorf("type %q invalid", s.Type)
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
