package manifest

// Config is the top-level service manifest (manifest.toml).
type Config struct {
	Server   Server   `toml:"server"`
	API      API      `toml:"api"`
	Database Database `toml:"database"`
	Storage  Storage  `toml:"storage"`
	Export   Export   `toml:"export"`
	Proxy    Proxy    `toml:"proxy"`
	Log      Log      `toml:"log"`
}

type Server struct {
	Listen         string `toml:"listen"`
	ReadTimeoutMS  int    `toml:"read_timeout_ms"`
	WriteTimeoutMS int    `toml:"write_timeout_ms"`
	IdleTimeoutMS  int    `toml:"idle_timeout_ms"`
}

// API configures the dispatcher's URL shape and preflight contract.
type API struct {
	Prefix       string   `toml:"prefix"`     // e.g. "/api"
	Entrypoint   string   `toml:"entrypoint"` // reserved segment, e.g. "index"
	AllowHeaders []string `toml:"allow_headers"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
	TimeoutMS    int      `toml:"timeout_ms"` // per-dispatch deadline, 0 disables
}

type DatabaseDriver string

const (
	DriverPostgres DatabaseDriver = "postgres"
	DriverSQLite   DatabaseDriver = "sqlite"
)

type Database struct {
	Driver   DatabaseDriver `toml:"driver"`
	DSN      string         `toml:"dsn"`
	MaxConns int32          `toml:"max_conns"`
}

type StorageType string

const (
	StorageS3   StorageType = "s3"
	StorageDisk StorageType = "disk"
)

type Storage struct {
	Type          StorageType  `toml:"type"`
	Bucket        string       `toml:"bucket"`
	PublicBaseURL string       `toml:"public_base_url"` // prefix for object URLs handed to clients
	S3            *S3Storage   `toml:"s3"`
	Disk          *DiskStorage `toml:"disk"`
}

type S3Storage struct {
	Region          string `toml:"region"`
	EndpointURL     string `toml:"endpoint_url"`
	UsePathStyle    bool   `toml:"use_path_style"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

type DiskStorage struct {
	Root string `toml:"root"`
}

// Export controls the report downloads.
type Export struct {
	SheetName  string `toml:"sheet_name"`
	FilePrefix string `toml:"file_prefix"`
}

// Proxy lists the tables the generic table action may touch.
type Proxy struct {
	Tables []string `toml:"tables"`
}

type Log struct {
	BodyPaths []string `toml:"body_paths"`
}
