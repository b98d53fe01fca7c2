package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
	"github.com/jimlawless/whereami"
)

type Config struct {
	Minio   *MinIOCfg
	Http    *HTTPConfig
	Db      *PGDBCfg
	Redis   *RedisCfg
	Kafka   *KafkaCfg
	Catalog *CatalogCfg
}

type KafkaCfg struct {
	Topic             string
	GroupID           string
	Brokers           []string // пусто — consumer и producer отключены
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
	MinBackoff        time.Duration
	MaxBackoff        time.Duration
}

// Enabled сообщает, задан ли хотя бы один брокер.
func (k *KafkaCfg) Enabled() bool {
	return k != nil && len(k.Brokers) > 0
}

type MinIOCfg struct {
	MinioEndpoint     string        // Адрес конечной точки Minio, пусто — MinIO не используется
	BucketName        string        // Бакет с изображениями товаров
	MinioRootUser     string        // Имя пользователя для доступа к Minio
	MinioRootPassword string        // Пароль для доступа к Minio
	MinioUseSSL       bool          // Подключение по https
	Region            string        // Регион бакета; задан явно, чтобы клиент не ходил за location
	PresignExpiry     time.Duration // Время жизни presigned-ссылки
	ResolveLimit      int           // Макс. кол-во одновременных presign-операций
}

// Enabled сообщает, настроен ли MinIO.
func (m *MinIOCfg) Enabled() bool {
	return m != nil && m.MinioEndpoint != ""
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
}

// CatalogCfg — параметры каталога: кэш, пагинация, таймауты, сессии.
type CatalogCfg struct {
	PageSize         int
	MaxImages        int
	MaxEntries       int
	CacheTTL         time.Duration
	ShowcaseTTL      time.Duration // featured и hero
	PersistRetention time.Duration // expiry ключей в Redis
	StorageTimeout   time.Duration
	SoftTimeout      time.Duration
	RequestTimeout   time.Duration
	WaitTimeout      time.Duration // сколько HTTP-запрос ждёт контроллер
	SessionIdle      time.Duration
	MaxSessions      int
	FeaturedLimit    int
	HeroLimit        int
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	catalog, err := LoadCatalogCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Minio:   minio,
		Http:    http,
		Db:      db,
		Redis:   redis,
		Kafka:   kafka,
		Catalog: catalog,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultTopic             = "catalog.product-changes"
		defaultGroupID           = "storefront-catalog"
		defaultMinBackoff        = 500 * time.Millisecond
		defaultMaxBackoff        = 30 * time.Second
	)

	var brokers []string
	for _, b := range strings.Split(getEnv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	minBackoff, err := parseDurationEnv("KAFKA_MIN_BACKOFF", defaultMinBackoff)
	if err != nil {
		return nil, e.Wrap("KAFKA_MIN_BACKOFF", err)
	}

	maxBackoff, err := parseDurationEnv("KAFKA_MAX_BACKOFF", defaultMaxBackoff)
	if err != nil {
		return nil, e.Wrap("KAFKA_MAX_BACKOFF", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		GroupID:           getEnvOrDefault("KAFKA_GROUP_ID", defaultGroupID),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
		MinBackoff:        minBackoff,
		MaxBackoff:        maxBackoff,
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL        = false
		defaultRegion        = "us-east-1"
		defaultBucket        = "product-images"
		defaultPresignExpiry = time.Hour
		defaultResolveLimit  = 8
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	presignExpiry, err := parseDurationEnv("MINIO_PRESIGN_EXPIRY", defaultPresignExpiry)
	if err != nil {
		log.Errorf(err, "invalid MINIO_PRESIGN_EXPIRY")
		return nil, err
	}

	resolveLimit, err := parseIntEnv("MINIO_RESOLVE_LIMIT", defaultResolveLimit)
	if err != nil {
		log.Errorf(err, "invalid MINIO_RESOLVE_LIMIT")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnv("MINIO_ENDPOINT"),
		BucketName:        getEnvOrDefault("BUCKET_NAME", defaultBucket),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		Region:            getEnvOrDefault("MINIO_REGION", defaultRegion),
		PresignExpiry:     presignExpiry,
		ResolveLimit:      resolveLimit,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 15 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         getEnvOrDefault("HTTP_PORT", defaultPort),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	required := map[string]string{}
	for _, key := range []string{"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB"} {
		v := getEnv(key)
		if v == "" {
			err := fmt.Errorf("%s is required", key)
			log.Errorf(err, "missing %s", key)
			return nil, err
		}
		required[key] = v
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     required["POSTGRES_USER"],
		Password: required["POSTGRES_PASSWORD"],
		DBName:   required["POSTGRES_DB"],
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 1
		defaultDialTimeout  = time.Second
		defaultReadTimeout  = 250 * time.Millisecond
		defaultWriteTimeout = 250 * time.Millisecond
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
	}, nil
}

// LoadCatalogCfg читает параметры каталога. Вынесена отдельно, чтобы seed и тесты
// могли получить значения по умолчанию без переменных PostgreSQL.
func LoadCatalogCfg(log logger.Logger) (*CatalogCfg, error) {
	c := DefaultCatalogCfg()

	ints := []struct {
		key string
		dst *int
	}{
		{"CATALOG_PAGE_SIZE", &c.PageSize},
		{"CATALOG_MAX_IMAGES", &c.MaxImages},
		{"CATALOG_MAX_ENTRIES", &c.MaxEntries},
		{"CATALOG_MAX_SESSIONS", &c.MaxSessions},
		{"CATALOG_FEATURED_LIMIT", &c.FeaturedLimit},
		{"CATALOG_HERO_LIMIT", &c.HeroLimit},
	}
	for _, it := range ints {
		v, err := parseIntEnv(it.key, *it.dst)
		if err != nil || v <= 0 {
			if err == nil {
				err = e.ErrIncorrectEnvVariable
			}
			log.Errorf(err, "invalid %s", it.key)
			return nil, e.Wrap(it.key, err)
		}
		*it.dst = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CATALOG_CACHE_TTL", &c.CacheTTL},
		{"CATALOG_SHOWCASE_TTL", &c.ShowcaseTTL},
		{"CATALOG_PERSIST_RETENTION", &c.PersistRetention},
		{"CATALOG_STORAGE_TIMEOUT", &c.StorageTimeout},
		{"CATALOG_SOFT_TIMEOUT", &c.SoftTimeout},
		{"CATALOG_REQUEST_TIMEOUT", &c.RequestTimeout},
		{"CATALOG_WAIT_TIMEOUT", &c.WaitTimeout},
		{"CATALOG_SESSION_IDLE", &c.SessionIdle},
	}
	for _, it := range durations {
		v, err := parseDurationEnv(it.key, *it.dst)
		if err != nil || v <= 0 {
			if err == nil {
				err = e.ErrIncorrectEnvVariable
			}
			log.Errorf(err, "invalid %s", it.key)
			return nil, e.Wrap(it.key, err)
		}
		*it.dst = v
	}

	return c, nil
}

// DefaultCatalogCfg возвращает значения по умолчанию.
func DefaultCatalogCfg() *CatalogCfg {
	return &CatalogCfg{
		PageSize:         24,
		MaxImages:        3,
		MaxEntries:       10,
		CacheTTL:         5 * time.Minute,
		ShowcaseTTL:      time.Hour,
		PersistRetention: 24 * time.Hour,
		StorageTimeout:   250 * time.Millisecond,
		SoftTimeout:      3 * time.Second,
		RequestTimeout:   10 * time.Second,
		WaitTimeout:      12 * time.Second,
		SessionIdle:      30 * time.Minute,
		MaxSessions:      10000,
		FeaturedLimit:    4,
		HeroLimit:        6,
	}
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
