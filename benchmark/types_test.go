package benchmark

type Config struct {
	Addr  string
	Port  int
	Debug bool
}

type Logger struct {
	Level string
	JSON  bool
}

type Database struct {
	Config *Config
	Logger *Logger
}

type Cache struct {
	Logger *Logger
	TTL    int
}

type Repository struct {
	DB    *Database
	Cache *Cache
}

type Service struct {
	Repo   *Repository
	Logger *Logger
}
