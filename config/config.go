package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config holds the application's configuration values.
type Config struct {
	AppName string `json:"appname"`
	AppEnv  string `json:"appenv"`
	AppPort uint16 `json:"appport"`
	GinMode string `json:"ginmode"`
	DBHost  string `json:"dbhost"`
	DBPort  uint16 `json:"dbport"`
	DBName  string `json:"dbname"`
	DBUser  string `json:"dbuser"`
	DBPass  string `json:"dbpass"`
}

var config *Config
var once sync.Once

// LoadConfig loads the environment variables from a .env file, and returns a
// singleton Config instance. A missing .env file is not fatal so tests and
// containerized deploys can rely on real environment variables.
func LoadConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file loaded: %v", err)
		}

		appPort, _ := strconv.ParseUint(os.Getenv("APPPORT"), 10, 16)
		dbPort, _ := strconv.ParseUint(os.Getenv("DBPORT"), 10, 16)

		config = &Config{
			AppName: os.Getenv("APPNAME"),
			AppEnv:  os.Getenv("APPENV"),
			AppPort: uint16(appPort),
			GinMode: os.Getenv("GINMODE"),
			DBHost:  os.Getenv("DBHOST"),
			DBPort:  uint16(dbPort),
			DBName:  os.Getenv("DBNAME"),
			DBUser:  os.Getenv("DBUSER"),
			DBPass:  os.Getenv("DBPASS"),
		}
	})
	return config
}

// ConnectDatabase opens the backing relational store. In the test environment
// it opens an in-memory SQLite database instead of MySQL so the suite runs
// without external services.
func ConnectDatabase() (*gorm.DB, error) {
	cfg := LoadConfig()
	// TranslateError maps driver duplicate-key failures onto
	// gorm.ErrDuplicatedKey so the CNIC conflict path is driver-agnostic.
	gormCfg := &gorm.Config{TranslateError: true}
	if cfg != nil && cfg.AppEnv == "test" {
		return gorm.Open(sqlite.Open("file::memory:?cache=shared"), gormCfg)
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	db, err := gorm.Open(mysql.Open(dsn), gormCfg)
	if err != nil {
		return nil, err
	}
	return db, nil
}
