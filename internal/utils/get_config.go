package utils

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	// Database configuration
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`

	// JWT key shared with the auth service
	JWTSecret string `yaml:"JWT_SECRET"`

	// Public addresses
	AppURL      string `yaml:"APP_URL"`
	FrontendURL string `yaml:"FRONTEND_URL"`
	PageSize    int    `yaml:"PAGE_SIZE"`
	LogFile     string `yaml:"LOG_FILE"`

	// AWS S3 configuration
	AWSS3Bucket   string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region   string `yaml:"AWS_S3_REGION"`
	AWSAccessKey  string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey  string `yaml:"AWS_SECRET_KEY"`
	AWSS3Endpoint string `yaml:"AWS_S3_ENDPOINT"`
}

var config Config

const defaultConfigPath = "config.yaml"

func LoadConfig() {
	LoadConfigFrom(defaultConfigPath)
}

// LoadConfigFrom reads a yaml file into the package config. A missing file is
// not fatal: every key can also come from the environment.
func LoadConfigFrom(path string) {
	file, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Error reading YAML file: %s\n", err)
		return
	}

	var loaded Config
	if err := yaml.Unmarshal(file, &loaded); err != nil {
		log.Printf("Error parsing YAML file: %s\n", err)
		return
	}
	config = loaded
}

// GetConfig returns the value for key. Environment variables win over the file.
func GetConfig(key string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	switch key {
	case "DB_USER":
		return config.DBUser
	case "DB_NAME":
		return config.DBName
	case "DB_PASSWORD":
		return config.DBPassword
	case "DB_PORT":
		return config.DBPort
	case "DB_HOST":
		return config.DBHost
	case "JWT_SECRET":
		return config.JWTSecret
	case "APP_URL":
		return config.AppURL
	case "FRONTEND_URL":
		return config.FrontendURL
	case "PAGE_SIZE":
		if config.PageSize == 0 {
			return ""
		}
		return strconv.Itoa(config.PageSize)
	case "LOG_FILE":
		return config.LogFile
	case "AWS_S3_BUCKET":
		return config.AWSS3Bucket
	case "AWS_S3_REGION":
		return config.AWSS3Region
	case "AWS_ACCESS_KEY":
		return config.AWSAccessKey
	case "AWS_SECRET_KEY":
		return config.AWSSecretKey
	case "AWS_S3_ENDPOINT":
		return config.AWSS3Endpoint
	default:
		return ""
	}
}

// GetConfigInt parses key as an int, falling back when unset or invalid.
func GetConfigInt(key string, fallback int) int {
	value, err := strconv.Atoi(GetConfig(key))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
