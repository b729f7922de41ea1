package config

import (
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv 读取 .env（没有就用进程环境变量）
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}
}
