package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotEnvUp ищет .env (или deploy/.env) в текущей папке и выше и
// загружает первый найденный. Уже заданные переменные не перезаписываются.
// Возвращает путь загруженного файла или "".
func LoadDotEnvUp(maxDepth int) string {
	if maxDepth <= 0 {
		maxDepth = 6
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for i := 0; i <= maxDepth; i++ {
		for _, p := range []string{
			filepath.Join(dir, ".env"),
			filepath.Join(dir, "deploy", ".env"),
		} {
			if _, err := os.Stat(p); err == nil {
				if godotenv.Load(p) == nil {
					return p
				}
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
