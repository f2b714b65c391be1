// Package env resolves settings from a .env file and the process environment.
package env

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

var (
	mu     sync.RWMutex
	values map[string]string
)

// Load reads the first .env file found among paths. A missing file is not
// an error; the process environment still applies.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		vals, err := godotenv.Read(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		mu.Lock()
		values = vals
		mu.Unlock()
		return nil
	}
	return nil
}

// Reset forgets any loaded file.
func Reset() {
	mu.Lock()
	values = nil
	mu.Unlock()
}

// Get returns key from the loaded file, then the process environment, then
// def.
func Get(key, def string) string {
	mu.RLock()
	val, ok := values[key]
	mu.RUnlock()
	if ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetInt is Get for integers. Unparsable values fall back to def.
func GetInt(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(Get(key, "")))
	if err != nil {
		return def
	}
	return n
}

// GetList splits a comma separated value, dropping blanks.
func GetList(key string) []string {
	var out []string
	for _, part := range strings.Split(Get(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsDev reports whether APP_ENV selects development mode.
func IsDev() bool {
	return Get("APP_ENV", "prod") == "dev"
}
