package bearer

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Store is an environment-like key/value store consulted by [FromEnv].
type Store interface {
	Lookup(key string) (string, bool)
}

// StoreFunc adapts a lookup function to the [Store] interface.
type StoreFunc func(key string) (string, bool)

// Lookup calls f(key).
func (f StoreFunc) Lookup(key string) (string, bool) {
	return f(key)
}

// OSEnv is the process environment.
var OSEnv Store = StoreFunc(os.LookupEnv)

// MapStore is a fixed set of variables.
type MapStore map[string]string

// Lookup returns the value stored under key.
func (m MapStore) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// DotenvStore parses the given .env files (".env" when none are given) into a
// [MapStore]. Files are read once, here; later edits are not seen.
func DotenvStore(filenames ...string) (MapStore, error) {
	vars, err := godotenv.Read(filenames...)
	if err != nil {
		return nil, fmt.Errorf("error reading dotenv file: %w", err)
	}
	return MapStore(vars), nil
}
