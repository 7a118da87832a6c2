// Command stagefetch sends one HTTP request through a stagekit pipeline and
// prints the response body.
//
// Usage:
//
//	stagefetch [flags] URL
//
// A bearer token can be given directly (--token), read from an environment
// variable (--token-env, optionally resolved against --dotenv files) or read
// from a file (--token-file). A .env file in the working directory is loaded
// into the process environment at startup.
//
// Logging is configured by STAGEKIT_LOG_FORMAT (compact, json, text) and
// --verbose.
package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
