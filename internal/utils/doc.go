// Package utils provides shared low-level helpers used throughout the stagekit
// internals: closing response bodies without losing errors, truncating and
// serializing values for log output, and a stopwatch for call latency.
package utils
