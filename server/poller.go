package syssonic

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseKVFile streams a local KV-formatted file (os-release style)
// and populates a map for all key/values, removing whitespace and comments
func ParseKVFile(path, d string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		slog.Error("Could not open KV file", slog.Any("Error", err))
		return nil, err
	}
	defer file.Close()

	return ParseKV(file, d)
}

func ParseKV(reader io.Reader, d string) (map[string]string, error) {
	envMap := make(map[string]string)
	scanner := bufio.NewScanner(reader)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// ignore whitespace and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Split on the delimiter /d/
		parts := strings.SplitN(line, d, 2)
		if len(parts) != 2 {
			slog.Error("WARNING: Invalid line", slog.String("line", line))
			continue
		}

		// Extract Key, Clean up Value, Add to Map
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		// Remove quotes
		value = strings.Trim(value, `"'`)
		// Take care of any trailing quotes and comments
		if pos := strings.IndexAny(value, `"'#`); pos != -1 {
			value = value[:pos]
		}
		envMap[key] = value
	}

	if err := scanner.Err(); err != nil {
		slog.Error("Problem scanning input", slog.Any("Error", err))
		return nil, fmt.Errorf("scanning error: %w", err)
	}

	return envMap, nil
}

// OSRelease names the host platform for the version surface
func OSRelease() string {
	kv, err := ParseKVFile("/etc/os-release", "=")
	if err != nil {
		return "unknown"
	}
	if name := kv["PRETTY_NAME"]; name != "" {
		return name
	}
	if name := kv["NAME"]; name != "" {
		return name
	}
	return "unknown"
}
