package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// ChannelsFilename is the alias file under the config directory
const ChannelsFilename = "channels"

// builtinChannels are always available as aliases
var builtinChannels = map[string]string{
	"conda-forge": "https://conda.anaconda.org/conda-forge",
	"bioconda":    "https://conda.anaconda.org/bioconda",
	"defaults":    "https://repo.anaconda.com/pkgs/main",
}

// LoadChannelAliases merges the built-in aliases with the user's
// channels file. User entries win.
func LoadChannelAliases() map[string]string {
	aliases := make(map[string]string, len(builtinChannels))
	for k, v := range builtinChannels {
		aliases[k] = v
	}

	dir, err := ConfigDir()
	if err != nil {
		return aliases
	}
	data, err := os.ReadFile(filepath.Join(dir, ChannelsFilename))
	if err != nil {
		return aliases
	}
	mergeAliases(aliases, data)
	return aliases
}

// mergeAliases parses alias=url lines into dst, skipping comments and
// blanks
func mergeAliases(dst map[string]string, data []byte) {
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		alias, url, ok := strings.Cut(line, "=")
		if !ok {
			logrus.Warnf("channels file line %d: expected alias=url, got %q", i+1, line)
			continue
		}
		dst[strings.TrimSpace(alias)] = strings.TrimSpace(url)
	}
}

// ResolveChannel turns an alias, URL, or local directory into a
// channel base the client can use
func ResolveChannel(name string, aliases map[string]string) (string, error) {
	if strings.Contains(name, "://") {
		return name, nil
	}
	if url, ok := aliases[name]; ok {
		return url, nil
	}
	if info, err := os.Stat(name); err == nil && info.IsDir() {
		return name, nil
	}
	return "", fmt.Errorf("unknown channel %q: not an alias, URL, or directory", name)
}
