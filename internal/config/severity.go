package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"

	"github.com/mr1hm/crisis-globe/internal/models"
)

type severityFile struct {
	Severity models.SeverityScale `toml:"severity"`
}

// LoadSeverityScale reads the [severity] table of a TOML file. An empty
// path or a missing file yields the default 9/7/5 scale; keys absent from
// the file keep their default value.
//
//	[severity]
//	critical = 9.0
//	high = 7.0
//	medium = 5.0
func LoadSeverityScale(path string) (models.SeverityScale, error) {
	file := severityFile{Severity: models.DefaultSeverityScale()}
	if path == "" {
		return file.Severity, nil
	}

	if _, err := toml.DecodeFile(path, &file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.DefaultSeverityScale(), nil
		}
		return models.SeverityScale{}, fmt.Errorf("error decoding severity scale %s: %w", path, err)
	}

	if !file.Severity.Valid() {
		return models.SeverityScale{}, fmt.Errorf("severity thresholds must increase medium < high < critical, got %+v", file.Severity)
	}
	return file.Severity, nil
}
