package syssonic

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	St "github.com/maroda/syssonic/types"
)

// FanSysfs enumerates hwmon fan tachometers. The sysfs tree only
// exists on Linux, elsewhere the glob matches nothing and the
// domain stays unavailable.
type FanSysfs struct {
	Inputs []FanInput
}

// FanInput is one fanN_input file with its resolved label.
type FanInput struct {
	Path  string
	Label string
}

func FindFans() (*FanSysfs, error) {
	matches, err := filepath.Glob("/sys/class/hwmon/hwmon*/fan*_input")
	if err != nil || len(matches) == 0 {
		return nil, errors.New("no fan sensors found")
	}

	fs := &FanSysfs{}
	for _, m := range matches {
		fs.Inputs = append(fs.Inputs, FanInput{Path: m, Label: fanLabel(m)})
	}
	return fs, nil
}

// fanLabel prefers fanN_label, then the hwmon chip name.
func fanLabel(inputPath string) string {
	labelPath := strings.Replace(inputPath, "_input", "_label", 1)
	if b, err := os.ReadFile(labelPath); err == nil {
		return strings.TrimSpace(string(b))
	}

	namePath := filepath.Join(filepath.Dir(inputPath), "name")
	if b, err := os.ReadFile(namePath); err == nil {
		return strings.TrimSpace(string(b))
	}

	return "Unknown"
}

// Read samples every enumerated fan, skipping ones that fail.
// An all-failed read returns nil so the snapshot records absence.
func (f *FanSysfs) Read() []St.Fan {
	var fans []St.Fan
	for _, in := range f.Inputs {
		rpm, err := readSysfsUint(in.Path)
		if err != nil {
			continue
		}
		fans = append(fans, St.Fan{Label: in.Label, RPM: int(rpm)})
	}
	return fans
}
