package options

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

type LogOptions struct {
	Level string `json:"level" mapstructure:"level"`
	// File receives log output instead of stderr when set.
	File string `json:"file" mapstructure:"file"`
}

func NewLogOptions() *LogOptions {
	return &LogOptions{Level: "warn"}
}

func (o *LogOptions) Validate() []error {
	if _, err := logrus.ParseLevel(o.Level); err != nil {
		return []error{fmt.Errorf("log.level: %w", err)}
	}
	return nil
}

func (o *LogOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Level, "log.level", o.Level, "Minimum log level: debug, info, warn or error.")
	fs.StringVar(&o.File, "log.file", o.File, "Write logs to this file instead of stderr.")
}
