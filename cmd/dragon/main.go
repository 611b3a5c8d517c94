// Command dragon shows a transparent, always-on-top drawing overlay over the
// desktop: a dashed guide-line field plus movable labels and images.
package main

import (
	"flag"
	"os"

	"github.com/phanxgames/overlay"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

func _main() error {
	defaultPath, err := overlay.DefaultSettingsPath()
	if err != nil {
		log.WithError(err).Warn("no home directory, settings will not be saved")
	}

	settingsPath := flag.String("settings", defaultPath, "settings file")
	debug := flag.Bool("debug", false, "log per-frame render statistics")
	script := flag.String("script", "", "JSON input script to replay")
	screenshots := flag.String("screenshots", "screenshots", "directory for script screenshots")
	watch := flag.Bool("watch", true, "reload images when their files change")
	seed := flag.Uint64("seed", 0, "dash jitter seed (0 picks one at startup)")
	flag.Parse()

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	st := overlay.DefaultSettings()
	if *settingsPath != "" {
		if st, err = overlay.LoadSettings(*settingsPath); err != nil {
			return err
		}
	}

	opts := overlay.RunOptions{
		Title:         "Dragon",
		Settings:      st,
		SettingsPath:  *settingsPath,
		Debug:         *debug,
		Watch:         *watch,
		Seed:          *seed,
		ScreenshotDir: *screenshots,
	}
	if *script != "" {
		data, err := os.ReadFile(*script)
		if err != nil {
			return err
		}
		if opts.Script, err = overlay.LoadTestScript(data); err != nil {
			return err
		}
	}
	return overlay.Run(opts)
}

func main() {
	formatter := &prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
		ForceColors:     true,
	}
	log.SetFormatter(formatter)
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
	if err := _main(); err != nil {
		log.Fatal(err)
	}
}
