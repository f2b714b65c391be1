package manifest

import (
	"runtime"

	"github.com/go-playground/validator/v10"

	"github.com/ankit-chaubey/photo-manifest/core"
	"github.com/ankit-chaubey/photo-manifest/core/env"
)

// Settings configures one manifest run.
type Settings struct {
	Root         string   `validate:"required"`
	Output       string   `validate:"required"`
	Workers      int      `validate:"min=1,max=256"`
	ExcludedTags []string `validate:"dive,required"`
}

// SettingsFromEnv reads PHOTO_ROOT_DIR, OUTPUT_JSON_FILE, MANIFEST_WORKERS
// and MANIFEST_EXCLUDED_TAGS. Call env.Load first to include a .env file.
func SettingsFromEnv() Settings {
	return Settings{
		Root:         env.Get("PHOTO_ROOT_DIR", "photos"),
		Output:       env.Get("OUTPUT_JSON_FILE", "photos.json"),
		Workers:      env.GetInt("MANIFEST_WORKERS", runtime.NumCPU()),
		ExcludedTags: env.GetList("MANIFEST_EXCLUDED_TAGS"),
	}
}

// Validate checks the settings
func (s Settings) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

// Config returns the extraction config: the default tables plus the extra
// exclusions.
func (s Settings) Config() core.Config {
	return core.DefaultConfig().WithExcluded(s.ExcludedTags...)
}
