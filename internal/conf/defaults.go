// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/damage"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/detection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/imageutil"
)

// Sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("roboflow.apikey", "")
	v.SetDefault("roboflow.apikeyfile", "")
	v.SetDefault("roboflow.model", "")
	v.SetDefault("roboflow.version", "")
	v.SetDefault("roboflow.baseurl", detection.DefaultBaseURL)
	v.SetDefault("roboflow.timeout", 30*time.Second)

	v.SetDefault("diff.threshold", damage.DefaultThreshold)

	v.SetDefault("webserver.listen", ":8080")
	v.SetDefault("webserver.bodylimit", "50M")
	v.SetDefault("webserver.ratelimit", 0.0)
	v.SetDefault("webserver.allowedorigins", []string{"*"})
	v.SetDefault("webserver.debug", false)

	v.SetDefault("images.maxpixels", imageutil.DefaultMaxPixels)

	v.SetDefault("sessions.ttl", 30*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.dsn", "")
}
