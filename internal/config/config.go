package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/asramahub/asrama-go-api/internal/models"
)

// SeverityPoints maps severity levels to conduct score deductions.
type SeverityPoints map[models.Severity]int

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string
	NATSURL     string
	JWTSecret   string

	// Conduct scoring and enforcement. The threshold and point values are
	// deliberately configuration rather than compile-time constants.
	ConductBaseScore     int
	EnforcementThreshold int
	SeverityPoints       SeverityPoints
	ScoreCacheTTL        time.Duration

	// BuildingPolicies restricts buildings to a single occupant gender.
	// Entries look like "BK001=male"; buildings not listed are mixed.
	BuildingPolicies models.BuildingPolicy

	EventChannelBase string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ASRAMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Asrama API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("conduct.base_score", 100)
	v.SetDefault("conduct.enforcement_threshold", 70)
	v.SetDefault("conduct.points.low", 2)
	v.SetDefault("conduct.points.medium", 5)
	v.SetDefault("conduct.points.high", 10)
	v.SetDefault("conduct.points.expulsion", 31)
	v.SetDefault("conduct.cache_ttl", "5m")
	v.SetDefault("building.policies", "BK001=male,BK002=male,BK003=female,BK004=female")
	v.SetDefault("event.channel_base", "asrama")

	ttlString := v.GetString("conduct.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid conduct cache ttl: %w", err)
	}

	policies, err := ParseBuildingPolicies(v.GetString("building.policies"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		NATSURL:              v.GetString("nats.url"),
		JWTSecret:            v.GetString("jwt.secret"),
		ConductBaseScore:     v.GetInt("conduct.base_score"),
		EnforcementThreshold: v.GetInt("conduct.enforcement_threshold"),
		SeverityPoints: SeverityPoints{
			models.SeverityLow:       v.GetInt("conduct.points.low"),
			models.SeverityMedium:    v.GetInt("conduct.points.medium"),
			models.SeverityHigh:      v.GetInt("conduct.points.high"),
			models.SeverityExpulsion: v.GetInt("conduct.points.expulsion"),
		},
		ScoreCacheTTL:    ttl,
		BuildingPolicies: policies,
		EventChannelBase: v.GetString("event.channel_base"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ConductBaseScore <= 0 {
		cfg.ConductBaseScore = 100
	}

	if cfg.EnforcementThreshold <= 0 || cfg.EnforcementThreshold > cfg.ConductBaseScore {
		return Config{}, fmt.Errorf("enforcement threshold %d out of range", cfg.EnforcementThreshold)
	}

	return cfg, nil
}

// ParseBuildingPolicies parses a comma-separated "building=gender" list into
// a policy table. The value "mixed" clears the restriction for a building.
func ParseBuildingPolicies(raw string) (models.BuildingPolicy, error) {
	policies := models.BuildingPolicy{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid building policy entry %q", entry)
		}

		building := strings.TrimSpace(parts[0])
		gender := strings.ToLower(strings.TrimSpace(parts[1]))
		if gender == "mixed" {
			continue
		}

		parsed := models.Gender(gender)
		if !parsed.Valid() {
			return nil, fmt.Errorf("invalid building policy gender %q for %s", parts[1], building)
		}

		policies[building] = parsed
	}

	return policies, nil
}
