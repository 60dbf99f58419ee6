package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"PPEGuard/internal/api/detection"
	"PPEGuard/internal/entity"
)

// NewDetectionPolicy starts from the default policy and applies PPE_*
// overrides. Per-class thresholds use PPE_STABLE_THRESHOLD_<CLASS>, e.g.
// PPE_STABLE_THRESHOLD_EAR_PROTECTION.
func NewDetectionPolicy() (detection.Policy, error) {
	policy := detection.DefaultPolicy()

	var err error
	if policy.MaxRounds, err = envInt("PPE_MAX_ROUNDS", policy.MaxRounds); err != nil {
		return detection.Policy{}, err
	}
	if policy.EarlyExitRounds, err = envInt("PPE_EARLY_EXIT_ROUNDS", policy.EarlyExitRounds); err != nil {
		return detection.Policy{}, err
	}
	if policy.PointsPerItem, err = envInt("PPE_POINTS_PER_ITEM", policy.PointsPerItem); err != nil {
		return detection.Policy{}, err
	}
	if policy.NoPersonLimit, err = envInt("PPE_NO_PERSON_LIMIT", policy.NoPersonLimit); err != nil {
		return detection.Policy{}, err
	}
	if policy.SessionTTL, err = envDuration("PPE_SESSION_TTL", policy.SessionTTL); err != nil {
		return detection.Policy{}, err
	}

	for _, c := range entity.AllEquipmentClasses {
		key := "PPE_STABLE_THRESHOLD_" + strings.ToUpper(c.String())
		if policy.StableThreshold[c], err = envInt(key, policy.StableThreshold[c]); err != nil {
			return detection.Policy{}, err
		}
	}

	if err := policy.Validate(); err != nil {
		return detection.Policy{}, err
	}

	return policy, nil
}

// NewLocation loads APP_TIMEZONE, defaulting to the process local zone.
// Calendar days for attendance and dashboards are cut in this zone.
func NewLocation() (*time.Location, error) {
	name := os.Getenv("APP_TIMEZONE")
	if name == "" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load APP_TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
