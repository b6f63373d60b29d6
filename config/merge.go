package config

// mergeConfigs merges override configuration into base. Only fields set in
// override replace those in base.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}

	if override.Store.Backend != "" {
		// A new backend invalidates a path meant for the old one.
		if override.Store.Backend != result.Store.Backend {
			result.Store.Path = ""
		}
		result.Store.Backend = override.Store.Backend
	}
	if override.Store.Path != "" {
		result.Store.Path = override.Store.Path
	}

	if override.Trips.WriteMode != "" {
		result.Trips.WriteMode = override.Trips.WriteMode
	}
	if override.Trips.DefaultName != "" {
		result.Trips.DefaultName = override.Trips.DefaultName
	}
	if override.Trips.DefaultNote != "" {
		result.Trips.DefaultNote = override.Trips.DefaultNote
	}

	if override.Session.File != "" {
		result.Session.File = override.Session.File
	}
	if override.Areas.File != "" {
		result.Areas.File = override.Areas.File
	}
	if override.Bridge.Addr != "" {
		result.Bridge.Addr = override.Bridge.Addr
	}

	if override.Telemetry.Endpoint != "" {
		result.Telemetry.Endpoint = override.Telemetry.Endpoint
	}
	if override.Telemetry.ServiceName != "" {
		result.Telemetry.ServiceName = override.Telemetry.ServiceName
	}

	// Extensions merge one level deep so a project can override a single
	// key of a global extension section.
	if len(override.Extensions) > 0 {
		merged := make(map[string]interface{}, len(base.Extensions)+len(override.Extensions))
		for k, v := range base.Extensions {
			merged[k] = v
		}
		for k, v := range override.Extensions {
			baseSection, baseOK := merged[k].(map[string]interface{})
			overSection, overOK := v.(map[string]interface{})
			if baseOK && overOK {
				section := make(map[string]interface{}, len(baseSection)+len(overSection))
				for sk, sv := range baseSection {
					section[sk] = sv
				}
				for sk, sv := range overSection {
					section[sk] = sv
				}
				merged[k] = section
				continue
			}
			merged[k] = v
		}
		result.Extensions = merged
	}

	return &result
}
