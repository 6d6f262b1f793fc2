package config

// DefaultTimeZones returns the regional clock banner: the host zone first,
// then the capitals the dashboard watches.
func DefaultTimeZones() []TimeZone {
	return []TimeZone{
		{City: "Local", Location: "Local", Flag: "🏛️"},
		{City: "Jerusalem", Location: "Asia/Jerusalem", Flag: "🇮🇱"},
		{City: "Damascus", Location: "Asia/Damascus", Flag: "🇸🇾"},
		{City: "Tehran", Location: "Asia/Tehran", Flag: "🇮🇷"},
		{City: "Baghdad", Location: "Asia/Baghdad", Flag: "🇮🇶"},
		{City: "Cairo", Location: "Africa/Cairo", Flag: "🇪🇬"},
	}
}
