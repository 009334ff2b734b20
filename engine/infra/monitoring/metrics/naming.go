package metrics

import "strings"

// Prefix namespaces every metric exported by the service.
const Prefix = "gita_"

// MetricName prefixes name unless it already carries the namespace.
func MetricName(name string) string {
	if strings.HasPrefix(name, Prefix) {
		return name
	}
	return Prefix + name
}

// MetricNameWithSubsystem builds gita_<subsystem>_<name>.
func MetricNameWithSubsystem(subsystem, name string) string {
	subsystem = strings.Trim(subsystem, "_")
	if subsystem == "" {
		return MetricName(name)
	}
	if name == "" {
		return Prefix + subsystem
	}
	return Prefix + subsystem + "_" + strings.TrimPrefix(name, "_")
}
