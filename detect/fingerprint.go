// Package detect identifies which scanner produced a piece of report text.
// JSON reports are matched against a fingerprint table of characteristic
// key paths; non-JSON reports are routed by the dispatcher's heuristics.
package detect

// Format names a supported scanner output format. The value doubles as the
// converter registry key for that format.
type Format string

const (
	FormatASFF       Format = "asff"
	FormatConveyor   Format = "conveyor"
	FormatFortify    Format = "fortify"
	FormatIonChannel Format = "ionchannel"
	FormatJFrog      Format = "jfrog"
	FormatNikto      Format = "nikto"
	FormatPrisma     Format = "prisma"
	FormatSarif      Format = "sarif"
	FormatSnyk       Format = "snyk"
	FormatTruffleHog Format = "trufflehog"
	FormatTwistlock  Format = "twistlock"
	FormatZap        Format = "zap"

	// Heuristic-only formats. These never appear in the fingerprint table;
	// the dispatcher recognizes them from file extensions or raw-text
	// markers when the report is not JSON.
	FormatNessus     Format = "nessus"
	FormatXCCDF      Format = "xccdf"
	FormatBurp       Format = "burp"
	FormatScoutSuite Format = "scoutsuite"
	FormatDBProtect  Format = "dbprotect"
	FormatNetsparker Format = "netsparker"
)

// fingerprint pairs a format with the key paths characteristic of it.
type fingerprint struct {
	format Format
	paths  []string
}

// fingerprints is the guesser's scoring table. Order matters: when two
// formats resolve the same number of paths, the earlier entry wins.
var fingerprints = []fingerprint{
	{FormatASFF, []string{"Findings", "Findings[0].ProductArn"}},
	{FormatConveyor, []string{"api_error_message", "api_response"}},
	{FormatFortify, []string{"FVDL", "FVDL.EngineData.EngineVersion", "FVDL.UUID"}},
	{FormatIonChannel, []string{"analysis_id", "team_id", "source", "trigger_hash"}},
	{FormatJFrog, []string{"total_count", "data"}},
	{FormatNikto, []string{"banner", "host", "ip", "port", "vulnerabilities"}},
	{FormatPrisma, []string{"complianceDistribution", "vulnerabilityDistribution", "hostname"}},
	{FormatSarif, []string{"$schema", "version", "runs"}},
	{FormatSnyk, []string{"projectName", "policy", "summary", "vulnerabilities"}},
	{FormatTruffleHog, []string{"SourceMetadata", "SourceID", "DetectorType"}},
	{FormatTwistlock, []string{"results[0].complianceDistribution", "consoleURL"}},
	{FormatZap, []string{"@generated", "@version", "site"}},
}

// Fingerprinted returns the formats the guesser can score, in table order.
func Fingerprinted() []Format {
	out := make([]Format, len(fingerprints))
	for i := range fingerprints {
		out[i] = fingerprints[i].format
	}
	return out
}

// Paths returns the fingerprint paths for a format, or nil for formats only
// reachable through heuristics.
func Paths(format Format) []string {
	for i := range fingerprints {
		if fingerprints[i].format == format {
			paths := make([]string, len(fingerprints[i].paths))
			copy(paths, fingerprints[i].paths)
			return paths
		}
	}
	return nil
}
