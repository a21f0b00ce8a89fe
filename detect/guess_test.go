package detect

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, text string) map[string]interface{} {
	t.Helper()
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &doc))
	return doc
}

func TestGuessKnownFormats(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Format
	}{
		{
			name: "sarif",
			text: `{"$schema":"https://json.schemastore.org/sarif-2.1.0.json","version":"2.1.0","runs":[]}`,
			want: FormatSarif,
		},
		{
			name: "snyk",
			text: `{"projectName":"web","policy":"...","summary":"3 issues","vulnerabilities":[]}`,
			want: FormatSnyk,
		},
		{
			name: "asff with nested product arn",
			text: `{"Findings":[{"ProductArn":"arn:aws:securityhub:us-east-1::product/aws/securityhub"}]}`,
			want: FormatASFF,
		},
		{
			name: "fortify",
			text: `{"FVDL":{"UUID":"e1e3","EngineData":{"EngineVersion":"20.2"}}}`,
			want: FormatFortify,
		},
		{
			name: "twistlock indexed results",
			text: `{"results":[{"complianceDistribution":{"critical":0}}],"consoleURL":"https://console.test"}`,
			want: FormatTwistlock,
		},
		{
			name: "zap at-keys",
			text: `{"@generated":"Tue","@version":"2.11","site":[]}`,
			want: FormatZap,
		},
		{
			name: "nikto",
			text: `{"banner":"Apache","host":"example.test","ip":"10.0.0.1","port":"443","vulnerabilities":[]}`,
			want: FormatNikto,
		},
		{
			name: "prisma",
			text: `{"complianceDistribution":{},"vulnerabilityDistribution":{},"hostname":"node-1"}`,
			want: FormatPrisma,
		},
		{
			name: "trufflehog",
			text: `{"SourceMetadata":{},"SourceID":1,"DetectorType":2}`,
			want: FormatTruffleHog,
		},
		{
			name: "ionchannel",
			text: `{"analysis_id":"a","team_id":"t","source":"git","trigger_hash":"h"}`,
			want: FormatIonChannel,
		},
		{
			name: "jfrog",
			text: `{"total_count":4,"data":[]}`,
			want: FormatJFrog,
		},
		{
			name: "conveyor",
			text: `{"api_error_message":null,"api_response":"{}"}`,
			want: FormatConveyor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Guess(parseDoc(t, tt.text)))
		})
	}
}

func TestGuessHigherCountWins(t *testing.T) {
	// One nikto path resolves but all three sarif paths do, so sarif wins
	// even though nikto appears first in the table.
	doc := parseDoc(t, `{"vulnerabilities":[],"$schema":"s","version":"2.1.0","runs":[]}`)
	assert.Equal(t, FormatSarif, Guess(doc))
}

func TestGuessTieGoesToEarlierEntry(t *testing.T) {
	// jfrog and sarif each resolve exactly one path; jfrog is declared
	// first and keeps the win.
	doc := parseDoc(t, `{"data":[],"version":"2.1.0"}`)
	assert.Equal(t, FormatJFrog, Guess(doc))
}

func TestGuessAlwaysAnswers(t *testing.T) {
	// Nothing resolves, every format scores zero, and the first table
	// entry is returned. The guesser has no "no match" outcome.
	assert.Equal(t, FormatASFF, Guess(map[string]interface{}{}))
	assert.Equal(t, FormatASFF, Guess(parseDoc(t, `{"unrelated":true}`)))
	assert.Equal(t, FormatASFF, Guess(nil))
}

func TestGuessPartialBeatsNothing(t *testing.T) {
	// A single resolving path is enough when no other format scores.
	doc := parseDoc(t, `{"consoleURL":"https://console.test"}`)
	assert.Equal(t, FormatTwistlock, Guess(doc))
}

func TestScores(t *testing.T) {
	doc := parseDoc(t, `{"$schema":"s","version":"2.1.0","runs":[],"vulnerabilities":[]}`)
	scores := Scores(doc)
	require.Len(t, scores, len(fingerprints))

	byFormat := make(map[Format]Score, len(scores))
	for _, s := range scores {
		byFormat[s.Format] = s
	}

	assert.Equal(t, 3, byFormat[FormatSarif].Matched)
	assert.Equal(t, 3, byFormat[FormatSarif].Total)
	assert.ElementsMatch(t, []string{"$schema", "version", "runs"}, byFormat[FormatSarif].Paths)

	assert.Equal(t, 1, byFormat[FormatNikto].Matched)
	assert.Equal(t, 5, byFormat[FormatNikto].Total)

	assert.Equal(t, 0, byFormat[FormatFortify].Matched)
	assert.Empty(t, byFormat[FormatFortify].Paths)
}

func TestFingerprinted(t *testing.T) {
	formats := Fingerprinted()
	require.Len(t, formats, 12)
	assert.Equal(t, FormatASFF, formats[0])
	assert.Equal(t, FormatZap, formats[11])
}

func TestPathsLookup(t *testing.T) {
	assert.Equal(t, []string{"$schema", "version", "runs"}, Paths(FormatSarif))
	assert.Nil(t, Paths(FormatNessus))
}
