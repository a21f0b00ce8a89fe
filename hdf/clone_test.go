package hdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildExecution() *Execution {
	title := "SSH checks"
	return &Execution{
		Platform:   Platform{Name: "ubuntu", Release: "22.04"},
		Version:    "5.22.3",
		Statistics: Statistics{Duration: 2.5},
		Passthrough: map[string]interface{}{
			"raw": map[string]interface{}{"scanner": "inspec"},
		},
		Profiles: []Profile{
			{
				Name:       "ssh-baseline",
				Sha256:     "deadbeef",
				Supports:   []map[string]string{{"platform": "unix"}},
				Attributes: []map[string]interface{}{{"name": "port", "value": float64(22)}},
				Groups:     []ControlGroup{{ID: "controls/sshd.rb", Title: &title, Controls: []string{"sshd-01"}}},
				Controls: []Control{
					{
						ID:     "sshd-01",
						Impact: 1.0,
						Tags:   map[string]interface{}{"severity": "high", "nist": []interface{}{"AC-17"}},
						Refs:   []Reference{{URL: "https://example.test/sshd"}},
						Results: []ControlResult{
							{Status: "passed", CodeDesc: "protocol is 2", Backtrace: []string{"frame-0"}},
						},
					},
				},
			},
		},
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := buildExecution()
	clone := original.Clone()

	require.NotSame(t, original, clone)
	assert.Equal(t, original, clone)

	// Mutate every nested layer of the clone.
	clone.Platform.Name = "debian"
	clone.Passthrough["raw"].(map[string]interface{})["scanner"] = "other"
	clone.Profiles[0].Name = "changed"
	clone.Profiles[0].Supports[0]["platform"] = "windows"
	clone.Profiles[0].Attributes[0]["value"] = float64(2222)
	*clone.Profiles[0].Groups[0].Title = "changed title"
	clone.Profiles[0].Groups[0].Controls[0] = "other-01"
	clone.Profiles[0].Controls[0].Tags["severity"] = "low"
	clone.Profiles[0].Controls[0].Tags["nist"].([]interface{})[0] = "AC-99"
	clone.Profiles[0].Controls[0].Results[0].Status = "failed"
	clone.Profiles[0].Controls[0].Results[0].Backtrace[0] = "frame-9"

	// The original is untouched.
	assert.Equal(t, "ubuntu", original.Platform.Name)
	assert.Equal(t, "inspec", original.Passthrough["raw"].(map[string]interface{})["scanner"])
	assert.Equal(t, "ssh-baseline", original.Profiles[0].Name)
	assert.Equal(t, "unix", original.Profiles[0].Supports[0]["platform"])
	assert.Equal(t, float64(22), original.Profiles[0].Attributes[0]["value"])
	assert.Equal(t, "SSH checks", *original.Profiles[0].Groups[0].Title)
	assert.Equal(t, "sshd-01", original.Profiles[0].Groups[0].Controls[0])
	assert.Equal(t, "high", original.Profiles[0].Controls[0].Tags["severity"])
	assert.Equal(t, "AC-17", original.Profiles[0].Controls[0].Tags["nist"].([]interface{})[0])
	assert.Equal(t, "passed", original.Profiles[0].Controls[0].Results[0].Status)
	assert.Equal(t, "frame-0", original.Profiles[0].Controls[0].Results[0].Backtrace[0])
}

func TestCloneNil(t *testing.T) {
	var exec *Execution
	assert.Nil(t, exec.Clone())

	var profile *Profile
	assert.Nil(t, profile.Clone())

	var control *Control
	assert.Nil(t, control.Clone())
}

func TestClonePreservesNilSlices(t *testing.T) {
	// A minimal execution keeps nil slices nil so JSON round-trips match.
	exec := &Execution{Version: "1.0"}
	clone := exec.Clone()
	assert.Nil(t, clone.Profiles)
	assert.Nil(t, clone.Passthrough)
}

func TestResultCounts(t *testing.T) {
	exec := buildExecution()
	exec.Profiles[0].Controls = append(exec.Profiles[0].Controls, Control{ID: "sshd-02"})
	exec.Profiles[0].Controls = append(exec.Profiles[0].Controls, Control{
		ID:      "sshd-03",
		Results: []ControlResult{{Status: "failed"}, {Status: "passed"}},
	})

	counts := exec.ResultCounts()
	assert.Equal(t, 2, counts["passed"])
	assert.Equal(t, 1, counts["failed"])
	assert.Equal(t, 1, counts["no_result"])
}

func TestControlCount(t *testing.T) {
	exec := buildExecution()
	assert.Equal(t, 1, exec.ControlCount())

	exec.Profiles = append(exec.Profiles, Profile{
		Name:     "overlay",
		Controls: []Control{{ID: "a"}, {ID: "b"}},
	})
	assert.Equal(t, 3, exec.ControlCount())
}

func TestDisplayTitle(t *testing.T) {
	p := &Profile{Name: "ssh-baseline"}
	assert.Equal(t, "ssh-baseline", p.DisplayTitle())

	p.Title = "SSH Server Baseline"
	assert.Equal(t, "SSH Server Baseline", p.DisplayTitle())
}
