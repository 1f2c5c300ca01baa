package actionconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ros2go/ros2action/actionconfig"
	"github.com/ros2go/ros2action/qos"
	"github.com/ros2go/ros2action/wireid"
)

const sampleYAML = `
namespace_prefix: /robot1
actions:
  - name: /fibonacci
    mapping: cyclone
    goal:
      profile: service_endpoint
      max_blocking_time: 250ms
    cancel:
      profile: service_endpoint
    result:
      profile: service_endpoint
    feedback:
      profile: feedback_publisher
      depth: 20
    status:
      profile: status_publisher
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "actions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAndResolve(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)

	f, err := actionconfig.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/robot1", f.NamespacePrefix)
	require.Len(t, f.Actions, 1)

	resolved, err := f.Resolve()
	require.NoError(t, err)
	require.Len(t, resolved, 1)

	a := resolved[0]
	assert.Equal(t, "/robot1/fibonacci", a.Name)
	assert.Equal(t, wireid.Cyclone, a.Mapping)
	assert.Equal(t, 250e6, float64(a.ServerPolicies.GoalService.MaxBlockingTime))
	assert.Equal(t, 20, a.ServerPolicies.FeedbackPublisher.Depth)
	assert.Equal(t, qos.Reliable, a.ServerPolicies.StatusPublisher.Reliability)
}

func TestResolveRejectsUnknownMapping(t *testing.T) {
	path := writeTempConfig(t, `
actions:
  - name: /bad
    mapping: quantum
    goal: {profile: service_endpoint}
    cancel: {profile: service_endpoint}
    result: {profile: service_endpoint}
    feedback: {profile: feedback_publisher}
    status: {profile: status_publisher}
`)
	f, err := actionconfig.Load(path)
	require.NoError(t, err)

	_, err = f.Resolve()
	assert.Error(t, err)
}

func TestResolveRejectsUnknownProfile(t *testing.T) {
	path := writeTempConfig(t, `
actions:
  - name: /bad
    goal: {profile: nonexistent}
    cancel: {profile: service_endpoint}
    result: {profile: service_endpoint}
    feedback: {profile: feedback_publisher}
    status: {profile: status_publisher}
`)
	f, err := actionconfig.Load(path)
	require.NoError(t, err)

	_, err = f.Resolve()
	assert.Error(t, err)
}

func TestDefaultMappingIsBasic(t *testing.T) {
	path := writeTempConfig(t, `
actions:
  - name: /plain
    goal: {profile: service_endpoint}
    cancel: {profile: service_endpoint}
    result: {profile: service_endpoint}
    feedback: {profile: feedback_publisher}
    status: {profile: status_publisher}
`)
	f, err := actionconfig.Load(path)
	require.NoError(t, err)

	resolved, err := f.Resolve()
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, wireid.Basic, resolved[0].Mapping)
	assert.Equal(t, "/plain", resolved[0].Name)
}
