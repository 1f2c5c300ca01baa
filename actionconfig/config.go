// Package actionconfig loads the YAML configuration that binds an
// action's logical name, QoS profile choice, and DDS ServiceMapping,
// so a deployment can retune these without a recompile.
package actionconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ros2go/ros2action/qos"
	"github.com/ros2go/ros2action/wireid"
)

// QosProfile names one of the built-in qos.Policies constructors.
type QosProfile string

const (
	ProfileServiceEndpoint  QosProfile = "service_endpoint"
	ProfileFeedbackPublisher QosProfile = "feedback_publisher"
	ProfileStatusPublisher  QosProfile = "status_publisher"
)

// resolve maps a profile name to the qos.Policies it names; an empty
// name selects the service-endpoint profile. Overrides from the fields
// set alongside the profile are applied by EndpointConfig.resolve.
func (p QosProfile) resolve() (qos.Policies, error) {
	switch p {
	case ProfileServiceEndpoint, "":
		return qos.ServiceEndpoint(), nil
	case ProfileFeedbackPublisher:
		return qos.FeedbackPublisher(), nil
	case ProfileStatusPublisher:
		return qos.StatusPublisher(), nil
	default:
		return qos.Policies{}, fmt.Errorf("actionconfig: unknown qos profile %q", p)
	}
}

// EndpointConfig is the YAML shape for one QoS-carrying endpoint.
type EndpointConfig struct {
	Profile         QosProfile `yaml:"profile"`
	Depth           int        `yaml:"depth,omitempty"`
	MaxBlockingTime string     `yaml:"max_blocking_time,omitempty"`
}

func (e EndpointConfig) resolve() (qos.Policies, error) {
	policies, err := e.Profile.resolve()
	if err != nil {
		return qos.Policies{}, err
	}
	if e.Depth > 0 {
		policies.Depth = e.Depth
	}
	if e.MaxBlockingTime != "" {
		d, err := time.ParseDuration(e.MaxBlockingTime)
		if err != nil {
			return qos.Policies{}, errors.Wrapf(err, "actionconfig: max_blocking_time %q", e.MaxBlockingTime)
		}
		policies.MaxBlockingTime = d
	}
	return policies, nil
}

// ActionConfig is the YAML configuration for a single mounted action.
type ActionConfig struct {
	Name    string         `yaml:"name"`
	Mapping string         `yaml:"mapping,omitempty"` // "basic" | "enhanced" | "cyclone"
	Goal    EndpointConfig `yaml:"goal"`
	Cancel  EndpointConfig `yaml:"cancel"`
	Result  EndpointConfig `yaml:"result"`

	Feedback EndpointConfig `yaml:"feedback"`
	Status   EndpointConfig `yaml:"status"`
}

// File is the top-level document: a namespace prefix applied to every
// action name, plus the list of actions mounted under it.
type File struct {
	NamespacePrefix string         `yaml:"namespace_prefix,omitempty"`
	Actions         []ActionConfig `yaml:"actions"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "actionconfig: reading %s", path)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "actionconfig: parsing %s", path)
	}
	return &f, nil
}

// ResolvedAction is an ActionConfig with its namespace prefix applied
// and every QoS profile resolved into concrete policies.
type ResolvedAction struct {
	Name           string
	Mapping        wireid.ServiceMapping
	ServerPolicies qos.ActionServerQosPolicies
	ClientPolicies qos.ActionClientQosPolicies
}

func parseMapping(s string) (wireid.ServiceMapping, error) {
	switch s {
	case "", "basic":
		return wireid.Basic, nil
	case "enhanced":
		return wireid.Enhanced, nil
	case "cyclone":
		return wireid.Cyclone, nil
	default:
		return 0, fmt.Errorf("actionconfig: unknown service mapping %q", s)
	}
}

// Resolve expands every ActionConfig in f into a ResolvedAction.
func (f *File) Resolve() ([]ResolvedAction, error) {
	out := make([]ResolvedAction, 0, len(f.Actions))
	for _, a := range f.Actions {
		mapping, err := parseMapping(a.Mapping)
		if err != nil {
			return nil, err
		}

		goalP, err := a.Goal.resolve()
		if err != nil {
			return nil, err
		}
		cancelP, err := a.Cancel.resolve()
		if err != nil {
			return nil, err
		}
		resultP, err := a.Result.resolve()
		if err != nil {
			return nil, err
		}
		feedbackP, err := a.Feedback.resolve()
		if err != nil {
			return nil, err
		}
		statusP, err := a.Status.resolve()
		if err != nil {
			return nil, err
		}

		out = append(out, ResolvedAction{
			Name:    f.NamespacePrefix + a.Name,
			Mapping: mapping,
			ServerPolicies: qos.ActionServerQosPolicies{
				GoalService:       goalP,
				CancelService:     cancelP,
				ResultService:     resultP,
				FeedbackPublisher: feedbackP,
				StatusPublisher:   statusP,
			},
			ClientPolicies: qos.ActionClientQosPolicies{
				GoalService:          goalP,
				CancelService:        cancelP,
				ResultService:        resultP,
				FeedbackSubscription: feedbackP,
				StatusSubscription:   statusP,
			},
		})
	}
	return out, nil
}
