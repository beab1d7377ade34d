package remote

import (
	"fmt"
	"strings"
)

// Resource schemes recognized by ParseResource.
const (
	SchemeBoss = "bossdb"
	SchemeOCP  = "ocp"
	SchemeDVID = "dvid"
)

// Resource addresses one channel of one remote dataset.  Which fields are used depends
// on the scheme: collection, experiment and channel for the Boss; a project token and
// channel for OCP; a version UUID and data instance name for DVID.
type Resource struct {
	Scheme string

	Collection string
	Experiment string
	Channel    string

	Token string

	UUID string
	Name string
}

// BossResource returns a Boss channel resource.
func BossResource(collection, experiment, channel string) Resource {
	return Resource{Scheme: SchemeBoss, Collection: collection, Experiment: experiment, Channel: channel}
}

// OCPResource returns an OCP project channel resource.
func OCPResource(token, channel string) Resource {
	return Resource{Scheme: SchemeOCP, Token: token, Channel: channel}
}

// DVIDResource returns a DVID data instance resource.
func DVIDResource(uuid, name string) Resource {
	return Resource{Scheme: SchemeDVID, UUID: uuid, Name: name}
}

func (r Resource) String() string {
	switch r.Scheme {
	case SchemeBoss:
		return fmt.Sprintf("%s://%s/%s/%s", r.Scheme, r.Collection, r.Experiment, r.Channel)
	case SchemeOCP:
		return fmt.Sprintf("%s://%s/%s", r.Scheme, r.Token, r.Channel)
	case SchemeDVID:
		return fmt.Sprintf("%s://%s/%s", r.Scheme, r.UUID, r.Name)
	default:
		return fmt.Sprintf("%s://?", r.Scheme)
	}
}

// ParseResource parses strings like "bossdb://coll/exp/chan", "ocp://token/channel"
// or "dvid://uuid/name".
func ParseResource(s string) (Resource, error) {
	i := strings.Index(s, "://")
	if i < 0 {
		return Resource{}, fmt.Errorf("resource %q has no scheme", s)
	}
	scheme := s[:i]
	parts := strings.Split(strings.Trim(s[i+3:], "/"), "/")
	for _, part := range parts {
		if part == "" {
			return Resource{}, fmt.Errorf("resource %q has an empty path element", s)
		}
	}
	switch scheme {
	case SchemeBoss:
		if len(parts) != 3 {
			return Resource{}, fmt.Errorf("boss resource %q must be %s://collection/experiment/channel", s, SchemeBoss)
		}
		return BossResource(parts[0], parts[1], parts[2]), nil
	case SchemeOCP:
		if len(parts) != 2 {
			return Resource{}, fmt.Errorf("ocp resource %q must be %s://token/channel", s, SchemeOCP)
		}
		return OCPResource(parts[0], parts[1]), nil
	case SchemeDVID:
		if len(parts) != 2 {
			return Resource{}, fmt.Errorf("dvid resource %q must be %s://uuid/name", s, SchemeDVID)
		}
		return DVIDResource(parts[0], parts[1]), nil
	default:
		return Resource{}, fmt.Errorf("unknown resource scheme %q in %q", scheme, s)
	}
}

// parseScheme parses s and checks it has the expected scheme.
func parseScheme(s, scheme string) (Resource, error) {
	r, err := ParseResource(s)
	if err != nil {
		return r, err
	}
	if r.Scheme != scheme {
		return Resource{}, fmt.Errorf("expected %s:// resource, got %q", scheme, s)
	}
	return r, nil
}

func checkScheme(r Resource, scheme string) error {
	if r.Scheme != scheme {
		return fmt.Errorf("resource %s cannot be served by a %s service", r, scheme)
	}
	return nil
}
