package event

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event type values carried in the X-GitHub-Event header.
const (
	typePush        = "push"
	typePullRequest = "pull_request"
)

// unknownAuthor is the fallback when the payload carries no usable identity.
const unknownAuthor = "unknown"

// branchRefPrefix is stripped from push refs to obtain the bare branch name.
const branchRefPrefix = "refs/heads/"

// pushPayload covers the fields of a push delivery we extract.
type pushPayload struct {
	Ref    string `json:"ref"`
	Pusher struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"pusher"`
}

type ghUser struct {
	Login string `json:"login"`
}

type ghBranch struct {
	Ref string `json:"ref"`
}

// pullRequestPayload covers the fields of a pull_request delivery we extract.
type pullRequestPayload struct {
	Action      string `json:"action"`
	PullRequest struct {
		Merged   bool     `json:"merged"`
		User     *ghUser  `json:"user"`
		MergedBy *ghUser  `json:"merged_by"`
		Head     ghBranch `json:"head"`
		Base     ghBranch `json:"base"`
	} `json:"pull_request"`
}

// Normalize maps a raw webhook payload to a canonical Event.
//
// eventType is the X-GitHub-Event header value. A nil Event with a nil
// error means the delivery is not a tracked event type; the caller should
// acknowledge without persisting. A non-nil error means the payload could
// not be parsed at all.
//
// For pull_request deliveries the merged-and-closed case is checked before
// the generic {opened, closed, reopened} set, so a merged close yields
// MERGE and an unmerged close yields PULL_REQUEST.
//
// RequestID, Timestamp, and CreatedAt are left empty for the caller to fill.
func Normalize(eventType string, payload []byte) (*Event, error) {
	switch eventType {
	case typePush:
		return normalizePush(payload)
	case typePullRequest:
		return normalizePullRequest(payload)
	default:
		return nil, nil
	}
}

func normalizePush(payload []byte) (*Event, error) {
	var p pushPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("parse push payload: %w", err)
	}

	author := p.Pusher.Name
	if author == "" {
		author = p.Pusher.Email
	}
	if author == "" {
		author = unknownAuthor
	}

	return &Event{
		Author:     author,
		Action:     ActionPush,
		FromBranch: nil,
		ToBranch:   strings.TrimPrefix(p.Ref, branchRefPrefix),
	}, nil
}

func normalizePullRequest(payload []byte) (*Event, error) {
	var p pullRequestPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("parse pull_request payload: %w", err)
	}

	action := strings.ToLower(p.Action)

	from := orUnknown(p.PullRequest.Head.Ref)
	to := orUnknown(p.PullRequest.Base.Ref)

	if action == "closed" && p.PullRequest.Merged {
		return &Event{
			Author:     loginOrUnknown(p.PullRequest.MergedBy),
			Action:     ActionMerge,
			FromBranch: &from,
			ToBranch:   to,
		}, nil
	}

	switch action {
	case "opened", "closed", "reopened":
		return &Event{
			Author:     loginOrUnknown(p.PullRequest.User),
			Action:     ActionPullRequest,
			FromBranch: &from,
			ToBranch:   to,
		}, nil
	}

	return nil, nil
}

func orUnknown(s string) string {
	if s == "" {
		return unknownAuthor
	}
	return s
}

func loginOrUnknown(u *ghUser) string {
	if u == nil || u.Login == "" {
		return unknownAuthor
	}
	return u.Login
}
