package git

import (
	"fmt"
	"strings"

	"github.com/birdtracker/birdtracker/pkg/core"
)

// CommitType constants for semantic commits
const (
	CommitTypeFeat  = "feat"
	CommitTypeFix   = "fix"
	CommitTypeChore = "chore"
)

// ShipScope is the conventional commit scope used for illustration commits.
const ShipScope = "birds"

// FormatCommitMessage builds a Conventional Commit message:
//
//	<type>(<scope>): <subject>
//
//	<body>
func FormatCommitMessage(ctype, scope, subject, body string) string {
	var sb strings.Builder

	if ctype == "" {
		ctype = CommitTypeChore
	}
	sb.WriteString(ctype)

	if scope != "" {
		sb.WriteString("(")
		sb.WriteString(scope)
		sb.WriteString(")")
	}

	sb.WriteString(": ")
	sb.WriteString(subject)

	if body = strings.TrimSpace(body); body != "" {
		sb.WriteString("\n\n")
		sb.WriteString(body)
	}

	return sb.String()
}

// ShipMessage describes the illustrations added by a build. An empty list
// yields a chore commit for asset repairs and version bumps.
func ShipMessage(processed []core.ProcessResult, version core.Version) string {
	if len(processed) == 0 {
		return FormatCommitMessage(CommitTypeChore, ShipScope, "rebuild assets ("+version.String()+")", "")
	}

	names := make([]string, 0, len(processed))
	var body strings.Builder
	for _, p := range processed {
		name := p.Name
		if name == "" {
			name = p.BaseName
		}
		names = append(names, name)
		fmt.Fprintf(&body, "- %s: %s\n", p.BaseName, name)
	}
	fmt.Fprintf(&body, "\nVersion: %s", version.String())

	return FormatCommitMessage(CommitTypeFeat, ShipScope, "add "+strings.Join(names, ", "), body.String())
}
