package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `gitlink keeps a registry of local git projects and links each one to a GitHub account with the OAuth device flow.

- Project: a worktree path plus settings. get_project shows effective values, so unset options appear with their defaults.
- Link flow: start_link returns a user_code and verification_uri. The user enters the code in a browser while you call poll_link every interval_seconds until state is linked or abandoned.
- init_device_oauth and check_auth_status are the raw device flow for callers that manage tokens themselves.

Docs:
- gitlink://docs/linking
- gitlink://docs/project-settings
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "gitlink://docs/linking",
		Name:        "docs_linking",
		Title:       "Linking a project to GitHub",
		Description: "Device flow walkthrough: codes, polling cadence and terminal states.",
		Content: `# Linking a project to GitHub

1. ` + "`start_link`" + ` with the project id. Show ` + "`user_code`" + ` and ` + "`verification_uri`" + ` to the user.
2. Call ` + "`poll_link`" + ` with the returned ` + "`flow_id`" + `. Wait ` + "`interval_seconds`" + ` between calls; GitHub answers
   slow_down when polled too often and the interval grows.
3. Stop when ` + "`state`" + ` is ` + "`linked`" + ` (the token is stored in the system keyring and ` + "`login`" + ` names the
   account) or ` + "`abandoned`" + ` (see ` + "`reason`" + `).

Flows are abandoned when the user declines, when the code expires, or after too many pending answers.
Call ` + "`abandon_link`" + ` when the user gives up. ` + "`unlink_project`" + ` removes a stored token.

## States

| state | meaning |
|---|---|
| not_started | no flow was started for the project |
| awaiting_user | code issued, waiting for the user |
| linked | token granted and stored |
| abandoned | no token; start a new flow to retry |

## Raw device flow

` + "`init_device_oauth`" + ` returns ` + "`user_code`" + ` and ` + "`device_code`" + `. ` + "`check_auth_status`" + ` with the device code returns
` + "`status: pending`" + ` or ` + "`status: granted`" + ` with ` + "`access_token`" + `. Failures are tool errors with a code such as
` + "`DEVICE_CODE_EXPIRED`" + ` or ` + "`ACCESS_DENIED`" + `.
`,
	},
	{
		URI:         "gitlink://docs/project-settings",
		Name:        "docs_project_settings",
		Title:       "Project settings",
		Description: "Stored project options and the defaults used when they are unset.",
		Content: `# Project settings

| field | default |
|---|---|
| preferred_key | systemExecutable |
| ok_with_force_push | true |
| omit_certificate_check | false |
| snapshot_lines_threshold | 20 |
| use_new_locking | true |
| ignore_project_semaphore | false |

` + "`preferred_key`" + ` is one of gitCredentialsHelper, systemExecutable or local. The local key needs
` + "`private_key_path`" + `. Projects saved with a key kind that no longer exists report ` + "`legacy_key`" + ` and use
systemExecutable.

` + "`sync_enabled`" + ` and ` + "`has_code_url`" + ` come from the backend linkage set with ` + "`update_project`" + `'s ` + "`api`" + ` field.
` + "`state_directory`" + ` is always ` + "`<worktree>/.git/gitbutler`" + `.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
