package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `breakwatch records badge scans and reports how long each person's break lasted.

Core concepts:
- Scan: one badge reading with a timestamp and a success/error status.
- Identity: a registered person (name, numeric external reference, badge code).
- Interval record: all scans of one badge on one calendar day; the interval is first to last scan.
- Observation: the grade of a record (normal, long break, too short, single reading).

Typical workflow:
1) Record scans with record_scan (or restore a backup with restore_backup).
2) Register people with register_identity so reports show names instead of "unregistered".
3) Inspect with analyze (per-record observations) or get_dashboard (long breaks, trend, distribution).
4) Export with export_report, export_long_breaks_csv, export_history_csv or export_backup.
5) Keep devices in step with configure_sync, then sync_push / sync_pull.

Docs:
- breakwatch://docs/index
- breakwatch://docs/classification
- breakwatch://docs/backup-format
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
		URI:         "breakwatch://docs/index",
		Name:        "docs_index",
		Title:       "breakwatch docs index",
		Description: "Entry point: what the tools do and which doc to read next.",
		Content: `# breakwatch: Docs Index

## Tools by area

- Scans: record_scan, list_scans, clear_scans
- Identities: register_identity, update_identity, delete_identity, get_identity, list_identities
- Analysis: analyze, get_dashboard
- Export: export_report, export_long_breaks_csv, export_history_csv, export_backup, restore_backup
- Sync: get_sync_config, configure_sync, set_auto_sync, disconnect_sync, sync_push, sync_pull
- Activity: get_recent_activity

## Read next

- breakwatch://docs/classification for how intervals are graded.
- breakwatch://docs/backup-format before calling restore_backup.

## Errors

Failed tool calls return a JSON object with code, message, optional details
and a recovery_hint. Validation problems use VALIDATION_FAILED; malformed
backups use DECODE_ERROR and leave all data unchanged.
`,
	},
	{
		URI:         "breakwatch://docs/classification",
		Name:        "docs_classification",
		Title:       "Interval classification",
		Description: "How scans are grouped into daily records and how each record is graded.",
		Content: `# Interval classification

Scans are grouped by badge code (ignoring case) and calendar day in the
server time zone. Within a group scans are ordered by time; the interval is
the time from the first to the last scan, rounded to whole minutes with
halves rounding up.

| Readings | Interval        | Observation            |
|----------|-----------------|------------------------|
| 1        | -               | warning: only one reading |
| 2+       | < 25 min        | error: too short (possible misread) |
| 2+       | 25 to 40 min    | success: normal interval |
| 2+       | > 40 min        | warning: long interval |

Scans with status "error" still count as readings.

## Dashboard figures

- Long breaks: records over 40 minutes, longest first.
- Daily trend: one row per day of the window ending today, counting records with an interval.
- Distribution: < 25, 25-40, 41-60 and > 60 minutes.
- Average interval: mean of all intervals, rounded.
`,
	},
	{
		URI:         "breakwatch://docs/backup-format",
		Name:        "docs_backup_format",
		Title:       "Backup document format",
		Description: "JSON layout accepted by restore_backup and produced by export_backup.",
		Content: `# Backup document format

` + "```json" + `
{
  "events": [{"id": "...", "badgeCode": "A1", "timestamp": "2024-03-09T12:00:00Z", "status": "success"}],
  "identities": [{"id": "...", "name": "Ana", "externalRef": "100", "badgeCode": "A1"}],
  "syncConfig": {"endpointUrl": "https://host/backup.json", "autoSync": false, "syncInterval": 30},
  "exportedAt": "2024-03-10T18:00:00Z",
  "version": "1.0"
}
` + "```" + `

## Restore rules

- Each of events, identities and syncConfig is optional; at least one must be present.
- A present section replaces the local section entirely, even when empty.
- An absent or null section leaves local data untouched.
- The whole document is validated before anything is written. Any error
  (bad timestamp, duplicate id, non-numeric externalRef, duplicate badge)
  is reported with its JSON path and nothing changes.
- sync_pull applies events and identities but never replaces local sync settings.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

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
