package backup

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rpggio/breakwatch/internal/analysis"
	"github.com/rpggio/breakwatch/internal/domain/identity"
	"github.com/rpggio/breakwatch/internal/domain/scan"
	"github.com/rpggio/breakwatch/internal/domain/syncconfig"
)

// maxDocumentBytes bounds restore input.
const maxDocumentBytes = 64 << 20

var digitsRe = regexp.MustCompile(`^[0-9]+$`)

// EncodeBackup writes doc as indented JSON.
func EncodeBackup(w io.Writer, doc *BackupDocument) error {
	return encodeJSON(w, doc)
}

// EncodeReport writes doc as indented JSON.
func EncodeReport(w io.Writer, doc *ReportDocument) error {
	return encodeJSON(w, doc)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return nil
}

// WriteLongBreaksCSV writes one row per long break. Every row's status is
// "long interval".
func WriteLongBreaksCSV(w io.Writer, records []analysis.IntervalRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Employee", "Date", "Interval (minutes)", "Status"}); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write([]string{
			rec.EmployeeName,
			rec.Day.String(),
			strconv.Itoa(rec.Minutes()),
			"long interval",
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type rawEvent struct {
	ID        string `json:"id"`
	BadgeCode string `json:"badgeCode"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}

type rawIdentity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ExternalRef string `json:"externalRef"`
	BadgeCode   string `json:"badgeCode"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type rawSyncConfig struct {
	EndpointURL  string  `json:"endpointUrl"`
	AutoSync     bool    `json:"autoSync"`
	SyncInterval *int    `json:"syncInterval"`
	LastSync     *string `json:"lastSync"`
}

// DecodeBackup parses and validates a backup document completely. Any
// problem yields a *DecodeError; nothing is returned partially.
func DecodeBackup(r io.Reader) (ReplaceSet, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDocumentBytes+1))
	if err != nil {
		return ReplaceSet{}, fmt.Errorf("reading backup document: %w", err)
	}
	if len(data) > maxDocumentBytes {
		return ReplaceSet{}, decodeErr("$", "document exceeds %d bytes", maxDocumentBytes)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return ReplaceSet{}, decodeErr("$", "document must be a JSON object")
	}

	var set ReplaceSet
	if raw, ok := present(top, "events"); ok {
		events, err := decodeEvents(raw)
		if err != nil {
			return ReplaceSet{}, err
		}
		set.Events = &events
	}
	if raw, ok := present(top, "identities"); ok {
		idents, err := decodeIdentities(raw)
		if err != nil {
			return ReplaceSet{}, err
		}
		set.Identities = &idents
	}
	if raw, ok := present(top, "syncConfig"); ok {
		cfg, err := decodeSyncConfig(raw)
		if err != nil {
			return ReplaceSet{}, err
		}
		set.SyncConfig = &cfg
	}
	if raw, ok := present(top, "version"); ok {
		var version string
		if err := json.Unmarshal(raw, &version); err != nil {
			return ReplaceSet{}, decodeErr("version", "must be a string")
		}
	}
	if set.Empty() {
		return ReplaceSet{}, decodeErr("$", "document has none of events, identities, syncConfig")
	}
	return set, nil
}

func present(top map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := top[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func decodeElements(raw json.RawMessage, section string) ([]json.RawMessage, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, decodeErr(section, "must be an array")
	}
	return elems, nil
}

func unmarshalElement(raw json.RawMessage, path string, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return decodeErr(path+"."+typeErr.Field, "must be a %s", typeErr.Type)
		}
		return decodeErr(path, "must be an object")
	}
	return nil
}

func decodeEvents(raw json.RawMessage) ([]scan.Event, error) {
	elems, err := decodeElements(raw, "events")
	if err != nil {
		return nil, err
	}
	events := make([]scan.Event, 0, len(elems))
	seen := make(map[string]struct{}, len(elems))
	for i, elem := range elems {
		path := fmt.Sprintf("events[%d]", i)
		var re rawEvent
		if err := unmarshalElement(elem, path, &re); err != nil {
			return nil, err
		}
		id := strings.TrimSpace(re.ID)
		if id == "" {
			return nil, decodeErr(path+".id", "is required")
		}
		if _, dup := seen[id]; dup {
			return nil, decodeErr(path+".id", "duplicates an earlier event")
		}
		seen[id] = struct{}{}

		badge := scan.NormalizeBadgeCode(re.BadgeCode)
		if badge == "" {
			return nil, decodeErr(path+".badgeCode", "is required")
		}
		ts, err := time.Parse(time.RFC3339Nano, re.Timestamp)
		if err != nil {
			return nil, decodeErr(path+".timestamp", "must be an RFC 3339 timestamp")
		}
		status := scan.Status(re.Status)
		if status == "" {
			status = scan.StatusSuccess
		}
		if !status.Valid() {
			return nil, decodeErr(path+".status", "must be success or error")
		}
		events = append(events, scan.Event{ID: id, BadgeCode: badge, Timestamp: ts, Status: status})
	}
	return events, nil
}

func decodeIdentities(raw json.RawMessage) ([]identity.Identity, error) {
	elems, err := decodeElements(raw, "identities")
	if err != nil {
		return nil, err
	}
	idents := make([]identity.Identity, 0, len(elems))
	ids := map[string]struct{}{}
	refs := map[string]struct{}{}
	badges := map[string]struct{}{}
	for i, elem := range elems {
		path := fmt.Sprintf("identities[%d]", i)
		var ri rawIdentity
		if err := unmarshalElement(elem, path, &ri); err != nil {
			return nil, err
		}
		ident := identity.Identity{
			ID:          strings.TrimSpace(ri.ID),
			Name:        strings.TrimSpace(ri.Name),
			ExternalRef: strings.TrimSpace(ri.ExternalRef),
			BadgeCode:   identity.NormalizeBadgeCode(ri.BadgeCode),
		}
		switch {
		case ident.ID == "":
			return nil, decodeErr(path+".id", "is required")
		case ident.Name == "":
			return nil, decodeErr(path+".name", "is required")
		case !digitsRe.MatchString(ident.ExternalRef):
			return nil, decodeErr(path+".externalRef", "must contain only digits")
		case ident.BadgeCode == "":
			return nil, decodeErr(path+".badgeCode", "is required")
		}
		if _, dup := ids[ident.ID]; dup {
			return nil, decodeErr(path+".id", "duplicates an earlier identity")
		}
		if _, dup := refs[ident.ExternalRef]; dup {
			return nil, decodeErr(path+".externalRef", "duplicates an earlier identity")
		}
		if _, dup := badges[ident.BadgeCode]; dup {
			return nil, decodeErr(path+".badgeCode", "duplicates an earlier identity")
		}
		ids[ident.ID] = struct{}{}
		refs[ident.ExternalRef] = struct{}{}
		badges[ident.BadgeCode] = struct{}{}

		if ident.CreatedAt, err = optionalTime(ri.CreatedAt, path+".createdAt"); err != nil {
			return nil, err
		}
		if ident.UpdatedAt, err = optionalTime(ri.UpdatedAt, path+".updatedAt"); err != nil {
			return nil, err
		}
		if ident.UpdatedAt.IsZero() {
			ident.UpdatedAt = ident.CreatedAt
		}
		idents = append(idents, ident)
	}
	return idents, nil
}

func decodeSyncConfig(raw json.RawMessage) (syncconfig.Config, error) {
	var rc rawSyncConfig
	if err := unmarshalElement(raw, "syncConfig", &rc); err != nil {
		return syncconfig.Config{}, err
	}
	cfg := syncconfig.Config{
		EndpointURL:         strings.TrimSpace(rc.EndpointURL),
		AutoSync:            rc.AutoSync,
		SyncIntervalMinutes: syncconfig.DefaultIntervalMinutes,
	}
	if cfg.EndpointURL != "" {
		if err := ValidateEndpoint(cfg.EndpointURL); err != nil {
			return syncconfig.Config{}, decodeErr("syncConfig.endpointUrl", "%v", err)
		}
	}
	if rc.SyncInterval != nil {
		if *rc.SyncInterval < 1 {
			return syncconfig.Config{}, decodeErr("syncConfig.syncInterval", "must be at least 1")
		}
		cfg.SyncIntervalMinutes = *rc.SyncInterval
	}
	if rc.LastSync != nil && *rc.LastSync != "" {
		ts, err := time.Parse(time.RFC3339Nano, *rc.LastSync)
		if err != nil {
			return syncconfig.Config{}, decodeErr("syncConfig.lastSync", "must be an RFC 3339 timestamp")
		}
		cfg.LastSync = &ts
	}
	return cfg, nil
}

func optionalTime(raw, path string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, decodeErr(path, "must be an RFC 3339 timestamp")
	}
	return ts, nil
}

// ValidateEndpoint checks that raw is an absolute http or https URL.
func ValidateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("URL host is required")
	}
	return nil
}
