package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/breakwatch/internal/analysis"
	"github.com/rpggio/breakwatch/internal/domain/identity"
	"github.com/rpggio/breakwatch/internal/domain/scan"
	"github.com/rpggio/breakwatch/internal/domain/syncconfig"
	"github.com/stretchr/testify/require"
)

var exportTime = time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)

type memoryStore struct {
	contents Contents
	replaced []ReplaceSet
	err      error
}

func (m *memoryStore) Export(context.Context) (Contents, error) {
	return m.contents, m.err
}

func (m *memoryStore) Replace(_ context.Context, set ReplaceSet) error {
	if m.err != nil {
		return m.err
	}
	m.replaced = append(m.replaced, set)
	if set.Events != nil {
		m.contents.Events = *set.Events
	}
	if set.Identities != nil {
		m.contents.Identities = *set.Identities
	}
	if set.SyncConfig != nil {
		m.contents.SyncConfig = *set.SyncConfig
	}
	return nil
}

type fixedReports struct {
	res *analysis.Result
}

func (f fixedReports) Run(context.Context) (*analysis.Result, error) {
	return f.res, nil
}

type restoreCounter map[string]int

func (r restoreCounter) RestoreFinished(result string) { r[result]++ }

func sampleContents() Contents {
	return Contents{
		Events: []scan.Event{
			{ID: "e1", BadgeCode: "A1", Timestamp: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC), Status: scan.StatusSuccess},
			{ID: "e2", BadgeCode: "A1", Timestamp: time.Date(2024, 3, 9, 12, 45, 0, 0, time.UTC), Status: scan.StatusError},
		},
		Identities: []identity.Identity{{
			ID: "i1", Name: "Ana", ExternalRef: "100", BadgeCode: "A1",
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		}},
		SyncConfig: syncconfig.Config{EndpointURL: "https://sync.example.com/backup", SyncIntervalMinutes: 15},
	}
}

func TestExportBackup_RestoresToSameState(t *testing.T) {
	source := &memoryStore{contents: sampleContents()}
	svc := NewService(source, nil, nil, nil)
	svc.SetClock(func() time.Time { return exportTime })

	doc, err := svc.ExportBackup(context.Background())
	require.NoError(t, err)
	require.Equal(t, DocumentVersion, doc.Version)
	require.Equal(t, exportTime, doc.ExportedAt)

	var buf bytes.Buffer
	require.NoError(t, EncodeBackup(&buf, doc))
	require.Contains(t, buf.String(), `"syncConfig"`)
	require.Contains(t, buf.String(), `"exportedAt"`)

	target := &memoryStore{}
	restorer := NewService(target, nil, nil, nil)
	result, err := restorer.Restore(context.Background(), &buf)
	require.NoError(t, err)
	require.Equal(t, []string{"events", "identities", "syncConfig"}, result.Sections)
	require.Equal(t, 2, result.Events)

	require.Len(t, target.contents.Events, 2)
	for i, ev := range target.contents.Events {
		require.Equal(t, source.contents.Events[i].ID, ev.ID)
		require.True(t, source.contents.Events[i].Timestamp.Equal(ev.Timestamp))
		require.Equal(t, source.contents.Events[i].Status, ev.Status)
	}
	require.Equal(t, "Ana", target.contents.Identities[0].Name)
	require.True(t, source.contents.Identities[0].CreatedAt.Equal(target.contents.Identities[0].CreatedAt))
	require.Equal(t, 15, target.contents.SyncConfig.SyncIntervalMinutes)
}

func TestDecodeBackup_PartialDocument(t *testing.T) {
	set, err := DecodeBackup(strings.NewReader(`{"identities":[{"id":"i1","name":"Ana","externalRef":"7","badgeCode":"ab"}],"events":null}`))
	require.NoError(t, err)
	require.Nil(t, set.Events)
	require.Nil(t, set.SyncConfig)
	require.NotNil(t, set.Identities)
	require.Equal(t, "AB", (*set.Identities)[0].BadgeCode)
	require.Equal(t, []string{"identities"}, set.Sections())
}

func TestDecodeBackup_EmptySectionsReplace(t *testing.T) {
	set, err := DecodeBackup(strings.NewReader(`{"events":[]}`))
	require.NoError(t, err)
	require.NotNil(t, set.Events)
	require.Empty(t, *set.Events)
}

func TestDecodeBackup_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
	}{
		{"not json", `{"events": [`, "$"},
		{"array root", `[]`, "$"},
		{"no sections", `{"version":"1.0","exportedAt":"2024-01-01T00:00:00Z"}`, "$"},
		{"events not array", `{"events":{}}`, "events"},
		{"bad timestamp", `{"events":[{"id":"1","badgeCode":"A","timestamp":"2024-01-01T00:00:00Z"},{"id":"2","badgeCode":"A","timestamp":"soon"}]}`, "events[1].timestamp"},
		{"timestamp wrong type", `{"events":[{"id":"1","badgeCode":"A","timestamp":5}]}`, "events[0].timestamp"},
		{"missing badge", `{"events":[{"id":"1","timestamp":"2024-01-01T00:00:00Z"}]}`, "events[0].badgeCode"},
		{"bad status", `{"events":[{"id":"1","badgeCode":"A","timestamp":"2024-01-01T00:00:00Z","status":"ok"}]}`, "events[0].status"},
		{"duplicate event id", `{"events":[{"id":"1","badgeCode":"A","timestamp":"2024-01-01T00:00:00Z"},{"id":"1","badgeCode":"B","timestamp":"2024-01-01T00:00:00Z"}]}`, "events[1].id"},
		{"ref not digits", `{"identities":[{"id":"i","name":"Ana","externalRef":"A7","badgeCode":"X"}]}`, "identities[0].externalRef"},
		{"duplicate badge ignoring case", `{"identities":[{"id":"i","name":"Ana","externalRef":"1","badgeCode":"x"},{"id":"j","name":"Bia","externalRef":"2","badgeCode":"X"}]}`, "identities[1].badgeCode"},
		{"bad endpoint", `{"syncConfig":{"endpointUrl":"ftp://host/x"}}`, "syncConfig.endpointUrl"},
		{"bad interval", `{"syncConfig":{"syncInterval":0}}`, "syncConfig.syncInterval"},
		{"bad version", `{"events":[],"version":1}`, "version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBackup(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, ErrMalformedDocument)
			var derr *DecodeError
			require.True(t, errors.As(err, &derr))
			require.Equal(t, tt.path, derr.Path)
		})
	}
}

func TestRestore_MalformedLeavesStoreUntouched(t *testing.T) {
	store := &memoryStore{contents: sampleContents()}
	counter := restoreCounter{}
	svc := NewService(store, nil, nil, nil)
	svc.SetRecorder(counter)

	_, err := svc.Restore(context.Background(), strings.NewReader(`{"events":[{"id":"1","badgeCode":"A","timestamp":"bad"}],"identities":[]}`))
	require.ErrorIs(t, err, ErrMalformedDocument)
	require.Empty(t, store.replaced)
	require.Equal(t, sampleContents(), store.contents)
	require.Equal(t, 1, counter["error"])
}

func TestRestore_StoreFailure(t *testing.T) {
	boom := errors.New("disk I/O error")
	store := &memoryStore{err: boom}
	svc := NewService(store, nil, nil, nil)

	_, err := svc.Restore(context.Background(), strings.NewReader(`{"events":[]}`))
	require.ErrorIs(t, err, boom)
}

func TestExportReport(t *testing.T) {
	minutes := 55
	res := &analysis.Result{
		LongBreaks: []analysis.IntervalRecord{{
			BadgeCode: "A1", EmployeeName: "Ana", Day: analysis.Day{Year: 2024, Month: time.March, Day: 9},
			TotalReadings: 2, IntervalMinutes: &minutes,
		}},
		DailyStats: []analysis.DailyStat{{Label: "10/03"}},
		Summary:    analysis.Summary{TotalIntervals: 3, AverageInterval: 41},
	}
	svc := NewService(&memoryStore{}, fixedReports{res: res}, nil, nil)
	svc.SetClock(func() time.Time { return exportTime })

	doc, err := svc.ExportReport(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, doc.TotalIntervals)
	require.Equal(t, 41, doc.AverageInterval)

	var buf bytes.Buffer
	require.NoError(t, EncodeReport(&buf, doc))
	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	for _, key := range []string{"longBreaks", "dailyStats", "exportedAt", "totalIntervals", "averageInterval"} {
		require.Contains(t, decoded, key)
	}

	buf.Reset()
	require.NoError(t, svc.LongBreaksCSV(context.Background(), &buf))
	require.Equal(t, "Employee,Date,Interval (minutes),Status\nAna,2024-03-09,55,long interval\n", buf.String())
}

func TestWriteLongBreaksCSV_QuotesNames(t *testing.T) {
	minutes := 70
	var buf bytes.Buffer
	require.NoError(t, WriteLongBreaksCSV(&buf, []analysis.IntervalRecord{{
		EmployeeName: "Souza, João", Day: analysis.Day{Year: 2024, Month: time.January, Day: 2}, IntervalMinutes: &minutes,
	}}))
	require.Equal(t, "Employee,Date,Interval (minutes),Status\n\"Souza, João\",2024-01-02,70,long interval\n", buf.String())
}

func TestRestoreRemote_KeepsLocalSyncConfig(t *testing.T) {
	store := &memoryStore{contents: sampleContents()}
	svc := NewService(store, nil, nil, nil)

	doc := `{"events":[],"syncConfig":{"endpointUrl":"https://other.example.com","syncInterval":5}}`
	result, err := svc.RestoreRemote(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, []string{"events"}, result.Sections)
	require.False(t, result.SyncConfig)
	require.Empty(t, store.contents.Events)
	require.Equal(t, "https://sync.example.com/backup", store.contents.SyncConfig.EndpointURL)

	result, err = svc.RestoreRemote(context.Background(), strings.NewReader(`{"syncConfig":{"syncInterval":5}}`))
	require.NoError(t, err)
	require.Empty(t, result.Sections)
	require.Len(t, store.replaced, 1)
}
