package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhppoted/eo-backup/backup"
)

func gathered(t *testing.T, run *Run, name string) bool {
	families, err := run.registry.Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() == name {
			return true
		}
	}

	return false
}

func TestRunExported(t *testing.T) {
	run := NewRun("eo-backup", "backup")

	run.Exported(&backup.Summary{Document: "EO-export-20240307", ID: "S1", Lists: 3, Contacts: 42})

	assert.Equal(t, 3.0, testutil.ToFloat64(run.lists))
	assert.Equal(t, 42.0, testutil.ToFloat64(run.contacts))
	assert.Equal(t, 1.0, testutil.ToFloat64(run.documents))
}

func TestRunExportedWithoutDocument(t *testing.T) {
	run := NewRun("eo-backup", "backup")

	run.Exported(&backup.Summary{})
	run.Exported(nil)

	assert.Equal(t, 0.0, testutil.ToFloat64(run.lists))
	assert.Equal(t, 0.0, testutil.ToFloat64(run.documents))
}

func TestRunID(t *testing.T) {
	r1 := NewRun("eo-backup", "backup")
	r2 := NewRun("eo-backup", "backup")

	assert.Len(t, r1.ID(), 36)
	assert.NotEqual(t, r1.ID(), r2.ID())
}

func TestRunPruned(t *testing.T) {
	run := NewRun("eo-backup", "backup")

	run.Pruned(backup.Result{Removed: 5, Failed: 1})

	assert.Equal(t, 5.0, testutil.ToFloat64(run.removed))
	assert.Equal(t, 1.0, testutil.ToFloat64(run.failed))
}

func TestRunDone(t *testing.T) {
	run := NewRun("eo-backup", "backup")

	run.Done(nil)

	assert.Greater(t, testutil.ToFloat64(run.lastSuccess), 0.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(run.duration), 0.0)
	assert.True(t, gathered(t, run, "eo_backup_last_success_timestamp_seconds"))
}

func TestRunDoneWithError(t *testing.T) {
	run := NewRun("eo-backup", "backup")

	run.Done(errors.New("failed"))

	assert.False(t, gathered(t, run, "eo_backup_last_success_timestamp_seconds"))
	assert.True(t, gathered(t, run, "eo_backup_duration_seconds"))
}

func TestRunPush(t *testing.T) {
	var method, path, body string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		method, path, body = r.Method, r.URL.Path, string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	run := NewRun("eo-backup", "backup")
	run.Exported(&backup.Summary{ID: "S1", Lists: 3, Contacts: 42})
	run.Done(nil)

	require.NoError(t, run.Push(context.Background(), srv.URL))

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/metrics/job/eo-backup/operation/backup", path)
	assert.True(t, strings.Contains(body, "eo_backup_contacts_exported"), "pushed metrics should include contacts exported")
	assert.True(t, strings.Contains(body, "eo_backup_duration_seconds"), "pushed metrics should include the run duration")
	assert.True(t, strings.Contains(body, "eo_backup_last_success_timestamp_seconds"), "pushed metrics should include the last success timestamp")
}

func TestRunPushWithError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	run := NewRun("eo-backup", "backup")
	run.Done(nil)

	err := run.Push(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestRunPushWithoutPushgateway(t *testing.T) {
	assert.NoError(t, NewRun("eo-backup", "backup").Push(context.Background(), ""))
}
