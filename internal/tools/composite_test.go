package tools

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/testutil"
)

func serveProjects(fake *testutil.FakeCloudera) {
	fake.Handle(http.MethodGet, "/api/v2/projects", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page_token") == "" {
			testutil.WriteJSON(w, http.StatusOK, map[string]any{
				"projects": []any{
					map[string]any{"id": "p-1", "name": "Churn Model"},
					map[string]any{"id": "p-2", "name": "fraud-detection"},
				},
				"next_page_token": "2",
			})
			return
		}
		testutil.WriteJSON(w, http.StatusOK, map[string]any{
			"projects": []any{
				map[string]any{"id": "p-3", "name": "fraud-detection-v2"},
			},
		})
	})
}

func TestGetProjectID(t *testing.T) {
	h, fake := newTestHandler(t, "")
	serveProjects(fake)

	env := h.Call(context.Background(), "get_project_id", map[string]any{"project_name": "churn model"})
	require.True(t, env.Success, env.Message)
	assert.Equal(t, "Found project 'Churn Model'", env.Message)
	assert.Equal(t, map[string]any{"project_id": "p-1", "name": "Churn Model"}, env.Data)

	env = h.Call(context.Background(), "get_project_id", map[string]any{"project_name": "fraud-detection"})
	require.True(t, env.Success, env.Message)
	assert.Equal(t, "p-2", env.Data.(map[string]any)["project_id"])

	env = h.Call(context.Background(), "get_project_id", map[string]any{"project_name": "v2"})
	require.True(t, env.Success, env.Message)
	assert.Equal(t, "p-3", env.Data.(map[string]any)["project_id"])

	env = h.Call(context.Background(), "get_project_id", map[string]any{"project_name": "fraud"})
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "2 projects partially match")

	env = h.Call(context.Background(), "get_project_id", map[string]any{"project_name": "NonExistentProject12345"})
	assert.False(t, env.Success)
	assert.Equal(t, "Project 'NonExistentProject12345' not found", env.Message)
}

func TestGetProjectIDListsAll(t *testing.T) {
	h, fake := newTestHandler(t, "")
	serveProjects(fake)

	env := h.Call(context.Background(), "get_project_id", map[string]any{"project_name": "*"})
	require.True(t, env.Success, env.Message)
	assert.Equal(t, "Found 3 projects", env.Message)
	projects := env.Data.(map[string]any)["projects"].([]map[string]any)
	assert.Equal(t, "p-3", projects[2]["id"])

	reqs := fake.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "page_size=100", reqs[0].Query)
	assert.Equal(t, "page_size=100&page_token=2", reqs[1].Query)
}

func TestDeleteAllJobs(t *testing.T) {
	h, fake := newTestHandler(t, "p1")
	fake.JSON(http.MethodGet, "/api/v2/projects/p1/jobs", http.StatusOK, map[string]any{
		"jobs": []any{
			map[string]any{"id": "j1", "name": "a"},
			map[string]any{"id": "j2", "name": "b"},
		},
	})
	var mu sync.Mutex
	var deleted []string
	for _, id := range []string{"j1", "j2"} {
		id := id
		fake.Handle(http.MethodDelete, "/api/v2/projects/p1/jobs/"+id, func(w http.ResponseWriter, _ *http.Request) {
			mu.Lock()
			deleted = append(deleted, id)
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		})
	}

	env := h.Call(context.Background(), "delete_all_jobs", nil)
	require.True(t, env.Success, env.Message)
	assert.Equal(t, "Deleted 2 of 2 jobs", env.Message)
	assert.Equal(t, []string{"j1", "j2"}, deleted)
}

func TestDeleteAllJobsReportsFailures(t *testing.T) {
	h, fake := newTestHandler(t, "p1")
	fake.JSON(http.MethodGet, "/api/v2/projects/p1/jobs", http.StatusOK, map[string]any{
		"jobs": []any{map[string]any{"id": "j1"}, map[string]any{"id": "j2"}},
	})
	fake.JSON(http.MethodDelete, "/api/v2/projects/p1/jobs/j1", http.StatusOK, map[string]any{})
	fake.JSON(http.MethodDelete, "/api/v2/projects/p1/jobs/j2", http.StatusForbidden, map[string]any{"message": "denied"})

	env := h.Call(context.Background(), "delete_all_jobs", nil)
	assert.False(t, env.Success)
	assert.Equal(t, "Deleted 1 of 2 jobs", env.Message)
	details := env.Details.(map[string]any)
	assert.Equal(t, []string{"j1"}, details["deleted"])
	assert.Len(t, details["failed"], 1)
}

func TestDeleteAllJobsEmptyProject(t *testing.T) {
	h, fake := newTestHandler(t, "p1")
	fake.JSON(http.MethodGet, "/api/v2/projects/p1/jobs", http.StatusOK, map[string]any{"jobs": []any{}})

	env := h.Call(context.Background(), "delete_all_jobs", nil)
	require.True(t, env.Success, env.Message)
	assert.Equal(t, "No jobs to delete", env.Message)
}

type upload struct {
	path    string
	content string
}

func recordUploads(t *testing.T, fake *testutil.FakeCloudera) func() []upload {
	var mu sync.Mutex
	var got []upload
	fake.Handle(http.MethodPut, "/api/v2/projects/p1/files", func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile("file")
		if err != nil {
			testutil.WriteJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		mu.Lock()
		got = append(got, upload{path: r.FormValue("path"), content: string(b)})
		mu.Unlock()
		testutil.WriteJSON(w, http.StatusOK, map[string]any{"path": r.FormValue("path")})
	})
	return func() []upload {
		mu.Lock()
		defer mu.Unlock()
		out := append([]upload(nil), got...)
		sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
		return out
	}
}

func TestUploadFile(t *testing.T) {
	h, fake := newTestHandler(t, "p1")
	uploads := recordUploads(t, fake)

	local := filepath.Join(t.TempDir(), "train.py")
	require.NoError(t, os.WriteFile(local, []byte("print('hi')"), 0o600))

	env := h.Call(context.Background(), "upload_file", map[string]any{"file_path": local, "target_dir": "/src/"})
	require.True(t, env.Success, env.Message)
	assert.Equal(t, "Successfully uploaded '"+local+"' to 'src/train.py'", env.Message)
	assert.Equal(t, []upload{{path: "src/train.py", content: "print('hi')"}}, uploads())

	env = h.Call(context.Background(), "upload_file", map[string]any{"file_path": local, "target_name": "main.py"})
	require.True(t, env.Success, env.Message)
	assert.Equal(t, "main.py", env.Data.(map[string]any)["target_path"])
}

func TestUploadFileMissingLocalFile(t *testing.T) {
	h, fake := newTestHandler(t, "p1")

	env := h.Call(context.Background(), "upload_file", map[string]any{"file_path": filepath.Join(t.TempDir(), "missing.txt")})
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "File not found")
	assert.Empty(t, fake.Requests())
}

func TestUploadFolder(t *testing.T) {
	h, fake := newTestHandler(t, "p1")
	uploads := recordUploads(t, fake)

	root := t.TempDir()
	write := func(rel, content string) {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	write("main.py", "main")
	write("lib/util.py", "util")
	write(".git/config", "git")
	write("data/big.csv", "rows")
	write("node_modules/x.js", "js")

	env := h.Call(context.Background(), "upload_folder", map[string]any{
		"folder_path":    root,
		"ignore_folders": "data",
		"target_dir":     "app",
	})
	require.True(t, env.Success, env.Message)
	assert.Equal(t, "Uploaded 2 files from '"+root+"'", env.Message)
	assert.Equal(t, []upload{
		{path: "app/lib/util.py", content: "util"},
		{path: "app/main.py", content: "main"},
	}, uploads())
}

func TestUploadFolderNotADirectory(t *testing.T) {
	h, _ := newTestHandler(t, "p1")
	env := h.Call(context.Background(), "upload_folder", map[string]any{"folder_path": filepath.Join(t.TempDir(), "nope")})
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "Folder not found")
}

func TestDeleteAllJobsStopsWhenCanceled(t *testing.T) {
	h, fake := newTestHandler(t, "p1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake.Handle(http.MethodGet, "/api/v2/projects/p1/jobs", func(w http.ResponseWriter, _ *http.Request) {
		testutil.WriteJSON(w, http.StatusOK, map[string]any{
			"jobs": []any{map[string]any{"id": "j1"}, map[string]any{"id": "j2"}},
		})
		cancel()
	})

	env := h.Call(ctx, "delete_all_jobs", nil)
	assert.False(t, env.Success)
	assert.Equal(t, "Request canceled", env.Message)
	for _, r := range fake.Requests() {
		assert.NotEqual(t, http.MethodDelete, r.Method)
	}
}

func TestUploadFolderCanceled(t *testing.T) {
	h, fake := newTestHandler(t, "p1")
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.py"), []byte("x"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	env := h.Call(ctx, "upload_folder", map[string]any{"folder_path": root})
	assert.False(t, env.Success)
	assert.Equal(t, "Request canceled", env.Message)
	assert.Empty(t, fake.Requests())
}
